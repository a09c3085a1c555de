package application

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"github.com/oksasatya/creator-marketplace/internal/domain/entity"
	repo "github.com/oksasatya/creator-marketplace/internal/domain/repository"
	"github.com/oksasatya/creator-marketplace/internal/infrastructure/oauth"
	"github.com/oksasatya/creator-marketplace/pkg/apperror"
	"github.com/oksasatya/creator-marketplace/pkg/helpers"
	"github.com/oksasatya/creator-marketplace/pkg/sanitize"
)

const defaultStateTTL = 10 * time.Minute

// SocialService verifies social accounts through each platform's OAuth flow.
type SocialService struct {
	Providers     *oauth.Registry
	Platforms     *sanitize.Platforms
	Creators      repo.CreatorRepository
	Verifications repo.VerificationRepository
	Redis         *redis.Client
	Logger        *logrus.Logger
	StateTTL      time.Duration
}

type oauthState struct {
	UserID   string `json:"user_id"`
	Platform string `json:"platform"`
	Verifier string `json:"verifier"`
}

func stateKey(state string) string { return "oauth:state:" + state }

var errBadState = apperror.Validation("state", "authorization request is invalid or expired, please start again")

func (s *SocialService) provider(platform string) (oauth.Provider, error) {
	if p, ok := s.Providers.Get(platform); ok {
		return p, nil
	}
	if _, ok := s.Platforms.Get(platform); ok {
		return oauth.Provider{}, apperror.Validation("platform", "verification for this platform is not available")
	}
	return oauth.Provider{}, apperror.Validation("platform", sanitize.ErrUnknownPlatform.Error())
}

// Connect starts verification and returns the provider's authorize URL.
func (s *SocialService) Connect(ctx context.Context, userID, platform string) (string, error) {
	p, err := s.provider(platform)
	if err != nil {
		return "", err
	}
	if _, err := s.Creators.GetByUserID(ctx, userID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return "", apperror.Authorization("set up your creator profile first")
		}
		return "", apperror.Upstream("database", err)
	}

	state, err := helpers.RandomToken(24)
	if err != nil {
		return "", apperror.Internal("generate state", err)
	}
	verifier := oauth2.GenerateVerifier()
	ttl := s.StateTTL
	if ttl <= 0 {
		ttl = defaultStateTTL
	}
	st := oauthState{UserID: userID, Platform: p.Platform.Key, Verifier: verifier}
	if err := helpers.RedisSetJSON(ctx, s.Redis, stateKey(state), st, ttl); err != nil {
		return "", apperror.Upstream("state store", err)
	}
	return p.AuthCodeURL(state, verifier), nil
}

// CallbackInput carries the query parameters the provider redirected with.
type CallbackInput struct {
	Code  string
	State string
	// Error is set when the user denied access.
	Error string
}

// Callback completes verification and stores a verified link.
func (s *SocialService) Callback(ctx context.Context, userID, platform string, in CallbackInput) (*entity.CreatorVerification, error) {
	p, err := s.provider(platform)
	if err != nil {
		return nil, err
	}
	if in.State == "" {
		return nil, errBadState
	}
	var st oauthState
	ok, err := helpers.RedisTakeJSON(ctx, s.Redis, stateKey(in.State), &st)
	if err != nil {
		return nil, apperror.Upstream("state store", err)
	}
	if !ok {
		return nil, errBadState
	}
	if st.UserID != userID || st.Platform != p.Platform.Key {
		return nil, apperror.Authorization("this authorization request belongs to a different account")
	}
	if in.Error != "" {
		return nil, apperror.Validation("code", "authorization was cancelled")
	}
	if in.Code == "" {
		return nil, apperror.Validation("code", "is required")
	}

	tok, err := p.Exchange(ctx, in.Code, st.Verifier)
	if err != nil {
		return nil, apperror.Upstream("oauth exchange", errors.Join(ErrProviderRejected, err))
	}
	handle, err := p.Handle(ctx, tok)
	if err != nil {
		return nil, apperror.Upstream("oauth profile", errors.Join(ErrProviderRejected, err))
	}
	profileURL, err := s.Platforms.SocialURL(p.Platform.Key, p.ProfileURL(handle))
	if err != nil {
		return nil, apperror.Upstream("oauth profile", errors.Join(ErrProviderRejected, err))
	}

	c, err := s.Creators.GetByUserID(ctx, userID)
	if err != nil {
		return nil, dbErr("creator profile", err)
	}
	now := time.Now()
	v := &entity.CreatorVerification{
		CreatorID:  c.ID,
		Platform:   p.Platform.Key,
		Handle:     handle,
		ProfileURL: profileURL,
		Verified:   true,
		VerifiedAt: &now,
	}
	if err := s.Verifications.Upsert(ctx, v); err != nil {
		return nil, apperror.Upstream("database", err)
	}
	if s.Logger != nil {
		s.Logger.WithFields(logrus.Fields{"creator_id": c.ID, "platform": v.Platform}).Info("social account verified")
	}
	return v, nil
}
