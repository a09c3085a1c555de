package application

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/creator-marketplace/config"
	"github.com/oksasatya/creator-marketplace/internal/domain/entity"
	repo "github.com/oksasatya/creator-marketplace/internal/domain/repository"
	"github.com/oksasatya/creator-marketplace/pkg/apperror"
	"github.com/oksasatya/creator-marketplace/pkg/csrf"
	"github.com/oksasatya/creator-marketplace/pkg/helpers"
	"github.com/oksasatya/creator-marketplace/pkg/mailer"
	"github.com/oksasatya/creator-marketplace/pkg/mailer/templates"
	"github.com/oksasatya/creator-marketplace/pkg/saga"
	"github.com/oksasatya/creator-marketplace/pkg/sanitize"
)

var ErrInvalidCredentials = apperror.Authentication("invalid email or password")

const (
	verifyTokenTTL = 24 * time.Hour
	resetTokenTTL  = time.Hour
)

type AuthService struct {
	Users  repo.UserRepository
	JWT    *helpers.JWTManager
	Redis  *redis.Client
	CSRF   *csrf.Manager
	Mail   EmailQueue
	Config *config.Config
	Logger *logrus.Logger
}

type TokenPair struct {
	AccessToken        string
	AccessTokenExpiry  time.Time
	RefreshToken       string
	RefreshTokenExpiry time.Time
	SessionID          string
}

type RegisterInput struct {
	Email    string
	Password string
	Name     string
}

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

func (s *AuthService) sessionTTL() time.Duration {
	if s.Config != nil && s.Config.SessionTTL > 0 {
		return s.Config.SessionTTL
	}
	return 24 * time.Hour
}

// Register creates an account with the creator role.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*entity.User, error) {
	name, err := sanitize.Name(in.Name)
	if err != nil {
		return nil, apperror.Validation("name", err.Error())
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))
	hash, err := helpers.HashPassword(in.Password)
	if errors.Is(err, helpers.ErrPasswordTooLong) {
		return nil, apperror.Validation("password", err.Error())
	}
	if err != nil {
		return nil, apperror.Internal("hash password", err)
	}
	u := &entity.User{Email: email, Password: hash, Name: name}
	err = saga.Run(ctx, s.Logger,
		saga.Step{
			Name:       "create user",
			Action:     func(ctx context.Context) error { return s.Users.Create(ctx, u) },
			Compensate: func(ctx context.Context) error { return s.Users.Delete(ctx, u.ID) },
		},
		saga.Step{
			Name:   "assign role",
			Action: func(ctx context.Context) error { return s.Users.AssignRole(ctx, u.ID, entity.RoleCreator) },
		},
	)
	if errors.Is(err, repo.ErrConflict) {
		return nil, apperror.Conflict("an account with this email already exists")
	}
	if err != nil {
		return nil, apperror.Upstream("database", err)
	}
	u.Roles = []string{entity.RoleCreator}
	return u, nil
}

// Authenticate validates email/password and returns the user without issuing tokens.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*entity.User, error) {
	u, err := s.Users.GetByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, apperror.Upstream("database", err)
	}
	if !helpers.CompareHashAndPassword(u.Password, password) {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// IssueTokens generates access/refresh tokens and records a fresh session in Redis.
// Any earlier session of the user is replaced.
func (s *AuthService) IssueTokens(ctx context.Context, u *entity.User) (TokenPair, error) {
	sid := uuid.NewString()
	pair, err := s.sign(u.ID, sid)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", u.ID).Error("generate tokens failed")
		}
		return TokenPair{}, apperror.Internal("issue tokens", err)
	}

	key := helpers.KeySession(u.ID)
	old, _ := s.Redis.HGet(ctx, key, "sid").Result()
	pipe := s.Redis.TxPipeline()
	pipe.Del(ctx, key)
	pipe.HSet(ctx, key, map[string]any{
		"user_id":    u.ID,
		"email":      u.Email,
		"name":       u.Name,
		"sid":        sid,
		"roles":      strings.Join(u.Roles, ","),
		"verified":   u.IsVerified,
		"created_at": nowRFC3339(),
	})
	pipe.Expire(ctx, key, s.sessionTTL())
	if _, err := pipe.Exec(ctx); err != nil {
		return TokenPair{}, apperror.Upstream("session store", err)
	}
	if old != "" && s.CSRF != nil {
		_ = s.CSRF.Revoke(ctx, old)
	}
	return pair, nil
}

func (s *AuthService) sign(userID, sid string) (TokenPair, error) {
	access, aexp, err := s.JWT.GenerateAccessToken(userID, sid)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, rexp, err := s.JWT.GenerateRefreshToken(userID, sid)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, AccessTokenExpiry: aexp, RefreshToken: refresh, RefreshTokenExpiry: rexp, SessionID: sid}, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*entity.User, TokenPair, error) {
	u, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return nil, TokenPair{}, err
	}
	pair, err := s.IssueTokens(ctx, u)
	if err != nil {
		return nil, TokenPair{}, err
	}
	return u, pair, nil
}

// Refresh rotates the session id and both tokens. The refresh token must
// belong to the session currently stored for the user.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	claims, err := s.JWT.ParseRefreshToken(refreshToken)
	if err != nil {
		return TokenPair{}, apperror.Authentication("session expired, please log in again")
	}
	key := helpers.KeySession(claims.UserID)
	current, err := s.Redis.HGet(ctx, key, "sid").Result()
	if errors.Is(err, redis.Nil) || (err == nil && current != claims.SessionID) {
		return TokenPair{}, apperror.Authentication("session expired, please log in again")
	}
	if err != nil {
		return TokenPair{}, apperror.Upstream("session store", err)
	}

	sid := uuid.NewString()
	pair, err := s.sign(claims.UserID, sid)
	if err != nil {
		return TokenPair{}, apperror.Internal("issue tokens", err)
	}
	pipe := s.Redis.TxPipeline()
	pipe.HSet(ctx, key, map[string]any{"sid": sid, "updated_at": nowRFC3339()})
	pipe.Expire(ctx, key, s.sessionTTL())
	if _, err := pipe.Exec(ctx); err != nil {
		return TokenPair{}, apperror.Upstream("session store", err)
	}
	if s.CSRF != nil {
		_ = s.CSRF.Revoke(ctx, claims.SessionID)
	}
	return pair, nil
}

var logoutScript = redis.NewScript(`
if redis.call('HGET', KEYS[1], 'sid') == ARGV[1] then
  return redis.call('DEL', KEYS[1])
end
return 0
`)

// Logout ends the session sid if it is still the current one.
func (s *AuthService) Logout(ctx context.Context, userID, sid string) error {
	if err := logoutScript.Run(ctx, s.Redis, []string{helpers.KeySession(userID)}, sid).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return apperror.Upstream("session store", err)
	}
	if s.CSRF != nil {
		if err := s.CSRF.Revoke(ctx, sid); err != nil && s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", userID).Warn("revoke csrf token failed")
		}
	}
	return nil
}

func (s *AuthService) Me(ctx context.Context, userID string) (*entity.User, error) {
	u, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, dbErr("user", err)
	}
	return u, nil
}

type tokenPayload struct {
	UserID string `json:"user_id"`
}

func withToken(base, token string) string {
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + "token=" + url.QueryEscape(token)
}

// InitEmailVerification emails a one-time verification link.
func (s *AuthService) InitEmailVerification(ctx context.Context, userID string) error {
	u, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		return dbErr("user", err)
	}
	if u.IsVerified {
		return apperror.Conflict("email is already verified")
	}
	token, err := helpers.RandomToken(32)
	if err != nil {
		return apperror.Internal("generate token", err)
	}
	if err := helpers.RedisSetJSON(ctx, s.Redis, helpers.KeyEmailVerify(token), tokenPayload{UserID: u.ID}, verifyTokenTTL); err != nil {
		return apperror.Upstream("token store", err)
	}
	job := mailer.EmailJob{
		To:       u.Email,
		Template: templates.VerifyEmail,
		Data: templates.Data(s.Config, templates.VerifyEmail, u.Name, u.Email,
			templates.WithExpiresIn(verifyTokenTTL),
			templates.WithAction(withToken(s.Config.VerifyEmailURL, token), "Verify email")),
	}
	if err := s.Mail.Enqueue(ctx, job); err != nil {
		return apperror.Upstream("email queue", errors.Join(ErrMailQueueDown, err))
	}
	return nil
}

// ConfirmEmailVerification consumes a verification token.
func (s *AuthService) ConfirmEmailVerification(ctx context.Context, token string) error {
	var p tokenPayload
	ok, err := helpers.RedisTakeJSON(ctx, s.Redis, helpers.KeyEmailVerify(token), &p)
	if err != nil {
		return apperror.Upstream("token store", err)
	}
	if !ok || p.UserID == "" {
		return apperror.Validation("token", "invalid or expired token")
	}
	if err := s.Users.MarkVerified(ctx, p.UserID); err != nil {
		return dbErr("user", err)
	}
	if n, _ := s.Redis.Exists(ctx, helpers.KeySession(p.UserID)).Result(); n == 1 {
		_ = s.Redis.HSet(ctx, helpers.KeySession(p.UserID), "verified", true).Err()
	}
	return nil
}

// InitPasswordReset emails a reset link. Unknown emails succeed silently.
func (s *AuthService) InitPasswordReset(ctx context.Context, email string) error {
	u, err := s.Users.GetByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, repo.ErrNotFound) {
		return nil
	}
	if err != nil {
		return apperror.Upstream("database", err)
	}
	token, err := helpers.RandomToken(32)
	if err != nil {
		return apperror.Internal("generate token", err)
	}
	if err := helpers.RedisSetJSON(ctx, s.Redis, helpers.KeyPasswordReset(token), tokenPayload{UserID: u.ID}, resetTokenTTL); err != nil {
		return apperror.Upstream("token store", err)
	}
	job := mailer.EmailJob{
		To:       u.Email,
		Template: templates.ResetPassword,
		Data: templates.Data(s.Config, templates.ResetPassword, u.Name, u.Email,
			templates.WithExpiresIn(resetTokenTTL),
			templates.WithAction(withToken(s.Config.ResetPasswordURL, token), "Reset password")),
	}
	if err := s.Mail.Enqueue(ctx, job); err != nil {
		return apperror.Upstream("email queue", errors.Join(ErrMailQueueDown, err))
	}
	return nil
}

// ConfirmPasswordReset sets a new password and ends the current session.
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, token, password string) error {
	hash, err := helpers.HashPassword(password)
	if errors.Is(err, helpers.ErrPasswordTooLong) {
		return apperror.Validation("password", err.Error())
	}
	if err != nil {
		return apperror.Internal("hash password", err)
	}
	var p tokenPayload
	ok, err := helpers.RedisTakeJSON(ctx, s.Redis, helpers.KeyPasswordReset(token), &p)
	if err != nil {
		return apperror.Upstream("token store", err)
	}
	if !ok || p.UserID == "" {
		return apperror.Validation("token", "invalid or expired token")
	}
	if err := s.Users.UpdatePassword(ctx, p.UserID, hash); err != nil {
		return dbErr("user", err)
	}
	if err := s.Redis.Del(ctx, helpers.KeySession(p.UserID)).Err(); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("user_id", p.UserID).Warn("drop session after password reset failed")
	}
	return nil
}
