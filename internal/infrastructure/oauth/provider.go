// Package oauth binds the supported social platforms to their OAuth 2.0
// endpoints and profile APIs so a creator can prove they own a handle.
package oauth

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/oksasatya/creator-marketplace/pkg/sanitize"
	"github.com/tidwall/gjson"
	"golang.org/x/oauth2"
)

// Provider is one platform's OAuth client plus where to read the handle from.
type Provider struct {
	Platform sanitize.Platform
	Config   *oauth2.Config
	// ProfileEndpoint is fetched with the user's token.
	ProfileEndpoint string
	// HandlePath is a gjson path into the profile response.
	HandlePath string
	// Params are sent on both the authorize and the token request.
	Params map[string]string
}

// Credentials are the client id and secret registered with a platform.
type Credentials struct {
	ClientID     string
	ClientSecret string
}

type spec struct {
	endpoint oauth2.Endpoint
	scopes   []string
	profile  string
	handle   string
	// clientKey sends the client id as client_key, as TikTok's v2 API expects.
	clientKey bool
}

func knownSpecs() map[string]spec {
	return map[string]spec{
		"instagram": {
			endpoint: oauth2.Endpoint{
				AuthURL:   "https://api.instagram.com/oauth/authorize",
				TokenURL:  "https://api.instagram.com/oauth/access_token",
				AuthStyle: oauth2.AuthStyleInParams,
			},
			scopes:  []string{"user_profile"},
			profile: "https://graph.instagram.com/me?fields=id,username",
			handle:  "username",
		},
		"tiktok": {
			endpoint: oauth2.Endpoint{
				AuthURL:   "https://www.tiktok.com/v2/auth/authorize/",
				TokenURL:  "https://open.tiktokapis.com/v2/oauth/token/",
				AuthStyle: oauth2.AuthStyleInParams,
			},
			scopes:    []string{"user.info.basic", "user.info.profile"},
			profile:   "https://open.tiktokapis.com/v2/user/info/?fields=open_id,username",
			handle:    "data.user.username",
			clientKey: true,
		},
		"youtube": {
			endpoint: oauth2.Endpoint{
				AuthURL:  "https://accounts.google.com/o/oauth2/auth",
				TokenURL: "https://oauth2.googleapis.com/token",
			},
			scopes:  []string{"https://www.googleapis.com/auth/youtube.readonly"},
			profile: "https://www.googleapis.com/youtube/v3/channels?part=snippet&mine=true",
			handle:  "items.0.snippet.customUrl",
		},
		"twitter": {
			endpoint: oauth2.Endpoint{
				AuthURL:   "https://twitter.com/i/oauth2/authorize",
				TokenURL:  "https://api.twitter.com/2/oauth2/token",
				AuthStyle: oauth2.AuthStyleInHeader,
			},
			scopes:  []string{"users.read", "tweet.read"},
			profile: "https://api.twitter.com/2/users/me",
			handle:  "data.username",
		},
	}
}

// Registry holds the providers that have credentials configured.
type Registry struct {
	byKey map[string]Provider
}

// NewRegistry builds providers for every platform that has credentials.
// Callbacks land on <redirectBase>/<platform>/callback.
func NewRegistry(platforms *sanitize.Platforms, creds map[string]Credentials, redirectBase string) *Registry {
	r := &Registry{byKey: map[string]Provider{}}
	redirectBase = strings.TrimRight(redirectBase, "/")
	known := knownSpecs()
	for _, key := range platforms.Keys() {
		c, ok := creds[key]
		if !ok || c.ClientID == "" {
			continue
		}
		s, ok := known[key]
		if !ok {
			continue
		}
		pl, _ := platforms.Get(key)
		var params map[string]string
		if s.clientKey {
			params = map[string]string{"client_key": c.ClientID}
		}
		r.Register(Provider{
			Platform: pl,
			Config: &oauth2.Config{
				ClientID:     c.ClientID,
				ClientSecret: c.ClientSecret,
				Endpoint:     s.endpoint,
				RedirectURL:  redirectBase + "/" + key + "/callback",
				Scopes:       s.scopes,
			},
			ProfileEndpoint: s.profile,
			HandlePath:      s.handle,
			Params:          params,
		})
	}
	return r
}

// Register adds or replaces a provider.
func (r *Registry) Register(p Provider) {
	r.byKey[p.Platform.Key] = p
}

func (r *Registry) Get(key string) (Provider, bool) {
	p, ok := r.byKey[strings.ToLower(strings.TrimSpace(key))]
	return p, ok
}

func (p Provider) options(first oauth2.AuthCodeOption) []oauth2.AuthCodeOption {
	opts := []oauth2.AuthCodeOption{first}
	for k, v := range p.Params {
		opts = append(opts, oauth2.SetAuthURLParam(k, v))
	}
	return opts
}

// AuthCodeURL returns the authorize URL with a PKCE S256 challenge for verifier.
func (p Provider) AuthCodeURL(state, verifier string) string {
	return p.Config.AuthCodeURL(state, p.options(oauth2.S256ChallengeOption(verifier))...)
}

// Exchange trades the authorization code for a token.
func (p Provider) Exchange(ctx context.Context, code, verifier string) (*oauth2.Token, error) {
	return p.Config.Exchange(ctx, code, p.options(oauth2.VerifierOption(verifier))...)
}

// Handle fetches the authenticated user's profile and extracts the handle.
func (p Provider) Handle(ctx context.Context, tok *oauth2.Token) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.ProfileEndpoint, nil)
	if err != nil {
		return "", err
	}
	res, err := p.Config.Client(ctx, tok).Do(req)
	if err != nil {
		return "", fmt.Errorf("%s profile: %w", p.Platform.Key, err)
	}
	defer func() { _ = res.Body.Close() }()
	raw, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("%s profile: read body: %w", p.Platform.Key, err)
	}
	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%s profile: status %d", p.Platform.Key, res.StatusCode)
	}
	handle := strings.TrimSpace(gjson.GetBytes(raw, p.HandlePath).String())
	if p.Platform.Key != "youtube" {
		handle = strings.TrimPrefix(handle, "@")
	}
	if handle == "" {
		return "", fmt.Errorf("%s profile: no handle at %q", p.Platform.Key, p.HandlePath)
	}
	return handle, nil
}

// ProfileURL builds the public profile link for handle.
func (p Provider) ProfileURL(handle string) string {
	return fmt.Sprintf(p.Platform.ProfileURL, url.PathEscape(handle))
}
