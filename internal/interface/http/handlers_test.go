package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/creator-marketplace/internal/application"
	"github.com/oksasatya/creator-marketplace/internal/domain/entity"
	"github.com/oksasatya/creator-marketplace/internal/interface/middleware"
	"github.com/oksasatya/creator-marketplace/pkg/csrf"
	"github.com/oksasatya/creator-marketplace/pkg/helpers"
	"github.com/oksasatya/creator-marketplace/pkg/response"
	"github.com/oksasatya/creator-marketplace/pkg/sanitize"
	"github.com/oksasatya/creator-marketplace/pkg/validation"
)

func init() {
	gin.SetMode(gin.TestMode)
	validation.Init()
}

type server struct {
	engine   *gin.Engine
	mr       *miniredis.Miniredis
	users    *memUsers
	creators *memCreators
	listings *memListings
}

func newServer(t *testing.T) *server {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	r := response.NewResponder(logger, application.Relayable()...)
	jwt := helpers.NewJWTManager("access-secret", "refresh-secret", 15*time.Minute, 24*time.Hour)
	csrfm := csrf.NewManager(csrf.NewRedisStore(rdb), time.Hour)

	s := &server{
		mr:       mr,
		users:    &memUsers{byID: map[string]*entity.User{}},
		creators: &memCreators{byID: map[string]*entity.Creator{}},
		listings: &memListings{byID: map[string]*entity.Listing{}},
	}
	authSvc := &application.AuthService{Users: s.users, JWT: jwt, Redis: rdb, CSRF: csrfm, Logger: logger}
	creatorSvc := &application.CreatorService{Creators: s.creators, Verifications: memVerifications{}, Listings: s.listings, Logger: logger}
	listingSvc := &application.ListingService{Listings: s.listings, Creators: s.creators, Users: s.users, Logger: logger}

	users := NewUserHandler(authSvc, csrfm, logger, r, "", false)
	auth := NewAuthHandler(authSvc, csrfm, r)
	creators := NewCreatorHandler(creatorSvc, r)
	listings := NewListingHandler(listingSvc, r)

	e := gin.New()
	e.Use(middleware.RequestIDMiddleware())
	api := e.Group("/api")
	api.POST("/register", users.Register)
	api.POST("/login", users.Login)
	api.GET("/storefronts/:username", creators.Storefront)
	api.GET("/listings/:id", middleware.OptionalAuth(rdb, jwt), listings.Get)

	authed := api.Group("", middleware.Auth(rdb, jwt, r), middleware.CSRF(csrfm, r))
	authed.GET("/me", users.Me)
	authed.GET("/csrf", auth.CSRFToken)
	authed.POST("/logout", users.Logout)
	authed.GET("/creators/me", creators.GetMe)
	authed.PUT("/creators/me", creators.UpdateMe)
	authed.GET("/listings/mine", listings.Mine)
	s.engine = e
	return s
}

type envelope struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Meta    map[string]any    `json:"meta"`
	Error   map[string]string `json:"error"`
}

func (s *server) do(t *testing.T, req *http.Request, cookies []*http.Cookie) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w, env
}

func jsonReq(method, path string, body any) *http.Request {
	b, _ := json.Marshal(body)
	req := httptest.NewRequest(method, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func formReq(method, path string, fields map[string]string) *http.Request {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		_ = mw.WriteField(k, v)
	}
	_ = mw.Close()
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

// signup registers and logs in, returning the session cookies and the form token.
func (s *server) signup(t *testing.T, email string) ([]*http.Cookie, string) {
	t.Helper()
	w, _ := s.do(t, jsonReq(http.MethodPost, "/api/register", map[string]string{
		"email": email, "password": "correct horse", "name": "Jane Doe",
	}), nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w, env := s.do(t, jsonReq(http.MethodPost, "/api/login", map[string]string{
		"email": email, "password": "correct horse",
	}), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	tok, _ := env.Meta["csrf_token"].(string)
	require.NotEmpty(t, tok)
	return w.Result().Cookies(), tok
}

func TestRegisterLoginAndMe(t *testing.T) {
	s := newServer(t)
	cookies, _ := s.signup(t, "jane@example.com")

	names := map[string]bool{}
	for _, c := range cookies {
		names[c.Name] = c.HttpOnly
	}
	assert.True(t, names[helpers.AccessCookie])
	assert.True(t, names[helpers.RefreshCookie])

	w, env := s.do(t, httptest.NewRequest(http.MethodGet, "/api/me", nil), cookies)
	require.Equal(t, http.StatusOK, w.Code)
	var u map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &u))
	assert.Equal(t, "jane@example.com", u["email"])
	assert.Equal(t, []any{"creator"}, u["roles"])
	assert.NotContains(t, u, "password")
}

func TestRegisterValidation(t *testing.T) {
	s := newServer(t)

	w, env := s.do(t, jsonReq(http.MethodPost, "/api/register", map[string]string{
		"email": "not-an-email", "password": "short", "name": "Jane",
	}), nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, env.Error, "email")
	assert.Contains(t, env.Error, "password")

	w, env = s.do(t, jsonReq(http.MethodPost, "/api/register", map[string]string{
		"email": "jane@example.com", "password": "correct horse", "name": "<b>Jane</b>",
	}), nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, sanitize.ErrNameChars.Error(), env.Error["name"])

	s.signup(t, "jane@example.com")
	w, _ = s.do(t, jsonReq(http.MethodPost, "/api/register", map[string]string{
		"email": "jane@example.com", "password": "correct horse", "name": "Jane",
	}), nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestLoginRejectsBadPassword(t *testing.T) {
	s := newServer(t)
	s.signup(t, "jane@example.com")

	w, env := s.do(t, jsonReq(http.MethodPost, "/api/login", map[string]string{
		"email": "jane@example.com", "password": "wrong password",
	}), nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, env.Success)
	assert.Empty(t, w.Result().Cookies())
}

func TestSettingsRequireFormToken(t *testing.T) {
	s := newServer(t)
	cookies, tok := s.signup(t, "jane@example.com")
	fields := map[string]string{"display_name": "Jane Doe", "username": "janedoe", "bio": "<b>hi</b> there"}

	w, env := s.do(t, formReq(http.MethodPut, "/api/creators/me", fields), cookies)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, env.Message, "invalid or expired form")

	req := formReq(http.MethodPut, "/api/creators/me", fields)
	req.Header.Set(middleware.CSRFHeader, tok)
	w, env = s.do(t, req, cookies)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var cr map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &cr))
	assert.Equal(t, "janedoe", cr["username"])
	assert.Equal(t, "hi there", cr["bio"])

	// spent
	req = formReq(http.MethodPut, "/api/creators/me", fields)
	req.Header.Set(middleware.CSRFHeader, tok)
	w, _ = s.do(t, req, cookies)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// a fresh token from /csrf works as a form field
	_, env = s.do(t, httptest.NewRequest(http.MethodGet, "/api/csrf", nil), cookies)
	var issued map[string]string
	require.NoError(t, json.Unmarshal(env.Data, &issued))
	fields[middleware.CSRFField] = issued["csrf_token"]
	fields["username"] = "x"
	w, env = s.do(t, formReq(http.MethodPut, "/api/creators/me", fields), cookies)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, sanitize.ErrUsernameLength.Error(), env.Error["username"])

	fields["display_name"] = "R2D2"
	fields["username"] = "janedoe"
	_, env = s.do(t, httptest.NewRequest(http.MethodGet, "/api/csrf", nil), cookies)
	require.NoError(t, json.Unmarshal(env.Data, &issued))
	fields[middleware.CSRFField] = issued["csrf_token"]
	w, env = s.do(t, formReq(http.MethodPut, "/api/creators/me", fields), cookies)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, sanitize.ErrNameChars.Error(), env.Error["display_name"])
}

func TestStorefrontAndListingVisibility(t *testing.T) {
	s := newServer(t)
	cookies, tok := s.signup(t, "jane@example.com")
	req := formReq(http.MethodPut, "/api/creators/me", map[string]string{"display_name": "Jane Doe", "username": "janedoe"})
	req.Header.Set(middleware.CSRFHeader, tok)
	w, _ := s.do(t, req, cookies)
	require.Equal(t, http.StatusOK, w.Code)

	cr, err := s.creators.GetByUsername(context.Background(), "janedoe")
	require.NoError(t, err)
	live := entity.Listing{ID: uuid.NewString(), CreatorID: cr.ID, Title: "Jacket", Status: entity.ListingActive, SyncStatus: entity.SyncSynced, PriceCents: 15001}
	pending := entity.Listing{ID: uuid.NewString(), CreatorID: cr.ID, Title: "Boots", Status: entity.ListingPending, SyncStatus: entity.SyncPending}
	s.listings.put(live)
	s.listings.put(pending)

	w, env := s.do(t, httptest.NewRequest(http.MethodGet, "/api/storefronts/JaneDoe", nil), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var sf struct {
		Creator  map[string]any   `json:"creator"`
		Listings []map[string]any `json:"listings"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &sf))
	assert.NotContains(t, sf.Creator, "paypal_email")
	require.Len(t, sf.Listings, 1)
	assert.Equal(t, "150.01", sf.Listings[0]["price"])
	assert.NotContains(t, sf.Listings[0], "sync_status")

	w, _ = s.do(t, httptest.NewRequest(http.MethodGet, "/api/storefronts/nobody", nil), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = s.do(t, httptest.NewRequest(http.MethodGet, "/api/listings/"+pending.ID, nil), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w, env = s.do(t, httptest.NewRequest(http.MethodGet, "/api/listings/"+pending.ID, nil), cookies)
	require.Equal(t, http.StatusOK, w.Code)
	var l map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &l))
	assert.Equal(t, "pending", l["sync_status"])

	w, _ = s.do(t, httptest.NewRequest(http.MethodGet, "/api/listings/not-a-uuid", nil), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, env = s.do(t, httptest.NewRequest(http.MethodGet, "/api/listings/mine?status=pending_approval", nil), cookies)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, env.Meta["count"])

	w, _ = s.do(t, httptest.NewRequest(http.MethodGet, "/api/listings/mine?status=sold", nil), cookies)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestLogoutEndsSession(t *testing.T) {
	s := newServer(t)
	cookies, tok := s.signup(t, "jane@example.com")

	req := httptest.NewRequest(http.MethodPost, "/api/logout", nil)
	req.Header.Set(middleware.CSRFHeader, tok)
	w, _ := s.do(t, req, cookies)
	require.Equal(t, http.StatusOK, w.Code)
	for _, c := range w.Result().Cookies() {
		assert.Empty(t, c.Value)
	}

	w, _ = s.do(t, httptest.NewRequest(http.MethodGet, "/api/me", nil), cookies)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
