package middleware

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/creator-marketplace/pkg/helpers"
	"github.com/oksasatya/creator-marketplace/pkg/response"
)

func init() { gin.SetMode(gin.TestMode) }

type env struct {
	mr  *miniredis.Miniredis
	rdb *redis.Client
	jwt *helpers.JWTManager
	r   *response.Responder
}

func newEnv(t *testing.T) *env {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return &env{
		mr:  mr,
		rdb: rdb,
		jwt: helpers.NewJWTManager("a", "r", time.Hour, time.Hour),
		r:   response.NewResponder(logger),
	}
}

// login writes a session hash and returns an access cookie for it.
func (e *env) login(t *testing.T, uid, sid, roles string) *http.Cookie {
	t.Helper()
	require.NoError(t, e.rdb.HSet(context.Background(), helpers.KeySession(uid), map[string]any{
		"user_id": uid, "sid": sid, "roles": roles, "verified": true, "email": uid + "@example.com",
	}).Err())
	tok, _, err := e.jwt.GenerateAccessToken(uid, sid)
	require.NoError(t, err)
	return &http.Cookie{Name: helpers.AccessCookie, Value: tok}
}

func do(h http.Handler, method, path string, body io.Reader, mutate ...func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	for _, m := range mutate {
		m(req)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func withCookie(c *http.Cookie) func(*http.Request) {
	return func(r *http.Request) { r.AddCookie(c) }
}

func withHeader(k, v string) func(*http.Request) {
	return func(r *http.Request) { r.Header.Set(k, v) }
}

func formBody(v string) io.Reader { return strings.NewReader(v) }
