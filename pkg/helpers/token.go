package helpers

import (
	"crypto/rand"
	"encoding/base64"
)

// KeySession is the Redis hash holding a user's current login session.
func KeySession(userID string) string { return "user:session:" + userID }

// Redis keys for one-time email tokens.

func KeyEmailVerify(token string) string   { return "auth:verify:" + token }
func KeyPasswordReset(token string) string { return "auth:reset:" + token }

// RandomToken returns n random bytes encoded as unpadded base64url.
func RandomToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
