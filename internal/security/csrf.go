package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
)

// CSRFHeader must echo the scorer's token on every write made with the
// scorer cookie. Bearer-token clients do not send it.
const CSRFHeader = "X-CSRF-Token"

// CSRFGenerator binds CSRF tokens to scorer sessions. A token is the
// HMAC-SHA256 of the session id, so nothing is stored.
type CSRFGenerator struct {
	key []byte
}

// NewCSRFGenerator keys token derivation with secret
func NewCSRFGenerator(secret string) *CSRFGenerator {
	return &CSRFGenerator{key: []byte(secret)}
}

func (g *CSRFGenerator) sum(sessionID string) []byte {
	mac := hmac.New(sha256.New, g.key)
	mac.Write([]byte(sessionID))
	return mac.Sum(nil)
}

// Token is handed to the scorer at login and by /api/me.
// There is no token without a session.
func (g *CSRFGenerator) Token(sessionID string) string {
	if sessionID == "" {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(g.sum(sessionID))
}

// Valid checks a header value against the scorer's session
func (g *CSRFGenerator) Valid(sessionID, token string) bool {
	if sessionID == "" || token == "" {
		return false
	}
	got, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return false
	}
	return hmac.Equal(g.sum(sessionID), got)
}
