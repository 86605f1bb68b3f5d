package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
)

const (
	// CSRFFieldName is the form field carrying the token
	CSRFFieldName = "csrf_token"
	// CSRFHeaderName is accepted as an alternative to the form field
	CSRFHeaderName = "X-CSRF-Token"
)

// CSRF signs operator session IDs into form tokens with HMAC-SHA256.
// A token is valid for as long as the session it was derived from.
type CSRF struct {
	secret []byte
}

// NewCSRF creates a token signer for secret
func NewCSRF(secret string) *CSRF {
	return &CSRF{secret: []byte(secret)}
}

// Token returns the token for sessionID, or "" without a session
func (c *CSRF) Token(sessionID string) string {
	if sessionID == "" {
		return ""
	}
	mac := hmac.New(sha256.New, c.secret)
	mac.Write([]byte(sessionID))
	return hex.EncodeToString(mac.Sum(nil))
}

// Valid reports whether token was issued for sessionID
func (c *CSRF) Valid(sessionID, token string) bool {
	if sessionID == "" || token == "" {
		return false
	}
	return hmac.Equal([]byte(c.Token(sessionID)), []byte(token))
}

// RequestToken reads the submitted token from the header or the form
func RequestToken(r *http.Request) string {
	if token := r.Header.Get(CSRFHeaderName); token != "" {
		return token
	}
	return r.FormValue(CSRFFieldName)
}
