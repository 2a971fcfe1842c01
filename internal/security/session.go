package security

import (
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Cookies set by the scoring API. The OAuth pair only lives for the
// round trip to the provider.
const (
	ScorerCookie        = "cricketscore_scorer"
	OAuthStateCookie    = "cricketscore_oauth_state"
	OAuthProviderCookie = "cricketscore_oauth_provider"
)

// NewSessionID returns a random id for a scorer session. It also serves as
// OAuth state and as a throwaway CSRF secret.
func NewSessionID() string {
	return uuid.NewString()
}

// IsSecureRequest reports whether the scorer reached us over HTTPS, directly
// or through a proxy setting X-Forwarded-Proto.
func IsSecureRequest(r *http.Request) bool {
	switch {
	case r.TLS != nil:
		return true
	case r.Header.Get("X-Forwarded-Proto") == "https":
		return true
	default:
		return r.URL.Scheme == "https"
	}
}

// SetCookie writes an HttpOnly cookie valid until expires. A time in the
// past removes it.
func SetCookie(w http.ResponseWriter, r *http.Request, name, value string, expires time.Time) {
	maxAge := int(time.Until(expires).Seconds())
	if maxAge <= 0 {
		maxAge = -1
		value = ""
	}
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   IsSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie removes a cookie from the browser
func ClearCookie(w http.ResponseWriter, r *http.Request, name string) {
	SetCookie(w, r, name, "", time.Unix(0, 0))
}

// CookieValue returns the named cookie's value, "" when it is missing
func CookieValue(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}
