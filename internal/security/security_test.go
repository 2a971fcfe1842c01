package security

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestHashPassword(t *testing.T) {
	password := "testPassword123"

	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if hash == "" || hash == password {
		t.Errorf("HashPassword() = %q", hash)
	}

	hash2, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if hash == hash2 {
		t.Error("HashPassword() should produce different hashes due to salt")
	}
}

func TestCheckPassword(t *testing.T) {
	password := "mySecurePassword"
	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}

	tests := []struct {
		name     string
		password string
		hash     string
		want     bool
	}{
		{"correct password", password, hash, true},
		{"incorrect password", "wrongPassword", hash, false},
		{"empty password", "", hash, false},
		{"oauth account without hash", password, "", false},
		{"garbage hash", password, "not-a-hash", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CheckPassword(tt.password, tt.hash); got != tt.want {
				t.Errorf("CheckPassword() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewSessionID(t *testing.T) {
	a, b := NewSessionID(), NewSessionID()
	if a == b || len(a) != 36 {
		t.Errorf("NewSessionID() = %q, %q", a, b)
	}
}

func TestScorerCookie(t *testing.T) {
	r := httptest.NewRequest("GET", "http://example.com/", nil)
	w := httptest.NewRecorder()
	SetCookie(w, r, ScorerCookie, "abc", time.Now().Add(time.Hour))

	cookies := w.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("got %d cookies, want 1", len(cookies))
	}
	c := cookies[0]
	if c.Name != ScorerCookie || c.Value != "abc" || !c.HttpOnly || c.Secure || c.Path != "/" || c.MaxAge <= 0 {
		t.Errorf("cookie = %+v", c)
	}

	r.AddCookie(c)
	if got := CookieValue(r, ScorerCookie); got != "abc" {
		t.Errorf("CookieValue() = %q", got)
	}
	if got := CookieValue(r, OAuthStateCookie); got != "" {
		t.Errorf("CookieValue() for a missing cookie = %q", got)
	}
}

func TestCookieSecureBehindProxy(t *testing.T) {
	r := httptest.NewRequest("GET", "http://example.com/", nil)
	r.Header.Set("X-Forwarded-Proto", "https")
	w := httptest.NewRecorder()
	SetCookie(w, r, ScorerCookie, "abc", time.Now().Add(time.Hour))
	if c := w.Result().Cookies()[0]; !c.Secure {
		t.Error("cookie behind an https proxy should be Secure")
	}
}

func TestClearCookie(t *testing.T) {
	r := httptest.NewRequest("GET", "http://example.com/", nil)
	w := httptest.NewRecorder()
	ClearCookie(w, r, OAuthStateCookie)
	c := w.Result().Cookies()[0]
	if c.Name != OAuthStateCookie || c.MaxAge >= 0 || c.Value != "" {
		t.Errorf("cleared cookie = %+v", c)
	}
}

func TestCSRFGenerator(t *testing.T) {
	g := NewCSRFGenerator("secret")
	token := g.Token("session-1")
	if token == "" {
		t.Fatal("Token() returned empty")
	}
	if token != g.Token("session-1") {
		t.Error("Token() should be stable for a session")
	}

	tests := []struct {
		name    string
		session string
		token   string
		want    bool
	}{
		{"matching", "session-1", token, true},
		{"other session", "session-2", token, false},
		{"empty token", "session-1", "", false},
		{"empty session", "", token, false},
	}
	for _, tt := range tests {
		if got := g.Valid(tt.session, tt.token); got != tt.want {
			t.Errorf("%s: Valid() = %v, want %v", tt.name, got, tt.want)
		}
	}

	if g.Valid("session-1", "not base64!") {
		t.Error("malformed token should not validate")
	}
	if NewCSRFGenerator("other").Valid("session-1", token) {
		t.Error("token from a different secret should not validate")
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(3, time.Minute)
	defer rl.Stop()

	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		if !rl.Allow("1.2.3.4") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if rl.Allow("1.2.3.4") {
		t.Error("fourth request should be limited")
	}
	if !rl.Allow("5.6.7.8") {
		t.Error("other clients have their own bucket")
	}

	now = now.Add(time.Minute)
	if !rl.Allow("1.2.3.4") {
		t.Error("bucket should refill after the window")
	}

	rl.Stop()
	rl.Stop()
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"remote addr", nil, "10.0.0.1:5555", "10.0.0.1"},
		{"forwarded chain", map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.2"}, "10.0.0.1:5555", "203.0.113.7"},
		{"real ip", map[string]string{"X-Real-IP": "198.51.100.4"}, "10.0.0.1:5555", "198.51.100.4"},
		{"no port", nil, "unix", "unix"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			if got := GetClientIP(r); got != tt.want {
				t.Errorf("GetClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTokenIssuer(t *testing.T) {
	if NewTokenIssuer("", time.Hour) != nil {
		t.Fatal("empty secret should disable tokens")
	}
	var disabled *TokenIssuer
	if _, _, err := disabled.Issue(1, "a@example.com"); !errors.Is(err, ErrTokensDisabled) {
		t.Errorf("Issue() on disabled issuer error = %v", err)
	}

	issuer := NewTokenIssuer("s3cret", time.Hour)
	token, expires, err := issuer.Issue(42, "a@example.com")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if strings.Count(token, ".") != 2 {
		t.Errorf("token = %q, want a JWT", token)
	}
	if time.Until(expires) <= 0 {
		t.Error("expiry should be in the future")
	}

	claims, err := issuer.Parse(token)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if id, _ := claims.UserID(); id != 42 || claims.Email != "a@example.com" {
		t.Errorf("claims = %+v", claims)
	}

	if _, err := NewTokenIssuer("other", time.Hour).Parse(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Parse() with wrong secret error = %v", err)
	}
	if _, err := issuer.Parse(token + "x"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Parse() tampered error = %v", err)
	}

	expired := NewTokenIssuer("s3cret", -time.Minute)
	old, _, _ := expired.Issue(42, "a@example.com")
	if _, err := issuer.Parse(old); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Parse() expired error = %v", err)
	}
}
