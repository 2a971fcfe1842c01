package handlers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"cricketscore/internal/models"
	"cricketscore/internal/security"
	"cricketscore/internal/service"
)

// AuthHandler handles scorer accounts and sessions
type AuthHandler struct {
	authService          *service.AuthService
	csrf                 *security.CSRFGenerator
	oauthProviders       map[string]OAuthProvider
	oauthRedirectBaseURL string
	appBaseURL           string
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService, csrf *security.CSRFGenerator, oauthProviders map[string]OAuthProvider, oauthRedirectBaseURL, appBaseURL string) *AuthHandler {
	return &AuthHandler{
		authService:          authService,
		csrf:                 csrf,
		oauthProviders:       oauthProviders,
		oauthRedirectBaseURL: oauthRedirectBaseURL,
		appBaseURL:           appBaseURL,
	}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
}

type authResponse struct {
	User      *models.User `json:"user"`
	CSRFToken string       `json:"csrfToken,omitempty"`
}

type tokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (h *AuthHandler) startSession(w http.ResponseWriter, r *http.Request, session *models.Session) string {
	security.SetCookie(w, r, security.ScorerCookie, session.ID, session.ExpiresAt)
	return h.csrf.Token(session.ID)
}

// Register creates an account and signs the new user in
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidRequestBody, "", nil)
		return
	}

	user, err := h.authService.Register(req.Email, req.Password, req.Name)
	if err != nil {
		respondWithServiceError(w, "Error registering user", err)
		return
	}

	session, _, err := h.authService.Login(req.Email, req.Password)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Error logging in new user", err)
		return
	}

	log.Printf("Registered user %d", user.ID)
	respondJSON(w, http.StatusCreated, authResponse{User: user, CSRFToken: h.startSession(w, r, session)})
}

// Login checks credentials and sets the session cookie
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidRequestBody, "", nil)
		return
	}

	session, user, err := h.authService.Login(req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			respondWithError(w, http.StatusUnauthorized, "Invalid email or password", "", nil)
			return
		}
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Error logging in", err)
		return
	}

	respondJSON(w, http.StatusOK, authResponse{User: user, CSRFToken: h.startSession(w, r, session)})
}

// Logout handles logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if sessionID := security.CookieValue(r, security.ScorerCookie); sessionID != "" {
		if err := h.authService.Logout(sessionID); err != nil {
			log.Printf("Error deleting session: %v", err)
		}
	}

	security.ClearCookie(w, r, security.ScorerCookie)
	w.WriteHeader(http.StatusNoContent)
}

// Me returns the signed-in user and, for cookie sessions, the CSRF token
// to send with state-changing requests
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	respondJSON(w, http.StatusOK, authResponse{
		User:      user,
		CSRFToken: h.csrf.Token(GetSessionFromContext(r.Context())),
	})
}

// IssueToken returns a signed API token for the signed-in user
func (h *AuthHandler) IssueToken(w http.ResponseWriter, r *http.Request) {
	if !h.authService.TokensEnabled() {
		respondWithError(w, http.StatusNotFound, "API tokens are not enabled", "", nil)
		return
	}

	user := GetUserFromContext(r.Context())
	token, expires, err := h.authService.IssueToken(user)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Error issuing API token", err)
		return
	}
	respondJSON(w, http.StatusOK, tokenResponse{Token: token, ExpiresAt: expires})
}
