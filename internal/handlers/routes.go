package handlers

import "net/http"

// NewRouter registers every route and wraps the mux in request logging.
// status may be nil.
func NewRouter(mw *Middleware, authHandler *AuthHandler, matchHandler *MatchHandler, status *StartupStatus) http.Handler {
	mux := http.NewServeMux()

	if status != nil {
		mux.Handle("GET /api/status", status)
	}

	mux.HandleFunc("POST /api/auth/register", mw.RateLimit(authHandler.Register))
	mux.HandleFunc("POST /api/auth/login", mw.RateLimit(authHandler.Login))
	mux.HandleFunc("POST /api/auth/logout", authHandler.Logout)
	mux.HandleFunc("POST /api/auth/token", mw.RequireAuth(mw.CSRFProtect(authHandler.IssueToken)))
	mux.HandleFunc("GET /api/auth/providers", authHandler.Providers)
	mux.HandleFunc("GET /api/me", mw.RequireAuth(authHandler.Me))
	mux.HandleFunc("GET /auth/{provider}/start", authHandler.StartOAuth)
	mux.HandleFunc("GET /auth/{provider}/callback", authHandler.OAuthCallback)

	scorer := func(h http.HandlerFunc) http.HandlerFunc {
		return mw.RequireAuth(mw.CSRFProtect(h))
	}

	mux.HandleFunc("POST /api/matches", scorer(matchHandler.CreateMatch))
	mux.HandleFunc("GET /api/matches", scorer(matchHandler.ListMatches))
	mux.HandleFunc("GET /api/matches/current", scorer(matchHandler.CurrentMatch))
	mux.HandleFunc("DELETE /api/matches/current", scorer(matchHandler.AbandonMatch))
	mux.HandleFunc("POST /api/matches/current/toss", scorer(matchHandler.Toss))
	mux.HandleFunc("POST /api/matches/current/openers", scorer(matchHandler.SelectOpeners))
	mux.HandleFunc("POST /api/matches/current/bowler", scorer(matchHandler.SelectBowler))
	mux.HandleFunc("POST /api/matches/current/batter", scorer(matchHandler.SelectBatter))
	mux.HandleFunc("POST /api/matches/current/ball", scorer(matchHandler.Ball))
	mux.HandleFunc("POST /api/matches/current/swap", scorer(matchHandler.Swap))
	mux.HandleFunc("POST /api/matches/current/undo", scorer(matchHandler.Undo))
	mux.HandleFunc("POST /api/matches/current/next-innings", scorer(matchHandler.NextInnings))
	mux.HandleFunc("POST /api/matches/current/end", scorer(matchHandler.EndMatch))
	mux.HandleFunc("GET /api/matches/{id}", scorer(matchHandler.GetMatch))
	mux.HandleFunc("GET /api/matches/{id}/scorecard", scorer(matchHandler.Scorecard))

	// Spectators need only the match id.
	mux.HandleFunc("GET /api/matches/{id}/live", matchHandler.Live)

	return Logging(mux)
}
