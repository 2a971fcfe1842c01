package handlers

import (
	"bytes"
	"fmt"
	"log"
	"net/http"

	"cricketscore/internal/live"
	"cricketscore/internal/scorecard"
	"cricketscore/internal/scoring"
	"cricketscore/internal/service"
	"cricketscore/internal/toss"
)

// MatchHandler serves the scoring API
type MatchHandler struct {
	matches *service.MatchService
	hub     *live.Hub
	debug   bool
}

// NewMatchHandler creates a new match handler
func NewMatchHandler(matches *service.MatchService, hub *live.Hub, debug bool) *MatchHandler {
	return &MatchHandler{matches: matches, hub: hub, debug: debug}
}

type tossRequest struct {
	Call string `json:"call"`
}

type openersRequest struct {
	StrikerID    string `json:"strikerId"`
	NonStrikerID string `json:"nonStrikerId"`
}

type bowlerRequest struct {
	BowlerID string `json:"bowlerId"`
}

type batterRequest struct {
	BatterID string `json:"batterId"`
}

type ballRequest struct {
	Event string `json:"event"`
}

// CreateMatch sets up a new match awaiting the toss
func (h *MatchHandler) CreateMatch(w http.ResponseWriter, r *http.Request) {
	var setup scoring.Setup
	if err := decodeJSON(r, &setup); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidRequestBody, "", nil)
		return
	}

	st, err := h.matches.CreateMatch(GetUserFromContext(r.Context()), setup)
	if err != nil {
		respondWithServiceError(w, "Error creating match", err)
		return
	}
	respondJSON(w, http.StatusCreated, st)
}

// ListMatches returns the user's stored matches
func (h *MatchHandler) ListMatches(w http.ResponseWriter, r *http.Request) {
	history, err := h.matches.History(GetUserFromContext(r.Context()))
	if err != nil {
		respondWithServiceError(w, "Error loading match history", err)
		return
	}
	respondJSON(w, http.StatusOK, history)
}

// CurrentMatch returns the match being scored
func (h *MatchHandler) CurrentMatch(w http.ResponseWriter, r *http.Request) {
	st, err := h.matches.CurrentMatch(GetUserFromContext(r.Context()))
	if err != nil {
		respondWithServiceError(w, "Error loading current match", err)
		return
	}
	respondJSON(w, http.StatusOK, st)
}

// AbandonMatch drops the match being scored without storing it
func (h *MatchHandler) AbandonMatch(w http.ResponseWriter, r *http.Request) {
	if err := h.matches.Abandon(GetUserFromContext(r.Context())); err != nil {
		respondWithServiceError(w, "Error abandoning match", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Toss resolves the coin toss for the current match
func (h *MatchHandler) Toss(w http.ResponseWriter, r *http.Request) {
	var req tossRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidRequestBody, "", nil)
		return
	}
	call, err := toss.ParseCall(req.Call)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Call must be heads or tails", "", nil)
		return
	}

	st, err := h.matches.Toss(r.Context(), GetUserFromContext(r.Context()), call)
	if err != nil {
		respondWithServiceError(w, "Error resolving toss", err)
		return
	}
	respondJSON(w, http.StatusOK, st)
}

// SelectOpeners picks the opening pair
func (h *MatchHandler) SelectOpeners(w http.ResponseWriter, r *http.Request) {
	var req openersRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidRequestBody, "", nil)
		return
	}
	h.respondState(w, "Error selecting openers")(h.matches.SelectOpeners(r.Context(), GetUserFromContext(r.Context()), req.StrikerID, req.NonStrikerID))
}

// SelectBowler picks the bowler for the next over
func (h *MatchHandler) SelectBowler(w http.ResponseWriter, r *http.Request) {
	var req bowlerRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidRequestBody, "", nil)
		return
	}
	h.respondState(w, "Error selecting bowler")(h.matches.SelectBowler(r.Context(), GetUserFromContext(r.Context()), req.BowlerID))
}

// SelectBatter sends in the next batter after a wicket
func (h *MatchHandler) SelectBatter(w http.ResponseWriter, r *http.Request) {
	var req batterRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidRequestBody, "", nil)
		return
	}
	h.respondState(w, "Error selecting batter")(h.matches.SelectNextBatter(r.Context(), GetUserFromContext(r.Context()), req.BatterID))
}

// Ball scores one delivery
func (h *MatchHandler) Ball(w http.ResponseWriter, r *http.Request) {
	var req ballRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidRequestBody, "", nil)
		return
	}
	ev, err := scoring.ParseEvent(req.Event)
	if err != nil {
		respondWithServiceError(w, "Error parsing ball", err)
		return
	}

	out, err := h.matches.ApplyBall(r.Context(), GetUserFromContext(r.Context()), ev)
	if err != nil {
		respondWithServiceError(w, "Error scoring ball", err)
		return
	}
	if h.debug {
		log.Printf("[DEBUG] Ball %s on match %s: %s", ev, out.Match.ID, out.Action)
	}
	respondJSON(w, http.StatusOK, out)
}

// Swap exchanges striker and non-striker
func (h *MatchHandler) Swap(w http.ResponseWriter, r *http.Request) {
	h.respondState(w, "Error swapping batsmen")(h.matches.SwapBatsmen(r.Context(), GetUserFromContext(r.Context())))
}

// Undo takes back the last ball
func (h *MatchHandler) Undo(w http.ResponseWriter, r *http.Request) {
	h.respondState(w, "Error undoing ball")(h.matches.Undo(r.Context(), GetUserFromContext(r.Context())))
}

// NextInnings starts the second innings
func (h *MatchHandler) NextInnings(w http.ResponseWriter, r *http.Request) {
	h.respondState(w, "Error starting next innings")(h.matches.StartNextInnings(r.Context(), GetUserFromContext(r.Context())))
}

// EndMatch ends the match now and stores it
func (h *MatchHandler) EndMatch(w http.ResponseWriter, r *http.Request) {
	m, err := h.matches.EndMatch(r.Context(), GetUserFromContext(r.Context()))
	if err != nil {
		respondWithServiceError(w, "Error ending match", err)
		return
	}
	respondJSON(w, http.StatusOK, m)
}

func (h *MatchHandler) respondState(w http.ResponseWriter, logMsg string) func(*service.LiveState, error) {
	return func(st *service.LiveState, err error) {
		if err != nil {
			respondWithServiceError(w, logMsg, err)
			return
		}
		respondJSON(w, http.StatusOK, st)
	}
}

// GetMatch returns one stored match
func (h *MatchHandler) GetMatch(w http.ResponseWriter, r *http.Request) {
	m, err := h.matches.GetMatch(GetUserFromContext(r.Context()), r.PathValue("id"))
	if err != nil {
		respondWithServiceError(w, "Error loading match", err)
		return
	}
	respondJSON(w, http.StatusOK, m)
}

// Scorecard downloads a stored match as HTML or plain text
func (h *MatchHandler) Scorecard(w http.ResponseWriter, r *http.Request) {
	m, err := h.matches.GetMatch(GetUserFromContext(r.Context()), r.PathValue("id"))
	if err != nil {
		respondWithServiceError(w, "Error loading match", err)
		return
	}

	var (
		body        []byte
		contentType string
		ext         string
	)
	switch format := r.URL.Query().Get("format"); format {
	case "", "html":
		var buf bytes.Buffer
		if err := scorecard.HTML(&buf, m); err != nil {
			respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Error rendering scorecard", err)
			return
		}
		body, contentType, ext = buf.Bytes(), "text/html; charset=utf-8", "html"
	case "text", "txt":
		body, contentType, ext = []byte(scorecard.Text(m)), "text/plain; charset=utf-8", "txt"
	default:
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Unknown format %q", format), "", nil)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", scorecard.Filename(m, ext)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Printf("Error writing scorecard: %v", err)
	}
}

// Live streams a match in progress to a spectator over a websocket
func (h *MatchHandler) Live(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	view, err := h.matches.LiveView(id)
	if err != nil {
		respondWithServiceError(w, "Error loading live match", err)
		return
	}
	h.hub.ServeWS(w, r, id, &live.Message{Type: live.MsgTypeState, MatchID: id, View: *view})
}
