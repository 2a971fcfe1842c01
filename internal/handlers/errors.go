package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	"cricketscore/internal/scoring"
	"cricketscore/internal/service"
	"cricketscore/internal/validation"
)

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func respondWithError(w http.ResponseWriter, status int, userMsg, logMsg string, err error) {
	if err != nil {
		if logMsg == "" {
			logMsg = userMsg
		}
		log.Printf("%s: %v", logMsg, err)
	}

	respondJSON(w, status, errorResponse{Error: userMsg})
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

// decodeJSON reads a single JSON object from the request body. An empty
// body leaves v untouched.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to decode request body: %w", err)
	}
	return nil
}

// statusForError maps service and scoring errors to an HTTP status. The
// error text is safe to show the scorer for every status but 500.
func statusForError(err error) int {
	var verr validation.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.Is(err, scoring.ErrInvalidEvent),
		errors.Is(err, scoring.ErrInvalidPlayer),
		errors.Is(err, scoring.ErrPlayerOut),
		errors.Is(err, scoring.ErrSamePlayer),
		errors.Is(err, scoring.ErrConsecutiveOvers),
		errors.Is(err, scoring.ErrInvalidOvers),
		errors.Is(err, scoring.ErrDuplicateTeams),
		errors.Is(err, scoring.ErrInvalidToss):
		return http.StatusBadRequest
	case errors.Is(err, scoring.ErrPromptPending),
		errors.Is(err, scoring.ErrWrongPrompt),
		errors.Is(err, scoring.ErrMatchComplete),
		errors.Is(err, scoring.ErrNotReady),
		errors.Is(err, scoring.ErrMatchNotStarted),
		errors.Is(err, scoring.ErrTossNotPending),
		errors.Is(err, service.ErrTossPending),
		errors.Is(err, service.ErrTossDone),
		errors.Is(err, service.ErrNothingToUndo),
		errors.Is(err, service.ErrEmailTaken):
		return http.StatusConflict
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrNoLiveMatch),
		errors.Is(err, service.ErrMatchNotFound):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// respondWithServiceError sends the status for err, logging anything
// unexpected.
func respondWithServiceError(w http.ResponseWriter, logMsg string, err error) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		respondWithError(w, status, ErrInternalServerError, logMsg, err)
		return
	}

	resp := errorResponse{Error: err.Error()}
	var verr validation.ValidationError
	if errors.As(err, &verr) {
		resp = errorResponse{Error: verr.Message, Field: verr.Field}
	}
	respondJSON(w, status, resp)
}
