package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"quizengine/internal/models"
)

type errorResponse struct {
	Error  string      `json:"error"`
	Resume *renderView `json:"resume,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
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

// statusFor maps a service error onto an HTTP status. Unknown errors are 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrEmptySelection), errors.Is(err, models.ErrInvalidArgument):
		return http.StatusUnprocessableEntity
	case errors.Is(err, models.ErrInvalidTransition),
		errors.Is(err, models.ErrPositionNotFrontier),
		errors.Is(err, models.ErrAlreadyAnswered):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondWithServiceError writes err as a client error when it is one of the
// domain errors, and logs it as an internal error otherwise.
func respondWithServiceError(w http.ResponseWriter, logMsg string, err error) {
	status := statusFor(err)
	switch status {
	case http.StatusInternalServerError:
		respondWithError(w, status, ErrInternalServerError, logMsg, err)
	case http.StatusForbidden:
		respondWithError(w, status, ErrAccessDenied, "", nil)
	default:
		respondWithError(w, status, err.Error(), "", nil)
	}
}
