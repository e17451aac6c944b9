package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"quizengine/internal/models"
	"quizengine/internal/service"
)

// SessionHandler serves the quiz session API
type SessionHandler struct {
	sessions *service.QuizSessionService
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessions *service.QuizSessionService) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

type createSessionRequest struct {
	Name            string `json:"name"`
	Mode            string `json:"mode"`
	Count           int    `json:"count"`
	SourceSessionID string `json:"sourceSessionId"`
}

type navigateRequest struct {
	Intent string `json:"intent"`
	From   int    `json:"from"`
}

type submitAnswerRequest struct {
	Position   int   `json:"position"`
	Chosen     []int `json:"chosen"`
	DurationMs int64 `json:"durationMs"`
}

type retryRequest struct {
	Mode string `json:"mode"`
}

type renameRequest struct {
	Name string `json:"name"`
}

// CreateSession handles POST /api/quizzes/{quizID}/sessions
func (h *SessionHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	session, err := h.sessions.CreateSession(r.Context(), GetUserFromContext(r.Context()), chi.URLParam(r, "quizID"), service.CreateSessionInput{
		Name:            req.Name,
		Mode:            models.SelectionMode(req.Mode),
		Count:           req.Count,
		SourceSessionID: req.SourceSessionID,
	})
	if err != nil {
		respondWithServiceError(w, "Failed to create session", err)
		return
	}
	respondJSON(w, http.StatusCreated, newSessionView(*session))
}

// History handles GET /api/quizzes/{quizID}/sessions
func (h *SessionHandler) History(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.sessions.History(r.Context(), GetUserFromContext(r.Context()), chi.URLParam(r, "quizID"))
	if err != nil {
		respondWithServiceError(w, "Failed to list sessions", err)
		return
	}
	respondJSON(w, http.StatusOK, newHistoryView(summaries))
}

// Resume handles GET /api/sessions/{sessionID}
// Dashboard returns the caller's progress on a quiz across all sessions
func (h *SessionHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.sessions.Dashboard(r.Context(), GetUserFromContext(r.Context()), chi.URLParam(r, "quizID"))
	if err != nil {
		respondWithServiceError(w, "Failed to build dashboard", err)
		return
	}
	respondJSON(w, http.StatusOK, newDashboardView(d))
}

func (h *SessionHandler) Resume(w http.ResponseWriter, r *http.Request) {
	render, err := h.sessions.Resume(r.Context(), GetUserFromContext(r.Context()), chi.URLParam(r, "sessionID"))
	if err != nil {
		respondWithServiceError(w, "Failed to resume session", err)
		return
	}
	respondJSON(w, http.StatusOK, newRenderView(render))
}

// Navigate handles POST /api/sessions/{sessionID}/navigate
func (h *SessionHandler) Navigate(w http.ResponseWriter, r *http.Request) {
	var req navigateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	intent, err := service.ParseIntent(req.Intent, req.From)
	if err != nil {
		respondWithServiceError(w, "", err)
		return
	}

	render, err := h.sessions.Navigate(r.Context(), GetUserFromContext(r.Context()), chi.URLParam(r, "sessionID"), intent)
	if err != nil {
		respondWithServiceError(w, "Failed to navigate session", err)
		return
	}
	respondJSON(w, http.StatusOK, newRenderView(render))
}

// SubmitAnswer handles POST /api/sessions/{sessionID}/answers. A stale or
// repeated submission is answered with 409 and the position to resume at.
func (h *SessionHandler) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	var req submitAnswerRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	userID := GetUserFromContext(r.Context())
	sessionID := chi.URLParam(r, "sessionID")

	result, err := h.sessions.SubmitAnswer(r.Context(), userID, sessionID, req.Position, req.Chosen, req.DurationMs)
	if err != nil {
		if errors.Is(err, models.ErrPositionNotFrontier) || errors.Is(err, models.ErrAlreadyAnswered) {
			if render, rerr := h.sessions.Resume(r.Context(), userID, sessionID); rerr == nil {
				respondJSON(w, http.StatusConflict, errorResponse{Error: err.Error(), Resume: newRenderView(render)})
				return
			}
		}
		respondWithServiceError(w, "Failed to submit answer", err)
		return
	}
	respondJSON(w, http.StatusOK, newAnswerResultView(result))
}

// ToggleBookmark handles POST /api/sessions/{sessionID}/items/{position}/bookmark
func (h *SessionHandler) ToggleBookmark(w http.ResponseWriter, r *http.Request) {
	position, err := strconv.Atoi(chi.URLParam(r, "position"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidPosition, "", nil)
		return
	}

	bookmarked, err := h.sessions.ToggleBookmark(r.Context(), GetUserFromContext(r.Context()), chi.URLParam(r, "sessionID"), position)
	if err != nil {
		respondWithServiceError(w, "Failed to toggle bookmark", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"position": position, "bookmarked": bookmarked})
}

// Abandon handles POST /api/sessions/{sessionID}/abandon
func (h *SessionHandler) Abandon(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Abandon(r.Context(), GetUserFromContext(r.Context()), chi.URLParam(r, "sessionID")); err != nil {
		respondWithServiceError(w, "Failed to abandon session", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Complete handles POST /api/sessions/{sessionID}/complete
func (h *SessionHandler) Complete(w http.ResponseWriter, r *http.Request) {
	summary, err := h.sessions.Complete(r.Context(), GetUserFromContext(r.Context()), chi.URLParam(r, "sessionID"))
	if err != nil {
		respondWithServiceError(w, "Failed to complete session", err)
		return
	}
	respondJSON(w, http.StatusOK, newSummaryView(summary))
}

// Results handles GET /api/sessions/{sessionID}/results
func (h *SessionHandler) Results(w http.ResponseWriter, r *http.Request) {
	summary, err := h.sessions.Results(r.Context(), GetUserFromContext(r.Context()), chi.URLParam(r, "sessionID"))
	if err != nil {
		respondWithServiceError(w, "Failed to load results", err)
		return
	}
	respondJSON(w, http.StatusOK, newSummaryView(summary))
}

// Retry handles POST /api/sessions/{sessionID}/retry
func (h *SessionHandler) Retry(w http.ResponseWriter, r *http.Request) {
	var req retryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	session, err := h.sessions.Retry(r.Context(), GetUserFromContext(r.Context()), chi.URLParam(r, "sessionID"), models.SelectionMode(req.Mode))
	if err != nil {
		respondWithServiceError(w, "Failed to retry session", err)
		return
	}
	respondJSON(w, http.StatusCreated, newSessionView(*session))
}

// Rename handles PATCH /api/sessions/{sessionID}
func (h *SessionHandler) Rename(w http.ResponseWriter, r *http.Request) {
	var req renameRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.sessions.Rename(r.Context(), GetUserFromContext(r.Context()), chi.URLParam(r, "sessionID"), req.Name); err != nil {
		respondWithServiceError(w, "Failed to rename session", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Delete handles DELETE /api/sessions/{sessionID}
func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Delete(r.Context(), GetUserFromContext(r.Context()), chi.URLParam(r, "sessionID")); err != nil {
		respondWithServiceError(w, "Failed to delete session", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidJSON, "", nil)
		return false
	}
	return true
}
