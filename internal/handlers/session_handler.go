package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"codearena/internal/security"
	"codearena/internal/service"
	"codearena/internal/validation"
)

// SessionHandler applies user intents to live sessions
type SessionHandler struct {
	exerciseService *service.ExerciseService
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(exerciseService *service.ExerciseService) *SessionHandler {
	return &SessionHandler{exerciseService: exerciseService}
}

type sessionOp func(ctx context.Context, userID, sessionID string) (*service.SessionView, error)

type selectRequest struct {
	CardID string `json:"cardId"`
}

type submitRequest struct {
	Answers map[string]string `json:"answers"`
}

// GetSession returns the current session state
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, h.exerciseService.GetSession)
}

// Tick advances the session clock and returns the state
func (h *SessionHandler) Tick(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, h.exerciseService.Tick)
}

// Settle clears a mismatch before its delay runs out
func (h *SessionHandler) Settle(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, h.exerciseService.Settle)
}

// UseHint spends one hint
func (h *SessionHandler) UseHint(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, h.exerciseService.UseHint)
}

// Reset starts the attempt over
func (h *SessionHandler) Reset(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, h.exerciseService.Reset)
}

// Report retries a pending reward
func (h *SessionHandler) Report(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, h.exerciseService.Report)
}

// Select picks a matching card
func (h *SessionHandler) Select(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := validation.ValidateCardID(req.CardID); err != nil {
		respondWithServiceError(w, "", err)
		return
	}

	h.run(w, r, func(ctx context.Context, userID, sessionID string) (*service.SessionView, error) {
		return h.exerciseService.Select(ctx, userID, sessionID, req.CardID)
	})
}

// Submit grades blanks or quiz answers
func (h *SessionHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := validation.ValidateAnswers(req.Answers); err != nil {
		respondWithServiceError(w, "", err)
		return
	}

	h.run(w, r, func(ctx context.Context, userID, sessionID string) (*service.SessionView, error) {
		return h.exerciseService.Submit(ctx, userID, sessionID, req.Answers)
	})
}

func (h *SessionHandler) run(w http.ResponseWriter, r *http.Request, op sessionOp) {
	userID := GetUserIDFromContext(r.Context())
	sessionID := r.PathValue("id")
	if !security.IsSessionID(sessionID) {
		respondWithError(w, http.StatusNotFound, ErrSessionNotFound, "", nil)
		return
	}

	view, err := op(r.Context(), userID, sessionID)
	if err != nil {
		respondWithServiceError(w, "Error updating session "+sessionID, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// decodeBody reads a JSON request body. An empty body leaves dst untouched.
func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		respondWithError(w, http.StatusBadRequest, ErrInvalidBody, "", nil)
		return false
	}
	return true
}
