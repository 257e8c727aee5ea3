package handlers

import (
	"net/http"

	"codearena/internal/service"
	"codearena/internal/validation"
)

// ExerciseHandler serves the exercise catalog and per-user history
type ExerciseHandler struct {
	contentService  *service.ContentService
	progressService *service.ProgressService
	exerciseService *service.ExerciseService
}

// NewExerciseHandler creates a new exercise handler
func NewExerciseHandler(contentService *service.ContentService, progressService *service.ProgressService, exerciseService *service.ExerciseService) *ExerciseHandler {
	return &ExerciseHandler{
		contentService:  contentService,
		progressService: progressService,
		exerciseService: exerciseService,
	}
}

// ListExercises returns catalog summaries
func (h *ExerciseHandler) ListExercises(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.contentService.List(r.Context())
	if err != nil {
		respondWithServiceError(w, "Error listing exercises", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"exercises": summaries})
}

// GetExercise returns the answer-free view of one exercise
func (h *ExerciseHandler) GetExercise(w http.ResponseWriter, r *http.Request) {
	exerciseID := r.PathValue("id")
	if err := validation.ValidateExerciseID(exerciseID); err != nil {
		respondWithServiceError(w, "", err)
		return
	}

	view, err := h.contentService.View(r.Context(), exerciseID)
	if err != nil {
		respondWithServiceError(w, "Error loading exercise "+exerciseID, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// StartSession creates and starts a session for the calling user
func (h *ExerciseHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	userID := GetUserIDFromContext(r.Context())
	exerciseID := r.PathValue("id")
	if err := validation.ValidateExerciseID(exerciseID); err != nil {
		respondWithServiceError(w, "", err)
		return
	}

	view, err := h.exerciseService.CreateSession(r.Context(), userID, exerciseID)
	if err != nil {
		respondWithServiceError(w, "Error creating session for "+exerciseID, err)
		return
	}
	respondJSON(w, http.StatusCreated, view)
}

// ListAttempts returns the caller's recent attempts at an exercise
func (h *ExerciseHandler) ListAttempts(w http.ResponseWriter, r *http.Request) {
	userID := GetUserIDFromContext(r.Context())
	exerciseID := r.PathValue("id")
	if err := validation.ValidateExerciseID(exerciseID); err != nil {
		respondWithServiceError(w, "", err)
		return
	}

	attempts, err := h.progressService.Attempts(r.Context(), userID, exerciseID)
	if err != nil {
		respondWithServiceError(w, "Error listing attempts", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"attempts": attempts})
}

// GetProgress returns the caller's totals across exercises
func (h *ExerciseHandler) GetProgress(w http.ResponseWriter, r *http.Request) {
	userID := GetUserIDFromContext(r.Context())

	progress, err := h.progressService.Progress(r.Context(), userID)
	if err != nil {
		respondWithServiceError(w, "Error loading progress", err)
		return
	}
	respondJSON(w, http.StatusOK, progress)
}
