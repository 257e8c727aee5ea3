package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"codearena/internal/security"
	"codearena/internal/service"
	"codearena/internal/validation"
)

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("Error encoding response: %v", err)
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

// respondWithServiceError maps domain errors to HTTP statuses. Unknown errors
// are logged and reported as 500.
func respondWithServiceError(w http.ResponseWriter, logMsg string, err error) {
	var verr *validation.ValidationError
	switch {
	case errors.As(err, &verr):
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: verr.Message, Field: verr.Field})
	case errors.Is(err, service.ErrExerciseNotFound):
		respondWithError(w, http.StatusNotFound, ErrExerciseNotFound, "", nil)
	case errors.Is(err, service.ErrSessionNotFound):
		respondWithError(w, http.StatusNotFound, ErrSessionNotFound, "", nil)
	case errors.Is(err, service.ErrForbidden):
		respondWithError(w, http.StatusForbidden, ErrForbidden, "", nil)
	case errors.Is(err, service.ErrNotPlayable):
		respondWithError(w, http.StatusUnprocessableEntity, ErrNotPlayable, "", nil)
	case errors.Is(err, security.ErrMissingIdentity), errors.Is(err, security.ErrInvalidToken):
		respondWithError(w, http.StatusUnauthorized, ErrUnauthorized, "", nil)
	default:
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, logMsg, err)
	}
}
