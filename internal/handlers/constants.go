package handlers

const (
	ErrInvalidBody         = "Invalid request body"
	ErrUnauthorized        = "Unauthorized"
	ErrForbidden           = "Forbidden"
	ErrTooManyRequests     = "Too many requests"
	ErrExerciseNotFound    = "Exercise not found"
	ErrSessionNotFound     = "Session not found"
	ErrNotPlayable         = "This exercise cannot be played as a session"
	ErrInternalServerError = "Internal server error"

	maxBodyBytes = 64 << 10
)
