package handlers

import "net/http"

// RegisterRoutes wires the JSON API onto mux
func RegisterRoutes(mux *http.ServeMux, m *Middleware, exercises *ExerciseHandler, sessions *SessionHandler, startup *StartupStatus) {
	if startup != nil {
		mux.HandleFunc("GET /healthz", startup.Health)
	}

	// Catalog
	mux.HandleFunc("GET /api/exercises", exercises.ListExercises)
	mux.HandleFunc("GET /api/exercises/{id}", exercises.GetExercise)

	// Per-user history
	mux.HandleFunc("GET /api/exercises/{id}/attempts", m.RequireUser(exercises.ListAttempts))
	mux.HandleFunc("GET /api/me/progress", m.RequireUser(exercises.GetProgress))

	// Sessions
	mux.HandleFunc("POST /api/exercises/{id}/sessions", m.RequireUser(m.RateLimit(exercises.StartSession)))
	mux.HandleFunc("GET /api/sessions/{id}", m.RequireUser(sessions.GetSession))
	mux.HandleFunc("POST /api/sessions/{id}/select", m.RequireUser(m.RateLimit(sessions.Select)))
	mux.HandleFunc("POST /api/sessions/{id}/settle", m.RequireUser(m.RateLimit(sessions.Settle)))
	mux.HandleFunc("POST /api/sessions/{id}/hint", m.RequireUser(m.RateLimit(sessions.UseHint)))
	mux.HandleFunc("POST /api/sessions/{id}/tick", m.RequireUser(m.RateLimit(sessions.Tick)))
	mux.HandleFunc("POST /api/sessions/{id}/submit", m.RequireUser(m.RateLimit(sessions.Submit)))
	mux.HandleFunc("POST /api/sessions/{id}/reset", m.RequireUser(m.RateLimit(sessions.Reset)))
	mux.HandleFunc("POST /api/sessions/{id}/report", m.RequireUser(m.RateLimit(sessions.Report)))
}
