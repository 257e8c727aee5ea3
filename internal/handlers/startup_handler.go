package handlers

import (
	"net/http"
	"sync"
)

// Startup step names reported by the health endpoint
const (
	StepDatabase   = "Database connection"
	StepMigrations = "Running migrations"
	StepContent    = "Loading exercise content"
	StepServices   = "Initializing services"
)

// StartupStatus tracks the initialization progress
type StartupStatus struct {
	mu       sync.RWMutex
	ready    bool
	current  string
	progress int
	steps    []StartupStep
}

type StartupStep struct {
	Name      string `json:"name"`
	Completed bool   `json:"completed"`
}

// NewStartupStatus creates a tracker for the given steps
func NewStartupStatus(stepNames ...string) *StartupStatus {
	s := &StartupStatus{current: "Initializing..."}
	for _, name := range stepNames {
		s.steps = append(s.steps, StartupStep{Name: name})
	}
	return s
}

// SetCurrentStep updates the current initialization step
func (s *StartupStatus) SetCurrentStep(step string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = step
}

// CompleteStep marks a step as completed and updates progress
func (s *StartupStatus) CompleteStep(stepName string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	completed := 0
	for i := range s.steps {
		if s.steps[i].Name == stepName {
			s.steps[i].Completed = true
		}
		if s.steps[i].Completed {
			completed++
		}
	}
	if len(s.steps) > 0 {
		s.progress = (completed * 100) / len(s.steps)
	}
}

// MarkReady marks the server as fully initialized
func (s *StartupStatus) MarkReady() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ready = true
	s.current = "Server ready"
	s.progress = 100
}

// IsReady returns whether the server is fully initialized
func (s *StartupStatus) IsReady() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

// Health reports startup progress; 503 until the server is ready
func (s *StartupStatus) Health(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	body := map[string]interface{}{
		"ready":    s.ready,
		"current":  s.current,
		"progress": s.progress,
		"steps":    append([]StartupStep(nil), s.steps...),
	}
	ready := s.ready
	s.mu.RUnlock()

	status := http.StatusOK
	if !ready {
		status = http.StatusServiceUnavailable
	}
	respondJSON(w, status, body)
}
