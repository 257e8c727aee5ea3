package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"codearena/internal/game"
	"codearena/internal/models"
	"codearena/internal/reward"
	"codearena/internal/security"
	"codearena/internal/service"
)

const (
	matchingBody = `{"type": "matching", "diamondReward": 5, "experienceReward": 20,
		"pairs": [{"id": "q1", "prompt": "len", "response": "length"}, {"id": "q2", "prompt": "cap", "response": "capacity"}]}`
	quizBody = `{"type": "quiz", "questions": [{"id": "q1", "prompt": "1+1", "answer": "2"}, {"id": "q2", "prompt": "2+2", "answer": "4"}]}`
	walkBody = `{"type": "walkthrough", "steps": ["compare", "swap"]}`
)

// memStore backs every store interface the services need
type memStore struct {
	mu        sync.Mutex
	exercises map[string]models.ExerciseRecord
	markers   map[string]bool
	attempts  []models.ExerciseAttempt
}

func newMemStore() *memStore {
	return &memStore{
		exercises: map[string]models.ExerciseRecord{
			"match": {ID: "match", Version: 1, Kind: models.KindMatching, Title: "Builtins", Body: matchingBody},
			"quiz":  {ID: "quiz", Version: 1, Kind: models.KindQuiz, Title: "Arithmetic", Body: quizBody},
			"walk":  {ID: "walk", Version: 1, Kind: models.KindWalkthrough, Title: "Bubble sort", Body: walkBody},
		},
		markers: make(map[string]bool),
	}
}

func (s *memStore) Upsert(_ context.Context, rec *models.ExerciseRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exercises[rec.ID] = *rec
	return nil
}

func (s *memStore) GetByID(_ context.Context, id string) (*models.ExerciseRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.exercises[id]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (s *memStore) List(_ context.Context) ([]models.ExerciseRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ExerciseRecord
	for _, rec := range s.exercises {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memStore) HasMarker(_ context.Context, userID, exerciseID string, version int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.markers[fmt.Sprintf("%s/%s/%d", userID, exerciseID, version)], nil
}

func (s *memStore) SetMarker(_ context.Context, userID, exerciseID string, version int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.markers[fmt.Sprintf("%s/%s/%d", userID, exerciseID, version)] = true
	return nil
}

func (s *memStore) Record(_ context.Context, a *models.ExerciseAttempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a.ID = int64(len(s.attempts) + 1)
	s.attempts = append(s.attempts, *a)
	return nil
}

func (s *memStore) UpdateRewardStatus(_ context.Context, id int64, status models.RewardStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.attempts {
		if s.attempts[i].ID == id {
			s.attempts[i].RewardStatus = status
			s.attempts[i].Practice = status == models.RewardPractice
		}
	}
	return nil
}

func (s *memStore) ListForUserExercise(_ context.Context, userID, exerciseID string, limit int) ([]models.ExerciseAttempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ExerciseAttempt
	for _, a := range s.attempts {
		if a.UserID == userID && a.ExerciseID == exerciseID && len(out) < limit {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *memStore) Progress(_ context.Context, userID string) (*models.UserProgress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := &models.UserProgress{UserID: userID}
	best := map[string]int{}
	solved := map[string]bool{}
	for _, a := range s.attempts {
		if a.UserID != userID {
			continue
		}
		p.Attempts++
		best[a.ExerciseID] = max(best[a.ExerciseID], a.Score)
		if a.Success {
			solved[a.ExerciseID] = true
		}
	}
	for _, b := range best {
		p.BestScoreTotal += b
	}
	p.Solved = len(solved)
	return p, nil
}

type testServer struct {
	handler http.Handler
	startup *StartupStatus
}

func newTestServer(t *testing.T, limiter *security.RateLimiter) *testServer {
	t.Helper()

	store := newMemStore()
	contentService := service.NewContentService(store)
	completions := service.NewCompletionService(store, reward.LogCompleter{})
	exerciseService := service.NewExerciseService(contentService, completions, store, service.SessionOptions{
		Rules:         game.DefaultRules(),
		MismatchDelay: time.Second,
		HintReveal:    3 * time.Second,
	})
	progressService := service.NewProgressService(store)

	startup := NewStartupStatus(StepDatabase, StepServices)
	mux := http.NewServeMux()
	RegisterRoutes(mux,
		NewMiddleware(security.NewTokenVerifier("", true), limiter),
		NewExerciseHandler(contentService, progressService, exerciseService),
		NewSessionHandler(exerciseService),
		startup,
	)
	return &testServer{handler: mux, startup: startup}
}

func (ts *testServer) do(t *testing.T, method, path, userID, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if userID != "" {
		req.Header.Set(security.UserIDHeader, userID)
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func decodeSession(t *testing.T, rec *httptest.ResponseRecorder) service.SessionView {
	t.Helper()
	var v service.SessionView
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("failed to decode session: %v (body %s)", err, rec.Body.String())
	}
	return v
}

func TestListAndGetExercises(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(t, "GET", "/api/exercises", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var list struct {
		Exercises []service.ExerciseSummary `json:"exercises"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("failed to decode list: %v", err)
	}
	if len(list.Exercises) != 3 || list.Exercises[0].ID != "match" {
		t.Errorf("unexpected catalog: %+v", list.Exercises)
	}

	rec = ts.do(t, "GET", "/api/exercises/match", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var view struct {
		Cards []struct {
			ID string `json:"id"`
		} `json:"cards"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil || len(view.Cards) != 4 {
		t.Fatalf("expected 4 cards, got %s", rec.Body.String())
	}

	rec = ts.do(t, "GET", "/api/exercises/quiz", "", "")
	if strings.Contains(rec.Body.String(), `"answer"`) {
		t.Errorf("public view must not reveal answers: %s", rec.Body.String())
	}
}

func TestGetExerciseErrors(t *testing.T) {
	ts := newTestServer(t, nil)

	tests := []struct {
		name   string
		path   string
		status int
	}{
		{"unknown exercise", "/api/exercises/missing", http.StatusNotFound},
		{"invalid id", "/api/exercises/-bad", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(t, "GET", tt.path, "", "")
			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, rec.Code)
			}
			var body errorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || body.Error == "" {
				t.Errorf("expected JSON error body, got %q", rec.Body.String())
			}
		})
	}
}

func TestSessionRequiresUser(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(t, "POST", "/api/exercises/match/sessions", "", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestMatchingSessionFlow(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(t, "POST", "/api/exercises/match/sessions", "u1", "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	created := decodeSession(t, rec)
	if created.Status != game.StatusInProgress || created.Exercise == nil {
		t.Fatalf("unexpected new session: %+v", created)
	}

	var last service.SessionView
	for _, card := range []string{
		game.PromptCard("q1"), game.ResponseCard("q1"),
		game.PromptCard("q2"), game.ResponseCard("q2"),
	} {
		rec = ts.do(t, "POST", "/api/sessions/"+created.ID+"/select", "u1", `{"cardId": "`+card+`"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("select %s: expected 200, got %d: %s", card, rec.Code, rec.Body.String())
		}
		last = decodeSession(t, rec)
	}

	if last.Status != game.StatusSucceeded {
		t.Fatalf("expected succeeded, got %s", last.Status)
	}
	if last.Reward == nil || last.Reward.Status != models.RewardGranted || last.Reward.Diamonds != 5 {
		t.Errorf("unexpected reward: %+v", last.Reward)
	}

	rec = ts.do(t, "GET", "/api/exercises/match/attempts", "u1", "")
	var history struct {
		Attempts []service.AttemptSummary `json:"attempts"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &history); err != nil {
		t.Fatalf("failed to decode attempts: %v", err)
	}
	if len(history.Attempts) != 1 || !history.Attempts[0].Success {
		t.Errorf("unexpected attempts: %+v", history.Attempts)
	}

	rec = ts.do(t, "GET", "/api/me/progress", "u1", "")
	var progress service.ProgressSummary
	if err := json.Unmarshal(rec.Body.Bytes(), &progress); err != nil {
		t.Fatalf("failed to decode progress: %v", err)
	}
	if progress.Solved != 1 || progress.Attempts != 1 {
		t.Errorf("unexpected progress: %+v", progress)
	}

	// a second win of the same version is practice
	rec = ts.do(t, "POST", "/api/sessions/"+created.ID+"/reset", "u1", "")
	if v := decodeSession(t, rec); v.Status != game.StatusInProgress {
		t.Fatalf("expected in_progress after reset, got %s", v.Status)
	}
	for _, card := range []string{"q1:p", "q1:r", "q2:p", "q2:r"} {
		rec = ts.do(t, "POST", "/api/sessions/"+created.ID+"/select", "u1", `{"cardId": "`+card+`"}`)
	}
	if v := decodeSession(t, rec); v.Reward == nil || v.Reward.Status != models.RewardPractice {
		t.Errorf("expected practice reward on replay, got %+v", v.Reward)
	}
}

func TestSessionOwnership(t *testing.T) {
	ts := newTestServer(t, nil)

	created := decodeSession(t, ts.do(t, "POST", "/api/exercises/match/sessions", "u1", ""))

	if rec := ts.do(t, "GET", "/api/sessions/"+created.ID, "u2", ""); rec.Code != http.StatusForbidden {
		t.Errorf("other user: expected 403, got %d", rec.Code)
	}
	if rec := ts.do(t, "GET", "/api/sessions/"+security.GenerateSessionID(), "u1", ""); rec.Code != http.StatusNotFound {
		t.Errorf("unknown session: expected 404, got %d", rec.Code)
	}
	if rec := ts.do(t, "GET", "/api/sessions/not-a-session", "u1", ""); rec.Code != http.StatusNotFound {
		t.Errorf("malformed session id: expected 404, got %d", rec.Code)
	}
}

func TestWalkthroughIsNotPlayable(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(t, "POST", "/api/exercises/walk/sessions", "u1", "")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
}

func TestSubmitQuiz(t *testing.T) {
	ts := newTestServer(t, nil)
	created := decodeSession(t, ts.do(t, "POST", "/api/exercises/quiz/sessions", "u1", ""))

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"unknown field", `{"answer": {"q1": "2"}}`, http.StatusBadRequest},
		{"malformed json", `{"answers":`, http.StatusBadRequest},
		{"valid answers", `{"answers": {"q1": "2", "q2": "4"}}`, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(t, "POST", "/api/sessions/"+created.ID+"/submit", "u1", tt.body)
			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d: %s", tt.status, rec.Code, rec.Body.String())
			}
			if tt.status == http.StatusOK {
				if v := decodeSession(t, rec); v.Status != game.StatusSucceeded || v.Correct != 2 {
					t.Errorf("unexpected result: %+v", v)
				}
			}
		})
	}
}

func TestSelectRequiresCardID(t *testing.T) {
	ts := newTestServer(t, nil)
	created := decodeSession(t, ts.do(t, "POST", "/api/exercises/match/sessions", "u1", ""))

	rec := ts.do(t, "POST", "/api/sessions/"+created.ID+"/select", "u1", `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var body errorResponse
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body.Field != "card_id" {
		t.Errorf("expected card_id field error, got %+v", body)
	}
}

func TestRateLimitPerUser(t *testing.T) {
	limiter := security.NewRateLimiter(1, time.Minute)
	defer limiter.Close()
	ts := newTestServer(t, limiter)

	if rec := ts.do(t, "POST", "/api/exercises/match/sessions", "u1", ""); rec.Code != http.StatusCreated {
		t.Fatalf("first request: expected 201, got %d", rec.Code)
	}
	rec := ts.do(t, "POST", "/api/exercises/match/sessions", "u1", "")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second request: expected 429, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header")
	}
	if rec := ts.do(t, "POST", "/api/exercises/match/sessions", "u2", ""); rec.Code != http.StatusCreated {
		t.Errorf("other user: expected 201, got %d", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, nil)

	if rec := ts.do(t, "GET", "/healthz", "", ""); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("before ready: expected 503, got %d", rec.Code)
	}

	ts.startup.CompleteStep(StepDatabase)
	ts.startup.MarkReady()

	rec := ts.do(t, "GET", "/healthz", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("after ready: expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"ready":true`) {
		t.Errorf("unexpected health body: %s", rec.Body.String())
	}
}
