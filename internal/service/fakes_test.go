package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"codearena/internal/models"
	"codearena/internal/reward"
)

type fakeExercises struct {
	mu      sync.Mutex
	records map[string]models.ExerciseRecord
}

func newFakeExercises(records ...models.ExerciseRecord) *fakeExercises {
	f := &fakeExercises{records: make(map[string]models.ExerciseRecord)}
	for _, r := range records {
		f.records[r.ID] = r
	}
	return f
}

func (f *fakeExercises) Upsert(_ context.Context, rec *models.ExerciseRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records[rec.ID] = *rec
	return nil
}

func (f *fakeExercises) GetByID(_ context.Context, id string) (*models.ExerciseRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[id]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (f *fakeExercises) List(_ context.Context) ([]models.ExerciseRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.ExerciseRecord
	for _, r := range f.records {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type fakeMarkers struct {
	mu      sync.Mutex
	markers map[string]bool
	err     error
}

func newFakeMarkers() *fakeMarkers {
	return &fakeMarkers{markers: make(map[string]bool)}
}

func markerKey(userID, exerciseID string, version int) string {
	return fmt.Sprintf("%s/%s/%d", userID, exerciseID, version)
}

func (f *fakeMarkers) HasMarker(_ context.Context, userID, exerciseID string, version int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	return f.markers[markerKey(userID, exerciseID, version)], nil
}

func (f *fakeMarkers) SetMarker(_ context.Context, userID, exerciseID string, version int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.markers[markerKey(userID, exerciseID, version)] = true
	return nil
}

func (f *fakeMarkers) has(userID, exerciseID string, version int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.markers[markerKey(userID, exerciseID, version)]
}

type fakeRewards struct {
	calls    int32
	mu       sync.Mutex
	failures int // calls that fail before one succeeds
	declined bool
	delay    time.Duration
	last     reward.CompletionRequest
}

var errRewardDown = errors.New("reward service unavailable")

func (f *fakeRewards) Complete(_ context.Context, _ string, req reward.CompletionRequest) (*reward.Receipt, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.last = req
	if f.failures > 0 {
		f.failures--
		return nil, errRewardDown
	}
	if f.declined {
		return &reward.Receipt{Granted: false}, nil
	}
	return &reward.Receipt{Granted: true, Diamonds: req.DiamondReward, Experience: req.ExperienceReward}, nil
}

func (f *fakeRewards) count() int {
	return int(atomic.LoadInt32(&f.calls))
}

type fakeAttempts struct {
	mu       sync.Mutex
	attempts []models.ExerciseAttempt
}

func (f *fakeAttempts) Record(_ context.Context, a *models.ExerciseAttempt) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a.ID = int64(len(f.attempts) + 1)
	f.attempts = append(f.attempts, *a)
	return nil
}

func (f *fakeAttempts) UpdateRewardStatus(_ context.Context, id int64, status models.RewardStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.attempts {
		if f.attempts[i].ID == id {
			f.attempts[i].RewardStatus = status
			f.attempts[i].Practice = status == models.RewardPractice
			return nil
		}
	}
	return errors.New("attempt not found")
}

func (f *fakeAttempts) ListForUserExercise(_ context.Context, userID, exerciseID string, limit int) ([]models.ExerciseAttempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.ExerciseAttempt
	for i := len(f.attempts) - 1; i >= 0 && len(out) < limit; i-- {
		if a := f.attempts[i]; a.UserID == userID && a.ExerciseID == exerciseID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAttempts) Progress(_ context.Context, userID string) (*models.UserProgress, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := &models.UserProgress{UserID: userID}
	best := map[string]int{}
	solved := map[string]bool{}
	for _, a := range f.attempts {
		if a.UserID != userID {
			continue
		}
		p.Attempts++
		if a.Score > best[a.ExerciseID] {
			best[a.ExerciseID] = a.Score
		}
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

func (f *fakeAttempts) all() []models.ExerciseAttempt {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.ExerciseAttempt(nil), f.attempts...)
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}
