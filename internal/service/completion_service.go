package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"codearena/internal/models"
	"codearena/internal/reward"
)

var ErrRewardDeclined = errors.New("reward service did not confirm the grant")

// MarkerStore remembers which (user, exercise, version) combinations were rewarded
type MarkerStore interface {
	HasMarker(ctx context.Context, userID, exerciseID string, version int) (bool, error)
	SetMarker(ctx context.Context, userID, exerciseID string, version int) error
}

// Completion describes a finished attempt to report
type Completion struct {
	UserID           string
	ExerciseID       string
	ContentVersion   int
	Score            int
	TimeSpentSeconds int
	Success          bool
	DiamondReward    int
	ExperienceReward int
}

// CompletionResult is the outcome of reporting a completion
type CompletionResult struct {
	Status  models.RewardStatus
	Receipt *reward.Receipt
}

// CompletionService calls the reward service at most once per user, exercise and
// content version. Later successes are practice runs: scored, never rewarded.
type CompletionService struct {
	markers MarkerStore
	rewards reward.Completer
	locks   keyedMutex
}

// NewCompletionService creates a new completion reporter
func NewCompletionService(markers MarkerStore, rewards reward.Completer) *CompletionService {
	return &CompletionService{markers: markers, rewards: rewards}
}

// Report sends a successful completion to the reward service unless it was rewarded
// before. A failed call yields RewardPending and no marker, so Report may be retried.
func (s *CompletionService) Report(ctx context.Context, c Completion) (CompletionResult, error) {
	if !c.Success {
		return CompletionResult{Status: models.RewardNone}, nil
	}

	key := fmt.Sprintf("%s\x00%s\x00%d", c.UserID, c.ExerciseID, c.ContentVersion)
	unlock := s.locks.Lock(key)
	defer unlock()

	rewarded, err := s.markers.HasMarker(ctx, c.UserID, c.ExerciseID, c.ContentVersion)
	if err != nil {
		return CompletionResult{Status: models.RewardPending}, fmt.Errorf("failed to check reward marker: %w", err)
	}
	if rewarded {
		return CompletionResult{Status: models.RewardPractice}, nil
	}

	receipt, err := s.rewards.Complete(ctx, c.ExerciseID, reward.CompletionRequest{
		UserID:           c.UserID,
		Score:            c.Score,
		TimeSpentSeconds: c.TimeSpentSeconds,
		Success:          true,
		DiamondReward:    c.DiamondReward,
		ExperienceReward: c.ExperienceReward,
	})
	if err != nil {
		log.Printf("Reward call failed for user %s exercise %s: %v", c.UserID, c.ExerciseID, err)
		return CompletionResult{Status: models.RewardPending}, err
	}
	if receipt == nil || !receipt.Granted {
		return CompletionResult{Status: models.RewardPending}, ErrRewardDeclined
	}

	if err := s.markers.SetMarker(ctx, c.UserID, c.ExerciseID, c.ContentVersion); err != nil {
		// the grant went through; losing the marker only risks a second grant later
		log.Printf("Error: failed to store reward marker for user %s exercise %s: %v", c.UserID, c.ExerciseID, err)
	}

	log.Printf("Reward granted: user=%s exercise=%s version=%d score=%d",
		c.UserID, c.ExerciseID, c.ContentVersion, c.Score)
	return CompletionResult{Status: models.RewardGranted, Receipt: receipt}, nil
}

// keyedMutex serializes work per key and forgets keys nobody holds
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	sync.Mutex
	refs int
}

func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*keyLock)
	}
	l, ok := k.locks[key]
	if !ok {
		l = &keyLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
