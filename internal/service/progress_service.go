package service

import (
	"context"
	"fmt"
	"time"

	"codearena/internal/models"
)

// AttemptHistory reads back recorded attempts
type AttemptHistory interface {
	ListForUserExercise(ctx context.Context, userID, exerciseID string, limit int) ([]models.ExerciseAttempt, error)
	Progress(ctx context.Context, userID string) (*models.UserProgress, error)
}

// AttemptSummary is a recorded attempt as shown to its user
type AttemptSummary struct {
	ID               int64               `json:"id"`
	ContentVersion   int                 `json:"contentVersion"`
	Score            int                 `json:"score"`
	Success          bool                `json:"success"`
	Practice         bool                `json:"practice"`
	TimeSpentSeconds int                 `json:"timeSpentSeconds"`
	Mistakes         int                 `json:"mistakes"`
	Hints            int                 `json:"hints"`
	RewardStatus     models.RewardStatus `json:"rewardStatus"`
	CompletedAt      string              `json:"completedAt"`
}

// ProgressSummary totals a user's results across exercises
type ProgressSummary struct {
	UserID         string `json:"userId"`
	Attempts       int    `json:"attempts"`
	Solved         int    `json:"solved"`
	BestScoreTotal int    `json:"bestScoreTotal"`
}

const maxHistory = 50

// ProgressService answers questions about past attempts
type ProgressService struct {
	history AttemptHistory
}

// NewProgressService creates a new progress service
func NewProgressService(history AttemptHistory) *ProgressService {
	return &ProgressService{history: history}
}

// Attempts returns the user's most recent attempts at an exercise
func (s *ProgressService) Attempts(ctx context.Context, userID, exerciseID string) ([]AttemptSummary, error) {
	attempts, err := s.history.ListForUserExercise(ctx, userID, exerciseID, maxHistory)
	if err != nil {
		return nil, fmt.Errorf("failed to load attempts: %w", err)
	}

	summaries := make([]AttemptSummary, 0, len(attempts))
	for _, a := range attempts {
		summaries = append(summaries, AttemptSummary{
			ID:               a.ID,
			ContentVersion:   a.ContentVersion,
			Score:            a.Score,
			Success:          a.Success,
			Practice:         a.Practice,
			TimeSpentSeconds: a.TimeSpentSeconds,
			Mistakes:         a.Mistakes,
			Hints:            a.Hints,
			RewardStatus:     a.RewardStatus,
			CompletedAt:      a.CompletedAt.UTC().Format(time.RFC3339),
		})
	}
	return summaries, nil
}

// Progress returns the user's totals
func (s *ProgressService) Progress(ctx context.Context, userID string) (*ProgressSummary, error) {
	p, err := s.history.Progress(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load progress: %w", err)
	}
	return &ProgressSummary{
		UserID:         p.UserID,
		Attempts:       p.Attempts,
		Solved:         p.Solved,
		BestScoreTotal: p.BestScoreTotal,
	}, nil
}
