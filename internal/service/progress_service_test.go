package service

import (
	"context"
	"testing"
	"time"

	"codearena/internal/models"
)

func TestProgressService(t *testing.T) {
	history := &fakeAttempts{}
	ctx := context.Background()
	at := time.Date(2026, 6, 2, 10, 0, 0, 0, time.UTC)

	for _, a := range []models.ExerciseAttempt{
		{UserID: "u1", ExerciseID: "a", Score: 40, CompletedAt: at},
		{UserID: "u1", ExerciseID: "a", Score: 80, Success: true, RewardStatus: models.RewardGranted, CompletedAt: at},
		{UserID: "u1", ExerciseID: "b", Score: 95, Success: true, CompletedAt: at},
		{UserID: "u2", ExerciseID: "a", Score: 100, Success: true, CompletedAt: at},
	} {
		a := a
		history.Record(ctx, &a)
	}

	svc := NewProgressService(history)

	attempts, err := svc.Attempts(ctx, "u1", "a")
	if err != nil {
		t.Fatalf("Attempts() error = %v", err)
	}
	if len(attempts) != 2 {
		t.Fatalf("expected 2 attempts, got %d", len(attempts))
	}
	if attempts[0].Score != 80 || attempts[0].RewardStatus != models.RewardGranted {
		t.Errorf("newest attempt = %+v", attempts[0])
	}
	if attempts[0].CompletedAt != "2026-06-02T10:00:00Z" {
		t.Errorf("CompletedAt = %q", attempts[0].CompletedAt)
	}

	progress, err := svc.Progress(ctx, "u1")
	if err != nil {
		t.Fatalf("Progress() error = %v", err)
	}
	want := ProgressSummary{UserID: "u1", Attempts: 3, Solved: 2, BestScoreTotal: 175}
	if *progress != want {
		t.Errorf("Progress() = %+v, want %+v", *progress, want)
	}
}
