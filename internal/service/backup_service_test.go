package service

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"codearena/internal/database"
	"codearena/internal/models"
	"codearena/internal/repository"
)

func openBackupDB(t *testing.T) *database.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping database test in short mode")
	}

	db, err := database.Initialize(filepath.Join(t.TempDir(), "backup.db"))
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.RunMigrations("../../migrations"); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}
	return db
}

func TestBackupRoundTrip(t *testing.T) {
	db := openBackupDB(t)
	ctx := context.Background()
	exercises := repository.NewExerciseRepository(db)
	markers := repository.NewRewardRepository(db)
	attempts := repository.NewAttemptRepository(db)

	if err := exercises.Upsert(ctx, &models.ExerciseRecord{ID: "match", Version: 2, Kind: models.KindMatching, Title: "Match", Body: matchingBody}); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if err := markers.SetMarker(ctx, "u1", "match", 2); err != nil {
		t.Fatalf("SetMarker() error = %v", err)
	}
	if err := attempts.Record(ctx, &models.ExerciseAttempt{
		SessionID: "s1", UserID: "u1", ExerciseID: "match", ContentVersion: 2, Score: 90,
		Success: true, RewardStatus: models.RewardGranted, CompletedAt: time.Now().UTC(),
	}); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	backup := NewBackupService(db)
	var buf bytes.Buffer
	data, err := backup.ExportToWriter(ctx, &buf)
	if err != nil {
		t.Fatalf("ExportToWriter() error = %v", err)
	}
	if len(data.Exercises) != 1 || len(data.Markers) != 1 || len(data.Attempts) != 1 {
		t.Fatalf("exported %d/%d/%d rows", len(data.Exercises), len(data.Markers), len(data.Attempts))
	}

	if err := backup.Clear(ctx); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if err := backup.ImportFromReader(ctx, bytes.NewReader(buf.Bytes())); err != nil {
		t.Fatalf("ImportFromReader() error = %v", err)
	}
	// markers merge, so a second import keeps a single grant
	if err := backup.ImportFromReader(ctx, bytes.NewReader(buf.Bytes())); err != nil {
		t.Fatalf("second ImportFromReader() error = %v", err)
	}

	rec, err := exercises.GetByID(ctx, "match")
	if err != nil || rec == nil {
		t.Fatalf("GetByID() = %v, %v", rec, err)
	}
	if rec.Version != 2 {
		t.Errorf("Version = %d, want 2", rec.Version)
	}
	def, err := NewContentService(exercises).Get(ctx, "match")
	if err != nil || len(def.Pairs) != 2 {
		t.Errorf("restored definition = %+v, %v", def, err)
	}

	if has, _ := markers.HasMarker(ctx, "u1", "match", 2); !has {
		t.Error("expected restored marker")
	}
	all, _ := markers.ListAll(ctx)
	if len(all) != 1 {
		t.Errorf("expected 1 marker after two imports, got %d", len(all))
	}
}

func TestFailedImportRollsBack(t *testing.T) {
	db := openBackupDB(t)
	ctx := context.Background()

	if _, err := db.ExecContext(ctx, `CREATE TRIGGER reject_attempts BEFORE INSERT ON exercise_attempts
		BEGIN SELECT RAISE(ABORT, 'attempts are read-only'); END`); err != nil {
		t.Fatalf("Failed to create trigger: %v", err)
	}

	doc := `{"version": "1.0", "exercises": [{"id": "quiz", "version": 1, "kind": "quiz", "title": "Quiz", "body": {"type": "quiz"}}],
		"reward_markers": [{"user_id": "u1", "exercise_id": "quiz", "content_version": 1, "granted_at": "2026-01-02T03:04:05Z"}],
		"attempts": [{"session_id": "s1", "user_id": "u1", "exercise_id": "quiz", "content_version": 1, "score": 80,
			"success": true, "reward_status": "granted", "completed_at": "2026-01-02T03:04:05Z"}]}`

	if err := NewBackupService(db).ImportFromReader(ctx, strings.NewReader(doc)); err == nil {
		t.Fatal("expected import to fail on the attempts table")
	}

	rec, err := repository.NewExerciseRepository(db).GetByID(ctx, "quiz")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if rec != nil {
		t.Errorf("exercise from a failed import was kept: %+v", rec)
	}
	if has, _ := repository.NewRewardRepository(db).HasMarker(ctx, "u1", "quiz", 1); has {
		t.Error("marker from a failed import was kept")
	}
}
