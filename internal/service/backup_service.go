package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"codearena/internal/database"
	"codearena/internal/models"
	"codearena/internal/repository"
)

const backupVersion = "1.0"

// BackupData represents the complete database backup structure
type BackupData struct {
	Version      string           `json:"version"`
	ExportedAt   time.Time        `json:"exported_at"`
	DatabaseType string           `json:"database_type"`
	Exercises    []ExerciseBackup `json:"exercises"`
	Markers      []MarkerBackup   `json:"reward_markers"`
	Attempts     []AttemptBackup  `json:"attempts"`
}

// ExerciseBackup represents a catalog entry for backup
type ExerciseBackup struct {
	ID        string          `json:"id"`
	Version   int             `json:"version"`
	Kind      string          `json:"kind"`
	Title     string          `json:"title"`
	Body      json.RawMessage `json:"body"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// MarkerBackup represents a reward marker for backup
type MarkerBackup struct {
	UserID         string    `json:"user_id"`
	ExerciseID     string    `json:"exercise_id"`
	ContentVersion int       `json:"content_version"`
	GrantedAt      time.Time `json:"granted_at"`
}

// AttemptBackup represents a finished attempt for backup
type AttemptBackup struct {
	SessionID        string    `json:"session_id"`
	UserID           string    `json:"user_id"`
	ExerciseID       string    `json:"exercise_id"`
	ContentVersion   int       `json:"content_version"`
	Score            int       `json:"score"`
	Success          bool      `json:"success"`
	Practice         bool      `json:"practice"`
	TimeSpentSeconds int       `json:"time_spent_seconds"`
	Mistakes         int       `json:"mistakes"`
	Hints            int       `json:"hints"`
	RewardStatus     string    `json:"reward_status"`
	CompletedAt      time.Time `json:"completed_at"`
}

// BackupService handles database backup and restore operations
type BackupService struct {
	db        *database.DB
	exercises *repository.ExerciseRepository
	markers   *repository.RewardRepository
	attempts  *repository.AttemptRepository
}

// NewBackupService creates a new backup service
func NewBackupService(db *database.DB) *BackupService {
	return &BackupService{
		db:        db,
		exercises: repository.NewExerciseRepository(db),
		markers:   repository.NewRewardRepository(db),
		attempts:  repository.NewAttemptRepository(db),
	}
}

// Export creates a complete backup of the database to a file
func (s *BackupService) Export(ctx context.Context, outputPath string) error {
	log.Println("Starting database export...")

	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	backup, err := s.ExportToWriter(ctx, file)
	if err != nil {
		return err
	}

	log.Printf("Database exported successfully to %s", outputPath)
	log.Printf("Exported: %d exercises, %d reward markers, %d attempts",
		len(backup.Exercises), len(backup.Markers), len(backup.Attempts))
	return nil
}

// ExportToWriter writes a backup to w and returns what was written
func (s *BackupService) ExportToWriter(ctx context.Context, w io.Writer) (*BackupData, error) {
	backup := &BackupData{
		Version:      backupVersion,
		ExportedAt:   time.Now().UTC(),
		DatabaseType: s.db.Dialect.MigrationsSubdir(),
	}

	if err := s.exportExercises(ctx, backup); err != nil {
		return nil, fmt.Errorf("failed to export exercises: %w", err)
	}
	if err := s.exportMarkers(ctx, backup); err != nil {
		return nil, fmt.Errorf("failed to export reward markers: %w", err)
	}
	if err := s.exportAttempts(ctx, backup); err != nil {
		return nil, fmt.Errorf("failed to export attempts: %w", err)
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(backup); err != nil {
		return nil, fmt.Errorf("failed to encode backup: %w", err)
	}
	return backup, nil
}

// Import restores a database from a backup file
func (s *BackupService) Import(ctx context.Context, inputPath string) error {
	log.Printf("Starting database import from %s...", inputPath)

	file, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("failed to open input file: %w", err)
	}
	defer file.Close()

	return s.ImportFromReader(ctx, file)
}

// ImportFromReader restores a backup read from r. Exercises are upserted and markers
// are merged, so importing the same backup twice never duplicates a grant.
func (s *BackupService) ImportFromReader(ctx context.Context, r io.Reader) error {
	var backup BackupData
	if err := json.NewDecoder(r).Decode(&backup); err != nil {
		return fmt.Errorf("failed to decode backup: %w", err)
	}

	log.Printf("Backup version: %s, exported at: %s", backup.Version, backup.ExportedAt)

	// A failed import leaves the database as it was
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin import: %w", err)
	}
	defer tx.Rollback()

	if err := importExercises(ctx, repository.NewExerciseRepository(tx), backup.Exercises); err != nil {
		return fmt.Errorf("failed to import exercises: %w", err)
	}
	if err := importMarkers(ctx, repository.NewRewardRepository(tx), backup.Markers); err != nil {
		return fmt.Errorf("failed to import reward markers: %w", err)
	}
	if err := importAttempts(ctx, repository.NewAttemptRepository(tx), backup.Attempts); err != nil {
		return fmt.Errorf("failed to import attempts: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit import: %w", err)
	}

	log.Println("Import completed successfully")
	return nil
}

// Clear deletes every exercise, marker and attempt
func (s *BackupService) Clear(ctx context.Context) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin clear: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"exercise_attempts", "reward_markers", "exercises"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear table %s: %w", table, err)
		}
		log.Printf("Cleared table: %s", table)
	}
	return tx.Commit()
}

func (s *BackupService) exportExercises(ctx context.Context, backup *BackupData) error {
	records, err := s.exercises.List(ctx)
	if err != nil {
		return err
	}
	for _, rec := range records {
		body := json.RawMessage(rec.Body)
		if !json.Valid(body) {
			// keep unreadable bodies as a JSON string so the backup stays valid
			body, _ = json.Marshal(rec.Body)
		}
		backup.Exercises = append(backup.Exercises, ExerciseBackup{
			ID:        rec.ID,
			Version:   rec.Version,
			Kind:      string(rec.Kind),
			Title:     rec.Title,
			Body:      body,
			CreatedAt: rec.CreatedAt,
			UpdatedAt: rec.UpdatedAt,
		})
	}
	return nil
}

func (s *BackupService) exportMarkers(ctx context.Context, backup *BackupData) error {
	markers, err := s.markers.ListAll(ctx)
	if err != nil {
		return err
	}
	for _, m := range markers {
		backup.Markers = append(backup.Markers, MarkerBackup(m))
	}
	return nil
}

func (s *BackupService) exportAttempts(ctx context.Context, backup *BackupData) error {
	attempts, err := s.attempts.ListAll(ctx)
	if err != nil {
		return err
	}
	for _, a := range attempts {
		backup.Attempts = append(backup.Attempts, AttemptBackup{
			SessionID:        a.SessionID,
			UserID:           a.UserID,
			ExerciseID:       a.ExerciseID,
			ContentVersion:   a.ContentVersion,
			Score:            a.Score,
			Success:          a.Success,
			Practice:         a.Practice,
			TimeSpentSeconds: a.TimeSpentSeconds,
			Mistakes:         a.Mistakes,
			Hints:            a.Hints,
			RewardStatus:     string(a.RewardStatus),
			CompletedAt:      a.CompletedAt,
		})
	}
	return nil
}

func importExercises(ctx context.Context, repo *repository.ExerciseRepository, exercises []ExerciseBackup) error {
	log.Printf("Importing %d exercises...", len(exercises))
	for _, e := range exercises {
		body := string(e.Body)
		var raw string
		if json.Unmarshal(e.Body, &raw) == nil {
			body = raw
		}
		rec := &models.ExerciseRecord{
			ID:      e.ID,
			Version: e.Version,
			Kind:    models.ExerciseKind(e.Kind),
			Title:   e.Title,
			Body:    body,
		}
		if err := repo.Upsert(ctx, rec); err != nil {
			return fmt.Errorf("failed to import exercise %s: %w", e.ID, err)
		}
	}
	return nil
}

func importMarkers(ctx context.Context, repo *repository.RewardRepository, markers []MarkerBackup) error {
	log.Printf("Importing %d reward markers...", len(markers))
	for _, m := range markers {
		marker := models.RewardMarker(m)
		if err := repo.Insert(ctx, &marker); err != nil {
			return fmt.Errorf("failed to import marker for %s/%s: %w", m.UserID, m.ExerciseID, err)
		}
	}
	return nil
}

func importAttempts(ctx context.Context, repo *repository.AttemptRepository, attempts []AttemptBackup) error {
	log.Printf("Importing %d attempts...", len(attempts))
	for _, a := range attempts {
		attempt := &models.ExerciseAttempt{
			SessionID:        a.SessionID,
			UserID:           a.UserID,
			ExerciseID:       a.ExerciseID,
			ContentVersion:   a.ContentVersion,
			Score:            a.Score,
			Success:          a.Success,
			Practice:         a.Practice,
			TimeSpentSeconds: a.TimeSpentSeconds,
			Mistakes:         a.Mistakes,
			Hints:            a.Hints,
			RewardStatus:     models.RewardStatus(a.RewardStatus),
			CompletedAt:      a.CompletedAt,
		}
		if err := repo.Record(ctx, attempt); err != nil {
			return fmt.Errorf("failed to import attempt of session %s: %w", a.SessionID, err)
		}
	}
	return nil
}
