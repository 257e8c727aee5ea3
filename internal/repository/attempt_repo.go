package repository

import (
	"context"
	"database/sql"
	"errors"

	"codearena/internal/database"
	"codearena/internal/models"
)

const attemptColumns = `id, session_id, user_id, exercise_id, content_version, score, success, practice,
	time_spent_seconds, mistakes, hints, reward_status, completed_at`

// AttemptRepository handles finished attempt history
type AttemptRepository struct {
	db database.DBTX
}

// NewAttemptRepository creates a new attempt repository
func NewAttemptRepository(db database.DBTX) *AttemptRepository {
	return &AttemptRepository{db: db}
}

// Record stores a finished attempt and fills in its id
func (r *AttemptRepository) Record(ctx context.Context, a *models.ExerciseAttempt) error {
	query := `
		INSERT INTO exercise_attempts (session_id, user_id, exercise_id, content_version, score, success,
			practice, time_spent_seconds, mistakes, hints, reward_status, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	id, err := r.db.ExecReturningID(ctx, query,
		a.SessionID, a.UserID, a.ExerciseID, a.ContentVersion, a.Score, a.Success,
		a.Practice, a.TimeSpentSeconds, a.Mistakes, a.Hints, string(a.RewardStatus), a.CompletedAt)
	if err != nil {
		return err
	}
	a.ID = id
	return nil
}

// UpdateRewardStatus changes the reward outcome of a recorded attempt. An attempt
// resolved to practice is flagged as such.
func (r *AttemptRepository) UpdateRewardStatus(ctx context.Context, id int64, status models.RewardStatus) error {
	_, err := r.db.ExecContext(ctx, "UPDATE exercise_attempts SET reward_status = ?, practice = ? WHERE id = ?",
		string(status), status == models.RewardPractice, id)
	return err
}

// GetByID retrieves an attempt, returning nil if it doesn't exist
func (r *AttemptRepository) GetByID(ctx context.Context, id int64) (*models.ExerciseAttempt, error) {
	query := "SELECT " + attemptColumns + " FROM exercise_attempts WHERE id = ?"

	a, err := scanAttempt(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return a, err
}

// ListForUserExercise returns a user's attempts at one exercise, newest first
func (r *AttemptRepository) ListForUserExercise(ctx context.Context, userID, exerciseID string, limit int) ([]models.ExerciseAttempt, error) {
	query := "SELECT " + attemptColumns + `
		FROM exercise_attempts
		WHERE user_id = ? AND exercise_id = ?
		ORDER BY completed_at DESC, id DESC
		LIMIT ?
	`
	return r.list(ctx, query, userID, exerciseID, limit)
}

// ListAll returns the full attempt history, oldest first
func (r *AttemptRepository) ListAll(ctx context.Context) ([]models.ExerciseAttempt, error) {
	return r.list(ctx, "SELECT "+attemptColumns+" FROM exercise_attempts ORDER BY id")
}

// Progress summarizes a user's attempts
func (r *AttemptRepository) Progress(ctx context.Context, userID string) (*models.UserProgress, error) {
	progress := &models.UserProgress{UserID: userID}

	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM exercise_attempts WHERE user_id = ?", userID).
		Scan(&progress.Attempts)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT MAX(score), MAX(CASE WHEN success THEN 1 ELSE 0 END)
		FROM exercise_attempts
		WHERE user_id = ?
		GROUP BY exercise_id
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var best, solved int
		if err := rows.Scan(&best, &solved); err != nil {
			return nil, err
		}
		progress.BestScoreTotal += best
		progress.Solved += solved
	}
	return progress, rows.Err()
}

func (r *AttemptRepository) list(ctx context.Context, query string, args ...interface{}) ([]models.ExerciseAttempt, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attempts []models.ExerciseAttempt
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, err
		}
		attempts = append(attempts, *a)
	}
	return attempts, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanAttempt(row scanner) (*models.ExerciseAttempt, error) {
	a := &models.ExerciseAttempt{}
	var status string
	err := row.Scan(
		&a.ID,
		&a.SessionID,
		&a.UserID,
		&a.ExerciseID,
		&a.ContentVersion,
		&a.Score,
		&a.Success,
		&a.Practice,
		&a.TimeSpentSeconds,
		&a.Mistakes,
		&a.Hints,
		&status,
		&a.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	a.RewardStatus = models.RewardStatus(status)
	return a, nil
}
