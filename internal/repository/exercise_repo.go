package repository

import (
	"context"
	"database/sql"
	"errors"

	"codearena/internal/database"
	"codearena/internal/models"
)

// ExerciseRepository handles exercise catalog database operations
type ExerciseRepository struct {
	db database.DBTX
}

// NewExerciseRepository creates a new exercise repository
func NewExerciseRepository(db database.DBTX) *ExerciseRepository {
	return &ExerciseRepository{db: db}
}

// Upsert stores an exercise, replacing the content of an existing one with the same id
func (r *ExerciseRepository) Upsert(ctx context.Context, rec *models.ExerciseRecord) error {
	_, err := r.db.ExecContext(ctx, r.db.GetDialect().UpsertExerciseQuery(),
		rec.ID, rec.Version, string(rec.Kind), rec.Title, rec.Body)
	return err
}

// GetByID retrieves an exercise, returning nil if it doesn't exist
func (r *ExerciseRepository) GetByID(ctx context.Context, id string) (*models.ExerciseRecord, error) {
	query := `
		SELECT id, version, kind, title, body, created_at, updated_at
		FROM exercises
		WHERE id = ?
	`

	rec := &models.ExerciseRecord{}
	var kind string
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&rec.ID,
		&rec.Version,
		&kind,
		&rec.Title,
		&rec.Body,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	rec.Kind = models.ExerciseKind(kind)
	return rec, nil
}

// List returns every exercise ordered by id
func (r *ExerciseRepository) List(ctx context.Context) ([]models.ExerciseRecord, error) {
	query := `
		SELECT id, version, kind, title, body, created_at, updated_at
		FROM exercises
		ORDER BY id
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.ExerciseRecord
	for rows.Next() {
		var rec models.ExerciseRecord
		var kind string
		if err := rows.Scan(&rec.ID, &rec.Version, &kind, &rec.Title, &rec.Body, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, err
		}
		rec.Kind = models.ExerciseKind(kind)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Delete removes an exercise. Markers and attempts are kept as history.
func (r *ExerciseRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM exercises WHERE id = ?", id)
	return err
}
