package repository

import (
	"context"
	"time"

	"codearena/internal/database"
	"codearena/internal/models"
)

// RewardRepository stores the markers that make reward grants idempotent
type RewardRepository struct {
	db database.DBTX
}

// NewRewardRepository creates a new reward marker repository
func NewRewardRepository(db database.DBTX) *RewardRepository {
	return &RewardRepository{db: db}
}

// HasMarker reports whether the user was already rewarded for this exercise version
func (r *RewardRepository) HasMarker(ctx context.Context, userID, exerciseID string, version int) (bool, error) {
	var count int
	query := `
		SELECT COUNT(*) FROM reward_markers
		WHERE user_id = ? AND exercise_id = ? AND content_version = ?
	`
	err := r.db.QueryRowContext(ctx, query, userID, exerciseID, version).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// SetMarker records a grant. Setting an existing marker is a no-op.
func (r *RewardRepository) SetMarker(ctx context.Context, userID, exerciseID string, version int) error {
	return r.Insert(ctx, &models.RewardMarker{
		UserID:         userID,
		ExerciseID:     exerciseID,
		ContentVersion: version,
		GrantedAt:      time.Now().UTC(),
	})
}

// Insert stores a marker with an explicit grant time
func (r *RewardRepository) Insert(ctx context.Context, m *models.RewardMarker) error {
	_, err := r.db.ExecContext(ctx, r.db.GetDialect().InsertRewardMarkerQuery(),
		m.UserID, m.ExerciseID, m.ContentVersion, m.GrantedAt)
	return err
}

// ListAll returns every marker, oldest first
func (r *RewardRepository) ListAll(ctx context.Context) ([]models.RewardMarker, error) {
	query := `
		SELECT user_id, exercise_id, content_version, granted_at
		FROM reward_markers
		ORDER BY granted_at, user_id, exercise_id
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var markers []models.RewardMarker
	for rows.Next() {
		var m models.RewardMarker
		if err := rows.Scan(&m.UserID, &m.ExerciseID, &m.ContentVersion, &m.GrantedAt); err != nil {
			return nil, err
		}
		markers = append(markers, m)
	}
	return markers, rows.Err()
}
