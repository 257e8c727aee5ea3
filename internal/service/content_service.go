package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"codearena/internal/content"
	"codearena/internal/models"
)

var ErrExerciseNotFound = errors.New("exercise not found")

// ExerciseStore persists the exercise catalog
type ExerciseStore interface {
	Upsert(ctx context.Context, rec *models.ExerciseRecord) error
	GetByID(ctx context.Context, id string) (*models.ExerciseRecord, error)
	List(ctx context.Context) ([]models.ExerciseRecord, error)
}

// ExerciseSummary is a catalog entry as listed to clients
type ExerciseSummary struct {
	ID               string              `json:"id"`
	Title            string              `json:"title"`
	Kind             models.ExerciseKind `json:"kind"`
	Version          int                 `json:"version"`
	TimeLimitSeconds int                 `json:"timeLimitSeconds"`
	Available        bool                `json:"available"`
}

// ContentService loads exercise definitions and hands out normalized copies
type ContentService struct {
	store ExerciseStore
}

// NewContentService creates a new content service
func NewContentService(store ExerciseStore) *ContentService {
	return &ContentService{store: store}
}

// SeedFromDir stores every exercise document found in dir and returns how many were stored
func (s *ContentService) SeedFromDir(ctx context.Context, dir string) (int, error) {
	sources, err := content.LoadDir(dir)
	if err != nil {
		return 0, err
	}

	for _, src := range sources {
		def := src.Definition
		rec := &models.ExerciseRecord{
			ID:      def.ID,
			Version: def.Version,
			Kind:    def.Kind,
			Title:   def.Title,
			Body:    string(src.Body),
		}
		if err := s.store.Upsert(ctx, rec); err != nil {
			return 0, fmt.Errorf("failed to store exercise %s: %w", def.ID, err)
		}
		if def.UnitCount() == 0 && def.Kind != models.KindWalkthrough {
			log.Printf("Warning: exercise %s has no playable content", def.ID)
		}
	}
	return len(sources), nil
}

// Get returns the definition of an exercise. A stored exercise whose body cannot
// be read comes back as an empty definition so it plays as "no content".
func (s *ContentService) Get(ctx context.Context, id string) (*models.ExerciseDefinition, error) {
	rec, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load exercise: %w", err)
	}
	if rec == nil {
		return nil, ErrExerciseNotFound
	}
	return definitionFromRecord(rec), nil
}

// List returns catalog summaries
func (s *ContentService) List(ctx context.Context) ([]ExerciseSummary, error) {
	records, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list exercises: %w", err)
	}

	summaries := make([]ExerciseSummary, 0, len(records))
	for i := range records {
		def := definitionFromRecord(&records[i])
		summaries = append(summaries, ExerciseSummary{
			ID:               def.ID,
			Title:            def.Title,
			Kind:             def.Kind,
			Version:          def.Version,
			TimeLimitSeconds: def.TimeLimitSeconds,
			Available:        content.PublicView(def).Available,
		})
	}
	return summaries, nil
}

// View returns the answer-free client view of an exercise
func (s *ContentService) View(ctx context.Context, id string) (*content.View, error) {
	def, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	v := content.PublicView(def)
	return &v, nil
}

func definitionFromRecord(rec *models.ExerciseRecord) *models.ExerciseDefinition {
	def, err := content.Parse([]byte(rec.Body))
	if def == nil {
		log.Printf("Exercise %s has an unreadable body: %v", rec.ID, err)
		def = &models.ExerciseDefinition{Kind: rec.Kind, Title: rec.Title}
	}
	// the catalog row is authoritative for identity
	def.ID = rec.ID
	def.Version = rec.Version
	return def
}
