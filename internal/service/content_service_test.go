package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"codearena/internal/models"
)

func TestSeedFromDirAndList(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"match.json": matchingBody,
		"walk.yaml":  "type: walkthrough\nsteps:\n  - compare\n",
		"empty.json": emptyBody,
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
	}

	store := newFakeExercises()
	svc := NewContentService(store)
	ctx := context.Background()

	n, err := svc.SeedFromDir(ctx, dir)
	if err != nil {
		t.Fatalf("SeedFromDir() error = %v", err)
	}
	if n != 3 {
		t.Fatalf("seeded %d exercises, want 3", n)
	}

	summaries, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	want := []struct {
		id        string
		kind      models.ExerciseKind
		available bool
	}{
		{"empty", models.KindMatching, false},
		{"match", models.KindMatching, true},
		{"walk", models.KindWalkthrough, true},
	}
	if len(summaries) != len(want) {
		t.Fatalf("List() returned %d summaries, want %d", len(summaries), len(want))
	}
	for i, w := range want {
		s := summaries[i]
		if s.ID != w.id || s.Kind != w.kind || s.Available != w.available {
			t.Errorf("summary %d = %+v, want id=%s kind=%s available=%v", i, s, w.id, w.kind, w.available)
		}
	}
}

func TestGetUsesCatalogIdentity(t *testing.T) {
	store := newFakeExercises(models.ExerciseRecord{
		ID: "renamed", Version: 7, Kind: models.KindQuiz,
		Body: `{"id": "old-id", "version": 1, "type": "quiz", "questions": [{"prompt": "q", "answer": "a"}]}`,
	})
	def, err := NewContentService(store).Get(context.Background(), "renamed")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if def.ID != "renamed" || def.Version != 7 {
		t.Errorf("Get() = %s v%d, want renamed v7", def.ID, def.Version)
	}
}

func TestGetUnreadableBodyIsNoContent(t *testing.T) {
	store := newFakeExercises(models.ExerciseRecord{ID: "broken", Version: 1, Kind: models.KindMatching, Title: "Broken", Body: `{not json`})
	svc := NewContentService(store)

	def, err := svc.Get(context.Background(), "broken")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if def.UnitCount() != 0 || def.Title != "Broken" {
		t.Errorf("Get() = %+v", def)
	}

	view, err := svc.View(context.Background(), "broken")
	if err != nil {
		t.Fatalf("View() error = %v", err)
	}
	if view.Available {
		t.Error("unreadable exercise must not be available")
	}

	if _, err := svc.Get(context.Background(), "missing"); !errors.Is(err, ErrExerciseNotFound) {
		t.Errorf("expected ErrExerciseNotFound, got %v", err)
	}
}
