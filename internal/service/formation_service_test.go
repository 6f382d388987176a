package service

import (
	"context"
	"errors"
	"testing"

	"github.com/aryan0dhankhar/formationhub/internal/domain"
	"github.com/aryan0dhankhar/formationhub/internal/repository/memory"
)

func TestCreateFormationValidation(t *testing.T) {
	svc := NewFormationService(memory.NewStore(), nil, 0, nil)
	ctx := context.Background()

	f, err := svc.Create(ctx, CreateFormationInput{Title: "  Go  ", DurationHours: 10, Level: domain.LevelBeginner})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if f.Title != "Go" {
		t.Fatalf("title not trimmed: %q", f.Title)
	}

	tests := []struct {
		name string
		in   CreateFormationInput
		want error
	}{
		{"duplicate title", CreateFormationInput{Title: "GO", DurationHours: 1, Level: domain.LevelBeginner}, domain.ErrFormationTitleAlreadyUsed},
		{"short title", CreateFormationInput{Title: " a ", DurationHours: 1, Level: domain.LevelBeginner}, domain.ErrInvalidRequest},
		{"zero duration", CreateFormationInput{Title: "Rust", DurationHours: 0, Level: domain.LevelBeginner}, domain.ErrInvalidRequest},
		{"too long", CreateFormationInput{Title: "Rust", DurationHours: domain.MaxDurationHours + 1, Level: domain.LevelBeginner}, domain.ErrInvalidRequest},
		{"bad level", CreateFormationInput{Title: "Rust", DurationHours: 1, Level: "expert"}, domain.ErrInvalidRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Create(ctx, tt.in); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestUpdateFormationTitle(t *testing.T) {
	svc := NewFormationService(memory.NewStore(), nil, 0, nil)
	ctx := context.Background()

	a, _ := svc.Create(ctx, CreateFormationInput{Title: "Go", DurationHours: 10, Level: domain.LevelBeginner})
	_, _ = svc.Create(ctx, CreateFormationInput{Title: "Rust", DurationHours: 10, Level: domain.LevelAdvanced})

	taken := "rust"
	if _, err := svc.Update(ctx, a.ID, domain.FormationPatch{Title: &taken}); !errors.Is(err, domain.ErrFormationTitleAlreadyUsed) {
		t.Fatalf("expected FORMATION_TITLE_ALREADY_USED, got %v", err)
	}

	recased := "GO"
	hours := 40
	updated, err := svc.Update(ctx, a.ID, domain.FormationPatch{Title: &recased, DurationHours: &hours})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Title != "GO" || updated.DurationHours != 40 || updated.Level != domain.LevelBeginner {
		t.Fatalf("unexpected formation %+v", updated)
	}
}

func TestListFormationsFilters(t *testing.T) {
	svc := NewFormationService(memory.NewStore(), nil, 0, nil)
	ctx := context.Background()

	_, _ = svc.Create(ctx, CreateFormationInput{Title: "Go basics", DurationHours: 10, Level: domain.LevelBeginner})
	_, _ = svc.Create(ctx, CreateFormationInput{Title: "Advanced Go", DurationHours: 10, Level: domain.LevelAdvanced})
	_, _ = svc.Create(ctx, CreateFormationInput{Title: "Rust basics", DurationHours: 10, Level: domain.LevelBeginner})

	got, err := svc.List(ctx, domain.FormationFilter{Level: domain.LevelBeginner, TitleContains: "GO"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 || got[0].Title != "Go basics" {
		t.Fatalf("unexpected formations %v", got)
	}

	if _, err := svc.List(ctx, domain.FormationFilter{Level: "expert"}); !errors.Is(err, domain.ErrInvalidRequest) {
		t.Fatalf("expected INVALID_REQUEST, got %v", err)
	}
}

func TestDeleteFormationInUse(t *testing.T) {
	f := newFixture(t)
	s := f.session(t, 1)
	svc := NewFormationService(f.store, nil, 0, nil)
	ctx := context.Background()

	if err := svc.Delete(ctx, f.formation.ID); !errors.Is(err, domain.ErrFormationInUse) {
		t.Fatalf("expected FORMATION_IN_USE, got %v", err)
	}
	_ = f.sessions.Delete(ctx, s.ID)
	if err := svc.Delete(ctx, f.formation.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := svc.Delete(ctx, f.formation.ID); !errors.Is(err, domain.ErrFormationNotFound) {
		t.Fatalf("expected FORMATION_NOT_FOUND, got %v", err)
	}
}
