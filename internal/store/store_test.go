package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/coderace-dev/coderace/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "coderace.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() {
		if err := st.Close(); err != nil {
			t.Errorf("failed to close store: %v", err)
		}
	})
	return st
}

func record(endedAt time.Time, lang string, mode model.RaceMode, wpm int) model.RaceRecord {
	return model.RaceRecord{
		StartedAt:  endedAt.Add(-time.Minute),
		EndedAt:    endedAt,
		Lang:       lang,
		Mode:       mode,
		CharsTyped: wpm * 5,
		Errors:     2,
		WPM:        wpm,
		Accuracy:   96,
		DurationMs: 60000,
		Completed:  true,
	}
}

func TestInsertAndListRaces(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2025, 4, 2, 9, 0, 0, 0, time.UTC)

	if _, err := st.InsertRace(ctx, record(base, "go", model.ModeSolo, 50)); err != nil {
		t.Fatalf("failed to insert race: %v", err)
	}
	if _, err := st.InsertRace(ctx, record(base.Add(time.Hour), "python", model.ModeMulti, 55)); err != nil {
		t.Fatalf("failed to insert race: %v", err)
	}

	races, err := st.ListRaces(ctx, model.StatsConfig{})
	if err != nil {
		t.Fatalf("failed to list races: %v", err)
	}
	if len(races) != 2 {
		t.Fatalf("expected 2 races, got %d", len(races))
	}
	if !races[0].EndedAt.Before(races[1].EndedAt) {
		t.Fatalf("races must be ordered oldest first")
	}
	if races[0].Lang != "go" || races[0].Mode != model.ModeSolo || !races[0].Completed {
		t.Fatalf("unexpected first race: %+v", races[0])
	}
}

func TestListRacesFilters(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2025, 4, 2, 9, 0, 0, 0, time.UTC)
	st.InsertRace(ctx, record(base, "go", model.ModeSolo, 50))
	st.InsertRace(ctx, record(base.Add(time.Hour), "python", model.ModeMulti, 55))
	st.InsertRace(ctx, record(base.Add(2*time.Hour), "go", model.ModeMulti, 60))

	byLang, err := st.ListRaces(ctx, model.StatsConfig{Lang: "go"})
	if err != nil {
		t.Fatalf("failed to list: %v", err)
	}
	if len(byLang) != 2 {
		t.Fatalf("expected 2 go races, got %d", len(byLang))
	}

	byMode, err := st.ListRaces(ctx, model.StatsConfig{Mode: string(model.ModeMulti)})
	if err != nil {
		t.Fatalf("failed to list: %v", err)
	}
	if len(byMode) != 2 {
		t.Fatalf("expected 2 multiplayer races, got %d", len(byMode))
	}

	since := base.Add(90 * time.Minute)
	recent, err := st.ListRaces(ctx, model.StatsConfig{Since: &since})
	if err != nil {
		t.Fatalf("failed to list: %v", err)
	}
	if len(recent) != 1 || recent[0].WPM != 60 {
		t.Fatalf("unexpected recent races: %+v", recent)
	}

	last, err := st.ListRaces(ctx, model.StatsConfig{Last: 1})
	if err != nil {
		t.Fatalf("failed to list: %v", err)
	}
	if len(last) != 1 || last[0].WPM != 60 {
		t.Fatalf("Last must keep the newest races, got %+v", last)
	}
}
