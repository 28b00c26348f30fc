// Package archivetest holds a behavioural suite every archive backend runs.
package archivetest

import (
	"context"
	"errors"
	"testing"

	"chronomap/internal/archive"
	"chronomap/internal/profile"
	"chronomap/internal/store"
	"chronomap/internal/store/memory"
)

// Profile builds a two-source profile with searchable event text.
func Profile(t testing.TB, name string) *profile.Profile {
	t.Helper()
	db := memory.New()
	docs := []store.SourceDocument{
		{
			SourceInfo: &store.Source{ID: "colonial", Name: "Colonial chronicle"},
			Events: []store.Event{
				{ID: "landing", Title: "Landing at Porto Seguro", StartDate: "1500-04-22", DescriptionShort: "Cabral's fleet reaches the coast."},
				{ID: "salvador", Title: "Founding of Salvador", StartDate: "1549-03-29", DescriptionShort: "First capital of the colony."},
			},
		},
		{
			SourceInfo: &store.Source{ID: "empire", Name: "Imperial chronicle"},
			Events: []store.Event{
				{ID: "independence", Title: "Independence", StartDate: "1822-09-07", DescriptionShort: "Declared on the banks of the Ipiranga."},
				{ID: "golden_law", Title: "Golden Law", StartDate: "1888-05-13", ArticleFull: store.Article{Current: "The law abolished slavery in the empire."}},
			},
		},
	}
	for _, doc := range docs {
		if err := db.ReplaceSource(doc); err != nil {
			t.Fatalf("seeding %s: %v", doc.SourceInfo.ID, err)
		}
	}
	return profile.Construct(db, name, map[string]any{"referenceDate": "1822-01-01"})
}

// Run exercises save, load, list, search and delete against a fresh archive.
func Run(t *testing.T, a archive.Archive) {
	t.Helper()
	ctx := context.Background()

	if err := a.EnsureSchema(ctx); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	if err := a.EnsureSchema(ctx); err != nil {
		t.Fatalf("ensure schema twice: %v", err)
	}

	brazil := Profile(t, "brazil")
	if err := a.Save(ctx, brazil); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := a.Save(ctx, Profile(t, "backup")); err != nil {
		t.Fatalf("save backup: %v", err)
	}
	if err := a.Save(ctx, brazil); err != nil {
		t.Fatalf("save again: %v", err)
	}
	if err := a.Save(ctx, Profile(t, "bad/name")); !errors.Is(err, archive.ErrInvalidName) {
		t.Fatalf("expected ErrInvalidName, got %v", err)
	}

	t.Run("load", func(t *testing.T) {
		got, err := a.Load(ctx, "brazil")
		if err != nil {
			t.Fatalf("load: %v", err)
		}
		if got.ProfileName != "brazil" || len(got.EmbeddedSourceData) != 2 {
			t.Fatalf("unexpected profile %+v", got)
		}
		if got.UISettings["referenceDate"] != "1822-01-01" {
			t.Fatalf("ui settings lost: %+v", got.UISettings)
		}
		if _, err := a.Load(ctx, "missing"); !errors.Is(err, archive.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("list", func(t *testing.T) {
		summaries, err := a.List(ctx)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(summaries) != 2 || summaries[0].Name != "backup" || summaries[1].Name != "brazil" {
			t.Fatalf("unexpected summaries %+v", summaries)
		}
		if summaries[1].Sources != 2 || summaries[1].Events != 4 {
			t.Fatalf("unexpected counts %+v", summaries[1])
		}
		if summaries[1].SchemaVersion != profile.SchemaVersion || summaries[1].SavedAt.IsZero() {
			t.Fatalf("unexpected metadata %+v", summaries[1])
		}
	})

	t.Run("search", func(t *testing.T) {
		hits, err := a.Search(ctx, "independence")
		if err != nil {
			t.Fatalf("search: %v", err)
		}
		if len(hits) != 2 {
			t.Fatalf("expected a hit per profile, got %+v", hits)
		}
		for _, h := range hits {
			if h.EventID != "empire_independence" || h.Title != "Independence" {
				t.Fatalf("unexpected hit %+v", h)
			}
		}

		hits, err = a.Search(ctx, "slavery")
		if err != nil {
			t.Fatalf("search article: %v", err)
		}
		if len(hits) != 2 || hits[0].EventID != "empire_golden_law" {
			t.Fatalf("expected article match, got %+v", hits)
		}

		hits, err = a.Search(ctx, "founding -salvador")
		if err != nil {
			t.Fatalf("search exclusion: %v", err)
		}
		if len(hits) != 0 {
			t.Fatalf("expected excluded term to drop hits, got %+v", hits)
		}

		if _, err := a.Search(ctx, "  "); !errors.Is(err, archive.ErrEmptyQuery) {
			t.Fatalf("expected ErrEmptyQuery, got %v", err)
		}
	})

	t.Run("delete", func(t *testing.T) {
		if err := a.Delete(ctx, "backup"); err != nil {
			t.Fatalf("delete: %v", err)
		}
		if err := a.Delete(ctx, "backup"); !errors.Is(err, archive.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
		hits, err := a.Search(ctx, "independence")
		if err != nil {
			t.Fatalf("search after delete: %v", err)
		}
		if len(hits) != 1 || hits[0].Profile != "brazil" {
			t.Fatalf("deleted profile still indexed: %+v", hits)
		}
	})
}
