package search

import (
	"context"
	"testing"

	"github.com/planetarium/planetarium-server/internal/domain"
)

func newTestIndex(t *testing.T) *PlanetIndex {
	t.Helper()
	idx, err := NewPlanetIndex(Options{DataPath: t.TempDir()})
	if err != nil {
		t.Fatalf("create index: %v", err)
	}
	t.Cleanup(func() { idx.Close() })
	return idx
}

func pop(v int64) *int64 { return &v }

func seedIndex(t *testing.T, idx *PlanetIndex) {
	t.Helper()
	planets := []*domain.Planet{
		{ID: "planet-1", Name: "Tatooine", Population: pop(200000), Terrains: []string{"desert"}, Climates: []string{"arid"}},
		{ID: "planet-2", Name: "Hoth", Terrains: []string{"tundra", "ice caves"}, Climates: []string{"frozen"}},
		{ID: "planet-3", Name: "Kamino", Population: pop(1_000_000_000), Terrains: []string{"ocean"}, Climates: []string{"temperate"}},
	}
	docs := make([]*PlanetDocument, len(planets))
	for i, p := range planets {
		docs[i] = NewPlanetDocument(p)
	}
	if err := idx.IndexPlanets(docs); err != nil {
		t.Fatalf("index planets: %v", err)
	}
}

func TestSearchByName(t *testing.T) {
	idx := newTestIndex(t)
	seedIndex(t, idx)

	result, err := idx.Search(context.Background(), SearchParams{Query: "tatooine"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if result.Total == 0 {
		t.Fatal("expected at least one hit")
	}
	if result.Hits[0].ID != "planet-1" {
		t.Errorf("top hit = %s, want planet-1", result.Hits[0].ID)
	}
	if result.Hits[0].Name != "Tatooine" {
		t.Errorf("top hit name = %q", result.Hits[0].Name)
	}
}

func TestSearchByTerrain(t *testing.T) {
	idx := newTestIndex(t)
	seedIndex(t, idx)

	result, err := idx.Search(context.Background(), SearchParams{Query: "caves"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(result.Hits) == 0 {
		t.Fatal("expected a hit on terrain text")
	}
	if result.Hits[0].ID != "planet-2" {
		t.Errorf("top hit = %s, want planet-2", result.Hits[0].ID)
	}
}

func TestSearchPopulationRange(t *testing.T) {
	idx := newTestIndex(t)
	seedIndex(t, idx)

	result, err := idx.Search(context.Background(), SearchParams{MinPopulation: 500000})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if result.Total != 1 {
		t.Fatalf("total = %d, want 1", result.Total)
	}
	if result.Hits[0].ID != "planet-3" {
		t.Errorf("hit = %s, want planet-3", result.Hits[0].ID)
	}
}

func TestSearchEmptyQueryMatchesAll(t *testing.T) {
	idx := newTestIndex(t)
	seedIndex(t, idx)

	result, err := idx.Search(context.Background(), SearchParams{})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if result.Total != 3 {
		t.Errorf("total = %d, want 3", result.Total)
	}
}

func TestDeletePlanet(t *testing.T) {
	idx := newTestIndex(t)
	seedIndex(t, idx)

	if err := idx.DeletePlanet("planet-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	count, err := idx.DocumentCount()
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}
}

func TestReindexAfterRebuild(t *testing.T) {
	idx := newTestIndex(t)
	seedIndex(t, idx)

	if err := idx.Rebuild(); err != nil {
		t.Fatalf("rebuild: %v", err)
	}

	count, err := idx.DocumentCount()
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Errorf("count after rebuild = %d, want 0", count)
	}

	seedIndex(t, idx)
	count, _ = idx.DocumentCount()
	if count != 3 {
		t.Errorf("count after reindex = %d, want 3", count)
	}
}
