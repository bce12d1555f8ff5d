package catalog

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/planetarium/planetarium-server/internal/cache"
	"github.com/planetarium/planetarium-server/internal/domain"
	apperr "github.com/planetarium/planetarium-server/internal/errors"
	"github.com/planetarium/planetarium-server/internal/logger"
	"github.com/planetarium/planetarium-server/internal/search"
	"github.com/planetarium/planetarium-server/internal/store"
	"github.com/planetarium/planetarium-server/internal/store/sqlite"
)

func newTestService(t *testing.T) (*Service, *cache.Cache) {
	t.Helper()
	dir := t.TempDir()
	slogger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	st, err := sqlite.Open(filepath.Join(dir, "test.db"), slogger)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	ca, err := cache.New(filepath.Join(dir, "cache"), slogger)
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	t.Cleanup(func() { ca.Close() })

	log := logger.New(logger.Config{Writer: io.Discard, Format: "json"})
	svc := NewService(st, ca, NoopIndexer{}, log, 15*time.Minute)
	return svc, ca
}

func int64ptr(v int64) *int64 { return &v }

func TestCreateCachesSnapshot(t *testing.T) {
	svc, ca := newTestService(t)
	ctx := context.Background()

	p, err := svc.Create(ctx, PlanetParams{
		Name:       "Earth",
		Population: int64ptr(8_000_000_000),
		Terrains:   []string{"oceans"},
		Climates:   []string{"temperate"},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if p.ID == "" {
		t.Fatal("expected generated planet ID")
	}

	var snapshot domain.Planet
	if err := ca.Get("planet_data_Earth", &snapshot); err != nil {
		t.Fatalf("snapshot missing: %v", err)
	}
	if snapshot.Name != "Earth" {
		t.Errorf("snapshot name = %q", snapshot.Name)
	}
}

func TestCreateConflict(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, PlanetParams{Name: "Earth"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	_, err := svc.Create(ctx, PlanetParams{Name: "Earth"})
	if !apperr.Is(err, apperr.ErrConflict) {
		t.Errorf("expected conflict, got %v", err)
	}
}

func TestGetIgnoresCache(t *testing.T) {
	svc, ca := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, PlanetParams{Name: "Earth", Population: int64ptr(1)}); err != nil {
		t.Fatalf("create: %v", err)
	}

	// Poison the cached snapshot; reads must not see it.
	poisoned := domain.Planet{Name: "Earth", Population: int64ptr(999)}
	if err := ca.Set("planet_data_Earth", poisoned, time.Minute); err != nil {
		t.Fatalf("poison cache: %v", err)
	}

	got, err := svc.Get(ctx, "Earth")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Population == nil || *got.Population != 1 {
		t.Errorf("population = %v, want store value 1", got.Population)
	}
}

func TestGetNotFound(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Get(context.Background(), "Pluto")
	if !apperr.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestUpdateRecaches(t *testing.T) {
	svc, ca := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, PlanetParams{Name: "Earth", Population: int64ptr(1)}); err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := svc.Update(ctx, "Earth", PlanetParams{
		Name:       "Earth",
		Population: int64ptr(2),
		Terrains:   []string{"mountains"},
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if *updated.Population != 2 {
		t.Errorf("population = %d, want 2", *updated.Population)
	}

	var snapshot domain.Planet
	if err := ca.Get("planet_data_Earth", &snapshot); err != nil {
		t.Fatalf("snapshot missing: %v", err)
	}
	if snapshot.Population == nil || *snapshot.Population != 2 {
		t.Errorf("snapshot population = %v, want 2", snapshot.Population)
	}
}

func TestUpdateRenameMovesSnapshot(t *testing.T) {
	svc, ca := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, PlanetParams{Name: "Earth"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.Update(ctx, "Earth", PlanetParams{Name: "Terra"}); err != nil {
		t.Fatalf("rename: %v", err)
	}

	// Old key is invalidated, new key holds the snapshot.
	var snapshot domain.Planet
	if err := ca.Get("planet_data_Earth", &snapshot); err != cache.ErrNotFound {
		t.Errorf("old snapshot should be gone, got %v", err)
	}
	if err := ca.Get("planet_data_Terra", &snapshot); err != nil {
		t.Fatalf("new snapshot missing: %v", err)
	}
	if snapshot.Name != "Terra" {
		t.Errorf("snapshot name = %q", snapshot.Name)
	}

	// The row moved too.
	if _, err := svc.Get(ctx, "Earth"); !apperr.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected old name gone, got %v", err)
	}
}

func TestUpdateRenameConflict(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, PlanetParams{Name: "Earth"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Create(ctx, PlanetParams{Name: "Mars"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err := svc.Update(ctx, "Mars", PlanetParams{Name: "Earth"})
	if !apperr.Is(err, apperr.ErrConflict) {
		t.Errorf("expected conflict, got %v", err)
	}
}

func TestDeleteDropsSnapshot(t *testing.T) {
	svc, ca := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, PlanetParams{Name: "Earth"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.Delete(ctx, "Earth"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	var snapshot domain.Planet
	if err := ca.Get("planet_data_Earth", &snapshot); err != cache.ErrNotFound {
		t.Errorf("snapshot should be dropped, got %v", err)
	}

	if err := svc.Delete(ctx, "Earth"); !apperr.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected not found on second delete, got %v", err)
	}
}

func TestListDefaults(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	for _, name := range []string{"Alderaan", "Bespin", "Coruscant"} {
		if _, err := svc.Create(ctx, PlanetParams{Name: name}); err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
	}

	planets, total, err := svc.List(ctx, store.PlanetFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 3 || len(planets) != 3 {
		t.Errorf("total=%d len=%d, want 3", total, len(planets))
	}

	// Empty result is a slice, not nil.
	planets, _, err = svc.List(ctx, store.PlanetFilter{Name: "Pluto"})
	if err != nil {
		t.Fatalf("list empty: %v", err)
	}
	if planets == nil {
		t.Error("expected non-nil empty slice")
	}
}

func TestReindexAll(t *testing.T) {
	dir := t.TempDir()
	slogger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	st, err := sqlite.Open(filepath.Join(dir, "test.db"), slogger)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	ca, err := cache.New(filepath.Join(dir, "cache"), slogger)
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	t.Cleanup(func() { ca.Close() })

	idx, err := search.NewPlanetIndex(search.Options{DataPath: dir})
	if err != nil {
		t.Fatalf("open index: %v", err)
	}
	t.Cleanup(func() { idx.Close() })

	log := logger.New(logger.Config{Writer: io.Discard, Format: "json"})
	svc := NewService(st, ca, idx, log, time.Minute)

	ctx := context.Background()
	for _, name := range []string{"Earth", "Mars", "Venus"} {
		if _, err := svc.Create(ctx, PlanetParams{Name: name}); err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
	}

	if err := idx.Rebuild(); err != nil {
		t.Fatalf("rebuild: %v", err)
	}

	indexed, err := svc.ReindexAll(ctx)
	if err != nil {
		t.Fatalf("reindex: %v", err)
	}
	if indexed != 3 {
		t.Errorf("indexed = %d, want 3", indexed)
	}

	count, err := idx.DocumentCount()
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 3 {
		t.Errorf("count = %d, want 3", count)
	}
}

func TestPatchMergesFields(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, PlanetParams{
		Name:       "Dagobah",
		Population: int64ptr(1_000),
		Terrains:   []string{"swamp"},
		Climates:   []string{"murky"},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	pop := int64(2_000)
	patched, err := svc.Patch(ctx, "Dagobah", PlanetPatch{Population: &pop})
	if err != nil {
		t.Fatalf("patch: %v", err)
	}
	if patched.ID != created.ID {
		t.Errorf("ID = %q, want %q", patched.ID, created.ID)
	}
	if patched.Population == nil || *patched.Population != 2_000 {
		t.Errorf("Population = %v, want 2000", patched.Population)
	}
	if len(patched.Terrains) != 1 || patched.Terrains[0] != "swamp" {
		t.Errorf("Terrains = %v, want unchanged [swamp]", patched.Terrains)
	}
	if len(patched.Climates) != 1 || patched.Climates[0] != "murky" {
		t.Errorf("Climates = %v, want unchanged [murky]", patched.Climates)
	}

	// Patching the name behaves like a rename.
	newName := "Dagobah-Prime"
	if _, err := svc.Patch(ctx, "Dagobah", PlanetPatch{Name: &newName}); err != nil {
		t.Fatalf("patch rename: %v", err)
	}
	if _, err := svc.Get(ctx, "Dagobah"); !apperr.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected not found under the old name, got %v", err)
	}
	if _, err := svc.Get(ctx, "Dagobah-Prime"); err != nil {
		t.Errorf("get renamed: %v", err)
	}
}

func TestPatchNotFound(t *testing.T) {
	svc, _ := newTestService(t)

	pop := int64(1)
	_, err := svc.Patch(context.Background(), "Nowhere", PlanetPatch{Population: &pop})
	if !apperr.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

// racingStore reports every name as free, like a concurrent create
// landing between the existence check and the insert.
type racingStore struct {
	Store
}

func (racingStore) PlanetNameExists(context.Context, string) (bool, error) {
	return false, nil
}

func TestCreateLostRaceConflicts(t *testing.T) {
	svc, _ := newTestService(t)
	svc.store = racingStore{svc.store}
	ctx := context.Background()

	if _, err := svc.Create(ctx, PlanetParams{Name: "Earth"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	// The pre-check misses, so the insert itself has to surface the
	// duplicate. Exactly one create wins.
	_, err := svc.Create(ctx, PlanetParams{Name: "Earth"})
	if !apperr.Is(err, apperr.ErrConflict) {
		t.Errorf("expected conflict from the insert, got %v", err)
	}

	got, err := svc.Get(ctx, "Earth")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "Earth" {
		t.Errorf("winner name = %q", got.Name)
	}
}

func TestCreateSnapshotsStoredForm(t *testing.T) {
	svc, ca := newTestService(t)
	ctx := context.Background()

	p, err := svc.Create(ctx, PlanetParams{
		Name:     "Earth",
		Terrains: []string{"oceans", "deserts", "forests"},
		Climates: []string{"temperate", "arid"},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	var snapshot domain.Planet
	if err := ca.Get("planet_data_Earth", &snapshot); err != nil {
		t.Fatalf("snapshot missing: %v", err)
	}

	// The store returns the lists in its own order; the snapshot must
	// match it, not the caller's input order.
	if !reflect.DeepEqual(snapshot.Terrains, p.Terrains) {
		t.Errorf("snapshot terrains = %v, store returned %v", snapshot.Terrains, p.Terrains)
	}
	if !reflect.DeepEqual(snapshot.Climates, p.Climates) {
		t.Errorf("snapshot climates = %v, store returned %v", snapshot.Climates, p.Climates)
	}
}
