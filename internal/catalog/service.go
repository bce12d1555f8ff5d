// Package catalog manages the planet catalog: CRUD keyed by planet name,
// cache snapshots on every mutation, and search index upkeep.
package catalog

import (
	"context"
	"time"

	"github.com/planetarium/planetarium-server/internal/cache"
	"github.com/planetarium/planetarium-server/internal/domain"
	apperr "github.com/planetarium/planetarium-server/internal/errors"
	"github.com/planetarium/planetarium-server/internal/id"
	"github.com/planetarium/planetarium-server/internal/logger"
	"github.com/planetarium/planetarium-server/internal/search"
	"github.com/planetarium/planetarium-server/internal/store"
)

// Store is the persistence surface the catalog needs.
// *sqlite.Store satisfies it.
type Store interface {
	CreatePlanet(ctx context.Context, p *domain.Planet) error
	GetPlanetByName(ctx context.Context, name string) (*domain.Planet, error)
	PlanetNameExists(ctx context.Context, name string) (bool, error)
	UpdatePlanet(ctx context.Context, p *domain.Planet) error
	DeletePlanetByName(ctx context.Context, name string) error
	ListPlanets(ctx context.Context, filter store.PlanetFilter) ([]*domain.Planet, int, error)
}

// Cache receives planet snapshots on every mutation. Entries expire on
// their own; the serving path never reads them back.
type Cache interface {
	Set(key string, value any, ttl time.Duration) error
	Delete(key string) error
}

// Indexer keeps the search index in sync with catalog mutations.
// *search.PlanetIndex satisfies it.
type Indexer interface {
	IndexPlanet(doc *search.PlanetDocument) error
	IndexPlanets(docs []*search.PlanetDocument) error
	DeletePlanet(id string) error
}

// NoopIndexer is a no-op Indexer for testing.
type NoopIndexer struct{}

// IndexPlanet is a no-op.
func (NoopIndexer) IndexPlanet(*search.PlanetDocument) error { return nil }

// IndexPlanets is a no-op.
func (NoopIndexer) IndexPlanets([]*search.PlanetDocument) error { return nil }

// DeletePlanet is a no-op.
func (NoopIndexer) DeletePlanet(string) error { return nil }

// PlanetParams carries the writable fields of a planet. Update replaces
// the whole record with these values.
type PlanetParams struct {
	Name       string
	Population *int64
	Terrains   []string
	Climates   []string
}

// Service manages the planet catalog.
type Service struct {
	store    Store
	cache    Cache
	index    Indexer
	logger   *logger.Logger
	cacheTTL time.Duration
}

// NewService creates a catalog service. cacheTTL bounds the lifetime of
// cached planet snapshots.
func NewService(st Store, ca Cache, idx Indexer, log *logger.Logger, cacheTTL time.Duration) *Service {
	return &Service{
		store:    st,
		cache:    ca,
		index:    idx,
		logger:   log,
		cacheTTL: cacheTTL,
	}
}

// Create adds a planet to the catalog and caches its snapshot.
// Returns a conflict error when the name is already taken.
func (s *Service) Create(ctx context.Context, params PlanetParams) (*domain.Planet, error) {
	exists, err := s.store.PlanetNameExists(ctx, params.Name)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.CodeInternal, "check planet name")
	}
	if exists {
		return nil, apperr.Conflictf("planet %q already exists", params.Name)
	}

	planetID, err := id.Generate("planet")
	if err != nil {
		return nil, apperr.Wrap(err, apperr.CodeInternal, "generate planet ID")
	}

	p := &domain.Planet{
		ID:         planetID,
		Name:       params.Name,
		Population: params.Population,
		Terrains:   params.Terrains,
		Climates:   params.Climates,
	}
	p.InitTimestamps()

	err = s.store.CreatePlanet(ctx, p)
	if err == store.ErrAlreadyExists {
		// Lost a race with a concurrent create.
		return nil, apperr.Conflictf("planet %q already exists", params.Name)
	}
	if err != nil {
		return nil, apperr.Wrap(err, apperr.CodeInternal, "create planet")
	}

	created, err := s.store.GetPlanetByName(ctx, p.Name)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.CodeInternal, "get planet")
	}

	// Snapshot the stored form, not the caller's input, so the cache
	// and the store agree on list order.
	s.writeSnapshot(created)
	s.reindex(created)

	return created, nil
}

// Get fetches a planet by name straight from the store. Cached snapshots
// are not consulted, so reads always see committed data.
func (s *Service) Get(ctx context.Context, name string) (*domain.Planet, error) {
	p, err := s.store.GetPlanetByName(ctx, name)
	if err == store.ErrNotFound {
		return nil, apperr.NotFoundf("planet %q not found", name)
	}
	if err != nil {
		return nil, apperr.Wrap(err, apperr.CodeInternal, "get planet")
	}
	return p, nil
}

// List returns one page of planets matching the filter with the total
// match count.
func (s *Service) List(ctx context.Context, filter store.PlanetFilter) ([]*domain.Planet, int, error) {
	planets, total, err := s.store.ListPlanets(ctx, filter)
	if err != nil {
		return nil, 0, apperr.Wrap(err, apperr.CodeInternal, "list planets")
	}
	if planets == nil {
		planets = []*domain.Planet{}
	}
	return planets, total, nil
}

// Update replaces the planet identified by name with the given values.
// On a rename the snapshot under the old name is invalidated so a stale
// entry cannot outlive the row that produced it; the new snapshot is
// written under the new name.
func (s *Service) Update(ctx context.Context, name string, params PlanetParams) (*domain.Planet, error) {
	p, err := s.store.GetPlanetByName(ctx, name)
	if err == store.ErrNotFound {
		return nil, apperr.NotFoundf("planet %q not found", name)
	}
	if err != nil {
		return nil, apperr.Wrap(err, apperr.CodeInternal, "get planet")
	}

	renamed := params.Name != p.Name

	p.Name = params.Name
	p.Population = params.Population
	p.Terrains = params.Terrains
	p.Climates = params.Climates
	p.Touch()

	err = s.store.UpdatePlanet(ctx, p)
	if err == store.ErrAlreadyExists {
		return nil, apperr.Conflictf("planet %q already exists", params.Name)
	}
	if err == store.ErrNotFound {
		return nil, apperr.NotFoundf("planet %q not found", name)
	}
	if err != nil {
		return nil, apperr.Wrap(err, apperr.CodeInternal, "update planet")
	}

	if renamed {
		if cacheErr := s.cache.Delete(cache.PlanetKey(name)); cacheErr != nil {
			s.logger.WithError(cacheErr).Warn("failed to drop stale planet snapshot", "planet", name)
		}
	}

	updated, err := s.store.GetPlanetByName(ctx, p.Name)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.CodeInternal, "get planet")
	}

	s.writeSnapshot(updated)
	s.reindex(updated)

	return updated, nil
}

// PlanetPatch carries optional planet fields for partial updates. Nil
// fields keep their current value; clearing the population or the
// terrain/climate lists requires a full replace through Update.
type PlanetPatch struct {
	Name       *string
	Population *int64
	Terrains   *[]string
	Climates   *[]string
}

// Patch merges the given fields into the planet identified by name and
// applies the result as a full update.
func (s *Service) Patch(ctx context.Context, name string, patch PlanetPatch) (*domain.Planet, error) {
	p, err := s.store.GetPlanetByName(ctx, name)
	if err == store.ErrNotFound {
		return nil, apperr.NotFoundf("planet %q not found", name)
	}
	if err != nil {
		return nil, apperr.Wrap(err, apperr.CodeInternal, "get planet")
	}

	params := PlanetParams{
		Name:       p.Name,
		Population: p.Population,
		Terrains:   p.Terrains,
		Climates:   p.Climates,
	}
	if patch.Name != nil {
		params.Name = *patch.Name
	}
	if patch.Population != nil {
		params.Population = patch.Population
	}
	if patch.Terrains != nil {
		params.Terrains = *patch.Terrains
	}
	if patch.Climates != nil {
		params.Climates = *patch.Climates
	}

	return s.Update(ctx, name, params)
}

// Delete removes a planet by name. The cached snapshot is dropped before
// the row so no window exists where the cache outlives the record.
func (s *Service) Delete(ctx context.Context, name string) error {
	p, err := s.store.GetPlanetByName(ctx, name)
	if err == store.ErrNotFound {
		return apperr.NotFoundf("planet %q not found", name)
	}
	if err != nil {
		return apperr.Wrap(err, apperr.CodeInternal, "get planet")
	}

	if cacheErr := s.cache.Delete(cache.PlanetKey(name)); cacheErr != nil {
		s.logger.WithError(cacheErr).Warn("failed to drop planet snapshot", "planet", name)
	}

	err = s.store.DeletePlanetByName(ctx, name)
	if err == store.ErrNotFound {
		return apperr.NotFoundf("planet %q not found", name)
	}
	if err != nil {
		return apperr.Wrap(err, apperr.CodeInternal, "delete planet")
	}

	if indexErr := s.index.DeletePlanet(p.ID); indexErr != nil {
		s.logger.WithError(indexErr).Warn("failed to deindex planet", "planet", name)
	}

	return nil
}

// ReindexAll rebuilds search documents for the whole catalog, paging
// through the store in batches.
func (s *Service) ReindexAll(ctx context.Context) (int, error) {
	indexed := 0
	offset := 0
	for {
		planets, _, err := s.store.ListPlanets(ctx, store.PlanetFilter{
			Limit:  store.MaxPageSize,
			Offset: offset,
		})
		if err != nil {
			return indexed, apperr.Wrap(err, apperr.CodeInternal, "list planets")
		}
		if len(planets) == 0 {
			return indexed, nil
		}

		docs := make([]*search.PlanetDocument, len(planets))
		for i, p := range planets {
			docs[i] = search.NewPlanetDocument(p)
		}
		if err := s.index.IndexPlanets(docs); err != nil {
			return indexed, apperr.Wrap(err, apperr.CodeInternal, "index planets")
		}

		indexed += len(planets)
		offset += len(planets)
	}
}

// writeSnapshot caches the planet under its name-derived key. The write
// is best effort: the mutation is already durable, so a cache failure
// only costs the snapshot.
func (s *Service) writeSnapshot(p *domain.Planet) {
	if err := s.cache.Set(cache.PlanetKey(p.Name), p, s.cacheTTL); err != nil {
		s.logger.WithError(err).Warn("failed to cache planet snapshot", "planet", p.Name)
	}
}

// reindex updates the search document for one planet, best effort.
func (s *Service) reindex(p *domain.Planet) {
	if err := s.index.IndexPlanet(search.NewPlanetDocument(p)); err != nil {
		s.logger.WithError(err).Warn("failed to index planet", "planet", p.Name)
	}
}
