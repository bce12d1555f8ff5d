package importer

import (
	"context"

	"github.com/planetarium/planetarium-server/internal/logger"
	"github.com/planetarium/planetarium-server/internal/store"
)

// Store applies one upstream record as an independent transaction.
// *sqlite.Store satisfies it.
type Store interface {
	UpsertImportedPlanet(ctx context.Context, rec store.ImportedPlanet) (created bool, err error)
}

// Fetcher retrieves the upstream planet list. *Client satisfies it.
type Fetcher interface {
	FetchPlanets(ctx context.Context) ([]store.ImportedPlanet, error)
}

// Result summarizes one import run.
type Result struct {
	Fetched int `json:"fetched"`
	Created int `json:"created"`
	Updated int `json:"updated"`
	Failed  int `json:"failed"`
}

// Service runs catalog imports.
type Service struct {
	store   Store
	fetcher Fetcher
	logger  *logger.Logger
}

// NewService creates an import service.
func NewService(st Store, fetcher Fetcher, log *logger.Logger) *Service {
	return &Service{
		store:   st,
		fetcher: fetcher,
		logger:  log,
	}
}

// Run fetches the upstream catalog and upserts each record in its own
// transaction. A record that fails to apply is counted and skipped; one
// bad record never aborts the rest of the run. Fetch failures abort the
// whole run since there is nothing to apply.
func (s *Service) Run(ctx context.Context) (*Result, error) {
	records, err := s.fetcher.FetchPlanets(ctx)
	if err != nil {
		return nil, err
	}

	result := &Result{Fetched: len(records)}
	for _, rec := range records {
		created, err := s.store.UpsertImportedPlanet(ctx, rec)
		if err != nil {
			result.Failed++
			s.logger.WithError(err).Warn("failed to apply upstream planet", "planet", rec.Name)
			continue
		}
		if created {
			result.Created++
		} else {
			result.Updated++
		}
	}

	s.logger.Info("import run finished",
		"fetched", result.Fetched,
		"created", result.Created,
		"updated", result.Updated,
		"failed", result.Failed)

	return result, nil
}
