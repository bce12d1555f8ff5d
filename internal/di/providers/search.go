package providers

import (
	"github.com/samber/do/v2"

	"github.com/planetarium/planetarium-server/internal/config"
	"github.com/planetarium/planetarium-server/internal/logger"
	"github.com/planetarium/planetarium-server/internal/search"
)

// SearchIndexHandle wraps the planet index with shutdown capability.
type SearchIndexHandle struct {
	*search.PlanetIndex
}

// Shutdown implements do.Shutdownable.
func (h *SearchIndexHandle) Shutdown() error {
	return h.Close()
}

// ProvideSearchIndex provides the Bleve planet index.
func ProvideSearchIndex(i do.Injector) (*SearchIndexHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	idx, err := search.NewPlanetIndex(search.Options{
		DataPath: cfg.Data.BasePath,
		Logger:   log.Logger,
	})
	if err != nil {
		return nil, err
	}

	count, err := idx.DocumentCount()
	if err == nil {
		log.Info("Search index opened", "documents", count)
	}

	return &SearchIndexHandle{PlanetIndex: idx}, nil
}
