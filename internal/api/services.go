package api

import (
	"github.com/planetarium/planetarium-server/internal/auth"
	"github.com/planetarium/planetarium-server/internal/catalog"
	"github.com/planetarium/planetarium-server/internal/importer"
	"github.com/planetarium/planetarium-server/internal/network"
	"github.com/planetarium/planetarium-server/internal/search"
)

// Services groups all business logic services used by the API server.
// This reduces the parameter count for NewServer and improves testability.
type Services struct {
	Auth     *auth.Service
	Catalog  *catalog.Service
	Network  *network.Service
	Importer *importer.Service
	Search   *search.PlanetIndex
}
