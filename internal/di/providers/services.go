package providers

import (
	"github.com/samber/do/v2"

	"github.com/planetarium/planetarium-server/internal/auth"
	"github.com/planetarium/planetarium-server/internal/catalog"
	"github.com/planetarium/planetarium-server/internal/config"
	"github.com/planetarium/planetarium-server/internal/importer"
	"github.com/planetarium/planetarium-server/internal/logger"
	"github.com/planetarium/planetarium-server/internal/network"
)

// ProvideAuthService provides user registration and login.
func ProvideAuthService(i do.Injector) (*auth.Service, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tokens := do.MustInvoke[*auth.TokenService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return auth.NewService(storeHandle.Store, tokens, log), nil
}

// ProvideCatalogService provides the planet catalog.
func ProvideCatalogService(i do.Injector) (*catalog.Service, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	cacheHandle := do.MustInvoke[*CacheHandle](i)
	searchHandle := do.MustInvoke[*SearchIndexHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return catalog.NewService(storeHandle.Store, cacheHandle.Cache, searchHandle.PlanetIndex, log, cfg.Cache.PlanetTTL), nil
}

// ProvideNetworkService provides friend network book aggregation.
func ProvideNetworkService(i do.Injector) (*network.Service, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return network.NewService(storeHandle.Store, log), nil
}

// ProvideImporterService provides the upstream catalog importer.
func ProvideImporterService(i do.Injector) (*importer.Service, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	client := importer.NewClient(cfg.Upstream.URL, cfg.Upstream.Timeout, log.Logger)
	return importer.NewService(storeHandle.Store, client, log), nil
}
