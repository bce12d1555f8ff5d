// Package di provides dependency injection configuration for the Planetarium server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/planetarium/planetarium-server/internal/auth"
	"github.com/planetarium/planetarium-server/internal/catalog"
	"github.com/planetarium/planetarium-server/internal/config"
	"github.com/planetarium/planetarium-server/internal/di/providers"
	"github.com/planetarium/planetarium-server/internal/importer"
	"github.com/planetarium/planetarium-server/internal/logger"
	"github.com/planetarium/planetarium-server/internal/network"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideAuthKey)

	// Storage layer
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideCache)
	do.Provide(injector, providers.ProvideSearchIndex)

	// Auth layer
	do.Provide(injector, providers.ProvideTokenService)

	// Business services
	do.Provide(injector, providers.ProvideAuthService)
	do.Provide(injector, providers.ProvideCatalogService)
	do.Provide(injector, providers.ProvideNetworkService)
	do.Provide(injector, providers.ProvideImporterService)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and returns once the server is up.
// This triggers lazy initialization of the whole graph.
func Bootstrap(injector *do.RootScope) error {
	invocations := []func() error{
		func() error { _, err := do.Invoke[*config.Config](injector); return err },
		func() error { _, err := do.Invoke[*logger.Logger](injector); return err },
		func() error { _, err := do.Invoke[providers.AuthKey](injector); return err },
		func() error { _, err := do.Invoke[*providers.StoreHandle](injector); return err },
		func() error { _, err := do.Invoke[*providers.CacheHandle](injector); return err },
		func() error { _, err := do.Invoke[*providers.SearchIndexHandle](injector); return err },
		func() error { _, err := do.Invoke[*auth.TokenService](injector); return err },
		func() error { _, err := do.Invoke[*auth.Service](injector); return err },
		func() error { _, err := do.Invoke[*catalog.Service](injector); return err },
		func() error { _, err := do.Invoke[*network.Service](injector); return err },
		func() error { _, err := do.Invoke[*importer.Service](injector); return err },
		func() error { _, err := do.Invoke[*providers.HTTPServerHandle](injector); return err },
	}

	for _, invoke := range invocations {
		if err := invoke(); err != nil {
			return err
		}
	}
	return nil
}
