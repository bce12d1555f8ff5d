package providers

import (
	"context"
	"net/http"

	"github.com/samber/do/v2"

	"github.com/planetarium/planetarium-server/internal/api"
	"github.com/planetarium/planetarium-server/internal/auth"
	"github.com/planetarium/planetarium-server/internal/catalog"
	"github.com/planetarium/planetarium-server/internal/config"
	"github.com/planetarium/planetarium-server/internal/importer"
	"github.com/planetarium/planetarium-server/internal/logger"
	"github.com/planetarium/planetarium-server/internal/network"
)

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
	apiServer *api.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := h.Server.Shutdown(ctx)
	h.apiServer.Close()
	return err
}

// ProvideHTTPServer provides the HTTP server and starts it in the background.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	cacheHandle := do.MustInvoke[*CacheHandle](i)
	searchHandle := do.MustInvoke[*SearchIndexHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	services := &api.Services{
		Auth:     do.MustInvoke[*auth.Service](i),
		Catalog:  do.MustInvoke[*catalog.Service](i),
		Network:  do.MustInvoke[*network.Service](i),
		Importer: do.MustInvoke[*importer.Service](i),
		Search:   searchHandle.PlanetIndex,
	}

	apiServer := api.NewServer(cfg, storeHandle.Store, cacheHandle.Cache, services, log)
	srv := apiServer.HTTPServer()

	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error", "error", err)
		}
	}()

	log.Info("Server running", "addr", srv.Addr)

	return &HTTPServerHandle{Server: srv, apiServer: apiServer}, nil
}
