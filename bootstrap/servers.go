package bootstrap

import (
	"net/http"

	"forms-search-indexer/config"
	"forms-search-indexer/indexer"
	"forms-search-indexer/internal/auth"
	authmw "forms-search-indexer/internal/auth/middleware"
	"forms-search-indexer/middleware"
	"forms-search-indexer/rest"
	"forms-search-indexer/usecase"
	appOtel "forms-search-indexer/utils/otel"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

// newHTTPServer creates the REST HTTP server.
func newHTTPServer(
	cfg *config.Config,
	formsIndexer *indexer.FormsIndexer,
	syncResponse *usecase.SyncResponseUsecase,
	reindexEngine *usecase.ReindexEngine,
	authClient *auth.Client,
	otelCfg appOtel.Config,
) *http.Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echomw.Recover())

	var requireAuth echo.MiddlewareFunc
	if authClient != nil {
		requireAuth = authmw.NewAuthMiddleware(authClient).RequireServiceAuth()
	}

	rest.NewHandler(formsIndexer, syncResponse, reindexEngine).RegisterRoutes(e, requireAuth)

	var handler http.Handler = e
	if otelCfg.Enabled {
		handler = middleware.OTelStatusHandler(e, "forms-search-indexer.http")
	}

	return &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
	}
}
