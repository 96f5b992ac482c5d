package rest

import (
	"net/http"
	"strconv"

	"forms-search-indexer/indexer"
	"forms-search-indexer/logger"
	"forms-search-indexer/usecase"

	"github.com/labstack/echo/v4"
)

// Handler contains all HTTP handlers of the indexer admin surface
type Handler struct {
	formsIndexer *indexer.FormsIndexer
	syncResponse *usecase.SyncResponseUsecase
	reindex      *usecase.ReindexEngine
}

// NewHandler creates a new Handler
func NewHandler(
	formsIndexer *indexer.FormsIndexer,
	syncResponse *usecase.SyncResponseUsecase,
	reindex *usecase.ReindexEngine,
) *Handler {
	return &Handler{
		formsIndexer: formsIndexer,
		syncResponse: syncResponse,
		reindex:      reindex,
	}
}

// RegisterRoutes wires the handlers onto the echo instance. Mutating
// endpoints sit behind the service-auth middleware, health does not.
func (h *Handler) RegisterRoutes(e *echo.Echo, requireAuth echo.MiddlewareFunc) {
	e.GET("/v1/health", h.Health)
	e.GET("/v1/indexer", h.IndexerInfo)

	admin := e.Group("/v1")
	if requireAuth != nil {
		admin.Use(requireAuth)
	}
	admin.POST("/index", h.StartFullReindex)
	admin.POST("/responses/:id/sync", h.SyncResponse)
}

type HealthResponse struct {
	Status     string `json:"status"`
	Reindexing bool   `json:"reindexing"`
}

func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{
		Status:     "ok",
		Reindexing: h.reindex.Running(),
	})
}

type IndexerInfoResponse struct {
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	Version       string   `json:"version"`
	Enabled       bool     `json:"enabled"`
	ResourceTypes []string `json:"resource_types"`
}

func (h *Handler) IndexerInfo(c echo.Context) error {
	resourceTypes, err := h.formsIndexer.ResourceTypeNames(c.Request().Context())
	if err != nil {
		logger.Logger.Error("failed to list resource types", "err", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list resource types")
	}

	return c.JSON(http.StatusOK, IndexerInfoResponse{
		Name:          h.formsIndexer.Name(),
		Description:   h.formsIndexer.Description(),
		Version:       h.formsIndexer.Version(),
		Enabled:       h.formsIndexer.IsEnabled(),
		ResourceTypes: resourceTypes,
	})
}

type StartReindexResponse struct {
	Status string `json:"status"`
	RunID  string `json:"run_id,omitempty"`
}

// StartFullReindex triggers a background rebuild of the whole corpus.
// A request arriving while a run is in flight is absorbed by it. The
// worker runs on the engine's own context, not the request's, so the
// run survives this request being done.
func (h *Handler) StartFullReindex(c echo.Context) error {
	task := h.reindex.RequestFullReindex()
	if task == nil {
		return c.JSON(http.StatusAccepted, StartReindexResponse{Status: "coalesced"})
	}

	logger.Logger.Info("full reindex accepted", "run_id", task.RunID)
	return c.JSON(http.StatusAccepted, StartReindexResponse{
		Status: "started",
		RunID:  task.RunID,
	})
}

// SyncResponse rebuilds the document of one response. Returns the
// fresh document, or 204 when the response is unpublished and its
// index entries were removed instead.
func (h *Handler) SyncResponse(c echo.Context) error {
	responseID, err := strconv.Atoi(c.Param("id"))
	if err != nil || responseID <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid response id")
	}

	doc, err := h.syncResponse.Execute(c.Request().Context(), responseID)
	if err != nil {
		logger.Logger.Error("sync failed", "response_id", responseID, "err", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "sync failed")
	}

	if doc == nil {
		return c.NoContent(http.StatusNoContent)
	}

	return c.JSON(http.StatusOK, doc)
}
