package server

import (
	"context"
	"net/http"
	"strconv"
	"sync"

	"github.com/labstack/echo/v4"

	"github.com/draftmill/draftmill/models"
)

const defaultRunsLimit = 20

// Runner triggers a full pipeline run and reports its record.
type Runner interface {
	Run(ctx context.Context) (models.RunRecord, error)
}

// RunLister reads past runs from the archive.
type RunLister interface {
	ListRuns(ctx context.Context, limit int) ([]models.RunRecord, error)
}

// guardedRunner serializes pipeline runs so the HTTP trigger and the
// scheduler cannot generate two posts at once, and feeds every outcome
// into the metrics.
type guardedRunner struct {
	mu      sync.Mutex
	inner   Runner
	metrics *Metrics
}

func newGuardedRunner(inner Runner, metrics *Metrics) *guardedRunner {
	return &guardedRunner{inner: inner, metrics: metrics}
}

func (g *guardedRunner) Run(ctx context.Context) (models.RunRecord, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	rec, err := g.inner.Run(ctx)
	if g.metrics != nil {
		g.metrics.ObserveRun(rec)
	}
	return rec, err
}

// RunsHandler exposes the pipeline over HTTP: POST triggers a run, GET
// lists archived ones.
type RunsHandler struct {
	Runner Runner
	Store  RunLister
}

func (h *RunsHandler) Register(g *echo.Group) {
	g.POST("", h.trigger)
	g.GET("", h.list)
}

func (h *RunsHandler) trigger(c echo.Context) error {
	if h.Runner == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "pipeline disabled: openai api key not configured")
	}
	rec, err := h.Runner.Run(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, rec)
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *RunsHandler) list(c echo.Context) error {
	if h.Store == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "archive not configured")
	}
	limit := defaultRunsLimit
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a positive integer")
		}
		limit = n
	}
	runs, err := h.Store.ListRuns(c.Request().Context(), limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if runs == nil {
		runs = []models.RunRecord{}
	}
	return c.JSON(http.StatusOK, runs)
}
