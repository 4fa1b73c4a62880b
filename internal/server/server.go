package server

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/draftmill/draftmill/config"
	"github.com/draftmill/draftmill/internal/archive"
	"github.com/draftmill/draftmill/internal/pipeline"
	"github.com/draftmill/draftmill/provider"
)

// Run starts the API server: login, run trigger and archive listing,
// Prometheus metrics, and the optional cron scheduler.
func Run(cfg *config.Config) error {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	// Unified HTTP error handler with structured JSON and logging
	baseLogger := log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		baseLogger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]interface{}{"error": msg})
		}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Cookie"},
		AllowCredentials: true,
	}))

	metrics := NewMetrics()
	e.GET("/healthz", func(c echo.Context) error { return c.String(200, "ok") })
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	ctx := context.Background()
	serverLogger := log.New(log.Writer(), "[SERVE] ", log.LstdFlags)

	st, ix := archive.Open(ctx, cfg.Archive, serverLogger)
	if st != nil {
		defer st.Close()
	}
	if ix != nil {
		defer ix.Close()
	}

	// The pipeline comes up only when a model key is present; login,
	// archive listing and metrics still serve without it.
	var runner Runner
	if prov, err := provider.NewProvider(cfg.OpenAI); err != nil {
		serverLogger.Printf("pipeline disabled: %v", err)
	} else {
		pipe := pipeline.New(cfg, metrics.WrapProvider(prov))
		if st != nil {
			pipe.Store = st
		}
		if ix != nil {
			pipe.Index = ix
		}
		runner = newGuardedRunner(pipe, metrics)
	}

	auth := &AuthHandler{Secret: []byte(cfg.Server.JWTSecret), AdminHash: cfg.Server.AdminPasswordHash}
	api := e.Group("/api")
	auth.Register(api.Group("/auth"))

	rh := &RunsHandler{Runner: runner}
	if st != nil {
		rh.Store = st
	}
	runs := api.Group("/runs")
	runs.Use(withAuth(auth.Secret))
	rh.Register(runs)

	if cfg.Schedule.Cron != "" {
		if runner == nil {
			return fmt.Errorf("schedule.cron set but pipeline disabled (openai.api_key missing)")
		}
		if cfg.Redis.Addr == "" {
			return fmt.Errorf("redis not configured (redis.addr)")
		}
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis connection failed (%s): %w", cfg.Redis.Addr, err)
		}
		sched := &Scheduler{
			Cron:   cfg.Schedule.Cron,
			Runner: runner,
			Rdb:    rdb,
			Logger: log.New(log.Writer(), "[SCHED] ", log.LstdFlags),
			Stop:   make(chan struct{}),
		}
		if st != nil {
			sched.Store = st
		}
		sched.Start()
		serverLogger.Printf("scheduler started (%s)", cfg.Schedule.Cron)
	}

	serverLogger.Printf("listening on %s", cfg.Server.Address)
	return e.Start(cfg.Server.Address)
}
