package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"sceneforge/internal/config"
	"sceneforge/internal/generate"
	"sceneforge/internal/httpapi"
	"sceneforge/internal/httpapi/handlers"
	"sceneforge/internal/job"
	"sceneforge/internal/pipeline"
	"sceneforge/internal/pkg/logger"
	"sceneforge/internal/pkg/shutdown"
	"sceneforge/internal/publish"
	"sceneforge/internal/reaper"
	"sceneforge/internal/render"
	"sceneforge/internal/storage"
)

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		logger.NewDefault().LogFatal("invalid configuration", err)
	}

	log := logger.New(logger.Config{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		ServiceName: "sceneforge-api",
	})

	log.Info("starting sceneforge API", "version", "0.1.0")

	if err := cfg.EnsureDirs(); err != nil {
		log.LogFatal("failed to create data directories", err)
	}

	shutdownMgr := shutdown.NewManager(log, 30*time.Second)

	// Recover persisted jobs before accepting work so status polls for
	// pre-restart jobs keep answering. Jobs the crash caught mid-flight are
	// terminated here; nothing will ever resume them.
	store := job.NewFileStore(cfg.JobsDir(), log)
	if err := store.LoadAll(); err != nil {
		log.LogFatal("failed to load persisted jobs", err)
	}
	pipeline.FailInterrupted(store, log)

	log.Info("initializing storage provider")
	sp, err := storage.NewProvider(context.Background(), cfg)
	if err != nil {
		log.LogFatal("failed to initialize storage provider", err)
	}
	log.Info("storage provider initialized", "provider", sp.Provider())

	if cfg.Gen.GeminiAPIKey == "" && cfg.Gen.AnthropicAPIKey == "" {
		log.Warn("no generation API keys configured, jobs without a per-request key will fail")
	}

	orch := pipeline.NewOrchestrator(
		store,
		generate.New(cfg.Gen, log),
		render.New(cfg, log),
		publish.New(sp, log),
		cfg.CodeDir(),
		log,
	)

	pool := pipeline.NewPool(orch, cfg.Workers, log)
	pool.Start(shutdownMgr.Context())
	shutdownMgr.RegisterSimple("worker-pool", pool.Wait)

	rp := reaper.New(store, sp, cfg, log)
	go rp.Run(shutdownMgr.Context())

	router := httpapi.NewRouter(handlers.Deps{
		Store: store,
		Pool:  pool,
		SP:    sp,
		Cfg:   cfg,
		Log:   log,
	})

	server := &http.Server{
		Addr:         "0.0.0.0:" + cfg.HTTP.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	shutdownMgr.Register("http-server", func(ctx context.Context) error {
		log.Info("shutting down HTTP server")
		return server.Shutdown(ctx)
	})

	go func() {
		log.Info("HTTP server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.LogFatal("HTTP server failed", err)
		}
	}()

	shutdownMgr.Wait()
}
