package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"realestate-agent/internal/agent"
	"realestate-agent/internal/common/config"
	"realestate-agent/internal/common/database"
	"realestate-agent/internal/common/logger"
	"realestate-agent/internal/common/observability"
	"realestate-agent/internal/dataset"
	"realestate-agent/internal/httpapi"
	"realestate-agent/internal/llm"
	"realestate-agent/internal/strategy"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load configuration: " + err.Error())
	}

	log := logger.NewStructured(cfg.Logging.Level, cfg.Logging.Format)
	log.Info("starting agent server", map[string]interface{}{
		"app":         cfg.App.Name,
		"version":     cfg.App.Version,
		"environment": cfg.App.Environment,
	})

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	pg, err := connectPostgres(cfg, log)
	if err != nil {
		log.Error("postgres unavailable", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
	defer pg.Close()

	redisClient := connectRedis(cfg, log)
	if redisClient != nil {
		defer redisClient.Close()
	}

	strategies := strategy.NewStore(pg.DB, redisClient,
		time.Duration(cfg.Workflow.StrategyCacheTTL)*time.Second, log)

	data := dataset.NewStore(log)
	if cfg.Dataset.Path != "" {
		rows, err := dataset.LoadFile(cfg.Dataset.Path)
		if err != nil {
			log.Error("dataset preload failed", map[string]interface{}{
				"path":  cfg.Dataset.Path,
				"error": err.Error(),
			})
			os.Exit(1)
		}
		data.Replace(rows)
		log.Info("dataset preloaded", map[string]interface{}{
			"path": cfg.Dataset.Path,
			"rows": len(rows),
		})
	}

	workflow := agent.NewWorkflow(data, cfg.Workflow.RowLimit, log, obs.Tracing())
	service := agent.NewService(strategies, llm.NewFactory(cfg.LLM), workflow, obs, log)
	server := httpapi.NewServer(service, data, log)

	httpServer := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      server.Router(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		log.Info("http server listening", map[string]interface{}{"address": cfg.Server.Address})
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(),
			time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
		defer cancel()
		log.Info("shutting down", nil)
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		log.Error("server exited with error", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
	log.Info("server stopped", nil)
}

// connectPostgres retries with exponential backoff; strategy lookups cannot
// work without it.
func connectPostgres(cfg *config.Config, log logger.Logger) (*database.PostgresClient, error) {
	var client *database.PostgresClient
	err := retryWithBackoff(5, time.Second, func() error {
		var err error
		client, err = database.NewPostgres(cfg.Database.Postgres)
		return err
	}, log, "postgres")
	return client, err
}

// connectRedis is best-effort: the strategy cache degrades to direct
// postgres reads when redis is down.
func connectRedis(cfg *config.Config, log logger.Logger) *database.RedisClient {
	var client *database.RedisClient
	err := retryWithBackoff(3, time.Second, func() error {
		var err error
		client, err = database.NewRedis(cfg.Database.Redis)
		return err
	}, log, "redis")
	if err != nil {
		log.Warn("redis unavailable, strategy caching disabled", map[string]interface{}{
			"error": err.Error(),
		})
		return nil
	}
	return client
}

func retryWithBackoff(attempts int, base time.Duration, fn func() error, log logger.Logger, name string) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(); err == nil {
			return nil
		}
		wait := base * (1 << i)
		log.Warn("connection attempt failed, retrying", map[string]interface{}{
			"target":  name,
			"attempt": i + 1,
			"wait":    wait.String(),
			"error":   err.Error(),
		})
		time.Sleep(wait)
	}
	return err
}
