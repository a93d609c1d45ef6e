package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivermigrate"
	"github.com/robfig/cron/v3"

	"github.com/filecrate/filecrate/internal/bucket"
	"github.com/filecrate/filecrate/internal/config"
	"github.com/filecrate/filecrate/internal/file"
	"github.com/filecrate/filecrate/internal/handler"
	"github.com/filecrate/filecrate/internal/migrations"
	"github.com/filecrate/filecrate/internal/pipeline"
	"github.com/filecrate/filecrate/internal/project"
	"github.com/filecrate/filecrate/internal/reconcile"
	"github.com/filecrate/filecrate/pkg/blob"
	"github.com/filecrate/filecrate/pkg/db"
	"github.com/filecrate/filecrate/pkg/health"
	"github.com/filecrate/filecrate/pkg/logger"
	"github.com/filecrate/filecrate/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", slog.Any("error", err))
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logger.New(cfg.LogLevel)
	if cfg.Sentry.DSN != "" {
		log = logger.NewWithSentry(cfg.LogLevel, cfg.Sentry)
		defer logger.Flush(2 * time.Second)
	}
	slog.SetDefault(log)

	pool, err := db.Connect(ctx, cfg.DB)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool, migrations.FS, "goose_db_version", log); err != nil {
		return err
	}

	driver := riverpgxv5.New(pool)
	migrator, err := rivermigrate.New(driver, nil)
	if err != nil {
		return fmt.Errorf("create river migrator: %w", err)
	}
	if _, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, nil); err != nil {
		return fmt.Errorf("apply river migrations: %w", err)
	}

	store, err := blob.New(cfg.Blob)
	if err != nil {
		return err
	}

	projectRepo := project.NewRepository(pool)
	bucketRepo := bucket.NewRepository(pool)
	fileRepo := file.NewRepository(pool)

	bucketSvc := bucket.NewService(bucketRepo, store, file.NewUsageProvider(fileRepo), log)
	engine := reconcile.NewEngine(bucketRepo, fileRepo, store, log)

	scanner := pipeline.NewClamdScanner(cfg.ClamdAddr)
	registry := pipeline.NewDefaultRegistry(cfg.FFmpegPath)
	processor := pipeline.NewProcessor(fileRepo, bucketSvc, store, scanner, registry, log)

	workers := river.NewWorkers()
	river.AddWorker(workers, pipeline.NewScanWorker(processor))
	river.AddWorker(workers, pipeline.NewTransformWorker(processor))
	river.AddWorker(workers, reconcile.NewSyncWorker(engine))
	river.AddWorker(workers, reconcile.NewSweepWorker(projectRepo))

	schedule, err := cron.ParseStandard(cfg.SyncSchedule)
	if err != nil {
		return fmt.Errorf("invalid sync schedule %q: %w", cfg.SyncSchedule, err)
	}

	riverClient, err := river.NewClient(driver, &river.Config{
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: 10},
			pipeline.Queue:     {MaxWorkers: 4},
			reconcile.Queue:    {MaxWorkers: 2},
		},
		Workers: workers,
		PeriodicJobs: []*river.PeriodicJob{
			river.NewPeriodicJob(
				schedule,
				func() (river.JobArgs, *river.InsertOpts) {
					return reconcile.SweepArgs{}, nil
				},
				&river.PeriodicJobOpts{RunOnStart: false},
			),
		},
		Logger: log,
	})
	if err != nil {
		return fmt.Errorf("create job client: %w", err)
	}

	var cache project.KeyCache
	var rdb goredis.UniversalClient
	if cfg.RedisURL != "" {
		rdb, err = redis.Open(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer rdb.Close()
		cache = project.NewRedisKeyCache(rdb, cfg.AuthCacheTTL)
	}

	projectSvc := project.NewService(projectRepo, bucketRepo, fileRepo, store, cache, log)
	fileSvc := file.NewService(fileRepo, bucketSvc, store, pipeline.NewEnqueuer(riverClient), cfg.PresignExpiry, log)

	readiness := health.Checks{
		"postgres": db.Healthcheck(pool),
	}
	if rdb != nil {
		readiness["redis"] = redis.Healthcheck(rdb)
	}

	h := handler.New(projectSvc, bucketSvc, fileSvc, engine, cfg.AdminSecret, readiness, log)
	server := &http.Server{
		Handler:           h.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if err := riverClient.Start(ctx); err != nil {
		return fmt.Errorf("start job client: %w", err)
	}

	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", slog.String("address", ln.Addr().String()))
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	var errs []error
	if err := server.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, err)
	}
	if err := riverClient.Stop(shutdownCtx); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	log.Info("shutdown completed")
	return nil
}
