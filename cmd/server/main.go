package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"go.uber.org/zap"

	"github.com/mamadbah2/flocktrack/internal/cache"
	"github.com/mamadbah2/flocktrack/internal/config"
	"github.com/mamadbah2/flocktrack/internal/repository/mongodb"
	"github.com/mamadbah2/flocktrack/internal/repository/postgres"
	"github.com/mamadbah2/flocktrack/internal/repository/sheets"
	"github.com/mamadbah2/flocktrack/internal/scheduler"
	"github.com/mamadbah2/flocktrack/internal/server/handlers"
	"github.com/mamadbah2/flocktrack/internal/server/middleware"
	"github.com/mamadbah2/flocktrack/internal/server/router"
	flocksvc "github.com/mamadbah2/flocktrack/internal/service/flocks"
	notificationsvc "github.com/mamadbah2/flocktrack/internal/service/notifications"
	statssvc "github.com/mamadbah2/flocktrack/internal/service/stats"
	summarysvc "github.com/mamadbah2/flocktrack/internal/service/summary"
	tasksvc "github.com/mamadbah2/flocktrack/internal/service/tasks"
	usersvc "github.com/mamadbah2/flocktrack/internal/service/users"
	"github.com/mamadbah2/flocktrack/internal/txn"
	"github.com/mamadbah2/flocktrack/pkg/clients/renderer"
	"github.com/mamadbah2/flocktrack/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.Log.Level))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	db, err := postgres.Connect(cfg.Database, baseLogger.Named("repo.postgres"))
	if err != nil {
		baseLogger.Fatal("failed to connect database", zap.Error(err))
	}
	defer func() {
		if err := postgres.Close(db); err != nil {
			baseLogger.Error("failed to close database", zap.Error(err))
		}
	}()
	if err := postgres.AutoMigrate(db); err != nil {
		baseLogger.Fatal("failed to migrate database", zap.Error(err))
	}

	store := postgres.NewStore(db)
	exec := txn.NewExecutor(db, baseLogger.Named("txn"), txn.WithBackoff(cfg.Txn.InitialBackoff, cfg.Txn.MaxBackoff))

	loc, err := cfg.Reporting.Location()
	if err != nil {
		baseLogger.Fatal("invalid timezone", zap.Error(err))
	}

	userSvc := usersvc.NewService(store, exec, cfg.Txn.MaxRetries, baseLogger.Named("svc.users"))
	flockSvc := flocksvc.NewService(store, exec, cfg.Txn.MaxRetries, baseLogger.Named("svc.flocks"))
	taskSvc := tasksvc.NewService(store, exec, cfg.Txn.MaxRetries, baseLogger.Named("svc.tasks"))
	notificationSvc := notificationsvc.NewService(store, exec, cfg.Txn.MaxRetries, baseLogger.Named("svc.notifications"))
	statsSvc := statssvc.NewService(store, loc, baseLogger.Named("svc.stats"))

	startCtx, cancelStart := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStart()

	mongoRepo, err := mongodb.NewMongoDBRepository(startCtx, cfg.MongoDB.URI, cfg.MongoDB.DBName, baseLogger.Named("repo.mongo"))
	if err != nil {
		baseLogger.Fatal("failed to init mongodb repository", zap.Error(err))
	}
	defer func() {
		if err := mongoRepo.Close(context.Background()); err != nil {
			baseLogger.Error("failed to close mongodb connection", zap.Error(err))
		}
	}()

	images, err := mongodb.NewImageStore(mongoRepo, cfg.MongoDB.Bucket, cfg.Server.PublicURL, baseLogger.Named("repo.images"))
	if err != nil {
		baseLogger.Fatal("failed to init image store", zap.Error(err))
	}

	summaryOpts := []summarysvc.Option{
		summarysvc.WithArchive(mongoRepo),
		summarysvc.WithPublishing(store, notificationSvc),
	}

	if cfg.Sheets.Enabled() {
		sheetsRepo, err := sheets.NewGoogleSheetRepository(startCtx, cfg.Sheets, baseLogger.Named("repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
		}
		summaryOpts = append(summaryOpts, summarysvc.WithLedger(sheets.NewSummaryLedger(sheetsRepo, cfg.Sheets.Range)))
		baseLogger.Info("summary ledger export enabled")
	} else {
		baseLogger.Warn("google sheets not configured, summary ledger export disabled")
	}

	if cfg.Redis.Enabled() {
		redisClient, err := cache.NewRedisClient(startCtx, cfg.Redis)
		if err != nil {
			baseLogger.Fatal("failed to connect redis", zap.Error(err))
		}
		defer func() { _ = redisClient.Close() }()
		summaryOpts = append(summaryOpts, summarysvc.WithLocker(cache.NewRedisLocker(redisClient, cfg.Redis.LockTTL, baseLogger.Named("cache.locker"))))
		baseLogger.Info("distributed render lock enabled")
	}

	renderClient := renderer.NewClient(cfg.Renderer)
	summarySvc := summarysvc.NewService(statsSvc, renderClient, images, cfg.Server.PublicURL, baseLogger.Named("svc.summary"), summaryOpts...)

	engine := router.New(router.Routes{
		Users:        handlers.NewUserHandler(userSvc, baseLogger.Named("handlers.users")),
		Flocks:       handlers.NewFlockHandler(flockSvc, statsSvc.Today, baseLogger.Named("handlers.flocks")),
		Tasks:        handlers.NewTaskHandler(taskSvc, notificationSvc, baseLogger.Named("handlers.tasks")),
		Stats:        handlers.NewStatsHandler(statsSvc, summarySvc, baseLogger.Named("handlers.stats")),
		SummaryPages: handlers.NewSummaryPageHandler(statsSvc, images, baseLogger.Named("handlers.summary")),
		Authenticate: middleware.Authenticate(cfg.Auth, userSvc, baseLogger.Named("middleware.auth")),
		RequireFlock: middleware.RequireFlock(flockSvc, baseLogger.Named("middleware.auth")),
	}, baseLogger.Named("router"))

	sched, err := scheduler.NewScheduler(cfg.Reporting, summarySvc, baseLogger.Named("scheduler"))
	if err != nil {
		baseLogger.Fatal("failed to init scheduler", zap.Error(err))
	}
	if err := sched.Start(); err != nil {
		baseLogger.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.Renderer.Timeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}
