package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/linkshot/linkshot/config"
	"github.com/linkshot/linkshot/internal/app/handleset"
	appmodel "github.com/linkshot/linkshot/internal/app/model"
	apprepository "github.com/linkshot/linkshot/internal/app/repository"
	appserver "github.com/linkshot/linkshot/internal/app/server"
	appservice "github.com/linkshot/linkshot/internal/app/service"
	"github.com/linkshot/linkshot/internal/infra/logger"
	infraNATS "github.com/linkshot/linkshot/internal/infra/nats"
	infraPostgres "github.com/linkshot/linkshot/internal/infra/postgres"
	infraPrometheus "github.com/linkshot/linkshot/internal/infra/prometheus"
	infraRedis "github.com/linkshot/linkshot/internal/infra/redis"
	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	isDev := os.Getenv("APP_ENV") != "production"
	log := logger.MustInit(logger.Config{
		Development: isDev,
		Level:       os.Getenv("LOG_LEVEL"),
	})
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config", zap.Error(err))
	}

	log.Info("Configuration loaded successfully",
		zap.String("postgres_user", cfg.Postgres.User),
		zap.String("postgres_host", cfg.Postgres.Host),
		zap.Int("postgres_port", cfg.Postgres.Port),
		zap.String("postgres_db", cfg.Postgres.Database),
		zap.String("redis_host", cfg.Redis.Host),
		zap.Int("redis_port", cfg.Redis.Port),
		zap.String("nats_host", cfg.NATS.Host),
		zap.Int("nats_port", cfg.NATS.Port),
		zap.Int("leaderboard_top_n", cfg.Leaderboard.TopN),
	)

	gormDB, err := infraPostgres.NewGorm(cfg.Postgres)
	if err != nil {
		log.Fatal("Failed to open GORM connection", zap.Error(err))
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		log.Fatal("Failed to access underlying SQL DB", zap.Error(err))
	}
	defer sqlDB.Close()

	if err := infraPostgres.AutoMigrate(ctx, gormDB,
		&appmodel.Profile{},
		&appmodel.CustomLink{},
		&appmodel.ViewEvent{},
	); err != nil {
		log.Fatal("Failed to run database migrations", zap.Error(err))
	}

	pool, err := infraPostgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		log.Fatal("Failed to connect to Postgres", zap.Error(err))
	}
	defer pool.Close()

	log.Info("Connected to Postgres successfully")

	redisClient, err := infraRedis.NewClient(ctx, cfg.Redis)
	if err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	log.Info("Connected to Redis successfully")

	natsConn, js, err := infraNATS.Connect(cfg.NATS)
	if err != nil {
		log.Fatal("Failed to connect to NATS", zap.Error(err))
	}
	defer natsConn.Drain()
	log.Info("Connected to NATS successfully", zap.Bool("jetstream_ready", js != nil))

	if !isDev {
		promServer := infraPrometheus.NewServer(cfg.Prometheus)
		go func() {
			log.Info("Starting Prometheus metrics server",
				zap.Int("port", cfg.Prometheus.Port))
			if err := promServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("Prometheus metrics server stopped unexpectedly", zap.Error(err))
			}
		}()
		defer func() {
			if err := promServer.Close(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Warn("Failed to close Prometheus server", zap.Error(err))
			}
		}()
	} else {
		log.Info("Skipping Prometheus metrics server in development mode")
	}

	profileRepo := apprepository.NewProfileRepository(gormDB, pool)
	customLinkRepo := apprepository.NewCustomLinkRepository(gormDB)
	viewEventRepo := apprepository.NewViewEventRepository(gormDB)

	profileSvc := appservice.NewProfileService(profileRepo)
	linkSvc := appservice.NewLinkService(customLinkRepo, profileRepo)
	rankSvc := appservice.NewRankService(profileRepo, log)
	analyticsSvc := appservice.NewAnalyticsService(viewEventRepo, profileRepo)

	reconcileInterval := parseDurationOr(cfg.Leaderboard.ReconcileInterval, time.Minute)
	worker := appservice.NewReconcileWorker(log, rankSvc, cfg.Leaderboard.TopN, reconcileInterval)
	worker.Start()
	defer worker.Stop()

	handles := handleset.New(profileRepo, log, 5*time.Minute)
	if err := handles.Reload(ctx); err != nil {
		log.Warn("Failed to seed handle filter", zap.Error(err))
	}
	handles.Start()
	defer handles.Stop()

	consumer := appservice.NewEventConsumer(js, log, viewEventRepo)
	if err := consumer.Start(); err != nil {
		log.Fatal("Failed to start analytics event consumer", zap.Error(err))
	}

	server := appserver.New(appserver.Dependencies{
		Logger:     log,
		Redis:      redisClient,
		Profiles:   profileSvc,
		Links:      linkSvc,
		Ranks:      rankSvc,
		Analytics:  analyticsSvc,
		Events:     appservice.NewEventPublisher(js),
		Reconcile:  worker,
		Handles:    handles,
		AuthSecret: []byte(cfg.Auth.Secret),
		CacheTTL:   parseDurationOr(cfg.Leaderboard.CacheTTL, 30*time.Second),
	})

	if err := server.Listen(fmt.Sprintf(":%d", cfg.Server.Port)); err != nil {
		log.Fatal("Fiber server exited", zap.Error(err))
	}
}

func parseDurationOr(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return d
}
