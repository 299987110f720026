package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"rentalmap/config"
	"rentalmap/internal/api"
	"rentalmap/internal/cache"
	"rentalmap/internal/catalog"
	"rentalmap/internal/catalog/postgres"
	"rentalmap/internal/dashboard"
	"rentalmap/internal/database"
	"rentalmap/internal/geometry"
	"rentalmap/internal/loader"
	"rentalmap/internal/metrics"
	"rentalmap/internal/models"
	"rentalmap/internal/processor"
	"rentalmap/internal/queue"
	"rentalmap/internal/scheduler"
)

const shutdownTimeout = 10 * time.Second

func main() {
	_ = godotenv.Load(".env")

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}
	if level, err := logrus.ParseLevel(cfg.Server.LogLevel); err == nil {
		logger.SetLevel(level)
	} else {
		logger.WithField("level", cfg.Server.LogLevel).Warn("Unknown log level, using info")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	districts, err := config.LoadDistricts()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load district table")
	}
	resolver, err := geometry.NewResolver(districts, cfg.Geometry.ProximityDegrees, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to build district resolver")
	}
	knownDistrict := func(id int) bool {
		_, ok := resolver.District(id)
		return ok
	}

	m := metrics.New()

	store, closeStore, err := openStore(ctx, cfg, knownDistrict, m, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to open catalog store")
	}
	defer closeStore()

	var summaryCache cache.Cache = cache.NopCache{}
	if cfg.Cache.RedisAddr != "" {
		rc, err := cache.NewRedisCache(ctx, cache.RedisOptions{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
			TTL:      cfg.Cache.TTL,
		}, logger)
		if err != nil {
			logger.WithError(err).Warn("Redis unavailable, summaries will not be cached")
		} else {
			defer rc.Close()
			summaryCache = rc
		}
	}

	l := loader.NewLoader(store, m, logger)
	service := dashboard.NewService(l, resolver, summaryCache, m, dashboard.Options{
		TopN:          cfg.Stats.TopN,
		CellPrecision: cfg.Stats.CellPrecision,
	}, logger)

	sched := scheduler.NewScheduler(service, cfg.Refresh.Interval, logger)
	sched.Start()

	if cfg.Server.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", api.RequestIDHeader},
		ExposeHeaders:    []string{api.RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))
	api.SetupRoutes(router, api.NewHandler(ctx, service, logger), m)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Infof("Starting server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Server failed to start")
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}
	sched.Stop()
	service.Wait()
	logger.Info("Server exited")
}

// openStore builds the configured catalog store and imports the seed file
// when one is set. The returned func releases the store.
func openStore(ctx context.Context, cfg *config.Config, knownDistrict func(int) bool, m *metrics.Metrics, logger *logrus.Logger) (catalog.Store, func(), error) {
	switch cfg.Catalog.Driver {
	case config.CatalogDriverPostgres:
		if cfg.Catalog.SeedFile != "" {
			logger.Warn("CATALOG_SEED_FILE is ignored for the postgres catalog")
		}
		store, err := postgres.NewStore(ctx, postgres.Options{
			DSN:      cfg.Catalog.DatabaseURL,
			MaxConns: cfg.Catalog.PoolMaxConns,
			PageSize: cfg.Loader.PageSize,
		}, logger)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil

	case config.CatalogDriverMemory:
		var records []models.Property
		if cfg.Catalog.SeedFile != "" {
			seeded, _, err := processor.ReadSeedFile(cfg.Catalog.SeedFile, knownDistrict, logger)
			if err != nil {
				return nil, nil, err
			}
			records = make([]models.Property, len(seeded))
			for i, p := range seeded {
				records[i] = *p
			}
		}
		return catalog.NewMemoryStore(records, cfg.Loader.PageSize), func() {}, nil

	default:
		db, err := database.NewDatabase(cfg.Catalog.SQLitePath, database.Options{
			PageSize:   cfg.Loader.PageSize,
			MaxRetries: cfg.Catalog.MaxRetries,
			RetryDelay: cfg.Catalog.RetryDelay,
		}, logger)
		if err != nil {
			return nil, nil, err
		}
		closeDB := func() {
			if err := db.Close(); err != nil {
				logger.WithError(err).Error("Failed to close database")
			}
		}

		logger.Info("Running database migrations...")
		if err := db.Migrate(); err != nil {
			closeDB()
			return nil, nil, err
		}

		if cfg.Catalog.SeedFile != "" {
			if err := importSeed(ctx, cfg, db, knownDistrict, m, logger); err != nil {
				closeDB()
				return nil, nil, err
			}
		}
		return db, closeDB, nil
	}
}

func importSeed(ctx context.Context, cfg *config.Config, db *database.Database, knownDistrict func(int) bool, m *metrics.Metrics, logger *logrus.Logger) error {
	properties, report, err := processor.ReadSeedFile(cfg.Catalog.SeedFile, knownDistrict, logger)
	if err != nil {
		return err
	}
	if len(report.Rejected) > 0 {
		logger.WithField("rejected", report.Rejected).Warn("Seed file contained invalid records")
	}

	q := queue.NewPropertyQueue(cfg.BatchProcessing.QueueSize, logger)
	bp := processor.NewBatchProcessor(db.DB(), q, cfg, m, logger)
	bp.Start()
	defer bp.Stop()

	result, err := bp.Import(ctx, properties)
	if err != nil {
		return err
	}
	if result.Failed > 0 {
		logger.WithField("failed", result.Failed).Warn("Some seed batches could not be imported")
	}
	return nil
}
