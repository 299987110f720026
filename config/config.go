package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
)

const (
	CatalogDriverSQLite   = "sqlite"
	CatalogDriverPostgres = "postgres"
	CatalogDriverMemory   = "memory"
)

type Config struct {
	Server struct {
		Port string `env:"PORT" envDefault:"5250"`

		// Comma separated list of allowed CORS origins
		CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`

		LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	}

	Catalog struct {
		// One of sqlite, postgres or memory
		Driver string `env:"CATALOG_DRIVER" envDefault:"sqlite"`

		SQLitePath  string `env:"SQLITE_PATH" envDefault:"database/rentals.db"`
		DatabaseURL string `env:"DATABASE_URL"`

		// Retries for transient SQLite lock errors on a single page read
		MaxRetries   int           `env:"CATALOG_MAX_RETRIES" envDefault:"3"`
		RetryDelay   time.Duration `env:"CATALOG_RETRY_DELAY" envDefault:"200ms"`
		PoolMaxConns int32         `env:"CATALOG_POOL_MAX_CONNS" envDefault:"10"`

		// Optional JSON file imported into the catalog at startup
		SeedFile string `env:"CATALOG_SEED_FILE"`
	}

	Loader struct {
		PageSize int `env:"LOADER_PAGE_SIZE" envDefault:"1000"`
	}

	Geometry struct {
		ProximityDegrees float64 `env:"DISTRICT_PROXIMITY_DEGREES" envDefault:"0.02"`
	}

	Stats struct {
		TopN          int  `env:"STATS_TOP_N" envDefault:"3"`
		CellPrecision uint `env:"STATS_CELL_PRECISION" envDefault:"6"`
	}

	Refresh struct {
		// Zero disables periodic refreshes; the startup load still runs
		Interval time.Duration `env:"REFRESH_INTERVAL" envDefault:"1h"`
	}

	Cache struct {
		RedisAddr     string        `env:"REDIS_ADDR"`
		RedisPassword string        `env:"REDIS_PASSWORD"`
		RedisDB       int           `env:"REDIS_DB" envDefault:"0"`
		TTL           time.Duration `env:"CACHE_TTL" envDefault:"5m"`
	}

	// BatchProcessing configures the seed importer
	BatchProcessing struct {
		// Maximum number of properties to accumulate before processing
		MaxBatchSize int `env:"BATCH_MAX_SIZE" envDefault:"100"`

		// Number of batches the queue can hold
		QueueSize int `env:"BATCH_QUEUE_SIZE" envDefault:"64"`

		// Maximum number of retries for failed batches
		MaxRetries int `env:"BATCH_MAX_RETRIES" envDefault:"3"`

		// Delay between retries
		RetryDelay time.Duration `env:"BATCH_RETRY_DELAY" envDefault:"1s"`
	}
}

func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks the values that cannot be defaulted sensibly
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	c.Catalog.Driver = strings.ToLower(strings.TrimSpace(c.Catalog.Driver))
	switch c.Catalog.Driver {
	case CatalogDriverSQLite:
		if c.Catalog.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required for the sqlite catalog")
		}
	case CatalogDriverPostgres:
		if c.Catalog.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres catalog")
		}
	case CatalogDriverMemory:
	default:
		return fmt.Errorf("unknown CATALOG_DRIVER %q", c.Catalog.Driver)
	}

	if c.Catalog.MaxRetries < 0 {
		return fmt.Errorf("CATALOG_MAX_RETRIES must be non-negative")
	}
	if c.Loader.PageSize < 1 {
		return fmt.Errorf("LOADER_PAGE_SIZE must be at least 1")
	}
	if c.Geometry.ProximityDegrees <= 0 {
		return fmt.Errorf("DISTRICT_PROXIMITY_DEGREES must be positive")
	}
	if c.Stats.TopN < 0 {
		return fmt.Errorf("STATS_TOP_N must be non-negative")
	}
	if c.Stats.CellPrecision < 1 || c.Stats.CellPrecision > 12 {
		return fmt.Errorf("STATS_CELL_PRECISION must be between 1 and 12")
	}
	if c.Refresh.Interval < 0 {
		return fmt.Errorf("REFRESH_INTERVAL must be non-negative")
	}
	if c.BatchProcessing.MaxBatchSize < 1 {
		return fmt.Errorf("BATCH_MAX_SIZE must be at least 1")
	}
	return nil
}
