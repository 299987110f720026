package database

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"rentalmap/internal/catalog"
)

// Options tunes paging and lock-contention retries
type Options struct {
	PageSize   int
	MaxRetries int
	RetryDelay time.Duration
}

// Database is the SQLite-backed catalog store
type Database struct {
	db     *gorm.DB
	opts   Options
	logger *logrus.Logger
}

// NewDatabase opens (creating if needed) the SQLite catalog at dbPath
func NewDatabase(dbPath string, opts Options, logger *logrus.Logger) (*Database, error) {
	if opts.PageSize < 1 {
		return nil, fmt.Errorf("page size must be at least 1, got %d", opts.PageSize)
	}
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("%s?_busy_timeout=5000&_journal_mode=WAL", dbPath)
	db, err := open(dsn)
	if err != nil {
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"path":      dbPath,
		"page_size": opts.PageSize,
	}).Info("Opened SQLite catalog")

	return &Database{db: db, opts: opts, logger: logger}, nil
}

// NewTestDB opens a private in-memory database
func NewTestDB() (*gorm.DB, error) {
	return open(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
}

func open(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// DB exposes the gorm handle for the seed importer
func (d *Database) DB() *gorm.DB {
	return d.db
}

// Migrate creates or updates the catalog schema
func (d *Database) Migrate() error {
	return MigrateSchema(d.db)
}

func (d *Database) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// FetchPage reads one page ordered newest first. Lock contention is retried;
// every other error is returned as is.
func (d *Database) FetchPage(ctx context.Context, pageIndex int) (catalog.Page, error) {
	if pageIndex < 0 {
		return catalog.Page{}, fmt.Errorf("invalid page index %d", pageIndex)
	}

	var page catalog.Page
	err := d.withRetry(ctx, func() error {
		var total int64
		if err := d.db.WithContext(ctx).Model(&propertyRecord{}).Count(&total).Error; err != nil {
			return fmt.Errorf("failed to count properties: %w", err)
		}

		var rows []propertyRecord
		err := d.db.WithContext(ctx).
			Order("created_at DESC").
			Order("id ASC").
			Limit(d.opts.PageSize).
			Offset(pageIndex * d.opts.PageSize).
			Find(&rows).Error
		if err != nil {
			return fmt.Errorf("failed to query properties page: %w", err)
		}

		page = catalog.Page{
			Records:    toModels(rows),
			TotalCount: int(total),
			HasMore:    catalog.HasMore(pageIndex, d.opts.PageSize, int(total)),
		}
		return nil
	})
	return page, err
}

// Count returns the number of stored properties
func (d *Database) Count(ctx context.Context) (int64, error) {
	var total int64
	err := d.db.WithContext(ctx).Model(&propertyRecord{}).Count(&total).Error
	return total, err
}

func (d *Database) withRetry(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 0; attempt <= d.opts.MaxRetries; attempt++ {
		if attempt > 0 {
			d.logger.WithFields(logrus.Fields{
				"attempt":     attempt,
				"max_retries": d.opts.MaxRetries,
			}).WithError(err).Warn("Retrying catalog read after lock contention")

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(d.opts.RetryDelay):
			}
		}

		err = fn()
		if err == nil || !isRetryable(err) {
			return err
		}
	}
	return fmt.Errorf("catalog read failed after %d retries: %w", d.opts.MaxRetries, err)
}

// isRetryable reports whether err is transient SQLite lock contention
func isRetryable(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked
}
