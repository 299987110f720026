package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"rentalmap/internal/catalog"
	"rentalmap/internal/models"
)

const pageQuery = `
	SELECT
		id,
		property_name,
		property_type,
		district,
		beds,
		baths,
		sqft,
		rental_price,
		latitude,
		longitude,
		street_name,
		lease_date,
		created_at
	FROM properties
	ORDER BY created_at DESC, id ASC
	LIMIT $1 OFFSET $2
`

// Store reads the hosted properties table through a pgx connection pool
type Store struct {
	pool     *pgxpool.Pool
	pageSize int
	logger   *logrus.Logger
}

// Options configures the connection pool
type Options struct {
	DSN      string
	MaxConns int32
	PageSize int
}

// NewStore connects to Postgres and verifies the connection with a ping
func NewStore(ctx context.Context, opts Options, logger *logrus.Logger) (*Store, error) {
	if opts.PageSize < 1 {
		return nil, fmt.Errorf("page size must be at least 1, got %d", opts.PageSize)
	}
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	poolConfig, err := pgxpool.ParseConfig(opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}
	if opts.MaxConns > 0 {
		poolConfig.MaxConns = opts.MaxConns
	}
	poolConfig.ConnConfig.ConnectTimeout = 5 * time.Second
	poolConfig.MaxConnIdleTime = 30 * time.Second
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.WithFields(logrus.Fields{
		"max_conns": poolConfig.MaxConns,
		"page_size": opts.PageSize,
	}).Info("Connected to Postgres catalog")

	return &Store{pool: pool, pageSize: opts.PageSize, logger: logger}, nil
}

// FetchPage counts the table and reads one page ordered newest first
func (s *Store) FetchPage(ctx context.Context, pageIndex int) (catalog.Page, error) {
	if pageIndex < 0 {
		return catalog.Page{}, fmt.Errorf("invalid page index %d", pageIndex)
	}

	var total int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM properties`).Scan(&total); err != nil {
		return catalog.Page{}, fmt.Errorf("failed to count properties: %w", err)
	}

	rows, err := s.pool.Query(ctx, pageQuery, s.pageSize, pageIndex*s.pageSize)
	if err != nil {
		return catalog.Page{}, fmt.Errorf("failed to query properties page: %w", err)
	}
	defer rows.Close()

	records := make([]models.Property, 0, s.pageSize)
	for rows.Next() {
		var p models.Property
		var propertyType string
		var street, leaseDate *string

		err := rows.Scan(
			&p.ID,
			&p.Name,
			&propertyType,
			&p.District,
			&p.Bedrooms,
			&p.Bathrooms,
			&p.Sqft,
			&p.RentalPrice,
			&p.Latitude,
			&p.Longitude,
			&street,
			&leaseDate,
			&p.CreatedAt,
		)
		if err != nil {
			return catalog.Page{}, fmt.Errorf("failed to scan property row: %w", err)
		}

		p.PropertyType = models.PropertyType(propertyType)
		if street != nil {
			p.StreetName = *street
		}
		if leaseDate != nil {
			p.LeaseDate = *leaseDate
		}
		records = append(records, p)
	}
	if err := rows.Err(); err != nil {
		return catalog.Page{}, fmt.Errorf("error iterating property rows: %w", err)
	}

	return catalog.Page{
		Records:    records,
		TotalCount: total,
		HasMore:    catalog.HasMore(pageIndex, s.pageSize, total),
	}, nil
}

// Ping checks that the pool can reach the database
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}
