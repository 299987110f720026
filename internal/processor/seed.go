package processor

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"rentalmap/internal/models"
)

var (
	ErrInvalidPropertyType = errors.New("invalid property type")
	ErrInvalidRentalPrice  = errors.New("rental price must be positive")
	ErrInvalidSqft         = errors.New("sqft must be positive")
)

// SeedRecord is one entry of a seed file, in the column names of the
// hosted catalog
type SeedRecord struct {
	ID           string     `json:"id"`
	PropertyName string     `json:"property_name"`
	PropertyType string     `json:"property_type"`
	District     *int       `json:"district"`
	RentalPrice  float64    `json:"rental_price"`
	Beds         *int       `json:"beds"`
	Baths        *int       `json:"baths"`
	Sqft         float64    `json:"sqft"`
	Latitude     float64    `json:"latitude"`
	Longitude    float64    `json:"longitude"`
	StreetName   string     `json:"street_name"`
	LeaseDate    string     `json:"lease_date"`
	CreatedAt    *time.Time `json:"created_at"`
}

// SeedReport counts what happened to the records of a seed file
type SeedReport struct {
	Read     int            `json:"read"`
	Accepted int            `json:"accepted"`
	Rejected map[string]int `json:"rejected"`
}

// ReadSeedFile reads a JSON array of SeedRecord from path
func ReadSeedFile(path string, knownDistrict func(int) bool, logger *logrus.Logger) ([]*models.Property, SeedReport, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, SeedReport{}, fmt.Errorf("failed to open seed file: %w", err)
	}
	defer f.Close()
	return ReadSeed(f, knownDistrict, logger)
}

// ReadSeed decodes and normalizes seed records. Invalid records are
// skipped and counted; only a malformed document is an error.
func ReadSeed(r io.Reader, knownDistrict func(int) bool, logger *logrus.Logger) ([]*models.Property, SeedReport, error) {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	var records []SeedRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, SeedReport{}, fmt.Errorf("failed to decode seed file: %w", err)
	}

	report := SeedReport{Read: len(records), Rejected: make(map[string]int)}
	out := make([]*models.Property, 0, len(records))
	for i, rec := range records {
		p, err := NormalizeSeedRecord(rec, knownDistrict)
		if err != nil {
			report.Rejected[rejectReason(err)]++
			logger.WithFields(logrus.Fields{
				"index": i,
				"id":    rec.ID,
			}).WithError(err).Warn("Skipping seed record")
			continue
		}
		if rec.District != nil && p.District == nil {
			logger.WithFields(logrus.Fields{
				"id":       p.ID,
				"district": *rec.District,
			}).Warn("Unknown district dropped, coordinates will be used")
		}
		out = append(out, p)
	}
	report.Accepted = len(out)

	logger.WithFields(logrus.Fields{
		"read":     report.Read,
		"accepted": report.Accepted,
	}).Info("Seed file read")
	return out, report, nil
}

// NormalizeSeedRecord converts a seed record into a property. Missing ids
// are generated; negative counts and unknown districts become unknown.
func NormalizeSeedRecord(rec SeedRecord, knownDistrict func(int) bool) (*models.Property, error) {
	pt, ok := parsePropertyType(rec.PropertyType)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPropertyType, rec.PropertyType)
	}
	if rec.RentalPrice <= 0 {
		return nil, ErrInvalidRentalPrice
	}
	if rec.Sqft <= 0 {
		return nil, ErrInvalidSqft
	}

	p := &models.Property{
		ID:           strings.TrimSpace(rec.ID),
		Name:         strings.TrimSpace(rec.PropertyName),
		PropertyType: pt,
		District:     rec.District,
		Bedrooms:     nonNegative(rec.Beds),
		Bathrooms:    nonNegative(rec.Baths),
		Sqft:         rec.Sqft,
		RentalPrice:  rec.RentalPrice,
		Latitude:     rec.Latitude,
		Longitude:    rec.Longitude,
		StreetName:   strings.TrimSpace(rec.StreetName),
		LeaseDate:    strings.TrimSpace(rec.LeaseDate),
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.District != nil && knownDistrict != nil && !knownDistrict(*p.District) {
		p.District = nil
	}
	if rec.CreatedAt != nil {
		p.CreatedAt = rec.CreatedAt.UTC()
	}
	return p, nil
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, ErrInvalidPropertyType):
		return "invalid_property_type"
	case errors.Is(err, ErrInvalidRentalPrice):
		return "invalid_rental_price"
	case errors.Is(err, ErrInvalidSqft):
		return "invalid_sqft"
	default:
		return "other"
	}
}

func parsePropertyType(v string) (models.PropertyType, bool) {
	v = strings.TrimSpace(v)
	for _, t := range models.PropertyTypes {
		if strings.EqualFold(v, string(t)) {
			return t, true
		}
	}
	return "", false
}

func nonNegative(v *int) *int {
	if v == nil || *v < 0 {
		return nil
	}
	n := *v
	return &n
}
