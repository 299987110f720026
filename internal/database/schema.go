package database

import (
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"rentalmap/internal/models"
)

// propertyRecord is the persisted shape of a property
type propertyRecord struct {
	ID           string `gorm:"primaryKey"`
	PropertyName string
	PropertyType string `gorm:"not null"`
	District     *int   `gorm:"index"`
	Beds         *int
	Baths        *int
	Sqft         float64
	RentalPrice  float64
	Latitude     float64 `gorm:"index:idx_properties_coordinates"`
	Longitude    float64 `gorm:"index:idx_properties_coordinates"`
	StreetName   string
	LeaseDate    string
	CreatedAt    time.Time `gorm:"index"`
}

func (propertyRecord) TableName() string {
	return "properties"
}

// upsertColumns are overwritten when an imported id already exists.
// created_at keeps the first import time.
var upsertColumns = []string{
	"property_name", "property_type", "district", "beds", "baths", "sqft",
	"rental_price", "latitude", "longitude", "street_name", "lease_date",
}

// MigrateSchema creates the properties table and its indices
func MigrateSchema(db *gorm.DB) error {
	if err := db.AutoMigrate(&propertyRecord{}); err != nil {
		return fmt.Errorf("failed to migrate properties table: %w", err)
	}
	return nil
}

// UpsertProperties inserts a batch, updating rows whose id already exists
func UpsertProperties(tx *gorm.DB, batch []*models.Property) error {
	if len(batch) == 0 {
		return nil
	}

	records := make([]propertyRecord, 0, len(batch))
	for _, p := range batch {
		if p == nil {
			continue
		}
		records = append(records, fromModel(p))
	}

	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns(upsertColumns),
	}).Create(&records).Error
}

func fromModel(p *models.Property) propertyRecord {
	return propertyRecord{
		ID:           p.ID,
		PropertyName: p.Name,
		PropertyType: string(p.PropertyType),
		District:     p.District,
		Beds:         p.Bedrooms,
		Baths:        p.Bathrooms,
		Sqft:         p.Sqft,
		RentalPrice:  p.RentalPrice,
		Latitude:     p.Latitude,
		Longitude:    p.Longitude,
		StreetName:   p.StreetName,
		LeaseDate:    p.LeaseDate,
		CreatedAt:    p.CreatedAt,
	}
}

func toModels(rows []propertyRecord) []models.Property {
	out := make([]models.Property, len(rows))
	for i, r := range rows {
		out[i] = models.Property{
			ID:           r.ID,
			Name:         r.PropertyName,
			PropertyType: models.PropertyType(r.PropertyType),
			District:     r.District,
			Bedrooms:     r.Beds,
			Bathrooms:    r.Baths,
			Sqft:         r.Sqft,
			RentalPrice:  r.RentalPrice,
			Latitude:     r.Latitude,
			Longitude:    r.Longitude,
			StreetName:   r.StreetName,
			LeaseDate:    r.LeaseDate,
			CreatedAt:    r.CreatedAt,
		}
	}
	return out
}
