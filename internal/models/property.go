package models

import "time"

// PropertyType is the classification of a rental listing
type PropertyType string

const (
	PropertyTypeCondo  PropertyType = "Condo"
	PropertyTypeHDB    PropertyType = "HDB"
	PropertyTypeLanded PropertyType = "Landed"
)

// PropertyTypes lists every known classification in display order
var PropertyTypes = []PropertyType{PropertyTypeCondo, PropertyTypeHDB, PropertyTypeLanded}

// Valid reports whether t is one of the known classifications
func (t PropertyType) Valid() bool {
	for _, known := range PropertyTypes {
		if t == known {
			return true
		}
	}
	return false
}

type Property struct {
	ID           string       `json:"id"`
	Name         string       `json:"property_name"`
	PropertyType PropertyType `json:"property_type"`
	District     *int         `json:"district"`
	Bedrooms     *int         `json:"beds"`
	Bathrooms    *int         `json:"baths"`
	Sqft         float64      `json:"sqft"`
	RentalPrice  float64      `json:"rental_price"`
	Latitude     float64      `json:"latitude"`
	Longitude    float64      `json:"longitude"`
	StreetName   string       `json:"street_name,omitempty"`
	LeaseDate    string       `json:"lease_date,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
}

type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// GroupStats holds the aggregate statistics for one group of properties
type GroupStats struct {
	Count         int                  `json:"count"`
	AveragePrice  int64                `json:"average_price"`
	MinPrice      int64                `json:"min_price"`
	MaxPrice      int64                `json:"max_price"`
	AverageSqft   int64                `json:"average_sqft"`
	TypeCounts    map[PropertyType]int `json:"type_counts"`
	BedroomCounts map[string]int       `json:"bedroom_counts"`
	Top           []Property           `json:"top"`
	CellCenter    *Coordinate          `json:"cell_center,omitempty"`
}

// LoadState is a snapshot of an incremental load session
type LoadState struct {
	Properties []Property `json:"-"`
	Loaded     int        `json:"loaded"`
	Total      int        `json:"total"`
	HasMore    bool       `json:"has_more"`
	Page       int        `json:"page"`
}

// Complete reports whether the session has drained the catalog
func (s LoadState) Complete() bool {
	return !s.HasMore
}
