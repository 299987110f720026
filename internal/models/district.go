package models

import "github.com/paulmach/orb"

// Region is one of the five macro-regions districts are grouped under
type Region string

const (
	RegionCentral   Region = "Central"
	RegionEast      Region = "East"
	RegionNorthEast Region = "North-East"
	RegionNorth     Region = "North"
	RegionWest      Region = "West"
)

var Regions = []Region{RegionCentral, RegionEast, RegionNorthEast, RegionNorth, RegionWest}

// District is an administrative region. Boundary vertices are stored in
// orb order (longitude, latitude).
type District struct {
	ID        int         `json:"id"`
	Name      string      `json:"name"`
	Region    Region      `json:"region"`
	Center    Coordinate  `json:"center"`
	Boundary  orb.Ring    `json:"-"`
	Synthetic bool        `json:"synthetic_boundary"`
	Summary   *GroupStats `json:"summary,omitempty"`
}

// FilterSpec is the active filter state. The zero value matches every property.
type FilterSpec struct {
	Districts     []int          `json:"district_ids"`
	PropertyTypes []PropertyType `json:"property_type"`
	Bedrooms      []int          `json:"beds"`
	SqftMin       *float64       `json:"sqft_min,omitempty"`
	SqftMax       *float64       `json:"sqft_max,omitempty"`
}

// IsEmpty reports whether the spec imposes no restriction at all
func (f FilterSpec) IsEmpty() bool {
	return len(f.Districts) == 0 && len(f.PropertyTypes) == 0 && len(f.Bedrooms) == 0 &&
		f.SqftMin == nil && f.SqftMax == nil
}
