package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"rentalmap/internal/models"
)

//go:embed districts.json
var districtTable []byte

//go:embed districts.schema.json
var districtSchema []byte

const districtSchemaURL = "districts.schema.json"

type districtEntry struct {
	ID     int               `json:"id"`
	Name   string            `json:"name"`
	Region string            `json:"region"`
	Center models.Coordinate `json:"center"`
	// Boundary vertices are [lng, lat] pairs
	Boundary [][2]float64 `json:"boundary"`
}

// LoadDistricts returns the embedded district table
func LoadDistricts() ([]models.District, error) {
	return ParseDistricts(districtTable)
}

// ParseDistricts validates a district table document against the schema and
// converts it. Geometry checks happen later in geometry.NewResolver.
func ParseDistricts(data []byte) ([]models.District, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(districtSchemaURL, bytes.NewReader(districtSchema)); err != nil {
		return nil, fmt.Errorf("failed to add district schema: %w", err)
	}
	schema, err := compiler.Compile(districtSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("failed to compile district schema: %w", err)
	}

	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse district table: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("district table does not match schema: %w", err)
	}

	var entries []districtEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode district table: %w", err)
	}

	districts := make([]models.District, len(entries))
	for i, e := range entries {
		var ring orb.Ring
		for _, v := range e.Boundary {
			ring = append(ring, orb.Point{v[0], v[1]})
		}
		districts[i] = models.District{
			ID:       e.ID,
			Name:     e.Name,
			Region:   models.Region(e.Region),
			Center:   e.Center,
			Boundary: ring,
		}
	}
	return districts, nil
}
