package config

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"rentalmap/internal/models"
)

func TestGetRegionNames(t *testing.T) {
	assert.Equal(t, []string{"Central", "East", "North-East", "North", "West"}, GetRegionNames())
}

func TestNormalizeRegion(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected models.Region
		ok       bool
	}{
		{name: "Canonical", input: "Central", expected: models.RegionCentral, ok: true},
		{name: "Lower case", input: "west", expected: models.RegionWest, ok: true},
		{name: "Space instead of hyphen", input: "north east", expected: models.RegionNorthEast, ok: true},
		{name: "No separator", input: "NORTHEAST", expected: models.RegionNorthEast, ok: true},
		{name: "North is not North-East", input: "North", expected: models.RegionNorth, ok: true},
		{name: "Unknown", input: "South", ok: false},
		{name: "Empty", input: "  ", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			region, ok := NormalizeRegion(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, region,
				"NormalizeRegion(%q) = %q, want %q", tt.input, region, tt.expected)
		})
	}
}
