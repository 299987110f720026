package config

import (
	"strings"

	"rentalmap/internal/models"
)

// GetRegionNames returns the macro-region names in display order
func GetRegionNames() []string {
	names := make([]string, len(models.Regions))
	for i, region := range models.Regions {
		names[i] = string(region)
	}
	return names
}

// NormalizeRegion maps loosely written region names ("north east",
// "NORTHEAST", "north-east") onto the canonical region.
func NormalizeRegion(name string) (models.Region, bool) {
	key := regionKey(name)
	if key == "" {
		return "", false
	}
	for _, region := range models.Regions {
		if regionKey(string(region)) == key {
			return region, true
		}
	}
	return "", false
}

func regionKey(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if r >= 'a' && r <= 'z' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
