package stats

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/mmcloughlin/geohash"

	"rentalmap/internal/models"
)

// GroupBy selects how properties are partitioned before aggregation
type GroupBy string

const (
	GroupByNone     GroupBy = "none"
	GroupByDistrict GroupBy = "district"
	GroupByType     GroupBy = "type"
	GroupByBedrooms GroupBy = "bedrooms"
	GroupByCell     GroupBy = "cell"
)

// Group keys that are not derived from data
const (
	KeyAll     = "all"
	KeyUnknown = "unknown"
)

const (
	DefaultTopN          = 3
	DefaultCellPrecision = 6
)

// ParseGroupBy accepts the grouping names used by the API. Empty means none.
func ParseGroupBy(s string) (GroupBy, error) {
	switch g := GroupBy(strings.ToLower(strings.TrimSpace(s))); g {
	case "":
		return GroupByNone, nil
	case GroupByNone, GroupByDistrict, GroupByType, GroupByBedrooms, GroupByCell:
		return g, nil
	default:
		return "", fmt.Errorf("unknown group_by %q", s)
	}
}

// DistrictIndex resolves properties to districts and lists the table
type DistrictIndex interface {
	ResolveProperty(p *models.Property) (int, bool)
	Districts() []models.District
}

type Options struct {
	TopN          int
	CellPrecision uint
	// SeedDistricts adds a zero group for every table district
	SeedDistricts bool
	Districts     DistrictIndex
}

func DefaultOptions() Options {
	return Options{TopN: DefaultTopN, CellPrecision: DefaultCellPrecision}
}

// BedroomLabel is the group key of a raw bedroom count
func BedroomLabel(n int) string {
	if n >= 5 {
		return "5+"
	}
	return strconv.Itoa(n)
}

var bedroomSeeds = []string{"1", "2", "3", "4", "5+"}

// Summarize partitions properties by groupBy and computes the statistics of
// every group. An unrecognised groupBy aggregates everything under "all".
func Summarize(properties []models.Property, groupBy GroupBy, opts Options) map[string]models.GroupStats {
	groups := make(map[string][]models.Property)
	var seeds []string

	switch groupBy {
	case GroupByDistrict:
		for i := range properties {
			key := KeyUnknown
			if id, ok := resolveDistrict(&properties[i], opts.Districts); ok {
				key = strconv.Itoa(id)
			}
			groups[key] = append(groups[key], properties[i])
		}
		if opts.SeedDistricts && opts.Districts != nil {
			for _, d := range opts.Districts.Districts() {
				seeds = append(seeds, strconv.Itoa(d.ID))
			}
		}

	case GroupByType:
		for _, p := range properties {
			groups[string(p.PropertyType)] = append(groups[string(p.PropertyType)], p)
		}
		for _, t := range models.PropertyTypes {
			seeds = append(seeds, string(t))
		}

	case GroupByBedrooms:
		for _, p := range properties {
			key := KeyUnknown
			if p.Bedrooms != nil {
				key = BedroomLabel(*p.Bedrooms)
			}
			groups[key] = append(groups[key], p)
		}
		seeds = bedroomSeeds

	case GroupByCell:
		precision := opts.CellPrecision
		if precision == 0 {
			precision = DefaultCellPrecision
		}
		for _, p := range properties {
			key := geohash.EncodeWithPrecision(p.Latitude, p.Longitude, precision)
			groups[key] = append(groups[key], p)
		}

	default:
		groups[KeyAll] = properties
	}

	for _, key := range seeds {
		if _, ok := groups[key]; !ok {
			groups[key] = nil
		}
	}

	result := make(map[string]models.GroupStats, len(groups))
	for key, members := range groups {
		gs := Compute(members, opts.TopN)
		if groupBy == GroupByCell {
			lat, lng := geohash.DecodeCenter(key)
			gs.CellCenter = &models.Coordinate{Lat: lat, Lng: lng}
		}
		result[key] = gs
	}
	return result
}

// Compute aggregates one group. Averages are rounded half away from zero;
// an empty group yields zero values. The top list is ordered by price,
// highest first, with ties kept in input order.
func Compute(properties []models.Property, topN int) models.GroupStats {
	gs := models.GroupStats{
		TypeCounts:    make(map[models.PropertyType]int),
		BedroomCounts: make(map[string]int),
		Top:           []models.Property{},
	}
	if len(properties) == 0 {
		return gs
	}

	var priceSum, sqftSum float64
	minPrice, maxPrice := math.Inf(1), math.Inf(-1)
	for _, p := range properties {
		priceSum += p.RentalPrice
		sqftSum += p.Sqft
		minPrice = math.Min(minPrice, p.RentalPrice)
		maxPrice = math.Max(maxPrice, p.RentalPrice)

		gs.TypeCounts[p.PropertyType]++
		if p.Bedrooms != nil {
			gs.BedroomCounts[BedroomLabel(*p.Bedrooms)]++
		}
	}

	n := float64(len(properties))
	gs.Count = len(properties)
	gs.AveragePrice = roundInt(priceSum / n)
	gs.AverageSqft = roundInt(sqftSum / n)
	gs.MinPrice = roundInt(minPrice)
	gs.MaxPrice = roundInt(maxPrice)
	gs.Top = TopByPrice(properties, topN)
	return gs
}

// TopByPrice returns up to n properties with the highest rent
func TopByPrice(properties []models.Property, n int) []models.Property {
	if n <= 0 || len(properties) == 0 {
		return []models.Property{}
	}
	sorted := slices.Clone(properties)
	slices.SortStableFunc(sorted, func(a, b models.Property) int {
		return cmp.Compare(b.RentalPrice, a.RentalPrice)
	})
	return sorted[:min(n, len(sorted))]
}

func resolveDistrict(p *models.Property, index DistrictIndex) (int, bool) {
	if index != nil {
		return index.ResolveProperty(p)
	}
	if p.District != nil {
		return *p.District, true
	}
	return 0, false
}

// roundInt rounds half away from zero
func roundInt(v float64) int64 {
	return int64(math.Round(v))
}
