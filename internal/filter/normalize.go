package filter

import (
	"fmt"
	"math"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"rentalmap/internal/models"
)

// Query parameter names understood by Normalize
const (
	ParamDistrict = "district"
	ParamType     = "type"
	ParamBeds     = "beds"
	ParamSqftMin  = "sqft_min"
	ParamSqftMax  = "sqft_max"
)

// Normalize builds a FilterSpec from loosely typed input such as an HTTP
// query. Values that cannot be understood are dropped, never reported.
// Every parameter may be repeated or hold a comma separated list. When
// knownDistrict is set, ids it rejects are dropped as well.
func Normalize(raw url.Values, knownDistrict func(id int) bool) models.FilterSpec {
	var spec models.FilterSpec

	for _, v := range splitValues(raw[ParamDistrict]) {
		id, err := strconv.Atoi(v)
		if err != nil || id < 1 {
			continue
		}
		if knownDistrict != nil && !knownDistrict(id) {
			continue
		}
		spec.Districts = append(spec.Districts, id)
	}

	for _, v := range splitValues(raw[ParamType]) {
		if t, ok := parsePropertyType(v); ok {
			spec.PropertyTypes = append(spec.PropertyTypes, t)
		}
	}

	for _, v := range splitValues(raw[ParamBeds]) {
		n, err := strconv.Atoi(strings.TrimSuffix(v, "+"))
		if err != nil || n < 1 {
			continue
		}
		spec.Bedrooms = append(spec.Bedrooms, BedroomBucket(n))
	}

	spec.SqftMin = parseBound(raw.Get(ParamSqftMin))
	spec.SqftMax = parseBound(raw.Get(ParamSqftMax))
	if spec.SqftMin != nil && spec.SqftMax != nil && *spec.SqftMin > *spec.SqftMax {
		spec.SqftMin, spec.SqftMax = spec.SqftMax, spec.SqftMin
	}

	return Canonical(spec)
}

// Canonical sorts and de-duplicates every set in spec. Equal filters have
// equal canonical forms.
func Canonical(spec models.FilterSpec) models.FilterSpec {
	spec.Districts = sortedUnique(spec.Districts)
	spec.Bedrooms = sortedUnique(spec.Bedrooms)

	if len(spec.PropertyTypes) > 0 {
		types := slices.Clone(spec.PropertyTypes)
		slices.Sort(types)
		spec.PropertyTypes = slices.Compact(types)
	}
	return spec
}

// Key renders the canonical form of spec as a stable string
func Key(spec models.FilterSpec) string {
	spec = Canonical(spec)
	bound := func(v *float64) string {
		if v == nil {
			return "-"
		}
		return strconv.FormatFloat(*v, 'f', -1, 64)
	}
	return fmt.Sprintf("d=%v;t=%v;b=%v;s=%s..%s",
		spec.Districts, spec.PropertyTypes, spec.Bedrooms, bound(spec.SqftMin), bound(spec.SqftMax))
}

func splitValues(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func parsePropertyType(v string) (models.PropertyType, bool) {
	for _, t := range models.PropertyTypes {
		if strings.EqualFold(v, string(t)) {
			return t, true
		}
	}
	return "", false
}

func parseBound(v string) *float64 {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

func sortedUnique(values []int) []int {
	if len(values) == 0 {
		return nil
	}
	out := slices.Clone(values)
	slices.Sort(out)
	return slices.Compact(out)
}
