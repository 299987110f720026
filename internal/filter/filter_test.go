package filter

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentalmap/config"
	"rentalmap/internal/geometry"
	"rentalmap/internal/models"
)

func intPtr(v int) *int             { return &v }
func floatPtr(v float64) *float64 { return &v }

func newResolver(t *testing.T) *geometry.Resolver {
	districts, err := config.LoadDistricts()
	require.NoError(t, err)

	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	resolver, err := geometry.NewResolver(districts, geometry.DefaultProximityDegrees, logger)
	require.NoError(t, err)
	return resolver
}

func sample() []models.Property {
	return []models.Property{
		{ID: "a", PropertyType: models.PropertyTypeCondo, District: intPtr(1), Bedrooms: intPtr(1), Sqft: 450, RentalPrice: 3200},
		{ID: "b", PropertyType: models.PropertyTypeHDB, District: intPtr(9), Bedrooms: intPtr(3), Sqft: 900, RentalPrice: 2800},
		{ID: "c", PropertyType: models.PropertyTypeLanded, District: intPtr(10), Bedrooms: intPtr(7), Sqft: 3500, RentalPrice: 12000},
		{ID: "d", PropertyType: models.PropertyTypeCondo, Bedrooms: nil, Sqft: 700, RentalPrice: 4100, Latitude: 1.2850, Longitude: 103.8500},
		{ID: "e", PropertyType: models.PropertyTypeHDB, District: intPtr(18), Bedrooms: intPtr(0), Sqft: 300, RentalPrice: 1500},
		{ID: "f", PropertyType: models.PropertyTypeCondo, Bedrooms: intPtr(2), Sqft: 800, RentalPrice: 3900, Latitude: 1.2, Longitude: 104.1},
	}
}

func idsOf(properties []models.Property) []string {
	out := make([]string, len(properties))
	for i, p := range properties {
		out[i] = p.ID
	}
	return out
}

func TestBedroomBucket(t *testing.T) {
	assert.Equal(t, 0, BedroomBucket(0))
	assert.Equal(t, 4, BedroomBucket(4))
	assert.Equal(t, 5, BedroomBucket(5))
	assert.Equal(t, 5, BedroomBucket(9))
}

func TestApply(t *testing.T) {
	resolver := newResolver(t)

	tests := []struct {
		name     string
		spec     models.FilterSpec
		expected []string
	}{
		{
			name:     "Empty spec keeps everything",
			spec:     models.FilterSpec{},
			expected: []string{"a", "b", "c", "d", "e", "f"},
		},
		{
			name:     "District uses stored id or polygon",
			spec:     models.FilterSpec{Districts: []int{1}},
			expected: []string{"a", "d"},
		},
		{
			name:     "Districts are ORed",
			spec:     models.FilterSpec{Districts: []int{9, 10}},
			expected: []string{"b", "c"},
		},
		{
			name:     "Unresolvable coordinates fail a district filter",
			spec:     models.FilterSpec{Districts: []int{1, 2, 3, 9, 10, 18}},
			expected: []string{"a", "b", "c", "d", "e"},
		},
		{
			name:     "Type",
			spec:     models.FilterSpec{PropertyTypes: []models.PropertyType{models.PropertyTypeCondo}},
			expected: []string{"a", "d", "f"},
		},
		{
			name:     "Bedrooms 5+ bucket",
			spec:     models.FilterSpec{Bedrooms: []int{5}},
			expected: []string{"c"},
		},
		{
			name:     "Unknown bedrooms and studios are excluded",
			spec:     models.FilterSpec{Bedrooms: []int{1, 2, 3, 4, 5}},
			expected: []string{"a", "b", "c", "f"},
		},
		{
			name:     "Sqft range is inclusive",
			spec:     models.FilterSpec{SqftMin: floatPtr(700), SqftMax: floatPtr(900)},
			expected: []string{"b", "d", "f"},
		},
		{
			name: "Fields are ANDed",
			spec: models.FilterSpec{
				PropertyTypes: []models.PropertyType{models.PropertyTypeCondo, models.PropertyTypeHDB},
				Bedrooms:      []int{2, 3},
				SqftMin:       floatPtr(850),
			},
			expected: []string{"b"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Apply(sample(), tt.spec, resolver)
			assert.Equal(t, tt.expected, idsOf(got))
		})
	}
}

func TestApply_BedroomsAboveFive(t *testing.T) {
	seven := []models.Property{{ID: "x", PropertyType: models.PropertyTypeLanded, Bedrooms: intPtr(7), Sqft: 4000, RentalPrice: 15000}}

	assert.Len(t, Apply(seven, models.FilterSpec{Bedrooms: []int{5}}, nil), 1)
	assert.Empty(t, Apply(seven, models.FilterSpec{Bedrooms: []int{4}}, nil))
	assert.Len(t, Apply(seven, models.FilterSpec{Bedrooms: []int{7}}, nil), 1)
}

func TestApply_StudioNeedsZeroInSet(t *testing.T) {
	studio := []models.Property{{ID: "s", Bedrooms: intPtr(0), Sqft: 300}}

	assert.Empty(t, Apply(studio, models.FilterSpec{Bedrooms: []int{1}}, nil))
	assert.Len(t, Apply(studio, models.FilterSpec{Bedrooms: []int{0}}, nil), 1)
}

func TestApply_NilDistrictNearCenterFallback(t *testing.T) {
	resolver := newResolver(t)
	nine, ok := resolver.District(9)
	require.True(t, ok)

	near := []models.Property{{
		ID:           "near-9",
		PropertyType: models.PropertyTypeCondo,
		Sqft:         800,
		RentalPrice:  4000,
		Latitude:     nine.Center.Lat + 0.005,
		Longitude:    nine.Center.Lng + 0.005,
	}}

	assert.Len(t, Apply(near, models.FilterSpec{Districts: []int{9}}, resolver), 1)
	assert.Empty(t, Apply(near, models.FilterSpec{Districts: []int{18}}, resolver))
}

func TestApply_WithoutResolverUsesStoredDistrict(t *testing.T) {
	got := Apply(sample(), models.FilterSpec{Districts: []int{1}}, nil)
	assert.Equal(t, []string{"a"}, idsOf(got))
}

func TestApply_Idempotent(t *testing.T) {
	resolver := newResolver(t)
	specs := []models.FilterSpec{
		{},
		{Districts: []int{1, 9}},
		{Bedrooms: []int{5}, PropertyTypes: []models.PropertyType{models.PropertyTypeLanded}},
		{SqftMin: floatPtr(400), SqftMax: floatPtr(1000)},
	}

	for _, spec := range specs {
		once := Apply(sample(), spec, resolver)
		twice := Apply(once, spec, resolver)
		assert.Equal(t, once, twice)
	}
}

func TestApply_MonotonicNarrowing(t *testing.T) {
	resolver := newResolver(t)
	base := models.FilterSpec{PropertyTypes: []models.PropertyType{models.PropertyTypeCondo, models.PropertyTypeHDB}}
	narrower := base
	narrower.SqftMin = floatPtr(600)
	narrowest := narrower
	narrowest.Districts = []int{9}

	wide := idsOf(Apply(sample(), base, resolver))
	mid := idsOf(Apply(sample(), narrower, resolver))
	small := idsOf(Apply(sample(), narrowest, resolver))

	assert.Subset(t, wide, mid)
	assert.Subset(t, mid, small)
	assert.Equal(t, []string{"b"}, small)
}

func TestMatches(t *testing.T) {
	p := sample()[2]
	assert.True(t, Matches(&p, models.FilterSpec{Bedrooms: []int{5}}, nil))
	assert.False(t, Matches(&p, models.FilterSpec{SqftMax: floatPtr(1000)}, nil))
}
