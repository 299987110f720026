package filter

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentalmap/internal/models"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		expected models.FilterSpec
	}{
		{
			name:     "Empty query",
			query:    "",
			expected: models.FilterSpec{},
		},
		{
			name:     "Repeated and comma separated districts",
			query:    "district=9&district=1,10&district=9",
			expected: models.FilterSpec{Districts: []int{1, 9, 10}},
		},
		{
			name:     "Invalid districts dropped",
			query:    "district=abc,-3,0",
			expected: models.FilterSpec{},
		},
		{
			name:  "Types are case insensitive",
			query: "type=condo,HDB,castle",
			expected: models.FilterSpec{
				PropertyTypes: []models.PropertyType{models.PropertyTypeCondo, models.PropertyTypeHDB},
			},
		},
		{
			name:     "Bedroom buckets",
			query:    "beds=2,5%2B,7,0,x",
			expected: models.FilterSpec{Bedrooms: []int{2, 5}},
		},
		{
			name:     "Sqft bounds",
			query:    "sqft_min=500&sqft_max=1200.5",
			expected: models.FilterSpec{SqftMin: floatPtr(500), SqftMax: floatPtr(1200.5)},
		},
		{
			name:     "Swapped sqft bounds",
			query:    "sqft_min=1500&sqft_max=500",
			expected: models.FilterSpec{SqftMin: floatPtr(500), SqftMax: floatPtr(1500)},
		},
		{
			name:     "Negative and non-numeric bounds dropped",
			query:    "sqft_min=-1&sqft_max=big",
			expected: models.FilterSpec{},
		},
		{
			name:     "Infinite bound dropped",
			query:    "sqft_max=Inf",
			expected: models.FilterSpec{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values, err := url.ParseQuery(tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, Normalize(values, nil))
		})
	}
}

func TestNormalize_KnownDistricts(t *testing.T) {
	known := func(id int) bool { return id <= 28 }
	spec := Normalize(url.Values{"district": {"3,29,28"}}, known)
	assert.Equal(t, []int{3, 28}, spec.Districts)
}

func TestKey(t *testing.T) {
	a := models.FilterSpec{Districts: []int{10, 9}, Bedrooms: []int{2}, SqftMin: floatPtr(500)}
	b := models.FilterSpec{Districts: []int{9, 10, 9}, Bedrooms: []int{2}, SqftMin: floatPtr(500)}
	c := models.FilterSpec{Districts: []int{9, 10}, Bedrooms: []int{2}, SqftMax: floatPtr(500)}

	assert.Equal(t, Key(a), Key(b))
	assert.NotEqual(t, Key(a), Key(c))
	assert.Equal(t, Key(models.FilterSpec{}), Key(models.FilterSpec{Districts: []int{}}))
}
