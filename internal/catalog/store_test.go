package catalog

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentalmap/internal/models"
)

func makeProperties(n int) []models.Property {
	out := make([]models.Property, n)
	for i := range out {
		out[i] = models.Property{
			ID:           fmt.Sprintf("p-%03d", i),
			PropertyType: models.PropertyTypeCondo,
			RentalPrice:  float64(2000 + i),
			Sqft:         500,
		}
	}
	return out
}

func TestValidatePage(t *testing.T) {
	tests := []struct {
		name    string
		page    Page
		wantErr bool
	}{
		{name: "Empty page", page: Page{}},
		{name: "Valid records", page: Page{Records: makeProperties(2), TotalCount: 2}},
		{name: "Negative total", page: Page{TotalCount: -1}, wantErr: true},
		{name: "Missing id", page: Page{Records: []models.Property{{ID: "a"}, {}}, TotalCount: 2}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePage(tt.page)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrMalformedPage)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestHasMore(t *testing.T) {
	assert.True(t, HasMore(0, 10, 11))
	assert.False(t, HasMore(0, 10, 10))
	assert.False(t, HasMore(1, 10, 20))
	assert.False(t, HasMore(0, 10, 0))
}

func TestStoreError(t *testing.T) {
	cause := errors.New("connection reset")
	err := error(&StoreError{Page: 3, Err: cause})

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "page 3")

	var storeErr *StoreError
	require.ErrorAs(t, fmt.Errorf("load aborted: %w", err), &storeErr)
	assert.Equal(t, 3, storeErr.Page)
}

func TestMemoryStore_FetchPage(t *testing.T) {
	store := NewMemoryStore(makeProperties(25), 10)
	ctx := context.Background()

	tests := []struct {
		name      string
		page      int
		wantLen   int
		wantFirst string
		wantMore  bool
	}{
		{name: "First page", page: 0, wantLen: 10, wantFirst: "p-000", wantMore: true},
		{name: "Second page", page: 1, wantLen: 10, wantFirst: "p-010", wantMore: true},
		{name: "Last partial page", page: 2, wantLen: 5, wantFirst: "p-020", wantMore: false},
		{name: "Past the end", page: 3, wantLen: 0, wantMore: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := store.FetchPage(ctx, tt.page)
			require.NoError(t, err)
			assert.Len(t, page.Records, tt.wantLen)
			assert.Equal(t, 25, page.TotalCount)
			assert.Equal(t, tt.wantMore, page.HasMore)
			if tt.wantLen > 0 {
				assert.Equal(t, tt.wantFirst, page.Records[0].ID)
			}
		})
	}
}

func TestMemoryStore_Errors(t *testing.T) {
	store := NewMemoryStore(makeProperties(3), 2)

	_, err := store.FetchPage(context.Background(), -1)
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = store.FetchPage(ctx, 0)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMemoryStore_ReplaceDoesNotAlias(t *testing.T) {
	records := makeProperties(2)
	store := NewMemoryStore(records, 5)
	records[0].ID = "mutated"

	page, err := store.FetchPage(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, "p-000", page.Records[0].ID)

	page.Records[1].ID = "also-mutated"
	again, err := store.FetchPage(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, "p-001", again.Records[1].ID)

	store.Replace(nil)
	assert.Equal(t, 0, store.Len())
}
