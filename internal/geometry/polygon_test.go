package geometry

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
)

func TestRingContains(t *testing.T) {
	square := orb.Ring{{0, 0}, {0, 10}, {10, 10}, {10, 0}, {0, 0}}
	notched := orb.Ring{{5, 5}, {0, 10}, {10, 10}, {10, 0}, {0, 0}, {5, 5}}

	tests := []struct {
		name string
		ring orb.Ring
		pt   orb.Point
		want bool
	}{
		{"Center of square", square, orb.Point{5, 5}, true},
		{"Outside square", square, orb.Point{15, 5}, false},
		{"Outside bound below", square, orb.Point{5, -1}, false},
		{"Ray through top vertex latitude", square, orb.Point{5, 10}, false},
		{"On bottom edge latitude", square, orb.Point{5, 0}, true},
		{"Inside notched body", notched, orb.Point{8, 5}, true},
		{"Inside the notch", notched, orb.Point{1, 5}, false},
		{"Degenerate ring", orb.Ring{{0, 0}, {1, 1}}, orb.Point{0, 0}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ringContains(tt.ring, tt.pt))
		})
	}
}

func TestRingContains_SharedEdgeCountedOnce(t *testing.T) {
	// Two squares sharing the edge at lat 5. A point on that latitude belongs
	// to exactly one of them under the half-open convention.
	lower := orb.Ring{{0, 0}, {0, 5}, {10, 5}, {10, 0}, {0, 0}}
	upper := orb.Ring{{0, 5}, {0, 10}, {10, 10}, {10, 5}, {0, 5}}
	pt := orb.Point{5, 5}

	hits := 0
	for _, ring := range []orb.Ring{lower, upper} {
		if ringContains(ring, pt) {
			hits++
		}
	}
	assert.Equal(t, 1, hits)
	assert.True(t, ringContains(upper, pt))
}

func TestCloseRing(t *testing.T) {
	ring := closeRing(orb.Ring{{0, 0}, {0, 0}, {1, 0}, {1, 1}})
	assert.Equal(t, orb.Ring{{0, 0}, {1, 0}, {1, 1}, {0, 0}}, ring)

	already := closeRing(orb.Ring{{0, 0}, {1, 0}, {1, 1}, {0, 0}})
	assert.Len(t, already, 4)
}

func TestIsSimple(t *testing.T) {
	assert.True(t, isSimple(orb.Ring{{0, 0}, {0, 1}, {1, 1}, {1, 0}, {0, 0}}))
	assert.True(t, isSimple(orb.Ring{{5, 5}, {0, 10}, {10, 10}, {10, 0}, {0, 0}, {5, 5}}))
	assert.False(t, isSimple(orb.Ring{{0, 0}, {1, 1}, {1, 0}, {0, 1}, {0, 0}}))
	assert.False(t, isSimple(orb.Ring{{0, 0}, {4, 0}, {4, 4}, {2, 0}, {0, 4}, {0, 0}}))
}

func TestSquareAround(t *testing.T) {
	sq := squareAround(orb.Point{103.8, 1.3}, 0.02)
	assert.Len(t, sq, 5)
	assert.True(t, sq[0].Equal(sq[4]))
	assert.True(t, ringContains(sq, orb.Point{103.81, 1.31}))
	assert.False(t, ringContains(sq, orb.Point{103.83, 1.3}))
}
