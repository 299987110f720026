package geometry

import (
	"github.com/paulmach/orb"
)

// ringContains reports whether pt lies inside ring using ray casting.
// An edge is counted only when the point's latitude lies in [min, max) of
// the edge's latitude span, so a ray passing through a shared vertex is
// never counted twice.
func ringContains(ring orb.Ring, pt orb.Point) bool {
	n := len(ring)
	if n < 3 {
		return false
	}
	if !ring.Bound().Contains(pt) {
		return false
	}

	lng, lat := pt[0], pt[1]
	inside := false
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		a, b := ring[i], ring[j]
		if (a[1] > lat) == (b[1] > lat) {
			continue
		}
		cross := a[0] + (lat-a[1])*(b[0]-a[0])/(b[1]-a[1])
		if lng < cross {
			inside = !inside
		}
	}
	return inside
}

// closeRing returns ring with consecutive duplicates dropped and the first
// vertex repeated at the end.
func closeRing(ring orb.Ring) orb.Ring {
	out := make(orb.Ring, 0, len(ring)+1)
	for _, p := range ring {
		if len(out) > 0 && out[len(out)-1].Equal(p) {
			continue
		}
		out = append(out, p)
	}
	if len(out) > 0 && !out[0].Equal(out[len(out)-1]) {
		out = append(out, out[0])
	}
	return out
}

// distinctVertices counts the unique vertices of a closed ring
func distinctVertices(ring orb.Ring) int {
	seen := make(map[orb.Point]struct{}, len(ring))
	for _, p := range ring {
		seen[p] = struct{}{}
	}
	return len(seen)
}

// isSimple reports whether a closed ring has no self-intersections.
// Adjacent edges are allowed to share their common vertex only.
func isSimple(ring orb.Ring) bool {
	edges := len(ring) - 1
	for i := 0; i < edges; i++ {
		a1, a2 := ring[i], ring[i+1]
		for j := i + 1; j < edges; j++ {
			b1, b2 := ring[j], ring[j+1]
			adjacent := j == i+1 || (i == 0 && j == edges-1)
			if adjacent {
				// sharing the vertex is fine, folding back over the edge is not
				if collinearOverlap(a1, a2, b1, b2) {
					return false
				}
				continue
			}
			if segmentsIntersect(a1, a2, b1, b2) {
				return false
			}
		}
	}
	return true
}

func orientation(p, q, r orb.Point) float64 {
	return (q[0]-p[0])*(r[1]-p[1]) - (q[1]-p[1])*(r[0]-p[0])
}

func onSegment(p, q, r orb.Point) bool {
	return min(p[0], r[0]) <= q[0] && q[0] <= max(p[0], r[0]) &&
		min(p[1], r[1]) <= q[1] && q[1] <= max(p[1], r[1])
}

func segmentsIntersect(p1, p2, q1, q2 orb.Point) bool {
	d1 := orientation(q1, q2, p1)
	d2 := orientation(q1, q2, p2)
	d3 := orientation(p1, p2, q1)
	d4 := orientation(p1, p2, q2)

	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}

	switch {
	case d1 == 0 && onSegment(q1, p1, q2):
		return true
	case d2 == 0 && onSegment(q1, p2, q2):
		return true
	case d3 == 0 && onSegment(p1, q1, p2):
		return true
	case d4 == 0 && onSegment(p1, q2, p2):
		return true
	}
	return false
}

// collinearOverlap detects two edges sharing a vertex that run back along
// each other.
func collinearOverlap(a1, a2, b1, b2 orb.Point) bool {
	if orientation(a1, a2, b1) != 0 || orientation(a1, a2, b2) != 0 {
		return false
	}
	var shared, ea, eb orb.Point
	switch {
	case a2.Equal(b1):
		shared, ea, eb = a2, a1, b2
	case a1.Equal(b2):
		shared, ea, eb = a1, a2, b1
	default:
		return true
	}
	// same direction from the shared vertex means the edges overlap
	return (ea[0]-shared[0])*(eb[0]-shared[0])+(ea[1]-shared[1])*(eb[1]-shared[1]) > 0
}

// squareAround builds the synthetic boundary used for districts without
// boundary data.
func squareAround(center orb.Point, half float64) orb.Ring {
	return orb.Ring{
		{center[0] - half, center[1] + half},
		{center[0] + half, center[1] + half},
		{center[0] + half, center[1] - half},
		{center[0] - half, center[1] - half},
		{center[0] - half, center[1] + half},
	}
}
