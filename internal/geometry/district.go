package geometry

import (
	"fmt"
	"math"
	"os"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/sirupsen/logrus"

	"rentalmap/internal/models"
)

// DefaultProximityDegrees is the center-proximity threshold (about 2 km).
// Empirical, never validated against real boundaries.
const DefaultProximityDegrees = 0.02

// GeometryDataError reports a district table entry that cannot be used for
// geometry queries. It is detected when the table is loaded.
type GeometryDataError struct {
	DistrictID int
	Reason     string
}

func (e *GeometryDataError) Error() string {
	return fmt.Sprintf("invalid geometry for district %d: %s", e.DistrictID, e.Reason)
}

// Resolver answers which district a coordinate belongs to. It is read-only
// after construction and safe for concurrent use.
type Resolver struct {
	districts []models.District
	index     map[int]int
	threshold float64
	logger    *logrus.Logger
}

// NewResolver validates the district table and builds a resolver over it.
// Districts without boundary data get a synthetic square around their center.
func NewResolver(districts []models.District, threshold float64, logger *logrus.Logger) (*Resolver, error) {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	if threshold <= 0 {
		threshold = DefaultProximityDegrees
	}

	sorted := make([]models.District, len(districts))
	copy(sorted, districts)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	index := make(map[int]int, len(sorted))
	synthetic := 0
	for i := range sorted {
		d := &sorted[i]
		if _, dup := index[d.ID]; dup {
			return nil, &GeometryDataError{DistrictID: d.ID, Reason: "duplicate district id"}
		}
		index[d.ID] = i

		if len(d.Boundary) == 0 {
			d.Boundary = squareAround(orb.Point{d.Center.Lng, d.Center.Lat}, threshold)
			d.Synthetic = true
			synthetic++
			continue
		}

		ring := closeRing(d.Boundary)
		if distinctVertices(ring) < 3 {
			return nil, &GeometryDataError{DistrictID: d.ID, Reason: "boundary has fewer than 3 distinct vertices"}
		}
		if !isSimple(ring) {
			return nil, &GeometryDataError{DistrictID: d.ID, Reason: "boundary is self-intersecting"}
		}
		d.Boundary = ring
		d.Synthetic = false
	}

	logger.WithFields(logrus.Fields{
		"districts":           len(sorted),
		"synthetic_boundary":  synthetic,
		"proximity_threshold": threshold,
	}).Info("District resolver initialised")

	return &Resolver{
		districts: sorted,
		index:     index,
		threshold: threshold,
		logger:    logger,
	}, nil
}

// Threshold returns the center-proximity threshold in degrees
func (r *Resolver) Threshold() float64 {
	return r.threshold
}

// Districts returns a copy of the district table in ascending id order
func (r *Resolver) Districts() []models.District {
	out := make([]models.District, len(r.districts))
	copy(out, r.districts)
	return out
}

// District looks a district up by id
func (r *Resolver) District(id int) (models.District, bool) {
	i, ok := r.index[id]
	if !ok {
		return models.District{}, false
	}
	return r.districts[i], true
}

// ByRegion returns the districts of one macro-region in ascending id order
func (r *Resolver) ByRegion(region models.Region) []models.District {
	var out []models.District
	for _, d := range r.districts {
		if d.Region == region {
			out = append(out, d)
		}
	}
	return out
}

// DistrictContaining returns the district a coordinate falls in. Real
// boundaries are tested first in ascending id order; if none contains the
// point, the lowest-id district whose center is within the proximity
// threshold is returned. Dense areas can match several centers, so this
// fallback is approximate.
func (r *Resolver) DistrictContaining(lat, lng float64) (models.District, bool) {
	ids := r.Candidates(lat, lng)
	if len(ids) == 0 {
		return models.District{}, false
	}
	return r.District(ids[0])
}

// Candidates returns every district a coordinate may belong to, lowest id
// first. A polygon hit is authoritative and yields exactly one candidate;
// otherwise every district within the proximity threshold is returned.
func (r *Resolver) Candidates(lat, lng float64) []int {
	pt := orb.Point{lng, lat}
	for _, d := range r.districts {
		if !d.Synthetic && ringContains(d.Boundary, pt) {
			return []int{d.ID}
		}
	}

	var ids []int
	for _, d := range r.districts {
		if math.Abs(d.Center.Lat-lat) < r.threshold && math.Abs(d.Center.Lng-lng) < r.threshold {
			ids = append(ids, d.ID)
		}
	}
	return ids
}

// InAnyDistrict reports whether a property belongs to one of the given
// districts. A stored district is matched exactly; without one, any
// coordinate-derived candidate counts.
func (r *Resolver) InAnyDistrict(p *models.Property, ids map[int]struct{}) bool {
	if p.District != nil {
		_, ok := ids[*p.District]
		return ok
	}
	for _, id := range r.Candidates(p.Latitude, p.Longitude) {
		if _, ok := ids[id]; ok {
			return true
		}
	}
	return false
}

// ResolveProperty returns the district id a property belongs to: its stored
// district when present, otherwise the one derived from its coordinates.
func (r *Resolver) ResolveProperty(p *models.Property) (int, bool) {
	if p.District != nil {
		return *p.District, true
	}
	d, ok := r.DistrictContaining(p.Latitude, p.Longitude)
	if !ok {
		return 0, false
	}
	return d.ID, true
}

// FeatureCollection renders every district boundary as GeoJSON
func (r *Resolver) FeatureCollection() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, d := range r.districts {
		feature := geojson.NewFeature(orb.Polygon{d.Boundary})
		feature.ID = d.ID
		feature.Properties = geojson.Properties{
			"district_id": d.ID,
			"name":        d.Name,
			"region":      string(d.Region),
			"center":      []float64{d.Center.Lat, d.Center.Lng},
			"synthetic":   d.Synthetic,
		}
		fc.Append(feature)
	}
	return fc
}
