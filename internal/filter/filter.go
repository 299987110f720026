package filter

import (
	"rentalmap/internal/models"
)

// MaxBedroomBucket is the "5 or more" bedroom bucket
const MaxBedroomBucket = 5

// DistrictResolver decides district membership for properties. A stored
// district is authoritative; otherwise the coordinates are used.
type DistrictResolver interface {
	InAnyDistrict(p *models.Property, ids map[int]struct{}) bool
}

// BedroomBucket maps a raw bedroom count onto its bucket
func BedroomBucket(n int) int {
	return min(n, MaxBedroomBucket)
}

// Apply returns the properties matching spec, in input order.
// Fields are combined with AND, values within a field with OR.
func Apply(properties []models.Property, spec models.FilterSpec, resolver DistrictResolver) []models.Property {
	c := compile(spec)
	out := make([]models.Property, 0, len(properties))
	for i := range properties {
		if c.matches(&properties[i], resolver) {
			out = append(out, properties[i])
		}
	}
	return out
}

// Matches reports whether a single property passes spec
func Matches(p *models.Property, spec models.FilterSpec, resolver DistrictResolver) bool {
	return compile(spec).matches(p, resolver)
}

type compiled struct {
	districts map[int]struct{}
	types     map[models.PropertyType]struct{}
	bedrooms  map[int]struct{}
	sqftMin   *float64
	sqftMax   *float64
}

func compile(spec models.FilterSpec) compiled {
	c := compiled{sqftMin: spec.SqftMin, sqftMax: spec.SqftMax}
	if len(spec.Districts) > 0 {
		c.districts = make(map[int]struct{}, len(spec.Districts))
		for _, id := range spec.Districts {
			c.districts[id] = struct{}{}
		}
	}
	if len(spec.PropertyTypes) > 0 {
		c.types = make(map[models.PropertyType]struct{}, len(spec.PropertyTypes))
		for _, t := range spec.PropertyTypes {
			c.types[t] = struct{}{}
		}
	}
	if len(spec.Bedrooms) > 0 {
		c.bedrooms = make(map[int]struct{}, len(spec.Bedrooms))
		for _, b := range spec.Bedrooms {
			c.bedrooms[b] = struct{}{}
		}
	}
	return c
}

func (c compiled) matches(p *models.Property, resolver DistrictResolver) bool {
	if c.districts != nil && !c.inDistrict(p, resolver) {
		return false
	}

	if c.types != nil {
		if _, ok := c.types[p.PropertyType]; !ok {
			return false
		}
	}

	if c.bedrooms != nil {
		if p.Bedrooms == nil {
			return false
		}
		raw := *p.Bedrooms
		_, exact := c.bedrooms[raw]
		if raw >= MaxBedroomBucket {
			_, fivePlus := c.bedrooms[MaxBedroomBucket]
			if !fivePlus && !exact {
				return false
			}
		} else if !exact {
			return false
		}
	}

	if c.sqftMin != nil && p.Sqft < *c.sqftMin {
		return false
	}
	if c.sqftMax != nil && p.Sqft > *c.sqftMax {
		return false
	}
	return true
}

func (c compiled) inDistrict(p *models.Property, resolver DistrictResolver) bool {
	if resolver != nil {
		return resolver.InAnyDistrict(p, c.districts)
	}
	if p.District == nil {
		return false
	}
	_, ok := c.districts[*p.District]
	return ok
}
