package domain

type Property struct {
	ID        int64
	Slug      string
	Name      string
	Category  string
	Guests    *int // nil when capacity is unknown
	MapNodeID *string
	Featured  bool
	Amenities []Amenity
}

type Amenity struct {
	ID       int64
	Slug     string
	Name     string
	Category string
}

// AmenitySlugs returns the slugs of the property's amenity set.
func (p Property) AmenitySlugs() []string {
	out := make([]string, 0, len(p.Amenities))
	for _, a := range p.Amenities {
		out = append(out, a.Slug)
	}
	return out
}
