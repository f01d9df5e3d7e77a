package app_test

import (
	"context"
	"testing"
	"time"

	"chalet_booking/internal/app"
	"chalet_booking/internal/domain"
)

// ---- fakes ----

type fakeBookingRepo struct {
	bookings    map[int64]domain.Booking
	gating      map[int64][]domain.OccupiedRange
	unavailable []int64

	created    []domain.Booking
	nextID     int64
	confirmErr error
	confirmed  []int64
	statusSet  map[int64]domain.BookingStatus

	replacedIDs   []int64
	replacedBatch []domain.ImportRange

	inquiries domain.InquiriesPage
}

func (f *fakeBookingRepo) CreateBooking(ctx context.Context, b domain.Booking) (int64, error) {
	f.nextID++
	b.ID = f.nextID
	f.created = append(f.created, b)
	return b.ID, nil
}

func (f *fakeBookingRepo) UpdateBookingStatus(ctx context.Context, id int64, s domain.BookingStatus) error {
	if _, ok := f.bookings[id]; !ok {
		return domain.ErrNotFound
	}
	if f.statusSet == nil {
		f.statusSet = map[int64]domain.BookingStatus{}
	}
	f.statusSet[id] = s
	return nil
}

func (f *fakeBookingRepo) DeleteBooking(ctx context.Context, id int64) error {
	if _, ok := f.bookings[id]; !ok {
		return domain.ErrNotFound
	}
	delete(f.bookings, id)
	return nil
}

func (f *fakeBookingRepo) ConfirmBookingIfAvailable(ctx context.Context, id int64) error {
	if _, ok := f.bookings[id]; !ok {
		return domain.ErrNotFound
	}
	if f.confirmErr != nil {
		return f.confirmErr
	}
	f.confirmed = append(f.confirmed, id)
	return nil
}

func (f *fakeBookingRepo) ReplaceImportRanges(ctx context.Context, ids []int64, batch []domain.ImportRange) error {
	f.replacedIDs = ids
	f.replacedBatch = batch
	return nil
}

func (f *fakeBookingRepo) GetBooking(ctx context.Context, id int64) (domain.Booking, error) {
	b, ok := f.bookings[id]
	if !ok {
		return domain.Booking{}, domain.ErrNotFound
	}
	return b, nil
}

func (f *fakeBookingRepo) ListGatingIntervals(ctx context.Context, propertyID int64, from time.Time) ([]domain.OccupiedRange, error) {
	var out []domain.OccupiedRange
	for _, r := range f.gating[propertyID] {
		if r.End.After(from) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeBookingRepo) UnavailablePropertyIDs(ctx context.Context, start, end time.Time) ([]int64, error) {
	return f.unavailable, nil
}

func (f *fakeBookingRepo) ListInquiries(ctx context.Context, q domain.InquiriesQuery) (domain.InquiriesPage, error) {
	return f.inquiries, nil
}

type fakePropertyRepo struct {
	props     []domain.Property
	amenities []domain.Amenity
	withAll   []int64
	nodes     map[string]int64
}

func (f *fakePropertyRepo) GetProperty(ctx context.Context, id int64) (domain.Property, error) {
	for _, p := range f.props {
		if p.ID == id {
			return p, nil
		}
	}
	return domain.Property{}, domain.ErrNotFound
}

func (f *fakePropertyRepo) ListProperties(ctx context.Context, q domain.PropertiesQuery) ([]domain.Property, error) {
	var out []domain.Property
	for _, p := range f.props {
		if q.MinGuests != nil && (p.Guests == nil || *p.Guests < *q.MinGuests) {
			continue
		}
		if q.Category != nil && p.Category != *q.Category {
			continue
		}
		if q.Featured != nil && p.Featured != *q.Featured {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (f *fakePropertyRepo) ResolveAmenities(ctx context.Context, slugs []string) ([]domain.Amenity, error) {
	var out []domain.Amenity
	for _, s := range slugs {
		for _, a := range f.amenities {
			if a.Slug == s {
				out = append(out, a)
			}
		}
	}
	return out, nil
}

func (f *fakePropertyRepo) PropertyIDsWithAllAmenities(ctx context.Context, ids []int64) ([]int64, error) {
	return f.withAll, nil
}

func (f *fakePropertyRepo) MapNodes(ctx context.Context, nodeIDs []string) (map[string]int64, error) {
	out := map[string]int64{}
	for _, n := range nodeIDs {
		if id, ok := f.nodes[n]; ok {
			out[n] = id
		}
	}
	return out, nil
}

type fakeCache struct {
	store map[string]any
	dels  []string
}

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	if c.store == nil {
		return false, nil
	}
	v, ok := c.store[key]
	if !ok {
		return false, nil
	}
	switch d := dst.(type) {
	case *domain.Property:
		*d = v.(domain.Property)
	case *[]domain.OccupiedRange:
		*d = v.([]domain.OccupiedRange)
	}
	return true, nil
}

func (c *fakeCache) Set(ctx context.Context, key string, v any, ttl time.Duration) error {
	if c.store == nil {
		c.store = map[string]any{}
	}
	c.store[key] = v
	return nil
}

func (c *fakeCache) Del(ctx context.Context, key string) error {
	c.dels = append(c.dels, key)
	delete(c.store, key)
	return nil
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ptr[T any](v T) *T { return &v }

// ---- tests ----

func TestGetProperty_CacheMissThenHit(t *testing.T) {
	inv := &fakePropertyRepo{props: []domain.Property{{ID: 7, Name: "Cabaña del Lago"}}}
	cache := &fakeCache{}
	q := app.NewQueryService(&fakeBookingRepo{}, inv, cache, 10*time.Minute)

	p, err := q.GetProperty(context.Background(), 7)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if p.Name != "Cabaña del Lago" {
		t.Fatalf("unexpected property: %+v", p)
	}

	// Mutate repo to ensure second read indeed comes from cache
	inv.props[0].Name = "SHOULD NOT SEE THIS"

	p2, err := q.GetProperty(context.Background(), 7)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if p2.Name != "Cabaña del Lago" {
		t.Fatalf("expected cached name, got %s", p2.Name)
	}
}

func TestIsAvailable_PartialOverlapBlocks(t *testing.T) {
	repo := &fakeBookingRepo{gating: map[int64][]domain.OccupiedRange{
		1: {{Start: day(2024, 7, 1), End: day(2024, 7, 5)}},
	}}
	q := app.NewQueryService(repo, &fakePropertyRepo{}, &fakeCache{}, time.Minute)

	ok, err := q.IsAvailable(context.Background(), 1, day(2024, 7, 3), day(2024, 7, 6))
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if ok {
		t.Fatal("expected unavailable for overlapping window")
	}
}

func TestIsAvailable_AdjacentWindowsDoNotBlock(t *testing.T) {
	repo := &fakeBookingRepo{gating: map[int64][]domain.OccupiedRange{
		1: {{Start: day(2024, 7, 1), End: day(2024, 7, 5)}},
	}}
	q := app.NewQueryService(repo, &fakePropertyRepo{}, &fakeCache{}, time.Minute)

	ok, err := q.IsAvailable(context.Background(), 1, day(2024, 7, 5), day(2024, 7, 9))
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if !ok {
		t.Fatal("checkout day must be a valid check-in day")
	}
}

func TestOccupiedRanges_ClampsAndCaches(t *testing.T) {
	repo := &fakeBookingRepo{gating: map[int64][]domain.OccupiedRange{
		3: {
			{Start: day(2024, 6, 20), End: day(2024, 7, 2)}, // straddles from
			{Start: day(2024, 7, 10), End: day(2024, 7, 12)},
		},
	}}
	cache := &fakeCache{}
	q := app.NewQueryService(repo, &fakePropertyRepo{}, cache, time.Minute)

	from := day(2024, 7, 1)
	out, err := q.OccupiedRanges(context.Background(), 3, from)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("want 2 ranges, got %d", len(out))
	}
	if !out[0].Start.Equal(from) {
		t.Fatalf("straddling range must be clamped to from, got %v", out[0].Start)
	}
	if !out[1].Start.Equal(day(2024, 7, 10)) {
		t.Fatalf("future range must keep its start, got %v", out[1].Start)
	}

	// Second read comes from the cache, not the repo.
	repo.gating[3] = nil
	out2, _ := q.OccupiedRanges(context.Background(), 3, from)
	if len(out2) != 2 {
		t.Fatalf("expected cached ranges, got %d", len(out2))
	}
}

func TestSearchProperties_GuestsFilter(t *testing.T) {
	inv := &fakePropertyRepo{props: []domain.Property{
		{ID: 1, Name: "Small", Guests: ptr(4)},
		{ID: 2, Name: "Big", Guests: ptr(8)},
		{ID: 3, Name: "Unknown"}, // nil capacity
	}}
	q := app.NewQueryService(&fakeBookingRepo{}, inv, &fakeCache{}, time.Minute)

	out, err := q.SearchProperties(context.Background(), domain.SearchFilters{MinGuests: ptr(6)})
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if len(out) != 1 || out[0].ID != 2 {
		t.Fatalf("want only property 2, got %+v", out)
	}
}

func TestSearchProperties_AmenitySuperset(t *testing.T) {
	inv := &fakePropertyRepo{
		props: []domain.Property{
			{ID: 1, Name: "Has both"},
			{ID: 2, Name: "Has one"},
		},
		amenities: []domain.Amenity{{ID: 10, Slug: "wifi"}, {ID: 11, Slug: "pool"}},
		withAll:   []int64{1},
	}
	q := app.NewQueryService(&fakeBookingRepo{}, inv, &fakeCache{}, time.Minute)

	out, err := q.SearchProperties(context.Background(), domain.SearchFilters{
		RequiredAmenitySlugs: []string{"wifi", "pool"},
	})
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if len(out) != 1 || out[0].ID != 1 {
		t.Fatalf("want only property 1, got %+v", out)
	}
}

func TestSearchProperties_UnknownSlugsDropped(t *testing.T) {
	inv := &fakePropertyRepo{
		props:     []domain.Property{{ID: 1}, {ID: 2}},
		amenities: []domain.Amenity{{ID: 10, Slug: "wifi"}},
		withAll:   []int64{1, 2},
	}
	q := app.NewQueryService(&fakeBookingRepo{}, inv, &fakeCache{}, time.Minute)

	// "jacuzzi" is unknown; the filter falls back to the known slugs only.
	out, err := q.SearchProperties(context.Background(), domain.SearchFilters{
		RequiredAmenitySlugs: []string{"wifi", "jacuzzi"},
	})
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("want both properties, got %+v", out)
	}

	// All slugs unknown: nothing can match.
	out, err = q.SearchProperties(context.Background(), domain.SearchFilters{
		RequiredAmenitySlugs: []string{"jacuzzi"},
	})
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("want empty result for all-unknown slugs, got %+v", out)
	}
}

func TestSearchProperties_DateWindowExcludesBlocked(t *testing.T) {
	inv := &fakePropertyRepo{props: []domain.Property{{ID: 1}, {ID: 2}}}
	repo := &fakeBookingRepo{unavailable: []int64{2}}
	q := app.NewQueryService(repo, inv, &fakeCache{}, time.Minute)

	out, err := q.SearchProperties(context.Background(), domain.SearchFilters{
		Start: ptr(day(2024, 7, 1)),
		End:   ptr(day(2024, 7, 5)),
	})
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if len(out) != 1 || out[0].ID != 1 {
		t.Fatalf("want only property 1, got %+v", out)
	}
}

func TestSearchProperties_NameIgnoresCaseAndDiacritics(t *testing.T) {
	inv := &fakePropertyRepo{props: []domain.Property{
		{ID: 1, Name: "Cabaña del Lago"},
		{ID: 2, Name: "Refugio Alpino"},
	}}
	q := app.NewQueryService(&fakeBookingRepo{}, inv, &fakeCache{}, time.Minute)

	out, err := q.SearchProperties(context.Background(), domain.SearchFilters{Name: ptr("CABANA")})
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if len(out) != 1 || out[0].ID != 1 {
		t.Fatalf("want only the cabaña, got %+v", out)
	}
}
