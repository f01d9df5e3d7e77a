package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"chalet_booking/internal/domain"
)

type QueryService struct {
	bookings  domain.BookingRepository
	inventory domain.PropertyRepository
	cache     domain.Cache
	cacheTTL  time.Duration
}

func NewQueryService(b domain.BookingRepository, p domain.PropertyRepository, c domain.Cache, ttl time.Duration) *QueryService {
	return &QueryService{bookings: b, inventory: p, cache: c, cacheTTL: ttl}
}

func propertyKey(id int64) string { return fmt.Sprintf("property:%d", id) }

func calendarKey(id int64, from time.Time) string {
	return fmt.Sprintf("calendar:%d:%s", id, from.Format(time.DateOnly))
}

func (s *QueryService) GetProperty(ctx context.Context, id int64) (domain.Property, error) {
	key := propertyKey(id)
	var p domain.Property
	if ok, _ := s.cache.Get(ctx, key, &p); ok {
		return p, nil
	}
	p, err := s.inventory.GetProperty(ctx, id)
	if err != nil {
		return domain.Property{}, err
	}
	_ = s.cache.Set(ctx, key, p, s.cacheTTL)
	return p, nil
}

// IsAvailable reports whether no confirmed or blocked range on the property
// overlaps [start,end). Pending inquiries are deliberately ignored: they do
// not gate other inquiries until an admin confirms one.
func (s *QueryService) IsAvailable(ctx context.Context, propertyID int64, start, end time.Time) (bool, error) {
	ranges, err := s.bookings.ListGatingIntervals(ctx, propertyID, start)
	if err != nil {
		return false, err
	}
	for _, r := range ranges {
		if domain.Overlaps(start, end, r.Start, r.End) {
			return false, nil
		}
	}
	return true, nil
}

// OccupiedRanges returns the confirmed/blocked ranges ending after from,
// with starts clamped to from. Calendar UIs render these dates, plus all
// dates before from, as disabled.
func (s *QueryService) OccupiedRanges(ctx context.Context, propertyID int64, from time.Time) ([]domain.OccupiedRange, error) {
	key := calendarKey(propertyID, from)
	var out []domain.OccupiedRange
	if ok, _ := s.cache.Get(ctx, key, &out); ok {
		return out, nil
	}

	raw, err := s.bookings.ListGatingIntervals(ctx, propertyID, from)
	if err != nil {
		return nil, err
	}
	out = make([]domain.OccupiedRange, 0, len(raw))
	for _, r := range raw {
		out = append(out, r.ClampStart(from))
	}
	_ = s.cache.Set(ctx, key, out, s.cacheTTL)
	return out, nil
}

// SearchProperties applies each active filter as an independent predicate
// and returns the properties passing all of them. No ordering is promised
// beyond what the inventory read provides.
func (s *QueryService) SearchProperties(ctx context.Context, f domain.SearchFilters) ([]domain.Property, error) {
	// Amenity pre-filter: resolve slugs, drop unknown ones with a warning,
	// then keep only properties carrying every resolved amenity.
	var allowed map[int64]struct{}
	if len(f.RequiredAmenitySlugs) > 0 {
		found, err := s.inventory.ResolveAmenities(ctx, f.RequiredAmenitySlugs)
		if err != nil {
			return nil, err
		}
		known := make(map[string]struct{}, len(found))
		ids := make([]int64, 0, len(found))
		for _, a := range found {
			known[a.Slug] = struct{}{}
			ids = append(ids, a.ID)
		}
		var unknown []string
		for _, slug := range f.RequiredAmenitySlugs {
			if _, ok := known[slug]; !ok {
				unknown = append(unknown, slug)
			}
		}
		if len(unknown) > 0 {
			log.Warn().Strs("slugs", unknown).Msg("unknown amenity slugs dropped from search")
		}
		if len(ids) == 0 {
			return nil, nil
		}
		propIDs, err := s.inventory.PropertyIDsWithAllAmenities(ctx, ids)
		if err != nil {
			return nil, err
		}
		if len(propIDs) == 0 {
			return nil, nil
		}
		allowed = make(map[int64]struct{}, len(propIDs))
		for _, id := range propIDs {
			allowed[id] = struct{}{}
		}
	}

	// Date filter: properties with any gating range overlapping the window
	// are excluded. Requires both ends of the window.
	var unavailable map[int64]struct{}
	if f.Start != nil && f.End != nil {
		ids, err := s.bookings.UnavailablePropertyIDs(ctx, *f.Start, *f.End)
		if err != nil {
			return nil, err
		}
		unavailable = make(map[int64]struct{}, len(ids))
		for _, id := range ids {
			unavailable[id] = struct{}{}
		}
	}

	props, err := s.inventory.ListProperties(ctx, domain.PropertiesQuery{
		MinGuests: f.MinGuests,
		Category:  f.Category,
		Featured:  f.Featured,
	})
	if err != nil {
		return nil, err
	}

	var nameNeedle string
	if f.Name != nil {
		nameNeedle = foldName(*f.Name)
	}

	out := props[:0]
	for _, p := range props {
		if allowed != nil {
			if _, ok := allowed[p.ID]; !ok {
				continue
			}
		}
		if unavailable != nil {
			if _, ok := unavailable[p.ID]; ok {
				continue
			}
		}
		if nameNeedle != "" && !containsFolded(p.Name, nameNeedle) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *QueryService) ListInquiries(ctx context.Context, q domain.InquiriesQuery) (domain.InquiriesPage, error) {
	return s.bookings.ListInquiries(ctx, q)
}
