package domain

import (
	"context"
	"time"
)

type BookingRepository interface {
	// Write paths
	CreateBooking(ctx context.Context, b Booking) (int64, error)
	UpdateBookingStatus(ctx context.Context, id int64, status BookingStatus) error
	// DeleteBooking removes a user-origin booking outright. Import rows are
	// not deletable one by one; reimport replaces them.
	DeleteBooking(ctx context.Context, id int64) error
	// ConfirmBookingIfAvailable flips a booking to confirmed only if no other
	// confirmed/blocked booking overlaps its range, re-checking inside the
	// same transaction as the status flip. Returns ErrConflict otherwise.
	ConfirmBookingIfAvailable(ctx context.Context, id int64) error
	// ReplaceImportRanges atomically drops all prior origin=import rows for
	// the given properties and inserts the new batch as blocked ranges.
	// Concurrent readers see either the old batch or the new one, never a mix.
	ReplaceImportRanges(ctx context.Context, propertyIDs []int64, batch []ImportRange) error

	// Read paths
	GetBooking(ctx context.Context, id int64) (Booking, error)
	// ListGatingIntervals returns confirmed/blocked ranges on the property
	// ending after from, unclamped, ordered by start.
	ListGatingIntervals(ctx context.Context, propertyID int64, from time.Time) ([]OccupiedRange, error)
	// UnavailablePropertyIDs returns ids of properties having at least one
	// confirmed/blocked range overlapping [start,end).
	UnavailablePropertyIDs(ctx context.Context, start, end time.Time) ([]int64, error)
	ListInquiries(ctx context.Context, q InquiriesQuery) (InquiriesPage, error)
}

type PropertyRepository interface {
	GetProperty(ctx context.Context, id int64) (Property, error)
	ListProperties(ctx context.Context, q PropertiesQuery) ([]Property, error)
	// ResolveAmenities returns the amenities matching the given slugs;
	// unknown slugs are simply absent from the result.
	ResolveAmenities(ctx context.Context, slugs []string) ([]Amenity, error)
	// PropertyIDsWithAllAmenities returns ids of properties carrying every
	// one of the given amenities (superset semantics).
	PropertyIDsWithAllAmenities(ctx context.Context, amenityIDs []int64) ([]int64, error)
	// MapNodes resolves spreadsheet node identifiers to property ids.
	// Unmapped nodes are absent from the result.
	MapNodes(ctx context.Context, nodeIDs []string) (map[string]int64, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

// Queries

type SearchFilters struct {
	MinGuests            *int
	RequiredAmenitySlugs []string
	Start, End           *time.Time // both must be set to activate the date filter
	Name                 *string
	Category             *string
	Featured             *bool
}

type PropertiesQuery struct {
	MinGuests *int // properties with unknown capacity fail this filter
	Category  *string
	Featured  *bool
}

type InquiriesQuery struct {
	Query  string // substring match on client name, phone or property name
	Status *BookingStatus
	SortBy string // created_at | client_name | status
	Desc   bool
	Limit  int
	Offset int
}

type InquiriesPage struct {
	Items []Booking
	Total int
}
