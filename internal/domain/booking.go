package domain

import "time"

type BookingStatus string

const (
	StatusPending   BookingStatus = "pending"
	StatusConfirmed BookingStatus = "confirmed"
	StatusCancelled BookingStatus = "cancelled"
	StatusBlocked   BookingStatus = "blocked"
)

type BookingOrigin string

const (
	OriginUser   BookingOrigin = "user"
	OriginImport BookingOrigin = "import"
)

// Booking is an occupied date range on a property: either a guest inquiry
// (origin=user) moving through pending/confirmed/cancelled, or a bulk-loaded
// block (origin=import, status=blocked). CheckIn is inclusive, CheckOut is
// exclusive, so the checkout day doubles as the next valid check-in day.
type Booking struct {
	ID           int64
	PropertyID   int64
	CheckIn      time.Time
	CheckOut     time.Time
	Guests       *int
	ClientName   string
	ClientPhone  string
	Status       BookingStatus
	Origin       BookingOrigin
	CreatedAt    time.Time
	PropertyName string // joined for admin lists
}

// GatesAvailability reports whether this booking makes its range unavailable.
// Pending inquiries deliberately do not gate: unconfirmed requests must not
// block each other before an admin decides.
func (b Booking) GatesAvailability() bool {
	return b.Status == StatusConfirmed || b.Status == StatusBlocked
}

// BlockedRange is one contiguous unavailable run emitted by the spreadsheet
// parser, keyed by the sheet's map-node identifier. End is exclusive: the
// first free day after the run.
type BlockedRange struct {
	NodeID string
	Start  time.Time
	End    time.Time
}

// ImportRange is a BlockedRange whose node has been resolved to a property.
type ImportRange struct {
	PropertyID int64
	Start      time.Time
	End        time.Time
}

// OccupiedRange is a confirmed-or-blocked span as served to calendar UIs.
type OccupiedRange struct {
	Start time.Time
	End   time.Time
}
