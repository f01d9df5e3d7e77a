package app

import (
	"context"
	"fmt"
	"time"

	"chalet_booking/internal/domain"
)

type BookingService struct {
	repo  domain.BookingRepository
	cache domain.Cache
}

func NewBookingService(r domain.BookingRepository, c domain.Cache) *BookingService {
	return &BookingService{repo: r, cache: c}
}

type BookingRequest struct {
	PropertyID  int64
	CheckIn     time.Time
	CheckOut    time.Time
	Guests      *int
	ClientName  string
	ClientPhone string
}

// CreateInquiry records a guest booking request as a pending interval.
// No availability gate runs here: overlapping pending inquiries are allowed
// so that unconfirmed requests never contend with each other; only the
// confirm step is authoritative.
func (s *BookingService) CreateInquiry(ctx context.Context, req BookingRequest) (int64, error) {
	if !req.CheckOut.After(req.CheckIn) {
		return 0, fmt.Errorf("%w: check_out must fall after check_in", domain.ErrInvalidRange)
	}
	id, err := s.repo.CreateBooking(ctx, domain.Booking{
		PropertyID:  req.PropertyID,
		CheckIn:     req.CheckIn,
		CheckOut:    req.CheckOut,
		Guests:      req.Guests,
		ClientName:  req.ClientName,
		ClientPhone: req.ClientPhone,
		Status:      domain.StatusPending,
		Origin:      domain.OriginUser,
	})
	if err != nil {
		return 0, fmt.Errorf("create inquiry: %w", err)
	}
	return id, nil
}

// Confirm flips an inquiry to confirmed. The repository re-validates the
// overlap predicate against other confirmed/blocked ranges inside the same
// transaction as the status flip and returns ErrConflict when the window is
// already taken, closing the race between two overlapping pending inquiries.
func (s *BookingService) Confirm(ctx context.Context, id int64) error {
	b, err := s.repo.GetBooking(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.ConfirmBookingIfAvailable(ctx, id); err != nil {
		return err
	}
	s.invalidateCalendar(ctx, b.PropertyID)
	return nil
}

// Delete removes a guest inquiry outright. Import-derived rows are not
// deletable here; the next import replaces them wholesale.
func (s *BookingService) Delete(ctx context.Context, id int64) error {
	b, err := s.repo.GetBooking(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteBooking(ctx, id); err != nil {
		return err
	}
	s.invalidateCalendar(ctx, b.PropertyID)
	return nil
}

func (s *BookingService) Cancel(ctx context.Context, id int64) error {
	b, err := s.repo.GetBooking(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.UpdateBookingStatus(ctx, id, domain.StatusCancelled); err != nil {
		return err
	}
	s.invalidateCalendar(ctx, b.PropertyID)
	return nil
}

// invalidateCalendar clears the calendar cache variant the API serves by
// default (from = today). Other horizons age out via TTL.
func (s *BookingService) invalidateCalendar(ctx context.Context, propertyID int64) {
	if s.cache == nil {
		return
	}
	today := time.Now().UTC().Truncate(24 * time.Hour)
	_ = s.cache.Del(ctx, calendarKey(propertyID, today))
}
