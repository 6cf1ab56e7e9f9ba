package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/example/sitter-hub/internal/models"
	"github.com/example/sitter-hub/internal/observability"
	"github.com/example/sitter-hub/internal/storage"
)

// ErrUnauthorized means the acting user is not the booking's counterparty.
// Handlers reject silently, without leaking booking details.
var ErrUnauthorized = errors.New("unauthorized")

// Payments is the deposit surface; nil disables deposits entirely.
type Payments interface {
	Hold(ctx context.Context, amount int64, currency string) (string, error)
	Capture(ctx context.Context, ref string) error
	Release(ctx context.Context, ref string) error
}

// Notifier pushes offers to connected sitters, best-effort.
type Notifier interface {
	Offer(sitterID int64, offer models.BookingOffer) error
}

// Service owns the booking workflow: request, confirm/decline, cancel, rate.
type Service struct {
	Bookings storage.BookingStore
	Sitters  storage.SitterStore
	Payments Payments
	Notifier Notifier
	Currency string
	Logger   *slog.Logger
	Now      func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

// Create registers a pending booking request from a parent. The window must
// start in the future and end after it starts.
func (s *Service) Create(ctx context.Context, parentID, sitterID int64, start, end time.Time) (*models.Booking, error) {
	if !start.After(s.now()) {
		return nil, fmt.Errorf("%w: booking must start in the future", models.ErrValidation)
	}
	if !end.After(start) {
		return nil, fmt.Errorf("%w: end time must be after start time", models.ErrValidation)
	}
	if _, err := s.Sitters.GetSitter(ctx, sitterID); err != nil {
		return nil, err
	}
	b := &models.Booking{
		ParentID: parentID,
		SitterID: sitterID,
		Start:    start,
		End:      end,
		Status:   models.BookingPending,
	}
	if err := s.Bookings.CreateBooking(ctx, b); err != nil {
		return nil, err
	}
	observability.BookingsTotal.WithLabelValues(string(models.BookingPending)).Inc()
	if s.Notifier != nil {
		offer := models.BookingOffer{BookingID: b.ID, ParentID: parentID, Start: start, End: end}
		if err := s.Notifier.Offer(sitterID, offer); err != nil {
			s.logger().Debug("sitter not reachable for offer", "booking_id", b.ID, "error", err)
		}
	}
	return b, nil
}

// Confirm lets the booked sitter accept a pending request. A deposit hold is
// placed for the full window at the sitter's hourly rate when payments are
// wired.
func (s *Service) Confirm(ctx context.Context, sitterID, bookingID int64) error {
	b, err := s.Bookings.GetBooking(ctx, bookingID)
	if err != nil {
		return err
	}
	if b.SitterID != sitterID {
		return ErrUnauthorized
	}
	if b.Status != models.BookingPending {
		return fmt.Errorf("%w: booking is %s", models.ErrValidation, b.Status)
	}
	if s.Payments != nil {
		sitter, err := s.Sitters.GetSitter(ctx, b.SitterID)
		if err != nil {
			return err
		}
		ref, err := s.Payments.Hold(ctx, depositMinorUnits(sitter.HourlyRate, b.Start, b.End), s.Currency)
		if err != nil {
			return fmt.Errorf("hold deposit: %w", err)
		}
		b.PaymentRef = ref
	}
	b.Status = models.BookingConfirmed
	if err := s.Bookings.UpdateBooking(ctx, b); err != nil {
		return err
	}
	observability.BookingsTotal.WithLabelValues(string(models.BookingConfirmed)).Inc()
	return nil
}

// Decline lets the booked sitter reject a pending request.
func (s *Service) Decline(ctx context.Context, sitterID, bookingID int64) error {
	b, err := s.Bookings.GetBooking(ctx, bookingID)
	if err != nil {
		return err
	}
	if b.SitterID != sitterID {
		return ErrUnauthorized
	}
	return s.cancel(ctx, b)
}

// Cancel lets the requesting parent withdraw a booking before it starts.
func (s *Service) Cancel(ctx context.Context, parentID, bookingID int64) error {
	b, err := s.Bookings.GetBooking(ctx, bookingID)
	if err != nil {
		return err
	}
	if b.ParentID != parentID {
		return ErrUnauthorized
	}
	if !b.Start.After(s.now()) {
		return fmt.Errorf("%w: booking has already started", models.ErrValidation)
	}
	return s.cancel(ctx, b)
}

func (s *Service) cancel(ctx context.Context, b *models.Booking) error {
	if s.Payments != nil && b.PaymentRef != "" {
		if err := s.Payments.Release(ctx, b.PaymentRef); err != nil {
			s.logger().Warn("deposit release failed", "booking_id", b.ID, "error", err)
		}
	}
	b.Status = models.BookingCancelled
	if err := s.Bookings.UpdateBooking(ctx, b); err != nil {
		return err
	}
	observability.BookingsTotal.WithLabelValues(string(models.BookingCancelled)).Inc()
	return nil
}

// Rate records a parent's rating for a finished booking: only the booking's
// parent, only after the end time, rating within [0,5]. The sitter's running
// average moves by round1((old*count + new)/(count+1)) and the booking is
// marked completed; a held deposit is captured.
func (s *Service) Rate(ctx context.Context, parentID, bookingID int64, rating float64) error {
	if !models.ValidRating(rating) {
		return fmt.Errorf("%w: rating must be between 0 and 5", models.ErrValidation)
	}
	b, err := s.Bookings.GetBooking(ctx, bookingID)
	if err != nil {
		return err
	}
	if b.ParentID != parentID {
		return ErrUnauthorized
	}
	if !b.End.Before(s.now()) {
		return fmt.Errorf("%w: booking has not finished yet", models.ErrValidation)
	}
	if err := s.Sitters.ApplyRating(ctx, b.SitterID, rating); err != nil {
		return err
	}
	if s.Payments != nil && b.PaymentRef != "" {
		if err := s.Payments.Capture(ctx, b.PaymentRef); err != nil {
			s.logger().Warn("deposit capture failed", "booking_id", b.ID, "error", err)
		}
	}
	b.Status = models.BookingCompleted
	if err := s.Bookings.UpdateBooking(ctx, b); err != nil {
		return err
	}
	observability.RatingsTotal.Inc()
	observability.BookingsTotal.WithLabelValues(string(models.BookingCompleted)).Inc()
	return nil
}

// ListForUser returns the bookings visible to a user under the given role.
func (s *Service) ListForUser(ctx context.Context, userID int64, role models.Role) ([]models.Booking, error) {
	if role == models.RoleParent {
		return s.Bookings.ListBookingsByParent(ctx, userID)
	}
	return s.Bookings.ListBookingsBySitter(ctx, userID)
}

func depositMinorUnits(hourlyRate float64, start, end time.Time) int64 {
	hours := end.Sub(start).Hours()
	return int64(math.Round(hourlyRate * hours * 100))
}
