package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/sitter-hub/internal/models"
)

func bookingFixture() models.Booking {
	return models.Booking{
		ID:       1,
		ParentID: 2,
		SitterID: 3,
		Start:    time.Now().Add(24 * time.Hour),
		End:      time.Now().Add(26 * time.Hour),
		Status:   models.BookingPending,
	}
}

func TestMemoryStoreApplyRating(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()
	s := &models.Sitter{Email: "maria@example.bg", Name: "Maria", Rating: 4.8, ReviewsCount: 4}
	if err := m.CreateSitter(ctx, s); err != nil {
		t.Fatal(err)
	}
	if err := m.ApplyRating(ctx, s.ID, 3.0); err != nil {
		t.Fatal(err)
	}
	got, err := m.GetSitter(ctx, s.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Rating != 4.4 || got.ReviewsCount != 5 {
		t.Fatalf("expected rating 4.4 over 5 reviews, got %v over %d", got.Rating, got.ReviewsCount)
	}
}

func TestMemoryStoreDuplicateEmail(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()
	if err := m.CreateSitter(ctx, &models.Sitter{Email: "Taken@example.bg"}); err != nil {
		t.Fatal(err)
	}
	err := m.CreateParent(ctx, &models.Parent{Email: "taken@example.bg"})
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestMemoryStoreBookingLifecycle(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()
	b := bookingFixture()
	if err := m.CreateBooking(ctx, &b); err != nil {
		t.Fatal(err)
	}
	b.Status = models.BookingConfirmed
	if err := m.UpdateBooking(ctx, &b); err != nil {
		t.Fatal(err)
	}
	got, err := m.GetBooking(ctx, b.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != models.BookingConfirmed {
		t.Fatalf("expected Confirmed, got %s", got.Status)
	}
	byParent, _ := m.ListBookingsByParent(ctx, b.ParentID)
	bySitter, _ := m.ListBookingsBySitter(ctx, b.SitterID)
	if len(byParent) != 1 || len(bySitter) != 1 {
		t.Fatalf("expected booking visible to both sides, got %d/%d", len(byParent), len(bySitter))
	}
	if _, err := m.GetBooking(ctx, 404); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
