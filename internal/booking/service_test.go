package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/sitter-hub/internal/models"
	"github.com/example/sitter-hub/internal/storage"
)

var now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

type fakePayments struct {
	held     []int64
	captured []string
	released []string
}

func (f *fakePayments) Hold(ctx context.Context, amount int64, currency string) (string, error) {
	f.held = append(f.held, amount)
	return "pi_test", nil
}
func (f *fakePayments) Capture(ctx context.Context, ref string) error {
	f.captured = append(f.captured, ref)
	return nil
}
func (f *fakePayments) Release(ctx context.Context, ref string) error {
	f.released = append(f.released, ref)
	return nil
}

type fakeNotifier struct{ offers []models.BookingOffer }

func (f *fakeNotifier) Offer(sitterID int64, offer models.BookingOffer) error {
	f.offers = append(f.offers, offer)
	return nil
}

func newService(t *testing.T) (*Service, *storage.MemoryStore, *fakePayments, *fakeNotifier) {
	t.Helper()
	store := storage.NewMemoryStore()
	pay := &fakePayments{}
	notif := &fakeNotifier{}
	svc := &Service{
		Bookings: store,
		Sitters:  store,
		Payments: pay,
		Notifier: notif,
		Currency: "bgn",
		Now:      func() time.Time { return now },
	}
	return svc, store, pay, notif
}

func seedSitter(t *testing.T, store *storage.MemoryStore) *models.Sitter {
	t.Helper()
	s := &models.Sitter{Email: "maria@example.bg", Name: "Maria", HourlyRate: 15.50, Rating: 4.8, ReviewsCount: 4}
	if err := store.CreateSitter(context.Background(), s); err != nil {
		t.Fatal(err)
	}
	return s
}

func TestCreateRejectsPastStart(t *testing.T) {
	svc, store, _, _ := newService(t)
	s := seedSitter(t, store)
	_, err := svc.Create(context.Background(), 1, s.ID, now.Add(-time.Hour), now.Add(time.Hour))
	if !errors.Is(err, models.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreateRejectsInvertedWindow(t *testing.T) {
	svc, store, _, _ := newService(t)
	s := seedSitter(t, store)
	_, err := svc.Create(context.Background(), 1, s.ID, now.Add(2*time.Hour), now.Add(time.Hour))
	if !errors.Is(err, models.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreateNotifiesSitter(t *testing.T) {
	svc, store, _, notif := newService(t)
	s := seedSitter(t, store)
	b, err := svc.Create(context.Background(), 1, s.ID, now.Add(time.Hour), now.Add(3*time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if b.Status != models.BookingPending {
		t.Fatalf("expected Pending, got %s", b.Status)
	}
	if len(notif.offers) != 1 || notif.offers[0].BookingID != b.ID {
		t.Fatalf("expected one offer for booking %d, got %+v", b.ID, notif.offers)
	}
}

func TestConfirmHoldsDeposit(t *testing.T) {
	svc, store, pay, _ := newService(t)
	s := seedSitter(t, store)
	b, err := svc.Create(context.Background(), 1, s.ID, now.Add(time.Hour), now.Add(3*time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.Confirm(context.Background(), s.ID, b.ID); err != nil {
		t.Fatal(err)
	}
	got, _ := store.GetBooking(context.Background(), b.ID)
	if got.Status != models.BookingConfirmed {
		t.Fatalf("expected Confirmed, got %s", got.Status)
	}
	// 2 hours at 15.50/h in minor units
	if len(pay.held) != 1 || pay.held[0] != 3100 {
		t.Fatalf("expected deposit of 3100, got %v", pay.held)
	}
}

func TestConfirmByWrongSitter(t *testing.T) {
	svc, store, _, _ := newService(t)
	s := seedSitter(t, store)
	b, _ := svc.Create(context.Background(), 1, s.ID, now.Add(time.Hour), now.Add(2*time.Hour))
	if err := svc.Confirm(context.Background(), s.ID+100, b.ID); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	got, _ := store.GetBooking(context.Background(), b.ID)
	if got.Status != models.BookingPending {
		t.Fatal("unauthorized confirm must not change state")
	}
}

func TestDeclineReleasesDeposit(t *testing.T) {
	svc, store, pay, _ := newService(t)
	s := seedSitter(t, store)
	b, _ := svc.Create(context.Background(), 1, s.ID, now.Add(time.Hour), now.Add(2*time.Hour))
	if err := svc.Confirm(context.Background(), s.ID, b.ID); err != nil {
		t.Fatal(err)
	}
	if err := svc.Decline(context.Background(), s.ID, b.ID); err != nil {
		t.Fatal(err)
	}
	if len(pay.released) != 1 {
		t.Fatalf("expected deposit release, got %v", pay.released)
	}
	got, _ := store.GetBooking(context.Background(), b.ID)
	if got.Status != models.BookingCancelled {
		t.Fatalf("expected Cancelled, got %s", got.Status)
	}
}

func TestCancelOnlyBeforeStart(t *testing.T) {
	svc, store, _, _ := newService(t)
	s := seedSitter(t, store)
	b, _ := svc.Create(context.Background(), 1, s.ID, now.Add(time.Hour), now.Add(2*time.Hour))

	if err := svc.Cancel(context.Background(), 99, b.ID); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for foreign parent, got %v", err)
	}

	svc.Now = func() time.Time { return now.Add(90 * time.Minute) } // booking underway
	if err := svc.Cancel(context.Background(), 1, b.ID); !errors.Is(err, models.ErrValidation) {
		t.Fatalf("expected validation error after start, got %v", err)
	}

	svc.Now = func() time.Time { return now }
	if err := svc.Cancel(context.Background(), 1, b.ID); err != nil {
		t.Fatal(err)
	}
}

func TestRateRejectsUnfinishedBooking(t *testing.T) {
	svc, store, _, _ := newService(t)
	s := seedSitter(t, store)
	b, _ := svc.Create(context.Background(), 1, s.ID, now.Add(time.Hour), now.Add(2*time.Hour))
	if err := svc.Rate(context.Background(), 1, b.ID, 5.0); !errors.Is(err, models.ErrValidation) {
		t.Fatalf("expected validation error for future end, got %v", err)
	}
	got, _ := store.GetSitter(context.Background(), s.ID)
	if got.ReviewsCount != 4 {
		t.Fatal("rejected rating must not mutate the sitter")
	}
}

func TestRateRejectsOutOfRange(t *testing.T) {
	svc, store, _, _ := newService(t)
	s := seedSitter(t, store)
	b, _ := svc.Create(context.Background(), 1, s.ID, now.Add(time.Hour), now.Add(2*time.Hour))
	for _, r := range []float64{-0.5, 5.5} {
		if err := svc.Rate(context.Background(), 1, b.ID, r); !errors.Is(err, models.ErrValidation) {
			t.Fatalf("rating %v: expected validation error, got %v", r, err)
		}
	}
}

func TestRateUpdatesRunningAverage(t *testing.T) {
	svc, store, pay, _ := newService(t)
	s := seedSitter(t, store)
	b, _ := svc.Create(context.Background(), 1, s.ID, now.Add(time.Hour), now.Add(2*time.Hour))
	if err := svc.Confirm(context.Background(), s.ID, b.ID); err != nil {
		t.Fatal(err)
	}

	svc.Now = func() time.Time { return now.Add(3 * time.Hour) }
	if err := svc.Rate(context.Background(), 1, b.ID, 3.0); err != nil {
		t.Fatal(err)
	}

	got, _ := store.GetSitter(context.Background(), s.ID)
	if got.Rating != 4.4 || got.ReviewsCount != 5 {
		t.Fatalf("expected 4.4 over 5 reviews, got %v over %d", got.Rating, got.ReviewsCount)
	}
	bk, _ := store.GetBooking(context.Background(), b.ID)
	if bk.Status != models.BookingCompleted {
		t.Fatalf("expected Completed, got %s", bk.Status)
	}
	if len(pay.captured) != 1 {
		t.Fatalf("expected deposit capture, got %v", pay.captured)
	}
}

func TestRateByForeignParent(t *testing.T) {
	svc, store, _, _ := newService(t)
	s := seedSitter(t, store)
	b, _ := svc.Create(context.Background(), 1, s.ID, now.Add(time.Hour), now.Add(2*time.Hour))
	svc.Now = func() time.Time { return now.Add(3 * time.Hour) }
	if err := svc.Rate(context.Background(), 42, b.ID, 5.0); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestListForUser(t *testing.T) {
	svc, store, _, _ := newService(t)
	s := seedSitter(t, store)
	if _, err := svc.Create(context.Background(), 1, s.ID, now.Add(time.Hour), now.Add(2*time.Hour)); err != nil {
		t.Fatal(err)
	}
	byParent, err := svc.ListForUser(context.Background(), 1, models.RoleParent)
	if err != nil {
		t.Fatal(err)
	}
	bySitter, err := svc.ListForUser(context.Background(), s.ID, models.RoleSitter)
	if err != nil {
		t.Fatal(err)
	}
	if len(byParent) != 1 || len(bySitter) != 1 {
		t.Fatalf("expected booking on both sides, got %d/%d", len(byParent), len(bySitter))
	}
}
