package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/example/sitter-hub/internal/account"
	"github.com/example/sitter-hub/internal/booking"
	"github.com/example/sitter-hub/internal/discovery"
	"github.com/example/sitter-hub/internal/models"
	"github.com/example/sitter-hub/internal/storage"
)

type stubGeocoder struct{}

func (stubGeocoder) Geocode(ctx context.Context, address string) (models.Coordinate, bool) {
	if strings.Contains(address, "Непозната") {
		return models.Coordinate{}, false
	}
	return models.NewCoordinate(42.6977, 23.3217), true
}

func newTestServer(t *testing.T) (*Server, *storage.MemoryStore) {
	t.Helper()
	store := storage.NewMemoryStore()
	logger := slog.New(slog.NewTextHandler(&strings.Builder{}, nil))
	disc := &discovery.Service{Repo: store, AffordableThreshold: 15.0, SpotlightLimit: 6}
	acc := &account.Service{Store: store, Geocoder: stubGeocoder{}, Logger: logger}
	book := &booking.Service{Bookings: store, Sitters: store, Logger: logger}
	return NewServer(disc, acc, book, store, nil, logger), store
}

func seed(t *testing.T, store *storage.MemoryStore) {
	t.Helper()
	sitters := []models.Sitter{
		{Email: "m@x.bg", Name: "Maria", City: "София", HourlyRate: 15.50, ExperienceYears: 5, Rating: 4.8, Coord: models.NewCoordinate(42.6977, 23.3217)},
		{Email: "i@x.bg", Name: "Ivana", City: "Пловдив", HourlyRate: 12.00, ExperienceYears: 2, Rating: 4.5, Coord: models.NewCoordinate(42.1354, 24.7453)},
	}
	for i := range sitters {
		if err := store.CreateSitter(context.Background(), &sitters[i]); err != nil {
			t.Fatal(err)
		}
	}
}

func TestSearchSittersEndpoint(t *testing.T) {
	srv, store := newTestServer(t)
	seed(t, store)

	req := httptest.NewRequest("GET", "/api/v1/sitters?sort=experience", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
	}
	var res discovery.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if len(res.Sitters) != 2 || res.Sitters[0].Name != "Maria" {
		t.Fatalf("expected experience ordering, got %+v", res.Sitters)
	}
	if res.AveragePrice != 13.75 {
		t.Fatalf("expected average 13.75, got %v", res.AveragePrice)
	}
	if !res.HasAffordable {
		t.Fatal("expected an affordable sitter under 15.0")
	}
}

func TestSearchSittersBadMaxPrice(t *testing.T) {
	srv, _ := newTestServer(t)
	req := httptest.NewRequest("GET", "/api/v1/sitters?max_price=abc", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestRegisterSitterEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	body := `{"email":"new@x.bg","name":"Nova","hourly_rate":14,
		"address":{"city":"София","street":"ул. Витоша","street_number":"12"}}`
	req := httptest.NewRequest("POST", "/api/v1/register/sitter", strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body)
	}
}

func TestRegisterSitterInvalidAddress(t *testing.T) {
	srv, _ := newTestServer(t)
	body := `{"email":"new@x.bg","name":"Nova","address":{"city":"София","street_number":"12"}}`
	req := httptest.NewRequest("POST", "/api/v1/register/sitter", strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body)
	}
}

func TestRegisterSitterUnresolvedAddress(t *testing.T) {
	srv, _ := newTestServer(t)
	body := `{"email":"new@x.bg","name":"Nova","address":{"city":"Непозната","street":"ул. Никъде","street_number":"1"}}`
	req := httptest.NewRequest("POST", "/api/v1/register/sitter", strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", rec.Code, rec.Body)
	}
}

func TestBookingFlowEndpoints(t *testing.T) {
	srv, store := newTestServer(t)
	seed(t, store)
	sitters, _ := store.ListSitters(context.Background())
	sitterID := sitters[0].ID

	start := time.Now().Add(24 * time.Hour).UTC().Format(time.RFC3339)
	end := time.Now().Add(26 * time.Hour).UTC().Format(time.RFC3339)
	body := `{"parent_id":1,"sitter_id":` + strconv.FormatInt(sitterID, 10) + `,"start_time":"` + start + `","end_time":"` + end + `"}`
	req := httptest.NewRequest("POST", "/api/v1/bookings", strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body)
	}
	var b models.Booking
	if err := json.Unmarshal(rec.Body.Bytes(), &b); err != nil {
		t.Fatal(err)
	}

	// wrong sitter confirming is rejected silently
	req = httptest.NewRequest("POST", "/api/v1/bookings/"+strconv.FormatInt(b.ID, 10)+"/confirm", strings.NewReader(`{"sitter_id":9999}`))
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}

	req = httptest.NewRequest("POST", "/api/v1/bookings/"+strconv.FormatInt(b.ID, 10)+"/confirm", strings.NewReader(`{"sitter_id":`+strconv.FormatInt(sitterID, 10)+`}`))
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", rec.Code, rec.Body)
	}

	// rating before the booking ends is a validation failure
	req = httptest.NewRequest("POST", "/api/v1/bookings/"+strconv.FormatInt(b.ID, 10)+"/rate", strings.NewReader(`{"parent_id":1,"rating":5}`))
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body)
	}
}

func TestBookingNotFound(t *testing.T) {
	srv, _ := newTestServer(t)
	req := httptest.NewRequest("POST", "/api/v1/bookings/404/cancel", strings.NewReader(`{"parent_id":1}`))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
