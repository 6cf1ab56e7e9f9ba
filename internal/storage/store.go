package storage

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/example/sitter-hub/internal/models"
)

var (
	// ErrNotFound signals a missing sitter, parent or booking.
	ErrNotFound = errors.New("not found")
	// ErrEmailTaken signals a duplicate registration email.
	ErrEmailTaken = errors.New("email already registered")
)

// SitterStore defines persistence operations for sitter profiles.
type SitterStore interface {
	CreateSitter(ctx context.Context, s *models.Sitter) error
	GetSitter(ctx context.Context, id int64) (*models.Sitter, error)
	ListSitters(ctx context.Context) ([]models.Sitter, error)
	// ApplyRating folds rating into the sitter's running average atomically
	// with respect to concurrent raters.
	ApplyRating(ctx context.Context, sitterID int64, rating float64) error
}

// ParentStore defines persistence operations for parent profiles.
type ParentStore interface {
	CreateParent(ctx context.Context, p *models.Parent) error
	GetParent(ctx context.Context, id int64) (*models.Parent, error)
}

// BookingStore defines persistence operations for bookings.
type BookingStore interface {
	CreateBooking(ctx context.Context, b *models.Booking) error
	GetBooking(ctx context.Context, id int64) (*models.Booking, error)
	UpdateBooking(ctx context.Context, b *models.Booking) error
	ListBookingsByParent(ctx context.Context, parentID int64) ([]models.Booking, error)
	ListBookingsBySitter(ctx context.Context, sitterID int64) ([]models.Booking, error)
}

// Store is the full persistence surface the service wires up.
type Store interface {
	SitterStore
	ParentStore
	BookingStore
	EmailExists(ctx context.Context, email string) (bool, error)
}

// MemoryStore keeps everything in maps. Used for local runs and tests.
type MemoryStore struct {
	mu       sync.RWMutex
	sitters  map[int64]*models.Sitter
	parents  map[int64]*models.Parent
	bookings map[int64]*models.Booking
	nextID   int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sitters:  make(map[int64]*models.Sitter),
		parents:  make(map[int64]*models.Parent),
		bookings: make(map[int64]*models.Booking),
	}
}

func (m *MemoryStore) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *MemoryStore) CreateSitter(ctx context.Context, s *models.Sitter) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.emailExistsLocked(s.Email) {
		return ErrEmailTaken
	}
	s.ID = m.id()
	s.CreatedAt = time.Now()
	cp := *s
	m.sitters[s.ID] = &cp
	return nil
}

func (m *MemoryStore) GetSitter(ctx context.Context, id int64) (*models.Sitter, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sitters[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *MemoryStore) ListSitters(ctx context.Context) ([]models.Sitter, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Sitter, 0, len(m.sitters))
	for _, s := range m.sitters {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryStore) ApplyRating(ctx context.Context, sitterID int64, rating float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sitters[sitterID]
	if !ok {
		return ErrNotFound
	}
	s.Rating, s.ReviewsCount = models.NextRating(s.Rating, s.ReviewsCount, rating)
	return nil
}

func (m *MemoryStore) CreateParent(ctx context.Context, p *models.Parent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.emailExistsLocked(p.Email) {
		return ErrEmailTaken
	}
	p.ID = m.id()
	p.CreatedAt = time.Now()
	cp := *p
	m.parents[p.ID] = &cp
	return nil
}

func (m *MemoryStore) GetParent(ctx context.Context, id int64) (*models.Parent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.parents[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MemoryStore) CreateBooking(ctx context.Context, b *models.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b.ID = m.id()
	b.CreatedAt = time.Now()
	cp := *b
	m.bookings[b.ID] = &cp
	return nil
}

func (m *MemoryStore) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.bookings[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (m *MemoryStore) UpdateBooking(ctx context.Context, b *models.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.bookings[b.ID]; !ok {
		return ErrNotFound
	}
	cp := *b
	m.bookings[b.ID] = &cp
	return nil
}

func (m *MemoryStore) ListBookingsByParent(ctx context.Context, parentID int64) ([]models.Booking, error) {
	return m.listBookings(func(b *models.Booking) bool { return b.ParentID == parentID })
}

func (m *MemoryStore) ListBookingsBySitter(ctx context.Context, sitterID int64) ([]models.Booking, error) {
	return m.listBookings(func(b *models.Booking) bool { return b.SitterID == sitterID })
}

func (m *MemoryStore) listBookings(match func(*models.Booking) bool) ([]models.Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.Booking
	for _, b := range m.bookings {
		if match(b) {
			out = append(out, *b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryStore) EmailExists(ctx context.Context, email string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.emailExistsLocked(email), nil
}

func (m *MemoryStore) emailExistsLocked(email string) bool {
	email = strings.ToLower(email)
	for _, s := range m.sitters {
		if strings.ToLower(s.Email) == email {
			return true
		}
	}
	for _, p := range m.parents {
		if strings.ToLower(p.Email) == email {
			return true
		}
	}
	return false
}
