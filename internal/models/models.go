package models

import (
	"math"
	"time"
)

// Coordinate is a decimal-degree lat/lng pair. Components are pointers so a
// profile whose address never resolved carries no coordinate at all; a partial
// pair is treated the same as an absent one everywhere distances are computed.
type Coordinate struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}

// Resolved reports whether both components are present.
func (c *Coordinate) Resolved() bool {
	return c != nil && c.Lat != nil && c.Lng != nil
}

// NewCoordinate builds a fully resolved coordinate.
func NewCoordinate(lat, lng float64) Coordinate {
	return Coordinate{Lat: &lat, Lng: &lng}
}

type Role string

const (
	RoleSitter Role = "sitter"
	RoleParent Role = "parent"
)

// Sitter is a service-provider profile eligible for discovery.
type Sitter struct {
	ID              int64      `json:"id"`
	Email           string     `json:"email"`
	Name            string     `json:"name"`
	Phone           string     `json:"phone,omitempty"`
	City            string     `json:"city"`
	Address         string     `json:"address,omitempty"`
	HourlyRate      float64    `json:"hourly_rate"`
	ExperienceYears int        `json:"experience_years"`
	Bio             string     `json:"bio,omitempty"`
	Rating          float64    `json:"rating"` // 0..5
	ReviewsCount    int        `json:"reviews_count"`
	Coord           Coordinate `json:"coord"`
	CreatedAt       time.Time  `json:"created_at"`
}

// Parent is the demand side of the marketplace.
type Parent struct {
	ID            int64      `json:"id"`
	Email         string     `json:"email"`
	Name          string     `json:"name"`
	Phone         string     `json:"phone,omitempty"`
	City          string     `json:"city"`
	Address       string     `json:"address,omitempty"`
	ChildrenCount int        `json:"children_count"`
	Bio           string     `json:"bio,omitempty"`
	Coord         Coordinate `json:"coord"`
	CreatedAt     time.Time  `json:"created_at"`
}

type BookingStatus string

const (
	BookingPending   BookingStatus = "Pending"
	BookingConfirmed BookingStatus = "Confirmed"
	BookingCancelled BookingStatus = "Cancelled"
	BookingCompleted BookingStatus = "Completed"
)

// Booking is a parent's request for a sitter over a time window.
type Booking struct {
	ID         int64         `json:"id"`
	ParentID   int64         `json:"parent_id"`
	SitterID   int64         `json:"sitter_id"`
	Start      time.Time     `json:"start_time"`
	End        time.Time     `json:"end_time"`
	Status     BookingStatus `json:"status"`
	PaymentRef string        `json:"-"`
	CreatedAt  time.Time     `json:"created_at"`
}

// BookingOffer is the payload pushed to a connected sitter when a parent
// requests them.
type BookingOffer struct {
	BookingID int64     `json:"booking_id"`
	ParentID  int64     `json:"parent_id"`
	Start     time.Time `json:"start_time"`
	End       time.Time `json:"end_time"`
}

// ValidRating reports whether r is an acceptable star rating.
func ValidRating(r float64) bool {
	return r >= 0 && r <= 5
}

// NextRating folds a new rating into a sitter's running average, rounded to
// one decimal the same way the stored averages always have been.
func NextRating(oldRating float64, oldCount int, rating float64) (float64, int) {
	count := oldCount + 1
	avg := (oldRating*float64(oldCount) + rating) / float64(count)
	return math.Round(avg*10) / 10, count
}
