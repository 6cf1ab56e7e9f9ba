package account

import (
	"context"
	"errors"
	"log/slog"

	"github.com/example/sitter-hub/internal/geocode"
	"github.com/example/sitter-hub/internal/models"
	"github.com/example/sitter-hub/internal/observability"
	"github.com/example/sitter-hub/internal/storage"
)

// ErrAddressUnresolved means geocoding found nothing even after fallback.
// Registration does not proceed; no record is created.
var ErrAddressUnresolved = errors.New("could not verify address")

// ProfilePublisher mirrors new sitter profiles onto the event stream; nil
// disables publishing.
type ProfilePublisher interface {
	PublishProfile(s models.Sitter) error
}

// Service handles sitter and parent registration: address validation and
// composition, geocoding, profile creation.
type Service struct {
	Store     storage.Store
	Geocoder  geocode.Geocoder
	Publisher ProfilePublisher
	Logger    *slog.Logger
}

func (s *Service) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

// RegisterSitterInput carries the registration form fields.
type RegisterSitterInput struct {
	Email           string              `json:"email"`
	Name            string              `json:"name"`
	Phone           string              `json:"phone"`
	HourlyRate      float64             `json:"hourly_rate"`
	ExperienceYears int                 `json:"experience_years"`
	Bio             string              `json:"bio"`
	Address         models.AddressParts `json:"address"`
}

type RegisterParentInput struct {
	Email         string              `json:"email"`
	Name          string              `json:"name"`
	Phone         string              `json:"phone"`
	ChildrenCount int                 `json:"children_count"`
	Bio           string              `json:"bio"`
	Address       models.AddressParts `json:"address"`
}

// RegisterSitter validates and geocodes the address, then creates the
// profile. Negative rates and experience are clamped to zero rather than
// rejected, matching how the forms have always behaved.
func (s *Service) RegisterSitter(ctx context.Context, in RegisterSitterInput) (*models.Sitter, error) {
	full, coord, err := s.resolveAddress(ctx, in.Address)
	if err != nil {
		return nil, err
	}
	sitter := &models.Sitter{
		Email:           in.Email,
		Name:            in.Name,
		Phone:           in.Phone,
		City:            in.Address.City,
		Address:         full,
		HourlyRate:      max(0, in.HourlyRate),
		ExperienceYears: max(0, in.ExperienceYears),
		Bio:             in.Bio,
		Coord:           coord,
	}
	if err := s.Store.CreateSitter(ctx, sitter); err != nil {
		return nil, err
	}
	observability.RegistrationsTotal.WithLabelValues(string(models.RoleSitter)).Inc()
	if s.Publisher != nil {
		if err := s.Publisher.PublishProfile(*sitter); err != nil {
			s.logger().Warn("profile publish failed", "sitter_id", sitter.ID, "error", err)
		}
	}
	return sitter, nil
}

// RegisterParent mirrors RegisterSitter for the demand side. Children count
// is floored at one.
func (s *Service) RegisterParent(ctx context.Context, in RegisterParentInput) (*models.Parent, error) {
	full, coord, err := s.resolveAddress(ctx, in.Address)
	if err != nil {
		return nil, err
	}
	parent := &models.Parent{
		Email:         in.Email,
		Name:          in.Name,
		Phone:         in.Phone,
		City:          in.Address.City,
		Address:       full,
		ChildrenCount: max(1, in.ChildrenCount),
		Bio:           in.Bio,
		Coord:         coord,
	}
	if err := s.Store.CreateParent(ctx, parent); err != nil {
		return nil, err
	}
	observability.RegistrationsTotal.WithLabelValues(string(models.RoleParent)).Inc()
	return parent, nil
}

// resolveAddress composes and geocodes. Composition failures surface the
// validation errors before any network call; geocode misses abort with
// ErrAddressUnresolved.
func (s *Service) resolveAddress(ctx context.Context, parts models.AddressParts) (string, models.Coordinate, error) {
	full, err := parts.ComposeAddress()
	if err != nil {
		return "", models.Coordinate{}, err
	}
	coord, ok := s.Geocoder.Geocode(ctx, full)
	if !ok {
		return "", models.Coordinate{}, ErrAddressUnresolved
	}
	return full, coord, nil
}
