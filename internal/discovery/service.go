package discovery

import (
	"context"
	"fmt"

	"github.com/example/sitter-hub/internal/models"
	"github.com/example/sitter-hub/internal/observability"
)

// Repository is the slice of persistence the discovery pipeline needs.
type Repository interface {
	ListSitters(ctx context.Context) ([]models.Sitter, error)
}

// Query is one "show me sitters" request as the route layer hands it over.
type Query struct {
	City          string
	MaxPrice      *float64
	MinExperience int
	// Sort is the explicit request parameter: "experience", "rating" or "".
	Sort string
	// Viewer is the authenticated parent's stored coordinate, nil otherwise.
	Viewer *models.Coordinate
}

// Result is the ordered list plus the landing-page aggregates. The aggregates
// are computed over the final list, i.e. after any spotlight truncation.
type Result struct {
	Sitters       []RankedSitter `json:"sitters"`
	AveragePrice  float64        `json:"average_price"`
	HasAffordable bool           `json:"has_affordable"`
}

// Service composes Filter, Rank and the aggregates over an injected
// repository.
type Service struct {
	Repo                Repository
	AffordableThreshold float64
	SpotlightLimit      int
}

// Search runs the discovery pipeline. Mode precedence: explicit experience
// sort, then explicit rating sort, then distance ranking for an authenticated
// parent viewer, then the default top-rated spotlight.
func (s *Service) Search(ctx context.Context, q Query) (Result, error) {
	all, err := s.Repo.ListSitters(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("list sitters: %w", err)
	}
	observability.SearchesTotal.Inc()

	filtered := Filter(all, q.City, q.MaxPrice, q.MinExperience)

	var ranked []RankedSitter
	switch {
	case q.Sort == string(SortExperience):
		ranked = Rank(filtered, SortExperience, nil, 0)
	case q.Sort == string(SortRating):
		ranked = Rank(filtered, SortRating, nil, 0)
	case q.Viewer != nil:
		ranked = Rank(filtered, SortDistance, q.Viewer, 0)
	default:
		ranked = Rank(filtered, SortDefault, nil, s.SpotlightLimit)
	}

	final := make([]models.Sitter, 0, len(ranked))
	for _, r := range ranked {
		final = append(final, r.Sitter)
	}
	return Result{
		Sitters:       ranked,
		AveragePrice:  AveragePrice(final),
		HasAffordable: HasAffordable(final, s.AffordableThreshold),
	}, nil
}
