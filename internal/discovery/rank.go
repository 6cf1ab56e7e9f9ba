package discovery

import (
	"sort"

	"github.com/example/sitter-hub/internal/geo"
	"github.com/example/sitter-hub/internal/models"
)

// SortMode selects the ordering policy for a discovery query.
type SortMode string

const (
	SortDistance   SortMode = "distance"
	SortExperience SortMode = "experience"
	SortRating     SortMode = "rating"
	SortDefault    SortMode = "default"
)

// DefaultSpotlightLimit caps the landing-page result when no explicit sort
// and no parent viewer is in play.
const DefaultSpotlightLimit = 6

// RankedSitter wraps a candidate with its per-query distance. The distance is
// a view of this one request, never stored back onto the sitter, so
// concurrent queries cannot observe each other's annotations.
type RankedSitter struct {
	models.Sitter
	DistanceKm *float64 `json:"distance_km,omitempty"`
}

// Rank orders candidates under the given mode. All sorts are stable: equal
// keys keep input order. Distance mode needs a viewer coordinate; sitters
// without resolved coordinates get the sentinel distance and land last.
// Default mode is the top-rated spotlight, truncated to limit.
func Rank(sitters []models.Sitter, mode SortMode, viewer *models.Coordinate, limit int) []RankedSitter {
	switch mode {
	case SortDistance:
		return rankByDistance(sitters, viewer)
	case SortExperience:
		return rankBy(sitters, func(a, b models.Sitter) bool { return a.ExperienceYears > b.ExperienceYears })
	case SortRating:
		return rankBy(sitters, func(a, b models.Sitter) bool { return a.Rating > b.Rating })
	default:
		if limit <= 0 {
			limit = DefaultSpotlightLimit
		}
		top := rankBy(sitters, func(a, b models.Sitter) bool { return a.Rating > b.Rating })
		if len(top) > limit {
			top = top[:limit]
		}
		return top
	}
}

func rankByDistance(sitters []models.Sitter, viewer *models.Coordinate) []RankedSitter {
	out := make([]RankedSitter, 0, len(sitters))
	for _, s := range sitters {
		s := s
		d := geo.Distance(viewer, &s.Coord)
		out = append(out, RankedSitter{Sitter: s, DistanceKm: &d})
	}
	sort.SliceStable(out, func(i, j int) bool { return *out[i].DistanceKm < *out[j].DistanceKm })
	return out
}

func rankBy(sitters []models.Sitter, less func(a, b models.Sitter) bool) []RankedSitter {
	out := make([]RankedSitter, 0, len(sitters))
	for _, s := range sitters {
		out = append(out, RankedSitter{Sitter: s})
	}
	sort.SliceStable(out, func(i, j int) bool { return less(out[i].Sitter, out[j].Sitter) })
	return out
}
