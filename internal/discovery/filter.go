package discovery

import (
	"strings"

	"github.com/example/sitter-hub/internal/models"
)

// Filter narrows candidates by minimum experience, city and maximum price, in
// that order. Predicates conjoin; survivors keep their relative order and the
// input slice is never mutated.
//
// A nil maxPrice means "no price filter". An explicit zero filters to
// free-only sitters; absence and zero are deliberately distinct.
func Filter(sitters []models.Sitter, city string, maxPrice *float64, minExperience int) []models.Sitter {
	out := make([]models.Sitter, 0, len(sitters))
	for _, s := range sitters {
		if s.ExperienceYears < minExperience {
			continue
		}
		out = append(out, s)
	}
	if city = strings.TrimSpace(city); city != "" {
		want := strings.ToLower(city)
		kept := out[:0]
		for _, s := range out {
			if strings.ToLower(s.City) == want {
				kept = append(kept, s)
			}
		}
		out = kept
	}
	if maxPrice != nil {
		kept := out[:0]
		for _, s := range out {
			if s.HourlyRate <= *maxPrice {
				kept = append(kept, s)
			}
		}
		out = kept
	}
	return out
}
