package discovery

import "github.com/example/sitter-hub/internal/models"

// AveragePrice returns the mean hourly rate, 0.0 for an empty list.
func AveragePrice(sitters []models.Sitter) float64 {
	if len(sitters) == 0 {
		return 0.0
	}
	var total float64
	for _, s := range sitters {
		total += s.HourlyRate
	}
	return total / float64(len(sitters))
}

// HasAffordable reports whether any sitter charges at or below maxBudget.
func HasAffordable(sitters []models.Sitter, maxBudget float64) bool {
	for _, s := range sitters {
		if s.HourlyRate <= maxBudget {
			return true
		}
	}
	return false
}
