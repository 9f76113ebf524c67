package valueobjects

import (
	appErrors "studyflow-backend/pkg/errors"
)

// Performance is a review score in [0,100] reported by the client after a
// flashcard review.
type Performance int

// NewPerformance validates a raw review score
func NewPerformance(raw int) (Performance, error) {
	if raw < 0 || raw > 100 {
		return 0, appErrors.NewValidation("performance must be between 0 and 100")
	}
	return Performance(raw), nil
}

// Int returns the raw score
func (p Performance) Int() int { return int(p) }

// Float returns the score as a float for mastery arithmetic
func (p Performance) Float() float64 { return float64(p) }
