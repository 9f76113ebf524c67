package services

import (
	"math"

	"studyflow-backend/domain/core/entities"
	"studyflow-backend/domain/core/valueobjects"
)

// SchedulerConfig holds the spaced-repetition constants. The scheme is a
// simplified SM-2 variant: mastery follows an exponential moving average
// toward the latest performance, and the review interval doubles per
// consecutive pass up to a cap.
type SchedulerConfig struct {
	// Alpha is the EMA weight of the newest performance in [0,1]
	Alpha float64

	// PassCutoff is the minimum performance counting as a correct review
	PassCutoff int

	// BaseIntervalDays is the interval after the first review or a failure
	BaseIntervalDays int

	// GrowthFactor multiplies the interval per consecutive correct review
	GrowthFactor float64

	// MaxIntervalDays caps the interval
	MaxIntervalDays int
}

// DefaultSchedulerConfig returns the documented constants:
// alpha 0.3, pass cutoff 60, base 1 day, growth 2.0, cap 90 days.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Alpha:            0.3,
		PassCutoff:       60,
		BaseIntervalDays: 1,
		GrowthFactor:     2.0,
		MaxIntervalDays:  90,
	}
}

// Scheduler evolves a flashcard's mastery state on each review event.
// It is pure computation over the card's current state; persistence and
// serialization of concurrent reviews are the caller's concern.
type Scheduler struct {
	config SchedulerConfig
}

// NewScheduler creates a scheduler
func NewScheduler(config SchedulerConfig) *Scheduler {
	if config.Alpha <= 0 || config.Alpha > 1 {
		config = DefaultSchedulerConfig()
	}
	return &Scheduler{config: config}
}

// Review computes and applies the state transition for one review event
func (s *Scheduler) Review(
	card *entities.Flashcard,
	performance valueobjects.Performance,
	today valueobjects.Day,
) {
	consecutive := 0
	if performance.Int() >= s.config.PassCutoff {
		consecutive = card.ConsecutiveCorrect() + 1
	}

	card.ApplyReview(entities.ReviewResult{
		MasteryLevel:       s.NextMastery(card.MasteryLevel(), performance.Float()),
		Performance:        performance.Int(),
		ConsecutiveCorrect: consecutive,
		NextReview:         today.AddDays(s.NextInterval(consecutive)),
	})
}

// NextMastery moves mastery toward the latest performance by the EMA
// weight, clamped to [0,100].
func (s *Scheduler) NextMastery(current, performance float64) float64 {
	next := current + s.config.Alpha*(performance-current)
	return math.Max(0, math.Min(100, next))
}

// NextInterval returns the interval in days for a given consecutive-correct
// count. Zero (a failed review) resets to the base interval; each pass
// multiplies by the growth factor, capped at MaxIntervalDays.
//
// consecutive == 1 also yields the base interval: the first pass schedules
// one day out, the second two days, then four, and so on.
func (s *Scheduler) NextInterval(consecutive int) int {
	if consecutive <= 1 {
		return s.config.BaseIntervalDays
	}
	interval := float64(s.config.BaseIntervalDays) *
		math.Pow(s.config.GrowthFactor, float64(consecutive-1))
	if interval > float64(s.config.MaxIntervalDays) {
		return s.config.MaxIntervalDays
	}
	return int(interval)
}
