// Package services contains the application services orchestrating domain
// logic, repositories and external adapters.
package services

import (
	"context"

	"go.uber.org/zap"

	"studyflow-backend/application/ports"
	"studyflow-backend/domain/core/entities"
	"studyflow-backend/domain/core/valueobjects"
	appErrors "studyflow-backend/pkg/errors"
)

// maxRangeDays bounds heatmap queries so a bad client cannot ask for
// decades of zero-filled days.
const maxRangeDays = 366

// ActivitySummary is the profile statistics payload
type ActivitySummary struct {
	TotalsByType  map[entities.EventType]int `json:"totals_by_type"`
	EventsLast7d  int                        `json:"events_last_7d"`
	EventsLast30d int                        `json:"events_last_30d"`
	CurrentStreak int                        `json:"current_streak_days"`
	BestStreak    int                        `json:"best_streak_days"`
	ActiveDays    int                        `json:"active_days"`
}

// ActivityService records study events and derives streaks, rolling
// windows and per-day counts from the append-only log.
type ActivityService struct {
	activityRepo ports.ActivityRepository
	publisher    ports.EventPublisher
	logger       *zap.Logger
}

// NewActivityService creates an activity service. The publisher may be nil
// when no external bus is configured.
func NewActivityService(
	activityRepo ports.ActivityRepository,
	publisher ports.EventPublisher,
	logger *zap.Logger,
) *ActivityService {
	return &ActivityService{
		activityRepo: activityRepo,
		publisher:    publisher,
		logger:       logger,
	}
}

// Record appends one event and forwards it to the external bus. The append
// is authoritative; publish failures are logged and swallowed.
func (s *ActivityService) Record(
	ctx context.Context,
	userID valueobjects.UserID,
	eventType entities.EventType,
	targetID string,
) error {
	event := entities.NewActivityEvent(userID, eventType, targetID)
	if err := s.activityRepo.Append(ctx, event); err != nil {
		return appErrors.Wrap(err, "recording activity event")
	}

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, event); err != nil {
			s.logger.Warn("activity event publish failed",
				zap.String("event_id", event.ID.String()),
				zap.String("event_type", string(eventType)),
				zap.Error(err))
		}
	}
	return nil
}

// DayCounts returns one entry per day in [from, to] inclusive, zero-filled
// for days without matching events.
func (s *ActivityService) DayCounts(
	ctx context.Context,
	userID valueobjects.UserID,
	from, to valueobjects.Day,
	eventType entities.EventType,
) ([]entities.ActivityDayCount, error) {
	if to.Before(from) {
		return nil, appErrors.NewValidation("end date before start date")
	}
	if from.DaysUntil(to) >= maxRangeDays {
		return nil, appErrors.NewValidation("date range too large")
	}

	events, err := s.activityRepo.FindByRange(ctx, userID, from, to, eventType)
	if err != nil {
		return nil, appErrors.Wrap(err, "loading activity events")
	}

	byDay := make(map[string]int)
	for _, event := range events {
		byDay[event.Day().String()]++
	}

	days := from.DaysUntil(to) + 1
	counts := make([]entities.ActivityDayCount, 0, days)
	for i := 0; i < days; i++ {
		day := from.AddDays(i)
		counts = append(counts, entities.ActivityDayCount{
			Date:  day,
			Count: byDay[day.String()],
		})
	}
	return counts, nil
}

// Summary aggregates lifetime totals, 7/30 day rolling windows and the
// current and best streaks.
func (s *ActivityService) Summary(ctx context.Context, userID valueobjects.UserID) (*ActivitySummary, error) {
	totals, err := s.activityRepo.CountByType(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, "counting activity events")
	}

	today := valueobjects.Today()
	last30, err := s.activityRepo.FindByRange(ctx, userID, today.AddDays(-29), today, entities.EventFilterAll)
	if err != nil {
		return nil, appErrors.Wrap(err, "loading recent activity")
	}

	sevenDayStart := today.AddDays(-6)
	var last7 int
	for _, event := range last30 {
		if !event.Day().Before(sevenDayStart) {
			last7++
		}
	}

	activeDays, err := s.activityRepo.ActiveDays(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, "loading active days")
	}

	return &ActivitySummary{
		TotalsByType:  totals,
		EventsLast7d:  last7,
		EventsLast30d: len(last30),
		CurrentStreak: streak(activeDays, today),
		BestStreak:    bestStreak(activeDays),
		ActiveDays:    len(activeDays),
	}, nil
}

// Recent returns the newest events, capped at 50
func (s *ActivityService) Recent(ctx context.Context, userID valueobjects.UserID, limit int) ([]entities.ActivityEvent, error) {
	if limit <= 0 || limit > 50 {
		limit = 50
	}
	events, err := s.activityRepo.FindRecent(ctx, userID, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, "loading recent events")
	}
	return events, nil
}

// streak counts consecutive active days ending today or yesterday. A user
// who studied every day up to yesterday has not broken the streak until
// today passes without activity.
func streak(activeDays []valueobjects.Day, today valueobjects.Day) int {
	active := make(map[string]bool, len(activeDays))
	for _, day := range activeDays {
		active[day.String()] = true
	}

	start := today
	if !active[start.String()] {
		start = today.AddDays(-1)
		if !active[start.String()] {
			return 0
		}
	}

	count := 0
	for day := start; active[day.String()]; day = day.AddDays(-1) {
		count++
	}
	return count
}

// bestStreak finds the longest run of consecutive active days
func bestStreak(activeDays []valueobjects.Day) int {
	active := make(map[string]bool, len(activeDays))
	for _, day := range activeDays {
		active[day.String()] = true
	}

	best := 0
	for _, day := range activeDays {
		// Only scan forward from the first day of a run
		if active[day.AddDays(-1).String()] {
			continue
		}
		run := 1
		for next := day.AddDays(1); active[next.String()]; next = next.AddDays(1) {
			run++
		}
		if run > best {
			best = run
		}
	}
	return best
}
