package memory

import (
	"context"
	"sort"
	"sync"

	"studyflow-backend/domain/core/entities"
	"studyflow-backend/domain/core/valueobjects"
)

// ActivityRepository is a mutex-guarded in-memory append-only event log
type ActivityRepository struct {
	mu     sync.RWMutex
	events map[valueobjects.UserID][]entities.ActivityEvent
}

// NewActivityRepository creates an empty log
func NewActivityRepository() *ActivityRepository {
	return &ActivityRepository{events: make(map[valueobjects.UserID][]entities.ActivityEvent)}
}

// Append records one event
func (r *ActivityRepository) Append(_ context.Context, event entities.ActivityEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events[event.UserID] = append(r.events[event.UserID], event)
	return nil
}

// FindByRange returns events in [from, to] inclusive, oldest first
func (r *ActivityRepository) FindByRange(
	_ context.Context,
	userID valueobjects.UserID,
	from, to valueobjects.Day,
	eventType entities.EventType,
) ([]entities.ActivityEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]entities.ActivityEvent, 0)
	for _, event := range r.events[userID] {
		day := event.Day()
		if day.Before(from) || day.After(to) {
			continue
		}
		if eventType != entities.EventFilterAll && event.Type != eventType {
			continue
		}
		matched = append(matched, event)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].OccurredAt.Before(matched[j].OccurredAt)
	})
	return matched, nil
}

// FindRecent returns up to limit events, newest first
func (r *ActivityRepository) FindRecent(_ context.Context, userID valueobjects.UserID, limit int) ([]entities.ActivityEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]entities.ActivityEvent, len(r.events[userID]))
	copy(all, r.events[userID])
	sort.Slice(all, func(i, j int) bool {
		return all[i].OccurredAt.After(all[j].OccurredAt)
	})
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

// CountByType returns lifetime totals per event type
func (r *ActivityRepository) CountByType(_ context.Context, userID valueobjects.UserID) (map[entities.EventType]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	totals := make(map[entities.EventType]int)
	for _, event := range r.events[userID] {
		totals[event.Type]++
	}
	return totals, nil
}

// ActiveDays returns distinct days with activity, newest first
func (r *ActivityRepository) ActiveDays(_ context.Context, userID valueobjects.UserID) ([]valueobjects.Day, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]valueobjects.Day)
	for _, event := range r.events[userID] {
		day := event.Day()
		seen[day.String()] = day
	}

	days := make([]valueobjects.Day, 0, len(seen))
	for _, day := range seen {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].After(days[j]) })
	return days, nil
}
