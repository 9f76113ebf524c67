package entities

import (
	"time"

	"studyflow-backend/domain/core/valueobjects"
	appErrors "studyflow-backend/pkg/errors"
)

// EventType enumerates the study activities tracked for streaks and
// heatmaps.
type EventType string

const (
	EventNoteCreated       EventType = "note_created"
	EventNoteReviewed      EventType = "note_reviewed"
	EventFlashcardCreated  EventType = "flashcard_created"
	EventFlashcardReviewed EventType = "flashcard_reviewed"

	// EventFilterAll selects every event type in activity queries
	EventFilterAll EventType = "all"
)

// ParseEventType validates a caller-supplied event type
func ParseEventType(raw string) (EventType, error) {
	switch EventType(raw) {
	case EventNoteCreated, EventNoteReviewed, EventFlashcardCreated, EventFlashcardReviewed:
		return EventType(raw), nil
	case EventFilterAll, "":
		return EventFilterAll, nil
	default:
		return "", appErrors.NewValidation("unknown event type")
	}
}

// ParseRecordableEventType validates an event type for ingestion. The
// "all" filter value is only meaningful in queries and is rejected here.
func ParseRecordableEventType(raw string) (EventType, error) {
	switch EventType(raw) {
	case EventNoteCreated, EventNoteReviewed, EventFlashcardCreated, EventFlashcardReviewed:
		return EventType(raw), nil
	default:
		return "", appErrors.NewValidation("unknown event type")
	}
}

// ActivityEvent is one append-only record of study activity. Events are
// never mutated or deleted; all reporting is derived from them.
type ActivityEvent struct {
	ID         valueobjects.EventID
	UserID     valueobjects.UserID
	Type       EventType
	TargetID   string
	OccurredAt time.Time
}

// NewActivityEvent records an activity happening now
func NewActivityEvent(userID valueobjects.UserID, eventType EventType, targetID string) ActivityEvent {
	return ActivityEvent{
		ID:         valueobjects.NewEventID(),
		UserID:     userID,
		Type:       eventType,
		TargetID:   targetID,
		OccurredAt: time.Now().UTC(),
	}
}

// Day returns the UTC calendar day the event falls on
func (e ActivityEvent) Day() valueobjects.Day {
	return valueobjects.DayOf(e.OccurredAt)
}

// ActivityDayCount is a derived per-day event count for heatmaps
type ActivityDayCount struct {
	Date  valueobjects.Day `json:"date"`
	Count int              `json:"count"`
}

// ManualLink is a user-created directed link between two notes. The graph
// builder canonicalizes and merges these with computed similarity edges.
type ManualLink struct {
	UserID    valueobjects.UserID
	SourceID  valueobjects.NoteID
	TargetID  valueobjects.NoteID
	CreatedAt time.Time
}

// NewManualLink creates a link between two of a user's notes
func NewManualLink(userID valueobjects.UserID, sourceID, targetID valueobjects.NoteID) (ManualLink, error) {
	if sourceID == targetID {
		return ManualLink{}, appErrors.NewValidation("a note cannot link to itself")
	}
	return ManualLink{
		UserID:    userID,
		SourceID:  sourceID,
		TargetID:  targetID,
		CreatedAt: time.Now().UTC(),
	}, nil
}
