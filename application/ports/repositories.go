// Package ports defines the interfaces the application layer depends on.
// Infrastructure provides the implementations; application services and
// tests depend only on these contracts.
package ports

import (
	"context"

	"studyflow-backend/domain/core/entities"
	"studyflow-backend/domain/core/valueobjects"
)

// NoteRepository persists notes with optimistic concurrency. Save performs
// a conditional write expecting the stored version to equal the entity's
// version, returning a Conflict error on mismatch and incrementing the
// entity's version on success.
type NoteRepository interface {
	Save(ctx context.Context, note *entities.Note) error
	FindByID(ctx context.Context, userID valueobjects.UserID, noteID valueobjects.NoteID) (*entities.Note, error)
	FindByUser(ctx context.Context, userID valueobjects.UserID) ([]*entities.Note, error)
	Delete(ctx context.Context, userID valueobjects.UserID, noteID valueobjects.NoteID) error
}

// FlashcardRepository persists flashcards with the same optimistic
// concurrency contract as NoteRepository.Save.
type FlashcardRepository interface {
	Save(ctx context.Context, card *entities.Flashcard) error
	FindByID(ctx context.Context, userID valueobjects.UserID, cardID valueobjects.FlashcardID) (*entities.Flashcard, error)
	FindByUser(ctx context.Context, userID valueobjects.UserID) ([]*entities.Flashcard, error)
	FindByNote(ctx context.Context, userID valueobjects.UserID, noteID valueobjects.NoteID) ([]*entities.Flashcard, error)

	// DeleteByNote removes every card derived from a note, for cascade
	// deletion when the note itself is removed.
	DeleteByNote(ctx context.Context, userID valueobjects.UserID, noteID valueobjects.NoteID) error
}

// LinkRepository persists user-created manual links between notes
type LinkRepository interface {
	// Save stores a link; saving an existing pair again is a no-op
	Save(ctx context.Context, link entities.ManualLink) error
	Delete(ctx context.Context, userID valueobjects.UserID, sourceID, targetID valueobjects.NoteID) error
	FindByUser(ctx context.Context, userID valueobjects.UserID) ([]entities.ManualLink, error)

	// FindByTarget returns the links pointing at a note (its backlinks)
	FindByTarget(ctx context.Context, userID valueobjects.UserID, targetID valueobjects.NoteID) ([]entities.ManualLink, error)

	// DeleteByNote removes every link touching a note, in either direction
	DeleteByNote(ctx context.Context, userID valueobjects.UserID, noteID valueobjects.NoteID) error
}

// ActivityRepository is the append-only event log behind streaks, heatmaps
// and the activity summary. Events are never updated or deleted.
type ActivityRepository interface {
	Append(ctx context.Context, event entities.ActivityEvent) error

	// FindByRange returns the events in [from, to] inclusive, oldest first,
	// optionally filtered by type (EventFilterAll selects everything).
	FindByRange(ctx context.Context, userID valueobjects.UserID, from, to valueobjects.Day, eventType entities.EventType) ([]entities.ActivityEvent, error)

	// FindRecent returns up to limit events, newest first
	FindRecent(ctx context.Context, userID valueobjects.UserID, limit int) ([]entities.ActivityEvent, error)

	// CountByType returns lifetime event totals per type
	CountByType(ctx context.Context, userID valueobjects.UserID) (map[entities.EventType]int, error)

	// ActiveDays returns the distinct days with at least one event,
	// newest first, for streak computation.
	ActiveDays(ctx context.Context, userID valueobjects.UserID) ([]valueobjects.Day, error)
}

// VersionRepository tracks the per-user note-set version. Any mutation of a
// user's notes or links increments it, invalidating derived graph state.
type VersionRepository interface {
	Current(ctx context.Context, userID valueobjects.UserID) (int64, error)
	Increment(ctx context.Context, userID valueobjects.UserID) (int64, error)
}

// QAPair is one generated question/answer candidate
type QAPair struct {
	Question string
	Answer   string
}

// FlashcardGenerator produces question/answer pairs from note content.
// Implementations call an external text generation service; failures map
// to Computation errors so handlers can report 422 rather than 500.
type FlashcardGenerator interface {
	Generate(ctx context.Context, title, content string, count int) ([]QAPair, error)
}

// EventPublisher forwards activity events to an external bus for other
// systems to consume. Publishing is best-effort: the caller records the
// event locally first and ignores publisher failures beyond logging.
type EventPublisher interface {
	Publish(ctx context.Context, event entities.ActivityEvent) error
}
