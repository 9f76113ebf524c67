// Package valueobjects holds small immutable domain types: identifiers,
// review performance scores and UTC calendar days.
package valueobjects

import (
	"github.com/google/uuid"

	appErrors "studyflow-backend/pkg/errors"
)

// UserID identifies the owner of notes, flashcards and activity
type UserID string

// NoteID identifies a note
type NoteID string

// FlashcardID identifies a flashcard
type FlashcardID string

// EventID identifies an activity event
type EventID string

// NewNoteID generates a new unique note identifier
func NewNoteID() NoteID { return NoteID(uuid.NewString()) }

// NewFlashcardID generates a new unique flashcard identifier
func NewFlashcardID() FlashcardID { return FlashcardID(uuid.NewString()) }

// NewEventID generates a new unique event identifier
func NewEventID() EventID { return EventID(uuid.NewString()) }

func (id UserID) String() string      { return string(id) }
func (id NoteID) String() string      { return string(id) }
func (id FlashcardID) String() string { return string(id) }
func (id EventID) String() string     { return string(id) }

// ParseNoteID validates a note identifier supplied by a caller
func ParseNoteID(raw string) (NoteID, error) {
	if _, err := uuid.Parse(raw); err != nil {
		return "", appErrors.NewValidation("invalid note id")
	}
	return NoteID(raw), nil
}

// ParseFlashcardID validates a flashcard identifier supplied by a caller
func ParseFlashcardID(raw string) (FlashcardID, error) {
	if _, err := uuid.Parse(raw); err != nil {
		return "", appErrors.NewValidation("invalid flashcard id")
	}
	return FlashcardID(raw), nil
}
