// Package entities contains the mutable domain entities: notes, flashcards,
// manual links and activity events.
package entities

import (
	"strings"
	"time"

	"studyflow-backend/domain/core/valueobjects"
	appErrors "studyflow-backend/pkg/errors"
)

const (
	maxTitleLength   = 500
	maxContentLength = 50000
	previewLength    = 200
)

// Note is a user-authored study note. Its content is the only input to
// vectorization; every content change invalidates the owner's derived
// graph state via the note-set version counter.
type Note struct {
	id        valueobjects.NoteID
	userID    valueobjects.UserID
	title     string
	content   string
	version   int
	createdAt time.Time
	updatedAt time.Time
}

// NewNote creates a note for a user
func NewNote(userID valueobjects.UserID, title, content string) (*Note, error) {
	if err := validateNoteContent(title, content); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	return &Note{
		id:        valueobjects.NewNoteID(),
		userID:    userID,
		title:     strings.TrimSpace(title),
		content:   content,
		version:   0,
		createdAt: now,
		updatedAt: now,
	}, nil
}

// ReconstructNote rebuilds a note from persisted state
func ReconstructNote(
	id valueobjects.NoteID,
	userID valueobjects.UserID,
	title, content string,
	version int,
	createdAt, updatedAt time.Time,
) *Note {
	return &Note{
		id:        id,
		userID:    userID,
		title:     title,
		content:   content,
		version:   version,
		createdAt: createdAt,
		updatedAt: updatedAt,
	}
}

func (n *Note) ID() valueobjects.NoteID     { return n.id }
func (n *Note) UserID() valueobjects.UserID { return n.userID }
func (n *Note) Title() string               { return n.title }
func (n *Note) Content() string             { return n.content }
func (n *Note) Version() int                { return n.version }
func (n *Note) CreatedAt() time.Time        { return n.createdAt }
func (n *Note) UpdatedAt() time.Time        { return n.updatedAt }

// UpdateContent replaces the note's title and content
func (n *Note) UpdateContent(title, content string) error {
	if err := validateNoteContent(title, content); err != nil {
		return err
	}
	n.title = strings.TrimSpace(title)
	n.content = content
	n.updatedAt = time.Now().UTC()
	return nil
}

// IncrementVersion records a successful persisted write. Repositories call
// this after a conditional write so the in-memory entity matches storage.
func (n *Note) IncrementVersion() { n.version++ }

// WordCount counts whitespace-separated words in the content
func (n *Note) WordCount() int {
	return len(strings.Fields(n.content))
}

// ContentPreview returns the leading content, truncated for graph
// payloads. Truncation counts runes so multi-byte characters never split.
func (n *Note) ContentPreview() string {
	runes := []rune(n.content)
	if len(runes) <= previewLength {
		return n.content
	}
	return string(runes[:previewLength]) + "..."
}

func validateNoteContent(title, content string) error {
	if strings.TrimSpace(title) == "" {
		return appErrors.NewValidation("title is required")
	}
	if len(title) > maxTitleLength {
		return appErrors.NewValidation("title too long")
	}
	if len(content) > maxContentLength {
		return appErrors.NewValidation("content too long")
	}
	return nil
}
