// Package memory provides in-memory repository implementations for local
// development and tests. They honor the same optimistic concurrency
// contract as the DynamoDB implementations.
package memory

import (
	"context"
	"sort"
	"sync"

	"studyflow-backend/domain/core/entities"
	"studyflow-backend/domain/core/valueobjects"
	appErrors "studyflow-backend/pkg/errors"
)

type noteKey struct {
	user valueobjects.UserID
	note valueobjects.NoteID
}

// NoteRepository is a mutex-guarded in-memory note store
type NoteRepository struct {
	mu    sync.RWMutex
	notes map[noteKey]*entities.Note
}

// NewNoteRepository creates an empty store
func NewNoteRepository() *NoteRepository {
	return &NoteRepository{notes: make(map[noteKey]*entities.Note)}
}

// Save writes a note, enforcing the version check the DynamoDB
// implementation does with a conditional expression.
func (r *NoteRepository) Save(_ context.Context, note *entities.Note) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := noteKey{user: note.UserID(), note: note.ID()}
	if stored, ok := r.notes[key]; ok && stored.Version() != note.Version() {
		return appErrors.NewConflict("note was modified concurrently")
	}

	note.IncrementVersion()
	r.notes[key] = cloneNote(note)
	return nil
}

// FindByID loads one note
func (r *NoteRepository) FindByID(_ context.Context, userID valueobjects.UserID, noteID valueobjects.NoteID) (*entities.Note, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	note, ok := r.notes[noteKey{user: userID, note: noteID}]
	if !ok {
		return nil, appErrors.NewNotFound("note not found")
	}
	return cloneNote(note), nil
}

// FindByUser returns the user's notes, newest first
func (r *NoteRepository) FindByUser(_ context.Context, userID valueobjects.UserID) ([]*entities.Note, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	notes := make([]*entities.Note, 0)
	for key, note := range r.notes {
		if key.user == userID {
			notes = append(notes, cloneNote(note))
		}
	}
	sort.Slice(notes, func(i, j int) bool {
		return notes[i].CreatedAt().After(notes[j].CreatedAt())
	})
	return notes, nil
}

// Delete removes a note
func (r *NoteRepository) Delete(_ context.Context, userID valueobjects.UserID, noteID valueobjects.NoteID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := noteKey{user: userID, note: noteID}
	if _, ok := r.notes[key]; !ok {
		return appErrors.NewNotFound("note not found")
	}
	delete(r.notes, key)
	return nil
}

// cloneNote keeps callers from mutating stored state through the pointer
func cloneNote(note *entities.Note) *entities.Note {
	return entities.ReconstructNote(
		note.ID(), note.UserID(), note.Title(), note.Content(),
		note.Version(), note.CreatedAt(), note.UpdatedAt(),
	)
}
