package memory

import (
	"context"
	"sort"
	"sync"

	"studyflow-backend/domain/core/entities"
	"studyflow-backend/domain/core/valueobjects"
	appErrors "studyflow-backend/pkg/errors"
)

type linkKey struct {
	user   valueobjects.UserID
	source valueobjects.NoteID
	target valueobjects.NoteID
}

// LinkRepository is a mutex-guarded in-memory manual link store
type LinkRepository struct {
	mu    sync.RWMutex
	links map[linkKey]entities.ManualLink
}

// NewLinkRepository creates an empty store
func NewLinkRepository() *LinkRepository {
	return &LinkRepository{links: make(map[linkKey]entities.ManualLink)}
}

// Save stores a link; saving an existing pair keeps the original
func (r *LinkRepository) Save(_ context.Context, link entities.ManualLink) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := linkKey{user: link.UserID, source: link.SourceID, target: link.TargetID}
	if _, ok := r.links[key]; ok {
		return nil
	}
	r.links[key] = link
	return nil
}

// Delete removes a link
func (r *LinkRepository) Delete(_ context.Context, userID valueobjects.UserID, sourceID, targetID valueobjects.NoteID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := linkKey{user: userID, source: sourceID, target: targetID}
	if _, ok := r.links[key]; !ok {
		return appErrors.NewNotFound("link not found")
	}
	delete(r.links, key)
	return nil
}

// FindByUser returns all of the user's links, oldest first
func (r *LinkRepository) FindByUser(_ context.Context, userID valueobjects.UserID) ([]entities.ManualLink, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	links := make([]entities.ManualLink, 0)
	for key, link := range r.links {
		if key.user == userID {
			links = append(links, link)
		}
	}
	sortLinks(links)
	return links, nil
}

// FindByTarget returns the links pointing at a note
func (r *LinkRepository) FindByTarget(_ context.Context, userID valueobjects.UserID, targetID valueobjects.NoteID) ([]entities.ManualLink, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	links := make([]entities.ManualLink, 0)
	for key, link := range r.links {
		if key.user == userID && key.target == targetID {
			links = append(links, link)
		}
	}
	sortLinks(links)
	return links, nil
}

// DeleteByNote removes every link touching a note in either direction
func (r *LinkRepository) DeleteByNote(_ context.Context, userID valueobjects.UserID, noteID valueobjects.NoteID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for key := range r.links {
		if key.user == userID && (key.source == noteID || key.target == noteID) {
			delete(r.links, key)
		}
	}
	return nil
}

func sortLinks(links []entities.ManualLink) {
	sort.Slice(links, func(i, j int) bool {
		if !links[i].CreatedAt.Equal(links[j].CreatedAt) {
			return links[i].CreatedAt.Before(links[j].CreatedAt)
		}
		if links[i].SourceID != links[j].SourceID {
			return links[i].SourceID < links[j].SourceID
		}
		return links[i].TargetID < links[j].TargetID
	})
}
