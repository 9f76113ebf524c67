package memory

import (
	"context"
	"sync"

	"studyflow-backend/domain/core/valueobjects"
)

// VersionRepository tracks per-user note-set versions in memory
type VersionRepository struct {
	mu       sync.Mutex
	versions map[valueobjects.UserID]int64
}

// NewVersionRepository creates an empty version table
func NewVersionRepository() *VersionRepository {
	return &VersionRepository{versions: make(map[valueobjects.UserID]int64)}
}

// Current returns the user's note-set version, zero for a new user
func (r *VersionRepository) Current(_ context.Context, userID valueobjects.UserID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.versions[userID], nil
}

// Increment bumps and returns the user's note-set version
func (r *VersionRepository) Increment(_ context.Context, userID valueobjects.UserID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.versions[userID]++
	return r.versions[userID], nil
}
