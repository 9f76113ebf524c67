package services

import (
	"context"

	"go.uber.org/zap"

	"studyflow-backend/application/ports"
	"studyflow-backend/domain/core/entities"
	"studyflow-backend/domain/core/valueobjects"
	domainservices "studyflow-backend/domain/services"
	appErrors "studyflow-backend/pkg/errors"
)

// Keyword count tiers by note length. Longer notes support more
// suggestions before the tail becomes noise.
const (
	keywordsShort  = 8
	keywordsMedium = 12
	keywordsLong   = 18

	mediumNoteWords = 400
	longNoteWords   = 1200
)

// conflictRetries bounds internal retries of optimistic write conflicts
// before surfacing the conflict to the caller.
const conflictRetries = 3

// NoteService owns the note lifecycle. Every mutation bumps the user's
// note-set version so cached graph state is invalidated.
type NoteService struct {
	noteRepo    ports.NoteRepository
	cardRepo    ports.FlashcardRepository
	linkRepo    ports.LinkRepository
	versionRepo ports.VersionRepository
	activity    *ActivityService
	vectorizer  *domainservices.Vectorizer
	logger      *zap.Logger
}

// NewNoteService creates a note service
func NewNoteService(
	noteRepo ports.NoteRepository,
	cardRepo ports.FlashcardRepository,
	linkRepo ports.LinkRepository,
	versionRepo ports.VersionRepository,
	activity *ActivityService,
	vectorizer *domainservices.Vectorizer,
	logger *zap.Logger,
) *NoteService {
	return &NoteService{
		noteRepo:    noteRepo,
		cardRepo:    cardRepo,
		linkRepo:    linkRepo,
		versionRepo: versionRepo,
		activity:    activity,
		vectorizer:  vectorizer,
		logger:      logger,
	}
}

// Create stores a new note and records the creation event
func (s *NoteService) Create(
	ctx context.Context,
	userID valueobjects.UserID,
	title, content string,
) (*entities.Note, error) {
	note, err := entities.NewNote(userID, title, content)
	if err != nil {
		return nil, err
	}

	if err := s.noteRepo.Save(ctx, note); err != nil {
		return nil, appErrors.Wrap(err, "saving note")
	}
	s.bumpVersion(ctx, userID)

	if err := s.activity.Record(ctx, userID, entities.EventNoteCreated, note.ID().String()); err != nil {
		s.logger.Warn("note created but activity record failed",
			zap.String("note_id", note.ID().String()),
			zap.Error(err))
	}

	s.logger.Info("note created",
		zap.String("note_id", note.ID().String()),
		zap.Int("word_count", note.WordCount()))
	return note, nil
}

// Get loads one of the user's notes
func (s *NoteService) Get(ctx context.Context, userID valueobjects.UserID, noteID valueobjects.NoteID) (*entities.Note, error) {
	return s.noteRepo.FindByID(ctx, userID, noteID)
}

// List returns all of the user's notes
func (s *NoteService) List(ctx context.Context, userID valueobjects.UserID) ([]*entities.Note, error) {
	return s.noteRepo.FindByUser(ctx, userID)
}

// Update replaces a note's title and content. Concurrent writers are
// serialized by the note's version; the losing writer retries on a fresh
// copy, so the last update wins field-complete rather than merged.
func (s *NoteService) Update(
	ctx context.Context,
	userID valueobjects.UserID,
	noteID valueobjects.NoteID,
	title, content string,
) (*entities.Note, error) {
	var note *entities.Note
	var err error

	for attempt := 0; attempt < conflictRetries; attempt++ {
		note, err = s.noteRepo.FindByID(ctx, userID, noteID)
		if err != nil {
			return nil, err
		}
		if err = note.UpdateContent(title, content); err != nil {
			return nil, err
		}

		err = s.noteRepo.Save(ctx, note)
		if err == nil {
			break
		}
		if !appErrors.IsConflict(err) {
			return nil, appErrors.Wrap(err, "saving note")
		}
		s.logger.Debug("note update conflict, retrying",
			zap.String("note_id", noteID.String()),
			zap.Int("attempt", attempt+1))
	}
	if err != nil {
		return nil, err
	}

	s.bumpVersion(ctx, userID)
	return note, nil
}

// Delete removes a note and cascades to its flashcards and links
func (s *NoteService) Delete(ctx context.Context, userID valueobjects.UserID, noteID valueobjects.NoteID) error {
	if _, err := s.noteRepo.FindByID(ctx, userID, noteID); err != nil {
		return err
	}

	if err := s.cardRepo.DeleteByNote(ctx, userID, noteID); err != nil {
		return appErrors.Wrap(err, "deleting note flashcards")
	}
	if err := s.linkRepo.DeleteByNote(ctx, userID, noteID); err != nil {
		return appErrors.Wrap(err, "deleting note links")
	}
	if err := s.noteRepo.Delete(ctx, userID, noteID); err != nil {
		return appErrors.Wrap(err, "deleting note")
	}

	s.bumpVersion(ctx, userID)
	s.logger.Info("note deleted", zap.String("note_id", noteID.String()))
	return nil
}

// Keywords suggests key terms for a note, scaled by its length
func (s *NoteService) Keywords(ctx context.Context, userID valueobjects.UserID, noteID valueobjects.NoteID) ([]string, error) {
	note, err := s.noteRepo.FindByID(ctx, userID, noteID)
	if err != nil {
		return nil, err
	}

	max := keywordsShort
	switch words := note.WordCount(); {
	case words >= longNoteWords:
		max = keywordsLong
	case words >= mediumNoteWords:
		max = keywordsMedium
	}

	return s.vectorizer.TopTerms(note.Title()+" "+note.Content(), max), nil
}

// bumpVersion invalidates the user's cached graph. A failed bump is logged
// but not surfaced: the write it accompanies already succeeded, and the
// graph cache degrades to serving one stale read.
func (s *NoteService) bumpVersion(ctx context.Context, userID valueobjects.UserID) {
	if _, err := s.versionRepo.Increment(ctx, userID); err != nil {
		s.logger.Warn("note-set version bump failed",
			zap.String("user_id", userID.String()),
			zap.Error(err))
	}
}
