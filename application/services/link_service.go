package services

import (
	"context"

	"go.uber.org/zap"

	"studyflow-backend/application/ports"
	"studyflow-backend/domain/core/entities"
	"studyflow-backend/domain/core/valueobjects"
	appErrors "studyflow-backend/pkg/errors"
)

// LinkService manages user-created links between notes. Manual links feed
// the graph builder alongside computed similarity edges.
type LinkService struct {
	noteRepo    ports.NoteRepository
	linkRepo    ports.LinkRepository
	versionRepo ports.VersionRepository
	logger      *zap.Logger
}

// NewLinkService creates a link service
func NewLinkService(
	noteRepo ports.NoteRepository,
	linkRepo ports.LinkRepository,
	versionRepo ports.VersionRepository,
	logger *zap.Logger,
) *LinkService {
	return &LinkService{
		noteRepo:    noteRepo,
		linkRepo:    linkRepo,
		versionRepo: versionRepo,
		logger:      logger,
	}
}

// Create links two of the user's notes. Both endpoints must exist and
// belong to the user; linking an already linked pair is a no-op.
func (s *LinkService) Create(
	ctx context.Context,
	userID valueobjects.UserID,
	sourceID, targetID valueobjects.NoteID,
) (entities.ManualLink, error) {
	link, err := entities.NewManualLink(userID, sourceID, targetID)
	if err != nil {
		return entities.ManualLink{}, err
	}

	if _, err := s.noteRepo.FindByID(ctx, userID, sourceID); err != nil {
		return entities.ManualLink{}, err
	}
	if _, err := s.noteRepo.FindByID(ctx, userID, targetID); err != nil {
		return entities.ManualLink{}, err
	}

	if err := s.linkRepo.Save(ctx, link); err != nil {
		return entities.ManualLink{}, appErrors.Wrap(err, "saving link")
	}
	s.bumpVersion(ctx, userID)

	s.logger.Info("manual link created",
		zap.String("source_id", sourceID.String()),
		zap.String("target_id", targetID.String()))
	return link, nil
}

// Delete removes a link between two notes
func (s *LinkService) Delete(
	ctx context.Context,
	userID valueobjects.UserID,
	sourceID, targetID valueobjects.NoteID,
) error {
	if err := s.linkRepo.Delete(ctx, userID, sourceID, targetID); err != nil {
		return err
	}
	s.bumpVersion(ctx, userID)
	return nil
}

// Outgoing returns the links a note points at
func (s *LinkService) Outgoing(
	ctx context.Context,
	userID valueobjects.UserID,
	noteID valueobjects.NoteID,
) ([]entities.ManualLink, error) {
	if _, err := s.noteRepo.FindByID(ctx, userID, noteID); err != nil {
		return nil, err
	}

	all, err := s.linkRepo.FindByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, "loading links")
	}
	outgoing := make([]entities.ManualLink, 0)
	for _, link := range all {
		if link.SourceID == noteID {
			outgoing = append(outgoing, link)
		}
	}
	return outgoing, nil
}

// Backlinks returns the links pointing at a note
func (s *LinkService) Backlinks(
	ctx context.Context,
	userID valueobjects.UserID,
	noteID valueobjects.NoteID,
) ([]entities.ManualLink, error) {
	if _, err := s.noteRepo.FindByID(ctx, userID, noteID); err != nil {
		return nil, err
	}
	links, err := s.linkRepo.FindByTarget(ctx, userID, noteID)
	if err != nil {
		return nil, appErrors.Wrap(err, "loading backlinks")
	}
	return links, nil
}

func (s *LinkService) bumpVersion(ctx context.Context, userID valueobjects.UserID) {
	if _, err := s.versionRepo.Increment(ctx, userID); err != nil {
		s.logger.Warn("note-set version bump failed",
			zap.String("user_id", userID.String()),
			zap.Error(err))
	}
}
