package services

import (
	"context"

	"go.uber.org/zap"

	"studyflow-backend/application/ports"
	"studyflow-backend/domain/core/entities"
	"studyflow-backend/domain/core/valueobjects"
	appErrors "studyflow-backend/pkg/errors"
)

const (
	defaultGeneratedCards = 5
	maxGeneratedCards     = 20
)

// FlashcardStats summarizes a user's deck for the profile view
type FlashcardStats struct {
	Total          int     `json:"total"`
	New            int     `json:"new"`
	Learning       int     `json:"learning"`
	Mastered       int     `json:"mastered"`
	DueToday       int     `json:"due_today"`
	AverageMastery float64 `json:"average_mastery"`
}

// FlashcardService owns flashcard authoring: manual creation, generation
// from note content, and listing. Review state transitions live in
// ReviewService.
type FlashcardService struct {
	cardRepo  ports.FlashcardRepository
	noteRepo  ports.NoteRepository
	generator ports.FlashcardGenerator
	activity  *ActivityService
	logger    *zap.Logger
}

// NewFlashcardService creates a flashcard service
func NewFlashcardService(
	cardRepo ports.FlashcardRepository,
	noteRepo ports.NoteRepository,
	generator ports.FlashcardGenerator,
	activity *ActivityService,
	logger *zap.Logger,
) *FlashcardService {
	return &FlashcardService{
		cardRepo:  cardRepo,
		noteRepo:  noteRepo,
		generator: generator,
		activity:  activity,
		logger:    logger,
	}
}

// Create stores one manually authored card
func (s *FlashcardService) Create(
	ctx context.Context,
	userID valueobjects.UserID,
	noteID valueobjects.NoteID,
	question, answer string,
) (*entities.Flashcard, error) {
	if _, err := s.noteRepo.FindByID(ctx, userID, noteID); err != nil {
		return nil, err
	}

	card, err := entities.NewFlashcard(userID, noteID, question, answer)
	if err != nil {
		return nil, err
	}
	if err := s.cardRepo.Save(ctx, card); err != nil {
		return nil, appErrors.Wrap(err, "saving flashcard")
	}

	s.recordCreated(ctx, userID, card)
	return card, nil
}

// Generate produces cards from a note's content via the external text
// generation service and stores them.
func (s *FlashcardService) Generate(
	ctx context.Context,
	userID valueobjects.UserID,
	noteID valueobjects.NoteID,
	count int,
) ([]*entities.Flashcard, error) {
	if count <= 0 {
		count = defaultGeneratedCards
	}
	if count > maxGeneratedCards {
		count = maxGeneratedCards
	}

	note, err := s.noteRepo.FindByID(ctx, userID, noteID)
	if err != nil {
		return nil, err
	}
	if note.WordCount() == 0 {
		return nil, appErrors.NewValidation("note has no content to generate from")
	}

	pairs, err := s.generator.Generate(ctx, note.Title(), note.Content(), count)
	if err != nil {
		return nil, err
	}
	if len(pairs) == 0 {
		return nil, appErrors.NewComputation("generation produced no flashcards", nil)
	}

	cards := make([]*entities.Flashcard, 0, len(pairs))
	for _, pair := range pairs {
		card, err := entities.NewFlashcard(userID, noteID, pair.Question, pair.Answer)
		if err != nil {
			s.logger.Warn("skipping malformed generated pair",
				zap.String("note_id", noteID.String()),
				zap.Error(err))
			continue
		}
		if err := s.cardRepo.Save(ctx, card); err != nil {
			return nil, appErrors.Wrap(err, "saving generated flashcard")
		}
		s.recordCreated(ctx, userID, card)
		cards = append(cards, card)
	}
	if len(cards) == 0 {
		return nil, appErrors.NewComputation("generation produced no usable flashcards", nil)
	}

	s.logger.Info("flashcards generated",
		zap.String("note_id", noteID.String()),
		zap.Int("count", len(cards)))
	return cards, nil
}

// Get loads one of the user's cards
func (s *FlashcardService) Get(ctx context.Context, userID valueobjects.UserID, cardID valueobjects.FlashcardID) (*entities.Flashcard, error) {
	return s.cardRepo.FindByID(ctx, userID, cardID)
}

// List returns the user's cards, optionally only those due today
func (s *FlashcardService) List(
	ctx context.Context,
	userID valueobjects.UserID,
	dueOnly bool,
) ([]*entities.Flashcard, error) {
	cards, err := s.cardRepo.FindByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, "loading flashcards")
	}
	if !dueOnly {
		return cards, nil
	}

	today := valueobjects.Today()
	due := make([]*entities.Flashcard, 0, len(cards))
	for _, card := range cards {
		if card.IsDue(today) {
			due = append(due, card)
		}
	}
	return due, nil
}

// ListByNote returns the cards derived from one note
func (s *FlashcardService) ListByNote(
	ctx context.Context,
	userID valueobjects.UserID,
	noteID valueobjects.NoteID,
) ([]*entities.Flashcard, error) {
	if _, err := s.noteRepo.FindByID(ctx, userID, noteID); err != nil {
		return nil, err
	}
	return s.cardRepo.FindByNote(ctx, userID, noteID)
}

// Stats aggregates deck statistics for the profile view
func (s *FlashcardService) Stats(ctx context.Context, userID valueobjects.UserID) (*FlashcardStats, error) {
	cards, err := s.cardRepo.FindByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, "loading flashcards")
	}

	stats := &FlashcardStats{Total: len(cards)}
	today := valueobjects.Today()
	var masterySum float64
	for _, card := range cards {
		switch card.Stage() {
		case entities.StageNew:
			stats.New++
		case entities.StageLearning:
			stats.Learning++
		case entities.StageMastered:
			stats.Mastered++
		}
		if card.IsDue(today) {
			stats.DueToday++
		}
		masterySum += card.MasteryLevel()
	}
	if stats.Total > 0 {
		stats.AverageMastery = masterySum / float64(stats.Total)
	}
	return stats, nil
}

func (s *FlashcardService) recordCreated(ctx context.Context, userID valueobjects.UserID, card *entities.Flashcard) {
	if err := s.activity.Record(ctx, userID, entities.EventFlashcardCreated, card.ID().String()); err != nil {
		s.logger.Warn("flashcard created but activity record failed",
			zap.String("card_id", card.ID().String()),
			zap.Error(err))
	}
}
