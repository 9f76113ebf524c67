package services

import (
	"context"

	"go.uber.org/zap"

	"studyflow-backend/application/ports"
	"studyflow-backend/domain/core/entities"
	"studyflow-backend/domain/core/valueobjects"
	domainservices "studyflow-backend/domain/services"
	"studyflow-backend/internal/config"
	appErrors "studyflow-backend/pkg/errors"
)

// ReviewService applies review results to flashcards. Concurrent reviews
// of the same card are serialized by the card's version: the losing writer
// reloads the updated card and reapplies its review, so both reviews land.
type ReviewService struct {
	cardRepo ports.FlashcardRepository
	provider *config.Provider
	activity *ActivityService
	logger   *zap.Logger
}

// NewReviewService creates a review service
func NewReviewService(
	cardRepo ports.FlashcardRepository,
	provider *config.Provider,
	activity *ActivityService,
	logger *zap.Logger,
) *ReviewService {
	return &ReviewService{
		cardRepo: cardRepo,
		provider: provider,
		activity: activity,
		logger:   logger,
	}
}

// Review records one review of a card and returns its updated state
func (s *ReviewService) Review(
	ctx context.Context,
	userID valueobjects.UserID,
	cardID valueobjects.FlashcardID,
	performance int,
) (*entities.Flashcard, error) {
	perf, err := valueobjects.NewPerformance(performance)
	if err != nil {
		return nil, err
	}

	scheduler := s.scheduler()
	today := valueobjects.Today()

	var card *entities.Flashcard
	for attempt := 0; attempt < conflictRetries; attempt++ {
		card, err = s.cardRepo.FindByID(ctx, userID, cardID)
		if err != nil {
			return nil, err
		}

		scheduler.Review(card, perf, today)

		err = s.cardRepo.Save(ctx, card)
		if err == nil {
			break
		}
		if !appErrors.IsConflict(err) {
			return nil, appErrors.Wrap(err, "saving review")
		}
		s.logger.Debug("review conflict, reapplying on fresh card",
			zap.String("card_id", cardID.String()),
			zap.Int("attempt", attempt+1))
	}
	if err != nil {
		return nil, err
	}

	if recordErr := s.activity.Record(ctx, userID, entities.EventFlashcardReviewed, cardID.String()); recordErr != nil {
		s.logger.Warn("review saved but activity record failed",
			zap.String("card_id", cardID.String()),
			zap.Error(recordErr))
	}

	s.logger.Info("flashcard reviewed",
		zap.String("card_id", cardID.String()),
		zap.Int("performance", performance),
		zap.Float64("mastery", card.MasteryLevel()),
		zap.String("next_review", card.NextReview().String()))
	return card, nil
}

func (s *ReviewService) scheduler() *domainservices.Scheduler {
	tuning := s.provider.Snapshot().Scheduler
	return domainservices.NewScheduler(domainservices.SchedulerConfig{
		Alpha:            tuning.Alpha,
		PassCutoff:       tuning.PassCutoff,
		BaseIntervalDays: tuning.BaseIntervalDays,
		GrowthFactor:     tuning.GrowthFactor,
		MaxIntervalDays:  tuning.MaxIntervalDays,
	})
}
