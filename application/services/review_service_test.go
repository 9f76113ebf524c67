package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"studyflow-backend/domain/core/entities"
	"studyflow-backend/domain/core/valueobjects"
	"studyflow-backend/infrastructure/persistence/memory"
	"studyflow-backend/internal/config"
	appErrors "studyflow-backend/pkg/errors"
)

type reviewFixture struct {
	service  *ReviewService
	cardRepo *memory.FlashcardRepository
	activity *memory.ActivityRepository
}

func newReviewFixture() *reviewFixture {
	logger := zap.NewNop()
	cardRepo := memory.NewFlashcardRepository()
	activityRepo := memory.NewActivityRepository()
	provider := config.NewProvider(config.Default())

	return &reviewFixture{
		service:  NewReviewService(cardRepo, provider, NewActivityService(activityRepo, nil, logger), logger),
		cardRepo: cardRepo,
		activity: activityRepo,
	}
}

func (fx *reviewFixture) seedCard(t *testing.T) *entities.Flashcard {
	t.Helper()
	card, err := entities.NewFlashcard("user-1", "note-1", "Q?", "A.")
	require.NoError(t, err)
	require.NoError(t, fx.cardRepo.Save(context.Background(), card))
	return card
}

func TestReviewServiceReview(t *testing.T) {
	ctx := context.Background()

	t.Run("applies scheduler transition and records activity", func(t *testing.T) {
		fx := newReviewFixture()
		card := fx.seedCard(t)

		updated, err := fx.service.Review(ctx, "user-1", card.ID(), 100)
		require.NoError(t, err)

		assert.InDelta(t, 30.0, updated.MasteryLevel(), 1e-9)
		assert.Equal(t, 1, updated.ReviewCount())
		assert.False(t, updated.IsDue(valueobjects.Today()))

		stored, err := fx.cardRepo.FindByID(ctx, "user-1", card.ID())
		require.NoError(t, err)
		assert.InDelta(t, 30.0, stored.MasteryLevel(), 1e-9)

		totals, err := fx.activity.CountByType(ctx, "user-1")
		require.NoError(t, err)
		assert.Equal(t, 1, totals[entities.EventFlashcardReviewed])
	})

	t.Run("rejects out-of-range performance", func(t *testing.T) {
		fx := newReviewFixture()
		card := fx.seedCard(t)

		_, err := fx.service.Review(ctx, "user-1", card.ID(), 101)
		assert.True(t, appErrors.IsValidation(err))
		_, err = fx.service.Review(ctx, "user-1", card.ID(), -1)
		assert.True(t, appErrors.IsValidation(err))

		stored, err := fx.cardRepo.FindByID(ctx, "user-1", card.ID())
		require.NoError(t, err)
		assert.Zero(t, stored.ReviewCount(), "rejected review must not mutate")
	})

	t.Run("unknown card", func(t *testing.T) {
		fx := newReviewFixture()
		_, err := fx.service.Review(ctx, "user-1", "missing", 80)
		assert.True(t, appErrors.IsNotFound(err))
	})

	t.Run("other user's card is invisible", func(t *testing.T) {
		fx := newReviewFixture()
		card := fx.seedCard(t)

		_, err := fx.service.Review(ctx, "user-2", card.ID(), 80)
		assert.True(t, appErrors.IsNotFound(err))
	})

	t.Run("sequential reviews both land", func(t *testing.T) {
		fx := newReviewFixture()
		card := fx.seedCard(t)

		first, err := fx.service.Review(ctx, "user-1", card.ID(), 100)
		require.NoError(t, err)
		second, err := fx.service.Review(ctx, "user-1", card.ID(), 100)
		require.NoError(t, err)

		assert.Equal(t, 1, first.ReviewCount())
		assert.Equal(t, 2, second.ReviewCount())
		assert.Equal(t, 2, second.ConsecutiveCorrect())
		// EMA: 0 -> 30 -> 51
		assert.InDelta(t, 51.0, second.MasteryLevel(), 1e-9)
	})

	t.Run("concurrent review conflict is retried internally", func(t *testing.T) {
		logger := zap.NewNop()
		cardRepo := &conflictOnFirstSave{FlashcardRepository: memory.NewFlashcardRepository(), failures: 1}
		activity := NewActivityService(memory.NewActivityRepository(), nil, logger)
		service := NewReviewService(cardRepo, config.NewProvider(config.Default()), activity, logger)

		card, err := entities.NewFlashcard("user-1", "note-1", "Q?", "A.")
		require.NoError(t, err)
		require.NoError(t, cardRepo.Save(ctx, card))

		updated, err := service.Review(ctx, "user-1", card.ID(), 90)
		require.NoError(t, err)
		assert.Equal(t, 1, updated.ReviewCount())
		assert.Equal(t, 3, cardRepo.saves, "seed save, conflicted save, successful retry")
	})

	t.Run("persistent conflict surfaces after bounded retries", func(t *testing.T) {
		logger := zap.NewNop()
		cardRepo := &conflictOnFirstSave{FlashcardRepository: memory.NewFlashcardRepository(), failures: 100}
		activity := NewActivityService(memory.NewActivityRepository(), nil, logger)
		service := NewReviewService(cardRepo, config.NewProvider(config.Default()), activity, logger)

		card, err := entities.NewFlashcard("user-1", "note-1", "Q?", "A.")
		require.NoError(t, err)
		require.NoError(t, cardRepo.Save(ctx, card))

		_, err = service.Review(ctx, "user-1", card.ID(), 90)
		assert.True(t, appErrors.IsConflict(err))
		assert.Equal(t, conflictRetries+1, cardRepo.saves, "seed save plus bounded retries")
	})
}

// conflictOnFirstSave wraps the memory repository, failing Save with a
// conflict until failures saves have been rejected.
type conflictOnFirstSave struct {
	*memory.FlashcardRepository
	failures int
	saves    int
}

func (r *conflictOnFirstSave) Save(ctx context.Context, card *entities.Flashcard) error {
	r.saves++
	if r.saves > 1 && r.failures > 0 {
		r.failures--
		return appErrors.NewConflict("flashcard was modified concurrently")
	}
	return r.FlashcardRepository.Save(ctx, card)
}
