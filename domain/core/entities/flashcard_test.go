package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studyflow-backend/domain/core/valueobjects"
	appErrors "studyflow-backend/pkg/errors"
)

func TestNewFlashcard(t *testing.T) {
	t.Run("new card is due immediately with zero mastery", func(t *testing.T) {
		card, err := NewFlashcard("user-1", "note-1", "Q?", "A.")
		require.NoError(t, err)

		assert.Zero(t, card.MasteryLevel())
		assert.Zero(t, card.ReviewCount())
		assert.Nil(t, card.LastPerformance())
		assert.True(t, card.IsDue(valueobjects.Today()))
		assert.Equal(t, StageNew, card.Stage())
	})

	t.Run("rejects blank question or answer", func(t *testing.T) {
		_, err := NewFlashcard("user-1", "note-1", "  ", "A.")
		assert.True(t, appErrors.IsValidation(err))

		_, err = NewFlashcard("user-1", "note-1", "Q?", "")
		assert.True(t, appErrors.IsValidation(err))
	})
}

func TestFlashcardStage(t *testing.T) {
	card, err := NewFlashcard("user-1", "note-1", "Q?", "A.")
	require.NoError(t, err)
	today := valueobjects.Today()

	card.ApplyReview(ReviewResult{
		MasteryLevel:       30,
		Performance:        100,
		ConsecutiveCorrect: 1,
		NextReview:         today.AddDays(1),
	})
	assert.Equal(t, StageLearning, card.Stage())
	assert.Equal(t, 1, card.ReviewCount())

	card.ApplyReview(ReviewResult{
		MasteryLevel:       85,
		Performance:        100,
		ConsecutiveCorrect: 2,
		NextReview:         today.AddDays(2),
	})
	assert.Equal(t, StageMastered, card.Stage())
	require.NotNil(t, card.LastPerformance())
	assert.Equal(t, 100, *card.LastPerformance())
}

func TestFlashcardLastPerformanceIsCopied(t *testing.T) {
	card, err := NewFlashcard("user-1", "note-1", "Q?", "A.")
	require.NoError(t, err)
	card.ApplyReview(ReviewResult{
		MasteryLevel:       30,
		Performance:        70,
		ConsecutiveCorrect: 1,
		NextReview:         valueobjects.Today().AddDays(1),
	})

	p := card.LastPerformance()
	*p = 5
	assert.Equal(t, 70, *card.LastPerformance())
}

func TestFlashcardIsDue(t *testing.T) {
	card, err := NewFlashcard("user-1", "note-1", "Q?", "A.")
	require.NoError(t, err)
	today := valueobjects.Today()

	card.ApplyReview(ReviewResult{
		MasteryLevel:       30,
		Performance:        100,
		ConsecutiveCorrect: 1,
		NextReview:         today.AddDays(3),
	})

	assert.False(t, card.IsDue(today))
	assert.False(t, card.IsDue(today.AddDays(2)))
	assert.True(t, card.IsDue(today.AddDays(3)), "due on the scheduled day itself")
	assert.True(t, card.IsDue(today.AddDays(10)), "overdue cards stay due")
}
