package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"studyflow-backend/domain/core/entities"
	"studyflow-backend/domain/core/valueobjects"
	"studyflow-backend/infrastructure/persistence/memory"
	appErrors "studyflow-backend/pkg/errors"
)

type capturingPublisher struct {
	published []entities.ActivityEvent
	fail      bool
}

func (p *capturingPublisher) Publish(_ context.Context, event entities.ActivityEvent) error {
	if p.fail {
		return errors.New("bus unavailable")
	}
	p.published = append(p.published, event)
	return nil
}

func appendEventAt(t *testing.T, repo *memory.ActivityRepository, userID valueobjects.UserID, eventType entities.EventType, day valueobjects.Day) {
	t.Helper()
	require.NoError(t, repo.Append(context.Background(), entities.ActivityEvent{
		ID:         valueobjects.NewEventID(),
		UserID:     userID,
		Type:       eventType,
		TargetID:   "target",
		OccurredAt: day.Time().Add(12 * time.Hour),
	}))
}

func TestActivityRecord(t *testing.T) {
	ctx := context.Background()

	t.Run("appends and publishes", func(t *testing.T) {
		repo := memory.NewActivityRepository()
		publisher := &capturingPublisher{}
		service := NewActivityService(repo, publisher, zap.NewNop())

		require.NoError(t, service.Record(ctx, "user-1", entities.EventNoteCreated, "note-1"))

		require.Len(t, publisher.published, 1)
		assert.Equal(t, entities.EventNoteCreated, publisher.published[0].Type)

		totals, err := repo.CountByType(ctx, "user-1")
		require.NoError(t, err)
		assert.Equal(t, 1, totals[entities.EventNoteCreated])
	})

	t.Run("publish failure does not fail the record", func(t *testing.T) {
		repo := memory.NewActivityRepository()
		service := NewActivityService(repo, &capturingPublisher{fail: true}, zap.NewNop())

		require.NoError(t, service.Record(ctx, "user-1", entities.EventNoteReviewed, "note-1"))

		totals, err := repo.CountByType(ctx, "user-1")
		require.NoError(t, err)
		assert.Equal(t, 1, totals[entities.EventNoteReviewed])
	})

	t.Run("nil publisher is allowed", func(t *testing.T) {
		service := NewActivityService(memory.NewActivityRepository(), nil, zap.NewNop())
		assert.NoError(t, service.Record(ctx, "user-1", entities.EventFlashcardReviewed, "card-1"))
	})
}

func TestActivityDayCounts(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewActivityRepository()
	service := NewActivityService(repo, nil, zap.NewNop())

	today := valueobjects.Today()
	appendEventAt(t, repo, "user-1", entities.EventNoteCreated, today.AddDays(-2))
	appendEventAt(t, repo, "user-1", entities.EventNoteCreated, today.AddDays(-2))
	appendEventAt(t, repo, "user-1", entities.EventFlashcardReviewed, today)

	t.Run("zero-fills every day in range", func(t *testing.T) {
		counts, err := service.DayCounts(ctx, "user-1", today.AddDays(-3), today, entities.EventFilterAll)
		require.NoError(t, err)

		require.Len(t, counts, 4)
		assert.Zero(t, counts[0].Count)
		assert.Equal(t, 2, counts[1].Count)
		assert.Zero(t, counts[2].Count)
		assert.Equal(t, 1, counts[3].Count)
	})

	t.Run("filters by event type", func(t *testing.T) {
		counts, err := service.DayCounts(ctx, "user-1", today.AddDays(-3), today, entities.EventFlashcardReviewed)
		require.NoError(t, err)
		assert.Zero(t, counts[1].Count)
		assert.Equal(t, 1, counts[3].Count)
	})

	t.Run("rejects inverted range", func(t *testing.T) {
		_, err := service.DayCounts(ctx, "user-1", today, today.AddDays(-1), entities.EventFilterAll)
		assert.True(t, appErrors.IsValidation(err))
	})

	t.Run("rejects oversized range", func(t *testing.T) {
		_, err := service.DayCounts(ctx, "user-1", today.AddDays(-400), today, entities.EventFilterAll)
		assert.True(t, appErrors.IsValidation(err))
	})
}

func TestActivitySummary(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewActivityRepository()
	service := NewActivityService(repo, nil, zap.NewNop())

	today := valueobjects.Today()
	// Three-day streak ending today, plus one old event outside both windows
	appendEventAt(t, repo, "user-1", entities.EventNoteCreated, today.AddDays(-2))
	appendEventAt(t, repo, "user-1", entities.EventFlashcardReviewed, today.AddDays(-1))
	appendEventAt(t, repo, "user-1", entities.EventFlashcardReviewed, today)
	appendEventAt(t, repo, "user-1", entities.EventNoteCreated, today.AddDays(-60))

	summary, err := service.Summary(ctx, "user-1")
	require.NoError(t, err)

	assert.Equal(t, 2, summary.TotalsByType[entities.EventNoteCreated])
	assert.Equal(t, 2, summary.TotalsByType[entities.EventFlashcardReviewed])
	assert.Equal(t, 3, summary.EventsLast7d)
	assert.Equal(t, 3, summary.EventsLast30d)
	assert.Equal(t, 3, summary.CurrentStreak)
	assert.Equal(t, 3, summary.BestStreak)
	assert.Equal(t, 4, summary.ActiveDays)
}

func TestStreak(t *testing.T) {
	today := valueobjects.Today()

	days := func(offsets ...int) []valueobjects.Day {
		result := make([]valueobjects.Day, 0, len(offsets))
		for _, offset := range offsets {
			result = append(result, today.AddDays(offset))
		}
		return result
	}

	tests := []struct {
		name     string
		active   []valueobjects.Day
		expected int
	}{
		{"no activity", nil, 0},
		{"today only", days(0), 1},
		{"unbroken run ending today", days(0, -1, -2), 3},
		{"run ending yesterday still counts", days(-1, -2), 2},
		{"gap two days ago breaks the streak", days(0, -1, -3, -4), 2},
		{"activity only in the past", days(-5, -6), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, streak(tt.active, today))
		})
	}
}

func TestBestStreak(t *testing.T) {
	today := valueobjects.Today()

	days := func(offsets ...int) []valueobjects.Day {
		result := make([]valueobjects.Day, 0, len(offsets))
		for _, offset := range offsets {
			result = append(result, today.AddDays(offset))
		}
		return result
	}

	tests := []struct {
		name     string
		active   []valueobjects.Day
		expected int
	}{
		{"no activity", nil, 0},
		{"single day", days(-10), 1},
		{"one unbroken run", days(-2, -1, 0), 3},
		{"longest past run beats the current one", days(0, -5, -6, -7, -8), 4},
		{"order of input does not matter", days(-6, -8, -7, 0, -5), 4},
		{"separated singles", days(0, -2, -4), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, bestStreak(tt.active))
		})
	}
}

func TestActivityRecent(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewActivityRepository()
	service := NewActivityService(repo, nil, zap.NewNop())

	today := valueobjects.Today()
	for i := 0; i < 5; i++ {
		appendEventAt(t, repo, "user-1", entities.EventNoteCreated, today.AddDays(-i))
	}

	recent, err := service.Recent(ctx, "user-1", 3)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.True(t, recent[0].OccurredAt.After(recent[2].OccurredAt), "newest first")

	all, err := service.Recent(ctx, "user-1", 0)
	require.NoError(t, err)
	assert.Len(t, all, 5, "non-positive limit falls back to the cap")
}
