package dynamodb

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studyflow-backend/domain/core/entities"
	"studyflow-backend/domain/core/valueobjects"
)

func TestEventRangeBounds(t *testing.T) {
	from, err := valueobjects.ParseDay("2026-03-01")
	require.NoError(t, err)
	to, err := valueobjects.ParseDay("2026-03-02")
	require.NoError(t, err)

	lower, upper := eventRangeBounds(from, to)

	sk := func(ts string) string {
		occurred, err := time.Parse(time.RFC3339Nano, ts)
		require.NoError(t, err)
		return eventSK(entities.ActivityEvent{
			ID:         valueobjects.NewEventID(),
			OccurredAt: occurred,
		})
	}

	t.Run("keys inside the range fall within the bounds", func(t *testing.T) {
		for _, ts := range []string{
			"2026-03-01T00:00:00Z",
			"2026-03-01T12:30:00.25Z",
			"2026-03-02T23:59:59.999999999Z",
		} {
			key := sk(ts)
			assert.GreaterOrEqual(t, key, lower, ts)
			assert.LessOrEqual(t, key, upper, ts)
		}
	})

	t.Run("keys after the range sort above the upper bound", func(t *testing.T) {
		for _, ts := range []string{
			"2026-03-03T00:00:00Z",
			"2026-03-03T00:00:00.000000001Z",
			"2026-03-03T00:00:00.5Z",
		} {
			assert.Greater(t, sk(ts), upper, ts)
		}
	})

	t.Run("keys before the range sort below the lower bound", func(t *testing.T) {
		assert.Less(t, sk("2026-02-28T23:59:59.999999999Z"), lower)
	})
}
