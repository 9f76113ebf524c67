package entities

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "studyflow-backend/pkg/errors"
)

func TestNewNote(t *testing.T) {
	t.Run("valid note", func(t *testing.T) {
		note, err := NewNote("user-1", "  Photosynthesis  ", "Plants convert light.")
		require.NoError(t, err)

		assert.NotEmpty(t, note.ID())
		assert.Equal(t, "Photosynthesis", note.Title())
		assert.Equal(t, "Plants convert light.", note.Content())
		assert.Zero(t, note.Version())
		assert.False(t, note.CreatedAt().IsZero())
	})

	t.Run("rejects blank title", func(t *testing.T) {
		_, err := NewNote("user-1", "   ", "content")
		require.Error(t, err)
		assert.True(t, appErrors.IsValidation(err))
	})

	t.Run("rejects oversized title", func(t *testing.T) {
		_, err := NewNote("user-1", strings.Repeat("x", 501), "content")
		assert.True(t, appErrors.IsValidation(err))
	})

	t.Run("rejects oversized content", func(t *testing.T) {
		_, err := NewNote("user-1", "Title", strings.Repeat("x", 50001))
		assert.True(t, appErrors.IsValidation(err))
	})

	t.Run("empty content is allowed", func(t *testing.T) {
		note, err := NewNote("user-1", "Title", "")
		require.NoError(t, err)
		assert.Zero(t, note.WordCount())
	})
}

func TestNoteUpdateContent(t *testing.T) {
	note, err := NewNote("user-1", "Original", "before")
	require.NoError(t, err)
	created := note.UpdatedAt()

	require.NoError(t, note.UpdateContent("Revised", "after"))
	assert.Equal(t, "Revised", note.Title())
	assert.Equal(t, "after", note.Content())
	assert.False(t, note.UpdatedAt().Before(created))

	err = note.UpdateContent("", "after")
	require.Error(t, err)
	assert.Equal(t, "Revised", note.Title(), "failed update must not mutate")
}

func TestNoteContentPreview(t *testing.T) {
	short, err := NewNote("user-1", "Short", "brief content")
	require.NoError(t, err)
	assert.Equal(t, "brief content", short.ContentPreview())

	long, err := NewNote("user-1", "Long", strings.Repeat("a", 300))
	require.NoError(t, err)
	preview := long.ContentPreview()
	assert.Len(t, preview, 203)
	assert.True(t, strings.HasSuffix(preview, "..."))

	multibyte, err := NewNote("user-1", "Unicode", strings.Repeat("日本語テスト", 60))
	require.NoError(t, err)
	preview = multibyte.ContentPreview()
	assert.True(t, utf8.ValidString(preview), "truncation must not split a rune")
	assert.Equal(t, strings.Repeat("日本語テスト", 40)+"...", preview)
}

func TestNoteWordCount(t *testing.T) {
	note, err := NewNote("user-1", "Counting", "  one   two\nthree  ")
	require.NoError(t, err)
	assert.Equal(t, 3, note.WordCount())
}
