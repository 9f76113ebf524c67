package textgen

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appErrors "studyflow-backend/pkg/errors"
)

func TestGeneratorGenerate(t *testing.T) {
	ctx := context.Background()

	t.Run("parses generated cards", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

			var req generateRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "Biology", req.Title)
			assert.Equal(t, 3, req.Count)

			json.NewEncoder(w).Encode(map[string]interface{}{
				"cards": []map[string]string{
					{"question": "What divides?", "answer": "Cells"},
					{"question": "How?", "answer": "Mitosis"},
				},
			})
		}))
		defer server.Close()

		generator := NewGenerator(Config{Endpoint: server.URL, APIKey: "secret"}, zap.NewNop())

		pairs, err := generator.Generate(ctx, "Biology", "Cells divide by mitosis.", 3)
		require.NoError(t, err)
		require.Len(t, pairs, 2)
		assert.Equal(t, "What divides?", pairs[0].Question)
		assert.Equal(t, "Mitosis", pairs[1].Answer)
	})

	t.Run("non-200 is a computation error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		generator := NewGenerator(Config{Endpoint: server.URL}, zap.NewNop())

		_, err := generator.Generate(ctx, "T", "c", 1)
		assert.True(t, appErrors.IsComputation(err))
	})

	t.Run("circuit opens after consecutive failures", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		generator := NewGenerator(Config{Endpoint: server.URL}, zap.NewNop())

		for i := 0; i < 5; i++ {
			_, err := generator.Generate(ctx, "T", "c", 1)
			require.Error(t, err)
		}

		// Circuit is open now; the request fails without reaching the server
		_, err := generator.Generate(ctx, "T", "c", 1)
		assert.True(t, appErrors.IsComputation(err))
	})
}

func TestStubGenerator(t *testing.T) {
	ctx := context.Background()
	generator := NewStubGenerator()

	t.Run("one card per sentence up to count", func(t *testing.T) {
		pairs, err := generator.Generate(ctx, "Biology", "Cells divide. Mitosis has phases. DNA replicates first.", 2)
		require.NoError(t, err)
		require.Len(t, pairs, 2)
		assert.Equal(t, "Cells divide", pairs[0].Answer)
		assert.Contains(t, pairs[0].Question, "Biology")
	})

	t.Run("empty content yields no cards", func(t *testing.T) {
		pairs, err := generator.Generate(ctx, "Empty", "   ", 5)
		require.NoError(t, err)
		assert.Empty(t, pairs)
	})
}
