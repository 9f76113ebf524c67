package rest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"studyflow-backend/application/services"
	domainservices "studyflow-backend/domain/services"
	"studyflow-backend/infrastructure/observability"
	"studyflow-backend/infrastructure/persistence/memory"
	"studyflow-backend/infrastructure/textgen"
	"studyflow-backend/internal/config"
	"studyflow-backend/pkg/auth"
	appErrors "studyflow-backend/pkg/errors"
)

const testSecret = "router-test-secret-0123456789abcdef"

func newTestServer(t *testing.T) (*httptest.Server, string) {
	t.Helper()

	logger := zap.NewNop()
	cfg := config.Default()
	cfg.Auth.JWTSecret = testSecret

	noteRepo := memory.NewNoteRepository()
	cardRepo := memory.NewFlashcardRepository()
	linkRepo := memory.NewLinkRepository()
	activityRepo := memory.NewActivityRepository()
	versionRepo := memory.NewVersionRepository()

	provider := config.NewProvider(cfg)
	vectorizer := domainservices.NewVectorizer(nil)
	collector := observability.NewCollector("studyflow_test")

	activity := services.NewActivityService(activityRepo, nil, logger)
	notes := services.NewNoteService(noteRepo, cardRepo, linkRepo, versionRepo, activity, vectorizer, logger)
	links := services.NewLinkService(noteRepo, linkRepo, versionRepo, logger)
	graphs := services.NewGraphService(noteRepo, linkRepo, versionRepo, provider, vectorizer, logger).
		WithMetrics(collector)
	cards := services.NewFlashcardService(cardRepo, noteRepo, textgen.NewStubGenerator(), activity, logger)
	reviews := services.NewReviewService(cardRepo, provider, activity, logger)

	validator, err := auth.NewJWTValidator(auth.JWTConfig{SecretKey: testSecret})
	require.NoError(t, err)
	generator, err := auth.NewJWTGenerator(auth.JWTConfig{SecretKey: testSecret}, time.Hour)
	require.NoError(t, err)
	token, err := generator.GenerateToken("user-1", "student@example.com")
	require.NoError(t, err)

	router := NewRouter(notes, links, graphs, cards, reviews, activity,
		validator, collector, appErrors.NewErrorHandler(logger), cfg, logger)

	server := httptest.NewServer(router.Setup())
	t.Cleanup(server.Close)
	return server, token
}

func doRequest(t *testing.T, server *httptest.Server, token, method, path string, body interface{}) (int, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequest(method, server.URL+path, reader)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, payload
}

func createNote(t *testing.T, server *httptest.Server, token, title, content string) string {
	t.Helper()
	status, body := doRequest(t, server, token, http.MethodPost, "/api/v1/notes", map[string]string{
		"title":   title,
		"content": content,
	})
	require.Equal(t, http.StatusCreated, status, string(body))

	var note struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(body, &note))
	require.NotEmpty(t, note.ID)
	return note.ID
}

func TestRouterAuth(t *testing.T) {
	server, _ := newTestServer(t)

	t.Run("health endpoints are public", func(t *testing.T) {
		status, _ := doRequest(t, server, "", http.MethodGet, "/health", nil)
		assert.Equal(t, http.StatusOK, status)
		status, _ = doRequest(t, server, "", http.MethodGet, "/ready", nil)
		assert.Equal(t, http.StatusOK, status)
		status, _ = doRequest(t, server, "", http.MethodGet, "/metrics", nil)
		assert.Equal(t, http.StatusOK, status)
	})

	t.Run("api requires a bearer token", func(t *testing.T) {
		status, _ := doRequest(t, server, "", http.MethodGet, "/api/v1/notes", nil)
		assert.Equal(t, http.StatusUnauthorized, status)
	})

	t.Run("garbage token is rejected", func(t *testing.T) {
		status, _ := doRequest(t, server, "not-a-token", http.MethodGet, "/api/v1/notes", nil)
		assert.Equal(t, http.StatusUnauthorized, status)
	})
}

func TestRouterNoteLifecycle(t *testing.T) {
	server, token := newTestServer(t)

	noteID := createNote(t, server, token, "Cell biology", "Cells divide by mitosis. Mitosis has phases.")

	t.Run("fetch returns the note", func(t *testing.T) {
		status, body := doRequest(t, server, token, http.MethodGet, "/api/v1/notes/"+noteID, nil)
		require.Equal(t, http.StatusOK, status)

		var note struct {
			Title   string `json:"title"`
			Version int    `json:"version"`
		}
		require.NoError(t, json.Unmarshal(body, &note))
		assert.Equal(t, "Cell biology", note.Title)
		assert.Equal(t, 1, note.Version)
	})

	t.Run("update bumps the version", func(t *testing.T) {
		status, body := doRequest(t, server, token, http.MethodPut, "/api/v1/notes/"+noteID, map[string]string{
			"title":   "Cell biology revised",
			"content": "Cells divide by mitosis.",
		})
		require.Equal(t, http.StatusOK, status)

		var note struct {
			Version int `json:"version"`
		}
		require.NoError(t, json.Unmarshal(body, &note))
		assert.Equal(t, 2, note.Version)
	})

	t.Run("keywords come from note content", func(t *testing.T) {
		status, body := doRequest(t, server, token, http.MethodGet, "/api/v1/notes/"+noteID+"/keywords", nil)
		require.Equal(t, http.StatusOK, status)

		var resp struct {
			Keywords []string `json:"keywords"`
		}
		require.NoError(t, json.Unmarshal(body, &resp))
		assert.Contains(t, resp.Keywords, "mitosis")
	})

	t.Run("invalid note id is a bad request", func(t *testing.T) {
		status, _ := doRequest(t, server, token, http.MethodGet, "/api/v1/notes/not-a-uuid", nil)
		assert.Equal(t, http.StatusBadRequest, status)
	})

	t.Run("blank title is rejected", func(t *testing.T) {
		status, _ := doRequest(t, server, token, http.MethodPost, "/api/v1/notes", map[string]string{
			"title":   "",
			"content": "body",
		})
		assert.Equal(t, http.StatusBadRequest, status)
	})

	t.Run("delete removes the note", func(t *testing.T) {
		status, _ := doRequest(t, server, token, http.MethodDelete, "/api/v1/notes/"+noteID, nil)
		require.Equal(t, http.StatusNoContent, status)

		status, _ = doRequest(t, server, token, http.MethodGet, "/api/v1/notes/"+noteID, nil)
		assert.Equal(t, http.StatusNotFound, status)
	})
}

func TestRouterLinksAndGraph(t *testing.T) {
	server, token := newTestServer(t)

	const chase = "The quick cat chased the lazy dog through the sunny garden near the old stone bridge yesterday"
	first := createNote(t, server, token, "Cats", chase)
	second := createNote(t, server, token, "Dogs", chase)

	t.Run("manual link and backlinks", func(t *testing.T) {
		status, body := doRequest(t, server, token, http.MethodPost,
			"/api/v1/notes/"+first+"/links", map[string]string{"target_id": second})
		require.Equal(t, http.StatusCreated, status, string(body))

		status, body = doRequest(t, server, token, http.MethodGet,
			"/api/v1/notes/"+second+"/backlinks", nil)
		require.Equal(t, http.StatusOK, status)

		var resp struct {
			Links []struct {
				SourceID string `json:"source_id"`
			} `json:"links"`
		}
		require.NoError(t, json.Unmarshal(body, &resp))
		require.Len(t, resp.Links, 1)
		assert.Equal(t, first, resp.Links[0].SourceID)
	})

	t.Run("self link is rejected", func(t *testing.T) {
		status, _ := doRequest(t, server, token, http.MethodPost,
			"/api/v1/notes/"+first+"/links", map[string]string{"target_id": first})
		assert.Equal(t, http.StatusBadRequest, status)
	})

	t.Run("graph has both notes and a connection", func(t *testing.T) {
		status, body := doRequest(t, server, token, http.MethodGet, "/api/v1/graph", nil)
		require.Equal(t, http.StatusOK, status)

		var graph struct {
			Nodes       []json.RawMessage `json:"nodes"`
			Connections []struct {
				Type string `json:"connection_type"`
			} `json:"connections"`
			TotalNodes int `json:"total_nodes"`
		}
		require.NoError(t, json.Unmarshal(body, &graph))
		assert.Equal(t, 2, graph.TotalNodes)
		require.NotEmpty(t, graph.Connections)
		assert.Equal(t, "manual", graph.Connections[0].Type)
	})

	t.Run("per-note connections", func(t *testing.T) {
		status, body := doRequest(t, server, token, http.MethodGet,
			"/api/v1/notes/"+first+"/connections", nil)
		require.Equal(t, http.StatusOK, status)

		var resp struct {
			Connections []json.RawMessage `json:"connections"`
		}
		require.NoError(t, json.Unmarshal(body, &resp))
		assert.NotEmpty(t, resp.Connections)
	})
}

func TestRouterFlashcards(t *testing.T) {
	server, token := newTestServer(t)

	noteID := createNote(t, server, token, "Biology", "Cells divide by mitosis. DNA replicates first. Ribosomes build proteins.")

	t.Run("generate cards from note content", func(t *testing.T) {
		status, body := doRequest(t, server, token, http.MethodPost,
			"/api/v1/notes/"+noteID+"/flashcards", map[string]int{"count": 2})
		require.Equal(t, http.StatusCreated, status, string(body))

		var resp struct {
			Flashcards []struct {
				ID    string `json:"id"`
				Stage string `json:"stage"`
			} `json:"flashcards"`
		}
		require.NoError(t, json.Unmarshal(body, &resp))
		require.Len(t, resp.Flashcards, 2)
		assert.Equal(t, "new", resp.Flashcards[0].Stage)
	})

	t.Run("review moves mastery and schedules the card", func(t *testing.T) {
		status, body := doRequest(t, server, token, http.MethodPost, "/api/v1/flashcards", map[string]string{
			"note_id":  noteID,
			"question": "What divides?",
			"answer":   "Cells",
		})
		require.Equal(t, http.StatusCreated, status)

		var card struct {
			ID string `json:"id"`
		}
		require.NoError(t, json.Unmarshal(body, &card))

		status, body = doRequest(t, server, token, http.MethodPost,
			fmt.Sprintf("/api/v1/flashcards/%s/review", card.ID), map[string]int{"performance": 100})
		require.Equal(t, http.StatusOK, status)

		var reviewed struct {
			MasteryLevel       float64 `json:"mastery_level"`
			ConsecutiveCorrect int     `json:"consecutive_correct"`
		}
		require.NoError(t, json.Unmarshal(body, &reviewed))
		assert.InDelta(t, 30.0, reviewed.MasteryLevel, 1e-9)
		assert.Equal(t, 1, reviewed.ConsecutiveCorrect)
	})

	t.Run("due filter excludes scheduled cards", func(t *testing.T) {
		status, body := doRequest(t, server, token, http.MethodGet, "/api/v1/flashcards?due=true", nil)
		require.Equal(t, http.StatusOK, status)

		var resp struct {
			Flashcards []struct {
				ConsecutiveCorrect int `json:"consecutive_correct"`
			} `json:"flashcards"`
		}
		require.NoError(t, json.Unmarshal(body, &resp))
		// The two generated cards are due today; the reviewed one moved out
		require.Len(t, resp.Flashcards, 2)
		for _, card := range resp.Flashcards {
			assert.Zero(t, card.ConsecutiveCorrect)
		}
	})

	t.Run("stats aggregate the deck", func(t *testing.T) {
		status, body := doRequest(t, server, token, http.MethodGet, "/api/v1/flashcards/stats", nil)
		require.Equal(t, http.StatusOK, status)

		var stats struct {
			Total    int `json:"total"`
			DueToday int `json:"due_today"`
		}
		require.NoError(t, json.Unmarshal(body, &stats))
		assert.Equal(t, 3, stats.Total)
		assert.Equal(t, 2, stats.DueToday)
	})

	t.Run("out of range performance is rejected", func(t *testing.T) {
		status, body := doRequest(t, server, token, http.MethodGet, "/api/v1/flashcards", nil)
		require.Equal(t, http.StatusOK, status)

		var resp struct {
			Flashcards []struct {
				ID string `json:"id"`
			} `json:"flashcards"`
		}
		require.NoError(t, json.Unmarshal(body, &resp))
		require.NotEmpty(t, resp.Flashcards)

		status, _ = doRequest(t, server, token, http.MethodPost,
			fmt.Sprintf("/api/v1/flashcards/%s/review", resp.Flashcards[0].ID), map[string]int{"performance": 150})
		assert.Equal(t, http.StatusBadRequest, status)
	})
}

func TestRouterEventIngestion(t *testing.T) {
	server, token := newTestServer(t)

	noteID := createNote(t, server, token, "Anatomy", "The heart pumps blood through the body.")

	t.Run("reported note review feeds the profile summary", func(t *testing.T) {
		status, body := doRequest(t, server, token, http.MethodPost, "/api/v1/events", map[string]string{
			"type":      "note_reviewed",
			"target_id": noteID,
		})
		require.Equal(t, http.StatusCreated, status, string(body))

		status, body = doRequest(t, server, token, http.MethodGet, "/api/v1/profile/summary", nil)
		require.Equal(t, http.StatusOK, status)

		var summary struct {
			TotalsByType map[string]int `json:"totals_by_type"`
		}
		require.NoError(t, json.Unmarshal(body, &summary))
		assert.Equal(t, 1, summary.TotalsByType["note_reviewed"])
	})

	t.Run("reported events appear in recent", func(t *testing.T) {
		status, body := doRequest(t, server, token, http.MethodGet, "/api/v1/profile/recent?limit=1", nil)
		require.Equal(t, http.StatusOK, status)

		var resp struct {
			Events []struct {
				Type     string `json:"type"`
				TargetID string `json:"target_id"`
			} `json:"events"`
		}
		require.NoError(t, json.Unmarshal(body, &resp))
		require.Len(t, resp.Events, 1)
		assert.Equal(t, "note_reviewed", resp.Events[0].Type)
		assert.Equal(t, noteID, resp.Events[0].TargetID)
	})

	t.Run("unknown type is rejected", func(t *testing.T) {
		status, _ := doRequest(t, server, token, http.MethodPost, "/api/v1/events", map[string]string{
			"type": "note_exported",
		})
		assert.Equal(t, http.StatusBadRequest, status)
	})

	t.Run("the all filter value is not recordable", func(t *testing.T) {
		status, _ := doRequest(t, server, token, http.MethodPost, "/api/v1/events", map[string]string{
			"type": "all",
		})
		assert.Equal(t, http.StatusBadRequest, status)
	})
}

func TestRouterProfile(t *testing.T) {
	server, token := newTestServer(t)

	createNote(t, server, token, "First", "alpha beta gamma")
	createNote(t, server, token, "Second", "delta epsilon zeta")

	t.Run("summary counts events and streak", func(t *testing.T) {
		status, body := doRequest(t, server, token, http.MethodGet, "/api/v1/profile/summary", nil)
		require.Equal(t, http.StatusOK, status)

		var summary struct {
			TotalsByType  map[string]int `json:"totals_by_type"`
			CurrentStreak int            `json:"current_streak_days"`
			BestStreak    int            `json:"best_streak_days"`
		}
		require.NoError(t, json.Unmarshal(body, &summary))
		assert.Equal(t, 2, summary.TotalsByType["note_created"])
		assert.Equal(t, 1, summary.CurrentStreak)
		assert.Equal(t, 1, summary.BestStreak)
	})

	t.Run("activity zero-fills the window", func(t *testing.T) {
		status, body := doRequest(t, server, token, http.MethodGet, "/api/v1/profile/activity", nil)
		require.Equal(t, http.StatusOK, status)

		var resp struct {
			Activity []struct {
				Count int `json:"count"`
			} `json:"activity"`
		}
		require.NoError(t, json.Unmarshal(body, &resp))
		require.Len(t, resp.Activity, 30)
		assert.Equal(t, 2, resp.Activity[len(resp.Activity)-1].Count)
	})

	t.Run("recent lists newest first", func(t *testing.T) {
		status, body := doRequest(t, server, token, http.MethodGet, "/api/v1/profile/recent?limit=1", nil)
		require.Equal(t, http.StatusOK, status)

		var resp struct {
			Events []struct {
				Type string `json:"type"`
			} `json:"events"`
		}
		require.NoError(t, json.Unmarshal(body, &resp))
		require.Len(t, resp.Events, 1)
		assert.Equal(t, "note_created", resp.Events[0].Type)
	})
}
