// Package textgen adapts the external text generation service to the
// flashcard generator port, with a circuit breaker so a degraded service
// fails fast instead of stalling request handlers.
package textgen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"studyflow-backend/application/ports"
	appErrors "studyflow-backend/pkg/errors"
)

// Config points the generator at the external service
type Config struct {
	Endpoint string
	APIKey   string
	Timeout  time.Duration
}

// Generator calls the text generation HTTP API. Failures come back as
// Computation errors so the handler layer reports 422 rather than 500:
// the request was valid, the derivation failed.
type Generator struct {
	config  Config
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

// Compile-time interface check
var _ ports.FlashcardGenerator = (*Generator)(nil)

// NewGenerator creates a generator with a circuit breaker that opens
// after repeated consecutive failures.
func NewGenerator(config Config, logger *zap.Logger) *Generator {
	if config.Timeout <= 0 {
		config.Timeout = 20 * time.Second
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "textgen",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("textgen circuit state changed",
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})

	return &Generator{
		config:  config,
		client:  &http.Client{Timeout: config.Timeout},
		breaker: breaker,
		logger:  logger,
	}
}

type generateRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Count   int    `json:"count"`
}

type generateResponse struct {
	Cards []struct {
		Question string `json:"question"`
		Answer   string `json:"answer"`
	} `json:"cards"`
}

// Generate requests question/answer pairs for a note's content
func (g *Generator) Generate(ctx context.Context, title, content string, count int) ([]ports.QAPair, error) {
	body, err := json.Marshal(generateRequest{Title: title, Content: content, Count: count})
	if err != nil {
		return nil, appErrors.NewInternal("marshaling generation request", err)
	}

	result, err := g.breaker.Execute(func() (interface{}, error) {
		return g.call(ctx, body)
	})
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return nil, appErrors.NewComputation("flashcard generation temporarily unavailable", err)
		}
		return nil, appErrors.NewComputation("flashcard generation failed", err)
	}

	pairs := result.([]ports.QAPair)
	return pairs, nil
}

func (g *Generator) call(ctx context.Context, body []byte) ([]ports.QAPair, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.config.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if g.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.config.APIKey)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain so the connection can be reused
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("textgen service returned %d", resp.StatusCode)
	}

	var parsed generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decoding textgen response: %w", err)
	}

	pairs := make([]ports.QAPair, 0, len(parsed.Cards))
	for _, card := range parsed.Cards {
		pairs = append(pairs, ports.QAPair{Question: card.Question, Answer: card.Answer})
	}
	return pairs, nil
}

// StubGenerator produces deterministic cloze-style cards from the note's
// own sentences, for local development without the external service.
type StubGenerator struct{}

// NewStubGenerator creates a stub generator
func NewStubGenerator() *StubGenerator { return &StubGenerator{} }

// Compile-time interface check
var _ ports.FlashcardGenerator = (*StubGenerator)(nil)

// Generate produces one card per leading sentence, up to count
func (g *StubGenerator) Generate(_ context.Context, title, content string, count int) ([]ports.QAPair, error) {
	sentences := strings.FieldsFunc(content, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	})

	pairs := make([]ports.QAPair, 0, count)
	for _, sentence := range sentences {
		sentence = strings.TrimSpace(sentence)
		if sentence == "" {
			continue
		}
		pairs = append(pairs, ports.QAPair{
			Question: fmt.Sprintf("From %q: complete the statement", title),
			Answer:   sentence,
		})
		if len(pairs) == count {
			break
		}
	}
	return pairs, nil
}
