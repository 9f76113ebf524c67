package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"studyflow-backend/application/services"
	"studyflow-backend/domain/core/entities"
	"studyflow-backend/domain/core/valueobjects"
	"studyflow-backend/infrastructure/observability"
	appErrors "studyflow-backend/pkg/errors"
)

// FlashcardHandler serves flashcard creation, generation, listing, stats
// and reviews.
type FlashcardHandler struct {
	cards        *services.FlashcardService
	reviews      *services.ReviewService
	metrics      *observability.Collector
	errorHandler *appErrors.ErrorHandler
	logger       *zap.Logger
}

// NewFlashcardHandler creates a flashcard handler
func NewFlashcardHandler(
	cards *services.FlashcardService,
	reviews *services.ReviewService,
	metrics *observability.Collector,
	errorHandler *appErrors.ErrorHandler,
	logger *zap.Logger,
) *FlashcardHandler {
	return &FlashcardHandler{
		cards:        cards,
		reviews:      reviews,
		metrics:      metrics,
		errorHandler: errorHandler,
		logger:       logger,
	}
}

// CreateFlashcardRequest is the body for manually authoring a card
type CreateFlashcardRequest struct {
	NoteID   string `json:"note_id" validate:"required,uuid"`
	Question string `json:"question" validate:"required,max=2000"`
	Answer   string `json:"answer" validate:"required,max=5000"`
}

// GenerateFlashcardsRequest is the body for generating cards from a note
type GenerateFlashcardsRequest struct {
	Count int `json:"count" validate:"omitempty,min=1,max=20"`
}

// ReviewRequest is the body for recording a review
type ReviewRequest struct {
	Performance int `json:"performance" validate:"min=0,max=100"`
}

// FlashcardResponse is the JSON projection of a flashcard
type FlashcardResponse struct {
	ID                 string           `json:"id"`
	NoteID             string           `json:"note_id"`
	Question           string           `json:"question"`
	Answer             string           `json:"answer"`
	MasteryLevel       float64          `json:"mastery_level"`
	Stage              string           `json:"stage"`
	ReviewCount        int              `json:"review_count"`
	ConsecutiveCorrect int              `json:"consecutive_correct"`
	LastPerformance    *int             `json:"last_performance,omitempty"`
	NextReview         valueobjects.Day `json:"next_review"`
	CreatedAt          string           `json:"created_at"`
}

func flashcardResponse(card *entities.Flashcard) FlashcardResponse {
	return FlashcardResponse{
		ID:                 card.ID().String(),
		NoteID:             card.NoteID().String(),
		Question:           card.Question(),
		Answer:             card.Answer(),
		MasteryLevel:       card.MasteryLevel(),
		Stage:              string(card.Stage()),
		ReviewCount:        card.ReviewCount(),
		ConsecutiveCorrect: card.ConsecutiveCorrect(),
		LastPerformance:    card.LastPerformance(),
		NextReview:         card.NextReview(),
		CreatedAt:          card.CreatedAt().Format(time.RFC3339),
	}
}

func flashcardResponses(cards []*entities.Flashcard) []FlashcardResponse {
	out := make([]FlashcardResponse, 0, len(cards))
	for _, card := range cards {
		out = append(out, flashcardResponse(card))
	}
	return out
}

// Create handles POST /flashcards
func (h *FlashcardHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	var req CreateFlashcardRequest
	if err := decodeBody(r, &req); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	noteID, err := valueobjects.ParseNoteID(req.NoteID)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	card, err := h.cards.Create(r.Context(), userID, noteID, req.Question, req.Answer)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	respondJSON(w, h.logger, http.StatusCreated, flashcardResponse(card))
}

// Generate handles POST /notes/{noteID}/flashcards
func (h *FlashcardHandler) Generate(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	noteID, err := valueobjects.ParseNoteID(chi.URLParam(r, "noteID"))
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	// Body is optional; an empty body means the default count
	req := GenerateFlashcardsRequest{}
	if r.ContentLength > 0 {
		if err := decodeBody(r, &req); err != nil {
			h.errorHandler.Handle(w, r, err)
			return
		}
	}

	cards, err := h.cards.Generate(r.Context(), userID, noteID, req.Count)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	respondJSON(w, h.logger, http.StatusCreated, map[string]interface{}{
		"flashcards": flashcardResponses(cards),
	})
}

// List handles GET /flashcards with an optional ?due=true filter
func (h *FlashcardHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	dueOnly, _ := strconv.ParseBool(r.URL.Query().Get("due"))
	cards, err := h.cards.List(r.Context(), userID, dueOnly)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{
		"flashcards": flashcardResponses(cards),
	})
}

// ListByNote handles GET /notes/{noteID}/flashcards
func (h *FlashcardHandler) ListByNote(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	noteID, err := valueobjects.ParseNoteID(chi.URLParam(r, "noteID"))
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	cards, err := h.cards.ListByNote(r.Context(), userID, noteID)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{
		"flashcards": flashcardResponses(cards),
	})
}

// Stats handles GET /flashcards/stats
func (h *FlashcardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	stats, err := h.cards.Stats(r.Context(), userID)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, stats)
}

// Review handles POST /flashcards/{cardID}/review
func (h *FlashcardHandler) Review(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	cardID, err := valueobjects.ParseFlashcardID(chi.URLParam(r, "cardID"))
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	var req ReviewRequest
	if err := decodeBody(r, &req); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	card, err := h.reviews.Review(r.Context(), userID, cardID, req.Performance)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	if h.metrics != nil {
		h.metrics.FlashcardsReviewed.Inc()
	}

	respondJSON(w, h.logger, http.StatusOK, flashcardResponse(card))
}
