package memory

import (
	"context"
	"sort"
	"sync"

	"studyflow-backend/domain/core/entities"
	"studyflow-backend/domain/core/valueobjects"
	appErrors "studyflow-backend/pkg/errors"
)

type cardKey struct {
	user valueobjects.UserID
	card valueobjects.FlashcardID
}

// FlashcardRepository is a mutex-guarded in-memory flashcard store
type FlashcardRepository struct {
	mu    sync.RWMutex
	cards map[cardKey]*entities.Flashcard
}

// NewFlashcardRepository creates an empty store
func NewFlashcardRepository() *FlashcardRepository {
	return &FlashcardRepository{cards: make(map[cardKey]*entities.Flashcard)}
}

// Save writes a card with the optimistic version check
func (r *FlashcardRepository) Save(_ context.Context, card *entities.Flashcard) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := cardKey{user: card.UserID(), card: card.ID()}
	if stored, ok := r.cards[key]; ok && stored.Version() != card.Version() {
		return appErrors.NewConflict("flashcard was modified concurrently")
	}

	card.IncrementVersion()
	r.cards[key] = cloneCard(card)
	return nil
}

// FindByID loads one card
func (r *FlashcardRepository) FindByID(_ context.Context, userID valueobjects.UserID, cardID valueobjects.FlashcardID) (*entities.Flashcard, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	card, ok := r.cards[cardKey{user: userID, card: cardID}]
	if !ok {
		return nil, appErrors.NewNotFound("flashcard not found")
	}
	return cloneCard(card), nil
}

// FindByUser returns the user's cards, oldest first
func (r *FlashcardRepository) FindByUser(_ context.Context, userID valueobjects.UserID) ([]*entities.Flashcard, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cards := make([]*entities.Flashcard, 0)
	for key, card := range r.cards {
		if key.user == userID {
			cards = append(cards, cloneCard(card))
		}
	}
	sortCards(cards)
	return cards, nil
}

// FindByNote returns the cards derived from one note
func (r *FlashcardRepository) FindByNote(_ context.Context, userID valueobjects.UserID, noteID valueobjects.NoteID) ([]*entities.Flashcard, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cards := make([]*entities.Flashcard, 0)
	for key, card := range r.cards {
		if key.user == userID && card.NoteID() == noteID {
			cards = append(cards, cloneCard(card))
		}
	}
	sortCards(cards)
	return cards, nil
}

// DeleteByNote removes every card derived from a note
func (r *FlashcardRepository) DeleteByNote(_ context.Context, userID valueobjects.UserID, noteID valueobjects.NoteID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for key, card := range r.cards {
		if key.user == userID && card.NoteID() == noteID {
			delete(r.cards, key)
		}
	}
	return nil
}

func sortCards(cards []*entities.Flashcard) {
	sort.Slice(cards, func(i, j int) bool {
		if !cards[i].CreatedAt().Equal(cards[j].CreatedAt()) {
			return cards[i].CreatedAt().Before(cards[j].CreatedAt())
		}
		return cards[i].ID() < cards[j].ID()
	})
}

func cloneCard(card *entities.Flashcard) *entities.Flashcard {
	return entities.ReconstructFlashcard(
		card.ID(), card.NoteID(), card.UserID(),
		card.Question(), card.Answer(),
		card.MasteryLevel(), card.LastPerformance(),
		card.ReviewCount(), card.ConsecutiveCorrect(),
		card.NextReview(), card.Version(), card.CreatedAt(),
	)
}
