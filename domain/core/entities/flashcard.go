package entities

import (
	"strings"
	"time"

	"studyflow-backend/domain/core/valueobjects"
	appErrors "studyflow-backend/pkg/errors"
)

// Stage classifies a flashcard by its review history and mastery
type Stage string

const (
	StageNew      Stage = "new"
	StageLearning Stage = "learning"
	StageMastered Stage = "mastered"
)

// masteredThreshold is the mastery level at or above which a card counts
// as mastered.
const masteredThreshold = 80.0

// Flashcard is a question/answer pair derived from a note. Its mastery
// state is mutated only through the review scheduler; the authoring step
// supplies finished question and answer text.
type Flashcard struct {
	id                 valueobjects.FlashcardID
	noteID             valueobjects.NoteID
	userID             valueobjects.UserID
	question           string
	answer             string
	masteryLevel       float64
	lastPerformance    *int
	reviewCount        int
	consecutiveCorrect int
	nextReview         valueobjects.Day
	version            int
	createdAt          time.Time
}

// NewFlashcard creates a card with zero mastery, due immediately
func NewFlashcard(
	userID valueobjects.UserID,
	noteID valueobjects.NoteID,
	question, answer string,
) (*Flashcard, error) {
	if strings.TrimSpace(question) == "" {
		return nil, appErrors.NewValidation("question is required")
	}
	if strings.TrimSpace(answer) == "" {
		return nil, appErrors.NewValidation("answer is required")
	}
	now := time.Now().UTC()
	return &Flashcard{
		id:           valueobjects.NewFlashcardID(),
		noteID:       noteID,
		userID:       userID,
		question:     strings.TrimSpace(question),
		answer:       strings.TrimSpace(answer),
		masteryLevel: 0,
		nextReview:   valueobjects.DayOf(now),
		version:      0,
		createdAt:    now,
	}, nil
}

// ReconstructFlashcard rebuilds a card from persisted state
func ReconstructFlashcard(
	id valueobjects.FlashcardID,
	noteID valueobjects.NoteID,
	userID valueobjects.UserID,
	question, answer string,
	masteryLevel float64,
	lastPerformance *int,
	reviewCount, consecutiveCorrect int,
	nextReview valueobjects.Day,
	version int,
	createdAt time.Time,
) *Flashcard {
	return &Flashcard{
		id:                 id,
		noteID:             noteID,
		userID:             userID,
		question:           question,
		answer:             answer,
		masteryLevel:       masteryLevel,
		lastPerformance:    lastPerformance,
		reviewCount:        reviewCount,
		consecutiveCorrect: consecutiveCorrect,
		nextReview:         nextReview,
		version:            version,
		createdAt:          createdAt,
	}
}

func (f *Flashcard) ID() valueobjects.FlashcardID { return f.id }
func (f *Flashcard) NoteID() valueobjects.NoteID  { return f.noteID }
func (f *Flashcard) UserID() valueobjects.UserID  { return f.userID }
func (f *Flashcard) Question() string             { return f.question }
func (f *Flashcard) Answer() string               { return f.answer }
func (f *Flashcard) MasteryLevel() float64        { return f.masteryLevel }
func (f *Flashcard) ReviewCount() int             { return f.reviewCount }
func (f *Flashcard) ConsecutiveCorrect() int      { return f.consecutiveCorrect }
func (f *Flashcard) NextReview() valueobjects.Day { return f.nextReview }
func (f *Flashcard) Version() int                 { return f.version }
func (f *Flashcard) CreatedAt() time.Time         { return f.createdAt }

// LastPerformance returns the most recent raw review score, or nil when
// the card has never been reviewed.
func (f *Flashcard) LastPerformance() *int {
	if f.lastPerformance == nil {
		return nil
	}
	v := *f.lastPerformance
	return &v
}

// IsDue reports whether the card should be reviewed on the given day
func (f *Flashcard) IsDue(today valueobjects.Day) bool {
	return !f.nextReview.After(today)
}

// Stage classifies the card for reporting
func (f *Flashcard) Stage() Stage {
	switch {
	case f.reviewCount == 0:
		return StageNew
	case f.masteryLevel >= masteredThreshold:
		return StageMastered
	default:
		return StageLearning
	}
}

// ReviewResult is the state transition computed by the scheduler
type ReviewResult struct {
	MasteryLevel       float64
	Performance        int
	ConsecutiveCorrect int
	NextReview         valueobjects.Day
}

// ApplyReview commits a scheduler-computed transition onto the card
func (f *Flashcard) ApplyReview(result ReviewResult) {
	f.masteryLevel = result.MasteryLevel
	perf := result.Performance
	f.lastPerformance = &perf
	f.consecutiveCorrect = result.ConsecutiveCorrect
	f.nextReview = result.NextReview
	f.reviewCount++
}

// IncrementVersion records a successful persisted write
func (f *Flashcard) IncrementVersion() { f.version++ }
