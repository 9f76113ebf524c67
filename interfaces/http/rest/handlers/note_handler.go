package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"studyflow-backend/application/services"
	"studyflow-backend/domain/core/entities"
	"studyflow-backend/domain/core/valueobjects"
	"studyflow-backend/infrastructure/observability"
	appErrors "studyflow-backend/pkg/errors"
)

// NoteHandler serves the note CRUD surface and keyword suggestions
type NoteHandler struct {
	notes        *services.NoteService
	metrics      *observability.Collector
	errorHandler *appErrors.ErrorHandler
	logger       *zap.Logger
}

// NewNoteHandler creates a note handler
func NewNoteHandler(
	notes *services.NoteService,
	metrics *observability.Collector,
	errorHandler *appErrors.ErrorHandler,
	logger *zap.Logger,
) *NoteHandler {
	return &NoteHandler{notes: notes, metrics: metrics, errorHandler: errorHandler, logger: logger}
}

// NoteRequest is the body for creating or updating a note
type NoteRequest struct {
	Title   string `json:"title" validate:"required,max=500"`
	Content string `json:"content" validate:"max=50000"`
}

// NoteResponse is the JSON projection of a note
type NoteResponse struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	WordCount int    `json:"word_count"`
	Version   int    `json:"version"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func noteResponse(note *entities.Note) NoteResponse {
	return NoteResponse{
		ID:        note.ID().String(),
		Title:     note.Title(),
		Content:   note.Content(),
		WordCount: note.WordCount(),
		Version:   note.Version(),
		CreatedAt: note.CreatedAt().Format(time.RFC3339),
		UpdatedAt: note.UpdatedAt().Format(time.RFC3339),
	}
}

// Create handles POST /notes
func (h *NoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	var req NoteRequest
	if err := decodeBody(r, &req); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	note, err := h.notes.Create(r.Context(), userID, req.Title, req.Content)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	if h.metrics != nil {
		h.metrics.NotesCreated.Inc()
	}

	respondJSON(w, h.logger, http.StatusCreated, noteResponse(note))
}

// Get handles GET /notes/{noteID}
func (h *NoteHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, noteID, err := h.noteParams(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	note, err := h.notes.Get(r.Context(), userID, noteID)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, noteResponse(note))
}

// List handles GET /notes
func (h *NoteHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	notes, err := h.notes.List(r.Context(), userID)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	out := make([]NoteResponse, 0, len(notes))
	for _, note := range notes {
		out = append(out, noteResponse(note))
	}
	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{"notes": out})
}

// Update handles PUT /notes/{noteID}
func (h *NoteHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, noteID, err := h.noteParams(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	var req NoteRequest
	if err := decodeBody(r, &req); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	note, err := h.notes.Update(r.Context(), userID, noteID, req.Title, req.Content)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, noteResponse(note))
}

// Delete handles DELETE /notes/{noteID}
func (h *NoteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, noteID, err := h.noteParams(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := h.notes.Delete(r.Context(), userID, noteID); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Keywords handles GET /notes/{noteID}/keywords
func (h *NoteHandler) Keywords(w http.ResponseWriter, r *http.Request) {
	userID, noteID, err := h.noteParams(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	keywords, err := h.notes.Keywords(r.Context(), userID, noteID)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{"keywords": keywords})
}

func (h *NoteHandler) noteParams(r *http.Request) (valueobjects.UserID, valueobjects.NoteID, error) {
	userID, err := currentUser(r)
	if err != nil {
		return "", "", err
	}
	noteID, err := valueobjects.ParseNoteID(chi.URLParam(r, "noteID"))
	if err != nil {
		return "", "", err
	}
	return userID, noteID, nil
}
