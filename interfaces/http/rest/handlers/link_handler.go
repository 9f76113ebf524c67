package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"studyflow-backend/application/services"
	"studyflow-backend/domain/core/entities"
	"studyflow-backend/domain/core/valueobjects"
	appErrors "studyflow-backend/pkg/errors"
)

// LinkHandler serves manual note links and backlinks
type LinkHandler struct {
	links        *services.LinkService
	errorHandler *appErrors.ErrorHandler
	logger       *zap.Logger
}

// NewLinkHandler creates a link handler
func NewLinkHandler(links *services.LinkService, errorHandler *appErrors.ErrorHandler, logger *zap.Logger) *LinkHandler {
	return &LinkHandler{links: links, errorHandler: errorHandler, logger: logger}
}

// CreateLinkRequest is the body for linking two notes
type CreateLinkRequest struct {
	TargetID string `json:"target_id" validate:"required,uuid"`
}

// LinkResponse is the JSON projection of a manual link
type LinkResponse struct {
	SourceID  string `json:"source_id"`
	TargetID  string `json:"target_id"`
	CreatedAt string `json:"created_at"`
}

func linkResponse(link entities.ManualLink) LinkResponse {
	return LinkResponse{
		SourceID:  link.SourceID.String(),
		TargetID:  link.TargetID.String(),
		CreatedAt: link.CreatedAt.Format(time.RFC3339),
	}
}

// Create handles POST /notes/{noteID}/links
func (h *LinkHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, sourceID, err := h.linkParams(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	var req CreateLinkRequest
	if err := decodeBody(r, &req); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	targetID, err := valueobjects.ParseNoteID(req.TargetID)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	link, err := h.links.Create(r.Context(), userID, sourceID, targetID)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	respondJSON(w, h.logger, http.StatusCreated, linkResponse(link))
}

// Delete handles DELETE /notes/{noteID}/links/{targetID}
func (h *LinkHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, sourceID, err := h.linkParams(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	targetID, err := valueobjects.ParseNoteID(chi.URLParam(r, "targetID"))
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := h.links.Delete(r.Context(), userID, sourceID, targetID); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Outgoing handles GET /notes/{noteID}/links
func (h *LinkHandler) Outgoing(w http.ResponseWriter, r *http.Request) {
	h.respondLinks(w, r, h.links.Outgoing)
}

// Backlinks handles GET /notes/{noteID}/backlinks
func (h *LinkHandler) Backlinks(w http.ResponseWriter, r *http.Request) {
	h.respondLinks(w, r, h.links.Backlinks)
}

type linkQuery func(ctx context.Context, userID valueobjects.UserID, noteID valueobjects.NoteID) ([]entities.ManualLink, error)

func (h *LinkHandler) respondLinks(w http.ResponseWriter, r *http.Request, query linkQuery) {
	userID, noteID, err := h.linkParams(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	links, err := query(r.Context(), userID, noteID)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	out := make([]LinkResponse, 0, len(links))
	for _, link := range links {
		out = append(out, linkResponse(link))
	}
	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{"links": out})
}

func (h *LinkHandler) linkParams(r *http.Request) (valueobjects.UserID, valueobjects.NoteID, error) {
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
