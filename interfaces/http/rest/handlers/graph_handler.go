package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"studyflow-backend/application/services"
	"studyflow-backend/domain/core/valueobjects"
	appErrors "studyflow-backend/pkg/errors"
)

// GraphHandler serves the knowledge graph and per-note connections
type GraphHandler struct {
	graphs       *services.GraphService
	errorHandler *appErrors.ErrorHandler
	logger       *zap.Logger
}

// NewGraphHandler creates a graph handler
func NewGraphHandler(graphs *services.GraphService, errorHandler *appErrors.ErrorHandler, logger *zap.Logger) *GraphHandler {
	return &GraphHandler{graphs: graphs, errorHandler: errorHandler, logger: logger}
}

// Get handles GET /graph. The aggregate carries its own JSON tags, so the
// cached build is encoded directly.
func (h *GraphHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	graph, err := h.graphs.Get(r.Context(), userID)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, graph)
}

// Connections handles GET /notes/{noteID}/connections
func (h *GraphHandler) Connections(w http.ResponseWriter, r *http.Request) {
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

	connections, err := h.graphs.Connections(r.Context(), userID, noteID)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{
		"connections": connections,
	})
}
