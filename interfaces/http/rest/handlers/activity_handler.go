package handlers

import (
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"studyflow-backend/application/services"
	"studyflow-backend/domain/core/entities"
	"studyflow-backend/domain/core/valueobjects"
	appErrors "studyflow-backend/pkg/errors"
)

// defaultActivityWindowDays is the heatmap range when the caller gives none
const defaultActivityWindowDays = 30

// ActivityHandler serves the profile endpoints: summary, day counts and
// recent events.
type ActivityHandler struct {
	activity     *services.ActivityService
	errorHandler *appErrors.ErrorHandler
	logger       *zap.Logger
}

// NewActivityHandler creates an activity handler
func NewActivityHandler(activity *services.ActivityService, errorHandler *appErrors.ErrorHandler, logger *zap.Logger) *ActivityHandler {
	return &ActivityHandler{activity: activity, errorHandler: errorHandler, logger: logger}
}

// EventResponse is the JSON projection of an activity event
type EventResponse struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	TargetID   string `json:"target_id,omitempty"`
	OccurredAt string `json:"occurred_at"`
}

// RecordEventRequest is the payload for client-reported study events
type RecordEventRequest struct {
	Type     string `json:"type" validate:"required"`
	TargetID string `json:"target_id" validate:"omitempty,max=100"`
}

// Record handles POST /events. Clients report study actions the server
// cannot observe itself, such as a note being opened for review.
func (h *ActivityHandler) Record(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	var req RecordEventRequest
	if err := decodeBody(r, &req); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	eventType, err := entities.ParseRecordableEventType(req.Type)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := h.activity.Record(r.Context(), userID, eventType, req.TargetID); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	respondJSON(w, h.logger, http.StatusCreated, map[string]string{"status": "recorded"})
}

// Summary handles GET /profile/summary
func (h *ActivityHandler) Summary(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	summary, err := h.activity.Summary(r.Context(), userID)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, summary)
}

// DayCounts handles GET /profile/activity with optional from, to and type
// query parameters. Missing bounds default to the last 30 days.
func (h *ActivityHandler) DayCounts(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	to := valueobjects.Today()
	if raw := r.URL.Query().Get("to"); raw != "" {
		if to, err = valueobjects.ParseDay(raw); err != nil {
			h.errorHandler.Handle(w, r, err)
			return
		}
	}
	from := to.AddDays(-(defaultActivityWindowDays - 1))
	if raw := r.URL.Query().Get("from"); raw != "" {
		if from, err = valueobjects.ParseDay(raw); err != nil {
			h.errorHandler.Handle(w, r, err)
			return
		}
	}
	eventType, err := entities.ParseEventType(r.URL.Query().Get("type"))
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	counts, err := h.activity.DayCounts(r.Context(), userID, from, to, eventType)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{"activity": counts})
}

// Recent handles GET /profile/recent with an optional limit parameter
func (h *ActivityHandler) Recent(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	events, err := h.activity.Recent(r.Context(), userID, limit)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	out := make([]EventResponse, 0, len(events))
	for _, event := range events {
		out = append(out, EventResponse{
			ID:         event.ID.String(),
			Type:       string(event.Type),
			TargetID:   event.TargetID,
			OccurredAt: event.OccurredAt.Format(time.RFC3339),
		})
	}
	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{"events": out})
}
