package errors

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"
)

// ErrorHandler converts application errors into HTTP responses with a
// consistent JSON body. All handlers funnel failures through it so status
// mapping lives in one place.
type ErrorHandler struct {
	logger *zap.Logger
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(logger *zap.Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// ErrorResponse is the JSON body written for every failed request
type ErrorResponse struct {
	Error   bool   `json:"error"`
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Handle writes the HTTP response for an error
func (h *ErrorHandler) Handle(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	errType := ErrorTypeInternal
	message := "Internal server error"

	var appErr *AppError
	if errors.As(err, &appErr) {
		errType = appErr.Type
		message = appErr.Message
		status = statusFor(appErr.Type)
	}

	if status >= http.StatusInternalServerError {
		h.logger.Error("Request failed",
			zap.String("path", r.URL.Path),
			zap.String("method", r.Method),
			zap.Error(err),
		)
		// Do not leak internal details to clients
		if errType == ErrorTypeInternal {
			message = "Internal server error"
		}
	} else {
		h.logger.Debug("Request rejected",
			zap.String("path", r.URL.Path),
			zap.String("type", string(errType)),
			zap.String("message", message),
		)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   true,
		Type:    string(errType),
		Message: message,
	})
}

func statusFor(t ErrorType) int {
	switch t {
	case ErrorTypeValidation:
		return http.StatusBadRequest
	case ErrorTypeNotFound:
		return http.StatusNotFound
	case ErrorTypeConflict:
		return http.StatusConflict
	case ErrorTypeUnauthorized:
		return http.StatusUnauthorized
	case ErrorTypeComputation:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
