// Package handlers contains the REST request handlers. Each handler
// decodes and validates its request, resolves the authenticated user, and
// delegates to an application service; failures funnel through the shared
// error handler.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"studyflow-backend/domain/core/valueobjects"
	"studyflow-backend/pkg/auth"
	appErrors "studyflow-backend/pkg/errors"
)

// validate is shared across handlers; validator instances cache struct
// metadata and are safe for concurrent use.
var validate = validator.New()

func respondJSON(w http.ResponseWriter, logger *zap.Logger, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("encoding response failed", zap.Error(err))
	}
}

func decodeBody(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return appErrors.NewValidation("invalid request body")
	}
	if err := validate.Struct(dst); err != nil {
		return appErrors.NewValidation(err.Error())
	}
	return nil
}

func currentUser(r *http.Request) (valueobjects.UserID, error) {
	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		return "", err
	}
	return valueobjects.UserID(userCtx.UserID), nil
}
