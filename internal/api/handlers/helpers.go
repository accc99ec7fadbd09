package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"

	"sitetrack-service/internal/domain"
	"sitetrack-service/internal/platform/obs"
)

var validate = validator.New()

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		obs.Logger(r.Context()).WithError(err).WithField("path", r.URL.Path).Warn("encode failed")
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, map[string]string{"error": msg})
}

// writeServiceError maps a service error onto a status code. Internal
// details are logged, never returned.
func writeServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrStoreUnavailable):
		obs.Logger(r.Context()).WithError(err).Warn(op + " failed")
		writeError(w, r, http.StatusServiceUnavailable, "store unavailable")
	default:
		obs.Logger(r.Context()).WithError(err).Error(op + " failed")
		writeError(w, r, http.StatusInternalServerError, "internal server error")
	}
}

// decodeJSON reads exactly one JSON object into v and validates it.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid json body: %v: %w", err, domain.ErrValidation)
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return fmt.Errorf("body must contain only one JSON object: %w", domain.ErrValidation)
	}
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("invalid request: %v: %w", err, domain.ErrValidation)
	}
	return nil
}

type successResponse struct {
	Success bool `json:"success"`
}

var okResponse = successResponse{Success: true}
