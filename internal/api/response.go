package api

import (
	"encoding/json"
	"errors"
	"net/http"

	apierrors "smartpark/internal/errors"
	"smartpark/internal/service"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, e *apierrors.HTTPError) {
	writeJSON(w, e.Code, e)
}

// serviceError maps coordinator errors onto HTTP errors.
func serviceError(err error) *apierrors.HTTPError {
	var httpErr *apierrors.HTTPError
	switch {
	case errors.As(err, &httpErr):
		return httpErr
	case errors.Is(err, service.ErrSpotNotFound):
		return apierrors.ErrNotFound(err.Error())
	case errors.Is(err, service.ErrInvalidUpdate):
		return apierrors.ErrBadRequest(err.Error())
	case errors.Is(err, service.ErrStopped):
		return apierrors.ErrUnavailable("Lot service is shutting down")
	default:
		return apierrors.ErrInternal("Internal error")
	}
}
