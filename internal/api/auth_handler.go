package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	apierrors "smartpark/internal/errors"
	"smartpark/internal/service"
)

type OperatorAuthHandler struct {
	service service.OperatorAuthService
	logger  *slog.Logger
}

func NewOperatorAuthHandler(svc service.OperatorAuthService, logger *slog.Logger) *OperatorAuthHandler {
	return &OperatorAuthHandler{service: svc, logger: logger}
}

func (h *OperatorAuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apierrors.ErrBadRequest("Invalid request body"))
		return
	}

	token, err := h.service.Login(req.Username, req.Password)
	switch {
	case errors.Is(err, service.ErrAuthDisabled):
		writeError(w, apierrors.ErrUnavailable("Operator login is not configured"))
		return
	case errors.Is(err, service.ErrInvalidCredentials):
		h.logger.Warn("Operator login rejected", "username", req.Username)
		writeError(w, apierrors.ErrUnauthorized("Invalid credentials"))
		return
	case err != nil:
		h.logger.Error("Operator login failed", "error", err)
		writeError(w, apierrors.ErrInternal("Login failed"))
		return
	}

	writeJSON(w, http.StatusOK, LoginResponse{Token: token})
}
