package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	apierrors "chemviz/internal/errors"
	customMiddleware "chemviz/internal/middleware"
)

// LoginRequest is the body of POST /api/login.
type LoginRequest struct {
	Username string `json:"username" validate:"required,max=150"`
	Password string `json:"password" validate:"required,max=1024"`
}

// AuthHandler exchanges credentials for tokens.
type AuthHandler struct {
	service      AuthService
	validator    *customMiddleware.Validator
	errorHandler *apierrors.ErrorHandler
	logger       *slog.Logger
}

// NewAuthHandler creates an auth handler.
func NewAuthHandler(service AuthService, validator *customMiddleware.Validator, errorHandler *apierrors.ErrorHandler, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		service:      service,
		validator:    validator,
		errorHandler: errorHandler,
		logger:       logger.With(slog.String("component", "auth_handler")),
	}
}

// Login handles POST /api/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	token, err := h.service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, token)
}

// Logout handles POST /api/logout. It must run behind TokenAuth.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token, ok := customMiddleware.TokenFromContext(r.Context())
	if !ok {
		h.errorHandler.HandleError(w, r, apierrors.ErrUnauthorized)
		return
	}

	h.service.Logout(r.Context(), token)
	w.WriteHeader(http.StatusNoContent)
}
