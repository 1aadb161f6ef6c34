package handlers

import (
	"context"
	"errors"

	"github.com/fasthttp/router"
	"github.com/nimasrn/canteen-gateway/internal/model"
	"github.com/nimasrn/canteen-gateway/internal/services"
	xhttp "github.com/nimasrn/canteen-gateway/pkg/http"
)

type AuthService interface {
	Login(ctx context.Context, p model.LoginRequest) (*model.LoginResult, error)
}

type AuthHandler struct {
	svc AuthService
}

func RegisterAuthRoutes(e *router.Group, h *AuthHandler) {
	e.POST("/auth/login", h.Login)
}

func NewAuthHandler(authService AuthService) *AuthHandler {
	return &AuthHandler{
		svc: authService,
	}
}

func (h *AuthHandler) Login(ctx *xhttp.RequestCtx) {
	var req model.LoginRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}

	result, err := h.svc.Login(ctx, req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidCredentials):
			writeError(ctx, 401, err.Error())
		case errors.Is(err, services.ErrAccountInactive):
			writeError(ctx, 403, err.Error())
		default:
			writeError(ctx, 400, err.Error())
		}
		return
	}
	writeJSON(ctx, 200, result)
}
