package handlers

import (
	"context"

	"github.com/fasthttp/router"
	"github.com/nimasrn/canteen-gateway/internal/model"
	xhttp "github.com/nimasrn/canteen-gateway/pkg/http"
)

type SettingsService interface {
	Get(ctx context.Context) (*model.Settings, error)
	Update(ctx context.Context, p model.SettingsUpdateRequest) (*model.Settings, error)
}

type SettingsHandler struct {
	svc SettingsService
}

func RegisterSettingsRoutes(e *router.Group, h *SettingsHandler) {
	e.GET("/settings", h.GetSettings)
	e.PUT("/settings", requireRoles(h.UpdateSettings, model.RoleAdmin))
}

func NewSettingsHandler(settingsService SettingsService) *SettingsHandler {
	return &SettingsHandler{
		svc: settingsService,
	}
}

func (h *SettingsHandler) GetSettings(ctx *xhttp.RequestCtx) {
	settings, err := h.svc.Get(ctx)
	if err != nil {
		writeError(ctx, 400, err.Error())
		return
	}
	writeJSON(ctx, 200, settings)
}

func (h *SettingsHandler) UpdateSettings(ctx *xhttp.RequestCtx) {
	var req model.SettingsUpdateRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}

	settings, err := h.svc.Update(ctx, req)
	if err != nil {
		writeError(ctx, 400, err.Error())
		return
	}
	writeJSON(ctx, 200, settings)
}
