package handlers

import (
	"context"
	"errors"
	"strings"

	"github.com/fasthttp/router"
	"github.com/nimasrn/canteen-gateway/internal/model"
	"github.com/nimasrn/canteen-gateway/internal/services"
	xhttp "github.com/nimasrn/canteen-gateway/pkg/http"
)

type TopUpService interface {
	Create(ctx context.Context, actor model.AuthUser, p model.TopUpCreateRequest) (*model.TopUp, error)
	Approve(ctx context.Context, actor model.AuthUser, id int64) (*model.TopUp, error)
	Reject(ctx context.Context, actor model.AuthUser, id int64, reason string) (*model.TopUp, error)
	Get(ctx context.Context, id int64) (*model.TopUp, error)
	List(ctx context.Context, f model.TopUpFilter) ([]*model.TopUp, int64, error)
}

type ParentResolver interface {
	GetParentByUserID(ctx context.Context, userID int64) (*model.Parent, error)
}

type TopUpHandler struct {
	svc     TopUpService
	parents ParentResolver
}

func RegisterTopUpRoutes(e *router.Group, h *TopUpHandler) {
	e.POST("/topups", requireRoles(h.CreateTopUp, model.RoleParent, model.RoleAdmin))
	e.GET("/topups", requireRoles(h.ListTopUps, model.RoleParent, model.RoleAdmin))
	e.GET("/topups/{id}", requireRoles(h.GetTopUp, model.RoleParent, model.RoleAdmin))
	e.PATCH("/topups", requireRoles(h.DecideTopUp, model.RoleAdmin))
}

func NewTopUpHandler(topupService TopUpService, parents ParentResolver) *TopUpHandler {
	return &TopUpHandler{
		svc:     topupService,
		parents: parents,
	}
}

type createTopUpRequest struct {
	StudentID  int64  `json:"student_id"`
	Amount     uint   `json:"amount"`
	Method     string `json:"method"`
	ProofImage string `json:"proof_image"`
	Notes      string `json:"notes"`
}

type decideTopUpRequest struct {
	ID     int64  `json:"id"`
	Action string `json:"action"` // approve or reject
	Reason string `json:"reason"`
}

type topupListResponse struct {
	Items []*model.TopUp `json:"items"`
	Total int64          `json:"total"`
}

func (h *TopUpHandler) CreateTopUp(ctx *xhttp.RequestCtx) {
	u, ok := authUser(ctx)
	if !ok {
		writeError(ctx, 401, "authentication required")
		return
	}

	var req createTopUpRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}

	topup, err := h.svc.Create(ctx, u, model.TopUpCreateRequest{
		StudentID:  req.StudentID,
		Amount:     req.Amount,
		Method:     req.Method,
		ProofImage: req.ProofImage,
		Notes:      req.Notes,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrStudentNotFound):
			writeError(ctx, 404, err.Error())
		case errors.Is(err, services.ErrParentNotLinked):
			writeError(ctx, 403, err.Error())
		default:
			writeError(ctx, 400, err.Error())
		}
		return
	}
	writeJSON(ctx, 201, topup)
}

func (h *TopUpHandler) ListTopUps(ctx *xhttp.RequestCtx) {
	u, ok := authUser(ctx)
	if !ok {
		writeError(ctx, 401, "authentication required")
		return
	}

	var f model.TopUpFilter
	f.StudentID = queryInt64(ctx, "student_id")
	if v := query(ctx, "status"); v != "" {
		status := model.TopUpStatus(strings.ToUpper(v))
		f.Status = &status
	}
	f.Limit = queryInt(ctx, "limit")
	f.Offset = queryInt(ctx, "offset")
	if strings.EqualFold(query(ctx, "order"), "desc") {
		f.Desc = true
	}

	// Parents only see their own requests.
	if u.Role == model.RoleParent {
		parent, err := h.parents.GetParentByUserID(ctx, u.UserID)
		if err != nil {
			writeError(ctx, 404, "parent profile not found")
			return
		}
		f.ParentID = &parent.ID
	}

	items, total, err := h.svc.List(ctx, f)
	if err != nil {
		writeError(ctx, 400, err.Error())
		return
	}
	writeJSON(ctx, 200, topupListResponse{Items: items, Total: total})
}

func (h *TopUpHandler) GetTopUp(ctx *xhttp.RequestCtx) {
	id, err := pathInt64(ctx, "id")
	if err != nil {
		writeError(ctx, 400, "invalid top-up id")
		return
	}

	topup, err := h.svc.Get(ctx, id)
	if err != nil {
		if errors.Is(err, services.ErrTopUpNotFound) {
			writeError(ctx, 404, err.Error())
			return
		}
		writeError(ctx, 400, err.Error())
		return
	}

	// A parent can only read its own request.
	if u, ok := authUser(ctx); ok && u.Role == model.RoleParent {
		parent, err := h.parents.GetParentByUserID(ctx, u.UserID)
		if err != nil || topup.ParentID == nil || *topup.ParentID != parent.ID {
			writeError(ctx, 403, "top-up belongs to another parent")
			return
		}
	}
	writeJSON(ctx, 200, topup)
}

func (h *TopUpHandler) DecideTopUp(ctx *xhttp.RequestCtx) {
	u, ok := authUser(ctx)
	if !ok {
		writeError(ctx, 401, "authentication required")
		return
	}

	var req decideTopUpRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}

	var (
		topup *model.TopUp
		err   error
	)
	switch strings.ToLower(req.Action) {
	case "approve":
		topup, err = h.svc.Approve(ctx, u, req.ID)
	case "reject":
		topup, err = h.svc.Reject(ctx, u, req.ID, req.Reason)
	default:
		writeError(ctx, 400, "action must be approve or reject")
		return
	}
	if err != nil {
		switch {
		case errors.Is(err, services.ErrTopUpNotFound):
			writeError(ctx, 404, err.Error())
		case errors.Is(err, services.ErrNotAnAdmin):
			writeError(ctx, 403, err.Error())
		default:
			writeError(ctx, 400, err.Error())
		}
		return
	}
	writeJSON(ctx, 200, topup)
}
