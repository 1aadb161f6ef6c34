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

type UserService interface {
	Create(ctx context.Context, p model.UserCreateRequest) (*model.User, error)
	Get(ctx context.Context, id int64) (*model.User, model.Profile, error)
	List(ctx context.Context, f model.UserFilter) ([]*model.User, int64, error)
	Update(ctx context.Context, id int64, p model.UserUpdateRequest) (*model.User, error)
	Delete(ctx context.Context, id int64) error
	Children(ctx context.Context, parentUserID int64) ([]*model.Student, error)
	LinkChild(ctx context.Context, parentUserID, studentID int64) error
	FindStudent(ctx context.Context, key string) (*model.Student, error)
	GetStudent(ctx context.Context, id int64) (*model.Student, error)
}

type ManualCreditService interface {
	ManualCredit(ctx context.Context, actor model.AuthUser, studentID int64, amount uint, notes string) (*model.TopUp, error)
}

type UserHandler struct {
	svc    UserService
	topups ManualCreditService
}

func RegisterUserRoutes(e *router.Group, h *UserHandler) {
	e.GET("/users", requireRoles(h.ListUsers, model.RoleAdmin))
	e.POST("/users", requireRoles(h.CreateUser, model.RoleAdmin))
	e.GET("/users/children", requireRoles(h.ListChildren, model.RoleParent))
	e.POST("/users/children", requireRoles(h.LinkChild, model.RoleAdmin))
	e.GET("/users/student", requireRoles(h.FindStudent, model.RoleAdmin, model.RoleCashier))
	e.PATCH("/users/student", requireRoles(h.CreditStudent, model.RoleAdmin))
	e.GET("/users/{id}", requireRoles(h.GetUser, model.RoleAdmin))
	e.PUT("/users/{id}", requireRoles(h.UpdateUser, model.RoleAdmin))
	e.DELETE("/users/{id}", requireRoles(h.DeleteUser, model.RoleAdmin))
}

func NewUserHandler(userService UserService, topupService ManualCreditService) *UserHandler {
	return &UserHandler{
		svc:    userService,
		topups: topupService,
	}
}

type createUserRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	NIS      string `json:"nis"`
	Class    string `json:"class"`
	Shift    string `json:"shift"`
	Phone    string `json:"phone"`
}

type updateUserRequest struct {
	Name     *string `json:"name"`
	Password *string `json:"password"`
	Status   *string `json:"status"`
}

type userResponse struct {
	User    *model.User   `json:"user"`
	Profile model.Profile `json:"profile"`
}

type userListResponse struct {
	Items []*model.User `json:"items"`
	Total int64         `json:"total"`
}

type linkChildRequest struct {
	ParentUserID int64 `json:"parent_user_id"`
	StudentID    int64 `json:"student_id"`
}

type creditStudentRequest struct {
	StudentID int64  `json:"student_id"`
	Amount    uint   `json:"amount"`
	Notes     string `json:"notes"`
}

func (h *UserHandler) CreateUser(ctx *xhttp.RequestCtx) {
	var req createUserRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}

	user, err := h.svc.Create(ctx, model.UserCreateRequest{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Role:     model.Role(strings.ToUpper(req.Role)),
		NIS:      req.NIS,
		Class:    req.Class,
		Shift:    req.Shift,
		Phone:    req.Phone,
	})
	if err != nil {
		writeError(ctx, 400, err.Error())
		return
	}
	writeJSON(ctx, 201, user)
}

func (h *UserHandler) ListUsers(ctx *xhttp.RequestCtx) {
	var f model.UserFilter

	if v := query(ctx, "role"); v != "" {
		role := model.Role(strings.ToUpper(v))
		f.Role = &role
	}
	if v := query(ctx, "status"); v != "" {
		status := model.UserStatus(strings.ToUpper(v))
		f.Status = &status
	}
	if v := query(ctx, "search"); v != "" {
		f.Search = &v
	}
	f.Limit = queryInt(ctx, "limit")
	f.Offset = queryInt(ctx, "offset")

	items, total, err := h.svc.List(ctx, f)
	if err != nil {
		writeError(ctx, 400, err.Error())
		return
	}
	writeJSON(ctx, 200, userListResponse{Items: items, Total: total})
}

func (h *UserHandler) GetUser(ctx *xhttp.RequestCtx) {
	id, err := pathInt64(ctx, "id")
	if err != nil {
		writeError(ctx, 400, "invalid user id")
		return
	}

	user, profile, err := h.svc.Get(ctx, id)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			writeError(ctx, 404, err.Error())
			return
		}
		writeError(ctx, 400, err.Error())
		return
	}
	writeJSON(ctx, 200, userResponse{User: user, Profile: profile})
}

func (h *UserHandler) UpdateUser(ctx *xhttp.RequestCtx) {
	id, err := pathInt64(ctx, "id")
	if err != nil {
		writeError(ctx, 400, "invalid user id")
		return
	}

	var req updateUserRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}

	p := model.UserUpdateRequest{
		Name:     req.Name,
		Password: req.Password,
	}
	if req.Status != nil {
		status := model.UserStatus(strings.ToUpper(*req.Status))
		p.Status = &status
	}

	user, err := h.svc.Update(ctx, id, p)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			writeError(ctx, 404, err.Error())
			return
		}
		writeError(ctx, 400, err.Error())
		return
	}
	writeJSON(ctx, 200, user)
}

func (h *UserHandler) DeleteUser(ctx *xhttp.RequestCtx) {
	id, err := pathInt64(ctx, "id")
	if err != nil {
		writeError(ctx, 400, "invalid user id")
		return
	}

	if err := h.svc.Delete(ctx, id); err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			writeError(ctx, 404, err.Error())
			return
		}
		writeError(ctx, 400, err.Error())
		return
	}
	writeJSON(ctx, 200, map[string]string{"status": "deleted"})
}

func (h *UserHandler) ListChildren(ctx *xhttp.RequestCtx) {
	u, ok := authUser(ctx)
	if !ok {
		writeError(ctx, 401, "authentication required")
		return
	}

	children, err := h.svc.Children(ctx, u.UserID)
	if err != nil {
		if errors.Is(err, services.ErrParentNotFound) {
			writeError(ctx, 404, err.Error())
			return
		}
		writeError(ctx, 400, err.Error())
		return
	}
	writeJSON(ctx, 200, map[string]interface{}{"items": children})
}

func (h *UserHandler) LinkChild(ctx *xhttp.RequestCtx) {
	var req linkChildRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}

	if err := h.svc.LinkChild(ctx, req.ParentUserID, req.StudentID); err != nil {
		switch {
		case errors.Is(err, services.ErrParentNotFound),
			errors.Is(err, services.ErrStudentNotFound):
			writeError(ctx, 404, err.Error())
		default:
			writeError(ctx, 400, err.Error())
		}
		return
	}
	writeJSON(ctx, 200, map[string]string{"status": "linked"})
}

// FindStudent backs the cashier lookup box: ?nis= or ?email=.
func (h *UserHandler) FindStudent(ctx *xhttp.RequestCtx) {
	key := query(ctx, "nis")
	if key == "" {
		key = query(ctx, "email")
	}
	if key == "" {
		writeError(ctx, 400, "nis or email is required")
		return
	}

	student, err := h.svc.FindStudent(ctx, key)
	if err != nil {
		if errors.Is(err, services.ErrStudentNotFound) {
			writeError(ctx, 404, err.Error())
			return
		}
		writeError(ctx, 400, err.Error())
		return
	}
	writeJSON(ctx, 200, student)
}

// CreditStudent is the admin manual balance credit. The credit is recorded
// as an already-approved top-up.
func (h *UserHandler) CreditStudent(ctx *xhttp.RequestCtx) {
	u, ok := authUser(ctx)
	if !ok {
		writeError(ctx, 401, "authentication required")
		return
	}

	var req creditStudentRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}

	topup, err := h.topups.ManualCredit(ctx, u, req.StudentID, req.Amount, req.Notes)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrStudentNotFound):
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
