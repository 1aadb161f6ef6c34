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

type TransactionService interface {
	Create(ctx context.Context, p model.TransactionCreateRequest) (*model.Transaction, error)
	Cancel(ctx context.Context, id int64) (*model.Transaction, error)
	Get(ctx context.Context, id int64) (*model.Transaction, error)
	List(ctx context.Context, f model.TransactionFilter) ([]*model.Transaction, int64, error)
}

type CashierResolver interface {
	GetCashierByUserID(ctx context.Context, userID int64) (*model.Cashier, error)
}

type StudentResolver interface {
	GetByUserID(ctx context.Context, userID int64) (*model.Student, error)
}

type TransactionHandler struct {
	svc      TransactionService
	cashiers CashierResolver
	students StudentResolver
}

func RegisterTransactionRoutes(e *router.Group, h *TransactionHandler) {
	e.POST("/transactions", requireRoles(h.CreateTransaction, model.RoleCashier, model.RoleAdmin))
	e.GET("/transactions", h.ListTransactions)
	e.GET("/transactions/{id}", h.GetTransaction)
	e.POST("/transactions/{id}/cancel", requireRoles(h.CancelTransaction, model.RoleCashier, model.RoleAdmin))
}

func NewTransactionHandler(transactionService TransactionService, cashiers CashierResolver, students StudentResolver) *TransactionHandler {
	return &TransactionHandler{
		svc:      transactionService,
		cashiers: cashiers,
		students: students,
	}
}

type createTransactionRequest struct {
	StudentID int64                          `json:"student_id"`
	Items     []model.TransactionItemRequest `json:"items"`
	Method    string                         `json:"payment_method"`
	Notes     string                         `json:"notes"`
}

type transactionListResponse struct {
	Items []*model.Transaction `json:"items"`
	Total int64                `json:"total"`
}

func (h *TransactionHandler) CreateTransaction(ctx *xhttp.RequestCtx) {
	var req createTransactionRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}

	p := model.TransactionCreateRequest{
		StudentID: req.StudentID,
		Items:     req.Items,
		Method:    model.PaymentMethod(strings.ToUpper(req.Method)),
		Notes:     req.Notes,
	}

	// The recording cashier is taken from the token, never from the body.
	if u, ok := authUser(ctx); ok && u.Role == model.RoleCashier {
		if cashier, err := h.cashiers.GetCashierByUserID(ctx, u.UserID); err == nil {
			p.CashierID = &cashier.ID
		}
	}

	txn, err := h.svc.Create(ctx, p)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrStudentNotFound),
			errors.Is(err, services.ErrProductNotFound):
			writeError(ctx, 404, err.Error())
		default:
			writeError(ctx, 400, err.Error())
		}
		return
	}
	writeJSON(ctx, 201, txn)
}

func (h *TransactionHandler) ListTransactions(ctx *xhttp.RequestCtx) {
	var f model.TransactionFilter

	f.StudentID = queryInt64(ctx, "student_id")
	f.CashierID = queryInt64(ctx, "cashier_id")
	if v := query(ctx, "status"); v != "" {
		status := model.TransactionStatus(strings.ToUpper(v))
		f.Status = &status
	}
	if v := query(ctx, "from"); v != "" {
		if t, e := parseTime(v); e == nil {
			f.From = &t
		}
	}
	if v := query(ctx, "to"); v != "" {
		if t, e := parseTime(v); e == nil {
			f.To = &t
		}
	}
	f.Limit = queryInt(ctx, "limit")
	f.Offset = queryInt(ctx, "offset")
	if strings.EqualFold(query(ctx, "order"), "desc") {
		f.Desc = true
	}

	// Students only ever see their own history.
	if u, ok := authUser(ctx); ok && u.Role == model.RoleStudent {
		student, err := h.students.GetByUserID(ctx, u.UserID)
		if err != nil {
			writeError(ctx, 404, "student profile not found")
			return
		}
		f.StudentID = &student.ID
		f.CashierID = nil
	}

	items, total, err := h.svc.List(ctx, f)
	if err != nil {
		writeError(ctx, 400, err.Error())
		return
	}
	writeJSON(ctx, 200, transactionListResponse{Items: items, Total: total})
}

func (h *TransactionHandler) GetTransaction(ctx *xhttp.RequestCtx) {
	id, err := pathInt64(ctx, "id")
	if err != nil {
		writeError(ctx, 400, "invalid transaction id")
		return
	}

	txn, err := h.svc.Get(ctx, id)
	if err != nil {
		if errors.Is(err, services.ErrTransactionNotFound) {
			writeError(ctx, 404, err.Error())
			return
		}
		writeError(ctx, 400, err.Error())
		return
	}
	writeJSON(ctx, 200, txn)
}

func (h *TransactionHandler) CancelTransaction(ctx *xhttp.RequestCtx) {
	id, err := pathInt64(ctx, "id")
	if err != nil {
		writeError(ctx, 400, "invalid transaction id")
		return
	}

	txn, err := h.svc.Cancel(ctx, id)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrTransactionNotFound):
			writeError(ctx, 404, err.Error())
		default:
			writeError(ctx, 400, err.Error())
		}
		return
	}
	writeJSON(ctx, 200, txn)
}
