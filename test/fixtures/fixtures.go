package fixtures

import (
	"time"

	"github.com/nimasrn/canteen-gateway/internal/model"
)

var (
	TestStudent1 = model.Student{
		ID:      1,
		UserID:  10,
		NIS:     "2024-001",
		Name:    "Aisyah Putri",
		Class:   "7A",
		Balance: 100000,
	}

	TestStudent2 = model.Student{
		ID:      2,
		UserID:  11,
		NIS:     "2024-002",
		Name:    "Budi Santoso",
		Class:   "8B",
		Balance: 50000,
	}

	TestStudentLowBalance = model.Student{
		ID:      3,
		UserID:  12,
		NIS:     "2024-003",
		Name:    "Citra Dewi",
		Class:   "7A",
		Balance: 1000,
	}

	TestStudentZeroBalance = model.Student{
		ID:      4,
		UserID:  13,
		NIS:     "2024-004",
		Name:    "Dian Kusuma",
		Class:   "9C",
		Balance: 0,
	}
)

var (
	TestProductSnack = model.Product{
		ID:       1,
		Name:     "Fried Rice",
		Price:    15000,
		Stock:    20,
		Category: "meal",
		Status:   model.ProductStatusAvailable,
	}

	TestProductDrink = model.Product{
		ID:       2,
		Name:     "Iced Tea",
		Price:    5000,
		Stock:    50,
		Category: "drink",
		Status:   model.ProductStatusAvailable,
	}

	TestProductOutOfStock = model.Product{
		ID:       3,
		Name:     "Chicken Katsu",
		Price:    20000,
		Stock:    0,
		Category: "meal",
		Status:   model.ProductStatusOutOfStock,
	}
)

func NewPurchaseRequest(studentID int64, method model.PaymentMethod, items ...model.TransactionItemRequest) model.TransactionCreateRequest {
	return model.TransactionCreateRequest{
		StudentID: studentID,
		Items:     items,
		Method:    method,
	}
}

func NewTopUpRequest(studentID int64, amount uint) model.TopUpCreateRequest {
	return model.TopUpCreateRequest{
		StudentID: studentID,
		Amount:    amount,
		Method:    "TRANSFER",
	}
}

func NewUserCreateRequest(email string, role model.Role) model.UserCreateRequest {
	return model.UserCreateRequest{
		Email:    email,
		Password: "secret123",
		Name:     "Fixture User",
		Role:     role,
	}
}

var (
	AdminActor   = model.AuthUser{UserID: 100, Role: model.RoleAdmin}
	CashierActor = model.AuthUser{UserID: 101, Role: model.RoleCashier}
	ParentActor  = model.AuthUser{UserID: 102, Role: model.RoleParent}
	StudentActor = model.AuthUser{UserID: 103, Role: model.RoleStudent}
)

var (
	ValidEmails = []string{
		"student@school.test",
		"parent.one@example.com",
		"admin+canteen@school.id",
	}

	InvalidEmails = []string{
		"",
		"no-at-sign",
		"   ",
	}

	ValidNISNumbers = []string{
		"2024-001",
		"2023-117",
		"2025-042",
	}
)

func PurchaseRequestBalance() model.TransactionCreateRequest {
	return NewPurchaseRequest(1, model.PaymentMethodBalance,
		model.TransactionItemRequest{ProductID: 1, Quantity: 1})
}

func PurchaseRequestCash() model.TransactionCreateRequest {
	return NewPurchaseRequest(1, model.PaymentMethodCash,
		model.TransactionItemRequest{ProductID: 2, Quantity: 2})
}

func PurchaseRequestEmptyItems() model.TransactionCreateRequest {
	return model.TransactionCreateRequest{
		StudentID: 1,
		Method:    model.PaymentMethodBalance,
	}
}

func TransactionFilterByStudent(studentID int64) model.TransactionFilter {
	return model.TransactionFilter{
		StudentID: &studentID,
		Limit:     50,
		Offset:    0,
		Desc:      false,
	}
}

func TransactionFilterWithPagination(studentID int64, limit, offset int) model.TransactionFilter {
	return model.TransactionFilter{
		StudentID: &studentID,
		Limit:     limit,
		Offset:    offset,
		Desc:      false,
	}
}

func TransactionFilterByTimeRange(studentID int64, from, to time.Time) model.TransactionFilter {
	return model.TransactionFilter{
		StudentID: &studentID,
		From:      &from,
		To:        &to,
		Limit:     50,
		Offset:    0,
		Desc:      false,
	}
}

func TopUpFilterByParent(parentID int64) model.TopUpFilter {
	return model.TopUpFilter{
		ParentID: &parentID,
		Limit:    50,
		Offset:   0,
		Desc:     false,
	}
}

func TopUpFilterPending() model.TopUpFilter {
	status := model.TopUpStatusPending
	return model.TopUpFilter{
		Status: &status,
		Limit:  50,
		Offset: 0,
		Desc:   false,
	}
}
