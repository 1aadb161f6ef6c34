package model

import (
	"errors"
	"time"
)

type TransactionStatus string

const (
	TransactionStatusCompleted TransactionStatus = "COMPLETED"
	TransactionStatusCancelled TransactionStatus = "CANCELLED"
)

type PaymentMethod string

const (
	PaymentMethodBalance PaymentMethod = "BALANCE"
	PaymentMethodCash    PaymentMethod = "CASH"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentMethodBalance || m == PaymentMethodCash
}

type Transaction struct {
	ID        int64              `json:"id"`
	Number    string             `json:"number"`
	StudentID int64              `json:"student_id"`
	CashierID *int64             `json:"cashier_id"`
	Total     uint               `json:"total"`
	Method    PaymentMethod      `json:"payment_method"`
	Status    TransactionStatus  `json:"status"`
	Notes     string             `json:"notes"`
	CreatedAt time.Time          `json:"created_at"`
	Items     []*TransactionItem `json:"items,omitempty"`
}

func (Transaction) TableName() string { return "transactions" }

// TransactionItem captures the unit price at time of sale; it is never
// re-read from the product afterwards.
type TransactionItem struct {
	ID            int64  `json:"id"`
	TransactionID int64  `json:"transaction_id"`
	ProductID     int64  `json:"product_id"`
	Quantity      int    `json:"quantity"`
	UnitPrice     uint   `json:"unit_price"`
	Subtotal      uint   `json:"subtotal"`
	ProductName   string `json:"product_name,omitempty"`
}

func (TransactionItem) TableName() string { return "transaction_items" }

type TransactionItemRequest struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
	UnitPrice uint  `json:"unit_price"`
}

type TransactionCreateRequest struct {
	StudentID int64
	CashierID *int64
	Items     []TransactionItemRequest
	Method    PaymentMethod
	Notes     string
}

func (p TransactionCreateRequest) Validate() error {
	if p.StudentID == 0 {
		return errors.New("student_id is required")
	}
	if len(p.Items) == 0 {
		return errors.New("at least one item is required")
	}
	for _, it := range p.Items {
		if it.ProductID == 0 {
			return errors.New("item product_id is required")
		}
		if it.Quantity <= 0 {
			return errors.New("item quantity must be positive")
		}
	}
	if !p.Method.Valid() {
		return errors.New("payment method is invalid")
	}
	return nil
}

// Total computes the transaction total as the sum of line subtotals.
func (p TransactionCreateRequest) Total() uint {
	var total uint
	for _, it := range p.Items {
		total += it.UnitPrice * uint(it.Quantity)
	}
	return total
}

type TransactionFilter struct {
	StudentID *int64
	CashierID *int64
	Status    *TransactionStatus
	From      *time.Time
	To        *time.Time
	Limit     int
	Offset    int
	Desc      bool
}
