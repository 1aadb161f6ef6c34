package repository

import (
	"time"

	"github.com/nimasrn/canteen-gateway/internal/model"
)

type TransactionEntity struct {
	ID        int64     `db:"id"         gorm:"primaryKey;autoIncrement;column:id"`
	Number    string    `db:"number"     gorm:"column:number;not null;uniqueIndex"`
	StudentID int64     `db:"student_id" gorm:"column:student_id;not null;index"`
	CashierID *int64    `db:"cashier_id" gorm:"column:cashier_id;index"`
	Total     uint      `db:"total"      gorm:"column:total;not null"`
	Method    string    `db:"method"     gorm:"column:method;not null"`
	Status    string    `db:"status"     gorm:"column:status;not null;index"`
	Notes     string    `db:"notes"      gorm:"column:notes"`
	CreatedAt time.Time `db:"created_at" gorm:"column:created_at;autoCreateTime"`
}

func (TransactionEntity) TableName() string {
	return "transactions"
}

type TransactionItemEntity struct {
	ID            int64  `db:"id"             gorm:"primaryKey;autoIncrement;column:id"`
	TransactionID int64  `db:"transaction_id" gorm:"column:transaction_id;not null;index"`
	ProductID     int64  `db:"product_id"     gorm:"column:product_id;not null;index"`
	Quantity      int    `db:"quantity"       gorm:"column:quantity;not null"`
	UnitPrice     uint   `db:"unit_price"     gorm:"column:unit_price;not null"`
	Subtotal      uint   `db:"subtotal"       gorm:"column:subtotal;not null"`
	ProductName   string `db:"product_name"   gorm:"column:product_name"`
}

func (TransactionItemEntity) TableName() string {
	return "transaction_items"
}

func toTransactionEntity(m *model.Transaction) *TransactionEntity {
	if m == nil {
		return nil
	}
	return &TransactionEntity{
		ID:        m.ID,
		Number:    m.Number,
		StudentID: m.StudentID,
		CashierID: m.CashierID,
		Total:     m.Total,
		Method:    string(m.Method),
		Status:    string(m.Status),
		Notes:     m.Notes,
		CreatedAt: m.CreatedAt,
	}
}

func toTransactionModel(e *TransactionEntity) *model.Transaction {
	if e == nil {
		return nil
	}
	return &model.Transaction{
		ID:        e.ID,
		Number:    e.Number,
		StudentID: e.StudentID,
		CashierID: e.CashierID,
		Total:     e.Total,
		Method:    model.PaymentMethod(e.Method),
		Status:    model.TransactionStatus(e.Status),
		Notes:     e.Notes,
		CreatedAt: e.CreatedAt,
	}
}

func toTransactionModels(entities []*TransactionEntity) []*model.Transaction {
	if entities == nil {
		return nil
	}
	models := make([]*model.Transaction, len(entities))
	for i, e := range entities {
		models[i] = toTransactionModel(e)
	}
	return models
}

func toTransactionItemEntity(m *model.TransactionItem) *TransactionItemEntity {
	if m == nil {
		return nil
	}
	return &TransactionItemEntity{
		ID:            m.ID,
		TransactionID: m.TransactionID,
		ProductID:     m.ProductID,
		Quantity:      m.Quantity,
		UnitPrice:     m.UnitPrice,
		Subtotal:      m.Subtotal,
		ProductName:   m.ProductName,
	}
}

func toTransactionItemModel(e *TransactionItemEntity) *model.TransactionItem {
	if e == nil {
		return nil
	}
	return &model.TransactionItem{
		ID:            e.ID,
		TransactionID: e.TransactionID,
		ProductID:     e.ProductID,
		Quantity:      e.Quantity,
		UnitPrice:     e.UnitPrice,
		Subtotal:      e.Subtotal,
		ProductName:   e.ProductName,
	}
}

func toTransactionItemModels(entities []*TransactionItemEntity) []*model.TransactionItem {
	if entities == nil {
		return nil
	}
	models := make([]*model.TransactionItem, len(entities))
	for i, e := range entities {
		models[i] = toTransactionItemModel(e)
	}
	return models
}
