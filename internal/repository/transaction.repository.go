package repository

import (
	"context"
	"errors"

	"github.com/nimasrn/canteen-gateway/internal/model"
	"github.com/nimasrn/canteen-gateway/pkg/pg"
	"gorm.io/gorm"
)

var (
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrAlreadyCancelled    = errors.New("transaction is already cancelled")
)

type TransactionRepository struct {
	*pg.DB
}

func NewTransactionRepository(db *pg.DB) *TransactionRepository {
	return &TransactionRepository{
		db,
	}
}

// Create persists the transaction header and its line items. The caller is
// expected to hold the surrounding database transaction.
func (r *TransactionRepository) Create(ctx context.Context, txn *model.Transaction) (*model.Transaction, error) {
	entity := toTransactionEntity(txn)

	if err := r.Write(ctx).WithContext(ctx).Create(entity).Error; err != nil {
		return nil, err
	}

	items := make([]*TransactionItemEntity, 0, len(txn.Items))
	for _, item := range txn.Items {
		ie := toTransactionItemEntity(item)
		ie.TransactionID = entity.ID
		items = append(items, ie)
	}
	if len(items) > 0 {
		if err := r.Write(ctx).WithContext(ctx).Create(items).Error; err != nil {
			return nil, err
		}
	}

	created := toTransactionModel(entity)
	created.Items = toTransactionItemModels(items)
	return created, nil
}

func (r *TransactionRepository) GetByID(ctx context.Context, id int64) (*model.Transaction, error) {
	var entity TransactionEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("id = ?", id).
		First(&entity).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}

	var items []*TransactionItemEntity
	err = r.Read(ctx).WithContext(ctx).
		Where("transaction_id = ?", id).
		Order("id ASC").
		Find(&items).
		Error
	if err != nil {
		return nil, err
	}

	txn := toTransactionModel(&entity)
	txn.Items = toTransactionItemModels(items)
	return txn, nil
}

func (r *TransactionRepository) GetByNumber(ctx context.Context, number string) (*model.Transaction, error) {
	var entity TransactionEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("number = ?", number).
		First(&entity).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	return r.GetByID(ctx, entity.ID)
}

func (r *TransactionRepository) List(ctx context.Context, f model.TransactionFilter) ([]*model.Transaction, int64, error) {
	q := r.Read(ctx).WithContext(ctx).Model(&TransactionEntity{})

	if f.StudentID != nil {
		q = q.Where("student_id = ?", *f.StudentID)
	}
	if f.CashierID != nil {
		q = q.Where("cashier_id = ?", *f.CashierID)
	}
	if f.Status != nil && *f.Status != "" {
		q = q.Where("status = ?", string(*f.Status))
	}
	if f.From != nil {
		q = q.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("created_at < ?", *f.To)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order := "created_at"
	if f.Desc {
		order += " DESC"
	} else {
		order += " ASC"
	}

	limit := f.Limit
	if limit <= 0 || limit > 1000 {
		limit = 50
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}

	var entities []*TransactionEntity
	if err := q.Order(order).Limit(limit).Offset(offset).Find(&entities).Error; err != nil {
		return nil, 0, err
	}

	return toTransactionModels(entities), total, nil
}

// MarkCancelled flips COMPLETED to CANCELLED. The conditional update makes a
// second cancellation of the same transaction fail instead of re-applying
// stock and balance restoration.
func (r *TransactionRepository) MarkCancelled(ctx context.Context, id int64) error {
	result := r.Write(ctx).WithContext(ctx).
		Model(&TransactionEntity{}).
		Where("id = ? AND status = ?", id, string(model.TransactionStatusCompleted)).
		Update("status", string(model.TransactionStatusCancelled))

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		var entity TransactionEntity
		err := r.Read(ctx).WithContext(ctx).
			Where("id = ?", id).
			First(&entity).
			Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTransactionNotFound
			}
			return err
		}
		return ErrAlreadyCancelled
	}

	return nil
}
