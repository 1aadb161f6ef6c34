package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nimasrn/canteen-gateway/internal/model"
	"github.com/nimasrn/canteen-gateway/internal/repository"
)

var (
	ErrInsufficientBalance = errors.New("insufficient balance for this purchase")
	ErrInsufficientStock   = errors.New("insufficient stock for one of the items")
	ErrStudentNotFound     = errors.New("student not found")
	ErrProductNotFound     = errors.New("product not found")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrAlreadyCancelled    = errors.New("transaction is already cancelled")
)

type TransactionRepository interface {
	Create(ctx context.Context, txn *model.Transaction) (*model.Transaction, error)
	GetByID(ctx context.Context, id int64) (*model.Transaction, error)
	GetByNumber(ctx context.Context, number string) (*model.Transaction, error)
	List(ctx context.Context, f model.TransactionFilter) ([]*model.Transaction, int64, error) // results, totalCount
	MarkCancelled(ctx context.Context, id int64) error
}

type StudentBalanceRepository interface {
	GetByID(ctx context.Context, id int64) (*model.Student, error)
	DeductBalance(ctx context.Context, id int64, amount uint) error
	AddBalance(ctx context.Context, id int64, amount uint) error
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type ProductStockRepository interface {
	GetByID(ctx context.Context, id int64) (*model.Product, error)
	DecrementStock(ctx context.Context, productID int64, quantity int) error
	RestoreStock(ctx context.Context, productID int64, quantity int) error
}

type TransactionService struct {
	transactionRepo TransactionRepository
	studentRepo     StudentBalanceRepository
	productRepo     ProductStockRepository
}

func NewTransactionService(transactionRepo TransactionRepository, studentRepo StudentBalanceRepository, productRepo ProductStockRepository) *TransactionService {
	return &TransactionService{
		transactionRepo: transactionRepo,
		studentRepo:     studentRepo,
		productRepo:     productRepo,
	}
}

// Create records a purchase. Stock decrements, line items, the header and
// the balance debit (BALANCE method) all happen inside one database
// transaction, so a failure anywhere rolls everything back.
func (s *TransactionService) Create(ctx context.Context, p model.TransactionCreateRequest) (*model.Transaction, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	var created *model.Transaction
	err := s.studentRepo.WithinTransaction(ctx, func(ctx context.Context) error {
		items := make([]*model.TransactionItem, 0, len(p.Items))
		var total uint

		for _, it := range p.Items {
			product, err := s.productRepo.GetByID(ctx, it.ProductID)
			if err != nil {
				if errors.Is(err, repository.ErrProductNotFound) {
					return ErrProductNotFound
				}
				return fmt.Errorf("load product %d: %w", it.ProductID, err)
			}

			if err := s.productRepo.DecrementStock(ctx, it.ProductID, it.Quantity); err != nil {
				if errors.Is(err, repository.ErrInsufficientStock) {
					return ErrInsufficientStock
				}
				return fmt.Errorf("decrement stock %d: %w", it.ProductID, err)
			}

			// Unit price is always the product's current price; the
			// client-sent price is ignored.
			subtotal := product.Price * uint(it.Quantity)
			total += subtotal
			items = append(items, &model.TransactionItem{
				ProductID:   it.ProductID,
				Quantity:    it.Quantity,
				UnitPrice:   product.Price,
				Subtotal:    subtotal,
				ProductName: product.Name,
			})
		}

		if p.Method == model.PaymentMethodBalance {
			if err := s.studentRepo.DeductBalance(ctx, p.StudentID, total); err != nil {
				if errors.Is(err, repository.ErrInsufficientBalance) {
					return ErrInsufficientBalance
				}
				if errors.Is(err, repository.ErrStudentNotFound) {
					return ErrStudentNotFound
				}
				return fmt.Errorf("deduct balance: %w", err)
			}
		} else {
			if _, err := s.studentRepo.GetByID(ctx, p.StudentID); err != nil {
				if errors.Is(err, repository.ErrStudentNotFound) {
					return ErrStudentNotFound
				}
				return err
			}
		}

		txn := &model.Transaction{
			Number:    newTransactionNumber(),
			StudentID: p.StudentID,
			CashierID: p.CashierID,
			Total:     total,
			Method:    p.Method,
			Status:    model.TransactionStatusCompleted,
			Notes:     p.Notes,
			Items:     items,
		}

		var err error
		created, err = s.transactionRepo.Create(ctx, txn)
		if err != nil {
			return fmt.Errorf("create transaction: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Cancel reverses a completed purchase: restores the stock of every line
// item and refunds the balance when the purchase was balance-paid. The
// status flip happens first so a concurrent cancel cannot restore twice.
func (s *TransactionService) Cancel(ctx context.Context, id int64) (*model.Transaction, error) {
	var cancelled *model.Transaction
	err := s.studentRepo.WithinTransaction(ctx, func(ctx context.Context) error {
		txn, err := s.transactionRepo.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrTransactionNotFound) {
				return ErrTransactionNotFound
			}
			return err
		}

		if err := s.transactionRepo.MarkCancelled(ctx, id); err != nil {
			if errors.Is(err, repository.ErrAlreadyCancelled) {
				return ErrAlreadyCancelled
			}
			if errors.Is(err, repository.ErrTransactionNotFound) {
				return ErrTransactionNotFound
			}
			return err
		}

		for _, item := range txn.Items {
			if err := s.productRepo.RestoreStock(ctx, item.ProductID, item.Quantity); err != nil {
				return fmt.Errorf("restore stock %d: %w", item.ProductID, err)
			}
		}

		if txn.Method == model.PaymentMethodBalance {
			if err := s.studentRepo.AddBalance(ctx, txn.StudentID, txn.Total); err != nil {
				return fmt.Errorf("refund balance: %w", err)
			}
		}

		txn.Status = model.TransactionStatusCancelled
		cancelled = txn
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cancelled, nil
}

func (s *TransactionService) Get(ctx context.Context, id int64) (*model.Transaction, error) {
	txn, err := s.transactionRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrTransactionNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	return txn, nil
}

func (s *TransactionService) GetByNumber(ctx context.Context, number string) (*model.Transaction, error) {
	txn, err := s.transactionRepo.GetByNumber(ctx, number)
	if err != nil {
		if errors.Is(err, repository.ErrTransactionNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	return txn, nil
}

func (s *TransactionService) List(ctx context.Context, f model.TransactionFilter) ([]*model.Transaction, int64, error) {
	return s.transactionRepo.List(ctx, f)
}

// newTransactionNumber builds a receipt number like TRX-20250114-A3F2B1.
func newTransactionNumber() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))[:6]
	return fmt.Sprintf("TRX-%s-%s", time.Now().Format("20060102"), suffix)
}
