package services

import (
	"context"
	"testing"

	"github.com/nimasrn/canteen-gateway/internal/model"
	"github.com/nimasrn/canteen-gateway/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) Create(ctx context.Context, txn *model.Transaction) (*model.Transaction, error) {
	args := m.Called(ctx, txn)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) GetByID(ctx context.Context, id int64) (*model.Transaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) GetByNumber(ctx context.Context, number string) (*model.Transaction, error) {
	args := m.Called(ctx, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) List(ctx context.Context, f model.TransactionFilter) ([]*model.Transaction, int64, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*model.Transaction), args.Get(1).(int64), args.Error(2)
}

func (m *MockTransactionRepository) MarkCancelled(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockStudentBalanceRepository struct {
	mock.Mock
}

func (m *MockStudentBalanceRepository) GetByID(ctx context.Context, id int64) (*model.Student, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Student), args.Error(1)
}

func (m *MockStudentBalanceRepository) DeductBalance(ctx context.Context, id int64, amount uint) error {
	args := m.Called(ctx, id, amount)
	return args.Error(0)
}

func (m *MockStudentBalanceRepository) AddBalance(ctx context.Context, id int64, amount uint) error {
	args := m.Called(ctx, id, amount)
	return args.Error(0)
}

func (m *MockStudentBalanceRepository) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	args := m.Called(ctx, fn)
	if args.Error(0) != nil {
		return args.Error(0)
	}
	return fn(ctx)
}

type MockProductStockRepository struct {
	mock.Mock
}

func (m *MockProductStockRepository) GetByID(ctx context.Context, id int64) (*model.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductStockRepository) DecrementStock(ctx context.Context, productID int64, quantity int) error {
	args := m.Called(ctx, productID, quantity)
	return args.Error(0)
}

func (m *MockProductStockRepository) RestoreStock(ctx context.Context, productID int64, quantity int) error {
	args := m.Called(ctx, productID, quantity)
	return args.Error(0)
}

func validPurchaseRequest() model.TransactionCreateRequest {
	return model.TransactionCreateRequest{
		StudentID: 1,
		Items: []model.TransactionItemRequest{
			{ProductID: 10, Quantity: 2},
		},
		Method: model.PaymentMethodBalance,
	}
}

func TestTransactionService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("balance purchase uses server side price", func(t *testing.T) {
		txnRepo := new(MockTransactionRepository)
		studentRepo := new(MockStudentBalanceRepository)
		productRepo := new(MockProductStockRepository)
		service := NewTransactionService(txnRepo, studentRepo, productRepo)

		req := validPurchaseRequest()
		// Client-sent price must not override the catalog price.
		req.Items[0].UnitPrice = 1

		studentRepo.On("WithinTransaction", ctx, mock.AnythingOfType("func(context.Context) error")).
			Return(nil)
		productRepo.On("GetByID", mock.Anything, int64(10)).
			Return(&model.Product{ID: 10, Name: "Nasi Goreng", Price: 15000, Stock: 5}, nil)
		productRepo.On("DecrementStock", mock.Anything, int64(10), 2).Return(nil)
		studentRepo.On("DeductBalance", mock.Anything, int64(1), uint(30000)).Return(nil)
		txnRepo.On("Create", mock.Anything, mock.MatchedBy(func(txn *model.Transaction) bool {
			return txn.Total == 30000 &&
				txn.Status == model.TransactionStatusCompleted &&
				len(txn.Items) == 1 &&
				txn.Items[0].UnitPrice == 15000
		})).Return(&model.Transaction{ID: 1, Total: 30000, Status: model.TransactionStatusCompleted}, nil)

		created, err := service.Create(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, uint(30000), created.Total)

		txnRepo.AssertExpectations(t)
		studentRepo.AssertExpectations(t)
		productRepo.AssertExpectations(t)
	})

	t.Run("cash purchase skips balance deduction", func(t *testing.T) {
		txnRepo := new(MockTransactionRepository)
		studentRepo := new(MockStudentBalanceRepository)
		productRepo := new(MockProductStockRepository)
		service := NewTransactionService(txnRepo, studentRepo, productRepo)

		req := validPurchaseRequest()
		req.Method = model.PaymentMethodCash

		studentRepo.On("WithinTransaction", ctx, mock.AnythingOfType("func(context.Context) error")).
			Return(nil)
		productRepo.On("GetByID", mock.Anything, int64(10)).
			Return(&model.Product{ID: 10, Price: 5000, Stock: 5}, nil)
		productRepo.On("DecrementStock", mock.Anything, int64(10), 2).Return(nil)
		studentRepo.On("GetByID", mock.Anything, int64(1)).
			Return(&model.Student{ID: 1}, nil)
		txnRepo.On("Create", mock.Anything, mock.Anything).
			Return(&model.Transaction{ID: 2, Total: 10000}, nil)

		_, err := service.Create(ctx, req)
		require.NoError(t, err)

		studentRepo.AssertNotCalled(t, "DeductBalance", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("insufficient stock", func(t *testing.T) {
		txnRepo := new(MockTransactionRepository)
		studentRepo := new(MockStudentBalanceRepository)
		productRepo := new(MockProductStockRepository)
		service := NewTransactionService(txnRepo, studentRepo, productRepo)

		studentRepo.On("WithinTransaction", ctx, mock.AnythingOfType("func(context.Context) error")).
			Return(nil)
		productRepo.On("GetByID", mock.Anything, int64(10)).
			Return(&model.Product{ID: 10, Price: 5000, Stock: 1}, nil)
		productRepo.On("DecrementStock", mock.Anything, int64(10), 2).
			Return(repository.ErrInsufficientStock)

		created, err := service.Create(ctx, validPurchaseRequest())
		assert.ErrorIs(t, err, ErrInsufficientStock)
		assert.Nil(t, created)

		txnRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("insufficient balance", func(t *testing.T) {
		txnRepo := new(MockTransactionRepository)
		studentRepo := new(MockStudentBalanceRepository)
		productRepo := new(MockProductStockRepository)
		service := NewTransactionService(txnRepo, studentRepo, productRepo)

		studentRepo.On("WithinTransaction", ctx, mock.AnythingOfType("func(context.Context) error")).
			Return(nil)
		productRepo.On("GetByID", mock.Anything, int64(10)).
			Return(&model.Product{ID: 10, Price: 5000, Stock: 5}, nil)
		productRepo.On("DecrementStock", mock.Anything, int64(10), 2).Return(nil)
		studentRepo.On("DeductBalance", mock.Anything, int64(1), uint(10000)).
			Return(repository.ErrInsufficientBalance)

		created, err := service.Create(ctx, validPurchaseRequest())
		assert.ErrorIs(t, err, ErrInsufficientBalance)
		assert.Nil(t, created)
	})

	t.Run("unknown product", func(t *testing.T) {
		txnRepo := new(MockTransactionRepository)
		studentRepo := new(MockStudentBalanceRepository)
		productRepo := new(MockProductStockRepository)
		service := NewTransactionService(txnRepo, studentRepo, productRepo)

		studentRepo.On("WithinTransaction", ctx, mock.AnythingOfType("func(context.Context) error")).
			Return(nil)
		productRepo.On("GetByID", mock.Anything, int64(10)).
			Return(nil, repository.ErrProductNotFound)

		created, err := service.Create(ctx, validPurchaseRequest())
		assert.ErrorIs(t, err, ErrProductNotFound)
		assert.Nil(t, created)
	})

	t.Run("validation rejects empty items", func(t *testing.T) {
		service := NewTransactionService(new(MockTransactionRepository), new(MockStudentBalanceRepository), new(MockProductStockRepository))

		req := validPurchaseRequest()
		req.Items = nil

		created, err := service.Create(ctx, req)
		assert.Error(t, err)
		assert.Nil(t, created)
	})
}

func TestTransactionService_Cancel(t *testing.T) {
	ctx := context.Background()

	completed := func() *model.Transaction {
		return &model.Transaction{
			ID:        1,
			StudentID: 1,
			Total:     30000,
			Method:    model.PaymentMethodBalance,
			Status:    model.TransactionStatusCompleted,
			Items: []*model.TransactionItem{
				{ProductID: 10, Quantity: 2, UnitPrice: 15000, Subtotal: 30000},
			},
		}
	}

	t.Run("cancel restores stock and refunds balance", func(t *testing.T) {
		txnRepo := new(MockTransactionRepository)
		studentRepo := new(MockStudentBalanceRepository)
		productRepo := new(MockProductStockRepository)
		service := NewTransactionService(txnRepo, studentRepo, productRepo)

		studentRepo.On("WithinTransaction", ctx, mock.AnythingOfType("func(context.Context) error")).
			Return(nil)
		txnRepo.On("GetByID", mock.Anything, int64(1)).Return(completed(), nil)
		txnRepo.On("MarkCancelled", mock.Anything, int64(1)).Return(nil)
		productRepo.On("RestoreStock", mock.Anything, int64(10), 2).Return(nil)
		studentRepo.On("AddBalance", mock.Anything, int64(1), uint(30000)).Return(nil)

		cancelled, err := service.Cancel(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, model.TransactionStatusCancelled, cancelled.Status)

		txnRepo.AssertExpectations(t)
		studentRepo.AssertExpectations(t)
		productRepo.AssertExpectations(t)
	})

	t.Run("cash cancel skips refund", func(t *testing.T) {
		txnRepo := new(MockTransactionRepository)
		studentRepo := new(MockStudentBalanceRepository)
		productRepo := new(MockProductStockRepository)
		service := NewTransactionService(txnRepo, studentRepo, productRepo)

		txn := completed()
		txn.Method = model.PaymentMethodCash

		studentRepo.On("WithinTransaction", ctx, mock.AnythingOfType("func(context.Context) error")).
			Return(nil)
		txnRepo.On("GetByID", mock.Anything, int64(1)).Return(txn, nil)
		txnRepo.On("MarkCancelled", mock.Anything, int64(1)).Return(nil)
		productRepo.On("RestoreStock", mock.Anything, int64(10), 2).Return(nil)

		_, err := service.Cancel(ctx, 1)
		require.NoError(t, err)

		studentRepo.AssertNotCalled(t, "AddBalance", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("already cancelled", func(t *testing.T) {
		txnRepo := new(MockTransactionRepository)
		studentRepo := new(MockStudentBalanceRepository)
		productRepo := new(MockProductStockRepository)
		service := NewTransactionService(txnRepo, studentRepo, productRepo)

		studentRepo.On("WithinTransaction", ctx, mock.AnythingOfType("func(context.Context) error")).
			Return(nil)
		txnRepo.On("GetByID", mock.Anything, int64(1)).Return(completed(), nil)
		txnRepo.On("MarkCancelled", mock.Anything, int64(1)).
			Return(repository.ErrAlreadyCancelled)

		cancelled, err := service.Cancel(ctx, 1)
		assert.ErrorIs(t, err, ErrAlreadyCancelled)
		assert.Nil(t, cancelled)

		productRepo.AssertNotCalled(t, "RestoreStock", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("missing transaction", func(t *testing.T) {
		txnRepo := new(MockTransactionRepository)
		studentRepo := new(MockStudentBalanceRepository)
		productRepo := new(MockProductStockRepository)
		service := NewTransactionService(txnRepo, studentRepo, productRepo)

		studentRepo.On("WithinTransaction", ctx, mock.AnythingOfType("func(context.Context) error")).
			Return(nil)
		txnRepo.On("GetByID", mock.Anything, int64(999)).
			Return(nil, repository.ErrTransactionNotFound)

		cancelled, err := service.Cancel(ctx, 999)
		assert.ErrorIs(t, err, ErrTransactionNotFound)
		assert.Nil(t, cancelled)
	})
}

func TestNewTransactionNumber(t *testing.T) {
	a := newTransactionNumber()
	b := newTransactionNumber()

	assert.Regexp(t, `^TRX-\d{8}-[0-9A-F]{6}$`, a)
	assert.NotEqual(t, a, b)
}
