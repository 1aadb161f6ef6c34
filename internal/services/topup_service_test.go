package services

import (
	"context"
	"testing"
	"time"

	"github.com/nimasrn/canteen-gateway/internal/model"
	"github.com/nimasrn/canteen-gateway/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockTopUpRepository struct {
	mock.Mock
}

func (m *MockTopUpRepository) Create(ctx context.Context, t *model.TopUp) (*model.TopUp, error) {
	args := m.Called(ctx, t)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TopUp), args.Error(1)
}

func (m *MockTopUpRepository) GetByID(ctx context.Context, id int64) (*model.TopUp, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TopUp), args.Error(1)
}

func (m *MockTopUpRepository) List(ctx context.Context, f model.TopUpFilter) ([]*model.TopUp, int64, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*model.TopUp), args.Get(1).(int64), args.Error(2)
}

func (m *MockTopUpRepository) MarkApproved(ctx context.Context, id int64, adminID int64, at time.Time) error {
	args := m.Called(ctx, id, adminID, at)
	return args.Error(0)
}

func (m *MockTopUpRepository) MarkRejected(ctx context.Context, id int64, adminID int64, at time.Time, reason string) error {
	args := m.Called(ctx, id, adminID, at, reason)
	return args.Error(0)
}

type MockTopUpUserRepository struct {
	mock.Mock
}

func (m *MockTopUpUserRepository) GetAdminByUserID(ctx context.Context, userID int64) (*model.Admin, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Admin), args.Error(1)
}

func (m *MockTopUpUserRepository) GetParentByUserID(ctx context.Context, userID int64) (*model.Parent, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Parent), args.Error(1)
}

func (m *MockTopUpUserRepository) GetParentEmailByID(ctx context.Context, parentID int64) (string, error) {
	args := m.Called(ctx, parentID)
	return args.String(0), args.Error(1)
}

func (m *MockTopUpUserRepository) IsParentLinked(ctx context.Context, parentID, studentID int64) (bool, error) {
	args := m.Called(ctx, parentID, studentID)
	return args.Bool(0), args.Error(1)
}

var (
	adminActor  = model.AuthUser{UserID: 5, Role: model.RoleAdmin}
	parentActor = model.AuthUser{UserID: 9, Role: model.RoleParent}
)

func TestTopUpService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("parent request is linked to the parent profile", func(t *testing.T) {
		topupRepo := new(MockTopUpRepository)
		studentRepo := new(MockStudentBalanceRepository)
		userRepo := new(MockTopUpUserRepository)
		service := NewTopUpService(topupRepo, studentRepo, userRepo, nil)

		studentRepo.On("GetByID", ctx, int64(1)).Return(&model.Student{ID: 1, Name: "Alice"}, nil)
		userRepo.On("GetParentByUserID", ctx, int64(9)).Return(&model.Parent{ID: 3, UserID: 9}, nil)
		userRepo.On("IsParentLinked", ctx, int64(3), int64(1)).Return(true, nil)
		topupRepo.On("Create", ctx, mock.MatchedBy(func(tu *model.TopUp) bool {
			return tu.Status == model.TopUpStatusPending &&
				tu.ParentID != nil && *tu.ParentID == 3
		})).Return(&model.TopUp{ID: 1, Status: model.TopUpStatusPending}, nil)

		created, err := service.Create(ctx, parentActor, model.TopUpCreateRequest{
			StudentID: 1,
			Amount:    50000,
			Method:    "TRANSFER",
		})
		require.NoError(t, err)
		assert.Equal(t, model.TopUpStatusPending, created.Status)

		topupRepo.AssertExpectations(t)
	})

	t.Run("unlinked parent is rejected", func(t *testing.T) {
		topupRepo := new(MockTopUpRepository)
		studentRepo := new(MockStudentBalanceRepository)
		userRepo := new(MockTopUpUserRepository)
		service := NewTopUpService(topupRepo, studentRepo, userRepo, nil)

		studentRepo.On("GetByID", ctx, int64(1)).Return(&model.Student{ID: 1}, nil)
		userRepo.On("GetParentByUserID", ctx, int64(9)).Return(&model.Parent{ID: 3}, nil)
		userRepo.On("IsParentLinked", ctx, int64(3), int64(1)).Return(false, nil)

		created, err := service.Create(ctx, parentActor, model.TopUpCreateRequest{
			StudentID: 1,
			Amount:    50000,
			Method:    "TRANSFER",
		})
		assert.ErrorIs(t, err, ErrParentNotLinked)
		assert.Nil(t, created)

		topupRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("unknown student", func(t *testing.T) {
		topupRepo := new(MockTopUpRepository)
		studentRepo := new(MockStudentBalanceRepository)
		userRepo := new(MockTopUpUserRepository)
		service := NewTopUpService(topupRepo, studentRepo, userRepo, nil)

		studentRepo.On("GetByID", ctx, int64(42)).Return(nil, repository.ErrStudentNotFound)

		created, err := service.Create(ctx, adminActor, model.TopUpCreateRequest{
			StudentID: 42,
			Amount:    50000,
			Method:    "TRANSFER",
		})
		assert.ErrorIs(t, err, ErrStudentNotFound)
		assert.Nil(t, created)
	})
}

func TestTopUpService_Approve(t *testing.T) {
	ctx := context.Background()

	pending := func() *model.TopUp {
		return &model.TopUp{
			ID:        1,
			StudentID: 1,
			Amount:    50000,
			Status:    model.TopUpStatusPending,
		}
	}

	t.Run("approval credits the balance", func(t *testing.T) {
		topupRepo := new(MockTopUpRepository)
		studentRepo := new(MockStudentBalanceRepository)
		userRepo := new(MockTopUpUserRepository)
		service := NewTopUpService(topupRepo, studentRepo, userRepo, nil)

		userRepo.On("GetAdminByUserID", ctx, int64(5)).Return(&model.Admin{ID: 2, UserID: 5}, nil)
		topupRepo.On("GetByID", ctx, int64(1)).Return(pending(), nil)
		studentRepo.On("WithinTransaction", ctx, mock.AnythingOfType("func(context.Context) error")).
			Return(nil)
		topupRepo.On("MarkApproved", mock.Anything, int64(1), int64(2), mock.AnythingOfType("time.Time")).
			Return(nil)
		studentRepo.On("AddBalance", mock.Anything, int64(1), uint(50000)).Return(nil)

		approved, err := service.Approve(ctx, adminActor, 1)
		require.NoError(t, err)
		assert.Equal(t, model.TopUpStatusApproved, approved.Status)
		require.NotNil(t, approved.ApprovedBy)
		assert.Equal(t, int64(2), *approved.ApprovedBy)

		topupRepo.AssertExpectations(t)
		studentRepo.AssertExpectations(t)
	})

	t.Run("non admin cannot approve", func(t *testing.T) {
		topupRepo := new(MockTopUpRepository)
		studentRepo := new(MockStudentBalanceRepository)
		userRepo := new(MockTopUpUserRepository)
		service := NewTopUpService(topupRepo, studentRepo, userRepo, nil)

		userRepo.On("GetAdminByUserID", ctx, int64(9)).Return(nil, repository.ErrAdminNotFound)

		approved, err := service.Approve(ctx, parentActor, 1)
		assert.ErrorIs(t, err, ErrNotAnAdmin)
		assert.Nil(t, approved)
	})

	t.Run("already decided", func(t *testing.T) {
		topupRepo := new(MockTopUpRepository)
		studentRepo := new(MockStudentBalanceRepository)
		userRepo := new(MockTopUpUserRepository)
		service := NewTopUpService(topupRepo, studentRepo, userRepo, nil)

		userRepo.On("GetAdminByUserID", ctx, int64(5)).Return(&model.Admin{ID: 2}, nil)
		topupRepo.On("GetByID", ctx, int64(1)).Return(pending(), nil)
		studentRepo.On("WithinTransaction", ctx, mock.AnythingOfType("func(context.Context) error")).
			Return(nil)
		topupRepo.On("MarkApproved", mock.Anything, int64(1), int64(2), mock.AnythingOfType("time.Time")).
			Return(repository.ErrTopUpNotPending)

		approved, err := service.Approve(ctx, adminActor, 1)
		assert.ErrorIs(t, err, ErrTopUpNotPending)
		assert.Nil(t, approved)

		studentRepo.AssertNotCalled(t, "AddBalance", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("missing top-up", func(t *testing.T) {
		topupRepo := new(MockTopUpRepository)
		studentRepo := new(MockStudentBalanceRepository)
		userRepo := new(MockTopUpUserRepository)
		service := NewTopUpService(topupRepo, studentRepo, userRepo, nil)

		userRepo.On("GetAdminByUserID", ctx, int64(5)).Return(&model.Admin{ID: 2}, nil)
		topupRepo.On("GetByID", ctx, int64(999)).Return(nil, repository.ErrTopUpNotFound)

		approved, err := service.Approve(ctx, adminActor, 999)
		assert.ErrorIs(t, err, ErrTopUpNotFound)
		assert.Nil(t, approved)
	})
}

func TestTopUpService_Reject(t *testing.T) {
	ctx := context.Background()

	t.Run("rejection leaves the balance alone", func(t *testing.T) {
		topupRepo := new(MockTopUpRepository)
		studentRepo := new(MockStudentBalanceRepository)
		userRepo := new(MockTopUpUserRepository)
		service := NewTopUpService(topupRepo, studentRepo, userRepo, nil)

		userRepo.On("GetAdminByUserID", ctx, int64(5)).Return(&model.Admin{ID: 2}, nil)
		topupRepo.On("MarkRejected", ctx, int64(1), int64(2), mock.AnythingOfType("time.Time"), "blurry proof").
			Return(nil)
		topupRepo.On("GetByID", ctx, int64(1)).
			Return(&model.TopUp{ID: 1, StudentID: 1, Status: model.TopUpStatusRejected}, nil)

		rejected, err := service.Reject(ctx, adminActor, 1, "blurry proof")
		require.NoError(t, err)
		assert.Equal(t, model.TopUpStatusRejected, rejected.Status)

		studentRepo.AssertNotCalled(t, "AddBalance", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("empty reason is refused", func(t *testing.T) {
		service := NewTopUpService(new(MockTopUpRepository), new(MockStudentBalanceRepository), new(MockTopUpUserRepository), nil)

		rejected, err := service.Reject(ctx, adminActor, 1, "")
		assert.ErrorIs(t, err, ErrRejectionNeedsReason)
		assert.Nil(t, rejected)
	})
}

func TestTopUpService_ManualCredit(t *testing.T) {
	ctx := context.Background()

	t.Run("credits immediately and records an approved top-up", func(t *testing.T) {
		topupRepo := new(MockTopUpRepository)
		studentRepo := new(MockStudentBalanceRepository)
		userRepo := new(MockTopUpUserRepository)
		service := NewTopUpService(topupRepo, studentRepo, userRepo, nil)

		userRepo.On("GetAdminByUserID", ctx, int64(5)).Return(&model.Admin{ID: 2}, nil)
		studentRepo.On("WithinTransaction", ctx, mock.AnythingOfType("func(context.Context) error")).
			Return(nil)
		studentRepo.On("AddBalance", mock.Anything, int64(1), uint(25000)).Return(nil)
		topupRepo.On("Create", mock.Anything, mock.MatchedBy(func(tu *model.TopUp) bool {
			return tu.Method == "MANUAL" &&
				tu.Status == model.TopUpStatusApproved &&
				tu.ApprovedBy != nil && *tu.ApprovedBy == 2
		})).Return(&model.TopUp{ID: 7, Status: model.TopUpStatusApproved}, nil)

		created, err := service.ManualCredit(ctx, adminActor, 1, 25000, "cash desk")
		require.NoError(t, err)
		assert.Equal(t, model.TopUpStatusApproved, created.Status)

		topupRepo.AssertExpectations(t)
	})

	t.Run("zero amount is refused", func(t *testing.T) {
		topupRepo := new(MockTopUpRepository)
		studentRepo := new(MockStudentBalanceRepository)
		userRepo := new(MockTopUpUserRepository)
		service := NewTopUpService(topupRepo, studentRepo, userRepo, nil)

		userRepo.On("GetAdminByUserID", ctx, int64(5)).Return(&model.Admin{ID: 2}, nil)

		created, err := service.ManualCredit(ctx, adminActor, 1, 0, "")
		assert.Error(t, err)
		assert.Nil(t, created)
	})

	t.Run("non admin is refused", func(t *testing.T) {
		topupRepo := new(MockTopUpRepository)
		studentRepo := new(MockStudentBalanceRepository)
		userRepo := new(MockTopUpUserRepository)
		service := NewTopUpService(topupRepo, studentRepo, userRepo, nil)

		userRepo.On("GetAdminByUserID", ctx, int64(9)).Return(nil, repository.ErrAdminNotFound)

		created, err := service.ManualCredit(ctx, parentActor, 1, 25000, "")
		assert.ErrorIs(t, err, ErrNotAnAdmin)
		assert.Nil(t, created)
	})
}
