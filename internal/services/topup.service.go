package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nimasrn/canteen-gateway/internal/model"
	"github.com/nimasrn/canteen-gateway/internal/queue"
	"github.com/nimasrn/canteen-gateway/internal/repository"
	"github.com/nimasrn/canteen-gateway/pkg/logger"
)

var (
	ErrTopUpNotFound        = errors.New("top-up not found")
	ErrTopUpNotPending      = errors.New("top-up has already been decided")
	ErrNotAnAdmin           = errors.New("approver is not an admin")
	ErrParentNotLinked      = errors.New("parent is not linked to this student")
	ErrParentNotFound       = errors.New("parent not found")
	ErrRejectionNeedsReason = errors.New("rejection requires a reason")
)

type TopUpRepository interface {
	Create(ctx context.Context, t *model.TopUp) (*model.TopUp, error)
	GetByID(ctx context.Context, id int64) (*model.TopUp, error)
	List(ctx context.Context, f model.TopUpFilter) ([]*model.TopUp, int64, error) // results, totalCount
	MarkApproved(ctx context.Context, id int64, adminID int64, at time.Time) error
	MarkRejected(ctx context.Context, id int64, adminID int64, at time.Time, reason string) error
}

type TopUpUserRepository interface {
	GetAdminByUserID(ctx context.Context, userID int64) (*model.Admin, error)
	GetParentByUserID(ctx context.Context, userID int64) (*model.Parent, error)
	GetParentEmailByID(ctx context.Context, parentID int64) (string, error)
	IsParentLinked(ctx context.Context, parentID, studentID int64) (bool, error)
}

type TopUpService struct {
	topupRepo   TopUpRepository
	studentRepo StudentBalanceRepository
	userRepo    TopUpUserRepository
	queue       *queue.Queue
}

func NewTopUpService(topupRepo TopUpRepository, studentRepo StudentBalanceRepository, userRepo TopUpUserRepository, queue *queue.Queue) *TopUpService {
	return &TopUpService{
		topupRepo:   topupRepo,
		studentRepo: studentRepo,
		userRepo:    userRepo,
		queue:       queue,
	}
}

// Create records a top-up request in PENDING. When the caller is a parent,
// the parent must be linked to the student; the balance is untouched until
// an admin approves.
func (s *TopUpService) Create(ctx context.Context, actor model.AuthUser, p model.TopUpCreateRequest) (*model.TopUp, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	if _, err := s.studentRepo.GetByID(ctx, p.StudentID); err != nil {
		if errors.Is(err, repository.ErrStudentNotFound) {
			return nil, ErrStudentNotFound
		}
		return nil, err
	}

	if actor.Role == model.RoleParent {
		parent, err := s.userRepo.GetParentByUserID(ctx, actor.UserID)
		if err != nil {
			if errors.Is(err, repository.ErrParentNotFound) {
				return nil, ErrParentNotFound
			}
			return nil, err
		}
		linked, err := s.userRepo.IsParentLinked(ctx, parent.ID, p.StudentID)
		if err != nil {
			return nil, err
		}
		if !linked {
			return nil, ErrParentNotLinked
		}
		p.ParentID = &parent.ID
	}

	t := &model.TopUp{
		StudentID:  p.StudentID,
		ParentID:   p.ParentID,
		Amount:     p.Amount,
		Method:     p.Method,
		Status:     model.TopUpStatusPending,
		ProofImage: p.ProofImage,
		Notes:      p.Notes,
	}
	return s.topupRepo.Create(ctx, t)
}

// Approve flips a pending top-up to APPROVED and credits the student's
// balance atomically. The parent notification is published after commit;
// a publish failure never rolls back the credit.
func (s *TopUpService) Approve(ctx context.Context, actor model.AuthUser, id int64) (*model.TopUp, error) {
	admin, err := s.userRepo.GetAdminByUserID(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrAdminNotFound) {
			return nil, ErrNotAnAdmin
		}
		return nil, err
	}

	topup, err := s.topupRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrTopUpNotFound) {
			return nil, ErrTopUpNotFound
		}
		return nil, err
	}

	now := time.Now()
	err = s.studentRepo.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.topupRepo.MarkApproved(ctx, id, admin.ID, now); err != nil {
			if errors.Is(err, repository.ErrTopUpNotPending) {
				return ErrTopUpNotPending
			}
			if errors.Is(err, repository.ErrTopUpNotFound) {
				return ErrTopUpNotFound
			}
			return err
		}
		if err := s.studentRepo.AddBalance(ctx, topup.StudentID, topup.Amount); err != nil {
			return fmt.Errorf("credit balance: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	topup.Status = model.TopUpStatusApproved
	topup.ApprovedBy = &admin.ID
	topup.ApprovedAt = &now

	s.publishDecision(ctx, topup, model.TopUpEventApproved, "")
	return topup, nil
}

// Reject flips a pending top-up to REJECTED. No balance change; the reason
// is recorded in the top-up notes and forwarded to the parent.
func (s *TopUpService) Reject(ctx context.Context, actor model.AuthUser, id int64, reason string) (*model.TopUp, error) {
	if reason == "" {
		return nil, ErrRejectionNeedsReason
	}

	admin, err := s.userRepo.GetAdminByUserID(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrAdminNotFound) {
			return nil, ErrNotAnAdmin
		}
		return nil, err
	}

	now := time.Now()
	if err := s.topupRepo.MarkRejected(ctx, id, admin.ID, now, reason); err != nil {
		if errors.Is(err, repository.ErrTopUpNotPending) {
			return nil, ErrTopUpNotPending
		}
		if errors.Is(err, repository.ErrTopUpNotFound) {
			return nil, ErrTopUpNotFound
		}
		return nil, err
	}

	topup, err := s.topupRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.publishDecision(ctx, topup, model.TopUpEventRejected, reason)
	return topup, nil
}

// ManualCredit is the admin direct-credit path: credits the balance
// immediately and records an already-approved top-up for the audit trail.
func (s *TopUpService) ManualCredit(ctx context.Context, actor model.AuthUser, studentID int64, amount uint, notes string) (*model.TopUp, error) {
	admin, err := s.userRepo.GetAdminByUserID(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrAdminNotFound) {
			return nil, ErrNotAnAdmin
		}
		return nil, err
	}

	if amount == 0 {
		return nil, errors.New("amount must be positive")
	}

	now := time.Now()
	var created *model.TopUp
	err = s.studentRepo.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.studentRepo.AddBalance(ctx, studentID, amount); err != nil {
			if errors.Is(err, repository.ErrStudentNotFound) {
				return ErrStudentNotFound
			}
			return fmt.Errorf("credit balance: %w", err)
		}

		t := &model.TopUp{
			StudentID:  studentID,
			Amount:     amount,
			Method:     "MANUAL",
			Status:     model.TopUpStatusApproved,
			ApprovedBy: &admin.ID,
			ApprovedAt: &now,
			Notes:      notes,
		}
		var err error
		created, err = s.topupRepo.Create(ctx, t)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *TopUpService) Get(ctx context.Context, id int64) (*model.TopUp, error) {
	topup, err := s.topupRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrTopUpNotFound) {
			return nil, ErrTopUpNotFound
		}
		return nil, err
	}
	return topup, nil
}

func (s *TopUpService) List(ctx context.Context, f model.TopUpFilter) ([]*model.TopUp, int64, error) {
	return s.topupRepo.List(ctx, f)
}

// publishDecision enqueues the parent email. Top-ups without a parent (or
// a parent whose email cannot be resolved) are simply not notified.
func (s *TopUpService) publishDecision(ctx context.Context, topup *model.TopUp, event model.TopUpEventType, reason string) {
	if s.queue == nil || topup.ParentID == nil {
		return
	}

	email, err := s.userRepo.GetParentEmailByID(ctx, *topup.ParentID)
	if err != nil {
		logger.Error("resolve parent email failed", "topup_id", topup.ID, "error", err.Error())
		return
	}

	student, err := s.studentRepo.GetByID(ctx, topup.StudentID)
	if err != nil {
		logger.Error("resolve student failed", "topup_id", topup.ID, "error", err.Error())
		return
	}

	ev := &model.TopUpEvent{
		TopUpID:     topup.ID,
		Event:       event,
		StudentName: student.Name,
		ParentEmail: email,
		Amount:      topup.Amount,
		Reason:      reason,
		OccurredAt:  time.Now(),
	}
	if _, err := s.queue.PublishJSON(ctx, ev, nil); err != nil {
		logger.Error("publish top-up event failed", "topup_id", topup.ID, "error", err.Error())
	}
}
