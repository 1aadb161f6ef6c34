package services

import (
	"context"
	"errors"

	"github.com/nimasrn/canteen-gateway/internal/model"
	"github.com/nimasrn/canteen-gateway/internal/repository"
)

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email is already registered")
)

type UserRepository interface {
	Create(ctx context.Context, u *model.User) (*model.User, error)
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	List(ctx context.Context, f model.UserFilter) ([]*model.User, int64, error) // results, totalCount
	Update(ctx context.Context, id int64, updates map[string]interface{}) (*model.User, error)
	Delete(ctx context.Context, id int64) error

	CreateCashier(ctx context.Context, c *model.Cashier) (*model.Cashier, error)
	CreateAdmin(ctx context.Context, a *model.Admin) (*model.Admin, error)
	CreateParent(ctx context.Context, p *model.Parent) (*model.Parent, error)
	GetCashierByUserID(ctx context.Context, userID int64) (*model.Cashier, error)
	GetAdminByUserID(ctx context.Context, userID int64) (*model.Admin, error)
	GetParentByUserID(ctx context.Context, userID int64) (*model.Parent, error)
	LinkParentStudent(ctx context.Context, parentID, studentID int64) error

	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type StudentRepository interface {
	Create(ctx context.Context, s *model.Student) (*model.Student, error)
	GetByID(ctx context.Context, id int64) (*model.Student, error)
	GetByUserID(ctx context.Context, userID int64) (*model.Student, error)
	GetByNIS(ctx context.Context, nis string) (*model.Student, error)
	GetByEmail(ctx context.Context, email string) (*model.Student, error)
	ListByParent(ctx context.Context, parentID int64) ([]*model.Student, error)
	GetBalance(ctx context.Context, studentID int64) (uint, error)
}

type UserService struct {
	userRepo    UserRepository
	studentRepo StudentRepository
}

func NewUserService(userRepo UserRepository, studentRepo StudentRepository) *UserService {
	return &UserService{
		userRepo:    userRepo,
		studentRepo: studentRepo,
	}
}

// Create registers a user together with its role profile. Both rows are
// written inside one database transaction so a half-created account cannot
// exist.
func (s *UserService) Create(ctx context.Context, p model.UserCreateRequest) (*model.User, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	hash, err := HashPassword(p.Password)
	if err != nil {
		return nil, err
	}

	u := &model.User{
		Email:        p.Email,
		PasswordHash: hash,
		Name:         p.Name,
		Role:         p.Role,
		Status:       model.UserStatusActive,
	}

	var created *model.User
	err = s.userRepo.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		created, err = s.userRepo.Create(ctx, u)
		if err != nil {
			if errors.Is(err, repository.ErrDuplicateEmail) {
				return ErrDuplicateEmail
			}
			return err
		}

		switch p.Role {
		case model.RoleStudent:
			_, err = s.studentRepo.Create(ctx, &model.Student{
				UserID: created.ID,
				NIS:    p.NIS,
				Name:   p.Name,
				Class:  p.Class,
			})
		case model.RoleCashier:
			_, err = s.userRepo.CreateCashier(ctx, &model.Cashier{
				UserID: created.ID,
				Name:   p.Name,
				Shift:  p.Shift,
			})
		case model.RoleAdmin:
			_, err = s.userRepo.CreateAdmin(ctx, &model.Admin{
				UserID: created.ID,
				Name:   p.Name,
			})
		case model.RoleParent:
			_, err = s.userRepo.CreateParent(ctx, &model.Parent{
				UserID: created.ID,
				Name:   p.Name,
				Phone:  p.Phone,
			})
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *UserService) Get(ctx context.Context, id int64) (*model.User, model.Profile, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, model.Profile{}, ErrUserNotFound
		}
		return nil, model.Profile{}, err
	}

	var profile model.Profile
	switch user.Role {
	case model.RoleStudent:
		profile.Student, err = s.studentRepo.GetByUserID(ctx, user.ID)
	case model.RoleCashier:
		profile.Cashier, err = s.userRepo.GetCashierByUserID(ctx, user.ID)
	case model.RoleAdmin:
		profile.Admin, err = s.userRepo.GetAdminByUserID(ctx, user.ID)
	case model.RoleParent:
		profile.Parent, err = s.userRepo.GetParentByUserID(ctx, user.ID)
	}
	if err != nil &&
		!errors.Is(err, repository.ErrUserNotFound) &&
		!errors.Is(err, repository.ErrStudentNotFound) &&
		!errors.Is(err, repository.ErrAdminNotFound) &&
		!errors.Is(err, repository.ErrParentNotFound) {
		return nil, model.Profile{}, err
	}

	return user, profile, nil
}

func (s *UserService) List(ctx context.Context, f model.UserFilter) ([]*model.User, int64, error) {
	return s.userRepo.List(ctx, f)
}

// Update applies the provided fields. A password change is re-hashed here;
// profile fields are routed to the role profile row.
func (s *UserService) Update(ctx context.Context, id int64, p model.UserUpdateRequest) (*model.User, error) {
	updates := map[string]interface{}{}
	if p.Name != nil {
		updates["name"] = *p.Name
	}
	if p.Status != nil {
		updates["status"] = string(*p.Status)
	}
	if p.Password != nil {
		if len(*p.Password) < 6 {
			return nil, errors.New("password must be at least 6 characters")
		}
		hash, err := HashPassword(*p.Password)
		if err != nil {
			return nil, err
		}
		updates["password_hash"] = hash
	}

	user, err := s.userRepo.Update(ctx, id, updates)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// Delete removes the user and its role profile. Historical transactions and
// top-ups are kept.
func (s *UserService) Delete(ctx context.Context, id int64) error {
	err := s.userRepo.WithinTransaction(ctx, func(ctx context.Context) error {
		return s.userRepo.Delete(ctx, id)
	})
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	return nil
}

// Children lists the students linked to a parent user.
func (s *UserService) Children(ctx context.Context, parentUserID int64) ([]*model.Student, error) {
	parent, err := s.userRepo.GetParentByUserID(ctx, parentUserID)
	if err != nil {
		if errors.Is(err, repository.ErrParentNotFound) {
			return nil, ErrParentNotFound
		}
		return nil, err
	}
	return s.studentRepo.ListByParent(ctx, parent.ID)
}

// LinkChild attaches a student to a parent. Linking twice is a no-op at the
// repository level.
func (s *UserService) LinkChild(ctx context.Context, parentUserID, studentID int64) error {
	parent, err := s.userRepo.GetParentByUserID(ctx, parentUserID)
	if err != nil {
		if errors.Is(err, repository.ErrParentNotFound) {
			return ErrParentNotFound
		}
		return err
	}
	if _, err := s.studentRepo.GetByID(ctx, studentID); err != nil {
		if errors.Is(err, repository.ErrStudentNotFound) {
			return ErrStudentNotFound
		}
		return err
	}
	return s.userRepo.LinkParentStudent(ctx, parent.ID, studentID)
}

// FindStudent resolves a student by NIS first, then by account email. This
// backs the cashier's lookup box.
func (s *UserService) FindStudent(ctx context.Context, key string) (*model.Student, error) {
	student, err := s.studentRepo.GetByNIS(ctx, key)
	if err == nil {
		return student, nil
	}
	if !errors.Is(err, repository.ErrStudentNotFound) {
		return nil, err
	}

	student, err = s.studentRepo.GetByEmail(ctx, key)
	if err != nil {
		if errors.Is(err, repository.ErrStudentNotFound) {
			return nil, ErrStudentNotFound
		}
		return nil, err
	}
	return student, nil
}

func (s *UserService) GetStudent(ctx context.Context, id int64) (*model.Student, error) {
	student, err := s.studentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrStudentNotFound) {
			return nil, ErrStudentNotFound
		}
		return nil, err
	}
	return student, nil
}
