package services

import (
	"context"
	"errors"

	"github.com/nimasrn/canteen-gateway/internal/model"
	"github.com/nimasrn/canteen-gateway/internal/repository"
	"github.com/nimasrn/canteen-gateway/internal/token"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidCredentials is returned uniformly for unknown email and
	// wrong password so the caller cannot tell the two apart.
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountInactive    = errors.New("account is not active")
)

type AuthUserRepository interface {
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetCashierByUserID(ctx context.Context, userID int64) (*model.Cashier, error)
	GetAdminByUserID(ctx context.Context, userID int64) (*model.Admin, error)
	GetParentByUserID(ctx context.Context, userID int64) (*model.Parent, error)
}

type AuthStudentRepository interface {
	GetByUserID(ctx context.Context, userID int64) (*model.Student, error)
}

type AuthService struct {
	userRepo    AuthUserRepository
	studentRepo AuthStudentRepository
	tokens      *token.Maker
}

func NewAuthService(userRepo AuthUserRepository, studentRepo AuthStudentRepository, tokens *token.Maker) *AuthService {
	return &AuthService{
		userRepo:    userRepo,
		studentRepo: studentRepo,
		tokens:      tokens,
	}
}

// Login verifies credentials and returns the user merged with its role
// profile plus a session token.
func (s *AuthService) Login(ctx context.Context, p model.LoginRequest) (*model.LoginResult, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByEmail(ctx, p.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(p.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	if user.Status != model.UserStatusActive {
		return nil, ErrAccountInactive
	}

	profile, err := s.loadProfile(ctx, user)
	if err != nil {
		return nil, err
	}

	t, err := s.tokens.Generate(user.ID, user.Role)
	if err != nil {
		return nil, err
	}

	return &model.LoginResult{
		Token:   t,
		User:    user,
		Profile: profile,
	}, nil
}

func (s *AuthService) loadProfile(ctx context.Context, user *model.User) (model.Profile, error) {
	var profile model.Profile
	var err error

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

	// A user without its role profile can still log in; the dashboard
	// simply gets an empty profile.
	if err != nil &&
		!errors.Is(err, repository.ErrUserNotFound) &&
		!errors.Is(err, repository.ErrStudentNotFound) &&
		!errors.Is(err, repository.ErrAdminNotFound) &&
		!errors.Is(err, repository.ErrParentNotFound) {
		return model.Profile{}, err
	}

	return profile, nil
}

// HashPassword is the single place bcrypt cost is chosen.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
