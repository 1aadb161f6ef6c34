package model

import (
	"errors"
	"strings"
	"time"
)

type Role string

const (
	RoleStudent Role = "STUDENT"
	RoleCashier Role = "CASHIER"
	RoleAdmin   Role = "ADMIN"
	RoleParent  Role = "PARENT"
)

func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleCashier, RoleAdmin, RoleParent:
		return true
	}
	return false
}

type UserStatus string

const (
	UserStatusActive   UserStatus = "ACTIVE"
	UserStatusInactive UserStatus = "INACTIVE"
)

type User struct {
	ID           int64      `json:"id"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Name         string     `json:"name"`
	Role         Role       `json:"role"`
	Status       UserStatus `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
}

func (User) TableName() string { return "users" }

// Profile is the role-specific record attached to a user. Exactly one of
// the fields is set, keyed by the user's role.
type Profile struct {
	Student *Student `json:"student,omitempty"`
	Cashier *Cashier `json:"cashier,omitempty"`
	Admin   *Admin   `json:"admin,omitempty"`
	Parent  *Parent  `json:"parent,omitempty"`
}

type Cashier struct {
	ID     int64  `json:"id"`
	UserID int64  `json:"user_id"`
	Name   string `json:"name"`
	Shift  string `json:"shift"`
}

type Admin struct {
	ID     int64  `json:"id"`
	UserID int64  `json:"user_id"`
	Name   string `json:"name"`
}

type Parent struct {
	ID     int64  `json:"id"`
	UserID int64  `json:"user_id"`
	Name   string `json:"name"`
	Phone  string `json:"phone"`
}

// UserCreateRequest is the input for creating a user together with its
// role profile.
type UserCreateRequest struct {
	Email    string
	Password string
	Name     string
	Role     Role

	// student profile
	NIS   string
	Class string

	// cashier profile
	Shift string

	// parent profile
	Phone string
}

func (p UserCreateRequest) Validate() error {
	if strings.TrimSpace(p.Email) == "" {
		return errors.New("email is required")
	}
	if !strings.Contains(p.Email, "@") {
		return errors.New("email is malformed")
	}
	if len(p.Password) < 6 {
		return errors.New("password must be at least 6 characters")
	}
	if strings.TrimSpace(p.Name) == "" {
		return errors.New("name is required")
	}
	if !p.Role.Valid() {
		return errors.New("role is invalid")
	}
	if p.Role == RoleStudent && strings.TrimSpace(p.NIS) == "" {
		return errors.New("nis is required for students")
	}
	return nil
}

type UserUpdateRequest struct {
	Name     *string
	Password *string
	Status   *UserStatus
	Class    *string
	Shift    *string
	Phone    *string
}

type UserFilter struct {
	Role   *Role
	Status *UserStatus
	Search *string // matches name or email
	Limit  int
	Offset int
}

// AuthUser is the authenticated principal carried through request handling
// and passed explicitly to service calls.
type AuthUser struct {
	UserID int64 `json:"user_id"`
	Role   Role  `json:"role"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (p LoginRequest) Validate() error {
	if p.Email == "" {
		return errors.New("email is required")
	}
	if p.Password == "" {
		return errors.New("password is required")
	}
	return nil
}

// LoginResult is the user merged with its role profile plus the session token.
type LoginResult struct {
	Token   string  `json:"token"`
	User    *User   `json:"user"`
	Profile Profile `json:"profile"`
}
