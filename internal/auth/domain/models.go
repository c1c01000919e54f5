package domain

import (
	"context"
	"errors"
)

const (
	RoleManager  = "manager"
	RoleOperator = "operator"

	RoleCodeManager = 1
)

var (
	ErrCredentialsRequired = errors.New("credentials_required")
	ErrInvalidCredentials  = errors.New("invalid_credentials")
	ErrUserExists          = errors.New("user_exists")
	ErrStoreUnavailable    = errors.New("store_unavailable")
)

type User struct {
	EmployeeCode string `gorm:"column:employee_code;primaryKey"`
	Password     string `gorm:"column:password"`
	RoleCode     int    `gorm:"column:role_code"`
	UserID       string `gorm:"column:user_id"`
	Name         string `gorm:"column:name"`
}

func (User) TableName() string {
	return "application_users"
}

// Role maps the stored role code onto the names the token and the
// authorization model use.
func (u User) Role() string {
	if u.RoleCode == RoleCodeManager {
		return RoleManager
	}
	return RoleOperator
}

type Identity struct {
	EmployeeCode string `json:"employeeCode"`
	Role         string `json:"role"`
	UserID       string `json:"userId"`
}

type LoginResult struct {
	Token    string   `json:"token"`
	Identity Identity `json:"identity"`
}

type CreateUserRequest struct {
	EmployeeCode string
	Password     string
	RoleCode     int
	UserID       string
	Name         string
}

type UserView struct {
	EmployeeCode string `json:"employeeCode"`
	RoleCode     int    `json:"roleCode"`
	UserID       string `json:"userId"`
	Name         string `json:"name"`
}

type Service interface {
	Login(ctx context.Context, employeeCode, plainPassword string) (LoginResult, error)
	Authenticate(ctx context.Context, bearer string) (Identity, error)
	ListUsers(ctx context.Context) ([]UserView, error)
	CreateUser(ctx context.Context, req CreateUserRequest) error
}
