package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	FindUser(ctx context.Context, conn *gorm.DB, employeeCode string) (*User, error)
	InsertUser(ctx context.Context, conn *gorm.DB, user *User) error
	ListUsers(ctx context.Context, conn *gorm.DB) ([]User, error)
}
