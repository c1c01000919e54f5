package repository

import (
	"context"

	"github.com/smallbiznis/tillpoint/internal/auth/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) FindUser(ctx context.Context, conn *gorm.DB, employeeCode string) (*domain.User, error) {
	var user domain.User
	err := conn.WithContext(ctx).Raw(
		`SELECT employee_code, password, role_code, user_id, name
		 FROM application_users WHERE employee_code = ?`,
		employeeCode,
	).Scan(&user).Error
	if err != nil {
		return nil, err
	}
	if user.EmployeeCode == "" {
		return nil, nil
	}
	return &user, nil
}

func (r *repo) InsertUser(ctx context.Context, conn *gorm.DB, user *domain.User) error {
	return conn.WithContext(ctx).Exec(
		`INSERT INTO application_users (employee_code, password, role_code, user_id, name)
		 VALUES (?, ?, ?, ?, ?)`,
		user.EmployeeCode,
		user.Password,
		user.RoleCode,
		user.UserID,
		user.Name,
	).Error
}

func (r *repo) ListUsers(ctx context.Context, conn *gorm.DB) ([]domain.User, error) {
	var users []domain.User
	err := conn.WithContext(ctx).Raw(
		`SELECT employee_code, role_code, user_id, name
		 FROM application_users ORDER BY employee_code`,
	).Scan(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}
