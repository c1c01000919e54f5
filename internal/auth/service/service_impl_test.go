package service

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/tillpoint/internal/auth/domain"
	"github.com/smallbiznis/tillpoint/internal/auth/repository"
	"github.com/smallbiznis/tillpoint/internal/config"
	"github.com/smallbiznis/tillpoint/internal/migration"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupAuthTest(t *testing.T) (*gorm.DB, domain.Service) {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, migration.Bootstrap(conn))

	svc := New(Params{
		DB:     conn,
		Log:    zap.NewNop(),
		Config: config.Config{AuthJWTSecret: "test-secret"},
		Repo:   repository.Provide(),
	})
	return conn, svc
}

func TestCreateUserAndLogin(t *testing.T) {
	_, svc := setupAuthTest(t)

	require.NoError(t, svc.CreateUser(context.Background(), domain.CreateUserRequest{
		EmployeeCode: "EMP1",
		Password:     "s3cret",
		RoleCode:     domain.RoleCodeManager,
		UserID:       "U100",
		Name:         "Store Manager",
	}))

	result, err := svc.Login(context.Background(), "EMP1", "s3cret")
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	assert.Equal(t, "EMP1", result.Identity.EmployeeCode)
	assert.Equal(t, domain.RoleManager, result.Identity.Role)
	assert.Equal(t, "U100", result.Identity.UserID)
}

func TestLoginWrongPassword(t *testing.T) {
	_, svc := setupAuthTest(t)

	require.NoError(t, svc.CreateUser(context.Background(), domain.CreateUserRequest{
		EmployeeCode: "EMP1", Password: "s3cret",
	}))

	_, err := svc.Login(context.Background(), "EMP1", "wrong")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestLoginUnknownUser(t *testing.T) {
	_, svc := setupAuthTest(t)

	_, err := svc.Login(context.Background(), "GHOST", "whatever")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestLoginRequiresCredentials(t *testing.T) {
	_, svc := setupAuthTest(t)

	_, err := svc.Login(context.Background(), "", "x")
	assert.ErrorIs(t, err, domain.ErrCredentialsRequired)

	_, err = svc.Login(context.Background(), "EMP1", "")
	assert.ErrorIs(t, err, domain.ErrCredentialsRequired)
}

func TestCreateUserDuplicate(t *testing.T) {
	_, svc := setupAuthTest(t)

	req := domain.CreateUserRequest{EmployeeCode: "EMP1", Password: "s3cret"}
	require.NoError(t, svc.CreateUser(context.Background(), req))

	err := svc.CreateUser(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrUserExists)
}

func TestCreateUserStoresHashedPassword(t *testing.T) {
	conn, svc := setupAuthTest(t)

	require.NoError(t, svc.CreateUser(context.Background(), domain.CreateUserRequest{
		EmployeeCode: "EMP1", Password: "s3cret",
	}))

	var stored string
	require.NoError(t, conn.Raw(
		`SELECT password FROM application_users WHERE employee_code = ?`, "EMP1",
	).Scan(&stored).Error)
	assert.NotEqual(t, "s3cret", stored)
	assert.Contains(t, stored, "$2a$")
}

func TestAuthenticateRoundTrip(t *testing.T) {
	_, svc := setupAuthTest(t)

	require.NoError(t, svc.CreateUser(context.Background(), domain.CreateUserRequest{
		EmployeeCode: "EMP1", Password: "s3cret", RoleCode: 3, UserID: "U200",
	}))

	result, err := svc.Login(context.Background(), "EMP1", "s3cret")
	require.NoError(t, err)

	identity, err := svc.Authenticate(context.Background(), "Bearer "+result.Token)
	require.NoError(t, err)
	assert.Equal(t, "EMP1", identity.EmployeeCode)
	assert.Equal(t, domain.RoleOperator, identity.Role)
	assert.Equal(t, "U200", identity.UserID)
}

func TestAuthenticateRejectsGarbage(t *testing.T) {
	_, svc := setupAuthTest(t)

	_, err := svc.Authenticate(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = svc.Authenticate(context.Background(), "Bearer not.a.token")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestListUsersOmitsPasswords(t *testing.T) {
	_, svc := setupAuthTest(t)

	require.NoError(t, svc.CreateUser(context.Background(), domain.CreateUserRequest{
		EmployeeCode: "EMP1", Password: "s3cret", Name: "One",
	}))
	require.NoError(t, svc.CreateUser(context.Background(), domain.CreateUserRequest{
		EmployeeCode: "EMP2", Password: "s3cret", Name: "Two",
	}))

	users, err := svc.ListUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "EMP1", users[0].EmployeeCode)
	assert.Equal(t, "One", users[0].Name)
}
