package service

import (
	"context"
	"strings"
	"time"

	"github.com/smallbiznis/tillpoint/internal/auth/domain"
	"github.com/smallbiznis/tillpoint/internal/auth/password"
	"github.com/smallbiznis/tillpoint/internal/auth/token"
	"github.com/smallbiznis/tillpoint/internal/config"
	"github.com/smallbiznis/tillpoint/internal/observability/metrics"
	"github.com/smallbiznis/tillpoint/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	Config  config.Config
	Repo    domain.Repository
	Metrics *metrics.Metrics `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	repo    domain.Repository
	issuer  *token.Issuer
	metrics *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("auth.service"),
		repo:    p.Repo,
		issuer:  token.NewIssuer(p.Config.AuthJWTSecret),
		metrics: p.Metrics,
	}
}

func (s *Service) Login(ctx context.Context, employeeCode, plainPassword string) (domain.LoginResult, error) {
	employeeCode = strings.TrimSpace(employeeCode)
	if employeeCode == "" || plainPassword == "" {
		return domain.LoginResult{}, domain.ErrCredentialsRequired
	}

	user, err := s.repo.FindUser(ctx, s.db, employeeCode)
	if err != nil {
		if db.IsUnavailable(err) {
			return domain.LoginResult{}, domain.ErrStoreUnavailable
		}
		return domain.LoginResult{}, err
	}
	if user == nil || !password.Verify(user.Password, plainPassword) {
		s.metrics.RecordLoginDenied(ctx)
		s.log.Info("login denied", zap.String("employee_code", employeeCode))
		return domain.LoginResult{}, domain.ErrInvalidCredentials
	}

	signed, err := s.issuer.Issue(user.EmployeeCode, user.Role(), user.UserID, time.Now().UTC())
	if err != nil {
		return domain.LoginResult{}, err
	}
	return domain.LoginResult{
		Token: signed,
		Identity: domain.Identity{
			EmployeeCode: user.EmployeeCode,
			Role:         user.Role(),
			UserID:       user.UserID,
		},
	}, nil
}

func (s *Service) Authenticate(ctx context.Context, bearer string) (domain.Identity, error) {
	raw := strings.TrimSpace(strings.TrimPrefix(bearer, "Bearer "))
	if raw == "" {
		return domain.Identity{}, domain.ErrInvalidCredentials
	}
	claims, err := s.issuer.Parse(raw)
	if err != nil {
		return domain.Identity{}, domain.ErrInvalidCredentials
	}
	return domain.Identity{
		EmployeeCode: claims.Subject,
		Role:         claims.Role,
		UserID:       claims.UserID,
	}, nil
}

func (s *Service) ListUsers(ctx context.Context) ([]domain.UserView, error) {
	users, err := s.repo.ListUsers(ctx, s.db)
	if err != nil {
		if db.IsUnavailable(err) {
			return nil, domain.ErrStoreUnavailable
		}
		return nil, err
	}
	out := make([]domain.UserView, len(users))
	for i, user := range users {
		out[i] = domain.UserView{
			EmployeeCode: user.EmployeeCode,
			RoleCode:     user.RoleCode,
			UserID:       user.UserID,
			Name:         user.Name,
		}
	}
	return out, nil
}

func (s *Service) CreateUser(ctx context.Context, req domain.CreateUserRequest) error {
	req.EmployeeCode = strings.TrimSpace(req.EmployeeCode)
	if req.EmployeeCode == "" || req.Password == "" {
		return domain.ErrCredentialsRequired
	}

	hashed, err := password.Hash(req.Password)
	if err != nil {
		return err
	}
	user := &domain.User{
		EmployeeCode: req.EmployeeCode,
		Password:     hashed,
		RoleCode:     req.RoleCode,
		UserID:       req.UserID,
		Name:         req.Name,
	}
	if err := s.repo.InsertUser(ctx, s.db, user); err != nil {
		switch {
		case db.IsDuplicate(err):
			return domain.ErrUserExists
		case db.IsUnavailable(err):
			return domain.ErrStoreUnavailable
		default:
			return err
		}
	}
	s.log.Info("operator created",
		zap.String("employee_code", req.EmployeeCode),
		zap.Int("role_code", req.RoleCode),
	)
	return nil
}
