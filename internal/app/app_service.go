package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"admin-console/internal/auth"
	"admin-console/internal/core"

	"github.com/shopspring/decimal"
)

type appService struct {
	users       core.UserService
	departments core.DepartmentService
	jwtSecret   string
}

// NewAppService wires the core services into an ApplicationService.
func NewAppService(users core.UserService, departments core.DepartmentService, jwtSecret string) ApplicationService {
	return &appService{users: users, departments: departments, jwtSecret: jwtSecret}
}

func (s *appService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("look up user: %w", err)
	}
	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}
	if !auth.CheckPassword(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	token, err := auth.SignToken(s.jwtSecret, user.ID, user.Email, string(user.Role), user.DepartmentID)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	return &LoginResult{
		AccessToken: token,
		User: UserSummary{
			ID:           user.ID,
			Name:         user.Name,
			Email:        user.Email,
			Role:         user.Role,
			DepartmentID: user.DepartmentID,
		},
	}, nil
}

func (s *appService) ListDepartments(ctx context.Context) ([]core.Department, error) {
	return s.departments.List(ctx)
}

func (s *appService) GetDepartment(ctx context.Context, id int) (*core.Department, error) {
	return s.departments.GetByID(ctx, id)
}

func (s *appService) CreateDepartment(ctx context.Context, req CreateDepartmentRequest) (*core.Department, error) {
	limit := decimal.Zero
	if req.LimitUSD != nil {
		limit = *req.LimitUSD
	}
	return s.departments.Create(ctx, core.DepartmentInput{
		Name:     req.Name,
		Code:     req.Code,
		LimitUSD: limit,
	})
}

func (s *appService) UpdateDepartment(ctx context.Context, id int, req UpdateDepartmentRequest) (*core.Department, error) {
	return s.departments.Update(ctx, id, core.DepartmentUpdate{
		Name: req.Name,
		Code: req.Code,
	})
}

func (s *appService) UpdateDepartmentLimit(ctx context.Context, id int, limitUSD decimal.Decimal) (*core.Department, error) {
	return s.departments.UpdateLimit(ctx, id, limitUSD)
}

func (s *appService) ListUsers(ctx context.Context) ([]core.User, error) {
	return s.users.List(ctx)
}

func (s *appService) GetUser(ctx context.Context, id int) (*core.User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *appService) CreateUser(ctx context.Context, req CreateUserRequest) (*core.User, error) {
	if strings.TrimSpace(req.Password) == "" {
		return nil, core.Invalidf("password is required")
	}
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return s.users.Create(ctx, core.UserInput{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         req.Role,
		DepartmentID: req.DepartmentID,
	})
}

func (s *appService) UpdateUser(ctx context.Context, id int, req UpdateUserRequest) (*core.User, error) {
	return s.users.Update(ctx, id, core.UserUpdate{
		Name:          req.Name,
		Email:         req.Email,
		Role:          req.Role,
		IsActive:      req.IsActive,
		DepartmentSet: req.DepartmentSet,
		DepartmentID:  req.DepartmentID,
	})
}

func (s *appService) ResetUserPassword(ctx context.Context, id int, newPassword string) (*core.User, error) {
	if strings.TrimSpace(newPassword) == "" {
		return nil, core.Invalidf("newPassword is required")
	}
	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.ResetPassword(ctx, id, hash); err != nil {
		return nil, err
	}
	return s.users.GetByID(ctx, id)
}
