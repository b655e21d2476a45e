package app

import (
	"context"
	"errors"

	"admin-console/internal/core"

	"github.com/shopspring/decimal"
)

// ErrInvalidCredentials is returned by Login for every failure mode — unknown
// email, wrong password, deactivated account — so responses never reveal
// which one it was.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ApplicationService is the single interface every UI adapter calls. It
// decouples presentation from business logic: implementations contain no
// HTTP types and no display logic.
type ApplicationService interface {
	// Login verifies credentials against the stored hash and, on success,
	// returns a signed access token plus a public user summary.
	Login(ctx context.Context, email, password string) (*LoginResult, error)

	// ListDepartments returns all departments ordered by id.
	ListDepartments(ctx context.Context) ([]core.Department, error)

	// GetDepartment returns one department by id.
	GetDepartment(ctx context.Context, id int) (*core.Department, error)

	// CreateDepartment creates a department with an optional starting limit.
	CreateDepartment(ctx context.Context, req CreateDepartmentRequest) (*core.Department, error)

	// UpdateDepartment applies a partial name/code change.
	UpdateDepartment(ctx context.Context, id int, req UpdateDepartmentRequest) (*core.Department, error)

	// UpdateDepartmentLimit replaces a department's allocated limit.
	UpdateDepartmentLimit(ctx context.Context, id int, limitUSD decimal.Decimal) (*core.Department, error)

	// ListUsers returns all users with department joined, ordered by id.
	ListUsers(ctx context.Context) ([]core.User, error)

	// GetUser returns one user with department joined.
	GetUser(ctx context.Context, id int) (*core.User, error)

	// CreateUser hashes the password and creates an active account.
	CreateUser(ctx context.Context, req CreateUserRequest) (*core.User, error)

	// UpdateUser applies a partial change to an account.
	UpdateUser(ctx context.Context, id int, req UpdateUserRequest) (*core.User, error)

	// ResetUserPassword re-hashes and replaces an account's password.
	ResetUserPassword(ctx context.Context, id int, newPassword string) (*core.User, error)
}

// LoginResult is the login response payload.
type LoginResult struct {
	AccessToken string      `json:"accessToken"`
	User        UserSummary `json:"user"`
}

// UserSummary is the public slice of an account returned at login.
type UserSummary struct {
	ID           int       `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Role         core.Role `json:"role"`
	DepartmentID *int      `json:"departmentId"`
}

// CreateDepartmentRequest creates a department. A nil LimitUSD means zero.
type CreateDepartmentRequest struct {
	Name     string
	Code     string
	LimitUSD *decimal.Decimal
}

// UpdateDepartmentRequest is a partial department change; nil fields are untouched.
type UpdateDepartmentRequest struct {
	Name *string
	Code *string
}

// CreateUserRequest creates a user account. DepartmentID is required for OFFICERs.
type CreateUserRequest struct {
	Name         string
	Email        string
	Password     string
	Role         core.Role
	DepartmentID *int
}

// UpdateUserRequest is a partial account change; nil fields are untouched.
// DepartmentID only applies when DepartmentSet is true; nil then clears the link.
type UpdateUserRequest struct {
	Name          *string
	Email         *string
	Role          *core.Role
	IsActive      *bool
	DepartmentSet bool
	DepartmentID  *int
}
