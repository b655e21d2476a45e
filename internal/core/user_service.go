package core

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// UserInput carries the fields for creating a user. PasswordHash must already
// be hashed; this layer never sees plaintext passwords.
type UserInput struct {
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	DepartmentID *int
}

// UserUpdate carries a partial change. Nil pointer fields are left as-is.
// DepartmentID is tri-state: untouched unless DepartmentSet is true, in which
// case a nil DepartmentID clears the link.
type UserUpdate struct {
	Name          *string
	Email         *string
	Role          *Role
	IsActive      *bool
	DepartmentSet bool
	DepartmentID  *int
}

// UserService provides CRUD over user accounts. Reads join the department
// record. Accounts are never deleted, only deactivated.
type UserService interface {
	// List returns all users with department joined, ordered by id ascending.
	List(ctx context.Context) ([]User, error)

	// GetByID returns one user with department joined, or ErrNotFound.
	GetByID(ctx context.Context, id int) (*User, error)

	// GetByEmail returns the user with exactly this email, active or not,
	// or ErrNotFound. The caller decides what inactive means.
	GetByEmail(ctx context.Context, email string) (*User, error)

	// Create inserts a new active user. An OFFICER without a department,
	// an unknown department, or a duplicate email is a ValidationError.
	Create(ctx context.Context, input UserInput) (*User, error)

	// Update applies a partial change. Setting role OFFICER while explicitly
	// clearing the department is a ValidationError.
	Update(ctx context.Context, id int, update UserUpdate) (*User, error)

	// ResetPassword replaces the stored password hash, or ErrNotFound.
	ResetPassword(ctx context.Context, id int, newHash string) error
}

type userService struct {
	pool *pgxpool.Pool
}

// NewUserService constructs a UserService backed by PostgreSQL.
func NewUserService(pool *pgxpool.Pool) UserService {
	return &userService{pool: pool}
}

const userSelect = `
	SELECT u.id, u.name, u.email, u.password_hash, u.role, u.department_id,
	       u.is_active, u.created_at, u.updated_at,
	       d.id, d.name, d.code, d.limit_usd, d.created_at, d.updated_at
	FROM users u
	LEFT JOIN departments d ON d.id = u.department_id`

// userRow is the scan target for userSelect; the department columns are all
// nullable because of the left join.
type userRow struct {
	user        User
	deptID      *int
	deptName    *string
	deptCode    *string
	deptLimit   *decimal.Decimal
	deptCreated *time.Time
	deptUpdated *time.Time
}

func (r *userRow) dest() []any {
	u := &r.user
	return []any{
		&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.DepartmentID,
		&u.IsActive, &u.CreatedAt, &u.UpdatedAt,
		&r.deptID, &r.deptName, &r.deptCode, &r.deptLimit, &r.deptCreated, &r.deptUpdated,
	}
}

func (r *userRow) result() User {
	u := r.user
	if r.deptID != nil {
		u.Department = &Department{
			ID:        *r.deptID,
			Name:      *r.deptName,
			Code:      *r.deptCode,
			LimitUSD:  *r.deptLimit,
			CreatedAt: *r.deptCreated,
			UpdatedAt: *r.deptUpdated,
		}
	}
	return u
}

func (s *userService) List(ctx context.Context) ([]User, error) {
	rows, err := s.pool.Query(ctx, userSelect+` ORDER BY u.id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var r userRow
		if err := rows.Scan(r.dest()...); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, r.result())
	}
	return users, rows.Err()
}

func (s *userService) GetByID(ctx context.Context, id int) (*User, error) {
	var r userRow
	err := s.pool.QueryRow(ctx, userSelect+` WHERE u.id = $1`, id).Scan(r.dest()...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user id=%d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("user id=%d: %w", id, err)
	}
	u := r.result()
	return &u, nil
}

func (s *userService) GetByEmail(ctx context.Context, email string) (*User, error) {
	var r userRow
	err := s.pool.QueryRow(ctx, userSelect+` WHERE u.email = $1`, email).Scan(r.dest()...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user email=%q: %w", email, ErrNotFound)
		}
		return nil, fmt.Errorf("user email=%q: %w", email, err)
	}
	u := r.result()
	return &u, nil
}

func (s *userService) Create(ctx context.Context, input UserInput) (*User, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, Invalidf("name is required")
	}
	if _, err := mail.ParseAddress(input.Email); err != nil {
		return nil, Invalidf("invalid email address")
	}
	if !input.Role.Valid() {
		return nil, Invalidf("unknown role %q", string(input.Role))
	}
	if input.Role == RoleOfficer && input.DepartmentID == nil {
		return nil, Invalidf("OFFICER must have a departmentId")
	}
	if input.DepartmentID != nil {
		if err := s.departmentExists(ctx, *input.DepartmentID); err != nil {
			return nil, err
		}
	}
	taken, err := s.emailExists(ctx, input.Email, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, Invalidf("email already exists")
	}

	var id int
	err = s.pool.QueryRow(ctx, `
		INSERT INTO users (name, email, password_hash, role, department_id, is_active)
		VALUES ($1, $2, $3, $4, $5, true)
		RETURNING id`,
		name, input.Email, input.PasswordHash, input.Role, input.DepartmentID,
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("create user %q: %w", input.Email, err)
	}
	return s.GetByID(ctx, id)
}

func (s *userService) Update(ctx context.Context, id int, update UserUpdate) (*User, error) {
	u, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if update.Role != nil {
		if !update.Role.Valid() {
			return nil, Invalidf("unknown role %q", string(*update.Role))
		}
		if *update.Role == RoleOfficer && update.DepartmentSet && update.DepartmentID == nil {
			return nil, Invalidf("OFFICER must have a department")
		}
		u.Role = *update.Role
	}
	if update.DepartmentSet {
		if update.DepartmentID != nil {
			if err := s.departmentExists(ctx, *update.DepartmentID); err != nil {
				return nil, err
			}
		}
		u.DepartmentID = update.DepartmentID
	}
	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		if name == "" {
			return nil, Invalidf("name must not be empty")
		}
		u.Name = name
	}
	if update.Email != nil {
		if _, err := mail.ParseAddress(*update.Email); err != nil {
			return nil, Invalidf("invalid email address")
		}
		taken, err := s.emailExists(ctx, *update.Email, id)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, Invalidf("email already exists")
		}
		u.Email = *update.Email
	}
	if update.IsActive != nil {
		u.IsActive = *update.IsActive
	}

	_, err = s.pool.Exec(ctx, `
		UPDATE users
		SET name = $1, email = $2, role = $3, department_id = $4, is_active = $5, updated_at = now()
		WHERE id = $6`,
		u.Name, u.Email, u.Role, u.DepartmentID, u.IsActive, id)
	if err != nil {
		return nil, fmt.Errorf("update user id=%d: %w", id, err)
	}
	return s.GetByID(ctx, id)
}

func (s *userService) ResetPassword(ctx context.Context, id int, newHash string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE users
		SET password_hash = $1, updated_at = now()
		WHERE id = $2`,
		newHash, id)
	if err != nil {
		return fmt.Errorf("reset password id=%d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user id=%d: %w", id, ErrNotFound)
	}
	return nil
}

func (s *userService) departmentExists(ctx context.Context, id int) error {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM departments WHERE id = $1)`, id,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check department: %w", err)
	}
	if !exists {
		return Invalidf("department %d not found", id)
	}
	return nil
}

func (s *userService) emailExists(ctx context.Context, email string, excludeID int) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE email = $1 AND id <> $2)`,
		email, excludeID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check email: %w", err)
	}
	return exists, nil
}
