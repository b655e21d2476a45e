package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// DepartmentInput carries the fields for creating a department.
type DepartmentInput struct {
	Name     string
	Code     string
	LimitUSD decimal.Decimal
}

// DepartmentUpdate carries a partial name/code change. Nil fields are left as-is.
type DepartmentUpdate struct {
	Name *string
	Code *string
}

// DepartmentService provides CRUD over department records. Codes are trimmed
// and uppercased on every write, so uniqueness is effectively case-insensitive.
type DepartmentService interface {
	// List returns all departments ordered by id ascending.
	List(ctx context.Context) ([]Department, error)

	// GetByID returns one department, or ErrNotFound.
	GetByID(ctx context.Context, id int) (*Department, error)

	// Create normalizes name and code and inserts a new department.
	// A duplicate code or negative limit is a ValidationError.
	Create(ctx context.Context, input DepartmentInput) (*Department, error)

	// Update applies a partial name/code change with the same normalization.
	Update(ctx context.Context, id int, update DepartmentUpdate) (*Department, error)

	// UpdateLimit replaces the allocated limit. Negative limits are a ValidationError.
	UpdateLimit(ctx context.Context, id int, limitUSD decimal.Decimal) (*Department, error)
}

type departmentService struct {
	pool *pgxpool.Pool
}

// NewDepartmentService constructs a DepartmentService backed by PostgreSQL.
func NewDepartmentService(pool *pgxpool.Pool) DepartmentService {
	return &departmentService{pool: pool}
}

const departmentColumns = "id, name, code, limit_usd, created_at, updated_at"

func scanDepartment(row pgx.Row) (*Department, error) {
	d := &Department{}
	err := row.Scan(&d.ID, &d.Name, &d.Code, &d.LimitUSD, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (s *departmentService) List(ctx context.Context) ([]Department, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+departmentColumns+`
		FROM departments
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list departments: %w", err)
	}
	defer rows.Close()

	var departments []Department
	for rows.Next() {
		var d Department
		if err := rows.Scan(&d.ID, &d.Name, &d.Code, &d.LimitUSD, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan department: %w", err)
		}
		departments = append(departments, d)
	}
	return departments, rows.Err()
}

func (s *departmentService) GetByID(ctx context.Context, id int) (*Department, error) {
	d, err := scanDepartment(s.pool.QueryRow(ctx, `
		SELECT `+departmentColumns+`
		FROM departments
		WHERE id = $1`,
		id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("department id=%d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("department id=%d: %w", id, err)
	}
	return d, nil
}

func (s *departmentService) Create(ctx context.Context, input DepartmentInput) (*Department, error) {
	name := strings.TrimSpace(input.Name)
	code := strings.ToUpper(strings.TrimSpace(input.Code))

	if name == "" {
		return nil, Invalidf("name is required")
	}
	if code == "" {
		return nil, Invalidf("code is required")
	}
	if input.LimitUSD.IsNegative() {
		return nil, Invalidf("limitUsd must not be negative")
	}

	taken, err := s.codeExists(ctx, code, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, Invalidf("department code %s already exists", code)
	}

	d, err := scanDepartment(s.pool.QueryRow(ctx, `
		INSERT INTO departments (name, code, limit_usd)
		VALUES ($1, $2, $3)
		RETURNING `+departmentColumns,
		name, code, input.LimitUSD))
	if err != nil {
		return nil, fmt.Errorf("create department %q: %w", code, err)
	}
	return d, nil
}

func (s *departmentService) Update(ctx context.Context, id int, update DepartmentUpdate) (*Department, error) {
	d, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		if name == "" {
			return nil, Invalidf("name must not be empty")
		}
		d.Name = name
	}
	if update.Code != nil {
		code := strings.ToUpper(strings.TrimSpace(*update.Code))
		if code == "" {
			return nil, Invalidf("code must not be empty")
		}
		if code != d.Code {
			taken, err := s.codeExists(ctx, code, id)
			if err != nil {
				return nil, err
			}
			if taken {
				return nil, Invalidf("department code %s already exists", code)
			}
		}
		d.Code = code
	}

	updated, err := scanDepartment(s.pool.QueryRow(ctx, `
		UPDATE departments
		SET name = $1, code = $2, updated_at = now()
		WHERE id = $3
		RETURNING `+departmentColumns,
		d.Name, d.Code, id))
	if err != nil {
		return nil, fmt.Errorf("update department id=%d: %w", id, err)
	}
	return updated, nil
}

func (s *departmentService) UpdateLimit(ctx context.Context, id int, limitUSD decimal.Decimal) (*Department, error) {
	if limitUSD.IsNegative() {
		return nil, Invalidf("limitUsd must not be negative")
	}

	d, err := scanDepartment(s.pool.QueryRow(ctx, `
		UPDATE departments
		SET limit_usd = $1, updated_at = now()
		WHERE id = $2
		RETURNING `+departmentColumns,
		limitUSD, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("department id=%d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("update department limit id=%d: %w", id, err)
	}
	return d, nil
}

// codeExists reports whether another department already holds the (normalized)
// code. excludeID skips the department being updated; 0 excludes nothing.
func (s *departmentService) codeExists(ctx context.Context, code string, excludeID int) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM departments WHERE code = $1 AND id <> $2)`,
		code, excludeID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check department code: %w", err)
	}
	return exists, nil
}
