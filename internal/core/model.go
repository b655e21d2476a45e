package core

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Role is a user's access level. The set is closed; route allow-lists and the
// officer/department rule key off these values.
type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleOfficer Role = "OFFICER"
	RoleViewer  Role = "VIEWER"
)

// Valid reports whether r is one of the three known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleOfficer, RoleViewer:
		return true
	}
	return false
}

// Department is an organizational unit with an admin-allocated spending limit.
type Department struct {
	ID        int             `json:"id"`
	Name      string          `json:"name"`
	Code      string          `json:"code"`
	LimitUSD  decimal.Decimal `json:"limitUsd"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// MarshalJSON renders limitUsd with exactly two decimal places ("500.00"),
// matching how the limit is stored and displayed.
func (d Department) MarshalJSON() ([]byte, error) {
	type alias Department
	return json.Marshal(struct {
		alias
		LimitUSD string `json:"limitUsd"`
	}{
		alias:    alias(d),
		LimitUSD: d.LimitUSD.StringFixed(2),
	})
}

// User is an account record. The password hash never leaves the server.
// Department is the joined record when DepartmentID is set.
type User struct {
	ID           int         `json:"id"`
	Name         string      `json:"name"`
	Email        string      `json:"email"`
	PasswordHash string      `json:"-"`
	Role         Role        `json:"role"`
	DepartmentID *int        `json:"departmentId"`
	Department   *Department `json:"department"`
	IsActive     bool        `json:"isActive"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}
