package web

import (
	"encoding/json"
	"net/http"

	"admin-console/internal/app"
	"admin-console/internal/core"
)

// optionalInt distinguishes an absent JSON field from an explicit null, which
// PATCH needs to tell "leave the department alone" from "clear it".
type optionalInt struct {
	Set   bool
	Value *int
}

func (o *optionalInt) UnmarshalJSON(b []byte) error {
	o.Set = true
	if string(b) == "null" {
		o.Value = nil
		return nil
	}
	var v int
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}

// listUsers handles GET /api/users.
func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.ListUsers(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if users == nil {
		users = []core.User{}
	}
	writeJSON(w, users)
}

// getUser handles GET /api/users/{id}.
func (h *Handler) getUser(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	user, err := h.svc.GetUser(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, user)
}

// createUser handles POST /api/users.
func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name         string `json:"name"`
		Email        string `json:"email"`
		Password     string `json:"password"`
		Role         string `json:"role"`
		DepartmentID *int   `json:"departmentId"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.svc.CreateUser(r.Context(), app.CreateUserRequest{
		Name:         req.Name,
		Email:        req.Email,
		Password:     req.Password,
		Role:         core.Role(req.Role),
		DepartmentID: req.DepartmentID,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, user)
}

// updateUser handles PATCH /api/users/{id}.
func (h *Handler) updateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var req struct {
		Name         *string     `json:"name"`
		Email        *string     `json:"email"`
		Role         *string     `json:"role"`
		IsActive     *bool       `json:"isActive"`
		DepartmentID optionalInt `json:"departmentId"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	update := app.UpdateUserRequest{
		Name:          req.Name,
		Email:         req.Email,
		IsActive:      req.IsActive,
		DepartmentSet: req.DepartmentID.Set,
		DepartmentID:  req.DepartmentID.Value,
	}
	if req.Role != nil {
		role := core.Role(*req.Role)
		update.Role = &role
	}

	user, err := h.svc.UpdateUser(r.Context(), id, update)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, user)
}

// resetUserPassword handles PATCH /api/users/{id}/password.
func (h *Handler) resetUserPassword(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var req struct {
		NewPassword string `json:"newPassword"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.svc.ResetUserPassword(r.Context(), id, req.NewPassword)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, user)
}
