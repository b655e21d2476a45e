package web

import (
	"net/http"
	"strconv"

	"admin-console/internal/app"
	"admin-console/internal/core"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

// idParam parses the {id} URL parameter. Writes a 400 and returns false when
// it is not a positive integer.
func idParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id < 1 {
		writeError(w, r, "invalid id", "BAD_REQUEST", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// listDepartments handles GET /api/departments.
func (h *Handler) listDepartments(w http.ResponseWriter, r *http.Request) {
	departments, err := h.svc.ListDepartments(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if departments == nil {
		departments = []core.Department{}
	}
	writeJSON(w, departments)
}

// getDepartment handles GET /api/departments/{id}.
func (h *Handler) getDepartment(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	department, err := h.svc.GetDepartment(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, department)
}

// createDepartment handles POST /api/departments.
func (h *Handler) createDepartment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string           `json:"name"`
		Code     string           `json:"code"`
		LimitUSD *decimal.Decimal `json:"limitUsd"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	department, err := h.svc.CreateDepartment(r.Context(), app.CreateDepartmentRequest{
		Name:     req.Name,
		Code:     req.Code,
		LimitUSD: req.LimitUSD,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, department)
}

// updateDepartment handles PATCH /api/departments/{id}.
func (h *Handler) updateDepartment(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var req struct {
		Name *string `json:"name"`
		Code *string `json:"code"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	department, err := h.svc.UpdateDepartment(r.Context(), id, app.UpdateDepartmentRequest{
		Name: req.Name,
		Code: req.Code,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, department)
}

// updateDepartmentLimit handles PUT /api/departments/{id}/limit.
func (h *Handler) updateDepartmentLimit(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var req struct {
		LimitUSD *decimal.Decimal `json:"limitUsd"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.LimitUSD == nil {
		writeError(w, r, "limitUsd is required", "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	department, err := h.svc.UpdateDepartmentLimit(r.Context(), id, *req.LimitUSD)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, department)
}
