package web

import (
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"

	"admin-console/internal/app"
	"admin-console/internal/core"
	webui "admin-console/web"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler holds the ApplicationService and the route handlers' shared state.
type Handler struct {
	svc        app.ApplicationService
	jwtSecret  string
	fileServer http.Handler
}

// NewHandler creates and wires the chi router with all routes.
func NewHandler(svc app.ApplicationService, allowedOrigins, jwtSecret string) http.Handler {
	staticFS, err := fs.Sub(webui.Static, "static")
	if err != nil {
		panic("web/static embed sub-FS failed: " + err.Error())
	}

	h := &Handler{
		svc:        svc,
		jwtSecret:  jwtSecret,
		fileServer: http.FileServer(http.FS(staticFS)),
	}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger)
	r.Use(Recoverer)
	r.Use(Metrics)
	r.Use(CORS(allowedOrigins))

	// Health and metrics (public)
	r.Get("/api/health", h.health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// Login (public)
	r.Group(func(r chi.Router) {
		r.Use(RequestBodyLimit(1 << 20)) // 1 MB
		r.Post("/api/auth/login", h.login)
	})

	// Protected API. Routes without a RequireRoles allow-list admit any
	// authenticated caller; writes and the user directory are ADMIN only.
	r.Group(func(r chi.Router) {
		r.Use(h.RequireAuth)
		r.Use(RequestBodyLimit(1 << 20)) // 1 MB

		r.Get("/api/auth/me", h.me)
		r.Get("/api/departments", h.listDepartments)
		r.Get("/api/departments/{id}", h.getDepartment)

		r.Group(func(r chi.Router) {
			r.Use(h.RequireRoles(core.RoleAdmin))

			r.Post("/api/departments", h.createDepartment)
			r.Patch("/api/departments/{id}", h.updateDepartment)
			r.Put("/api/departments/{id}/limit", h.updateDepartmentLimit)

			r.Get("/api/users", h.listUsers)
			r.Post("/api/users", h.createUser)
			r.Get("/api/users/{id}", h.getUser)
			r.Patch("/api/users/{id}", h.updateUser)
			r.Patch("/api/users/{id}/password", h.resetUserPassword)
		})
	})

	// Single-page client at the root; static assets next to it.
	r.Get("/", h.index)
	r.Get("/static/*", func(w http.ResponseWriter, req *http.Request) {
		http.StripPrefix("/static", h.fileServer).ServeHTTP(w, req)
	})

	return r
}

// health reports service status.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	type response struct {
		Status string `json:"status"`
	}
	writeJSON(w, response{Status: "ok"})
}

// index serves the SPA entry point.
func (h *Handler) index(w http.ResponseWriter, r *http.Request) {
	data, err := webui.Static.ReadFile("static/index.html")
	if err != nil {
		http.Error(w, "client not built", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(data)
}

// decodeJSON decodes the request body into v. On failure it writes the error
// response and returns false: 413 when the RequestBodyLimit was exceeded,
// 400 for everything else.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, r, "request body too large", "REQUEST_TOO_LARGE", http.StatusRequestEntityTooLarge)
			return false
		}
		writeError(w, r, "invalid JSON body: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return false
	}
	return true
}
