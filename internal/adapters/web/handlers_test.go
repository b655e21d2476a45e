package web_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"admin-console/internal/adapters/web"
	"admin-console/internal/app"
	"admin-console/internal/auth"
	"admin-console/internal/core"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "handler-test-secret"

// stubService implements app.ApplicationService with overridable function
// fields, so each test wires only the calls it expects.
type stubService struct {
	login           func(ctx context.Context, email, password string) (*app.LoginResult, error)
	listDepartments func(ctx context.Context) ([]core.Department, error)
	getDepartment   func(ctx context.Context, id int) (*core.Department, error)
	createDept      func(ctx context.Context, req app.CreateDepartmentRequest) (*core.Department, error)
	updateDept      func(ctx context.Context, id int, req app.UpdateDepartmentRequest) (*core.Department, error)
	updateLimit     func(ctx context.Context, id int, limitUSD decimal.Decimal) (*core.Department, error)
	listUsers       func(ctx context.Context) ([]core.User, error)
	getUser         func(ctx context.Context, id int) (*core.User, error)
	createUser      func(ctx context.Context, req app.CreateUserRequest) (*core.User, error)
	updateUser      func(ctx context.Context, id int, req app.UpdateUserRequest) (*core.User, error)
	resetPassword   func(ctx context.Context, id int, newPassword string) (*core.User, error)
}

func (s *stubService) Login(ctx context.Context, email, password string) (*app.LoginResult, error) {
	return s.login(ctx, email, password)
}

func (s *stubService) ListDepartments(ctx context.Context) ([]core.Department, error) {
	return s.listDepartments(ctx)
}

func (s *stubService) GetDepartment(ctx context.Context, id int) (*core.Department, error) {
	return s.getDepartment(ctx, id)
}

func (s *stubService) CreateDepartment(ctx context.Context, req app.CreateDepartmentRequest) (*core.Department, error) {
	return s.createDept(ctx, req)
}

func (s *stubService) UpdateDepartment(ctx context.Context, id int, req app.UpdateDepartmentRequest) (*core.Department, error) {
	return s.updateDept(ctx, id, req)
}

func (s *stubService) UpdateDepartmentLimit(ctx context.Context, id int, limitUSD decimal.Decimal) (*core.Department, error) {
	return s.updateLimit(ctx, id, limitUSD)
}

func (s *stubService) ListUsers(ctx context.Context) ([]core.User, error) {
	return s.listUsers(ctx)
}

func (s *stubService) GetUser(ctx context.Context, id int) (*core.User, error) {
	return s.getUser(ctx, id)
}

func (s *stubService) CreateUser(ctx context.Context, req app.CreateUserRequest) (*core.User, error) {
	return s.createUser(ctx, req)
}

func (s *stubService) UpdateUser(ctx context.Context, id int, req app.UpdateUserRequest) (*core.User, error) {
	return s.updateUser(ctx, id, req)
}

func (s *stubService) ResetUserPassword(ctx context.Context, id int, newPassword string) (*core.User, error) {
	return s.resetPassword(ctx, id, newPassword)
}

func newTestHandler(svc app.ApplicationService) http.Handler {
	return web.NewHandler(svc, "", testSecret)
}

func tokenFor(t *testing.T, role string) string {
	t.Helper()
	token, err := auth.SignToken(testSecret, 1, "someone@x.io", role, nil)
	require.NoError(t, err)
	return token
}

func doRequest(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// errorBody is the uniform error response shape.
type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHealth(t *testing.T) {
	h := newTestHandler(&stubService{})
	rec := doRequest(t, h, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestAuth_MissingToken(t *testing.T) {
	h := newTestHandler(&stubService{})
	for _, path := range []string{"/api/auth/me", "/api/departments", "/api/users"} {
		rec := doRequest(t, h, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
		assert.Equal(t, "UNAUTHORIZED", decodeError(t, rec).Code, path)
	}
}

func TestAuth_BadToken(t *testing.T) {
	h := newTestHandler(&stubService{})

	t.Run("Garbage", func(t *testing.T) {
		rec := doRequest(t, h, http.MethodGet, "/api/departments", "not-a-jwt", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("WrongSecret", func(t *testing.T) {
		token, err := auth.SignToken("other-secret", 1, "x@x.io", "ADMIN", nil)
		require.NoError(t, err)
		rec := doRequest(t, h, http.MethodGet, "/api/departments", token, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestRoleAllowList(t *testing.T) {
	svc := &stubService{
		listUsers: func(context.Context) ([]core.User, error) { return nil, nil },
		listDepartments: func(context.Context) ([]core.Department, error) {
			return nil, nil
		},
	}
	h := newTestHandler(svc)

	t.Run("ViewerReadsDepartments", func(t *testing.T) {
		rec := doRequest(t, h, http.MethodGet, "/api/departments", tokenFor(t, "VIEWER"), nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("ViewerDeniedUserDirectory", func(t *testing.T) {
		rec := doRequest(t, h, http.MethodGet, "/api/users", tokenFor(t, "VIEWER"), nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "FORBIDDEN", decodeError(t, rec).Code)
	})

	t.Run("OfficerDeniedDepartmentWrite", func(t *testing.T) {
		rec := doRequest(t, h, http.MethodPost, "/api/departments", tokenFor(t, "OFFICER"),
			map[string]string{"name": "IT", "code": "IT"})
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("AdminReadsUserDirectory", func(t *testing.T) {
		rec := doRequest(t, h, http.MethodGet, "/api/users", tokenFor(t, "ADMIN"), nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
	})
}

func TestLogin(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		svc := &stubService{
			login: func(_ context.Context, email, password string) (*app.LoginResult, error) {
				assert.Equal(t, "admin@x.io", email)
				assert.Equal(t, "secret123", password)
				return &app.LoginResult{
					AccessToken: "token-123",
					User:        app.UserSummary{ID: 1, Name: "Admin", Email: email, Role: core.RoleAdmin},
				}, nil
			},
		}
		rec := doRequest(t, newTestHandler(svc), http.MethodPost, "/api/auth/login", "",
			map[string]string{"email": "admin@x.io", "password": "secret123"})

		require.Equal(t, http.StatusOK, rec.Code)
		var body struct {
			AccessToken string `json:"accessToken"`
			User        struct {
				Role string `json:"role"`
			} `json:"user"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "token-123", body.AccessToken)
		assert.Equal(t, "ADMIN", body.User.Role)
	})

	t.Run("BadCredentials", func(t *testing.T) {
		svc := &stubService{
			login: func(context.Context, string, string) (*app.LoginResult, error) {
				return nil, app.ErrInvalidCredentials
			},
		}
		rec := doRequest(t, newTestHandler(svc), http.MethodPost, "/api/auth/login", "",
			map[string]string{"email": "admin@x.io", "password": "wrong"})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "UNAUTHORIZED", decodeError(t, rec).Code)
	})

	t.Run("MalformedBody", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader("{not json"))
		rec := httptest.NewRecorder()
		newTestHandler(&stubService{}).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "BAD_REQUEST", decodeError(t, rec).Code)
	})
}

func TestMe(t *testing.T) {
	deptID := 7
	token, err := auth.SignToken(testSecret, 42, "officer@x.io", "OFFICER", &deptID)
	require.NoError(t, err)

	rec := doRequest(t, newTestHandler(&stubService{}), http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"sub":42,"email":"officer@x.io","role":"OFFICER","departmentId":7}`, rec.Body.String())
}

func TestDepartmentContracts(t *testing.T) {
	limit := decimal.RequireFromString("500")
	dept := &core.Department{ID: 1, Name: "IT", Code: "IT", LimitUSD: limit}

	t.Run("LimitRenderedWithTwoDecimals", func(t *testing.T) {
		svc := &stubService{
			getDepartment: func(_ context.Context, id int) (*core.Department, error) {
				assert.Equal(t, 1, id)
				return dept, nil
			},
		}
		rec := doRequest(t, newTestHandler(svc), http.MethodGet, "/api/departments/1", tokenFor(t, "VIEWER"), nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"limitUsd":"500.00"`)
	})

	t.Run("NotFound", func(t *testing.T) {
		svc := &stubService{
			getDepartment: func(context.Context, int) (*core.Department, error) {
				return nil, core.ErrNotFound
			},
		}
		rec := doRequest(t, newTestHandler(svc), http.MethodGet, "/api/departments/99", tokenFor(t, "VIEWER"), nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "NOT_FOUND", decodeError(t, rec).Code)
	})

	t.Run("InvalidID", func(t *testing.T) {
		rec := doRequest(t, newTestHandler(&stubService{}), http.MethodGet, "/api/departments/abc", tokenFor(t, "VIEWER"), nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "invalid id", decodeError(t, rec).Error)
	})

	t.Run("ValidationErrorSurfacesMessage", func(t *testing.T) {
		svc := &stubService{
			createDept: func(context.Context, app.CreateDepartmentRequest) (*core.Department, error) {
				return nil, core.Invalidf("code %q is already taken", "IT")
			},
		}
		rec := doRequest(t, newTestHandler(svc), http.MethodPost, "/api/departments", tokenFor(t, "ADMIN"),
			map[string]string{"name": "IT", "code": "IT"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		body := decodeError(t, rec)
		assert.Equal(t, "BAD_REQUEST", body.Code)
		assert.Contains(t, body.Error, "already taken")
	})

	t.Run("LimitUpdateRequiresBodyField", func(t *testing.T) {
		rec := doRequest(t, newTestHandler(&stubService{}), http.MethodPut, "/api/departments/1/limit", tokenFor(t, "ADMIN"),
			map[string]string{})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "limitUsd is required", decodeError(t, rec).Error)
	})

	t.Run("LimitUpdatePassesDecimal", func(t *testing.T) {
		svc := &stubService{
			updateLimit: func(_ context.Context, id int, limitUSD decimal.Decimal) (*core.Department, error) {
				assert.Equal(t, 1, id)
				assert.True(t, limitUSD.Equal(decimal.RequireFromString("750.50")))
				return dept, nil
			},
		}
		rec := doRequest(t, newTestHandler(svc), http.MethodPut, "/api/departments/1/limit", tokenFor(t, "ADMIN"),
			map[string]any{"limitUsd": "750.50"})
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestUpdateUser_DepartmentTriState(t *testing.T) {
	user := &core.User{ID: 5, Name: "Bob", Email: "bob@x.io", Role: core.RoleViewer, IsActive: true}

	run := func(t *testing.T, body string) app.UpdateUserRequest {
		t.Helper()
		var got app.UpdateUserRequest
		svc := &stubService{
			updateUser: func(_ context.Context, id int, req app.UpdateUserRequest) (*core.User, error) {
				got = req
				return user, nil
			},
		}
		req := httptest.NewRequest(http.MethodPatch, "/api/users/5", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+tokenFor(t, "ADMIN"))
		rec := httptest.NewRecorder()
		newTestHandler(svc).ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		return got
	}

	t.Run("AbsentFieldLeavesLink", func(t *testing.T) {
		got := run(t, `{"name":"Bobby"}`)
		assert.False(t, got.DepartmentSet)
		require.NotNil(t, got.Name)
		assert.Equal(t, "Bobby", *got.Name)
	})

	t.Run("ExplicitNullClears", func(t *testing.T) {
		got := run(t, `{"departmentId":null}`)
		assert.True(t, got.DepartmentSet)
		assert.Nil(t, got.DepartmentID)
	})

	t.Run("ValueSets", func(t *testing.T) {
		got := run(t, `{"departmentId":3}`)
		assert.True(t, got.DepartmentSet)
		require.NotNil(t, got.DepartmentID)
		assert.Equal(t, 3, *got.DepartmentID)
	})
}

func TestCreateUser_PassesRoleThrough(t *testing.T) {
	svc := &stubService{
		createUser: func(_ context.Context, req app.CreateUserRequest) (*core.User, error) {
			assert.Equal(t, core.RoleOfficer, req.Role)
			require.NotNil(t, req.DepartmentID)
			assert.Equal(t, 2, *req.DepartmentID)
			return &core.User{ID: 9, Name: req.Name, Email: req.Email, Role: req.Role, IsActive: true}, nil
		},
	}
	rec := doRequest(t, newTestHandler(svc), http.MethodPost, "/api/users", tokenFor(t, "ADMIN"),
		map[string]any{"name": "Carol", "email": "carol@x.io", "password": "pw123456", "role": "OFFICER", "departmentId": 2})

	require.Equal(t, http.StatusOK, rec.Code)
	// The hash never leaves the server.
	assert.NotContains(t, rec.Body.String(), "password")
}

func TestResetUserPassword(t *testing.T) {
	svc := &stubService{
		resetPassword: func(_ context.Context, id int, newPassword string) (*core.User, error) {
			assert.Equal(t, 5, id)
			assert.Equal(t, "fresh-pw", newPassword)
			return &core.User{ID: 5, Name: "Bob", Email: "bob@x.io", Role: core.RoleViewer, IsActive: true}, nil
		},
	}
	rec := doRequest(t, newTestHandler(svc), http.MethodPatch, "/api/users/5/password", tokenFor(t, "ADMIN"),
		map[string]string{"newPassword": "fresh-pw"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequestBodyLimit(t *testing.T) {
	big := strings.Repeat("a", (1<<20)+1)
	body := `{"email":"` + big + `","password":"x"}`
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	newTestHandler(&stubService{}).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, "REQUEST_TOO_LARGE", decodeError(t, rec).Code)
}

func TestCORSPreflight(t *testing.T) {
	h := web.NewHandler(&stubService{}, "http://localhost:5173", testSecret)
	req := httptest.NewRequest(http.MethodOptions, "/api/departments", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Authorization")
}

func TestIndexServesClient(t *testing.T) {
	rec := doRequest(t, newTestHandler(&stubService{}), http.MethodGet, "/", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "login-form")
}
