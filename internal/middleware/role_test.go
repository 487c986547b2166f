package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/equip-control/internal/model"
)

func doRoleRequest(role interface{}, min model.Role) (*httptest.ResponseRecorder, bool) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if role != nil {
		c.Set("role", role)
	}

	called := false
	handler := RequireRole(min)(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})
	_ = handler(c)
	return rec, called
}

func TestRequireRoleFloor(t *testing.T) {
	cases := []struct {
		role model.Role
		min  model.Role
		pass bool
	}{
		{model.RoleAdmin, model.RoleManager, true},
		{model.RoleManager, model.RoleManager, true},
		{model.RoleRequester, model.RoleManager, false},
		{model.RoleUser, model.RoleRequester, false},
		{model.RoleRequester, model.RoleRequester, true},
		{model.RoleManager, model.RoleAdmin, false},
		{model.RoleAdmin, model.RoleAdmin, true},
	}
	for _, tc := range cases {
		rec, called := doRoleRequest(tc.role, tc.min)
		if called != tc.pass {
			t.Errorf("role %s with floor %s: called = %v, want %v", tc.role, tc.min, called, tc.pass)
		}
		if !tc.pass && rec.Code != http.StatusForbidden {
			t.Errorf("role %s with floor %s: status = %d, want 403", tc.role, tc.min, rec.Code)
		}
	}
}

func TestRequireRoleMissingRole(t *testing.T) {
	rec, called := doRoleRequest(nil, model.RoleRequester)
	if called {
		t.Error("handler ran without a role in context")
	}
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}

func TestRequireRoleWrongType(t *testing.T) {
	rec, called := doRoleRequest("admin", model.RoleAdmin)
	if called {
		t.Error("handler ran with a plain-string role")
	}
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}
