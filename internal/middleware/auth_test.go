package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/equip-control/internal/model"
	"github.com/iliyamo/equip-control/internal/repository"
	"github.com/iliyamo/equip-control/internal/token"
)

const testSecret = "middleware-test-secret"

type fakeBlacklist struct {
	revoked map[string]bool
}

func (f *fakeBlacklist) IsRevoked(_ context.Context, jti string) (bool, error) {
	return f.revoked[jti], nil
}

type fakeUsers struct {
	users map[uint64]model.User
}

func (f *fakeUsers) GetByID(_ context.Context, id uint64) (model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

func newAuthTestEnv(t *testing.T) (*fakeBlacklist, *fakeUsers, echo.MiddlewareFunc) {
	t.Helper()
	bl := &fakeBlacklist{revoked: map[string]bool{}}
	users := &fakeUsers{users: map[uint64]model.User{
		1: {ID: 1, Email: "req@example.com", Role: model.RoleRequester, IsActive: true},
		2: {ID: 2, Email: "off@example.com", Role: model.RoleRequester, IsActive: false},
	}}
	return bl, users, Authorize(testSecret, bl, users)
}

func doAuthRequest(mw echo.MiddlewareFunc, header string) (*httptest.ResponseRecorder, bool) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	handler := mw(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})
	_ = handler(c)
	return rec, called
}

func TestAuthorizeValidToken(t *testing.T) {
	_, _, mw := newAuthTestEnv(t)
	acc, err := token.NewAccess(testSecret, 1, 60)
	if err != nil {
		t.Fatalf("NewAccess() error = %v", err)
	}

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+acc.Value)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := mw(func(c echo.Context) error {
		u, ok := c.Get("user").(model.User)
		if !ok || u.ID != 1 {
			t.Errorf("context user = %+v, want id 1", c.Get("user"))
		}
		if role, _ := c.Get("role").(model.Role); role != model.RoleRequester {
			t.Errorf("context role = %v, want requester", c.Get("role"))
		}
		if jti, _ := c.Get("jti").(string); jti != acc.JTI {
			t.Errorf("context jti = %v, want %s", c.Get("jti"), acc.JTI)
		}
		return c.NoContent(http.StatusOK)
	})
	if err := handler(c); err != nil {
		t.Fatalf("handler error = %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestAuthorizeMissingHeader(t *testing.T) {
	_, _, mw := newAuthTestEnv(t)
	rec, called := doAuthRequest(mw, "")
	if called {
		t.Error("handler ran without credentials")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestAuthorizeGarbageToken(t *testing.T) {
	_, _, mw := newAuthTestEnv(t)
	rec, called := doAuthRequest(mw, "Bearer not-a-token")
	if called {
		t.Error("handler ran with a garbage token")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestAuthorizeRejectsRefreshToken(t *testing.T) {
	// Refresh tokens share the signing secret but carry no jti, so they
	// must not pass the gate.
	_, _, mw := newAuthTestEnv(t)
	refresh, err := token.NewRefresh(testSecret, 1, 7)
	if err != nil {
		t.Fatalf("NewRefresh() error = %v", err)
	}
	rec, called := doAuthRequest(mw, "Bearer "+refresh)
	if called {
		t.Error("handler ran with a refresh token")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestAuthorizeBlacklistedToken(t *testing.T) {
	bl, _, mw := newAuthTestEnv(t)
	acc, err := token.NewAccess(testSecret, 1, 60)
	if err != nil {
		t.Fatalf("NewAccess() error = %v", err)
	}
	bl.revoked[acc.JTI] = true

	rec, called := doAuthRequest(mw, "Bearer "+acc.Value)
	if called {
		t.Error("handler ran with a revoked token")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestAuthorizeInactiveUser(t *testing.T) {
	_, _, mw := newAuthTestEnv(t)
	acc, err := token.NewAccess(testSecret, 2, 60)
	if err != nil {
		t.Fatalf("NewAccess() error = %v", err)
	}
	rec, called := doAuthRequest(mw, "Bearer "+acc.Value)
	if called {
		t.Error("handler ran for an inactive user")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestAuthorizeDeletedUser(t *testing.T) {
	_, _, mw := newAuthTestEnv(t)
	acc, err := token.NewAccess(testSecret, 99, 60)
	if err != nil {
		t.Fatalf("NewAccess() error = %v", err)
	}
	rec, called := doAuthRequest(mw, "Bearer "+acc.Value)
	if called {
		t.Error("handler ran for a missing user")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}
