package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/equip-control/internal/config"
	"github.com/iliyamo/equip-control/internal/model"
	"github.com/iliyamo/equip-control/internal/repository"
	"github.com/iliyamo/equip-control/internal/token"
)

const testSecret = "handler-test-secret"

func testConfig() config.Config {
	return config.Config{
		JWTSecret:      testSecret,
		AccessTTLMin:   60,
		RefreshTTLDays: 7,
		BcryptCost:     4,
	}
}

// fakeRevoker keeps revoked jtis in memory and answers a second
// revocation of the same jti with ErrConflict, like the real table's
// unique index does.
type fakeRevoker struct {
	revoked map[string]time.Time
}

func newFakeRevoker() *fakeRevoker {
	return &fakeRevoker{revoked: map[string]time.Time{}}
}

func (f *fakeRevoker) Revoke(_ context.Context, jti string, expiresAt time.Time) error {
	if _, ok := f.revoked[jti]; ok {
		return repository.ErrConflict
	}
	f.revoked[jti] = expiresAt
	return nil
}

// fakeUserStore serves accounts by id and email.  Write methods mutate
// the stored copies so assertions can inspect them.
type fakeUserStore struct {
	users map[uint64]model.User
}

func (f *fakeUserStore) Create(_ context.Context, _, _, _ string, _ *uint64) (uint64, error) {
	return 0, repository.ErrConflict
}

func (f *fakeUserStore) GetByEmail(_ context.Context, email string) (model.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (f *fakeUserStore) GetByID(_ context.Context, id uint64) (model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

func (f *fakeUserStore) UpdateLoginState(_ context.Context, id uint64, attempts int, active bool) error {
	u := f.users[id]
	u.LoginAttempts = attempts
	u.IsActive = active
	f.users[id] = u
	return nil
}

func (f *fakeUserStore) MarkVerified(_ context.Context, id uint64) error {
	u := f.users[id]
	u.IsVerified = true
	f.users[id] = u
	return nil
}

func (f *fakeUserStore) UpdatePasswordHash(_ context.Context, id uint64, hash string) error {
	u := f.users[id]
	u.PasswordHash = hash
	f.users[id] = u
	return nil
}

func newAuthHandlerEnv() (*AuthHandler, *fakeRevoker) {
	bl := newFakeRevoker()
	users := &fakeUserStore{users: map[uint64]model.User{
		42: {ID: 42, Email: "req@example.com", Role: model.RoleRequester, IsActive: true, IsVerified: true},
	}}
	h := NewAuthHandler(testConfig(), users, bl, nil, nil, nil, nil)
	return h, bl
}

func jsonRequest(method, target, body, bearer string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestLogoutRevokesToken(t *testing.T) {
	h, bl := newAuthHandlerEnv()
	acc, err := token.NewAccess(testSecret, 42, 60)
	if err != nil {
		t.Fatalf("NewAccess() error = %v", err)
	}

	c, rec := jsonRequest(http.MethodPost, "/auth/logout", "", acc.Value)
	if err := h.Logout(c); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if _, ok := bl.revoked[acc.JTI]; !ok {
		t.Errorf("jti %s not recorded in blacklist", acc.JTI)
	}
}

func TestLogoutSecondRevokeConflict(t *testing.T) {
	h, _ := newAuthHandlerEnv()
	acc, err := token.NewAccess(testSecret, 42, 60)
	if err != nil {
		t.Fatalf("NewAccess() error = %v", err)
	}

	c, rec := jsonRequest(http.MethodPost, "/auth/logout", "", acc.Value)
	if err := h.Logout(c); err != nil {
		t.Fatalf("first Logout() error = %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("first status = %d, want 200", rec.Code)
	}

	c, rec = jsonRequest(http.MethodPost, "/auth/logout", "", acc.Value)
	if err := h.Logout(c); err != nil {
		t.Fatalf("second Logout() error = %v", err)
	}
	if rec.Code != http.StatusConflict {
		t.Errorf("second status = %d, want 409", rec.Code)
	}
}

func TestLogoutRejectsRefreshToken(t *testing.T) {
	// Refresh tokens carry no jti, so there is nothing to blacklist.
	h, _ := newAuthHandlerEnv()
	refresh, err := token.NewRefresh(testSecret, 42, 7)
	if err != nil {
		t.Fatalf("NewRefresh() error = %v", err)
	}

	c, rec := jsonRequest(http.MethodPost, "/auth/logout", "", refresh)
	if err := h.Logout(c); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestRefreshIssuesNewPair(t *testing.T) {
	h, _ := newAuthHandlerEnv()
	refresh, err := token.NewRefresh(testSecret, 42, 7)
	if err != nil {
		t.Fatalf("NewRefresh() error = %v", err)
	}

	c, rec := jsonRequest(http.MethodPost, "/auth/refresh",
		`{"refresh_token":"`+refresh+`"}`, "")
	if err := h.Refresh(c); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp loginResp
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		t.Errorf("response missing tokens: %+v", resp)
	}
}

func TestRefreshRejectsScopedToken(t *testing.T) {
	// The 2FA challenge token has a numeric sub like a refresh token but
	// must not complete a login on its own.
	h, _ := newAuthHandlerEnv()
	temp, err := token.NewScoped(testSecret, "42", token.ScopeTwoFactor, token.TwoFactorTTL)
	if err != nil {
		t.Fatalf("NewScoped() error = %v", err)
	}

	c, rec := jsonRequest(http.MethodPost, "/auth/refresh",
		`{"refresh_token":"`+temp+`"}`, "")
	if err := h.Refresh(c); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestRefreshRejectsInactiveUser(t *testing.T) {
	h, _ := newAuthHandlerEnv()
	users := h.Users.(*fakeUserStore)
	u := users.users[42]
	u.IsActive = false
	users.users[42] = u

	refresh, err := token.NewRefresh(testSecret, 42, 7)
	if err != nil {
		t.Fatalf("NewRefresh() error = %v", err)
	}
	c, rec := jsonRequest(http.MethodPost, "/auth/refresh",
		`{"refresh_token":"`+refresh+`"}`, "")
	if err := h.Refresh(c); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}
