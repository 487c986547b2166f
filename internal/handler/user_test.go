package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/equip-control/internal/model"
)

// fakeProfileStore records deletions so tests can assert whether the
// guard let the delete through.
type fakeProfileStore struct {
	deleted []uint64
}

func (f *fakeProfileStore) UpdateProfile(_ context.Context, _ uint64, _ string, _ *uint64) error {
	return nil
}

func (f *fakeProfileStore) Delete(_ context.Context, id uint64) error {
	f.deleted = append(f.deleted, id)
	return nil
}

// fakeReservationGuard answers the active-reservation check with a fixed
// value.
type fakeReservationGuard struct {
	active bool
}

func (f *fakeReservationGuard) HasActiveByUser(_ context.Context, _ uint64) (bool, error) {
	return f.active, nil
}

func selfRequest(method, target string, u model.User) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user", u)
	return c, rec
}

func TestDeleteMeBlockedByActiveReservation(t *testing.T) {
	users := &fakeProfileStore{}
	h := NewUserHandler(users, nil, &fakeReservationGuard{active: true}, nil, nil)

	c, rec := selfRequest(http.MethodDelete, "/users/me",
		model.User{ID: 7, Email: "req@example.com", Role: model.RoleRequester, IsActive: true})
	if err := h.DeleteMe(c); err != nil {
		t.Fatalf("DeleteMe() error = %v", err)
	}
	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}
	if len(users.deleted) != 0 {
		t.Errorf("account deleted despite active reservation: %v", users.deleted)
	}
}

func TestDeleteMeAfterReservationsClosed(t *testing.T) {
	users := &fakeProfileStore{}
	h := NewUserHandler(users, nil, &fakeReservationGuard{active: false}, nil, nil)

	c, rec := selfRequest(http.MethodDelete, "/users/me",
		model.User{ID: 7, Email: "req@example.com", Role: model.RoleRequester, IsActive: true})
	if err := h.DeleteMe(c); err != nil {
		t.Fatalf("DeleteMe() error = %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if len(users.deleted) != 1 || users.deleted[0] != 7 {
		t.Errorf("deleted ids = %v, want [7]", users.deleted)
	}
}

func TestDeleteMeWithoutIdentity(t *testing.T) {
	h := NewUserHandler(&fakeProfileStore{}, nil, &fakeReservationGuard{}, nil, nil)
	e := echo.New()
	req := httptest.NewRequest(http.MethodDelete, "/users/me", nil)
	rec := httptest.NewRecorder()
	if err := h.DeleteMe(e.NewContext(req, rec)); err != nil {
		t.Fatalf("DeleteMe() error = %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}
