package handler

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/equip-control/internal/model"
	"github.com/iliyamo/equip-control/internal/repository"
)

// fakeUserDirectory serves and mutates accounts by id.
type fakeUserDirectory struct {
	users   map[uint64]model.User
	deleted []uint64
}

func (f *fakeUserDirectory) GetByID(_ context.Context, id uint64) (model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

func (f *fakeUserDirectory) Delete(_ context.Context, id uint64) error {
	if _, ok := f.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.users, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeUserDirectory) List(_ context.Context, _ string, _ *model.Role, _ *uint64, _ *bool, _, _ int) ([]model.User, int, error) {
	return nil, 0, nil
}

func (f *fakeUserDirectory) SetActive(_ context.Context, _ uint64, _ bool) error { return nil }

func (f *fakeUserDirectory) SetRole(_ context.Context, _ uint64, _ model.Role) error { return nil }

func (f *fakeUserDirectory) SetSector(_ context.Context, _ uint64, _ *uint64) error { return nil }

// fakeReservationStore answers the delete guard; the transactional
// methods are never reached by the paths under test.
type fakeReservationStore struct {
	activeUsers map[uint64]bool
}

func (f *fakeReservationStore) HasActiveByUser(_ context.Context, userID uint64) (bool, error) {
	return f.activeUsers[userID], nil
}

func (f *fakeReservationStore) GetByID(_ context.Context, _ uint64) (model.Reservation, error) {
	return model.Reservation{}, repository.ErrNotFound
}

func (f *fakeReservationStore) GetForUpdate(_ context.Context, _ *sql.Tx, _ uint64) (model.Reservation, error) {
	return model.Reservation{}, repository.ErrNotFound
}

func (f *fakeReservationStore) UpdateStatusTx(_ context.Context, _ *sql.Tx, _ uint64, _ string, _ *string) error {
	return nil
}

func (f *fakeReservationStore) ListAll(_ context.Context, _ string, _, _ int) ([]model.Reservation, int, error) {
	return nil, 0, nil
}

func (f *fakeReservationStore) ListHistoryByUser(_ context.Context, _ uint64) ([]model.Reservation, error) {
	return nil, nil
}

func newAdminHandlerEnv() (*AdminHandler, *fakeUserDirectory, *fakeReservationStore) {
	users := &fakeUserDirectory{users: map[uint64]model.User{
		1: {ID: 1, Email: "admin@example.com", Role: model.RoleAdmin, IsActive: true},
		9: {ID: 9, Email: "req@example.com", Role: model.RoleRequester, IsActive: true},
	}}
	res := &fakeReservationStore{activeUsers: map[uint64]bool{}}
	h := NewAdminHandler(nil, res, nil, nil, users, nil, nil, nil, nil)
	return h, users, res
}

func adminRequest(method, target, id string, admin model.User) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user", admin)
	c.SetParamNames("id")
	c.SetParamValues(id)
	return c, rec
}

func TestDeleteUserBlockedByActiveReservation(t *testing.T) {
	h, users, res := newAdminHandlerEnv()
	res.activeUsers[9] = true

	c, rec := adminRequest(http.MethodDelete, "/admin/users/9", "9", users.users[1])
	if err := h.DeleteUser(c); err != nil {
		t.Fatalf("DeleteUser() error = %v", err)
	}
	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}
	if len(users.deleted) != 0 {
		t.Errorf("account deleted despite active reservation: %v", users.deleted)
	}
}

func TestDeleteUserAfterReservationsClosed(t *testing.T) {
	h, users, _ := newAdminHandlerEnv()

	c, rec := adminRequest(http.MethodDelete, "/admin/users/9", "9", users.users[1])
	if err := h.DeleteUser(c); err != nil {
		t.Fatalf("DeleteUser() error = %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if len(users.deleted) != 1 || users.deleted[0] != 9 {
		t.Errorf("deleted ids = %v, want [9]", users.deleted)
	}
}

func TestDeleteUserCannotTargetSelf(t *testing.T) {
	h, users, _ := newAdminHandlerEnv()

	c, rec := adminRequest(http.MethodDelete, "/admin/users/1", "1", users.users[1])
	if err := h.DeleteUser(c); err != nil {
		t.Fatalf("DeleteUser() error = %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if len(users.deleted) != 0 {
		t.Errorf("admin deleted itself: %v", users.deleted)
	}
}

func TestDeleteUserUnknownID(t *testing.T) {
	h, users, _ := newAdminHandlerEnv()

	c, rec := adminRequest(http.MethodDelete, "/admin/users/404", "404", users.users[1])
	if err := h.DeleteUser(c); err != nil {
		t.Fatalf("DeleteUser() error = %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}
