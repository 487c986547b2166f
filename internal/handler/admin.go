package handler

import (
	"context"
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/equip-control/internal/model"
	"github.com/iliyamo/equip-control/internal/queue"
	"github.com/iliyamo/equip-control/internal/repository"
	"github.com/iliyamo/equip-control/internal/service"
)

// AdminHandler serves the manager and admin surface: reservation review,
// user administration, overdue reminders.
type AdminHandler struct {
	DB           *sql.DB
	Reservations ReservationStore
	Equipment    *repository.EquipmentRepo
	History      *repository.UnitHistoryRepo
	Users        UserDirectory
	Calendar     *repository.CalendarTokenRepo
	Logs         *repository.ActivityLogRepo
	Pub          *service.Publisher
	Log          *zap.Logger
}

func NewAdminHandler(db *sql.DB, r ReservationStore, e *repository.EquipmentRepo,
	hist *repository.UnitHistoryRepo, u UserDirectory, cal *repository.CalendarTokenRepo,
	l *repository.ActivityLogRepo, p *service.Publisher, log *zap.Logger) *AdminHandler {
	return &AdminHandler{DB: db, Reservations: r, Equipment: e, History: hist, Users: u,
		Calendar: cal, Logs: l, Pub: p, Log: log}
}

type updateReservationReq struct {
	Status       string  `json:"status"`        // approved | rejected | returned
	ReturnStatus string  `json:"return_status"` // ok | maintenance, with status=returned
	ReturnNotes  *string `json:"return_notes"`
}
type setRoleReq struct {
	Role string `json:"role"`
}
type setStatusReq struct {
	IsActive bool `json:"is_active"`
}
type setSectorReq struct {
	SectorID *uint64 `json:"sector_id"`
}

// ListReservations returns every reservation, filterable by ?status=
// including the virtual "overdue" filter.
func (h *AdminHandler) ListReservations(c echo.Context) error {
	limit, offset := pagination(c)

	ctx, cancel := reqCtx(c)
	defer cancel()

	list, total, err := h.Reservations.ListAll(ctx, c.QueryParam("status"), limit, offset)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"reservations": toReservationList(list), "total": total})
}

// UpdateReservationStatus applies a lifecycle transition.  The legal edges
// are pending→approved, pending→rejected and approved→returned; anything
// else answers 409.  The reservation row, the unit status and the return
// history row all commit in one transaction with both rows locked.
func (h *AdminHandler) UpdateReservationStatus(c echo.Context) error {
	manager, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "could not validate credentials"})
	}
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req updateReservationReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	switch req.Status {
	case model.ReservationApproved, model.ReservationRejected, model.ReservationReturned:
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "status must be approved, rejected or returned"})
	}
	unitStatus, valid := model.UnitStatusAfter(req.Status, req.ReturnStatus)
	if !valid {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "return_status must be ok or maintenance"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	tx, err := h.DB.BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "begin tx failed"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := h.Reservations.GetForUpdate(ctx, tx, id)
	if err == repository.ErrNotFound {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !model.CanTransition(res.Status, req.Status) {
		return c.JSON(http.StatusConflict, echo.Map{
			"error": "cannot move reservation from " + res.Status + " to " + req.Status,
		})
	}

	unit, err := h.Equipment.GetUnitForUpdate(ctx, tx, res.UnitID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if err := h.Equipment.SetUnitStatusTx(ctx, tx, unit.ID, unitStatus); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}

	var notes *string
	if req.Status == model.ReservationReturned {
		notes = req.ReturnNotes
	}
	if err := h.Reservations.UpdateStatusTx(ctx, tx, res.ID, req.Status, notes); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}

	if req.Status == model.ReservationReturned {
		event := model.HistoryReturnedOK
		if req.ReturnStatus == model.ReturnMaintenance {
			event = model.HistoryMaintenanceSent
		}
		noteText := ""
		if notes != nil {
			noteText = *notes
		}
		if err := h.History.AppendTx(ctx, tx, model.UnitHistory{
			UnitID:        unit.ID,
			EventType:     event,
			Notes:         noteText,
			UserID:        &manager.ID,
			ReservationID: &res.ID,
		}); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
		}
	}

	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "commit failed"})
	}
	committed = true

	audit(h.Logs, &manager.ID, repository.LevelInfo,
		"reservation "+req.Status+": "+c.Param("id"))
	h.notifyTransition(res, unit, req.Status, req.ReturnNotes)

	res.Status = req.Status
	res.ReturnNotes = notes
	return c.JSON(http.StatusOK, toReservationResp(res))
}

// notifyTransition enqueues the post-commit side effects of a transition:
// a status email to the requester, and for approvals a calendar export
// when the requester has connected a calendar.
func (h *AdminHandler) notifyTransition(res model.Reservation, unit model.EquipmentUnit, newStatus string, notes *string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
		defer cancel()

		owner, err := h.Users.GetByID(ctx, res.UserID)
		if err != nil {
			h.Log.Warn("load reservation owner failed", zap.Uint64("user_id", res.UserID), zap.Error(err))
			return
		}
		label := "unit #" + unit.IdentifierCode
		if t, err := h.Equipment.GetType(ctx, unit.TypeID); err == nil {
			label = equipmentLabel(t, unit)
		}

		ev := queue.EmailEvent{
			To:            owner.Email,
			Username:      owner.Username,
			ReservationID: res.ID,
			Equipment:     label,
			StartsAt:      res.StartTime.UTC().Format(time.RFC3339),
			EndsAt:        res.EndTime.UTC().Format(time.RFC3339),
			Status:        newStatus,
		}
		if notes != nil {
			ev.Notes = *notes
		}
		if newStatus == model.ReservationReturned {
			ev.Kind = queue.KindReturnReceipt
		} else {
			ev.Kind = queue.KindStatusChange
		}
		_ = h.Pub.Email(ctx, ev)

		if newStatus != model.ReservationApproved {
			return
		}
		if _, err := h.Calendar.Get(ctx, owner.ID); err != nil {
			if err == repository.ErrNotFound {
				h.Log.Info("no calendar connected, skipping export", zap.Uint64("user_id", owner.ID))
			} else {
				h.Log.Warn("calendar token lookup failed", zap.Error(err))
			}
			return
		}
		_ = h.Pub.Calendar(ctx, queue.CalendarEvent{
			ReservationID: res.ID,
			UserID:        owner.ID,
			UserEmail:     owner.Email,
			Equipment:     label,
			StartsAt:      res.StartTime.UTC().Format(time.RFC3339),
			EndsAt:        res.EndTime.UTC().Format(time.RFC3339),
		})
	}()
}

// NotifyOverdue sends a reminder for an approved reservation whose end
// time has passed.  It never mutates reservation or unit state.
func (h *AdminHandler) NotifyOverdue(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	res, err := h.Reservations.GetByID(ctx, id)
	if err != nil {
		return notFoundOr(c, err, "reservation")
	}
	if !res.Overdue(time.Now().UTC()) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "reservation is not overdue"})
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
		defer cancel()

		owner, err := h.Users.GetByID(ctx, res.UserID)
		if err != nil {
			h.Log.Warn("load reservation owner failed", zap.Uint64("user_id", res.UserID), zap.Error(err))
			return
		}
		label := ""
		if unit, err := h.Equipment.GetUnit(ctx, res.UnitID); err == nil {
			label = "unit #" + unit.IdentifierCode
			if t, err := h.Equipment.GetType(ctx, unit.TypeID); err == nil {
				label = equipmentLabel(t, unit)
			}
		}
		_ = h.Pub.Email(ctx, queue.EmailEvent{
			Kind:          queue.KindOverdueReminder,
			To:            owner.Email,
			Username:      owner.Username,
			ReservationID: res.ID,
			Equipment:     label,
			EndsAt:        res.EndTime.UTC().Format(time.RFC3339),
		})
	}()

	return c.JSON(http.StatusOK, echo.Map{"message": "overdue reminder queued"})
}

// ----- user administration -----

// ListUsers returns a filtered page of accounts.  Filters: ?search= on
// username/email, ?role=, ?sector_id=, ?is_active=.
func (h *AdminHandler) ListUsers(c echo.Context) error {
	limit, offset := pagination(c)

	var role *model.Role
	if s := c.QueryParam("role"); s != "" {
		r, ok := model.ParseRole(s)
		if !ok {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown role"})
		}
		role = &r
	}
	var sectorID *uint64
	if s := c.QueryParam("sector_id"); s != "" {
		v, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid sector_id"})
		}
		sectorID = &v
	}
	var active *bool
	switch c.QueryParam("is_active") {
	case "true":
		t := true
		active = &t
	case "false":
		f := false
		active = &f
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	users, total, err := h.Users.List(ctx, c.QueryParam("search"), role, sectorID, active, limit, offset)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]profileResp, 0, len(users))
	for _, u := range users {
		out = append(out, toProfile(u))
	}
	return c.JSON(http.StatusOK, echo.Map{"users": out, "total": total})
}

// UserHistory returns the full reservation history of one account.
func (h *AdminHandler) UserHistory(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if _, err := h.Users.GetByID(ctx, id); err != nil {
		return notFoundOr(c, err, "user")
	}
	list, err := h.Reservations.ListHistoryByUser(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"reservations": toReservationList(list)})
}

// DeleteUser removes an account.  Admins cannot delete themselves, and an
// account with a pending or approved reservation is protected.
func (h *AdminHandler) DeleteUser(c echo.Context) error {
	admin, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "could not validate credentials"})
	}
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if id == admin.ID {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cannot delete your own account"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	active, err := h.Reservations.HasActiveByUser(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if active {
		return c.JSON(http.StatusConflict, echo.Map{"error": "user has active reservations"})
	}
	if err := h.Users.Delete(ctx, id); err != nil {
		return notFoundOr(c, err, "user")
	}
	audit(h.Logs, &admin.ID, repository.LevelWarning, "user deleted: "+c.Param("id"))
	return c.JSON(http.StatusOK, echo.Map{"message": "user deleted"})
}

// SetRole changes an account's permission level.
func (h *AdminHandler) SetRole(c echo.Context) error {
	admin, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "could not validate credentials"})
	}
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req setRoleReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	role, valid := model.ParseRole(req.Role)
	if !valid {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "role must be user, requester, manager or admin"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Users.SetRole(ctx, id, role); err != nil {
		return notFoundOr(c, err, "user")
	}
	audit(h.Logs, &admin.ID, repository.LevelInfo, "role changed to "+role.String()+" for user "+c.Param("id"))
	return c.JSON(http.StatusOK, echo.Map{"message": "role updated"})
}

// SetStatus activates or deactivates an account.
func (h *AdminHandler) SetStatus(c echo.Context) error {
	admin, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "could not validate credentials"})
	}
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req setStatusReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Users.SetActive(ctx, id, req.IsActive); err != nil {
		return notFoundOr(c, err, "user")
	}
	audit(h.Logs, &admin.ID, repository.LevelInfo, "active flag changed for user "+c.Param("id"))
	return c.JSON(http.StatusOK, echo.Map{"message": "status updated"})
}

// SetSector assigns or clears an account's sector.
func (h *AdminHandler) SetSector(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req setSectorReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Users.SetSector(ctx, id, req.SectorID); err != nil {
		return notFoundOr(c, err, "user")
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "sector updated"})
}
