package handler

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/equip-control/internal/model"
	"github.com/iliyamo/equip-control/internal/queue"
	"github.com/iliyamo/equip-control/internal/repository"
	"github.com/iliyamo/equip-control/internal/service"
)

// ReservationHandler serves requester-facing reservation endpoints.
type ReservationHandler struct {
	DB           *sql.DB
	Reservations *repository.ReservationRepo
	Equipment    *repository.EquipmentRepo
	Users        *repository.UserRepo
	Logs         *repository.ActivityLogRepo
	Pub          *service.Publisher
	Log          *zap.Logger
}

func NewReservationHandler(db *sql.DB, r *repository.ReservationRepo, e *repository.EquipmentRepo,
	u *repository.UserRepo, l *repository.ActivityLogRepo, p *service.Publisher, log *zap.Logger) *ReservationHandler {
	return &ReservationHandler{DB: db, Reservations: r, Equipment: e, Users: u, Logs: l, Pub: p, Log: log}
}

type createReservationReq struct {
	UnitID    uint64 `json:"unit_id"`
	StartTime string `json:"start_time"` // RFC 3339
	EndTime   string `json:"end_time"`   // RFC 3339
}

type reservationResp struct {
	ID          uint64  `json:"id"`
	UserID      uint64  `json:"user_id"`
	UnitID      uint64  `json:"unit_id"`
	StartTime   string  `json:"start_time"`
	EndTime     string  `json:"end_time"`
	Status      string  `json:"status"`
	ReturnNotes *string `json:"return_notes,omitempty"`
	CreatedAt   string  `json:"created_at"`
}

func toReservationResp(r model.Reservation) reservationResp {
	return reservationResp{
		ID:          r.ID,
		UserID:      r.UserID,
		UnitID:      r.UnitID,
		StartTime:   r.StartTime.UTC().Format(time.RFC3339),
		EndTime:     r.EndTime.UTC().Format(time.RFC3339),
		Status:      r.Status,
		ReturnNotes: r.ReturnNotes,
		CreatedAt:   r.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func toReservationList(rs []model.Reservation) []reservationResp {
	out := make([]reservationResp, 0, len(rs))
	for _, r := range rs {
		out = append(out, toReservationResp(r))
	}
	return out
}

// Create claims a unit for a time interval.  The availability check, the
// overlap check, the reservation insert and the unit status write all run
// in one transaction with the unit row locked, so two concurrent requests
// for the same unit serialize and the loser sees the winner's state.
func (h *ReservationHandler) Create(c echo.Context) error {
	u, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "could not validate credentials"})
	}
	var req createReservationReq
	if err := c.Bind(&req); err != nil || req.UnitID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unit_id, start_time and end_time required"})
	}
	start, err := time.Parse(time.RFC3339, req.StartTime)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "start_time must be RFC 3339"})
	}
	end, err := time.Parse(time.RFC3339, req.EndTime)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "end_time must be RFC 3339"})
	}
	start, end = start.UTC(), end.UTC()
	if !start.Before(end) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "start_time must be before end_time"})
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

	unit, err := h.Equipment.GetUnitForUpdate(ctx, tx, req.UnitID)
	if err == repository.ErrNotFound {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "unit not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if unit.Status != model.UnitAvailable {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unit unavailable"})
	}

	active, err := h.Reservations.ActiveForUnitTx(ctx, tx, unit.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	for _, other := range active {
		if model.IntervalsOverlap(start, end, other.StartTime, other.EndTime) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "unit already reserved for this interval"})
		}
	}

	res := model.Reservation{
		UserID:    u.ID,
		UnitID:    unit.ID,
		StartTime: start,
		EndTime:   end,
		Status:    model.ReservationPending,
	}
	if err := h.Reservations.CreateTx(ctx, tx, &res); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create failed"})
	}
	if err := h.Equipment.SetUnitStatusTx(ctx, tx, unit.ID, model.UnitPending); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "commit failed"})
	}
	committed = true

	audit(h.Logs, &u.ID, repository.LevelInfo, "reservation created")
	h.notifyCreated(u, res, unit)

	return c.JSON(http.StatusCreated, toReservationResp(res))
}

// notifyCreated enqueues the post-commit emails for a new reservation: a
// receipt to the requester and an alert to every manager and admin.  It
// runs in the background on its own context; a broker outage only costs
// the notification.
func (h *ReservationHandler) notifyCreated(u model.User, res model.Reservation, unit model.EquipmentUnit) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
		defer cancel()

		label := "unit #" + unit.IdentifierCode
		if t, err := h.Equipment.GetType(ctx, unit.TypeID); err == nil {
			label = equipmentLabel(t, unit)
		}
		start := res.StartTime.UTC().Format(time.RFC3339)
		end := res.EndTime.UTC().Format(time.RFC3339)

		_ = h.Pub.Email(ctx, queue.EmailEvent{
			Kind:          queue.KindReservationNew,
			To:            u.Email,
			Username:      u.Username,
			ReservationID: res.ID,
			Equipment:     label,
			StartsAt:      start,
			EndsAt:        end,
		})

		staff, err := h.Users.ListManagersAndAdmins(ctx)
		if err != nil {
			h.Log.Warn("list managers failed", zap.Error(err))
			return
		}
		for _, m := range staff {
			_ = h.Pub.Email(ctx, queue.EmailEvent{
				Kind:          queue.KindManagerAlert,
				To:            m.Email,
				Username:      m.Username,
				ReservationID: res.ID,
				Equipment:     label,
				StartsAt:      start,
				EndsAt:        end,
			})
		}
	}()
}

// Mine returns the caller's reservations with an optional ?status= filter
// (pending/approved/rejected/returned/overdue) and pagination.
func (h *ReservationHandler) Mine(c echo.Context) error {
	u, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "could not validate credentials"})
	}
	limit, offset := pagination(c)

	ctx, cancel := reqCtx(c)
	defer cancel()

	list, total, err := h.Reservations.ListByUser(ctx, u.ID, c.QueryParam("status"), limit, offset)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"reservations": toReservationList(list), "total": total})
}

// Upcoming returns the caller's next approved reservations.
func (h *ReservationHandler) Upcoming(c echo.Context) error {
	u, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "could not validate credentials"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	list, err := h.Reservations.ListUpcomingByUser(ctx, u.ID, 10)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"reservations": toReservationList(list)})
}
