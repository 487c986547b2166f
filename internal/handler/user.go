package handler

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/equip-control/internal/model"
	"github.com/iliyamo/equip-control/internal/repository"
)

// UserHandler serves the logged-in user's own profile and calendar
// connection.
type UserHandler struct {
	Users        ProfileStore
	Sectors      SectorFinder
	Reservations ReservationGuard
	Calendar     *repository.CalendarTokenRepo
	Logs         *repository.ActivityLogRepo
}

func NewUserHandler(u ProfileStore, s SectorFinder,
	r ReservationGuard, cal *repository.CalendarTokenRepo, l *repository.ActivityLogRepo) *UserHandler {
	return &UserHandler{Users: u, Sectors: s, Reservations: r, Calendar: cal, Logs: l}
}

type profileResp struct {
	ID            uint64     `json:"id"`
	Username      string     `json:"username"`
	Email         string     `json:"email"`
	Role          string     `json:"role"`
	SectorID      *uint64    `json:"sector_id"`
	IsActive      bool       `json:"is_active"`
	IsVerified    bool       `json:"is_verified"`
	OTPEnabled    bool       `json:"otp_enabled"`
	TermsAccepted bool       `json:"terms_accepted"`
	CreatedAt     time.Time  `json:"created_at"`
}

type updateProfileReq struct {
	Username string  `json:"username"`
	SectorID *uint64 `json:"sector_id"`
}

type connectCalendarReq struct {
	Token json.RawMessage `json:"token"`
}

func toProfile(u model.User) profileResp {
	return profileResp{
		ID:            u.ID,
		Username:      u.Username,
		Email:         u.Email,
		Role:          u.Role.String(),
		SectorID:      u.SectorID,
		IsActive:      u.IsActive,
		IsVerified:    u.IsVerified,
		OTPEnabled:    u.OTPEnabled,
		TermsAccepted: u.TermsAccepted,
		CreatedAt:     u.CreatedAt,
	}
}

// Me returns the authenticated user's profile.
func (h *UserHandler) Me(c echo.Context) error {
	u, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "could not validate credentials"})
	}
	return c.JSON(http.StatusOK, toProfile(u))
}

// UpdateMe changes the username and sector association.
func (h *UserHandler) UpdateMe(c echo.Context) error {
	u, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "could not validate credentials"})
	}
	var req updateProfileReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if req.SectorID != nil {
		if _, err := h.Sectors.GetByID(ctx, *req.SectorID); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown sector"})
		}
	}
	if err := h.Users.UpdateProfile(ctx, u.ID, req.Username, req.SectorID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	u.Username = req.Username
	u.SectorID = req.SectorID
	return c.JSON(http.StatusOK, toProfile(u))
}

// DeleteMe removes the account unless a pending or approved reservation
// still references it.
func (h *UserHandler) DeleteMe(c echo.Context) error {
	u, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "could not validate credentials"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	active, err := h.Reservations.HasActiveByUser(ctx, u.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if active {
		return c.JSON(http.StatusConflict, echo.Map{"error": "account has active reservations"})
	}
	if err := h.Users.Delete(ctx, u.ID); err != nil {
		return notFoundOr(c, err, "user")
	}
	audit(h.Logs, nil, repository.LevelInfo, "account deleted: "+u.Email)
	return c.JSON(http.StatusOK, echo.Map{"message": "account deleted"})
}

// ConnectCalendar stores an external calendar credential for the user.
// The credential is kept as an opaque JSON blob.
func (h *UserHandler) ConnectCalendar(c echo.Context) error {
	u, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "could not validate credentials"})
	}
	var req connectCalendarReq
	if err := c.Bind(&req); err != nil || len(req.Token) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "token required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Calendar.Save(ctx, u.ID, string(req.Token)); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save failed"})
	}
	audit(h.Logs, &u.ID, repository.LevelInfo, "calendar connected")
	return c.JSON(http.StatusOK, echo.Map{"message": "calendar connected"})
}

// DisconnectCalendar drops the stored calendar credential.
func (h *UserHandler) DisconnectCalendar(c echo.Context) error {
	u, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "could not validate credentials"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Calendar.Delete(ctx, u.ID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	audit(h.Logs, &u.ID, repository.LevelInfo, "calendar disconnected")
	return c.JSON(http.StatusOK, echo.Map{"message": "calendar disconnected"})
}
