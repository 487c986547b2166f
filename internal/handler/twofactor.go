package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/equip-control/internal/config"
	"github.com/iliyamo/equip-control/internal/repository"
	"github.com/iliyamo/equip-control/internal/utils"
)

// totpIssuer is the issuer label shown in authenticator apps.
const totpIssuer = "EquipControl"

// TwoFactorHandler manages TOTP enrollment for the logged-in user.
type TwoFactorHandler struct {
	Cfg   config.Config
	Users *repository.UserRepo
	Logs  *repository.ActivityLogRepo
}

func NewTwoFactorHandler(cfg config.Config, u *repository.UserRepo, l *repository.ActivityLogRepo) *TwoFactorHandler {
	return &TwoFactorHandler{Cfg: cfg, Users: u, Logs: l}
}

type enableTwoFactorReq struct {
	OTPCode string `json:"otp_code"`
}
type disableTwoFactorReq struct {
	Password string `json:"password"`
	OTPCode  string `json:"otp_code"`
}

// Setup generates a fresh TOTP secret, stores it disabled and returns the
// provisioning URI.  Enrollment completes only when Enable verifies a code
// generated from the secret, so an interrupted setup leaves 2FA off.
func (h *TwoFactorHandler) Setup(c echo.Context) error {
	u, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "could not validate credentials"})
	}
	if u.OTPEnabled {
		return c.JSON(http.StatusConflict, echo.Map{"error": "two-factor authentication already enabled"})
	}

	secret, uri, err := utils.NewTOTPSecret(totpIssuer, u.Email)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "generate secret failed"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Users.SetTOTP(ctx, u.ID, &secret, false); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"secret":           secret,
		"provisioning_uri": uri,
	})
}

// Enable turns the second factor on after the user proves possession of
// the enrolled secret.
func (h *TwoFactorHandler) Enable(c echo.Context) error {
	u, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "could not validate credentials"})
	}
	var req enableTwoFactorReq
	if err := c.Bind(&req); err != nil || req.OTPCode == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "otp_code required"})
	}
	if u.OTPSecret == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "run setup first"})
	}
	if u.OTPEnabled {
		return c.JSON(http.StatusConflict, echo.Map{"error": "two-factor authentication already enabled"})
	}
	if !utils.VerifyTOTP(*u.OTPSecret, req.OTPCode) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid one-time code"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Users.SetTOTP(ctx, u.ID, u.OTPSecret, true); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	audit(h.Logs, &u.ID, repository.LevelInfo, "two-factor enabled")
	return c.JSON(http.StatusOK, echo.Map{"message": "two-factor authentication enabled"})
}

// Disable removes the second factor.  It requires both the password and a
// current OTP.
func (h *TwoFactorHandler) Disable(c echo.Context) error {
	u, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "could not validate credentials"})
	}
	var req disableTwoFactorReq
	if err := c.Bind(&req); err != nil || req.Password == "" || req.OTPCode == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "password and otp_code required"})
	}
	if !u.TwoFactorReady() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "two-factor authentication is not enabled"})
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}
	if !utils.VerifyTOTP(*u.OTPSecret, req.OTPCode) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid one-time code"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Users.SetTOTP(ctx, u.ID, nil, false); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	audit(h.Logs, &u.ID, repository.LevelWarning, "two-factor disabled")
	return c.JSON(http.StatusOK, echo.Map{"message": "two-factor authentication disabled"})
}
