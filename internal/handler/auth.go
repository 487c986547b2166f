package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/equip-control/internal/config"
	"github.com/iliyamo/equip-control/internal/model"
	"github.com/iliyamo/equip-control/internal/queue"
	"github.com/iliyamo/equip-control/internal/repository"
	"github.com/iliyamo/equip-control/internal/service"
	"github.com/iliyamo/equip-control/internal/token"
	"github.com/iliyamo/equip-control/internal/utils"
)

// AuthHandler bundles dependencies for the authentication endpoints.
type AuthHandler struct {
	Cfg       config.Config
	Users     UserStore
	Blacklist TokenRevoker
	Sectors   SectorFinder
	Logs      *repository.ActivityLogRepo
	Pub       *service.Publisher
	Log       *zap.Logger
}

func NewAuthHandler(cfg config.Config, u UserStore, b TokenRevoker,
	s SectorFinder, l *repository.ActivityLogRepo, p *service.Publisher, log *zap.Logger) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u, Blacklist: b, Sectors: s, Logs: l, Pub: p, Log: log}
}

// ----- DTOs -----

type registerReq struct {
	Username        string  `json:"username"`
	Email           string  `json:"email"`
	Password        string  `json:"password"`
	PasswordConfirm string  `json:"password_confirm"`
	SectorID        *uint64 `json:"sector_id"`
	TermsAccepted   bool    `json:"terms_accepted"`
}
type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type twoFactorReq struct {
	TempToken string `json:"temp_token"`
	OTPCode   string `json:"otp_code"`
}
type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}
type forgotReq struct {
	Email string `json:"email"`
}
type resetReq struct {
	Token           string `json:"token"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
}

// loginResp mirrors the staged login flow.  Token fields are present only
// when the step they belong to has been reached.
type loginResp struct {
	LoginStep    string `json:"login_step"`
	AccessToken  string `json:"access_token,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TempToken    string `json:"temp_token,omitempty"`
	Message      string `json:"message,omitempty"`
}

// Login step values returned to clients.
const (
	stepCompleted            = "completed"
	stepTwoFactorRequired    = "2fa_required"
	stepVerificationRequired = "verification_required"
)

// dispatch publishes an email event after the response path no longer
// depends on it.  It runs on its own context so a slow broker cannot hold
// the request open.
func (h *AuthHandler) dispatch(ev queue.EmailEvent) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
		defer cancel()
		_ = h.Pub.Email(ctx, ev)
	}()
}

// sendVerification issues a fresh 24-hour verification token and enqueues
// the verification email.
func (h *AuthHandler) sendVerification(u model.User) {
	t, err := token.NewScoped(h.Cfg.JWTSecret, u.Email, token.ScopeEmailVerification, token.EmailVerificationTTL)
	if err != nil {
		h.Log.Error("issue verification token failed", zap.Error(err))
		return
	}
	h.dispatch(queue.EmailEvent{Kind: queue.KindVerification, To: u.Email, Username: u.Username, Token: t})
}

// issuePair mints the access+refresh pair returned by a completed login.
func (h *AuthHandler) issuePair(userID uint64) (access token.Access, refresh string, err error) {
	access, err = token.NewAccess(h.Cfg.JWTSecret, userID, h.Cfg.AccessTTLMin)
	if err != nil {
		return token.Access{}, "", err
	}
	refresh, err = token.NewRefresh(h.Cfg.JWTSecret, userID, h.Cfg.RefreshTTLDays)
	if err != nil {
		return token.Access{}, "", err
	}
	return access, refresh, nil
}

// Register creates a new inactive, unverified account and emails a
// verification link.  Re-registering an email that exists but was never
// verified resends the link instead of failing, so a lost email is
// recoverable; a verified duplicate is a conflict.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Username == "" || req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username, email and password required"})
	}
	if req.Password != req.PasswordConfirm {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "passwords do not match"})
	}
	if !req.TermsAccepted {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "terms must be accepted"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if req.SectorID != nil {
		if _, err := h.Sectors.GetByID(ctx, *req.SectorID); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown sector"})
		}
	}

	hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "hash failed"})
	}

	uid, err := h.Users.Create(ctx, req.Username, req.Email, hash, req.SectorID)
	if err == repository.ErrEmailExists {
		existing, getErr := h.Users.GetByEmail(ctx, req.Email)
		if getErr == nil && !existing.IsVerified {
			h.sendVerification(existing)
			return c.JSON(http.StatusOK, echo.Map{
				"id":      existing.ID,
				"email":   existing.Email,
				"message": "verification email resent",
			})
		}
		return c.JSON(http.StatusConflict, echo.Map{"error": "email already registered"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}

	audit(h.Logs, &uid, repository.LevelInfo, "user registered: "+req.Email)
	h.sendVerification(model.User{ID: uid, Username: req.Username, Email: req.Email})

	return c.JSON(http.StatusCreated, echo.Map{
		"id":      uid,
		"email":   req.Email,
		"message": "verification email sent",
	})
}

// VerifyEmail activates an account from the emailed token.  Verifying an
// already verified account is reported as success.
func (h *AuthHandler) VerifyEmail(c echo.Context) error {
	raw := c.QueryParam("token")
	if raw == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "token required"})
	}
	email, err := token.VerifyScoped(h.Cfg.JWTSecret, raw, token.ScopeEmailVerification)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid or expired token"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, email)
	if err != nil {
		return notFoundOr(c, err, "user")
	}
	if u.IsVerified {
		return c.JSON(http.StatusOK, echo.Map{"message": "email already verified"})
	}
	if err := h.Users.MarkVerified(ctx, u.ID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	audit(h.Logs, &u.ID, repository.LevelInfo, "email verified: "+u.Email)
	return c.JSON(http.StatusOK, echo.Map{"message": "email verified"})
}

// Login walks the staged login flow: credentials, lockout counter,
// verification, terms, optional second factor, token issue.  The failure
// message is identical for unknown email and wrong password.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email and password required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err == repository.ErrNotFound {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !u.IsActive {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "account inactive"})
	}

	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		locked := u.RecordFailedLogin(h.Cfg.LoginLimit)
		if err := h.Users.UpdateLoginState(ctx, u.ID, u.LoginAttempts, u.IsActive); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
		}
		if locked {
			audit(h.Logs, &u.ID, repository.LevelWarning, "account locked after failed logins: "+u.Email)
			h.Log.Warn("account locked", zap.Uint64("user_id", u.ID))
			return c.JSON(http.StatusForbidden, echo.Map{"error": "account disabled after too many failed attempts"})
		}
		h.Log.Info("failed login", zap.Uint64("user_id", u.ID), zap.Int("attempts", u.LoginAttempts))
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	if u.LoginAttempts > 0 {
		if err := h.Users.UpdateLoginState(ctx, u.ID, 0, true); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
		}
	}

	if !u.IsVerified {
		h.sendVerification(u)
		return c.JSON(http.StatusOK, loginResp{
			LoginStep: stepVerificationRequired,
			Message:   "email not verified; a new verification email has been sent",
		})
	}
	if !u.TermsAccepted {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "terms of use not accepted"})
	}

	if u.TwoFactorReady() {
		temp, err := token.NewScoped(h.Cfg.JWTSecret,
			strconv.FormatUint(u.ID, 10), token.ScopeTwoFactor, token.TwoFactorTTL)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue token failed"})
		}
		return c.JSON(http.StatusOK, loginResp{LoginStep: stepTwoFactorRequired, TempToken: temp})
	}

	access, refresh, err := h.issuePair(u.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue token failed"})
	}
	audit(h.Logs, &u.ID, repository.LevelInfo, "login completed: "+u.Email)
	return c.JSON(http.StatusOK, loginResp{
		LoginStep:    stepCompleted,
		AccessToken:  access.Value,
		RefreshToken: refresh,
	})
}

// LoginTwoFactor finishes a login that was paused for the second factor.
// The temp token must carry the 2FA scope and the OTP must verify against
// the stored secret.
func (h *AuthHandler) LoginTwoFactor(c echo.Context) error {
	var req twoFactorReq
	if err := c.Bind(&req); err != nil || req.TempToken == "" || req.OTPCode == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "temp_token and otp_code required"})
	}

	sub, err := token.VerifyScoped(h.Cfg.JWTSecret, req.TempToken, token.ScopeTwoFactor)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
	}
	userID, err := strconv.ParseUint(sub, 10, 64)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.GetByID(ctx, userID)
	if err != nil || !u.IsActive {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
	}
	if !u.TwoFactorReady() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "two-factor authentication is not enabled"})
	}
	if !utils.VerifyTOTP(*u.OTPSecret, req.OTPCode) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid one-time code"})
	}

	access, refresh, err := h.issuePair(u.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue token failed"})
	}
	audit(h.Logs, &u.ID, repository.LevelInfo, "login completed (2fa): "+u.Email)
	return c.JSON(http.StatusOK, loginResp{
		LoginStep:    stepCompleted,
		AccessToken:  access.Value,
		RefreshToken: refresh,
	})
}

// Refresh exchanges a refresh token for a new access+refresh pair.  The
// previous access token stays valid until it expires or is revoked.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
	}

	claims, err := token.Parse(h.Cfg.JWTSecret, strings.TrimSpace(req.RefreshToken))
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
	}
	// Scoped single-purpose tokens (verification, reset, 2FA challenge)
	// share the signing secret but must never mint a session.
	if _, scoped := claims["scope"]; scoped {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
	}
	userID, err := token.Subject(claims)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.GetByID(ctx, userID)
	if err != nil || !u.IsActive {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
	}

	access, refresh, err := h.issuePair(u.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue token failed"})
	}
	return c.JSON(http.StatusOK, loginResp{
		LoginStep:    stepCompleted,
		AccessToken:  access.Value,
		RefreshToken: refresh,
	})
}

// ForgotPassword always answers with the same message so the endpoint
// cannot be used to probe which emails exist.
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req forgotReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Email) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email required"})
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	ctx, cancel := reqCtx(c)
	defer cancel()

	if u, err := h.Users.GetByEmail(ctx, email); err == nil {
		if t, err := token.NewScoped(h.Cfg.JWTSecret, u.Email, token.ScopePasswordReset, token.PasswordResetTTL); err == nil {
			h.dispatch(queue.EmailEvent{Kind: queue.KindPasswordReset, To: u.Email, Username: u.Username, Token: t})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message": "if the address is registered, a reset link has been sent",
	})
}

// ResetPassword sets a new password from an emailed reset token.  A
// successful reset also clears the failed-login counter and reactivates a
// verified account that was locked out; resetting the password is the
// recovery path from a lockout.
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req resetReq
	if err := c.Bind(&req); err != nil || req.Token == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "token and password required"})
	}
	if req.Password != req.PasswordConfirm {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "passwords do not match"})
	}

	email, err := token.VerifyScoped(h.Cfg.JWTSecret, req.Token, token.ScopePasswordReset)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid or expired token"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, email)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid or expired token"})
	}
	hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "hash failed"})
	}
	if err := h.Users.UpdatePasswordHash(ctx, u.ID, hash); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	if u.IsVerified {
		if err := h.Users.UpdateLoginState(ctx, u.ID, 0, true); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
		}
	}
	audit(h.Logs, &u.ID, repository.LevelInfo, "password reset: "+u.Email)
	return c.JSON(http.StatusOK, echo.Map{"message": "password updated"})
}

// Logout revokes the presented access token by blacklisting its jti until
// the token's own expiry.  The route is deliberately not behind the
// authorization middleware: revoking an already revoked token must answer
// 409, which the middleware's uniform 401 would mask.
func (h *AuthHandler) Logout(c echo.Context) error {
	auth := c.Request().Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
	}
	claims, err := token.Parse(h.Cfg.JWTSecret, strings.TrimPrefix(auth, "Bearer "))
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
	}
	jti, _ := claims["jti"].(string)
	if jti == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
	}
	exp, err := token.Expiry(claims)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Blacklist.Revoke(ctx, jti, exp); err != nil {
		if err == repository.ErrConflict {
			return c.JSON(http.StatusConflict, echo.Map{"error": "token already revoked"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "revoke failed"})
	}
	if userID, err := token.Subject(claims); err == nil {
		audit(h.Logs, &userID, repository.LevelInfo, "logout")
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}

// purge loop interval for expired blacklist rows.
const blacklistPurgeInterval = time.Hour

// StartBlacklistSweep deletes expired blacklist rows on a fixed interval
// until the context is cancelled.  Without it the table grows without
// bound.
func StartBlacklistSweep(ctx context.Context, repo *repository.BlacklistRepo, log *zap.Logger) {
	t := time.NewTicker(blacklistPurgeInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			sweepCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			n, err := repo.PurgeExpired(sweepCtx)
			cancel()
			if err != nil {
				log.Warn("blacklist purge failed", zap.Error(err))
				continue
			}
			if n > 0 {
				log.Info("blacklist purged", zap.Int64("rows", n))
			}
		}
	}
}
