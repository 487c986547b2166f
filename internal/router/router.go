package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/equip-control/internal/handler"
)

// RegisterHealth exposes the health probe.  It carries no middleware so
// load balancers can reach it without credentials.
func RegisterHealth(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth wires the public authentication surface.  The login and
// forgot-password endpoints sit behind the rate limiter because they are
// the two endpoints worth brute-forcing; logout is public on purpose so
// the handler can answer 409 for an already revoked token instead of the
// middleware's uniform 401.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, limiter echo.MiddlewareFunc) {
	g := e.Group("/auth")
	g.POST("/register", a.Register)
	g.GET("/verify-email", a.VerifyEmail)
	g.POST("/login", a.Login, limiter)
	g.POST("/login/2fa", a.LoginTwoFactor)
	g.POST("/refresh", a.Refresh)
	g.POST("/forgot-password", a.ForgotPassword, limiter)
	g.POST("/reset-password", a.ResetPassword)
	g.POST("/logout", a.Logout)
}
