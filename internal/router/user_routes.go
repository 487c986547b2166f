package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/equip-control/internal/handler"
	"github.com/iliyamo/equip-control/internal/middleware"
	"github.com/iliyamo/equip-control/internal/model"
)

// RegisterUser wires the self-service surface available to every
// authenticated account: profile, 2FA enrollment, calendar connection,
// read-only browsing of equipment and sectors.
func RegisterUser(e *echo.Echo, auth echo.MiddlewareFunc,
	u *handler.UserHandler, tf *handler.TwoFactorHandler,
	eq *handler.EquipmentHandler, sec *handler.SectorHandler) {

	me := e.Group("/users/me", auth)
	me.GET("", u.Me)
	me.PATCH("", u.UpdateMe)
	me.DELETE("", u.DeleteMe)
	me.POST("/2fa/setup", tf.Setup)
	me.POST("/2fa/enable", tf.Enable)
	me.POST("/2fa/disable", tf.Disable)
	me.POST("/calendar", u.ConnectCalendar)
	me.DELETE("/calendar", u.DisconnectCalendar)

	browse := e.Group("/equipment", auth)
	browse.GET("/types", eq.ListTypes)
	browse.GET("/categories", eq.ListCategories)
	browse.GET("/types/:id/units", eq.ListUnits)

	e.GET("/sectors", sec.List, auth)
}

// RegisterReservations wires the requester surface.  Creating and listing
// reservations needs at least the requester role.
func RegisterReservations(e *echo.Echo, auth echo.MiddlewareFunc, r *handler.ReservationHandler) {
	g := e.Group("/reservations", auth, middleware.RequireRole(model.RoleRequester))
	g.POST("", r.Create)
	g.GET("/my", r.Mine)
	g.GET("/upcoming", r.Upcoming)
}
