package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/equip-control/internal/handler"
	"github.com/iliyamo/equip-control/internal/middleware"
	"github.com/iliyamo/equip-control/internal/model"
)

// RegisterManager wires the review surface shared by managers and admins:
// reservation transitions, overdue reminders and inventory maintenance.
func RegisterManager(e *echo.Echo, auth echo.MiddlewareFunc,
	adm *handler.AdminHandler, eq *handler.EquipmentHandler) {

	manager := middleware.RequireRole(model.RoleManager)

	res := e.Group("/admin/reservations", auth, manager)
	res.GET("", adm.ListReservations)
	res.PATCH("/:id", adm.UpdateReservationStatus)
	res.POST("/:id/notify-overdue", adm.NotifyOverdue)

	inv := e.Group("/equipment", auth, manager)
	inv.POST("/types", eq.CreateType)
	inv.PATCH("/types/:id", eq.UpdateType)
	inv.DELETE("/types/:id", eq.DeleteType)
	inv.POST("/units", eq.CreateUnit)
	inv.PATCH("/units/:id", eq.UpdateUnit)
	inv.DELETE("/units/:id", eq.DeleteUnit)
	inv.GET("/units/:id/history", eq.UnitHistory)
}

// RegisterAdmin wires the account and sector administration surface,
// restricted to the admin role exactly.
func RegisterAdmin(e *echo.Echo, auth echo.MiddlewareFunc,
	adm *handler.AdminHandler, sec *handler.SectorHandler) {

	admin := middleware.RequireRole(model.RoleAdmin)

	users := e.Group("/admin/users", auth, admin)
	users.GET("", adm.ListUsers)
	users.GET("/:id/history", adm.UserHistory)
	users.DELETE("/:id", adm.DeleteUser)
	users.PATCH("/:id/role", adm.SetRole)
	users.PATCH("/:id/status", adm.SetStatus)
	users.PATCH("/:id/sector", adm.SetSector)

	sectors := e.Group("/sectors", auth, admin)
	sectors.POST("", sec.Create)
	sectors.PATCH("/:id", sec.Update)
	sectors.DELETE("/:id", sec.Delete)
}
