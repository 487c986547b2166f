package middleware // middleware provides reusable HTTP middleware for the API

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/equip-control/internal/model"
)

// RequireRole returns a middleware that admits only users whose role sits
// at or above the given minimum in the requester < manager < admin
// ordering.  It assumes Authorize has already stored the role in the
// context; a missing role is treated as insufficient.
func RequireRole(min model.Role) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            role, ok := c.Get("role").(model.Role)
            if !ok || !role.AtLeast(min) {
                return c.JSON(http.StatusForbidden, echo.Map{"error": "insufficient permissions"})
            }
            return next(c)
        }
    }
}
