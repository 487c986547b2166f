package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/equip-control/internal/model"
	"github.com/iliyamo/equip-control/internal/repository"
)

// dbTimeout bounds every database call made on behalf of a request.
const dbTimeout = 5 * time.Second

// dispatchTimeout bounds each fire-and-forget publish after a commit.
const dispatchTimeout = 10 * time.Second

func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), dbTimeout)
}

// currentUser returns the account stored by the Authorize middleware.
func currentUser(c echo.Context) (model.User, bool) {
	u, ok := c.Get("user").(model.User)
	return u, ok
}

// pathID parses the :id route parameter.
func pathID(c echo.Context) (uint64, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid id %q", c.Param("id"))
	}
	return id, nil
}

// pagination reads page/per_page query parameters with sane bounds and
// returns limit plus offset.
func pagination(c echo.Context) (limit, offset int) {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	per, _ := strconv.Atoi(c.QueryParam("per_page"))
	if per < 1 || per > 100 {
		per = 20
	}
	return per, (page - 1) * per
}

// activityLogger is satisfied by repository.ActivityLogRepo.  Handlers log
// audit events through it and ignore failures.
type activityLogger interface {
	Log(ctx context.Context, userID *uint64, level, message string) error
}

// audit records an activity-log row on a best-effort basis with its own
// short-lived context so a slow audit write cannot stall the request.
func audit(logs activityLogger, userID *uint64, level, message string) {
	if logs == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
		defer cancel()
		_ = logs.Log(ctx, userID, level, message)
	}()
}

// equipmentLabel renders the human label used in emails and exports.
func equipmentLabel(t model.EquipmentType, u model.EquipmentUnit) string {
	return fmt.Sprintf("%s #%s", t.Name, u.IdentifierCode)
}

// notFoundOr maps repository.ErrNotFound to a 404 response and anything
// else to a 500.
func notFoundOr(c echo.Context, err error, what string) error {
	if err == repository.ErrNotFound {
		return c.JSON(http.StatusNotFound, echo.Map{"error": what + " not found"})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
}
