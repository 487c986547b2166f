package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/equip-control/internal/repository"
)

// SectorHandler manages the sector grouping used on user accounts.
type SectorHandler struct {
	Sectors *repository.SectorRepo
	Logs    *repository.ActivityLogRepo
}

func NewSectorHandler(s *repository.SectorRepo, l *repository.ActivityLogRepo) *SectorHandler {
	return &SectorHandler{Sectors: s, Logs: l}
}

type sectorReq struct {
	Name string `json:"name"`
}

// Create adds a sector with a unique name.
func (h *SectorHandler) Create(c echo.Context) error {
	var req sectorReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name required"})
	}
	name := strings.TrimSpace(req.Name)

	ctx, cancel := reqCtx(c)
	defer cancel()

	id, err := h.Sectors.Create(ctx, name)
	if err == repository.ErrConflict {
		return c.JSON(http.StatusConflict, echo.Map{"error": "sector name already exists"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": id, "name": name})
}

// List returns all sectors.
func (h *SectorHandler) List(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	sectors, err := h.Sectors.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"sectors": sectors})
}

// Update renames a sector.
func (h *SectorHandler) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req sectorReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	switch err := h.Sectors.Rename(ctx, id, strings.TrimSpace(req.Name)); err {
	case nil:
		return c.JSON(http.StatusOK, echo.Map{"message": "sector updated"})
	case repository.ErrNotFound:
		return c.JSON(http.StatusNotFound, echo.Map{"error": "sector not found"})
	case repository.ErrConflict:
		return c.JSON(http.StatusConflict, echo.Map{"error": "sector name already exists"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
}

// Delete removes a sector that no user references.
func (h *SectorHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	switch err := h.Sectors.Delete(ctx, id); err {
	case nil:
		return c.JSON(http.StatusOK, echo.Map{"message": "sector deleted"})
	case repository.ErrNotFound:
		return c.JSON(http.StatusNotFound, echo.Map{"error": "sector not found"})
	case repository.ErrConflict:
		return c.JSON(http.StatusConflict, echo.Map{"error": "sector still has assigned users"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
}
