package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/equip-control/internal/model"
	"github.com/iliyamo/equip-control/internal/repository"
)

// EquipmentHandler manages equipment types, physical units and the unit
// audit trail.
type EquipmentHandler struct {
	Equipment *repository.EquipmentRepo
	History   *repository.UnitHistoryRepo
	Logs      *repository.ActivityLogRepo
}

func NewEquipmentHandler(e *repository.EquipmentRepo, h *repository.UnitHistoryRepo, l *repository.ActivityLogRepo) *EquipmentHandler {
	return &EquipmentHandler{Equipment: e, History: h, Logs: l}
}

type typeReq struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Category    string  `json:"category"`
}
type unitReq struct {
	TypeID         uint64 `json:"type_id"`
	IdentifierCode string `json:"identifier_code"`
	SerialNumber   string `json:"serial_number"`
}

type typeStatsResp struct {
	ID               uint64  `json:"id"`
	Name             string  `json:"name"`
	Description      *string `json:"description"`
	Category         string  `json:"category"`
	TotalUnits       int     `json:"total_units"`
	AvailableUnits   int     `json:"available_units"`
	ReservedUnits    int     `json:"reserved_units"`
	MaintenanceUnits int     `json:"maintenance_units"`
}

// ----- equipment types -----

// CreateType adds an equipment type.
func (h *EquipmentHandler) CreateType(c echo.Context) error {
	var req typeReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Category = strings.TrimSpace(req.Category)
	if req.Name == "" || req.Category == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name and category required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	id, err := h.Equipment.CreateType(ctx, req.Name, req.Description, req.Category)
	if err == repository.ErrConflict {
		return c.JSON(http.StatusConflict, echo.Map{"error": "type name already exists"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": id, "name": req.Name, "category": req.Category})
}

// ListTypes returns a page of types with per-status unit counts.  Supports
// ?search=, ?category= and pagination.
func (h *EquipmentHandler) ListTypes(c echo.Context) error {
	limit, offset := pagination(c)

	ctx, cancel := reqCtx(c)
	defer cancel()

	stats, total, err := h.Equipment.ListTypeStats(ctx, c.QueryParam("search"), c.QueryParam("category"), limit, offset)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]typeStatsResp, 0, len(stats))
	for _, st := range stats {
		out = append(out, typeStatsResp{
			ID:               st.Type.ID,
			Name:             st.Type.Name,
			Description:      st.Type.Description,
			Category:         st.Type.Category,
			TotalUnits:       st.TotalUnits,
			AvailableUnits:   st.AvailableUnits,
			ReservedUnits:    st.ReservedUnits,
			MaintenanceUnits: st.MaintenanceUnits,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"types": out, "total": total})
}

// ListCategories returns the distinct categories in use.
func (h *EquipmentHandler) ListCategories(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	cats, err := h.Equipment.ListCategories(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"categories": cats})
}

// UpdateType edits a type's name, description and category.
func (h *EquipmentHandler) UpdateType(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req typeReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Category = strings.TrimSpace(req.Category)
	if req.Name == "" || req.Category == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name and category required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	switch err := h.Equipment.UpdateType(ctx, id, req.Name, req.Description, req.Category); err {
	case nil:
		return c.JSON(http.StatusOK, echo.Map{"message": "type updated"})
	case repository.ErrNotFound:
		return c.JSON(http.StatusNotFound, echo.Map{"error": "type not found"})
	case repository.ErrConflict:
		return c.JSON(http.StatusConflict, echo.Map{"error": "type name already exists"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
}

// DeleteType removes a type and its units when none of them is under an
// active reservation.
func (h *EquipmentHandler) DeleteType(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	switch err := h.Equipment.DeleteType(ctx, id); err {
	case nil:
		return c.JSON(http.StatusOK, echo.Map{"message": "type deleted"})
	case repository.ErrNotFound:
		return c.JSON(http.StatusNotFound, echo.Map{"error": "type not found"})
	case repository.ErrConflict:
		return c.JSON(http.StatusConflict, echo.Map{"error": "type has units with active reservations"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
}

// ----- equipment units -----

// CreateUnit adds a physical unit in available status and records the
// created event in the unit's history.
func (h *EquipmentHandler) CreateUnit(c echo.Context) error {
	u, _ := currentUser(c)
	var req unitReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.IdentifierCode = strings.TrimSpace(req.IdentifierCode)
	req.SerialNumber = strings.TrimSpace(req.SerialNumber)
	if req.TypeID == 0 || req.IdentifierCode == "" || req.SerialNumber == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "type_id, identifier_code and serial_number required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if _, err := h.Equipment.GetType(ctx, req.TypeID); err != nil {
		return notFoundOr(c, err, "type")
	}
	id, err := h.Equipment.CreateUnit(ctx, req.TypeID, req.IdentifierCode, req.SerialNumber)
	if err == repository.ErrConflict {
		return c.JSON(http.StatusConflict, echo.Map{"error": "identifier code or serial number already exists"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create failed"})
	}
	_ = h.History.Append(ctx, model.UnitHistory{
		UnitID:    id,
		EventType: model.HistoryCreated,
		Notes:     "unit registered",
		UserID:    &u.ID,
	})
	return c.JSON(http.StatusCreated, echo.Map{
		"id":              id,
		"type_id":         req.TypeID,
		"identifier_code": req.IdentifierCode,
		"serial_number":   req.SerialNumber,
		"status":          model.UnitAvailable,
	})
}

// ListUnits returns the units of one type.
func (h *EquipmentHandler) ListUnits(c echo.Context) error {
	typeID, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if _, err := h.Equipment.GetType(ctx, typeID); err != nil {
		return notFoundOr(c, err, "type")
	}
	units, err := h.Equipment.ListUnitsByType(ctx, typeID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"units": units})
}

// UpdateUnit edits a unit's identifier code and serial number.
func (h *EquipmentHandler) UpdateUnit(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req unitReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.IdentifierCode = strings.TrimSpace(req.IdentifierCode)
	req.SerialNumber = strings.TrimSpace(req.SerialNumber)
	if req.IdentifierCode == "" || req.SerialNumber == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "identifier_code and serial_number required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	switch err := h.Equipment.UpdateUnit(ctx, id, req.IdentifierCode, req.SerialNumber); err {
	case nil:
		return c.JSON(http.StatusOK, echo.Map{"message": "unit updated"})
	case repository.ErrNotFound:
		return c.JSON(http.StatusNotFound, echo.Map{"error": "unit not found"})
	case repository.ErrConflict:
		return c.JSON(http.StatusConflict, echo.Map{"error": "identifier code or serial number already exists"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
}

// DeleteUnit removes a unit that has no active reservation.
func (h *EquipmentHandler) DeleteUnit(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	switch err := h.Equipment.DeleteUnit(ctx, id); err {
	case nil:
		return c.JSON(http.StatusOK, echo.Map{"message": "unit deleted"})
	case repository.ErrNotFound:
		return c.JSON(http.StatusNotFound, echo.Map{"error": "unit not found"})
	case repository.ErrConflict:
		return c.JSON(http.StatusConflict, echo.Map{"error": "unit has active reservations"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
}

// UnitHistory returns a unit's audit trail, newest first.
func (h *EquipmentHandler) UnitHistory(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if _, err := h.Equipment.GetUnit(ctx, id); err != nil {
		return notFoundOr(c, err, "unit")
	}
	events, err := h.History.ListByUnit(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"history": events})
}
