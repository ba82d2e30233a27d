package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/rmstudio/salon-booking/internal/model"
	"github.com/rmstudio/salon-booking/internal/repository"
)

// CatalogHandler manages the service catalog for administrators.
// Appointments keep name/price snapshots, so edits here never rewrite
// booking history.
type CatalogHandler struct {
	Services *repository.ServiceRepo
}

func NewCatalogHandler(s *repository.ServiceRepo) *CatalogHandler {
	return &CatalogHandler{Services: s}
}

type serviceReq struct {
	Name         string `json:"name"`
	PriceCents   int64  `json:"price_cents"`
	Description  string `json:"description"`
	Active       *bool  `json:"active"`
	DisplayOrder int    `json:"display_order"`
}

type adminServiceResp struct {
	ID           uint64 `json:"id"`
	Name         string `json:"name"`
	PriceCents   int64  `json:"price_cents"`
	Description  string `json:"description,omitempty"`
	Active       bool   `json:"active"`
	DisplayOrder int    `json:"display_order"`
}

func toAdminServiceResp(s *model.Service) adminServiceResp {
	return adminServiceResp{
		ID:           s.ID,
		Name:         s.Name,
		PriceCents:   s.PriceCents,
		Description:  s.Description,
		Active:       s.Active,
		DisplayOrder: s.DisplayOrder,
	}
}

// List returns the whole catalog, inactive services included.
func (h *CatalogHandler) List(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	services, err := h.Services.List(ctx, false)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]adminServiceResp, 0, len(services))
	for i := range services {
		out = append(out, toAdminServiceResp(&services[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"services": out})
}

// Create adds a catalog entry.
func (h *CatalogHandler) Create(c echo.Context) error {
	var req serviceReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Name == "" || req.PriceCents < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name and non-negative price_cents required"})
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	svc := &model.Service{
		Name:         req.Name,
		PriceCents:   req.PriceCents,
		Description:  req.Description,
		Active:       active,
		DisplayOrder: req.DisplayOrder,
	}
	if err := h.Services.Create(ctx, svc); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "service name already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create failed"})
	}
	return c.JSON(http.StatusCreated, toAdminServiceResp(svc))
}

// Update rewrites a catalog entry.  Existing appointments keep their
// snapshots.
func (h *CatalogHandler) Update(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req serviceReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Name == "" || req.PriceCents < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name and non-negative price_cents required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	svc, err := h.Services.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	svc.Name = req.Name
	svc.PriceCents = req.PriceCents
	svc.Description = req.Description
	svc.DisplayOrder = req.DisplayOrder
	if req.Active != nil {
		svc.Active = *req.Active
	}
	if err := h.Services.Update(ctx, svc); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "service name already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, toAdminServiceResp(svc))
}

// Delete removes a service.  While pending or confirmed appointments
// still reference it the answer is 409 and the caller should
// deactivate instead.
func (h *CatalogHandler) Delete(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Services.Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
		case errors.Is(err, repository.ErrConflict):
			return c.JSON(http.StatusConflict, echo.Map{"error": "service has open appointments; deactivate it instead"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
		}
	}
	return c.NoContent(http.StatusNoContent)
}

// Deactivate hides the service from new bookings.
func (h *CatalogHandler) Deactivate(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Services.Deactivate(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
