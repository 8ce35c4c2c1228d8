package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/denisCazz/visitreport-service/internal/api/dto"
	"github.com/denisCazz/visitreport-service/internal/auth"
	"github.com/denisCazz/visitreport-service/internal/domain"
	"github.com/denisCazz/visitreport-service/internal/service"
	apperrors "github.com/denisCazz/visitreport-service/pkg/util"
)

// VisitsHandler exposes visit-report CRUD endpoints.
type VisitsHandler struct {
	visits *service.VisitService
}

// NewVisitsHandler constructs handler.
func NewVisitsHandler(visits *service.VisitService) *VisitsHandler {
	return &VisitsHandler{visits: visits}
}

// Create handles POST /api/visits.
func (h *VisitsHandler) Create(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	var req dto.VisitCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	in := service.CreateInput{
		CustomerName: req.CustomerName,
		Site:         req.Site,
		Summary:      req.Summary,
	}
	if req.VisitedAt != nil {
		in.VisitedAt = *req.VisitedAt
	}

	report, err := h.visits.Create(c.Context(), identity, in)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewVisitResponse(report)})
}

// List handles GET /api/visits.
func (h *VisitsHandler) List(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	reports, err := h.visits.List(c.Context(), identity, c.QueryInt("limit"), c.QueryInt("offset"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewVisitListResponse(reports)})
}

// Search handles GET /api/visits/search.
func (h *VisitsHandler) Search(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	reports, err := h.visits.Search(c.Context(), identity, c.Query("q"), c.QueryInt("limit"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewVisitListResponse(reports)})
}

// Get handles GET /api/visits/:id.
func (h *VisitsHandler) Get(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	report, err := h.visits.Get(c.Context(), identity, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewVisitResponse(report)})
}

// Update handles PUT /api/visits/:id.
func (h *VisitsHandler) Update(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	var req dto.VisitUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	in := service.UpdateInput{
		CustomerName: req.CustomerName,
		Site:         req.Site,
		Summary:      req.Summary,
		Status:       domain.VisitStatus(req.Status),
	}
	if req.VisitedAt != nil {
		in.VisitedAt = *req.VisitedAt
	}

	report, err := h.visits.Update(c.Context(), identity, c.Params("id"), in)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewVisitResponse(report)})
}

// Delete handles DELETE /api/admin/visits/:id.
func (h *VisitsHandler) Delete(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	if err := h.visits.Delete(c.Context(), identity, c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true})
}
