package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/garage-kit/shop-service/internal/api/dto"
	"github.com/garage-kit/shop-service/internal/auth"
	"github.com/garage-kit/shop-service/internal/repository"
	"github.com/garage-kit/shop-service/internal/service"
)

// InventoryHandler exposes category and part endpoints.
type InventoryHandler struct {
	inventory *service.InventoryService
}

// NewInventoryHandler constructs the handler.
func NewInventoryHandler(inventory *service.InventoryService) *InventoryHandler {
	return &InventoryHandler{inventory: inventory}
}

// CreateCategory handles POST /staff/categories.
func (h *InventoryHandler) CreateCategory(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
	}

	var req dto.CreateCategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	category, err := h.inventory.CreateCategory(c.UserContext(), principal.User, req.Name, req.Description)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewCategoryResponse(category)})
}

// UpdateCategory handles PUT /staff/categories/:id.
func (h *InventoryHandler) UpdateCategory(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
	}

	var req dto.UpdateCategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	category, err := h.inventory.GetCategory(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	if req.Name != "" {
		category.Name = req.Name
	}
	if req.Description != "" {
		category.Description = req.Description
	}
	if req.IsActive != nil {
		category.IsActive = *req.IsActive
	}

	updated, err := h.inventory.UpdateCategory(c.UserContext(), principal.User, category)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewCategoryResponse(updated)})
}

// ListCategories handles GET /categories.
func (h *InventoryHandler) ListCategories(c *fiber.Ctx) error {
	includeInactive := c.QueryBool("include_inactive", false)
	categories, err := h.inventory.ListCategories(c.UserContext(), includeInactive)
	if err != nil {
		return err
	}
	resp := make([]dto.CategoryResponse, 0, len(categories))
	for i := range categories {
		resp = append(resp, dto.NewCategoryResponse(&categories[i]))
	}
	return c.JSON(fiber.Map{"data": resp})
}

// CreatePart handles POST /staff/parts.
func (h *InventoryHandler) CreatePart(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
	}

	var req dto.CreatePartRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	part, err := h.inventory.CreatePart(c.UserContext(), principal.User, service.PartInput{
		CategoryID:     req.CategoryID,
		Name:           req.Name,
		SKU:            req.SKU,
		UnitPriceCents: req.UnitPriceCents,
		StockQty:       req.StockQty,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewPartResponse(part)})
}

// ListParts handles GET /parts.
func (h *InventoryHandler) ListParts(c *fiber.Ctx) error {
	filter := repository.PartFilter{
		Limit:  c.QueryInt("limit", 50),
		Offset: c.QueryInt("offset", 0),
	}
	if v := c.Query("category_id"); v != "" {
		filter.CategoryID = &v
	}
	if v := c.Query("q"); v != "" {
		filter.SearchTerm = &v
	}

	parts, err := h.inventory.ListParts(c.UserContext(), filter)
	if err != nil {
		return err
	}
	resp := make([]dto.PartResponse, 0, len(parts))
	for i := range parts {
		resp = append(resp, dto.NewPartResponse(&parts[i]))
	}
	return c.JSON(fiber.Map{"data": resp})
}

// AdjustStock handles POST /staff/parts/:id/stock.
func (h *InventoryHandler) AdjustStock(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
	}

	var req dto.StockAdjustRequest
	if err := c.BodyParser(&req); err != nil || req.Delta == 0 {
		return fiber.NewError(http.StatusBadRequest, "non-zero delta required")
	}

	part, err := h.inventory.AdjustStock(c.UserContext(), principal.User, c.Params("id"), req.Delta)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewPartResponse(part)})
}
