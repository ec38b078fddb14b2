package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/garage-kit/shop-service/internal/api/dto"
	"github.com/garage-kit/shop-service/internal/domain"
	"github.com/garage-kit/shop-service/internal/repository"
	"github.com/garage-kit/shop-service/internal/service"
)

// AdminHandler exposes staff management endpoints, most importantly the
// role transition gate.
type AdminHandler struct {
	roles *service.RoleTransitionService
	users repository.UserRepository
}

// NewAdminHandler constructs the handler.
func NewAdminHandler(roles *service.RoleTransitionService, users repository.UserRepository) *AdminHandler {
	return &AdminHandler{roles: roles, users: users}
}

// ChangeRole handles PUT /admin/users/:id/role. Every role mutation in
// the system goes through this endpoint; there is no other write path
// for memberships.
func (h *AdminHandler) ChangeRole(c *fiber.Ctx) error {
	userID := c.Params("id")

	var req dto.RoleChangeRequest
	if err := c.BodyParser(&req); err != nil || req.Role == "" {
		return fiber.NewError(http.StatusBadRequest, "role required")
	}

	outcome, err := h.roles.Evaluate(c.UserContext(), userID, req.Role)
	if err != nil {
		return err
	}
	if outcome.Rejected() {
		return outcome.RejectionError(userID)
	}

	user, err := h.users.GetByID(c.UserContext(), userID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

// GetUser handles GET /admin/users/:id.
func (h *AdminHandler) GetUser(c *fiber.Ctx) error {
	user, err := h.users.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

// ListUsersInRole handles GET /admin/users?role=TECHNICIAN.
func (h *AdminHandler) ListUsersInRole(c *fiber.Ctx) error {
	role, ok := domain.ParseRole(c.Query("role"))
	if !ok {
		return fiber.NewError(http.StatusBadRequest, "valid role query parameter required")
	}

	users, err := h.users.ListInRole(c.UserContext(), role)
	if err != nil {
		return err
	}

	resp := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		resp = append(resp, dto.NewUserResponse(&users[i]))
	}
	return c.JSON(fiber.Map{"data": resp})
}
