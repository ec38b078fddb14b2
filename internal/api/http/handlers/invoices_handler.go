package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/garage-kit/shop-service/internal/api/dto"
	"github.com/garage-kit/shop-service/internal/auth"
	"github.com/garage-kit/shop-service/internal/service"
)

// InvoicesHandler exposes billing endpoints.
type InvoicesHandler struct {
	billing *service.BillingService
}

// NewInvoicesHandler constructs the handler.
func NewInvoicesHandler(billing *service.BillingService) *InvoicesHandler {
	return &InvoicesHandler{billing: billing}
}

// Issue handles POST /staff/jobs/:id/invoice.
func (h *InvoicesHandler) Issue(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
	}

	var req dto.IssueInvoiceRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	lines := make([]service.InvoiceLineInput, 0, len(req.Lines))
	for _, line := range req.Lines {
		lines = append(lines, service.InvoiceLineInput{
			PartID:      line.PartID,
			Description: line.Description,
			Quantity:    line.Quantity,
			AmountCents: line.AmountCents,
		})
	}

	invoice, err := h.billing.IssueInvoice(c.UserContext(), principal.User, c.Params("id"), lines)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewInvoiceResponse(invoice)})
}

// MarkPaid handles POST /staff/invoices/:id/pay.
func (h *InvoicesHandler) MarkPaid(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
	}

	invoice, err := h.billing.MarkPaid(c.UserContext(), principal.User, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewInvoiceResponse(invoice)})
}

// Void handles POST /staff/invoices/:id/void.
func (h *InvoicesHandler) Void(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
	}

	invoice, err := h.billing.Void(c.UserContext(), principal.User, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewInvoiceResponse(invoice)})
}

// Get handles GET /invoices/:id.
func (h *InvoicesHandler) Get(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
	}

	invoice, err := h.billing.GetForActor(c.UserContext(), principal.User, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewInvoiceResponse(invoice)})
}

// ListMine handles GET /invoices for the authenticated customer.
func (h *InvoicesHandler) ListMine(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
	}

	invoices, err := h.billing.ListForCustomer(c.UserContext(), principal.User.ID,
		c.QueryInt("limit", 50), c.QueryInt("offset", 0))
	if err != nil {
		return err
	}

	resp := make([]dto.InvoiceResponse, 0, len(invoices))
	for i := range invoices {
		resp = append(resp, dto.NewInvoiceResponse(&invoices[i]))
	}
	return c.JSON(fiber.Map{"data": resp})
}
