package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/garage-kit/shop-service/internal/api/dto"
	"github.com/garage-kit/shop-service/internal/auth"
	"github.com/garage-kit/shop-service/internal/domain"
	"github.com/garage-kit/shop-service/internal/repository"
	"github.com/garage-kit/shop-service/internal/service"
)

// JobsHandler exposes service job endpoints.
type JobsHandler struct {
	jobs *service.JobService
}

// NewJobsHandler constructs the handler.
func NewJobsHandler(jobs *service.JobService) *JobsHandler {
	return &JobsHandler{jobs: jobs}
}

// Create handles POST /jobs (customer opens a service request).
func (h *JobsHandler) Create(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
	}

	var req dto.CreateJobRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	job, err := h.jobs.CreateRequest(c.UserContext(), principal.User, service.JobCreateInput{
		VehicleID:   req.VehicleID,
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewJobResponse(job)})
}

// Get handles GET /jobs/:id.
func (h *JobsHandler) Get(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
	}

	job, err := h.jobs.GetForActor(c.UserContext(), principal.User, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewJobResponse(job)})
}

// ListMine handles GET /jobs (customer: own requests; technician: own queue).
func (h *JobsHandler) ListMine(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
	}
	limit := c.QueryInt("limit", 50)
	offset := c.QueryInt("offset", 0)

	if principal.User.HasRole(domain.RoleTechnician) {
		jobs, err := h.jobs.ListForTechnician(c.UserContext(), principal.User.ID, parseStatuses(c.Query("status")), limit, offset)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"data": dto.NewJobResponses(jobs)})
	}

	jobs, err := h.jobs.ListForCustomer(c.UserContext(), principal.User.ID, limit, offset)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewJobResponses(jobs)})
}

// Search handles GET /staff/jobs for managers and the admin.
func (h *JobsHandler) Search(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
	}

	filter := repository.JobFilter{
		Statuses: parseStatuses(c.Query("status")),
		Limit:    c.QueryInt("limit", 50),
		Offset:   c.QueryInt("offset", 0),
	}
	if v := c.Query("technician_id"); v != "" {
		filter.TechnicianID = &v
	}
	if v := c.Query("customer_id"); v != "" {
		filter.CustomerID = &v
	}
	if v := c.Query("q"); v != "" {
		filter.SearchTerm = &v
	}

	jobs, err := h.jobs.Search(c.UserContext(), principal.User, filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewJobResponses(jobs)})
}

// Assign handles POST /staff/jobs/:id/assign.
func (h *JobsHandler) Assign(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
	}

	var req dto.AssignJobRequest
	if err := c.BodyParser(&req); err != nil || req.TechnicianID == "" {
		return fiber.NewError(http.StatusBadRequest, "technician_id required")
	}

	job, err := h.jobs.Assign(c.UserContext(), principal.User, c.Params("id"), req.TechnicianID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewJobResponse(job)})
}

// Start handles POST /jobs/:id/start.
func (h *JobsHandler) Start(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
	}

	job, err := h.jobs.Start(c.UserContext(), principal.User, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewJobResponse(job)})
}

// Complete handles POST /jobs/:id/complete.
func (h *JobsHandler) Complete(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
	}

	var req dto.JobCommentRequest
	_ = c.BodyParser(&req)

	job, err := h.jobs.Complete(c.UserContext(), principal.User, c.Params("id"), req.Comment)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewJobResponse(job)})
}

// Cancel handles POST /jobs/:id/cancel.
func (h *JobsHandler) Cancel(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
	}

	var req dto.JobCommentRequest
	_ = c.BodyParser(&req)

	job, err := h.jobs.Cancel(c.UserContext(), principal.User, c.Params("id"), req.Comment)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewJobResponse(job)})
}

func parseStatuses(raw string) []domain.JobStatus {
	if raw == "" {
		return nil
	}
	var statuses []domain.JobStatus
	for _, part := range strings.Split(raw, ",") {
		status := domain.JobStatus(strings.ToUpper(strings.TrimSpace(part)))
		switch status {
		case domain.JobStatusRequested, domain.JobStatusAssigned, domain.JobStatusInProgress,
			domain.JobStatusCompleted, domain.JobStatusCancelled:
			statuses = append(statuses, status)
		}
	}
	return statuses
}
