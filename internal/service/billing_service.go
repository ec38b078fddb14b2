package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/garage-kit/shop-service/internal/domain"
	"github.com/garage-kit/shop-service/internal/events"
	"github.com/garage-kit/shop-service/internal/repository"
	apperrors "github.com/garage-kit/shop-service/pkg/util/errorutil"
)

// BillingService issues invoices for completed jobs.
type BillingService struct {
	invoices   repository.InvoiceRepository
	jobs       repository.JobRepository
	parts      repository.PartRepository
	dispatcher events.Dispatcher
}

// BillingDependencies bundles repositories.
type BillingDependencies struct {
	InvoiceRepo repository.InvoiceRepository
	JobRepo     repository.JobRepository
	PartRepo    repository.PartRepository
	Dispatcher  events.Dispatcher
}

// InvoiceLineInput describes one requested charge.
type InvoiceLineInput struct {
	PartID      *string
	Description string
	Quantity    int
	AmountCents int64 // labor lines only; part lines price from inventory
}

// NewBillingService constructs the service.
func NewBillingService(deps BillingDependencies) *BillingService {
	return &BillingService{
		invoices:   deps.InvoiceRepo,
		jobs:       deps.JobRepo,
		parts:      deps.PartRepo,
		dispatcher: deps.Dispatcher,
	}
}

// IssueInvoice bills a COMPLETED job. Part lines are priced from current
// inventory and decrement stock in the same transaction as the insert.
func (s *BillingService) IssueInvoice(ctx context.Context, actor *domain.User, jobID string, lines []InvoiceLineInput) (*domain.Invoice, error) {
	if err := requireManager(actor); err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, apperrors.NewValidationError("at least one line required", nil)
	}

	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("job", map[string]any{"job_id": jobID})
		}
		return nil, apperrors.MapError(err)
	}
	if job.Status != domain.JobStatusCompleted {
		return nil, apperrors.NewConflict("job not completed", map[string]any{
			"job_id": jobID,
			"status": job.Status,
		})
	}
	if existing, err := s.invoices.GetByJobID(ctx, jobID); err == nil && existing != nil {
		return nil, apperrors.NewConflict("job already invoiced", map[string]any{"invoice_id": existing.ID})
	} else if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	invoice := &domain.Invoice{
		JobID:      job.ID,
		CustomerID: job.CustomerID,
		Status:     domain.InvoiceStatusIssued,
	}
	for _, input := range lines {
		if input.Quantity <= 0 {
			return nil, apperrors.NewValidationError("quantity must be positive", nil)
		}
		line := domain.InvoiceLine{
			Description: input.Description,
			Quantity:    input.Quantity,
		}
		if input.PartID != nil {
			part, err := s.parts.GetByID(ctx, *input.PartID)
			if err != nil {
				if errors.Is(err, pgx.ErrNoRows) {
					return nil, apperrors.NewNotFound("part", map[string]any{"part_id": *input.PartID})
				}
				return nil, apperrors.MapError(err)
			}
			line.LineType = domain.InvoiceLinePart
			line.PartID = &part.ID
			line.AmountCents = part.UnitPriceCents * int64(input.Quantity)
			if line.Description == "" {
				line.Description = part.Name
			}
		} else {
			if input.AmountCents < 0 {
				return nil, apperrors.NewValidationError("labor amount must be non-negative", nil)
			}
			line.LineType = domain.InvoiceLineLabor
			line.AmountCents = input.AmountCents
		}
		invoice.TotalCents += line.AmountCents
		invoice.Lines = append(invoice.Lines, line)
	}

	if err := s.invoices.CreateWithLines(ctx, invoice); err != nil {
		if errors.Is(err, repository.ErrInsufficientStock) {
			return nil, apperrors.NewConflict("insufficient stock for invoice", map[string]any{"job_id": jobID})
		}
		return nil, apperrors.MapError(err)
	}

	s.publishIssued(ctx, actor.ID, invoice)
	return invoice, nil
}

// MarkPaid settles an issued invoice.
func (s *BillingService) MarkPaid(ctx context.Context, actor *domain.User, invoiceID string) (*domain.Invoice, error) {
	return s.setStatus(ctx, actor, invoiceID, domain.InvoiceStatusPaid)
}

// Void cancels an issued invoice.
func (s *BillingService) Void(ctx context.Context, actor *domain.User, invoiceID string) (*domain.Invoice, error) {
	return s.setStatus(ctx, actor, invoiceID, domain.InvoiceStatusVoid)
}

func (s *BillingService) setStatus(ctx context.Context, actor *domain.User, invoiceID string, status domain.InvoiceStatus) (*domain.Invoice, error) {
	if err := requireManager(actor); err != nil {
		return nil, err
	}
	invoice, err := s.invoices.GetByID(ctx, invoiceID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("invoice", map[string]any{"invoice_id": invoiceID})
		}
		return nil, apperrors.MapError(err)
	}
	if invoice.Status != domain.InvoiceStatusIssued {
		return nil, apperrors.NewConflict("invoice not in ISSUED state", map[string]any{
			"invoice_id": invoiceID,
			"status":     invoice.Status,
		})
	}
	if err := s.invoices.UpdateStatus(ctx, invoiceID, status); err != nil {
		return nil, apperrors.MapError(err)
	}
	invoice.Status = status
	return invoice, nil
}

// GetForActor fetches an invoice, restricting customers to their own.
func (s *BillingService) GetForActor(ctx context.Context, actor *domain.User, invoiceID string) (*domain.Invoice, error) {
	invoice, err := s.invoices.GetByID(ctx, invoiceID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("invoice", map[string]any{"invoice_id": invoiceID})
		}
		return nil, apperrors.MapError(err)
	}
	if actor.HasRole(domain.RoleCustomer) && invoice.CustomerID != actor.ID {
		return nil, apperrors.NewForbidden("access denied")
	}
	return invoice, nil
}

// ListForCustomer returns the customer's invoices.
func (s *BillingService) ListForCustomer(ctx context.Context, customerID string, limit, offset int) ([]domain.Invoice, error) {
	invoices, err := s.invoices.ListByCustomer(ctx, customerID, limit, offset)
	return invoices, apperrors.MapError(err)
}

func (s *BillingService) publishIssued(ctx context.Context, actorID string, invoice *domain.Invoice) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventInvoiceIssued,
		SubjectID: invoice.JobID,
		ActorID:   &actorID,
		Timestamp: time.Now(),
		Payload: events.InvoiceIssuedPayload{
			InvoiceID:  invoice.ID,
			JobID:      invoice.JobID,
			TotalCents: invoice.TotalCents,
		},
	})
}
