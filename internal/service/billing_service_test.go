package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5"

	"github.com/garage-kit/shop-service/internal/domain"
	"github.com/garage-kit/shop-service/internal/events"
	"github.com/garage-kit/shop-service/internal/repository"
	apperrors "github.com/garage-kit/shop-service/pkg/util/errorutil"
)

type fakePartRepo struct {
	mu    sync.Mutex
	parts map[string]*domain.Part
}

func newFakePartRepo() *fakePartRepo {
	return &fakePartRepo{parts: make(map[string]*domain.Part)}
}

func (f *fakePartRepo) add(part *domain.Part) {
	f.mu.Lock()
	defer f.mu.Unlock()
	clone := *part
	f.parts[part.ID] = &clone
}

func (f *fakePartRepo) Create(_ context.Context, part *domain.Part) error {
	if part.ID == "" {
		part.ID = part.SKU
	}
	f.add(part)
	return nil
}

func (f *fakePartRepo) Update(_ context.Context, part *domain.Part) error {
	f.add(part)
	return nil
}

func (f *fakePartRepo) GetByID(_ context.Context, id string) (*domain.Part, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	part, ok := f.parts[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *part
	return &clone, nil
}

func (f *fakePartRepo) GetBySKU(_ context.Context, sku string) (*domain.Part, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, part := range f.parts {
		if part.SKU == sku {
			clone := *part
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakePartRepo) List(_ context.Context, _ repository.PartFilter) ([]domain.Part, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []domain.Part
	for _, part := range f.parts {
		result = append(result, *part)
	}
	return result, nil
}

func (f *fakePartRepo) AdjustStock(_ context.Context, id string, delta int) (*domain.Part, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	part, ok := f.parts[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	if part.StockQty+delta < 0 {
		return nil, repository.ErrInsufficientStock
	}
	part.StockQty += delta
	clone := *part
	return &clone, nil
}

type fakeInvoiceRepo struct {
	mu       sync.Mutex
	invoices map[string]*domain.Invoice
	parts    *fakePartRepo
	seq      int
}

func newFakeInvoiceRepo(parts *fakePartRepo) *fakeInvoiceRepo {
	return &fakeInvoiceRepo{invoices: make(map[string]*domain.Invoice), parts: parts}
}

func (f *fakeInvoiceRepo) CreateWithLines(ctx context.Context, invoice *domain.Invoice) error {
	// Stock decrements and the insert stand or fall together, like the
	// real transaction.
	for _, line := range invoice.Lines {
		if line.PartID == nil {
			continue
		}
		if _, err := f.parts.AdjustStock(ctx, *line.PartID, -line.Quantity); err != nil {
			return err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	if invoice.ID == "" {
		invoice.ID = fmt.Sprintf("inv-%d", f.seq)
	}
	clone := *invoice
	f.invoices[invoice.ID] = &clone
	return nil
}

func (f *fakeInvoiceRepo) UpdateStatus(_ context.Context, id string, status domain.InvoiceStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	invoice, ok := f.invoices[id]
	if !ok {
		return pgx.ErrNoRows
	}
	invoice.Status = status
	return nil
}

func (f *fakeInvoiceRepo) GetByID(_ context.Context, id string) (*domain.Invoice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	invoice, ok := f.invoices[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *invoice
	return &clone, nil
}

func (f *fakeInvoiceRepo) GetByJobID(_ context.Context, jobID string) (*domain.Invoice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, invoice := range f.invoices {
		if invoice.JobID == jobID {
			clone := *invoice
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeInvoiceRepo) ListByCustomer(_ context.Context, customerID string, _, _ int) ([]domain.Invoice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []domain.Invoice
	for _, invoice := range f.invoices {
		if invoice.CustomerID == customerID {
			result = append(result, *invoice)
		}
	}
	return result, nil
}

func newBillingFixture(t *testing.T) (*BillingService, *fakeJobRepo, *fakePartRepo, *fakeInvoiceRepo, *recordingDispatcher) {
	t.Helper()
	jobs := newFakeJobRepo()
	parts := newFakePartRepo()
	invoices := newFakeInvoiceRepo(parts)
	dispatcher := &recordingDispatcher{}
	svc := NewBillingService(BillingDependencies{
		InvoiceRepo: invoices,
		JobRepo:     jobs,
		PartRepo:    parts,
		Dispatcher:  dispatcher,
	})
	return svc, jobs, parts, invoices, dispatcher
}

func TestIssueInvoicePricesPartsFromInventory(t *testing.T) {
	svc, jobs, parts, _, dispatcher := newBillingFixture(t)
	jobs.add(&domain.ServiceJob{ID: "j1", CustomerID: "cust", Status: domain.JobStatusCompleted})
	parts.add(&domain.Part{ID: "p1", Name: "Brake pad", SKU: "BP-1", UnitPriceCents: 2500, StockQty: 10})
	partID := "p1"

	invoice, err := svc.IssueInvoice(context.Background(), userWithRole("mgr", domain.RoleManager), "j1", []InvoiceLineInput{
		{PartID: &partID, Quantity: 2},
		{Description: "labor", Quantity: 1, AmountCents: 8000},
	})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if invoice.TotalCents != 2*2500+8000 {
		t.Fatalf("want total 13000, got %d", invoice.TotalCents)
	}
	if invoice.Lines[0].LineType != domain.InvoiceLinePart || invoice.Lines[0].Description != "Brake pad" {
		t.Fatalf("part line not priced from inventory: %+v", invoice.Lines[0])
	}

	part, _ := parts.GetByID(context.Background(), "p1")
	if part.StockQty != 8 {
		t.Fatalf("stock not decremented, got %d", part.StockQty)
	}
	if got := dispatcher.published(events.EventInvoiceIssued); len(got) != 1 {
		t.Fatalf("want one invoice_issued event, got %d", len(got))
	}
}

func TestIssueInvoiceOnlyForCompletedJobs(t *testing.T) {
	svc, jobs, _, _, _ := newBillingFixture(t)
	jobs.add(&domain.ServiceJob{ID: "j1", CustomerID: "cust", Status: domain.JobStatusInProgress})

	_, err := svc.IssueInvoice(context.Background(), userWithRole("mgr", domain.RoleManager), "j1", []InvoiceLineInput{
		{Description: "labor", Quantity: 1, AmountCents: 100},
	})
	var domainErr *apperrors.DomainError
	if !errors.As(err, &domainErr) || domainErr.Code != apperrors.CodeConflict {
		t.Fatalf("want CONFLICT, got %v", err)
	}
}

func TestIssueInvoiceRejectsDoubleBilling(t *testing.T) {
	svc, jobs, _, _, _ := newBillingFixture(t)
	jobs.add(&domain.ServiceJob{ID: "j1", CustomerID: "cust", Status: domain.JobStatusCompleted})
	lines := []InvoiceLineInput{{Description: "labor", Quantity: 1, AmountCents: 100}}
	mgr := userWithRole("mgr", domain.RoleManager)

	if _, err := svc.IssueInvoice(context.Background(), mgr, "j1", lines); err != nil {
		t.Fatalf("first issue: %v", err)
	}
	if _, err := svc.IssueInvoice(context.Background(), mgr, "j1", lines); err == nil {
		t.Fatal("second invoice for the same job accepted")
	}
}

func TestIssueInvoiceInsufficientStock(t *testing.T) {
	svc, jobs, parts, _, _ := newBillingFixture(t)
	jobs.add(&domain.ServiceJob{ID: "j1", CustomerID: "cust", Status: domain.JobStatusCompleted})
	parts.add(&domain.Part{ID: "p1", Name: "Filter", SKU: "F-1", UnitPriceCents: 500, StockQty: 1})
	partID := "p1"

	_, err := svc.IssueInvoice(context.Background(), userWithRole("mgr", domain.RoleManager), "j1", []InvoiceLineInput{
		{PartID: &partID, Quantity: 3},
	})
	var domainErr *apperrors.DomainError
	if !errors.As(err, &domainErr) || domainErr.Code != apperrors.CodeConflict {
		t.Fatalf("want CONFLICT, got %v", err)
	}
}

func TestInvoiceStatusTransitions(t *testing.T) {
	svc, jobs, _, _, _ := newBillingFixture(t)
	jobs.add(&domain.ServiceJob{ID: "j1", CustomerID: "cust", Status: domain.JobStatusCompleted})
	mgr := userWithRole("mgr", domain.RoleManager)

	invoice, err := svc.IssueInvoice(context.Background(), mgr, "j1", []InvoiceLineInput{
		{Description: "labor", Quantity: 1, AmountCents: 100},
	})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	paid, err := svc.MarkPaid(context.Background(), mgr, invoice.ID)
	if err != nil {
		t.Fatalf("mark paid: %v", err)
	}
	if paid.Status != domain.InvoiceStatusPaid {
		t.Fatalf("want PAID, got %s", paid.Status)
	}

	// PAID is terminal; voiding it must fail.
	if _, err := svc.Void(context.Background(), mgr, invoice.ID); err == nil {
		t.Fatal("voided a paid invoice")
	}
}

func TestInvoiceVisibility(t *testing.T) {
	svc, jobs, _, _, _ := newBillingFixture(t)
	jobs.add(&domain.ServiceJob{ID: "j1", CustomerID: "cust", Status: domain.JobStatusCompleted})
	mgr := userWithRole("mgr", domain.RoleManager)

	invoice, err := svc.IssueInvoice(context.Background(), mgr, "j1", []InvoiceLineInput{
		{Description: "labor", Quantity: 1, AmountCents: 100},
	})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := svc.GetForActor(context.Background(), userWithRole("cust", domain.RoleCustomer), invoice.ID); err != nil {
		t.Fatalf("owner read failed: %v", err)
	}
	if _, err := svc.GetForActor(context.Background(), userWithRole("other", domain.RoleCustomer), invoice.ID); err == nil {
		t.Fatal("foreign customer read another customer's invoice")
	}
}
