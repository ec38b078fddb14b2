package dto

import (
	"time"

	"github.com/garage-kit/shop-service/internal/domain"
)

// CreateCategoryRequest payload.
type CreateCategoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// UpdateCategoryRequest payload.
type UpdateCategoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	IsActive    *bool  `json:"is_active"`
}

// CategoryResponse projects an inventory category.
type CategoryResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewCategoryResponse maps the domain model.
func NewCategoryResponse(category *domain.Category) CategoryResponse {
	return CategoryResponse{
		ID:          category.ID,
		Name:        category.Name,
		Description: category.Description,
		IsActive:    category.IsActive,
		CreatedAt:   category.CreatedAt,
	}
}

// CreatePartRequest payload.
type CreatePartRequest struct {
	CategoryID     string `json:"category_id"`
	Name           string `json:"name"`
	SKU            string `json:"sku"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	StockQty       int    `json:"stock_qty"`
}

// StockAdjustRequest payload.
type StockAdjustRequest struct {
	Delta int `json:"delta"`
}

// PartResponse projects an inventory part.
type PartResponse struct {
	ID             string    `json:"id"`
	CategoryID     string    `json:"category_id"`
	Name           string    `json:"name"`
	SKU            string    `json:"sku"`
	UnitPriceCents int64     `json:"unit_price_cents"`
	StockQty       int       `json:"stock_qty"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// NewPartResponse maps the domain model.
func NewPartResponse(part *domain.Part) PartResponse {
	return PartResponse{
		ID:             part.ID,
		CategoryID:     part.CategoryID,
		Name:           part.Name,
		SKU:            part.SKU,
		UnitPriceCents: part.UnitPriceCents,
		StockQty:       part.StockQty,
		UpdatedAt:      part.UpdatedAt,
	}
}

// InvoiceLineRequest describes one requested invoice line.
type InvoiceLineRequest struct {
	PartID      *string `json:"part_id"`
	Description string  `json:"description"`
	Quantity    int     `json:"quantity"`
	AmountCents int64   `json:"amount_cents"`
}

// IssueInvoiceRequest payload.
type IssueInvoiceRequest struct {
	Lines []InvoiceLineRequest `json:"lines"`
}

// InvoiceLineResponse projects one invoice line.
type InvoiceLineResponse struct {
	ID          string                 `json:"id"`
	LineType    domain.InvoiceLineType `json:"line_type"`
	PartID      *string                `json:"part_id,omitempty"`
	Description string                 `json:"description"`
	Quantity    int                    `json:"quantity"`
	AmountCents int64                  `json:"amount_cents"`
}

// InvoiceResponse projects an invoice with its lines.
type InvoiceResponse struct {
	ID         string                `json:"id"`
	JobID      string                `json:"job_id"`
	CustomerID string                `json:"customer_id"`
	Status     domain.InvoiceStatus  `json:"status"`
	TotalCents int64                 `json:"total_cents"`
	Lines      []InvoiceLineResponse `json:"lines"`
	CreatedAt  time.Time             `json:"created_at"`
}

// NewInvoiceResponse maps the domain model.
func NewInvoiceResponse(invoice *domain.Invoice) InvoiceResponse {
	resp := InvoiceResponse{
		ID:         invoice.ID,
		JobID:      invoice.JobID,
		CustomerID: invoice.CustomerID,
		Status:     invoice.Status,
		TotalCents: invoice.TotalCents,
		CreatedAt:  invoice.CreatedAt,
	}
	for i := range invoice.Lines {
		line := &invoice.Lines[i]
		resp.Lines = append(resp.Lines, InvoiceLineResponse{
			ID:          line.ID,
			LineType:    line.LineType,
			PartID:      line.PartID,
			Description: line.Description,
			Quantity:    line.Quantity,
			AmountCents: line.AmountCents,
		})
	}
	return resp
}
