package domain

import "time"

// InvoiceStatus enumerates billing states.
type InvoiceStatus string

const (
	InvoiceStatusIssued InvoiceStatus = "ISSUED"
	InvoiceStatusPaid   InvoiceStatus = "PAID"
	InvoiceStatusVoid   InvoiceStatus = "VOID"
)

// InvoiceLineType differentiates labor from parts.
type InvoiceLineType string

const (
	InvoiceLineLabor InvoiceLineType = "LABOR"
	InvoiceLinePart  InvoiceLineType = "PART"
)

// Invoice bills a completed service job.
type Invoice struct {
	ID         string
	JobID      string
	CustomerID string
	Status     InvoiceStatus
	TotalCents int64
	Lines      []InvoiceLine
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// InvoiceLine is one charge on an invoice.
type InvoiceLine struct {
	ID          string
	InvoiceID   string
	LineType    InvoiceLineType
	PartID      *string
	Description string
	Quantity    int
	AmountCents int64
}
