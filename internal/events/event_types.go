package events

import (
	"time"

	"github.com/garage-kit/shop-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventJobCreated       EventType = "job_created"
	EventJobAssigned      EventType = "job_assigned"
	EventJobStatusChanged EventType = "job_status_changed"
	EventRoleChanged      EventType = "role_changed"
	EventInvoiceIssued    EventType = "invoice_issued"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	SubjectID string      `json:"subject_id"`
	ActorID   *string     `json:"actor_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// JobCreatedPayload payload.
type JobCreatedPayload struct {
	VehicleID  string `json:"vehicle_id"`
	CustomerID string `json:"customer_id"`
	Title      string `json:"title"`
}

// JobAssignedPayload payload.
type JobAssignedPayload struct {
	TechnicianID string `json:"technician_id"`
}

// JobStatusChangedPayload payload.
type JobStatusChangedPayload struct {
	OldStatus domain.JobStatus `json:"old_status"`
	NewStatus domain.JobStatus `json:"new_status"`
	Comment   string           `json:"comment,omitempty"`
}

// RoleChangedPayload payload.
type RoleChangedPayload struct {
	OldRole *domain.Role `json:"old_role,omitempty"`
	NewRole domain.Role  `json:"new_role"`
}

// InvoiceIssuedPayload payload.
type InvoiceIssuedPayload struct {
	InvoiceID  string `json:"invoice_id"`
	JobID      string `json:"job_id"`
	TotalCents int64  `json:"total_cents"`
}
