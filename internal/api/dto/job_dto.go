package dto

import (
	"time"

	"github.com/garage-kit/shop-service/internal/domain"
)

// CreateJobRequest payload.
type CreateJobRequest struct {
	VehicleID   string `json:"vehicle_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// AssignJobRequest payload.
type AssignJobRequest struct {
	TechnicianID string `json:"technician_id"`
}

// JobCommentRequest carries an optional comment on status changes.
type JobCommentRequest struct {
	Comment string `json:"comment"`
}

// JobResponse projects a service job.
type JobResponse struct {
	ID           string           `json:"id"`
	ExternalKey  string           `json:"external_key"`
	VehicleID    string           `json:"vehicle_id"`
	CustomerID   string           `json:"customer_id"`
	TechnicianID *string          `json:"technician_id"`
	Title        string           `json:"title"`
	Description  string           `json:"description"`
	Status       domain.JobStatus `json:"status"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
	ClosedAt     *time.Time       `json:"closed_at,omitempty"`
}

// NewJobResponse maps the domain model.
func NewJobResponse(job *domain.ServiceJob) JobResponse {
	return JobResponse{
		ID:           job.ID,
		ExternalKey:  job.ExternalKey,
		VehicleID:    job.VehicleID,
		CustomerID:   job.CustomerID,
		TechnicianID: job.TechnicianID,
		Title:        job.Title,
		Description:  job.Description,
		Status:       job.Status,
		CreatedAt:    job.CreatedAt,
		UpdatedAt:    job.UpdatedAt,
		ClosedAt:     job.ClosedAt,
	}
}

// NewJobResponses maps a slice.
func NewJobResponses(jobs []domain.ServiceJob) []JobResponse {
	out := make([]JobResponse, 0, len(jobs))
	for i := range jobs {
		out = append(out, NewJobResponse(&jobs[i]))
	}
	return out
}
