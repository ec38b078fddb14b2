package domain

import "time"

// JobStatus enumerates lifecycle states for service jobs.
type JobStatus string

const (
	JobStatusRequested  JobStatus = "REQUESTED"
	JobStatusAssigned   JobStatus = "ASSIGNED"
	JobStatusInProgress JobStatus = "IN_PROGRESS"
	JobStatusCompleted  JobStatus = "COMPLETED"
	JobStatusCancelled  JobStatus = "CANCELLED"
)

// ActiveJobStatuses returns the non-terminal status set. Jobs in these
// states pin their technician's role in place.
func ActiveJobStatuses() []JobStatus {
	return []JobStatus{JobStatusRequested, JobStatusAssigned, JobStatusInProgress}
}

// IsTerminal reports whether the status ends the job lifecycle.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusCancelled
}

// ServiceJob is the aggregate for one unit of vehicle-service work.
// TechnicianID is a weak reference: a lookup key, never ownership.
type ServiceJob struct {
	ID           string
	ExternalKey  string
	VehicleID    string
	CustomerID   string
	TechnicianID *string
	Title        string
	Description  string
	Status       JobStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
	ClosedAt     *time.Time
}
