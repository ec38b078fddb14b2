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

// JobService coordinates service request workflows.
type JobService struct {
	jobs       repository.JobRepository
	vehicles   repository.VehicleRepository
	users      repository.UserRepository
	dispatcher events.Dispatcher
}

// JobDependencies bundles repositories for the job service.
type JobDependencies struct {
	JobRepo     repository.JobRepository
	VehicleRepo repository.VehicleRepository
	UserRepo    repository.UserRepository
	Dispatcher  events.Dispatcher
}

// JobCreateInput describes a new service request.
type JobCreateInput struct {
	VehicleID   string
	Title       string
	Description string
}

// legalTransitions is the guarded status edge table.
var legalTransitions = map[domain.JobStatus][]domain.JobStatus{
	domain.JobStatusRequested:  {domain.JobStatusAssigned, domain.JobStatusCancelled},
	domain.JobStatusAssigned:   {domain.JobStatusInProgress, domain.JobStatusRequested, domain.JobStatusCancelled},
	domain.JobStatusInProgress: {domain.JobStatusCompleted, domain.JobStatusCancelled},
}

// NewJobService constructs the service.
func NewJobService(deps JobDependencies) *JobService {
	return &JobService{
		jobs:       deps.JobRepo,
		vehicles:   deps.VehicleRepo,
		users:      deps.UserRepo,
		dispatcher: deps.Dispatcher,
	}
}

// CreateRequest opens a service request for one of the customer's vehicles.
func (s *JobService) CreateRequest(ctx context.Context, customer *domain.User, input JobCreateInput) (*domain.ServiceJob, error) {
	if input.Title == "" {
		return nil, apperrors.NewValidationError("title required", nil)
	}
	vehicle, err := s.vehicles.GetByID(ctx, input.VehicleID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("vehicle", map[string]any{"vehicle_id": input.VehicleID})
		}
		return nil, apperrors.MapError(err)
	}
	if vehicle.OwnerID != customer.ID {
		return nil, apperrors.NewForbidden("vehicle belongs to another customer")
	}

	job := &domain.ServiceJob{
		ExternalKey: uuid.NewString(),
		VehicleID:   vehicle.ID,
		CustomerID:  customer.ID,
		Title:       input.Title,
		Description: input.Description,
		Status:      domain.JobStatusRequested,
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publish(ctx, events.EventJobCreated, job.ID, &customer.ID, events.JobCreatedPayload{
		VehicleID:  job.VehicleID,
		CustomerID: job.CustomerID,
		Title:      job.Title,
	})
	return job, nil
}

// Assign hands the job to an active technician. The assignee must hold
// the TECHNICIAN role at assignment time; the role transition policy
// keeps that invariant from rotting afterwards.
func (s *JobService) Assign(ctx context.Context, actor *domain.User, jobID, technicianID string) (*domain.ServiceJob, error) {
	if err := requireManager(actor); err != nil {
		return nil, err
	}

	technician, err := s.users.GetByID(ctx, technicianID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("technician", map[string]any{"user_id": technicianID})
		}
		return nil, apperrors.MapError(err)
	}
	if !technician.Active {
		return nil, apperrors.NewConflict("technician inactive", map[string]any{"user_id": technicianID})
	}
	if !technician.HasRole(domain.RoleTechnician) {
		return nil, apperrors.NewConflict("assignee does not hold technician role", map[string]any{"user_id": technicianID})
	}

	job, err := s.getJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	old := job.Status
	if err := s.transition(job, domain.JobStatusAssigned); err != nil {
		return nil, err
	}

	job.TechnicianID = &technician.ID
	if err := s.jobs.Update(ctx, job); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishStatusChange(ctx, actor, job, old, "")
	s.publish(ctx, events.EventJobAssigned, job.ID, &actor.ID, events.JobAssignedPayload{
		TechnicianID: technician.ID,
	})
	return job, nil
}

// Start moves an assigned job into work. Only the assigned technician may.
func (s *JobService) Start(ctx context.Context, actor *domain.User, jobID string) (*domain.ServiceJob, error) {
	job, err := s.getJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.TechnicianID == nil || *job.TechnicianID != actor.ID {
		return nil, apperrors.NewForbidden("job assigned to another technician")
	}
	old := job.Status
	if err := s.transition(job, domain.JobStatusInProgress); err != nil {
		return nil, err
	}
	if err := s.jobs.Update(ctx, job); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publishStatusChange(ctx, actor, job, old, "")
	return job, nil
}

// Complete finishes an in-progress job. Only the assigned technician may.
func (s *JobService) Complete(ctx context.Context, actor *domain.User, jobID, comment string) (*domain.ServiceJob, error) {
	job, err := s.getJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.TechnicianID == nil || *job.TechnicianID != actor.ID {
		return nil, apperrors.NewForbidden("job assigned to another technician")
	}
	old := job.Status
	if err := s.transition(job, domain.JobStatusCompleted); err != nil {
		return nil, err
	}
	now := time.Now()
	job.ClosedAt = &now
	if err := s.jobs.Update(ctx, job); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publishStatusChange(ctx, actor, job, old, comment)
	return job, nil
}

// Cancel aborts a non-terminal job. The owning customer or a manager may.
func (s *JobService) Cancel(ctx context.Context, actor *domain.User, jobID, comment string) (*domain.ServiceJob, error) {
	job, err := s.getJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.CustomerID != actor.ID {
		if err := requireManager(actor); err != nil {
			return nil, err
		}
	}
	old := job.Status
	if err := s.transition(job, domain.JobStatusCancelled); err != nil {
		return nil, err
	}
	now := time.Now()
	job.ClosedAt = &now
	if err := s.jobs.Update(ctx, job); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publishStatusChange(ctx, actor, job, old, comment)
	return job, nil
}

// GetForActor fetches a job, restricting customers to their own jobs.
func (s *JobService) GetForActor(ctx context.Context, actor *domain.User, jobID string) (*domain.ServiceJob, error) {
	job, err := s.getJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if actor.HasRole(domain.RoleCustomer) && job.CustomerID != actor.ID {
		return nil, apperrors.NewForbidden("access denied")
	}
	return job, nil
}

// ListForCustomer returns the customer's own jobs.
func (s *JobService) ListForCustomer(ctx context.Context, customerID string, limit, offset int) ([]domain.ServiceJob, error) {
	jobs, err := s.jobs.ListByCustomer(ctx, customerID, limit, offset)
	return jobs, apperrors.MapError(err)
}

// ListForTechnician returns jobs assigned to the technician.
func (s *JobService) ListForTechnician(ctx context.Context, technicianID string, statuses []domain.JobStatus, limit, offset int) ([]domain.ServiceJob, error) {
	jobs, err := s.jobs.ListWithFilter(ctx, repository.JobFilter{
		TechnicianID: &technicianID,
		Statuses:     statuses,
		Limit:        limit,
		Offset:       offset,
	})
	return jobs, apperrors.MapError(err)
}

// Search lists jobs for staff with arbitrary filters.
func (s *JobService) Search(ctx context.Context, actor *domain.User, filter repository.JobFilter) ([]domain.ServiceJob, error) {
	if err := requireManager(actor); err != nil {
		return nil, err
	}
	jobs, err := s.jobs.ListWithFilter(ctx, filter)
	return jobs, apperrors.MapError(err)
}

func (s *JobService) getJob(ctx context.Context, jobID string) (*domain.ServiceJob, error) {
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("job", map[string]any{"job_id": jobID})
		}
		return nil, apperrors.MapError(err)
	}
	return job, nil
}

// transition applies the status edge table. The caller persists the job
// and publishes the change afterwards.
func (s *JobService) transition(job *domain.ServiceJob, next domain.JobStatus) error {
	if !transitionAllowed(job.Status, next) {
		return apperrors.NewConflict("illegal status transition", map[string]any{
			"from": job.Status,
			"to":   next,
		})
	}
	job.Status = next
	return nil
}

func (s *JobService) publishStatusChange(ctx context.Context, actor *domain.User, job *domain.ServiceJob, old domain.JobStatus, comment string) {
	s.publish(ctx, events.EventJobStatusChanged, job.ID, &actor.ID, events.JobStatusChangedPayload{
		OldStatus: old,
		NewStatus: job.Status,
		Comment:   comment,
	})
}

func transitionAllowed(from, to domain.JobStatus) bool {
	for _, allowed := range legalTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

func requireManager(actor *domain.User) error {
	if actor == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	if !actor.HasRole(domain.RoleManager) && !actor.HasRole(domain.RoleAdmin) {
		return apperrors.NewForbidden("manager role required")
	}
	return nil
}

func (s *JobService) publish(ctx context.Context, eventType events.EventType, subjectID string, actorID *string, payload any) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		SubjectID: subjectID,
		ActorID:   actorID,
		Timestamp: time.Now(),
		Payload:   payload,
	})
}
