package service

import (
	"context"
	"errors"
	"testing"

	"github.com/garage-kit/shop-service/internal/domain"
	"github.com/garage-kit/shop-service/internal/events"
	apperrors "github.com/garage-kit/shop-service/pkg/util/errorutil"
)

func newJobFixture(t *testing.T) (*JobService, *fakeUserRepo, *fakeJobRepo, *fakeVehicleRepo, *recordingDispatcher) {
	t.Helper()
	users := newFakeUserRepo()
	jobs := newFakeJobRepo()
	vehicles := newFakeVehicleRepo()
	dispatcher := &recordingDispatcher{}
	svc := NewJobService(JobDependencies{
		JobRepo:     jobs,
		VehicleRepo: vehicles,
		UserRepo:    users,
		Dispatcher:  dispatcher,
	})
	return svc, users, jobs, vehicles, dispatcher
}

func userWithRole(id string, role domain.Role) *domain.User {
	r := role
	return &domain.User{ID: id, Name: id, Email: id + "@shop.test", Role: &r, Active: true}
}

func TestTransitionTable(t *testing.T) {
	tests := []struct {
		from    domain.JobStatus
		to      domain.JobStatus
		allowed bool
	}{
		{domain.JobStatusRequested, domain.JobStatusAssigned, true},
		{domain.JobStatusRequested, domain.JobStatusCancelled, true},
		{domain.JobStatusRequested, domain.JobStatusInProgress, false},
		{domain.JobStatusRequested, domain.JobStatusCompleted, false},
		{domain.JobStatusAssigned, domain.JobStatusInProgress, true},
		{domain.JobStatusAssigned, domain.JobStatusRequested, true},
		{domain.JobStatusAssigned, domain.JobStatusCancelled, true},
		{domain.JobStatusAssigned, domain.JobStatusCompleted, false},
		{domain.JobStatusInProgress, domain.JobStatusCompleted, true},
		{domain.JobStatusInProgress, domain.JobStatusCancelled, true},
		{domain.JobStatusInProgress, domain.JobStatusAssigned, false},
		{domain.JobStatusCompleted, domain.JobStatusCancelled, false},
		{domain.JobStatusCompleted, domain.JobStatusInProgress, false},
		{domain.JobStatusCancelled, domain.JobStatusRequested, false},
	}

	for _, tc := range tests {
		if got := transitionAllowed(tc.from, tc.to); got != tc.allowed {
			t.Errorf("%s -> %s: allowed=%v, want %v", tc.from, tc.to, got, tc.allowed)
		}
	}
}

func TestCreateRequestChecksVehicleOwnership(t *testing.T) {
	svc, _, _, vehicles, _ := newJobFixture(t)
	vehicles.add(&domain.Vehicle{ID: "v1", OwnerID: "other", Plate: "AB-123"})
	customer := userWithRole("cust", domain.RoleCustomer)

	_, err := svc.CreateRequest(context.Background(), customer, JobCreateInput{VehicleID: "v1", Title: "brakes"})
	var domainErr *apperrors.DomainError
	if !errors.As(err, &domainErr) || domainErr.Code != apperrors.CodeForbidden {
		t.Fatalf("want FORBIDDEN, got %v", err)
	}
}

func TestCreateRequestPublishesEvent(t *testing.T) {
	svc, _, _, vehicles, dispatcher := newJobFixture(t)
	vehicles.add(&domain.Vehicle{ID: "v1", OwnerID: "cust", Plate: "AB-123"})
	customer := userWithRole("cust", domain.RoleCustomer)

	job, err := svc.CreateRequest(context.Background(), customer, JobCreateInput{VehicleID: "v1", Title: "brakes squeal"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if job.Status != domain.JobStatusRequested {
		t.Fatalf("want REQUESTED, got %s", job.Status)
	}
	if got := dispatcher.published(events.EventJobCreated); len(got) != 1 {
		t.Fatalf("want one job_created event, got %d", len(got))
	}
}

func TestAssignRequiresManager(t *testing.T) {
	svc, users, jobs, _, _ := newJobFixture(t)
	seedUser(users, "tech", domain.RoleTechnician)
	jobs.add(&domain.ServiceJob{ID: "j1", CustomerID: "cust", Status: domain.JobStatusRequested})

	_, err := svc.Assign(context.Background(), userWithRole("cust", domain.RoleCustomer), "j1", "tech")
	var domainErr *apperrors.DomainError
	if !errors.As(err, &domainErr) || domainErr.Code != apperrors.CodeForbidden {
		t.Fatalf("want FORBIDDEN, got %v", err)
	}
}

func TestAssignRejectsNonTechnicianAssignee(t *testing.T) {
	svc, users, jobs, _, _ := newJobFixture(t)
	seedUser(users, "clerk", domain.RoleCustomer)
	jobs.add(&domain.ServiceJob{ID: "j1", CustomerID: "cust", Status: domain.JobStatusRequested})

	_, err := svc.Assign(context.Background(), userWithRole("mgr", domain.RoleManager), "j1", "clerk")
	var domainErr *apperrors.DomainError
	if !errors.As(err, &domainErr) || domainErr.Code != apperrors.CodeConflict {
		t.Fatalf("want CONFLICT, got %v", err)
	}
}

func TestAssignHappyPath(t *testing.T) {
	svc, users, jobs, _, dispatcher := newJobFixture(t)
	seedUser(users, "tech", domain.RoleTechnician)
	jobs.add(&domain.ServiceJob{ID: "j1", CustomerID: "cust", Status: domain.JobStatusRequested})

	job, err := svc.Assign(context.Background(), userWithRole("mgr", domain.RoleManager), "j1", "tech")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if job.Status != domain.JobStatusAssigned || job.TechnicianID == nil || *job.TechnicianID != "tech" {
		t.Fatalf("unexpected job state: %+v", job)
	}
	if got := dispatcher.published(events.EventJobAssigned); len(got) != 1 {
		t.Fatalf("want one job_assigned event, got %d", len(got))
	}
	if got := dispatcher.published(events.EventJobStatusChanged); len(got) != 1 {
		t.Fatalf("want one job_status_changed event, got %d", len(got))
	}
}

func TestStartOnlyByAssignedTechnician(t *testing.T) {
	svc, _, jobs, _, _ := newJobFixture(t)
	techID := "tech"
	jobs.add(&domain.ServiceJob{ID: "j1", CustomerID: "cust", TechnicianID: &techID, Status: domain.JobStatusAssigned})

	_, err := svc.Start(context.Background(), userWithRole("other", domain.RoleTechnician), "j1")
	var domainErr *apperrors.DomainError
	if !errors.As(err, &domainErr) || domainErr.Code != apperrors.CodeForbidden {
		t.Fatalf("want FORBIDDEN, got %v", err)
	}

	job, err := svc.Start(context.Background(), userWithRole("tech", domain.RoleTechnician), "j1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if job.Status != domain.JobStatusInProgress {
		t.Fatalf("want IN_PROGRESS, got %s", job.Status)
	}
}

func TestCompleteSetsClosedAt(t *testing.T) {
	svc, _, jobs, _, _ := newJobFixture(t)
	techID := "tech"
	jobs.add(&domain.ServiceJob{ID: "j1", CustomerID: "cust", TechnicianID: &techID, Status: domain.JobStatusInProgress})

	job, err := svc.Complete(context.Background(), userWithRole("tech", domain.RoleTechnician), "j1", "done")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if job.Status != domain.JobStatusCompleted || job.ClosedAt == nil {
		t.Fatalf("unexpected job state: %+v", job)
	}
}

func TestCancelByOwnerOrManagerOnly(t *testing.T) {
	svc, _, jobs, _, _ := newJobFixture(t)
	jobs.add(&domain.ServiceJob{ID: "j1", CustomerID: "cust", Status: domain.JobStatusRequested})
	jobs.add(&domain.ServiceJob{ID: "j2", CustomerID: "cust", Status: domain.JobStatusRequested})
	jobs.add(&domain.ServiceJob{ID: "j3", CustomerID: "cust", Status: domain.JobStatusCompleted})

	if _, err := svc.Cancel(context.Background(), userWithRole("stranger", domain.RoleCustomer), "j1", ""); err == nil {
		t.Fatal("stranger cancelled someone else's job")
	}
	if _, err := svc.Cancel(context.Background(), userWithRole("cust", domain.RoleCustomer), "j1", "changed my mind"); err != nil {
		t.Fatalf("owner cancel failed: %v", err)
	}
	if _, err := svc.Cancel(context.Background(), userWithRole("mgr", domain.RoleManager), "j2", "no-show"); err != nil {
		t.Fatalf("manager cancel failed: %v", err)
	}

	_, err := svc.Cancel(context.Background(), userWithRole("mgr", domain.RoleManager), "j3", "")
	var domainErr *apperrors.DomainError
	if !errors.As(err, &domainErr) || domainErr.Code != apperrors.CodeConflict {
		t.Fatalf("terminal job cancel: want CONFLICT, got %v", err)
	}
}

func TestGetForActorHidesForeignJobsFromCustomers(t *testing.T) {
	svc, _, jobs, _, _ := newJobFixture(t)
	jobs.add(&domain.ServiceJob{ID: "j1", CustomerID: "cust", Status: domain.JobStatusRequested})

	if _, err := svc.GetForActor(context.Background(), userWithRole("other", domain.RoleCustomer), "j1"); err == nil {
		t.Fatal("foreign customer read another customer's job")
	}
	if _, err := svc.GetForActor(context.Background(), userWithRole("mgr", domain.RoleManager), "j1"); err != nil {
		t.Fatalf("manager read failed: %v", err)
	}
}
