package service

import (
	"context"
	"sync"

	"github.com/jackc/pgx/v5"

	"github.com/garage-kit/shop-service/internal/domain"
	"github.com/garage-kit/shop-service/internal/events"
	"github.com/garage-kit/shop-service/internal/repository"
)

// fakeUserRepo is an in-memory identity store used across service tests.
type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*domain.User
	roles map[string][]domain.Role

	replaceErr   error
	replaceCalls int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		users: make(map[string]*domain.User),
		roles: make(map[string][]domain.Role),
	}
}

func (f *fakeUserRepo) add(user *domain.User, role domain.Role) {
	f.mu.Lock()
	defer f.mu.Unlock()
	clone := *user
	clone.Role = &role
	f.users[user.ID] = &clone
	f.roles[user.ID] = []domain.Role{role}
}

func (f *fakeUserRepo) Create(_ context.Context, user *domain.User, role domain.Role) error {
	user.Role = &role
	f.add(user, role)
	return nil
}

func (f *fakeUserRepo) Update(_ context.Context, user *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	clone := *user
	f.users[user.ID] = &clone
	return nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *user
	return &clone, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if user.Email == email {
			clone := *user
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeUserRepo) RolesOf(_ context.Context, userID string) ([]domain.Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Role{}, f.roles[userID]...), nil
}

func (f *fakeUserRepo) ListInRole(_ context.Context, role domain.Role) ([]domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []domain.User
	for id, roles := range f.roles {
		for _, held := range roles {
			if held == role {
				result = append(result, *f.users[id])
			}
		}
	}
	return result, nil
}

func (f *fakeUserRepo) ReplaceRole(_ context.Context, userID string, role domain.Role) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replaceCalls++
	if f.replaceErr != nil {
		return f.replaceErr
	}
	if role == domain.RoleAdmin {
		for id, roles := range f.roles {
			if id == userID {
				continue
			}
			for _, held := range roles {
				if held == domain.RoleAdmin {
					return repository.ErrAdminRoleTaken
				}
			}
		}
	}
	f.roles[userID] = []domain.Role{role}
	if user, ok := f.users[userID]; ok {
		r := role
		user.Role = &r
	}
	return nil
}

func (f *fakeUserRepo) rolesHeld(userID string) []domain.Role {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Role{}, f.roles[userID]...)
}

// fakeJobRepo is an in-memory work ledger.
type fakeJobRepo struct {
	mu   sync.Mutex
	jobs map[string]*domain.ServiceJob

	countErr error
}

func newFakeJobRepo() *fakeJobRepo {
	return &fakeJobRepo{jobs: make(map[string]*domain.ServiceJob)}
}

func (f *fakeJobRepo) add(job *domain.ServiceJob) {
	f.mu.Lock()
	defer f.mu.Unlock()
	clone := *job
	f.jobs[job.ID] = &clone
}

func (f *fakeJobRepo) Create(_ context.Context, job *domain.ServiceJob) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if job.ID == "" {
		job.ID = job.ExternalKey
	}
	clone := *job
	f.jobs[job.ID] = &clone
	return nil
}

func (f *fakeJobRepo) Update(_ context.Context, job *domain.ServiceJob) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.jobs[job.ID]; !ok {
		return pgx.ErrNoRows
	}
	clone := *job
	f.jobs[job.ID] = &clone
	return nil
}

func (f *fakeJobRepo) GetByID(_ context.Context, id string) (*domain.ServiceJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.jobs[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *job
	return &clone, nil
}

func (f *fakeJobRepo) GetByExternalKey(_ context.Context, key string) (*domain.ServiceJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, job := range f.jobs {
		if job.ExternalKey == key {
			clone := *job
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeJobRepo) ListByCustomer(_ context.Context, customerID string, _, _ int) ([]domain.ServiceJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []domain.ServiceJob
	for _, job := range f.jobs {
		if job.CustomerID == customerID {
			result = append(result, *job)
		}
	}
	return result, nil
}

func (f *fakeJobRepo) ListWithFilter(_ context.Context, filter repository.JobFilter) ([]domain.ServiceJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []domain.ServiceJob
	for _, job := range f.jobs {
		if filter.TechnicianID != nil && (job.TechnicianID == nil || *job.TechnicianID != *filter.TechnicianID) {
			continue
		}
		if filter.CustomerID != nil && job.CustomerID != *filter.CustomerID {
			continue
		}
		if len(filter.Statuses) > 0 && !statusIn(job.Status, filter.Statuses) {
			continue
		}
		result = append(result, *job)
	}
	return result, nil
}

func (f *fakeJobRepo) CountActiveForTechnician(_ context.Context, technicianID string, statuses []domain.JobStatus) (int, error) {
	if f.countErr != nil {
		return 0, f.countErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, job := range f.jobs {
		if job.TechnicianID != nil && *job.TechnicianID == technicianID && statusIn(job.Status, statuses) {
			count++
		}
	}
	return count, nil
}

func statusIn(status domain.JobStatus, set []domain.JobStatus) bool {
	for _, s := range set {
		if s == status {
			return true
		}
	}
	return false
}

// fakeVehicleRepo is an in-memory garage.
type fakeVehicleRepo struct {
	mu       sync.Mutex
	vehicles map[string]*domain.Vehicle
}

func newFakeVehicleRepo() *fakeVehicleRepo {
	return &fakeVehicleRepo{vehicles: make(map[string]*domain.Vehicle)}
}

func (f *fakeVehicleRepo) add(vehicle *domain.Vehicle) {
	f.mu.Lock()
	defer f.mu.Unlock()
	clone := *vehicle
	f.vehicles[vehicle.ID] = &clone
}

func (f *fakeVehicleRepo) Create(_ context.Context, vehicle *domain.Vehicle) error {
	f.add(vehicle)
	return nil
}

func (f *fakeVehicleRepo) Update(_ context.Context, vehicle *domain.Vehicle) error {
	f.add(vehicle)
	return nil
}

func (f *fakeVehicleRepo) GetByID(_ context.Context, id string) (*domain.Vehicle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	vehicle, ok := f.vehicles[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *vehicle
	return &clone, nil
}

func (f *fakeVehicleRepo) GetByPlate(_ context.Context, plate string) (*domain.Vehicle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, vehicle := range f.vehicles {
		if vehicle.Plate == plate {
			clone := *vehicle
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeVehicleRepo) ListByOwner(_ context.Context, ownerID string) ([]domain.Vehicle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []domain.Vehicle
	for _, vehicle := range f.vehicles {
		if vehicle.OwnerID == ownerID {
			result = append(result, *vehicle)
		}
	}
	return result, nil
}

// recordingDispatcher captures published events.
type recordingDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *recordingDispatcher) Publish(_ context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *recordingDispatcher) published(eventType events.EventType) []events.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	var result []events.Event
	for _, event := range d.events {
		if event.Type == eventType {
			result = append(result, event)
		}
	}
	return result
}
