package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/garage-kit/shop-service/internal/domain"
	"github.com/garage-kit/shop-service/internal/events"
	"github.com/garage-kit/shop-service/internal/observability"
	"github.com/garage-kit/shop-service/internal/repository"
	apperrors "github.com/garage-kit/shop-service/pkg/util/errorutil"
)

// Outcome is the tagged result of one role transition evaluation.
// Allowed means the role membership was replaced; otherwise Reason holds
// one of the errorutil reason codes and Detail a renderable elaboration.
type Outcome struct {
	Allowed    bool
	Reason     string
	Detail     string
	ActiveJobs int
}

// Rejected reports whether the transition was refused.
func (o Outcome) Rejected() bool {
	return !o.Allowed
}

// RoleTransitionService is the sole gate for role mutation. It evaluates
// a requested (userID, newRole) change against the guard rules and, when
// they all pass, replaces the user's role membership atomically.
//
// Two safeguards cover the check-then-act race between the reads and the
// commit: evaluations for the same user serialize on an in-process keyed
// lock, and the user_roles single-admin unique index rejects a racing
// second promotion at commit time, which surfaces as ADMIN_ALREADY_EXISTS.
type RoleTransitionService struct {
	users      repository.UserRepository
	jobs       repository.JobRepository
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger

	mu    sync.Mutex
	locks map[string]*userLock
}

// userLock is one entry of the keyed lock; refs counts waiters plus the
// holder so the entry can be dropped once nobody needs it.
type userLock struct {
	mu   sync.Mutex
	refs int
}

// RoleTransitionDependencies bundles collaborators.
type RoleTransitionDependencies struct {
	UserRepo   repository.UserRepository
	JobRepo    repository.JobRepository
	Dispatcher events.Dispatcher
	Metrics    *observability.Metrics
	Logger     *zap.Logger
}

// NewRoleTransitionService creates the service.
func NewRoleTransitionService(deps RoleTransitionDependencies) *RoleTransitionService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RoleTransitionService{
		users:      deps.UserRepo,
		jobs:       deps.JobRepo,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     logger,
		locks:      make(map[string]*userLock),
	}
}

// Evaluate runs the guard rules for one transition request. Policy
// rejections come back as an Outcome; only store read failures outside
// the taxonomy return an error. No mutation is issued unless every guard
// passes, and each call re-reads fresh store state.
func (s *RoleTransitionService) Evaluate(ctx context.Context, userID, requestedRole string) (Outcome, error) {
	unlock := s.lockUser(userID)
	defer unlock()

	outcome, err := s.evaluateLocked(ctx, userID, requestedRole)
	if err != nil {
		return outcome, err
	}

	if outcome.Allowed {
		s.metrics.RecordRoleTransition("success")
	} else {
		s.metrics.RecordRoleTransition(outcome.Reason)
		s.logger.Info("role transition rejected",
			zap.String("user_id", userID),
			zap.String("requested_role", requestedRole),
			zap.String("reason", outcome.Reason),
		)
	}
	return outcome, nil
}

func (s *RoleTransitionService) evaluateLocked(ctx context.Context, userID, requestedRole string) (Outcome, error) {
	newRole, ok := domain.ParseRole(requestedRole)
	if !ok {
		return reject(apperrors.CodeInvalidRole, fmt.Sprintf("unknown role %q", requestedRole)), nil
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return reject(apperrors.CodeNotFound, "user not found"), nil
		}
		return Outcome{}, apperrors.MapError(err)
	}

	// Role-less users are a tolerated data anomaly: the immutability and
	// workload guards need a current role to apply.
	roles, err := s.users.RolesOf(ctx, user.ID)
	if err != nil {
		return Outcome{}, apperrors.MapError(err)
	}
	var current *domain.Role
	if len(roles) > 0 {
		current = &roles[0]
	}

	if current != nil && *current == domain.RoleAdmin {
		return reject(apperrors.CodeAdminRoleImmutable, "admin role cannot be changed"), nil
	}

	if newRole == domain.RoleAdmin {
		admins, err := s.users.ListInRole(ctx, domain.RoleAdmin)
		if err != nil {
			return Outcome{}, apperrors.MapError(err)
		}
		for _, admin := range admins {
			if admin.ID != user.ID {
				return reject(apperrors.CodeAdminAlreadyExists,
					fmt.Sprintf("admin role already held by user %s", admin.ID)), nil
			}
		}
	}

	if current != nil && *current == domain.RoleTechnician && newRole != domain.RoleTechnician {
		count, err := s.jobs.CountActiveForTechnician(ctx, user.ID, domain.ActiveJobStatuses())
		if err != nil {
			return Outcome{}, apperrors.MapError(err)
		}
		if count > 0 {
			out := reject(apperrors.CodeTechnicianBusy,
				fmt.Sprintf("technician has %d active job(s)", count))
			out.ActiveJobs = count
			return out, nil
		}
	}

	if err := s.users.ReplaceRole(ctx, user.ID, newRole); err != nil {
		if errors.Is(err, repository.ErrAdminRoleTaken) {
			// Lost the race despite the read-time check; the storage
			// backstop kept the invariant.
			return reject(apperrors.CodeAdminAlreadyExists, "admin role already held"), nil
		}
		return reject(apperrors.CodeRoleAssignFailed, err.Error()), nil
	}

	s.publishRoleChanged(ctx, user.ID, current, newRole)
	return Outcome{Allowed: true}, nil
}

// RejectionError maps a rejected outcome onto the error taxonomy so the
// HTTP layer renders reason and detail uniformly.
func (o Outcome) RejectionError(userID string) error {
	switch o.Reason {
	case apperrors.CodeNotFound:
		return apperrors.NewNotFound("user", map[string]any{"user_id": userID})
	case apperrors.CodeInvalidRole:
		return apperrors.NewDomainError(o.Reason, o.Detail, http.StatusBadRequest, nil)
	case apperrors.CodeAdminRoleImmutable:
		return apperrors.NewAdminRoleImmutable(userID)
	case apperrors.CodeAdminAlreadyExists:
		return apperrors.NewDomainError(o.Reason, o.Detail, http.StatusConflict, map[string]any{"user_id": userID})
	case apperrors.CodeTechnicianBusy:
		return apperrors.NewTechnicianHasActiveJobs(userID, o.ActiveJobs)
	case apperrors.CodeRoleAssignFailed:
		return apperrors.NewRoleAssignmentFailed(errors.New(o.Detail))
	default:
		return apperrors.NewInternalError(errors.New(o.Detail))
	}
}

func (s *RoleTransitionService) publishRoleChanged(ctx context.Context, userID string, oldRole *domain.Role, newRole domain.Role) {
	if s.dispatcher == nil {
		return
	}
	event := events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventRoleChanged,
		SubjectID: userID,
		Timestamp: time.Now(),
		Payload: events.RoleChangedPayload{
			OldRole: oldRole,
			NewRole: newRole,
		},
	}
	_ = s.dispatcher.Publish(ctx, event)
}

// lockUser serializes evaluations per user id within this process. The
// returned release func drops the map entry when no other evaluation
// holds or awaits it, so the map stays proportional to in-flight work.
func (s *RoleTransitionService) lockUser(userID string) func() {
	s.mu.Lock()
	lock, ok := s.locks[userID]
	if !ok {
		lock = &userLock{}
		s.locks[userID] = lock
	}
	lock.refs++
	s.mu.Unlock()

	lock.mu.Lock()
	return func() {
		lock.mu.Unlock()
		s.mu.Lock()
		lock.refs--
		if lock.refs == 0 {
			delete(s.locks, userID)
		}
		s.mu.Unlock()
	}
}

func reject(reason, detail string) Outcome {
	return Outcome{Reason: reason, Detail: detail}
}
