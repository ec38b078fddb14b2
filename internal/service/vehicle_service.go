package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/garage-kit/shop-service/internal/domain"
	"github.com/garage-kit/shop-service/internal/repository"
	apperrors "github.com/garage-kit/shop-service/pkg/util/errorutil"
)

// VehicleService manages customer vehicles.
type VehicleService struct {
	vehicles repository.VehicleRepository
}

// NewVehicleService constructs the service.
func NewVehicleService(vehicles repository.VehicleRepository) *VehicleService {
	return &VehicleService{vehicles: vehicles}
}

// VehicleInput describes a vehicle registration.
type VehicleInput struct {
	Plate string
	Make  string
	Model string
	Year  int
}

// Register adds a vehicle under the customer's account.
func (s *VehicleService) Register(ctx context.Context, owner *domain.User, input VehicleInput) (*domain.Vehicle, error) {
	if input.Plate == "" || input.Make == "" || input.Model == "" {
		return nil, apperrors.NewValidationError("plate, make and model required", nil)
	}
	if existing, err := s.vehicles.GetByPlate(ctx, input.Plate); err == nil && existing != nil {
		return nil, apperrors.NewConflict("plate already registered", map[string]any{"plate": input.Plate})
	} else if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	vehicle := &domain.Vehicle{
		OwnerID: owner.ID,
		Plate:   input.Plate,
		Make:    input.Make,
		Model:   input.Model,
		Year:    input.Year,
	}
	if err := s.vehicles.Create(ctx, vehicle); err != nil {
		return nil, apperrors.MapError(err)
	}
	return vehicle, nil
}

// ListOwn returns the customer's vehicles.
func (s *VehicleService) ListOwn(ctx context.Context, ownerID string) ([]domain.Vehicle, error) {
	vehicles, err := s.vehicles.ListByOwner(ctx, ownerID)
	return vehicles, apperrors.MapError(err)
}

// Get fetches a vehicle, restricting customers to their own.
func (s *VehicleService) Get(ctx context.Context, actor *domain.User, id string) (*domain.Vehicle, error) {
	vehicle, err := s.vehicles.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("vehicle", map[string]any{"vehicle_id": id})
		}
		return nil, apperrors.MapError(err)
	}
	if actor.HasRole(domain.RoleCustomer) && vehicle.OwnerID != actor.ID {
		return nil, apperrors.NewForbidden("access denied")
	}
	return vehicle, nil
}
