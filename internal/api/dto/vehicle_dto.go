package dto

import (
	"time"

	"github.com/garage-kit/shop-service/internal/domain"
)

// RegisterVehicleRequest payload.
type RegisterVehicleRequest struct {
	Plate string `json:"plate"`
	Make  string `json:"make"`
	Model string `json:"model"`
	Year  int    `json:"year"`
}

// VehicleResponse projects a vehicle.
type VehicleResponse struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Plate     string    `json:"plate"`
	Make      string    `json:"make"`
	Model     string    `json:"model"`
	Year      int       `json:"year"`
	CreatedAt time.Time `json:"created_at"`
}

// NewVehicleResponse maps the domain model.
func NewVehicleResponse(vehicle *domain.Vehicle) VehicleResponse {
	return VehicleResponse{
		ID:        vehicle.ID,
		OwnerID:   vehicle.OwnerID,
		Plate:     vehicle.Plate,
		Make:      vehicle.Make,
		Model:     vehicle.Model,
		Year:      vehicle.Year,
		CreatedAt: vehicle.CreatedAt,
	}
}
