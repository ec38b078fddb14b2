package dto

import (
	"time"

	"github.com/garage-kit/shop-service/internal/domain"
)

// UserResponse projects a user for API consumers.
type UserResponse struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Email     string       `json:"email"`
	Role      *domain.Role `json:"role"`
	Active    bool         `json:"active"`
	CreatedAt time.Time    `json:"created_at"`
}

// NewUserResponse maps the domain model.
func NewUserResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Role:      user.Role,
		Active:    user.Active,
		CreatedAt: user.CreatedAt,
	}
}

// RoleChangeRequest payload for the role transition endpoint.
type RoleChangeRequest struct {
	Role string `json:"role"`
}
