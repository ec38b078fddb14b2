package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/garage-kit/shop-service/internal/domain"
	"github.com/garage-kit/shop-service/internal/repository"
	apperrors "github.com/garage-kit/shop-service/pkg/util/errorutil"
)

// InventoryService manages part categories and stock.
type InventoryService struct {
	categories repository.CategoryRepository
	parts      repository.PartRepository
}

// NewInventoryService constructs the service.
func NewInventoryService(categories repository.CategoryRepository, parts repository.PartRepository) *InventoryService {
	return &InventoryService{categories: categories, parts: parts}
}

// PartInput describes part creation or update fields.
type PartInput struct {
	CategoryID     string
	Name           string
	SKU            string
	UnitPriceCents int64
	StockQty       int
}

// CreateCategory adds a category.
func (s *InventoryService) CreateCategory(ctx context.Context, actor *domain.User, name, description string) (*domain.Category, error) {
	if err := requireManager(actor); err != nil {
		return nil, err
	}
	if name == "" {
		return nil, apperrors.NewValidationError("name required", nil)
	}
	category := &domain.Category{
		Name:        name,
		Description: description,
		IsActive:    true,
	}
	if err := s.categories.Create(ctx, category); err != nil {
		return nil, apperrors.MapError(err)
	}
	return category, nil
}

// UpdateCategory modifies category metadata.
func (s *InventoryService) UpdateCategory(ctx context.Context, actor *domain.User, category *domain.Category) (*domain.Category, error) {
	if err := requireManager(actor); err != nil {
		return nil, err
	}
	if err := s.categories.Update(ctx, category); err != nil {
		return nil, apperrors.MapError(err)
	}
	return category, nil
}

// GetCategory fetches one category.
func (s *InventoryService) GetCategory(ctx context.Context, id string) (*domain.Category, error) {
	category, err := s.categories.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("category", map[string]any{"category_id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return category, nil
}

// ListCategories returns categories, optionally including inactive ones.
func (s *InventoryService) ListCategories(ctx context.Context, includeInactive bool) ([]domain.Category, error) {
	categories, err := s.categories.List(ctx, includeInactive)
	return categories, apperrors.MapError(err)
}

// CreatePart adds a part under an active category.
func (s *InventoryService) CreatePart(ctx context.Context, actor *domain.User, input PartInput) (*domain.Part, error) {
	if err := requireManager(actor); err != nil {
		return nil, err
	}
	if input.Name == "" || input.SKU == "" {
		return nil, apperrors.NewValidationError("name and sku required", nil)
	}
	if input.UnitPriceCents < 0 || input.StockQty < 0 {
		return nil, apperrors.NewValidationError("price and stock must be non-negative", nil)
	}

	category, err := s.categories.GetByID(ctx, input.CategoryID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("category", map[string]any{"category_id": input.CategoryID})
		}
		return nil, apperrors.MapError(err)
	}
	if !category.IsActive {
		return nil, apperrors.NewConflict("category inactive", map[string]any{"category_id": input.CategoryID})
	}

	if existing, err := s.parts.GetBySKU(ctx, input.SKU); err == nil && existing != nil {
		return nil, apperrors.NewConflict("sku already exists", map[string]any{"sku": input.SKU})
	} else if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	part := &domain.Part{
		CategoryID:     category.ID,
		Name:           input.Name,
		SKU:            input.SKU,
		UnitPriceCents: input.UnitPriceCents,
		StockQty:       input.StockQty,
	}
	if err := s.parts.Create(ctx, part); err != nil {
		return nil, apperrors.MapError(err)
	}
	return part, nil
}

// ListParts lists parts with filters.
func (s *InventoryService) ListParts(ctx context.Context, filter repository.PartFilter) ([]domain.Part, error) {
	parts, err := s.parts.List(ctx, filter)
	return parts, apperrors.MapError(err)
}

// AdjustStock applies a delta to a part's stock, rejecting negatives.
func (s *InventoryService) AdjustStock(ctx context.Context, actor *domain.User, partID string, delta int) (*domain.Part, error) {
	if err := requireManager(actor); err != nil {
		return nil, err
	}
	part, err := s.parts.AdjustStock(ctx, partID, delta)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrInsufficientStock):
			return nil, apperrors.NewConflict("insufficient stock", map[string]any{"part_id": partID, "delta": delta})
		case errors.Is(err, pgx.ErrNoRows):
			return nil, apperrors.NewNotFound("part", map[string]any{"part_id": partID})
		default:
			return nil, apperrors.MapError(err)
		}
	}
	return part, nil
}
