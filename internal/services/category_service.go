package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/RelikeddDev/controlio/internal/core"
)

type CategoryService struct {
	store CategoryStore
	now   func() time.Time
}

func NewCategoryService(store CategoryStore) *CategoryService {
	return &CategoryService{store: store, now: time.Now}
}

func (s *CategoryService) Create(ctx context.Context, c core.Category) (core.Category, error) {
	if err := c.Validate(); err != nil {
		return core.Category{}, fmt.Errorf("validate category: %w", err)
	}
	c.ID = uuid.NewString()
	c.CreatedAt = s.now().UTC()
	if err := s.store.CreateCategory(ctx, c); err != nil {
		return core.Category{}, err
	}
	return c, nil
}

func (s *CategoryService) List(ctx context.Context) ([]core.Category, error) {
	return s.store.ListCategories(ctx)
}

func (s *CategoryService) Update(ctx context.Context, c core.Category) (core.Category, error) {
	if err := c.Validate(); err != nil {
		return core.Category{}, fmt.Errorf("validate category: %w", err)
	}
	existing, err := s.store.GetCategory(ctx, c.ID)
	if err != nil {
		return core.Category{}, err
	}
	c.CreatedAt = existing.CreatedAt
	if err := s.store.UpdateCategory(ctx, c); err != nil {
		return core.Category{}, err
	}
	return c, nil
}

func (s *CategoryService) Delete(ctx context.Context, id string) error {
	return s.store.DeleteCategory(ctx, id)
}
