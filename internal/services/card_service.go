package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/RelikeddDev/controlio/internal/core"
)

// CardService validates and persists payment cards.
type CardService struct {
	store CardStore
	now   func() time.Time
}

func NewCardService(store CardStore) *CardService {
	return &CardService{store: store, now: time.Now}
}

func (s *CardService) Create(ctx context.Context, c core.Card) (core.Card, error) {
	if err := c.Validate(); err != nil {
		return core.Card{}, fmt.Errorf("validate card: %w", err)
	}
	c.ID = uuid.NewString()
	c.CreatedAt = s.now().UTC()
	c.UpdatedAt = c.CreatedAt
	if err := s.store.CreateCard(ctx, c); err != nil {
		return core.Card{}, err
	}
	return c, nil
}

func (s *CardService) Get(ctx context.Context, id string) (core.Card, error) {
	return s.store.GetCard(ctx, id)
}

func (s *CardService) List(ctx context.Context) ([]core.Card, error) {
	return s.store.ListCards(ctx)
}

func (s *CardService) Update(ctx context.Context, c core.Card) (core.Card, error) {
	if err := c.Validate(); err != nil {
		return core.Card{}, fmt.Errorf("validate card: %w", err)
	}
	existing, err := s.store.GetCard(ctx, c.ID)
	if err != nil {
		return core.Card{}, err
	}
	c.CreatedAt = existing.CreatedAt
	c.UpdatedAt = s.now().UTC()
	if err := s.store.UpdateCard(ctx, c); err != nil {
		return core.Card{}, err
	}
	return c, nil
}

func (s *CardService) Delete(ctx context.Context, id string) error {
	return s.store.DeleteCard(ctx, id)
}
