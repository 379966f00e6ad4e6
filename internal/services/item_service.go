package services

import (
	"context"
	"errors"
	"time"

	"billease/internal/caching"
	"billease/internal/models"
	"billease/internal/repositories"

	"github.com/google/uuid"
)

const itemCacheTTL = 10 * time.Minute

type ItemService interface {
	Create(ctx context.Context, item *models.Item) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Item, error)
	Update(ctx context.Context, item *models.Item) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*models.Item, error)
	Search(ctx context.Context, query string, limit, offset int) ([]*models.Item, error)
}

type itemService struct {
	itemRepo repositories.ItemRepository
	cacheSvc caching.CacheService
}

func NewItemService(itemRepo repositories.ItemRepository, cacheSvc caching.CacheService) ItemService {
	return &itemService{itemRepo: itemRepo, cacheSvc: cacheSvc}
}

func validateItem(item *models.Item) error {
	if item.Name == "" {
		return errors.New("item name is required")
	}
	if item.Price.IsNegative() {
		return errors.New("item price cannot be negative")
	}
	if item.GSTPercentage.IsNegative() {
		return errors.New("GST percentage cannot be negative")
	}
	return nil
}

func (s *itemService) Create(ctx context.Context, item *models.Item) error {
	if err := validateItem(item); err != nil {
		return err
	}
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	return s.itemRepo.Create(ctx, item)
}

func (s *itemService) GetByID(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	if cached, err := s.cacheSvc.GetItem(ctx, id); err == nil && cached != nil {
		return cached, nil
	}

	item, err := s.itemRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	_ = s.cacheSvc.SetItem(ctx, item, itemCacheTTL)

	return item, nil
}

// Update edits the catalog entry only. Invoice lines that already snapshot
// this item keep their original price and GST rate.
func (s *itemService) Update(ctx context.Context, item *models.Item) error {
	if err := validateItem(item); err != nil {
		return err
	}
	if err := s.itemRepo.Update(ctx, item); err != nil {
		return err
	}
	return s.cacheSvc.DeleteItem(ctx, item.ID)
}

func (s *itemService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.itemRepo.Delete(ctx, id); err != nil {
		return err
	}
	return s.cacheSvc.DeleteItem(ctx, id)
}

func (s *itemService) List(ctx context.Context, limit, offset int) ([]*models.Item, error) {
	return s.itemRepo.List(ctx, limit, offset)
}

func (s *itemService) Search(ctx context.Context, query string, limit, offset int) ([]*models.Item, error) {
	return s.itemRepo.Search(ctx, query, limit, offset)
}
