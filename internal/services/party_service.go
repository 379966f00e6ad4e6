package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"billease/internal/caching"
	"billease/internal/models"
	"billease/internal/repositories"

	"github.com/google/uuid"
)

const partyCacheTTL = 10 * time.Minute

type PartyService interface {
	Create(ctx context.Context, party *models.Party) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Party, error)
	Update(ctx context.Context, party *models.Party) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*models.Party, error)
	ListByType(ctx context.Context, partyType string, limit, offset int) ([]*models.Party, error)
}

type partyService struct {
	partyRepo repositories.PartyRepository
	cacheSvc  caching.CacheService
}

func NewPartyService(partyRepo repositories.PartyRepository, cacheSvc caching.CacheService) PartyService {
	return &partyService{partyRepo: partyRepo, cacheSvc: cacheSvc}
}

func (s *partyService) Create(ctx context.Context, party *models.Party) error {
	if party.Name == "" {
		return errors.New("party name is required")
	}
	if !models.ValidPartyType(party.Type) {
		return fmt.Errorf("invalid party type: %s. Must be one of: customer, supplier", party.Type)
	}

	if party.ID == uuid.Nil {
		party.ID = uuid.New()
	}
	return s.partyRepo.Create(ctx, party)
}

func (s *partyService) GetByID(ctx context.Context, id uuid.UUID) (*models.Party, error) {
	if cached, err := s.cacheSvc.GetParty(ctx, id); err == nil && cached != nil {
		return cached, nil
	}

	party, err := s.partyRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// best effort; a failed cache write never fails the read
	_ = s.cacheSvc.SetParty(ctx, party, partyCacheTTL)

	return party, nil
}

func (s *partyService) Update(ctx context.Context, party *models.Party) error {
	if !models.ValidPartyType(party.Type) {
		return fmt.Errorf("invalid party type: %s. Must be one of: customer, supplier", party.Type)
	}

	if err := s.partyRepo.Update(ctx, party); err != nil {
		return err
	}
	return s.cacheSvc.DeleteParty(ctx, party.ID)
}

func (s *partyService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.partyRepo.Delete(ctx, id); err != nil {
		return err
	}
	return s.cacheSvc.DeleteParty(ctx, id)
}

func (s *partyService) List(ctx context.Context, limit, offset int) ([]*models.Party, error) {
	return s.partyRepo.List(ctx, limit, offset)
}

func (s *partyService) ListByType(ctx context.Context, partyType string, limit, offset int) ([]*models.Party, error) {
	if !models.ValidPartyType(partyType) {
		return nil, fmt.Errorf("invalid party type: %s", partyType)
	}
	return s.partyRepo.ListByType(ctx, partyType, limit, offset)
}
