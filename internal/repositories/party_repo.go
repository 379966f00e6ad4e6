package repositories

import (
	"context"

	"billease/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PartyRepository interface {
	Create(ctx context.Context, party *models.Party) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Party, error)
	Update(ctx context.Context, party *models.Party) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*models.Party, error)
	ListByType(ctx context.Context, partyType string, limit, offset int) ([]*models.Party, error)
	ListAll(ctx context.Context) ([]*models.Party, error)
}

type partyRepo struct {
	db *pgxpool.Pool
}

func NewPartyRepository(db *pgxpool.Pool) PartyRepository {
	return &partyRepo{db: db}
}

func (r *partyRepo) Create(ctx context.Context, party *models.Party) error {
	query := `
		INSERT INTO parties (id, name, phone, address, type, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query, party.ID, party.Name, party.Phone, party.Address, party.Type)
	return err
}

func (r *partyRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Party, error) {
	party := &models.Party{}
	query := `
		SELECT id, name, phone, address, type, created_at, updated_at
		FROM parties
		WHERE id = $1
	`
	err := r.db.QueryRow(ctx, query, id).Scan(&party.ID, &party.Name, &party.Phone, &party.Address, &party.Type, &party.CreatedAt, &party.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return party, nil
}

func (r *partyRepo) Update(ctx context.Context, party *models.Party) error {
	query := `
		UPDATE parties
		SET name = $1, phone = $2, address = $3, type = $4, updated_at = NOW()
		WHERE id = $5
	`
	_, err := r.db.Exec(ctx, query, party.Name, party.Phone, party.Address, party.Type, party.ID)
	return err
}

func (r *partyRepo) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM parties WHERE id = $1`
	_, err := r.db.Exec(ctx, query, id)
	return err
}

func (r *partyRepo) List(ctx context.Context, limit, offset int) ([]*models.Party, error) {
	query := `
		SELECT id, name, phone, address, type, created_at, updated_at
		FROM parties
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var parties []*models.Party
	for rows.Next() {
		party := &models.Party{}
		if err := rows.Scan(&party.ID, &party.Name, &party.Phone, &party.Address, &party.Type, &party.CreatedAt, &party.UpdatedAt); err != nil {
			return nil, err
		}
		parties = append(parties, party)
	}
	return parties, nil
}

func (r *partyRepo) ListByType(ctx context.Context, partyType string, limit, offset int) ([]*models.Party, error) {
	query := `
		SELECT id, name, phone, address, type, created_at, updated_at
		FROM parties
		WHERE type = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, partyType, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var parties []*models.Party
	for rows.Next() {
		party := &models.Party{}
		if err := rows.Scan(&party.ID, &party.Name, &party.Phone, &party.Address, &party.Type, &party.CreatedAt, &party.UpdatedAt); err != nil {
			return nil, err
		}
		parties = append(parties, party)
	}
	return parties, nil
}

func (r *partyRepo) ListAll(ctx context.Context) ([]*models.Party, error) {
	query := `
		SELECT id, name, phone, address, type, created_at, updated_at
		FROM parties
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var parties []*models.Party
	for rows.Next() {
		party := &models.Party{}
		if err := rows.Scan(&party.ID, &party.Name, &party.Phone, &party.Address, &party.Type, &party.CreatedAt, &party.UpdatedAt); err != nil {
			return nil, err
		}
		parties = append(parties, party)
	}
	return parties, nil
}
