package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"billease/internal/ledger"
	"billease/internal/logger"
	"billease/internal/models"
	"billease/internal/repositories"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// ErrInvoiceNotFound is returned when the referenced invoice does not exist.
var ErrInvoiceNotFound = errors.New("invoice not found")

// paymentRetries bounds optimistic-concurrency retries when recording a
// payment; a conflict means another payment landed between our read and
// write, so each retry re-reads the fresh balance.
const paymentRetries = 3

// InvoiceLineInput references a catalog item and a quantity for one line of
// a new invoice.
type InvoiceLineInput struct {
	ItemID   uuid.UUID `json:"item_id"`
	Quantity int       `json:"quantity"`
}

// CreateInvoiceInput carries everything needed to create an invoice.
type CreateInvoiceInput struct {
	PartyID   uuid.UUID          `json:"party_id"`
	Lines     []InvoiceLineInput `json:"lines"`
	IssueDate time.Time          `json:"issue_date"`
	DueDate   *time.Time         `json:"due_date"`
}

// InvoiceServiceInterface defines the interface for invoice service
type InvoiceServiceInterface interface {
	CreateInvoice(ctx context.Context, input *CreateInvoiceInput) (*models.Invoice, error)
	GetInvoiceByID(ctx context.Context, invoiceID uuid.UUID) (*models.Invoice, error)
	ListInvoices(ctx context.Context, limit, offset int) ([]*models.Invoice, error)
	GetUnpaidInvoices(ctx context.Context, limit, offset int) ([]*models.Invoice, error)
	GetInvoicesByDateRange(ctx context.Context, startDate, endDate time.Time) ([]*models.Invoice, error)
	DeleteInvoice(ctx context.Context, invoiceID uuid.UUID) error
	RecordPayment(ctx context.Context, invoiceID uuid.UUID, amount decimal.Decimal) (*models.Invoice, error)
}

type invoiceService struct {
	invoiceRepo repositories.InvoiceRepository
	partyRepo   repositories.PartyRepository
	itemRepo    repositories.ItemRepository
	cacheSvc    statsInvalidator
	log         zerolog.Logger
}

// statsInvalidator is the slice of the cache service invoice writes care
// about: dropping the stale dashboard aggregate.
type statsInvalidator interface {
	DeleteDashboardStats(ctx context.Context) error
}

// NewInvoiceService creates a new invoice service
func NewInvoiceService(invoiceRepo repositories.InvoiceRepository, partyRepo repositories.PartyRepository, itemRepo repositories.ItemRepository, cacheSvc statsInvalidator) InvoiceServiceInterface {
	return &invoiceService{
		invoiceRepo: invoiceRepo,
		partyRepo:   partyRepo,
		itemRepo:    itemRepo,
		cacheSvc:    cacheSvc,
		log:         logger.WithComponent("invoice-service"),
	}
}

// CreateInvoice validates the party and items, snapshots each item's price,
// HSN code and GST rate into the lines, computes the totals once, and stores
// the invoice with status due. Lines are immutable after this point.
func (s *invoiceService) CreateInvoice(ctx context.Context, input *CreateInvoiceInput) (*models.Invoice, error) {
	if len(input.Lines) == 0 {
		return nil, fmt.Errorf("%w: empty invoice", ledger.ErrInvalidInvoice)
	}

	if _, err := s.partyRepo.GetByID(ctx, input.PartyID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("party %s not found", input.PartyID)
		}
		return nil, fmt.Errorf("lookup party: %w", err)
	}

	lines := make([]models.InvoiceLine, 0, len(input.Lines))
	for _, in := range input.Lines {
		if in.Quantity < 1 {
			return nil, fmt.Errorf("%w: non-positive quantity for item %s", ledger.ErrInvalidInvoice, in.ItemID)
		}
		item, err := s.itemRepo.GetByID(ctx, in.ItemID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, fmt.Errorf("item %s not found", in.ItemID)
			}
			return nil, fmt.Errorf("lookup item: %w", err)
		}
		lines = append(lines, models.InvoiceLine{
			ItemID:        item.ID,
			ItemName:      item.Name,
			HSNCode:       item.HSNCode,
			UnitPrice:     item.Price,
			GSTPercentage: item.GSTPercentage,
			Quantity:      in.Quantity,
		})
	}

	totals, err := ledger.ComputeTotals(lines)
	if err != nil {
		return nil, err
	}

	issueDate := input.IssueDate
	if issueDate.IsZero() {
		issueDate = time.Now()
	}

	dueDate := input.DueDate
	if dueDate == nil {
		d := issueDate.AddDate(0, 0, 30)
		dueDate = &d
	}

	invoiceNumber, err := s.invoiceRepo.GenerateInvoiceNumber(ctx, issueDate)
	if err != nil {
		return nil, fmt.Errorf("generate invoice number: %w", err)
	}

	invoice := &models.Invoice{
		ID:            uuid.New(),
		InvoiceNumber: invoiceNumber,
		PartyID:       input.PartyID,
		Lines:         lines,
		IssueDate:     issueDate,
		DueDate:       dueDate,
		TotalAmount:   totals.Total,
		Status:        models.InvoiceStatusDue,
		Version:       1,
	}

	if err := s.invoiceRepo.Create(ctx, invoice); err != nil {
		return nil, fmt.Errorf("create invoice: %w", err)
	}

	s.invalidateStats(ctx)

	s.log.Info().
		Str("invoice_number", invoice.InvoiceNumber).
		Str("party_id", invoice.PartyID.String()).
		Str("total", totals.Total.String()).
		Msg("Invoice created")

	return invoice, nil
}

// GetInvoiceByID retrieves an invoice with its lines
func (s *invoiceService) GetInvoiceByID(ctx context.Context, invoiceID uuid.UUID) (*models.Invoice, error) {
	invoice, err := s.invoiceRepo.GetByID(ctx, invoiceID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvoiceNotFound
		}
		return nil, err
	}
	return invoice, nil
}

// ListInvoices retrieves invoices with pagination
func (s *invoiceService) ListInvoices(ctx context.Context, limit, offset int) ([]*models.Invoice, error) {
	return s.invoiceRepo.List(ctx, limit, offset)
}

// GetUnpaidInvoices retrieves invoices with an open balance (due or partial)
func (s *invoiceService) GetUnpaidInvoices(ctx context.Context, limit, offset int) ([]*models.Invoice, error) {
	return s.invoiceRepo.GetUnpaid(ctx, limit, offset)
}

// GetInvoicesByDateRange retrieves invoices issued within [startDate, endDate]
func (s *invoiceService) GetInvoicesByDateRange(ctx context.Context, startDate, endDate time.Time) ([]*models.Invoice, error) {
	if endDate.Before(startDate) {
		return nil, fmt.Errorf("end date %s precedes start date %s", endDate.Format("2006-01-02"), startDate.Format("2006-01-02"))
	}
	return s.invoiceRepo.GetByDateRange(ctx, startDate, endDate)
}

// DeleteInvoice deletes an invoice and its lines
func (s *invoiceService) DeleteInvoice(ctx context.Context, invoiceID uuid.UUID) error {
	if err := s.invoiceRepo.Delete(ctx, invoiceID); err != nil {
		return err
	}
	s.invalidateStats(ctx)
	return nil
}

// RecordPayment applies a payment to the invoice's balance and persists the
// result under an optimistic-concurrency check. The ledger computation is
// intentionally not idempotent, so the versioned update is what guarantees
// two racing payments both land instead of one overwriting the other: the
// loser re-reads the fresh balance and reapplies.
func (s *invoiceService) RecordPayment(ctx context.Context, invoiceID uuid.UUID, amount decimal.Decimal) (*models.Invoice, error) {
	var lastErr error
	for attempt := 0; attempt < paymentRetries; attempt++ {
		invoice, err := s.invoiceRepo.GetByID(ctx, invoiceID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, ErrInvoiceNotFound
			}
			return nil, err
		}

		updated, err := ledger.ApplyPayment(*invoice, amount)
		if err != nil {
			return nil, err
		}

		err = s.invoiceRepo.ApplyPayment(ctx, invoiceID, updated.TotalAmount, updated.Status, invoice.Version)
		if err == nil {
			updated.Version = invoice.Version + 1
			s.invalidateStats(ctx)
			s.log.Info().
				Str("invoice_number", invoice.InvoiceNumber).
				Str("amount", amount.String()).
				Str("remaining", updated.TotalAmount.String()).
				Str("status", updated.Status).
				Msg("Payment recorded")
			return &updated, nil
		}
		if !errors.Is(err, repositories.ErrVersionConflict) {
			return nil, err
		}
		lastErr = err
		s.log.Warn().
			Str("invoice_id", invoiceID.String()).
			Int("attempt", attempt+1).
			Msg("Concurrent payment detected, retrying")
	}
	return nil, fmt.Errorf("record payment: %w", lastErr)
}

func (s *invoiceService) invalidateStats(ctx context.Context) {
	if err := s.cacheSvc.DeleteDashboardStats(ctx); err != nil {
		s.log.Warn().Err(err).Msg("Failed to invalidate dashboard stats cache")
	}
}
