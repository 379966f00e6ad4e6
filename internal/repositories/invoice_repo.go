package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"billease/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

// ErrVersionConflict is returned when a versioned invoice update finds the
// row already changed by a concurrent writer.
var ErrVersionConflict = errors.New("invoice version conflict")

// PgxIface is the subset of pgxpool.Pool the invoice repository needs;
// pgxmock satisfies it in tests.
type PgxIface interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type InvoiceRepository interface {
	Create(ctx context.Context, invoice *models.Invoice) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Invoice, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*models.Invoice, error)
	ListAll(ctx context.Context) ([]*models.Invoice, error)
	GetUnpaid(ctx context.Context, limit, offset int) ([]*models.Invoice, error)
	GetByDateRange(ctx context.Context, startDate, endDate time.Time) ([]*models.Invoice, error)
	ApplyPayment(ctx context.Context, id uuid.UUID, totalAmount decimal.Decimal, status string, expectedVersion int64) error
	GenerateInvoiceNumber(ctx context.Context, issueDate time.Time) (string, error)
}

type invoiceRepo struct {
	db PgxIface
}

func NewInvoiceRepository(db PgxIface) InvoiceRepository {
	return &invoiceRepo{db: db}
}

// Create inserts the invoice header and its line snapshots in one
// transaction; an invoice is never visible without its lines.
func (r *invoiceRepo) Create(ctx context.Context, invoice *models.Invoice) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	headerQuery := `
		INSERT INTO invoices (id, invoice_number, party_id, issue_date, due_date, total_amount, status, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 1, NOW(), NOW())
	`
	_, err = tx.Exec(ctx, headerQuery, invoice.ID, invoice.InvoiceNumber, invoice.PartyID, invoice.IssueDate, invoice.DueDate, invoice.TotalAmount, invoice.Status)
	if err != nil {
		return err
	}

	lineQuery := `
		INSERT INTO invoice_lines (id, invoice_id, item_id, item_name, hsn_code, unit_price, gst_percentage, quantity)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	for i := range invoice.Lines {
		line := &invoice.Lines[i]
		if line.ID == uuid.Nil {
			line.ID = uuid.New()
		}
		line.InvoiceID = invoice.ID
		_, err = tx.Exec(ctx, lineQuery, line.ID, line.InvoiceID, line.ItemID, line.ItemName, line.HSNCode, line.UnitPrice, line.GSTPercentage, line.Quantity)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *invoiceRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	invoice := &models.Invoice{}
	query := `
		SELECT id, invoice_number, party_id, issue_date, due_date, total_amount, status, version, created_at, updated_at
		FROM invoices
		WHERE id = $1
	`
	err := r.db.QueryRow(ctx, query, id).Scan(&invoice.ID, &invoice.InvoiceNumber, &invoice.PartyID, &invoice.IssueDate, &invoice.DueDate, &invoice.TotalAmount, &invoice.Status, &invoice.Version, &invoice.CreatedAt, &invoice.UpdatedAt)
	if err != nil {
		return nil, err
	}

	lines, err := r.getLines(ctx, id)
	if err != nil {
		return nil, err
	}
	invoice.Lines = lines

	return invoice, nil
}

func (r *invoiceRepo) getLines(ctx context.Context, invoiceID uuid.UUID) ([]models.InvoiceLine, error) {
	query := `
		SELECT id, invoice_id, item_id, item_name, hsn_code, unit_price, gst_percentage, quantity
		FROM invoice_lines
		WHERE invoice_id = $1
		ORDER BY item_name ASC
	`
	rows, err := r.db.Query(ctx, query, invoiceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []models.InvoiceLine
	for rows.Next() {
		line := models.InvoiceLine{}
		if err := rows.Scan(&line.ID, &line.InvoiceID, &line.ItemID, &line.ItemName, &line.HSNCode, &line.UnitPrice, &line.GSTPercentage, &line.Quantity); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, nil
}

// Delete removes the invoice and its lines in one transaction.
func (r *invoiceRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM invoice_lines WHERE invoice_id = $1`, id); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM invoices WHERE id = $1`, id); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *invoiceRepo) List(ctx context.Context, limit, offset int) ([]*models.Invoice, error) {
	query := `
		SELECT id, invoice_number, party_id, issue_date, due_date, total_amount, status, version, created_at, updated_at
		FROM invoices
		ORDER BY issue_date DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invoices []*models.Invoice
	for rows.Next() {
		invoice := &models.Invoice{}
		if err := rows.Scan(&invoice.ID, &invoice.InvoiceNumber, &invoice.PartyID, &invoice.IssueDate, &invoice.DueDate, &invoice.TotalAmount, &invoice.Status, &invoice.Version, &invoice.CreatedAt, &invoice.UpdatedAt); err != nil {
			return nil, err
		}
		invoices = append(invoices, invoice)
	}
	return invoices, nil
}

func (r *invoiceRepo) ListAll(ctx context.Context) ([]*models.Invoice, error) {
	query := `
		SELECT id, invoice_number, party_id, issue_date, due_date, total_amount, status, version, created_at, updated_at
		FROM invoices
		ORDER BY issue_date DESC
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invoices []*models.Invoice
	for rows.Next() {
		invoice := &models.Invoice{}
		if err := rows.Scan(&invoice.ID, &invoice.InvoiceNumber, &invoice.PartyID, &invoice.IssueDate, &invoice.DueDate, &invoice.TotalAmount, &invoice.Status, &invoice.Version, &invoice.CreatedAt, &invoice.UpdatedAt); err != nil {
			return nil, err
		}
		invoices = append(invoices, invoice)
	}
	return invoices, nil
}

func (r *invoiceRepo) GetUnpaid(ctx context.Context, limit, offset int) ([]*models.Invoice, error) {
	query := `
		SELECT id, invoice_number, party_id, issue_date, due_date, total_amount, status, version, created_at, updated_at
		FROM invoices
		WHERE status IN ($1, $2)
		ORDER BY issue_date DESC
		LIMIT $3 OFFSET $4
	`
	rows, err := r.db.Query(ctx, query, models.InvoiceStatusDue, models.InvoiceStatusPartial, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invoices []*models.Invoice
	for rows.Next() {
		invoice := &models.Invoice{}
		if err := rows.Scan(&invoice.ID, &invoice.InvoiceNumber, &invoice.PartyID, &invoice.IssueDate, &invoice.DueDate, &invoice.TotalAmount, &invoice.Status, &invoice.Version, &invoice.CreatedAt, &invoice.UpdatedAt); err != nil {
			return nil, err
		}
		invoices = append(invoices, invoice)
	}
	return invoices, nil
}

func (r *invoiceRepo) GetByDateRange(ctx context.Context, startDate, endDate time.Time) ([]*models.Invoice, error) {
	query := `
		SELECT id, invoice_number, party_id, issue_date, due_date, total_amount, status, version, created_at, updated_at
		FROM invoices
		WHERE issue_date BETWEEN $1 AND $2
		ORDER BY issue_date DESC
	`
	rows, err := r.db.Query(ctx, query, startDate, endDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invoices []*models.Invoice
	for rows.Next() {
		invoice := &models.Invoice{}
		if err := rows.Scan(&invoice.ID, &invoice.InvoiceNumber, &invoice.PartyID, &invoice.IssueDate, &invoice.DueDate, &invoice.TotalAmount, &invoice.Status, &invoice.Version, &invoice.CreatedAt, &invoice.UpdatedAt); err != nil {
			return nil, err
		}
		invoices = append(invoices, invoice)
	}
	return invoices, nil
}

// ApplyPayment persists a payment result with a compare-and-swap on the
// version column. A concurrent payment that won the race leaves this update
// matching zero rows, which surfaces as ErrVersionConflict so the caller can
// re-read and retry instead of silently losing the earlier payment.
func (r *invoiceRepo) ApplyPayment(ctx context.Context, id uuid.UUID, totalAmount decimal.Decimal, status string, expectedVersion int64) error {
	query := `
		UPDATE invoices
		SET total_amount = $1, status = $2, version = version + 1, updated_at = NOW()
		WHERE id = $3 AND version = $4
	`
	tag, err := r.db.Exec(ctx, query, totalAmount, status, id, expectedVersion)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrVersionConflict
	}
	return nil
}

// GenerateInvoiceNumber generates a unique monthly-sequenced invoice number
func (r *invoiceRepo) GenerateInvoiceNumber(ctx context.Context, issueDate time.Time) (string, error) {
	yearMonth := issueDate.Format("2006-01")

	query := `
		WITH upsert AS (
			INSERT INTO invoice_sequences (year_month, last_number)
			VALUES ($1, 1)
			ON CONFLICT (year_month)
			DO UPDATE SET
				last_number = invoice_sequences.last_number + 1,
				updated_at = NOW()
			RETURNING last_number
		)
		SELECT last_number FROM upsert;
	`

	var sequenceNum int
	err := r.db.QueryRow(ctx, query, yearMonth).Scan(&sequenceNum)
	if err != nil {
		return "", fmt.Errorf("failed to generate invoice sequence: %w", err)
	}

	return fmt.Sprintf("INV-%s-%04d", yearMonth, sequenceNum), nil
}
