// Package ledger computes invoice financial totals and drives the payment
// status state machine. Every function is pure: callers pass values in and
// get new values out, and the persistence layer is responsible for storing
// results and for serializing concurrent payments to the same invoice
// (ApplyPayment is not idempotent).
package ledger

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"billease/internal/models"
)

var (
	// ErrInvalidInvoice is returned for empty line lists, non-positive
	// quantities and negative prices or GST rates.
	ErrInvalidInvoice = errors.New("invalid invoice")

	// ErrInvalidPayment is returned for non-positive payment amounts.
	ErrInvalidPayment = errors.New("invalid payment")
)

var hundred = decimal.NewFromInt(100)

// Totals holds the computed financials of an invoice at full precision.
// Two-decimal rounding is a display concern, not done here.
type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
}

// ComputeTotals sums price×quantity per line plus each line's own GST rate.
// Lines with different GST rates are taxed independently and then summed,
// never blended into one rate.
func ComputeTotals(lines []models.InvoiceLine) (Totals, error) {
	if len(lines) == 0 {
		return Totals{}, fmt.Errorf("%w: empty invoice", ErrInvalidInvoice)
	}

	subtotal := decimal.Zero
	tax := decimal.Zero
	for i, line := range lines {
		if line.Quantity < 1 {
			return Totals{}, fmt.Errorf("%w: non-positive quantity %d on line %d", ErrInvalidInvoice, line.Quantity, i)
		}
		if line.UnitPrice.IsNegative() {
			return Totals{}, fmt.Errorf("%w: negative unit price on line %d", ErrInvalidInvoice, i)
		}
		if line.GSTPercentage.IsNegative() {
			return Totals{}, fmt.Errorf("%w: negative GST rate on line %d", ErrInvalidInvoice, i)
		}

		lineAmount := line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))
		subtotal = subtotal.Add(lineAmount)
		tax = tax.Add(lineAmount.Mul(line.GSTPercentage).Div(hundred))
	}

	return Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Total:    subtotal.Add(tax),
	}, nil
}

// ApplyPayment subtracts amount from the invoice's remaining balance and
// reclassifies its status: remaining ≤ 0 means paid, anything else partial.
// A paid invoice never reverts to due. The input invoice is not mutated; the
// returned copy carries the new balance and status.
//
// Applying the same payment twice halves the balance twice — the caller must
// guarantee at-most-once application per logical payment (the repository's
// versioned update provides that).
func ApplyPayment(invoice models.Invoice, amount decimal.Decimal) (models.Invoice, error) {
	if !amount.IsPositive() {
		return models.Invoice{}, fmt.Errorf("%w: payment amount must be positive, got %s", ErrInvalidPayment, amount)
	}

	remaining := invoice.TotalAmount.Sub(amount)

	updated := invoice
	updated.TotalAmount = remaining
	if remaining.Sign() <= 0 {
		updated.Status = models.InvoiceStatusPaid
	} else {
		updated.Status = models.InvoiceStatusPartial
	}
	return updated, nil
}

// DashboardStats aggregates the headline numbers shown on the dashboard.
//
// TotalSales sums the invoices' current TotalAmount, which is the remaining
// balance after payments — a deliberate carry-over of the source data model,
// where sale value and receivable share one field.
type DashboardStats struct {
	TotalSales     decimal.Decimal `json:"total_sales"`
	Outstanding    decimal.Decimal `json:"outstanding"`
	TotalCustomers int             `json:"total_customers"`
	NewCustomers   int             `json:"new_customers"`
}

// AggregateDashboardStats computes dashboard statistics over the given
// invoices and parties. NewCustomers counts customers created in the 30 days
// before asOf. Empty inputs produce zero stats.
func AggregateDashboardStats(invoices []*models.Invoice, parties []*models.Party, asOf time.Time) DashboardStats {
	stats := DashboardStats{
		TotalSales:  decimal.Zero,
		Outstanding: decimal.Zero,
	}

	for _, inv := range invoices {
		stats.TotalSales = stats.TotalSales.Add(inv.TotalAmount)
		if inv.Status == models.InvoiceStatusDue || inv.Status == models.InvoiceStatusPartial {
			stats.Outstanding = stats.Outstanding.Add(inv.TotalAmount)
		}
	}

	cutoff := asOf.AddDate(0, 0, -30)
	for _, p := range parties {
		if p.Type != models.PartyTypeCustomer {
			continue
		}
		stats.TotalCustomers++
		if !p.CreatedAt.Before(cutoff) {
			stats.NewCustomers++
		}
	}

	return stats
}
