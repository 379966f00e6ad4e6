package ledger

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"billease/internal/models"
)

func line(price string, qty int, gst string) models.InvoiceLine {
	return models.InvoiceLine{
		UnitPrice:     decimal.RequireFromString(price),
		Quantity:      qty,
		GSTPercentage: decimal.RequireFromString(gst),
	}
}

func TestComputeTotals(t *testing.T) {
	tests := []struct {
		name     string
		lines    []models.InvoiceLine
		subtotal string
		tax      string
		total    string
	}{
		{
			name: "two lines same gst rate",
			lines: []models.InvoiceLine{
				line("60", 5, "5"),
				line("250", 2, "5"),
			},
			subtotal: "800",
			tax:      "40",
			total:    "840",
		},
		{
			name: "mixed gst rates taxed per line",
			lines: []models.InvoiceLine{
				line("25", 10, "0"),
				line("10", 20, "18"),
			},
			subtotal: "450",
			tax:      "36",
			total:    "486",
		},
		{
			name:     "single zero-price line",
			lines:    []models.InvoiceLine{line("0", 1, "12")},
			subtotal: "0",
			tax:      "0",
			total:    "0",
		},
		{
			name:     "fractional price keeps precision",
			lines:    []models.InvoiceLine{line("99.99", 3, "18")},
			subtotal: "299.97",
			tax:      "53.9946",
			total:    "353.9646",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			totals, err := ComputeTotals(tt.lines)
			require.NoError(t, err)
			assert.True(t, totals.Subtotal.Equal(decimal.RequireFromString(tt.subtotal)), "subtotal = %s", totals.Subtotal)
			assert.True(t, totals.Tax.Equal(decimal.RequireFromString(tt.tax)), "tax = %s", totals.Tax)
			assert.True(t, totals.Total.Equal(decimal.RequireFromString(tt.total)), "total = %s", totals.Total)
			// total must always decompose into subtotal + tax
			assert.True(t, totals.Total.Equal(totals.Subtotal.Add(totals.Tax)))
		})
	}
}

func TestComputeTotalsIdempotent(t *testing.T) {
	lines := []models.InvoiceLine{line("60", 5, "5"), line("250", 2, "5")}

	first, err := ComputeTotals(lines)
	require.NoError(t, err)
	second, err := ComputeTotals(lines)
	require.NoError(t, err)

	assert.True(t, first.Subtotal.Equal(second.Subtotal))
	assert.True(t, first.Tax.Equal(second.Tax))
	assert.True(t, first.Total.Equal(second.Total))
}

func TestComputeTotalsRejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name  string
		lines []models.InvoiceLine
	}{
		{"empty invoice", nil},
		{"zero quantity", []models.InvoiceLine{line("60", 0, "5")}},
		{"negative quantity", []models.InvoiceLine{line("60", -2, "5")}},
		{"negative price", []models.InvoiceLine{line("-60", 1, "5")}},
		{"negative gst rate", []models.InvoiceLine{line("60", 1, "-5")}},
		{"bad line after good line", []models.InvoiceLine{line("60", 5, "5"), line("250", 0, "5")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ComputeTotals(tt.lines)
			assert.ErrorIs(t, err, ErrInvalidInvoice)
		})
	}
}

func TestApplyPaymentTransitions(t *testing.T) {
	tests := []struct {
		name       string
		total      string
		status     string
		payment    string
		wantTotal  string
		wantStatus string
	}{
		{"due to partial", "450", models.InvoiceStatusDue, "200", "250", models.InvoiceStatusPartial},
		{"partial to paid", "250", models.InvoiceStatusPartial, "250", "0", models.InvoiceStatusPaid},
		{"due to paid exact", "840", models.InvoiceStatusDue, "840", "0", models.InvoiceStatusPaid},
		{"overpayment goes negative but paid", "100", models.InvoiceStatusDue, "150", "-50", models.InvoiceStatusPaid},
		{"partial stays partial", "500", models.InvoiceStatusPartial, "100", "400", models.InvoiceStatusPartial},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := models.Invoice{
				TotalAmount: decimal.RequireFromString(tt.total),
				Status:      tt.status,
			}
			updated, err := ApplyPayment(inv, decimal.RequireFromString(tt.payment))
			require.NoError(t, err)
			assert.True(t, updated.TotalAmount.Equal(decimal.RequireFromString(tt.wantTotal)), "remaining = %s", updated.TotalAmount)
			assert.Equal(t, tt.wantStatus, updated.Status)
		})
	}
}

func TestApplyPaymentDoesNotMutateInput(t *testing.T) {
	inv := models.Invoice{
		TotalAmount: decimal.RequireFromString("450"),
		Status:      models.InvoiceStatusDue,
	}

	updated, err := ApplyPayment(inv, decimal.RequireFromString("200"))
	require.NoError(t, err)

	assert.True(t, inv.TotalAmount.Equal(decimal.RequireFromString("450")))
	assert.Equal(t, models.InvoiceStatusDue, inv.Status)
	assert.True(t, updated.TotalAmount.Equal(decimal.RequireFromString("250")))
}

func TestApplyPaymentNotIdempotent(t *testing.T) {
	inv := models.Invoice{
		TotalAmount: decimal.RequireFromString("400"),
		Status:      models.InvoiceStatusDue,
	}
	payment := decimal.RequireFromString("150")

	once, err := ApplyPayment(inv, payment)
	require.NoError(t, err)
	twice, err := ApplyPayment(once, payment)
	require.NoError(t, err)

	// a replayed payment keeps draining the balance
	assert.True(t, once.TotalAmount.Equal(decimal.RequireFromString("250")))
	assert.True(t, twice.TotalAmount.Equal(decimal.RequireFromString("100")))
	assert.True(t, twice.TotalAmount.LessThan(once.TotalAmount))
}

func TestApplyPaymentRejectsNonPositiveAmounts(t *testing.T) {
	inv := models.Invoice{TotalAmount: decimal.RequireFromString("100"), Status: models.InvoiceStatusDue}

	_, err := ApplyPayment(inv, decimal.Zero)
	assert.ErrorIs(t, err, ErrInvalidPayment)

	_, err = ApplyPayment(inv, decimal.RequireFromString("-5"))
	assert.ErrorIs(t, err, ErrInvalidPayment)
}

func TestAggregateDashboardStats(t *testing.T) {
	asOf := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)

	invoices := []*models.Invoice{
		{TotalAmount: decimal.RequireFromString("800"), Status: models.InvoiceStatusPaid},
		{TotalAmount: decimal.RequireFromString("450"), Status: models.InvoiceStatusDue},
		{TotalAmount: decimal.RequireFromString("780"), Status: models.InvoiceStatusPartial},
	}
	parties := []*models.Party{
		{Type: models.PartyTypeCustomer, CreatedAt: asOf.AddDate(0, 0, -5)},
		{Type: models.PartyTypeCustomer, CreatedAt: asOf.AddDate(0, 0, -45)},
		{Type: models.PartyTypeSupplier, CreatedAt: asOf.AddDate(0, 0, -1)},
	}

	stats := AggregateDashboardStats(invoices, parties, asOf)

	assert.True(t, stats.TotalSales.Equal(decimal.RequireFromString("2030")), "total sales = %s", stats.TotalSales)
	assert.True(t, stats.Outstanding.Equal(decimal.RequireFromString("1230")), "outstanding = %s", stats.Outstanding)
	assert.Equal(t, 2, stats.TotalCustomers)
	assert.Equal(t, 1, stats.NewCustomers)
}

func TestAggregateDashboardStatsEmptyInputs(t *testing.T) {
	stats := AggregateDashboardStats(nil, nil, time.Now())

	assert.True(t, stats.TotalSales.IsZero())
	assert.True(t, stats.Outstanding.IsZero())
	assert.Zero(t, stats.TotalCustomers)
	assert.Zero(t, stats.NewCustomers)
}

func TestAggregateDashboardStatsCustomerCreatedExactlyOnCutoff(t *testing.T) {
	asOf := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	parties := []*models.Party{
		{Type: models.PartyTypeCustomer, CreatedAt: asOf.AddDate(0, 0, -30)},
	}

	stats := AggregateDashboardStats(nil, parties, asOf)

	// createdAt >= asOf-30d counts as new
	assert.Equal(t, 1, stats.NewCustomers)
}
