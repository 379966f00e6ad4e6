package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Invoice statuses
const (
	InvoiceStatusDue     = "due"
	InvoiceStatusPartial = "partial"
	InvoiceStatusPaid    = "paid"
)

// InvoiceLine is one item+quantity entry on an invoice. Price, HSN code and
// GST rate are snapshots taken from the item when the invoice was created.
type InvoiceLine struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	InvoiceID     uuid.UUID       `json:"invoice_id" db:"invoice_id"`
	ItemID        uuid.UUID       `json:"item_id" db:"item_id"`
	ItemName      string          `json:"item_name" db:"item_name"`
	HSNCode       string          `json:"hsn_code" db:"hsn_code"`
	UnitPrice     decimal.Decimal `json:"unit_price" db:"unit_price"`
	GSTPercentage decimal.Decimal `json:"gst_percentage" db:"gst_percentage"`
	Quantity      int             `json:"quantity" db:"quantity"`
}

// Invoice is a bill issued to a party. TotalAmount holds the remaining
// balance, not the original sale value: recording a payment decreases it.
// Version guards concurrent payment applications (compare-and-swap on
// update).
type Invoice struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	InvoiceNumber string          `json:"invoice_number" db:"invoice_number"`
	PartyID       uuid.UUID       `json:"party_id" db:"party_id"`
	Party         *Party          `json:"party,omitempty" db:"-"`
	Lines         []InvoiceLine   `json:"lines" db:"-"`
	IssueDate     time.Time       `json:"issue_date" db:"issue_date"`
	DueDate       *time.Time      `json:"due_date" db:"due_date"`
	TotalAmount   decimal.Decimal `json:"total_amount" db:"total_amount"`
	Status        string          `json:"status" db:"status"`
	Version       int64           `json:"version" db:"version"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`
}
