package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Item is a sellable catalog entry with GST metadata. Invoice lines copy the
// price, HSN code and GST rate at the time the line is added, so later item
// edits never change an existing invoice.
type Item struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	Name          string          `json:"name" db:"name"`
	Price         decimal.Decimal `json:"price" db:"price"`
	HSNCode       string          `json:"hsn_code" db:"hsn_code"`
	GSTPercentage decimal.Decimal `json:"gst_percentage" db:"gst_percentage"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`
}
