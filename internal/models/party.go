package models

import (
	"time"

	"github.com/google/uuid"
)

// Party types
const (
	PartyTypeCustomer = "customer"
	PartyTypeSupplier = "supplier"
)

// Party represents a customer or supplier the business bills or buys from
type Party struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Phone     *string   `json:"phone" db:"phone"`
	Address   *string   `json:"address" db:"address"`
	Type      string    `json:"type" db:"type"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// ValidPartyType reports whether t is a known party type.
func ValidPartyType(t string) bool {
	return t == PartyTypeCustomer || t == PartyTypeSupplier
}
