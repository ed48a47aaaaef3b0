package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryType represents the direction of a ledger entry.
type EntryType string

const (
	EntryTypeIncome  EntryType = "income"
	EntryTypeExpense EntryType = "expense"
)

// EntryStatus represents the completion state of a ledger entry.
type EntryStatus string

const (
	EntryStatusCompleted EntryStatus = "completed"
	EntryStatusPending   EntryStatus = "pending"
)

// LedgerEntry is a posted accounting record. The pipeline creates entries
// through the entry writer; full CRUD for entries lives outside this core.
type LedgerEntry struct {
	Base
	Type        EntryType       `gorm:"not null" json:"type"`
	Category    string          `gorm:"not null" json:"category"`
	Description string          `json:"description"`
	Detail      string          `json:"detail"`
	Amount      decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"amount"`
	Currency    string          `gorm:"size:3;not null" json:"currency"`
	EntryDate   time.Time       `gorm:"not null;index" json:"entry_date"`
	Status      EntryStatus     `gorm:"not null;default:completed" json:"status"`

	EmployeeID *uint `json:"employee_id,omitempty"`

	// Back-link to the provider transaction this entry was created from.
	ProviderTransactionID *string `gorm:"index" json:"provider_transaction_id,omitempty"`

	Employee *Employee `gorm:"foreignKey:EmployeeID" json:"employee,omitempty"`
}
