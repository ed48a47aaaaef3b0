package models

import "github.com/shopspring/decimal"

// ContractType represents the billing cadence of a client contract.
type ContractType string

const (
	ContractTypeMonthly ContractType = "monthly"
	ContractTypeYearly  ContractType = "yearly"
	ContractTypeOneTime ContractType = "one_time"
)

// ContractStatus represents the lifecycle state of a contract.
type ContractStatus string

const (
	ContractStatusActive    ContractStatus = "active"
	ContractStatusCompleted ContractStatus = "completed"
	ContractStatusCancelled ContractStatus = "cancelled"
)

// Contract is consumed read-only by the income matcher.
type Contract struct {
	Base
	ClientName string          `gorm:"not null" json:"client_name"`
	Type       ContractType    `gorm:"not null" json:"type"`
	Amount     decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"amount"`
	Currency   string          `gorm:"size:3;not null;default:USD" json:"currency"`
	Status     ContractStatus  `gorm:"not null;default:active;index" json:"status"`
}
