package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Direction represents the money flow of a provider transaction.
// Amounts are always stored as absolute values; the sign lives here.
type Direction string

const (
	DirectionDebit  Direction = "DEBIT"
	DirectionCredit Direction = "CREDIT"
)

// SyncStatus tracks where a provider transaction is in the pipeline.
type SyncStatus string

const (
	SyncStatusPending   SyncStatus = "pending"
	SyncStatusProcessed SyncStatus = "processed"
	SyncStatusFailed    SyncStatus = "failed"
	SyncStatusSkipped   SyncStatus = "skipped"
)

// Category is the closed set of classification categories. Free-text
// category hints from sources are translated into this enum at the
// ingestion edge and never flow past it.
type Category string

const (
	CategoryEmployee             Category = "Employee"
	CategorySoftware             Category = "Software"
	CategoryAdministration       Category = "Administration"
	CategoryMarketing            Category = "Marketing"
	CategoryProfessionalServices Category = "Professional Services"
	CategoryBankFees             Category = "Bank Fees"
	CategoryGroceries            Category = "Groceries"
	CategoryRestaurants          Category = "Restaurants"
	CategoryTransportation       Category = "Transportation"
	CategoryUtilities            Category = "Utilities"
	CategoryShopping             Category = "Shopping"
	CategoryEntertainment        Category = "Entertainment"
	CategoryOtherExpenses        Category = "Other Expenses"
	CategoryClientPayment        Category = "Client Payment"
	CategoryContractPayment      Category = "Contract Payment"
	CategoryOtherIncome          Category = "Other Income"
)

// ProviderTransaction is one external financial event as seen by the
// reconciliation pipeline. The provider-assigned ExternalID is the sole
// deduplication key: a second event carrying the same id is an update,
// never a new row.
type ProviderTransaction struct {
	Base
	ExternalID      string          `gorm:"uniqueIndex;not null" json:"external_id"`
	ResourceID      string          `json:"resource_id"`
	ProfileID       string          `json:"profile_id"`
	AccountID       string          `json:"account_id"`
	Direction       Direction       `gorm:"not null" json:"direction"`
	State           string          `gorm:"not null" json:"state"`
	Amount          decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"amount"`
	Currency        string          `gorm:"size:3;not null" json:"currency"`
	Description     string          `json:"description"`
	MerchantName    string          `json:"merchant_name"`
	ReferenceNumber string          `json:"reference_number"`
	TransactionDate time.Time       `gorm:"not null;index" json:"transaction_date"`
	ValueDate       *time.Time      `json:"value_date,omitempty"`

	// Raw source payload, retained verbatim for replay and debugging.
	RawPayload datatypes.JSON `json:"raw_payload,omitempty"`

	// Classification outcome, set once at creation and only changed by a
	// reviewer afterwards.
	Category          *Category `json:"category,omitempty"`
	MatchedEmployeeID *uint     `json:"matched_employee_id,omitempty"`
	ConfidenceScore   *int      `json:"confidence_score,omitempty"`
	NeedsReview       bool      `gorm:"default:false;index" json:"needs_review"`

	SyncStatus      SyncStatus `gorm:"not null;default:pending;index" json:"sync_status"`
	EntryID         *uint      `json:"entry_id,omitempty"`
	ProcessingError *string    `json:"processing_error,omitempty"`
	ProcessedAt     *time.Time `json:"processed_at,omitempty"`

	MatchedEmployee *Employee    `gorm:"foreignKey:MatchedEmployeeID" json:"matched_employee,omitempty"`
	Entry           *LedgerEntry `gorm:"foreignKey:EntryID" json:"entry,omitempty"`
}

// SearchText returns the combined text the classifier matches names and
// keywords against.
func (t *ProviderTransaction) SearchText() string {
	return t.Description + " " + t.MerchantName + " " + t.ReferenceNumber
}
