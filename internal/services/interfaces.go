package services

import (
	"gorm.io/gorm"

	"minibooks/internal/ingest"
	"minibooks/internal/models"
	"minibooks/internal/pagination"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(email, password, firstName, lastName string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id uint) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
	RecordLogin(user *models.User)
}

// AuditServicer defines the contract for recording the sync audit trail.
type AuditServicer interface {
	Record(tx *gorm.DB, externalID string, entryID *uint, action models.AuditAction, actor string, oldValues, newValues any, notes string)
}

// TransactionStorer defines the contract for the deduplicated provider
// transaction store.
type TransactionStorer interface {
	Exists(externalID string) (bool, error)
	GetByExternalID(externalID string) (*models.ProviderTransaction, error)
	Create(tx *models.ProviderTransaction) error
	ApplyUpdate(existing *models.ProviderTransaction, incoming *models.ProviderTransaction) (bool, error)
}

// Classifier defines the contract for scoring provider transactions.
type Classifier interface {
	Classify(tx *models.ProviderTransaction) Classification
	SuggestCategories(tx *models.ProviderTransaction) []Classification
}

// EntryWriter defines the contract for deriving and persisting ledger
// entries from classified transactions.
type EntryWriter interface {
	BuildEntry(tx *models.ProviderTransaction, c Classification, matchedEmployee *models.Employee) *models.LedgerEntry
	Create(db *gorm.DB, entry *models.LedgerEntry) error
}

// Processor defines the contract for the ingestion pipeline.
type Processor interface {
	Ingest(raw ingest.RawTransaction) (*ProcessingResult, error)
	ProcessBatch(raws []ingest.RawTransaction) *BatchStats
}

// ReviewServicer defines the contract for the manual review workflow.
type ReviewServicer interface {
	ListForReview(filter ReviewFilter, page pagination.PageRequest) (*pagination.PageResponse[models.ProviderTransaction], error)
	Get(id uint) (*models.ProviderTransaction, error)
	Approve(id uint, overrides ApproveOverrides, actor string) (*models.ProviderTransaction, error)
	Reject(id uint, reason, actor string) (*models.ProviderTransaction, error)
	BulkApprove(ids []uint, defaults ApproveOverrides, actor string) *BulkResult
	BulkReject(ids []uint, reason, actor string) *BulkResult
	UpdateClassification(id uint, updates ClassificationUpdate, actor string) (*models.ProviderTransaction, error)
	Stats() (*ReviewStats, error)
}
