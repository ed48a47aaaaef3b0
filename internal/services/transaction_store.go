package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	apperrors "minibooks/internal/errors"
	"minibooks/internal/models"
)

// transactionStore is the deduplicated store of provider transactions.
// The external id unique index is the backstop for concurrent creates.
type transactionStore struct {
	db           *gorm.DB
	auditService AuditServicer
}

// NewTransactionStore creates a new TransactionStorer.
func NewTransactionStore(db *gorm.DB, auditService AuditServicer) TransactionStorer {
	return &transactionStore{
		db:           db,
		auditService: auditService,
	}
}

// Exists reports whether a transaction with the given external id is
// already stored.
func (s *transactionStore) Exists(externalID string) (bool, error) {
	var count int64
	if err := s.db.Model(&models.ProviderTransaction{}).
		Where("external_id = ?", externalID).
		Count(&count).Error; err != nil {
		return false, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return count > 0, nil
}

// GetByExternalID retrieves a transaction by its provider-assigned id.
func (s *transactionStore) GetByExternalID(externalID string) (*models.ProviderTransaction, error) {
	var tx models.ProviderTransaction
	if err := s.db.Where("external_id = ?", externalID).First(&tx).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &tx, nil
}

// Create inserts a new transaction. An existing external id fails with
// DUPLICATE_TRANSACTION; there is no upsert here.
func (s *transactionStore) Create(tx *models.ProviderTransaction) error {
	if err := s.db.Create(tx).Error; err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrDuplicateTransaction
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// ApplyUpdate reconciles a re-delivered payload against the stored row.
// Only state, amount and description are compared; classification fields
// are never touched, so a manual review decision survives re-delivery.
// Returns true when anything changed.
func (s *transactionStore) ApplyUpdate(existing *models.ProviderTransaction, incoming *models.ProviderTransaction) (bool, error) {
	changed := existing.State != incoming.State ||
		!existing.Amount.Equal(incoming.Amount) ||
		existing.Description != incoming.Description

	if !changed {
		return false, nil
	}

	oldValues := updateSnapshot(existing)

	existing.State = incoming.State
	existing.Amount = incoming.Amount
	existing.Description = incoming.Description

	if err := s.db.Model(existing).Updates(map[string]any{
		"state":       existing.State,
		"amount":      existing.Amount,
		"description": existing.Description,
	}).Error; err != nil {
		return false, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	s.auditService.Record(nil, existing.ExternalID, existing.EntryID,
		models.AuditActionUpdated, models.SystemActor,
		oldValues, updateSnapshot(existing), "provider re-delivered transaction with changed fields")

	return true, nil
}

func updateSnapshot(tx *models.ProviderTransaction) map[string]any {
	return map[string]any{
		"state":       tx.State,
		"amount":      tx.Amount,
		"description": tx.Description,
	}
}

// isUniqueViolation detects a unique index violation across the sqlite
// and postgres drivers without requiring gorm's error translation.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}
