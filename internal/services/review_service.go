package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	apperrors "minibooks/internal/errors"
	"minibooks/internal/models"
	"minibooks/internal/pagination"
)

// ReviewFilter narrows the review queue. Nil fields are not applied.
type ReviewFilter struct {
	SyncStatus    *models.SyncStatus `form:"status" binding:"omitempty,sync_status"`
	NeedsReview   *bool              `form:"needs_review"`
	MinConfidence *int               `form:"min_confidence" binding:"omitempty,min=0,max=100"`
	MaxConfidence *int               `form:"max_confidence" binding:"omitempty,min=0,max=100"`
	Currency      *string            `form:"currency" binding:"omitempty,iso4217"`
	Direction     *models.Direction  `form:"direction" binding:"omitempty,direction"`
	FromDate      *time.Time         `form:"from_date" time_format:"2006-01-02"`
	ToDate        *time.Time         `form:"to_date" time_format:"2006-01-02"`
}

// ApproveOverrides lets a reviewer adjust the entry a transaction posts
// as. Nil fields keep the classified values.
type ApproveOverrides struct {
	Category   *models.Category    `json:"category" binding:"omitempty"`
	EmployeeID *uint               `json:"employee_id"`
	Status     *models.EntryStatus `json:"status" binding:"omitempty,oneof=completed pending"`
}

// ClassificationUpdate is a manual correction to a stored
// classification. Nil fields are left untouched.
type ClassificationUpdate struct {
	Category    *models.Category `json:"category"`
	EmployeeID  *uint            `json:"employee_id"`
	NeedsReview *bool            `json:"needs_review"`
}

// BulkFailure records why one id in a bulk operation failed.
type BulkFailure struct {
	TransactionID uint   `json:"transaction_id"`
	Error         string `json:"error"`
}

// BulkResult summarizes a bulk review operation.
type BulkResult struct {
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	Failures  []BulkFailure `json:"failures,omitempty"`
}

// ReviewStats is the review queue dashboard summary.
type ReviewStats struct {
	PendingReview  int64    `json:"pending_review"`
	LowConfidence  int64    `json:"low_confidence"`
	ApprovedToday  int64    `json:"approved_today"`
	AvgConfidence  *float64 `json:"avg_confidence_score"`
	TotalProcessed int64    `json:"total_processed"`
}

// reviewService handles the human side of the pipeline: the queue of
// uncertain classifications and the decisions made on them.
type reviewService struct {
	db          *gorm.DB
	entryWriter EntryWriter
	audit       AuditServicer
}

// NewReviewService creates a new ReviewServicer.
func NewReviewService(db *gorm.DB, entryWriter EntryWriter, audit AuditServicer) ReviewServicer {
	return &reviewService{
		db:          db,
		entryWriter: entryWriter,
		audit:       audit,
	}
}

// ListForReview returns the review queue, least-certain transactions
// first. Unclassified rows (null confidence) sort before everything.
func (s *reviewService) ListForReview(filter ReviewFilter, page pagination.PageRequest) (*pagination.PageResponse[models.ProviderTransaction], error) {
	page.Defaults()

	base := s.db.Model(&models.ProviderTransaction{})
	base = applyReviewFilters(base, filter)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var transactions []models.ProviderTransaction
	// "IS NOT NULL" sorts false before true, giving portable
	// nulls-first ordering on both sqlite and postgres.
	if err := base.Scopes(pagination.Paginate(page)).
		Preload("MatchedEmployee").
		Preload("Entry").
		Order("confidence_score IS NOT NULL, confidence_score ASC").
		Order("transaction_date DESC").
		Find(&transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(transactions, page.Offset, page.Limit, total)
	return &result, nil
}

// Get loads one provider transaction with its associations.
func (s *reviewService) Get(id uint) (*models.ProviderTransaction, error) {
	var tx models.ProviderTransaction
	if err := s.db.Preload("MatchedEmployee").Preload("Entry").First(&tx, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &tx, nil
}

func applyReviewFilters(q *gorm.DB, f ReviewFilter) *gorm.DB {
	if f.SyncStatus != nil {
		q = q.Where("sync_status = ?", *f.SyncStatus)
	}
	if f.NeedsReview != nil {
		q = q.Where("needs_review = ?", *f.NeedsReview)
	}
	// Confidence bounds keep unclassified rows in: a null score always
	// needs eyes on it.
	if f.MinConfidence != nil {
		q = q.Where("confidence_score >= ? OR confidence_score IS NULL", *f.MinConfidence)
	}
	if f.MaxConfidence != nil {
		q = q.Where("confidence_score <= ? OR confidence_score IS NULL", *f.MaxConfidence)
	}
	if f.Currency != nil {
		q = q.Where("currency = ?", *f.Currency)
	}
	if f.Direction != nil {
		q = q.Where("direction = ?", *f.Direction)
	}
	if f.FromDate != nil {
		q = q.Where("transaction_date >= ?", *f.FromDate)
	}
	if f.ToDate != nil {
		q = q.Where("transaction_date <= ?", *f.ToDate)
	}
	return q
}

// Approve posts a reviewed transaction to the ledger. Entry creation,
// transaction finalization and the audit record are one database
// transaction.
func (s *reviewService) Approve(id uint, overrides ApproveOverrides, actor string) (*models.ProviderTransaction, error) {
	var tx models.ProviderTransaction

	err := s.db.Transaction(func(gtx *gorm.DB) error {
		if err := gtx.First(&tx, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrTransactionNotFound
			}
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		if tx.EntryID != nil {
			return apperrors.ErrAlreadyProcessed
		}

		category := models.CategoryOtherExpenses
		if tx.Direction == models.DirectionCredit {
			category = models.CategoryOtherIncome
		}
		if tx.Category != nil {
			category = *tx.Category
		}
		if overrides.Category != nil {
			category = *overrides.Category
		}

		employeeID := tx.MatchedEmployeeID
		if overrides.EmployeeID != nil {
			employeeID = overrides.EmployeeID
		}

		var matchedEmployee *models.Employee
		if employeeID != nil {
			var employee models.Employee
			if err := gtx.First(&employee, *employeeID).Error; err == nil {
				matchedEmployee = &employee
			}
		}

		entry := s.entryWriter.BuildEntry(&tx, Classification{
			Category:          category,
			MatchedEmployeeID: employeeID,
		}, matchedEmployee)
		if overrides.Status != nil {
			entry.Status = *overrides.Status
		}

		if err := s.entryWriter.Create(gtx, entry); err != nil {
			return err
		}

		now := time.Now()
		confidence := 100
		if err := gtx.Model(&tx).Updates(map[string]any{
			"entry_id":         entry.ID,
			"sync_status":      models.SyncStatusProcessed,
			"needs_review":     false,
			"category":         category,
			"confidence_score": confidence,
			"processed_at":     now,
		}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		tx.EntryID = &entry.ID
		tx.SyncStatus = models.SyncStatusProcessed
		tx.NeedsReview = false
		tx.Category = &category
		tx.ConfidenceScore = &confidence
		tx.ProcessedAt = &now

		s.audit.Record(gtx, tx.ExternalID, &entry.ID, models.AuditActionApproved, actor,
			nil, entry, "approved by reviewer")
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

// Reject marks a transaction as skipped with the reviewer's reason. No
// entry is ever created for a rejected transaction.
func (s *reviewService) Reject(id uint, reason, actor string) (*models.ProviderTransaction, error) {
	var tx models.ProviderTransaction

	err := s.db.Transaction(func(gtx *gorm.DB) error {
		if err := gtx.First(&tx, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrTransactionNotFound
			}
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		if tx.EntryID != nil {
			return apperrors.ErrAlreadyProcessed
		}

		if reason == "" {
			reason = "Rejected by reviewer"
		}

		now := time.Now()
		if err := gtx.Model(&tx).Updates(map[string]any{
			"sync_status":      models.SyncStatusSkipped,
			"needs_review":     false,
			"processing_error": reason,
			"processed_at":     now,
		}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		tx.SyncStatus = models.SyncStatusSkipped
		tx.NeedsReview = false
		tx.ProcessingError = &reason
		tx.ProcessedAt = &now

		s.audit.Record(gtx, tx.ExternalID, nil, models.AuditActionRejected, actor, nil, nil, reason)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

// BulkApprove approves ids sequentially, each in its own transaction.
// One bad id never aborts the rest.
func (s *reviewService) BulkApprove(ids []uint, defaults ApproveOverrides, actor string) *BulkResult {
	result := &BulkResult{}
	for _, id := range ids {
		if _, err := s.Approve(id, defaults, actor); err != nil {
			result.Failed++
			result.Failures = append(result.Failures, BulkFailure{TransactionID: id, Error: err.Error()})
			continue
		}
		result.Succeeded++
	}
	return result
}

// BulkReject rejects ids sequentially with a shared reason.
func (s *reviewService) BulkReject(ids []uint, reason, actor string) *BulkResult {
	result := &BulkResult{}
	for _, id := range ids {
		if _, err := s.Reject(id, reason, actor); err != nil {
			result.Failed++
			result.Failures = append(result.Failures, BulkFailure{TransactionID: id, Error: err.Error()})
			continue
		}
		result.Succeeded++
	}
	return result
}

// UpdateClassification manually corrects a stored classification
// without posting anything.
func (s *reviewService) UpdateClassification(id uint, updates ClassificationUpdate, actor string) (*models.ProviderTransaction, error) {
	var tx models.ProviderTransaction
	if err := s.db.First(&tx, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	oldValues := map[string]any{
		"category":            tx.Category,
		"matched_employee_id": tx.MatchedEmployeeID,
		"needs_review":        tx.NeedsReview,
	}

	changes := map[string]any{}
	if updates.Category != nil {
		changes["category"] = *updates.Category
		tx.Category = updates.Category
	}
	if updates.EmployeeID != nil {
		changes["matched_employee_id"] = *updates.EmployeeID
		tx.MatchedEmployeeID = updates.EmployeeID
	}
	if updates.NeedsReview != nil {
		changes["needs_review"] = *updates.NeedsReview
		tx.NeedsReview = *updates.NeedsReview
	}

	if len(changes) == 0 {
		return &tx, nil
	}

	if err := s.db.Model(&tx).Updates(changes).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	s.audit.Record(nil, tx.ExternalID, tx.EntryID, models.AuditActionUpdated, actor,
		oldValues, changes, "classification manually updated")

	return &tx, nil
}

// Stats returns the review queue dashboard numbers.
func (s *reviewService) Stats() (*ReviewStats, error) {
	stats := &ReviewStats{}

	if err := s.db.Model(&models.ProviderTransaction{}).
		Where("sync_status = ? AND needs_review = ?", models.SyncStatusPending, true).
		Count(&stats.PendingReview).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if err := s.db.Model(&models.ProviderTransaction{}).
		Where("sync_status = ? AND confidence_score < ?", models.SyncStatusPending, 60).
		Count(&stats.LowConfidence).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	startOfDay := time.Now().Truncate(24 * time.Hour)
	if err := s.db.Model(&models.ProviderTransaction{}).
		Where("sync_status = ? AND processed_at >= ?", models.SyncStatusProcessed, startOfDay).
		Count(&stats.ApprovedToday).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if err := s.db.Model(&models.ProviderTransaction{}).
		Where("sync_status = ?", models.SyncStatusProcessed).
		Count(&stats.TotalProcessed).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var avg *float64
	if err := s.db.Model(&models.ProviderTransaction{}).
		Where("confidence_score IS NOT NULL").
		Select("AVG(confidence_score)").
		Scan(&avg).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	stats.AvgConfidence = avg

	return stats, nil
}
