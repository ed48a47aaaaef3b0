package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	apperrors "minibooks/internal/errors"
	"minibooks/internal/ingest"
	"minibooks/internal/logger"
	"minibooks/internal/models"
)

// Actions a single ingested payload can result in.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionSkipped = "skipped"
)

// AutoPostPolicy decides whether a freshly classified transaction posts
// to the ledger without a human in the loop. Two instances coexist with
// different thresholds: the live webhook path posts conservatively, the
// batch paths post more aggressively because a reviewer sweeps the
// result anyway.
type AutoPostPolicy struct {
	Threshold int
}

// ShouldAutoPost reports whether the classification clears the bar. A
// classification flagged for review never auto-posts, whatever its
// score.
func (p AutoPostPolicy) ShouldAutoPost(c Classification) bool {
	return c.Confidence >= p.Threshold && !c.NeedsReview
}

// ProcessingResult describes what the pipeline did with one payload.
type ProcessingResult struct {
	ExternalID   string `json:"external_id"`
	Action       string `json:"action"`
	EntryCreated bool   `json:"entry_created"`
	Confidence   int    `json:"confidence"`
	Error        string `json:"error,omitempty"`
}

// BatchStats summarizes a batch run.
type BatchStats struct {
	Total          int      `json:"total"`
	Imported       int      `json:"imported"`
	Updated        int      `json:"updated"`
	Skipped        int      `json:"skipped"`
	Errors         int      `json:"errors"`
	EntriesCreated int      `json:"entries_created"`
	DurationMs     int64    `json:"duration_ms"`
	ErrorDetails   []string `json:"error_details,omitempty"`
}

// processor drives a raw payload through normalize, dedupe, classify,
// store and auto-post.
type processor struct {
	db          *gorm.DB
	store       TransactionStorer
	classifier  Classifier
	entryWriter EntryWriter
	audit       AuditServicer
	policy      AutoPostPolicy
}

// NewProcessor creates a new Processor with the given auto-post policy.
func NewProcessor(db *gorm.DB, store TransactionStorer, classifier Classifier, entryWriter EntryWriter, audit AuditServicer, policy AutoPostPolicy) Processor {
	return &processor{
		db:          db,
		store:       store,
		classifier:  classifier,
		entryWriter: entryWriter,
		audit:       audit,
		policy:      policy,
	}
}

// Ingest runs one payload through the pipeline. Every outcome leaves the
// transaction in a definite state: processed, skipped, failed, or
// pending review.
func (s *processor) Ingest(raw ingest.RawTransaction) (*ProcessingResult, error) {
	tx, err := raw.Normalize()
	if err != nil {
		return &ProcessingResult{Error: err.Error()}, err
	}

	existing, err := s.store.GetByExternalID(tx.ExternalID)
	switch {
	case err == nil:
		return s.applyUpdate(existing, tx)
	case errors.Is(err, apperrors.ErrTransactionNotFound):
		return s.createAndClassify(tx)
	default:
		return &ProcessingResult{ExternalID: tx.ExternalID, Error: err.Error()}, err
	}
}

// ProcessBatch runs payloads sequentially, collecting per-item failures
// without ever aborting the batch.
func (s *processor) ProcessBatch(raws []ingest.RawTransaction) *BatchStats {
	start := time.Now()
	stats := &BatchStats{Total: len(raws)}

	for _, raw := range raws {
		result, err := s.Ingest(raw)
		if err != nil {
			stats.Errors++
			detail := result.Error
			if result.ExternalID != "" {
				detail = result.ExternalID + ": " + detail
			}
			stats.ErrorDetails = append(stats.ErrorDetails, detail)
			continue
		}

		switch result.Action {
		case ActionCreated:
			stats.Imported++
		case ActionUpdated:
			stats.Updated++
		case ActionSkipped:
			stats.Skipped++
		}
		if result.EntryCreated {
			stats.EntriesCreated++
		}
	}

	stats.DurationMs = time.Since(start).Milliseconds()
	logger.Get().Infow("batch processed",
		"total", stats.Total,
		"imported", stats.Imported,
		"updated", stats.Updated,
		"skipped", stats.Skipped,
		"errors", stats.Errors,
		"entries_created", stats.EntriesCreated,
		"duration_ms", stats.DurationMs,
	)
	return stats
}

// applyUpdate reconciles a re-delivered payload against the stored row.
func (s *processor) applyUpdate(existing, incoming *models.ProviderTransaction) (*ProcessingResult, error) {
	changed, err := s.store.ApplyUpdate(existing, incoming)
	if err != nil {
		return &ProcessingResult{ExternalID: existing.ExternalID, Error: err.Error()}, err
	}

	action := ActionSkipped
	if changed {
		action = ActionUpdated
	}
	result := &ProcessingResult{ExternalID: existing.ExternalID, Action: action}
	if existing.ConfidenceScore != nil {
		result.Confidence = *existing.ConfidenceScore
	}
	return result, nil
}

// createAndClassify stores a new transaction with its classification and
// auto-posts when the policy allows.
func (s *processor) createAndClassify(tx *models.ProviderTransaction) (*ProcessingResult, error) {
	classification := s.classifier.Classify(tx)

	shouldPost := s.policy.ShouldAutoPost(classification)

	category := classification.Category
	confidence := classification.Confidence
	tx.Category = &category
	tx.ConfidenceScore = &confidence
	tx.NeedsReview = classification.NeedsReview
	tx.MatchedEmployeeID = classification.MatchedEmployeeID
	tx.SyncStatus = models.SyncStatusPending

	// A transaction this policy holds must surface in the review queue,
	// even when its branch threshold alone would have let it through.
	if !shouldPost {
		tx.NeedsReview = true
	}

	if err := s.store.Create(tx); err != nil {
		if errors.Is(err, apperrors.ErrDuplicateTransaction) {
			// Lost a create race against a concurrent delivery of the
			// same external id; fall back to the update path.
			existing, getErr := s.store.GetByExternalID(tx.ExternalID)
			if getErr != nil {
				return &ProcessingResult{ExternalID: tx.ExternalID, Error: getErr.Error()}, getErr
			}
			return s.applyUpdate(existing, tx)
		}
		return &ProcessingResult{ExternalID: tx.ExternalID, Error: err.Error()}, err
	}

	s.audit.Record(nil, tx.ExternalID, nil, models.AuditActionCreated, models.SystemActor,
		nil, classification,
		fmt.Sprintf("classified as %s at %d%% confidence", classification.Category, classification.Confidence))

	result := &ProcessingResult{
		ExternalID: tx.ExternalID,
		Action:     ActionCreated,
		Confidence: classification.Confidence,
	}

	if !shouldPost {
		logger.Get().Infow("transaction held for review",
			"external_id", tx.ExternalID,
			"category", classification.Category,
			"confidence", classification.Confidence,
			"reasoning", strings.Join(classification.Reasoning, "; "),
		)
		return result, nil
	}

	if err := s.autoPost(tx, classification); err != nil {
		// The transaction row exists; record the failure on it rather
		// than losing the payload.
		errText := err.Error()
		if updErr := s.db.Model(tx).Updates(map[string]any{
			"sync_status":      models.SyncStatusFailed,
			"processing_error": errText,
		}).Error; updErr != nil {
			logger.Get().Errorw("failed to record processing error",
				"external_id", tx.ExternalID, "error", updErr)
		}
		result.Error = errText
		return result, err
	}

	result.EntryCreated = true
	return result, nil
}

// autoPost creates the ledger entry and finalizes the transaction in one
// database transaction.
func (s *processor) autoPost(tx *models.ProviderTransaction, classification Classification) error {
	var matchedEmployee *models.Employee
	if classification.MatchedEmployeeID != nil {
		var employee models.Employee
		if err := s.db.First(&employee, *classification.MatchedEmployeeID).Error; err == nil {
			matchedEmployee = &employee
		}
	}

	entry := s.entryWriter.BuildEntry(tx, classification, matchedEmployee)

	return s.db.Transaction(func(gtx *gorm.DB) error {
		if err := s.entryWriter.Create(gtx, entry); err != nil {
			return err
		}

		now := time.Now()
		if err := gtx.Model(tx).Updates(map[string]any{
			"entry_id":     entry.ID,
			"sync_status":  models.SyncStatusProcessed,
			"processed_at": now,
		}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		tx.EntryID = &entry.ID
		tx.SyncStatus = models.SyncStatusProcessed
		tx.ProcessedAt = &now

		s.audit.Record(gtx, tx.ExternalID, &entry.ID, models.AuditActionAutoCreated, models.SystemActor,
			nil, entry,
			fmt.Sprintf("auto-posted at %d%% confidence (threshold %d)", classification.Confidence, s.policy.Threshold))
		return nil
	})
}
