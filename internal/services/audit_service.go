package services

import (
	"encoding/json"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"minibooks/internal/logger"
	"minibooks/internal/models"
)

// auditService records the sync audit trail.
type auditService struct {
	db *gorm.DB
}

// NewAuditService creates a new AuditServicer.
func NewAuditService(db *gorm.DB) AuditServicer {
	return &auditService{db: db}
}

// Record appends a sync audit event. When tx is non-nil the row is
// written through it so the event lands atomically with the caller's
// changes. Errors are logged but never propagate to avoid disrupting
// the main operation.
func (s *auditService) Record(tx *gorm.DB, externalID string, entryID *uint, action models.AuditAction, actor string, oldValues, newValues any, notes string) {
	db := tx
	if db == nil {
		db = s.db
	}

	entry := &models.SyncAuditLog{
		ExternalID: externalID,
		EntryID:    entryID,
		Action:     action,
		Actor:      actor,
		OldValues:  marshalSnapshot(oldValues, action),
		NewValues:  marshalSnapshot(newValues, action),
		Notes:      notes,
	}

	if err := db.Create(entry).Error; err != nil {
		logger.Get().Errorw("failed to create sync audit log entry",
			"error", err,
			"external_id", externalID,
			"action", action,
			"actor", actor,
		)
	}
}

func marshalSnapshot(v any, action models.AuditAction) datatypes.JSON {
	if v == nil {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		logger.Get().Errorw("failed to marshal audit snapshot", "error", err, "action", action)
		return datatypes.JSON([]byte("{}"))
	}
	return datatypes.JSON(data)
}
