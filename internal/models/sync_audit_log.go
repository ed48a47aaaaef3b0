package models

import "gorm.io/datatypes"

// AuditAction tags what happened to a provider transaction.
type AuditAction string

const (
	AuditActionCreated     AuditAction = "created"
	AuditActionUpdated     AuditAction = "updated"
	AuditActionAutoCreated AuditAction = "auto_created"
	AuditActionApproved    AuditAction = "approved"
	AuditActionRejected    AuditAction = "rejected"
	AuditActionSkipped     AuditAction = "skipped"
)

// SystemActor is the actor recorded for automatic pipeline decisions.
const SystemActor = "system"

// SyncAuditLog is the append-only trail of every pipeline decision.
// Rows are never updated or deleted.
type SyncAuditLog struct {
	Base
	ExternalID string         `gorm:"not null;index" json:"external_id"`
	EntryID    *uint          `json:"entry_id,omitempty"`
	Action     AuditAction    `gorm:"not null" json:"action"`
	Actor      string         `gorm:"not null;default:system" json:"actor"`
	OldValues  datatypes.JSON `json:"old_values,omitempty"`
	NewValues  datatypes.JSON `json:"new_values,omitempty"`
	Notes      string         `json:"notes"`
}
