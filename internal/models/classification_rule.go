package models

// ClassificationRule is a keyword rule the expense classifier evaluates in
// priority-descending order. Pattern is a case-insensitive regular
// expression matched against the transaction's combined searchable text.
type ClassificationRule struct {
	Base
	Name           string   `gorm:"not null" json:"name"`
	Pattern        string   `gorm:"not null" json:"pattern"`
	TargetCategory Category `gorm:"not null" json:"target_category"`
	Priority       int      `gorm:"not null;default:0" json:"priority"`
	IsActive       bool     `gorm:"default:true;index" json:"is_active"`
}
