package models

import "github.com/shopspring/decimal"

// PayType represents how an employee is paid.
type PayType string

const (
	PayTypeMonthly PayType = "monthly"
	PayTypeWeekly  PayType = "weekly"
	PayTypeHourly  PayType = "hourly"
)

// Employee is consumed read-only by the classifier for salary matching.
// Payroll management itself lives outside the pipeline.
type Employee struct {
	Base
	Name          string          `gorm:"not null" json:"name"`
	PayType       PayType         `gorm:"not null" json:"pay_type"`
	PayRate       decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"pay_rate"`
	PayMultiplier decimal.Decimal `gorm:"type:decimal(10,4);not null;default:1" json:"pay_multiplier"`
	IsActive      bool            `gorm:"default:true;index" json:"is_active"`
}

// ExpectedPayment returns the amount a salary payment to this employee is
// expected to carry.
func (e *Employee) ExpectedPayment() decimal.Decimal {
	return e.PayRate.Mul(e.PayMultiplier)
}
