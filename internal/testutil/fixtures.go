package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"minibooks/internal/models"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates a user with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	email := fmt.Sprintf("user%d@test.com", nextID())
	return CreateTestUserWithEmail(t, db, email)
}

// CreateTestUserWithEmail creates a user with the given email.
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:    email,
		Password: string(hash),
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestEmployee creates an active monthly employee with the given pay rate.
func CreateTestEmployee(t *testing.T, db *gorm.DB, name string, payRate string) *models.Employee {
	t.Helper()
	return CreateTestEmployeeWithPayType(t, db, name, payRate, models.PayTypeMonthly)
}

// CreateTestEmployeeWithPayType creates an active employee with the given pay type.
func CreateTestEmployeeWithPayType(t *testing.T, db *gorm.DB, name, payRate string, payType models.PayType) *models.Employee {
	t.Helper()

	employee := &models.Employee{
		Name:          name,
		PayType:       payType,
		PayRate:       decimal.RequireFromString(payRate),
		PayMultiplier: decimal.NewFromInt(1),
		IsActive:      true,
	}
	if err := db.Create(employee).Error; err != nil {
		t.Fatalf("failed to create test employee: %v", err)
	}
	return employee
}

// CreateTestContract creates an active monthly contract for the given client.
func CreateTestContract(t *testing.T, db *gorm.DB, clientName, amount string) *models.Contract {
	t.Helper()

	contract := &models.Contract{
		ClientName: clientName,
		Type:       models.ContractTypeMonthly,
		Amount:     decimal.RequireFromString(amount),
		Currency:   "USD",
		Status:     models.ContractStatusActive,
	}
	if err := db.Create(contract).Error; err != nil {
		t.Fatalf("failed to create test contract: %v", err)
	}
	return contract
}

// CreateTestRule creates an active classification rule.
func CreateTestRule(t *testing.T, db *gorm.DB, pattern string, category models.Category, priority int) *models.ClassificationRule {
	t.Helper()

	rule := &models.ClassificationRule{
		Name:           fmt.Sprintf("Test Rule %d", nextID()),
		Pattern:        pattern,
		TargetCategory: category,
		Priority:       priority,
		IsActive:       true,
	}
	if err := db.Create(rule).Error; err != nil {
		t.Fatalf("failed to create test rule: %v", err)
	}
	return rule
}

// CreateTestProviderTransaction creates a pending debit transaction with a
// unique external id.
func CreateTestProviderTransaction(t *testing.T, db *gorm.DB, amount string) *models.ProviderTransaction {
	t.Helper()

	tx := &models.ProviderTransaction{
		ExternalID:      fmt.Sprintf("txn_%d", nextID()),
		Direction:       models.DirectionDebit,
		State:           "COMPLETED",
		Amount:          decimal.RequireFromString(amount),
		Currency:        "USD",
		Description:     fmt.Sprintf("Test transaction %d", nextID()),
		TransactionDate: time.Now(),
		SyncStatus:      models.SyncStatusPending,
	}
	if err := db.Create(tx).Error; err != nil {
		t.Fatalf("failed to create test provider transaction: %v", err)
	}
	return tx
}

// CreateTestCreditTransaction creates a pending credit transaction with the
// given description.
func CreateTestCreditTransaction(t *testing.T, db *gorm.DB, amount, description string) *models.ProviderTransaction {
	t.Helper()

	tx := &models.ProviderTransaction{
		ExternalID:      fmt.Sprintf("txn_%d", nextID()),
		Direction:       models.DirectionCredit,
		State:           "COMPLETED",
		Amount:          decimal.RequireFromString(amount),
		Currency:        "USD",
		Description:     description,
		TransactionDate: time.Now(),
		SyncStatus:      models.SyncStatusPending,
	}
	if err := db.Create(tx).Error; err != nil {
		t.Fatalf("failed to create test provider transaction: %v", err)
	}
	return tx
}
