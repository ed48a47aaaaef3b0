package services

import (
	"gorm.io/gorm"

	apperrors "minibooks/internal/errors"
	"minibooks/internal/models"
)

// defaultEntryDescription is the placeholder used when a transaction
// carries no usable text at all.
const defaultEntryDescription = "Provider transaction"

// expenseCategoryMap translates a classified category into the ledger's
// expense bucket. Unrecognized categories land in other_expenses.
var expenseCategoryMap = map[models.Category]string{
	models.CategoryEmployee:             "salary",
	models.CategorySoftware:             "software",
	models.CategoryAdministration:       "office_supplies",
	models.CategoryMarketing:            "marketing",
	models.CategoryProfessionalServices: "professional_services",
	models.CategoryBankFees:             "bank_fees",
	models.CategoryOtherExpenses:        "other_expenses",
	models.CategoryGroceries:            "groceries",
	models.CategoryRestaurants:          "meals",
	models.CategoryTransportation:       "travel",
	models.CategoryUtilities:            "utilities",
	models.CategoryShopping:             "office_supplies",
	models.CategoryEntertainment:        "entertainment",
}

// incomeCategoryMap translates a classified category into the ledger's
// income bucket. Unrecognized categories land in other_income.
var incomeCategoryMap = map[models.Category]string{
	models.CategoryClientPayment:   "client_payment",
	models.CategoryContractPayment: "contract_payment",
	models.CategoryOtherIncome:     "other_income",
}

// entryWriter builds and persists ledger entries from classified
// provider transactions.
type entryWriter struct {
	db *gorm.DB
}

// NewEntryWriter creates a new EntryWriter.
func NewEntryWriter(db *gorm.DB) EntryWriter {
	return &entryWriter{db: db}
}

// BuildEntry derives a ledger entry from a classified transaction. The
// mapping is deterministic: the same transaction and classification
// always yield the same entry. Idempotence is the caller's job; callers
// must check for an existing entry link before creating.
func (s *entryWriter) BuildEntry(tx *models.ProviderTransaction, c Classification, matchedEmployee *models.Employee) *models.LedgerEntry {
	entryType := models.EntryTypeExpense
	category, ok := expenseCategoryMap[c.Category]
	if tx.Direction == models.DirectionCredit {
		entryType = models.EntryTypeIncome
		category, ok = incomeCategoryMap[c.Category]
	}
	if !ok {
		category = "other_expenses"
		if entryType == models.EntryTypeIncome {
			category = "other_income"
		}
	}

	description := tx.MerchantName
	if description == "" {
		description = tx.Description
	}
	if description == "" {
		description = defaultEntryDescription
	}
	if matchedEmployee != nil {
		description = "Salary - " + matchedEmployee.Name
	}

	externalID := tx.ExternalID
	return &models.LedgerEntry{
		Type:                  entryType,
		Category:              category,
		Description:           description,
		Amount:                tx.Amount.Abs(),
		Currency:              tx.Currency,
		EntryDate:             tx.TransactionDate,
		Status:                models.EntryStatusCompleted,
		EmployeeID:            c.MatchedEmployeeID,
		ProviderTransactionID: &externalID,
	}
}

// Create persists an entry through the caller's database handle, which
// may be a transaction so the entry lands atomically with the caller's
// other writes.
func (s *entryWriter) Create(db *gorm.DB, entry *models.LedgerEntry) error {
	if db == nil {
		db = s.db
	}
	if err := db.Create(entry).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}
