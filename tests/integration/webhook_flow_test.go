package integration

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"minibooks/internal/models"
)

func signWebhookBody(body string) string {
	mac := hmac.New(sha256.New, []byte(testWebhookSecret))
	mac.Write([]byte(body))
	return hex.EncodeToString(mac.Sum(nil))
}

func (app *testApp) deliverWebhook(t *testing.T, body, signature string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", "/api/v1/provider/webhook", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Signature-SHA256", signature)
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

func salaryWebhookEvent(externalID, amount, description string) string {
	return fmt.Sprintf(`{
		"event_type": "balances#debit",
		"data": {
			"resource": "balance",
			"resource_id": "bal-1",
			"transaction_id": %q,
			"transaction_type": "debit",
			"amount": {"value": %q, "currency": "USD"},
			"details": {"description": %q},
			"occurred_at": "2026-03-15T10:00:00Z"
		}
	}`, externalID, amount, description)
}

func TestWebhookFlow_SalaryAutoPostsToLedger(t *testing.T) {
	app := setupApp(t, "")

	if err := app.DB.Create(&models.Employee{
		Name:          "John Doe",
		PayType:       models.PayTypeMonthly,
		PayRate:       decimal.RequireFromString("3000"),
		PayMultiplier: decimal.NewFromInt(1),
		IsActive:      true,
	}).Error; err != nil {
		t.Fatalf("failed to seed employee: %v", err)
	}

	body := salaryWebhookEvent("txn-salary-1", "3000.00", "Salary John Doe")
	rec := app.deliverWebhook(t, body, signWebhookBody(body))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 ack, got %d: %s", rec.Code, rec.Body.String())
	}

	tx := app.waitForSyncStatus(t, "txn-salary-1", models.SyncStatusProcessed)

	if tx.Category == nil || *tx.Category != models.CategoryEmployee {
		t.Errorf("expected Employee category, got %v", tx.Category)
	}
	if tx.ConfidenceScore == nil || *tx.ConfidenceScore < 80 {
		t.Errorf("expected confidence >= 80, got %v", tx.ConfidenceScore)
	}
	if tx.NeedsReview {
		t.Error("expected auto-posted transaction not to need review")
	}
	if tx.EntryID == nil {
		t.Fatal("expected a ledger entry to be linked")
	}

	var entry models.LedgerEntry
	if err := app.DB.First(&entry, *tx.EntryID).Error; err != nil {
		t.Fatalf("failed to load entry: %v", err)
	}
	if entry.Type != models.EntryTypeExpense {
		t.Errorf("expected expense entry, got %s", entry.Type)
	}
	if entry.Category != "salary" {
		t.Errorf("expected salary category, got %s", entry.Category)
	}
	if entry.Description != "Salary - John Doe" {
		t.Errorf("expected salary description, got %q", entry.Description)
	}
	if !entry.Amount.Equal(decimal.RequireFromString("3000.00")) {
		t.Errorf("expected amount 3000.00, got %s", entry.Amount)
	}

	var actions []string
	if err := app.DB.Model(&models.SyncAuditLog{}).
		Where("external_id = ?", "txn-salary-1").
		Order("id ASC").
		Pluck("action", &actions).Error; err != nil {
		t.Fatalf("failed to load audit trail: %v", err)
	}
	if len(actions) != 2 || actions[0] != "created" || actions[1] != "auto_created" {
		t.Errorf("expected audit trail [created auto_created], got %v", actions)
	}
}

func TestWebhookFlow_UncertainTransactionIsHeld(t *testing.T) {
	app := setupApp(t, "")

	body := salaryWebhookEvent("txn-unknown-1", "412.77", "Misc payment")
	rec := app.deliverWebhook(t, body, signWebhookBody(body))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 ack, got %d: %s", rec.Code, rec.Body.String())
	}

	tx := app.waitForTransaction(t, "txn-unknown-1")

	if tx.SyncStatus != models.SyncStatusPending {
		t.Errorf("expected pending status, got %s", tx.SyncStatus)
	}
	if !tx.NeedsReview {
		t.Error("expected the transaction to be flagged for review")
	}
	if tx.EntryID != nil {
		t.Error("expected no ledger entry for a held transaction")
	}
}

func TestWebhookFlow_RedeliveryNeverDuplicates(t *testing.T) {
	app := setupApp(t, "")

	body := salaryWebhookEvent("txn-redelivered", "99.00", "Coffee shop")
	for i := 0; i < 3; i++ {
		rec := app.deliverWebhook(t, body, signWebhookBody(body))
		if rec.Code != http.StatusOK {
			t.Fatalf("delivery %d: expected 200, got %d", i+1, rec.Code)
		}
		app.waitForTransaction(t, "txn-redelivered")
	}

	var count int64
	if err := app.DB.Model(&models.ProviderTransaction{}).
		Where("external_id = ?", "txn-redelivered").
		Count(&count).Error; err != nil {
		t.Fatalf("failed to count transactions: %v", err)
	}
	if count != 1 {
		t.Errorf("expected exactly 1 stored transaction, got %d", count)
	}
}

func TestWebhookFlow_BadSignatureIsRejected(t *testing.T) {
	app := setupApp(t, "")

	body := salaryWebhookEvent("txn-forged", "50.00", "Forged")
	rec := app.deliverWebhook(t, body, "0000")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	var count int64
	if err := app.DB.Model(&models.ProviderTransaction{}).Count(&count).Error; err != nil {
		t.Fatalf("failed to count transactions: %v", err)
	}
	if count != 0 {
		t.Errorf("expected no stored transactions, got %d", count)
	}
}
