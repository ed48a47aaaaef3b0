package ingest

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	apperrors "minibooks/internal/errors"
	"minibooks/internal/models"
)

// Webhook event types that carry a transaction.
const (
	EventTransferStateChange = "transfers#state-change"
	EventBalanceCredit       = "balances#credit"
	EventBalanceDebit        = "balances#debit"
)

// transferStateSent is the transfer lifecycle state at which money has
// actually left the account.
const transferStateSent = "outgoing_payment_sent"

// MoneyValue is the amount object used across provider payloads.
type MoneyValue struct {
	Value    decimal.Decimal `json:"value"`
	Currency string          `json:"currency"`
}

// WebhookEvent is a provider push notification.
type WebhookEvent struct {
	EventType     string      `json:"event_type"`
	SchemaVersion string      `json:"schema_version"`
	SentAt        string      `json:"sent_at"`
	Data          WebhookData `json:"data"`

	raw []byte
}

// WebhookData carries the event resource fields. Balance events and
// transfer events populate different subsets.
type WebhookData struct {
	Resource      string `json:"resource"`
	ResourceID    string `json:"resource_id"`
	ProfileID     string `json:"profile_id"`
	TransactionID string `json:"transaction_id"`
	TransferID    string `json:"transfer_id"`
	BalanceID     string `json:"balance_id"`

	// Balance credit/debit events.
	TransactionType string          `json:"transaction_type"`
	Amount          *MoneyValue     `json:"amount,omitempty"`
	State           string          `json:"state"`
	Merchant        *MerchantInfo   `json:"merchant,omitempty"`
	Details         *PaymentDetails `json:"details,omitempty"`
	OccurredAt      string          `json:"occurred_at"`

	// Transfer state-change events.
	CurrentState   string          `json:"current_state"`
	TargetValue    decimal.Decimal `json:"target_value"`
	TargetCurrency string          `json:"target_currency"`
	SourceValue    decimal.Decimal `json:"source_value"`
	SourceCurrency string          `json:"source_currency"`
	RecipientName  string          `json:"recipient_name"`
}

// MerchantInfo identifies the counterparty merchant when the provider
// knows it.
type MerchantInfo struct {
	Name string `json:"name"`
}

// PaymentDetails carries the free-text payment fields.
type PaymentDetails struct {
	Description      string `json:"description"`
	Reference        string `json:"reference"`
	PaymentReference string `json:"paymentReference"`
}

// ParseWebhookEvent decodes a raw webhook body, retaining the original
// bytes for audit storage.
func ParseWebhookEvent(body []byte) (*WebhookEvent, error) {
	var event WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "malformed webhook payload: "+err.Error())
	}
	event.raw = body
	return &event, nil
}

// IsPing reports whether this is a validation/registration ping rather
// than a real event. Pings are acknowledged without any state mutation.
func (e *WebhookEvent) IsPing() bool {
	return e.EventType == "" || e.Data == (WebhookData{})
}

// IsTransactionEvent reports whether this event type carries a
// transaction the pipeline should ingest.
func (e *WebhookEvent) IsTransactionEvent() bool {
	switch e.EventType {
	case EventTransferStateChange, EventBalanceCredit, EventBalanceDebit:
		return true
	}
	return false
}

// Source implements RawTransaction.
func (e *WebhookEvent) Source() Source { return SourceWebhook }

// Normalize implements RawTransaction. Direction is taken directly from
// the resource's declared type; there is no keyword guessing on the
// webhook path.
func (e *WebhookEvent) Normalize() (*models.ProviderTransaction, error) {
	var tx *models.ProviderTransaction

	switch {
	case e.Data.Resource == "balance" && e.Data.TransactionType != "":
		tx = e.normalizeBalance()
	case e.Data.Resource == "transfer" && e.Data.CurrentState == transferStateSent:
		tx = e.normalizeTransfer()
	default:
		return nil, apperrors.WithMessage(apperrors.ErrValidation,
			"webhook event carries no ingestible transaction")
	}

	tx.RawPayload = datatypes.JSON(e.raw)
	if err := validate(tx); err != nil {
		return nil, err
	}
	return tx, nil
}

func (e *WebhookEvent) normalizeBalance() *models.ProviderTransaction {
	d := e.Data

	direction := models.DirectionDebit
	if d.TransactionType == "credit" {
		direction = models.DirectionCredit
	}

	tx := &models.ProviderTransaction{
		ExternalID:      firstNonEmpty(d.TransactionID, d.ResourceID, d.TransferID),
		ResourceID:      d.ResourceID,
		ProfileID:       d.ProfileID,
		AccountID:       d.BalanceID,
		Direction:       direction,
		State:           firstNonEmpty(d.State, "COMPLETED"),
		TransactionDate: parseEventTime(d.OccurredAt, e.SentAt),
	}
	if d.Amount != nil {
		tx.Amount = d.Amount.Value.Abs()
		tx.Currency = d.Amount.Currency
	}
	if d.Merchant != nil {
		tx.MerchantName = d.Merchant.Name
	}
	if d.Details != nil {
		tx.Description = firstNonEmpty(d.Details.Description, d.Details.Reference)
		tx.ReferenceNumber = d.Details.Reference
	}
	return tx
}

func (e *WebhookEvent) normalizeTransfer() *models.ProviderTransaction {
	d := e.Data

	amount := d.TargetValue
	currency := d.TargetCurrency
	if amount.IsZero() && !d.SourceValue.IsZero() {
		amount = d.SourceValue
		currency = d.SourceCurrency
	}

	description := ""
	reference := ""
	if d.Details != nil {
		description = d.Details.Reference
		reference = d.Details.Reference
	}
	if description == "" && d.RecipientName != "" {
		description = "Transfer to " + d.RecipientName
	}

	return &models.ProviderTransaction{
		ExternalID:      "transfer_" + d.ResourceID,
		ResourceID:      d.ResourceID,
		ProfileID:       d.ProfileID,
		Direction:       models.DirectionDebit,
		State:           d.CurrentState,
		Amount:          amount.Abs(),
		Currency:        currency,
		Description:     description,
		MerchantName:    d.RecipientName,
		ReferenceNumber: reference,
		TransactionDate: parseEventTime(d.OccurredAt, e.SentAt),
	}
}

func parseEventTime(values ...string) time.Time {
	layouts := []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"}
	for _, v := range values {
		if v == "" {
			continue
		}
		for _, layout := range layouts {
			if t, err := time.Parse(layout, v); err == nil {
				return t
			}
		}
	}
	return time.Time{}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
