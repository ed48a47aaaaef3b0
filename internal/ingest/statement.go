package ingest

import (
	"encoding/json"

	"gorm.io/datatypes"

	"minibooks/internal/models"
)

// StatementRow is one row of a polled provider statement, as returned by
// the provider client's range fetch.
type StatementRow struct {
	ReferenceNumber string           `json:"referenceNumber"`
	Type            string           `json:"type"` // "DEBIT"/"CREDIT" when the source supplies it
	Activity        string           `json:"activity"`
	Status          string           `json:"status"`
	Date            string           `json:"date"`
	ValueDate       string           `json:"valueDate"`
	Amount          MoneyValue       `json:"amount"`
	ProfileID       string           `json:"profileId"`
	AccountID       string           `json:"accountId"`
	Details         StatementDetails `json:"details"`
}

// StatementDetails carries the row's free-text fields.
type StatementDetails struct {
	Type             string        `json:"type"`
	Description      string        `json:"description"`
	PaymentReference string        `json:"paymentReference"`
	SenderName       string        `json:"senderName"`
	Merchant         *MerchantInfo `json:"merchant,omitempty"`
	Recipient        *MerchantInfo `json:"recipient,omitempty"`
}

// Source implements RawTransaction.
func (r *StatementRow) Source() Source { return SourceAPI }

// Normalize implements RawTransaction. Direction comes from the explicit
// type field when present, otherwise it is derived from the activity
// text, defaulting to DEBIT when the text is ambiguous.
func (r *StatementRow) Normalize() (*models.ProviderTransaction, error) {
	var direction models.Direction
	switch r.Type {
	case "DEBIT":
		direction = models.DirectionDebit
	case "CREDIT":
		direction = models.DirectionCredit
	default:
		direction = deriveDirectionFromActivity(firstNonEmpty(r.Activity, r.Details.Description))
	}

	merchant := ""
	if direction == models.DirectionDebit && r.Details.Recipient != nil {
		merchant = r.Details.Recipient.Name
	}
	if merchant == "" && r.Details.Merchant != nil {
		merchant = r.Details.Merchant.Name
	}
	if merchant == "" && direction == models.DirectionCredit {
		merchant = r.Details.SenderName
	}

	tx := &models.ProviderTransaction{
		ExternalID:      r.ReferenceNumber,
		ResourceID:      r.ReferenceNumber,
		ProfileID:       r.ProfileID,
		AccountID:       r.AccountID,
		Direction:       direction,
		State:           firstNonEmpty(r.Status, "COMPLETED"),
		Amount:          r.Amount.Value.Abs(),
		Currency:        r.Amount.Currency,
		Description:     firstNonEmpty(r.Details.Description, r.Details.PaymentReference),
		MerchantName:    merchant,
		ReferenceNumber: r.Details.PaymentReference,
		TransactionDate: parseEventTime(r.Date),
	}

	if r.ValueDate != "" {
		if vd := parseEventTime(r.ValueDate); !vd.IsZero() {
			tx.ValueDate = &vd
		}
	}

	if raw, err := json.Marshal(r); err == nil {
		tx.RawPayload = datatypes.JSON(raw)
	}

	if err := validate(tx); err != nil {
		return nil, err
	}
	return tx, nil
}
