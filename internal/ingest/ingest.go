// Package ingest converts source-specific provider payloads (webhook
// events, polled statement rows, CSV statement rows) into the canonical
// ProviderTransaction shape consumed by the reconciliation pipeline.
package ingest

import (
	"regexp"
	"strings"

	apperrors "minibooks/internal/errors"
	"minibooks/internal/models"
)

// Source identifies where a raw transaction payload came from.
type Source string

const (
	SourceWebhook Source = "webhook"
	SourceAPI     Source = "api"
	SourceCSV     Source = "csv"
)

// RawTransaction is the sum of the three source payload shapes. Each
// variant knows how to normalize itself; shared validation lives in
// validate so no source can bypass it.
type RawTransaction interface {
	Source() Source
	Normalize() (*models.ProviderTransaction, error)
}

var currencyPattern = regexp.MustCompile(`^[A-Z]{3}$`)

// validate enforces the canonical-shape invariants. It rejects rather
// than coerces: a malformed payload must never reach the store.
func validate(tx *models.ProviderTransaction) error {
	switch {
	case tx.ExternalID == "":
		return apperrors.WithMessage(apperrors.ErrValidation, "missing required field: external id")
	case tx.Direction == "":
		return apperrors.WithMessage(apperrors.ErrValidation, "missing required field: direction")
	case tx.State == "":
		return apperrors.WithMessage(apperrors.ErrValidation, "missing required field: state")
	case tx.Currency == "":
		return apperrors.WithMessage(apperrors.ErrValidation, "missing required field: currency")
	case tx.TransactionDate.IsZero():
		return apperrors.WithMessage(apperrors.ErrValidation, "missing required field: transaction date")
	}

	if tx.Direction != models.DirectionDebit && tx.Direction != models.DirectionCredit {
		return apperrors.WithMessage(apperrors.ErrValidation,
			"invalid direction: "+string(tx.Direction)+" (must be DEBIT or CREDIT)")
	}

	if tx.Amount.IsNegative() {
		return apperrors.WithMessage(apperrors.ErrValidation, "amount must not be negative")
	}

	if !currencyPattern.MatchString(tx.Currency) {
		return apperrors.WithMessage(apperrors.ErrValidation,
			"invalid currency: "+tx.Currency+" (must be 3-letter code)")
	}

	return nil
}

// deriveDirectionFromActivity maps a textual activity description to a
// direction. Phrases describing outgoing money win over incoming ones,
// and ambiguous text defaults to DEBIT: expenses are the common case and
// the safer misclassification.
func deriveDirectionFromActivity(activity string) models.Direction {
	text := strings.ToLower(activity)

	for _, kw := range []string{"sent", "spent", "paid", "card transaction"} {
		if strings.Contains(text, kw) {
			return models.DirectionDebit
		}
	}
	for _, kw := range []string{"received", "to you", "from "} {
		if strings.Contains(text, kw) {
			return models.DirectionCredit
		}
	}
	return models.DirectionDebit
}
