package ingest

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	apperrors "minibooks/internal/errors"
	"minibooks/internal/models"
)

// CSVRow is one record of an uploaded provider statement export. Column
// access is header-driven so exports with reordered columns still parse.
type CSVRow struct {
	Record map[string]string
	Line   int
}

// ParseStatementCSV reads a provider statement export. Headers are
// matched case-insensitively; rows shorter than the header are rejected
// by the csv reader itself.
func ParseStatementCSV(r io.Reader) ([]*CSVRow, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "failed to read CSV header: "+err.Error())
	}
	for i, h := range header {
		header[i] = strings.ToLower(strings.TrimSpace(h))
	}

	var rows []*CSVRow
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, apperrors.WithMessage(apperrors.ErrValidation, "malformed CSV record: "+err.Error())
		}

		fields := make(map[string]string, len(header))
		for i, value := range record {
			fields[header[i]] = strings.TrimSpace(value)
		}
		rows = append(rows, &CSVRow{Record: fields, Line: line})
	}

	return rows, nil
}

// field returns the first non-empty value among the given column names.
func (r *CSVRow) field(names ...string) string {
	for _, name := range names {
		if v := r.Record[name]; v != "" {
			return v
		}
	}
	return ""
}

// Source implements RawTransaction.
func (r *CSVRow) Source() Source { return SourceCSV }

// ZeroAmount reports whether the row carries no money movement. Some
// exports include zero-amount balance snapshot rows; callers skip them
// before ingestion.
func (r *CSVRow) ZeroAmount() bool {
	amountText := r.field("amount", "source amount", "target amount")
	if amountText == "" {
		return false
	}
	parsed, err := decimal.NewFromString(strings.ReplaceAll(amountText, ",", ""))
	if err != nil {
		return false
	}
	return parsed.IsZero()
}

// incomeCategoryHints are CSV category values that imply incoming money
// when the export carries no direction column.
var incomeCategoryHints = map[string]bool{
	"income":         true,
	"client payment": true,
	"other income":   true,
	"money added":    true,
	"transfer in":    true,
}

// Normalize implements RawTransaction. Direction comes from the explicit
// direction column (IN/OUT) or, failing that, from a category hint.
func (r *CSVRow) Normalize() (*models.ProviderTransaction, error) {
	var direction models.Direction
	category := strings.ToLower(r.field("category"))

	switch strings.ToUpper(r.field("direction")) {
	case "OUT":
		direction = models.DirectionDebit
	case "IN":
		direction = models.DirectionCredit
	default:
		if category != "" {
			if incomeCategoryHints[category] {
				direction = models.DirectionCredit
			} else {
				direction = models.DirectionDebit
			}
		}
	}

	amountText := r.field("amount", "source amount", "target amount")
	amount := decimal.Zero
	if amountText != "" {
		parsed, err := decimal.NewFromString(strings.ReplaceAll(amountText, ",", ""))
		if err != nil {
			return nil, apperrors.WithMessage(apperrors.ErrValidation,
				"invalid amount: "+amountText)
		}
		amount = parsed.Abs()
	}

	tx := &models.ProviderTransaction{
		ExternalID:      r.field("id", "transaction id"),
		Direction:       direction,
		State:           firstNonEmpty(r.field("status"), "COMPLETED"),
		Amount:          amount,
		Currency:        strings.ToUpper(r.field("currency", "source currency")),
		Description:     r.field("description", "target name", "source name"),
		MerchantName:    r.field("merchant", "target name"),
		ReferenceNumber: r.field("reference"),
		TransactionDate: parseEventTime(r.field("finished on", "created on", "date")),
	}

	if raw, err := json.Marshal(r.Record); err == nil {
		tx.RawPayload = datatypes.JSON(raw)
	}

	if err := validate(tx); err != nil {
		return nil, err
	}
	return tx, nil
}
