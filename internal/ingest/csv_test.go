package ingest

import (
	"strings"
	"testing"

	"minibooks/internal/models"
	"minibooks/internal/testutil"
)

func TestParseStatementCSV(t *testing.T) {
	t.Run("headers are matched case-insensitively", func(t *testing.T) {
		input := "ID,Date,Amount,Currency,Description,Direction\n" +
			"txn-1,2026-01-15,100.00,USD,Office supplies,OUT\n" +
			"txn-2,2026-01-16,2500.00,USD,Invoice payment,IN\n"

		rows, err := ParseStatementCSV(strings.NewReader(input))
		testutil.AssertNoError(t, err)

		if len(rows) != 2 {
			t.Fatalf("expected 2 rows, got %d", len(rows))
		}
		if rows[0].Record["id"] != "txn-1" {
			t.Errorf("expected id txn-1, got %q", rows[0].Record["id"])
		}
		if rows[1].Line != 3 {
			t.Errorf("expected line 3 for second row, got %d", rows[1].Line)
		}
	})

	t.Run("ragged record fails", func(t *testing.T) {
		input := "ID,Date,Amount\ntxn-1,2026-01-15\n"

		_, err := ParseStatementCSV(strings.NewReader(input))
		testutil.AssertAppError(t, err, "VALIDATION_FAILED")
	})

	t.Run("empty input fails on header", func(t *testing.T) {
		_, err := ParseStatementCSV(strings.NewReader(""))
		testutil.AssertAppError(t, err, "VALIDATION_FAILED")
	})
}

func TestCSVRowNormalize(t *testing.T) {
	parseOne := func(t *testing.T, input string) *CSVRow {
		t.Helper()
		rows, err := ParseStatementCSV(strings.NewReader(input))
		testutil.AssertNoError(t, err)
		if len(rows) != 1 {
			t.Fatalf("expected 1 row, got %d", len(rows))
		}
		return rows[0]
	}

	t.Run("direction from direction column", func(t *testing.T) {
		row := parseOne(t, "ID,Date,Amount,Currency,Direction\ntxn-1,2026-01-15,100.00,usd,OUT\n")

		tx, err := row.Normalize()
		testutil.AssertNoError(t, err)

		if tx.Direction != models.DirectionDebit {
			t.Errorf("expected direction DEBIT, got %q", tx.Direction)
		}
		if tx.Currency != "USD" {
			t.Errorf("expected currency uppercased to USD, got %q", tx.Currency)
		}
	})

	t.Run("income category hint implies credit", func(t *testing.T) {
		row := parseOne(t, "ID,Date,Amount,Currency,Category\ntxn-2,2026-01-16,2500.00,USD,Income\n")

		tx, err := row.Normalize()
		testutil.AssertNoError(t, err)

		if tx.Direction != models.DirectionCredit {
			t.Errorf("expected direction CREDIT, got %q", tx.Direction)
		}
	})

	t.Run("expense category hint implies debit", func(t *testing.T) {
		row := parseOne(t, "ID,Date,Amount,Currency,Category\ntxn-3,2026-01-17,45.00,USD,Groceries\n")

		tx, err := row.Normalize()
		testutil.AssertNoError(t, err)

		if tx.Direction != models.DirectionDebit {
			t.Errorf("expected direction DEBIT, got %q", tx.Direction)
		}
	})

	t.Run("no direction or category is rejected", func(t *testing.T) {
		row := parseOne(t, "ID,Date,Amount,Currency\ntxn-4,2026-01-18,45.00,USD\n")

		_, err := row.Normalize()
		testutil.AssertAppError(t, err, "VALIDATION_FAILED")
	})

	t.Run("negative amount is stored absolute", func(t *testing.T) {
		row := parseOne(t, "ID,Date,Amount,Currency,Direction\ntxn-5,2026-01-19,-33.50,USD,OUT\n")

		tx, err := row.Normalize()
		testutil.AssertNoError(t, err)

		if !tx.Amount.Equal(decimalFromString(t, "33.50")) {
			t.Errorf("expected amount 33.50, got %s", tx.Amount)
		}
	})

	t.Run("unparseable amount fails", func(t *testing.T) {
		row := parseOne(t, "ID,Date,Amount,Currency,Direction\ntxn-6,2026-01-20,abc,USD,OUT\n")

		_, err := row.Normalize()
		testutil.AssertAppError(t, err, "VALIDATION_FAILED")
	})

	t.Run("finished on wins over created on", func(t *testing.T) {
		row := parseOne(t,
			"ID,Created On,Finished On,Amount,Currency,Direction\n"+
				"txn-7,2026-01-20,2026-01-21,10.00,USD,IN\n")

		tx, err := row.Normalize()
		testutil.AssertNoError(t, err)

		if tx.TransactionDate.Format("2006-01-02") != "2026-01-21" {
			t.Errorf("expected finished on date, got %s", tx.TransactionDate)
		}
	})
}
