package importer

import (
	"testing"

	"github.com/shopspring/decimal"

	"salestree/internal/core"
)

var today = core.NewDate(2025, 7, 1)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestParseJournalExport(t *testing.T) {
	records := [][]string{
		{"DocDate", "DocNo", "DocType", "Counterparty", "Description", "Amount (Net)", "VAT Amount", "Amount (Gross)", "Payment Method", "Bank Account", "Status", "Payment Date"},
		{"2025-03-10", "INV-001", "Income", "Acme SA", "March invoice", "1.000,00", "240,00", "1.240,00", "Bank", "Alpha Bank", "Paid", "2025-03-20"},
		{"15/03/2025", "", "Expense", "Office World", "Supplies", "€ 40,00", "9,60", "49,60", "Cash", "Ταμείο", "Unpaid", ""},
	}

	res, err := Parse(records, today)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(res.Transactions) != 2 || len(res.Skipped) != 0 {
		t.Fatalf("expected 2 rows, got %d (skipped %d)", len(res.Transactions), len(res.Skipped))
	}

	first := res.Transactions[0]
	if first.DocType != core.DocIncome || first.DocNo != "INV-001" {
		t.Fatalf("unexpected first row: %+v", first)
	}
	if !first.AmountNet.Equal(dec("1000")) || !first.AmountGross.Equal(dec("1240")) {
		t.Fatalf("unexpected amounts: net=%s gross=%s", first.AmountNet, first.AmountGross)
	}
	if first.Status != core.StatusPaid || first.PaymentDate.String() != "2025-03-20" {
		t.Fatalf("unexpected status/payment date: %+v", first)
	}

	second := res.Transactions[1]
	if second.DocDate.String() != "2025-03-15" {
		t.Fatalf("day-first date not parsed: %s", second.DocDate)
	}
	if second.PaymentMethod != core.PayCash || second.BankAccount != "Ταμείο" {
		t.Fatalf("unexpected payment fields: %+v", second)
	}
	if second.Status != core.StatusUnpaid || !second.PaymentDate.IsEmpty() {
		t.Fatalf("unexpected status: %+v", second)
	}
}

func TestParseHeaderSynonymsAndGreekValues(t *testing.T) {
	records := [][]string{
		{"Ημερομηνία", "Τύπος", "Επωνυμία", "Καθαρό", "ΦΠΑ", "Σύνολο", "Κατάσταση"},
		{"10/01/2025", "Έσοδα", "Πελάτης Α", "500,00", "120,00", "620,00", "Πληρωμένο"},
		{"11/01/2025", "Έξοδα", "Προμηθευτής Β", "100,00", "24,00", "", "Ανεξόφλητο"},
	}

	res, err := Parse(records, today)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(res.Transactions) != 2 {
		t.Fatalf("expected 2 rows, got %d (skipped %v)", len(res.Transactions), res.Skipped)
	}
	if res.Transactions[0].DocType != core.DocIncome || res.Transactions[0].Status != core.StatusPaid {
		t.Fatalf("greek income row not normalized: %+v", res.Transactions[0])
	}
	expense := res.Transactions[1]
	if expense.DocType != core.DocExpense || expense.Status != core.StatusUnpaid {
		t.Fatalf("greek expense row not normalized: %+v", expense)
	}
	// Missing gross is recomputed from net + VAT.
	if !expense.AmountGross.Equal(dec("124")) {
		t.Fatalf("expected repaired gross 124, got %s", expense.AmountGross)
	}
}

func TestParseDegradesGracefully(t *testing.T) {
	records := [][]string{
		{"Date", "Type", "Net", "VAT", "Gross"},
		{"not a date", "Income", "abc", "n/a", "xx"},
		{"", "", "", "", ""},
		{"2025-01-01", "Ledger?", "10", "2.4", "12.4"},
		{"2025-02-02", "Bill", "50", "0", "50"},
	}

	res, err := Parse(records, today)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	// Bad cells default; only the unknown doc type skips its row.
	if len(res.Transactions) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(res.Transactions))
	}
	if len(res.Skipped) != 1 || res.Skipped[0].Row != 4 {
		t.Fatalf("expected row 4 skipped, got %+v", res.Skipped)
	}

	defaulted := res.Transactions[0]
	if !defaulted.DocDate.Equal(today.Time) {
		t.Fatalf("unparseable date should default to today, got %s", defaulted.DocDate)
	}
	if !defaulted.AmountNet.IsZero() || !defaulted.VATAmount.IsZero() || !defaulted.AmountGross.IsZero() {
		t.Fatalf("unparseable amounts should default to zero: %+v", defaulted)
	}
}

func TestParseRejectsUnusableHeader(t *testing.T) {
	if _, err := Parse(nil, today); err != ErrNoHeader {
		t.Fatalf("expected ErrNoHeader, got %v", err)
	}
	if _, err := Parse([][]string{{"foo", "bar"}}, today); err != ErrNoHeader {
		t.Fatalf("expected ErrNoHeader, got %v", err)
	}
	// A date column alone is not enough.
	if _, err := Parse([][]string{{"Date", "Whatever"}}, today); err != ErrNoHeader {
		t.Fatalf("expected ErrNoHeader, got %v", err)
	}
}

func TestParseCarriesRowIDs(t *testing.T) {
	records := [][]string{
		{"id", "DocDate", "DocType", "Counterparty", "Net", "VAT", "Gross"},
		{"row-7", "2025-03-10", "Income", "Acme SA", "100", "24", "124"},
		{"", "2025-03-11", "Expense", "Office World", "40", "9.60", "49.60"},
	}

	res, err := Parse(records, today)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(res.Transactions) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(res.Transactions))
	}
	if res.Transactions[0].ID != "row-7" {
		t.Fatalf("ID not carried through: %q", res.Transactions[0].ID)
	}
	// Rows without an id stay blank so the store can assign one.
	if res.Transactions[1].ID != "" {
		t.Fatalf("expected blank ID, got %q", res.Transactions[1].ID)
	}
}
