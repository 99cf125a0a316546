package google

import (
	"testing"

	"github.com/shopspring/decimal"

	"salestree/internal/core"
	"salestree/internal/importer"
)

func sampleTransaction() core.Transaction {
	return core.Transaction{
		DocDate:       core.NewDate(2025, 3, 10),
		DocNo:         "INV-001",
		DocType:       core.DocIncome,
		Counterparty:  "Acme Ltd",
		Description:   "Consulting",
		Category:      "Services",
		GLCode:        "70.00",
		AmountNet:     decimal.RequireFromString("100"),
		VATAmount:     decimal.RequireFromString("24"),
		AmountGross:   decimal.RequireFromString("124"),
		PaymentMethod: core.PayBank,
		BankAccount:   "Bank A",
		Status:        core.StatusPaid,
		PaymentDate:   core.NewDate(2025, 3, 12),
	}
}

func TestRowValuesLayout(t *testing.T) {
	row := rowValues("row-1", sampleTransaction())

	if len(row) != len(sheetHeader) {
		t.Fatalf("row has %d cells, header has %d", len(row), len(sheetHeader))
	}
	if row[0] != "row-1" {
		t.Errorf("cell A = %v, want row-1", row[0])
	}
	if row[1] != "2025-03-10" {
		t.Errorf("doc_date cell = %v, want 2025-03-10", row[1])
	}
	if row[8] != "100.00" || row[9] != "24.00" || row[10] != "124.00" {
		t.Errorf("amount cells = %v %v %v", row[8], row[9], row[10])
	}
	if row[14] != "2025-03-12" {
		t.Errorf("payment_date cell = %v, want 2025-03-12", row[14])
	}
}

func TestRowValuesRepairsGross(t *testing.T) {
	tx := sampleTransaction()
	tx.AmountGross = decimal.Zero

	row := rowValues("row-1", tx)
	if row[10] != "124.00" {
		t.Errorf("gross cell = %v, want 124.00", row[10])
	}
}

func TestRowValuesEmptyPaymentDate(t *testing.T) {
	tx := sampleTransaction()
	tx.PaymentDate = core.Date{}

	row := rowValues("row-1", tx)
	if row[14] != "" {
		t.Errorf("payment_date cell = %v, want empty", row[14])
	}
}

// A sheet written by rowValues must read back through the importer
// unchanged. This is the contract that keeps the spreadsheet, CSV
// exports and the local database interchangeable.
func TestSheetRoundTrip(t *testing.T) {
	want := sampleTransaction()

	values := [][]any{sheetHeader, rowValues("row-1", want)}
	result, err := importer.Parse(toRecords(values), core.Today())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(result.Skipped) != 0 {
		t.Fatalf("skipped rows: %v", result.Skipped)
	}
	if len(result.Transactions) != 1 {
		t.Fatalf("transactions = %d, want 1", len(result.Transactions))
	}

	got := result.Transactions[0]
	if got.ID != "row-1" {
		t.Errorf("ID = %q, want row-1", got.ID)
	}
	if got.DocDate != want.DocDate || got.DocType != want.DocType {
		t.Errorf("document fields = %v %v", got.DocDate, got.DocType)
	}
	if got.Counterparty != want.Counterparty || got.Description != want.Description {
		t.Errorf("text fields = %q %q", got.Counterparty, got.Description)
	}
	if !got.AmountNet.Equal(want.AmountNet) || !got.VATAmount.Equal(want.VATAmount) || !got.AmountGross.Equal(want.AmountGross) {
		t.Errorf("amounts = %s %s %s", got.AmountNet, got.VATAmount, got.AmountGross)
	}
	if got.PaymentMethod != want.PaymentMethod || got.Status != want.Status {
		t.Errorf("payment fields = %v %v", got.PaymentMethod, got.Status)
	}
	if got.PaymentDate != want.PaymentDate {
		t.Errorf("payment date = %v, want %v", got.PaymentDate, want.PaymentDate)
	}
}

func TestToRecordsMixedTypes(t *testing.T) {
	values := [][]any{
		{"id", "doc_date"},
		{42, " padded "},
	}
	records := toRecords(values)

	if records[1][0] != "42" {
		t.Errorf("numeric cell = %q, want 42", records[1][0])
	}
	if records[1][1] != "padded" {
		t.Errorf("string cell = %q, want trimmed", records[1][1])
	}
}
