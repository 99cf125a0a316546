// Package importer maps external tabular data (CSV exports, spreadsheet
// dumps) onto journal transactions. It is deliberately tolerant: header
// synonyms are accepted, numbers may carry currency symbols and locale
// separators, and a bad cell degrades to a safe default instead of
// aborting the file. Import is best effort row by row.
package importer

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"salestree/internal/core"
)

// ErrNoHeader means the first row matched none of the known columns.
var ErrNoHeader = errors.New("no recognizable header row")

type (
	// RowError records why a single row was skipped. Row is the 1-based
	// index in the input, header included.
	RowError struct {
		Row int
		Err error
	}

	Result struct {
		Transactions []core.Transaction
		Skipped      []RowError
	}
)

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Row, e.Err)
}

// Column synonyms, compared after normalization (lowercase, separators
// stripped). Greek labels match the spreadsheets this replaces.
var headerSynonyms = map[string]string{
	"id": "id", "rowid": "id",
	"docdate": "doc_date", "date": "doc_date", "ημερομηνια": "doc_date",
	"docno": "doc_no", "documentno": "doc_no", "reference": "doc_no", "refno": "doc_no", "invoiceno": "doc_no", "αριθμοσ": "doc_no",
	"doctype": "doc_type", "type": "doc_type", "τυποσ": "doc_type",
	"counterparty": "counterparty", "party": "counterparty", "customer": "counterparty", "supplier": "counterparty", "name": "counterparty", "επωνυμια": "counterparty", "συναλλασσομενοσ": "counterparty",
	"description": "description", "memo": "description", "περιγραφη": "description", "αιτιολογια": "description",
	"category": "category", "κατηγορια": "category",
	"glcode": "gl_code", "gl": "gl_code", "accountcode": "gl_code", "κωδικοσ": "gl_code",
	"amountnet": "amount_net", "net": "amount_net", "netamount": "amount_net", "καθαρο": "amount_net", "καθαρηαξια": "amount_net",
	"vatamount": "vat_amount", "vat": "vat_amount", "tax": "vat_amount", "φπα": "vat_amount",
	"amountgross": "amount_gross", "gross": "amount_gross", "grossamount": "amount_gross", "total": "amount_gross", "μικτο": "amount_gross", "συνολο": "amount_gross",
	"paymentmethod": "payment_method", "method": "payment_method", "τροποσπληρωμησ": "payment_method",
	"bankaccount": "bank_account", "account": "bank_account", "λογαριασμοσ": "bank_account",
	"status": "status", "paid": "status", "κατασταση": "status",
	"paymentdate": "payment_date", "paiddate": "payment_date", "ημερομηνιαπληρωμησ": "payment_date",
}

var docTypeSynonyms = map[string]core.DocType{
	"income": core.DocIncome, "εσοδα": core.DocIncome, "εσοδο": core.DocIncome,
	"expense": core.DocExpense, "εξοδα": core.DocExpense, "εξοδο": core.DocExpense,
	"bill": core.DocBill, "λογαριασμοσ": core.DocBill,
	"equitydistribution": core.DocEquityDistribution, "distribution": core.DocEquityDistribution, "αποληψεισ": core.DocEquityDistribution,
	"transfer": core.DocTransfer, "μεταφορα": core.DocTransfer,
	"cashwithdrawal": core.DocCashWithdrawal, "withdrawal": core.DocCashWithdrawal, "αναληψη": core.DocCashWithdrawal,
	"cashdeposit": core.DocCashDeposit, "deposit": core.DocCashDeposit, "καταθεση": core.DocCashDeposit,
	"bankoperation": core.DocBankOperation, "τραπεζικηπραξη": core.DocBankOperation,
}

var paymentMethodSynonyms = map[string]core.PaymentMethod{
	"bank": core.PayBank, "τραπεζα": core.PayBank, "εμβασμα": core.PayBank,
	"cash": core.PayCash, "μετρητα": core.PayCash, "ταμειο": core.PayCash,
	"credit": core.PayCredit, "πιστωση": core.PayCredit, "επιπιστωσει": core.PayCredit,
}

var dateLayouts = []string{
	"2006-01-02", "02/01/2006", "2/1/2006", "02-01-2006", "02.01.2006", "2006/01/02",
}

// Parse converts a header-plus-rows matrix into transactions. Only an
// unusable header row is a hard error; everything else degrades per row.
// The today argument is the fallback for unparseable document dates.
func Parse(records [][]string, today core.Date) (Result, error) {
	var res Result
	if len(records) == 0 {
		return res, ErrNoHeader
	}

	columns := map[string]int{}
	for i, h := range records[0] {
		if field, ok := headerSynonyms[normalizeKey(h)]; ok {
			if _, taken := columns[field]; !taken {
				columns[field] = i
			}
		}
	}
	// A date and a type column are the minimum for a row to mean anything.
	if _, ok := columns["doc_date"]; !ok {
		return res, ErrNoHeader
	}
	if _, ok := columns["doc_type"]; !ok {
		return res, ErrNoHeader
	}

	for i, record := range records[1:] {
		rowNo := i + 2
		if blankRow(record) {
			continue
		}
		t, err := parseRow(record, columns, today)
		if err != nil {
			res.Skipped = append(res.Skipped, RowError{Row: rowNo, Err: err})
			continue
		}
		res.Transactions = append(res.Transactions, t)
	}
	return res, nil
}

func parseRow(record []string, columns map[string]int, today core.Date) (core.Transaction, error) {
	cell := func(field string) string {
		idx, ok := columns[field]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	docType, ok := docTypeSynonyms[normalizeKey(cell("doc_type"))]
	if !ok {
		return core.Transaction{}, fmt.Errorf("unknown document type %q", cell("doc_type"))
	}

	t := core.Transaction{
		ID:           cell("id"),
		DocDate:      parseDate(cell("doc_date"), today),
		DocNo:        cell("doc_no"),
		DocType:      docType,
		Counterparty: cell("counterparty"),
		Description:  cell("description"),
		Category:     cell("category"),
		GLCode:       cell("gl_code"),
		AmountNet:    parseAmountOrZero(cell("amount_net")),
		VATAmount:    parseAmountOrZero(cell("vat_amount")),
		AmountGross:  parseAmountOrZero(cell("amount_gross")),
		BankAccount:  cell("bank_account"),
	}

	if method, ok := paymentMethodSynonyms[normalizeKey(cell("payment_method"))]; ok {
		t.PaymentMethod = method
	} else {
		t.PaymentMethod = core.PayBank
	}

	t.Status = parseStatus(cell("status"))
	if pd := cell("payment_date"); pd != "" {
		t.PaymentDate = parseDate(pd, core.Date{})
	}

	// Imported rows may carry only net and VAT.
	return t.Normalized(), nil
}

func parseStatus(s string) core.Status {
	switch normalizeKey(s) {
	case "paid", "πληρωμενο", "εξοφλημενο", "yes", "true", "ναι":
		return core.StatusPaid
	default:
		return core.StatusUnpaid
	}
}

func parseDate(s string, fallback core.Date) core.Date {
	s = strings.TrimSpace(s)
	if s == "" {
		return fallback
	}
	// Tolerate datetime cells by keeping the date part.
	if i := strings.IndexAny(s, " T"); i > 0 {
		s = s[:i]
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return core.Date{Time: t}
		}
	}
	return fallback
}

func parseAmountOrZero(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	d, err := core.ParseAmount(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func blankRow(record []string) bool {
	for _, c := range record {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// normalizeKey lowercases, strips separators and removes Greek accents so
// header and enum synonyms compare reliably.
func normalizeKey(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch r {
		case ' ', '\t', '_', '-', '(', ')', '.', '/', '\'':
			continue
		}
		b.WriteRune(stripAccent(r))
	}
	return b.String()
}

func stripAccent(r rune) rune {
	switch r {
	case 'ά':
		return 'α'
	case 'έ':
		return 'ε'
	case 'ή':
		return 'η'
	case 'ί', 'ϊ', 'ΐ':
		return 'ι'
	case 'ό':
		return 'ο'
	case 'ύ', 'ϋ', 'ΰ':
		return 'υ'
	case 'ώ':
		return 'ω'
	case 'ς':
		return 'σ'
	default:
		return r
	}
}
