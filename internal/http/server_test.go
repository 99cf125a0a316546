package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"salestree/internal/core"
	"salestree/internal/journal/memory"
)

func newTestServer(t *testing.T) (*Server, *memory.Store) {
	t.Helper()
	store := memory.New()
	srv := NewServer(":0", store)
	t.Cleanup(func() { srv.Shutdown(context.Background()) })
	return srv, store
}

func seedJournal(t *testing.T, store *memory.Store) {
	t.Helper()
	txs := []core.Transaction{
		{
			DocDate: core.NewDate(2025, 1, 10), DocType: core.DocIncome,
			Counterparty: "Acme Ltd", Description: "Consulting",
			AmountNet:   decimal.RequireFromString("1000"),
			VATAmount:   decimal.RequireFromString("240"),
			AmountGross: decimal.RequireFromString("1240"),
			PaymentMethod: core.PayBank, BankAccount: "Bank A",
			Status: core.StatusPaid, PaymentDate: core.NewDate(2025, 1, 15),
		},
		{
			DocDate: core.NewDate(2025, 2, 5), DocType: core.DocExpense,
			Counterparty: "Office Supplies Co", Description: "Paper",
			AmountNet:   decimal.RequireFromString("400"),
			VATAmount:   decimal.RequireFromString("96"),
			AmountGross: decimal.RequireFromString("496"),
			PaymentMethod: core.PayBank, BankAccount: "Bank A",
			Status: core.StatusPaid, PaymentDate: core.NewDate(2025, 2, 6),
		},
	}
	if err := store.ReplaceAll(context.Background(), txs); err != nil {
		t.Fatalf("seed journal: %v", err)
	}
}

func doRequest(t *testing.T, srv *Server, method, target string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body == nil {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()
	srv.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		rec := doRequest(t, srv, http.MethodGet, path, nil)
		if rec.Code != http.StatusOK {
			t.Errorf("%s status = %d, want 200", path, rec.Code)
		}
	}
}

func TestTransactionCRUDCycle(t *testing.T) {
	srv, _ := newTestServer(t)

	payload := []byte(`{
		"doc_date": "2025-03-10",
		"doc_type": "Income",
		"counterparty": "Acme Ltd",
		"description": "Consulting",
		"amount_net": 100,
		"vat_amount": 24,
		"amount_gross": 124,
		"payment_method": "Bank",
		"bank_account": "Bank A",
		"status": "Paid"
	}`)

	rec := doRequest(t, srv, http.MethodPost, "/api/journal", payload)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body.String())
	}
	var created transactionPayload
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	if created.ID == "" {
		t.Fatal("created transaction should carry an ID")
	}

	rec = doRequest(t, srv, http.MethodGet, "/api/journal/"+created.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}

	update := []byte(strings.Replace(string(payload), "Consulting", "Consulting March", 1))
	rec = doRequest(t, srv, http.MethodPut, "/api/journal/"+created.ID, update)
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, srv, http.MethodDelete, "/api/journal/"+created.ID, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}

	rec = doRequest(t, srv, http.MethodGet, "/api/journal/"+created.ID, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("get after delete status = %d, want 404", rec.Code)
	}
}

func TestCreateTransactionValidation(t *testing.T) {
	srv, _ := newTestServer(t)

	cases := []struct {
		name string
		body string
	}{
		{"missing counterparty", `{"doc_date":"2025-03-10","doc_type":"Income","description":"x","amount_net":100,"vat_amount":24,"amount_gross":124,"payment_method":"Bank","bank_account":"A","status":"Paid"}`},
		{"inconsistent amounts", `{"doc_date":"2025-03-10","doc_type":"Income","counterparty":"Acme","description":"x","amount_net":100,"vat_amount":24,"amount_gross":999,"payment_method":"Bank","bank_account":"A","status":"Paid"}`},
		{"unknown doc type", `{"doc_date":"2025-03-10","doc_type":"Ledger","counterparty":"Acme","description":"x","amount_net":100,"vat_amount":24,"amount_gross":124,"payment_method":"Bank","bank_account":"A","status":"Paid"}`},
	}
	for _, tc := range cases {
		rec := doRequest(t, srv, http.MethodPost, "/api/journal", []byte(tc.body))
		if rec.Code != http.StatusUnprocessableEntity {
			t.Errorf("%s: status = %d, want 422", tc.name, rec.Code)
		}
	}

	rec := doRequest(t, srv, http.MethodPost, "/api/journal", []byte("not json"))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("malformed body: status = %d, want 400", rec.Code)
	}
}

func TestListTransactionsFilterAndSearch(t *testing.T) {
	srv, store := newTestServer(t)
	seedJournal(t, store)

	var list struct {
		Transactions []transactionPayload `json:"transactions"`
		Count        int                  `json:"count"`
	}

	rec := doRequest(t, srv, http.MethodGet, "/api/journal?type=Income", nil)
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if list.Count != 1 || list.Transactions[0].Counterparty != "Acme Ltd" {
		t.Errorf("type filter returned %+v", list)
	}

	rec = doRequest(t, srv, http.MethodGet, "/api/journal?q=paper", nil)
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if list.Count != 1 || list.Transactions[0].DocType != core.DocExpense {
		t.Errorf("search returned %+v", list)
	}

	rec = doRequest(t, srv, http.MethodGet, "/api/journal?from=2025-02-01&to=2025-02-28", nil)
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if list.Count != 1 {
		t.Errorf("date range filter count = %d, want 1", list.Count)
	}

	rec = doRequest(t, srv, http.MethodGet, "/api/journal?year=2025", nil)
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if list.Count != 2 {
		t.Errorf("year filter count = %d, want 2", list.Count)
	}

	rec = doRequest(t, srv, http.MethodGet, "/api/journal?type=Bogus", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid type filter status = %d, want 400", rec.Code)
	}
}

func TestPeriodTotalsReport(t *testing.T) {
	srv, store := newTestServer(t)
	seedJournal(t, store)

	rec := doRequest(t, srv, http.MethodGet, "/api/reports/totals", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("totals status = %d", rec.Code)
	}

	var totals core.PeriodTotals
	if err := json.Unmarshal(rec.Body.Bytes(), &totals); err != nil {
		t.Fatalf("decode totals: %v", err)
	}
	if !totals.IncomeNet.Equal(decimal.RequireFromString("1000")) {
		t.Errorf("IncomeNet = %s, want 1000", totals.IncomeNet)
	}
	if !totals.ProfitNet.Equal(decimal.RequireFromString("600")) {
		t.Errorf("ProfitNet = %s, want 600", totals.ProfitNet)
	}
}

func TestVATSummaryReport(t *testing.T) {
	srv, store := newTestServer(t)
	seedJournal(t, store)

	rec := doRequest(t, srv, http.MethodGet, "/api/reports/vat", nil)
	var summary core.VATSummary
	if err := json.Unmarshal(rec.Body.Bytes(), &summary); err != nil {
		t.Fatalf("decode vat summary: %v", err)
	}
	if !summary.Payable.Equal(decimal.RequireFromString("144")) {
		t.Errorf("Payable = %s, want 144", summary.Payable)
	}
}

func TestCashBalancesReport(t *testing.T) {
	srv, store := newTestServer(t)
	seedJournal(t, store)

	rec := doRequest(t, srv, http.MethodGet, "/api/reports/cash-balances", nil)
	var resp struct {
		Balances []core.AccountBalance `json:"balances"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode balances: %v", err)
	}
	if len(resp.Balances) != 1 {
		t.Fatalf("balances = %d accounts, want 1", len(resp.Balances))
	}
	if !resp.Balances[0].Balance.Equal(decimal.RequireFromString("744")) {
		t.Errorf("Bank A balance = %s, want 744", resp.Balances[0].Balance)
	}
}

func TestAgingReportEndpoint(t *testing.T) {
	srv, store := newTestServer(t)

	unpaid := core.Transaction{
		DocDate: core.NewDate(2025, 1, 1), DocType: core.DocIncome,
		Counterparty: "Slowpay SA", Description: "Invoice",
		AmountNet:   decimal.RequireFromString("100"),
		VATAmount:   decimal.RequireFromString("24"),
		AmountGross: decimal.RequireFromString("124"),
		PaymentMethod: core.PayBank, BankAccount: "Bank A",
		Status: core.StatusUnpaid,
	}
	if err := store.ReplaceAll(context.Background(), []core.Transaction{unpaid}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	rec := doRequest(t, srv, http.MethodGet, "/api/reports/aging?as_of=2025-02-15", nil)
	var report struct {
		Receivables []core.AgedReceivable `json:"receivables"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatalf("decode aging: %v", err)
	}
	if len(report.Receivables) != 1 {
		t.Fatalf("receivables = %d, want 1", len(report.Receivables))
	}
	// 45 days open lands in the 30-60 bucket.
	if !report.Receivables[0].Buckets[1].Equal(decimal.RequireFromString("124")) {
		t.Errorf("bucket 30-60 = %s, want 124", report.Receivables[0].Buckets[1])
	}

	rec = doRequest(t, srv, http.MethodGet, "/api/reports/aging?as_of=garbage", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad as_of status = %d, want 400", rec.Code)
	}
}

func TestCounterpartyLedgerEndpoint(t *testing.T) {
	srv, store := newTestServer(t)
	seedJournal(t, store)

	rec := doRequest(t, srv, http.MethodGet, "/api/reports/counterparty?name=Acme+Ltd", nil)
	var ledger struct {
		Counterparty string               `json:"counterparty"`
		TotalPaid    string               `json:"total_paid"`
		Transactions []transactionPayload `json:"transactions"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &ledger); err != nil {
		t.Fatalf("decode ledger: %v", err)
	}
	if ledger.TotalPaid != "1240.00" || len(ledger.Transactions) != 1 {
		t.Errorf("ledger = %+v", ledger)
	}

	rec = doRequest(t, srv, http.MethodGet, "/api/reports/counterparty", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing name status = %d, want 400", rec.Code)
	}
}

func TestChecksEndpoint(t *testing.T) {
	srv, store := newTestServer(t)

	flagged := core.Transaction{
		DocDate: core.NewDate(2025, 1, 1), DocType: core.DocIncome,
		Counterparty: "Acme Ltd", Description: "Paid, no date",
		AmountNet:   decimal.RequireFromString("100"),
		VATAmount:   decimal.RequireFromString("24"),
		AmountGross: decimal.RequireFromString("124"),
		PaymentMethod: core.PayBank, BankAccount: "Bank A",
		Status: core.StatusPaid,
	}
	if err := store.ReplaceAll(context.Background(), []core.Transaction{flagged}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	rec := doRequest(t, srv, http.MethodGet, "/api/checks", nil)
	var checks struct {
		PaidWithoutPaymentDate []transactionPayload `json:"paid_without_payment_date"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &checks); err != nil {
		t.Fatalf("decode checks: %v", err)
	}
	if len(checks.PaidWithoutPaymentDate) != 1 {
		t.Errorf("flagged rows = %d, want 1", len(checks.PaidWithoutPaymentDate))
	}
}

func TestComputeVATEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/vat/compute?net=99.99&rate=24", nil)
	var resp struct {
		VAT   string `json:"vat"`
		Gross string `json:"gross"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode vat compute: %v", err)
	}
	if resp.VAT != "24.00" || resp.Gross != "123.99" {
		t.Errorf("VAT = %s, Gross = %s, want 24.00 / 123.99", resp.VAT, resp.Gross)
	}

	rec = doRequest(t, srv, http.MethodGet, "/api/vat/compute?net=100&rate=-5", nil)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("negative rate status = %d, want 422", rec.Code)
	}

	rec = doRequest(t, srv, http.MethodGet, "/api/vat/compute?net=-100&rate=24", nil)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("negative net status = %d, want 422", rec.Code)
	}

	rec = doRequest(t, srv, http.MethodGet, "/api/vat/compute?net=abc&rate=24", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad net status = %d, want 400", rec.Code)
	}
}

func TestImportEndpoint(t *testing.T) {
	srv, store := newTestServer(t)

	csvBody := strings.Join([]string{
		"Date,Type,Counterparty,Description,Net,VAT,Gross,Method,Account,Status",
		"2025-03-01,Income,Acme Ltd,Consulting,100,24,,Bank,Bank A,Paid",
		"2025-03-02,Ledger?,Bad Row,Mystery,50,12,62,Bank,Bank A,Paid",
	}, "\n")

	rec := doRequest(t, srv, http.MethodPost, "/api/journal/import", []byte(csvBody))
	if rec.Code != http.StatusOK {
		t.Fatalf("import status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Imported int      `json:"imported"`
		Skipped  []string `json:"skipped"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode import response: %v", err)
	}
	if resp.Imported != 1 || len(resp.Skipped) != 1 {
		t.Errorf("imported = %d skipped = %d, want 1/1", resp.Imported, len(resp.Skipped))
	}

	txs, err := store.LoadAll(context.Background())
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(txs) != 1 {
		t.Fatalf("journal rows = %d, want 1", len(txs))
	}
	// Gross was left blank in the CSV and must come back repaired.
	if !txs[0].AmountGross.Equal(decimal.RequireFromString("124")) {
		t.Errorf("AmountGross = %s, want 124", txs[0].AmountGross)
	}
}

func TestImportReplaceMode(t *testing.T) {
	srv, store := newTestServer(t)
	seedJournal(t, store)

	csvBody := "Date,Type,Counterparty,Description,Net,VAT,Gross,Method,Account,Status\n" +
		"2025-04-01,Income,New Co,Fresh start,10,2.40,12.40,Bank,Bank A,Paid\n"

	rec := doRequest(t, srv, http.MethodPost, "/api/journal/import?mode=replace", []byte(csvBody))
	if rec.Code != http.StatusOK {
		t.Fatalf("import status = %d", rec.Code)
	}

	txs, err := store.LoadAll(context.Background())
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(txs) != 1 || txs[0].Counterparty != "New Co" {
		t.Errorf("journal after replace = %+v", txs)
	}
}

func TestWriteCacheInvalidation(t *testing.T) {
	srv, store := newTestServer(t)
	seedJournal(t, store)

	// Prime the cache.
	doRequest(t, srv, http.MethodGet, "/api/journal", nil)

	payload := []byte(`{
		"doc_date": "2025-05-01", "doc_type": "Income",
		"counterparty": "Cache Test", "description": "x",
		"amount_net": 10, "vat_amount": 2.4, "amount_gross": 12.4,
		"payment_method": "Bank", "bank_account": "Bank A", "status": "Paid"
	}`)
	rec := doRequest(t, srv, http.MethodPost, "/api/journal", payload)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d", rec.Code)
	}

	var list struct {
		Count int `json:"count"`
	}
	rec = doRequest(t, srv, http.MethodGet, "/api/journal", nil)
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if list.Count != 3 {
		t.Errorf("count after write = %d, want 3 (stale cache?)", list.Count)
	}
}
