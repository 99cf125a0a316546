package http

import (
	"log/slog"
	"net/http"
	"strings"

	"salestree/internal/core"
)

// filteredJournal loads the journal and applies the query filter shared
// by every report endpoint.
func (s *Server) filteredJournal(w http.ResponseWriter, r *http.Request) ([]core.Transaction, bool) {
	filter, err := parseFilter(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}

	txs, err := s.loadJournal(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Journal load error", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load journal")
		return nil, false
	}

	return core.FilterTransactions(txs, filter), true
}

func (s *Server) handlePeriodTotals(w http.ResponseWriter, r *http.Request) {
	txs, ok := s.filteredJournal(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, core.ComputePeriodTotals(txs))
}

func (s *Server) handleVATSummary(w http.ResponseWriter, r *http.Request) {
	txs, ok := s.filteredJournal(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, core.ComputeVATSummary(txs))
}

func (s *Server) handleCashBalances(w http.ResponseWriter, r *http.Request) {
	txs, ok := s.filteredJournal(w, r)
	if !ok {
		return
	}

	balances := core.CashBalanceList(txs)
	writeJSON(w, http.StatusOK, struct {
		Balances []core.AccountBalance `json:"balances"`
	}{balances})
}

func (s *Server) handleAging(w http.ResponseWriter, r *http.Request) {
	asOf, err := parseAsOf(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	txs, ok := s.filteredJournal(w, r)
	if !ok {
		return
	}

	report := core.ComputeAging(txs, asOf)
	writeJSON(w, http.StatusOK, struct {
		core.AgingReport
		BucketLabels [4]string `json:"bucket_labels"`
	}{report, core.AgingBucketLabels})
}

func (s *Server) handleMonthlyFlows(w http.ResponseWriter, r *http.Request) {
	txs, ok := s.filteredJournal(w, r)
	if !ok {
		return
	}

	flows := core.ComputeMonthlyFlows(txs)
	writeJSON(w, http.StatusOK, struct {
		Flows []core.MonthlyFlow `json:"flows"`
	}{flows})
}

func (s *Server) handleCounterpartyLedger(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		writeError(w, http.StatusBadRequest, "missing counterparty name")
		return
	}

	txs, ok := s.filteredJournal(w, r)
	if !ok {
		return
	}

	ledger := core.ComputeCounterpartyLedger(txs, name)
	writeJSON(w, http.StatusOK, struct {
		Counterparty string               `json:"counterparty"`
		TotalPaid    string               `json:"total_paid"`
		TotalUnpaid  string               `json:"total_unpaid"`
		Transactions []transactionPayload `json:"transactions"`
	}{
		Counterparty: ledger.Counterparty,
		TotalPaid:    ledger.TotalPaid.StringFixed(2),
		TotalUnpaid:  ledger.TotalUnpaid.StringFixed(2),
		Transactions: toPayloads(ledger.Transactions),
	})
}

// handleChecks reports data-quality findings over the journal. Findings
// are advisory: the rows still aggregate normally.
func (s *Server) handleChecks(w http.ResponseWriter, r *http.Request) {
	txs, ok := s.filteredJournal(w, r)
	if !ok {
		return
	}

	missingPaymentDate := core.PaidWithoutPaymentDate(txs)
	var inconsistent []core.Transaction
	for _, t := range txs {
		if !core.AmountsConsistent(t.AmountNet, t.VATAmount, t.AmountGross) {
			inconsistent = append(inconsistent, t)
		}
	}

	writeJSON(w, http.StatusOK, struct {
		PaidWithoutPaymentDate []transactionPayload `json:"paid_without_payment_date"`
		InconsistentAmounts    []transactionPayload `json:"inconsistent_amounts"`
	}{toPayloads(missingPaymentDate), toPayloads(inconsistent)})
}

// handleComputeVAT derives VAT and gross from a net amount and rate.
func (s *Server) handleComputeVAT(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	net, err := core.ParseAmount(query.Get("net"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid net amount")
		return
	}
	rate, err := core.ParseAmount(query.Get("rate"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid rate")
		return
	}

	if net.IsNegative() {
		writeError(w, http.StatusUnprocessableEntity, core.ErrNegativeAmount.Error())
		return
	}
	if rate.IsNegative() {
		writeError(w, http.StatusUnprocessableEntity, core.ErrNegativeRate.Error())
		return
	}

	vat, gross := core.ComputeVAT(net, rate)

	writeJSON(w, http.StatusOK, struct {
		Net   string `json:"net"`
		Rate  string `json:"rate"`
		VAT   string `json:"vat"`
		Gross string `json:"gross"`
	}{net.StringFixed(2), rate.String(), vat.StringFixed(2), gross.StringFixed(2)})
}
