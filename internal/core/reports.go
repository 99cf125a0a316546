package core

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Report aggregations. Every function here is a pure function of its input
// slice: no ordering requirement, no retained state, empty input yields a
// zero-valued report. Rows are normalized (gross repair) before any math.

type (
	// Filter narrows a journal slice. Zero-valued fields match everything.
	Filter struct {
		From    Date
		To      Date
		DocType DocType
		Status  Status
	}

	PeriodTotals struct {
		IncomeNet  decimal.Decimal `json:"income_net"`
		ExpenseNet decimal.Decimal `json:"expense_net"`
		ProfitNet  decimal.Decimal `json:"profit_net"`
	}

	VATSummary struct {
		Collected  decimal.Decimal `json:"vat_collected"`
		Deductible decimal.Decimal `json:"vat_deductible"`
		// Payable keeps its sign: positive is owed to the tax authority,
		// negative is a refund due.
		Payable decimal.Decimal `json:"vat_payable"`
	}

	AccountKind string

	AccountBalance struct {
		Account string          `json:"account"`
		Kind    AccountKind     `json:"kind"`
		Balance decimal.Decimal `json:"balance"`
	}

	// AgedReceivable groups unpaid income gross per counterparty into
	// days-open buckets [0,30) [30,60) [60,90) [90,inf).
	AgedReceivable struct {
		Counterparty string             `json:"counterparty"`
		Buckets      [4]decimal.Decimal `json:"buckets"`
		Total        decimal.Decimal    `json:"total"`
	}

	AgingReport struct {
		AsOf          Date             `json:"as_of"`
		Receivables   []AgedReceivable `json:"receivables"`
		PayablesTotal decimal.Decimal  `json:"payables_total"`
	}

	CounterpartyLedger struct {
		Counterparty string          `json:"counterparty"`
		TotalPaid    decimal.Decimal `json:"total_paid"`
		TotalUnpaid  decimal.Decimal `json:"total_unpaid"`
		Transactions []Transaction   `json:"transactions"`
	}

	MonthlyFlow struct {
		Month   string          `json:"month"` // YYYY-MM
		DocType DocType         `json:"doc_type"`
		Net     decimal.Decimal `json:"net"`
	}
)

const (
	AccountCash AccountKind = "cash"
	AccountBank AccountKind = "bank"
)

// AgingBucketLabels are the display labels matching AgedReceivable.Buckets.
var AgingBucketLabels = [4]string{"0-30", "30-60", "60-90", "90+"}

// FilterTransactions returns the rows matching f.
func FilterTransactions(txs []Transaction, f Filter) []Transaction {
	out := make([]Transaction, 0, len(txs))
	for _, t := range txs {
		if !f.From.IsEmpty() && t.DocDate.Before(f.From.Time) {
			continue
		}
		if !f.To.IsEmpty() && t.DocDate.After(f.To.Time) {
			continue
		}
		if f.DocType != "" && t.DocType != f.DocType {
			continue
		}
		if f.Status != "" && t.Status != f.Status {
			continue
		}
		out = append(out, t)
	}
	return out
}

// ComputePeriodTotals reduces the journal to net income, net expense
// (Expense plus Bill rows) and their difference.
func ComputePeriodTotals(txs []Transaction) PeriodTotals {
	var income, expense decimal.Decimal
	for _, t := range txs {
		t = t.Normalized()
		switch t.DocType {
		case DocIncome:
			income = income.Add(t.AmountNet)
		case DocExpense, DocBill:
			expense = expense.Add(t.AmountNet)
		}
	}
	return PeriodTotals{
		IncomeNet:  Round2(income),
		ExpenseNet: Round2(expense),
		ProfitNet:  Round2(income.Sub(expense)),
	}
}

// ComputeVATSummary totals VAT collected on sales and deducted on
// purchases. Callers rely on the sign of Payable, not its absolute value.
func ComputeVATSummary(txs []Transaction) VATSummary {
	var collected, deductible decimal.Decimal
	for _, t := range txs {
		t = t.Normalized()
		switch t.DocType {
		case DocIncome:
			collected = collected.Add(t.VATAmount)
		case DocExpense, DocBill:
			deductible = deductible.Add(t.VATAmount)
		}
	}
	return VATSummary{
		Collected:  Round2(collected),
		Deductible: Round2(deductible),
		Payable:    Round2(collected.Sub(deductible)),
	}
}

// ComputeCashBalances sums signed gross flows per named account over Paid
// rows: Income is an inflow, every other paid type an outflow. The invariant
// sum(balances) == paid income gross - paid outflow gross always holds.
func ComputeCashBalances(txs []Transaction) map[string]decimal.Decimal {
	balances := map[string]decimal.Decimal{}
	for _, t := range txs {
		t = t.Normalized()
		if t.Status != StatusPaid || strings.TrimSpace(t.BankAccount) == "" {
			continue
		}
		flow := t.AmountGross
		if t.DocType.IsOutflow() {
			flow = flow.Neg()
		}
		balances[t.BankAccount] = balances[t.BankAccount].Add(flow)
	}
	for name, b := range balances {
		balances[name] = Round2(b)
	}
	return balances
}

// ClassifyAccount partitions account names into cash vs bank for display
// grouping. The heuristic is a case-insensitive substring match on the
// usual labels, Greek included; the balance math is identical either way.
func ClassifyAccount(name string) AccountKind {
	lower := strings.ToLower(name)
	if strings.Contains(lower, "cash") || strings.Contains(lower, "ταμείο") || strings.Contains(lower, "ταμειο") {
		return AccountCash
	}
	return AccountBank
}

// CashBalanceList is ComputeCashBalances with display classification,
// sorted by account name for stable output.
func CashBalanceList(txs []Transaction) []AccountBalance {
	balances := ComputeCashBalances(txs)
	out := make([]AccountBalance, 0, len(balances))
	for name, b := range balances {
		out = append(out, AccountBalance{Account: name, Kind: ClassifyAccount(name), Balance: b})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Account < out[j].Account })
	return out
}

// ComputeAging buckets unpaid receivables by how long they have been open
// as of the given date and totals unpaid payables flat. Bucket boundaries
// are inclusive-lower: a row dated exactly 30 days back lands in [30,60).
func ComputeAging(txs []Transaction, asOf Date) AgingReport {
	report := AgingReport{AsOf: asOf}
	perParty := map[string]*AgedReceivable{}
	var payables decimal.Decimal

	for _, t := range txs {
		t = t.Normalized()
		if t.Status != StatusUnpaid {
			continue
		}
		switch t.DocType {
		case DocIncome:
			daysOpen := t.DocDate.DaysUntil(asOf)
			if daysOpen < 0 {
				daysOpen = 0
			}
			bucket := 3
			switch {
			case daysOpen < 30:
				bucket = 0
			case daysOpen < 60:
				bucket = 1
			case daysOpen < 90:
				bucket = 2
			}
			ar, ok := perParty[t.Counterparty]
			if !ok {
				ar = &AgedReceivable{Counterparty: t.Counterparty}
				perParty[t.Counterparty] = ar
			}
			ar.Buckets[bucket] = ar.Buckets[bucket].Add(t.AmountGross)
			ar.Total = ar.Total.Add(t.AmountGross)
		case DocExpense, DocBill:
			payables = payables.Add(t.AmountGross)
		}
	}

	for _, ar := range perParty {
		for i := range ar.Buckets {
			ar.Buckets[i] = Round2(ar.Buckets[i])
		}
		ar.Total = Round2(ar.Total)
		report.Receivables = append(report.Receivables, *ar)
	}
	sort.Slice(report.Receivables, func(i, j int) bool {
		return report.Receivables[i].Counterparty < report.Receivables[j].Counterparty
	})
	report.PayablesTotal = Round2(payables)
	return report
}

// ComputeCounterpartyLedger extracts one counterparty's rows and their paid
// and unpaid gross totals. The unpaid total is the balance-owed figure; a
// counterparty is assumed to act as either customer or supplier within a
// report, so income is not netted against expense here.
func ComputeCounterpartyLedger(txs []Transaction, name string) CounterpartyLedger {
	ledger := CounterpartyLedger{Counterparty: name}
	for _, t := range txs {
		if t.Counterparty != name {
			continue
		}
		t = t.Normalized()
		ledger.Transactions = append(ledger.Transactions, t)
		switch t.Status {
		case StatusPaid:
			ledger.TotalPaid = ledger.TotalPaid.Add(t.AmountGross)
		case StatusUnpaid:
			ledger.TotalUnpaid = ledger.TotalUnpaid.Add(t.AmountGross)
		}
	}
	ledger.TotalPaid = Round2(ledger.TotalPaid)
	ledger.TotalUnpaid = Round2(ledger.TotalUnpaid)
	return ledger
}

// ComputeMonthlyFlows sums net amounts per calendar month and document type
// for the income/expense/bill rows, sorted by month then type. Feeds the
// monthly movement chart.
func ComputeMonthlyFlows(txs []Transaction) []MonthlyFlow {
	type key struct {
		month string
		typ   DocType
	}
	sums := map[key]decimal.Decimal{}
	for _, t := range txs {
		t = t.Normalized()
		switch t.DocType {
		case DocIncome, DocExpense, DocBill:
			k := key{month: t.DocDate.Format("2006-01"), typ: t.DocType}
			sums[k] = sums[k].Add(t.AmountNet)
		}
	}
	out := make([]MonthlyFlow, 0, len(sums))
	for k, v := range sums {
		out = append(out, MonthlyFlow{Month: k.month, DocType: k.typ, Net: Round2(v)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Month != out[j].Month {
			return out[i].Month < out[j].Month
		}
		return out[i].DocType < out[j].DocType
	})
	return out
}
