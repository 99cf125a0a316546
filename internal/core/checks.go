package core

// PaidWithoutPaymentDate returns the rows marked Paid that carry no payment
// date. These are data-quality findings, not errors: the journal still
// aggregates them, the dashboard flags them for correction.
func PaidWithoutPaymentDate(txs []Transaction) []Transaction {
	var out []Transaction
	for _, t := range txs {
		if t.Status == StatusPaid && t.PaymentDate.IsEmpty() {
			out = append(out, t)
		}
	}
	return out
}
