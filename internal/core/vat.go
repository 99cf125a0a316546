package core

import "github.com/shopspring/decimal"

// amountEpsilon absorbs rounding drift between gross and net+VAT.
var amountEpsilon = decimal.New(1, -2) // 0.01

var hundred = decimal.NewFromInt(100)

// ComputeVAT derives the VAT and gross amounts from a net amount and a
// percentage rate: vat = round(net * rate / 100), gross = round(net + vat),
// both half-up to two decimals. The rate is open-ended; the common Greek
// set (24, 13, 6, 0) is a UI convenience, not a constraint.
func ComputeVAT(net, ratePercent decimal.Decimal) (vat, gross decimal.Decimal) {
	vat = Round2(net.Mul(ratePercent).Div(hundred))
	gross = Round2(net.Add(vat))
	return vat, gross
}

// AmountsConsistent reports whether a net/VAT/gross triple is self-consistent:
// |gross - (net + vat)| <= 0.01. Used as the gate before persisting a
// manually entered transaction.
func AmountsConsistent(net, vat, gross decimal.Decimal) bool {
	return gross.Sub(net.Add(vat)).Abs().Cmp(amountEpsilon) <= 0
}
