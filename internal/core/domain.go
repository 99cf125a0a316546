package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	DocIncome             DocType = "Income"
	DocExpense            DocType = "Expense"
	DocBill               DocType = "Bill"
	DocEquityDistribution DocType = "EquityDistribution"
	DocTransfer           DocType = "Transfer"
	DocCashWithdrawal     DocType = "CashWithdrawal"
	DocCashDeposit        DocType = "CashDeposit"
	DocBankOperation      DocType = "BankOperation"
)

const (
	PayBank   PaymentMethod = "Bank"
	PayCash   PaymentMethod = "Cash"
	PayCredit PaymentMethod = "Credit"
)

const (
	StatusPaid   Status = "Paid"
	StatusUnpaid Status = "Unpaid"
)

type (
	DocType       string
	PaymentMethod string
	Status        string

	Date struct {
		time.Time
	}

	// Transaction is one journal row: a sale, purchase, bill or cash movement.
	// Amounts are currency decimals; Gross is Net plus VAT.
	Transaction struct {
		ID            string
		DocDate       Date
		DocNo         string
		DocType       DocType
		Counterparty  string
		Description   string
		Category      string
		GLCode        string
		AmountNet     decimal.Decimal
		VATAmount     decimal.Decimal
		AmountGross   decimal.Decimal
		PaymentMethod PaymentMethod
		BankAccount   string
		Status        Status
		PaymentDate   Date // optional; empty while unpaid
	}
)

var (
	ErrInvalidDate          = errors.New("invalid document date")
	ErrInvalidDocType       = errors.New("invalid document type")
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
	ErrInvalidStatus        = errors.New("invalid status")
	ErrNegativeAmount       = errors.New("amount cannot be negative")
	ErrInconsistentAmounts  = errors.New("gross amount does not equal net plus VAT")
	ErrEmptyCounterparty    = errors.New("empty counterparty")
	ErrEmptyDescription     = errors.New("empty description")
	ErrMissingBankAccount   = errors.New("bank account required unless payment method is credit")
	ErrInvalidAmountFormat  = errors.New("invalid amount format")
	ErrNegativeRate         = errors.New("rate cannot be negative")
)

func (t DocType) Valid() bool {
	switch t {
	case DocIncome, DocExpense, DocBill, DocEquityDistribution,
		DocTransfer, DocCashWithdrawal, DocCashDeposit, DocBankOperation:
		return true
	default:
		return false
	}
}

// IsOutflow reports whether a paid transaction of this type reduces the
// settling account. Income is the single inflow type; everything else paid
// is an outflow.
func (t DocType) IsOutflow() bool {
	return t != DocIncome
}

func (m PaymentMethod) Valid() bool {
	switch m {
	case PayBank, PayCash, PayCredit:
		return true
	default:
		return false
	}
}

func (s Status) Valid() bool {
	return s == StatusPaid || s == StatusUnpaid
}

// NewDate creates a Date at day precision in UTC.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// Today returns the current date at day precision in UTC.
func Today() Date {
	now := time.Now().UTC()
	return NewDate(now.Year(), int(now.Month()), now.Day())
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// IsEmpty reports whether the date is unset (optional dates).
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

// DaysUntil returns whole days from d to other (negative when other is earlier).
func (d Date) DaysUntil(other Date) int {
	return int(other.Time.Sub(d.Time).Hours() / 24)
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format("2006-01-02")
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return ErrInvalidDate
	}
	*d = Date{Time: t}
	return nil
}

// Normalized returns a copy with the gross amount repaired: a persisted row
// carrying gross==0 while net or VAT is non-zero gets gross = net + VAT.
// Every aggregation runs on normalized rows.
func (t Transaction) Normalized() Transaction {
	if t.AmountGross.IsZero() && !(t.AmountNet.IsZero() && t.VATAmount.IsZero()) {
		t.AmountGross = t.AmountNet.Add(t.VATAmount)
	}
	return t
}

// Validate gates a manually entered transaction before it is persisted.
// It assumes amounts are final: an inconsistent net/VAT/gross triple is a
// rejection here, never a silent correction.
func (t Transaction) Validate() error {
	if err := t.DocDate.Validate(); err != nil {
		return err
	}
	if !t.DocType.Valid() {
		return ErrInvalidDocType
	}
	if !t.PaymentMethod.Valid() {
		return ErrInvalidPaymentMethod
	}
	if !t.Status.Valid() {
		return ErrInvalidStatus
	}
	if strings.TrimSpace(t.Counterparty) == "" {
		return ErrEmptyCounterparty
	}
	if strings.TrimSpace(t.Description) == "" {
		return ErrEmptyDescription
	}
	if t.AmountNet.IsNegative() || t.VATAmount.IsNegative() || t.AmountGross.IsNegative() {
		return ErrNegativeAmount
	}
	if !AmountsConsistent(t.AmountNet, t.VATAmount, t.AmountGross) {
		return ErrInconsistentAmounts
	}
	if strings.TrimSpace(t.BankAccount) == "" && t.PaymentMethod != PayCredit {
		return ErrMissingBankAccount
	}
	return nil
}
