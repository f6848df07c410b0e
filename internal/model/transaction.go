package model

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// TxnType is the debit/credit marker from the bank export.
type TxnType string

const (
	TypeDebit   TxnType = "Debit"
	TypeCredit  TxnType = "Credit"
	TypeUnknown TxnType = "Unknown"
)

// Transaction is one parsed CSV row. It is never modified after loading.
type Transaction struct {
	Line        int // 1-based line in the source file
	Date        time.Time
	Description string
	Amount      decimal.Decimal // negative = expense, positive = income
	Type        TxnType
	Category    string
	Account     string
	Balance     *decimal.Decimal
}

// IsExpense reports whether the transaction moves money out.
func (t Transaction) IsExpense() bool { return t.Amount.IsNegative() }

// IsIncome reports whether the transaction moves money in.
func (t Transaction) IsIncome() bool { return t.Amount.IsPositive() }

// SignAgrees reports whether the amount sign matches the type.
// Debits are expected to be <= 0 and credits >= 0. Unknown types always agree.
func (t Transaction) SignAgrees() bool {
	switch t.Type {
	case TypeDebit:
		return !t.Amount.IsPositive()
	case TypeCredit:
		return !t.Amount.IsNegative()
	}
	return true
}

// TransactionSet is the ordered result of loading one file.
type TransactionSet struct {
	Source string
	Txns   []Transaction // file order
}

// Len returns the number of transactions.
func (s TransactionSet) Len() int { return len(s.Txns) }

// ByDate returns a copy sorted by date ascending. Equal dates keep file order.
func (s TransactionSet) ByDate() []Transaction {
	out := slices.Clone(s.Txns)
	slices.SortStableFunc(out, func(a, b Transaction) int {
		return a.Date.Compare(b.Date)
	})
	return out
}

// Recent returns up to n transactions, newest first. Equal dates keep file order.
func (s TransactionSet) Recent(n int) []Transaction {
	out := slices.Clone(s.Txns)
	slices.SortStableFunc(out, func(a, b Transaction) int {
		return b.Date.Compare(a.Date)
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// DateRange returns the earliest and latest dates. Both are zero for an empty set.
func (s TransactionSet) DateRange() (first, last time.Time) {
	for i, t := range s.Txns {
		if i == 0 || t.Date.Before(first) {
			first = t.Date
		}
		if i == 0 || t.Date.After(last) {
			last = t.Date
		}
	}
	return first, last
}
