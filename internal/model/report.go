package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Uncategorized is the explicit bucket for spend with no category.
const Uncategorized = "Uncategorized"

// CategorySummary aggregates expenses for one category.
type CategorySummary struct {
	Category   string
	Total      decimal.Decimal // absolute spend
	Percentage float64         // share of total spend, unrounded
	Count      int
}

// SourceStats are the headline numbers of a run.
type SourceStats struct {
	TotalSpent       decimal.Decimal
	TotalIncome      decimal.Decimal
	TransactionCount int
}

// Equal reports whether two stats are identical.
func (s SourceStats) Equal(o SourceStats) bool {
	return s.TotalSpent.Equal(o.TotalSpent) &&
		s.TotalIncome.Equal(o.TotalIncome) &&
		s.TransactionCount == o.TransactionCount
}

// Report is the output of one analysis run.
type Report struct {
	RunID       string
	GeneratedAt time.Time
	Source      string
	SummaryText string
	Stats       SourceStats
}
