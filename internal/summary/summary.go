// Package summary computes exact-decimal aggregates over a transaction set.
package summary

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/finsum-dev/finsum/internal/model"
)

const (
	// TopN is how many categories are highlighted.
	TopN = 3
	// minSampleForMean is the expense count below which the fixed floor is
	// used instead of the mean-based threshold.
	minSampleForMean = 5
)

// DefaultUnusualFloor applies to sets with fewer than five expenses.
var DefaultUnusualFloor = decimal.NewFromInt(100)

// Options controls Build.
type Options struct {
	// LocalCategories fills in missing categories from the keyword table.
	LocalCategories bool
	// UnusualFloor overrides DefaultUnusualFloor. Zero selects the default,
	// so callers reject a configured zero before it gets here.
	UnusualFloor decimal.Decimal
	// Budgets maps category name (any case) to a spend limit.
	Budgets map[string]decimal.Decimal
}

// DailyTotal aggregates one calendar day.
type DailyTotal struct {
	Date   time.Time
	Spent  decimal.Decimal
	Income decimal.Decimal
	Count  int
}

// Unusual is an expense flagged as large for the set.
type Unusual struct {
	Txn      model.Transaction
	Category string
}

// BudgetStatus compares spend against a configured limit.
type BudgetStatus struct {
	Category  string
	Limit     decimal.Decimal
	Spent     decimal.Decimal
	Remaining decimal.Decimal // negative when over
	Over      bool
}

// Summary holds every aggregate of one run.
type Summary struct {
	Stats        model.SourceStats
	Net          decimal.Decimal
	ExpenseCount int
	IncomeCount  int
	First, Last  time.Time

	Categories    []model.CategorySummary // named categories, total desc then name asc
	Uncategorized model.CategorySummary
	Top           []model.CategorySummary

	UnusualThreshold decimal.Decimal
	Unusual          []Unusual

	Daily   []DailyTotal
	Budgets []BudgetStatus
}

type bucket struct {
	name  string
	total decimal.Decimal
	count int
}

// Build aggregates set. The result depends only on the values and order of set.
func Build(set model.TransactionSet, opts Options) *Summary {
	s := &Summary{
		Stats: model.SourceStats{
			TotalSpent:       decimal.Zero,
			TotalIncome:      decimal.Zero,
			TransactionCount: set.Len(),
		},
		Uncategorized: model.CategorySummary{Category: model.Uncategorized, Total: decimal.Zero},
	}
	s.First, s.Last = set.DateRange()

	buckets := make(map[string]*bucket)
	var order []string
	var expenses []Unusual

	for _, t := range set.Txns {
		switch {
		case t.IsExpense():
			abs := t.Amount.Abs()
			s.Stats.TotalSpent = s.Stats.TotalSpent.Add(abs)
			s.ExpenseCount++

			name := categoryOf(t, opts.LocalCategories)
			expenses = append(expenses, Unusual{Txn: t, Category: name})
			if name == model.Uncategorized {
				s.Uncategorized.Total = s.Uncategorized.Total.Add(abs)
				s.Uncategorized.Count++
				continue
			}
			key := strings.ToLower(name)
			b, ok := buckets[key]
			if !ok {
				b = &bucket{name: name, total: decimal.Zero}
				buckets[key] = b
				order = append(order, key)
			}
			b.total = b.total.Add(abs)
			b.count++
		case t.IsIncome():
			s.Stats.TotalIncome = s.Stats.TotalIncome.Add(t.Amount)
			s.IncomeCount++
		}
	}
	s.Net = s.Stats.TotalIncome.Sub(s.Stats.TotalSpent)

	for _, key := range order {
		b := buckets[key]
		s.Categories = append(s.Categories, model.CategorySummary{
			Category:   b.name,
			Total:      b.total,
			Count:      b.count,
			Percentage: percentOf(b.total, s.Stats.TotalSpent),
		})
	}
	slices.SortStableFunc(s.Categories, func(a, b model.CategorySummary) int {
		if c := b.Total.Cmp(a.Total); c != 0 {
			return c
		}
		return cmp.Compare(a.Category, b.Category)
	})
	s.Uncategorized.Percentage = percentOf(s.Uncategorized.Total, s.Stats.TotalSpent)
	s.Top = s.Categories[:min(TopN, len(s.Categories))]

	s.flagUnusual(expenses, opts.UnusualFloor)
	s.Daily = dailyTotals(set)
	s.Budgets = budgetStatus(s, opts.Budgets)
	return s
}

// CategoryTotal sums every named category plus the uncategorized bucket.
// It always equals Stats.TotalSpent.
func (s *Summary) CategoryTotal() decimal.Decimal {
	total := s.Uncategorized.Total
	for _, c := range s.Categories {
		total = total.Add(c.Total)
	}
	return total
}

func categoryOf(t model.Transaction, local bool) string {
	name := strings.TrimSpace(t.Category)
	if name == "" && local {
		name = Categorize(t.Description)
	}
	if name == "" || strings.EqualFold(name, model.Uncategorized) {
		return model.Uncategorized
	}
	return name
}

func percentOf(part, whole decimal.Decimal) float64 {
	if whole.IsZero() {
		return 0
	}
	return part.Mul(decimal.NewFromInt(100)).Div(whole).InexactFloat64()
}

// flagUnusual marks expenses above twice the mean absolute expense. With
// fewer than five expenses a fixed floor is used instead. The comparison
// |a| > 2*sum/n is evaluated as |a|*n > 2*sum to stay exact.
func (s *Summary) flagUnusual(expenses []Unusual, floor decimal.Decimal) {
	if floor.IsZero() {
		floor = DefaultUnusualFloor
	}
	n := decimal.NewFromInt(int64(len(expenses)))
	twice := s.Stats.TotalSpent.Mul(decimal.NewFromInt(2))

	useMean := len(expenses) >= minSampleForMean
	if useMean {
		s.UnusualThreshold = twice.Div(n).Round(2)
	} else {
		s.UnusualThreshold = floor
	}

	for _, e := range expenses {
		abs := e.Txn.Amount.Abs()
		if useMean && abs.Mul(n).GreaterThan(twice) || !useMean && abs.GreaterThan(floor) {
			s.Unusual = append(s.Unusual, e)
		}
	}
	slices.SortStableFunc(s.Unusual, func(a, b Unusual) int {
		return b.Txn.Amount.Abs().Cmp(a.Txn.Amount.Abs())
	})
}

func dailyTotals(set model.TransactionSet) []DailyTotal {
	var out []DailyTotal
	for _, t := range set.ByDate() {
		if len(out) == 0 || !out[len(out)-1].Date.Equal(t.Date) {
			out = append(out, DailyTotal{Date: t.Date, Spent: decimal.Zero, Income: decimal.Zero})
		}
		d := &out[len(out)-1]
		d.Count++
		switch {
		case t.IsExpense():
			d.Spent = d.Spent.Add(t.Amount.Abs())
		case t.IsIncome():
			d.Income = d.Income.Add(t.Amount)
		}
	}
	return out
}

func budgetStatus(s *Summary, limits map[string]decimal.Decimal) []BudgetStatus {
	if len(limits) == 0 {
		return nil
	}
	spent := make(map[string]decimal.Decimal)
	names := make(map[string]string)
	for _, c := range append(slices.Clone(s.Categories), s.Uncategorized) {
		key := strings.ToLower(c.Category)
		spent[key] = c.Total
		names[key] = c.Category
	}

	var out []BudgetStatus
	for cat, limit := range limits {
		key := strings.ToLower(strings.TrimSpace(cat))
		name, ok := names[key]
		if !ok {
			name = strings.TrimSpace(cat)
		}
		used, ok := spent[key]
		if !ok {
			used = decimal.Zero
		}
		out = append(out, BudgetStatus{
			Category:  name,
			Limit:     limit,
			Spent:     used,
			Remaining: limit.Sub(used),
			Over:      used.GreaterThan(limit),
		})
	}
	slices.SortFunc(out, func(a, b BudgetStatus) int {
		return cmp.Compare(strings.ToLower(a.Category), strings.ToLower(b.Category))
	})
	return out
}
