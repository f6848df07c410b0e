package prompt

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/finsum-dev/finsum/internal/model"
	"github.com/finsum-dev/finsum/internal/summary"
)

// DefaultMaxSample caps how many raw transactions are sent.
const DefaultMaxSample = 100

// Payload is one request to the text-generation service.
type Payload struct {
	System string
	User   string
}

// Options controls Compose.
type Options struct {
	MaxSample int // <= 0 means DefaultMaxSample
	Currency  string
}

const systemPrompt = `You are a personal finance advisor specializing in bank transaction analysis.

Your responsibilities:
1. Categorize each transaction (groceries, dining, transportation, shopping, entertainment, bills, and so on)
2. Calculate total spending per category
3. Identify spending patterns and trends
4. Point out unusual or large transactions that need attention
5. Give encouraging but realistic insights
6. Suggest specific, actionable improvements

Use the pre-computed statistics as ground truth for totals; do not recompute them.

Analysis format:
- Spending Breakdown (by category with percentages)
- Top 3 Categories (with amounts and insights)
- Notable Transactions (large or unusual purchases)
- Daily Insights (3 observations about spending patterns)
- Action Items (3 specific ways to save money)
- Financial Health Score (1-10 with explanation)

Tone: encouraging, practical, focused on actionable improvements.`

// System returns the fixed instruction text.
func System() string { return systemPrompt }

// Compose renders the aggregates and a bounded sample of transactions.
// The same inputs always produce the same payload.
func Compose(s *summary.Summary, set model.TransactionSet, opts Options) Payload {
	limit := opts.MaxSample
	if limit <= 0 {
		limit = DefaultMaxSample
	}
	cur := opts.Currency
	if cur == "" {
		cur = "$"
	}
	money := func(d decimal.Decimal) string { return Money(cur, d) }

	var b strings.Builder
	b.WriteString("Please analyze the following transaction data and provide a comprehensive financial summary.\n\n")

	b.WriteString("TRANSACTION DATA:\n")
	b.WriteString("Date | Description | Amount | Type | Category\n")
	b.WriteString(strings.Repeat("-", 50) + "\n")
	sample := set.Recent(limit)
	for _, t := range sample {
		cat := t.Category
		if cat == "" {
			cat = "-"
		}
		fmt.Fprintf(&b, "%s | %s | %s | %s | %s\n",
			t.Date.Format("2006-01-02"), t.Description, money(t.Amount), t.Type, cat)
	}
	if omitted := set.Len() - len(sample); omitted > 0 {
		fmt.Fprintf(&b, "(%d older transactions omitted; statistics below cover all %d)\n", omitted, set.Len())
	}

	b.WriteString("\nSUMMARY STATISTICS:\n")
	fmt.Fprintf(&b, "Total Transactions: %d\n", s.Stats.TransactionCount)
	fmt.Fprintf(&b, "Total Income: %s\n", money(s.Stats.TotalIncome))
	fmt.Fprintf(&b, "Total Spent: %s\n", money(s.Stats.TotalSpent))
	fmt.Fprintf(&b, "Net Cash Flow: %s\n", money(s.Net))
	if !s.First.IsZero() {
		fmt.Fprintf(&b, "Date Range: %s to %s\n", s.First.Format("2006-01-02"), s.Last.Format("2006-01-02"))
	}

	if len(s.Categories) > 0 || s.Uncategorized.Count > 0 {
		b.WriteString("\nCATEGORY TOTALS:\n")
		for _, c := range s.Categories {
			fmt.Fprintf(&b, "%s: %s (%.1f%%, %d transactions)\n", c.Category, money(c.Total), c.Percentage, c.Count)
		}
		if s.Uncategorized.Count > 0 {
			u := s.Uncategorized
			fmt.Fprintf(&b, "%s: %s (%.1f%%, %d transactions)\n", u.Category, money(u.Total), u.Percentage, u.Count)
		}
	}

	if len(s.Top) > 0 {
		b.WriteString("\nTOP CATEGORIES:\n")
		for i, c := range s.Top {
			fmt.Fprintf(&b, "%d. %s %s\n", i+1, c.Category, money(c.Total))
		}
	}

	if len(s.Unusual) > 0 {
		fmt.Fprintf(&b, "\nNOTABLE TRANSACTIONS (above %s):\n", money(s.UnusualThreshold))
		for _, u := range s.Unusual {
			fmt.Fprintf(&b, "%s | %s | %s\n", u.Txn.Date.Format("2006-01-02"), u.Txn.Description, money(u.Txn.Amount))
		}
	}

	if len(s.Budgets) > 0 {
		b.WriteString("\nBUDGETS:\n")
		for _, bs := range s.Budgets {
			state := "within budget"
			if bs.Over {
				state = "OVER budget"
			}
			fmt.Fprintf(&b, "%s: spent %s of %s (%s)\n", bs.Category, money(bs.Spent), money(bs.Limit), state)
		}
	}

	return Payload{System: systemPrompt, User: b.String()}
}

// Money formats d with two decimals and the sign before the symbol.
func Money(symbol string, d decimal.Decimal) string {
	if d.IsNegative() {
		return "-" + symbol + d.Abs().StringFixed(2)
	}
	return symbol + d.StringFixed(2)
}
