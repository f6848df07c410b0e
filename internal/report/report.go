// Package report renders an analysis run as a markdown document and
// writes it to disk without ever overwriting an earlier report.
package report

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/finsum-dev/finsum/internal/model"
	"github.com/finsum-dev/finsum/internal/prompt"
	"github.com/finsum-dev/finsum/internal/summary"
	"github.com/finsum-dev/finsum/internal/validate"
)

const frontMatterDelim = "---\n"

// Document is everything a rendered report needs.
type Document struct {
	Report   model.Report
	Summary  *summary.Summary
	Warnings []validate.Warning
	Provider string
	Model    string
	Currency string // defaults to "$"
	Version  string
}

// FrontMatter is the machine-readable block at the top of a report.
type FrontMatter struct {
	GeneratedAt string     `yaml:"generated_at"`
	RunID       string     `yaml:"run_id"`
	Source      string     `yaml:"source"`
	SourceStats StatsBlock `yaml:"source_stats"`
}

// StatsBlock holds amounts as strings so they round-trip exactly.
type StatsBlock struct {
	TotalSpent       string `yaml:"total_spent"`
	TotalIncome      string `yaml:"total_income"`
	TransactionCount int    `yaml:"transaction_count"`
}

// Stats converts the block back to decimals.
func (b StatsBlock) Stats() (model.SourceStats, error) {
	spent, err := decimal.NewFromString(b.TotalSpent)
	if err != nil {
		return model.SourceStats{}, fmt.Errorf("total_spent: %w", err)
	}
	income, err := decimal.NewFromString(b.TotalIncome)
	if err != nil {
		return model.SourceStats{}, fmt.Errorf("total_income: %w", err)
	}
	return model.SourceStats{TotalSpent: spent, TotalIncome: income, TransactionCount: b.TransactionCount}, nil
}

func newFrontMatter(r model.Report) FrontMatter {
	return FrontMatter{
		GeneratedAt: r.GeneratedAt.Format(time.RFC3339),
		RunID:       r.RunID,
		Source:      r.Source,
		SourceStats: StatsBlock{
			TotalSpent:       r.Stats.TotalSpent.StringFixed(2),
			TotalIncome:      r.Stats.TotalIncome.StringFixed(2),
			TransactionCount: r.Stats.TransactionCount,
		},
	}
}

// ParseFrontMatter reads the front matter block from a rendered report.
func ParseFrontMatter(data []byte) (FrontMatter, error) {
	var fm FrontMatter
	rest, ok := bytes.CutPrefix(data, []byte(frontMatterDelim))
	if !ok {
		return fm, errors.New("no front matter")
	}
	block, _, ok := bytes.Cut(rest, []byte("\n"+frontMatterDelim))
	if !ok {
		return fm, errors.New("unterminated front matter")
	}
	if err := yaml.Unmarshal(block, &fm); err != nil {
		return fm, fmt.Errorf("parsing front matter: %w", err)
	}
	return fm, nil
}

// Render produces the full report document.
func Render(d Document) ([]byte, error) {
	fm, err := yaml.Marshal(newFrontMatter(d.Report))
	if err != nil {
		return nil, fmt.Errorf("marshaling front matter: %w", err)
	}
	cur := d.Currency
	if cur == "" {
		cur = "$"
	}
	money := func(v decimal.Decimal) string { return prompt.Money(cur, v) }

	var b strings.Builder
	b.WriteString(frontMatterDelim)
	b.Write(fm)
	b.WriteString(frontMatterDelim)
	b.WriteString("\n")

	r := d.Report
	s := d.Summary

	b.WriteString("# Daily Financial Summary Report\n\n")
	fmt.Fprintf(&b, "**Generated:** %s  \n", r.GeneratedAt.Format("January 02, 2006 at 03:04 PM"))
	fmt.Fprintf(&b, "**Data Source:** %s  \n", r.Source)
	fmt.Fprintf(&b, "**Transactions:** %d  \n", r.Stats.TransactionCount)
	if !s.First.IsZero() {
		fmt.Fprintf(&b, "**Date Range:** %s to %s  \n", s.First.Format(time.DateOnly), s.Last.Format(time.DateOnly))
	}
	b.WriteString("\n---\n\n")

	b.WriteString("## Executive Summary\n\n")
	b.WriteString("| Metric | Amount |\n|--------|--------|\n")
	fmt.Fprintf(&b, "| **Total Income** | %s |\n", money(s.Stats.TotalIncome))
	fmt.Fprintf(&b, "| **Total Spent** | %s |\n", money(s.Stats.TotalSpent))
	fmt.Fprintf(&b, "| **Net Cash Flow** | %s |\n", money(s.Net))
	fmt.Fprintf(&b, "| **Transactions** | %d |\n", s.Stats.TransactionCount)
	b.WriteString("\n---\n\n")

	b.WriteString("## AI Financial Analysis\n\n")
	b.WriteString(strings.TrimSpace(r.SummaryText))
	b.WriteString("\n\n---\n\n")

	writeCategories(&b, s, money)
	writeTop(&b, s, money)
	writeUnusual(&b, s, money)
	writeBudgets(&b, s, money)
	writeWarnings(&b, d.Warnings)

	b.WriteString("## Report Information\n\n")
	fmt.Fprintf(&b, "- **Report Generated:** %s\n", r.GeneratedAt.Format(time.DateTime))
	fmt.Fprintf(&b, "- **Run ID:** %s\n", r.RunID)
	if d.Provider != "" {
		engine := d.Provider
		if d.Model != "" {
			engine += " (" + d.Model + ")"
		}
		fmt.Fprintf(&b, "- **Analysis Engine:** %s\n", engine)
	}
	if d.Version != "" {
		fmt.Fprintf(&b, "- **finsum Version:** %s\n", d.Version)
	}
	b.WriteString("\n---\n\n")
	b.WriteString("*This report was generated automatically. Review all recommendations and verify calculations before making financial decisions.*\n")

	return []byte(b.String()), nil
}

func writeCategories(b *strings.Builder, s *summary.Summary, money func(decimal.Decimal) string) {
	b.WriteString("## Spending Breakdown by Category\n\n")
	rows := s.Categories
	if s.Uncategorized.Count > 0 {
		rows = append(rows[:len(rows):len(rows)], s.Uncategorized)
	}
	if len(rows) == 0 {
		b.WriteString("*No spending found.*\n\n---\n\n")
		return
	}
	b.WriteString("| Category | Amount | Transactions | Average | Percentage |\n")
	b.WriteString("|----------|--------|--------------|---------|------------|\n")
	for _, c := range rows {
		avg := c.Total.Div(decimal.NewFromInt(int64(c.Count))).Round(2)
		fmt.Fprintf(b, "| **%s** | %s | %d | %s | %.1f%% |\n", c.Category, money(c.Total), c.Count, money(avg), c.Percentage)
	}
	b.WriteString("\n---\n\n")
}

func writeTop(b *strings.Builder, s *summary.Summary, money func(decimal.Decimal) string) {
	if len(s.Top) == 0 {
		return
	}
	b.WriteString("## Top Spending Categories\n\n")
	for i, c := range s.Top {
		fmt.Fprintf(b, "%d. **%s**: %s (%.1f%%)\n", i+1, c.Category, money(c.Total), c.Percentage)
	}
	b.WriteString("\n---\n\n")
}

func writeUnusual(b *strings.Builder, s *summary.Summary, money func(decimal.Decimal) string) {
	if len(s.Unusual) == 0 {
		return
	}
	fmt.Fprintf(b, "## Notable Transactions\n\nExpenses above %s:\n\n", money(s.UnusualThreshold))
	for _, u := range s.Unusual {
		fmt.Fprintf(b, "- %s %s: %s (%s)\n", u.Txn.Date.Format(time.DateOnly), u.Txn.Description, money(u.Txn.Amount.Abs()), u.Category)
	}
	b.WriteString("\n---\n\n")
}

func writeBudgets(b *strings.Builder, s *summary.Summary, money func(decimal.Decimal) string) {
	if len(s.Budgets) == 0 {
		return
	}
	b.WriteString("## Budgets\n\n")
	b.WriteString("| Category | Limit | Spent | Remaining | Status |\n")
	b.WriteString("|----------|-------|-------|-----------|--------|\n")
	for _, bs := range s.Budgets {
		status := "within"
		if bs.Over {
			status = "**over**"
		}
		fmt.Fprintf(b, "| %s | %s | %s | %s | %s |\n", bs.Category, money(bs.Limit), money(bs.Spent), money(bs.Remaining), status)
	}
	b.WriteString("\n---\n\n")
}

func writeWarnings(b *strings.Builder, warns []validate.Warning) {
	if len(warns) == 0 {
		return
	}
	fmt.Fprintf(b, "## Data Quality Warnings\n\n%d issue(s) found in the input:\n\n", len(warns))
	for _, w := range warns {
		fmt.Fprintf(b, "- %s\n", w)
	}
	b.WriteString("\n---\n\n")
}
