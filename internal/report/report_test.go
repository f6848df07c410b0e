package report

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"github.com/finsum-dev/finsum/internal/importer"
	"github.com/finsum-dev/finsum/internal/model"
	"github.com/finsum-dev/finsum/internal/summary"
	"github.com/finsum-dev/finsum/internal/validate"
)

var testTime = time.Date(2025, 1, 15, 10, 30, 45, 123_000_000, time.UTC)

func sampleDocument(t *testing.T) Document {
	t.Helper()
	ds, err := importer.Load(filepath.Join("../../testdata", "sample_transactions.csv"))
	require.NoError(t, err)
	s := summary.Build(ds.Set, summary.Options{
		LocalCategories: true,
		Budgets:         map[string]decimal.Decimal{"dining": decimal.NewFromInt(15)},
	})
	return Document{
		Report: model.Report{
			RunID:       "run-1",
			GeneratedAt: testTime,
			Source:      "sample_transactions.csv",
			SummaryText: "## Overview\nYou spent less than you earned.",
			Stats:       s.Stats,
		},
		Summary:  s,
		Warnings: []validate.Warning{{Kind: validate.KindDuplicate, Line: 4, Message: "duplicate of line 3"}},
		Provider: "anthropic",
		Model:    "test-model",
	}
}

func TestRender_Sections(t *testing.T) {
	data, err := Render(sampleDocument(t))
	require.NoError(t, err)
	out := string(data)

	for _, want := range []string{
		"# Daily Financial Summary Report",
		"**Data Source:** sample_transactions.csv",
		"| **Total Spent** | $417.16 |",
		"| **Total Income** | $3500.00 |",
		"## AI Financial Analysis\n\n## Overview\nYou spent less than you earned.",
		"## Spending Breakdown by Category",
		"| **Shopping** | $129.99 | 1 |",
		"1. **Shopping**: $129.99",
		"## Notable Transactions",
		"## Budgets",
		"**over**",
		"## Data Quality Warnings",
		"- line 4: duplicate of line 3",
		"- **Run ID:** run-1",
		"anthropic (test-model)",
	} {
		assert.Contains(t, out, want)
	}
}

func TestRender_FrontMatterRoundTrip(t *testing.T) {
	doc := sampleDocument(t)
	data, err := Render(doc)
	require.NoError(t, err)

	fm, err := ParseFrontMatter(data)
	require.NoError(t, err)
	assert.Equal(t, "run-1", fm.RunID)
	assert.Equal(t, "sample_transactions.csv", fm.Source)
	assert.Equal(t, "2025-01-15T10:30:45Z", fm.GeneratedAt)
	assert.Equal(t, "417.16", fm.SourceStats.TotalSpent)
	assert.Equal(t, "3500.00", fm.SourceStats.TotalIncome)
	assert.Equal(t, 8, fm.SourceStats.TransactionCount)

	stats, err := fm.SourceStats.Stats()
	require.NoError(t, err)
	assert.True(t, doc.Report.Stats.Equal(stats))
}

func TestParseFrontMatter_Missing(t *testing.T) {
	_, err := ParseFrontMatter([]byte("# just markdown\n"))
	assert.Error(t, err)
}

func TestBaseName(t *testing.T) {
	assert.Equal(t, "financial_analysis_20250115_103045_123", BaseName(testTime))
}

func TestWrite_NeverOverwrites(t *testing.T) {
	w := &Writer{Dir: filepath.Join(t.TempDir(), "reports")}

	p1, err := w.Write([]byte("first"), testTime)
	require.NoError(t, err)
	p2, err := w.Write([]byte("second"), testTime)
	require.NoError(t, err)
	p3, err := w.Write([]byte("third"), testTime)
	require.NoError(t, err)

	assert.Equal(t, "financial_analysis_20250115_103045_123.md", filepath.Base(p1))
	assert.Equal(t, "financial_analysis_20250115_103045_123_2.md", filepath.Base(p2))
	assert.Equal(t, "financial_analysis_20250115_103045_123_3.md", filepath.Base(p3))

	data, err := os.ReadFile(p1)
	require.NoError(t, err)
	assert.Equal(t, "first", string(data))

	list, err := w.List()
	require.NoError(t, err)
	assert.Len(t, list, 3)
}

func TestWrite_TwoRunsSameStats(t *testing.T) {
	w := &Writer{Dir: t.TempDir()}
	doc := sampleDocument(t)

	var stats []StatsBlock
	for i := 0; i < 2; i++ {
		doc.Report.GeneratedAt = testTime.Add(time.Duration(i) * time.Millisecond)
		data, err := Render(doc)
		require.NoError(t, err)
		path, err := w.Write(data, doc.Report.GeneratedAt)
		require.NoError(t, err)

		written, err := os.ReadFile(path)
		require.NoError(t, err)
		fm, err := ParseFrontMatter(written)
		require.NoError(t, err)
		stats = append(stats, fm.SourceStats)
	}

	list, err := w.List()
	require.NoError(t, err)
	assert.Len(t, list, 2)
	assert.Equal(t, stats[0], stats[1])
}

func TestWrite_UnwritableDir(t *testing.T) {
	file := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(file, nil, 0o644))

	w := &Writer{Dir: filepath.Join(file, "reports")}
	_, err := w.Write([]byte("x"), testTime)
	require.Error(t, err)

	var werr *WriteError
	assert.ErrorAs(t, err, &werr)
}

func TestGCSArchiver_ObjectName(t *testing.T) {
	ctx := context.Background()
	a, err := NewGCSArchiver(ctx, "bucket", "reports/finsum", option.WithoutAuthentication())
	require.NoError(t, err)
	defer a.Close()
	assert.Equal(t, "reports/finsum/financial_analysis_x.md", a.ObjectName("financial_analysis_x.md"))

	bare, err := NewGCSArchiver(ctx, "bucket", "", option.WithoutAuthentication())
	require.NoError(t, err)
	defer bare.Close()
	assert.Equal(t, "financial_analysis_x.md", bare.ObjectName("financial_analysis_x.md"))
}
