// Package pipeline runs one analysis from CSV file to written report.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/finsum-dev/finsum/internal/id"
	"github.com/finsum-dev/finsum/internal/importer"
	"github.com/finsum-dev/finsum/internal/insight"
	"github.com/finsum-dev/finsum/internal/logger"
	"github.com/finsum-dev/finsum/internal/model"
	"github.com/finsum-dev/finsum/internal/prompt"
	"github.com/finsum-dev/finsum/internal/report"
	"github.com/finsum-dev/finsum/internal/runlog"
	"github.com/finsum-dev/finsum/internal/summary"
	"github.com/finsum-dev/finsum/internal/validate"
)

// ErrNoClient is returned when a non-dry run has no insight client.
var ErrNoClient = errors.New("no insight client configured")

// Options configures a Run.
type Options struct {
	Input      string
	ReportsDir string

	Summary summary.Options
	Prompt  prompt.Options

	// Client is called once per run; wrap it in an insight.Retrier for retries.
	Client insight.Client
	// Archiver, when set, receives a copy of the written report.
	Archiver report.Archiver

	// DryRun stops after the prompt is composed.
	DryRun bool

	Provider string
	Model    string
	Version  string

	Now   func() time.Time
	NewID func() string
}

// Result describes what a run produced.
type Result struct {
	RunID      string
	Source     string
	Dataset    *importer.Dataset
	Warnings   []validate.Warning
	Summary    *summary.Summary
	Payload    prompt.Payload
	Analysis   string
	Report     []byte
	ReportPath string
	ArchiveURI string
}

// Load reads and validates the input without summarizing it.
func Load(ctx context.Context, path string) (*importer.Dataset, []validate.Warning, error) {
	log := logger.FromContext(ctx)

	ds, err := importer.Load(path)
	if err != nil {
		return nil, nil, err
	}
	warns, err := validate.Validate(ds)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	log.Info("loaded transactions", "path", path, "count", ds.Set.Len(), "skipped", len(ds.Skipped), "warnings", len(warns))
	for _, w := range warns {
		log.Debug("data quality", "kind", w.Kind, "detail", w.String())
	}
	return ds, warns, nil
}

// Run executes the pipeline. No report is written unless the client
// returned an analysis.
func Run(ctx context.Context, opts Options) (*Result, error) {
	log := logger.FromContext(ctx)
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	newID := opts.NewID
	if newID == nil {
		newID = id.NewRunID
	}

	res := &Result{RunID: newID(), Source: filepath.Base(opts.Input)}
	log = log.With("run_id", id.Short(res.RunID))

	ds, warns, err := Load(ctx, opts.Input)
	if err != nil {
		return nil, err
	}
	res.Dataset, res.Warnings = ds, warns

	res.Summary = summary.Build(ds.Set, opts.Summary)
	res.Payload = prompt.Compose(res.Summary, ds.Set, opts.Prompt)
	log.Debug("composed prompt", "bytes", len(res.Payload.User), "categories", len(res.Summary.Categories))

	if opts.DryRun {
		return res, nil
	}
	if opts.Client == nil {
		return nil, ErrNoClient
	}

	log.Info("requesting analysis", "provider", opts.Provider, "model", opts.Model)
	start := time.Now()
	text, err := opts.Client.Send(ctx, res.Payload)
	if err != nil {
		return nil, fmt.Errorf("requesting analysis: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	log.Info("received analysis", "elapsed", time.Since(start).Round(time.Millisecond), "chars", len(text))
	res.Analysis = text

	generated := now()
	res.Report, err = report.Render(report.Document{
		Report: model.Report{
			RunID:       res.RunID,
			GeneratedAt: generated,
			Source:      res.Source,
			SummaryText: text,
			Stats:       res.Summary.Stats,
		},
		Summary:  res.Summary,
		Warnings: warns,
		Provider: opts.Provider,
		Model:    opts.Model,
		Currency: opts.Prompt.Currency,
		Version:  opts.Version,
	})
	if err != nil {
		return nil, err
	}

	w := &report.Writer{Dir: opts.ReportsDir}
	res.ReportPath, err = w.Write(res.Report, generated)
	if err != nil {
		return nil, err
	}
	log.Info("report saved", "path", res.ReportPath)

	if opts.Archiver != nil {
		uri, err := opts.Archiver.Archive(ctx, filepath.Base(res.ReportPath), res.Report)
		if err != nil {
			log.Warn("archive failed; local report kept", "err", err)
		} else {
			res.ArchiveURI = uri
			log.Info("report archived", "uri", uri)
		}
	}

	entry := runlog.Entry{
		Timestamp:    generated,
		RunID:        res.RunID,
		Source:       opts.Input,
		Transactions: res.Summary.Stats.TransactionCount,
		TotalSpent:   res.Summary.Stats.TotalSpent,
		TotalIncome:  res.Summary.Stats.TotalIncome,
		Warnings:     len(warns),
		Report:       res.ReportPath,
	}
	if err := runlog.Append(opts.ReportsDir, entry); err != nil {
		log.Warn("run log not updated", "err", err)
	}

	return res, nil
}
