package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/finsum-dev/finsum/internal/buildinfo"
	"github.com/finsum-dev/finsum/internal/config"
	"github.com/finsum-dev/finsum/internal/importer"
	"github.com/finsum-dev/finsum/internal/insight"
	"github.com/finsum-dev/finsum/internal/logger"
	"github.com/finsum-dev/finsum/internal/pipeline"
	"github.com/finsum-dev/finsum/internal/prompt"
	"github.com/finsum-dev/finsum/internal/report"
	"github.com/finsum-dev/finsum/internal/summary"
)

// newClient and newArchiver are replaced in tests.
var (
	newClient   = providerClient
	newArchiver = gcsArchiver
)

func newAnalyzeCommand() *cobra.Command {
	var useSample, quiet, dryRun bool

	cmd := &cobra.Command{
		Use:   "analyze [csv]",
		Short: "Analyze a transaction CSV and write a report",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			explicit := ""
			if len(args) > 0 {
				explicit = args[0]
			}
			return runAnalyze(cmd, explicit, useSample, quiet, dryRun)
		},
	}

	cmd.Flags().BoolVar(&useSample, "sample", false, "analyze the bundled sample data")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "do not print the report")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the prompt without calling the service")
	cmd.Flags().String("provider", "", "text-generation provider: anthropic or gemini")
	cmd.Flags().String("model", "", "model name (default depends on provider)")
	cmd.Flags().String("reports-dir", "", "directory for reports")
	cmd.Flags().Int("max-sample", 0, "maximum transactions included verbatim in the prompt")

	return cmd
}

func runAnalyze(cmd *cobra.Command, explicit string, useSample, quiet, dryRun bool) error {
	cfg, ctx, err := setup(cmd)
	if err != nil {
		return err
	}
	log := logger.FromContext(ctx)

	path, sample, err := importer.ResolveInput(cfg.DataDir, explicit, useSample)
	if err != nil {
		return err
	}
	if sample {
		log.Info("using sample data", "path", path)
	}

	if !dryRun {
		if err := cfg.RequireAPIKey(); err != nil {
			return err
		}
	}

	floor, err := cfg.Floor()
	if err != nil {
		return err
	}
	budgets, err := cfg.BudgetLimits()
	if err != nil {
		return err
	}
	model := modelName(cfg)

	opts := pipeline.Options{
		Input:      path,
		ReportsDir: cfg.ReportsDir,
		Summary: summary.Options{
			LocalCategories: cfg.LocalCategories,
			UnusualFloor:    floor,
			Budgets:         budgets,
		},
		Prompt:   prompt.Options{MaxSample: cfg.MaxSample},
		DryRun:   dryRun,
		Provider: cfg.Provider,
		Model:    model,
		Version:  buildinfo.Version,
	}

	if !dryRun {
		client, err := newClient(ctx, cfg, model)
		if err != nil {
			return err
		}
		r := insight.NewRetrier(client)
		r.MaxRetries = cfg.MaxRetries
		r.Timeout = cfg.Timeout
		opts.Client = r

		if cfg.Archive.Bucket != "" {
			a, closeFn, err := newArchiver(ctx, cfg)
			if err != nil {
				log.Warn("archive disabled", "bucket", cfg.Archive.Bucket, "err", err)
			} else {
				defer closeFn()
				opts.Archiver = a
			}
		}
	}

	res, err := pipeline.Run(ctx, opts)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if dryRun {
		fmt.Fprintf(out, "=== SYSTEM ===\n%s\n\n=== USER ===\n%s", res.Payload.System, res.Payload.User)
		return nil
	}
	if !quiet {
		fmt.Fprint(out, string(res.Report))
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Report saved to %s\n", res.ReportPath)
	return nil
}

func modelName(cfg *config.Config) string {
	if cfg.Model != "" {
		return cfg.Model
	}
	if cfg.Provider == config.ProviderGemini {
		return insight.DefaultGeminiModel
	}
	return insight.DefaultAnthropicModel
}

func providerClient(ctx context.Context, cfg *config.Config, model string) (insight.Client, error) {
	switch cfg.Provider {
	case config.ProviderGemini:
		return insight.NewGeminiClient(ctx, insight.GeminiConfig{
			APIKey:      cfg.APIKey,
			Model:       model,
			MaxTokens:   cfg.MaxTokens,
			Temperature: cfg.Temperature,
		})
	default:
		return &insight.AnthropicClient{
			APIKey:      cfg.APIKey,
			Model:       model,
			MaxTokens:   cfg.MaxTokens,
			Temperature: cfg.Temperature,
		}, nil
	}
}

func gcsArchiver(ctx context.Context, cfg *config.Config) (report.Archiver, func(), error) {
	a, err := report.NewGCSArchiver(ctx, cfg.Archive.Bucket, cfg.Archive.Prefix)
	if err != nil {
		return nil, nil, err
	}
	return a, func() { _ = a.Close() }, nil
}
