package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/finsum-dev/finsum/internal/importer"
	"github.com/finsum-dev/finsum/internal/pipeline"
	"github.com/finsum-dev/finsum/internal/prompt"
	"github.com/finsum-dev/finsum/internal/summary"
	"github.com/finsum-dev/finsum/internal/validate"
)

func newValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <csv>",
		Short: "Check a transaction CSV without calling any service",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, args[0])
		},
	}
}

func runValidate(cmd *cobra.Command, path string) error {
	cfg, ctx, err := setup(cmd)
	if err != nil {
		return err
	}

	ds, warns, err := pipeline.Load(ctx, path)
	if err != nil {
		return err
	}
	s := summary.Build(ds.Set, summary.Options{LocalCategories: cfg.LocalCategories})

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s: %d transactions, %d skipped rows, %d warnings\n",
		path, ds.Set.Len(), len(ds.Skipped), len(warns))
	if !s.First.IsZero() {
		fmt.Fprintf(out, "Date range: %s to %s\n", s.First.Format(time.DateOnly), s.Last.Format(time.DateOnly))
	}
	fmt.Fprintf(out, "Total spent: %s\nTotal income: %s\n",
		prompt.Money("$", s.Stats.TotalSpent), prompt.Money("$", s.Stats.TotalIncome))

	unknown := ds.Header.Unknown
	if len(unknown) > 0 {
		fmt.Fprintf(out, "Ignored columns: %v\n", unknown)
	}
	if !ds.Header.Has(importer.FieldCategory) && !cfg.LocalCategories {
		fmt.Fprintln(out, "No Category column; all spend will be Uncategorized")
	}

	for _, kind := range []validate.Kind{
		validate.KindSkippedRow,
		validate.KindUnknownType,
		validate.KindSignMismatch,
		validate.KindDuplicate,
	} {
		if n := validate.Count(warns, kind); n > 0 {
			fmt.Fprintf(out, "  %s: %d\n", kind, n)
		}
	}
	for _, w := range warns {
		fmt.Fprintf(out, "- %s\n", w)
	}
	return nil
}
