package commands

import (
	"fmt"
	"io"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/finsum-dev/finsum/internal/id"
	"github.com/finsum-dev/finsum/internal/runlog"
)

func newHistoryCommand() *cobra.Command {
	var (
		limit int
		runID string
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List previous analysis runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := setup(cmd)
			if err != nil {
				return err
			}

			entries, err := runlog.Read(cfg.ReportsDir)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if runID != "" {
				return showRun(out, entries, runID)
			}
			if len(entries) == 0 {
				fmt.Fprintln(out, "No runs recorded yet.")
				return nil
			}
			if limit > 0 && len(entries) > limit {
				entries = entries[len(entries)-limit:]
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TIME\tRUN\tSOURCE\tTXNS\tSPENT\tINCOME\tWARNINGS\tREPORT")
			for _, e := range entries {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\t%d\t%s\n",
					e.Timestamp.Local().Format(time.DateTime),
					id.Short(e.RunID),
					filepath.Base(e.Source),
					e.Transactions,
					e.TotalSpent.StringFixed(2),
					e.TotalIncome.StringFixed(2),
					e.Warnings,
					filepath.Base(e.Report),
				)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "show only the most recent n runs")
	cmd.Flags().StringVar(&runID, "run", "", "show the full record of one run by its ID")

	return cmd
}

func showRun(out io.Writer, entries []runlog.Entry, raw string) error {
	want, err := id.ParseRunID(raw)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.RunID != want {
			continue
		}
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintf(tw, "Run:\t%s\n", e.RunID)
		fmt.Fprintf(tw, "Time:\t%s\n", e.Timestamp.Local().Format(time.DateTime))
		fmt.Fprintf(tw, "Source:\t%s\n", e.Source)
		fmt.Fprintf(tw, "Transactions:\t%d\n", e.Transactions)
		fmt.Fprintf(tw, "Spent:\t%s\n", e.TotalSpent.StringFixed(2))
		fmt.Fprintf(tw, "Income:\t%s\n", e.TotalIncome.StringFixed(2))
		fmt.Fprintf(tw, "Warnings:\t%d\n", e.Warnings)
		fmt.Fprintf(tw, "Report:\t%s\n", e.Report)
		return tw.Flush()
	}
	return fmt.Errorf("no run with ID %s in the run log", want)
}
