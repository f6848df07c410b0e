package commands

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/finsum-dev/finsum/internal/config"
	"github.com/finsum-dev/finsum/internal/importer"
)

//go:embed assets/sample_transactions.csv
var sampleCSV []byte

const envExample = "# Copy to .env and fill in the key for your provider.\nANTHROPIC_API_KEY=\n# GEMINI_API_KEY=\n"

func newInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new finsum project",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			if err := runInit(absDir, force); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Initialized finsum project at %s\n", absDir)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing "+config.FileName)

	return cmd
}

func runInit(dir string, force bool) error {
	cfg := config.Default()

	// Create directory structure.
	for _, d := range []string{cfg.DataDir, cfg.ReportsDir} {
		if err := os.MkdirAll(filepath.Join(dir, d), 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", d, err)
		}
	}

	cfgPath := filepath.Join(dir, config.FileName)
	if _, err := os.Stat(cfgPath); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite): %w", cfgPath, fs.ErrExist)
	}
	if err := config.Save(cfgPath, cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	samplePath := filepath.Join(dir, cfg.DataDir, importer.SampleFile)
	if err := writeIfMissing(samplePath, sampleCSV); err != nil {
		return fmt.Errorf("writing sample data: %w", err)
	}

	if err := writeIfMissing(filepath.Join(dir, ".env.example"), []byte(envExample)); err != nil {
		return fmt.Errorf("writing .env.example: %w", err)
	}

	gitignore := ".env\n" + cfg.ReportsDir + "/\n" + cfg.DataDir + "/" + importer.DefaultFile + "\n"
	if err := writeIfMissing(filepath.Join(dir, ".gitignore"), []byte(gitignore)); err != nil {
		return fmt.Errorf("writing .gitignore: %w", err)
	}

	return nil
}

func writeIfMissing(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
