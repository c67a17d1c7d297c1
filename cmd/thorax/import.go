// Import command merges other registry database files into the live one.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/meridian-health/thorax/internal/importer"
)

var (
	importDryRun  bool
	importPreview bool
)

var importCmd = &cobra.Command{
	Use:   "import <source.db> [source.db ...]",
	Short: "Merge patients from other registry files",
	Long: `Import copies patients (and their dependent records) from one or more
source registry files into the live database. Patients whose hospital ID
already exists are skipped; every copied record receives fresh IDs.

Use --preview to analyze the sources without writing, or --dry-run to run
the full merge logic with writes suppressed.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			fmt.Fprintln(os.Stderr, "import:", err)
			os.Exit(exitSysError)
		}
		defer store.Close()

		if importPreview {
			analysis, err := importer.Analyze(store, args)
			if err != nil {
				fmt.Fprintln(os.Stderr, "import:", err)
				os.Exit(exitSysError)
			}
			fmt.Print(analysis.Report())
			return nil
		}

		result, err := importer.Import(store, args, importer.Options{
			DryRun: importDryRun,
			Logger: slog.Default(),
		})
		if err != nil {
			fmt.Fprintln(os.Stderr, "import:", err)
			os.Exit(exitSysError)
		}

		fmt.Print(importer.ReportResult(result))

		if len(result.FailedSources()) == len(args) {
			// Nothing was readable; treat as a user error.
			os.Exit(exitUserError)
		}
		return nil
	},
}

func init() {
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "run the merge without writing")
	importCmd.Flags().BoolVar(&importPreview, "preview", false, "analyze sources without importing")
}
