// Export command writes the registry tables out as CSV files.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/meridian-health/thorax/internal/export"
	"github.com/meridian-health/thorax/pkg/types"
)

var (
	exportOut     string
	exportPatient int64
	exportJobs    int
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export registry tables to CSV files",
	Long: `Export writes one CSV file per table into the output directory. Rows
are keyed by hospital ID; internal patient IDs and a few sensitive columns
are excluded.

With --patient it exports only that patient's records, one file per table
with a patient<id>_ prefix.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath, err := resolveDBPath()
		if err != nil {
			fmt.Fprintln(os.Stderr, "export:", err)
			os.Exit(exitSysError)
		}

		exporter := export.New(dbPath)

		var files []string
		if exportPatient > 0 {
			files, err = exporter.Patient(exportPatient, exportOut)
		} else {
			files, err = exporter.All(exportOut, exportJobs, func(done, total int) {
				fmt.Printf("exported %d/%d tables\n", done, total)
			})
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, "export:", err)
			if errors.Is(err, types.ErrNotFound) || errors.Is(err, types.ErrExportInFlight) {
				os.Exit(exitUserError)
			}
			os.Exit(exitSysError)
		}

		for _, f := range files {
			fmt.Println("wrote", f)
		}
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportOut, "out", "exports", "output directory")
	exportCmd.Flags().Int64Var(&exportPatient, "patient", 0, "export a single patient by ID")
	exportCmd.Flags().IntVar(&exportJobs, "jobs", 0, "concurrent table writers (default: one per table)")
}
