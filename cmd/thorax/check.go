// Check command runs the database health checker.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/meridian-health/thorax/internal/health"
)

var checkFix bool

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check the registry database for problems",
	Long: `Check inspects the registry file: integrity, foreign keys, schema
completeness, duplicate or blank hospital IDs, and orphaned records.

With --fix it additionally runs the safe maintenance pass (VACUUM and
REINDEX) after the scan.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath, err := resolveDBPath()
		if err != nil {
			fmt.Fprintln(os.Stderr, "check:", err)
			os.Exit(exitSysError)
		}

		report := health.Check(dbPath)
		fmt.Print(report.Render())

		if checkFix && report.Healthy {
			actions, err := health.QuickFix(dbPath)
			if err != nil {
				fmt.Fprintln(os.Stderr, "check:", err)
				os.Exit(exitSysError)
			}
			for _, a := range actions {
				fmt.Println("fix:", a)
			}
		}

		if !report.Healthy {
			os.Exit(exitUserError)
		}
		return nil
	},
}

func init() {
	checkCmd.Flags().BoolVar(&checkFix, "fix", false, "run VACUUM and REINDEX after a clean scan")
}
