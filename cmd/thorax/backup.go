// Backup command copies the registry file into the backup directory.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/meridian-health/thorax/internal/export"
	"github.com/meridian-health/thorax/internal/paths"
)

var backupDir string

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Copy the registry database to a timestamped backup file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath, err := resolveDBPath()
		if err != nil {
			fmt.Fprintln(os.Stderr, "backup:", err)
			os.Exit(exitSysError)
		}

		destDir, err := paths.ResolveBackupDir(backupDir, configBackupDir, dbPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "backup:", err)
			os.Exit(exitSysError)
		}

		dest, err := export.Backup(dbPath, destDir)
		if err != nil {
			fmt.Fprintln(os.Stderr, "backup:", err)
			os.Exit(exitSysError)
		}

		fmt.Println("wrote", dest)
		return nil
	},
}

func init() {
	backupCmd.Flags().StringVar(&backupDir, "dir", "", "backup directory (default: backups/ next to the database)")
}
