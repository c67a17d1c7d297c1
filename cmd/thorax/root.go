// Root command for the thorax CLI.
package main

import (
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/meridian-health/thorax/internal/logging"
	"github.com/meridian-health/thorax/internal/paths"
	"github.com/meridian-health/thorax/pkg/thorax"
)

// Exit codes: 0 success, 1 user error (bad input, not found), 2 system
// error (I/O, corrupt database).
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// Global flag values.
var (
	flagConfigDir string
	flagDB        string
	flagVerbose   bool
)

// Values loaded from config.yaml by PersistentPreRunE so all subcommands
// can use them.
var (
	configDBPath    string
	configLogFile   string
	configBackupDir string
)

// logCloser closes the rotating log file; set by PersistentPreRunE.
var logCloser io.Closer

var rootCmd = &cobra.Command{
	Use:     "thorax",
	Short:   "Thorax is a thoracic-surgery patient registry",
	Version: thorax.Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		configDir, err := resolveConfigDir()
		if err != nil {
			return err
		}

		cfg, err := loadConfig(configDir)
		if err != nil {
			return err
		}

		configDBPath = cfg.GetString(cfgKeyDBPath)
		configLogFile = cfg.GetString(cfgKeyLogFile)
		configBackupDir = cfg.GetString(cfgKeyBackupDir)

		_, logCloser = logging.Setup(resolveLogFile(), flagVerbose)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logCloser != nil {
			logCloser.Close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigDir, "config-dir", "", "configuration directory (default: platform config dir)")
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "registry database file (default: $(CWD)/thoracic.db)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "log at debug level")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(patientCmd)
	rootCmd.AddCommand(recordCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(backupCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(stageCmd)
}

// resolveConfigDir returns the configuration directory following the
// --config-dir flag > THORAX_CONFIG_DIR env > platform default precedence.
func resolveConfigDir() (string, error) {
	return paths.ResolveConfigDir(flagConfigDir)
}

// resolveDBPath returns the database file path following the --db flag >
// config.yaml db_path > THORAX_DB_PATH env > default precedence.
func resolveDBPath() (string, error) {
	return paths.ResolveDBPath(flagDB, configDBPath)
}

// resolveLogFile returns the log file path: config.yaml log_file if set,
// otherwise a thorax.log next to the database file. An empty return sends
// log records to stderr.
func resolveLogFile() string {
	if configLogFile != "" {
		return configLogFile
	}
	dbPath, err := resolveDBPath()
	if err != nil {
		return ""
	}
	return filepath.Join(filepath.Dir(dbPath), paths.DefaultLogName)
}
