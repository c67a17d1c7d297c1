package types

// Config carries the settings a registry store needs at startup. It is
// constructed once (from flags and config.yaml) and passed explicitly to
// every component that needs it; there is no ambient global handle.
type Config struct {
	// DBPath is the path of the live SQLite database file.
	DBPath string `json:"db_path" yaml:"db_path"`

	// LogFile receives the rotating operation log. Empty means a
	// "thorax.log" next to the database file.
	LogFile string `json:"log_file" yaml:"log_file"`

	// BackupDir receives database backup copies. Empty means the
	// database file's directory.
	BackupDir string `json:"backup_dir" yaml:"backup_dir"`
}

// Validate checks that the Config is well-formed.
func (c Config) Validate() error {
	if c.DBPath == "" {
		return ErrDBPathEmpty
	}
	return nil
}
