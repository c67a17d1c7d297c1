package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Backup copies the database file into destDir under a timestamped name
// and returns the path written. The copy is a plain file copy; callers
// should back up while no import or bulk write is running.
func Backup(dbPath, destDir string) (string, error) {
	src, err := os.Open(dbPath)
	if err != nil {
		return "", fmt.Errorf("opening database for backup: %w", err)
	}
	defer src.Close()

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", fmt.Errorf("creating backup directory: %w", err)
	}

	base := strings.TrimSuffix(filepath.Base(dbPath), filepath.Ext(dbPath))
	name := fmt.Sprintf("%s_backup_%s.db", base, time.Now().Format("20060102_150405"))
	destPath := filepath.Join(destDir, name)

	dest, err := os.Create(destPath)
	if err != nil {
		return "", fmt.Errorf("creating backup file: %w", err)
	}
	defer dest.Close()

	if _, err := io.Copy(dest, src); err != nil {
		os.Remove(destPath)
		return "", fmt.Errorf("copying database: %w", err)
	}
	if err := dest.Close(); err != nil {
		os.Remove(destPath)
		return "", fmt.Errorf("closing backup file: %w", err)
	}
	return destPath, nil
}
