package sqlite

import (
	"database/sql"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// AJCC v9 stage lookups against the map_* tables, plus the rule-based
// fallbacks used when the tables are empty or hold no matching row.

// LungStage looks up a clinical stage for the given TNM values in
// map_lung_v9. Returns "" when no mapping row matches.
func (s *Store) LungStage(t, n, m string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(); err != nil {
		return "", err
	}

	var stage string
	err := s.db.QueryRow(
		"SELECT stage FROM map_lung_v9 WHERE t = ? AND n = ? AND m = ? LIMIT 1",
		t, n, m).Scan(&stage)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("looking up lung stage: %w", err)
	}
	return stage, nil
}

// EsoStage looks up a clinical stage for esophageal cancer. The histology
// selects the mapping table: "SCC" uses map_eso_v9_scc, anything else uses
// map_eso_v9_ad. Grade and location may be empty. Returns "" when no
// mapping row matches.
func (s *Store) EsoStage(t, n, m, histology, grade, location string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(); err != nil {
		return "", err
	}

	table := "map_eso_v9_ad"
	if histology == "SCC" {
		table = "map_eso_v9_scc"
	}
	var stage string
	err := s.db.QueryRow(
		fmt.Sprintf("SELECT stage FROM %s WHERE t = ? AND n = ? AND m = ? AND grade = ? AND location = ? LIMIT 1", table),
		t, n, m, grade, location).Scan(&stage)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("looking up esophageal stage: %w", err)
	}
	return stage, nil
}

// FallbackLungStage infers a rough I-IV stage from TNM when no mapping row
// exists. Not AJCC-exact; used only as a default suggestion.
func FallbackLungStage(t, n, m string) string {
	if m != "" && m != "0" {
		return "IV"
	}
	switch strings.ToLower(n) {
	case "2", "2a", "2b", "3":
		return "III"
	case "1":
		return "II"
	}
	switch strings.ToLower(t) {
	case "1", "1a", "1b", "1c":
		return "I"
	case "2", "2a", "2b":
		return "II"
	case "3", "4":
		return "III"
	}
	return ""
}

// FallbackEsoStage infers a rough I-IV esophageal stage from TNM when no
// mapping row exists.
func FallbackEsoStage(t, n, m string) string {
	if m != "" && m != "0" {
		return "IV"
	}
	switch strings.ToLower(n) {
	case "2", "3":
		return "III"
	case "1":
		return "II"
	}
	switch strings.ToLower(t) {
	case "is", "1":
		return "I"
	case "2":
		return "II"
	case "3", "4", "4a", "4b":
		return "III"
	}
	return ""
}

// stagingCSVFiles names the CSV file feeding each mapping table.
var stagingCSVFiles = map[string]string{
	"map_lung_v9":    "map_lung_v9.csv",
	"map_eso_v9_scc": "map_eso_v9_scc.csv",
	"map_eso_v9_ad":  "map_eso_v9_ad.csv",
}

// LoadStagingCSV replaces the mapping tables with the contents of the CSV
// files found in dir. Each file's header row names the table columns.
// Missing files leave the corresponding table untouched; loaded tables are
// fully replaced. Returns the number of rows loaded per table.
func (s *Store) LoadStagingCSV(dir string) (map[string]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	loaded := make(map[string]int)
	for table, file := range stagingCSVFiles {
		path := filepath.Join(dir, file)
		header, records, err := readCSVFile(path)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return loaded, err
		}

		tx, err := s.db.Begin()
		if err != nil {
			return loaded, fmt.Errorf("loading %s: %w", table, err)
		}
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			tx.Rollback()
			return loaded, fmt.Errorf("clearing %s: %w", table, err)
		}
		insert := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
			table, strings.Join(header, ", "), placeholders(len(header)))
		for _, rec := range records {
			args := make([]any, len(rec))
			for i, v := range rec {
				args[i] = v
			}
			if _, err := tx.Exec(insert, args...); err != nil {
				tx.Rollback()
				return loaded, fmt.Errorf("loading %s from %s: %w", table, path, err)
			}
		}
		if err := tx.Commit(); err != nil {
			return loaded, fmt.Errorf("loading %s: %w", table, err)
		}
		loaded[table] = len(records)
	}
	return loaded, nil
}

func readCSVFile(path string) (header []string, records [][]string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	rows, err := r.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("parsing %s: empty file", path)
	}
	return rows[0], rows[1:], nil
}
