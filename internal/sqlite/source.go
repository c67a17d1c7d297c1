package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"strings"

	"github.com/meridian-health/thorax/pkg/types"
)

// Source is a read-only view of another registry database file, used while
// importing. Source files may predate the current schema, so reads pad any
// missing column with NULL instead of failing; the normal scan helpers then
// see the same column list they see on the live store.
type Source struct {
	path string
	db   *sql.DB
	cols map[string]map[string]bool
}

// Columns returns a kind's column names in storage order, primary key
// excluded. The slice is a copy.
func Columns(kind types.Kind) []string {
	cols := kindColumns(kind)
	out := make([]string, len(cols))
	copy(out, cols)
	return out
}

// kindColumns maps each entity kind to its non-key column list.
func kindColumns(kind types.Kind) []string {
	switch kind {
	case types.KindPatient:
		return patientColumns
	case types.KindSurgery:
		return surgeryColumns
	case types.KindPathology:
		return pathologyColumns
	case types.KindMolecular:
		return molecularColumns
	case types.KindFollowUpEvent:
		return followUpColumns
	}
	return nil
}

// OpenSource opens a database file for importing. The file must exist and
// must contain a readable Patient table.
func OpenSource(path string) (*Source, error) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return nil, fmt.Errorf("source %s: %w", path, types.ErrSourceUnreadable)
	}

	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening source %s: %w", path, err)
	}

	src := &Source{path: path, db: db, cols: make(map[string]map[string]bool)}
	ok, err := src.HasTable("Patient")
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("source %s: %w", path, types.ErrSourceUnreadable)
	}
	if !ok {
		db.Close()
		return nil, fmt.Errorf("source %s has no Patient table: %w", path, types.ErrSourceUnreadable)
	}
	return src, nil
}

// Path returns the source file path.
func (s *Source) Path() string {
	return s.path
}

// Close releases the source connection. Close is idempotent.
func (s *Source) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// HasTable reports whether the source file contains the named table.
func (s *Source) HasTable(name string) (bool, error) {
	var n int64
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name = ?", name).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("inspecting source %s: %w", s.path, err)
	}
	return n > 0, nil
}

func (s *Source) tableColumns(table string) (map[string]bool, error) {
	if cols, ok := s.cols[table]; ok {
		return cols, nil
	}
	cols, err := tableColumns(s.db, table)
	if err != nil {
		return nil, err
	}
	s.cols[table] = cols
	return cols, nil
}

// selectList builds the SELECT list for a kind against this source's actual
// schema: the key column first, then every current column, with columns the
// source predates padded as NULL so one scan routine serves every vintage.
func (s *Source) selectList(kind types.Kind) (string, error) {
	have, err := s.tableColumns(kind.Table())
	if err != nil {
		return "", err
	}

	parts := make([]string, 0, len(kindColumns(kind))+1)
	parts = append(parts, kind.KeyColumn())
	for _, col := range kindColumns(kind) {
		if have[col] {
			parts = append(parts, col)
		} else {
			parts = append(parts, "NULL AS "+col)
		}
	}
	return "SELECT " + strings.Join(parts, ", ") + " FROM " + kind.Table(), nil
}

// Patients reads every patient row in the source.
func (s *Source) Patients() ([]*types.Patient, error) {
	query, err := s.selectList(types.KindPatient)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("reading patients from %s: %w", s.path, err)
	}
	defer rows.Close()

	var out []*types.Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// SurgeriesFor reads a source patient's surgeries. A missing Surgery table
// yields an empty result, not an error.
func (s *Source) SurgeriesFor(patientID int64) ([]*types.Surgery, error) {
	ok, err := s.HasTable(types.KindSurgery.Table())
	if err != nil || !ok {
		return nil, err
	}
	query, err := s.selectList(types.KindSurgery)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.Query(query+" WHERE patient_id = ?", patientID)
	if err != nil {
		return nil, fmt.Errorf("reading surgeries from %s: %w", s.path, err)
	}
	defer rows.Close()

	var out []*types.Surgery
	for rows.Next() {
		v, err := scanSurgery(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// PathologiesFor reads a source patient's pathology reports.
func (s *Source) PathologiesFor(patientID int64) ([]*types.Pathology, error) {
	ok, err := s.HasTable(types.KindPathology.Table())
	if err != nil || !ok {
		return nil, err
	}
	query, err := s.selectList(types.KindPathology)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.Query(query+" WHERE patient_id = ?", patientID)
	if err != nil {
		return nil, fmt.Errorf("reading pathology from %s: %w", s.path, err)
	}
	defer rows.Close()

	var out []*types.Pathology
	for rows.Next() {
		v, err := scanPathology(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// MolecularFor reads a source patient's molecular tests.
func (s *Source) MolecularFor(patientID int64) ([]*types.Molecular, error) {
	ok, err := s.HasTable(types.KindMolecular.Table())
	if err != nil || !ok {
		return nil, err
	}
	query, err := s.selectList(types.KindMolecular)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.Query(query+" WHERE patient_id = ?", patientID)
	if err != nil {
		return nil, fmt.Errorf("reading molecular from %s: %w", s.path, err)
	}
	defer rows.Close()

	var out []*types.Molecular
	for rows.Next() {
		v, err := scanMolecular(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// FollowUpEventsFor reads a source patient's follow-up events.
func (s *Source) FollowUpEventsFor(patientID int64) ([]*types.FollowUpEvent, error) {
	ok, err := s.HasTable(types.KindFollowUpEvent.Table())
	if err != nil || !ok {
		return nil, err
	}
	query, err := s.selectList(types.KindFollowUpEvent)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.Query(query+" WHERE patient_id = ?", patientID)
	if err != nil {
		return nil, fmt.Errorf("reading follow-up events from %s: %w", s.path, err)
	}
	defer rows.Close()

	var out []*types.FollowUpEvent
	for rows.Next() {
		v, err := scanFollowUp(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// CountRows returns the row count of a table, or zero when the table is
// absent.
func (s *Source) CountRows(table string) (int64, error) {
	ok, err := s.HasTable(table)
	if err != nil || !ok {
		return 0, err
	}
	var n int64
	err = s.db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting %s rows in %s: %w", table, s.path, err)
	}
	return n, nil
}

// CountOrphans counts dependent rows whose patient link points at no
// patient in the same source file.
func (s *Source) CountOrphans(kind types.Kind) (int64, error) {
	ok, err := s.HasTable(kind.Table())
	if err != nil || !ok {
		return 0, err
	}
	var n int64
	err = s.db.QueryRow(fmt.Sprintf(
		"SELECT COUNT(*) FROM %s WHERE patient_id IS NULL OR patient_id NOT IN (SELECT patient_id FROM Patient)",
		kind.Table())).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting orphaned %s rows in %s: %w", kind.Table(), s.path, err)
	}
	return n, nil
}
