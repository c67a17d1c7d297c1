package sqlite

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/meridian-health/thorax/pkg/types"
)

// columnDef describes one additive migration: a column that later schema
// versions added to an existing table. Default is embedded literally in the
// DDL and must be a SQLite literal.
type columnDef struct {
	Table   string
	Name    string
	Type    string
	Default string
}

// migrations lists every column added after the first released schema, in
// the order the releases added them. Additive only; columns are never
// dropped or renamed.
var migrations = []columnDef{
	{Table: "Patient", Name: "eso_from_incisors_cm", Type: "REAL"},
	{Table: "Patient", Name: "diabetes_history", Type: "INTEGER", Default: "0"},
	{Table: "Patient", Name: "family_history", Type: "INTEGER", Default: "0"},
	{Table: "Patient", Name: "nac_radiation", Type: "INTEGER", Default: "0"},
	{Table: "Patient", Name: "adj_radiation", Type: "INTEGER", Default: "0"},
	{Table: "Patient", Name: "nac_date", Type: "TEXT"},
	{Table: "Patient", Name: "adj_date", Type: "TEXT"},
	{Table: "Patient", Name: "nac_antiangio", Type: "INTEGER", Default: "0"},
	{Table: "Patient", Name: "nac_antiangio_cycles", Type: "INTEGER"},
	{Table: "Patient", Name: "adj_antiangio", Type: "INTEGER", Default: "0"},
	{Table: "Patient", Name: "adj_antiangio_cycles", Type: "INTEGER"},
	{Table: "Pathology", Name: "airway_spread", Type: "INTEGER"},
	{Table: "Pathology", Name: "pathology_no", Type: "TEXT"},
	{Table: "Pathology", Name: "aden_subtype", Type: "TEXT"},
	{Table: "Pathology", Name: "pathology_date", Type: "TEXT"},
	{Table: "Molecular", Name: "ctc_count", Type: "INTEGER"},
	{Table: "Molecular", Name: "methylation_result", Type: "TEXT"},
	{Table: "Surgery", Name: "left_side", Type: "INTEGER", Default: "0"},
	{Table: "Surgery", Name: "right_side", Type: "INTEGER", Default: "0"},
	{Table: "FollowUpEvent", Name: "event_code", Type: "TEXT"},
}

// tableColumns returns the set of column names a table currently has.
func tableColumns(db *sql.DB, table string) (map[string]bool, error) {
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return nil, fmt.Errorf("reading columns of %s: %w", table, err)
	}
	defer rows.Close()

	cols := make(map[string]bool)
	for rows.Next() {
		var (
			cid       int64
			name, typ string
			notNull   int64
			dflt      sql.NullString
			pk        int64
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("reading columns of %s: %w", table, err)
		}
		cols[name] = true
	}
	return cols, rows.Err()
}

// Migrate brings an existing database file up to the current schema by
// adding columns later releases introduced, and backfills follow-up event
// codes where empty. Each column addition is its own unit of work: a
// failure on one column leaves prior additions in place and is returned to
// the caller. Running against an up-to-date file is a no-op.
//
// Returns a "Table.column" entry per column actually added.
func Migrate(db *sql.DB) ([]string, error) {
	have := make(map[string]map[string]bool)
	var applied []string

	for _, m := range migrations {
		cols, ok := have[m.Table]
		if !ok {
			var err error
			cols, err = tableColumns(db, m.Table)
			if err != nil {
				return applied, err
			}
			have[m.Table] = cols
		}
		if cols[m.Name] {
			continue
		}

		ddl := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", m.Table, m.Name, m.Type)
		if m.Default != "" {
			ddl += " DEFAULT " + m.Default
		}
		if _, err := db.Exec(ddl); err != nil {
			return applied, fmt.Errorf("adding column %s.%s: %w", m.Table, m.Name, err)
		}
		cols[m.Name] = true
		applied = append(applied, m.Table+"."+m.Name)
	}

	if err := backfillEventCodes(db); err != nil {
		return applied, err
	}
	return applied, nil
}

// MigrateFile runs the migration pass against an existing database file
// without opening a full Store. Used by the standalone migrate command to
// report which columns were added.
func MigrateFile(path string) ([]string, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %s", types.ErrSourceUnreadable, path)
	}
	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	// Files written before follow-up events existed lack the table entirely.
	if _, err := db.Exec(createFollowUpEvent); err != nil {
		return nil, fmt.Errorf("creating FollowUpEvent table: %w", err)
	}
	return Migrate(db)
}

// backfillEventCodes assigns a random unique code to follow-up events
// written before event codes existed. The unique index is only created
// once every row carries a code.
func backfillEventCodes(db *sql.DB) error {
	rows, err := db.Query(
		"SELECT event_id, patient_id FROM FollowUpEvent WHERE event_code IS NULL OR event_code = ''")
	if err != nil {
		return fmt.Errorf("finding events without codes: %w", err)
	}
	type blank struct{ eventID, patientID int64 }
	var blanks []blank
	for rows.Next() {
		var b blank
		if err := rows.Scan(&b.eventID, &b.patientID); err != nil {
			rows.Close()
			return fmt.Errorf("finding events without codes: %w", err)
		}
		blanks = append(blanks, b)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	rows.Close()

	for _, b := range blanks {
		code, err := freeEventCodeDB(db, b.patientID)
		if err != nil {
			return err
		}
		_, err = db.Exec("UPDATE FollowUpEvent SET event_code = ? WHERE event_id = ?", code, b.eventID)
		if err != nil {
			return fmt.Errorf("backfilling event code for event %d: %w", b.eventID, err)
		}
	}

	_, err = db.Exec(idxFollowUpEventCode)
	if err != nil {
		return fmt.Errorf("creating event code index: %w", err)
	}
	return nil
}

func freeEventCodeDB(db *sql.DB, patientID int64) (string, error) {
	for range 64 {
		code := randomEventCode()
		var n int64
		err := db.QueryRow(
			"SELECT COUNT(*) FROM FollowUpEvent WHERE patient_id = ? AND event_code = ?",
			patientID, code).Scan(&n)
		if err != nil {
			return "", fmt.Errorf("checking event code: %w", err)
		}
		if n == 0 {
			return code, nil
		}
	}
	return "", fmt.Errorf("generating event code for patient %d: %w", patientID, types.ErrEventCodeTaken)
}
