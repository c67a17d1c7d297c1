// Package health inspects a registry database file for corruption and
// consistency problems: failed integrity checks, foreign-key violations,
// missing tables, duplicate or blank hospital IDs, and orphaned dependent
// rows. Checks open their own connection by path, so they can run against
// a file no store has open.
package health

import (
	"database/sql"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	_ "modernc.org/sqlite"

	"github.com/meridian-health/thorax/pkg/types"
)

// Report is the outcome of a full check. Issues mean the file needs
// repair before further use; warnings are survivable but worth fixing.
type Report struct {
	Healthy     bool
	Issues      []string
	Warnings    []string
	Suggestions []string
}

// Check runs every inspection against the database file at path.
func Check(path string) *Report {
	r := &Report{}

	if !checkFileAccess(path, r) {
		r.Healthy = false
		return r
	}

	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro&_pragma=busy_timeout(5000)")
	if err != nil {
		r.issue("cannot open database: %v", err)
		r.Healthy = false
		return r
	}
	defer db.Close()

	checkIntegrity(db, r)
	checkForeignKeys(db, r)
	checkSchema(db, r)
	checkConsistency(db, r)

	r.Healthy = len(r.Issues) == 0
	return r
}

func (r *Report) issue(format string, args ...any) {
	r.Issues = append(r.Issues, fmt.Sprintf(format, args...))
}

func (r *Report) warn(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

func (r *Report) suggest(s string) {
	r.Suggestions = append(r.Suggestions, s)
}

func checkFileAccess(path string, r *Report) bool {
	info, err := os.Stat(path)
	if err != nil {
		r.issue("database file does not exist: %s", path)
		return false
	}
	if info.IsDir() {
		r.issue("database path is a directory: %s", path)
		return false
	}
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		r.issue("database file is not readable and writable: %v", err)
		return false
	}
	f.Close()
	return true
}

func checkIntegrity(db *sql.DB, r *Report) {
	var result string
	if err := db.QueryRow("PRAGMA integrity_check").Scan(&result); err != nil {
		r.issue("cannot run integrity check: %v", err)
		return
	}
	if result != "ok" {
		r.issue("integrity check failed: %s", result)
		return
	}
	if err := db.QueryRow("PRAGMA quick_check").Scan(&result); err == nil && result != "ok" {
		r.warn("quick check reported: %s", result)
	}
}

func checkForeignKeys(db *sql.DB, r *Report) {
	rows, err := db.Query("PRAGMA foreign_key_check")
	if err != nil {
		r.warn("cannot run foreign key check: %v", err)
		return
	}
	defer rows.Close()

	count := 0
	for rows.Next() {
		var table string
		var rowid sql.NullInt64
		var parent string
		var fkid int64
		if err := rows.Scan(&table, &rowid, &parent, &fkid); err != nil {
			r.warn("cannot read foreign key violations: %v", err)
			return
		}
		count++
		if count <= 5 {
			r.warn("foreign key violation in %s (row %d, references %s)", table, rowid.Int64, parent)
		}
	}
	if count > 5 {
		r.warn("... and %d more foreign key violations", count-5)
	}
	if count > 0 {
		r.suggest("run the quick fix to clean up dangling rows")
	}
}

func checkSchema(db *sql.DB, r *Report) {
	rows, err := db.Query("SELECT name FROM sqlite_master WHERE type='table'")
	if err != nil {
		r.warn("cannot list tables: %v", err)
		return
	}
	defer rows.Close()

	present := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			r.warn("cannot list tables: %v", err)
			return
		}
		present[name] = true
	}

	var missing []string
	for _, kind := range types.Kinds {
		if !present[kind.Table()] {
			missing = append(missing, kind.Table())
		}
	}
	if len(missing) > 0 {
		r.warn("missing required tables: %s", strings.Join(missing, ", "))
		r.suggest("reopen the file with this program so the schema is created and migrated")
	}
}

func checkConsistency(db *sql.DB, r *Report) {
	// Duplicate hospital IDs. The unique constraint should prevent these;
	// files merged by other tools sometimes carry them anyway.
	rows, err := db.Query(`SELECT hospital_id, COUNT(*) AS cnt FROM Patient
		WHERE hospital_id IS NOT NULL AND hospital_id != ''
		GROUP BY hospital_id HAVING cnt > 1`)
	if err == nil {
		dups := 0
		for rows.Next() {
			var hid string
			var cnt int64
			if err := rows.Scan(&hid, &cnt); err != nil {
				break
			}
			dups++
			if dups <= 5 {
				r.warn("hospital ID %s appears %d times", hid, cnt)
			}
		}
		rows.Close()
		if dups > 5 {
			r.warn("... and %d more duplicated hospital IDs", dups-5)
		}
		if dups > 0 {
			r.suggest("merge or delete the duplicated patient records")
		}
	}

	var blank int64
	err = db.QueryRow(
		"SELECT COUNT(*) FROM Patient WHERE hospital_id IS NULL OR hospital_id = ''").Scan(&blank)
	if err == nil && blank > 0 {
		r.warn("%d patients have no hospital ID", blank)
		r.suggest("fill in the missing hospital IDs")
	}

	// Orphaned dependent rows.
	totalOrphans := int64(0)
	for _, kind := range types.DependentKinds {
		var n int64
		err := db.QueryRow(fmt.Sprintf(
			`SELECT COUNT(*) FROM %s t
			 WHERE NOT EXISTS (SELECT 1 FROM Patient p WHERE p.patient_id = t.patient_id)`,
			kind.Table())).Scan(&n)
		if err != nil {
			continue
		}
		if n > 0 {
			r.warn("%d orphaned %s rows", n, kind.Table())
			totalOrphans += n
		}
	}
	if totalOrphans > 0 {
		r.suggest("run the quick fix to clean up dangling rows")
	}

	// Duplicate primary keys cannot happen through this program; a copy
	// assembled by hand might carry them, and they break saves.
	for _, kind := range types.Kinds {
		var n int64
		err := db.QueryRow(fmt.Sprintf(
			"SELECT COUNT(*) FROM (SELECT %s FROM %s GROUP BY %s HAVING COUNT(*) > 1)",
			kind.KeyColumn(), kind.Table(), kind.KeyColumn())).Scan(&n)
		if err != nil {
			continue
		}
		if n > 0 {
			r.issue("%s has %d duplicated primary key values", kind.Table(), n)
		}
	}

	// Large ID gaps are normal after deletes or imports; flag them only as
	// information.
	var minID, maxID, count sql.NullInt64
	err = db.QueryRow("SELECT MIN(patient_id), MAX(patient_id), COUNT(*) FROM Patient").
		Scan(&minID, &maxID, &count)
	if err == nil && count.Int64 > 0 {
		gap := (maxID.Int64 - minID.Int64 + 1) - count.Int64
		if gap > count.Int64/2 {
			r.warn("patient IDs have a large gap (%d missing values); normal after deletes or imports", gap)
		}
	}
}

// QuickFix applies the safe automatic repairs: foreign keys on, VACUUM,
// REINDEX. Returns a description of each action taken.
func QuickFix(path string) ([]string, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	actions := []string{"enabled foreign key enforcement"}
	if _, err := db.Exec("VACUUM"); err != nil {
		return actions, fmt.Errorf("running VACUUM: %w", err)
	}
	actions = append(actions, "compacted the database file (VACUUM)")
	if _, err := db.Exec("REINDEX"); err != nil {
		return actions, fmt.Errorf("running REINDEX: %w", err)
	}
	actions = append(actions, "rebuilt all indexes (REINDEX)")
	return actions, nil
}

// Render formats the report for the terminal.
func (r *Report) Render() string {
	green := color.New(color.FgGreen).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()

	var b strings.Builder
	rule := strings.Repeat("=", 60)

	fmt.Fprintln(&b, rule)
	fmt.Fprintln(&b, "Database health report")
	fmt.Fprintln(&b, rule)
	if r.Healthy {
		fmt.Fprintf(&b, "%s database is healthy\n", green("OK:"))
	} else {
		fmt.Fprintf(&b, "%s problems found\n", red("FAIL:"))
	}

	if len(r.Issues) > 0 {
		fmt.Fprintln(&b, "\nProblems (must be repaired):")
		for i, s := range r.Issues {
			fmt.Fprintf(&b, "  %d. %s\n", i+1, red(s))
		}
	}
	if len(r.Warnings) > 0 {
		fmt.Fprintln(&b, "\nWarnings:")
		for i, s := range r.Warnings {
			fmt.Fprintf(&b, "  %d. %s\n", i+1, yellow(s))
		}
	}
	if len(r.Suggestions) > 0 {
		fmt.Fprintln(&b, "\nSuggestions:")
		for i, s := range r.Suggestions {
			fmt.Fprintf(&b, "  %d. %s\n", i+1, s)
		}
	}
	fmt.Fprintln(&b, rule)
	return b.String()
}
