package health

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-health/thorax/internal/sqlite"
	"github.com/meridian-health/thorax/pkg/types"
)

func newRegistry(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "registry.db")
	s, err := sqlite.Open(types.Config{DBPath: path})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	pid, err := s.InsertPatient(&types.Patient{HospitalID: "H-001", CancerType: "lung", Sex: "M"})
	require.NoError(t, err)
	_, err = s.InsertSurgery(pid, &types.Surgery{Date: "240115"})
	require.NoError(t, err)
	require.NoError(t, s.Close())
	return path
}

func TestCheckHealthyDatabase(t *testing.T) {
	path := newRegistry(t)

	r := Check(path)
	assert.True(t, r.Healthy)
	assert.Empty(t, r.Issues)
	assert.Empty(t, r.Warnings)
}

func TestCheckMissingFile(t *testing.T) {
	r := Check(filepath.Join(t.TempDir(), "nope.db"))
	assert.False(t, r.Healthy)
	require.NotEmpty(t, r.Issues)
	assert.Contains(t, r.Issues[0], "does not exist")
}

func TestCheckFindsOrphans(t *testing.T) {
	path := newRegistry(t)

	// Plant dangling rows through a plain connection; SQLite leaves
	// foreign keys off by default.
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	_, err = db.Exec("INSERT INTO Surgery (patient_id, surgery_date6) VALUES (999, '240101')")
	require.NoError(t, err)
	_, err = db.Exec("INSERT INTO Molecular (patient_id, gene) VALUES (999, 'EGFR')")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	r := Check(path)
	assert.True(t, r.Healthy, "orphans are warnings, not fatal")
	assert.NotEmpty(t, r.Warnings)

	joined := ""
	for _, w := range r.Warnings {
		joined += w + "\n"
	}
	assert.Contains(t, joined, "orphaned Surgery rows")
	assert.Contains(t, joined, "orphaned Molecular rows")
	assert.Contains(t, joined, "foreign key violation")
}

func TestCheckFindsBlankHospitalIDs(t *testing.T) {
	path := newRegistry(t)

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	_, err = db.Exec("INSERT INTO Patient (cancer_type, sex) VALUES ('eso', 'F')")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	r := Check(path)
	joined := ""
	for _, w := range r.Warnings {
		joined += w + "\n"
	}
	assert.Contains(t, joined, "no hospital ID")
}

func TestCheckMissingTables(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.db")
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	_, err = db.Exec("CREATE TABLE Patient (patient_id INTEGER PRIMARY KEY, hospital_id TEXT)")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	r := Check(path)
	joined := ""
	for _, w := range r.Warnings {
		joined += w + "\n"
	}
	assert.Contains(t, joined, "missing required tables")
	assert.Contains(t, joined, "Surgery")
}

func TestQuickFix(t *testing.T) {
	path := newRegistry(t)

	actions, err := QuickFix(path)
	require.NoError(t, err)
	assert.Len(t, actions, 3)

	// The file is still usable afterwards.
	r := Check(path)
	assert.True(t, r.Healthy)
}

func TestRenderReport(t *testing.T) {
	r := &Report{
		Healthy:     false,
		Issues:      []string{"integrity check failed: page 3"},
		Warnings:    []string{"2 orphaned Surgery rows"},
		Suggestions: []string{"run the quick fix to clean up dangling rows"},
	}
	out := r.Render()
	assert.Contains(t, out, "problems found")
	assert.Contains(t, out, "integrity check failed")
	assert.Contains(t, out, "orphaned Surgery rows")
	assert.Contains(t, out, "quick fix")
}
