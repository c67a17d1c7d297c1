package sqlite

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-health/thorax/pkg/types"
)

func TestOpenSourceMissingFile(t *testing.T) {
	_, err := OpenSource(filepath.Join(t.TempDir(), "nope.db"))
	assert.ErrorIs(t, err, types.ErrSourceUnreadable)
}

func TestOpenSourceWithoutPatientTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "other.db")
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	_, err = db.Exec("CREATE TABLE whatever (x INTEGER)")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	_, err = OpenSource(path)
	assert.ErrorIs(t, err, types.ErrSourceUnreadable)
}

func TestSourceReadsCurrentSchema(t *testing.T) {
	s := setupStore(t)
	pid, err := s.InsertPatient(samplePatient("SRC-001"))
	require.NoError(t, err)
	_, err = s.InsertSurgery(pid, &types.Surgery{Date: "240115", Approach: "VATS"})
	require.NoError(t, err)
	_, err = s.InsertFollowUpEvent(pid, &types.FollowUpEvent{Date: "240601", Type: types.EventVisit})
	require.NoError(t, err)

	src, err := OpenSource(s.Path())
	require.NoError(t, err)
	defer src.Close()

	patients, err := src.Patients()
	require.NoError(t, err)
	require.Len(t, patients, 1)
	assert.Equal(t, "SRC-001", patients[0].HospitalID)
	assert.Equal(t, pid, patients[0].PatientID)

	surgeries, err := src.SurgeriesFor(pid)
	require.NoError(t, err)
	require.Len(t, surgeries, 1)
	assert.Equal(t, "VATS", surgeries[0].Approach)

	events, err := src.FollowUpEventsFor(pid)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Len(t, events[0].EventCode, 6)
}

func TestSourceReadsOldSchema(t *testing.T) {
	path := writeOldSchemaDB(t)

	src, err := OpenSource(path)
	require.NoError(t, err)
	defer src.Close()

	// Columns the source predates come back as absent values, not errors.
	patients, err := src.Patients()
	require.NoError(t, err)
	require.Len(t, patients, 1)
	assert.Equal(t, "OLD-001", patients[0].HospitalID)
	assert.Zero(t, patients[0].NacAntiangio)
	assert.Nil(t, patients[0].NacAntiangioCycle)
	assert.Empty(t, patients[0].NacDate)

	surgeries, err := src.SurgeriesFor(patients[0].PatientID)
	require.NoError(t, err)
	require.Len(t, surgeries, 1)
	assert.Zero(t, surgeries[0].LeftSide)

	// Events predating event codes read back with an empty code.
	events, err := src.FollowUpEventsFor(patients[0].PatientID)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Empty(t, events[0].EventCode)
}

func TestSourceMissingDependentTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "patients-only.db")
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE Patient (
		patient_id INTEGER PRIMARY KEY AUTOINCREMENT,
		hospital_id TEXT UNIQUE,
		cancer_type TEXT,
		sex TEXT
	)`)
	require.NoError(t, err)
	_, err = db.Exec("INSERT INTO Patient (hospital_id, cancer_type, sex) VALUES ('P-1', 'eso', 'M')")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	src, err := OpenSource(path)
	require.NoError(t, err)
	defer src.Close()

	patients, err := src.Patients()
	require.NoError(t, err)
	require.Len(t, patients, 1)

	surgeries, err := src.SurgeriesFor(patients[0].PatientID)
	require.NoError(t, err)
	assert.Empty(t, surgeries)

	n, err := src.CountRows("Surgery")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSourceCountOrphans(t *testing.T) {
	s := setupStore(t)
	pid, err := s.InsertPatient(samplePatient("SRC-001"))
	require.NoError(t, err)
	_, err = s.InsertSurgery(pid, &types.Surgery{Date: "240115"})
	require.NoError(t, err)

	// Plant a dangling surgery row through a plain connection; SQLite
	// leaves foreign keys off by default.
	raw, err := sql.Open("sqlite", s.Path())
	require.NoError(t, err)
	_, err = raw.Exec("INSERT INTO Surgery (patient_id, surgery_date6) VALUES (999, '240101')")
	require.NoError(t, err)
	require.NoError(t, raw.Close())

	src, err := OpenSource(s.Path())
	require.NoError(t, err)
	defer src.Close()

	n, err := src.CountOrphans(types.KindSurgery)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = src.CountOrphans(types.KindMolecular)
	require.NoError(t, err)
	assert.Zero(t, n)
}
