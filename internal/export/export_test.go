package export

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-health/thorax/internal/sqlite"
	"github.com/meridian-health/thorax/pkg/types"
)

// newRegistry builds a database with two patients and a record in every
// dependent table, and returns its path.
func newRegistry(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "registry.db")
	s, err := sqlite.Open(types.Config{DBPath: path})
	require.NoError(t, err)
	defer s.Close()

	pid1, err := s.InsertPatient(&types.Patient{HospitalID: "H-001", CancerType: "lung", Sex: "M"})
	require.NoError(t, err)
	pid2, err := s.InsertPatient(&types.Patient{HospitalID: "H-002", CancerType: "eso", Sex: "F"})
	require.NoError(t, err)

	dur := int64(120)
	_, err = s.InsertSurgery(pid1, &types.Surgery{Date: "240115", Approach: "VATS", DurationMin: &dur})
	require.NoError(t, err)
	lnTotal := int64(10)
	_, err = s.InsertPathology(pid1, &types.Pathology{Histology: "adeno", LnTotal: &lnTotal})
	require.NoError(t, err)
	_, err = s.InsertMolecular(pid2, &types.Molecular{Gene: "EGFR", VendorLab: "lab-x"})
	require.NoError(t, err)
	_, err = s.InsertFollowUpEvent(pid2, &types.FollowUpEvent{Date: "240601", Type: types.EventVisit})
	require.NoError(t, err)
	return path
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestExportAll(t *testing.T) {
	dbPath := newRegistry(t)
	dir := filepath.Join(t.TempDir(), "out")

	var lastDone, total int
	files, err := New(dbPath).All(dir, 3, func(d, tot int) {
		lastDone, total = d, tot
	})
	require.NoError(t, err)
	assert.Len(t, files, len(types.Kinds))
	assert.Equal(t, len(types.Kinds), total)
	assert.Equal(t, total, lastDone)

	for _, kind := range types.Kinds {
		assert.FileExists(t, filepath.Join(dir, kind.Table()+".csv"))
	}

	patients := readCSV(t, filepath.Join(dir, "Patient.csv"))
	require.Len(t, patients, 3) // header + 2 rows
	assert.Equal(t, "hospital_id", patients[0][0])
	assert.NotContains(t, patients[0], "patient_id")

	surgeries := readCSV(t, filepath.Join(dir, "Surgery.csv"))
	require.Len(t, surgeries, 2)
	assert.Equal(t, "hospital_id", surgeries[0][0])
	assert.Equal(t, "surgery_id", surgeries[0][1])
	assert.NotContains(t, surgeries[0], "patient_id")
	assert.Equal(t, "H-001", surgeries[1][0])

	// Deprecated columns never appear.
	molecular := readCSV(t, filepath.Join(dir, "Molecular.csv"))
	assert.NotContains(t, molecular[0], "vendor_lab")
	assert.Equal(t, "H-002", molecular[1][0])

	pathology := readCSV(t, filepath.Join(dir, "Pathology.csv"))
	assert.NotContains(t, pathology[0], "ln_total")
	assert.NotContains(t, pathology[0], "ln_positive")
}

func TestExportPatient(t *testing.T) {
	dbPath := newRegistry(t)
	dir := filepath.Join(t.TempDir(), "out")

	s, err := sqlite.OpenReadOnly(dbPath)
	require.NoError(t, err)
	p, err := s.GetPatientByHospitalID("H-001")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	files, err := New(dbPath).Patient(p.PatientID, dir)
	require.NoError(t, err)
	assert.Len(t, files, len(types.Kinds))

	patients := readCSV(t, filepath.Join(dir, "patient1_Patient.csv"))
	require.Len(t, patients, 2)
	assert.Equal(t, "H-001", patients[1][0])

	surgeries := readCSV(t, filepath.Join(dir, "patient1_Surgery.csv"))
	require.Len(t, surgeries, 2)
	assert.Equal(t, "H-001", surgeries[1][0])

	// The other patient's records stay out.
	molecular := readCSV(t, filepath.Join(dir, "patient1_Molecular.csv"))
	assert.Len(t, molecular, 1) // header only
}

func TestExportPatientNotFound(t *testing.T) {
	dbPath := newRegistry(t)
	_, err := New(dbPath).Patient(999, t.TempDir())
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestExportSingleFlight(t *testing.T) {
	e := New(newRegistry(t))
	e.running.Store(true)

	_, err := e.All(t.TempDir(), 1, nil)
	assert.ErrorIs(t, err, types.ErrExportInFlight)
	_, err = e.Patient(1, t.TempDir())
	assert.ErrorIs(t, err, types.ErrExportInFlight)
}

func TestBackup(t *testing.T) {
	dbPath := newRegistry(t)
	destDir := filepath.Join(t.TempDir(), "backups")

	backupPath, err := Backup(dbPath, destDir)
	require.NoError(t, err)
	assert.FileExists(t, backupPath)
	assert.Contains(t, filepath.Base(backupPath), "registry_backup_")

	// The copy is a complete, readable registry.
	s, err := sqlite.OpenReadOnly(backupPath)
	require.NoError(t, err)
	defer s.Close()
	patients, err := s.ListPatients()
	require.NoError(t, err)
	assert.Len(t, patients, 2)
}

func TestBackupMissingSource(t *testing.T) {
	_, err := Backup(filepath.Join(t.TempDir(), "nope.db"), t.TempDir())
	assert.Error(t, err)
}
