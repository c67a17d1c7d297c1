package importer

import (
	"database/sql"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-health/thorax/internal/sqlite"
	"github.com/meridian-health/thorax/pkg/types"
)

func quietOpts() Options {
	return Options{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func setupDest(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.Open(types.Config{DBPath: filepath.Join(t.TempDir(), "dest.db")})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// writeSource creates a registry file holding the given patients, each with
// one surgery and one follow-up event, and returns its path.
func writeSource(t *testing.T, dir, name string, hospitalIDs ...string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	s, err := sqlite.Open(types.Config{DBPath: path})
	require.NoError(t, err)
	defer s.Close()

	for _, hid := range hospitalIDs {
		pid, err := s.InsertPatient(&types.Patient{
			HospitalID: hid, CancerType: types.CancerLung, Sex: "M",
		})
		require.NoError(t, err)
		_, err = s.InsertSurgery(pid, &types.Surgery{Date: "240115", Approach: "VATS"})
		require.NoError(t, err)
		_, err = s.InsertFollowUpEvent(pid, &types.FollowUpEvent{Date: "240601", Type: types.EventVisit})
		require.NoError(t, err)
	}
	return path
}

func TestImportAssignsFreshIDs(t *testing.T) {
	dest := setupDest(t)
	dir := t.TempDir()

	// Destination already holds patients 1 and 2; the source holds its own
	// patients 1 and 2 under different hospital IDs.
	for _, hid := range []string{"D-001", "D-002"} {
		_, err := dest.InsertPatient(&types.Patient{HospitalID: hid, CancerType: "lung", Sex: "F"})
		require.NoError(t, err)
	}
	src := writeSource(t, dir, "src.db", "S-001", "S-002")

	res, err := Import(dest, []string{src}, quietOpts())
	require.NoError(t, err)
	t1 := res.Totals()
	assert.Equal(t, 2, t1.Patients)
	assert.Equal(t, 2, t1.Surgeries)
	assert.Equal(t, 2, t1.FollowUpEvents)
	assert.Zero(t, t1.RowErrors)

	// Imported patients got IDs 3 and 4, and their records follow them.
	p3, err := dest.GetPatient(3)
	require.NoError(t, err)
	p4, err := dest.GetPatient(4)
	require.NoError(t, err)
	assert.ElementsMatch(t,
		[]string{"S-001", "S-002"},
		[]string{p3.HospitalID, p4.HospitalID})

	for _, pid := range []int64{3, 4} {
		surgeries, err := dest.SurgeriesByPatient(pid)
		require.NoError(t, err)
		require.Len(t, surgeries, 1)
		assert.Equal(t, pid, surgeries[0].PatientID)
	}
}

func TestImportSkipsDuplicateHospitalIDs(t *testing.T) {
	dest := setupDest(t)
	dir := t.TempDir()

	_, err := dest.InsertPatient(&types.Patient{HospitalID: "S-001", CancerType: "lung", Sex: "M"})
	require.NoError(t, err)
	src := writeSource(t, dir, "src.db", "S-001", "S-002")

	res, err := Import(dest, []string{src}, quietOpts())
	require.NoError(t, err)
	tt := res.Totals()
	assert.Equal(t, 1, tt.Patients)
	assert.Equal(t, 1, tt.DuplicatePatients)

	// The existing patient gained no records.
	existing, err := dest.GetPatientByHospitalID("S-001")
	require.NoError(t, err)
	surgeries, err := dest.SurgeriesByPatient(existing.PatientID)
	require.NoError(t, err)
	assert.Empty(t, surgeries)
}

func TestImportDedupsAcrossSources(t *testing.T) {
	dest := setupDest(t)
	dir := t.TempDir()

	srcA := writeSource(t, dir, "a.db", "S-001", "S-002")
	srcB := writeSource(t, dir, "b.db", "S-002", "S-003")

	res, err := Import(dest, []string{srcA, srcB}, quietOpts())
	require.NoError(t, err)
	tt := res.Totals()
	assert.Equal(t, 3, tt.Patients)
	assert.Equal(t, 1, tt.DuplicatePatients)

	patients, err := dest.ListPatients()
	require.NoError(t, err)
	assert.Len(t, patients, 3)
}

func TestImportEmptySourceIsNoOp(t *testing.T) {
	dest := setupDest(t)
	dir := t.TempDir()
	src := writeSource(t, dir, "empty.db")

	res, err := Import(dest, []string{src}, quietOpts())
	require.NoError(t, err)
	tt := res.Totals()
	assert.Zero(t, tt.Patients)
	assert.Zero(t, tt.RowErrors)
	assert.Empty(t, res.FailedSources())

	patients, err := dest.ListPatients()
	require.NoError(t, err)
	assert.Empty(t, patients)
}

func TestImportUnreadableSourceContinues(t *testing.T) {
	dest := setupDest(t)
	dir := t.TempDir()

	bad := filepath.Join(dir, "missing.db")
	good := writeSource(t, dir, "good.db", "S-001")

	res, err := Import(dest, []string{bad, good}, quietOpts())
	require.NoError(t, err)
	assert.Equal(t, []string{bad}, res.FailedSources())
	assert.Equal(t, 1, res.Totals().Patients)
}

func TestImportSkipsBlankHospitalIDs(t *testing.T) {
	dest := setupDest(t)
	dir := t.TempDir()
	src := writeSource(t, dir, "src.db", "S-001")

	// Add a patient with no hospital ID directly.
	s, err := sqlite.Open(types.Config{DBPath: src})
	require.NoError(t, err)
	_, err = s.InsertPatient(&types.Patient{CancerType: "eso", Sex: "F"})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	res, err := Import(dest, []string{src}, quietOpts())
	require.NoError(t, err)
	tt := res.Totals()
	assert.Equal(t, 1, tt.Patients)
	assert.Equal(t, 1, tt.SkippedPatients)
}

func TestImportDryRun(t *testing.T) {
	dest := setupDest(t)
	dir := t.TempDir()
	src := writeSource(t, dir, "src.db", "S-001", "S-002")

	opts := quietOpts()
	opts.DryRun = true
	res, err := Import(dest, []string{src}, opts)
	require.NoError(t, err)
	tt := res.Totals()
	assert.Equal(t, 2, tt.Patients)
	assert.Equal(t, 2, tt.Surgeries)

	patients, err := dest.ListPatients()
	require.NoError(t, err)
	assert.Empty(t, patients, "dry run must not write")
}

func TestImportPreservesEventCodes(t *testing.T) {
	dest := setupDest(t)
	dir := t.TempDir()
	src := writeSource(t, dir, "src.db")

	s, err := sqlite.Open(types.Config{DBPath: src})
	require.NoError(t, err)
	pid, err := s.InsertPatient(&types.Patient{HospitalID: "S-001", CancerType: "lung", Sex: "M"})
	require.NoError(t, err)
	_, err = s.InsertFollowUpEvent(pid, &types.FollowUpEvent{
		Date: "240601", Type: types.EventVisit, EventCode: "654321",
	})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = Import(dest, []string{src}, quietOpts())
	require.NoError(t, err)

	p, err := dest.GetPatientByHospitalID("S-001")
	require.NoError(t, err)
	events, err := dest.FollowUpEventsByPatient(p.PatientID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "654321", events[0].EventCode)
}

func TestImportRunIDsAreUnique(t *testing.T) {
	dest := setupDest(t)

	r1, err := Import(dest, nil, quietOpts())
	require.NoError(t, err)
	r2, err := Import(dest, nil, quietOpts())
	require.NoError(t, err)
	assert.NotEqual(t, r1.RunID, r2.RunID)
}

func TestImportSingleFlight(t *testing.T) {
	dest := setupDest(t)

	running.Store(true)
	defer running.Store(false)

	_, err := Import(dest, nil, quietOpts())
	assert.ErrorIs(t, err, types.ErrImportInFlight)
}

func TestImportSkipsOrphanedDependents(t *testing.T) {
	dest := setupDest(t)
	dir := t.TempDir()
	src := writeSource(t, dir, "src.db", "S-001")

	// Plant a surgery keyed to a patient the source never had, through a
	// plain connection; SQLite leaves foreign keys off by default.
	raw, err := sql.Open("sqlite", src)
	require.NoError(t, err)
	_, err = raw.Exec("INSERT INTO Surgery (patient_id, surgery_date6) VALUES (999, '240101')")
	require.NoError(t, err)
	require.NoError(t, raw.Close())

	res, err := Import(dest, []string{src}, quietOpts())
	require.NoError(t, err)
	totals := res.Totals()
	assert.Equal(t, 1, totals.Patients)
	assert.Equal(t, 1, totals.Surgeries)
	assert.Equal(t, 1, totals.Orphans)

	// The dangling row stayed behind: every destination surgery resolves
	// to a destination patient.
	p, err := dest.GetPatientByHospitalID("S-001")
	require.NoError(t, err)
	surgeries, err := dest.SurgeriesByPatient(p.PatientID)
	require.NoError(t, err)
	require.Len(t, surgeries, 1)

	all, err := dest.ListSurgeries()
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, p.PatientID, all[0].PatientID)
}
