package sqlite

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-health/thorax/pkg/types"
)

// setupStore opens a fresh registry database in a temp directory, with a
// cleanup-deferred close.
func setupStore(t *testing.T) *Store {
	t.Helper()
	cfg := types.Config{DBPath: filepath.Join(t.TempDir(), "registry.db")}
	s, err := Open(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func samplePatient(hospitalID string) *types.Patient {
	packYears := 20.5
	cycles := int64(4)
	return &types.Patient{
		HospitalID:     hospitalID,
		CancerType:     types.CancerLung,
		Sex:            "M",
		BirthYM:        "196503",
		PackYears:      &packYears,
		LungT:          "2a",
		LungN:          "1",
		LungM:          "0",
		NacChemo:       1,
		NacChemoCycles: &cycles,
		Notes:          "enrolled 2024",
	}
}

func TestPatientCRUD(t *testing.T) {
	s := setupStore(t)

	p := samplePatient("ZS-001")
	id, err := s.InsertPatient(p)
	require.NoError(t, err)
	require.Greater(t, id, int64(0))
	assert.Equal(t, id, p.PatientID)

	got, err := s.GetPatient(id)
	require.NoError(t, err)
	assert.Equal(t, "ZS-001", got.HospitalID)
	assert.Equal(t, types.CancerLung, got.CancerType)
	require.NotNil(t, got.PackYears)
	assert.InDelta(t, 20.5, *got.PackYears, 0.001)
	require.NotNil(t, got.NacChemoCycles)
	assert.Equal(t, int64(4), *got.NacChemoCycles)
	// Unset optional fields come back nil, not zero.
	assert.Nil(t, got.EsoFromIncisorsCM)
	assert.Nil(t, got.AdjChemoCycles)

	got.Sex = "F"
	got.LungN = "2"
	require.NoError(t, s.UpdatePatient(got))

	again, err := s.GetPatient(id)
	require.NoError(t, err)
	assert.Equal(t, "F", again.Sex)
	assert.Equal(t, "2", again.LungN)

	byHosp, err := s.GetPatientByHospitalID("ZS-001")
	require.NoError(t, err)
	assert.Equal(t, id, byHosp.PatientID)
}

func TestPatientNotFound(t *testing.T) {
	s := setupStore(t)

	_, err := s.GetPatient(42)
	assert.ErrorIs(t, err, types.ErrNotFound)

	err = s.UpdatePatient(&types.Patient{PatientID: 42, HospitalID: "X", CancerType: "lung", Sex: "M"})
	assert.ErrorIs(t, err, types.ErrNotFound)

	err = s.DeletePatient(42)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestDuplicateHospitalID(t *testing.T) {
	s := setupStore(t)

	_, err := s.InsertPatient(samplePatient("ZS-001"))
	require.NoError(t, err)

	_, err = s.InsertPatient(samplePatient("ZS-001"))
	assert.ErrorIs(t, err, types.ErrDuplicateHospital)
}

func TestSearchPatients(t *testing.T) {
	s := setupStore(t)

	for _, hid := range []string{"ZS-001", "ZS-002", "RJ-100"} {
		_, err := s.InsertPatient(samplePatient(hid))
		require.NoError(t, err)
	}

	got, err := s.SearchPatients("ZS")
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = s.SearchPatients("RJ-100")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "RJ-100", got[0].HospitalID)
}

func TestDependentsRequirePatientLink(t *testing.T) {
	s := setupStore(t)

	_, err := s.InsertSurgery(0, &types.Surgery{Date: "240115"})
	assert.ErrorIs(t, err, types.ErrMissingPatientLink)

	_, err = s.InsertPathology(-1, &types.Pathology{})
	assert.ErrorIs(t, err, types.ErrMissingPatientLink)

	_, err = s.InsertMolecular(0, &types.Molecular{})
	assert.ErrorIs(t, err, types.ErrMissingPatientLink)

	_, err = s.InsertFollowUpEvent(0, &types.FollowUpEvent{Date: "240115", Type: types.EventVisit})
	assert.ErrorIs(t, err, types.ErrMissingPatientLink)
}

func TestDependentRecords(t *testing.T) {
	s := setupStore(t)

	pid, err := s.InsertPatient(samplePatient("ZS-001"))
	require.NoError(t, err)

	dur := int64(185)
	surgID, err := s.InsertSurgery(pid, &types.Surgery{
		CancerType:  types.CancerLung,
		Date:        "240115",
		Planned:     1,
		Completed:   1,
		DurationMin: &dur,
		Approach:    "VATS",
		Lobe:        "RUL",
	})
	require.NoError(t, err)

	lnTotal, lnPos := int64(12), int64(2)
	_, err = s.InsertPathology(pid, &types.Pathology{
		Histology:  "adenocarcinoma",
		PT:         "2a",
		PN:         "1",
		PStage:     "IIB",
		LnTotal:    &lnTotal,
		LnPositive: &lnPos,
	})
	require.NoError(t, err)

	pdl1 := 45.0
	_, err = s.InsertMolecular(pid, &types.Molecular{
		Platform:    "NGS",
		Gene:        "EGFR",
		Variant:     "L858R",
		PDL1Percent: &pdl1,
		TestDate:    "240120",
	})
	require.NoError(t, err)

	surgeries, err := s.SurgeriesByPatient(pid)
	require.NoError(t, err)
	require.Len(t, surgeries, 1)
	assert.Equal(t, surgID, surgeries[0].SurgeryID)
	assert.Equal(t, pid, surgeries[0].PatientID)
	require.NotNil(t, surgeries[0].DurationMin)
	assert.Equal(t, int64(185), *surgeries[0].DurationMin)

	paths, err := s.PathologiesByPatient(pid)
	require.NoError(t, err)
	require.Len(t, paths, 1)
	require.NotNil(t, paths[0].LnPositive)
	assert.Equal(t, int64(2), *paths[0].LnPositive)

	mols, err := s.MolecularByPatient(pid)
	require.NoError(t, err)
	require.Len(t, mols, 1)
	assert.Equal(t, "EGFR", mols[0].Gene)
	require.NotNil(t, mols[0].PDL1Percent)
	assert.InDelta(t, 45.0, *mols[0].PDL1Percent, 0.001)
}

func TestDeletePatientCascades(t *testing.T) {
	s := setupStore(t)

	pid, err := s.InsertPatient(samplePatient("ZS-001"))
	require.NoError(t, err)
	keepPID, err := s.InsertPatient(samplePatient("ZS-002"))
	require.NoError(t, err)

	_, err = s.InsertSurgery(pid, &types.Surgery{Date: "240115"})
	require.NoError(t, err)
	_, err = s.InsertPathology(pid, &types.Pathology{Histology: "scc"})
	require.NoError(t, err)
	_, err = s.InsertMolecular(pid, &types.Molecular{Gene: "KRAS"})
	require.NoError(t, err)
	_, err = s.InsertFollowUpEvent(pid, &types.FollowUpEvent{Date: "240601", Type: types.EventVisit})
	require.NoError(t, err)
	keepSurg, err := s.InsertSurgery(keepPID, &types.Surgery{Date: "240116"})
	require.NoError(t, err)

	require.NoError(t, s.DeletePatient(pid))

	_, err = s.GetPatient(pid)
	assert.ErrorIs(t, err, types.ErrNotFound)
	for _, kind := range types.DependentKinds {
		var n int64
		err := s.db.QueryRow(
			"SELECT COUNT(*) FROM "+kind.Table()+" WHERE patient_id = ?", pid).Scan(&n)
		require.NoError(t, err)
		assert.Zero(t, n, "%s rows should be gone", kind.Table())
	}
	surgeries, err := s.SurgeriesByPatient(pid)
	require.NoError(t, err)
	assert.Empty(t, surgeries)

	// The other patient's records survive.
	surgeries, err = s.SurgeriesByPatient(keepPID)
	require.NoError(t, err)
	require.Len(t, surgeries, 1)
	assert.Equal(t, keepSurg, surgeries[0].SurgeryID)
}

func TestFollowUpEventCodes(t *testing.T) {
	s := setupStore(t)

	pid, err := s.InsertPatient(samplePatient("ZS-001"))
	require.NoError(t, err)

	t.Run("empty code is generated as six digits", func(t *testing.T) {
		ev := &types.FollowUpEvent{Date: "240601", Type: types.EventVisit}
		_, err := s.InsertFollowUpEvent(pid, ev)
		require.NoError(t, err)
		assert.Len(t, ev.EventCode, 6)

		taken, err := s.IsEventCodeTaken(pid, ev.EventCode)
		require.NoError(t, err)
		assert.True(t, taken)
	})

	t.Run("supplied code is preserved", func(t *testing.T) {
		ev := &types.FollowUpEvent{Date: "240615", Type: types.EventRelapse, EventCode: "123456"}
		_, err := s.InsertFollowUpEvent(pid, ev)
		require.NoError(t, err)
		assert.Equal(t, "123456", ev.EventCode)
	})

	t.Run("colliding code is regenerated", func(t *testing.T) {
		ev := &types.FollowUpEvent{Date: "240701", Type: types.EventVisit, EventCode: "123456"}
		_, err := s.InsertFollowUpEvent(pid, ev)
		require.NoError(t, err)
		assert.NotEqual(t, "123456", ev.EventCode)
		assert.Len(t, ev.EventCode, 6)
	})

	t.Run("same code allowed on a different patient", func(t *testing.T) {
		other, err := s.InsertPatient(samplePatient("ZS-002"))
		require.NoError(t, err)
		ev := &types.FollowUpEvent{Date: "240701", Type: types.EventVisit, EventCode: "123456"}
		_, err = s.InsertFollowUpEvent(other, ev)
		require.NoError(t, err)
		assert.Equal(t, "123456", ev.EventCode)
	})
}

func TestFollowUpEventOrdering(t *testing.T) {
	s := setupStore(t)

	pid, err := s.InsertPatient(samplePatient("ZS-001"))
	require.NoError(t, err)

	for _, date := range []string{"240101", "240601", "240301"} {
		_, err := s.InsertFollowUpEvent(pid, &types.FollowUpEvent{Date: date, Type: types.EventVisit})
		require.NoError(t, err)
	}

	events, err := s.FollowUpEventsByPatient(pid)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, "240601", events[0].Date)
	assert.Equal(t, "240301", events[1].Date)
	assert.Equal(t, "240101", events[2].Date)
}

func TestUpdateFollowUpEventKeepsCode(t *testing.T) {
	s := setupStore(t)

	pid, err := s.InsertPatient(samplePatient("ZS-001"))
	require.NoError(t, err)

	ev := &types.FollowUpEvent{Date: "240601", Type: types.EventVisit}
	_, err = s.InsertFollowUpEvent(pid, ev)
	require.NoError(t, err)
	code := ev.EventCode

	ev.Type = types.EventDeath
	ev.Details = "confirmed by phone"
	require.NoError(t, s.UpdateFollowUpEvent(ev))

	events, err := s.FollowUpEventsByPatient(pid)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, types.EventDeath, events[0].Type)
	assert.Equal(t, "confirmed by phone", events[0].Details)
	assert.Equal(t, code, events[0].EventCode)
}

func TestClosedStore(t *testing.T) {
	cfg := types.Config{DBPath: filepath.Join(t.TempDir(), "registry.db")}
	s, err := Open(cfg)
	require.NoError(t, err)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close()) // idempotent

	_, err = s.ListPatients()
	assert.ErrorIs(t, err, types.ErrStoreClosed)
	_, err = s.InsertPatient(samplePatient("ZS-001"))
	assert.ErrorIs(t, err, types.ErrStoreClosed)
}

func TestTables(t *testing.T) {
	s := setupStore(t)

	names, err := s.Tables()
	require.NoError(t, err)
	for _, kind := range types.Kinds {
		assert.Contains(t, names, kind.Table())
	}
	assert.Contains(t, names, "map_lung_v9")
	assert.Contains(t, names, "map_eso_v9_scc")
	assert.Contains(t, names, "map_eso_v9_ad")
}

func TestOpenExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.db")
	cfg := types.Config{DBPath: path}

	s, err := Open(cfg)
	require.NoError(t, err)
	pid, err := s.InsertPatient(samplePatient("ZS-001"))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(cfg)
	require.NoError(t, err)
	defer s.Close()
	got, err := s.GetPatient(pid)
	require.NoError(t, err)
	assert.Equal(t, "ZS-001", got.HospitalID)
}
