package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/meridian-health/thorax/pkg/types"
)

// patientColumns lists every Patient column except the primary key, in the
// order the scan and insert helpers use. The importer reuses this list when
// reading source files so that row mapping happens at exactly one boundary.
var patientColumns = []string{
	"hospital_id", "cancer_type", "sex", "birth_ym4",
	"pack_years", "multi_primary",
	"lung_t", "lung_n", "lung_m",
	"eso_t", "eso_n", "eso_m",
	"eso_histology", "eso_grade", "eso_location", "eso_from_incisors_cm",
	"diabetes_history", "family_history",
	"nac_chemo", "nac_chemo_cycles",
	"nac_immuno", "nac_immuno_cycles",
	"nac_targeted", "nac_targeted_cycles",
	"nac_radiation",
	"nac_antiangio", "nac_antiangio_cycles",
	"nac_date",
	"adj_chemo", "adj_chemo_cycles",
	"adj_immuno", "adj_immuno_cycles",
	"adj_targeted", "adj_targeted_cycles",
	"adj_radiation",
	"adj_antiangio", "adj_antiangio_cycles",
	"adj_date",
	"notes_patient",
}

// placeholders returns n comma-separated "?" markers.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

// patientArgs returns the bind values for p in patientColumns order.
func patientArgs(p *types.Patient) []any {
	return []any{
		nullStr(p.HospitalID), nullStr(p.CancerType), nullStr(p.Sex), nullStr(p.BirthYM),
		nullFloat(p.PackYears), p.MultiPrimary,
		nullStr(p.LungT), nullStr(p.LungN), nullStr(p.LungM),
		nullStr(p.EsoT), nullStr(p.EsoN), nullStr(p.EsoM),
		nullStr(p.EsoHistology), nullStr(p.EsoGrade), nullStr(p.EsoLocation), nullFloat(p.EsoFromIncisorsCM),
		p.DiabetesHistory, p.FamilyHistory,
		p.NacChemo, nullInt(p.NacChemoCycles),
		p.NacImmuno, nullInt(p.NacImmunoCycles),
		p.NacTargeted, nullInt(p.NacTargetedCycles),
		p.NacRadiation,
		p.NacAntiangio, nullInt(p.NacAntiangioCycle),
		nullStr(p.NacDate),
		p.AdjChemo, nullInt(p.AdjChemoCycles),
		p.AdjImmuno, nullInt(p.AdjImmunoCycles),
		p.AdjTargeted, nullInt(p.AdjTargetedCycles),
		p.AdjRadiation,
		p.AdjAntiangio, nullInt(p.AdjAntiangioCycle),
		nullStr(p.AdjDate),
		nullStr(p.Notes),
	}
}

// scanPatient populates a Patient from a row selected as
// "patient_id, <patientColumns...>".
func scanPatient(sc scanner) (*types.Patient, error) {
	var p types.Patient
	var (
		hospitalID, cancerType, sex, birthYM       sql.NullString
		packYears                                  sql.NullFloat64
		multiPrimary                               sql.NullInt64
		lungT, lungN, lungM                        sql.NullString
		esoT, esoN, esoM                           sql.NullString
		esoHistology, esoGrade, esoLocation        sql.NullString
		esoFromIncisors                            sql.NullFloat64
		diabetes, family                           sql.NullInt64
		nacChemo, nacChemoCycles                   sql.NullInt64
		nacImmuno, nacImmunoCycles                 sql.NullInt64
		nacTargeted, nacTargetedCycles             sql.NullInt64
		nacRadiation, nacAntiangio, nacAntiCycles  sql.NullInt64
		nacDate                                    sql.NullString
		adjChemo, adjChemoCycles                   sql.NullInt64
		adjImmuno, adjImmunoCycles                 sql.NullInt64
		adjTargeted, adjTargetedCycles             sql.NullInt64
		adjRadiation, adjAntiangio, adjAntiCycles  sql.NullInt64
		adjDate, notes                             sql.NullString
	)

	err := sc.Scan(
		&p.PatientID,
		&hospitalID, &cancerType, &sex, &birthYM,
		&packYears, &multiPrimary,
		&lungT, &lungN, &lungM,
		&esoT, &esoN, &esoM,
		&esoHistology, &esoGrade, &esoLocation, &esoFromIncisors,
		&diabetes, &family,
		&nacChemo, &nacChemoCycles,
		&nacImmuno, &nacImmunoCycles,
		&nacTargeted, &nacTargetedCycles,
		&nacRadiation,
		&nacAntiangio, &nacAntiCycles,
		&nacDate,
		&adjChemo, &adjChemoCycles,
		&adjImmuno, &adjImmunoCycles,
		&adjTargeted, &adjTargetedCycles,
		&adjRadiation,
		&adjAntiangio, &adjAntiCycles,
		&adjDate, &notes,
	)
	if err == sql.ErrNoRows {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning patient: %w", err)
	}

	p.HospitalID = hospitalID.String
	p.CancerType = cancerType.String
	p.Sex = sex.String
	p.BirthYM = birthYM.String
	p.PackYears = floatPtr(packYears)
	p.MultiPrimary = multiPrimary.Int64
	p.LungT, p.LungN, p.LungM = lungT.String, lungN.String, lungM.String
	p.EsoT, p.EsoN, p.EsoM = esoT.String, esoN.String, esoM.String
	p.EsoHistology = esoHistology.String
	p.EsoGrade = esoGrade.String
	p.EsoLocation = esoLocation.String
	p.EsoFromIncisorsCM = floatPtr(esoFromIncisors)
	p.DiabetesHistory = diabetes.Int64
	p.FamilyHistory = family.Int64
	p.NacChemo = nacChemo.Int64
	p.NacChemoCycles = intPtr(nacChemoCycles)
	p.NacImmuno = nacImmuno.Int64
	p.NacImmunoCycles = intPtr(nacImmunoCycles)
	p.NacTargeted = nacTargeted.Int64
	p.NacTargetedCycles = intPtr(nacTargetedCycles)
	p.NacRadiation = nacRadiation.Int64
	p.NacAntiangio = nacAntiangio.Int64
	p.NacAntiangioCycle = intPtr(nacAntiCycles)
	p.NacDate = nacDate.String
	p.AdjChemo = adjChemo.Int64
	p.AdjChemoCycles = intPtr(adjChemoCycles)
	p.AdjImmuno = adjImmuno.Int64
	p.AdjImmunoCycles = intPtr(adjImmunoCycles)
	p.AdjTargeted = adjTargeted.Int64
	p.AdjTargetedCycles = intPtr(adjTargetedCycles)
	p.AdjRadiation = adjRadiation.Int64
	p.AdjAntiangio = adjAntiangio.Int64
	p.AdjAntiangioCycle = intPtr(adjAntiCycles)
	p.AdjDate = adjDate.String
	p.Notes = notes.String

	return &p, nil
}

// selectPatient is the SELECT list every patient query uses.
var selectPatient = "SELECT patient_id, " + strings.Join(patientColumns, ", ") + " FROM Patient"

// InsertPatient inserts a new patient and returns the store-assigned ID.
// The incoming PatientID is ignored; identifiers are never supplied by the
// caller. A duplicate hospital ID returns ErrDuplicateHospital.
func (s *Store) InsertPatient(p *types.Patient) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return 0, err
	}

	query := fmt.Sprintf("INSERT INTO Patient (%s) VALUES (%s)",
		strings.Join(patientColumns, ", "), placeholders(len(patientColumns)))
	res, err := s.db.Exec(query, patientArgs(p)...)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: Patient.hospital_id") {
			return 0, fmt.Errorf("%w: %s", types.ErrDuplicateHospital, p.HospitalID)
		}
		return 0, fmt.Errorf("inserting patient: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading new patient ID: %w", err)
	}
	p.PatientID = id
	return id, nil
}

// UpdatePatient rewrites all mutable columns of an existing patient.
func (s *Store) UpdatePatient(p *types.Patient) error {
	if p.PatientID <= 0 {
		return types.ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}

	sets := make([]string, len(patientColumns))
	for i, col := range patientColumns {
		sets[i] = col + " = ?"
	}
	query := fmt.Sprintf("UPDATE Patient SET %s WHERE patient_id = ?", strings.Join(sets, ", "))
	args := append(patientArgs(p), p.PatientID)

	res, err := s.db.Exec(query, args...)
	if err != nil {
		return fmt.Errorf("updating patient %d: %w", p.PatientID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update of patient %d: %w", p.PatientID, err)
	}
	if n == 0 {
		return types.ErrNotFound
	}
	return nil
}

// GetPatient retrieves a patient by ID.
func (s *Store) GetPatient(id int64) (*types.Patient, error) {
	if id <= 0 {
		return nil, types.ErrInvalidID
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	return scanPatient(s.db.QueryRow(selectPatient+" WHERE patient_id = ?", id))
}

// GetPatientByHospitalID retrieves a patient by hospital ID.
func (s *Store) GetPatientByHospitalID(hospitalID string) (*types.Patient, error) {
	if hospitalID == "" {
		return nil, types.ErrInvalidID
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	return scanPatient(s.db.QueryRow(selectPatient+" WHERE hospital_id = ?", hospitalID))
}

// ListPatients returns all patients ordered by ID.
func (s *Store) ListPatients() ([]*types.Patient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	return s.queryPatients(selectPatient + " ORDER BY patient_id")
}

// SearchPatients returns patients whose hospital ID or numeric ID contains
// the query string.
func (s *Store) SearchPatients(query string) ([]*types.Patient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	q := "%" + query + "%"
	return s.queryPatients(
		selectPatient+" WHERE hospital_id LIKE ? OR CAST(patient_id AS TEXT) LIKE ? ORDER BY patient_id",
		q, q)
}

func (s *Store) queryPatients(query string, args ...any) ([]*types.Patient, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying patients: %w", err)
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

// HospitalIDs returns the set of non-blank hospital IDs in the store. The
// importer reads this once before merging source files.
func (s *Store) HospitalIDs() (map[string]bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	rows, err := s.db.Query("SELECT hospital_id FROM Patient WHERE hospital_id IS NOT NULL AND hospital_id != ''")
	if err != nil {
		return nil, fmt.Errorf("reading hospital IDs: %w", err)
	}
	defer rows.Close()

	ids := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning hospital ID: %w", err)
		}
		ids[id] = true
	}
	return ids, rows.Err()
}

// DeletePatient removes a patient and all dependent rows in one
// transaction. The dependent tables declare ON DELETE CASCADE, but the
// deletes are issued explicitly so the cascade does not depend on the
// foreign_keys pragma state of the connection.
func (s *Store) DeletePatient(id int64) error {
	if id <= 0 {
		return types.ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning delete: %w", err)
	}
	defer tx.Rollback()

	var exists int64
	if err := tx.QueryRow("SELECT 1 FROM Patient WHERE patient_id = ?", id).Scan(&exists); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.ErrNotFound
		}
		return fmt.Errorf("checking patient %d: %w", id, err)
	}

	for _, kind := range types.DependentKinds {
		query := fmt.Sprintf("DELETE FROM %s WHERE patient_id = ?", kind.Table())
		if _, err := tx.Exec(query, id); err != nil {
			return fmt.Errorf("deleting %s rows for patient %d: %w", kind.Table(), id, err)
		}
	}
	if _, err := tx.Exec("DELETE FROM Patient WHERE patient_id = ?", id); err != nil {
		return fmt.Errorf("deleting patient %d: %w", id, err)
	}

	return tx.Commit()
}
