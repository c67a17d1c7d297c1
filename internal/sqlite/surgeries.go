package sqlite

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/meridian-health/thorax/pkg/types"
)

// surgeryColumns lists every Surgery column except the primary key.
var surgeryColumns = []string{
	"patient_id", "cancer_type", "surgery_date6", "indication",
	"planned", "completed",
	"start_hhmm", "end_hhmm", "duration_min",
	"ln_dissection", "r0",
	"approach", "scope_lung", "lobe",
	"left_side", "right_side", "bilateral",
	"lesion_count", "main_lesion_size_cm",
	"esophagus_site", "notes_surgery",
}

var selectSurgery = "SELECT surgery_id, " + strings.Join(surgeryColumns, ", ") + " FROM Surgery"

func surgeryArgs(v *types.Surgery) []any {
	return []any{
		v.PatientID, nullStr(v.CancerType), nullStr(v.Date), nullStr(v.Indication),
		v.Planned, v.Completed,
		nullInt(v.StartHHMM), nullInt(v.EndHHMM), nullInt(v.DurationMin),
		v.LnDissection, v.R0,
		nullStr(v.Approach), nullStr(v.ScopeLung), nullStr(v.Lobe),
		v.LeftSide, v.RightSide, nullInt(v.Bilateral),
		nullInt(v.LesionCount), nullFloat(v.MainLesionSizeCM),
		nullStr(v.EsophagusSite), nullStr(v.Notes),
	}
}

func scanSurgery(sc scanner) (*types.Surgery, error) {
	var v types.Surgery
	var (
		patientID                            sql.NullInt64
		cancerType, date, indication         sql.NullString
		planned, completed                   sql.NullInt64
		startHHMM, endHHMM, durationMin      sql.NullInt64
		lnDissection, r0                     sql.NullInt64
		approach, scopeLung, lobe            sql.NullString
		leftSide, rightSide, bilateral       sql.NullInt64
		lesionCount                          sql.NullInt64
		mainLesionSize                       sql.NullFloat64
		esophagusSite, notes                 sql.NullString
	)

	err := sc.Scan(
		&v.SurgeryID,
		&patientID, &cancerType, &date, &indication,
		&planned, &completed,
		&startHHMM, &endHHMM, &durationMin,
		&lnDissection, &r0,
		&approach, &scopeLung, &lobe,
		&leftSide, &rightSide, &bilateral,
		&lesionCount, &mainLesionSize,
		&esophagusSite, &notes,
	)
	if err == sql.ErrNoRows {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning surgery: %w", err)
	}

	v.PatientID = patientID.Int64
	v.CancerType = cancerType.String
	v.Date = date.String
	v.Indication = indication.String
	v.Planned = planned.Int64
	v.Completed = completed.Int64
	v.StartHHMM = intPtr(startHHMM)
	v.EndHHMM = intPtr(endHHMM)
	v.DurationMin = intPtr(durationMin)
	v.LnDissection = lnDissection.Int64
	v.R0 = r0.Int64
	v.Approach = approach.String
	v.ScopeLung = scopeLung.String
	v.Lobe = lobe.String
	v.LeftSide = leftSide.Int64
	v.RightSide = rightSide.Int64
	v.Bilateral = intPtr(bilateral)
	v.LesionCount = intPtr(lesionCount)
	v.MainLesionSizeCM = floatPtr(mainLesionSize)
	v.EsophagusSite = esophagusSite.String
	v.Notes = notes.String

	return &v, nil
}

// InsertSurgery inserts a surgery for the given patient and returns the
// store-assigned ID.
func (s *Store) InsertSurgery(patientID int64, v *types.Surgery) (int64, error) {
	if patientID <= 0 {
		return 0, types.ErrMissingPatientLink
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return 0, err
	}

	v.PatientID = patientID
	query := fmt.Sprintf("INSERT INTO Surgery (%s) VALUES (%s)",
		strings.Join(surgeryColumns, ", "), placeholders(len(surgeryColumns)))
	res, err := s.db.Exec(query, surgeryArgs(v)...)
	if err != nil {
		return 0, fmt.Errorf("inserting surgery for patient %d: %w", patientID, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading new surgery ID: %w", err)
	}
	v.SurgeryID = id
	return id, nil
}

// UpdateSurgery rewrites all mutable columns of an existing surgery.
func (s *Store) UpdateSurgery(v *types.Surgery) error {
	if v.SurgeryID <= 0 {
		return types.ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}

	sets := make([]string, len(surgeryColumns))
	for i, col := range surgeryColumns {
		sets[i] = col + " = ?"
	}
	query := fmt.Sprintf("UPDATE Surgery SET %s WHERE surgery_id = ?", strings.Join(sets, ", "))
	res, err := s.db.Exec(query, append(surgeryArgs(v), v.SurgeryID)...)
	if err != nil {
		return fmt.Errorf("updating surgery %d: %w", v.SurgeryID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return types.ErrNotFound
	}
	return nil
}

// SurgeriesByPatient returns a patient's surgeries, most recent date first.
func (s *Store) SurgeriesByPatient(patientID int64) ([]*types.Surgery, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	rows, err := s.db.Query(selectSurgery+" WHERE patient_id = ? ORDER BY surgery_date6 DESC", patientID)
	if err != nil {
		return nil, fmt.Errorf("querying surgeries: %w", err)
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

// ListSurgeries returns every surgery row ordered by ID.
func (s *Store) ListSurgeries() ([]*types.Surgery, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	rows, err := s.db.Query(selectSurgery + " ORDER BY surgery_id")
	if err != nil {
		return nil, fmt.Errorf("querying surgeries: %w", err)
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

// DeleteSurgery removes one surgery row.
func (s *Store) DeleteSurgery(id int64) error {
	return s.deleteByID(types.KindSurgery, id)
}

// deleteByID removes one row of a dependent entity by primary key.
func (s *Store) deleteByID(kind types.Kind, id int64) error {
	if id <= 0 {
		return types.ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}

	query := fmt.Sprintf("DELETE FROM %s WHERE %s = ?", kind.Table(), kind.KeyColumn())
	res, err := s.db.Exec(query, id)
	if err != nil {
		return fmt.Errorf("deleting %s %d: %w", kind.Table(), id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return types.ErrNotFound
	}
	return nil
}
