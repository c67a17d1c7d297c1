package sqlite

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/meridian-health/thorax/pkg/types"
)

// pathologyColumns lists every Pathology column except the primary key.
var pathologyColumns = []string{
	"patient_id", "specimen_type", "histology", "differentiation",
	"pt", "pn", "pm", "p_stage",
	"lvi", "pni", "pleural_invasion", "airway_spread",
	"pathology_no", "pathology_date",
	"ln_total", "ln_positive", "trg",
	"report_date", "notes_path", "aden_subtype",
}

var selectPathology = "SELECT path_id, " + strings.Join(pathologyColumns, ", ") + " FROM Pathology"

func pathologyArgs(v *types.Pathology) []any {
	return []any{
		v.PatientID, nullStr(v.SpecimenType), nullStr(v.Histology), nullStr(v.Differentiation),
		nullStr(v.PT), nullStr(v.PN), nullStr(v.PM), nullStr(v.PStage),
		nullInt(v.LVI), nullInt(v.PNI), nullInt(v.PleuralInvasion), nullInt(v.AirwaySpread),
		nullStr(v.PathologyNo), nullStr(v.PathologyDate),
		nullInt(v.LnTotal), nullInt(v.LnPositive), nullInt(v.TRG),
		nullStr(v.ReportDate), nullStr(v.Notes), nullStr(v.AdenSubtype),
	}
}

func scanPathology(sc scanner) (*types.Pathology, error) {
	var v types.Pathology
	var (
		patientID                              sql.NullInt64
		specimenType, histology, differentiation sql.NullString
		pt, pn, pm, pStage                     sql.NullString
		lvi, pni, pleural, airway              sql.NullInt64
		pathologyNo, pathologyDate             sql.NullString
		lnTotal, lnPositive, trg               sql.NullInt64
		reportDate, notes, adenSubtype         sql.NullString
	)

	err := sc.Scan(
		&v.PathID,
		&patientID, &specimenType, &histology, &differentiation,
		&pt, &pn, &pm, &pStage,
		&lvi, &pni, &pleural, &airway,
		&pathologyNo, &pathologyDate,
		&lnTotal, &lnPositive, &trg,
		&reportDate, &notes, &adenSubtype,
	)
	if err == sql.ErrNoRows {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning pathology: %w", err)
	}

	v.PatientID = patientID.Int64
	v.SpecimenType = specimenType.String
	v.Histology = histology.String
	v.Differentiation = differentiation.String
	v.PT, v.PN, v.PM = pt.String, pn.String, pm.String
	v.PStage = pStage.String
	v.LVI = intPtr(lvi)
	v.PNI = intPtr(pni)
	v.PleuralInvasion = intPtr(pleural)
	v.AirwaySpread = intPtr(airway)
	v.PathologyNo = pathologyNo.String
	v.PathologyDate = pathologyDate.String
	v.LnTotal = intPtr(lnTotal)
	v.LnPositive = intPtr(lnPositive)
	v.TRG = intPtr(trg)
	v.ReportDate = reportDate.String
	v.Notes = notes.String
	v.AdenSubtype = adenSubtype.String

	return &v, nil
}

// InsertPathology inserts a pathology report for the given patient and
// returns the store-assigned ID.
func (s *Store) InsertPathology(patientID int64, v *types.Pathology) (int64, error) {
	if patientID <= 0 {
		return 0, types.ErrMissingPatientLink
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return 0, err
	}

	v.PatientID = patientID
	query := fmt.Sprintf("INSERT INTO Pathology (%s) VALUES (%s)",
		strings.Join(pathologyColumns, ", "), placeholders(len(pathologyColumns)))
	res, err := s.db.Exec(query, pathologyArgs(v)...)
	if err != nil {
		return 0, fmt.Errorf("inserting pathology for patient %d: %w", patientID, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading new pathology ID: %w", err)
	}
	v.PathID = id
	return id, nil
}

// UpdatePathology rewrites all mutable columns of an existing report.
func (s *Store) UpdatePathology(v *types.Pathology) error {
	if v.PathID <= 0 {
		return types.ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}

	sets := make([]string, len(pathologyColumns))
	for i, col := range pathologyColumns {
		sets[i] = col + " = ?"
	}
	query := fmt.Sprintf("UPDATE Pathology SET %s WHERE path_id = ?", strings.Join(sets, ", "))
	res, err := s.db.Exec(query, append(pathologyArgs(v), v.PathID)...)
	if err != nil {
		return fmt.Errorf("updating pathology %d: %w", v.PathID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return types.ErrNotFound
	}
	return nil
}

// PathologiesByPatient returns a patient's pathology reports, newest first.
// Ordered by ID because pathology numbers replaced report dates as the
// primary reference.
func (s *Store) PathologiesByPatient(patientID int64) ([]*types.Pathology, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	rows, err := s.db.Query(selectPathology+" WHERE patient_id = ? ORDER BY path_id DESC", patientID)
	if err != nil {
		return nil, fmt.Errorf("querying pathologies: %w", err)
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

// ListPathologies returns every pathology row ordered by ID.
func (s *Store) ListPathologies() ([]*types.Pathology, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	rows, err := s.db.Query(selectPathology + " ORDER BY path_id")
	if err != nil {
		return nil, fmt.Errorf("querying pathologies: %w", err)
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

// DeletePathology removes one pathology row.
func (s *Store) DeletePathology(id int64) error {
	return s.deleteByID(types.KindPathology, id)
}
