package sqlite

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/meridian-health/thorax/pkg/types"
)

// molecularColumns lists every Molecular column except the primary key.
var molecularColumns = []string{
	"patient_id", "platform", "vendor_lab", "gene", "variant",
	"pdl1_percent", "tmb_msi",
	"test_date", "genes_tested", "result_summary",
	"ctc_count", "methylation_result", "notes_mol",
}

var selectMolecular = "SELECT mol_id, " + strings.Join(molecularColumns, ", ") + " FROM Molecular"

func molecularArgs(v *types.Molecular) []any {
	return []any{
		v.PatientID, nullStr(v.Platform), nullStr(v.VendorLab), nullStr(v.Gene), nullStr(v.Variant),
		nullFloat(v.PDL1Percent), nullStr(v.TMBMSI),
		nullStr(v.TestDate), nullStr(v.GenesTested), nullStr(v.ResultSummary),
		nullInt(v.CTCCount), nullStr(v.MethylationResult), nullStr(v.Notes),
	}
}

func scanMolecular(sc scanner) (*types.Molecular, error) {
	var v types.Molecular
	var (
		patientID                        sql.NullInt64
		platform, vendorLab, gene        sql.NullString
		variant                          sql.NullString
		pdl1                             sql.NullFloat64
		tmbMSI, testDate, genesTested    sql.NullString
		resultSummary                    sql.NullString
		ctcCount                         sql.NullInt64
		methylation, notes               sql.NullString
	)

	err := sc.Scan(
		&v.MolID,
		&patientID, &platform, &vendorLab, &gene, &variant,
		&pdl1, &tmbMSI,
		&testDate, &genesTested, &resultSummary,
		&ctcCount, &methylation, &notes,
	)
	if err == sql.ErrNoRows {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning molecular: %w", err)
	}

	v.PatientID = patientID.Int64
	v.Platform = platform.String
	v.VendorLab = vendorLab.String
	v.Gene = gene.String
	v.Variant = variant.String
	v.PDL1Percent = floatPtr(pdl1)
	v.TMBMSI = tmbMSI.String
	v.TestDate = testDate.String
	v.GenesTested = genesTested.String
	v.ResultSummary = resultSummary.String
	v.CTCCount = intPtr(ctcCount)
	v.MethylationResult = methylation.String
	v.Notes = notes.String

	return &v, nil
}

// InsertMolecular inserts a molecular test for the given patient and
// returns the store-assigned ID.
func (s *Store) InsertMolecular(patientID int64, v *types.Molecular) (int64, error) {
	if patientID <= 0 {
		return 0, types.ErrMissingPatientLink
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return 0, err
	}

	v.PatientID = patientID
	query := fmt.Sprintf("INSERT INTO Molecular (%s) VALUES (%s)",
		strings.Join(molecularColumns, ", "), placeholders(len(molecularColumns)))
	res, err := s.db.Exec(query, molecularArgs(v)...)
	if err != nil {
		return 0, fmt.Errorf("inserting molecular for patient %d: %w", patientID, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading new molecular ID: %w", err)
	}
	v.MolID = id
	return id, nil
}

// UpdateMolecular rewrites all mutable columns of an existing test.
func (s *Store) UpdateMolecular(v *types.Molecular) error {
	if v.MolID <= 0 {
		return types.ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}

	sets := make([]string, len(molecularColumns))
	for i, col := range molecularColumns {
		sets[i] = col + " = ?"
	}
	query := fmt.Sprintf("UPDATE Molecular SET %s WHERE mol_id = ?", strings.Join(sets, ", "))
	res, err := s.db.Exec(query, append(molecularArgs(v), v.MolID)...)
	if err != nil {
		return fmt.Errorf("updating molecular %d: %w", v.MolID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return types.ErrNotFound
	}
	return nil
}

// MolecularByPatient returns a patient's molecular tests, newest test date
// first.
func (s *Store) MolecularByPatient(patientID int64) ([]*types.Molecular, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	rows, err := s.db.Query(selectMolecular+" WHERE patient_id = ? ORDER BY test_date DESC", patientID)
	if err != nil {
		return nil, fmt.Errorf("querying molecular: %w", err)
	}
	defer rows.Close()

	var out []*types.Molecular
	for rows.Next() {
		v, err := scanMolecular(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// ListMolecular returns every molecular row ordered by ID.
func (s *Store) ListMolecular() ([]*types.Molecular, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	rows, err := s.db.Query(selectMolecular + " ORDER BY mol_id")
	if err != nil {
		return nil, fmt.Errorf("querying molecular: %w", err)
	}
	defer rows.Close()

	var out []*types.Molecular
	for rows.Next() {
		v, err := scanMolecular(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// DeleteMolecular removes one molecular row.
func (s *Store) DeleteMolecular(id int64) error {
	return s.deleteByID(types.KindMolecular, id)
}
