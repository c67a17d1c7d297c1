package types

// Molecular records one molecular test result for a patient.
type Molecular struct {
	MolID     int64 `json:"mol_id"`
	PatientID int64 `json:"patient_id"`

	Platform  string `json:"platform"`
	VendorLab string `json:"vendor_lab"`
	Gene      string `json:"gene"`
	Variant   string `json:"variant"`

	PDL1Percent *float64 `json:"pdl1_percent,omitempty"`
	TMBMSI      string   `json:"tmb_msi"`

	TestDate      string `json:"test_date"`
	GenesTested   string `json:"genes_tested"`
	ResultSummary string `json:"result_summary"`

	CTCCount          *int64 `json:"ctc_count,omitempty"`
	MethylationResult string `json:"methylation_result"`

	Notes string `json:"notes_mol"`
}

// Validate checks the molecular test fields.
func (m *Molecular) Validate() []FieldError {
	var errs []FieldError
	if m.PDL1Percent != nil && (*m.PDL1Percent < 0 || *m.PDL1Percent > 100) {
		errs = append(errs, fieldError("pdl1_percent", "must be between 0 and 100", *m.PDL1Percent))
	}
	if m.CTCCount != nil && *m.CTCCount < 0 {
		errs = append(errs, fieldError("ctc_count", "must not be negative", *m.CTCCount))
	}
	if err := checkDate6("test_date", m.TestDate); err != nil {
		errs = append(errs, *err)
	}
	return errs
}
