package types

// Pathology records one pathology report for a patient.
type Pathology struct {
	PathID    int64 `json:"path_id"`
	PatientID int64 `json:"patient_id"`

	SpecimenType    string `json:"specimen_type"`
	Histology       string `json:"histology"`
	Differentiation string `json:"differentiation"`

	// Pathologic TNM and stage.
	PT     string `json:"pt"`
	PN     string `json:"pn"`
	PM     string `json:"pm"`
	PStage string `json:"p_stage"`

	LVI             *int64 `json:"lvi,omitempty"`
	PNI             *int64 `json:"pni,omitempty"`
	PleuralInvasion *int64 `json:"pleural_invasion,omitempty"`
	AirwaySpread    *int64 `json:"airway_spread,omitempty"`

	PathologyNo   string `json:"pathology_no"`
	PathologyDate string `json:"pathology_date"`

	LnTotal    *int64 `json:"ln_total,omitempty"`
	LnPositive *int64 `json:"ln_positive,omitempty"`
	TRG        *int64 `json:"trg,omitempty"`

	ReportDate  string `json:"report_date"`
	AdenSubtype string `json:"aden_subtype"`
	Notes       string `json:"notes_path"`
}

// Validate checks the pathology fields.
func (p *Pathology) Validate() []FieldError {
	var errs []FieldError
	if err := checkDate6("pathology_date", p.PathologyDate); err != nil {
		errs = append(errs, *err)
	}
	if p.LnTotal != nil && *p.LnTotal < 0 {
		errs = append(errs, fieldError("ln_total", "must not be negative", *p.LnTotal))
	}
	if p.LnPositive != nil && *p.LnPositive < 0 {
		errs = append(errs, fieldError("ln_positive", "must not be negative", *p.LnPositive))
	}
	if p.LnTotal != nil && p.LnPositive != nil && *p.LnPositive > *p.LnTotal {
		errs = append(errs, fieldError("ln_positive", "cannot exceed total node count", *p.LnPositive))
	}
	return errs
}
