package types

// Patient is the root entity: one row per study subject. The PatientID is
// assigned by the store on insert and never changes afterwards; imported
// patients always receive a fresh ID in the destination database.
type Patient struct {
	PatientID  int64  `json:"patient_id"`
	HospitalID string `json:"hospital_id"`
	CancerType string `json:"cancer_type"`
	Sex        string `json:"sex"`
	BirthYM    string `json:"birth_ym4"`

	PackYears    *float64 `json:"pack_years,omitempty"`
	MultiPrimary int64    `json:"multi_primary"`

	// Lung clinical TNM.
	LungT string `json:"lung_t"`
	LungN string `json:"lung_n"`
	LungM string `json:"lung_m"`

	// Esophageal clinical TNM and tumor descriptors.
	EsoT              string   `json:"eso_t"`
	EsoN              string   `json:"eso_n"`
	EsoM              string   `json:"eso_m"`
	EsoHistology      string   `json:"eso_histology"`
	EsoGrade          string   `json:"eso_grade"`
	EsoLocation       string   `json:"eso_location"`
	EsoFromIncisorsCM *float64 `json:"eso_from_incisors_cm,omitempty"`

	DiabetesHistory int64 `json:"diabetes_history"`
	FamilyHistory   int64 `json:"family_history"`

	// Neoadjuvant therapy.
	NacChemo          int64  `json:"nac_chemo"`
	NacChemoCycles    *int64 `json:"nac_chemo_cycles,omitempty"`
	NacImmuno         int64  `json:"nac_immuno"`
	NacImmunoCycles   *int64 `json:"nac_immuno_cycles,omitempty"`
	NacTargeted       int64  `json:"nac_targeted"`
	NacTargetedCycles *int64 `json:"nac_targeted_cycles,omitempty"`
	NacRadiation      int64  `json:"nac_radiation"`
	NacAntiangio      int64  `json:"nac_antiangio"`
	NacAntiangioCycle *int64 `json:"nac_antiangio_cycles,omitempty"`
	NacDate           string `json:"nac_date"`

	// Adjuvant therapy.
	AdjChemo          int64  `json:"adj_chemo"`
	AdjChemoCycles    *int64 `json:"adj_chemo_cycles,omitempty"`
	AdjImmuno         int64  `json:"adj_immuno"`
	AdjImmunoCycles   *int64 `json:"adj_immuno_cycles,omitempty"`
	AdjTargeted       int64  `json:"adj_targeted"`
	AdjTargetedCycles *int64 `json:"adj_targeted_cycles,omitempty"`
	AdjRadiation      int64  `json:"adj_radiation"`
	AdjAntiangio      int64  `json:"adj_antiangio"`
	AdjAntiangioCycle *int64 `json:"adj_antiangio_cycles,omitempty"`
	AdjDate           string `json:"adj_date"`

	Notes string `json:"notes_patient"`
}

// Cancer type values stored in Patient.CancerType.
const (
	CancerLung = "lung"
	CancerEso  = "eso"
)

// Validate checks the patient's fields and returns one FieldError per
// problem. An empty slice means the record is acceptable for storage.
func (p *Patient) Validate() []FieldError {
	var errs []FieldError

	errs = appendRequired(errs, "hospital_id", p.HospitalID)
	errs = appendRequired(errs, "cancer_type", p.CancerType)
	errs = appendRequired(errs, "sex", p.Sex)

	if err := checkYearMonth("birth_ym4", p.BirthYM); err != nil {
		errs = append(errs, *err)
	}
	if err := checkDate6("nac_date", p.NacDate); err != nil {
		errs = append(errs, *err)
	}
	if err := checkDate6("adj_date", p.AdjDate); err != nil {
		errs = append(errs, *err)
	}

	if p.PackYears != nil && *p.PackYears < 0 {
		errs = append(errs, fieldError("pack_years", "must not be negative", *p.PackYears))
	}
	for _, c := range []struct {
		field string
		v     *int64
	}{
		{"nac_chemo_cycles", p.NacChemoCycles},
		{"nac_immuno_cycles", p.NacImmunoCycles},
		{"nac_targeted_cycles", p.NacTargetedCycles},
		{"nac_antiangio_cycles", p.NacAntiangioCycle},
		{"adj_chemo_cycles", p.AdjChemoCycles},
		{"adj_immuno_cycles", p.AdjImmunoCycles},
		{"adj_targeted_cycles", p.AdjTargetedCycles},
		{"adj_antiangio_cycles", p.AdjAntiangioCycle},
	} {
		if c.v != nil && *c.v < 0 {
			errs = append(errs, fieldError(c.field, "cycle count must not be negative", *c.v))
		}
	}

	return errs
}
