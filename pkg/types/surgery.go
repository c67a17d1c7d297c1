package types

// Surgery records one operation performed on a patient. A patient may have
// any number of surgeries; rows are removed when the patient is deleted.
type Surgery struct {
	SurgeryID  int64  `json:"surgery_id"`
	PatientID  int64  `json:"patient_id"`
	CancerType string `json:"cancer_type"`
	Date       string `json:"surgery_date6"`
	Indication string `json:"indication"`
	Planned    int64  `json:"planned"`
	Completed  int64  `json:"completed"`

	StartHHMM   *int64 `json:"start_hhmm,omitempty"`
	EndHHMM     *int64 `json:"end_hhmm,omitempty"`
	DurationMin *int64 `json:"duration_min,omitempty"`

	LnDissection int64 `json:"ln_dissection"`
	R0           int64 `json:"r0"`

	// Lung specific.
	Approach         string   `json:"approach"`
	ScopeLung        string   `json:"scope_lung"`
	Lobe             string   `json:"lobe"`
	LeftSide         int64    `json:"left_side"`
	RightSide        int64    `json:"right_side"`
	Bilateral        *int64   `json:"bilateral,omitempty"`
	LesionCount      *int64   `json:"lesion_count,omitempty"`
	MainLesionSizeCM *float64 `json:"main_lesion_size_cm,omitempty"`

	// Esophageal specific.
	EsophagusSite string `json:"esophagus_site"`

	Notes string `json:"notes_surgery"`
}

// Validate checks the surgery fields.
func (s *Surgery) Validate() []FieldError {
	var errs []FieldError
	if err := checkDate6("surgery_date6", s.Date); err != nil {
		errs = append(errs, *err)
	}
	if err := checkHHMM("start_hhmm", s.StartHHMM); err != nil {
		errs = append(errs, *err)
	}
	if err := checkHHMM("end_hhmm", s.EndHHMM); err != nil {
		errs = append(errs, *err)
	}
	if s.DurationMin != nil && *s.DurationMin < 0 {
		errs = append(errs, fieldError("duration_min", "must not be negative", *s.DurationMin))
	}
	if s.LesionCount != nil && *s.LesionCount < 0 {
		errs = append(errs, fieldError("lesion_count", "must not be negative", *s.LesionCount))
	}
	if s.MainLesionSizeCM != nil && *s.MainLesionSizeCM < 0 {
		errs = append(errs, fieldError("main_lesion_size_cm", "must not be negative", *s.MainLesionSizeCM))
	}
	return errs
}
