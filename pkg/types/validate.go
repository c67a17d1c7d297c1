package types

import (
	"fmt"
	"strconv"
	"strings"
)

// FieldError describes a single invalid field, named so the caller can point
// the user at the offending input rather than failing the whole record
// anonymously.
type FieldError struct {
	Field   string `json:"field"`
	Label   string `json:"label"`
	Message string `json:"message"`
	Value   any    `json:"value,omitempty"`
}

// Error implements the error interface.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Label, e.Message)
}

// fieldLabels maps column names to user-facing labels for error messages.
// Fields without an entry fall back to the column name itself.
var fieldLabels = map[string]string{
	"hospital_id":          "hospital ID",
	"cancer_type":          "cancer type",
	"sex":                  "sex",
	"birth_ym4":            "birth year-month",
	"pack_years":           "pack-years",
	"eso_from_incisors_cm": "distance from incisors",
	"nac_chemo_cycles":     "neoadjuvant chemo cycles",
	"nac_immuno_cycles":    "neoadjuvant immuno cycles",
	"nac_targeted_cycles":  "neoadjuvant targeted cycles",
	"nac_antiangio_cycles": "neoadjuvant antiangiogenic cycles",
	"nac_date":             "neoadjuvant therapy date",
	"adj_chemo_cycles":     "adjuvant chemo cycles",
	"adj_immuno_cycles":    "adjuvant immuno cycles",
	"adj_targeted_cycles":  "adjuvant targeted cycles",
	"adj_antiangio_cycles": "adjuvant antiangiogenic cycles",
	"adj_date":             "adjuvant therapy date",
	"surgery_date6":        "surgery date",
	"start_hhmm":           "start time",
	"end_hhmm":             "end time",
	"duration_min":         "duration (minutes)",
	"pathology_date":       "pathology report date",
	"ln_total":             "total nodes examined",
	"ln_positive":          "positive nodes",
	"pdl1_percent":         "PD-L1 percent",
	"ctc_count":            "CTC count",
	"test_date":            "test date",
	"event_date":           "event date",
	"event_type":           "event type",
	"event_code":           "event code",
}

// FieldLabel returns the user-facing label for a column name.
func FieldLabel(field string) string {
	if label, ok := fieldLabels[field]; ok {
		return label
	}
	return field
}

func fieldError(field, message string, value any) FieldError {
	return FieldError{
		Field:   field,
		Label:   FieldLabel(field),
		Message: message,
		Value:   value,
	}
}

// appendRequired appends a FieldError when the value is empty after trimming.
func appendRequired(errs []FieldError, field, value string) []FieldError {
	if strings.TrimSpace(value) == "" {
		errs = append(errs, fieldError(field, "this field is required", value))
	}
	return errs
}

// isDigits reports whether s consists of exactly n ASCII digits.
func isDigits(s string, n int) bool {
	if len(s) != n {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// checkYearMonth validates an optional YYYYMM value: six digits, year
// 1900-2100, month 01-12. Empty values pass; this field is optional.
func checkYearMonth(field, value string) *FieldError {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	if !isDigits(value, 6) {
		e := fieldError(field, "must be six digits (YYYYMM), e.g. 199001", value)
		return &e
	}
	year, _ := strconv.Atoi(value[:4])
	month, _ := strconv.Atoi(value[4:6])
	if year < 1900 || year > 2100 {
		e := fieldError(field, fmt.Sprintf("year %d out of range 1900-2100", year), value)
		return &e
	}
	if month < 1 || month > 12 {
		e := fieldError(field, fmt.Sprintf("month %d out of range 01-12", month), value)
		return &e
	}
	return nil
}

// checkDate6 validates an optional YYMMDD value: six digits with a plausible
// month and day. Only clearly impossible combinations are rejected; leap
// years are not considered.
func checkDate6(field, value string) *FieldError {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	if !isDigits(value, 6) {
		e := fieldError(field, "must be six digits (YYMMDD), e.g. 250115", value)
		return &e
	}
	month, _ := strconv.Atoi(value[2:4])
	day, _ := strconv.Atoi(value[4:6])
	if month < 1 || month > 12 {
		e := fieldError(field, fmt.Sprintf("month %d out of range 01-12", month), value)
		return &e
	}
	if day < 1 || day > 31 {
		e := fieldError(field, fmt.Sprintf("day %d out of range 01-31", day), value)
		return &e
	}
	switch month {
	case 4, 6, 9, 11:
		if day > 30 {
			e := fieldError(field, fmt.Sprintf("month %02d has at most 30 days", month), value)
			return &e
		}
	case 2:
		if day > 29 {
			e := fieldError(field, "February has at most 29 days", value)
			return &e
		}
	}
	return nil
}

// checkHHMM validates an optional clock value stored as an integer HHMM.
func checkHHMM(field string, value *int64) *FieldError {
	if value == nil {
		return nil
	}
	hh := *value / 100
	mm := *value % 100
	if *value < 0 || hh > 23 || mm > 59 {
		e := fieldError(field, "must be a clock time HHMM between 0000 and 2359", *value)
		return &e
	}
	return nil
}

// FormatFieldErrors renders validation errors as a numbered list suitable
// for showing the user which inputs to correct.
func FormatFieldErrors(errs []FieldError) string {
	if len(errs) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("the following fields are invalid:\n")
	for i, e := range errs {
		fmt.Fprintf(&b, "  %d. %s: %s", i+1, e.Label, e.Message)
		if e.Value != nil && e.Value != "" {
			fmt.Fprintf(&b, " (got %v)", e.Value)
		}
		b.WriteString("\n")
	}
	return b.String()
}
