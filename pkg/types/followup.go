package types

// FollowUpEvent is one event in a patient's follow-up timeline. EventCode is
// a 6-digit numeric code unique within the patient; the store generates one
// on insert when the field is empty.
type FollowUpEvent struct {
	EventID   int64  `json:"event_id"`
	PatientID int64  `json:"patient_id"`
	Date      string `json:"event_date"`
	Type      string `json:"event_type"`
	Details   string `json:"event_details"`
	EventCode string `json:"event_code"`
}

// Follow-up event types recorded by the original forms. The store does not
// restrict Type to this set; these are the values the forms produce.
const (
	EventVisit   = "visit"
	EventRelapse = "relapse"
	EventDeath   = "death"
)

// Validate checks the follow-up event fields. Date and Type are required;
// EventCode, when present, must be exactly six digits.
func (e *FollowUpEvent) Validate() []FieldError {
	var errs []FieldError
	errs = appendRequired(errs, "event_date", e.Date)
	errs = appendRequired(errs, "event_type", e.Type)
	if err := checkDate6("event_date", e.Date); err != nil {
		errs = append(errs, *err)
	}
	if e.EventCode != "" && !isDigits(e.EventCode, 6) {
		errs = append(errs, fieldError("event_code", "must be six digits", e.EventCode))
	}
	return errs
}
