package sqlite

import (
	"database/sql"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/meridian-health/thorax/pkg/types"
)

// followUpColumns lists every FollowUpEvent column except the primary key.
var followUpColumns = []string{
	"patient_id", "event_date", "event_type", "event_details", "event_code",
}

var selectFollowUp = "SELECT event_id, " + strings.Join(followUpColumns, ", ") + " FROM FollowUpEvent"

func followUpArgs(v *types.FollowUpEvent) []any {
	return []any{
		v.PatientID, v.Date, v.Type, nullStr(v.Details), v.EventCode,
	}
}

func scanFollowUp(sc scanner) (*types.FollowUpEvent, error) {
	var v types.FollowUpEvent
	var patientID sql.NullInt64
	// Nullable locals throughout: rows read from older source files during
	// import may predate the NOT NULL constraints and the event_code column.
	var date, typ, details, code sql.NullString

	err := sc.Scan(&v.EventID, &patientID, &date, &typ, &details, &code)
	if err == sql.ErrNoRows {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning follow-up event: %w", err)
	}
	v.PatientID = patientID.Int64
	v.Date = date.String
	v.Type = typ.String
	v.Details = details.String
	v.EventCode = code.String
	return &v, nil
}

// randomEventCode returns a 6-digit code string in [100000, 999999].
func randomEventCode() string {
	return fmt.Sprintf("%06d", 100000+rand.IntN(900000))
}

// IsEventCodeTaken reports whether a patient already has an event with
// the given code.
func (s *Store) IsEventCodeTaken(patientID int64, code string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(); err != nil {
		return false, err
	}
	return s.eventCodeTaken(patientID, code)
}

func (s *Store) eventCodeTaken(patientID int64, code string) (bool, error) {
	var n int64
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM FollowUpEvent WHERE patient_id = ? AND event_code = ?",
		patientID, code).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("checking event code: %w", err)
	}
	return n > 0, nil
}

// freeEventCode picks a random 6-digit code not yet used by the patient.
func (s *Store) freeEventCode(patientID int64) (string, error) {
	for range 64 {
		code := randomEventCode()
		taken, err := s.eventCodeTaken(patientID, code)
		if err != nil {
			return "", err
		}
		if !taken {
			return code, nil
		}
	}
	return "", fmt.Errorf("generating event code for patient %d: %w", patientID, types.ErrEventCodeTaken)
}

// InsertFollowUpEvent inserts a follow-up event for the given patient. An
// empty event code is replaced with a fresh random 6-digit code; a
// supplied code that collides with an existing event for the same patient
// is regenerated.
func (s *Store) InsertFollowUpEvent(patientID int64, v *types.FollowUpEvent) (int64, error) {
	if patientID <= 0 {
		return 0, types.ErrMissingPatientLink
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return 0, err
	}

	v.PatientID = patientID
	if v.EventCode != "" {
		taken, err := s.eventCodeTaken(patientID, v.EventCode)
		if err != nil {
			return 0, err
		}
		if taken {
			v.EventCode = ""
		}
	}
	if v.EventCode == "" {
		code, err := s.freeEventCode(patientID)
		if err != nil {
			return 0, err
		}
		v.EventCode = code
	}

	query := fmt.Sprintf("INSERT INTO FollowUpEvent (%s) VALUES (%s)",
		strings.Join(followUpColumns, ", "), placeholders(len(followUpColumns)))
	res, err := s.db.Exec(query, followUpArgs(v)...)
	if err != nil {
		return 0, fmt.Errorf("inserting follow-up event for patient %d: %w", patientID, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading new event ID: %w", err)
	}
	v.EventID = id
	return id, nil
}

// UpdateFollowUpEvent rewrites all mutable columns of an existing event.
// The event code is left alone.
func (s *Store) UpdateFollowUpEvent(v *types.FollowUpEvent) error {
	if v.EventID <= 0 {
		return types.ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}

	res, err := s.db.Exec(
		"UPDATE FollowUpEvent SET event_date = ?, event_type = ?, event_details = ? WHERE event_id = ?",
		v.Date, v.Type, nullStr(v.Details), v.EventID)
	if err != nil {
		return fmt.Errorf("updating follow-up event %d: %w", v.EventID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return types.ErrNotFound
	}
	return nil
}

// FollowUpEventsByPatient returns a patient's events, newest first.
func (s *Store) FollowUpEventsByPatient(patientID int64) ([]*types.FollowUpEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	rows, err := s.db.Query(
		selectFollowUp+" WHERE patient_id = ? ORDER BY event_date DESC, event_id DESC", patientID)
	if err != nil {
		return nil, fmt.Errorf("querying follow-up events: %w", err)
	}
	defer rows.Close()

	var out []*types.FollowUpEvent
	for rows.Next() {
		v, err := scanFollowUp(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// ListFollowUpEvents returns every event ordered by ID.
func (s *Store) ListFollowUpEvents() ([]*types.FollowUpEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	rows, err := s.db.Query(selectFollowUp + " ORDER BY event_id")
	if err != nil {
		return nil, fmt.Errorf("querying follow-up events: %w", err)
	}
	defer rows.Close()

	var out []*types.FollowUpEvent
	for rows.Next() {
		v, err := scanFollowUp(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// DeleteFollowUpEvent removes one event row.
func (s *Store) DeleteFollowUpEvent(id int64) error {
	return s.deleteByID(types.KindFollowUpEvent, id)
}
