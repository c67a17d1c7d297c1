// Package export writes registry data to CSV files, one file per table,
// either for the whole database or for a single patient. Dependent rows
// carry the owning patient's hospital ID so exported files stay joinable
// without the internal numeric patient ID.
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"

	"github.com/meridian-health/thorax/internal/sqlite"
	"github.com/meridian-health/thorax/pkg/types"
)

// excludedColumns never appear in exported files: deprecated columns and
// the internal numeric patient ID, replaced by the hospital ID.
var excludedColumns = map[string]bool{
	"vendor_lab":  true,
	"ln_total":    true,
	"ln_positive": true,
	"patient_id":  true,
}

// header returns the exported column order for a kind. Dependent tables
// lead with the hospital ID and their own primary key.
func header(kind types.Kind) []string {
	var h []string
	if kind != types.KindPatient {
		h = append(h, "hospital_id", kind.KeyColumn())
	}
	for _, col := range sqlite.Columns(kind) {
		if excludedColumns[col] {
			continue
		}
		h = append(h, col)
	}
	return h
}

// entityMap flattens an entity into column name -> formatted value. The
// JSON tags on the entity structs are the column names, which makes the
// struct-to-row mapping a single marshal step.
func entityMap(entity any) (map[string]string, int64, error) {
	raw, err := json.Marshal(entity)
	if err != nil {
		return nil, 0, fmt.Errorf("flattening record: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	fields := make(map[string]any)
	if err := dec.Decode(&fields); err != nil {
		return nil, 0, fmt.Errorf("flattening record: %w", err)
	}

	out := make(map[string]string, len(fields))
	var patientID int64
	for col, v := range fields {
		switch val := v.(type) {
		case nil:
			out[col] = ""
		case string:
			out[col] = val
		case json.Number:
			out[col] = val.String()
		case bool:
			if val {
				out[col] = "1"
			} else {
				out[col] = "0"
			}
		default:
			out[col] = fmt.Sprint(val)
		}
	}
	if n, ok := fields["patient_id"].(json.Number); ok {
		patientID, _ = n.Int64()
	}
	return out, patientID, nil
}

// writeEntityFile writes one table's CSV file. hospByPatient maps patient
// IDs to hospital IDs for the hospital_id lead column on dependent rows.
func writeEntityFile(path string, kind types.Kind, entities []any, hospByPatient map[int64]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	cols := header(kind)
	if err := w.Write(cols); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	for _, entity := range entities {
		fields, patientID, err := entityMap(entity)
		if err != nil {
			return err
		}
		row := make([]string, len(cols))
		for i, col := range cols {
			if col == "hospital_id" && kind != types.KindPatient {
				row[i] = hospByPatient[patientID]
				continue
			}
			row[i] = fields[col]
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}

// fetchAll reads every row of a kind from the store as entities.
func fetchAll(store *sqlite.Store, kind types.Kind) ([]any, error) {
	switch kind {
	case types.KindPatient:
		rows, err := store.ListPatients()
		return asAny(rows), err
	case types.KindSurgery:
		rows, err := store.ListSurgeries()
		return asAny(rows), err
	case types.KindPathology:
		rows, err := store.ListPathologies()
		return asAny(rows), err
	case types.KindMolecular:
		rows, err := store.ListMolecular()
		return asAny(rows), err
	case types.KindFollowUpEvent:
		rows, err := store.ListFollowUpEvents()
		return asAny(rows), err
	}
	return nil, types.ErrUnknownKind
}

// fetchForPatient reads a patient's rows of a kind.
func fetchForPatient(store *sqlite.Store, kind types.Kind, patientID int64) ([]any, error) {
	switch kind {
	case types.KindPatient:
		p, err := store.GetPatient(patientID)
		if err != nil {
			return nil, err
		}
		return []any{p}, nil
	case types.KindSurgery:
		rows, err := store.SurgeriesByPatient(patientID)
		return asAny(rows), err
	case types.KindPathology:
		rows, err := store.PathologiesByPatient(patientID)
		return asAny(rows), err
	case types.KindMolecular:
		rows, err := store.MolecularByPatient(patientID)
		return asAny(rows), err
	case types.KindFollowUpEvent:
		rows, err := store.FollowUpEventsByPatient(patientID)
		return asAny(rows), err
	}
	return nil, types.ErrUnknownKind
}

func asAny[T any](rows []*T) []any {
	out := make([]any, len(rows))
	for i, r := range rows {
		out[i] = r
	}
	return out
}
