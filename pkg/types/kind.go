package types

import "fmt"

// Kind is the closed enumeration of entity kinds stored in a registry
// database. Using a fixed enumeration instead of free-form table names keeps
// every query against a compile-time-known table; unknown names fail closed
// at the parsing boundary.
type Kind int

const (
	KindPatient Kind = iota
	KindSurgery
	KindPathology
	KindMolecular
	KindFollowUpEvent
)

// Kinds lists every entity kind in a stable order: the root entity first,
// then the dependent entities.
var Kinds = []Kind{
	KindPatient,
	KindSurgery,
	KindPathology,
	KindMolecular,
	KindFollowUpEvent,
}

// DependentKinds lists the kinds whose rows reference a patient.
var DependentKinds = []Kind{
	KindSurgery,
	KindPathology,
	KindMolecular,
	KindFollowUpEvent,
}

// kindTables maps each kind to its SQLite table name.
var kindTables = map[Kind]string{
	KindPatient:       "Patient",
	KindSurgery:       "Surgery",
	KindPathology:     "Pathology",
	KindMolecular:     "Molecular",
	KindFollowUpEvent: "FollowUpEvent",
}

// kindKeys maps each kind to its primary key column.
var kindKeys = map[Kind]string{
	KindPatient:       "patient_id",
	KindSurgery:       "surgery_id",
	KindPathology:     "path_id",
	KindMolecular:     "mol_id",
	KindFollowUpEvent: "event_id",
}

// Table returns the SQLite table name for the kind.
func (k Kind) Table() string {
	return kindTables[k]
}

// KeyColumn returns the primary key column name for the kind.
func (k Kind) KeyColumn() string {
	return kindKeys[k]
}

// String returns the table name, which doubles as the display name.
func (k Kind) String() string {
	return kindTables[k]
}

// ParseKind maps a user-supplied table name to a Kind. Unrecognized names
// return ErrUnknownKind; nothing downstream ever interpolates the raw string.
func ParseKind(name string) (Kind, error) {
	for k, table := range kindTables {
		if table == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, name)
}
