// Record commands operate on the dependent clinical tables (Surgery,
// Pathology, Molecular, FollowUpEvent) of a patient.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/meridian-health/thorax/internal/sqlite"
	"github.com/meridian-health/thorax/pkg/types"
)

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Manage dependent clinical records",
	Long: `Record manages a patient's dependent clinical records.

Valid record kinds: Surgery, Pathology, Molecular, FollowUpEvent
(patients have their own command; see "thorax patient").`,
}

// parseDependentKind maps a command argument to a dependent record kind.
// Patient is rejected here: the patient command handles the root table.
func parseDependentKind(name string) (types.Kind, error) {
	kind, err := types.ParseKind(name)
	if err != nil {
		return 0, fmt.Errorf("unknown record kind %q (valid: %s)", name, validKindNames)
	}
	if kind == types.KindPatient {
		return 0, errors.New(`patients have their own command; see "thorax patient"`)
	}
	return kind, nil
}

var recordAddCmd = &cobra.Command{
	Use:   "add <kind> <patient-id> <json>",
	Short: "Add a dependent record to a patient",
	Long: `Add inserts a dependent clinical record for a patient.

Example:
  thorax record add Surgery 12 '{"cancer_type":"lung","surgery_date6":"240115","approach":"VATS"}'
  thorax record add FollowUpEvent 12 '{"event_date":"240601","event_type":"visit"}'`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := parseDependentKind(args[0])
		if err != nil {
			fmt.Fprintln(os.Stderr, "add record:", err)
			os.Exit(exitUserError)
		}
		patientID, err := parseID(args[1])
		if err != nil {
			fmt.Fprintln(os.Stderr, "add record:", err)
			os.Exit(exitUserError)
		}
		entity, err := parseEntityJSON(kind, []byte(args[2]))
		if err != nil {
			fmt.Fprintln(os.Stderr, "add record:", err)
			os.Exit(exitUserError)
		}

		store, err := openStore()
		if err != nil {
			fmt.Fprintln(os.Stderr, "add record:", err)
			os.Exit(exitSysError)
		}
		defer store.Close()

		id, err := insertRecord(store, kind, patientID, entity)
		if err != nil {
			fmt.Fprintln(os.Stderr, "add record:", err)
			if errors.Is(err, types.ErrNotFound) || errors.Is(err, types.ErrEventCodeTaken) {
				os.Exit(exitUserError)
			}
			os.Exit(exitSysError)
		}

		fmt.Printf("Added %s %d to patient %d\n", kind, id, patientID)
		return nil
	},
}

var recordListCmd = &cobra.Command{
	Use:   "list <kind> <patient-id>",
	Short: "List a patient's records of one kind",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := parseDependentKind(args[0])
		if err != nil {
			fmt.Fprintln(os.Stderr, "list records:", err)
			os.Exit(exitUserError)
		}
		patientID, err := parseID(args[1])
		if err != nil {
			fmt.Fprintln(os.Stderr, "list records:", err)
			os.Exit(exitUserError)
		}

		store, err := openStore()
		if err != nil {
			fmt.Fprintln(os.Stderr, "list records:", err)
			os.Exit(exitSysError)
		}
		defer store.Close()

		records, err := listRecords(store, kind, patientID)
		if err != nil {
			fmt.Fprintln(os.Stderr, "list records:", err)
			os.Exit(exitSysError)
		}

		return printJSON(records)
	},
}

var recordUpdateCmd = &cobra.Command{
	Use:   "update <kind> <id> <json>",
	Short: "Replace a dependent record's fields from a JSON document",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := parseDependentKind(args[0])
		if err != nil {
			fmt.Fprintln(os.Stderr, "update record:", err)
			os.Exit(exitUserError)
		}
		id, err := parseID(args[1])
		if err != nil {
			fmt.Fprintln(os.Stderr, "update record:", err)
			os.Exit(exitUserError)
		}
		entity, err := parseEntityJSON(kind, []byte(args[2]))
		if err != nil {
			fmt.Fprintln(os.Stderr, "update record:", err)
			os.Exit(exitUserError)
		}

		store, err := openStore()
		if err != nil {
			fmt.Fprintln(os.Stderr, "update record:", err)
			os.Exit(exitSysError)
		}
		defer store.Close()

		if err := updateRecord(store, kind, id, entity); err != nil {
			if errors.Is(err, types.ErrNotFound) {
				fmt.Fprintf(os.Stderr, "update record: %s %d not found\n", kind, id)
				os.Exit(exitUserError)
			}
			fmt.Fprintln(os.Stderr, "update record:", err)
			os.Exit(exitSysError)
		}

		fmt.Printf("Updated %s %d\n", kind, id)
		return nil
	},
}

var recordDeleteCmd = &cobra.Command{
	Use:   "delete <kind> <id>",
	Short: "Delete a dependent record",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := parseDependentKind(args[0])
		if err != nil {
			fmt.Fprintln(os.Stderr, "delete record:", err)
			os.Exit(exitUserError)
		}
		id, err := parseID(args[1])
		if err != nil {
			fmt.Fprintln(os.Stderr, "delete record:", err)
			os.Exit(exitUserError)
		}

		store, err := openStore()
		if err != nil {
			fmt.Fprintln(os.Stderr, "delete record:", err)
			os.Exit(exitSysError)
		}
		defer store.Close()

		if err := deleteRecord(store, kind, id); err != nil {
			if errors.Is(err, types.ErrNotFound) {
				fmt.Fprintf(os.Stderr, "delete record: %s %d not found\n", kind, id)
				os.Exit(exitUserError)
			}
			fmt.Fprintln(os.Stderr, "delete record:", err)
			os.Exit(exitSysError)
		}

		fmt.Printf("Deleted %s %d\n", kind, id)
		return nil
	},
}

func insertRecord(store *sqlite.Store, kind types.Kind, patientID int64, entity any) (int64, error) {
	switch kind {
	case types.KindSurgery:
		return store.InsertSurgery(patientID, entity.(*types.Surgery))
	case types.KindPathology:
		return store.InsertPathology(patientID, entity.(*types.Pathology))
	case types.KindMolecular:
		return store.InsertMolecular(patientID, entity.(*types.Molecular))
	case types.KindFollowUpEvent:
		return store.InsertFollowUpEvent(patientID, entity.(*types.FollowUpEvent))
	}
	return 0, fmt.Errorf("%w: %v", types.ErrUnknownKind, kind)
}

func listRecords(store *sqlite.Store, kind types.Kind, patientID int64) (any, error) {
	switch kind {
	case types.KindSurgery:
		return store.SurgeriesByPatient(patientID)
	case types.KindPathology:
		return store.PathologiesByPatient(patientID)
	case types.KindMolecular:
		return store.MolecularByPatient(patientID)
	case types.KindFollowUpEvent:
		return store.FollowUpEventsByPatient(patientID)
	}
	return nil, fmt.Errorf("%w: %v", types.ErrUnknownKind, kind)
}

func updateRecord(store *sqlite.Store, kind types.Kind, id int64, entity any) error {
	switch kind {
	case types.KindSurgery:
		v := entity.(*types.Surgery)
		v.SurgeryID = id
		return store.UpdateSurgery(v)
	case types.KindPathology:
		v := entity.(*types.Pathology)
		v.PathID = id
		return store.UpdatePathology(v)
	case types.KindMolecular:
		v := entity.(*types.Molecular)
		v.MolID = id
		return store.UpdateMolecular(v)
	case types.KindFollowUpEvent:
		v := entity.(*types.FollowUpEvent)
		v.EventID = id
		return store.UpdateFollowUpEvent(v)
	}
	return fmt.Errorf("%w: %v", types.ErrUnknownKind, kind)
}

func deleteRecord(store *sqlite.Store, kind types.Kind, id int64) error {
	switch kind {
	case types.KindSurgery:
		return store.DeleteSurgery(id)
	case types.KindPathology:
		return store.DeletePathology(id)
	case types.KindMolecular:
		return store.DeleteMolecular(id)
	case types.KindFollowUpEvent:
		return store.DeleteFollowUpEvent(id)
	}
	return fmt.Errorf("%w: %v", types.ErrUnknownKind, kind)
}

func init() {
	recordCmd.AddCommand(recordAddCmd)
	recordCmd.AddCommand(recordListCmd)
	recordCmd.AddCommand(recordUpdateCmd)
	recordCmd.AddCommand(recordDeleteCmd)
}
