// Patient commands for the thorax CLI.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/meridian-health/thorax/pkg/types"
)

var patientCmd = &cobra.Command{
	Use:   "patient",
	Short: "Manage patient records",
}

var patientAddCmd = &cobra.Command{
	Use:   "add <json>",
	Short: "Add a patient from a JSON document",
	Long: `Add inserts a new patient. The JSON document must carry a unique
hospital_id along with the clinical fields.

Example:
  thorax patient add '{"hospital_id":"H-1042","cancer_type":"lung","sex":"F","birth_ym4":"196103"}'`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		entity, err := parseEntityJSON(types.KindPatient, []byte(args[0]))
		if err != nil {
			fmt.Fprintln(os.Stderr, "add patient:", err)
			os.Exit(exitUserError)
		}
		p := entity.(*types.Patient)

		store, err := openStore()
		if err != nil {
			fmt.Fprintln(os.Stderr, "add patient:", err)
			os.Exit(exitSysError)
		}
		defer store.Close()

		id, err := store.InsertPatient(p)
		if err != nil {
			fmt.Fprintln(os.Stderr, "add patient:", err)
			if errors.Is(err, types.ErrDuplicateHospital) {
				os.Exit(exitUserError)
			}
			os.Exit(exitSysError)
		}

		fmt.Printf("Added patient %d (%s)\n", id, p.HospitalID)
		return nil
	},
}

var patientGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Get a patient by ID",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			fmt.Fprintln(os.Stderr, "get patient:", err)
			os.Exit(exitUserError)
		}

		store, err := openStore()
		if err != nil {
			fmt.Fprintln(os.Stderr, "get patient:", err)
			os.Exit(exitSysError)
		}
		defer store.Close()

		p, err := store.GetPatient(id)
		if err != nil {
			if errors.Is(err, types.ErrNotFound) {
				fmt.Fprintf(os.Stderr, "get patient: patient %d not found\n", id)
				os.Exit(exitUserError)
			}
			fmt.Fprintln(os.Stderr, "get patient:", err)
			os.Exit(exitSysError)
		}

		return printJSON(p)
	},
}

var patientListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all patients",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			fmt.Fprintln(os.Stderr, "list patients:", err)
			os.Exit(exitSysError)
		}
		defer store.Close()

		patients, err := store.ListPatients()
		if err != nil {
			fmt.Fprintln(os.Stderr, "list patients:", err)
			os.Exit(exitSysError)
		}

		return printJSON(patients)
	},
}

var patientSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search patients by hospital ID or numeric ID",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			fmt.Fprintln(os.Stderr, "search patients:", err)
			os.Exit(exitSysError)
		}
		defer store.Close()

		patients, err := store.SearchPatients(args[0])
		if err != nil {
			fmt.Fprintln(os.Stderr, "search patients:", err)
			os.Exit(exitSysError)
		}

		return printJSON(patients)
	},
}

var patientUpdateCmd = &cobra.Command{
	Use:   "update <id> <json>",
	Short: "Replace a patient's fields from a JSON document",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			fmt.Fprintln(os.Stderr, "update patient:", err)
			os.Exit(exitUserError)
		}

		entity, err := parseEntityJSON(types.KindPatient, []byte(args[1]))
		if err != nil {
			fmt.Fprintln(os.Stderr, "update patient:", err)
			os.Exit(exitUserError)
		}
		p := entity.(*types.Patient)
		p.PatientID = id

		store, err := openStore()
		if err != nil {
			fmt.Fprintln(os.Stderr, "update patient:", err)
			os.Exit(exitSysError)
		}
		defer store.Close()

		if err := store.UpdatePatient(p); err != nil {
			if errors.Is(err, types.ErrNotFound) || errors.Is(err, types.ErrDuplicateHospital) {
				fmt.Fprintln(os.Stderr, "update patient:", err)
				os.Exit(exitUserError)
			}
			fmt.Fprintln(os.Stderr, "update patient:", err)
			os.Exit(exitSysError)
		}

		fmt.Printf("Updated patient %d\n", id)
		return nil
	},
}

var patientDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a patient and all dependent records",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			fmt.Fprintln(os.Stderr, "delete patient:", err)
			os.Exit(exitUserError)
		}

		store, err := openStore()
		if err != nil {
			fmt.Fprintln(os.Stderr, "delete patient:", err)
			os.Exit(exitSysError)
		}
		defer store.Close()

		if err := store.DeletePatient(id); err != nil {
			if errors.Is(err, types.ErrNotFound) {
				fmt.Fprintf(os.Stderr, "delete patient: patient %d not found\n", id)
				os.Exit(exitUserError)
			}
			fmt.Fprintln(os.Stderr, "delete patient:", err)
			os.Exit(exitSysError)
		}

		fmt.Printf("Deleted patient %d\n", id)
		return nil
	},
}

func init() {
	patientCmd.AddCommand(patientAddCmd)
	patientCmd.AddCommand(patientGetCmd)
	patientCmd.AddCommand(patientListCmd)
	patientCmd.AddCommand(patientSearchCmd)
	patientCmd.AddCommand(patientUpdateCmd)
	patientCmd.AddCommand(patientDeleteCmd)
}
