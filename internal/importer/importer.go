// Package importer merges patient records from other registry database
// files into the live store. Patients are keyed by hospital ID: only
// patients absent from the destination are copied, together with their
// surgery, pathology, molecular and follow-up records. Every copied row
// receives a fresh primary key in the destination; an in-memory ID map
// keeps dependent rows attached to the right patient.
package importer

import (
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/meridian-health/thorax/internal/sqlite"
	"github.com/meridian-health/thorax/pkg/types"
)

// Options configures one import run.
type Options struct {
	// DryRun counts what would be copied without writing anything.
	DryRun bool
	// Logger receives per-row warnings. Defaults to slog.Default().
	Logger *slog.Logger
}

// SourceResult holds the per-file outcome of an import run.
type SourceResult struct {
	Path string

	Patients       int // patients copied (or countable, on a dry run)
	Surgeries      int
	Pathologies    int
	Molecular      int
	FollowUpEvents int

	DuplicatePatients int // skipped: hospital ID already in the destination
	SkippedPatients   int // skipped: blank hospital ID or failed insert
	RowErrors         int // dependent rows that failed to insert
	Orphans           int // dependent rows with no patient in the source file

	Err error // fatal per-source failure; the rest of the run continued
}

// Result summarizes an import run across all source files.
type Result struct {
	RunID   uuid.UUID
	DryRun  bool
	Sources []SourceResult
}

// Totals folds the per-source counts into one SourceResult.
func (r *Result) Totals() SourceResult {
	var t SourceResult
	for _, s := range r.Sources {
		t.Patients += s.Patients
		t.Surgeries += s.Surgeries
		t.Pathologies += s.Pathologies
		t.Molecular += s.Molecular
		t.FollowUpEvents += s.FollowUpEvents
		t.DuplicatePatients += s.DuplicatePatients
		t.SkippedPatients += s.SkippedPatients
		t.RowErrors += s.RowErrors
		t.Orphans += s.Orphans
	}
	return t
}

// FailedSources returns the paths of sources that could not be processed.
func (r *Result) FailedSources() []string {
	var out []string
	for _, s := range r.Sources {
		if s.Err != nil {
			out = append(out, s.Path)
		}
	}
	return out
}

// running guards against overlapping import runs within the process.
var running atomic.Bool

// Import merges each source file into the destination store. Source files
// are processed independently: a file that cannot be opened or read is
// recorded in its SourceResult and the run continues with the remaining
// files. Row-level failures inside a readable file are logged, counted and
// skipped; a failed patient insert skips that patient's dependent rows too.
// At most one import runs at a time; overlapping calls return
// ErrImportInFlight.
func Import(store *sqlite.Store, paths []string, opts Options) (*Result, error) {
	if !running.CompareAndSwap(false, true) {
		return nil, types.ErrImportInFlight
	}
	defer running.Store(false)

	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	result := &Result{RunID: uuid.Must(uuid.NewV7()), DryRun: opts.DryRun}

	// One destination scan up front; newly inserted patients are added to
	// the set so later sources dedup against them too.
	seen, err := store.HospitalIDs()
	if err != nil {
		return nil, fmt.Errorf("reading destination hospital IDs: %w", err)
	}

	log.Info("import run starting",
		"run_id", result.RunID, "sources", len(paths), "dry_run", opts.DryRun)

	for _, path := range paths {
		sr := importSource(store, path, seen, opts, log)
		result.Sources = append(result.Sources, sr)
	}

	t := result.Totals()
	log.Info("import run finished",
		"run_id", result.RunID,
		"patients", t.Patients,
		"duplicates", t.DuplicatePatients,
		"skipped", t.SkippedPatients,
		"row_errors", t.RowErrors)
	return result, nil
}

// importSource copies one file. The seen set is shared across sources and
// mutated as patients land.
func importSource(store *sqlite.Store, path string, seen map[string]bool, opts Options, log *slog.Logger) SourceResult {
	sr := SourceResult{Path: path}

	src, err := sqlite.OpenSource(path)
	if err != nil {
		log.Error("cannot open source", "path", path, "error", err)
		sr.Err = err
		return sr
	}
	defer src.Close()

	for _, kind := range types.DependentKinds {
		n, err := src.CountOrphans(kind)
		if err != nil {
			log.Warn("cannot count orphans", "path", path, "table", kind.Table(), "error", err)
			continue
		}
		sr.Orphans += int(n)
	}

	patients, err := src.Patients()
	if err != nil {
		log.Error("cannot read source patients", "path", path, "error", err)
		sr.Err = err
		return sr
	}

	// Source patient ID -> destination patient ID, for the patients copied
	// from this file.
	idMap := make(map[int64]int64)

	for _, p := range patients {
		if p.HospitalID == "" {
			sr.SkippedPatients++
			continue
		}
		if seen[p.HospitalID] {
			sr.DuplicatePatients++
			continue
		}

		srcID := p.PatientID
		if opts.DryRun {
			idMap[srcID] = 0
			seen[p.HospitalID] = true
			sr.Patients++
			continue
		}

		p.PatientID = 0
		destID, err := store.InsertPatient(p)
		if err != nil {
			log.Warn("patient insert failed",
				"path", path, "hospital_id", p.HospitalID, "error", err)
			sr.SkippedPatients++
			continue
		}
		idMap[srcID] = destID
		seen[p.HospitalID] = true
		sr.Patients++
	}

	if len(idMap) == 0 {
		log.Info("no new patients in source", "path", path)
		return sr
	}

	for srcID, destID := range idMap {
		sr.Surgeries += copySurgeries(store, src, srcID, destID, opts, log, &sr)
		sr.Pathologies += copyPathologies(store, src, srcID, destID, opts, log, &sr)
		sr.Molecular += copyMolecular(store, src, srcID, destID, opts, log, &sr)
		sr.FollowUpEvents += copyFollowUps(store, src, srcID, destID, opts, log, &sr)
	}
	return sr
}

func copySurgeries(store *sqlite.Store, src *sqlite.Source, srcID, destID int64, opts Options, log *slog.Logger, sr *SourceResult) int {
	rows, err := src.SurgeriesFor(srcID)
	if err != nil {
		log.Warn("cannot read source surgeries", "path", src.Path(), "error", err)
		sr.RowErrors++
		return 0
	}
	copied := 0
	for _, v := range rows {
		if opts.DryRun {
			copied++
			continue
		}
		v.SurgeryID = 0
		if _, err := store.InsertSurgery(destID, v); err != nil {
			log.Warn("surgery insert failed",
				"path", src.Path(), "dest_patient", destID, "error", err)
			sr.RowErrors++
			continue
		}
		copied++
	}
	return copied
}

func copyPathologies(store *sqlite.Store, src *sqlite.Source, srcID, destID int64, opts Options, log *slog.Logger, sr *SourceResult) int {
	rows, err := src.PathologiesFor(srcID)
	if err != nil {
		log.Warn("cannot read source pathology", "path", src.Path(), "error", err)
		sr.RowErrors++
		return 0
	}
	copied := 0
	for _, v := range rows {
		if opts.DryRun {
			copied++
			continue
		}
		v.PathID = 0
		if _, err := store.InsertPathology(destID, v); err != nil {
			log.Warn("pathology insert failed",
				"path", src.Path(), "dest_patient", destID, "error", err)
			sr.RowErrors++
			continue
		}
		copied++
	}
	return copied
}

func copyMolecular(store *sqlite.Store, src *sqlite.Source, srcID, destID int64, opts Options, log *slog.Logger, sr *SourceResult) int {
	rows, err := src.MolecularFor(srcID)
	if err != nil {
		log.Warn("cannot read source molecular", "path", src.Path(), "error", err)
		sr.RowErrors++
		return 0
	}
	copied := 0
	for _, v := range rows {
		if opts.DryRun {
			copied++
			continue
		}
		v.MolID = 0
		if _, err := store.InsertMolecular(destID, v); err != nil {
			log.Warn("molecular insert failed",
				"path", src.Path(), "dest_patient", destID, "error", err)
			sr.RowErrors++
			continue
		}
		copied++
	}
	return copied
}

func copyFollowUps(store *sqlite.Store, src *sqlite.Source, srcID, destID int64, opts Options, log *slog.Logger, sr *SourceResult) int {
	rows, err := src.FollowUpEventsFor(srcID)
	if err != nil {
		log.Warn("cannot read source follow-up events", "path", src.Path(), "error", err)
		sr.RowErrors++
		return 0
	}
	copied := 0
	for _, v := range rows {
		if opts.DryRun {
			copied++
			continue
		}
		// The event code travels with the event; the store regenerates it
		// only if it collides within the destination patient.
		v.EventID = 0
		if _, err := store.InsertFollowUpEvent(destID, v); err != nil {
			log.Warn("follow-up insert failed",
				"path", src.Path(), "dest_patient", destID, "error", err)
			sr.RowErrors++
			continue
		}
		copied++
	}
	return copied
}
