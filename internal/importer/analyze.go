package importer

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fatih/color"

	"github.com/meridian-health/thorax/internal/sqlite"
)

// PatientRef identifies a source patient in an analysis report.
type PatientRef struct {
	HospitalID string
	CancerType string
	Sex        string
	Source     string // source file base name
}

// DuplicatePair records one hospital ID appearing in two source files.
type DuplicatePair struct {
	First, Second PatientRef
}

// Analysis previews an import run without touching the destination.
type Analysis struct {
	SourceFiles   []string // readable sources, base names
	FailedSources []string

	TotalPatients   int
	NewPatients     []PatientRef
	DuplicateLocal  []PatientRef    // already in the destination, will be skipped
	DuplicateAcross []DuplicatePair // same hospital ID in several sources

	// Estimated dependent rows attached to the new patients.
	EstSurgeries   int
	EstPathologies int
	EstMolecular   int
	EstFollowUps   int
}

// Analyze inspects the source files against the destination store and
// classifies every source patient as new, duplicate-of-local, or
// duplicate-across-sources. Unreadable sources are listed in
// FailedSources and otherwise ignored.
func Analyze(store *sqlite.Store, paths []string) (*Analysis, error) {
	local, err := store.HospitalIDs()
	if err != nil {
		return nil, fmt.Errorf("reading destination hospital IDs: %w", err)
	}

	a := &Analysis{}
	// Hospital IDs claimed by an earlier source during this analysis.
	claimed := make(map[string]PatientRef)

	for _, path := range paths {
		src, err := sqlite.OpenSource(path)
		if err != nil {
			a.FailedSources = append(a.FailedSources, path)
			continue
		}

		patients, err := src.Patients()
		if err != nil {
			src.Close()
			a.FailedSources = append(a.FailedSources, path)
			continue
		}
		a.SourceFiles = append(a.SourceFiles, filepath.Base(path))

		newSrcIDs := make([]int64, 0, len(patients))
		for _, p := range patients {
			if p.HospitalID == "" {
				continue
			}
			a.TotalPatients++
			ref := PatientRef{
				HospitalID: p.HospitalID,
				CancerType: p.CancerType,
				Sex:        p.Sex,
				Source:     filepath.Base(path),
			}

			if first, ok := claimed[p.HospitalID]; ok {
				a.DuplicateAcross = append(a.DuplicateAcross, DuplicatePair{First: first, Second: ref})
				continue
			}
			claimed[p.HospitalID] = ref

			if local[p.HospitalID] {
				a.DuplicateLocal = append(a.DuplicateLocal, ref)
				continue
			}
			a.NewPatients = append(a.NewPatients, ref)
			newSrcIDs = append(newSrcIDs, p.PatientID)
		}

		for _, srcID := range newSrcIDs {
			if rows, err := src.SurgeriesFor(srcID); err == nil {
				a.EstSurgeries += len(rows)
			}
			if rows, err := src.PathologiesFor(srcID); err == nil {
				a.EstPathologies += len(rows)
			}
			if rows, err := src.MolecularFor(srcID); err == nil {
				a.EstMolecular += len(rows)
			}
			if rows, err := src.FollowUpEventsFor(srcID); err == nil {
				a.EstFollowUps += len(rows)
			}
		}
		src.Close()
	}
	return a, nil
}

// Report renders the analysis for the terminal.
func (a *Analysis) Report() string {
	green := color.New(color.FgGreen).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()

	var b strings.Builder
	rule := strings.Repeat("=", 60)

	fmt.Fprintln(&b, rule)
	fmt.Fprintln(&b, "Import preview")
	fmt.Fprintln(&b, rule)
	fmt.Fprintf(&b, "Source files: %d\n", len(a.SourceFiles))
	for i, name := range a.SourceFiles {
		fmt.Fprintf(&b, "  %d. %s\n", i+1, name)
	}
	for _, path := range a.FailedSources {
		fmt.Fprintf(&b, "  %s %s\n", red("unreadable:"), path)
	}
	fmt.Fprintln(&b)

	fmt.Fprintf(&b, "Patients in sources:     %d\n", a.TotalPatients)
	fmt.Fprintf(&b, "New patients to import:  %s\n", green(len(a.NewPatients)))
	fmt.Fprintf(&b, "Already in local store:  %s\n", yellow(len(a.DuplicateLocal)))
	fmt.Fprintf(&b, "Duplicated across files: %s\n", yellow(len(a.DuplicateAcross)))
	fmt.Fprintln(&b)

	if len(a.NewPatients) > 0 {
		fmt.Fprintln(&b, "Estimated related records:")
		fmt.Fprintf(&b, "  surgeries:        %d\n", a.EstSurgeries)
		fmt.Fprintf(&b, "  pathology:        %d\n", a.EstPathologies)
		fmt.Fprintf(&b, "  molecular:        %d\n", a.EstMolecular)
		fmt.Fprintf(&b, "  follow-up events: %d\n", a.EstFollowUps)
		fmt.Fprintln(&b)
	}

	listRefs(&b, "Skipped (already in local store):", a.DuplicateLocal)
	if len(a.DuplicateAcross) > 0 {
		fmt.Fprintln(&b, "Duplicated across source files (first occurrence wins):")
		for i, pair := range a.DuplicateAcross {
			if i == 10 {
				fmt.Fprintf(&b, "  ... and %d more\n", len(a.DuplicateAcross)-10)
				break
			}
			fmt.Fprintf(&b, "  %d. %s in %s and %s\n",
				i+1, pair.First.HospitalID, pair.First.Source, pair.Second.Source)
		}
		fmt.Fprintln(&b)
	}

	fmt.Fprintln(&b, rule)
	if len(a.NewPatients) > 0 {
		fmt.Fprintf(&b, "%s %d new patients ready to import\n", green("OK:"), len(a.NewPatients))
	} else {
		fmt.Fprintf(&b, "%s nothing to import, all patients already present\n", yellow("--"))
	}
	fmt.Fprintln(&b, rule)
	return b.String()
}

func listRefs(b *strings.Builder, header string, refs []PatientRef) {
	if len(refs) == 0 {
		return
	}
	fmt.Fprintln(b, header)
	for i, ref := range refs {
		if i == 10 {
			fmt.Fprintf(b, "  ... and %d more\n", len(refs)-10)
			break
		}
		cancer := ref.CancerType
		if cancer == "" {
			cancer = "unknown"
		}
		fmt.Fprintf(b, "  %d. %s (%s) from %s\n", i+1, ref.HospitalID, cancer, ref.Source)
	}
	fmt.Fprintln(b)
}

// ReportResult renders a finished import run for the terminal.
func ReportResult(r *Result) string {
	green := color.New(color.FgGreen).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()

	var b strings.Builder
	t := r.Totals()

	if r.DryRun {
		fmt.Fprintln(&b, yellow("Dry run, nothing was written."))
	}
	fmt.Fprintf(&b, "Run %s across %d source file(s)\n", r.RunID, len(r.Sources))
	fmt.Fprintf(&b, "  patients:         %s\n", green(t.Patients))
	fmt.Fprintf(&b, "  surgeries:        %d\n", t.Surgeries)
	fmt.Fprintf(&b, "  pathology:        %d\n", t.Pathologies)
	fmt.Fprintf(&b, "  molecular:        %d\n", t.Molecular)
	fmt.Fprintf(&b, "  follow-up events: %d\n", t.FollowUpEvents)
	if t.DuplicatePatients > 0 {
		fmt.Fprintf(&b, "  already present:  %s\n", yellow(t.DuplicatePatients))
	}
	if t.SkippedPatients > 0 {
		fmt.Fprintf(&b, "  skipped patients: %s\n", yellow(t.SkippedPatients))
	}
	if t.RowErrors > 0 {
		fmt.Fprintf(&b, "  row errors:       %s\n", red(t.RowErrors))
	}
	if t.Orphans > 0 {
		fmt.Fprintf(&b, "  orphaned rows not copied: %s\n", yellow(t.Orphans))
	}
	for _, path := range r.FailedSources() {
		fmt.Fprintf(&b, "  %s %s\n", red("failed source:"), path)
	}
	return b.String()
}
