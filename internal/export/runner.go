package export

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/meridian-health/thorax/internal/sqlite"
	"github.com/meridian-health/thorax/pkg/types"
)

// Exporter runs CSV exports against a database file. Table reads happen on
// worker goroutines with their own read-only connections, so a running
// export never blocks writes on the live store. Only one export runs at a
// time per Exporter.
type Exporter struct {
	dbPath  string
	running atomic.Bool
}

// New returns an Exporter for the database file at dbPath.
func New(dbPath string) *Exporter {
	return &Exporter{dbPath: dbPath}
}

// Progress receives completed and total table counts as the export runs.
// It is called from worker goroutines.
type Progress func(done, total int)

// All exports every table to dir as <Table>.csv using up to jobs parallel
// workers. Returns the files written.
func (e *Exporter) All(dir string, jobs int, progress Progress) ([]string, error) {
	if !e.running.CompareAndSwap(false, true) {
		return nil, types.ErrExportInFlight
	}
	defer e.running.Store(false)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating export directory: %w", err)
	}
	if jobs < 1 {
		jobs = 1
	}
	if jobs > len(types.Kinds) {
		jobs = len(types.Kinds)
	}

	hospByPatient, err := e.hospitalIDMap()
	if err != nil {
		return nil, err
	}

	kindCh := make(chan types.Kind, len(types.Kinds))
	for _, kind := range types.Kinds {
		kindCh <- kind
	}
	close(kindCh)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		files    []string
		firstErr error
		done     int
	)
	total := len(types.Kinds)

	for range jobs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			store, err := sqlite.OpenReadOnly(e.dbPath)
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				return
			}
			defer store.Close()

			for kind := range kindCh {
				path := filepath.Join(dir, kind.Table()+".csv")
				err := exportKind(store, kind, path, hospByPatient)
				mu.Lock()
				if err != nil && firstErr == nil {
					firstErr = err
				}
				if err == nil {
					files = append(files, path)
				}
				done++
				d := done
				mu.Unlock()
				if progress != nil {
					progress(d, total)
				}
			}
		}()
	}
	wg.Wait()

	if firstErr != nil {
		return files, firstErr
	}
	return files, nil
}

// Patient exports one patient's rows to dir as patient<ID>_<Table>.csv.
func (e *Exporter) Patient(patientID int64, dir string) ([]string, error) {
	if !e.running.CompareAndSwap(false, true) {
		return nil, types.ErrExportInFlight
	}
	defer e.running.Store(false)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating export directory: %w", err)
	}

	store, err := sqlite.OpenReadOnly(e.dbPath)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	p, err := store.GetPatient(patientID)
	if err != nil {
		return nil, err
	}
	hospByPatient := map[int64]string{patientID: p.HospitalID}

	var files []string
	prefix := fmt.Sprintf("patient%d_", patientID)
	for _, kind := range types.Kinds {
		entities, err := fetchForPatient(store, kind, patientID)
		if err != nil {
			return files, err
		}
		path := filepath.Join(dir, prefix+kind.Table()+".csv")
		if err := writeEntityFile(path, kind, entities, hospByPatient); err != nil {
			return files, err
		}
		files = append(files, path)
	}
	return files, nil
}

func exportKind(store *sqlite.Store, kind types.Kind, path string, hospByPatient map[int64]string) error {
	entities, err := fetchAll(store, kind)
	if err != nil {
		return err
	}
	return writeEntityFile(path, kind, entities, hospByPatient)
}

// hospitalIDMap reads the patient ID to hospital ID mapping once, before
// workers start.
func (e *Exporter) hospitalIDMap() (map[int64]string, error) {
	store, err := sqlite.OpenReadOnly(e.dbPath)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	patients, err := store.ListPatients()
	if err != nil {
		return nil, err
	}
	out := make(map[int64]string, len(patients))
	for _, p := range patients {
		out[p.PatientID] = p.HospitalID
	}
	return out, nil
}
