// Shared helpers for thorax CLI commands.
package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/meridian-health/thorax/internal/sqlite"
	"github.com/meridian-health/thorax/pkg/types"
)

// validKindNames is a comma-separated list of dependent record kinds for
// error output.
var validKindNames = func() string {
	names := make([]string, len(types.DependentKinds))
	for i, k := range types.DependentKinds {
		names[i] = k.String()
	}
	return strings.Join(names, ", ")
}()

// openStore resolves the database path and opens the registry store. The
// caller must defer store.Close().
func openStore() (*sqlite.Store, error) {
	dbPath, err := resolveDBPath()
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}

	store, err := sqlite.Open(types.Config{DBPath: dbPath})
	if err != nil {
		return nil, fmt.Errorf("open registry: %w", err)
	}

	return store, nil
}

// parseID parses a decimal record ID from a command argument.
func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %q", types.ErrInvalidID, s)
	}
	return id, nil
}

// parseEntityJSON unmarshals JSON data into the entity struct for the kind
// and validates it. Field errors come back as one wrapped ErrValidation.
func parseEntityJSON(kind types.Kind, data []byte) (any, error) {
	var (
		entity any
		errs   []types.FieldError
	)

	switch kind {
	case types.KindPatient:
		var e types.Patient
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, fmt.Errorf("%w: %v", types.ErrInvalidData, err)
		}
		errs = e.Validate()
		entity = &e
	case types.KindSurgery:
		var e types.Surgery
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, fmt.Errorf("%w: %v", types.ErrInvalidData, err)
		}
		errs = e.Validate()
		entity = &e
	case types.KindPathology:
		var e types.Pathology
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, fmt.Errorf("%w: %v", types.ErrInvalidData, err)
		}
		errs = e.Validate()
		entity = &e
	case types.KindMolecular:
		var e types.Molecular
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, fmt.Errorf("%w: %v", types.ErrInvalidData, err)
		}
		errs = e.Validate()
		entity = &e
	case types.KindFollowUpEvent:
		var e types.FollowUpEvent
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, fmt.Errorf("%w: %v", types.ErrInvalidData, err)
		}
		errs = e.Validate()
		entity = &e
	default:
		return nil, fmt.Errorf("%w: %v", types.ErrUnknownKind, kind)
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("%w:\n%s", types.ErrValidation, types.FormatFieldErrors(errs))
	}
	return entity, nil
}

// printJSON writes an entity (or slice of entities) as indented JSON.
func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal entity: %w", err)
	}
	fmt.Println(string(out))
	return nil
}
