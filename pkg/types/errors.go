package types

import "errors"

// Store errors returned by the sqlite layer.
var (
	ErrNotFound           = errors.New("record not found")
	ErrInvalidID          = errors.New("invalid record ID")
	ErrInvalidData        = errors.New("invalid record data")
	ErrUnknownKind        = errors.New("unknown entity kind")
	ErrStoreClosed        = errors.New("store is closed")
	ErrDuplicateHospital  = errors.New("hospital ID already exists")
	ErrValidation         = errors.New("validation failed")
	ErrEventCodeTaken     = errors.New("event code already used for this patient")
	ErrExportInFlight     = errors.New("an export is already running")
	ErrImportInFlight     = errors.New("an import is already running")
	ErrSourceUnreadable   = errors.New("source database unreadable")
	ErrMissingPatientLink = errors.New("record does not reference a patient")
)

// Config validation errors.
var (
	ErrDBPathEmpty = errors.New("database path must not be empty")
)
