// Package types defines the entity records stored in a thoracic registry
// database, the closed enumeration of entity kinds, field-level validation,
// and the sentinel errors shared across the registry packages.
package types
