package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) and services translate them into domain errors or no-ops.
//
// - ErrNotFound: no record with the requested id
// - ErrConflict: a record already occupies the requested slot
// - ErrInvalidState: record is in the wrong state for the requested transition
// - ErrUnavailable: an external collaborator could not be reached
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)
