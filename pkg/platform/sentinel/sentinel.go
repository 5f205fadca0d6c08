// Package sentinel defines the errors stores report about record state.
// Services translate these into domain errors; handlers never see them.
package sentinel

import "errors"

var (
	// ErrNotFound means the record does not exist in the store.
	ErrNotFound = errors.New("not found")
	// ErrConflict means a record already occupies the identity being created.
	ErrConflict = errors.New("conflict")
)
