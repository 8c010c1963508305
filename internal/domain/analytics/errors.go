package analytics

import "errors"

var (
	// ErrRequiredColumnsMissing is a configuration error: the row store is
	// missing one of the timestamp/identity/state/duration columns. No
	// partial read is attempted.
	ErrRequiredColumnsMissing = errors.New("row store is missing required columns")

	ErrNoUsersSelected = errors.New("no users matched the selection")
)
