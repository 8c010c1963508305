package record

import "errors"

// Row-level data errors. Offending rows are dropped with a logged warning;
// ingestion continues.
var (
	ErrMissingIdentity = errors.New("row has no user identity")
	ErrMissingState    = errors.New("row has no state label")
	ErrBadTimestamp    = errors.New("row timestamp is unparsable")
)
