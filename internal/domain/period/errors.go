package period

import "errors"

var (
	ErrPeriodRequired = errors.New("period is required")
	ErrInvalidPeriod  = errors.New("invalid period identifier")
)
