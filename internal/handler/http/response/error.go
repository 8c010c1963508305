package response

import (
	"errors"
	"net/http"

	"github.com/Domornie/Lumina-Sheets-sub001/internal/domain/analytics"
	"github.com/Domornie/Lumina-Sheets-sub001/internal/domain/period"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, period.ErrPeriodRequired):
		BadRequest(w, "period is required")
	case errors.Is(err, period.ErrInvalidPeriod):
		BadRequest(w, err.Error())
	case errors.Is(err, analytics.ErrNoUsersSelected):
		BadRequest(w, err.Error())
	case errors.Is(err, analytics.ErrRequiredColumnsMissing):
		InternalServerError(w, "attendance dataset is missing required columns")
	default:
		InternalServerError(w, "An unexpected error occurred")
	}
}
