// internal/engagement/generator/classify.go
package generator

import (
	"errors"

	apperrors "engagement-letters/internal/common/errors"
	"engagement-letters/internal/common/metrics"
	"engagement-letters/internal/engagement/persistence"
	"engagement-letters/internal/engagement/templates"
)

// Classify maps a generation error onto the shared error codes.
func Classify(err error) *apperrors.StandardError {
	if err == nil {
		return nil
	}

	var std *apperrors.StandardError
	if errors.As(err, &std) {
		return std
	}

	var notFound *templates.NotFoundError
	if errors.As(err, &notFound) {
		e := apperrors.NewTemplateNotFoundError(notFound.Path, notFound.Available)
		e.Cause = err
		return e
	}

	var verr *persistence.ValidationError
	if errors.As(err, &verr) {
		e := apperrors.NewRecordValidationFailedError(verr.Error())
		e.Cause = err
		return e
	}

	var perr *persistence.Error
	if errors.As(err, &perr) {
		return apperrors.NewPersistenceError(perr.Path, perr.Err)
	}

	var gerr *Error
	if errors.As(err, &gerr) {
		if gerr.Stage == metrics.StageWrite {
			return apperrors.NewDocumentWriteFailedError(gerr.LoanName, err)
		}
	}

	return apperrors.NewInternalError(err)
}
