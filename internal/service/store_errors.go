package service

import (
	"errors"

	"github.com/noah-isme/roster-booking-api/pkg/database"
	appErrors "github.com/noah-isme/roster-booking-api/pkg/errors"
)

// storeError converts a repository failure into a typed error. Typed errors pass through untouched so
// decisions taken inside a transaction callback survive the rollback.
func storeError(err error, message string) error {
	if err == nil {
		return nil
	}
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	switch database.Classify(err) {
	case database.KindTransient:
		return appErrors.WrapAs(appErrors.ErrTransient, err, "")
	case database.KindIntegrity:
		return appErrors.WrapAs(appErrors.ErrIntegrity, err, "")
	case database.KindUnique:
		return appErrors.WrapAs(appErrors.ErrConflict, err, message)
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}

func validationError(err error, message string) error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
}
