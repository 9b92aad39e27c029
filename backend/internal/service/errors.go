package service

import (
	stderrors "errors"

	"github.com/itchan-dev/eventboard/shared/errors"
)

// storageErr keeps client-facing errors as they are and wraps anything else
// as a StorageError.
func storageErr(msg string, err error) error {
	var e *errors.ErrorWithStatusCode
	if stderrors.As(err, &e) {
		return err
	}
	return errors.Storage(msg, err)
}
