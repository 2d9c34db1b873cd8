package handlerutil

import (
	"errors"

	"skillmart/cmd/server/handlers/httperr"
	"skillmart/internal/logger"
	"skillmart/internal/services/auth"
	"skillmart/internal/services/media"
	"skillmart/internal/services/users"
)

var (
	notFound = []error{users.ErrUserNotFound, users.ErrSectionNotFound, media.ErrNotFound}
	conflict = []error{users.ErrEmailTaken, users.ErrNameTaken}
	invalid  = []error{
		users.ErrInvalidName, users.ErrInvalidFee, users.ErrInvalidFeeRange, users.ErrSelfLike,
		auth.ErrInvalidOTP,
		media.ErrFilenameRequired, media.ErrUnsupportedType, media.ErrContentMismatch,
		media.ErrEmptyFile, media.ErrInvalidKey,
	}
)

func isAny(err error, targets []error) bool {
	for _, t := range targets {
		if errors.Is(err, t) {
			return true
		}
	}
	return false
}

// ServiceError translates a service error into the HTTP taxonomy. Anything it
// does not recognise is logged with fields and reported as a generic 500.
func ServiceError(err error, handlerName string, fields ...any) error {
	switch {
	case isAny(err, notFound):
		return httperr.NotFound(err)
	case isAny(err, conflict):
		return httperr.Conflict(err)
	case isAny(err, invalid):
		return httperr.BadRequest(err)
	case errors.Is(err, users.ErrForbidden):
		return httperr.Forbidden(err)
	case errors.Is(err, auth.ErrInvalidPassword):
		return httperr.Unauthorized(err)
	case errors.Is(err, media.ErrTooLarge):
		return httperr.Fail(httperr.E{Status: httperr.ErrPayloadTooLarge.Status, Message: err.Error()})
	case errors.Is(err, media.ErrStorageUnavailable):
		return httperr.ServiceUnavailable(err)
	}

	logger.L().Error("service operation failed", append([]any{"handler", handlerName, "error", err}, fields...)...)
	return httperr.Fail(httperr.ErrInternal)
}
