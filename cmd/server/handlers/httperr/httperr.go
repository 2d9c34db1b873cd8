package httperr

import (
	"errors"

	"skillmart/internal/logger"

	"github.com/gofiber/fiber/v2"
)

// E represents an HTTP error with status code and message
type E struct {
	Status  int    `json:"-" example:"400"`
	Message string `json:"error" example:"Bad Request"`
}

// Error implements the error interface
func (e E) Error() string {
	return e.Message
}

// JSON returns the error as JSON response
func (e E) JSON(c *fiber.Ctx) error {
	return c.Status(e.Status).JSON(e)
}

// Fail returns the error for Fiber's global error handler to process
func Fail(err E) error {
	return err
}

// InvalidInput wraps a validation error and returns the standard response.
func InvalidInput(err error) error {
	return Fail(E{
		Status:  fiber.StatusBadRequest,
		Message: "Invalid input: " + err.Error(),
	})
}

// BadRequest keeps err's message verbatim.
func BadRequest(err error) error {
	return Fail(E{Status: fiber.StatusBadRequest, Message: err.Error()})
}

func Unauthorized(err error) error {
	return Fail(E{Status: fiber.StatusUnauthorized, Message: err.Error()})
}

func Forbidden(err error) error {
	return Fail(E{Status: fiber.StatusForbidden, Message: err.Error()})
}

func NotFound(err error) error {
	return Fail(E{Status: fiber.StatusNotFound, Message: err.Error()})
}

// Conflict is reported as 400 so clients see the same status the API always used.
func Conflict(err error) error {
	return Fail(E{Status: fiber.StatusBadRequest, Message: err.Error()})
}

func ServiceUnavailable(err error) error {
	return Fail(E{Status: fiber.StatusServiceUnavailable, Message: err.Error()})
}

// InternalError returns an internal server error with the given message
func InternalError(message string) E {
	return E{Status: fiber.StatusInternalServerError, Message: message}
}

// Pre-defined HTTP errors
var (
	ErrBadRequest      = E{Status: 400, Message: "Bad Request"}
	ErrInvalidID       = E{Status: 400, Message: "Invalid ID"}
	ErrUnauthorized    = E{Status: 401, Message: "Unauthorized"}
	ErrPayloadTooLarge = E{Status: 413, Message: "Payload Too Large"}
	ErrTooManyRequests = E{Status: 429, Message: "Too Many Requests"}
	ErrInternal        = InternalError("Internal Server Error")
)

// Handler is the global error handler for Fiber
func Handler(c *fiber.Ctx, err error) error {
	var e E
	if errors.As(err, &e) {
		return e.JSON(c)
	}

	var fiberError *fiber.Error
	if errors.As(err, &fiberError) {
		return c.Status(fiberError.Code).JSON(E{
			Status:  fiberError.Code,
			Message: fiberError.Message,
		})
	}

	if log := logger.L(); log != nil {
		log.Error("unhandled error", "path", c.Path(), "method", c.Method(), "error", err)
	}
	return ErrInternal.JSON(c)
}
