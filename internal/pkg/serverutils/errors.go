package serverutils

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// AppError is an error with the HTTP status it should be reported as.
// Message is safe to show to clients; Err is only logged.
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

func NewBadRequestError(message string) *AppError {
	return NewAppError(fiber.StatusBadRequest, message, nil)
}

func NewNotFoundError(message string) *AppError {
	return NewAppError(fiber.StatusNotFound, message, nil)
}

func NewForbiddenError(message string) *AppError {
	return NewAppError(fiber.StatusForbidden, message, nil)
}

func NewConflictError(message string, err error) *AppError {
	return NewAppError(fiber.StatusConflict, message, err)
}

// ErrorHandler is the fiber error handler: AppError and fiber.Error keep their
// status, everything else is an opaque 500.
func ErrorHandler(ctx *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"

	var appErr *AppError
	var fiberErr *fiber.Error
	switch {
	case errors.As(err, &appErr):
		code = appErr.Code
		message = appErr.Message
	case errors.As(err, &fiberErr):
		code = fiberErr.Code
		message = fiberErr.Message
	}

	return ctx.Status(code).JSON(ErrorResponse(code, message))
}

// ErrorHandlerMiddleware turns handler errors into JSON responses before they
// reach the default handler
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		if err := ctx.Next(); err != nil {
			return ErrorHandler(ctx, err)
		}
		return nil
	}
}
