package api

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandler renders every error that reaches fiber. API errors keep
// their code, validation errors become 422 and anything else is a 500
// carrying the error text.
func ErrorHandler(logger *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var valErr ValidationError
		if errors.As(err, &valErr) {
			return c.Status(valErr.Status).JSON(valErr)
		}

		var apiErr Error
		if !errors.As(err, &apiErr) {
			var fiberErr *fiber.Error
			if errors.As(err, &fiberErr) {
				apiErr = NewError(fiberErr.Code, fiberErr.Message)
			} else {
				apiErr = NewError(fiber.StatusInternalServerError, err.Error())
			}
		}

		logger.Error("request failed",
			"method", c.Method(),
			"path", c.Path(),
			"code", apiErr.Code,
			"detail", apiErr.Detail)
		return c.Status(apiErr.Code).JSON(apiErr)
	}
}

type Error struct {
	Code   int    `json:"-"`
	Detail string `json:"detail"`
}

type ValidationError struct {
	Status int               `json:"status"`
	Errors map[string]string `json:"errors"`
}

func (e ValidationError) Error() string {
	return "validation failed"
}

func NewValidationError(errors map[string]string) ValidationError {
	return ValidationError{
		Status: fiber.StatusUnprocessableEntity,
		Errors: errors,
	}
}

// Error implements the Error interface
func (e Error) Error() string {
	return e.Detail
}

func NewError(code int, detail string) Error {
	return Error{
		Code:   code,
		Detail: detail,
	}
}

func ErrBadRequest() Error {
	return Error{
		Code:   fiber.StatusBadRequest,
		Detail: "invalid JSON request",
	}
}
