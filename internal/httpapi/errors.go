package httpapi

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/ngmaloney/routewatch/internal/apperr"
)

// APIError is a structured error response.
type APIError struct {
	Status    int    `json:"status"`
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// newError builds a JSON error response with a request ID.
func newError(c *fiber.Ctx, status int, code, message string) error {
	reqID, _ := c.Locals("requestid").(string)
	return c.Status(status).JSON(APIError{
		Status:    status,
		Code:      code,
		Message:   message,
		RequestID: reqID,
	})
}

func errBadRequest(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusBadRequest, "bad_request", msg)
}

func errNotFound(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusNotFound, "not_found", msg)
}

// errFrom maps a service error onto a status and code.
func errFrom(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, apperr.ErrUnresolvableInput):
		return newError(c, fiber.StatusUnprocessableEntity, "unresolvable_input", err.Error())
	case errors.Is(err, apperr.ErrNotFound):
		return errNotFound(c, err.Error())
	case errors.Is(err, apperr.ErrNoDataAvailable):
		return newError(c, fiber.StatusNotFound, "no_data", err.Error())
	case errors.Is(err, apperr.ErrConfiguration):
		return newError(c, fiber.StatusServiceUnavailable, "not_configured", err.Error())
	case errors.Is(err, apperr.ErrProviderUnavailable):
		return newError(c, fiber.StatusBadGateway, "provider_unavailable", err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return newError(c, fiber.StatusGatewayTimeout, "timeout", "request timed out")
	default:
		return newError(c, fiber.StatusInternalServerError, "internal_error", err.Error())
	}
}
