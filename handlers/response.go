// handlers/response.go
package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"tote-sponsor-system/apperrors"
	"tote-sponsor-system/logger"
)

// Envelope is the shape of every JSON response.
type Envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorBody  `json:"error,omitempty"`
}

type ErrorBody struct {
	Type    string `json:"type"`
	Details string `json:"details,omitempty"`
}

func respond(c *fiber.Ctx, status int, message string, data interface{}) error {
	return c.Status(status).JSON(Envelope{Success: true, Message: message, Data: data})
}

// ErrorHandler renders every error returned by a handler or middleware as an
// envelope. Details are only included when showDetails is set.
func ErrorHandler(showDetails bool) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		if appErr := apperrors.GetAppError(err); appErr != nil {
			if appErr.Code >= fiber.StatusInternalServerError {
				logger.Error("request failed", "method", c.Method(), "path", c.Path(), "error", err)
			}
			body := &ErrorBody{Type: string(appErr.Type)}
			if showDetails {
				body.Details = appErr.Details
			}
			return c.Status(appErr.Code).JSON(Envelope{Message: appErr.Message, Error: body})
		}

		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(Envelope{Message: fe.Message, Error: &ErrorBody{Type: "http_error"}})
		}

		logger.Error("unhandled error", "method", c.Method(), "path", c.Path(), "error", err)
		body := &ErrorBody{Type: string(apperrors.ErrorTypeInternal)}
		if showDetails {
			body.Details = err.Error()
		}
		return c.Status(fiber.StatusInternalServerError).JSON(Envelope{Message: "internal server error", Error: body})
	}
}
