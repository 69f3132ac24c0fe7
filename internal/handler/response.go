package handler

import (
	"errors"

	"volt-inventory/internal/apperror"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const serverErrorMessage = "Server Error"

// ErrorHandler renders every error as {success:false, message}. Internal
// errors are logged and never shown to the caller.
func ErrorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var appErr *apperror.Error
		if errors.As(err, &appErr) && appErr.Kind != apperror.KindInternal {
			return fail(c, appErr.Kind.HTTPStatus(), appErr.Message)
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) && fiberErr.Code < fiber.StatusInternalServerError {
			return fail(c, fiberErr.Code, fiberErr.Message)
		}

		log.Error("request failed",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Error(err),
		)
		return fail(c, fiber.StatusInternalServerError, serverErrorMessage)
	}
}

func fail(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"message": message,
	})
}

// ok writes {success:true} merged with body.
func ok(c *fiber.Ctx, status int, body fiber.Map) error {
	out := fiber.Map{"success": true}
	for k, v := range body {
		out[k] = v
	}
	return c.Status(status).JSON(out)
}

// parseID reads a UUID route parameter. A malformed id cannot match any
// record, so it is reported as not found.
func parseID(c *fiber.Ctx, param, what string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(param))
	if err != nil {
		return uuid.Nil, apperror.NotFound(what + " not found")
	}
	return id, nil
}

func parseBody(c *fiber.Ctx, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		return apperror.Validation("invalid request body")
	}
	return nil
}
