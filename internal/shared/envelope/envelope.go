// Package envelope renders every HTTP outcome as the uniform
// {success, authorized, message, data} body.
package envelope

import (
	"errors"

	"backend-breathstats/internal/shared/apperr"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const (
	MsgSuccessfullyRequest     = "Request completed successfully."
	MsgGameTokenHeaderNotFound = "Game token header not found."
	MsgInvalidToken            = "Invalid game token."
	MsgInvalidRequest          = "Invalid request."
	MsgNotFound                = "Resource not found."
	MsgDefaultError            = "An unexpected error has happened."
)

// LocalInvocationID is the fiber locals key holding the per-request id.
const LocalInvocationID = "invocation_id"

type Response struct {
	Success    bool   `json:"success"`
	Authorized bool   `json:"authorized"`
	Message    string `json:"message"`
	Data       any    `json:"data"`
}

func OK(c *fiber.Ctx, data any) error {
	return c.Status(fiber.StatusOK).JSON(Response{
		Success:    true,
		Authorized: true,
		Message:    MsgSuccessfullyRequest,
		Data:       data,
	})
}

func Created(c *fiber.Ctx, data any) error {
	return c.Status(fiber.StatusCreated).JSON(Response{
		Success:    true,
		Authorized: true,
		Message:    MsgSuccessfullyRequest,
		Data:       data,
	})
}

// FromError maps err to a status code and a client-safe body. Causes wrapped
// inside upstream and internal errors never reach the body.
func FromError(err error) (int, Response) {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		switch appErr.Kind {
		case apperr.KindInvalidRequest:
			return fiber.StatusBadRequest, failure(false, appErr.Message, validationDetails(appErr))
		case apperr.KindUnauthorized:
			return fiber.StatusForbidden, failure(false, appErr.Message, nil)
		case apperr.KindNotFound:
			return fiber.StatusNotFound, failure(true, appErr.Message, nil)
		default:
			return fiber.StatusInternalServerError, failure(true, MsgDefaultError, nil)
		}
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) && fiberErr.Code < fiber.StatusInternalServerError {
		return fiberErr.Code, failure(false, fiberErr.Message, nil)
	}
	return fiber.StatusInternalServerError, failure(true, MsgDefaultError, nil)
}

// ErrorHandler is installed as fiber.Config.ErrorHandler.
func ErrorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status, body := FromError(err)
		if status >= fiber.StatusInternalServerError {
			logger.Error("request failed",
				zap.String("invocation_id", InvocationID(c)),
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.Error(err),
			)
		} else {
			logger.Info("request rejected",
				zap.String("invocation_id", InvocationID(c)),
				zap.Int("status", status),
				zap.String("reason", body.Message),
			)
		}
		return c.Status(status).JSON(body)
	}
}

func InvocationID(c *fiber.Ctx) string {
	id, _ := c.Locals(LocalInvocationID).(string)
	return id
}

func failure(authorized bool, msg string, data any) Response {
	return Response{Success: false, Authorized: authorized, Message: msg, Data: data}
}

// ValidationError lets invalid-request errors carry a field-path keyed map
// rendered as the envelope data.
type ValidationError interface {
	Fields() map[string][]string
}

func validationDetails(err error) any {
	var v ValidationError
	if errors.As(err, &v) {
		return v.Fields()
	}
	return nil
}
