package http

import (
	"context"
	"errors"
	"runtime/debug"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/civicdesk/helpdesk/internal/api/dto"
	"github.com/civicdesk/helpdesk/internal/observability"
	apperrors "github.com/civicdesk/helpdesk/pkg/util/errorutil"
)

// RegisterMiddlewares attaches global middlewares such as error handling and logging.
// The request logger wraps error handling so it records the final status.
func RegisterMiddlewares(app *fiber.App, logger *zap.Logger, metrics *observability.Metrics, timeout time.Duration) {
	if timeout > 0 {
		app.Use(requestTimeoutMiddleware(timeout))
	}
	app.Use(observability.RequestLogger(logger, metrics))
	app.Use(errorHandlingMiddleware(logger, metrics))
}

// ErrorHandler renders errors raised outside the middleware chain, such as
// body limit violations, with the same envelope.
func ErrorHandler(logger *zap.Logger, metrics *observability.Metrics) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		return writeError(c, logger, metrics, err)
	}
}

func requestTimeoutMiddleware(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

func errorHandlingMiddleware(logger *zap.Logger, metrics *observability.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
				err = apperrors.NewInternalError(nil)
			}
			if err != nil {
				err = writeError(c, logger, metrics, err)
			}
		}()
		return c.Next()
	}
}

func writeError(c *fiber.Ctx, logger *zap.Logger, metrics *observability.Metrics, err error) error {
	domainErr := toDomainError(err)
	metrics.RecordError(routeOf(c), c.Method(), domainErr.Code)
	if domainErr.HTTPStatus >= fiber.StatusInternalServerError {
		logger.Error("request failed", zap.String("path", c.Path()), zap.Error(domainErr))
	}

	body := dto.ErrorEnvelope{
		Success: false,
		Message: domainErr.Message,
		Code:    domainErr.Code,
	}
	if len(domainErr.Details) > 0 {
		body.Details = domainErr.Details
	}
	return c.Status(statusFor(domainErr)).JSON(body)
}

// statusFor keeps semantic failures on 200 so clients branch on success.
func statusFor(err *apperrors.DomainError) int {
	switch err.Code {
	case apperrors.CodeValidation, apperrors.CodeConflict:
		return fiber.StatusOK
	default:
		return err.HTTPStatus
	}
}

func toDomainError(err error) *apperrors.DomainError {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		switch {
		case fiberErr.Code == fiber.StatusNotFound:
			return apperrors.NewDomainError(apperrors.CodeNotFound, "route not found", fiberErr.Code, nil)
		case fiberErr.Code == fiber.StatusUnauthorized:
			return apperrors.NewDomainError(apperrors.CodeUnauthorized, fiberErr.Message, fiberErr.Code, nil)
		case fiberErr.Code == fiber.StatusForbidden:
			return apperrors.NewDomainError(apperrors.CodeForbidden, fiberErr.Message, fiberErr.Code, nil)
		case fiberErr.Code < fiber.StatusInternalServerError:
			return apperrors.NewDomainError(apperrors.CodeValidation, fiberErr.Message, fiberErr.Code, nil)
		}
	}
	return apperrors.ToDomainError(err)
}

func routeOf(c *fiber.Ctx) string {
	if r := c.Route(); r != nil && r.Path != "" {
		return r.Path
	}
	return c.Path()
}
