package http

import (
	"context"
	"errors"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/clinic-admin/internal/api/http/views"
	"github.com/spec-kit/clinic-admin/internal/observability"
	apperrors "github.com/spec-kit/clinic-admin/pkg/util/errorutil"
)

// APIPrefix marks the JSON routes.
const APIPrefix = "/api/"

// RegisterMiddlewares attaches global middlewares such as error handling and logging.
func RegisterMiddlewares(app *fiber.App, logger *zap.Logger, metrics *observability.Metrics, timeout time.Duration) {
	app.Use(observability.RequestLogger(logger, metrics))
	app.Use(errorHandlingMiddleware(logger, metrics))
	if timeout > 0 {
		app.Use(requestTimeoutMiddleware(timeout))
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
				domainErr := toDomainError(err)
				metrics.RecordError(c.Path(), c.Method(), domainErr.Code)
				if domainErr.HTTPStatus >= 500 {
					logger.Error("request failed",
						zap.String("method", c.Method()),
						zap.String("path", c.Path()),
						zap.Error(domainErr),
					)
				}
				err = writeError(c, domainErr)
			}
		}()
		return c.Next()
	}
}

// toDomainError also understands the errors fiber raises itself.
func toDomainError(err error) *apperrors.DomainError {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return apperrors.NewDomainError(apperrors.CodeForStatus(fe.Code), fe.Message, fe.Code, nil)
	}
	return apperrors.ToDomainError(err)
}

// writeError answers JSON for API routes and an error page for everything else.
func writeError(c *fiber.Ctx, domainErr *apperrors.DomainError) error {
	if wantsJSON(c) {
		body := fiber.Map{
			"code":    domainErr.Code,
			"message": domainErr.Message,
		}
		if len(domainErr.Details) > 0 {
			body["details"] = domainErr.Details
		}
		return c.Status(domainErr.HTTPStatus).JSON(fiber.Map{"error": body})
	}

	name := "pages/error"
	if domainErr.HTTPStatus == http.StatusNotFound {
		name = "pages/not_found"
	}
	page := views.Page{Title: http.StatusText(domainErr.HTTPStatus), Path: c.Path(), Error: domainErr.Message}
	if renderErr := views.RenderPublic(c, domainErr.HTTPStatus, name, page); renderErr != nil {
		return c.Status(domainErr.HTTPStatus).SendString(domainErr.Message)
	}
	return nil
}

func wantsJSON(c *fiber.Ctx) bool {
	if strings.HasPrefix(c.Path(), APIPrefix) {
		return true
	}
	return c.Accepts(fiber.MIMETextHTML, fiber.MIMEApplicationJSON) == fiber.MIMEApplicationJSON
}
