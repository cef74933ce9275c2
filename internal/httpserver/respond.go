package httpserver

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/tesotunes/storefront/internal/service"
	"github.com/tesotunes/storefront/internal/transport"
	middleware "github.com/tesotunes/storefront/pkg/middleware/auth"
)

var (
	errBadBody      = errors.New("invalid body")
	errBadID        = errors.New("invalid id")
	errUnauthorized = errors.New("unauthorized")
)

func ok(c echo.Context, status int, message string, data any) error {
	return c.JSON(status, transport.Response{Success: true, Message: message, Data: data})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadBody), errors.Is(err, errBadID):
		return http.StatusBadRequest
	case errors.Is(err, errUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInsufficientStock),
		errors.Is(err, service.ErrBusinessRule),
		errors.Is(err, service.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, service.ErrGateway):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// fail logs err under event and answers with the error envelope. Internal
// errors are not echoed to the client.
func fail(c echo.Context, l *slog.Logger, event string, err error) error {
	status := statusFor(err)
	msg := err.Error()
	switch {
	case status == http.StatusInternalServerError:
		l.Error(event, "status", status, "error", err)
		msg = "internal error"
	case status >= 500:
		l.Error(event, "status", status, "error", err)
	default:
		l.Warn(event, "status", status, "error", err)
	}
	return c.JSON(status, transport.Response{Success: false, Message: msg})
}

// bind decodes and validates a request body.
func bind(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return fmt.Errorf("%w: %v", errBadBody, err)
	}
	return c.Validate(req)
}

func pathID(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %s is not a uuid", errBadID, name)
	}
	return id, nil
}

func actorFrom(c echo.Context) (service.Actor, error) {
	s, _ := c.Get(middleware.ContextUserID).(string)
	id, err := uuid.Parse(s)
	if err != nil {
		return service.Actor{}, errUnauthorized
	}
	role, _ := c.Get(middleware.ContextRole).(string)
	return service.Actor{ID: id, Role: role}, nil
}

// ErrorHandler renders echo's own errors (auth middleware, unknown routes)
// in the same envelope as handler errors.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	status := http.StatusInternalServerError
	msg := "internal error"
	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		msg = fmt.Sprint(he.Message)
	}
	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(status)
		return
	}
	_ = c.JSON(status, transport.Response{Success: false, Message: msg})
}
