// Package handler exposes the HTTP API. Handlers translate requests into
// service calls and map domain errors to status codes; user-facing error
// messages are in Spanish.
package handler

import (
	"errors"
	"net/http"

	"github.com/abogadosonline/aoe-api/internal/audit"
	"github.com/abogadosonline/aoe-api/internal/auth"
	"github.com/abogadosonline/aoe-api/internal/bot"
	"github.com/abogadosonline/aoe-api/internal/document"
	"github.com/abogadosonline/aoe-api/internal/middleware"
	"github.com/abogadosonline/aoe-api/internal/notify"
	"github.com/abogadosonline/aoe-api/internal/payment"
	"github.com/abogadosonline/aoe-api/internal/repository"
	"github.com/abogadosonline/aoe-api/internal/validation"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Deps are the services the handlers call
type Deps struct {
	Repos    *repository.Repositories
	Auth     *auth.Service
	Payments *payment.Service
	Docs     *document.Generator
	Bot      *bot.Service
	Mailer   notify.Mailer
	N8N      *notify.N8N
	Audit    *audit.Recorder
	Validate *validation.Validator

	// AppURL is the public site, used for redirects back to the frontend
	AppURL string
	// ContactTo receives contact form notifications
	ContactTo string
	// Production turns on webhook secret checks
	Production bool
	// WebhookSecrets are accepted on the PayPhone webhook
	WebhookSecrets []string
	// N8NSecret guards the n8n callback webhook
	N8NSecret string
}

// Handler serves every API route
type Handler struct {
	Deps
}

func New(d Deps) *Handler {
	if d.Validate == nil {
		d.Validate = validation.New()
	}
	return &Handler{Deps: d}
}

// errInvalidRequest is the generic answer to an undecodable body
var errInvalidRequest = echo.Map{"error": "Solicitud inválida"}

// bindAndValidate decodes the body into req and runs its validation rules.
// On failure the error response has already been written and the returned
// error is the one the handler should return.
func (h *Handler) bindAndValidate(c echo.Context, req interface{}) (bool, error) {
	if err := c.Bind(req); err != nil {
		return false, c.JSON(http.StatusBadRequest, errInvalidRequest)
	}
	if err := h.Validate.Validate(req); err != nil {
		return false, validationError(c, err)
	}
	return true, nil
}

// validationError answers 400 with the per-field messages when err carries them
func validationError(c echo.Context, err error) error {
	var fields validation.Errors
	if errors.As(err, &fields) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Datos inválidos", "details": fields})
	}
	return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
}

// withAudit attaches the caller's address, agent and user to the request
// context so audit entries written downstream can record them
func withAudit(c echo.Context) {
	var userID *string
	if id := middleware.UserID(c); id != "" {
		userID = &id
	}
	r := c.Request()
	ctx := audit.WithRequest(r.Context(), c.RealIP(), r.UserAgent(), userID)
	c.SetRequest(r.WithContext(ctx))
}

func internalError(c echo.Context, log *zap.Logger, msg string, err error) error {
	log.Error(msg, zap.Error(err))
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Error interno del servidor"})
}
