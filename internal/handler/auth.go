package handler

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/abogadosonline/aoe-api/internal/auth"
	"github.com/abogadosonline/aoe-api/internal/validation"
	"github.com/abogadosonline/aoe-api/pkg/logger"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// OAuth state cookie
const (
	stateCookie    = "aoe_oauth_state"
	stateCookieTTL = 10 * time.Minute
)

// authError maps auth failures to a status code
func authError(c echo.Context, log *zap.Logger, err error) error {
	var fields validation.Errors
	switch {
	case errors.As(err, &fields):
		return validationError(c, err)
	case errors.Is(err, auth.ErrInvalidCredentials):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": err.Error()})
	case errors.Is(err, auth.ErrEmailTaken):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.Is(err, auth.ErrPasswordMismatch),
		errors.Is(err, auth.ErrInvalidResetToken),
		errors.Is(err, auth.ErrGoogleAccount):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	default:
		return internalError(c, log, "Auth request failed", err)
	}
}

func (h *Handler) Register(c echo.Context) error {
	log := logger.FromContext(c)

	var req auth.RegisterInput
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errInvalidRequest)
	}
	sess, err := h.Auth.Register(c.Request().Context(), req)
	if err != nil {
		return authError(c, log, err)
	}
	return c.JSON(http.StatusCreated, sess)
}

func (h *Handler) Login(c echo.Context) error {
	log := logger.FromContext(c)

	var req auth.LoginInput
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errInvalidRequest)
	}
	sess, err := h.Auth.Login(c.Request().Context(), req)
	if err != nil {
		return authError(c, log, err)
	}
	return c.JSON(http.StatusOK, sess)
}

type forgotRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ForgotPassword always answers with the same message whether or not the
// email exists
func (h *Handler) ForgotPassword(c echo.Context) error {
	log := logger.FromContext(c)

	var req forgotRequest
	if ok, err := h.bindAndValidate(c, &req); !ok {
		return err
	}
	if err := h.Auth.ForgotPassword(c.Request().Context(), req.Email); err != nil {
		return internalError(c, log, "Password reset request failed", err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Si el email está registrado, recibirás un enlace para restablecer tu contraseña.",
	})
}

func (h *Handler) ResetPassword(c echo.Context) error {
	log := logger.FromContext(c)

	var req auth.ResetInput
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errInvalidRequest)
	}
	if err := h.Auth.ResetPassword(c.Request().Context(), req); err != nil {
		return authError(c, log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// GoogleLogin sends the browser to Google's consent page
func (h *Handler) GoogleLogin(c echo.Context) error {
	log := logger.FromContext(c)

	g := h.Auth.Google()
	if g == nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Inicio de sesión con Google no disponible"})
	}
	state, err := auth.NewState()
	if err != nil {
		return internalError(c, log, "Failed to create oauth state", err)
	}
	c.SetCookie(&http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/api/auth/google",
		MaxAge:   int(stateCookieTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.Production,
		SameSite: http.SameSiteLaxMode,
	})
	return c.Redirect(http.StatusTemporaryRedirect, g.AuthCodeURL(state))
}

// GoogleCallback completes the sign-in and hands the session token to the
// frontend in the URL fragment
func (h *Handler) GoogleCallback(c echo.Context) error {
	log := logger.FromContext(c)

	if h.Auth.Google() == nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Inicio de sesión con Google no disponible"})
	}
	c.SetCookie(&http.Cookie{Name: stateCookie, Path: "/api/auth/google", MaxAge: -1, HttpOnly: true})

	cookie, err := c.Cookie(stateCookie)
	state := c.QueryParam("state")
	if err != nil || state == "" || subtle.ConstantTimeCompare([]byte(cookie.Value), []byte(state)) != 1 {
		log.Warn("OAuth state mismatch")
		return c.Redirect(http.StatusFound, h.AppURL+"/login?error=oauth_state")
	}
	if e := c.QueryParam("error"); e != "" {
		return c.Redirect(http.StatusFound, h.AppURL+"/login?error="+url.QueryEscape(e))
	}

	sess, err := h.Auth.GoogleSignIn(c.Request().Context(), c.QueryParam("code"))
	if err != nil {
		log.Warn("Google sign-in failed", zap.Error(err))
		reason := "google"
		if errors.Is(err, auth.ErrEmailNotVerified) {
			reason = "email_not_verified"
		}
		return c.Redirect(http.StatusFound, h.AppURL+"/login?error="+reason)
	}
	return c.Redirect(http.StatusFound, h.AppURL+"/auth/callback#token="+url.QueryEscape(sess.Token))
}
