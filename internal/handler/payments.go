package handler

import (
	"errors"
	"io"
	"net/http"
	"net/url"

	"github.com/abogadosonline/aoe-api/internal/payment"
	"github.com/abogadosonline/aoe-api/internal/payphone"
	"github.com/abogadosonline/aoe-api/internal/prometheus"
	"github.com/abogadosonline/aoe-api/internal/repository"
	"github.com/abogadosonline/aoe-api/internal/validation"
	"github.com/abogadosonline/aoe-api/pkg/logger"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type prepareRequest struct {
	ContractID    string `json:"contractId" validate:"required"`
	DeliveryEmail string `json:"deliveryEmail" validate:"omitempty,email"`
}

// PreparePayment creates the PayPhone button for a DRAFT contract
func (h *Handler) PreparePayment(c echo.Context) error {
	log := logger.FromContext(c)
	withAudit(c)

	var req prepareRequest
	if ok, err := h.bindAndValidate(c, &req); !ok {
		return err
	}

	checkout, err := h.Payments.Initiate(c.Request().Context(), req.ContractID, req.DeliveryEmail)
	var notPayable *payment.NotPayableError
	switch {
	case errors.Is(err, repository.ErrContractNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Contrato no encontrado"})
	case errors.As(err, &notPayable):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": notPayable.Error()})
	case err != nil:
		log.Error("Payment prepare failed", zap.String("contract_id", req.ContractID), zap.Error(err))
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "No se pudo iniciar el pago. Intenta nuevamente."})
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": checkout})
}

// PaymentStatus is polled by the payment page until the document exists
func (h *Handler) PaymentStatus(c echo.Context) error {
	log := logger.FromContext(c)
	withAudit(c)

	contractID := c.QueryParam("contractId")
	if contractID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Missing contractId"})
	}
	res, err := h.Payments.Poll(c.Request().Context(), contractID)
	if errors.Is(err, repository.ErrContractNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Contract not found"})
	}
	if err != nil {
		return internalError(c, log, "Payment status failed", err)
	}
	return c.JSON(http.StatusOK, res)
}

// PaymentCallback is where PayPhone sends the buyer back. The buyer always
// ends on a frontend page: the success page, or the error page with a
// reason.
func (h *Handler) PaymentCallback(c echo.Context) error {
	log := logger.FromContext(c)
	withAudit(c)

	path, err := h.Payments.Callback(c.Request().Context(), c.QueryParam("id"), c.QueryParam("clientTransactionId"))
	if err != nil {
		log.Warn("Payment callback failed", zap.Error(err))
		reason := "error"
		switch {
		case errors.Is(err, payment.ErrInvalidCallback):
			reason = "invalid"
		case errors.Is(err, repository.ErrContractNotFound):
			reason = "not_found"
		case errors.Is(err, payment.ErrNotApproved):
			reason = "rejected"
		}
		return c.Redirect(http.StatusFound, h.AppURL+"/contratos/pago/error?reason="+url.QueryEscape(reason))
	}
	return c.Redirect(http.StatusFound, h.AppURL+path)
}

// PayPhoneWebhook applies a payment notification relayed by PayPhone or
// n8n. In production the caller must present one of the configured secrets.
func (h *Handler) PayPhoneWebhook(c echo.Context) error {
	log := logger.FromContext(c)
	withAudit(c)

	auth := payphone.AuthorizeWebhook(h.Production, h.WebhookSecrets, payphone.IncomingSecret(c.Request()))
	prometheus.RecordWebhook("payphone", string(auth.Reason))
	if !auth.OK {
		log.Warn("Webhook rejected", zap.String("reason", string(auth.Reason)))
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Unauthorized", "reason": auth.Reason})
	}

	body, err := io.ReadAll(io.LimitReader(c.Request().Body, 1<<20))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid payload"})
	}
	payload, err := payphone.ParseWebhook(body)
	if err != nil {
		log.Warn("Invalid webhook payload", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid payload"})
	}
	if err := h.Validate.Validate(payload); err != nil {
		log.Warn("Incomplete webhook payload", zap.Error(err))
		var fields validation.Errors
		errors.As(err, &fields)
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid payload", "details": fields})
	}

	res, err := h.Payments.HandleWebhook(c.Request().Context(), payload)
	if errors.Is(err, repository.ErrContractNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Contract not found"})
	}
	if err != nil {
		return internalError(c, log, "Webhook processing failed", err)
	}
	return c.JSON(http.StatusOK, res)
}
