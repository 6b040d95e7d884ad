package handler

import (
	"crypto/subtle"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/abogadosonline/aoe-api/internal/document"
	"github.com/abogadosonline/aoe-api/internal/model"
	"github.com/abogadosonline/aoe-api/internal/notify"
	"github.com/abogadosonline/aoe-api/internal/payphone"
	"github.com/abogadosonline/aoe-api/internal/prometheus"
	"github.com/abogadosonline/aoe-api/pkg/logger"
	"github.com/labstack/echo/v4"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

type leadRequest struct {
	Email          string          `json:"email" validate:"required,email"`
	Name           string          `json:"name" validate:"max=120"`
	Phone          string          `json:"phone" validate:"max=30"`
	Source         string          `json:"source" validate:"required,max=40"`
	CalculatorType string          `json:"calculatorType" validate:"max=40"`
	Data           json.RawMessage `json:"data"`
	Metadata       json.RawMessage `json:"metadata"`
}

// saveLead stores l and pushes it to the lead-capture workflow
func (h *Handler) saveLead(c echo.Context, l *model.Lead, metadata map[string]interface{}) error {
	if err := h.Repos.Leads.Create(c.Request().Context(), l); err != nil {
		return err
	}
	prometheus.RecordLead(l.Source)
	if h.N8N != nil {
		h.N8N.NotifyLead(notify.LeadEvent{
			Email:    l.Email,
			Name:     notify.StrPtr(l.Name),
			Phone:    notify.StrPtr(l.Phone),
			Source:   l.Source,
			Interes:  notify.StrPtr(l.CalculatorType),
			Metadata: metadata,
		})
	}
	return nil
}

// CreateLead stores a lead from a calculator or landing page form
func (h *Handler) CreateLead(c echo.Context) error {
	log := logger.FromContext(c)

	var req leadRequest
	if ok, err := h.bindAndValidate(c, &req); !ok {
		return err
	}
	l := &model.Lead{
		Email:          strings.ToLower(strings.TrimSpace(req.Email)),
		Name:           strings.TrimSpace(req.Name),
		Phone:          strings.TrimSpace(req.Phone),
		Source:         req.Source,
		CalculatorType: req.CalculatorType,
	}
	if gjson.ValidBytes(req.Data) {
		l.Data = datatypes.JSON(req.Data)
	}
	var metadata map[string]interface{}
	if gjson.ValidBytes(req.Metadata) && gjson.ParseBytes(req.Metadata).IsObject() {
		l.Metadata = datatypes.JSON(req.Metadata)
		_ = json.Unmarshal(req.Metadata, &metadata)
	}

	if err := h.saveLead(c, l, metadata); err != nil {
		return internalError(c, log, "Failed to store lead", err)
	}
	log.Info("Lead captured", zap.String("lead_id", l.ID), zap.String("source", l.Source))
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "id": l.ID})
}

type contactRequest struct {
	Nombre   string `json:"nombre" validate:"required,min=3,max=120"`
	Email    string `json:"email" validate:"required,email"`
	Telefono string `json:"telefono" validate:"max=30"`
	Asunto   string `json:"asunto" validate:"required,min=5,max=200"`
	Mensaje  string `json:"mensaje" validate:"required,min=10,max=5000"`
}

// Contact stores a contact form as a lead and forwards it to the office
func (h *Handler) Contact(c echo.Context) error {
	log := logger.FromContext(c)

	var req contactRequest
	if ok, err := h.bindAndValidate(c, &req); !ok {
		return err
	}
	data, _ := json.Marshal(map[string]string{"asunto": req.Asunto, "mensaje": req.Mensaje})
	l := &model.Lead{
		Email:  strings.ToLower(strings.TrimSpace(req.Email)),
		Name:   strings.TrimSpace(req.Nombre),
		Phone:  strings.TrimSpace(req.Telefono),
		Source: model.LeadSourceContact,
		Data:   datatypes.JSON(data),
	}
	if err := h.saveLead(c, l, map[string]interface{}{"asunto": req.Asunto}); err != nil {
		return internalError(c, log, "Failed to store contact lead", err)
	}

	msg, err := notify.ContactNotification(h.ContactTo, notify.ContactEmail{
		Nombre:   l.Name,
		Email:    l.Email,
		Telefono: l.Phone,
		Asunto:   req.Asunto,
		Mensaje:  req.Mensaje,
	})
	if err == nil {
		_, err = h.Mailer.Send(c.Request().Context(), msg)
	}
	if err != nil {
		log.Warn("Failed to email contact form", zap.String("lead_id", l.ID), zap.Error(err))
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Mensaje enviado. Te responderemos pronto.",
	})
}

// SendPresupuesto emails the detailed deed quote and records the lead
func (h *Handler) SendPresupuesto(c echo.Context) error {
	log := logger.FromContext(c)

	var req document.Presupuesto
	if ok, err := h.bindAndValidate(c, &req); !ok {
		return err
	}
	if req.Total == 0 {
		req.Total = req.Desglose.Sum()
	}

	data, _ := json.Marshal(req)
	l := &model.Lead{
		Email:          strings.ToLower(strings.TrimSpace(req.ClientEmail)),
		Name:           strings.TrimSpace(req.ClientName),
		Source:         model.LeadSourceMagnet,
		CalculatorType: "inmobiliario",
		Data:           datatypes.JSON(data),
	}
	if err := h.saveLead(c, l, map[string]interface{}{"rol": req.Rol, "total": req.Total}); err != nil {
		log.Warn("Failed to store presupuesto lead", zap.Error(err))
	}

	emailID, err := h.Docs.SendPresupuesto(c.Request().Context(), &req)
	if err != nil {
		log.Error("Failed to send presupuesto", zap.Error(err))
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "No se pudo enviar el presupuesto. Intenta nuevamente."})
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "emailId": emailID})
}

// N8NWebhook receives callbacks from automation workflows. Only the shared
// secret is checked; the payload is logged for the workflow owner.
func (h *Handler) N8NWebhook(c echo.Context) error {
	log := logger.FromContext(c)

	secret := c.Request().Header.Get(payphone.WebhookSecretHeader)
	if h.N8NSecret == "" || subtle.ConstantTimeCompare([]byte(secret), []byte(h.N8NSecret)) != 1 {
		prometheus.RecordWebhook("n8n", "invalid_secret")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Unauthorized"})
	}

	body, err := io.ReadAll(io.LimitReader(c.Request().Body, 1<<20))
	if err != nil || !gjson.ValidBytes(body) {
		prometheus.RecordWebhook("n8n", "invalid_body")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request"})
	}
	prometheus.RecordWebhook("n8n", "authorized")
	log.Info("n8n webhook received", zap.ByteString("body", body))
	return c.JSON(http.StatusOK, echo.Map{"received": true})
}
