package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/abogadosonline/aoe-api/internal/audit"
	"github.com/abogadosonline/aoe-api/internal/document"
	"github.com/abogadosonline/aoe-api/internal/middleware"
	"github.com/abogadosonline/aoe-api/internal/model"
	"github.com/abogadosonline/aoe-api/internal/prometheus"
	"github.com/abogadosonline/aoe-api/internal/repository"
	"github.com/abogadosonline/aoe-api/internal/storage"
	"github.com/abogadosonline/aoe-api/pkg/logger"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

type contractRequest struct {
	Type          model.DocumentType `json:"type"`
	Data          json.RawMessage    `json:"data"`
	DeliveryEmail string             `json:"deliveryEmail" validate:"omitempty,email"`
}

// CreateContract validates a vehicle sale form and stores it as a DRAFT
// contract. Guests may buy; a session token links the contract to the
// profile.
func (h *Handler) CreateContract(c echo.Context) error {
	log := logger.FromContext(c)
	withAudit(c)

	var req contractRequest
	if ok, err := h.bindAndValidate(c, &req); !ok {
		return err
	}
	if req.Type == "" {
		req.Type = model.DocVehicleContract
	}
	if req.Type != model.DocVehicleContract {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Tipo de documento no soportado"})
	}

	var form model.ContratoVehicular
	if len(req.Data) == 0 || json.Unmarshal(req.Data, &form) != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Datos del contrato inválidos"})
	}
	if err := h.Validate.Validate(&form); err != nil {
		return validationError(c, err)
	}
	data, err := json.Marshal(form)
	if err != nil {
		return internalError(c, log, "Failed to encode contract data", err)
	}

	contract := &model.Contract{
		Type:          req.Type,
		Data:          datatypes.JSON(data),
		Status:        model.StatusDraft,
		DeliveryEmail: strings.ToLower(strings.TrimSpace(req.DeliveryEmail)),
	}
	if id := middleware.UserID(c); id != "" {
		contract.UserID = &id
	}
	if err := h.Repos.Contracts.Create(c.Request().Context(), contract); err != nil {
		return internalError(c, log, "Failed to create contract", err)
	}

	prometheus.RecordContractCreated(string(contract.Type))
	h.Audit.Record(c.Request().Context(), audit.Entry{
		UserID:       contract.UserID,
		Action:       model.ActionContractCreated,
		ResourceType: "contract",
		ResourceID:   contract.ID,
		Details:      map[string]interface{}{"type": contract.Type, "placa": form.Vehiculo.Placa},
	})
	log.Info("Contract created", zap.String("contract_id", contract.ID), zap.Bool("guest", contract.UserID == nil))

	return c.JSON(http.StatusCreated, echo.Map{
		"id":     contract.ID,
		"status": contract.Status,
		"price":  model.ContractPrice,
	})
}

// DownloadContract serves a generated document to the holder of its
// download token. The token is the authorisation; no session is needed.
func (h *Handler) DownloadContract(c echo.Context) error {
	log := logger.FromContext(c)
	withAudit(c)

	file, err := h.Docs.Download(c.Request().Context(),
		c.QueryParam("contractId"), c.QueryParam("token"), strings.ToLower(c.QueryParam("format")))
	switch {
	case errors.Is(err, document.ErrTokenRequired):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Token requerido"})
	case errors.Is(err, document.ErrUnknownFormat):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Formato no soportado"})
	case errors.Is(err, document.ErrTokenMismatch), errors.Is(err, repository.ErrContractNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Contrato no encontrado o token inválido"})
	case errors.Is(err, document.ErrTokenExpired):
		return c.JSON(http.StatusGone, echo.Map{"error": "Token de descarga expirado"})
	case errors.Is(err, document.ErrNotGenerated), errors.Is(err, storage.ErrNotFound):
		return c.JSON(http.StatusConflict, echo.Map{"error": "El documento aún no está disponible"})
	case err != nil:
		log.Error("Contract download failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Error al descargar el contrato"})
	}

	if file.RedirectURL != "" {
		return c.Redirect(http.StatusFound, file.RedirectURL)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+file.Filename+`"`)
	return c.Blob(http.StatusOK, file.ContentType, file.Data)
}
