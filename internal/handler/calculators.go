package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/abogadosonline/aoe-api/internal/calculator"
	"github.com/abogadosonline/aoe-api/internal/model"
	"github.com/abogadosonline/aoe-api/internal/prometheus"
	"github.com/abogadosonline/aoe-api/pkg/logger"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// calculatorError answers 400 for input errors and 500 for anything else
func calculatorError(c echo.Context, log *zap.Logger, err error) error {
	switch {
	case errors.Is(err, calculator.ErrNegativeAmount),
		errors.Is(err, calculator.ErrUnknownTramite),
		errors.Is(err, calculator.ErrUnknownItem),
		errors.Is(err, calculator.ErrInvalidDates):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	default:
		return internalError(c, log, "Calculation failed", err)
	}
}

// parseDate accepts plain dates from date inputs and full timestamps
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, calculator.ErrInvalidDates
	}
	return t, nil
}

// municipalRequest is the form shared by the alcabala and plusvalía calculators
type municipalRequest struct {
	FechaAdquisicion    string  `json:"fechaAdquisicion" validate:"required"`
	FechaTransferencia  string  `json:"fechaTransferencia" validate:"required"`
	ValorTransferencia  float64 `json:"valorTransferencia" validate:"gte=0"`
	ValorAdquisicion    float64 `json:"valorAdquisicion" validate:"gte=0"`
	AvaluoCatastral     float64 `json:"avaluoCatastral" validate:"gte=0"`
	TipoTransferencia   string  `json:"tipoTransferencia"`
	TipoTransferente    string  `json:"tipoTransferente"`
	Mejoras             float64 `json:"mejoras" validate:"gte=0"`
	ContribucionMejoras float64 `json:"contribucionMejoras" validate:"gte=0"`
}

func (r municipalRequest) datos() (calculator.DatosMunicipales, error) {
	d := calculator.DatosMunicipales{
		ValorTransferencia:  r.ValorTransferencia,
		ValorAdquisicion:    r.ValorAdquisicion,
		AvaluoCatastral:     r.AvaluoCatastral,
		TipoTransferencia:   calculator.Compraventa,
		TipoTransferente:    calculator.PersonaNatural,
		Mejoras:             r.Mejoras,
		ContribucionMejoras: r.ContribucionMejoras,
	}
	if r.TipoTransferencia != "" {
		d.TipoTransferencia = calculator.TipoTransferencia(r.TipoTransferencia)
	}
	if r.TipoTransferente != "" {
		d.TipoTransferente = calculator.TipoTransferente(r.TipoTransferente)
	}

	var err error
	if d.FechaAdquisicion, err = parseDate(r.FechaAdquisicion); err != nil {
		return d, err
	}
	if d.FechaTransferencia, err = parseDate(r.FechaTransferencia); err != nil {
		return d, err
	}
	return d, nil
}

// ListTramites returns the notarial acts grouped by category and the price
// list of extra services
func (h *Handler) ListTramites(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"tramites": calculator.TramitesPorCategoria(),
		"items":    calculator.TarifasItems,
		"sbu":      calculator.SBU,
	})
}

type notarialRequest struct {
	Tramite  string                      `json:"tramite" validate:"required"`
	Cuantia  float64                     `json:"cuantia" validate:"gte=0"`
	Opciones calculator.OpcionesNotarial `json:"opciones"`
}

func (h *Handler) CalculateNotarial(c echo.Context) error {
	log := logger.FromContext(c)

	var req notarialRequest
	if ok, err := h.bindAndValidate(c, &req); !ok {
		return err
	}
	prometheus.RecordCalculator("notarial")
	res, err := calculator.CalcularNotarial(calculator.Tramite(strings.ToUpper(req.Tramite)), req.Cuantia, req.Opciones)
	if err != nil {
		return calculatorError(c, log, err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *Handler) CalculateAlcabala(c echo.Context) error {
	log := logger.FromContext(c)

	var req municipalRequest
	if ok, err := h.bindAndValidate(c, &req); !ok {
		return err
	}
	d, err := req.datos()
	if err != nil {
		return calculatorError(c, log, err)
	}
	prometheus.RecordCalculator("alcabala")
	res, err := calculator.CalcularAlcabala(d)
	if err != nil {
		return calculatorError(c, log, err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *Handler) CalculateUtilidad(c echo.Context) error {
	log := logger.FromContext(c)

	var req municipalRequest
	if ok, err := h.bindAndValidate(c, &req); !ok {
		return err
	}
	d, err := req.datos()
	if err != nil {
		return calculatorError(c, log, err)
	}
	prometheus.RecordCalculator("utilidad")
	res, err := calculator.CalcularMunicipal(d)
	if err != nil {
		return calculatorError(c, log, err)
	}
	return c.JSON(http.StatusOK, res)
}

type consejoRequest struct {
	ValorTransferencia float64 `json:"valorTransferencia" validate:"gte=0"`
	AvaluoCatastral    float64 `json:"avaluoCatastral" validate:"gte=0"`
	Meses              int     `json:"meses" validate:"gte=0"`
}

func (h *Handler) CalculateConsejoProvincial(c echo.Context) error {
	log := logger.FromContext(c)

	var req consejoRequest
	if ok, err := h.bindAndValidate(c, &req); !ok {
		return err
	}
	prometheus.RecordCalculator("consejo_provincial")
	res, err := calculator.CalcularAlcabalaConConsejo(req.ValorTransferencia, req.AvaluoCatastral, req.Meses)
	if err != nil {
		return calculatorError(c, log, err)
	}
	return c.JSON(http.StatusOK, res)
}

type registroRequest struct {
	ValorContrato   float64 `json:"valorContrato" validate:"gte=0"`
	EsTerceraEdad   bool    `json:"esTerceraEdad"`
	EsDiscapacitado bool    `json:"esDiscapacitado"`
}

func (h *Handler) CalculateRegistro(c echo.Context) error {
	var req registroRequest
	if ok, err := h.bindAndValidate(c, &req); !ok {
		return err
	}
	prometheus.RecordCalculator("registro")
	return c.JSON(http.StatusOK, calculator.CalcularRegistro(req.ValorContrato, req.EsTerceraEdad, req.EsDiscapacitado))
}

type vehicularRequest struct {
	ValorVehiculo float64 `json:"valorVehiculo" validate:"gte=0"`
	NumFirmas     int     `json:"numFirmas" validate:"gte=0,lte=10"`
}

func (h *Handler) CalculateVehicular(c echo.Context) error {
	log := logger.FromContext(c)

	var req vehicularRequest
	if ok, err := h.bindAndValidate(c, &req); !ok {
		return err
	}
	prometheus.RecordCalculator("vehicular")
	res, err := calculator.CalcularVehicular(req.ValorVehiculo, req.NumFirmas)
	if err != nil {
		return calculatorError(c, log, err)
	}
	return c.JSON(http.StatusOK, res)
}

type inmobiliarioRequest struct {
	municipalRequest
	EsViviendaSocial bool `json:"esViviendaSocial"`
	EsTerceraEdad    bool `json:"esTerceraEdad"`
	EsDiscapacitado  bool `json:"esDiscapacitado"`
}

func (h *Handler) CalculateInmobiliario(c echo.Context) error {
	log := logger.FromContext(c)

	var req inmobiliarioRequest
	if ok, err := h.bindAndValidate(c, &req); !ok {
		return err
	}
	d, err := req.datos()
	if err != nil {
		return calculatorError(c, log, err)
	}
	prometheus.RecordCalculator("inmobiliario")
	res, err := calculator.CalcularInmobiliario(calculator.InputInmobiliario{
		DatosMunicipales: d,
		EsViviendaSocial: req.EsViviendaSocial,
		EsTerceraEdad:    req.EsTerceraEdad,
		EsDiscapacitado:  req.EsDiscapacitado,
	})
	if err != nil {
		return calculatorError(c, log, err)
	}
	return c.JSON(http.StatusOK, res)
}

type sessionRequest struct {
	Type      string          `json:"type" validate:"required,max=40"`
	Inputs    json.RawMessage `json:"inputs" validate:"required"`
	Result    json.RawMessage `json:"result" validate:"required"`
	VisitorID string          `json:"visitorId" validate:"max=64"`
}

// CreateCalculatorSession stores an anonymous calculator run
func (h *Handler) CreateCalculatorSession(c echo.Context) error {
	log := logger.FromContext(c)

	var req sessionRequest
	if ok, err := h.bindAndValidate(c, &req); !ok {
		return err
	}
	s := &model.CalculatorSession{
		VisitorID: req.VisitorID,
		Type:      req.Type,
		Inputs:    datatypes.JSON(req.Inputs),
		Result:    datatypes.JSON(req.Result),
	}
	if err := h.Repos.Sessions.Create(c.Request().Context(), s); err != nil {
		return internalError(c, log, "Failed to store calculator session", err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": s.ID})
}
