package handler

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/abogadosonline/aoe-api/internal/cuv"
	"github.com/abogadosonline/aoe-api/pkg/logger"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// MaxCUVSize bounds uploaded certificates
const MaxCUVSize = 5 << 20

type cuvTextRequest struct {
	Text string `json:"text"`
}

// ParseCUV reads a Certificado Único Vehicular, either uploaded as a PDF in
// the "file" form field or posted as extracted text, and returns the
// vehicle data found in it
func (h *Handler) ParseCUV(c echo.Context) error {
	log := logger.FromContext(c)

	var text string
	if strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		fh, err := c.FormFile("file")
		if err != nil {
			fh, err = c.FormFile("cuv")
		}
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "No se recibió el archivo."})
		}
		if fh.Size > MaxCUVSize {
			return c.JSON(http.StatusRequestEntityTooLarge, echo.Map{"error": "El archivo no debe superar 5 MB."})
		}
		if ct := fh.Header.Get(echo.HeaderContentType); ct != "" && ct != "application/pdf" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "El archivo debe ser un PDF."})
		}

		f, err := fh.Open()
		if err != nil {
			return internalError(c, log, "Failed to open upload", err)
		}
		defer f.Close()
		data, err := io.ReadAll(io.LimitReader(f, MaxCUVSize+1))
		if err != nil {
			return internalError(c, log, "Failed to read upload", err)
		}

		text, err = cuv.ExtractText(data)
		if err != nil && !errors.Is(err, cuv.ErrNoText) {
			log.Warn("CUV pdf could not be read", zap.Error(err))
			return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "Error al procesar el PDF. Intente nuevamente."})
		}
	} else {
		var req cuvTextRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, errInvalidRequest)
		}
		text = req.Text
	}

	if strings.TrimSpace(text) == "" {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{
			"error": "No se pudo extraer texto del PDF. Asegúrese de subir el CUV original (no una foto o escaneo).",
		})
	}

	res := cuv.Parse(text)
	if res.Placa == "" && res.VIN == "" {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{
			"error": "No se encontraron datos del vehículo. Verifique que el archivo sea un Certificado Único Vehicular (CUV) de la ANT.",
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": res})
}
