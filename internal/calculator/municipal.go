package calculator

import (
	"math"
	"time"
)

const (
	TasaAlcabala             = 0.01
	TasaUtilidadNatural      = 0.10
	TasaUtilidadInmobiliaria = 0.04
	TasaUtilidadDonacion     = 0.01
	DeduccionAnual           = 0.05
	maxAniosDeduccion        = 20
	diasPorMesPromedio       = 30.44
)

// TipoTransferencia is the legal form of the transfer.
type TipoTransferencia string

const (
	Compraventa  TipoTransferencia = "Compraventa"
	Donacion     TipoTransferencia = "Donación"
	DacionEnPago TipoTransferencia = "Dación en pago"
)

// TipoTransferente is the kind of seller.
type TipoTransferente string

const (
	PersonaNatural TipoTransferente = "Natural"
	Inmobiliaria   TipoTransferente = "Inmobiliaria"
)

// DatosMunicipales are the inputs shared by the alcabala and plusvalía taxes.
type DatosMunicipales struct {
	FechaAdquisicion    time.Time         `json:"fechaAdquisicion"`
	FechaTransferencia  time.Time         `json:"fechaTransferencia"`
	ValorTransferencia  float64           `json:"valorTransferencia"`
	ValorAdquisicion    float64           `json:"valorAdquisicion"`
	AvaluoCatastral     float64           `json:"avaluoCatastral"`
	TipoTransferencia   TipoTransferencia `json:"tipoTransferencia"`
	TipoTransferente    TipoTransferente  `json:"tipoTransferente"`
	Mejoras             float64           `json:"mejoras,omitempty"`
	ContribucionMejoras float64           `json:"contribucionMejoras,omitempty"`
}

func (d DatosMunicipales) validar() error {
	if d.ValorTransferencia < 0 || d.ValorAdquisicion < 0 || d.AvaluoCatastral < 0 ||
		d.Mejoras < 0 || d.ContribucionMejoras < 0 {
		return ErrNegativeAmount
	}
	if d.FechaAdquisicion.IsZero() || d.FechaTransferencia.IsZero() {
		return ErrInvalidDates
	}
	return nil
}

// ResultadoUtilidad is the seller's capital gains (plusvalía) tax.
type ResultadoUtilidad struct {
	UtilidadBruta      float64 `json:"utilidadBruta"`
	AniosTranscurridos int     `json:"aniosTranscurridos"`
	DeduccionTiempo    float64 `json:"deduccionTiempo"`
	BaseImponible      float64 `json:"baseImponible"`
	TarifaAplicada     float64 `json:"tarifaAplicada"`
	TarifaDescripcion  string  `json:"tarifaDescripcion"`
	Impuesto           float64 `json:"impuesto"`
}

// ResultadoAlcabala is the buyer's transfer tax.
type ResultadoAlcabala struct {
	BaseImponible       float64 `json:"baseImponible"`
	Tarifa              float64 `json:"tarifa"`
	MesesTranscurridos  int     `json:"mesesTranscurridos"`
	PorcentajeRebaja    float64 `json:"porcentajeRebaja"`
	RebajaDescripcion   string  `json:"rebajaDescripcion"`
	ImpuestoAntesRebaja float64 `json:"impuestoAntesRebaja"`
	Rebaja              float64 `json:"rebaja"`
	Impuesto            float64 `json:"impuesto"`
}

// ResultadoMunicipal combines both municipal taxes.
type ResultadoMunicipal struct {
	Utilidad       ResultadoUtilidad `json:"utilidad"`
	Alcabala       ResultadoAlcabala `json:"alcabala"`
	TotalVendedor  float64           `json:"totalVendedor"`
	TotalComprador float64           `json:"totalComprador"`
	Total          float64           `json:"total"`
}

// AniosTranscurridos counts whole calendar years held, clamped to 0..20.
func AniosTranscurridos(desde, hasta time.Time) int {
	anios := hasta.Year() - desde.Year()
	if hasta.Month() < desde.Month() || (hasta.Month() == desde.Month() && hasta.Day() < desde.Day()) {
		anios--
	}
	return min(max(0, anios), maxAniosDeduccion)
}

// MesesTranscurridos counts average-length months between both dates.
func MesesTranscurridos(desde, hasta time.Time) int {
	dias := hasta.Sub(desde).Hours() / 24
	return int(math.Floor(dias / diasPorMesPromedio))
}

type rebaja struct {
	porcentaje  float64
	descripcion string
}

func rebajaAlcabala(meses int) rebaja {
	switch {
	case meses <= 12:
		return rebaja{0.4, "40% - Primer año"}
	case meses <= 24:
		return rebaja{0.3, "30% - Segundo año"}
	case meses <= 36:
		return rebaja{0.2, "20% - Tercer año"}
	case meses <= 48:
		return rebaja{0.1, "10% - Cuarto año"}
	}
	return rebaja{0, "Sin rebaja - Más de 4 años"}
}

// CalcularUtilidad computes the plusvalía tax paid by the seller.
func CalcularUtilidad(d DatosMunicipales) (ResultadoUtilidad, error) {
	if err := d.validar(); err != nil {
		return ResultadoUtilidad{}, err
	}

	anios := AniosTranscurridos(d.FechaAdquisicion, d.FechaTransferencia)
	valorBase := math.Max(d.ValorTransferencia, d.AvaluoCatastral)
	bruta := valorBase - (d.ValorAdquisicion + d.Mejoras + d.ContribucionMejoras)

	if bruta <= 0 {
		return ResultadoUtilidad{
			AniosTranscurridos: anios,
			TarifaDescripcion:  "Sin utilidad",
		}, nil
	}

	deduccion := bruta * DeduccionAnual * float64(anios)
	base := bruta - deduccion

	var tarifa float64
	var descripcion string
	switch {
	case d.TipoTransferencia == Donacion:
		tarifa, descripcion = TasaUtilidadDonacion, "1% - Donación"
	case d.TipoTransferente == Inmobiliaria:
		tarifa, descripcion = TasaUtilidadInmobiliaria, "4% - Inmobiliaria"
	default:
		tarifa, descripcion = TasaUtilidadNatural, "10% - Persona Natural"
	}

	return ResultadoUtilidad{
		UtilidadBruta:      round2(bruta),
		AniosTranscurridos: anios,
		DeduccionTiempo:    round2(deduccion),
		BaseImponible:      round2(base),
		TarifaAplicada:     tarifa,
		TarifaDescripcion:  descripcion,
		Impuesto:           max(0, round2(base*tarifa)),
	}, nil
}

// CalcularAlcabala computes the transfer tax paid by the buyer, including the
// rebate for properties resold within four years.
func CalcularAlcabala(d DatosMunicipales) (ResultadoAlcabala, error) {
	if err := d.validar(); err != nil {
		return ResultadoAlcabala{}, err
	}

	base := math.Max(d.ValorTransferencia, d.AvaluoCatastral)
	meses := MesesTranscurridos(d.FechaAdquisicion, d.FechaTransferencia)
	r := rebajaAlcabala(meses)

	antes := base * TasaAlcabala
	valorRebaja := antes * r.porcentaje

	return ResultadoAlcabala{
		BaseImponible:       round2(base),
		Tarifa:              TasaAlcabala,
		MesesTranscurridos:  meses,
		PorcentajeRebaja:    r.porcentaje,
		RebajaDescripcion:   r.descripcion,
		ImpuestoAntesRebaja: round2(antes),
		Rebaja:              round2(valorRebaja),
		Impuesto:            max(0, round2(antes-valorRebaja)),
	}, nil
}

// CalcularMunicipal computes both municipal taxes.
func CalcularMunicipal(d DatosMunicipales) (ResultadoMunicipal, error) {
	utilidad, err := CalcularUtilidad(d)
	if err != nil {
		return ResultadoMunicipal{}, err
	}
	alcabala, err := CalcularAlcabala(d)
	if err != nil {
		return ResultadoMunicipal{}, err
	}

	return ResultadoMunicipal{
		Utilidad:       utilidad,
		Alcabala:       alcabala,
		TotalVendedor:  utilidad.Impuesto,
		TotalComprador: alcabala.Impuesto,
		Total:          round2(utilidad.Impuesto + alcabala.Impuesto),
	}, nil
}
