package calculator

const (
	PorcentajeFirma            = 0.03
	TasaTransferenciaVehicular = 0.01
	PrecioContratoBasico       = 9.99
	PrecioContratoRevision     = 35.0
	PrecioContratoConsulta     = 60.0
	firmasPorDefecto           = 2
	MaxFirmas                  = 10
)

// ResultadoVehicular estimates the cost of transferring a vehicle with a
// contract bought on the platform.
type ResultadoVehicular struct {
	ValorVehiculo         float64 `json:"valorVehiculo"`
	TarifaPorFirma        float64 `json:"tarifaPorFirma"`
	NumFirmas             int     `json:"numFirmas"`
	CostoNotarial         float64 `json:"costoNotarial"`
	IVANotarial           float64 `json:"ivaNotarial"`
	TotalNotarial         float64 `json:"totalNotarial"`
	ImpuestoTransferencia float64 `json:"impuestoTransferencia"`
	TotalGastosExternos   float64 `json:"totalGastosExternos"`
	PrecioContrato        float64 `json:"precioContrato"`
	TotalEstimado         float64 `json:"totalEstimado"`
}

// CalcularVehicular prices signature recognition for numFirmas signatures
// (two when zero, at most MaxFirmas), the 1% transfer tax and the contract
// itself.
func CalcularVehicular(valorVehiculo float64, numFirmas int) (ResultadoVehicular, error) {
	if valorVehiculo < 0 {
		return ResultadoVehicular{}, ErrNegativeAmount
	}
	if numFirmas > MaxFirmas {
		return ResultadoVehicular{}, ErrTooManyFirmas
	}
	if numFirmas <= 0 {
		numFirmas = firmasPorDefecto
	}

	tarifa := round2(SBU * PorcentajeFirma)
	costo := round2(tarifa * float64(numFirmas))
	iva := round2(costo * IVARate)
	totalNotarial := round2(costo + iva)
	impuesto := round2(valorVehiculo * TasaTransferenciaVehicular)
	externos := round2(totalNotarial + impuesto)

	return ResultadoVehicular{
		ValorVehiculo:         valorVehiculo,
		TarifaPorFirma:        tarifa,
		NumFirmas:             numFirmas,
		CostoNotarial:         costo,
		IVANotarial:           iva,
		TotalNotarial:         totalNotarial,
		ImpuestoTransferencia: impuesto,
		TotalGastosExternos:   externos,
		PrecioContrato:        PrecioContratoBasico,
		TotalEstimado:         round2(externos + PrecioContratoBasico),
	}, nil
}
