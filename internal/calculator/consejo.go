package calculator

import "math"

const (
	TasaConsejoProvincial      = 0.10
	ValorFijoConsejoProvincial = 1.80
	mesesSinRebaja             = 999
)

// Concepto is one labelled line of a breakdown.
type Concepto struct {
	Concepto string  `json:"concepto"`
	Valor    float64 `json:"valor"`
}

// ResultadoConsejoProvincial is the provincial surcharge levied on the alcabala.
type ResultadoConsejoProvincial struct {
	BaseCalculo     float64    `json:"baseCalculo"`
	Porcentaje      float64    `json:"porcentaje"`
	ValorPorcentaje float64    `json:"valorPorcentaje"`
	ValorFijo       float64    `json:"valorFijo"`
	Total           float64    `json:"total"`
	Desglose        []Concepto `json:"desglose"`
}

// CalcularConsejoProvincial applies 10% of the alcabala plus the fixed fee.
func CalcularConsejoProvincial(valorAlcabala float64) (ResultadoConsejoProvincial, error) {
	if valorAlcabala < 0 {
		return ResultadoConsejoProvincial{}, ErrNegativeAmount
	}
	valorPorcentaje := round2(valorAlcabala * TasaConsejoProvincial)

	return ResultadoConsejoProvincial{
		BaseCalculo:     valorAlcabala,
		Porcentaje:      TasaConsejoProvincial,
		ValorPorcentaje: valorPorcentaje,
		ValorFijo:       ValorFijoConsejoProvincial,
		Total:           round2(valorPorcentaje + ValorFijoConsejoProvincial),
		Desglose: []Concepto{
			{"Contribución Provincial (10% de Alcabala)", valorPorcentaje},
			{"Valor Fijo", ValorFijoConsejoProvincial},
		},
	}, nil
}

// ResultadoAlcabalaConsejo is the quick estimate used by the provincial
// calculator and the bot.
type ResultadoAlcabalaConsejo struct {
	BaseImponibleAlcabala     float64 `json:"baseImponibleAlcabala"`
	RebajaAplicada            float64 `json:"rebajaAplicada"`
	ImpuestoAlcabala          float64 `json:"impuestoAlcabala"`
	ValorPorcentaje           float64 `json:"valorPorcentaje"`
	ValorFijo                 float64 `json:"valorFijo"`
	ImpuestoConsejoProvincial float64 `json:"impuestoConsejoProvincial"`
	TotalImpuestos            float64 `json:"totalImpuestos"`
}

// CalcularAlcabalaConConsejo estimates alcabala and the provincial surcharge.
// The quick estimate only knows the first three rebate tiers; pass meses <= 0
// for "unknown", which applies no rebate.
func CalcularAlcabalaConConsejo(valorTransferencia, avaluoCatastral float64, meses int) (ResultadoAlcabalaConsejo, error) {
	if valorTransferencia < 0 || avaluoCatastral < 0 {
		return ResultadoAlcabalaConsejo{}, ErrNegativeAmount
	}
	if meses <= 0 {
		meses = mesesSinRebaja
	}
	base := math.Max(valorTransferencia, avaluoCatastral)

	var rebaja float64
	switch {
	case meses <= 12:
		rebaja = 0.40
	case meses <= 24:
		rebaja = 0.30
	case meses <= 36:
		rebaja = 0.20
	}

	alcabala := round2(base * TasaAlcabala * (1 - rebaja))
	cp, err := CalcularConsejoProvincial(alcabala)
	if err != nil {
		return ResultadoAlcabalaConsejo{}, err
	}

	return ResultadoAlcabalaConsejo{
		BaseImponibleAlcabala:     base,
		RebajaAplicada:            rebaja,
		ImpuestoAlcabala:          alcabala,
		ValorPorcentaje:           cp.ValorPorcentaje,
		ValorFijo:                 ValorFijoConsejoProvincial,
		ImpuestoConsejoProvincial: cp.Total,
		TotalImpuestos:            round2(alcabala + cp.Total),
	}, nil
}
