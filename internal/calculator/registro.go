package calculator

import "math"

const (
	LimiteMaximoRegistro  = 500.0
	DescuentoTerceraEdad  = 0.5
	DescuentoDiscapacidad = 0.5
	umbralFormulaRegistro = 40000.0
)

type rangoRegistro struct {
	rango   int
	hasta   float64
	arancel float64
}

var rangosRegistro = []rangoRegistro{
	{1, 3000, 22},
	{2, 6600, 30},
	{3, 10000, 35},
	{4, 15000, 40},
	{5, 25000, 50},
	{6, 30000, 100},
	{7, 35000, 160},
	{8, 40000, 200},
}

// Descuento is one discount applied to the registry fee.
type Descuento struct {
	Tipo       string  `json:"tipo"`
	Porcentaje float64 `json:"porcentaje"`
	Valor      float64 `json:"valor"`
}

// ResultadoRegistro is the Registro de la Propiedad fee.
type ResultadoRegistro struct {
	ValorContrato float64     `json:"valorContrato"`
	Rango         int         `json:"rango"`
	ArancelBase   float64     `json:"arancelBase"`
	Exceso        *float64    `json:"exceso"`
	Descuentos    []Descuento `json:"descuentos"`
	ArancelFinal  float64     `json:"arancelFinal"`
	ExcedeMaximo  bool        `json:"excedeMaximo"`
}

// TotalDescuentos sums the discount values.
func (r ResultadoRegistro) TotalDescuentos() float64 {
	total := 0.0
	for _, d := range r.Descuentos {
		total += d.Valor
	}
	return round2(total)
}

// CalcularRegistro computes the registry fee. Contracts above 40,000 pay 100
// plus 0.5% of the value over 10,000, capped at the legal maximum.
func CalcularRegistro(valorContrato float64, esTerceraEdad, esDiscapacitado bool) ResultadoRegistro {
	res := ResultadoRegistro{ValorContrato: valorContrato, Descuentos: []Descuento{}}
	if valorContrato <= 0 {
		return res
	}

	var arancel float64
	if valorContrato > umbralFormulaRegistro {
		exceso := valorContrato - 10000
		res.Exceso = &exceso
		res.Rango = 9
		arancel = 100 + exceso*0.005
	} else {
		for _, r := range rangosRegistro {
			if valorContrato <= r.hasta {
				res.Rango = r.rango
				arancel = r.arancel
				break
			}
		}
	}

	res.ExcedeMaximo = arancel > LimiteMaximoRegistro
	res.ArancelBase = round2(math.Min(arancel, LimiteMaximoRegistro))

	final := res.ArancelBase
	if esTerceraEdad {
		res.Descuentos = append(res.Descuentos, Descuento{"Tercera Edad", DescuentoTerceraEdad, round2(final * DescuentoTerceraEdad)})
		final *= 1 - DescuentoTerceraEdad
	}
	if esDiscapacitado {
		res.Descuentos = append(res.Descuentos, Descuento{"Discapacidad", DescuentoDiscapacidad, round2(final * DescuentoDiscapacidad)})
		final *= 1 - DescuentoDiscapacidad
	}
	res.ArancelFinal = round2(final)

	return res
}
