package calculator

import "math"

// InputInmobiliario describes a real estate sale for the full budget.
type InputInmobiliario struct {
	DatosMunicipales
	EsViviendaSocial bool `json:"esViviendaSocial,omitempty"`
	EsTerceraEdad    bool `json:"esTerceraEdad,omitempty"`
	EsDiscapacitado  bool `json:"esDiscapacitado,omitempty"`
}

// NotarialResumen is the notarial part of the buyer's costs.
type NotarialResumen struct {
	Subtotal float64  `json:"subtotal"`
	IVA      float64  `json:"iva"`
	Total    float64  `json:"total"`
	Detalles []string `json:"detalles"`
}

// RegistroResumen is the registry part of the buyer's costs.
type RegistroResumen struct {
	ArancelBase  float64 `json:"arancelBase"`
	Descuentos   float64 `json:"descuentos"`
	ArancelFinal float64 `json:"arancelFinal"`
}

// GastosComprador groups everything the buyer pays.
type GastosComprador struct {
	Notarial          NotarialResumen            `json:"notarial"`
	Alcabala          ResultadoAlcabala          `json:"alcabala"`
	ConsejoProvincial ResultadoConsejoProvincial `json:"consejoProvincial"`
	Registro          RegistroResumen            `json:"registro"`
	Total             float64                    `json:"total"`
}

// GastosVendedor groups everything the seller pays.
type GastosVendedor struct {
	Plusvalia ResultadoUtilidad `json:"plusvalia"`
	Total     float64           `json:"total"`
}

// ResumenInmobiliario expresses costs as a percentage of the property value.
type ResumenInmobiliario struct {
	ValorInmueble             float64 `json:"valorInmueble"`
	PorcentajeGastosComprador float64 `json:"porcentajeGastosComprador"`
	PorcentajeGastosVendedor  float64 `json:"porcentajeGastosVendedor"`
	PorcentajeGastosTotal     float64 `json:"porcentajeGastosTotal"`
}

// ResultadoInmobiliario is the full cost budget of a property sale.
type ResultadoInmobiliario struct {
	Comprador        GastosComprador     `json:"comprador"`
	Vendedor         GastosVendedor      `json:"vendedor"`
	TotalTransaccion float64             `json:"totalTransaccion"`
	Resumen          ResumenInmobiliario `json:"resumen"`
}

// CalcularInmobiliario combines the notarial, municipal, provincial and
// registry formulas into the budget for buyer and seller.
func CalcularInmobiliario(in InputInmobiliario) (ResultadoInmobiliario, error) {
	notarial, err := CalcularNotarial(TransferenciaDominio, in.ValorTransferencia, OpcionesNotarial{
		EsViviendaSocial: in.EsViviendaSocial,
		EsTerceraEdad:    in.EsTerceraEdad,
	})
	if err != nil {
		return ResultadoInmobiliario{}, err
	}
	alcabala, err := CalcularAlcabala(in.DatosMunicipales)
	if err != nil {
		return ResultadoInmobiliario{}, err
	}
	consejo, err := CalcularConsejoProvincial(alcabala.Impuesto)
	if err != nil {
		return ResultadoInmobiliario{}, err
	}
	registro := CalcularRegistro(in.ValorTransferencia, in.EsTerceraEdad, in.EsDiscapacitado)
	utilidad, err := CalcularUtilidad(in.DatosMunicipales)
	if err != nil {
		return ResultadoInmobiliario{}, err
	}

	totalComprador := round2(notarial.Total + alcabala.Impuesto + consejo.Total + registro.ArancelFinal)
	totalVendedor := round2(utilidad.Impuesto)
	totalTransaccion := round2(totalComprador + totalVendedor)
	valorInmueble := math.Max(in.ValorTransferencia, in.AvaluoCatastral)

	return ResultadoInmobiliario{
		Comprador: GastosComprador{
			Notarial: NotarialResumen{
				Subtotal: notarial.Subtotal,
				IVA:      notarial.IVA,
				Total:    notarial.Total,
				Detalles: notarial.Detalles,
			},
			Alcabala:          alcabala,
			ConsejoProvincial: consejo,
			Registro: RegistroResumen{
				ArancelBase:  registro.ArancelBase,
				Descuentos:   registro.TotalDescuentos(),
				ArancelFinal: registro.ArancelFinal,
			},
			Total: totalComprador,
		},
		Vendedor: GastosVendedor{
			Plusvalia: utilidad,
			Total:     totalVendedor,
		},
		TotalTransaccion: totalTransaccion,
		Resumen: ResumenInmobiliario{
			ValorInmueble:             valorInmueble,
			PorcentajeGastosComprador: porcentaje(totalComprador, valorInmueble),
			PorcentajeGastosVendedor:  porcentaje(totalVendedor, valorInmueble),
			PorcentajeGastosTotal:     porcentaje(totalTransaccion, valorInmueble),
		},
	}, nil
}

func porcentaje(parte, total float64) float64 {
	if total <= 0 {
		return 0
	}
	return round2(parte / total * 100)
}
