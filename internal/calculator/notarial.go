package calculator

import (
	"fmt"
)

// Tramite identifies a notarial act.
type Tramite string

const (
	TransferenciaDominio      Tramite = "TRANSFERENCIA_DOMINIO"
	Hipoteca                  Tramite = "HIPOTECA"
	PromesaCompraventa        Tramite = "PROMESA_COMPRAVENTA"
	CancelacionHipoteca       Tramite = "CANCELACION_HIPOTECA"
	Divorcio                  Tramite = "DIVORCIO"
	UnionHecho                Tramite = "UNION_HECHO"
	TerminacionUnionHecho     Tramite = "TERMINACION_UNION_HECHO"
	SalidaPais                Tramite = "SALIDA_PAIS"
	TestamentoAbierto         Tramite = "TESTAMENTO_ABIERTO"
	TestamentoCerrado         Tramite = "TESTAMENTO_CERRADO"
	PosesionEfectiva          Tramite = "POSESION_EFECTIVA"
	PoderGeneralPN            Tramite = "PODER_GENERAL_PN"
	PoderGeneralPJ            Tramite = "PODER_GENERAL_PJ"
	ConstitucionCia           Tramite = "CONSTITUCION_CIA"
	ReconocimientoFirma       Tramite = "RECONOCIMIENTO_FIRMA"
	DeclaracionJuramentada    Tramite = "DECLARACION_JURAMENTADA"
	ContratoArriendoEscritura Tramite = "CONTRATO_ARRIENDO_ESCRITURA"
	InscripcionArrendamiento  Tramite = "INSCRIPCION_ARRENDAMIENTO"
)

// SBU-indexed tables of the Consejo de la Judicatura fee schedule.
var (
	tabla1Transferencia = []tramo{
		{10000, 0.2}, {30000, 0.35}, {60000, 0.5}, {90000, 0.8}, {150000, 1.35},
		{300000, 2}, {600000, 4}, {1000000, 5}, {2000000, 10}, {3000000, 15}, {4000000, 20},
	}
	tabla2Promesas = []tramo{
		{10000, 0.15}, {30000, 0.25}, {60000, 0.35}, {90000, 0.6}, {150000, 0.9},
		{300000, 1.4}, {600000, 2.8}, {1000000, 3.5}, {2000000, 7}, {3000000, 10.5}, {4000000, 14},
	}
	tabla3Hipotecas = []tramo{
		{10000, 0.13}, {30000, 0.27}, {60000, 0.36}, {90000, 0.54}, {150000, 0.72},
		{300000, 1.26}, {600000, 1.8}, {1000000, 2.25}, {2000000, 4.5}, {3000000, 6.75}, {4000000, 9},
	}
	tabla7Sociedades = []tramo{
		{10000, 0.7}, {25000, 1}, {50000, 1.5}, {100000, 1.75},
		{250000, 2}, {500000, 3}, {750000, 4}, {1000000, 5},
	}
	tabla5Arrendamientos = []tramo{
		{1500, 0.10}, {5000, 0.15}, {10000, 0.20},
	}
)

const (
	limiteTablasCuantia      = 4000000
	porcentajeExcedente      = 0.001
	limiteTablaSociedades    = 1000000
	porcentajeSociedades     = 0.00225
	limiteArriendoPorcentual = 375
	factorArriendoMaximo     = 0.30
	limiteViviendaSocial     = 60000
)

type tarifaFija struct {
	factor      float64
	descripcion string
}

var tarifasFijas = map[Tramite]tarifaFija{
	CancelacionHipoteca:    {0.2, "20% SBU - Cancelación Hipoteca"},
	Divorcio:               {0.39, "39% SBU - Divorcio"},
	UnionHecho:             {0.1, "10% SBU - Unión de Hecho"},
	TerminacionUnionHecho:  {0.39, "39% SBU - Terminación Unión de Hecho"},
	SalidaPais:             {0.05, "5% SBU por menor - Autorización Salida del País"},
	TestamentoAbierto:      {1.2, "120% SBU - Testamento Abierto"},
	TestamentoCerrado:      {1.0, "100% SBU - Testamento Cerrado"},
	PosesionEfectiva:       {0.4, "40% SBU - Posesión Efectiva"},
	PoderGeneralPN:         {0.12, "12% SBU - Poder General Persona Natural"},
	PoderGeneralPJ:         {0.5, "50% SBU - Poder General Persona Jurídica"},
	ReconocimientoFirma:    {0.03, "3% SBU - Reconocimiento de Firma"},
	DeclaracionJuramentada: {0.05, "5% SBU - Declaración Juramentada"},
}

// Unilateral acts are the only ones eligible for the senior citizen discount.
var actosUnilaterales = map[Tramite]bool{
	TestamentoAbierto:      true,
	TestamentoCerrado:      true,
	PosesionEfectiva:       true,
	DeclaracionJuramentada: true,
	CancelacionHipoteca:    true,
}

// OpcionesNotarial tunes a notarial calculation.
type OpcionesNotarial struct {
	CantidadMenores  int             `json:"cantidadMenores,omitempty"`
	EsViviendaSocial bool            `json:"esViviendaSocial,omitempty"`
	EsTerceraEdad    bool            `json:"esTerceraEdad,omitempty"`
	TiempoMeses      int             `json:"tiempoMeses,omitempty"`
	NumeroOtorgantes int             `json:"numeroOtorgantes,omitempty"`
	NumeroFirmas     int             `json:"numeroFirmas,omitempty"`
	ItemsAdicionales []ItemAdicional `json:"itemsAdicionales,omitempty"`
}

// ResultadoNotarial is the fee breakdown of one notarial act.
type ResultadoNotarial struct {
	Tramite               Tramite         `json:"tramite"`
	CostoBase             float64         `json:"costoBase"`
	Subtotal              float64         `json:"subtotal"`
	Descuento             float64         `json:"descuento"`
	RazonDescuento        string          `json:"razonDescuento,omitempty"`
	IVA                   float64         `json:"iva"`
	Total                 float64         `json:"total"`
	Detalles              []string        `json:"detalles"`
	ItemsAdicionales      []ItemAdicional `json:"itemsAdicionales"`
	TotalItemsAdicionales float64         `json:"totalItemsAdicionales"`
	GranTotal             float64         `json:"granTotal"`
}

// CalcularNotarial computes the fee of tramite for the given cuantía.
func CalcularNotarial(tramite Tramite, cuantia float64, op OpcionesNotarial) (ResultadoNotarial, error) {
	if cuantia < 0 {
		return ResultadoNotarial{}, ErrNegativeAmount
	}

	var costoBase, descuento float64
	var razonDescuento string
	var detalles []string

	switch tramite {
	case TransferenciaDominio:
		costoBase, detalles = porCuantia(cuantia, tabla1Transferencia, "Art. 26 - Tabla 1")
		if op.EsViviendaSocial && cuantia <= limiteViviendaSocial {
			descuento = costoBase * 0.25
			razonDescuento = "Vivienda de Interés Social (-25%)"
		}

	case PromesaCompraventa:
		costoBase, detalles = porCuantia(cuantia, tabla2Promesas, "Art. 27 - Tabla 2")

	case Hipoteca:
		costoBase, detalles = porCuantia(cuantia, tabla3Hipotecas, "Art. 28 - Tabla 3")

	case ConstitucionCia:
		if cuantia > limiteTablaSociedades {
			costoBase = cuantia * porcentajeSociedades
			detalles = append(detalles, "Art. 43 - Tabla 7 (Excedente > $1M): 0.225% del capital")
		} else {
			t, desde, _ := buscarTramo(cuantia, tabla7Sociedades)
			costoBase = SBU * t.factor
			detalles = append(detalles, rangoDetalle("Art. 43 - Tabla 7", desde, t))
		}

	case ContratoArriendoEscritura:
		meses := op.TiempoMeses
		if meses <= 0 {
			meses = 12
		}
		cuantiaTotal := cuantia * float64(meses)
		costoBase, _ = porCuantia(cuantiaTotal, tabla1Transferencia, "Art. 26 - Tabla 1")
		detalles = append(detalles, fmt.Sprintf("Art. 40 - Escritura Pública: Canon $%s × %d meses = $%s",
			miles(cuantia), meses, miles(cuantiaTotal)))

	case InscripcionArrendamiento:
		if cuantia <= limiteArriendoPorcentual {
			costoBase = cuantia * 0.10
			detalles = append(detalles, fmt.Sprintf("Art. 41 - Inscripción Arrendamiento: 10%% del canon mensual ($%s)", miles(cuantia)))
		} else {
			factor := factorArriendoMaximo
			if t, _, ok := buscarTramo(cuantia, tabla5Arrendamientos); ok {
				factor = t.factor
			}
			costoBase = SBU * factor
			detalles = append(detalles, fmt.Sprintf("Art. 41 - Inscripción Arrendamiento (Canon mensual: $%s): %.2f SBU",
				miles(cuantia), factor))
		}

	case PoderGeneralPN:
		otorgantes := max(op.NumeroOtorgantes, 1)
		tarifa := tarifasFijas[tramite]
		costoBase = SBU*tarifa.factor + float64(otorgantes-1)*SBU*0.03
		detalles = append(detalles, tarifa.descripcion)
		if otorgantes > 1 {
			detalles = append(detalles, fmt.Sprintf("Otorgantes adicionales: %d × 3%% SBU", otorgantes-1))
		}

	case ReconocimientoFirma:
		firmas := max(op.NumeroFirmas, 1)
		tarifa := tarifasFijas[tramite]
		costoBase = SBU * tarifa.factor * float64(firmas)
		detalles = append(detalles, fmt.Sprintf("%s × %d firma(s)", tarifa.descripcion, firmas))

	case SalidaPais:
		menores := max(op.CantidadMenores, 1)
		tarifa := tarifasFijas[tramite]
		costoBase = SBU * tarifa.factor * float64(menores)
		detalles = append(detalles, fmt.Sprintf("%s × %d menor(es)", tarifa.descripcion, menores))

	default:
		tarifa, ok := tarifasFijas[tramite]
		if !ok {
			return ResultadoNotarial{}, fmt.Errorf("%w: %s", ErrUnknownTramite, tramite)
		}
		costoBase = SBU * tarifa.factor
		detalles = append(detalles, tarifa.descripcion)
	}

	// The senior discount replaces any other discount
	if op.EsTerceraEdad && actosUnilaterales[tramite] {
		descuento = costoBase * 0.5
		razonDescuento = "Adulto Mayor (-50%)"
	}

	subtotal := max(0, round2(costoBase-descuento))
	iva := round2(subtotal * IVARate)
	total := round2(subtotal + iva)

	items, totalItems, err := CalcularItemsAdicionales(op.ItemsAdicionales)
	if err != nil {
		return ResultadoNotarial{}, err
	}

	if descuento > 0 {
		detalles = append(detalles, fmt.Sprintf("%s: -%s", razonDescuento, pesos(descuento)))
	} else {
		razonDescuento = ""
	}
	detalles = append(detalles,
		"Subtotal: "+pesos(subtotal),
		"IVA (15%): "+pesos(iva),
	)
	if len(items) > 0 {
		detalles = append(detalles, "Ítems adicionales: "+pesos(totalItems))
	}

	return ResultadoNotarial{
		Tramite:               tramite,
		CostoBase:             round2(costoBase),
		Subtotal:              subtotal,
		Descuento:             round2(descuento),
		RazonDescuento:        razonDescuento,
		IVA:                   iva,
		Total:                 total,
		Detalles:              detalles,
		ItemsAdicionales:      items,
		TotalItemsAdicionales: totalItems,
		GranTotal:             round2(total + totalItems),
	}, nil
}

// porCuantia applies one of the cuantía tables, including the excess rule
// above four million.
func porCuantia(cuantia float64, tabla []tramo, etiqueta string) (float64, []string) {
	if cuantia > limiteTablasCuantia {
		ultimo := tabla[len(tabla)-1]
		base := ultimo.factor*SBU + (cuantia-limiteTablasCuantia)*porcentajeExcedente
		return base, []string{fmt.Sprintf("%s (Excedente > $4M): %g SBU + 0.1%% excedente", etiqueta, ultimo.factor)}
	}
	t, desde, _ := buscarTramo(cuantia, tabla)
	return SBU * t.factor, []string{rangoDetalle(etiqueta, desde, t)}
}

func rangoDetalle(etiqueta string, desde float64, t tramo) string {
	inicio := "$0"
	if desde > 0 {
		inicio = "$" + miles(desde+0.01)
	}
	return fmt.Sprintf("%s (Rango: %s - $%s): %g SBU", etiqueta, inicio, miles(t.hasta), t.factor)
}

// TramitesPorCategoria groups the supported acts the way the calculator UI
// presents them.
func TramitesPorCategoria() map[string][]Tramite {
	return map[string][]Tramite{
		"conCuantia": {TransferenciaDominio, Hipoteca, PromesaCompraventa, ConstitucionCia},
		"sinCuantia": {
			PoderGeneralPN, PoderGeneralPJ, TestamentoAbierto, TestamentoCerrado, UnionHecho, Divorcio,
			TerminacionUnionHecho, PosesionEfectiva, CancelacionHipoteca, SalidaPais, ReconocimientoFirma,
			DeclaracionJuramentada,
		},
		"arrendamientos": {ContratoArriendoEscritura, InscripcionArrendamiento},
	}
}
