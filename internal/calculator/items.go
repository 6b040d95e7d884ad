package calculator

import "fmt"

// TipoItem identifies an extra notarial service billed per unit.
type TipoItem string

const (
	ItemCopiaCertificada       TipoItem = "copia_certificada"
	ItemDeclaracionJuramentada TipoItem = "declaracion_juramentada"
	ItemPoder                  TipoItem = "poder"
	ItemCancelacionHipoteca    TipoItem = "cancelacion_hipoteca"
	ItemReconocimientoFirma    TipoItem = "reconocimiento_firma"
	ItemAutenticacionFirma     TipoItem = "autenticacion_firma"
	ItemMaterializacion        TipoItem = "materializacion"
	ItemProtocolizacion        TipoItem = "protocolizacion"
	ItemMarginacion            TipoItem = "marginacion"
)

// TarifaItem describes the unit price of an extra service.
type TarifaItem struct {
	Nombre        string  `json:"nombre"`
	ValorUnitario float64 `json:"valorUnitario"`
	Unidad        string  `json:"unidad"`
}

// TarifasItems is the price list of extra services.
var TarifasItems = map[TipoItem]TarifaItem{
	ItemCopiaCertificada:       {"Copia Certificada", CostoFoja, "foja"},
	ItemDeclaracionJuramentada: {"Declaración Juramentada", SBU * 0.05, "declaración"},
	ItemPoder:                  {"Poder General/Especial/Procuración", SBU * 0.12, "otorgante"},
	ItemCancelacionHipoteca:    {"Cancelación de Hipoteca", SBU * 0.20, "cancelación"},
	ItemReconocimientoFirma:    {"Reconocimiento de Firma", SBU * 0.03, "firma"},
	ItemAutenticacionFirma:     {"Autenticación de Firma", SBU * 0.04, "firma"},
	ItemMaterializacion:        {"Materialización", CostoFoja * 2, "documento"},
	ItemProtocolizacion:        {"Protocolización", SBU * 0.05, "documento"},
	ItemMarginacion:            {"Marginación/Razón", 3.00, "marginación"},
}

// ItemAdicional is an extra service line. ValorUnitario and Subtotal are
// filled in by CalcularItemsAdicionales.
type ItemAdicional struct {
	Tipo          TipoItem `json:"tipo" validate:"required"`
	Descripcion   string   `json:"descripcion"`
	Cantidad      int      `json:"cantidad" validate:"min=1"`
	ValorUnitario float64  `json:"valorUnitario"`
	Subtotal      float64  `json:"subtotal"`
}

// CalcularItemsAdicionales prices every line and returns the sum.
func CalcularItemsAdicionales(items []ItemAdicional) ([]ItemAdicional, float64, error) {
	calculados := make([]ItemAdicional, 0, len(items))
	total := 0.0

	for _, item := range items {
		tarifa, ok := TarifasItems[item.Tipo]
		if !ok {
			return nil, 0, fmt.Errorf("%w: %s", ErrUnknownItem, item.Tipo)
		}
		cantidad := max(item.Cantidad, 1)

		item.Cantidad = cantidad
		item.ValorUnitario = tarifa.ValorUnitario
		if item.Tipo == ItemPoder {
			// 12% SBU for the first grantor, 3% for each additional one
			item.Subtotal = round2(SBU*0.12 + float64(cantidad-1)*SBU*0.03)
		} else {
			item.Subtotal = round2(tarifa.ValorUnitario * float64(cantidad))
		}
		if item.Descripcion == "" {
			item.Descripcion = tarifa.Nombre
		}

		total += item.Subtotal
		calculados = append(calculados, item)
	}

	return calculados, round2(total), nil
}
