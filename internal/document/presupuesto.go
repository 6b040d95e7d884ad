package document

import (
	"bytes"
	"fmt"
	"math"
	"strings"
	"time"
)

// Presupuesto roles
const (
	RolComprador = "comprador"
	RolVendedor  = "vendedor"
)

// Desglose is the itemised cost of a real estate deed
type Desglose struct {
	Notarial          float64 `json:"notarial" validate:"gte=0"`
	Alcabalas         float64 `json:"alcabalas" validate:"gte=0"`
	Utilidad          float64 `json:"utilidad" validate:"gte=0"`
	Registro          float64 `json:"registro" validate:"gte=0"`
	ConsejoProvincial float64 `json:"consejoProvincial" validate:"gte=0"`
}

// Sum adds every item
func (d Desglose) Sum() float64 {
	return math.Round((d.Notarial+d.Alcabalas+d.Utilidad+d.Registro+d.ConsejoProvincial)*100) / 100
}

// Presupuesto is the data printed on the quote sent as a lead magnet
type Presupuesto struct {
	ClientName      string   `json:"clientName" validate:"required,min=2"`
	ClientEmail     string   `json:"clientEmail" validate:"required,email"`
	Rol             string   `json:"rol" validate:"required,oneof=comprador vendedor"`
	ValorInmueble   float64  `json:"valorInmueble" validate:"gt=0"`
	AvaluoCatastral float64  `json:"avaluoCatastral,omitempty" validate:"gte=0"`
	Desglose        Desglose `json:"desglose"`
	Total           float64  `json:"total" validate:"gte=0"`
}

// Porcentaje is the total as a share of the property value
func (p *Presupuesto) Porcentaje() float64 {
	if p.ValorInmueble <= 0 {
		return 0
	}
	return math.Round(p.Total/p.ValorInmueble*10000) / 100
}

// Filename names the attachment
func (p *Presupuesto) Filename(now time.Time) string {
	return fmt.Sprintf("presupuesto-escrituracion-%d.pdf", now.UnixMilli())
}

func money(v float64) string {
	s := FormatUSD(v)
	// FormatUSD prints deed style; quotes use 1,234.56
	s = strings.NewReplacer(".", ",", ",", ".").Replace(s)
	return "$" + s
}

var presupuestoNotas = []string{
	"Este presupuesto es referencial y está basado en valores vigentes para Quito.",
	"Los valores finales pueden variar según el avalúo catastral actualizado y descuentos aplicables.",
	"Si el vendedor compró el inmueble hace menos de 20 años, podría pagar impuesto a la plusvalía.",
	"Plazos estimados: 15 a 25 días hábiles para completar el proceso.",
}

// RenderPresupuestoPDF renders the quote
func RenderPresupuestoPDF(p *Presupuesto, now time.Time) ([]byte, error) {
	pdf, tr := newPDF("Presupuesto de escrituración", now)
	pageW, _ := pdf.GetPageSize()
	w := pageW - 2*pdfMargin

	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetTextColor(30, 64, 175)
	pdf.CellFormat(w, 8, tr("Presupuesto de Escrituración"), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(71, 85, 105)
	rol := "Vendedor"
	if p.Rol == RolComprador {
		rol = "Comprador"
	}
	pdf.CellFormat(w, 5, tr(FechaCorta(now)+" | "+rol), "", 1, "L", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(4)

	info := [][2]string{
		{"Cliente", p.ClientName},
		{"Email", p.ClientEmail},
		{"Valor del inmueble", money(p.ValorInmueble)},
	}
	if p.AvaluoCatastral > 0 {
		info = append(info, [2]string{"Avalúo catastral", money(p.AvaluoCatastral)})
	}
	for _, row := range info {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(50, 6, tr(row[0]+":"), "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(w-50, 6, tr(row[1]), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	pdf.SetFillColor(30, 64, 175)
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(w*0.7, 8, "Concepto", "1", 0, "L", true, 0, "")
	pdf.CellFormat(w*0.3, 8, "Monto", "1", 1, "R", true, 0, "")
	pdf.SetTextColor(0, 0, 0)

	items := [][2]interface{}{
		{"Honorarios Notariales", p.Desglose.Notarial},
		{"Impuesto de Alcabalas (Municipal)", p.Desglose.Alcabalas},
		{"Impuesto a la Utilidad (Plusvalía)", p.Desglose.Utilidad},
		{"Registro de la Propiedad", p.Desglose.Registro},
		{"Consejo Provincial (10% Alcabalas)", p.Desglose.ConsejoProvincial},
	}
	pdf.SetFont("Helvetica", "", 10)
	for _, it := range items {
		pdf.CellFormat(w*0.7, 7, tr(it[0].(string)), "1", 0, "L", false, 0, "")
		pdf.CellFormat(w*0.3, 7, money(it[1].(float64)), "1", 1, "R", false, 0, "")
	}
	pdf.SetFont("Helvetica", "B", 11)
	pdf.SetFillColor(219, 234, 254)
	pdf.CellFormat(w*0.7, 8, "TOTAL A PAGAR", "1", 0, "L", true, 0, "")
	pdf.CellFormat(w*0.3, 8, money(p.Total), "1", 1, "R", true, 0, "")
	pdf.Ln(3)

	pdf.SetFont("Helvetica", "", 9)
	pdf.MultiCell(w, 5, tr(fmt.Sprintf("Este presupuesto representa el %.2f%% del valor del inmueble.", p.Porcentaje())), "", "L", false)
	pdf.Ln(3)
	for _, nota := range presupuestoNotas {
		pdf.MultiCell(w, 5, tr("- "+nota), "", "L", false)
	}
	pdf.Ln(4)
	pdf.SetFont("Helvetica", "I", 8)
	pdf.SetTextColor(100, 116, 139)
	pdf.MultiCell(w, 4, tr("Cálculo basado en tarifas vigentes del Consejo de la Judicatura, municipios de la zona metropolitana de Quito y Registro de la Propiedad. Este documento no constituye una cotización formal vinculante."), "", "J", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render presupuesto: %w", err)
	}
	return buf.Bytes(), nil
}
