package bot

import (
	"context"
	"strings"

	"github.com/abogadosonline/aoe-api/internal/model"
	"github.com/tidwall/gjson"
)

// Firm contact details
const (
	SiteName        = "Abogados Online Ecuador"
	ContactWhatsApp = "+593 979317579"
	ContactEmail    = "info@abogadosonlineecuador.com"
	ContactAddress  = "Azuay E2-231 y Av Amazonas, Quito"
	WhatsAppURL     = "https://wa.me/593979317579"
	FacebookURL     = "https://www.facebook.com/abogadosonlineecuador"
	InstagramURL    = "https://www.instagram.com/abogadosonlineecuador"
)

type calculatorLink struct {
	Nombre string `json:"nombre"`
	URL    string `json:"url"`
	Gratis bool   `json:"gratis"`
}

func (s *Service) services(context.Context, gjson.Result) (interface{}, error) {
	links := []calculatorLink{
		{"Presupuestador Inmobiliario", s.siteURL + "/calculadoras/inmuebles", true},
		{"Cotizador Vehicular", s.siteURL + "/calculadoras/vehiculos", true},
		{"Calculadora Notarial", s.siteURL + "/calculadoras/notarial", true},
		{"Calculadora de Alcabalas", s.siteURL + "/calculadoras/alcabalas", true},
		{"Calculadora Registro de la Propiedad", s.siteURL + "/calculadoras/registro-propiedad", true},
		{"Calculadora Consejo Provincial", s.siteURL + "/calculadoras/consejo-provincial", true},
	}
	return map[string]interface{}{
		"servicios":     InScopeServices,
		"documentTypes": model.DocumentTypeLabels,
		"calculadoras":  links,
	}, nil
}

func (s *Service) contact(context.Context, gjson.Result) (interface{}, error) {
	return map[string]string{
		"nombre":      SiteName,
		"whatsapp":    ContactWhatsApp,
		"whatsappUrl": WhatsAppURL,
		"email":       ContactEmail,
		"direccion":   ContactAddress + ", Ecuador",
		"web":         s.siteURL,
		"facebook":    FacebookURL,
		"instagram":   InstagramURL,
	}, nil
}

// Requirements is a checklist for one procedure
type Requirements struct {
	Titulo     string   `json:"titulo"`
	Requisitos []string `json:"requisitos"`
}

// RequirementsByProcedure backs get.requirements; unknown procedures get
// the deed checklist
var RequirementsByProcedure = map[string]Requirements{
	"escritura": {
		Titulo: "Requisitos para escriturar un inmueble",
		Requisitos: []string{
			"Cédulas de comprador y vendedor (originales)",
			"Certificado de gravámenes actualizado (Registro de la Propiedad)",
			"Pago de impuesto de alcabala (Municipio)",
			"Pago de impuesto al Consejo Provincial",
			"Certificado de no adeudar al Municipio",
			"Escritura anterior del inmueble",
			"Avalúo catastral actualizado",
			"Comprobante de pago de plusvalía (si aplica, vendedor)",
		},
	},
	"vehicular": {
		Titulo: "Requisitos para contrato de compraventa vehicular",
		Requisitos: []string{
			"Cédulas de comprador y vendedor (originales)",
			"Matrícula del vehículo vigente",
			"CUV - Certificado Único Vehicular (ANT)",
			"SOAT vigente",
			"Revisión vehicular al día",
			"No tener infracciones pendientes",
		},
	},
	"poder": {
		Titulo: "Requisitos para otorgar un poder",
		Requisitos: []string{
			"Cédula del poderdante (quien otorga)",
			"Datos completos del apoderado (quien recibe)",
			"Descripción de facultades específicas",
			"Si es desde el exterior: apostilla + traducción (si aplica)",
			"Poder especial: datos del bien/trámite específico",
		},
	},
	"salida_menor": {
		Titulo: "Requisitos para autorización de salida del país",
		Requisitos: []string{
			"Cédulas de ambos padres",
			"Partida de nacimiento del menor",
			"Datos del acompañante (si no viaja solo)",
			"Itinerario de viaje (fechas, destino)",
			"Si un padre no autoriza: orden judicial",
		},
	},
}

func (s *Service) requirements(_ context.Context, data gjson.Result) (interface{}, error) {
	tipo := strings.ToLower(text(data, "escritura", "tipo", "type"))
	if req, ok := RequirementsByProcedure[tipo]; ok {
		return req, nil
	}
	return RequirementsByProcedure["escritura"], nil
}
