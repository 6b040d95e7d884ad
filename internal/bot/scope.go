package bot

import (
	"strings"
	"unicode"
)

// ScopeRule describes a legal area the firm does not handle and where to
// send the client instead
type ScopeRule struct {
	Category   string   `json:"category"`
	Keywords   []string `json:"keywords"`
	Message    string   `json:"message"`
	Suggestion string   `json:"suggestion"`
	Phone      string   `json:"phone,omitempty"`
}

// OutOfScopeRules are checked in order; the first match wins
var OutOfScopeRules = []ScopeRule{
	{
		Category:   "penal",
		Keywords:   []string{"penal", "delito", "cárcel", "prisión", "robo", "estafa", "asesinato", "homicidio", "drogas", "narcotráfico", "fiscalía", "denuncia penal"},
		Message:    "No manejamos casos penales. Nos especializamos en trámites notariales y documentos legales.",
		Suggestion: "Te recomendamos contactar al Colegio de Abogados de Pichincha: (02) 252-7742",
		Phone:      "022527742",
	},
	{
		Category:   "laboral",
		Keywords:   []string{"laboral", "despido", "liquidación", "visto bueno", "desahucio laboral", "acta de finiquito", "ministerio de trabajo", "sueldo", "horas extras"},
		Message:    "Los temas laborales requieren un abogado especialista en derecho laboral.",
		Suggestion: "Contacta el Ministerio de Trabajo: 1800-000-468 o acude a la Inspectoría del Trabajo de tu ciudad.",
		Phone:      "1800000468",
	},
	{
		Category:   "familia",
		Keywords:   []string{"custodia", "pensión alimenticia", "alimentos", "tenencia", "visitas", "patria potestad", "adopción", "violencia intrafamiliar"},
		Message:    "Algunos temas de derecho de familia requieren un abogado especializado.",
		Suggestion: "Puedes acudir al Consejo de la Judicatura o buscar un abogado de familia. Línea de violencia: 1800-000-111. Nota: SÍ tramitamos divorcios por mutuo consentimiento ante notario.",
		Phone:      "1800000111",
	},
	{
		Category:   "tributario",
		Keywords:   []string{"impuestos", "sri", "declaración de impuestos", "iva", "impuesto a la renta", "ruc", "rise", "retención", "tributario"},
		Message:    "Los temas tributarios los maneja el SRI directamente.",
		Suggestion: "Contacta al SRI: 1700-774-774 o visita sri.gob.ec",
		Phone:      "1700774774",
	},
	{
		Category:   "migracion",
		Keywords:   []string{"visa", "migración", "deportación", "residencia", "permiso de trabajo", "refugio", "asilo", "pasaporte", "cédula extranjero"},
		Message:    "Los temas migratorios requieren un abogado especializado en migración.",
		Suggestion: "Contacta la Cancillería: (02) 299-3200 o el Ministerio de Gobierno para trámites migratorios.",
		Phone:      "022993200",
	},
	{
		Category:   "transito",
		Keywords:   []string{"multa de tránsito", "infracción", "licencia", "matriculación", "ant", "accidente de tránsito", "citv", "revisión vehicular"},
		Message:    "Las infracciones y trámites de tránsito los maneja la ANT.",
		Suggestion: "Contacta la ANT: (02) 398-4700 o visita ant.gob.ec. Para matriculación, acude a los centros de revisión.",
		Phone:      "023984700",
	},
}

// InScopeServices is what the bot may offer
var InScopeServices = []string{
	"Escrituras de compraventa de inmuebles",
	"Contratos de compraventa vehicular",
	"Poderes especiales y generales",
	"Poderes telemáticos desde el exterior",
	"Declaraciones juramentadas",
	"Autorizaciones de salida del país para menores",
	"Reconocimiento de firmas",
	"Promesas de compraventa",
	"Posesiones efectivas",
	"Cesión de derechos",
	"Calculadora de gastos notariales, alcabalas, registro y consejo provincial",
	"Presupuestador de compra/venta de inmuebles",
	"Cotizador de contrato vehicular",
	"Divorcio por mutuo consentimiento ante notario",
}

// SystemContext is handed to the automation's language model as its
// standing instructions
var SystemContext = `Eres el asistente virtual de Abogados Online Ecuador, una plataforma legal tecnológica en Quito, Ecuador.

SERVICIOS QUE OFRECES:
- ` + strings.Join(InScopeServices, "\n- ") + `

REGLAS:
1. Solo respondes sobre servicios notariales y trámites legales que ofrece la plataforma.
2. Si te preguntan sobre temas fuera de alcance (penal, laboral, tributario, migración, tránsito), indica amablemente que no manejas esos temas y sugiere dónde acudir. EXCEPCIÓN: SÍ tramitamos divorcios por mutuo consentimiento ante notario.
3. Siempre ofrece calcular costos o agendar una cita cuando sea relevante.
4. Usa lenguaje profesional pero accesible. Tutea al usuario.
5. El SBU vigente es $482 (2026).
6. Nunca inventes datos. Si no sabes algo, sugiere contactar directamente.
7. Siempre cierra con un CTA: calcular costos, agendar cita, o enviar más información.

CONTACTO:
- WhatsApp: ` + ContactWhatsApp + `
- Email: ` + ContactEmail + `
- Dirección: ` + ContactAddress + `
- Web: abogadosonlineecuador.com`

// DetectOutOfScope returns the first rule with a keyword in text, or nil.
// Keywords match whole words only, so "ant" does not fire on "antes" and
// "iva" does not fire on "privada".
func DetectOutOfScope(text string) *ScopeRule {
	words := " " + strings.Join(normalizeWords(text), " ") + " "
	for i := range OutOfScopeRules {
		for _, kw := range OutOfScopeRules[i].Keywords {
			if strings.Contains(words, " "+strings.Join(normalizeWords(kw), " ")+" ") {
				return &OutOfScopeRules[i]
			}
		}
	}
	return nil
}

func normalizeWords(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
