package validation

import (
	"strings"
	"unicode/utf8"

	"github.com/abogadosonline/aoe-api/internal/model"
	"github.com/go-playground/validator/v10"
)

// MinObservaciones is the shortest accepted observations text
const MinObservaciones = 5

func report(sl validator.StructLevel, value interface{}, field, msg string) {
	sl.ReportError(value, field, field, "custom", msg)
}

func tooShort(s string, min int) bool {
	return utf8.RuneCountInString(strings.TrimSpace(s)) < min
}

func badCedula(s string) bool {
	return !reCedula.MatchString(strings.TrimSpace(s))
}

// personaRules applies the rules that depend on how a party appears
func personaRules(sl validator.StructLevel) {
	p := sl.Current().Interface().(model.Persona)

	if reRUC.MatchString(p.Cedula) && !p.EsPersonaJuridica {
		report(sl, p.Cedula, "cedula", "Cedula debe tener 10 digitos")
	}

	if p.PorApoderado() {
		a := p.Apoderado
		if a == nil {
			a = &model.DatosApoderado{}
		}
		if tooShort(a.Nombres, 3) {
			report(sl, a.Nombres, "apoderado.nombres", "Nombre del apoderado requerido")
		}
		if badCedula(a.Cedula) {
			report(sl, a.Cedula, "apoderado.cedula", "Cedula del apoderado debe tener 10 digitos")
		}
		if tooShort(a.NotariaPoder, 3) {
			report(sl, a.NotariaPoder, "apoderado.notariaPoder", "Notaria del poder requerida")
		}
		if tooShort(a.FechaPoder, 5) {
			report(sl, a.FechaPoder, "apoderado.fechaPoder", "Fecha del poder requerida")
		}
	}

	if p.EsPersonaJuridica {
		r := p.RepresentanteLegal
		if r == nil || tooShort(r.Nombres, 3) || badCedula(r.Cedula) {
			report(sl, r, "representanteLegal", "Representante legal requerido para persona juridica")
		}
	}
}

// conyugeRules reports a missing or incomplete spouse under prefix
func conyugeRules(sl validator.StructLevel, prefix string, c *model.Conyuge) {
	if c == nil {
		c = &model.Conyuge{}
	}
	if tooShort(c.Nombres, 3) {
		report(sl, c.Nombres, prefix+".conyuge.nombres", "Nombre del conyuge requerido")
	}
	if badCedula(c.Cedula) {
		report(sl, c.Cedula, prefix+".conyuge.cedula", "Cedula del conyuge debe tener 10 digitos")
	}
}

// contratoRules applies the rules that compare both parties or depend on
// optional sections of the form
func contratoRules(sl validator.StructLevel) {
	c := sl.Current().Interface().(model.ContratoVehicular)

	// The seller's spouse always signs; the buyer's only when opted in
	if c.VendedorRequiresConyuge() {
		conyugeRules(sl, "vendedor", c.Vendedor.Conyuge)
	}
	if c.CompradorIncludesConyuge() {
		conyugeRules(sl, "comprador", c.Comprador.Conyuge)
	}

	if c.Comprador.EsPersonaJuridica {
		report(sl, c.Comprador.EsPersonaJuridica, "comprador.esPersonaJuridica", "El comprador debe ser persona natural")
	}

	if c.TipoAntecedente == model.AntecedenteHerencia {
		h := c.Herencia
		if h == nil || tooShort(h.CausanteNombre, 3) || strings.TrimSpace(h.CausanteFechaFallecimiento) == "" ||
			strings.TrimSpace(h.PosEfectivaNotaria) == "" || strings.TrimSpace(h.PosEfectivaFecha) == "" {
			report(sl, h, "herencia", "Datos de la posesion efectiva requeridos")
		}
	}

	if c.TieneObservaciones && tooShort(c.ObservacionesTexto, MinObservaciones) {
		report(sl, c.ObservacionesTexto, "observacionesTexto", "Describa las observaciones del vehiculo")
	}
}
