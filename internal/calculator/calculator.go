// Package calculator implements the Ecuadorian notarial, municipal, registry
// and vehicle transfer fee formulas. Every function is pure; amounts are USD
// and rounded to cents the same way the notaries' own worksheets do.
package calculator

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

const (
	// SBU is the 2026 Salario Básico Unificado, the unit of the notarial tables.
	SBU = 482.0
	// IVARate is the VAT applied to notarial services.
	IVARate = 0.15
	// CostoFoja is the price of one certified copy page.
	CostoFoja = 1.79
)

var (
	ErrNegativeAmount = errors.New("el monto no puede ser negativo")
	ErrUnknownTramite = errors.New("tipo de trámite no soportado")
	ErrUnknownItem    = errors.New("ítem adicional no soportado")
	ErrInvalidDates   = errors.New("fechas inválidas")
	ErrTooManyFirmas  = errors.New("numFirmas debe estar entre 0 y 10")
)

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// tramo is one row of an SBU-indexed fee table: amounts up to hasta pay factor×SBU.
type tramo struct {
	hasta  float64
	factor float64
}

// buscarTramo returns the first row whose upper bound covers monto. A value
// equal to a bound belongs to the lower bracket.
func buscarTramo(monto float64, tabla []tramo) (tramo, float64, bool) {
	desde := 0.0
	for _, t := range tabla {
		if monto <= t.hasta {
			return t, desde, true
		}
		desde = t.hasta
	}
	return tramo{}, desde, false
}

// miles formats an amount with thousands separators and no trailing zeros,
// e.g. 10000.01 -> "10,000.01".
func miles(v float64) string {
	s := strconv.FormatFloat(v, 'f', 2, 64)
	s = strings.TrimSuffix(s, ".00")
	intPart, frac, hasFrac := strings.Cut(s, ".")

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if hasFrac {
		b.WriteByte('.')
		b.WriteString(frac)
	}
	return b.String()
}

func pesos(v float64) string {
	return "$" + strconv.FormatFloat(v, 'f', 2, 64)
}
