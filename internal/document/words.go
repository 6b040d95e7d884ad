package document

import (
	"fmt"
	"math"
	"strings"
	"time"
)

var (
	unidades = []string{"", "uno", "dos", "tres", "cuatro", "cinco", "seis", "siete", "ocho", "nueve",
		"diez", "once", "doce", "trece", "catorce", "quince", "dieciséis", "diecisiete", "dieciocho", "diecinueve",
		"veinte", "veintiuno", "veintidós", "veintitrés", "veinticuatro", "veinticinco", "veintiséis", "veintisiete", "veintiocho", "veintinueve"}
	decenas  = []string{"", "", "", "treinta", "cuarenta", "cincuenta", "sesenta", "setenta", "ochenta", "noventa"}
	centenas = []string{"", "ciento", "doscientos", "trescientos", "cuatrocientos", "quinientos",
		"seiscientos", "setecientos", "ochocientos", "novecientos"}
	meses = []string{"enero", "febrero", "marzo", "abril", "mayo", "junio", "julio", "agosto",
		"septiembre", "octubre", "noviembre", "diciembre"}
)

func menorMil(n int64) string {
	switch {
	case n == 0:
		return ""
	case n == 100:
		return "cien"
	}
	var parts []string
	if c := n / 100; c > 0 {
		parts = append(parts, centenas[c])
	}
	resto := n % 100
	switch {
	case resto == 0:
	case resto < 30:
		parts = append(parts, unidades[resto])
	default:
		d, u := resto/10, resto%10
		if u == 0 {
			parts = append(parts, decenas[d])
		} else {
			parts = append(parts, decenas[d]+" y "+unidades[u])
		}
	}
	return strings.Join(parts, " ")
}

// apocope shortens a trailing "uno" before mil or millones
func apocope(s string) string {
	switch {
	case strings.HasSuffix(s, "veintiuno"):
		return strings.TrimSuffix(s, "veintiuno") + "veintiún"
	case strings.HasSuffix(s, "uno"):
		return strings.TrimSuffix(s, "uno") + "un"
	}
	return s
}

// NumeroEnLetras spells a non-negative integer in Spanish
func NumeroEnLetras(n int64) string {
	if n <= 0 {
		return "cero"
	}
	var parts []string
	if m := n / 1_000_000; m > 0 {
		if m == 1 {
			parts = append(parts, "un millón")
		} else {
			parts = append(parts, apocope(NumeroEnLetras(m))+" millones")
		}
		n %= 1_000_000
	}
	if k := n / 1000; k > 0 {
		if k == 1 {
			parts = append(parts, "mil")
		} else {
			parts = append(parts, apocope(menorMil(k))+" mil")
		}
		n %= 1000
	}
	if n > 0 {
		parts = append(parts, menorMil(n))
	}
	return strings.Join(parts, " ")
}

// FormatUSD formats an amount the way deeds print it: 14.800,00
func FormatUSD(v float64) string {
	cents := int64(math.Round(v * 100))
	entero, dec := cents/100, cents%100
	digits := fmt.Sprintf("%d", entero)
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	return fmt.Sprintf("%s,%02d", b.String(), dec)
}

// PrecioEnLetras writes a price in words followed by the figure:
// "CATORCE MIL OCHOCIENTOS con 50/100 DÓLARES DE LOS ESTADOS UNIDOS DE AMÉRICA (USD$ 14.800,50)"
func PrecioEnLetras(v float64) string {
	cents := int64(math.Round(v * 100))
	texto := strings.ToUpper(NumeroEnLetras(cents / 100))
	if c := cents % 100; c > 0 {
		texto += fmt.Sprintf(" con %02d/100", c)
	}
	return texto + " DÓLARES DE LOS ESTADOS UNIDOS DE AMÉRICA (USD$ " + FormatUSD(v) + ")"
}

// FechaEnLetras writes a deed date: "cuatro (4) días del mes de marzo del año dos mil veintiséis (2026)"
func FechaEnLetras(t time.Time) string {
	return fmt.Sprintf("%s (%d) días del mes de %s del año %s (%d)",
		NumeroEnLetras(int64(t.Day())), t.Day(), meses[t.Month()-1], NumeroEnLetras(int64(t.Year())), t.Year())
}

// FechaCorta writes "4 de marzo de 2026"
func FechaCorta(t time.Time) string {
	return fmt.Sprintf("%d de %s de %d", t.Day(), meses[t.Month()-1], t.Year())
}
