// Package cuv extracts vehicle, owner and legal-status data from the text of
// a Certificado Único Vehicular issued by the Agencia Nacional de Tránsito.
//
// The certificate is laid out in two columns, so once flattened to text the
// labels and their values end up interleaved. Values are therefore recovered
// in two passes: labels that keep their value on the same line are read
// directly, and the remaining cells of the vehicle block are classified by
// shape (VIN, plate, year, displacement...) or by known vocabularies.
package cuv

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// Aviso is a legal warning block of the certificate (gravámenes, bloqueos)
type Aviso struct {
	Tiene   bool   `json:"tiene"`
	Detalle string `json:"detalle"`
}

// Infracciones summarises the pending traffic fines
type Infracciones struct {
	Tiene    bool    `json:"tiene"`
	Cantidad int     `json:"cantidad"`
	Total    float64 `json:"total"`
}

// Result holds every field found in a certificate. Fields that could not be
// located are left at their zero value.
type Result struct {
	Placa       string `json:"placa,omitempty"`
	VIN         string `json:"vin,omitempty"`
	Marca       string `json:"marca,omitempty"`
	Modelo      string `json:"modelo,omitempty"`
	Anio        int    `json:"anio,omitempty"`
	Color       string `json:"color,omitempty"`
	Motor       string `json:"motor,omitempty"`
	Tipo        string `json:"tipo,omitempty"`
	Cilindraje  int    `json:"cilindraje,omitempty"`
	Carroceria  string `json:"carroceria,omitempty"`
	Clase       string `json:"clase,omitempty"`
	Pais        string `json:"pais,omitempty"`
	Combustible string `json:"combustible,omitempty"`
	Pasajeros   int    `json:"pasajeros,omitempty"`
	Servicio    string `json:"servicio,omitempty"`
	Tonelaje    string `json:"tonelaje,omitempty"`
	RAMV        string `json:"ramv,omitempty"`

	CUVNumero string `json:"cuvNumero,omitempty"`
	CUVFecha  string `json:"cuvFecha,omitempty"`

	CedulaPropietario  string `json:"cedulaPropietario,omitempty"`
	NombresPropietario string `json:"nombresPropietario,omitempty"`

	Gravamenes   Aviso        `json:"gravamenes"`
	Bloqueos     Aviso        `json:"bloqueos"`
	Infracciones Infracciones `json:"infracciones"`
}

// Empty reports whether nothing identifying a vehicle was found
func (r Result) Empty() bool {
	return r.Placa == "" && r.VIN == "" && r.Marca == "" && r.Modelo == ""
}

const noRegistrado = "NO REGISTRADO"

var (
	reVIN         = regexp.MustCompile(`\b([0-9A-HJ-NPR-Z]{17})\b`)
	reVINLoose    = regexp.MustCompile(`\b([A-Z0-9]{17})\b`)
	rePlacaAny    = regexp.MustCompile(`\b([A-Z]{3}-?\d{3,4})\b`)
	rePlacaNorm   = regexp.MustCompile(`^([A-Z]{2,3})(\d{3,4})$`)
	reCertifica   = regexp.MustCompile(`(?i)certifica los siguientes datos`)
	rePropietario = regexp.MustCompile(`(?i)DATOS\s+DEL\s+PROPIETARIO`)
	reMatricula   = regexp.MustCompile(`(?i)DATOS\s+DE\s+MATRICULACI[OÓ]N`)
	reCUVNumero   = regexp.MustCompile(`CUV-\d{4}-\d+`)
	reCUVFecha    = regexp.MustCompile(`\d{1,2} de [A-Za-zñÑ]+ de \d{4}(?: \d{1,2}:\d{2})?`)
	reCedula      = regexp.MustCompile(`(?i)CED\s*-?\s*(\d{10,13})`)
	reNombre      = regexp.MustCompile(`^[A-ZÁÉÍÓÚÑ\s]{6,}$`)
	reNombreSkip  = regexp.MustCompile(`(?i)^(CED|Documento|Propietario|Nombres)`)
	reGravamenes  = regexp.MustCompile(`(?is)Informaci[oó]n\s+de\s+Grav[aá]menes\s+Vigentes:\s*(.*?)(?:Informaci[oó]n\s+de\s+Bloqueos|$)`)
	reBloqueos    = regexp.MustCompile(`(?is)Informaci[oó]n\s+de\s+Bloqueos\s+Vigentes:\s*(.*?)(?:Historia|Infracciones|$)`)
	reInfLinea    = regexp.MustCompile(`(?i)CANTIDAD\s+DE\s+INFRACCIONES:.*`)
	reInfCantidad = regexp.MustCompile(`\b(\d{1,4})\s*$`)
	reMonto       = regexp.MustCompile(`\$\s*([\d.,]+)`)
	reEspacios    = regexp.MustCompile(`\s+`)
	reNoDigitos   = regexp.MustCompile(`\D`)

	// cell shapes inside the vehicle block, checked in this order
	rePlacaToken  = regexp.MustCompile(`^[A-Z]{2,3}-?\d{3,4}$`)
	reAnioToken   = regexp.MustCompile(`^(19|20)\d{2}$`)
	reTonelaje    = regexp.MustCompile(`^\d*[.,]\d+$`)
	rePasajeros   = regexp.MustCompile(`^\d{1,2}$`)
	reCilindraje  = regexp.MustCompile(`^\d{3,5}$`)
	reRAMV        = regexp.MustCompile(`^[A-Z]{1,2}\d{6,8}$`)
	reMotor       = regexp.MustCompile(`^[A-Z0-9]{6,20}$`)
	reMarcaToken  = regexp.MustCompile(`^[A-Z][A-Z .&-]{1,39}$`)
	reMarcaPrefix = regexp.MustCompile(`^(VIN|MODELO|MARCA|PASAJEROS|SERVICIO|CARROCERIA|COLOR|PLACAS|CLASE|TIPO|CILINDRAJE|RANV)\b`)
	reMarcaRuido  = regexp.MustCompile(`CERTIFICADO|CUV-|AGENCIA|TRANSITO|REGISTRO|INFORMACION|DATOS DEL`)
	reModeloRuido = regexp.MustCompile(`(?i)certifica|Registro|Nacional|Agencia|Fecha|Vigencia|Solicitud|Comprobante|Enero|Febrero|Marzo|Abril|Mayo|Junio|Julio|Agosto|Septiembre|Octubre|Noviembre|Diciembre`)
)

// inline labels whose value sits on the same line
var (
	lblMarca       = inlineLabel(`Marca`)
	lblModelo      = inlineLabel(`Modelo`)
	lblAnio        = inlineLabel(`A[ñn]o(?:[ \t]+de[ \t]+Modelo)?`)
	lblColor       = inlineLabel(`Color`)
	lblMotor       = inlineLabel(`N[uú]mero[ \t]+(?:de[ \t]+)?Motor`)
	lblCilindraje  = inlineLabel(`Cilindraje(?:[ \t]*\(cc\))?`)
	lblCarroceria  = inlineLabel(`Carrocer[ií]a`)
	lblCombustible = inlineLabel(`Combustible`)
	lblClase       = inlineLabel(`Clase`)
	lblTipo        = inlineLabel(`Tipo(?:[ \t]+de[ \t]+Veh[ií]culo)?`)
	lblServicio    = inlineLabel(`Servicio`)
	lblPais        = inlineLabel(`Pa[ií]s(?:[ \t]+de)?[ \t]+Origen`)
	lblPasajeros   = inlineLabel(`Pasajeros`)
	lblTonelaje    = inlineLabel(`Tonelaje(?:[ \t]*\(t\))?`)
	lblRAMV        = inlineLabel(`RA[NM]V(?:[ \t]*/[ \t]*CPN)?`)
)

func inlineLabel(label string) *regexp.Regexp {
	return regexp.MustCompile(`(?im)(?:^|\t)[ \t]*` + label + `[ \t]*:[ \t]*([^\t\n]+)`)
}

func inlineValue(re *regexp.Regexp, text string) string {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	v := strings.TrimSpace(m[1])
	if v == "" || strings.HasSuffix(v, ":") || strings.EqualFold(v, noRegistrado) {
		return ""
	}
	return v
}

// Parse extracts every recognisable field from certificate text. It never
// fails: unknown or garbled input simply yields an empty Result.
func Parse(text string) Result {
	var r Result

	section := vehicleSection(text)

	r.VIN = firstGroup(reVIN, text)
	if r.VIN == "" {
		r.VIN = firstGroup(reVINLoose, text)
	}

	r.Marca = strings.ToUpper(inlineValue(lblMarca, section))
	r.Modelo = inlineValue(lblModelo, text)
	if v := inlineValue(lblAnio, text); v != "" && validYear(v) {
		r.Anio, _ = strconv.Atoi(v)
	}
	r.Color = strings.ToUpper(inlineValue(lblColor, text))
	r.Motor = inlineValue(lblMotor, text)
	if v := reNoDigitos.ReplaceAllString(inlineValue(lblCilindraje, text), ""); v != "" {
		r.Cilindraje, _ = strconv.Atoi(v)
	}
	r.Carroceria = inlineValue(lblCarroceria, text)
	r.Combustible = inlineValue(lblCombustible, text)
	r.Clase = inlineValue(lblClase, text)
	if v := inlineValue(lblTipo, text); !strings.Contains(strings.ToUpper(v), "LIVIANO") && !strings.Contains(strings.ToUpper(v), "PESADO") {
		r.Tipo = v
	}
	r.Servicio = inlineValue(lblServicio, text)
	r.Pais = inlineValue(lblPais, text)
	if n, err := strconv.Atoi(inlineValue(lblPasajeros, text)); err == nil && n > 0 && n < 100 {
		r.Pasajeros = n
	}
	if v := inlineValue(lblTonelaje, text); v != "" {
		r.Tonelaje = normalizeDecimal(v)
	}
	r.RAMV = inlineValue(lblRAMV, text)

	rest := classifyCells(&r, cells(section))

	if r.Marca == "" {
		for i, tok := range rest {
			if likelyBrand(tok) {
				r.Marca = strings.Join(strings.Fields(tok), " ")
				rest = append(rest[:i:i], rest[i+1:]...)
				break
			}
		}
	}
	if r.Modelo == "" {
		for _, tok := range rest {
			if likelyModel(tok) {
				r.Modelo = tok
				break
			}
		}
	}

	if r.Placa == "" {
		for _, m := range rePlacaAny.FindAllString(text, -1) {
			if r.VIN == "" || !strings.Contains(r.VIN, m) {
				r.Placa = normalizePlaca(m)
				break
			}
		}
	}

	r.Tipo = strings.ToUpper(r.Tipo)
	r.Servicio = strings.ToUpper(r.Servicio)
	r.Carroceria = titleCase(r.Carroceria)
	r.Clase = titleCase(r.Clase)
	r.Pais = titleCase(r.Pais)
	r.Combustible = titleCase(r.Combustible)

	r.CUVNumero = reCUVNumero.FindString(text)
	r.CUVFecha = reCUVFecha.FindString(text)

	if m := reCedula.FindStringSubmatch(text); m != nil {
		r.CedulaPropietario = m[1][:10]
	}
	r.NombresPropietario = ownerName(text)

	r.Gravamenes = aviso(reGravamenes, text)
	r.Bloqueos = aviso(reBloqueos, text)
	r.Infracciones = infracciones(text)

	return r
}

// vehicleSection narrows the text to the block between the certification
// header and the owner data. Without a header the whole text is used.
func vehicleSection(text string) string {
	section := text
	if loc := reCertifica.FindStringIndex(text); loc != nil {
		section = text[loc[1]:]
	}
	if loc := rePropietario.FindStringIndex(section); loc != nil {
		section = section[:loc[0]]
	}
	return section
}

// cells splits the two-column block into individual values, dropping labels
// and empty placeholders.
func cells(section string) []string {
	var out []string
	for _, line := range strings.Split(section, "\n") {
		for _, cell := range strings.Split(line, "\t") {
			cell = strings.TrimSpace(cell)
			if cell == "" || strings.Contains(cell, ":") || strings.EqualFold(cell, noRegistrado) {
				continue
			}
			out = append(out, cell)
		}
	}
	return out
}

// classifyCells assigns cells to empty fields by shape or vocabulary and
// returns the cells it could not place.
func classifyCells(r *Result, tokens []string) []string {
	var rest []string
	for _, tok := range tokens {
		up := strings.ToUpper(tok)
		switch {
		case tok == r.VIN:
		case rePlacaToken.MatchString(tok):
			if r.Placa == "" {
				r.Placa = normalizePlaca(tok)
			}
		case reAnioToken.MatchString(tok) && validYear(tok) && (r.Anio == 0 || strconv.Itoa(r.Anio) == tok):
			r.Anio, _ = strconv.Atoi(tok)
		case reTonelaje.MatchString(tok):
			if r.Tonelaje == "" {
				r.Tonelaje = normalizeDecimal(tok)
			}
		case rePasajeros.MatchString(tok):
			if n, _ := strconv.Atoi(tok); r.Pasajeros == 0 && n > 0 {
				r.Pasajeros = n
			}
		case reCilindraje.MatchString(tok):
			if r.Cilindraje == 0 {
				r.Cilindraje, _ = strconv.Atoi(tok)
			}
		case reRAMV.MatchString(tok):
			if r.RAMV == "" {
				r.RAMV = tok
			}
		case reMotor.MatchString(tok) && hasLetterAndDigit(tok):
			if r.Motor == "" {
				r.Motor = tok
			}
		case colores[up]:
			setIfEmpty(&r.Color, up)
		case marcas[up]:
			setIfEmpty(&r.Marca, up)
		case servicios[up]:
			setIfEmpty(&r.Servicio, up)
		case carrocerias[up]:
			setIfEmpty(&r.Carroceria, up)
		case combustibles[up]:
			setIfEmpty(&r.Combustible, up)
		case clases[up]:
			setIfEmpty(&r.Clase, up)
		case tipos[up]:
			setIfEmpty(&r.Tipo, up)
		case paises[up]:
			setIfEmpty(&r.Pais, up)
		default:
			rest = append(rest, tok)
		}
	}
	return rest
}

func setIfEmpty(field *string, v string) {
	if *field == "" {
		*field = v
	}
}

func likelyBrand(tok string) bool {
	v := strings.ToUpper(strings.Join(strings.Fields(tok), " "))
	if v != tok || !reMarcaToken.MatchString(v) {
		return false
	}
	return !reMarcaPrefix.MatchString(v) && !reMarcaRuido.MatchString(v)
}

// likelyModel accepts upper-case designations carrying a digit and a
// separator, such as "LUV D-MAX 2.4L CD TM 4X2".
func likelyModel(tok string) bool {
	if len(tok) < 5 || strings.ToUpper(tok) != tok || reModeloRuido.MatchString(tok) {
		return false
	}
	if !strings.ContainsAny(tok, " -") {
		return false
	}
	return hasLetterAndDigit(tok)
}

func ownerName(text string) string {
	loc := rePropietario.FindStringIndex(text)
	if loc == nil {
		return ""
	}
	block := text[loc[1]:]
	if end := reMatricula.FindStringIndex(block); end != nil {
		block = block[:end[0]]
	}
	for _, line := range strings.Split(block, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasSuffix(line, ":") || reNombreSkip.MatchString(line) {
			continue
		}
		if unicode.IsDigit(rune(line[0])) || strings.Contains(strings.ToUpper(line), noRegistrado) {
			continue
		}
		if reNombre.MatchString(line) && strings.Contains(line, " ") {
			return titleCase(line)
		}
	}
	return ""
}

func aviso(re *regexp.Regexp, text string) Aviso {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return Aviso{}
	}
	detalle := strings.TrimSpace(reEspacios.ReplaceAllString(m[1], " "))
	return Aviso{
		Tiene:   detalle != "" && !strings.Contains(strings.ToUpper(detalle), "NO TIENE REGISTRADOS"),
		Detalle: detalle,
	}
}

func infracciones(text string) Infracciones {
	line := reInfLinea.FindString(text)
	if line == "" {
		return Infracciones{}
	}
	var inf Infracciones
	if m := reInfCantidad.FindStringSubmatch(line); m != nil {
		inf.Cantidad, _ = strconv.Atoi(m[1])
	}
	for _, m := range reMonto.FindAllStringSubmatch(line, -1) {
		// 1.488,60 -> 1488.60
		raw := strings.Replace(strings.ReplaceAll(m[1], ".", ""), ",", ".", 1)
		if v, err := strconv.ParseFloat(raw, 64); err == nil && v > inf.Total {
			inf.Total = v
		}
	}
	inf.Tiene = inf.Cantidad > 0
	return inf
}

func firstGroup(re *regexp.Regexp, text string) string {
	if m := re.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return ""
}

func normalizePlaca(raw string) string {
	clean := strings.ToUpper(strings.NewReplacer("-", "", " ", "").Replace(raw))
	if m := rePlacaNorm.FindStringSubmatch(clean); m != nil {
		return m[1] + "-" + m[2]
	}
	return strings.ToUpper(raw)
}

func normalizeDecimal(v string) string {
	v = strings.Replace(strings.TrimSpace(v), ",", ".", 1)
	if strings.HasPrefix(v, ".") {
		v = "0" + v
	}
	return v
}

func validYear(v string) bool {
	y, err := strconv.Atoi(v)
	return err == nil && y >= 1950 && y <= time.Now().Year()+1
}

func hasLetterAndDigit(s string) bool {
	return strings.IndexFunc(s, unicode.IsLetter) >= 0 && strings.IndexFunc(s, unicode.IsDigit) >= 0
}

func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}
