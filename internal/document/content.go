// Package document renders contracts and quotes and manages their delivery
package document

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/abogadosonline/aoe-api/internal/model"
)

// Blank fills a field the buyer left empty
const Blank = "_______________"

// Footer closes every generated document
const Footer = "Documento generado por Abogados Online Ecuador • www.abogadosonlineecuador.com"

// BlockKind says how a block is laid out
type BlockKind int

const (
	BlockCenteredBold BlockKind = iota
	BlockCentered
	BlockClauseTitle
	BlockParagraph
)

// Run is a span of text with one weight
type Run struct {
	Text string
	Bold bool
}

// Block is a paragraph of runs
type Block struct {
	Kind BlockKind
	Runs []Run
}

// Text returns the block without formatting
func (b Block) Text() string {
	var sb strings.Builder
	for _, r := range b.Runs {
		sb.WriteString(r.Text)
	}
	return sb.String()
}

// Signature is one line of the signature block
type Signature struct {
	Nombre string
	Cedula string
	Rol    string
}

// Contract is a format-independent contract body shared by the PDF and
// DOCX renderers
type Contract struct {
	Title      string
	Placa      string
	Blocks     []Block
	Signatures []Signature
}

// Text returns the whole contract as plain text
func (c *Contract) Text() string {
	var sb strings.Builder
	for _, b := range c.Blocks {
		sb.WriteString(b.Text())
		sb.WriteString("\n")
	}
	for _, s := range c.Signatures {
		fmt.Fprintf(&sb, "%s C.I. %s %s\n", strings.ToUpper(s.Nombre), s.Cedula, s.Rol)
	}
	return sb.String()
}

func b(s string) Run { return Run{Text: s, Bold: true} }
func n(s string) Run { return Run{Text: s} }

func para(runs ...Run) Block   { return Block{Kind: BlockParagraph, Runs: runs} }
func clause(t string) Block    { return Block{Kind: BlockClauseTitle, Runs: []Run{b(t)}} }
func centered(t string) Block  { return Block{Kind: BlockCentered, Runs: []Run{n(t)}} }
func centeredB(t string) Block { return Block{Kind: BlockCenteredBold, Runs: []Run{b(t)}} }

func upper(s string) string {
	if strings.TrimSpace(s) == "" {
		return Blank
	}
	return strings.ToUpper(strings.TrimSpace(s))
}

func orBlank(s string) string {
	if strings.TrimSpace(s) == "" {
		return Blank
	}
	return strings.TrimSpace(s)
}

func estadoCivilLabel(p model.Persona) string {
	switch p.EstadoCivil {
	case model.EstadoUnionDeHecho:
		return "en unión de hecho"
	case model.EstadoSoltero, model.EstadoCasado, model.EstadoDivorciado, model.EstadoViudo:
		if p.Femenino() {
			return strings.TrimSuffix(p.EstadoCivil, "o") + "a"
		}
		return p.EstadoCivil
	default:
		return p.EstadoCivil
	}
}

// genero picks the masculine or feminine form of a word
func genero(p model.Persona, m, f string) string {
	if p.Femenino() {
		return f
	}
	return m
}

func nacionalidad(p model.Persona) string {
	if strings.TrimSpace(p.Nacionalidad) != "" {
		return strings.ToLower(p.Nacionalidad)
	}
	return genero(p, "ecuatoriano", "ecuatoriana")
}

func compareciente(p model.Persona, prefix, rol string, conConyuge, last bool) Block {
	var runs []Run
	if p.EsPersonaJuridica {
		rep := model.RepresentanteLegal{}
		if p.RepresentanteLegal != nil {
			rep = *p.RepresentanteLegal
		}
		runs = append(runs,
			n(prefix+" la compañía "), b(upper(p.Nombres)),
			n(", con Registro Único de Contribuyentes No. "), b(p.Cedula),
			n(", legalmente representada por "), b(upper(rep.Nombres)),
			n(", portador de la cédula de ciudadanía No. "), b(orBlank(rep.Cedula)),
			n(", en su calidad de representante legal"),
		)
	} else {
		runs = append(runs,
			n(prefix+" "+genero(p, "el señor ", "la señora ")), b(upper(p.Nombres)),
			n(", de nacionalidad "+nacionalidad(p)+", "+genero(p, "portador", "portadora")+" de la cédula de ciudadanía No. "), b(p.Cedula),
			n(", de estado civil "+estadoCivilLabel(p)),
		)
		switch {
		case conConyuge && p.Conyuge != nil && strings.TrimSpace(p.Conyuge.Nombres) != "":
			runs = append(runs,
				n(", "+genero(p, "casado con la señora ", "casada con el señor ")), b(upper(p.Conyuge.Nombres)),
				n(", "+genero(p, "portadora", "portador")+" de la cédula de ciudadanía No. "), b(orBlank(p.Conyuge.Cedula)),
				n(", quienes comparecen por sus propios y personales derechos, así como por los que representan dentro de la sociedad conyugal"),
			)
		case p.PorApoderado() && p.Apoderado != nil:
			runs = append(runs,
				n(", debidamente "+genero(p, "representado", "representada")+" por "), b(upper(p.Apoderado.Nombres)),
				n(", portador de la cédula No. "), b(orBlank(p.Apoderado.Cedula)),
				n(", según poder especial otorgado ante la "+orBlank(p.Apoderado.NotariaPoder)+" el "+orBlank(p.Apoderado.FechaPoder)),
			)
		}
	}

	end := "."
	if !last {
		end = "; y,"
	}
	runs = append(runs,
		n(", "+genero(p, "domiciliado", "domiciliada")+" en "+orBlank(p.Direccion)+", quien en adelante se denominará "),
		b(`"`+rol+`"`),
		n(end),
	)
	return para(runs...)
}

func antecedentes(c *model.ContratoVehicular) []Block {
	vendedor := upper(c.Vendedor.Nombres)
	cuv := "según consta en el Certificado Único Vehicular emitido por la Agencia Nacional de Tránsito"
	if strings.TrimSpace(c.CuvNumero) != "" {
		cuv += " No. " + c.CuvNumero
		if strings.TrimSpace(c.CuvFecha) != "" {
			cuv += " de fecha " + c.CuvFecha
		}
	}

	var origen string
	switch c.TipoAntecedente {
	case model.AntecedenteHerencia:
		h := model.Herencia{}
		if c.Herencia != nil {
			h = *c.Herencia
		}
		origen = fmt.Sprintf("adquirió el vehículo por herencia de %s, fallecido el %s, conforme la posesión efectiva otorgada ante la %s el %s",
			upper(h.CausanteNombre), orBlank(h.CausanteFechaFallecimiento), orBlank(h.PosEfectivaNotaria), orBlank(h.PosEfectivaFecha))
		if strings.TrimSpace(h.HerederosLista) != "" {
			origen += ", en la que constan como herederos " + strings.TrimSpace(h.HerederosLista)
		}
	case model.AntecedenteDonacion:
		origen = "adquirió el vehículo por donación"
	case model.AntecedenteImportacion:
		origen = "adquirió el vehículo por importación directa"
	default:
		origen = "adquirió el vehículo por compraventa"
	}

	blocks := []Block{
		clause("PRIMERA: ANTECEDENTES.-"),
		para(n(fmt.Sprintf("1.1.- %s declara ser legítimo propietario del vehículo que se describe en el presente contrato, %s, el mismo que se encuentra libre de gravámenes, embargos y prohibiciones de enajenar. %s %s.", vendedor, cuv, vendedor, origen))),
	}
	matricula := "1.2.- El referido vehículo se encuentra con su matrícula en regla, conforme los registros de la Agencia Nacional de Tránsito del Ecuador"
	if strings.TrimSpace(c.MatriculaVigencia) != "" {
		matricula += ", vigente hasta " + c.MatriculaVigencia
	}
	blocks = append(blocks, para(n(matricula+".")))
	return blocks
}

func formaPago(c *model.ContratoVehicular) string {
	switch strings.ToLower(c.FormaPago) {
	case "transferencia":
		s := "mediante transferencia bancaria"
		if c.EntidadFinancieraPago != "" {
			s += " a través de " + c.EntidadFinancieraPago
		}
		if c.ComprobantePago != "" {
			s += ", comprobante No. " + c.ComprobantePago
		}
		return s
	case "cheque":
		s := "mediante cheque"
		if c.EntidadFinancieraPago != "" {
			s += " girado contra " + c.EntidadFinancieraPago
		}
		return s
	case "credito", "crédito":
		return "mediante crédito otorgado por " + orBlank(c.EntidadFinancieraPago)
	default:
		return "en dinero en efectivo"
	}
}

// BuildContract lays out the vehicle sale deed for the given form
func BuildContract(c *model.ContratoVehicular, now time.Time) *Contract {
	v := c.Vehiculo
	precio := c.Precio()
	precioLetras := PrecioEnLetras(precio)
	ciudad := c.CiudadOrDefault()

	vendedorConyuge := c.VendedorRequiresConyuge() && c.Vendedor.Conyuge != nil && strings.TrimSpace(c.Vendedor.Conyuge.Nombres) != ""
	compradorConyuge := c.CompradorIncludesConyuge()

	lugar := "En la ciudad de " + ciudad
	if ciudad == "Quito" {
		lugar = "En la ciudad de San Francisco de Quito, Distrito Metropolitano, capital de la República del Ecuador"
	}

	servicio := v.Servicio
	if servicio == "" {
		servicio = "USO PARTICULAR"
	}

	blocks := []Block{
		centeredB("ABOGADOS ONLINE ECUADOR"),
		centered("Servicio legal digital independiente | Quito, Ecuador"),
		centeredB("CONTRATO DE COMPRAVENTA DE VEHÍCULO"),
		centeredB("CUANTÍA: USD$ " + FormatUSD(precio)),
		centered("COPIAS: DOS"),
		para(n(lugar+", a los "), b(FechaEnLetras(now)), n(", comparecen a la celebración del presente contrato de compraventa:")),
		compareciente(c.Vendedor, "1. Por una parte,", "EL VENDEDOR", vendedorConyuge, false),
		compareciente(c.Comprador, "2. Por otra parte,", "EL COMPRADOR", compradorConyuge, true),
		para(n("Los comparecientes, mayores de edad, hábiles y capaces para contratar y obligarse, libre y voluntariamente convienen en celebrar el presente contrato de compraventa de vehículo automotor al tenor de las siguientes cláusulas:")),
	}

	blocks = append(blocks, antecedentes(c)...)

	blocks = append(blocks,
		clause("SEGUNDA: OBJETO.-"),
		para(n("Por el presente contrato, EL VENDEDOR transfiere en favor de EL COMPRADOR, a título de venta, el dominio, posesión y todos los derechos que le corresponden sobre el siguiente vehículo automotor:")),
		para(b("PLACA: "), n(v.Placa+"   "), b("MARCA: "), n(v.Marca+"   "), b("MODELO: "), n(v.Modelo)),
		para(b("AÑO: "), n(strconv.Itoa(v.Anio)+"   "), b("COLOR: "), n(v.Color+"   "), b("SERVICIO: "), n(servicio)),
		para(b("NÚM. MOTOR: "), n(v.Motor+"   "), b("CHASIS/VIN: "), n(v.Chasis)),
	)
	if v.Clase != "" || v.Cilindraje > 0 {
		blocks = append(blocks, para(b("CLASE: "), n(orBlank(v.Clase)+"   "), b("CILINDRAJE: "), n(strconv.Itoa(v.Cilindraje)+" cc")))
	}

	pago := "3.1.- El precio de la presente compraventa es la suma de " + precioLetras + ", pagado " + formaPago(c)
	if c.FechaPago != "" {
		pago += " el " + c.FechaPago
	}
	blocks = append(blocks,
		clause("TERCERA: PRECIO Y FORMA DE PAGO.-"),
		para(n(pago+", valor que EL VENDEDOR declara haber recibido a su entera satisfacción por parte de EL COMPRADOR, otorgando el más completo y eficaz finiquito de pago.")),
		para(n("3.2.- Con la recepción del precio señalado, EL VENDEDOR se da por satisfecho y cancela toda obligación derivada de la presente compraventa.")),
		clause("CUARTA: ESTADO DEL VEHÍCULO Y GARANTÍAS.-"),
		para(n("4.1.- EL VENDEDOR declara expresamente que el vehículo se encuentra libre de todo gravamen, hipoteca, prenda, embargo, prohibición de enajenar o cualquier otra limitación de dominio vigente.")),
		para(n("4.2.- EL VENDEDOR garantiza el saneamiento por evicción del bien vendido, comprometiéndose a responder ante EL COMPRADOR por cualquier reclamo de terceros sobre la propiedad o dominio del vehículo.")),
		para(n("4.3.- EL COMPRADOR declara conocer el estado físico y mecánico del vehículo y manifiesta su total conformidad, renunciando expresamente a todo reclamo por vicios redhibitorios o defectos ocultos.")),
	)
	if c.TieneObservaciones && strings.TrimSpace(c.ObservacionesTexto) != "" {
		blocks = append(blocks, para(n("4.4.- Las partes dejan constancia de las siguientes observaciones: "+strings.TrimSpace(c.ObservacionesTexto)+".")))
	}
	if c.FechaEntrega != "" || c.LugarEntrega != "" {
		blocks = append(blocks, para(n(fmt.Sprintf("4.5.- El vehículo se entrega el %s en %s, junto con sus llaves y documentos habilitantes.", orBlank(c.FechaEntrega), orBlank(c.LugarEntrega)))))
	}

	gastos := "Todos los gastos que origine la transferencia de dominio del vehículo, incluyendo derechos de matrícula, especies valoradas, impuestos y demás tributos establecidos por la ley, serán cubiertos en su totalidad por EL COMPRADOR."
	if c.PlazoTransferenciaDias > 0 {
		gastos += fmt.Sprintf(" EL COMPRADOR se obliga a inscribir la transferencia en un plazo de %s (%d) días contados desde la firma del presente contrato.", NumeroEnLetras(int64(c.PlazoTransferenciaDias)), c.PlazoTransferenciaDias)
	}
	blocks = append(blocks,
		clause("QUINTA: GASTOS.-"),
		para(n(gastos)),
		clause("SEXTA: JURISDICCIÓN Y COMPETENCIA.-"),
		para(n("Para todos los efectos legales derivados del presente contrato, las partes se someten expresamente a los jueces competentes de la ciudad de "+ciudad+", renunciando a fuero especial que pudieren tener o corresponderles.")),
		clause("SÉPTIMA: ACEPTACIÓN.-"),
		para(n("Las partes libre y voluntariamente aceptan íntegramente el contenido del presente contrato, declarando que sus cláusulas han sido redactadas de común acuerdo y son expresión fiel de su voluntad. El presente instrumento se extiende en dos (2) ejemplares de igual tenor y valor, uno para cada parte.")),
		clause("OCTAVA: CUANTÍA.-"),
		para(n("La cuantía de la presente compraventa asciende a la suma de "+precioLetras+".")),
		para(n("En fe de lo cual, firman las partes en el lugar y fecha indicados en el encabezamiento del presente contrato.")),
	)

	return &Contract{
		Title:      "CONTRATO DE COMPRAVENTA DE VEHÍCULO",
		Placa:      v.Placa,
		Blocks:     blocks,
		Signatures: signatures(c, vendedorConyuge, compradorConyuge),
	}
}

func partySignature(p model.Persona, rol string) Signature {
	switch {
	case p.EsPersonaJuridica && p.RepresentanteLegal != nil:
		return Signature{Nombre: p.RepresentanteLegal.Nombres, Cedula: orBlank(p.RepresentanteLegal.Cedula), Rol: "REPRESENTANTE LEGAL DE " + rol}
	case p.PorApoderado() && p.Apoderado != nil:
		return Signature{Nombre: p.Apoderado.Nombres, Cedula: orBlank(p.Apoderado.Cedula), Rol: "APODERADO DE " + rol}
	default:
		return Signature{Nombre: p.Nombres, Cedula: p.Cedula, Rol: rol}
	}
}

func signatures(c *model.ContratoVehicular, vendedorConyuge, compradorConyuge bool) []Signature {
	sigs := []Signature{partySignature(c.Vendedor, "EL VENDEDOR")}
	if vendedorConyuge {
		sigs = append(sigs, Signature{Nombre: c.Vendedor.Conyuge.Nombres, Cedula: orBlank(c.Vendedor.Conyuge.Cedula), Rol: "CÓNYUGE DEL VENDEDOR"})
	}
	sigs = append(sigs, partySignature(c.Comprador, "EL COMPRADOR"))
	if compradorConyuge && c.Comprador.Conyuge != nil && strings.TrimSpace(c.Comprador.Conyuge.Nombres) != "" {
		sigs = append(sigs, Signature{Nombre: c.Comprador.Conyuge.Nombres, Cedula: orBlank(c.Comprador.Conyuge.Cedula), Rol: "CÓNYUGE DEL COMPRADOR"})
	}
	return sigs
}
