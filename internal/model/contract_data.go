package model

import "strings"

// Estado civil values accepted by the contract form
const (
	EstadoSoltero      = "soltero"
	EstadoCasado       = "casado"
	EstadoDivorciado   = "divorciado"
	EstadoViudo        = "viudo"
	EstadoUnionDeHecho = "union_de_hecho"
)

// Comparecencia values
const (
	PropiosDerechos = "propios_derechos"
	Apoderado       = "apoderado"
)

// Antecedente values: how the seller acquired the vehicle
const (
	AntecedenteCompraventa = "compraventa"
	AntecedenteHerencia    = "herencia"
	AntecedenteDonacion    = "donacion"
	AntecedenteImportacion = "importacion"
)

// Vehiculo is the vehicle section of the contract form
type Vehiculo struct {
	Placa         string  `json:"placa" validate:"required,placa"`
	Marca         string  `json:"marca" validate:"required,min=2"`
	Modelo        string  `json:"modelo" validate:"required,min=1"`
	Anio          int     `json:"anio" validate:"required,anio"`
	Color         string  `json:"color" validate:"required,min=2"`
	Motor         string  `json:"motor" validate:"required,min=3"`
	Chasis        string  `json:"chasis" validate:"required,min=3"`
	Avaluo        float64 `json:"avaluo" validate:"gt=0"`
	ValorContrato float64 `json:"valorContrato" validate:"gt=0"`
	Tipo          string  `json:"tipo,omitempty"`
	Cilindraje    int     `json:"cilindraje,omitempty"`
	Carroceria    string  `json:"carroceria,omitempty"`
	Clase         string  `json:"clase,omitempty"`
	Pais          string  `json:"pais,omitempty"`
	Combustible   string  `json:"combustible,omitempty"`
	Pasajeros     int     `json:"pasajeros,omitempty"`
	Servicio      string  `json:"servicio,omitempty"`
	Tonelaje      string  `json:"tonelaje,omitempty"`
}

// Conyuge identifies a spouse or de facto partner
type Conyuge struct {
	Nombres string `json:"nombres"`
	Cedula  string `json:"cedula"`
}

// DatosApoderado identifies an attorney acting under a special power.
// Sub-forms carry no tags: the form posts empty defaults, and the rules
// depend on the parent's choices.
type DatosApoderado struct {
	Nombres      string `json:"nombres"`
	Cedula       string `json:"cedula"`
	NotariaPoder string `json:"notariaPoder"`
	FechaPoder   string `json:"fechaPoder"`
}

// RepresentanteLegal acts for a company
type RepresentanteLegal struct {
	Nombres       string `json:"nombres"`
	Cedula        string `json:"cedula"`
	TipoDocumento string `json:"tipoDocumento,omitempty"`
}

// Persona is one party of the contract
type Persona struct {
	Cedula             string              `json:"cedula" validate:"required,cedula"`
	Nombres            string              `json:"nombres" validate:"required,min=3"`
	Direccion          string              `json:"direccion" validate:"required,min=5"`
	Telefono           string              `json:"telefono" validate:"required,min=7"`
	Email              string              `json:"email" validate:"required,email"`
	EstadoCivil        string              `json:"estadoCivil" validate:"required,oneof=soltero casado divorciado viudo union_de_hecho"`
	Comparecencia      string              `json:"comparecencia" validate:"required,oneof=propios_derechos apoderado"`
	Sexo               string              `json:"sexo,omitempty" validate:"omitempty,oneof=M F"`
	Nacionalidad       string              `json:"nacionalidad,omitempty"`
	TipoDocumento      string              `json:"tipoDocumento,omitempty"`
	IncluirConyuge     bool                `json:"incluirConyuge,omitempty"`
	Conyuge            *Conyuge            `json:"conyuge,omitempty"`
	Apoderado          *DatosApoderado     `json:"apoderado,omitempty"`
	EsPersonaJuridica  bool                `json:"esPersonaJuridica,omitempty"`
	RepresentanteLegal *RepresentanteLegal `json:"representanteLegal,omitempty"`
}

// Casado reports whether the party has a spouse or de facto partner
func (p Persona) Casado() bool {
	return p.EstadoCivil == EstadoCasado || p.EstadoCivil == EstadoUnionDeHecho
}

// PorApoderado reports whether the party appears through an attorney
func (p Persona) PorApoderado() bool {
	return p.Comparecencia == Apoderado
}

// Femenino reports whether the party is grammatically feminine in the deed
func (p Persona) Femenino() bool {
	return p.Sexo == "F"
}

// Herencia holds the inheritance chain when the seller inherited the vehicle
type Herencia struct {
	CausanteNombre             string `json:"causanteNombre"`
	CausanteFechaFallecimiento string `json:"causanteFechaFallecimiento"`
	PosEfectivaNotaria         string `json:"posEfectivaNotaria"`
	PosEfectivaFecha           string `json:"posEfectivaFecha"`
	HerederosLista             string `json:"herederosLista,omitempty"`
	Parentesco                 string `json:"parentesco,omitempty"`
}

// ContratoVehicular is the full vehicle sale form stored in Contract.Data
type ContratoVehicular struct {
	Vehiculo  Vehiculo `json:"vehiculo"`
	Vendedor  Persona  `json:"vendedor"`
	Comprador Persona  `json:"comprador"`

	TipoAntecedente string    `json:"tipoAntecedente,omitempty" validate:"omitempty,oneof=compraventa herencia donacion importacion"`
	Herencia        *Herencia `json:"herencia,omitempty"`

	CuvNumero         string `json:"cuvNumero,omitempty"`
	CuvFecha          string `json:"cuvFecha,omitempty"`
	FechaInscripcion  string `json:"fechaInscripcion,omitempty"`
	MatriculaVigencia string `json:"matriculaVigencia,omitempty"`

	FormaPago             string `json:"formaPago,omitempty"`
	FechaPago             string `json:"fechaPago,omitempty"`
	EntidadFinancieraPago string `json:"entidadFinancieraPago,omitempty"`
	ComprobantePago       string `json:"comprobantePago,omitempty"`

	FechaEntrega           string `json:"fechaEntrega,omitempty"`
	LugarEntrega           string `json:"lugarEntrega,omitempty"`
	PlazoTransferenciaDias int    `json:"plazoTransferenciaDias,omitempty" validate:"omitempty,min=1,max=365"`

	TieneObservaciones bool   `json:"tieneObservaciones,omitempty"`
	ObservacionesTexto string `json:"observacionesTexto,omitempty"`

	Ciudad string `json:"ciudad,omitempty"`
}

// Precio is the amount written into the deed: the agreed price, or the
// fiscal appraisal when no price was entered
func (c *ContratoVehicular) Precio() float64 {
	if c.Vehiculo.ValorContrato > 0 {
		return c.Vehiculo.ValorContrato
	}
	return c.Vehiculo.Avaluo
}

// VendedorRequiresConyuge reports whether the seller's spouse must sign.
// Marital property needs both spouses to sell; companies have no spouse.
func (c *ContratoVehicular) VendedorRequiresConyuge() bool {
	return c.Vendedor.Casado() && !c.Vendedor.EsPersonaJuridica
}

// CompradorIncludesConyuge reports whether the buyer opted to add a spouse
func (c *ContratoVehicular) CompradorIncludesConyuge() bool {
	return c.Comprador.Casado() && c.Comprador.IncluirConyuge
}

// CountFirmas returns the number of signatures the deed needs: both
// parties, any spouse that signs, and the registration copy.
func (c *ContratoVehicular) CountFirmas() int {
	firmas := 2
	if c.CompradorIncludesConyuge() {
		firmas++
	}
	if c.VendedorRequiresConyuge() && c.Vendedor.Conyuge != nil && strings.TrimSpace(c.Vendedor.Conyuge.Cedula) != "" {
		firmas++
	}
	// matrícula
	firmas++
	return firmas
}

// CiudadOrDefault returns the city named in the deed
func (c *ContratoVehicular) CiudadOrDefault() string {
	if strings.TrimSpace(c.Ciudad) != "" {
		return c.Ciudad
	}
	return "Quito"
}
