package cuv

func set(values ...string) map[string]bool {
	m := make(map[string]bool, len(values))
	for _, v := range values {
		m[v] = true
	}
	return m
}

var marcas = set(
	"CHEVROLET", "TOYOTA", "KIA", "HYUNDAI", "NISSAN", "MAZDA", "FORD", "VOLKSWAGEN",
	"RENAULT", "SUZUKI", "MITSUBISHI", "HONDA", "SUBARU", "PEUGEOT", "CITROEN", "FIAT",
	"JEEP", "DODGE", "CHRYSLER", "RAM", "BMW", "MERCEDES-BENZ", "MERCEDES BENZ", "AUDI",
	"VOLVO", "CHERY", "GREAT WALL", "HAVAL", "JAC", "BYD", "GEELY", "CHANGAN", "DFSK",
	"SHINERAY", "FOTON", "HINO", "ISUZU", "DAIHATSU", "SSANGYONG", "LAND ROVER", "MINI",
	"PORSCHE", "LEXUS", "INFINITI", "ACURA", "SKODA", "SEAT", "OPEL", "DAEWOO", "LADA",
	"GAZ", "ZX AUTO", "CHANGHE", "HAFEI", "ZOTYE", "LIFAN", "WULING", "MAXUS", "MG",
)

var colores = set(
	"PLATEADO", "BLANCO", "NEGRO", "ROJO", "AZUL", "GRIS", "VERDE", "AMARILLO", "DORADO",
	"CAFE", "NARANJA", "BEIGE", "CREMA", "CELESTE", "PLOMO", "VINO", "MARRON", "ROSADO",
	"TOMATE", "BRONCE", "CHAMPAGNE", "PLATA", "GRAFITO", "TURQUESA", "MORADO", "PURPURA",
	"LILA", "ARENA", "HUESO", "PERLA", "OCRE",
)

var tipos = set(
	"DOBLE CABINA", "CABINA SIMPLE", "CABINA DOBLE", "SEDAN", "HATCHBACK", "STATION WAGON",
	"COUPE", "CONVERTIBLE", "SUV", "FURGONETA", "PANEL", "TANQUERO", "VOLQUETA",
	"PLATAFORMA", "CHASIS", "BUS", "MINIBUS",
)

var carrocerias = set("METALICA", "METÁLICA", "FIBRA", "MIXTA", "MADERA")

var combustibles = set(
	"GASOLINA", "DIESEL", "DIÉSEL", "GAS", "ELECTRICO", "ELÉCTRICO", "HIBRIDO", "HÍBRIDO",
	"GLP", "GNV",
)

var clases = set(
	"CAMIONETA", "AUTOMOVIL", "AUTOMÓVIL", "CAMION", "CAMIÓN", "MOTOCICLETA",
	"TODO TERRENO", "TRACTOCAMION", "TRACTOCAMIÓN", "TRAILER", "TRÁILER",
)

var servicios = set(
	"PARTICULAR", "USO PARTICULAR", "PUBLICO", "PÚBLICO", "ESTATAL", "OFICIAL",
	"COMERCIAL", "ALQUILER",
)

var paises = set(
	"ECUADOR", "COLOMBIA", "PERU", "PERÚ", "CHILE", "BRASIL", "ARGENTINA", "MEXICO",
	"MÉXICO", "ESTADOS UNIDOS", "CANADA", "JAPON", "JAPÓN", "COREA", "COREA DEL SUR",
	"CHINA", "INDIA", "TAILANDIA", "ALEMANIA", "FRANCIA", "ESPAÑA", "ITALIA",
	"REINO UNIDO", "SUECIA", "REPUBLICA CHECA",
)
