package calculator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fecha(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestAniosTranscurridos(t *testing.T) {
	assert.Equal(t, 6, AniosTranscurridos(fecha("2020-01-15"), fecha("2026-02-08")))
	assert.Equal(t, 5, AniosTranscurridos(fecha("2020-03-15"), fecha("2026-03-14")))
	assert.Equal(t, 20, AniosTranscurridos(fecha("1990-01-01"), fecha("2026-01-01")))
	assert.Equal(t, 0, AniosTranscurridos(fecha("2026-01-01"), fecha("2025-01-01")))
}

func TestMesesTranscurridos(t *testing.T) {
	assert.Equal(t, 25, MesesTranscurridos(fecha("2024-01-01"), fecha("2026-02-01")))
	assert.Equal(t, 0, MesesTranscurridos(fecha("2026-01-01"), fecha("2026-01-20")))
}

func TestCalcularMunicipal_SeisAnios(t *testing.T) {
	r, err := CalcularMunicipal(DatosMunicipales{
		FechaAdquisicion:   fecha("2020-01-15"),
		FechaTransferencia: fecha("2026-02-08"),
		ValorTransferencia: 80000,
		ValorAdquisicion:   50000,
		AvaluoCatastral:    60000,
		TipoTransferencia:  Compraventa,
		TipoTransferente:   PersonaNatural,
	})
	require.NoError(t, err)

	assert.Equal(t, 30000.0, r.Utilidad.UtilidadBruta)
	assert.Equal(t, 6, r.Utilidad.AniosTranscurridos)
	assert.Equal(t, 9000.0, r.Utilidad.DeduccionTiempo)
	assert.Equal(t, 2100.0, r.Utilidad.Impuesto)
	assert.Equal(t, "10% - Persona Natural", r.Utilidad.TarifaDescripcion)

	assert.Equal(t, 800.0, r.Alcabala.Impuesto)
	assert.Equal(t, 0.0, r.Alcabala.PorcentajeRebaja)
	assert.Equal(t, "Sin rebaja - Más de 4 años", r.Alcabala.RebajaDescripcion)

	assert.Equal(t, 2100.0, r.TotalVendedor)
	assert.Equal(t, 800.0, r.TotalComprador)
	assert.Equal(t, 2900.0, r.Total)
}

func TestCalcularMunicipal_RebajaTercerAnio(t *testing.T) {
	r, err := CalcularMunicipal(DatosMunicipales{
		FechaAdquisicion:   fecha("2024-01-01"),
		FechaTransferencia: fecha("2026-02-01"),
		ValorTransferencia: 120000,
		ValorAdquisicion:   80000,
		AvaluoCatastral:    100000,
		TipoTransferencia:  Compraventa,
		TipoTransferente:   PersonaNatural,
	})
	require.NoError(t, err)

	assert.Equal(t, 0.2, r.Alcabala.PorcentajeRebaja)
	assert.Equal(t, 960.0, r.Alcabala.Impuesto)
	assert.Equal(t, 3600.0, r.Utilidad.Impuesto)
}

func TestCalcularAlcabala_PrimerAnio(t *testing.T) {
	r, err := CalcularAlcabala(DatosMunicipales{
		FechaAdquisicion:   fecha("2025-06-01"),
		FechaTransferencia: fecha("2026-01-01"),
		ValorTransferencia: 100000,
	})
	require.NoError(t, err)
	assert.Equal(t, "40% - Primer año", r.RebajaDescripcion)
	assert.Equal(t, 400.0, r.Rebaja)
	assert.Equal(t, 600.0, r.Impuesto)
}

func TestCalcularUtilidad_Tarifas(t *testing.T) {
	base := DatosMunicipales{
		FechaAdquisicion:   fecha("2025-01-01"),
		FechaTransferencia: fecha("2025-06-01"),
		ValorTransferencia: 110000,
		ValorAdquisicion:   100000,
	}

	donacion := base
	donacion.TipoTransferencia = Donacion
	r, err := CalcularUtilidad(donacion)
	require.NoError(t, err)
	assert.Equal(t, 100.0, r.Impuesto)

	inmobiliaria := base
	inmobiliaria.TipoTransferente = Inmobiliaria
	r, err = CalcularUtilidad(inmobiliaria)
	require.NoError(t, err)
	assert.Equal(t, 400.0, r.Impuesto)
}

func TestCalcularUtilidad_SinUtilidad(t *testing.T) {
	r, err := CalcularUtilidad(DatosMunicipales{
		FechaAdquisicion:   fecha("2020-01-01"),
		FechaTransferencia: fecha("2026-01-01"),
		ValorTransferencia: 50000,
		ValorAdquisicion:   45000,
		Mejoras:            10000,
	})
	require.NoError(t, err)
	assert.Equal(t, 0.0, r.Impuesto)
	assert.Equal(t, 0.0, r.UtilidadBruta)
	assert.Equal(t, "Sin utilidad", r.TarifaDescripcion)
}

func TestCalcularMunicipal_InputErrors(t *testing.T) {
	_, err := CalcularMunicipal(DatosMunicipales{ValorTransferencia: 1000})
	assert.ErrorIs(t, err, ErrInvalidDates)

	_, err = CalcularAlcabala(DatosMunicipales{
		FechaAdquisicion:   fecha("2020-01-01"),
		FechaTransferencia: fecha("2026-01-01"),
		ValorTransferencia: -1,
	})
	assert.ErrorIs(t, err, ErrNegativeAmount)
}

func TestCalcularConsejoProvincial(t *testing.T) {
	r, err := CalcularConsejoProvincial(800)
	require.NoError(t, err)
	assert.Equal(t, 80.0, r.ValorPorcentaje)
	assert.Equal(t, 81.8, r.Total)
	require.Len(t, r.Desglose, 2)

	r, err = CalcularConsejoProvincial(0)
	require.NoError(t, err)
	assert.Equal(t, 1.8, r.Total)
}

func TestCalcularAlcabalaConConsejo(t *testing.T) {
	r, err := CalcularAlcabalaConConsejo(100000, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1000.0, r.ImpuestoAlcabala)
	assert.Equal(t, 101.8, r.ImpuestoConsejoProvincial)
	assert.Equal(t, 1101.8, r.TotalImpuestos)

	r, err = CalcularAlcabalaConConsejo(100000, 120000, 10)
	require.NoError(t, err)
	assert.Equal(t, 120000.0, r.BaseImponibleAlcabala)
	assert.Equal(t, 720.0, r.ImpuestoAlcabala)

	// the quick estimate has no fourth-year tier
	r, err = CalcularAlcabalaConConsejo(100000, 0, 40)
	require.NoError(t, err)
	assert.Equal(t, 0.0, r.RebajaAplicada)
	assert.Equal(t, 1000.0, r.ImpuestoAlcabala)
}
