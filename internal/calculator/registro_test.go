package calculator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalcularRegistro_Rangos(t *testing.T) {
	cases := []struct {
		valor   float64
		rango   int
		arancel float64
	}{
		{1500, 1, 22},
		{3000, 1, 22},
		{3000.01, 2, 30},
		{5000, 2, 30},
		{10000, 3, 35},
		{12000, 4, 40},
		{20000, 5, 50},
		{28000, 6, 100},
		{33000, 7, 160},
		{40000, 8, 200},
	}
	for _, tc := range cases {
		r := CalcularRegistro(tc.valor, false, false)
		assert.Equal(t, tc.rango, r.Rango, "valor %v", tc.valor)
		assert.Equal(t, tc.arancel, r.ArancelFinal, "valor %v", tc.valor)
		assert.Nil(t, r.Exceso)
	}
}

func TestCalcularRegistro_Formula(t *testing.T) {
	r := CalcularRegistro(50000, false, false)
	assert.Equal(t, 9, r.Rango)
	require.NotNil(t, r.Exceso)
	assert.Equal(t, 40000.0, *r.Exceso)
	assert.Equal(t, 300.0, r.ArancelFinal)
	assert.False(t, r.ExcedeMaximo)

	r = CalcularRegistro(100000, false, false)
	assert.Equal(t, 500.0, r.ArancelFinal)
	assert.True(t, r.ExcedeMaximo)
}

func TestCalcularRegistro_Descuentos(t *testing.T) {
	r := CalcularRegistro(40000, true, true)
	assert.Equal(t, 200.0, r.ArancelBase)
	require.Len(t, r.Descuentos, 2)
	assert.Equal(t, 100.0, r.Descuentos[0].Valor)
	assert.Equal(t, 50.0, r.Descuentos[1].Valor)
	assert.Equal(t, 50.0, r.ArancelFinal)
	assert.Equal(t, 150.0, r.TotalDescuentos())
}

func TestCalcularRegistro_ValorNoPositivo(t *testing.T) {
	r := CalcularRegistro(0, true, false)
	assert.Equal(t, 0, r.Rango)
	assert.Equal(t, 0.0, r.ArancelFinal)
	assert.Empty(t, r.Descuentos)
}

func TestCalcularVehicular(t *testing.T) {
	r, err := CalcularVehicular(10000, 0)
	require.NoError(t, err)

	assert.Equal(t, 2, r.NumFirmas)
	assert.Equal(t, 14.46, r.TarifaPorFirma)
	assert.Equal(t, 28.92, r.CostoNotarial)
	assert.Equal(t, 4.34, r.IVANotarial)
	assert.Equal(t, 33.26, r.TotalNotarial)
	assert.Equal(t, 100.0, r.ImpuestoTransferencia)
	assert.Equal(t, 133.26, r.TotalGastosExternos)
	assert.Equal(t, PrecioContratoBasico, r.PrecioContrato)
	assert.Equal(t, 143.25, r.TotalEstimado)

	r, err = CalcularVehicular(10000, 3)
	require.NoError(t, err)
	assert.Equal(t, 43.38, r.CostoNotarial)

	_, err = CalcularVehicular(-5, 2)
	assert.ErrorIs(t, err, ErrNegativeAmount)

	r, err = CalcularVehicular(10000, MaxFirmas)
	require.NoError(t, err)
	assert.Equal(t, MaxFirmas, r.NumFirmas)

	_, err = CalcularVehicular(10000, MaxFirmas+1)
	assert.ErrorIs(t, err, ErrTooManyFirmas)
}
