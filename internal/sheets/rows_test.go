package sheets

import (
	"testing"

	"github.com/inovacc/finzana/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeClients(t *testing.T) {
	body := "CURP,Nombre,Teléfono,Grupo,Dirección,Fecha Registro\n" +
		" gomr800101hdfrrn09 ,Rosa Gómez,5512345678,Grupo 1,Centro 12,2024-01-15\n" +
		",Sin CURP,,,,\n" +
		"LOPA900202MDFPRN01,Ana López,,Grupo 2,,15/13/2024\n" +
		"PEMJ750303HDFRRN05,Juan Pérez,,Grupo 3,,\n"

	clients, errs := DecodeClients("Clientes", Parse(body))

	require.Len(t, clients, 2)
	require.Len(t, errs, 2)

	rosa := clients[0]
	assert.Equal(t, "GOMR800101HDFRRN09", rosa.CURP)
	assert.Equal(t, "Rosa Gómez", rosa.Nombre)
	assert.Equal(t, "5512345678", rosa.Telefono)
	assert.Equal(t, "Grupo 1", rosa.Grupo)
	assert.Equal(t, "Centro 12", rosa.Direccion)
	assert.Equal(t, "2024-01-15", model.FormatDate(rosa.FechaRegistro))
	assert.Equal(t, model.SourceSheets, rosa.Fuente)

	assert.True(t, clients[1].FechaRegistro.IsZero())

	var rowErr *RowError
	require.ErrorAs(t, errs[0], &rowErr)
	assert.Equal(t, 3, rowErr.Line)
	assert.Equal(t, "curp", rowErr.Field)
	assert.ErrorIs(t, errs[0], ErrMissingField)
	assert.ErrorIs(t, errs[1], ErrInvalidField)
}

func TestDecodeCredits(t *testing.T) {
	body := "ID,CURP,Monto,Plazo,Fecha,Vencimiento,Pago\n" +
		"C1,gomr800101hdfrrn09,$1000,10,2024-01-01,2024-03-11,115.00\n" +
		"C2,LOPA900202MDFPRN01,500,,,2024-02-01\n" +
		"C3,LOPA900202MDFPRN01,abc,,,2024-02-01\n" +
		"C4,LOPA900202MDFPRN01,500,,,\n" +
		",LOPA900202MDFPRN01,500,,,2024-02-01\n"

	credits, errs := DecodeCredits("Colocacion", Parse(body))

	require.Len(t, credits, 2)
	require.Len(t, errs, 3)

	c1 := credits[0]
	assert.Equal(t, "C1", c1.ID)
	assert.Equal(t, "GOMR800101HDFRRN09", c1.CURP)
	assert.Equal(t, "1000.00", c1.Monto.StringFixed(2))
	assert.Equal(t, 10, c1.Plazo)
	assert.Equal(t, "2024-01-01", model.FormatDate(c1.Fecha))
	assert.Equal(t, "2024-03-11", model.FormatDate(c1.Vencimiento))
	assert.Equal(t, "115.00", c1.PagoSemanal.StringFixed(2))

	c2 := credits[1]
	assert.Zero(t, c2.Plazo)
	assert.True(t, c2.Fecha.IsZero())
	assert.True(t, c2.PagoSemanal.IsZero())

	var rowErr *RowError
	require.ErrorAs(t, errs[0], &rowErr)
	assert.Equal(t, "monto", rowErr.Field)
	assert.ErrorIs(t, errs[0], ErrInvalidField)

	require.ErrorAs(t, errs[1], &rowErr)
	assert.Equal(t, "vencimiento", rowErr.Field)
	assert.ErrorIs(t, errs[1], ErrMissingField)

	require.ErrorAs(t, errs[2], &rowErr)
	assert.Equal(t, "id", rowErr.Field)
}

func TestDecodePayments(t *testing.T) {
	body := "ID,Credito,Monto,Fecha,Tipo,Comision\n" +
		"P1,C1,115,2024-01-08,Extraordinary,5.75\n" +
		"P2,C1,115,08/01/2024\n" +
		"P3,,115,2024-01-08\n" +
		"P4,C1,115,\n"

	payments, errs := DecodePayments("Cobranza", Parse(body))

	require.Len(t, payments, 2)
	require.Len(t, errs, 2)

	assert.Equal(t, "C1", payments[0].CreditoID)
	assert.Equal(t, model.PaymentExtraordinary, payments[0].Tipo)
	assert.Equal(t, "5.75", payments[0].Comision.StringFixed(2))

	assert.Equal(t, model.PaymentNormal, payments[1].Tipo)
	assert.Equal(t, "2024-01-08", model.FormatDate(payments[1].Fecha))
	assert.True(t, payments[1].Comision.IsZero())

	assert.ErrorIs(t, errs[0], ErrMissingField)
	assert.ErrorIs(t, errs[1], ErrMissingField)
}

func TestParseLookup(t *testing.T) {
	body := "grupos,Grupo A,Grupo B,,\n" +
		"\n" +
		"SEMANAS,10,12\n" +
		",ignored\n"

	rows := ParseLookup(body)
	require.Len(t, rows, 2)

	assert.Equal(t, LookupRow{Key: "grupos", Values: []string{"Grupo A", "Grupo B"}}, rows[0])
	assert.Equal(t, LookupRow{Key: "semanas", Values: []string{"10", "12"}}, rows[1])
}

func TestConfigFromLookup(t *testing.T) {
	t.Run("known keys override defaults", func(t *testing.T) {
		cfg, found, errs := ConfigFromLookup([]LookupRow{
			{Key: KeyGrupos, Values: []string{"Norte", "Sur"}},
			{Key: KeySemanas, Values: []string{"8", "x", "16"}},
			{Key: KeyTasaInteres, Values: []string{"12%"}},
		})

		require.True(t, found)
		require.Len(t, errs, 1)

		assert.Equal(t, []string{"Norte", "Sur"}, cfg.Grupos)
		assert.Equal(t, []int{8, 16}, cfg.Semanas)
		assert.Equal(t, "0.12", cfg.TasaInteres.String())
		assert.Equal(t, model.DefaultConfig().TiposUsuario, cfg.TiposUsuario)
	})

	t.Run("no known key falls back", func(t *testing.T) {
		cfg, found, errs := ConfigFromLookup([]LookupRow{{Key: "otro", Values: []string{"1"}}})

		assert.False(t, found)
		assert.Empty(t, errs)
		assert.Equal(t, model.DefaultConfig(), cfg)
	})

	t.Run("plain decimal rate", func(t *testing.T) {
		cfg, found, _ := ConfigFromLookup([]LookupRow{{Key: KeyTasaInteres, Values: []string{"0.2"}}})

		assert.True(t, found)
		assert.Equal(t, "0.2", cfg.TasaInteres.String())
	})
}

func TestDecodeClients_Empty(t *testing.T) {
	clients, errs := DecodeClients("Clientes", nil)
	assert.Empty(t, clients)
	assert.NotNil(t, clients)
	assert.Empty(t, errs)
}
