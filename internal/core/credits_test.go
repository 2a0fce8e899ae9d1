package core

import (
	"context"
	"testing"
	"time"

	"github.com/inovacc/finzana/internal/localstore"
	"github.com/inovacc/finzana/internal/model"
	"github.com/inovacc/finzana/internal/sheets"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func registerRosa(t *testing.T, app *App) {
	t.Helper()

	_, err := app.RegisterClient(context.Background(), ClientInput{CURP: curpRosa, Nombre: "Rosa", Grupo: "Grupo 1"}, "admin")
	require.NoError(t, err)
}

func TestPlaceCredit(t *testing.T) {
	ctx := context.Background()
	app, st := setupApp(t)
	registerRosa(t, app)

	start := time.Date(2024, 1, 1, 15, 0, 0, 0, time.UTC)

	c, err := app.PlaceCredit(ctx, CreditInput{
		CURP:  "gomr800101hdfrrn09",
		Monto: decimal.NewFromInt(1000),
		Plazo: 12,
		Fecha: start,
	}, "promotor1")
	require.NoError(t, err)

	assert.Equal(t, "ID-1", c.ID)
	assert.Equal(t, curpRosa, c.CURP)
	assert.Equal(t, "95.83", c.PagoSemanal.StringFixed(2))
	assert.Equal(t, "2024-01-01", model.FormatDate(c.Fecha))
	assert.Equal(t, "2024-03-25", model.FormatDate(c.Vencimiento))

	pending, err := localstore.Pending(ctx, st)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, localstore.TableCredits, pending[1].Table)
	assert.Equal(t, c.SheetRow(), pending[1].Payload)
}

func TestPlaceCredit_DefaultsToToday(t *testing.T) {
	app, _ := setupApp(t)
	registerRosa(t, app)

	c, err := app.PlaceCredit(context.Background(), CreditInput{CURP: curpRosa, Monto: decimal.NewFromInt(500), Plazo: 14}, "admin")
	require.NoError(t, err)

	assert.Equal(t, "2024-03-04", model.FormatDate(c.Fecha))
	assert.Equal(t, testNow.AddDate(0, 0, 98).Format(model.DateLayout), model.FormatDate(c.Vencimiento))
}

func TestPlaceCredit_UsesConfiguredRate(t *testing.T) {
	ctx := context.Background()
	app, _ := setupApp(t)
	registerRosa(t, app)

	cfg := app.Config()
	cfg.TasaInteres = decimal.RequireFromString("0.20")
	require.NoError(t, app.SaveConfig(ctx, cfg))

	c, err := app.PlaceCredit(ctx, CreditInput{CURP: curpRosa, Monto: decimal.NewFromInt(1200), Plazo: 12}, "admin")
	require.NoError(t, err)
	assert.Equal(t, "120.00", c.PagoSemanal.StringFixed(2))
}

func TestPlaceCredit_Rejects(t *testing.T) {
	tests := []struct {
		name string
		in   CreditInput
		want error
	}{
		{name: "unknown client", in: CreditInput{CURP: curpAna, Monto: decimal.NewFromInt(1000), Plazo: 12}, want: ErrUnknownClient},
		{name: "zero amount", in: CreditInput{CURP: curpRosa, Plazo: 12}, want: ErrInvalidCredit},
		{name: "negative amount", in: CreditInput{CURP: curpRosa, Monto: decimal.NewFromInt(-5), Plazo: 12}, want: ErrInvalidCredit},
		{name: "unconfigured term", in: CreditInput{CURP: curpRosa, Monto: decimal.NewFromInt(1000), Plazo: 13}, want: ErrInvalidCredit},
		{name: "zero term", in: CreditInput{CURP: curpRosa, Monto: decimal.NewFromInt(1000)}, want: ErrInvalidCredit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, _ := setupApp(t)
			registerRosa(t, app)

			_, err := app.PlaceCredit(context.Background(), tt.in, "admin")
			require.ErrorIs(t, err, tt.want)
			assert.Empty(t, app.Credits())
		})
	}
}

func TestPlaceCredit_ForMirroredClient(t *testing.T) {
	names := sheets.DefaultNames()
	m := setupMirror(t, staticSource{
		names.Clients: "CURP,Nombre\n" + curpAna + ",Ana\n",
		names.Credits: "id,curp,monto,plazo,fecha,vencimiento,pago\nC9," + curpAna + ",800,16,2024-01-01,2024-04-22,57.50\n",
	})

	app, _ := setupApp(t, WithMirror(m))

	c, err := app.PlaceCredit(context.Background(), CreditInput{CURP: curpAna, Monto: decimal.NewFromInt(1000), Plazo: 16}, "admin")
	require.NoError(t, err)

	credits := app.Credits()
	require.Len(t, credits, 2)
	assert.Equal(t, c.ID, credits[0].ID)
	assert.Equal(t, "C9", credits[1].ID)

	assert.Len(t, app.CreditsOf(curpAna), 2)

	found, err := app.FindCredit("C9")
	require.NoError(t, err)
	assert.Equal(t, 16, found.Plazo)

	_, err = app.FindCredit("nope")
	require.ErrorIs(t, err, ErrUnknownCredit)
}

func TestDelinquent(t *testing.T) {
	ctx := context.Background()
	app, _ := setupApp(t)
	registerRosa(t, app)

	start := time.Date(2023, 10, 2, 0, 0, 0, 0, time.UTC)

	paid, err := app.PlaceCredit(ctx, CreditInput{CURP: curpRosa, Monto: decimal.NewFromInt(1000), Plazo: 12, Fecha: start}, "admin")
	require.NoError(t, err)

	unpaid, err := app.PlaceCredit(ctx, CreditInput{CURP: curpRosa, Monto: decimal.NewFromInt(500), Plazo: 12, Fecha: start}, "admin")
	require.NoError(t, err)

	_, err = app.RecordPayment(ctx, PaymentInput{CreditoID: paid.ID, Monto: decimal.NewFromInt(100)}, "admin")
	require.NoError(t, err)

	due := unpaid.Vencimiento

	late := app.Delinquent(due.AddDate(0, 0, 10))
	require.Len(t, late, 1)
	assert.Equal(t, unpaid.ID, late[0].Credit.ID)
	assert.Equal(t, 10, late[0].Days)

	assert.Empty(t, app.Delinquent(due))
}
