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

func placeRosaCredit(t *testing.T, app *App) model.Credit {
	t.Helper()
	registerRosa(t, app)

	c, err := app.PlaceCredit(context.Background(), CreditInput{CURP: curpRosa, Monto: decimal.NewFromInt(1000), Plazo: 12}, "admin")
	require.NoError(t, err)

	return c
}

func TestRecordPayment(t *testing.T) {
	tests := []struct {
		tipo     model.PaymentType
		wantTipo model.PaymentType
		comision string
	}{
		{tipo: "", wantTipo: model.PaymentNormal, comision: "50.00"},
		{tipo: "Extraordinary", wantTipo: model.PaymentExtraordinary, comision: "25.00"},
		{tipo: model.PaymentUpdated, wantTipo: model.PaymentUpdated, comision: "40.00"},
	}

	for _, tt := range tests {
		t.Run(string(tt.wantTipo), func(t *testing.T) {
			ctx := context.Background()
			app, st := setupApp(t)
			credit := placeRosaCredit(t, app)

			p, err := app.RecordPayment(ctx, PaymentInput{
				CreditoID: credit.ID,
				Monto:     decimal.NewFromInt(500),
				Tipo:      tt.tipo,
			}, "cobrador")
			require.NoError(t, err)

			assert.Equal(t, tt.wantTipo, p.Tipo)
			assert.Equal(t, tt.comision, p.Comision.StringFixed(2))
			assert.Equal(t, credit.ID, p.CreditoID)
			assert.Equal(t, testNow, p.Fecha)
			assert.Equal(t, "cobrador", p.RegistradoPor)

			assert.Equal(t, []model.Payment{p}, app.PaymentsFor(credit.ID))

			pending, err := localstore.Pending(ctx, st)
			require.NoError(t, err)
			require.Len(t, pending, 3)
			assert.Equal(t, localstore.TablePayments, pending[2].Table)
		})
	}
}

func TestRecordPayment_Rejects(t *testing.T) {
	tests := []struct {
		name string
		in   func(credit model.Credit) PaymentInput
		want error
	}{
		{
			name: "unknown credit",
			in: func(model.Credit) PaymentInput {
				return PaymentInput{CreditoID: "missing", Monto: decimal.NewFromInt(100)}
			},
			want: ErrUnknownCredit,
		},
		{
			name: "zero amount",
			in: func(c model.Credit) PaymentInput {
				return PaymentInput{CreditoID: c.ID}
			},
			want: ErrInvalidPayment,
		},
		{
			name: "unknown type",
			in: func(c model.Credit) PaymentInput {
				return PaymentInput{CreditoID: c.ID, Monto: decimal.NewFromInt(100), Tipo: "gift"}
			},
			want: ErrInvalidPayment,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, _ := setupApp(t)
			credit := placeRosaCredit(t, app)

			_, err := app.RecordPayment(context.Background(), tt.in(credit), "admin")
			require.ErrorIs(t, err, tt.want)
			assert.Empty(t, app.Payments())
		})
	}
}

func TestRecordPayment_AgainstMirroredCredit(t *testing.T) {
	names := sheets.DefaultNames()
	m := setupMirror(t, staticSource{
		names.Credits:  "id,curp,monto,plazo,fecha,vencimiento\nC9," + curpAna + ",800,16,2024-01-01,2024-04-22\n",
		names.Payments: "id,credito,monto,fecha\nP1,C9,57.50,2024-01-08\n,C9,57.50,2024-01-15\n",
	})

	app, _ := setupApp(t, WithMirror(m))

	p, err := app.RecordPayment(context.Background(), PaymentInput{
		CreditoID: " C9 ",
		Monto:     decimal.RequireFromString("57.50"),
		Fecha:     time.Date(2024, 1, 22, 0, 0, 0, 0, time.UTC),
	}, "admin")
	require.NoError(t, err)
	assert.Equal(t, "C9", p.CreditoID)
	assert.Equal(t, "5.75", p.Comision.StringFixed(2))

	assert.Len(t, app.Payments(), 3)
	assert.Len(t, app.PaymentsFor("C9"), 3)
}

func TestRecordPayment_CreditIDIgnoresCase(t *testing.T) {
	ctx := context.Background()
	app, _ := setupApp(t)
	credit := placeRosaCredit(t, app)
	require.Equal(t, "ID-1", credit.ID)

	found, err := app.FindCredit(" id-1 ")
	require.NoError(t, err)
	assert.Equal(t, credit.ID, found.ID)

	p, err := app.RecordPayment(ctx, PaymentInput{CreditoID: "id-1", Monto: decimal.NewFromInt(100)}, "cobrador")
	require.NoError(t, err)
	assert.Equal(t, credit.ID, p.CreditoID, "stored with the canonical id")

	assert.Len(t, app.PaymentsFor("id-1"), 1)
	assert.Len(t, app.PaymentsFor(credit.ID), 1)
}
