package core

import (
	"context"
	"testing"

	"github.com/inovacc/finzana/internal/model"
	"github.com/inovacc/finzana/internal/sheets"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveConfig(t *testing.T) {
	ctx := context.Background()
	app, _ := setupApp(t)

	cfg := model.Config{
		Grupos:       []string{"Norte"},
		Semanas:      []int{10},
		TiposUsuario: []string{"admin"},
		TasaInteres:  decimal.RequireFromString("0.1"),
	}
	require.NoError(t, app.SaveConfig(ctx, cfg))

	got := app.Config()
	assert.Equal(t, cfg, got)

	got.Grupos[0] = "mutated"
	assert.Equal(t, "Norte", app.Config().Grupos[0], "Config returns a copy")
}

func TestSaveConfig_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*model.Config)
	}{
		{name: "zero week", mutate: func(c *model.Config) { c.Semanas = []int{0} }},
		{name: "blank group", mutate: func(c *model.Config) { c.Grupos = []string{" "} }},
		{name: "negative rate", mutate: func(c *model.Config) { c.TasaInteres = decimal.NewFromInt(-1) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, _ := setupApp(t)

			cfg := model.DefaultConfig()
			tt.mutate(&cfg)

			require.ErrorIs(t, app.SaveConfig(context.Background(), cfg), ErrInvalidConfig)
			assert.Equal(t, model.DefaultConfig(), app.Config())
		})
	}
}

func TestUpdateConfig_KeepsOmittedFields(t *testing.T) {
	ctx := context.Background()
	app, _ := setupApp(t)
	registerRosa(t, app)

	grupos := []string{"Grupo 1"}
	cfg, err := app.UpdateConfig(ctx, ConfigPatch{Grupos: &grupos})
	require.NoError(t, err)

	want := model.DefaultConfig()
	want.Grupos = []string{"Grupo 1"}
	assert.Equal(t, want, cfg)
	assert.Equal(t, want, app.Config())

	c, err := app.PlaceCredit(ctx, CreditInput{CURP: curpRosa, Monto: decimal.NewFromInt(1000), Plazo: 12}, "admin")
	require.NoError(t, err)
	assert.Equal(t, "95.83", c.PagoSemanal.StringFixed(2), "interest rate survives the update")

	rate := decimal.RequireFromString("0.2")
	cfg, err = app.UpdateConfig(ctx, ConfigPatch{TasaInteres: &rate})
	require.NoError(t, err)
	assert.True(t, rate.Equal(cfg.TasaInteres))
	assert.Equal(t, []string{"Grupo 1"}, cfg.Grupos)
	assert.Equal(t, model.DefaultConfig().Semanas, cfg.Semanas)
}

func TestUpdateConfig_Rejects(t *testing.T) {
	ctx := context.Background()
	app, _ := setupApp(t)

	_, err := app.UpdateConfig(ctx, ConfigPatch{})
	require.ErrorIs(t, err, ErrInvalidConfig)

	weeks := []int{12, -1}
	_, err = app.UpdateConfig(ctx, ConfigPatch{Semanas: &weeks})
	require.ErrorIs(t, err, ErrInvalidConfig)

	assert.Equal(t, model.DefaultConfig(), app.Config())
}

func TestResetConfig(t *testing.T) {
	ctx := context.Background()
	app, _ := setupApp(t)

	require.NoError(t, app.SaveConfig(ctx, model.Config{Semanas: []int{5}}))

	cfg, err := app.ResetConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.DefaultConfig(), cfg)
	assert.Equal(t, model.DefaultConfig(), app.Config())
}

func TestRefreshConfig(t *testing.T) {
	ctx := context.Background()
	names := sheets.DefaultNames()

	t.Run("adopts lookup sheet", func(t *testing.T) {
		m := sheets.NewMirror(staticSource{names.Lookup: "tasa_interes,10%\n"}, names)
		app, _ := setupApp(t, WithMirror(m))

		cfg, fromSheet, err := app.RefreshConfig(ctx)
		require.NoError(t, err)
		assert.True(t, fromSheet)
		assert.Equal(t, "0.1", cfg.TasaInteres.String())
		assert.Equal(t, "0.1", app.Config().TasaInteres.String())
	})

	t.Run("keeps current without known keys", func(t *testing.T) {
		m := sheets.NewMirror(staticSource{names.Lookup: "otra,1\n"}, names)
		app, _ := setupApp(t, WithMirror(m))

		cfg, fromSheet, err := app.RefreshConfig(ctx)
		require.NoError(t, err)
		assert.False(t, fromSheet)
		assert.Equal(t, model.DefaultConfig(), cfg)
	})

	t.Run("fetch failure", func(t *testing.T) {
		m := sheets.NewMirror(staticSource{}, names)
		app, _ := setupApp(t, WithMirror(m))

		_, _, err := app.RefreshConfig(ctx)
		require.ErrorIs(t, err, sheets.ErrNetworkFailure)
	})

	t.Run("no mirror", func(t *testing.T) {
		app, _ := setupApp(t)

		cfg, fromSheet, err := app.RefreshConfig(ctx)
		require.NoError(t, err)
		assert.False(t, fromSheet)
		assert.Equal(t, model.DefaultConfig(), cfg)
	})
}
