package core

import (
	"context"
	"errors"
	"testing"

	"github.com/inovacc/finzana/internal/localstore"
	"github.com/inovacc/finzana/internal/model"
	"github.com/inovacc/finzana/internal/sheets"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterClient(t *testing.T) {
	ctx := context.Background()
	app, _ := setupApp(t)

	c, err := app.RegisterClient(ctx, ClientInput{
		CURP:     "  gomr800101hdfrrn09 ",
		Nombre:   " Rosa Gómez ",
		Telefono: "5512345678",
		Grupo:    "Grupo 1",
	}, "promotor1")
	require.NoError(t, err)

	assert.Equal(t, curpRosa, c.CURP)
	assert.Equal(t, "Rosa Gómez", c.Nombre)
	assert.Equal(t, model.SourceSystem, c.Fuente)
	assert.Equal(t, "promotor1", c.RegistradoPor)
	assert.Equal(t, testNow, c.FechaRegistro)

	found, err := app.FindClient(curpRosa)
	require.NoError(t, err)
	assert.Equal(t, c, found)
}

func TestRegisterClient_DuplicateCURP(t *testing.T) {
	ctx := context.Background()
	app, _ := setupApp(t)

	_, err := app.RegisterClient(ctx, ClientInput{CURP: curpRosa, Nombre: "Rosa", Grupo: "Grupo 1"}, "admin")
	require.NoError(t, err)

	_, err = app.RegisterClient(ctx, ClientInput{CURP: " gomr800101hdfrrn09", Nombre: "Otra", Grupo: "Grupo 2"}, "admin")
	require.ErrorIs(t, err, ErrDuplicateClient)

	assert.Len(t, app.Clients(), 1)
}

func TestRegisterClient_DuplicateOfMirroredClient(t *testing.T) {
	ctx := context.Background()
	names := sheets.DefaultNames()

	m := setupMirror(t, staticSource{
		names.Clients: "CURP,Nombre,Grupo\n" + curpAna + ",Ana,Grupo 2\n",
	})

	app, st := setupApp(t, WithMirror(m))

	_, err := app.RegisterClient(ctx, ClientInput{CURP: curpAna, Nombre: "Ana", Grupo: "Grupo 2"}, "admin")
	require.ErrorIs(t, err, ErrDuplicateClient)

	n, err := st.GetCount(ctx, localstore.SyncQueue)
	require.NoError(t, err)
	assert.Zero(t, n, "rejected registrations are not synced")

	clients := app.Clients()
	require.Len(t, clients, 1)
	assert.Equal(t, model.SourceSheets, clients[0].Fuente)

	found, err := app.FindClient(curpAna)
	require.NoError(t, err)
	assert.Equal(t, "Ana", found.Nombre)
}

func TestRegisterClient_Validation(t *testing.T) {
	tests := []struct {
		name  string
		in    ClientInput
		field string
	}{
		{name: "missing curp", in: ClientInput{Nombre: "Rosa", Grupo: "Grupo 1"}, field: "curp"},
		{name: "short curp", in: ClientInput{CURP: "ABC", Nombre: "Rosa", Grupo: "Grupo 1"}, field: "curp"},
		{name: "symbols in curp", in: ClientInput{CURP: "GOMR800101HDFRRN0-", Nombre: "Rosa", Grupo: "Grupo 1"}, field: "curp"},
		{name: "missing name", in: ClientInput{CURP: curpRosa, Grupo: "Grupo 1"}, field: "nombre"},
		{name: "unknown group", in: ClientInput{CURP: curpRosa, Nombre: "Rosa", Grupo: "Grupo 9"}, field: "grupo"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, _ := setupApp(t)

			_, err := app.RegisterClient(context.Background(), tt.in, "admin")
			require.ErrorIs(t, err, ErrInvalidClient)

			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.field, verr.Field)
			assert.Empty(t, app.Clients())
		})
	}
}

func TestFindClient_Unknown(t *testing.T) {
	app, _ := setupApp(t)

	_, err := app.FindClient(curpRosa)
	require.ErrorIs(t, err, ErrUnknownClient)
}

func TestRegisterClient_RollsBackOnPersistFailure(t *testing.T) {
	app, st := setupApp(t)
	require.NoError(t, st.Close())

	_, err := app.RegisterClient(context.Background(), ClientInput{CURP: curpRosa, Nombre: "Rosa", Grupo: "Grupo 1"}, "admin")
	require.ErrorIs(t, err, localstore.ErrNotInitialized)
	assert.Empty(t, app.Clients())
}
