package core

import (
	"context"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/inovacc/finzana/internal/localstore"
	"github.com/inovacc/finzana/internal/model"
	"github.com/inovacc/finzana/internal/sheets"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	curpRosa = "GOMR800101HDFRRN09"
	curpAna  = "LOPA900202MDFPRN01"
)

var testNow = time.Date(2024, 3, 4, 10, 30, 0, 0, time.UTC)

func setupStore(t *testing.T) localstore.Store {
	t.Helper()

	st := localstore.NewBolt(filepath.Join(t.TempDir(), "test.bolt"))
	require.NoError(t, st.Initialize(context.Background()))

	t.Cleanup(func() { _ = st.Close() })

	return st
}

func sequentialIDs() func() string {
	var n atomic.Int64
	return func() string { return fmt.Sprintf("id-%d", n.Add(1)) }
}

func setupApp(t *testing.T, opts ...Option) (*App, localstore.Store) {
	t.Helper()

	st := setupStore(t)

	base := []Option{
		WithClock(func() time.Time { return testNow }),
		WithIDs(sequentialIDs()),
		WithSync(true),
	}

	app := New(st, append(base, opts...)...)
	require.NoError(t, app.Load(context.Background()))

	return app, st
}

type staticSource map[string]string

func (s staticSource) Fetch(_ context.Context, name string) ([]byte, error) {
	body, ok := s[name]
	if !ok {
		return nil, &sheets.NetworkError{Sheet: name, StatusCode: 404, Err: fmt.Errorf("missing")}
	}

	return []byte(body), nil
}

func setupMirror(t *testing.T, src staticSource) *sheets.Mirror {
	t.Helper()

	m := sheets.NewMirror(src, sheets.DefaultNames())
	m.FetchAll(context.Background())

	return m
}

func TestApp_LoadDefaults(t *testing.T) {
	app, _ := setupApp(t)

	assert.Empty(t, app.Clients())
	assert.Empty(t, app.Credits())
	assert.Empty(t, app.Payments())
	assert.Empty(t, app.Users())
	assert.Equal(t, model.DefaultConfig(), app.Config())
}

func TestApp_StateSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	app, st := setupApp(t)

	_, err := app.RegisterClient(ctx, ClientInput{CURP: curpRosa, Nombre: "Rosa", Grupo: "Grupo 1"}, "admin")
	require.NoError(t, err)

	credit, err := app.PlaceCredit(ctx, CreditInput{CURP: curpRosa, Monto: decimal.NewFromInt(1000), Plazo: 12}, "admin")
	require.NoError(t, err)

	_, err = app.RecordPayment(ctx, PaymentInput{CreditoID: credit.ID, Monto: decimal.NewFromInt(100)}, "admin")
	require.NoError(t, err)

	cfg := app.Config()
	cfg.Grupos = append(cfg.Grupos, "Grupo 5")
	require.NoError(t, app.SaveConfig(ctx, cfg))

	restarted := New(st)
	require.NoError(t, restarted.Load(ctx))

	assert.Len(t, restarted.Clients(), 1)
	assert.Len(t, restarted.Credits(), 1)
	assert.Len(t, restarted.Payments(), 1)
	assert.Contains(t, restarted.Config().Grupos, "Grupo 5")
	assert.True(t, restarted.Credits()[0].PagoSemanal.Equal(credit.PagoSemanal))
}

func TestApp_EnqueuesSyncEntries(t *testing.T) {
	ctx := context.Background()
	app, st := setupApp(t)

	c, err := app.RegisterClient(ctx, ClientInput{CURP: curpRosa, Nombre: "Rosa", Grupo: "Grupo 1"}, "admin")
	require.NoError(t, err)

	pending, err := localstore.Pending(ctx, st)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	assert.Equal(t, localstore.TableClients, pending[0].Table)
	assert.Equal(t, c.SheetRow(), pending[0].Payload)
}

func TestApp_SyncDisabled(t *testing.T) {
	ctx := context.Background()
	app, st := setupApp(t, WithSync(false))

	_, err := app.RegisterClient(ctx, ClientInput{CURP: curpRosa, Nombre: "Rosa", Grupo: "Grupo 1"}, "admin")
	require.NoError(t, err)

	n, err := st.GetCount(ctx, localstore.SyncQueue)
	require.NoError(t, err)
	assert.Zero(t, n)
}

// gatedSource serves bodies only after release is closed.
type gatedSource struct {
	release chan struct{}
	bodies  staticSource
}

func (s gatedSource) Fetch(ctx context.Context, name string) ([]byte, error) {
	select {
	case <-s.release:
		return s.bodies.Fetch(ctx, name)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestApp_RefreshMirrorAsync(t *testing.T) {
	names := sheets.DefaultNames()
	src := gatedSource{
		release: make(chan struct{}),
		bodies:  staticSource{names.Lookup: "semanas,8\n"},
	}

	app, _ := setupApp(t, WithMirror(sheets.NewMirror(src, names)))

	done := app.RefreshMirrorAsync(context.Background())

	select {
	case <-done:
		t.Fatal("refresh finished before the sheets answered")
	default:
	}

	assert.Equal(t, model.DefaultConfig(), app.Config(), "app is usable while fetching")

	close(src.release)

	select {
	case summary := <-done:
		assert.Equal(t, 3, summary.Failed)
	case <-time.After(5 * time.Second):
		t.Fatal("refresh did not finish")
	}

	_, open := <-done
	assert.False(t, open)
	assert.Equal(t, []int{8}, app.Config().Semanas)
}

func TestApp_RefreshMirrorAsyncCancelled(t *testing.T) {
	src := gatedSource{release: make(chan struct{})}
	app, _ := setupApp(t, WithMirror(sheets.NewMirror(src, sheets.DefaultNames())))

	ctx, cancel := context.WithCancel(context.Background())
	done := app.RefreshMirrorAsync(ctx)
	cancel()

	select {
	case summary := <-done:
		assert.Equal(t, 4, summary.Failed)
	case <-time.After(5 * time.Second):
		t.Fatal("refresh ignored cancellation")
	}
}

func TestApp_RefreshMirrorAdoptsSheetConfig(t *testing.T) {
	ctx := context.Background()
	names := sheets.DefaultNames()

	m := sheets.NewMirror(staticSource{
		names.Lookup: "grupos,Norte,Sur\nsemanas,8\n",
	}, names)

	app, st := setupApp(t, WithMirror(m))

	summary := app.RefreshMirror(ctx)
	assert.Equal(t, 3, summary.Failed)

	assert.Equal(t, []string{"Norte", "Sur"}, app.Config().Grupos)
	assert.Equal(t, []int{8}, app.Config().Semanas)

	var stored model.Config

	found, err := st.GetState(ctx, KeyConfig, &stored)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []int{8}, stored.Semanas)

	assert.Equal(t, summary, app.MirrorSummary())
}
