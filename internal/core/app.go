package core

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/inovacc/finzana/internal/localstore"
	"github.com/inovacc/finzana/internal/model"
	"github.com/inovacc/finzana/internal/sheets"
)

// State keys of the persisted session collections.
const (
	KeyUsers    = "finzana_usuarios"
	KeyClients  = "finzana_clientas"
	KeyCredits  = "finzana_creditos"
	KeyPayments = "finzana_pagos"
	KeyConfig   = "finzana_config"
)

// App is the application context. It owns the session collections and
// writes every mutation through to the local store.
type App struct {
	store    localstore.Store
	mirror   *sheets.Mirror
	logger   *slog.Logger
	now      func() time.Time
	newID    func() string
	outbound bool

	mu       sync.RWMutex
	users    []model.User
	clients  []model.Client
	credits  []model.Credit
	payments []model.Payment
	config   model.Config
}

// Option configures an App.
type Option func(*App)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *App) { a.logger = l }
}

// WithClock sets the clock.
func WithClock(now func() time.Time) Option {
	return func(a *App) { a.now = now }
}

// WithMirror attaches the spreadsheet mirror used for lookups.
func WithMirror(m *sheets.Mirror) Option {
	return func(a *App) { a.mirror = m }
}

// WithIDs sets the generator of credit and payment ids.
func WithIDs(fn func() string) Option {
	return func(a *App) { a.newID = fn }
}

// WithSync enables outbound sync entries for every mutation.
func WithSync(enabled bool) Option {
	return func(a *App) { a.outbound = enabled }
}

// New creates an App over an initialized store. Call Load before use.
func New(store localstore.Store, opts ...Option) *App {
	a := &App{
		store:  store,
		logger: slog.Default(),
		now:    time.Now,
		newID:  uuid.NewString,
		config: model.DefaultConfig(),
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Store returns the local store.
func (a *App) Store() localstore.Store {
	return a.store
}

// Mirror returns the spreadsheet mirror, or nil.
func (a *App) Mirror() *sheets.Mirror {
	return a.mirror
}

// Load reads the persisted collections. Missing keys leave empty
// collections and the default configuration.
func (a *App) Load(ctx context.Context) error {
	var (
		users    []model.User
		clients  []model.Client
		credits  []model.Credit
		payments []model.Payment
		config   model.Config
	)

	targets := []struct {
		key string
		v   any
	}{
		{KeyUsers, &users},
		{KeyClients, &clients},
		{KeyCredits, &credits},
		{KeyPayments, &payments},
	}

	for _, t := range targets {
		if _, err := a.store.GetState(ctx, t.key, t.v); err != nil {
			return fmt.Errorf("failed to load %s: %w", t.key, err)
		}
	}

	found, err := a.store.GetState(ctx, KeyConfig, &config)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", KeyConfig, err)
	}

	if !found {
		config = model.DefaultConfig()
	}

	a.mu.Lock()
	a.users = users
	a.clients = clients
	a.credits = credits
	a.payments = payments
	a.config = config
	a.mu.Unlock()

	a.logger.Debug("session state loaded",
		"users", len(users), "clients", len(clients), "credits", len(credits), "payments", len(payments))

	return nil
}

// RefreshMirror refetches every sheet. A lookup sheet carrying
// configuration replaces the stored configuration.
func (a *App) RefreshMirror(ctx context.Context) sheets.Summary {
	if a.mirror == nil {
		return sheets.Summary{}
	}

	summary := a.mirror.FetchAll(ctx)

	if cfg, ok := a.mirror.Config(); ok {
		if err := a.SaveConfig(ctx, cfg); err != nil {
			a.logger.Warn("failed to adopt sheet configuration", "error", err)
		}
	}

	return summary
}

// RefreshMirrorAsync runs RefreshMirror in its own goroutine bound to ctx.
// The returned channel yields the summary once and is then closed.
func (a *App) RefreshMirrorAsync(ctx context.Context) <-chan sheets.Summary {
	done := make(chan sheets.Summary, 1)

	go func() {
		defer close(done)

		done <- a.RefreshMirror(ctx)
	}()

	return done
}

// MirrorSummary returns the latest mirror refresh summary.
func (a *App) MirrorSummary() sheets.Summary {
	if a.mirror == nil {
		return sheets.Summary{}
	}

	return a.mirror.LastSummary()
}

// enqueue records an outbound row. Failures are logged; the local write
// already happened.
func (a *App) enqueue(ctx context.Context, table string, row []string) {
	if !a.outbound {
		return
	}

	if _, err := localstore.Enqueue(ctx, a.store, table, row); err != nil {
		a.logger.Warn("failed to enqueue sync entry", "table", table, "error", err)
	}
}

func (a *App) persist(ctx context.Context, key string, v any) error {
	if err := a.store.PutState(ctx, key, v); err != nil {
		return fmt.Errorf("failed to persist %s: %w", key, err)
	}

	return nil
}

func cloneOf[T any](s []T) []T {
	out := slices.Clone(s)
	if out == nil {
		return []T{}
	}

	return out
}
