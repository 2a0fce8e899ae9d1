package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/inovacc/finzana/internal/auth"
	"github.com/inovacc/finzana/internal/core"
	"github.com/inovacc/finzana/internal/localstore"
	"github.com/inovacc/finzana/internal/settings"
	"github.com/inovacc/finzana/internal/sheets"
)

// environment is the wiring shared by commands that touch the data.
type environment struct {
	settings *settings.Settings
	store    localstore.Store
	mirror   *sheets.Mirror
	app      *core.App
}

func (e *environment) Close() {
	if err := e.store.Close(); err != nil {
		slog.Warn("failed to close store", "error", err)
	}
}

func loadSettings() (*settings.Settings, string, error) {
	path := settingsPath
	if path == "" {
		p, err := settings.DefaultPath()
		if err != nil {
			return nil, "", err
		}

		path = p
	}

	s, err := settings.LoadOrCreate(path)
	if err != nil {
		return nil, "", err
	}

	if err := applyCredentials(s); err != nil {
		return nil, "", err
	}

	return s, path, nil
}

// applyCredentials lets the environment override secrets kept in finzana.ini.
// The overrides live only in memory; the file is never rewritten with them.
func applyCredentials(s *settings.Settings) error {
	secret, err := auth.NewResolver("token secret").
		WithEnv(auth.EnvTokenSecret).
		WithSettings(s.Auth.Secret).
		Required().
		Resolve()
	if err != nil {
		return err
	}

	apiKey, err := auth.NewResolver("sheets api key").
		WithEnv(auth.EnvSheetsAPIKey).
		WithSettings(s.Sheets.APIKey).
		Resolve()
	if err != nil {
		return err
	}

	token, err := auth.NewResolver("sheets access token").
		WithEnv(auth.EnvSheetsToken).
		WithFileFromEnv(auth.EnvSheetsTokenFile).
		WithSettings(s.Sheets.AccessToken).
		Resolve()
	if err != nil {
		return err
	}

	s.Auth.Secret = secret.Value
	s.Sheets.APIKey = apiKey.Value
	s.Sheets.AccessToken = token.Value

	for _, c := range []auth.Credential{secret, apiKey, token} {
		if c.Source == auth.SourceEnv || c.Source == auth.SourceFile {
			slog.Debug("credential override", "source", c.Source, "name", c.Name)
		}
	}

	return nil
}

func openStore(ctx context.Context, s *settings.Settings) (localstore.Store, error) {
	path, err := s.StorePath()
	if err != nil {
		return nil, err
	}

	st, err := localstore.Open(localstore.Driver(s.Store.Driver), path, localstore.WithLogger(slog.Default()))
	if err != nil {
		return nil, err
	}

	if err := st.Initialize(ctx); err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("failed to open %s store at %s: %w", s.Store.Driver, path, err)
	}

	return st, nil
}

func newMirror(s *settings.Settings) *sheets.Mirror {
	if s.Sheets.SpreadsheetID == "" {
		return nil
	}

	fetcher := sheets.NewFetcher(s.Sheets.SpreadsheetID,
		sheets.WithBaseURL(s.Sheets.BaseURL),
		sheets.WithTimeout(s.Sheets.Timeout),
		sheets.WithFetcherLogger(slog.Default()),
	)

	return sheets.NewMirror(fetcher, s.Sheets.Names(), sheets.WithMirrorLogger(slog.Default()))
}

// openEnvironment loads settings, opens the store and builds the app.
func openEnvironment(ctx context.Context) (*environment, error) {
	s, _, err := loadSettings()
	if err != nil {
		return nil, err
	}

	st, err := openStore(ctx, s)
	if err != nil {
		return nil, err
	}

	mirror := newMirror(s)

	opts := []core.Option{
		core.WithLogger(slog.Default()),
		core.WithSync(s.Sync.Enabled && s.Sheets.CanAppend()),
	}

	if mirror != nil {
		opts = append(opts, core.WithMirror(mirror))
	}

	app := core.New(st, opts...)
	if err := app.Load(ctx); err != nil {
		_ = st.Close()
		return nil, err
	}

	return &environment{settings: s, store: st, mirror: mirror, app: app}, nil
}

// newAppender builds the Sheets API appender from the settings.
func newAppender(ctx context.Context, s *settings.Settings) (*sheets.Appender, error) {
	return sheets.NewAppender(ctx, sheets.AppenderConfig{
		SpreadsheetID: s.Sheets.SpreadsheetID,
		APIKey:        s.Sheets.APIKey,
		AccessToken:   s.Sheets.AccessToken,
		Endpoint:      s.Sheets.Endpoint,
	}, slog.Default())
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	return enc.Encode(v)
}
