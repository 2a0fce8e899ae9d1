// Package settings loads and saves the runtime settings file.
package settings

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/inovacc/finzana/internal/encoding"
	"github.com/inovacc/finzana/internal/localstore"
	"github.com/inovacc/finzana/internal/params"
	"github.com/inovacc/finzana/internal/sheets"
	"gopkg.in/ini.v1"
)

type ServerSection struct {
	Host         string        `ini:"host"`
	Port         int           `ini:"port"`
	ReadTimeout  time.Duration `ini:"read_timeout"`
	WriteTimeout time.Duration `ini:"write_timeout"`
}

// Addr returns host:port.
func (s ServerSection) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type StoreSection struct {
	Driver string `ini:"driver"`

	// Path is the database file. Empty means the data directory default
	// for the driver.
	Path string `ini:"path"`
}

type SheetsSection struct {
	SpreadsheetID string        `ini:"spreadsheet_id"`
	BaseURL       string        `ini:"base_url"`
	Timeout       time.Duration `ini:"timeout"`
	Clients       string        `ini:"clients"`
	Credits       string        `ini:"credits"`
	Payments      string        `ini:"payments"`
	Lookup        string        `ini:"lookup"`
	APIKey        string        `ini:"api_key"`
	AccessToken   string        `ini:"access_token"`
	Endpoint      string        `ini:"endpoint"`
}

// Names returns the configured sheet names.
func (s SheetsSection) Names() sheets.Names {
	return sheets.Names{
		Clients:  s.Clients,
		Credits:  s.Credits,
		Payments: s.Payments,
		Lookup:   s.Lookup,
	}
}

// CanAppend reports whether outbound sync has credentials.
func (s SheetsSection) CanAppend() bool {
	return s.SpreadsheetID != "" && (s.APIKey != "" || s.AccessToken != "")
}

type SyncSection struct {
	Enabled     bool          `ini:"enabled"`
	Interval    time.Duration `ini:"interval"`
	MaxAttempts int           `ini:"max_attempts"`
}

type AuthSection struct {
	Secret        string        `ini:"secret"`
	TokenTTL      time.Duration `ini:"token_ttl"`
	AdminPassword string        `ini:"admin_password"`
}

// Settings is the content of finzana.ini.
type Settings struct {
	Server ServerSection `ini:"server"`
	Store  StoreSection  `ini:"store"`
	Sheets SheetsSection `ini:"sheets"`
	Sync   SyncSection   `ini:"sync"`
	Auth   AuthSection   `ini:"auth"`
}

// Default returns the built-in settings.
func Default() *Settings {
	names := sheets.DefaultNames()

	return &Settings{
		Server: ServerSection{
			Host:         "127.0.0.1",
			Port:         8420,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Store: StoreSection{
			Driver: string(localstore.DriverBolt),
		},
		Sheets: SheetsSection{
			BaseURL:  sheets.DefaultBaseURL,
			Timeout:  sheets.DefaultTimeout,
			Clients:  names.Clients,
			Credits:  names.Credits,
			Payments: names.Payments,
			Lookup:   names.Lookup,
		},
		Sync: SyncSection{
			Enabled:     true,
			Interval:    time.Minute,
			MaxAttempts: 10,
		},
		Auth: AuthSection{
			TokenTTL:      12 * time.Hour,
			AdminPassword: "admin",
		},
	}
}

// DefaultPath returns the settings file in the data directory.
func DefaultPath() (string, error) {
	return params.Path(params.SettingsFile)
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (*Settings, error) {
	s := Default()

	if !encoding.FileExists(path) {
		return s, nil
	}

	cfg, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read settings %s: %w", path, err)
	}

	if err := cfg.MapTo(s); err != nil {
		return nil, fmt.Errorf("failed to map settings %s: %w", path, err)
	}

	return s, nil
}

// LoadOrCreate loads path and writes it back when it was missing or had
// no token secret, so the secret survives restarts.
func LoadOrCreate(path string) (*Settings, error) {
	s, err := Load(path)
	if err != nil {
		return nil, err
	}

	if encoding.FileExists(path) && s.Auth.Secret != "" {
		return s, nil
	}

	if s.Auth.Secret == "" {
		if s.Auth.Secret, err = NewSecret(); err != nil {
			return nil, err
		}
	}

	if err := s.Save(path); err != nil {
		return nil, err
	}

	return s, nil
}

// Save writes the settings to path with owner-only permissions.
func (s *Settings) Save(path string) error {
	cfg := ini.Empty()

	if err := cfg.ReflectFrom(s); err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}

	var buf bytes.Buffer
	if _, err := cfg.WriteTo(&buf); err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}

	return encoding.WriteFileSecure(path, buf.Bytes())
}

// StorePath returns the database file for the configured driver.
func (s *Settings) StorePath() (string, error) {
	if s.Store.Path != "" {
		return s.Store.Path, nil
	}

	if localstore.Driver(s.Store.Driver) == localstore.DriverSQLite {
		return params.Path(params.SQLiteFile)
	}

	return params.Path(params.BoltFile)
}

// NewSecret returns a random token secret.
func NewSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate secret: %w", err)
	}

	return hex.EncodeToString(buf), nil
}
