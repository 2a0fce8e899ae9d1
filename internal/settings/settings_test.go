package settings

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "missing.ini"))
	require.NoError(t, err)
	assert.Equal(t, Default(), s)
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "finzana.ini")

	content := `[server]
port = 9000

[store]
driver = sqlite

[sheets]
spreadsheet_id = abc123
payments = Pagos

[sync]
interval = 5m
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	s, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, s.Server.Port)
	assert.Equal(t, "127.0.0.1", s.Server.Host)
	assert.Equal(t, "sqlite", s.Store.Driver)
	assert.Equal(t, "abc123", s.Sheets.SpreadsheetID)
	assert.Equal(t, "Pagos", s.Sheets.Names().Payments)
	assert.Equal(t, "Clientes", s.Sheets.Names().Clients)
	assert.Equal(t, 5*time.Minute, s.Sync.Interval)
	assert.True(t, s.Sync.Enabled)
}

func TestLoad_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.ini")
	require.NoError(t, os.WriteFile(path, []byte("[server\nport = x"), 0600))

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadOrCreate_PersistsSecret(t *testing.T) {
	path := filepath.Join(t.TempDir(), "finzana.ini")

	first, err := LoadOrCreate(path)
	require.NoError(t, err)
	require.NotEmpty(t, first.Auth.Secret)
	assert.FileExists(t, path)

	second, err := LoadOrCreate(path)
	require.NoError(t, err)
	assert.Equal(t, first.Auth.Secret, second.Auth.Secret)
	assert.Equal(t, first, second)
}

func TestSettings_Helpers(t *testing.T) {
	s := Default()

	assert.Equal(t, "127.0.0.1:8420", s.Server.Addr())
	assert.False(t, s.Sheets.CanAppend())

	s.Sheets.SpreadsheetID = "abc"
	s.Sheets.APIKey = "key"
	assert.True(t, s.Sheets.CanAppend())

	s.Store.Path = "/tmp/custom.bolt"
	path, err := s.StorePath()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/custom.bolt", path)
}
