package params

import (
	"path/filepath"
	"sync"

	"github.com/inovacc/finzana/internal/application"
	"github.com/inovacc/finzana/internal/encoding"
)

const (
	// SettingsFile is the INI file holding runtime settings
	SettingsFile = "finzana.ini"

	// BoltFile is the default bbolt database file
	BoltFile = "finzana.bolt"

	// SQLiteFile is the default SQLite database file
	SQLiteFile = "finzana.sqlite"
)

var (
	once       sync.Once
	appdataDir string
	appdataErr error
)

// AppdataDir returns the data directory, creating it on first use.
func AppdataDir() (string, error) {
	once.Do(func() {
		appdataDir, appdataErr = application.DataDir()
		if appdataErr != nil {
			return
		}

		appdataErr = encoding.EnsureDir(appdataDir)
	})

	return appdataDir, appdataErr
}

// Path joins name onto the data directory.
func Path(name string) (string, error) {
	dir, err := AppdataDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(dir, name), nil
}
