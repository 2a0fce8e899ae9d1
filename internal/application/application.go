// Package application names the finzana binary and locates its data directory.
package application

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

const (
	AppName     = "finzana"
	DisplayName = "Finzana Back Office"

	// HomeEnv points finzana at an explicit data directory, e.g. for a
	// service account or a second branch office on the same machine.
	HomeEnv = "FINZANA_HOME"
)

// DataDir returns the directory holding finzana.ini, the database and the
// pid file. It does not create it.
//
//	FINZANA_HOME set: that path, made absolute
//	Windows:          %LocalAppData%\finzana
//	elsewhere:        $XDG_CONFIG_HOME/finzana or ~/.config/finzana
func DataDir() (string, error) {
	return osLookup().dataDir()
}

type dirLookup struct {
	getenv  func(string) string
	goos    string
	userDir func(goos string) (string, error)
}

func osLookup() dirLookup {
	return dirLookup{getenv: os.Getenv, goos: runtime.GOOS, userDir: userBaseDir}
}

func (l dirLookup) dataDir() (string, error) {
	if home := strings.TrimSpace(l.getenv(HomeEnv)); home != "" {
		abs, err := filepath.Abs(home)
		if err != nil {
			return "", fmt.Errorf("invalid %s %q: %w", HomeEnv, home, err)
		}

		return abs, nil
	}

	base, err := l.userDir(l.goos)
	if err != nil {
		return "", fmt.Errorf("failed to locate the user data directory (set %s): %w", HomeEnv, err)
	}

	return filepath.Join(base, AppName), nil
}

// userBaseDir is the local, non-roaming app data directory on Windows.
func userBaseDir(goos string) (string, error) {
	if goos == "windows" {
		return os.UserCacheDir()
	}

	return os.UserConfigDir()
}
