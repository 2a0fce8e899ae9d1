package application

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedDir(dir string, err error) func(string) (string, error) {
	return func(string) (string, error) { return dir, err }
}

func TestDataDir(t *testing.T) {
	base := t.TempDir()

	tests := []struct {
		name    string
		home    string
		goos    string
		userDir func(string) (string, error)
		want    string
		wantErr string
	}{
		{name: "home override", home: base, goos: "linux", userDir: fixedDir("/ignored", nil), want: base},
		{name: "home is trimmed", home: "  " + base + " ", goos: "linux", userDir: fixedDir("/ignored", nil), want: base},
		{name: "user config dir", goos: "linux", userDir: fixedDir(base, nil), want: filepath.Join(base, AppName)},
		{name: "no user dir", goos: "linux", userDir: fixedDir("", errors.New("$HOME is not defined")), wantErr: "set FINZANA_HOME"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := dirLookup{
				getenv: func(key string) string {
					if key == HomeEnv {
						return tt.home
					}
					return ""
				},
				goos:    tt.goos,
				userDir: tt.userDir,
			}

			got, err := l.dataDir()
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDataDir_RelativeHome(t *testing.T) {
	l := dirLookup{
		getenv:  func(string) string { return "data" },
		goos:    "linux",
		userDir: fixedDir("/ignored", nil),
	}

	got, err := l.dataDir()
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(got))
	assert.Equal(t, "data", filepath.Base(got))
}

func TestDataDir_FromEnvironment(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(HomeEnv, dir)

	got, err := DataDir()
	require.NoError(t, err)
	assert.Equal(t, dir, got)
}
