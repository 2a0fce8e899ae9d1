package auth

import (
	"fmt"
	"os"
	"strings"
)

// Environment variables that override credentials stored in finzana.ini.
const (
	EnvTokenSecret     = "FINZANA_TOKEN_SECRET"
	EnvSheetsAPIKey    = "FINZANA_SHEETS_API_KEY"
	EnvSheetsToken     = "FINZANA_SHEETS_TOKEN"
	EnvSheetsTokenFile = "FINZANA_SHEETS_TOKEN_FILE"
)

// Source indicates where a credential was found.
type Source string

const (
	SourceFlag     Source = "flag"
	SourceEnv      Source = "env"
	SourceFile     Source = "file"
	SourceSettings Source = "settings"
	SourceNone     Source = "none"
)

// Credential is a resolved secret and where it came from.
type Credential struct {
	Value  string
	Source Source
	Name   string // e.g. "FINZANA_SHEETS_TOKEN" or "finzana.ini"
}

// Provider returns a credential value, or "" when it has none.
// An error is reserved for unexpected failures such as an unreadable file.
type Provider func() (value string, source Source, name string, err error)

// Resolver looks a credential up in its providers, first match wins.
type Resolver struct {
	name      string
	providers []Provider
	required  bool
}

// NewResolver creates a resolver for the named credential.
func NewResolver(name string) *Resolver {
	return &Resolver{name: name}
}

// WithFlag uses a flag value, read at resolution time.
func (r *Resolver) WithFlag(value *string) *Resolver {
	r.providers = append(r.providers, func() (string, Source, string, error) {
		if value != nil && *value != "" {
			return *value, SourceFlag, "flag", nil
		}
		return "", SourceNone, "", nil
	})
	return r
}

func (r *Resolver) WithEnv(envVar string) *Resolver {
	r.providers = append(r.providers, func() (string, Source, string, error) {
		if v := os.Getenv(envVar); v != "" {
			return v, SourceEnv, envVar, nil
		}
		return "", SourceNone, "", nil
	})
	return r
}

// WithFileFromEnv reads the credential from the file named by envVar.
func (r *Resolver) WithFileFromEnv(envVar string) *Resolver {
	r.providers = append(r.providers, func() (string, Source, string, error) {
		path := os.Getenv(envVar)
		if path == "" {
			return "", SourceNone, "", nil
		}

		v, err := readSecretFile(path)
		if err != nil {
			return "", SourceNone, "", err
		}

		return v, SourceFile, path, nil
	})
	return r
}

// WithSettings falls back to the value loaded from finzana.ini.
func (r *Resolver) WithSettings(value string) *Resolver {
	r.providers = append(r.providers, func() (string, Source, string, error) {
		if value != "" {
			return value, SourceSettings, "finzana.ini", nil
		}
		return "", SourceNone, "", nil
	})
	return r
}

// Required makes Resolve fail when no provider has a value.
func (r *Resolver) Required() *Resolver {
	r.required = true
	return r
}

// Resolve returns the first credential found. An optional credential that
// is missing resolves to an empty Credential with SourceNone.
func (r *Resolver) Resolve() (Credential, error) {
	for _, provider := range r.providers {
		v, src, name, err := provider()
		if err != nil {
			return Credential{}, fmt.Errorf("failed to resolve %s: %w", r.name, err)
		}
		if v != "" {
			return Credential{Value: v, Source: src, Name: name}, nil
		}
	}

	if r.required {
		return Credential{}, fmt.Errorf("%s is required", r.name)
	}

	return Credential{Source: SourceNone}, nil
}

func readSecretFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}

	return strings.TrimSpace(string(data)), nil
}
