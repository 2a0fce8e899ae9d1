package model

import (
	"slices"

	"github.com/shopspring/decimal"
)

// Config holds the business lookup tables.
type Config struct {
	// Grupos are the lending groups clients may belong to
	Grupos []string `json:"grupos"`

	// Semanas are the allowed credit terms in weeks
	Semanas []int `json:"semanas"`

	// TiposUsuario are the staff roles
	TiposUsuario []string `json:"tipos_usuario"`

	// TasaInteres is the flat interest rate applied to a credit
	TasaInteres decimal.Decimal `json:"tasa_interes"`
}

// DefaultConfig returns the configuration used when the lookup sheet
// has nothing to offer.
func DefaultConfig() Config {
	return Config{
		Grupos:       []string{"Grupo 1", "Grupo 2", "Grupo 3", "Grupo 4"},
		Semanas:      []int{12, 14, 16, 20},
		TiposUsuario: []string{"admin", "supervisor", "promotor"},
		TasaInteres:  decimal.RequireFromString("0.15"),
	}
}

// AllowsGroup reports whether g is a configured group. An empty list allows any group.
func (c Config) AllowsGroup(g string) bool {
	return len(c.Grupos) == 0 || slices.Contains(c.Grupos, g)
}

// AllowsTerm reports whether weeks is a configured term. An empty list allows any term.
func (c Config) AllowsTerm(weeks int) bool {
	return len(c.Semanas) == 0 || slices.Contains(c.Semanas, weeks)
}

// AllowsUserType reports whether t is a configured user type.
func (c Config) AllowsUserType(t string) bool {
	return len(c.TiposUsuario) == 0 || slices.Contains(c.TiposUsuario, t)
}
