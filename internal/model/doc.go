// Package model defines the data structures used throughout Finzana.
//
// These are the records the back office works with: clients ("clientas"),
// credits placed with them ("colocaciones"), the weekly payments collected
// against those credits ("cobranza"), staff users, and the business
// configuration read from the lookup sheet.
//
// # Client
//
// A [Client] is keyed by its CURP, normalized with [NormalizeCURP]:
//
//	type Client struct {
//	    CURP          string    // Government ID, upper-cased and trimmed
//	    Nombre        string    // Full name
//	    Grupo         string    // One of Config.Grupos
//	    FechaRegistro time.Time // Registration time
//	    Fuente        string    // "sistema" or "sheets"
//	}
//
// # Config
//
// [Config] holds the lookup table values (groups, terms, user types and the
// interest rate). [DefaultConfig] is used when the lookup sheet is empty.
package model
