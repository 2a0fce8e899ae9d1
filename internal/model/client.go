package model

import (
	"strings"
	"time"
)

const (
	// SourceSystem marks clients registered through this application
	SourceSystem = "sistema"

	// SourceSheets marks clients read from the spreadsheet mirror
	SourceSheets = "sheets"

	// CURPLength is the length of a normalized CURP
	CURPLength = 18
)

// Client is a borrower registered with the business.
type Client struct {
	// CURP is the government ID and the business key
	CURP string `json:"curp"`

	// Nombre is the client's full name
	Nombre string `json:"nombre"`

	// Telefono is a contact phone number
	Telefono string `json:"telefono"`

	// Grupo is the lending group the client belongs to
	Grupo string `json:"grupo"`

	// Direccion is the client's address
	Direccion string `json:"direccion"`

	// FechaRegistro is when the client was registered
	FechaRegistro time.Time `json:"fechaRegistro"`

	// RegistradoPor is the user who registered the client
	RegistradoPor string `json:"registradoPor"`

	// Fuente tells where the record came from
	Fuente string `json:"fuente"`
}

// NormalizeCURP trims and upper-cases a CURP.
func NormalizeCURP(curp string) string {
	return strings.ToUpper(strings.TrimSpace(curp))
}

// ValidCURP reports whether a normalized CURP has the expected shape.
func ValidCURP(curp string) bool {
	if len(curp) != CURPLength {
		return false
	}

	for _, r := range curp {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return false
		}
	}

	return true
}

// SheetRow returns the client as a spreadsheet row.
func (c Client) SheetRow() []string {
	return []string{
		c.CURP,
		c.Nombre,
		c.Telefono,
		c.Grupo,
		c.Direccion,
		FormatDate(c.FechaRegistro),
		c.RegistradoPor,
		c.Fuente,
	}
}
