package model

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Credit is a loan placed with a client.
type Credit struct {
	ID            string          `json:"id"`
	CURP          string          `json:"curp"`
	Monto         decimal.Decimal `json:"monto"`
	Plazo         int             `json:"plazo"`
	Fecha         time.Time       `json:"fecha"`
	Vencimiento   time.Time       `json:"vencimiento"`
	PagoSemanal   decimal.Decimal `json:"pagoSemanal"`
	RegistradoPor string          `json:"registradoPor,omitempty"`
}

// SheetRow returns the credit as a spreadsheet row.
func (c Credit) SheetRow() []string {
	return []string{
		c.ID,
		c.CURP,
		c.Monto.StringFixed(2),
		strconv.Itoa(c.Plazo),
		FormatDate(c.Fecha),
		FormatDate(c.Vencimiento),
		c.PagoSemanal.StringFixed(2),
	}
}
