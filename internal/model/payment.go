package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentType tags how a payment was collected.
type PaymentType string

const (
	PaymentNormal        PaymentType = "normal"
	PaymentExtraordinary PaymentType = "extraordinary"
	PaymentUpdated       PaymentType = "updated"
)

// Payment is one collection against a credit.
type Payment struct {
	ID            string          `json:"id"`
	CreditoID     string          `json:"creditoId"`
	Monto         decimal.Decimal `json:"monto"`
	Fecha         time.Time       `json:"fecha"`
	Tipo          PaymentType     `json:"tipo"`
	Comision      decimal.Decimal `json:"comision"`
	RegistradoPor string          `json:"registradoPor,omitempty"`
}

// SheetRow returns the payment as a spreadsheet row.
func (p Payment) SheetRow() []string {
	return []string{
		p.ID,
		p.CreditoID,
		p.Monto.StringFixed(2),
		FormatDate(p.Fecha),
		string(p.Tipo),
		p.Comision.StringFixed(2),
	}
}
