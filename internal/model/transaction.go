package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is a money movement kept in the local store.
type Transaction struct {
	ID          int64           `json:"id,omitempty"`
	Date        time.Time       `json:"date"`
	Type        string          `json:"type"`
	Category    string          `json:"category"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description,omitempty"`
	Timestamp   time.Time       `json:"timestamp,omitempty"`
}
