package localstore

import (
	"context"
	"time"

	"github.com/inovacc/finzana/internal/model"
	"github.com/shopspring/decimal"
)

// AddTransaction stores t in the transactions collection and returns its id.
func AddTransaction(ctx context.Context, s Store, t model.Transaction) (int64, error) {
	return s.Add(ctx, Transactions, transactionRecord(t))
}

// ListTransactions returns every stored transaction.
func ListTransactions(ctx context.Context, s Store) ([]model.Transaction, error) {
	recs, err := s.GetAll(ctx, Transactions)
	if err != nil {
		return nil, err
	}

	return toTransactions(recs), nil
}

// TransactionsByType returns the transactions tagged typ.
func TransactionsByType(ctx context.Context, s Store, typ string) ([]model.Transaction, error) {
	recs, err := s.GetByIndex(ctx, Transactions, "type", typ)
	if err != nil {
		return nil, err
	}

	return toTransactions(recs), nil
}

// TransactionsByCategory returns the transactions filed under category.
func TransactionsByCategory(ctx context.Context, s Store, category string) ([]model.Transaction, error) {
	recs, err := s.GetByIndex(ctx, Transactions, "category", category)
	if err != nil {
		return nil, err
	}

	return toTransactions(recs), nil
}

// TransactionsOn returns the transactions dated on the calendar day of day.
func TransactionsOn(ctx context.Context, s Store, day time.Time) ([]model.Transaction, error) {
	recs, err := s.GetByIndex(ctx, Transactions, "date", model.FormatDate(day))
	if err != nil {
		return nil, err
	}

	return toTransactions(recs), nil
}

// GetTransaction returns the transaction stored under id.
func GetTransaction(ctx context.Context, s Store, id int64) (model.Transaction, error) {
	rec, err := s.Get(ctx, Transactions, id)
	if err != nil {
		return model.Transaction{}, err
	}

	return TransactionFromRecord(rec), nil
}

// TransactionPatch lists the fields an update changes. Nil fields are kept.
type TransactionPatch struct {
	Date        *time.Time       `json:"date,omitempty"`
	Type        *string          `json:"type,omitempty"`
	Category    *string          `json:"category,omitempty"`
	Amount      *decimal.Decimal `json:"amount,omitempty"`
	Description *string          `json:"description,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p TransactionPatch) Empty() bool {
	return p.Date == nil && p.Type == nil && p.Category == nil && p.Amount == nil && p.Description == nil
}

// UpdateTransaction merges patch into the transaction stored under id.
func UpdateTransaction(ctx context.Context, s Store, id int64, patch TransactionPatch) error {
	partial := Record{}

	if patch.Date != nil {
		partial["date"] = model.FormatDate(*patch.Date)
	}

	if patch.Type != nil {
		partial["type"] = *patch.Type
	}

	if patch.Category != nil {
		partial["category"] = *patch.Category
	}

	if patch.Amount != nil {
		partial["amount"] = patch.Amount.String()
	}

	if patch.Description != nil {
		partial["description"] = *patch.Description
	}

	return s.Update(ctx, Transactions, id, partial)
}

// DeleteTransaction removes the transaction stored under id.
func DeleteTransaction(ctx context.Context, s Store, id int64) error {
	return s.Delete(ctx, Transactions, id)
}

func transactionRecord(t model.Transaction) Record {
	rec := Record{
		"date":     model.FormatDate(t.Date),
		"type":     t.Type,
		"category": t.Category,
		"amount":   t.Amount.String(),
	}

	if t.Description != "" {
		rec["description"] = t.Description
	}

	if t.ID > 0 {
		rec[FieldID] = t.ID
	}

	return rec
}

// TransactionFromRecord converts a stored record. Unknown fields are ignored.
func TransactionFromRecord(rec Record) model.Transaction {
	id, _ := rec.ID()

	t := model.Transaction{
		ID:          id,
		Type:        rec.String("type"),
		Category:    rec.String("category"),
		Description: rec.String("description"),
		Timestamp:   rec.Timestamp(),
	}

	if d, err := time.ParseInLocation(model.DateLayout, rec.String("date"), time.Local); err == nil {
		t.Date = d
	}

	if amt, err := decimal.NewFromString(rec.String("amount")); err == nil {
		t.Amount = amt
	}

	return t
}

func toTransactions(recs []Record) []model.Transaction {
	out := make([]model.Transaction, 0, len(recs))
	for _, rec := range recs {
		out = append(out, TransactionFromRecord(rec))
	}

	return out
}
