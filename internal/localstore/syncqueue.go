package localstore

import (
	"context"
	"time"
)

// Logical tables a sync entry can target.
const (
	TableClients  = "clientas"
	TableCredits  = "creditos"
	TablePayments = "pagos"
)

// SyncEntry is one outbound spreadsheet row waiting in the sync queue.
type SyncEntry struct {
	ID        int64
	Table     string
	Synced    bool
	Payload   []string
	Attempts  int
	LastError string
	SyncedAt  time.Time
	Timestamp time.Time
}

// Enqueue adds an unsynced row destined for table.
func Enqueue(ctx context.Context, s Store, table string, payload []string) (int64, error) {
	return s.Add(ctx, SyncQueue, Record{
		"table":    table,
		"synced":   false,
		"payload":  payload,
		"attempts": 0,
	})
}

// Pending returns the entries not yet synced, oldest first.
func Pending(ctx context.Context, s Store) ([]SyncEntry, error) {
	recs, err := s.GetByIndex(ctx, SyncQueue, "synced", false)
	if err != nil {
		return nil, err
	}

	out := make([]SyncEntry, 0, len(recs))
	for _, rec := range recs {
		out = append(out, SyncEntryFromRecord(rec))
	}

	return out, nil
}

// MarkSynced flags an entry as appended to the spreadsheet.
func MarkSynced(ctx context.Context, s Store, id int64, at time.Time) error {
	return s.Update(ctx, SyncQueue, id, Record{
		"synced":    true,
		"syncedAt":  stamp(at),
		"lastError": nil,
	})
}

// MarkFailed records a failed append attempt.
func MarkFailed(ctx context.Context, s Store, id int64, attempts int, cause error) error {
	return s.Update(ctx, SyncQueue, id, Record{
		"attempts":  attempts,
		"lastError": cause.Error(),
	})
}

// SyncEntryFromRecord converts a stored sync-queue record.
func SyncEntryFromRecord(rec Record) SyncEntry {
	id, _ := rec.ID()

	e := SyncEntry{
		ID:        id,
		Table:     rec.String("table"),
		Synced:    rec.Bool("synced"),
		Attempts:  int(rec.Int("attempts")),
		LastError: rec.String("lastError"),
		Timestamp: rec.Timestamp(),
	}

	if raw, ok := rec["payload"].([]any); ok {
		for _, v := range raw {
			s, _ := v.(string)
			e.Payload = append(e.Payload, s)
		}
	}

	if at, err := time.Parse(time.RFC3339Nano, rec.String("syncedAt")); err == nil {
		e.SyncedAt = at
	}

	return e
}
