package localstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"time"
)

var (
	// ErrStorageUnavailable is returned when the engine cannot be opened or upgraded.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrNotInitialized is returned by every operation issued before Initialize succeeds.
	ErrNotInitialized = errors.New("store not initialized")

	// ErrNotFound is returned when a record id does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrUnknownCollection is returned for collections the schema does not declare.
	ErrUnknownCollection = errors.New("unknown collection")

	// ErrUnknownIndex is returned for indexes the collection does not declare.
	ErrUnknownIndex = errors.New("unknown index")
)

const (
	// Transactions holds locally recorded money movements.
	Transactions = "transactions"

	// SyncQueue holds outbound spreadsheet rows waiting to be appended.
	SyncQueue = "sync_queue"

	// FieldID is the store-assigned record identifier.
	FieldID = "id"

	// FieldTimestamp is the last-write time, RFC3339 in UTC.
	FieldTimestamp = "timestamp"
)

// Store is a versioned named-collection store with secondary indexes
// and a keyed state area for whole application collections.
//
//nolint:interfacebloat // mirrors the object store surface used by the app
type Store interface {
	Initialize(ctx context.Context) error
	Add(ctx context.Context, collection string, record Record) (int64, error)
	Get(ctx context.Context, collection string, id int64) (Record, error)
	GetAll(ctx context.Context, collection string) ([]Record, error)
	GetByIndex(ctx context.Context, collection, index string, value any) ([]Record, error)
	Update(ctx context.Context, collection string, id int64, partial Record) error
	Delete(ctx context.Context, collection string, id int64) error
	ClearStore(ctx context.Context, collection string) error
	GetCount(ctx context.Context, collection string) (int, error)
	PutState(ctx context.Context, key string, v any) error
	GetState(ctx context.Context, key string, v any) (bool, error)
	Version() int
	Close() error
}

// Collection declares a record collection and its indexed fields.
type Collection struct {
	Name    string
	Indexes []string
}

// HasIndex reports whether name is declared on the collection.
func (c Collection) HasIndex(name string) bool {
	return slices.Contains(c.Indexes, name)
}

// Schema is the versioned set of collections a store exposes.
type Schema struct {
	Name        string
	Version     int
	Collections []Collection
}

// DefaultSchema is the schema used by the application.
var DefaultSchema = Schema{
	Name:    "finzana",
	Version: 2,
	Collections: []Collection{
		{Name: Transactions, Indexes: []string{"date", "type", "category"}},
		{Name: SyncQueue, Indexes: []string{"table", "synced", "timestamp"}},
	},
}

// Lookup returns the declared collection called name.
func (s Schema) Lookup(name string) (Collection, error) {
	for _, c := range s.Collections {
		if c.Name == name {
			return c, nil
		}
	}

	return Collection{}, fmt.Errorf("%w: %s", ErrUnknownCollection, name)
}

// Declares reports whether name is a collection of this schema.
func (s Schema) Declares(name string) bool {
	_, err := s.Lookup(name)
	return err == nil
}

// Driver selects the engine behind a Store.
type Driver string

const (
	DriverBolt   Driver = "bolt"
	DriverSQLite Driver = "sqlite"
)

// Open builds an uninitialized store for the given driver.
func Open(driver Driver, path string, opts ...Option) (Store, error) {
	switch driver {
	case DriverBolt, "":
		return NewBolt(path, opts...), nil
	case DriverSQLite:
		return NewSQLite(path, opts...), nil
	default:
		return nil, fmt.Errorf("unsupported store driver %q", driver)
	}
}

type options struct {
	schema Schema
	now    func() time.Time
	logger *slog.Logger
}

// Option configures a store.
type Option func(*options)

// WithSchema replaces DefaultSchema.
func WithSchema(s Schema) Option {
	return func(o *options) { o.schema = s }
}

// WithClock sets the clock used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

func buildOptions(opts []Option) options {
	o := options{
		schema: DefaultSchema,
		now:    time.Now,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(&o)
	}

	return o
}

// Record is one stored object. Caller fields are kept as-is; FieldID and
// FieldTimestamp are managed by the store.
type Record map[string]any

// ID returns the record identifier, if it carries one.
func (r Record) ID() (int64, bool) {
	return toInt64(r[FieldID])
}

// Timestamp returns the parsed last-write time or the zero time.
func (r Record) Timestamp() time.Time {
	s, ok := r[FieldTimestamp].(string)
	if !ok {
		return time.Time{}
	}

	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}

	return t
}

// String returns field as a string, or "" when absent.
func (r Record) String(field string) string {
	switch v := r[field].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// Bool returns field as a bool.
func (r Record) Bool(field string) bool {
	b, _ := r[field].(bool)
	return b
}

// Int returns field as an int64.
func (r Record) Int(field string) int64 {
	n, _ := toInt64(r[field])
	return n
}

func (r Record) clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}

	return out
}

// merge lays partial over r; partial wins on conflict. The id never changes.
func (r Record) merge(partial Record) Record {
	out := r.clone()
	for k, v := range partial {
		if k == FieldID {
			continue
		}
		out[k] = v
	}

	return out
}

func stamp(now time.Time) string {
	return now.UTC().Format(time.RFC3339Nano)
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint64:
		return int64(n), true
	case float64:
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	case string:
		i, err := strconv.ParseInt(n, 10, 64)
		return i, err == nil
	default:
		return 0, false
	}
}

// encodeRecord marshals a record for storage.
func encodeRecord(r Record) ([]byte, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("failed to encode record: %w", err)
	}

	return data, nil
}
