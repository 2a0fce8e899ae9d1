package localstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/inovacc/finzana/internal/encoding"
	"github.com/tidwall/gjson"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

var sqliteBaseSchema = []string{
	`CREATE TABLE IF NOT EXISTS collections (
		name TEXT PRIMARY KEY
	)`,
	`CREATE TABLE IF NOT EXISTS sequences (
		collection TEXT PRIMARY KEY,
		value      INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS records (
		collection TEXT    NOT NULL,
		id         INTEGER NOT NULL,
		body       TEXT    NOT NULL,
		PRIMARY KEY (collection, id)
	)`,
	`CREATE TABLE IF NOT EXISTS state (
		key  TEXT PRIMARY KEY,
		body TEXT NOT NULL
	)`,
}

const sqliteIndexPrefix = "idx_records_"

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SQLite is a Store backed by a single SQLite file. Records of every
// collection share one table; each declared index is an expression index
// over json_extract of the record body.
type SQLite struct {
	path string
	opts options
	mu   sync.RWMutex
	db   *sql.DB
}

// NewSQLite returns an uninitialized SQLite store at path.
func NewSQLite(path string, opts ...Option) *SQLite {
	return &SQLite{path: path, opts: buildOptions(opts)}
}

// Version returns the schema version this store opens at.
func (s *SQLite) Version() int {
	return s.opts.schema.Version
}

// Initialize opens the database, upgrading the schema when needed.
func (s *SQLite) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		return nil
	}

	if err := encoding.EnsureParentDir(s.path); err != nil {
		return fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}

	db, err := sql.Open("sqlite", s.path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}

	// SQLite doesn't handle multiple writers well
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}

	if err := s.migrate(ctx, db); err != nil {
		_ = db.Close()
		return fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}

	s.db = db

	return nil
}

func (s *SQLite) migrate(ctx context.Context, db *sql.DB) error {
	schema := s.opts.schema

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() { _ = tx.Rollback() }()

	var stored int
	if err := tx.QueryRowContext(ctx, "PRAGMA user_version").Scan(&stored); err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}

	if stored > schema.Version {
		return fmt.Errorf("database version %d is newer than schema version %d", stored, schema.Version)
	}

	for _, stmt := range sqliteBaseSchema {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("creating base schema: %w", err)
		}
	}

	wanted := map[string]string{}

	for _, c := range schema.Collections {
		if !identRe.MatchString(c.Name) {
			return fmt.Errorf("invalid collection name %q", c.Name)
		}

		for _, idx := range c.Indexes {
			if !identRe.MatchString(idx) {
				return fmt.Errorf("invalid index name %q", idx)
			}

			wanted[sqliteIndexName(c.Name, idx)] = fmt.Sprintf(
				"CREATE INDEX IF NOT EXISTS %s ON records(collection, json_extract(body, '$.%s'))",
				sqliteIndexName(c.Name, idx), idx)
		}
	}

	upgrade := stored < schema.Version

	if upgrade {
		existing, err := queryStrings(ctx, tx, "SELECT name FROM collections")
		if err != nil {
			return err
		}

		for _, name := range existing {
			if schema.Declares(name) {
				continue
			}

			for _, stmt := range []string{
				"DELETE FROM records WHERE collection = ?",
				"DELETE FROM sequences WHERE collection = ?",
				"DELETE FROM collections WHERE name = ?",
			} {
				if _, err := tx.ExecContext(ctx, stmt, name); err != nil {
					return fmt.Errorf("dropping collection %s: %w", name, err)
				}
			}

			s.opts.logger.Info("dropped collection from previous schema", "collection", name)
		}

		indexes, err := queryStrings(ctx, tx,
			"SELECT name FROM sqlite_master WHERE type = 'index' AND name LIKE ?", sqliteIndexPrefix+"%")
		if err != nil {
			return err
		}

		for _, name := range indexes {
			if _, ok := wanted[name]; ok {
				continue
			}

			if _, err := tx.ExecContext(ctx, "DROP INDEX IF EXISTS "+name); err != nil {
				return fmt.Errorf("dropping index %s: %w", name, err)
			}
		}
	}

	for _, c := range schema.Collections {
		if _, err := tx.ExecContext(ctx, "INSERT OR IGNORE INTO collections(name) VALUES (?)", c.Name); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, "INSERT OR IGNORE INTO sequences(collection, value) VALUES (?, 0)", c.Name); err != nil {
			return err
		}
	}

	for _, stmt := range wanted {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("creating index: %w", err)
		}
	}

	if upgrade {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", schema.Version)); err != nil {
			return fmt.Errorf("writing schema version: %w", err)
		}

		if stored > 0 {
			s.opts.logger.Info("upgraded local store schema", "from", stored, "to", schema.Version)
		}
	}

	return tx.Commit()
}

func sqliteIndexName(collection, index string) string {
	return sqliteIndexPrefix + collection + "_" + index
}

func queryStrings(ctx context.Context, tx *sql.Tx, query string, args ...any) ([]string, error) {
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	defer func() { _ = rows.Close() }()

	var out []string

	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}

		out = append(out, s)
	}

	return out, rows.Err()
}

// Close closes the database.
func (s *SQLite) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}

	err := s.db.Close()
	s.db = nil

	return err
}

func (s *SQLite) conn(collection string) (*sql.DB, Collection, error) {
	s.mu.RLock()
	db := s.db
	s.mu.RUnlock()

	if db == nil {
		return nil, Collection{}, ErrNotInitialized
	}

	if collection == "" {
		return db, Collection{}, nil
	}

	c, err := s.opts.schema.Lookup(collection)

	return db, c, err
}

func (s *SQLite) inTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}

	return tx.Commit()
}

// Add inserts record and returns its id.
func (s *SQLite) Add(ctx context.Context, collection string, record Record) (int64, error) {
	db, c, err := s.conn(collection)
	if err != nil {
		return 0, err
	}

	var id int64

	err = s.inTx(ctx, db, func(tx *sql.Tx) error {
		rec := record.clone()

		given, ok := rec.ID()
		if !ok || given <= 0 {
			if _, err := tx.ExecContext(ctx,
				"UPDATE sequences SET value = value + 1 WHERE collection = ?", c.Name); err != nil {
				return err
			}

			if err := tx.QueryRowContext(ctx,
				"SELECT value FROM sequences WHERE collection = ?", c.Name).Scan(&id); err != nil {
				return err
			}
		} else {
			var one int

			err := tx.QueryRowContext(ctx,
				"SELECT 1 FROM records WHERE collection = ? AND id = ?", c.Name, given).Scan(&one)
			switch {
			case err == nil:
				return fmt.Errorf("%w: %s/%d", ErrExists, c.Name, given)
			case !errors.Is(err, sql.ErrNoRows):
				return err
			}

			if _, err := tx.ExecContext(ctx,
				"UPDATE sequences SET value = MAX(value, ?) WHERE collection = ?", given, c.Name); err != nil {
				return err
			}

			id = given
		}

		rec[FieldID] = id
		if _, ok := rec[FieldTimestamp]; !ok {
			rec[FieldTimestamp] = stamp(s.opts.now())
		}

		data, err := encodeRecord(rec)
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx,
			"INSERT INTO records(collection, id, body) VALUES (?, ?, ?)", c.Name, id, string(data))

		return err
	})
	if err != nil {
		return 0, err
	}

	return id, nil
}

// Get returns one record by id.
func (s *SQLite) Get(ctx context.Context, collection string, id int64) (Record, error) {
	db, c, err := s.conn(collection)
	if err != nil {
		return nil, err
	}

	var body string

	err = db.QueryRowContext(ctx,
		"SELECT body FROM records WHERE collection = ? AND id = ?", c.Name, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s/%d", ErrNotFound, c.Name, id)
	}

	if err != nil {
		return nil, err
	}

	return decodeRecord(id, []byte(body))
}

// GetAll returns every record of the collection in id order.
func (s *SQLite) GetAll(ctx context.Context, collection string) ([]Record, error) {
	db, c, err := s.conn(collection)
	if err != nil {
		return nil, err
	}

	return s.queryRecords(ctx, db,
		"SELECT id, body FROM records WHERE collection = ? ORDER BY id", c.Name)
}

// GetByIndex returns the records whose indexed field equals value.
func (s *SQLite) GetByIndex(ctx context.Context, collection, index string, value any) ([]Record, error) {
	db, c, err := s.conn(collection)
	if err != nil {
		return nil, err
	}

	if !c.HasIndex(index) {
		return nil, fmt.Errorf("%w: %s.%s", ErrUnknownIndex, collection, index)
	}

	want, err := lookupValue(value)
	if err != nil {
		return nil, err
	}

	var arg any

	switch want.Type {
	case gjson.Null:
		return []Record{}, nil
	case gjson.String:
		arg = want.String()
	case gjson.Number:
		arg = want.Float()
	case gjson.True:
		arg = 1
	case gjson.False:
		arg = 0
	default:
		arg = want.Raw
	}

	// The expression must match the index definition for SQLite to use it.
	query := fmt.Sprintf(
		"SELECT id, body FROM records WHERE collection = ? AND json_extract(body, '$.%s') = ? ORDER BY id", index)

	return s.queryRecords(ctx, db, query, c.Name, arg)
}

func (s *SQLite) queryRecords(ctx context.Context, db *sql.DB, query string, args ...any) ([]Record, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	defer func() { _ = rows.Close() }()

	out := []Record{}

	for rows.Next() {
		var (
			id   int64
			body string
		)

		if err := rows.Scan(&id, &body); err != nil {
			return nil, err
		}

		rec, err := decodeRecord(id, []byte(body))
		if err != nil {
			return nil, err
		}

		out = append(out, rec)
	}

	return out, rows.Err()
}

// Update merges partial over the stored record and refreshes its timestamp.
func (s *SQLite) Update(ctx context.Context, collection string, id int64, partial Record) error {
	db, c, err := s.conn(collection)
	if err != nil {
		return err
	}

	return s.inTx(ctx, db, func(tx *sql.Tx) error {
		var body string

		err := tx.QueryRowContext(ctx,
			"SELECT body FROM records WHERE collection = ? AND id = ?", c.Name, id).Scan(&body)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: %s/%d", ErrNotFound, c.Name, id)
		}

		if err != nil {
			return err
		}

		existing, err := decodeRecord(id, []byte(body))
		if err != nil {
			return err
		}

		merged := existing.merge(partial)
		merged[FieldTimestamp] = stamp(s.opts.now())

		data, err := encodeRecord(merged)
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx,
			"UPDATE records SET body = ? WHERE collection = ? AND id = ?", string(data), c.Name, id)

		return err
	})
}

// Delete removes the record. Deleting a missing id succeeds.
func (s *SQLite) Delete(ctx context.Context, collection string, id int64) error {
	db, c, err := s.conn(collection)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, "DELETE FROM records WHERE collection = ? AND id = ?", c.Name, id)

	return err
}

// ClearStore removes every record of the collection. The id sequence is kept.
func (s *SQLite) ClearStore(ctx context.Context, collection string) error {
	db, c, err := s.conn(collection)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, "DELETE FROM records WHERE collection = ?", c.Name)

	return err
}

// GetCount returns the number of records in the collection.
func (s *SQLite) GetCount(ctx context.Context, collection string) (int, error) {
	all, err := s.GetAll(ctx, collection)
	if err != nil {
		return 0, err
	}

	return len(all), nil
}

// PutState stores v as JSON under key.
func (s *SQLite) PutState(ctx context.Context, key string, v any) error {
	db, _, err := s.conn("")
	if err != nil {
		return err
	}

	data, err := encoding.ToJSON(v)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx,
		`INSERT INTO state(key, body) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET body = excluded.body`, key, string(data))

	return err
}

// GetState decodes the value stored under key into v. It reports false
// when nothing is stored.
func (s *SQLite) GetState(ctx context.Context, key string, v any) (bool, error) {
	db, _, err := s.conn("")
	if err != nil {
		return false, err
	}

	var body string

	err = db.QueryRowContext(ctx, "SELECT body FROM state WHERE key = ?", key).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}

	if err != nil {
		return false, err
	}

	return true, encoding.Decode([]byte(body), v)
}

// Collections lists the collection names recorded in the database.
func (s *SQLite) Collections(ctx context.Context) ([]string, error) {
	db, _, err := s.conn("")
	if err != nil {
		return nil, err
	}

	var out []string

	err = s.inTx(ctx, db, func(tx *sql.Tx) error {
		out, err = queryStrings(ctx, tx, "SELECT name FROM collections ORDER BY name")
		return err
	})

	return out, err
}
