package localstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/inovacc/finzana/internal/encoding"
	"github.com/tidwall/gjson"
	"go.etcd.io/bbolt"
)

var (
	boltBucketMeta    = []byte("__meta")  // key: "name", "version"
	boltBucketState   = []byte("__state") // key: state key -> JSON
	boltBucketRecords = []byte("records") // key: big-endian id -> record JSON
	boltBucketIndexes = []byte("indexes") // nested bucket per index: value\x00id -> empty

	boltKeyName    = []byte("name")
	boltKeyVersion = []byte("version")
)

// ErrExists is returned when Add is given an id that is already stored.
var ErrExists = errors.New("record already exists")

// Bolt is a Store backed by a bbolt file. Each collection is a top-level
// bucket holding a records bucket and one nested bucket per index.
type Bolt struct {
	path    string
	opts    options
	mu      sync.RWMutex
	storage *bbolt.DB
}

// NewBolt returns an uninitialized bbolt store at path.
func NewBolt(path string, opts ...Option) *Bolt {
	return &Bolt{path: path, opts: buildOptions(opts)}
}

// Path returns the database file path.
func (b *Bolt) Path() string {
	return b.path
}

// Version returns the schema version this store opens at.
func (b *Bolt) Version() int {
	return b.opts.schema.Version
}

// Initialize opens the database, upgrading the schema when needed.
func (b *Bolt) Initialize(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.storage != nil {
		return nil
	}

	if err := encoding.EnsureParentDir(b.path); err != nil {
		return fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}

	instance, err := bbolt.Open(b.path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}

	if err := instance.Update(b.migrate); err != nil {
		_ = instance.Close()

		return fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}

	b.storage = instance

	return nil
}

func (b *Bolt) migrate(tx *bbolt.Tx) error {
	schema := b.opts.schema

	meta, err := tx.CreateBucketIfNotExists(boltBucketMeta)
	if err != nil {
		return err
	}

	if _, err := tx.CreateBucketIfNotExists(boltBucketState); err != nil {
		return err
	}

	stored := 0
	if v := meta.Get(boltKeyVersion); v != nil {
		if stored, err = strconv.Atoi(string(v)); err != nil {
			return fmt.Errorf("corrupt schema version %q: %w", v, err)
		}
	}

	if stored > schema.Version {
		return fmt.Errorf("database version %d is newer than schema version %d", stored, schema.Version)
	}

	upgrade := stored < schema.Version

	if upgrade {
		var stale [][]byte

		if err := tx.ForEach(func(name []byte, _ *bbolt.Bucket) error {
			if bytes.Equal(name, boltBucketMeta) || bytes.Equal(name, boltBucketState) {
				return nil
			}

			if !schema.Declares(string(name)) {
				stale = append(stale, bytes.Clone(name))
			}

			return nil
		}); err != nil {
			return err
		}

		for _, name := range stale {
			if err := tx.DeleteBucket(name); err != nil {
				return fmt.Errorf("failed to drop collection %s: %w", name, err)
			}

			b.opts.logger.Info("dropped collection from previous schema", "collection", string(name))
		}
	}

	for _, c := range schema.Collections {
		bucket, err := tx.CreateBucketIfNotExists([]byte(c.Name))
		if err != nil {
			return err
		}

		if _, err := bucket.CreateBucketIfNotExists(boltBucketRecords); err != nil {
			return err
		}

		if upgrade {
			if err := rebuildIndexes(bucket, c); err != nil {
				return fmt.Errorf("failed to rebuild indexes of %s: %w", c.Name, err)
			}

			continue
		}

		indexes, err := bucket.CreateBucketIfNotExists(boltBucketIndexes)
		if err != nil {
			return err
		}

		for _, idx := range c.Indexes {
			if _, err := indexes.CreateBucketIfNotExists([]byte(idx)); err != nil {
				return err
			}
		}
	}

	if !upgrade {
		return nil
	}

	if stored > 0 {
		b.opts.logger.Info("upgraded local store schema", "from", stored, "to", schema.Version)
	}

	if err := meta.Put(boltKeyName, []byte(schema.Name)); err != nil {
		return err
	}

	return meta.Put(boltKeyVersion, []byte(strconv.Itoa(schema.Version)))
}

func rebuildIndexes(bucket *bbolt.Bucket, c Collection) error {
	if bucket.Bucket(boltBucketIndexes) != nil {
		if err := bucket.DeleteBucket(boltBucketIndexes); err != nil {
			return err
		}
	}

	indexes, err := bucket.CreateBucket(boltBucketIndexes)
	if err != nil {
		return err
	}

	for _, idx := range c.Indexes {
		if _, err := indexes.CreateBucket([]byte(idx)); err != nil {
			return err
		}
	}

	records := bucket.Bucket(boltBucketRecords)

	return records.ForEach(func(k, v []byte) error {
		return addIndexEntries(indexes, c, keyID(k), v)
	})
}

// Close closes the database. The store must be initialized again before reuse.
func (b *Bolt) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.storage == nil {
		return nil
	}

	err := b.storage.Close()
	b.storage = nil

	return err
}

func (b *Bolt) view(ctx context.Context, fn func(tx *bbolt.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.storage == nil {
		return ErrNotInitialized
	}

	return b.storage.View(fn)
}

func (b *Bolt) update(ctx context.Context, fn func(tx *bbolt.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.storage == nil {
		return ErrNotInitialized
	}

	return b.storage.Update(fn)
}

// lookup checks initialization before the schema so callers see
// ErrNotInitialized ahead of any other error.
func (b *Bolt) lookup(name string) (Collection, error) {
	b.mu.RLock()
	ready := b.storage != nil
	b.mu.RUnlock()

	if !ready {
		return Collection{}, ErrNotInitialized
	}

	return b.opts.schema.Lookup(name)
}

func collectionBuckets(tx *bbolt.Tx, name string) (records, indexes *bbolt.Bucket) {
	bucket := tx.Bucket([]byte(name))
	return bucket.Bucket(boltBucketRecords), bucket.Bucket(boltBucketIndexes)
}

// Add inserts record and returns its id.
func (b *Bolt) Add(ctx context.Context, collection string, record Record) (int64, error) {
	c, err := b.lookup(collection)
	if err != nil {
		return 0, err
	}

	var id int64

	err = b.update(ctx, func(tx *bbolt.Tx) error {
		records, indexes := collectionBuckets(tx, c.Name)
		rec := record.clone()

		given, ok := rec.ID()
		switch {
		case !ok || given <= 0:
			seq, err := records.NextSequence()
			if err != nil {
				return err
			}

			id = int64(seq)
		default:
			if records.Get(idKey(given)) != nil {
				return fmt.Errorf("%w: %s/%d", ErrExists, c.Name, given)
			}

			if uint64(given) > records.Sequence() {
				if err := records.SetSequence(uint64(given)); err != nil {
					return err
				}
			}

			id = given
		}

		rec[FieldID] = id
		if _, ok := rec[FieldTimestamp]; !ok {
			rec[FieldTimestamp] = stamp(b.opts.now())
		}

		return putRecord(records, indexes, c, id, rec, nil)
	})
	if err != nil {
		return 0, err
	}

	return id, nil
}

// Get returns one record by id.
func (b *Bolt) Get(ctx context.Context, collection string, id int64) (Record, error) {
	c, err := b.lookup(collection)
	if err != nil {
		return nil, err
	}

	var rec Record

	err = b.view(ctx, func(tx *bbolt.Tx) error {
		records, _ := collectionBuckets(tx, c.Name)

		data := records.Get(idKey(id))
		if data == nil {
			return fmt.Errorf("%w: %s/%d", ErrNotFound, c.Name, id)
		}

		rec, err = decodeRecord(id, data)

		return err
	})

	return rec, err
}

// GetAll returns every record of the collection in id order.
func (b *Bolt) GetAll(ctx context.Context, collection string) ([]Record, error) {
	c, err := b.lookup(collection)
	if err != nil {
		return nil, err
	}

	out := []Record{}

	err = b.view(ctx, func(tx *bbolt.Tx) error {
		records, _ := collectionBuckets(tx, c.Name)

		return records.ForEach(func(k, v []byte) error {
			rec, err := decodeRecord(keyID(k), v)
			if err != nil {
				return err
			}

			out = append(out, rec)

			return nil
		})
	})

	return out, err
}

// GetByIndex returns the records whose indexed field equals value.
func (b *Bolt) GetByIndex(ctx context.Context, collection, index string, value any) ([]Record, error) {
	c, err := b.lookup(collection)
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

	out := []Record{}

	if want.Type == gjson.Null {
		return out, nil
	}

	err = b.view(ctx, func(tx *bbolt.Tx) error {
		records, indexes := collectionBuckets(tx, c.Name)
		prefix := indexPrefix(want.Raw)
		cur := indexes.Bucket([]byte(index)).Cursor()

		for k, _ := cur.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _ = cur.Next() {
			id := keyID(k)

			data := records.Get(idKey(id))
			if data == nil {
				continue
			}

			if got, ok := indexedValue(data, index); !ok || got != want.Raw {
				continue
			}

			rec, err := decodeRecord(id, data)
			if err != nil {
				return err
			}

			out = append(out, rec)
		}

		return nil
	})

	return out, err
}

// Update merges partial over the stored record and refreshes its timestamp.
func (b *Bolt) Update(ctx context.Context, collection string, id int64, partial Record) error {
	c, err := b.lookup(collection)
	if err != nil {
		return err
	}

	return b.update(ctx, func(tx *bbolt.Tx) error {
		records, indexes := collectionBuckets(tx, c.Name)

		old := records.Get(idKey(id))
		if old == nil {
			return fmt.Errorf("%w: %s/%d", ErrNotFound, c.Name, id)
		}

		// bbolt values are only valid for the life of the transaction and
		// Put may reuse the page, so keep a private copy for index cleanup.
		old = bytes.Clone(old)

		existing, err := decodeRecord(id, old)
		if err != nil {
			return err
		}

		merged := existing.merge(partial)
		merged[FieldTimestamp] = stamp(b.opts.now())

		return putRecord(records, indexes, c, id, merged, old)
	})
}

// Delete removes the record. Deleting a missing id succeeds.
func (b *Bolt) Delete(ctx context.Context, collection string, id int64) error {
	c, err := b.lookup(collection)
	if err != nil {
		return err
	}

	return b.update(ctx, func(tx *bbolt.Tx) error {
		records, indexes := collectionBuckets(tx, c.Name)

		old := records.Get(idKey(id))
		if old == nil {
			return nil
		}

		if err := removeIndexEntries(indexes, c, id, old); err != nil {
			return err
		}

		return records.Delete(idKey(id))
	})
}

// ClearStore removes every record of the collection. The id sequence is kept.
func (b *Bolt) ClearStore(ctx context.Context, collection string) error {
	c, err := b.lookup(collection)
	if err != nil {
		return err
	}

	return b.update(ctx, func(tx *bbolt.Tx) error {
		records, indexes := collectionBuckets(tx, c.Name)

		var keys [][]byte

		if err := records.ForEach(func(k, _ []byte) error {
			keys = append(keys, bytes.Clone(k))
			return nil
		}); err != nil {
			return err
		}

		for _, k := range keys {
			if err := records.Delete(k); err != nil {
				return err
			}
		}

		for _, idx := range c.Indexes {
			if err := indexes.DeleteBucket([]byte(idx)); err != nil && !errors.Is(err, bbolt.ErrBucketNotFound) {
				return err
			}

			if _, err := indexes.CreateBucket([]byte(idx)); err != nil {
				return err
			}
		}

		return nil
	})
}

// GetCount returns the number of records in the collection.
func (b *Bolt) GetCount(ctx context.Context, collection string) (int, error) {
	all, err := b.GetAll(ctx, collection)
	if err != nil {
		return 0, err
	}

	return len(all), nil
}

// PutState stores v as JSON under key.
func (b *Bolt) PutState(ctx context.Context, key string, v any) error {
	data, err := encoding.ToJSON(v)
	if err != nil {
		return err
	}

	return b.update(ctx, func(tx *bbolt.Tx) error {
		return tx.Bucket(boltBucketState).Put([]byte(key), data)
	})
}

// GetState decodes the value stored under key into v. It reports false
// when nothing is stored.
func (b *Bolt) GetState(ctx context.Context, key string, v any) (bool, error) {
	var found bool

	err := b.view(ctx, func(tx *bbolt.Tx) error {
		data := tx.Bucket(boltBucketState).Get([]byte(key))
		if data == nil {
			return nil
		}

		found = true

		return encoding.Decode(data, v)
	})

	return found, err
}

func putRecord(records, indexes *bbolt.Bucket, c Collection, id int64, rec Record, old []byte) error {
	if old != nil {
		if err := removeIndexEntries(indexes, c, id, old); err != nil {
			return err
		}
	}

	data, err := encodeRecord(rec)
	if err != nil {
		return err
	}

	if err := records.Put(idKey(id), data); err != nil {
		return err
	}

	return addIndexEntries(indexes, c, id, data)
}

func addIndexEntries(indexes *bbolt.Bucket, c Collection, id int64, data []byte) error {
	for _, idx := range c.Indexes {
		raw, ok := indexedValue(data, idx)
		if !ok {
			continue
		}

		if err := indexes.Bucket([]byte(idx)).Put(indexKey(raw, id), []byte{}); err != nil {
			return err
		}
	}

	return nil
}

func removeIndexEntries(indexes *bbolt.Bucket, c Collection, id int64, data []byte) error {
	for _, idx := range c.Indexes {
		raw, ok := indexedValue(data, idx)
		if !ok {
			continue
		}

		if err := indexes.Bucket([]byte(idx)).Delete(indexKey(raw, id)); err != nil {
			return err
		}
	}

	return nil
}

// Collections lists the collection buckets present in the file.
func (b *Bolt) Collections(ctx context.Context) ([]string, error) {
	var out []string

	err := b.view(ctx, func(tx *bbolt.Tx) error {
		return tx.ForEach(func(name []byte, _ *bbolt.Bucket) error {
			if bytes.Equal(name, boltBucketMeta) || bytes.Equal(name, boltBucketState) {
				return nil
			}

			out = append(out, string(name))

			return nil
		})
	})

	return out, err
}
