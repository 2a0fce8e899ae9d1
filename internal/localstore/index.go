package localstore

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/cespare/xxhash/v2"
	"github.com/inovacc/finzana/internal/encoding"
	"github.com/tidwall/gjson"
)

// indexSep separates the encoded value from the record id in index keys.
// JSON never emits a raw NUL byte, so it cannot collide with the value.
const indexSep = 0x00

// maxIndexValue is the longest JSON value stored verbatim in an index key.
// Longer values are replaced by indexToken with a fixed-size hash, keeping
// keys far below bbolt.MaxKeySize.
const maxIndexValue = 512

// indexedValue extracts the JSON encoding of field from a stored record.
// Missing and null fields are not indexed.
func indexedValue(data []byte, field string) (string, bool) {
	res := gjson.GetBytes(data, field)
	if !res.Exists() || res.Type == gjson.Null {
		return "", false
	}

	return res.Raw, true
}

// lookupValue returns the JSON encoding a lookup value is compared with.
func lookupValue(value any) (gjson.Result, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("failed to encode index value: %w", err)
	}

	return gjson.ParseBytes(data), nil
}

// indexToken is the form of raw used in index keys. A hashed token starts
// with '#', which no JSON value does. Hashes can collide, so lookups compare
// the stored value as well.
func indexToken(raw string) string {
	if len(raw) <= maxIndexValue {
		return raw
	}

	return "#" + strconv.FormatUint(xxhash.Sum64String(raw), 16) + ":" + strconv.Itoa(len(raw))
}

func indexKey(raw string, id int64) []byte {
	token := indexToken(raw)

	key := make([]byte, 0, len(token)+9)
	key = append(key, token...)
	key = append(key, indexSep)

	return binary.BigEndian.AppendUint64(key, uint64(id))
}

func indexPrefix(raw string) []byte {
	return append([]byte(indexToken(raw)), indexSep)
}

func idKey(id int64) []byte {
	return binary.BigEndian.AppendUint64(nil, uint64(id))
}

func keyID(key []byte) int64 {
	return int64(binary.BigEndian.Uint64(key[len(key)-8:]))
}

// decodeRecord parses a stored record and pins its id.
func decodeRecord(id int64, data []byte) (Record, error) {
	rec, err := encoding.ParseJSON[Record](data)
	if err != nil {
		return nil, err
	}

	(*rec)[FieldID] = id

	return *rec, nil
}
