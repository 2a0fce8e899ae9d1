// Package encoding provides utilities for encoding and decoding data.
package encoding

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ParseJSON unmarshals JSON data into the provided type.
// Numbers are decoded as json.Number so integer ids survive the round trip.
func ParseJSON[T any](data []byte) (*T, error) {
	var result T

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	if err := dec.Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}

	return &result, nil
}

// ToJSON marshals a value to JSON bytes.
func ToJSON[T any](value T) ([]byte, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON: %w", err)
	}

	return data, nil
}

// ToJSONIndent marshals a value to indented JSON bytes.
func ToJSONIndent[T any](value T) ([]byte, error) {
	return json.MarshalIndent(value, "", "  ")
}

// Decode unmarshals data into v.
func Decode(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse JSON: %w", err)
	}

	return nil
}
