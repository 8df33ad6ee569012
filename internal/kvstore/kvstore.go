// Package kvstore defines the small key/value contract the session layer
// persists through, plus JSON helpers on top of it.
//
// Backends live in subpackages (memory, fs, sqlite, postgres, redis, gcs) and
// are verified against the shared suite in kvstore/compliance.
package kvstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned by Get when the key has no value.
	ErrNotFound = errors.New("kvstore: key not found")

	// ErrInvalidKey is returned for keys that are empty or contain path separators.
	ErrInvalidKey = errors.New("kvstore: invalid key")
)

// Store is a persistent string-keyed byte store.
//
// Remove of an absent key is not an error. Implementations must be safe for
// concurrent use.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
	Close() error
}

// MaxKeyLength bounds key size so every backend can store it as a file or object name.
const MaxKeyLength = 128

// ValidateKey rejects keys that some backend could not store verbatim.
func ValidateKey(key string) error {
	switch {
	case key == "":
		return fmt.Errorf("%w: empty", ErrInvalidKey)
	case len(key) > MaxKeyLength:
		return fmt.Errorf("%w: longer than %d bytes", ErrInvalidKey, MaxKeyLength)
	case strings.ContainsAny(key, `/\`) || key == "." || key == "..":
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}

// GetJSON reads key and decodes it into a T.
// A missing key returns ErrNotFound; undecodable data returns a wrapped json error.
func GetJSON[T any](ctx context.Context, s Store, key string) (T, error) {
	var out T
	data, err := s.Get(ctx, key)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("decode %s: %w", key, err)
	}
	return out, nil
}

// SetJSON encodes v and stores it under key.
func SetJSON(ctx context.Context, s Store, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.Set(ctx, key, data)
}

// GetString reads key as text.
func GetString(ctx context.Context, s Store, key string) (string, error) {
	data, err := s.Get(ctx, key)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// RemoveAll removes every key, joining the failures.
func RemoveAll(ctx context.Context, s Store, keys ...string) error {
	var errs []error
	for _, key := range keys {
		if err := s.Remove(ctx, key); err != nil {
			errs = append(errs, fmt.Errorf("remove %s: %w", key, err))
		}
	}
	return errors.Join(errs...)
}
