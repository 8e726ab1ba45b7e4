// Package kvstore is the durable key-value store the ledger is built on: point reads and
// writes, prefix scans and an atomic multi-key batch.
package kvstore

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"

	"pos-backend/internal/apperr"
)

var ErrNotFound = errors.New("kvstore: key not found")

type Entry struct {
	Key   string
	Value []byte
}

// Op is one write of a batch: a put of Value, or a delete when Delete is set.
type Op struct {
	Key    string
	Value  []byte
	Delete bool
}

type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	// Scan returns every entry whose key starts with prefix, ordered by key.
	Scan(ctx context.Context, prefix string) ([]Entry, error)
	// Apply commits all ops or none of them.
	Apply(ctx context.Context, ops []Op) error
}

// Put builds a put op holding v encoded as JSON.
func Put(key string, v any) (Op, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return Op{}, errors.Wrapf(err, "encode %s", key)
	}
	return Op{Key: key, Value: b}, nil
}

func Del(key string) Op { return Op{Key: key, Delete: true} }

// GetJSON loads key into a T. A missing key yields ErrNotFound; driver and decode
// failures are reported as storage failures.
func GetJSON[T any](ctx context.Context, s Store, key string) (T, error) {
	var v T
	b, err := s.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return v, err
		}
		return v, apperr.Storage(err, "get "+key)
	}
	if err := json.Unmarshal(b, &v); err != nil {
		return v, apperr.Storage(err, "decode "+key)
	}
	return v, nil
}

// SetJSON stores v as JSON under key.
func SetJSON(ctx context.Context, s Store, key string, v any) error {
	op, err := Put(key, v)
	if err != nil {
		return apperr.Storage(err, "encode "+key)
	}
	return apperr.Storage(s.Set(ctx, key, op.Value), "set "+key)
}

// ScanJSON decodes every value under prefix.
func ScanJSON[T any](ctx context.Context, s Store, prefix string) ([]T, error) {
	entries, err := s.Scan(ctx, prefix)
	if err != nil {
		return nil, apperr.Storage(err, "scan "+prefix)
	}
	out := make([]T, 0, len(entries))
	for _, e := range entries {
		var v T
		if err := json.Unmarshal(e.Value, &v); err != nil {
			return nil, apperr.Storage(err, "decode "+e.Key)
		}
		out = append(out, v)
	}
	return out, nil
}

// Commit applies ops and tags any failure as a storage failure.
func Commit(ctx context.Context, s Store, ops []Op) error {
	if len(ops) == 0 {
		return nil
	}
	return apperr.Storage(s.Apply(ctx, ops), "apply batch")
}
