// Package kv persists the ballot store in the key layout the browser client
// used: "users", "candidates", "votes" and the "user" session singleton, each
// holding a JSON document. Any Store backend that can run a read-modify-write
// transaction atomically can hold that layout.
package kv

import (
	"context"
	"errors"
)

var (
	ErrReadOnly = errors.New("kv: write inside a read-only transaction")
	ErrConflict = errors.New("kv: transaction kept conflicting with concurrent writers")
)

type Tx interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(key string, value []byte)
	Delete(key string)
}

type Store interface {
	View(ctx context.Context, fn func(tx Tx) error) error
	// Update commits every Put and Delete made by fn atomically, or none of
	// them when fn fails. fn may run more than once.
	Update(ctx context.Context, fn func(tx Tx) error) error
	Close() error
}

type readFunc func(ctx context.Context, key string) ([]byte, bool, error)

// stagedTx buffers writes until the backend commits them. A nil entry in
// writes marks a delete.
type stagedTx struct {
	read   readFunc
	writes map[string][]byte
}

func newStagedTx(read readFunc) *stagedTx {
	return &stagedTx{read: read, writes: make(map[string][]byte)}
}

func (t *stagedTx) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if v, ok := t.writes[key]; ok {
		if v == nil {
			return nil, false, nil
		}
		return v, true, nil
	}
	return t.read(ctx, key)
}

func (t *stagedTx) Put(key string, value []byte) {
	t.writes[key] = append([]byte{}, value...)
}

func (t *stagedTx) Delete(key string) {
	t.writes[key] = nil
}

func (t *stagedTx) dirty() bool {
	return len(t.writes) > 0
}
