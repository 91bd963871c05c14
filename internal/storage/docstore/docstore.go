// Package docstore abstracts a remote collection of JSON documents keyed
// by opaque store-assigned IDs. It exposes the narrow contract the
// repositories need: point reads and writes, equality queries, full
// collection scans, per-document transactions and batched writes.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
)

// ErrNotFound is returned when a referenced document does not exist.
var ErrNotFound = errors.New("document not found")

// Doc is a raw document together with its store-assigned ID.
type Doc struct {
	ID   string
	Data json.RawMessage
}

// Tx is the handle passed to a transaction function. Reads through Tx
// lock the documents they touch until the transaction finishes, so a
// read-check-write sequence on a single document is serializable.
type Tx interface {
	Get(ctx context.Context, collection, id string) (Doc, error)
	Set(ctx context.Context, collection, id string, data json.RawMessage) error
	Delete(ctx context.Context, collection, id string) error
}

// Store is the document store adapter.
type Store interface {
	// NewID allocates a new opaque document ID. The ID is usable as a
	// document reference before anything is written under it.
	NewID() string

	Get(ctx context.Context, collection, id string) (Doc, error)
	Set(ctx context.Context, collection, id string, data json.RawMessage) error
	// Delete removes a document, returning ErrNotFound when absent.
	Delete(ctx context.Context, collection, id string) error

	// Scan streams every document of a collection through fn in a single
	// query. Iteration stops at the first error returned by fn.
	Scan(ctx context.Context, collection string, fn func(Doc) error) error

	// Query returns documents whose top-level string field equals value,
	// capped at limit.
	Query(ctx context.Context, collection, field, value string, limit int32) ([]Doc, error)

	// RunTransaction executes fn within a transaction. No other committed
	// write interleaves between reads and writes made through the Tx
	// handle. The transaction commits only when fn returns nil.
	RunTransaction(ctx context.Context, fn func(tx Tx) error) error

	// CommitBatch applies all writes staged in b in a single atomic
	// round trip. An empty batch is a no-op.
	CommitBatch(ctx context.Context, b *WriteBatch) error
}

// WriteBatch accumulates document writes to be committed together.
type WriteBatch struct {
	ops []batchOp
}

type batchOp struct {
	collection string
	id         string
	data       json.RawMessage
}

// Set stages a full document write (create or replace) in the batch.
func (b *WriteBatch) Set(collection, id string, data json.RawMessage) {
	b.ops = append(b.ops, batchOp{collection: collection, id: id, data: data})
}

// Len reports the number of staged writes.
func (b *WriteBatch) Len() int {
	return len(b.ops)
}
