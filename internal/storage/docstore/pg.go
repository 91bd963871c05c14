package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/khanhtranq/inventory-service/internal/storage/db"
)

const (
	sqlGet    = `SELECT id, data FROM documents WHERE collection = $1 AND id = $2`
	sqlGetFor = `SELECT id, data FROM documents WHERE collection = $1 AND id = $2 FOR UPDATE`
	sqlSet    = `INSERT INTO documents (collection, id, data) VALUES ($1, $2, $3)
		ON CONFLICT (collection, id) DO UPDATE SET data = EXCLUDED.data, updated_at = now()`
	sqlDelete = `DELETE FROM documents WHERE collection = $1 AND id = $2`
	sqlScan   = `SELECT id, data FROM documents WHERE collection = $1`
	sqlQuery  = `SELECT id, data FROM documents WHERE collection = $1 AND data ->> $2 = $3 LIMIT $4`
)

var _ Store = (*Pg)(nil)

// Pg is the PostgreSQL-backed document store. Documents live in a single
// documents table keyed by (collection, id) with a jsonb payload.
type Pg struct {
	db db.DB
}

// NewPg creates a document store on top of the given database client.
func NewPg(db db.DB) *Pg {
	return &Pg{db: db}
}

func (s *Pg) NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}

func (s *Pg) Get(ctx context.Context, collection, id string) (Doc, error) {
	return getDoc(ctx, s.db, sqlGet, collection, id)
}

func (s *Pg) Set(ctx context.Context, collection, id string, data json.RawMessage) error {
	if _, err := s.db.Exec(ctx, sqlSet, collection, id, data); err != nil {
		return fmt.Errorf("set document: %w", err)
	}
	return nil
}

func (s *Pg) Delete(ctx context.Context, collection, id string) error {
	tag, err := s.db.Exec(ctx, sqlDelete, collection, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Pg) Scan(ctx context.Context, collection string, fn func(Doc) error) error {
	rows, err := s.db.Query(ctx, sqlScan, collection)
	if err != nil {
		return fmt.Errorf("scan collection: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var doc Doc
		if err := rows.Scan(&doc.ID, &doc.Data); err != nil {
			return fmt.Errorf("scan row: %w", err)
		}
		if err := fn(doc); err != nil {
			return err
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate rows: %w", err)
	}
	return nil
}

func (s *Pg) Query(ctx context.Context, collection, field, value string, limit int32) ([]Doc, error) {
	rows, err := s.db.Query(ctx, sqlQuery, collection, field, value, limit)
	if err != nil {
		return nil, fmt.Errorf("query collection: %w", err)
	}
	defer rows.Close()

	var docs []Doc
	for rows.Next() {
		var doc Doc
		if err := rows.Scan(&doc.ID, &doc.Data); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return docs, nil
}

func (s *Pg) RunTransaction(ctx context.Context, fn func(tx Tx) error) error {
	return s.db.WithTx(ctx, func(txDB db.DB) error {
		return fn(&pgTx{db: txDB})
	})
}

func (s *Pg) CommitBatch(ctx context.Context, b *WriteBatch) error {
	if b == nil || len(b.ops) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, op := range b.ops {
		batch.Queue(sqlSet, op.collection, op.id, op.data)
	}

	results := s.db.SendBatch(ctx, batch)
	defer results.Close()

	for range b.ops {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("exec batched write: %w", err)
		}
	}

	return nil
}

// pgTx serves reads and writes through the enclosing transaction.
// Get takes a row lock so the read-check-write sequence over a single
// document is serializable.
type pgTx struct {
	db db.DB
}

func (t *pgTx) Get(ctx context.Context, collection, id string) (Doc, error) {
	return getDoc(ctx, t.db, sqlGetFor, collection, id)
}

func (t *pgTx) Set(ctx context.Context, collection, id string, data json.RawMessage) error {
	if _, err := t.db.Exec(ctx, sqlSet, collection, id, data); err != nil {
		return fmt.Errorf("set document: %w", err)
	}
	return nil
}

func (t *pgTx) Delete(ctx context.Context, collection, id string) error {
	tag, err := t.db.Exec(ctx, sqlDelete, collection, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func getDoc(ctx context.Context, db db.DB, query, collection, id string) (Doc, error) {
	var doc Doc
	err := db.QueryRow(ctx, query, collection, id).Scan(&doc.ID, &doc.Data)
	if errors.Is(err, pgx.ErrNoRows) {
		return Doc{}, ErrNotFound
	}
	if err != nil {
		return Doc{}, fmt.Errorf("get document: %w", err)
	}
	return doc, nil
}
