package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/merosman91/Agricultural-Tractor/internal/db"
)

// SQLiteBlobStore implements BlobStore on the kv_blobs table.
type SQLiteBlobStore struct {
	db  db.DBTX
	uow db.UnitOfWork
}

// NewSQLiteBlobStore creates a blob store. Writes run inside uow so the
// revision bump and the value replace land together.
func NewSQLiteBlobStore(conn db.DBTX, uow db.UnitOfWork) *SQLiteBlobStore {
	return &SQLiteBlobStore{db: conn, uow: uow}
}

func (r *SQLiteBlobStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := r.db.QueryRowContext(ctx, `SELECT value FROM kv_blobs WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("blob %q: %w", key, ErrNotFound)
		}
		return nil, fmt.Errorf("reading blob %q: %w", key, err)
	}
	return value, nil
}

func (r *SQLiteBlobStore) Put(ctx context.Context, key string, value []byte) error {
	if r.uow == nil {
		return r.put(ctx, r.db, key, value)
	}
	return r.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		return r.put(ctx, tx, key, value)
	})
}

func (r *SQLiteBlobStore) put(ctx context.Context, conn db.DBTX, key string, value []byte) error {
	var rev int
	err := conn.QueryRowContext(ctx, `SELECT revision FROM kv_blobs WHERE key = ?`, key).Scan(&rev)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("reading blob revision %q: %w", key, err)
	}

	query := `INSERT INTO kv_blobs (key, value, updated_at, revision) VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value,
			updated_at = excluded.updated_at, revision = excluded.revision`
	if _, err := conn.ExecContext(ctx, query, key, value, nowUTC(), rev+1); err != nil {
		return fmt.Errorf("writing blob %q: %w", key, err)
	}
	return nil
}

// Revision returns how many times key has been written, or 0 if never. It is
// not part of BlobStore; tests use it to assert whether a write happened.
func (r *SQLiteBlobStore) Revision(ctx context.Context, key string) (int, error) {
	var rev int
	err := r.db.QueryRowContext(ctx, `SELECT revision FROM kv_blobs WHERE key = ?`, key).Scan(&rev)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading blob revision %q: %w", key, err)
	}
	return rev, nil
}
