package pricecache

import (
	"context"
	"errors"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/solescan/solescan/internal/schema"
)

const (
	recordUpsertSQL = `
INSERT INTO price_records (cache_key, record, resolved_at, expires_at)
VALUES ($1, $2::jsonb, $3, $4)
ON CONFLICT (cache_key) DO UPDATE SET
    record = EXCLUDED.record,
    resolved_at = EXCLUDED.resolved_at,
    expires_at = EXCLUDED.expires_at;
`
	recordSelectSQL = `
SELECT record FROM price_records
WHERE cache_key = $1 AND expires_at > NOW();
`
	recordDeleteSQL = `DELETE FROM price_records WHERE cache_key = $1;`
	recordPruneSQL  = `DELETE FROM price_records WHERE expires_at <= NOW();`
)

// PostgresStore implements Store on a price_records table, making cached
// records survive restarts and shareable across replicas. Expired rows are
// filtered at read time and reaped by Prune.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore constructs a PostgresStore backed by the provided pool.
// The pool's lifecycle stays with the caller.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Get returns the fresh record for the identity or a miss.
func (s *PostgresStore) Get(ctx context.Context, identity schema.SneakerIdentity) (schema.PriceRecord, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, recordSelectSQL, identity.CacheKey()).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return schema.PriceRecord{}, Miss(identity)
	}
	if err != nil {
		return schema.PriceRecord{}, fmt.Errorf("select price record: %w", err)
	}
	var record schema.PriceRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return schema.PriceRecord{}, fmt.Errorf("decode price record: %w", err)
	}
	return record, nil
}

// Put upserts the record with the given freshness window. The row replaces
// wholesale, never patching an existing record.
func (s *PostgresStore) Put(ctx context.Context, record schema.PriceRecord, ttl time.Duration) error {
	if err := record.Identity.Validate(); err != nil {
		return err
	}
	encoded, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode price record: %w", err)
	}
	expiresAt := time.Now().UTC().Add(ttl)
	if _, err := s.pool.Exec(ctx, recordUpsertSQL,
		record.Identity.CacheKey(), encoded, record.ResolvedAt.UTC(), expiresAt); err != nil {
		return fmt.Errorf("upsert price record: %w", err)
	}
	return nil
}

// Invalidate removes the identity's row.
func (s *PostgresStore) Invalidate(ctx context.Context, identity schema.SneakerIdentity) error {
	if _, err := s.pool.Exec(ctx, recordDeleteSQL, identity.CacheKey()); err != nil {
		return fmt.Errorf("delete price record: %w", err)
	}
	return nil
}

// Prune reaps expired rows and reports how many were removed.
func (s *PostgresStore) Prune(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx, recordPruneSQL)
	if err != nil {
		return 0, fmt.Errorf("prune price records: %w", err)
	}
	return tag.RowsAffected(), nil
}
