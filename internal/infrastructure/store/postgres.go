package store

import (
	"context"
	"fmt"

	"github.com/dealradar/backend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists seen ids as rows of an append-only table. Inserts
// use ON CONFLICT DO NOTHING, so membership is monotonic by construction
// even if two saves race.
type PostgresStore struct {
	pool *pgxpool.Pool
}

const createSeenTable = `
CREATE TABLE IF NOT EXISTS seen_offers (
	offer_id   text PRIMARY KEY,
	first_seen timestamptz NOT NULL DEFAULT now()
)`

// NewPostgresStore connects to Postgres and ensures the seen table exists.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid postgres dsn: %w", err)
	}
	cfg.MaxConns = 2 // one sequential pipeline run needs no more

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	if _, err := pool.Exec(ctx, createSeenTable); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return &PostgresStore{pool: pool}, nil
}

// Load reads every seen id in first-seen order.
func (s *PostgresStore) Load(ctx context.Context) (*domain.SeenSet, error) {
	rows, err := s.pool.Query(ctx, `SELECT offer_id FROM seen_offers ORDER BY first_seen, offer_id`)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	seen := domain.NewSeenSet()
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
		}
		seen.Add(id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return seen, nil
}

// Save inserts any ids not already present. Existing rows are never touched.
func (s *PostgresStore) Save(ctx context.Context, seen *domain.SeenSet) error {
	ids := seen.IDs()
	if len(ids) == 0 {
		return nil
	}

	b := &pgx.Batch{}
	for _, id := range ids {
		b.Queue(`INSERT INTO seen_offers (offer_id) VALUES ($1) ON CONFLICT (offer_id) DO NOTHING`, id)
	}

	br := s.pool.SendBatch(ctx, b)
	defer br.Close()
	for range ids {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
		}
	}
	return nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}
