// Package store is the pgx-backed data access layer. It implements the
// read contracts the engine consumes and the few write paths (feedback,
// attribution) that sit outside the pure computation core.
package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

type Store struct {
	pool *pgxpool.Pool
	// rdb is optional; when present the service catalog is served through
	// a short-TTL read-through cache (the catalog is fetched once per
	// inbound message and changes rarely).
	rdb *redis.Client
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{pool: pool}, nil
}

// WithCache attaches a Redis client used to cache catalog reads.
func (s *Store) WithCache(rdb *redis.Client) *Store {
	s.rdb = rdb
	return s
}

func (s *Store) Close() {
	s.pool.Close()
}
