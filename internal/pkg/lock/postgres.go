package lock

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresLocker implements Locker with session-level advisory locks.
// Each held lock pins one pooled connection until released.
type PostgresLocker struct {
	pool *pgxpool.Pool
}

// NewPostgresLocker creates a PostgresLocker on the given pool
func NewPostgresLocker(pool *pgxpool.Pool) *PostgresLocker {
	return &PostgresLocker{pool: pool}
}

// Lock waits for the advisory lock on hash(key); cancelling ctx aborts the wait
func (l *PostgresLocker) Lock(ctx context.Context, key string) (Unlock, error) {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: acquire connection: %v", ErrNotAcquired, key, err)
	}

	if _, err := conn.Exec(ctx, `SELECT pg_advisory_lock(hashtextextended($1, 0))`, key); err != nil {
		// A cancelled wait may leave the connection mid-protocol; do not reuse it
		_ = conn.Conn().Close(context.Background())
		conn.Release()
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrNotAcquired, key, ctx.Err())
		}
		return nil, fmt.Errorf("advisory lock %s: %w", key, err)
	}

	released := false
	return func(ctx context.Context) error {
		if released {
			return nil
		}
		released = true

		var unlocked bool
		err := conn.QueryRow(ctx, `SELECT pg_advisory_unlock(hashtextextended($1, 0))`, key).Scan(&unlocked)
		if err != nil || !unlocked {
			// Closing the session drops any advisory lock it still holds
			_ = conn.Conn().Close(context.Background())
			conn.Release()
			if err != nil {
				return fmt.Errorf("advisory unlock %s: %w", key, err)
			}
			return ErrLockLost
		}
		conn.Release()
		return nil
	}, nil
}
