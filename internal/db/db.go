package db

import (
	"context"
	"time"
)

// Pinger checks backend connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ReadyWaiter blocks until a backend answers or the timeout expires.
type ReadyWaiter interface {
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// KVStore provides simple key-value operations.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// WaitForReady polls ping every interval until it succeeds or timeout expires.
func WaitForReady(ctx context.Context, timeout, interval time.Duration, ping func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := ping(ctx); err == nil {
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return &Error{Op: OpWait, Err: ctx.Err()}
		case <-ticker.C:
			if err := ping(ctx); err == nil {
				return nil
			}
		}
	}
}
