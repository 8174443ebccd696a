package service

import (
	"context"
	"time"

	"github.com/creators-jp/portal-server/internal/cache"
	"github.com/creators-jp/portal-server/internal/database"
)

// TxRunner runs a function inside a database transaction;
// *database.DB satisfies it.
type TxRunner interface {
	WithTx(ctx context.Context, fn database.TxFunc) error
}

// ResponseCache is the slice of the cache the services need;
// *cache.Cache satisfies it.
type ResponseCache interface {
	Get(ctx context.Context, key string) (*cache.Entry, error)
	Set(ctx context.Context, key string, data any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
