package cache

import (
	"context"
	"time"
)

// NullCache discards everything. It backs renders run with --no-cache and
// profiles whose cache backend is "none", so every lookup is a miss.
type NullCache struct{}

var _ Cache = NullCache{}

// NewNullCache returns a [NullCache].
func NewNullCache() Cache { return NullCache{} }

func (NullCache) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (NullCache) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (NullCache) Delete(context.Context, string) error { return nil }
func (NullCache) Close() error { return nil }
