// Package cache stores the merge-field names found in a template, keyed by
// the template's content hash. Documents themselves are never cached.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "mergefields:"

// FieldCache is a Redis-backed map from template hash to field names.
type FieldCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewFieldCache wraps rdb. A non-positive ttl defaults to one minute.
func NewFieldCache(rdb *redis.Client, ttl time.Duration) *FieldCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &FieldCache{rdb: rdb, ttl: ttl}
}

// Key derives the cache key for template.
func Key(template []byte) string {
	sum := sha256.Sum256(template)
	return keyPrefix + hex.EncodeToString(sum[:])
}

// Get returns the cached fields. A miss returns (nil, false, nil).
func (c *FieldCache) Get(ctx context.Context, template []byte) ([]string, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	raw, err := c.rdb.Get(ctx, Key(template)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read field cache: %w", err)
	}

	var fields []string
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, false, fmt.Errorf("decode field cache: %w", err)
	}
	return fields, true, nil
}

// Set stores fields for template.
func (c *FieldCache) Set(ctx context.Context, template []byte, fields []string) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	if fields == nil {
		fields = []string{}
	}
	raw, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("encode field cache: %w", err)
	}
	if err := c.rdb.Set(ctx, Key(template), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("write field cache: %w", err)
	}
	return nil
}
