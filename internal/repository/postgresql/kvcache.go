package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Domornie/Lumina-Sheets-sub001/internal/pkg/cache"
	"github.com/Domornie/Lumina-Sheets-sub001/internal/pkg/database"
)

// kvCacheStore implements cache.Store on a postgres table so multiple
// processes share the chunked row and analytics caches. Expiry is lazy:
// expired rows are deleted when read.
type kvCacheStore struct {
	db       *database.DB
	maxValue int
}

func NewKVCacheStore(db *database.DB, maxValueSize int) cache.Store {
	return &kvCacheStore{db: db, maxValue: maxValueSize}
}

func (s *kvCacheStore) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	var expiresAt time.Time
	err := s.db.QueryRow(ctx, `
		SELECT value, expires_at
		FROM analytics_kv_cache
		WHERE key = $1
	`, key).Scan(&value, &expiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to read cache key %q: %w", key, err)
	}

	if time.Now().After(expiresAt) {
		// Best effort; a concurrent writer may already have replaced it.
		_, _ = s.db.Exec(ctx, `DELETE FROM analytics_kv_cache WHERE key = $1 AND expires_at = $2`, key, expiresAt)
		return "", false, nil
	}
	return value, true, nil
}

func (s *kvCacheStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if s.maxValue > 0 && len(value) > s.maxValue {
		return cache.ErrValueTooLarge
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO analytics_kv_cache (key, value, expires_at, updated_at)
		VALUES ($1, $2, NOW() + $3::interval, NOW())
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value, expires_at = EXCLUDED.expires_at, updated_at = NOW()
	`, key, value, fmt.Sprintf("%d milliseconds", ttl.Milliseconds()))
	if err != nil {
		return fmt.Errorf("failed to write cache key %q: %w", key, err)
	}
	return nil
}

func (s *kvCacheStore) Delete(ctx context.Context, key string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM analytics_kv_cache WHERE key = $1`, key)
	if err != nil {
		return fmt.Errorf("failed to delete cache key %q: %w", key, err)
	}
	return nil
}
