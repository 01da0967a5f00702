package verification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"oilcert/internal/certificate/models"
	"oilcert/internal/certificate/store"
	id "oilcert/pkg/domain"
	"oilcert/pkg/platform/sentinel"
)

// Cache keeps recently verified certificate records in Redis so the public,
// unauthenticated verify endpoint does not hammer the primary store. Only
// positive lookups are cached; validity itself is always recomputed from the
// cached record and the current clock.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// Invalidation writes a short-lived tombstone instead of deleting the key.
// A lookup that read the store before a mutation committed cannot re-cache
// the stale record: Put only sets absent keys, and the tombstone occupies the
// key for longer than any such in-flight lookup lives.
const (
	tombstoneValue = "invalidated"
	tombstoneTTL   = 5 * time.Second
)

func cacheKey(certID id.CertificateID) string {
	return "verify:certificate:" + certID.String()
}

func (c *Cache) Get(ctx context.Context, certID id.CertificateID) (*models.Certificate, error) {
	raw, err := c.client.Get(ctx, cacheKey(certID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read verification cache: %w", err)
	}
	if string(raw) == tombstoneValue {
		return nil, sentinel.ErrNotFound
	}
	var cert models.Certificate
	if err := json.Unmarshal(raw, &cert); err != nil {
		return nil, fmt.Errorf("decode cached certificate: %w", err)
	}
	return &cert, nil
}

func (c *Cache) Put(ctx context.Context, cert *models.Certificate) error {
	raw, err := json.Marshal(cert)
	if err != nil {
		return fmt.Errorf("encode certificate for cache: %w", err)
	}
	// SetNX never overwrites a tombstone, so a refill racing an invalidation
	// loses; it also never overwrites a live entry, which is harmless.
	if err := c.client.SetNX(ctx, cacheKey(cert.ID), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("write verification cache: %w", err)
	}
	return nil
}

func (c *Cache) Invalidate(ctx context.Context, certID id.CertificateID) error {
	if err := c.client.Set(ctx, cacheKey(certID), tombstoneValue, tombstoneTTL).Err(); err != nil {
		return fmt.Errorf("invalidate verification cache: %w", err)
	}
	return nil
}

// InvalidatingStore decorates the certificate store so every committed
// mutation drops the corresponding cache entry. This keeps the public verify
// path reflecting the most recently committed write even while the cache TTL
// is still running.
type InvalidatingStore struct {
	store.Store
	cache *Cache
}

func NewInvalidatingStore(inner store.Store, cache *Cache) *InvalidatingStore {
	return &InvalidatingStore{Store: inner, cache: cache}
}

func (s *InvalidatingStore) Execute(
	ctx context.Context,
	certID id.CertificateID,
	validate func(cert *models.Certificate) error,
	mutate func(cert *models.Certificate),
) (*models.Certificate, error) {
	cert, err := s.Store.Execute(ctx, certID, validate, mutate)
	if err != nil {
		return nil, err
	}
	// Invalidation failure is not worth failing the committed mutation over;
	// the TTL bounds the staleness window.
	_ = s.cache.Invalidate(ctx, certID)
	return cert, nil
}
