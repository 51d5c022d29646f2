package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/orchidcommerce/orchidbe/internal/domain"
)

const (
	defaultCacheTTL    = 2 * time.Minute
	defaultDialTimeout = 5 * time.Second
	productKeyPrefix   = "catalog:product:"
)

// CatalogCache — read-through кэш поверх domain.CatalogGateway.
// Ошибки Redis не фатальны: при недоступном кэше запрос идёт напрямую в каталог.
type CatalogCache struct {
	client *redis.Client
	next   domain.CatalogGateway
	ttl    time.Duration
	logger *log.Entry
}

// NewCatalogCache подключается к Redis и оборачивает источник каталога.
func NewCatalogCache(ctx context.Context, addr string, next domain.CatalogGateway, logger *log.Logger) (*CatalogCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        addr,
		DialTimeout: defaultDialTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, defaultDialTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &CatalogCache{
		client: client,
		next:   next,
		ttl:    defaultCacheTTL,
		logger: logger.WithField("component", "catalog_cache"),
	}, nil
}

// ResolveProduct возвращает товар из кэша либо из источника с последующим кэшированием.
func (c *CatalogCache) ResolveProduct(ctx context.Context, orchidID string) (domain.ProductRef, error) {
	key := productKeyPrefix + orchidID

	raw, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var ref domain.ProductRef
		if jsonErr := json.Unmarshal(raw, &ref); jsonErr == nil {
			return ref, nil
		}
		// битая запись в кэше не должна ломать поток
		c.client.Del(ctx, key)
	} else if !errors.Is(err, redis.Nil) {
		c.logger.WithError(err).Warn("redis get failed, falling back to catalog")
	}

	ref, err := c.next.ResolveProduct(ctx, orchidID)
	if err != nil {
		return domain.ProductRef{}, err
	}

	if raw, jsonErr := json.Marshal(ref); jsonErr == nil {
		if setErr := c.client.Set(ctx, key, raw, c.ttl).Err(); setErr != nil {
			c.logger.WithError(setErr).Warn("redis set failed")
		}
	}

	return ref, nil
}

// Invalidate удаляет товар из кэша; вызывается при изменениях каталога.
func (c *CatalogCache) Invalidate(ctx context.Context, orchidID string) {
	if err := c.client.Del(ctx, productKeyPrefix+orchidID).Err(); err != nil {
		c.logger.WithError(err).Warn("redis del failed")
	}
}

// Ping проверяет доступность Redis для health-check.
func (c *CatalogCache) Ping(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, defaultDialTimeout)
	defer cancel()
	return c.client.Ping(pingCtx).Err()
}

// Close закрывает подключение к Redis.
func (c *CatalogCache) Close() error {
	return c.client.Close()
}

var _ domain.CatalogGateway = (*CatalogCache)(nil)
