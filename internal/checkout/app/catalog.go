package app

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/jcmexdev/storefront-checkout/internal/checkout/core/domain/entity"
	"github.com/jcmexdev/storefront-checkout/internal/checkout/core/ports"
	"github.com/jcmexdev/storefront-checkout/internal/pkg/cache"
)

const catalogTTL = 30 * time.Second

// CatalogService serves product catalog reads through a Redis cache with
// stampede protection. Cache errors are logged and fall through to the
// underlying repository; the cache is never authoritative.
type CatalogService struct {
	repo  ports.Catalog
	cache cache.Cache
	sfg   singleflight.Group
}

var _ ports.Catalog = (*CatalogService)(nil)

func NewCatalogService(repo ports.Catalog, c cache.Cache) *CatalogService {
	return &CatalogService{repo: repo, cache: c}
}

func (s *CatalogService) ListProducts(ctx context.Context) ([]entity.Product, error) {
	key := s.cache.GenerateKey("catalog", "all")

	// singleflight collapses concurrent misses into one repository read.
	v, err, _ := s.sfg.Do(key, func() (interface{}, error) {
		raw, err := s.cache.Get(ctx, key)
		if err == nil {
			var products []entity.Product
			if err := json.Unmarshal([]byte(raw), &products); err == nil {
				return products, nil
			}
			slog.WarnContext(ctx, "dropping undecodable catalog cache entry", "key", key)
		} else if !errors.Is(err, cache.ErrCacheMiss) {
			slog.WarnContext(ctx, "catalog cache get failed", "error", err)
		}

		products, err := s.repo.ListProducts(ctx)
		if err != nil {
			return nil, err
		}

		if raw, err := json.Marshal(products); err == nil {
			if err := s.cache.Set(ctx, key, raw, catalogTTL); err != nil {
				slog.WarnContext(ctx, "catalog cache set failed", "error", err)
			}
		}

		return products, nil
	})
	if err != nil {
		return nil, err
	}

	return v.([]entity.Product), nil
}

// GetProducts reads the listed ids straight from the repository. Sale queries
// use it to join product details, so stale cache entries must not leak in.
func (s *CatalogService) GetProducts(ctx context.Context, ids []string) ([]entity.Product, error) {
	return s.repo.GetProducts(ctx, ids)
}

// Invalidate drops the cached catalog. Called after inventory decrements.
func (s *CatalogService) Invalidate(ctx context.Context) {
	key := s.cache.GenerateKey("catalog", "all")
	if err := s.cache.Del(ctx, key); err != nil {
		slog.WarnContext(ctx, "catalog cache invalidation failed", "error", err)
	}
}
