package service

import (
	"context"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"github.com/sanos-dev/backend/internal/model"
)

const defaultTargetCacheTTL = time.Minute

// TargetKeyCache - webhook_key → target 캐시
// 런타임 에러 webhook은 같은 키로 반복 호출되므로 DB 조회를 줄임
type TargetKeyCache struct {
	cache *ttlcache.Cache[string, *model.Target]
}

func NewTargetKeyCache(ttl time.Duration) *TargetKeyCache {
	if ttl <= 0 {
		ttl = defaultTargetCacheTTL
	}
	return &TargetKeyCache{
		cache: ttlcache.New(ttlcache.WithTTL[string, *model.Target](ttl)),
	}
}

// Lookup - 캐시에 없으면 repo에서 조회 후 저장
func (c *TargetKeyCache) Lookup(ctx context.Context, repo TargetRepo, key string) (*model.Target, error) {
	if item := c.cache.Get(key); item != nil {
		t := *item.Value()
		return &t, nil
	}

	t, err := repo.GetTargetByWebhookKey(ctx, key)
	if err != nil {
		return nil, err
	}
	stored := *t
	c.cache.Set(key, &stored, ttlcache.DefaultTTL)
	return t, nil
}

// Forget - target 삭제 시 호출
func (c *TargetKeyCache) Forget(key string) {
	c.cache.Delete(key)
}

// Start - 만료 항목 정리 루프 (Stop 호출 전까지 블록)
func (c *TargetKeyCache) Start() {
	c.cache.Start()
}

func (c *TargetKeyCache) Stop() {
	c.cache.Stop()
}
