package product

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MikeMC777/storefront/internal/money"
)

const (
	versionKey       = "catalog:version"
	productKeyPrefix = "catalog:product:"
)

// CachedRepo serves reads from redis and falls through to next on a miss.
// Entries are namespaced by a version counter; UpdatePrice bumps it, which
// orphans every list page at once. Redis failures degrade to uncached reads.
type CachedRepo struct {
	next   Repository
	client *redis.Client
	ttl    time.Duration
}

func NewCachedRepo(next Repository, client *redis.Client, ttl time.Duration) *CachedRepo {
	return &CachedRepo{next: next, client: client, ttl: ttl}
}

func (c *CachedRepo) GetByID(ctx context.Context, id int64) (*Product, error) {
	key := productKeyPrefix + strconv.FormatInt(id, 10)

	var v View
	if c.get(ctx, key, &v) {
		if p, err := FromView(v); err == nil {
			return &p, nil
		}
	}

	p, err := c.next.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.set(ctx, key, NewView(*p))
	return p, nil
}

func (c *CachedRepo) List(ctx context.Context, q Query) ([]Product, error) {
	q = q.Normalize()
	key := fmt.Sprintf("catalog:list:%d:%d:%d:%s", c.version(ctx), q.Limit, q.Offset, q.Q)

	var views []View
	if c.get(ctx, key, &views) {
		out := make([]Product, 0, len(views))
		for _, v := range views {
			p, err := FromView(v)
			if err != nil {
				out = nil
				break
			}
			out = append(out, p)
		}
		if out != nil {
			return out, nil
		}
	}

	items, err := c.next.List(ctx, q)
	if err != nil {
		return nil, err
	}
	views = make([]View, 0, len(items))
	for _, p := range items {
		views = append(views, NewView(p))
	}
	c.set(ctx, key, views)
	return items, nil
}

func (c *CachedRepo) UpdatePrice(ctx context.Context, id int64, price money.Money) error {
	if err := c.next.UpdatePrice(ctx, id, price); err != nil {
		return err
	}
	pipe := c.client.TxPipeline()
	pipe.Del(ctx, productKeyPrefix+strconv.FormatInt(id, 10))
	pipe.Incr(ctx, versionKey)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("[catalog] cache invalidation failed for product %d: %v", id, err)
	}
	return nil
}

func (c *CachedRepo) version(ctx context.Context) int64 {
	v, err := c.client.Get(ctx, versionKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		log.Printf("[catalog] cache version read failed: %v", err)
	}
	return v
}

func (c *CachedRepo) get(ctx context.Context, key string, dst any) bool {
	b, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("[catalog] cache read %s failed: %v", key, err)
		}
		return false
	}
	return json.Unmarshal(b, dst) == nil
}

func (c *CachedRepo) set(ctx context.Context, key string, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, b, c.ttl).Err(); err != nil {
		log.Printf("[catalog] cache write %s failed: %v", key, err)
	}
}
