package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"shopfront/src/models"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const allAccessoriesCacheKey = "accessories:all"

// CachedAccessoryStore is a read-through cache in front of another store.
// Every mutation flushes the whole cache and bumps the generation; a read
// only fills the cache if no mutation finished while it was in flight.
type CachedAccessoryStore struct {
	core     AccessoryStore
	cache    *cache.Cache
	requests singleflight.Group
	logger   *zap.SugaredLogger

	mu         sync.Mutex
	generation uint64
}

// NewCachedAccessoryStore wraps core. A zero ttl returns core unchanged;
// a negative ttl caches until the next mutation.
func NewCachedAccessoryStore(core AccessoryStore, ttl time.Duration, logger *zap.SugaredLogger) AccessoryStore {
	if ttl == 0 {
		return core
	}
	return &CachedAccessoryStore{
		core:   core,
		cache:  cache.New(ttl, 5*time.Minute),
		logger: logger,
	}
}

func accessoryCacheKey(id int) string {
	return fmt.Sprintf("accessory:%d", id)
}

func (c *CachedAccessoryStore) List(ctx context.Context) ([]models.Accessory, error) {
	if data, present := c.cache.Get(allAccessoriesCacheKey); present {
		if accessories, ok := data.([]models.Accessory); ok {
			return cloneAccessories(accessories), nil
		}
	}

	gen := c.currentGeneration()
	result, err, _ := c.requests.Do(fmt.Sprintf("list@%d", gen), func() (interface{}, error) {
		accessories, err := c.core.List(ctx)
		if err != nil {
			return nil, err
		}
		c.fill(gen, allAccessoriesCacheKey, accessories)
		return accessories, nil
	})
	if err != nil {
		return nil, err
	}
	return cloneAccessories(result.([]models.Accessory)), nil
}

func (c *CachedAccessoryStore) Get(ctx context.Context, id int) (*models.Accessory, error) {
	key := accessoryCacheKey(id)
	if data, present := c.cache.Get(key); present {
		if data == nil { // cached absence
			return nil, ErrAccessoryNotFound
		}
		if acc, ok := data.(models.Accessory); ok {
			out := cloneAccessory(acc)
			return &out, nil
		}
	}

	gen := c.currentGeneration()
	result, err, _ := c.requests.Do(fmt.Sprintf("get:%s@%d", key, gen), func() (interface{}, error) {
		acc, err := c.core.Get(ctx, id)
		if err == ErrAccessoryNotFound {
			c.fill(gen, key, nil)
			return nil, err
		}
		if err != nil {
			return nil, err
		}
		c.fill(gen, key, *acc)
		return *acc, nil
	})
	if err != nil {
		return nil, err
	}
	out := cloneAccessory(result.(models.Accessory))
	return &out, nil
}

func (c *CachedAccessoryStore) Create(ctx context.Context, in models.AccessoryInput) (*models.Accessory, error) {
	defer c.invalidate()
	return c.core.Create(ctx, in)
}

func (c *CachedAccessoryStore) Update(ctx context.Context, id int, in models.AccessoryInput) (*models.Accessory, error) {
	defer c.invalidate()
	return c.core.Update(ctx, id, in)
}

func (c *CachedAccessoryStore) Delete(ctx context.Context, id int) error {
	defer c.invalidate()
	return c.core.Delete(ctx, id)
}

func (c *CachedAccessoryStore) Count(ctx context.Context) (int, error) {
	return c.core.Count(ctx)
}

func (c *CachedAccessoryStore) Close() error {
	c.cache.Flush()
	return c.core.Close()
}

func (c *CachedAccessoryStore) currentGeneration() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}

// fill caches value unless a mutation finished after gen was read.
func (c *CachedAccessoryStore) fill(gen uint64, key string, value interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		return
	}
	c.cache.Set(key, value, cache.DefaultExpiration)
}

func (c *CachedAccessoryStore) invalidate() {
	c.mu.Lock()
	c.generation++
	c.cache.Flush()
	c.mu.Unlock()
	if c.logger != nil {
		c.logger.Debug("Accessory cache flushed")
	}
}
