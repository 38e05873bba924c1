package store

import (
	"context"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"taskboard/internal/service"
)

// Cache wraps a service.Store with a Redis read-through cache for boards.
// Every write that touches a board evicts that board's entry.
type Cache struct {
	service.Store
	redis *redis.Client
	ttl   time.Duration
}

// NewCache creates a caching wrapper around base using the Redis client and TTL.
// A nil client turns the cache into a pass-through.
func NewCache(base service.Store, client *redis.Client, ttl time.Duration) *Cache {
	if base == nil {
		panic("store.NewCache: base store is nil")
	}
	if ttl < 0 {
		ttl = 0
	}
	return &Cache{Store: base, redis: client, ttl: ttl}
}

// GetBoard serves the board from Redis when cached.
func (c *Cache) GetBoard(ctx context.Context, id string) (service.Board, error) {
	if b, ok := c.loadBoard(ctx, id); ok {
		return b, nil
	}
	b, err := c.Store.GetBoard(ctx, id)
	if err != nil {
		return service.Board{}, err
	}
	c.storeBoard(ctx, b)
	return b, nil
}

func (c *Cache) UpdateBoard(ctx context.Context, b service.Board) error {
	if err := c.Store.UpdateBoard(ctx, b); err != nil {
		return err
	}
	c.evict(ctx, b.ID)
	return nil
}

func (c *Cache) DeleteBoard(ctx context.Context, id string) error {
	if err := c.Store.DeleteBoard(ctx, id); err != nil {
		return err
	}
	c.evict(ctx, id)
	return nil
}

func (c *Cache) CreateTask(ctx context.Context, t service.Task) error {
	if err := c.Store.CreateTask(ctx, t); err != nil {
		return err
	}
	c.evict(ctx, t.BoardID)
	return nil
}

func (c *Cache) UpdateTask(ctx context.Context, t service.Task) error {
	if err := c.Store.UpdateTask(ctx, t); err != nil {
		return err
	}
	c.evict(ctx, t.BoardID)
	return nil
}

func (c *Cache) DeleteTask(ctx context.Context, id string) error {
	// The board id is only known from the stored row.
	boardID := ""
	if t, err := c.Store.GetTask(ctx, id); err == nil {
		boardID = t.BoardID
	}
	if err := c.Store.DeleteTask(ctx, id); err != nil {
		return err
	}
	if boardID != "" {
		c.evict(ctx, boardID)
	}
	return nil
}

func (c *Cache) loadBoard(ctx context.Context, id string) (service.Board, bool) {
	if c.redis == nil {
		return service.Board{}, false
	}
	data, err := c.redis.Get(ctx, boardCacheKey(id)).Bytes()
	if err != nil {
		if err != redis.Nil {
			// On redis errors fall back to the backing store without failing.
			log.WithError(err).WithField("board", id).Debug("board cache read failed")
			_ = c.redis.Del(ctx, boardCacheKey(id)).Err()
		}
		return service.Board{}, false
	}
	var b service.Board
	if err := sonic.Unmarshal(data, &b); err != nil {
		_ = c.redis.Del(ctx, boardCacheKey(id)).Err()
		return service.Board{}, false
	}
	return b, true
}

func (c *Cache) storeBoard(ctx context.Context, b service.Board) {
	if c.redis == nil || c.ttl == 0 {
		return
	}
	data, err := sonic.Marshal(b)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, boardCacheKey(b.ID), data, c.ttl).Err()
}

func (c *Cache) evict(ctx context.Context, boardID string) {
	if c.redis == nil {
		return
	}
	if err := c.redis.Del(ctx, boardCacheKey(boardID)).Err(); err != nil {
		log.WithError(err).WithField("board", boardID).Warn("board cache eviction failed")
	}
}

func boardCacheKey(id string) string {
	return "board:" + id
}
