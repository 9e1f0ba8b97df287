package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hylla/kanboard/internal/app"
	"github.com/hylla/kanboard/internal/domain"
)

// Cache wraps a persistence collaborator with a Redis-backed copy of the loaded board.
type Cache struct {
	base  app.Persistence
	redis *redis.Client
	ttl   time.Duration
	key   string
}

var _ app.Persistence = (*Cache)(nil)

// New creates a caching wrapper around base. namespace separates boards that share one Redis.
func New(base app.Persistence, client *redis.Client, ttl time.Duration, namespace string) *Cache {
	if base == nil {
		panic("rediscache.New: base persistence is nil")
	}
	if ttl < 0 {
		ttl = 0
	}
	if namespace == "" {
		namespace = "default"
	}
	return &Cache{
		base:  base,
		redis: client,
		ttl:   ttl,
		key:   boardCacheKey(namespace),
	}
}

// LoadBoard serves the board from Redis when present and falls back to base.
func (c *Cache) LoadBoard(ctx context.Context) (domain.Board, error) {
	if board, ok := c.loadFromCache(ctx); ok {
		return board, nil
	}
	board, err := c.base.LoadBoard(ctx)
	if err != nil {
		return domain.Board{}, err
	}
	c.store(ctx, board)
	return board, nil
}

// SaveCard writes through to base and evicts the cached board.
func (c *Cache) SaveCard(ctx context.Context, card domain.Card) error {
	if err := c.base.SaveCard(ctx, card); err != nil {
		return err
	}
	c.evict(ctx)
	return nil
}

// RemoveCard writes through to base and evicts the cached board.
func (c *Cache) RemoveCard(ctx context.Context, id string) error {
	if err := c.base.RemoveCard(ctx, id); err != nil {
		return err
	}
	c.evict(ctx)
	return nil
}

// SaveColumnOrder writes through to base and evicts the cached board.
func (c *Cache) SaveColumnOrder(ctx context.Context, status domain.Status, ids []string) error {
	if err := c.base.SaveColumnOrder(ctx, status, ids); err != nil {
		return err
	}
	c.evict(ctx)
	return nil
}

// BoardSeeded reads the marker from base. It is never cached.
func (c *Cache) BoardSeeded(ctx context.Context) (bool, error) {
	return c.base.BoardSeeded(ctx)
}

// MarkBoardSeeded writes the marker through to base.
func (c *Cache) MarkBoardSeeded(ctx context.Context) error {
	return c.base.MarkBoardSeeded(ctx)
}

// Ping reports whether Redis is reachable.
func (c *Cache) Ping(ctx context.Context) error {
	if c.redis == nil {
		return errors.New("redis client is not configured")
	}
	return c.redis.Ping(ctx).Err()
}

func (c *Cache) loadFromCache(ctx context.Context) (domain.Board, bool) {
	if c.redis == nil {
		return domain.Board{}, false
	}
	data, err := c.redis.Get(ctx, c.key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			// Fall back to base on redis errors.
			_ = c.redis.Del(ctx, c.key).Err()
		}
		return domain.Board{}, false
	}
	var snap app.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		_ = c.redis.Del(ctx, c.key).Err()
		return domain.Board{}, false
	}
	board, err := snap.Board()
	if err != nil {
		_ = c.redis.Del(ctx, c.key).Err()
		return domain.Board{}, false
	}
	return board, true
}

func (c *Cache) store(ctx context.Context, board domain.Board) {
	if c.redis == nil || c.ttl == 0 {
		return
	}
	data, err := json.Marshal(app.SnapshotFromBoard(board, time.Now()))
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, c.key, data, c.ttl).Err()
}

func (c *Cache) evict(ctx context.Context) {
	if c.redis == nil {
		return
	}
	_, _ = c.redis.Del(ctx, c.key).Result()
}

func boardCacheKey(namespace string) string {
	return "kanboard:board:" + namespace
}
