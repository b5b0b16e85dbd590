// Package cache puts a Redis read-through cache in front of the question
// pool. Questions are immutable once imported, but a re-import can add
// questions to a concept, so the importer drops the concept's pool entry
// with Invalidate. Everything else expires by TTL.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/abhisek/adaptiq/internal/content"
	"github.com/abhisek/adaptiq/internal/logger"
)

const (
	DefaultTTL    = time.Hour
	DefaultPrefix = "adaptiq:"
)

type Config struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// NewClient connects to Redis and verifies the connection.
func NewClient(ctx context.Context, cfg Config) (*goredis.Client, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("missing redis addr")
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

// ContentRepo is a content.Repo that serves reads from Redis and falls back
// to the wrapped repository on a miss or a Redis failure.
type ContentRepo struct {
	next   content.Repo
	rdb    goredis.Cmdable
	ttl    time.Duration
	prefix string
	log    *logger.Logger
}

var _ content.Repo = (*ContentRepo)(nil)

// NewContentRepo wraps next. A zero ttl uses DefaultTTL.
func NewContentRepo(next content.Repo, rdb goredis.Cmdable, ttl time.Duration, log *logger.Logger) *ContentRepo {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if log == nil {
		log = logger.Nop()
	}
	return &ContentRepo{
		next:   next,
		rdb:    rdb,
		ttl:    ttl,
		prefix: DefaultPrefix,
		log:    log.With("service", "ContentCache"),
	}
}

func (c *ContentRepo) poolKey(conceptID string) string {
	return c.prefix + "concept:" + conceptID + ":questions"
}

func (c *ContentRepo) nameKey(conceptID string) string {
	return c.prefix + "concept:" + conceptID + ":name"
}

// Invalidate drops the cached pool and name of each concept so the next
// read goes to the wrapped repository.
func (c *ContentRepo) Invalidate(ctx context.Context, conceptIDs ...string) error {
	if len(conceptIDs) == 0 {
		return nil
	}
	keys := make([]string, 0, 2*len(conceptIDs))
	for _, id := range conceptIDs {
		keys = append(keys, c.poolKey(id), c.nameKey(id))
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("invalidate %d concepts: %w", len(conceptIDs), err)
	}
	c.log.Debug("cache invalidated", "concepts", len(conceptIDs))
	return nil
}

func (c *ContentRepo) QuestionsByConcept(ctx context.Context, conceptID string) ([]content.Question, error) {
	key := c.poolKey(conceptID)
	var qs []content.Question
	if c.get(ctx, key, &qs) {
		return qs, nil
	}
	qs, err := c.next.QuestionsByConcept(ctx, conceptID)
	if err != nil {
		return nil, err
	}
	c.set(ctx, key, qs)
	return qs, nil
}

func (c *ContentRepo) QuestionByID(ctx context.Context, id string) (*content.Question, error) {
	key := c.prefix + "question:" + id
	var q content.Question
	if c.get(ctx, key, &q) {
		return &q, nil
	}
	got, err := c.next.QuestionByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.set(ctx, key, got)
	return got, nil
}

func (c *ContentRepo) ConceptName(ctx context.Context, id string) (string, error) {
	key := c.nameKey(id)
	var name string
	if c.get(ctx, key, &name) {
		return name, nil
	}
	name, err := c.next.ConceptName(ctx, id)
	if err != nil {
		return "", err
	}
	c.set(ctx, key, name)
	return name, nil
}

// get decodes the cached value at key into dst and reports a hit.
func (c *ContentRepo) get(ctx context.Context, key string, dst any) bool {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, goredis.Nil) {
			c.log.Warn("cache read failed", "key", key, "error", err)
		}
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		c.log.Warn("cache entry corrupt", "key", key, "error", err)
		return false
	}
	return true
}

func (c *ContentRepo) set(ctx context.Context, key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		c.log.Warn("cache encode failed", "key", key, "error", err)
		return
	}
	if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.log.Warn("cache write failed", "key", key, "error", err)
	}
}
