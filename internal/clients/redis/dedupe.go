// Package redis provides the event dedupe store. Slack retries events
// API deliveries, so the first consumer of an event ID wins and later
// deliveries are dropped. Redis backs the store when REDIS_ADDR is set;
// a process-local map is used otherwise.
package redis

import (
	"context"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/botvine/huddle/internal/logger"
	"github.com/botvine/huddle/internal/utils"
)

// Deduper reports whether an ID is being seen for the first time.
// FirstSeen uses the store's default TTL; one-shot keys with their own
// lifetime go through FirstSeenFor.
type Deduper interface {
	FirstSeen(ctx context.Context, eventID string) bool
	FirstSeenFor(ctx context.Context, id string, ttl time.Duration) bool
	Close() error
}

const keyPrefix = "huddle:dedupe:"

// New picks the redis-backed store when REDIS_ADDR is configured and
// reachable, and falls back to the in-memory store otherwise.
func New(ctx context.Context, log *logger.Logger) Deduper {
	ttl := time.Duration(utils.GetEnvAsInt("SLACK_EVENT_DEDUPE_TTL_SECONDS", 300, log)) * time.Second
	addr := utils.GetEnv("REDIS_ADDR", "", log)
	if addr == "" {
		log.Info("event dedupe using in-memory store")
		return newMemoryDeduper(ttl)
	}

	client := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: utils.GetEnv("REDIS_PASSWORD", "", log),
		DB:       utils.GetEnvAsInt("REDIS_DB", 0, log),
	})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Warn("redis unreachable, falling back to in-memory dedupe", "addr", addr, "error", err)
		_ = client.Close()
		return newMemoryDeduper(ttl)
	}
	log.Info("event dedupe using redis", "addr", addr)
	return &redisDeduper{client: client, ttl: ttl, log: log}
}

type redisDeduper struct {
	client *goredis.Client
	ttl    time.Duration
	log    *logger.Logger
}

func (d *redisDeduper) FirstSeen(ctx context.Context, eventID string) bool {
	return d.FirstSeenFor(ctx, eventID, d.ttl)
}

func (d *redisDeduper) FirstSeenFor(ctx context.Context, id string, ttl time.Duration) bool {
	if id == "" {
		return true
	}
	if ttl <= 0 {
		ttl = d.ttl
	}
	ok, err := d.client.SetNX(ctx, keyPrefix+id, 1, ttl).Result()
	if err != nil {
		// On redis failure, process the event rather than drop it.
		d.log.Warn("dedupe check failed", "id", id, "error", err)
		return true
	}
	return ok
}

func (d *redisDeduper) Close() error {
	return d.client.Close()
}

type memoryDeduper struct {
	mu   sync.Mutex
	seen map[string]time.Time
	ttl  time.Duration
}

func newMemoryDeduper(ttl time.Duration) *memoryDeduper {
	return &memoryDeduper{seen: make(map[string]time.Time), ttl: ttl}
}

func (d *memoryDeduper) FirstSeen(ctx context.Context, eventID string) bool {
	return d.FirstSeenFor(ctx, eventID, d.ttl)
}

func (d *memoryDeduper) FirstSeenFor(_ context.Context, id string, ttl time.Duration) bool {
	if id == "" {
		return true
	}
	if ttl <= 0 {
		ttl = d.ttl
	}
	now := time.Now()
	d.mu.Lock()
	defer d.mu.Unlock()
	for k, expiry := range d.seen {
		if now.After(expiry) {
			delete(d.seen, k)
		}
	}
	if expiry, ok := d.seen[id]; ok && now.Before(expiry) {
		return false
	}
	d.seen[id] = now.Add(ttl)
	return true
}

func (d *memoryDeduper) Close() error { return nil }
