package cache

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/d093w1z/deinbox/pkg/config"
	"github.com/d093w1z/deinbox/pkg/metrics"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// State of the cache backend as seen by the gateway
type State int32

const (
	StateActive   State = iota // backend calls go through
	StateDegraded              // every call is an instant miss / no-op
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateDegraded:
		return "degraded"
	default:
		return "unknown"
	}
}

// Config for the gateway
type Config struct {
	// Namespace prefixes every key
	Namespace string
	// OpTimeout bounds a single backend call
	OpTimeout time.Duration
	// LoadTimeout bounds a shared cache-aside load once it no longer
	// follows any single caller's context
	LoadTimeout time.Duration
	// RetryAfter is how long to stay degraded before probing the backend again.
	// Zero keeps the gateway degraded for the rest of the process.
	RetryAfter time.Duration
}

// Gateway is a best-effort key-value cache in front of redis.
// It never returns backend errors to callers: failures become misses.
type Gateway struct {
	rdb redis.Cmdable
	cfg Config
	log *zap.Logger
	now func() time.Time

	flight singleflight.Group

	mu         sync.Mutex
	state      State
	degradedAt time.Time
}

// NewRedisClient creates the redis client backing the gateway
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:                  cfg.Addr,
		Password:              cfg.Password,
		DB:                    cfg.DB,
		DialTimeout:           time.Second,
		MaxRetries:            -1,
		ContextTimeoutEnabled: true,
	})
}

// New creates a gateway over rdb
func New(rdb redis.Cmdable, cfg Config, log *zap.Logger) *Gateway {
	if cfg.OpTimeout <= 0 {
		cfg.OpTimeout = 250 * time.Millisecond
	}
	if cfg.LoadTimeout <= 0 {
		cfg.LoadTimeout = time.Minute
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Gateway{
		rdb:   rdb,
		cfg:   cfg,
		log:   log,
		now:   time.Now,
		state: StateActive,
	}
}

// Key builds {namespace}:{user}:{operation}:{params...}. The same tuple always
// yields the same key; callers must pass params in a fixed order.
func (g *Gateway) Key(user, operation string, params ...string) string {
	parts := make([]string, 0, 3+len(params))
	parts = append(parts, g.cfg.Namespace, user, operation)
	parts = append(parts, params...)
	return strings.Join(parts, ":")
}

// State reports whether the gateway is currently using its backend
func (g *Gateway) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Ping checks the backend directly, bypassing the degraded state. Health only.
func (g *Gateway) Ping(ctx context.Context) error {
	if g.rdb == nil {
		return errors.New("cache: no backend configured")
	}
	opCtx, cancel := g.opContext(ctx)
	defer cancel()
	return g.rdb.Ping(opCtx).Err()
}

// Get decodes the cached value for key into dst and reports whether it was a hit.
func (g *Gateway) Get(ctx context.Context, key string, dst any) bool {
	if !g.admit(ctx) {
		metrics.RecordCache("get", "skipped")
		return false
	}

	opCtx, cancel := g.opContext(ctx)
	defer cancel()

	data, err := g.rdb.Get(opCtx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		metrics.RecordCache("get", "miss")
		return false
	}
	if err != nil {
		g.fail(ctx, "get", key, err)
		return false
	}

	if err := json.Unmarshal(data, dst); err != nil {
		metrics.RecordCache("get", "error")
		g.log.Warn("discarding malformed cache entry", zap.String("key", key), zap.Error(err))
		return false
	}

	metrics.RecordCache("get", "hit")
	return true
}

// Set stores value under key for ttl. Failures are logged, never returned.
func (g *Gateway) Set(ctx context.Context, key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		g.log.Warn("refusing to cache without expiry", zap.String("key", key))
		return
	}
	if !g.admit(ctx) {
		metrics.RecordCache("set", "skipped")
		return
	}

	data, err := json.Marshal(value)
	if err != nil {
		metrics.RecordCache("set", "error")
		g.log.Warn("cache value not serializable", zap.String("key", key), zap.Error(err))
		return
	}

	opCtx, cancel := g.opContext(ctx)
	defer cancel()

	if err := g.rdb.Set(opCtx, key, data, ttl).Err(); err != nil {
		g.fail(ctx, "set", key, err)
		return
	}
	metrics.RecordCache("set", "ok")
}

// Invalidate removes the given keys. There is no pattern delete; entries
// that are not named here live until their TTL.
func (g *Gateway) Invalidate(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}
	if !g.admit(ctx) {
		metrics.RecordCache("invalidate", "skipped")
		return
	}

	opCtx, cancel := g.opContext(ctx)
	defer cancel()

	if err := g.rdb.Del(opCtx, keys...).Err(); err != nil {
		g.fail(ctx, "invalidate", strings.Join(keys, ","), err)
		return
	}
	metrics.RecordCache("invalidate", "ok")
}

// Exists reports whether key is present. Any failure reads as absent.
func (g *Gateway) Exists(ctx context.Context, key string) bool {
	if !g.admit(ctx) {
		return false
	}

	opCtx, cancel := g.opContext(ctx)
	defer cancel()

	n, err := g.rdb.Exists(opCtx, key).Result()
	if err != nil {
		g.fail(ctx, "exists", key, err)
		return false
	}
	return n == 1
}

// admit decides whether to call the backend. A degraded gateway lets one
// caller probe with PING once RetryAfter has elapsed.
func (g *Gateway) admit(ctx context.Context) bool {
	if g.rdb == nil {
		return false
	}
	g.mu.Lock()
	if g.state == StateActive {
		g.mu.Unlock()
		return true
	}
	if g.cfg.RetryAfter <= 0 || g.now().Sub(g.degradedAt) < g.cfg.RetryAfter {
		g.mu.Unlock()
		return false
	}
	// claim the probe so concurrent callers keep failing fast
	g.degradedAt = g.now()
	g.mu.Unlock()

	opCtx, cancel := g.opContext(ctx)
	defer cancel()

	if err := g.rdb.Ping(opCtx).Err(); err != nil {
		g.log.Debug("cache backend still unavailable", zap.Error(err))
		return false
	}

	g.mu.Lock()
	g.state = StateActive
	g.mu.Unlock()
	g.log.Info("cache backend recovered")
	return true
}

// fail records a backend error. Server replies (e.g. WRONGTYPE) and calls
// abandoned by the caller's own ctx are plain misses; anything else,
// including OpTimeout expiring, means the connection is unusable.
func (g *Gateway) fail(ctx context.Context, op, key string, err error) {
	metrics.RecordCache(op, "error")

	if ctx.Err() != nil || errors.Is(err, context.Canceled) {
		g.log.Debug("cache call abandoned by caller", zap.String("op", op), zap.String("key", key), zap.Error(err))
		return
	}

	var replyErr redis.Error
	if errors.As(err, &replyErr) {
		g.log.Warn("cache command rejected", zap.String("op", op), zap.String("key", key), zap.Error(err))
		return
	}

	g.mu.Lock()
	wasActive := g.state == StateActive
	g.state = StateDegraded
	g.degradedAt = g.now()
	g.mu.Unlock()

	if wasActive {
		g.log.Warn("cache backend unavailable, failing open",
			zap.String("op", op),
			zap.String("key", key),
			zap.Duration("retry_after", g.cfg.RetryAfter),
			zap.Error(err),
		)
	}
}

func (g *Gateway) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, g.cfg.OpTimeout)
}
