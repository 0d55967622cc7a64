package cache

import (
	"context"
	"time"
)

// Fetch is cache-aside: return the cached value for key, otherwise call load,
// store its result for ttl and return it. Load errors are never cached.
func Fetch[T any](ctx context.Context, g *Gateway, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	return FetchFunc(ctx, g, key, func(T) time.Duration { return ttl }, load)
}

// FetchFunc is Fetch with a TTL chosen from the loaded value. Concurrent
// misses on the same key share one load. A nil gateway always loads.
func FetchFunc[T any](ctx context.Context, g *Gateway, key string, ttlFor func(T) time.Duration, load func(context.Context) (T, error)) (T, error) {
	if g == nil {
		return load(ctx)
	}

	var cached T
	if g.Get(ctx, key, &cached) {
		return cached, nil
	}

	// the load is shared, so one caller going away must not cancel it for the rest
	ch := g.flight.DoChan(key, func() (any, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), g.cfg.LoadTimeout)
		defer cancel()

		value, err := load(loadCtx)
		if err != nil {
			return nil, err
		}
		g.Set(loadCtx, key, value, ttlFor(value))
		return value, nil
	})

	var zero T
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		out, _ := res.Val.(T)
		return out, nil
	}
}
