package cache

import (
	"context"
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type payload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestGateway(t *testing.T, retryAfter time.Duration) (*Gateway, *miniredis.Miniredis, *fakeClock) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })

	gw := New(rdb, Config{Namespace: "test", OpTimeout: time.Second, RetryAfter: retryAfter}, zap.NewNop())
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	gw.now = clock.Now
	return gw, mr, clock
}

func TestKeyIsStablePerTuple(t *testing.T) {
	gw := New(nil, Config{Namespace: "deinbox"}, nil)

	assert.Equal(t, "deinbox:a@b.com:messages:is:unread:50", gw.Key("a@b.com", "messages", "is:unread", "50"))
	assert.Equal(t, "deinbox:a@b.com:stats", gw.Key("a@b.com", "stats"))
	assert.Equal(t, gw.Key("u", "messages", "", "1000"), gw.Key("u", "messages", "", "1000"))
	assert.NotEqual(t, gw.Key("u", "messages", "", "1000"), gw.Key("u", "messages", "", "50"))
	assert.NotEqual(t, gw.Key("u1", "stats"), gw.Key("u2", "stats"))
}

func TestSetThenGet(t *testing.T) {
	gw, mr, _ := newTestGateway(t, time.Minute)
	ctx := context.Background()

	gw.Set(ctx, "test:k", payload{Name: "inbox", Count: 3}, time.Minute)

	var got payload
	require.True(t, gw.Get(ctx, "test:k", &got))
	assert.Equal(t, payload{Name: "inbox", Count: 3}, got)
	assert.True(t, gw.Exists(ctx, "test:k"))

	mr.FastForward(2 * time.Minute)
	assert.False(t, gw.Get(ctx, "test:k", &got), "expired entry must miss")
}

func TestGetMissingKey(t *testing.T) {
	gw, _, _ := newTestGateway(t, time.Minute)

	var got payload
	assert.False(t, gw.Get(context.Background(), "test:none", &got))
	assert.Equal(t, StateActive, gw.State())
}

func TestSetWithoutTTLIsIgnored(t *testing.T) {
	gw, mr, _ := newTestGateway(t, time.Minute)

	gw.Set(context.Background(), "test:forever", payload{}, 0)
	assert.False(t, mr.Exists("test:forever"))
}

func TestInvalidate(t *testing.T) {
	gw, mr, _ := newTestGateway(t, time.Minute)
	ctx := context.Background()

	gw.Set(ctx, "test:a", 1, time.Minute)
	gw.Set(ctx, "test:b", 2, time.Minute)
	gw.Set(ctx, "test:c", 3, time.Minute)

	gw.Invalidate(ctx, "test:a", "test:b", "test:missing")

	assert.False(t, mr.Exists("test:a"))
	assert.False(t, mr.Exists("test:b"))
	assert.True(t, mr.Exists("test:c"))
}

func TestMalformedEntryIsMissWithoutDegrading(t *testing.T) {
	gw, mr, _ := newTestGateway(t, time.Minute)
	require.NoError(t, mr.Set("test:bad", "{not json"))

	var got payload
	assert.False(t, gw.Get(context.Background(), "test:bad", &got))
	assert.Equal(t, StateActive, gw.State())
}

func TestServerReplyErrorDoesNotDegrade(t *testing.T) {
	gw, mr, _ := newTestGateway(t, time.Minute)
	_, err := mr.Lpush("test:list", "x")
	require.NoError(t, err)

	var got payload
	assert.False(t, gw.Get(context.Background(), "test:list", &got))
	assert.Equal(t, StateActive, gw.State())
}

func TestUnreachableBackendFailsOpen(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 100 * time.Millisecond})
	t.Cleanup(func() { _ = rdb.Close() })
	gw := New(rdb, Config{Namespace: "test", OpTimeout: 200 * time.Millisecond, RetryAfter: time.Hour}, zap.NewNop())
	ctx := context.Background()

	var got payload
	assert.False(t, gw.Get(ctx, "test:k", &got))
	assert.Equal(t, StateDegraded, gw.State())

	// degraded calls are no-ops and do not panic or block
	start := time.Now()
	gw.Set(ctx, "test:k", payload{Name: "x"}, time.Minute)
	gw.Invalidate(ctx, "test:k")
	assert.False(t, gw.Exists(ctx, "test:k"))
	assert.False(t, gw.Get(ctx, "test:k", &got))
	assert.Less(t, time.Since(start), 50*time.Millisecond)
}

func TestDegradedGatewayRecoversAfterRetryWindow(t *testing.T) {
	gw, mr, clock := newTestGateway(t, 30*time.Second)
	ctx := context.Background()

	gw.Set(ctx, "test:k", payload{Name: "kept"}, time.Hour)

	mr.Close()
	var got payload
	assert.False(t, gw.Get(ctx, "test:k", &got))
	require.Equal(t, StateDegraded, gw.State())

	require.NoError(t, mr.Restart())

	// still inside the window: no backend call
	clock.Advance(10 * time.Second)
	assert.False(t, gw.Get(ctx, "test:k", &got))
	assert.Equal(t, StateDegraded, gw.State())

	hit := false
	for i := 0; i < 3 && !hit; i++ {
		clock.Advance(31 * time.Second)
		hit = gw.Get(ctx, "test:k", &got)
	}
	require.True(t, hit)
	assert.Equal(t, StateActive, gw.State())
	assert.Equal(t, "kept", got.Name)
}

func TestZeroRetryAfterStaysDegraded(t *testing.T) {
	gw, mr, clock := newTestGateway(t, 0)
	ctx := context.Background()

	mr.Close()
	var got payload
	gw.Get(ctx, "test:k", &got)
	require.NoError(t, mr.Restart())

	clock.Advance(24 * time.Hour)
	assert.False(t, gw.Get(ctx, "test:k", &got))
	assert.Equal(t, StateDegraded, gw.State())
}

func TestFetchLoadsOnceThenServesFromCache(t *testing.T) {
	gw, _, _ := newTestGateway(t, time.Minute)
	ctx := context.Background()

	calls := 0
	load := func(context.Context) ([]payload, error) {
		calls++
		return []payload{{Name: "a", Count: 1}}, nil
	}

	first, err := Fetch(ctx, gw, "test:list", time.Minute, load)
	require.NoError(t, err)
	second, err := Fetch(ctx, gw, "test:list", time.Minute, load)
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, first, second)
}

func TestFetchSharedLoadOutlivesCancelledCaller(t *testing.T) {
	gw, mr, _ := newTestGateway(t, time.Minute)

	started := make(chan struct{}, 2)
	release := make(chan struct{})
	var loadErrs sync.Map
	var loads atomic.Int32
	load := func(ctx context.Context) (string, error) {
		n := loads.Add(1)
		started <- struct{}{}
		<-release
		loadErrs.Store(n, ctx.Err())
		return "loaded", nil
	}

	first, cancel := context.WithCancel(context.Background())
	firstDone := make(chan error, 1)
	go func() {
		_, err := Fetch(first, gw, "test:shared", time.Minute, load)
		firstDone <- err
	}()
	<-started

	cancel()
	assert.ErrorIs(t, <-firstDone, context.Canceled)

	secondDone := make(chan string, 1)
	go func() {
		v, err := Fetch(context.Background(), gw, "test:shared", time.Minute, load)
		assert.NoError(t, err)
		secondDone <- v
	}()
	time.Sleep(20 * time.Millisecond)
	close(release)

	assert.Equal(t, "loaded", <-secondDone)
	loadErr, _ := loadErrs.Load(int32(1))
	assert.Nil(t, loadErr)
	assert.True(t, mr.Exists("test:shared"))
}

func TestFetchDoesNotCacheErrors(t *testing.T) {
	gw, mr, _ := newTestGateway(t, time.Minute)
	boom := errors.New("provider down")

	_, err := Fetch(context.Background(), gw, "test:err", time.Minute, func(context.Context) (int, error) {
		return 0, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.False(t, mr.Exists("test:err"))
}

func TestFetchFuncPicksTTLFromValue(t *testing.T) {
	gw, mr, _ := newTestGateway(t, time.Minute)
	ttlFor := func(v []int) time.Duration {
		if len(v) == 0 {
			return 5 * time.Minute
		}
		return 30 * time.Minute
	}

	_, err := FetchFunc(context.Background(), gw, "test:empty", ttlFor, func(context.Context) ([]int, error) {
		return []int{}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 5*time.Minute, mr.TTL("test:empty"))
}

func TestFetchFallsThroughWhenBackendDown(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 100 * time.Millisecond})
	t.Cleanup(func() { _ = rdb.Close() })
	gw := New(rdb, Config{Namespace: "test", OpTimeout: 200 * time.Millisecond}, zap.NewNop())

	got, err := Fetch(context.Background(), gw, "test:k", time.Minute, func(context.Context) (string, error) {
		return "from provider", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "from provider", got)
}

func TestPingBypassesDegradedState(t *testing.T) {
	gw, mr, _ := newTestGateway(t, 0)
	ctx := context.Background()

	require.NoError(t, gw.Ping(ctx))

	mr.Close()
	var got payload
	assert.False(t, gw.Get(ctx, "test:k", &got))
	require.Equal(t, StateDegraded, gw.State())
	assert.Error(t, gw.Ping(ctx))

	require.NoError(t, mr.Restart())
	assert.NoError(t, gw.Ping(ctx))
	assert.Equal(t, StateDegraded, gw.State(), "ping does not change state")
}

func TestNilBackendIsAlwaysMiss(t *testing.T) {
	gw := New(nil, Config{Namespace: "test"}, nil)
	ctx := context.Background()

	gw.Set(ctx, "test:k", payload{Name: "x"}, time.Minute)
	var got payload
	assert.False(t, gw.Get(ctx, "test:k", &got))
	assert.False(t, gw.Exists(ctx, "test:k"))
	assert.Error(t, gw.Ping(ctx))

	v, err := Fetch(ctx, gw, "test:k", time.Minute, func(context.Context) (string, error) {
		return "loaded", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "loaded", v)
}

func TestCallerCancellationDoesNotDegrade(t *testing.T) {
	gw, _, _ := newTestGateway(t, time.Hour)

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	var got payload
	assert.False(t, gw.Get(cancelled, "test:k", &got))
	gw.Set(cancelled, "test:k", payload{Name: "lost"}, time.Minute)
	assert.Equal(t, StateActive, gw.State())

	ctx := context.Background()
	gw.Set(ctx, "test:k", payload{Name: "kept"}, time.Minute)
	assert.True(t, gw.Exists(ctx, "test:k"))
	require.True(t, gw.Get(ctx, "test:k", &got))
	assert.Equal(t, "kept", got.Name)
}

func TestOpTimeoutDegrades(t *testing.T) {
	// accepts connections and never replies
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	var (
		mu    sync.Mutex
		conns []net.Conn
	)
	t.Cleanup(func() {
		_ = ln.Close()
		mu.Lock()
		defer mu.Unlock()
		for _, c := range conns {
			_ = c.Close()
		}
	})
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			mu.Lock()
			conns = append(conns, conn)
			mu.Unlock()
		}
	}()

	rdb := redis.NewClient(&redis.Options{Addr: ln.Addr().String(), MaxRetries: -1, ContextTimeoutEnabled: true})
	t.Cleanup(func() { _ = rdb.Close() })
	gw := New(rdb, Config{Namespace: "test", OpTimeout: 50 * time.Millisecond, RetryAfter: time.Hour}, zap.NewNop())

	var got payload
	assert.False(t, gw.Get(context.Background(), "test:k", &got))
	assert.Equal(t, StateDegraded, gw.State())
}
