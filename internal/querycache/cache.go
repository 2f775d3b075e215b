// Package querycache keeps per-user copies of remote query results until
// they go stale or a mutation invalidates them.
package querycache

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"resume-dashboard/internal/shared/metrics"
)

const sep = "\x1f"

// Key is an ordered list of parts such as ["resume", id].
type Key []string

// K builds a Key.
func K(parts ...string) Key {
	return Key(parts)
}

// Cache is safe for concurrent use.
type Cache struct {
	store *gocache.Cache
	ttl   time.Duration
	group singleflight.Group

	mu    sync.Mutex
	users map[string]*userState
}

// userState exists only while user has fetches in flight.
type userState struct {
	gen      uint64
	inflight int
}

// New returns a cache whose entries stay fresh for staleTime.
// A non-positive staleTime disables storage; Fetch still dedupes calls.
func New(staleTime time.Duration) *Cache {
	cleanup := 2 * staleTime
	if cleanup <= 0 {
		cleanup = time.Minute
	}
	return &Cache{
		store: gocache.New(staleTime, cleanup),
		ttl:   staleTime,
		users: make(map[string]*userState),
	}
}

// Fetch returns the fresh cached value for key, or calls fn once for all
// concurrent callers and caches its result. Errors are not cached.
func Fetch[T any](ctx context.Context, c *Cache, user string, key Key, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	k := encode(user, key)
	if v, ok := c.store.Get(k); ok {
		if typed, ok := v.(T); ok {
			metrics.IncCacheHit()
			return typed, nil
		}
	}
	metrics.IncCacheMiss()

	gen := c.acquire(user)
	defer c.release(user)
	// A fetch issued after an invalidation must not join one started before it.
	v, err, _ := c.group.Do(k+"#"+strconv.FormatUint(gen, 10), func() (any, error) {
		val, err := fn(ctx)
		if err != nil {
			return nil, err
		}
		c.storeIfCurrent(user, gen, k, val)
		return val, nil
	})
	if err != nil {
		return zero, err
	}
	typed, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("querycache: %s holds %T", strings.Join(key, "/"), v)
	}
	return typed, nil
}

// Set seeds the cache with a value the caller already has.
func (c *Cache) Set(user string, key Key, value any) {
	if c.ttl <= 0 {
		return
	}
	c.store.Set(encode(user, key), value, gocache.DefaultExpiration)
}

// Invalidate drops every entry of user whose key starts with prefix.
func (c *Cache) Invalidate(user string, prefix ...string) {
	c.bump(user)
	p := encode(user, Key(prefix))
	for k := range c.store.Items() {
		if strings.HasPrefix(k, p) {
			c.store.Delete(k)
		}
	}
}

// InvalidateUser drops everything cached for user.
func (c *Cache) InvalidateUser(user string) {
	c.Invalidate(user)
}

// Len reports the number of live entries.
func (c *Cache) Len() int {
	return c.store.ItemCount()
}

func (c *Cache) acquire(user string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	st, ok := c.users[user]
	if !ok {
		st = &userState{}
		c.users[user] = st
	}
	st.inflight++
	return st.gen
}

func (c *Cache) release(user string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	st, ok := c.users[user]
	if !ok {
		return
	}
	st.inflight--
	if st.inflight <= 0 {
		delete(c.users, user)
	}
}

// bump marks in-flight fetches of user as stale. With nothing in flight
// there is nothing to guard.
func (c *Cache) bump(user string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if st, ok := c.users[user]; ok {
		st.gen++
	}
}

// storeIfCurrent skips results fetched across an invalidation.
func (c *Cache) storeIfCurrent(user string, gen uint64, k string, val any) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if st, ok := c.users[user]; !ok || st.gen != gen {
		return
	}
	c.store.Set(k, val, gocache.DefaultExpiration)
}

func encode(user string, key Key) string {
	var b strings.Builder
	b.WriteString(user)
	b.WriteString(sep)
	for _, part := range key {
		b.WriteString(part)
		b.WriteString(sep)
	}
	return b.String()
}
