package cache

import (
	"sync"
	"time"
)

// Cache keeps values for ttl since the last Put.
type Cache[T any] struct {
	m   sync.Map
	ttl time.Duration
	now func() time.Time
}

type entry[T any] struct {
	value T
	ts    time.Time
}

func NewWithTTL[T any](ttl time.Duration) *Cache[T] {
	return &Cache[T]{
		m:   sync.Map{},
		ttl: ttl,
		now: time.Now,
	}
}

func (c *Cache[T]) Get(key string) (T, bool) {
	var zero T

	v, ok := c.m.Load(key)
	if !ok {
		return zero, false
	}

	e := v.(*entry[T])

	if c.now().Sub(e.ts) > c.ttl {
		c.m.CompareAndDelete(key, v)
		return zero, false
	}

	return e.value, true
}

func (c *Cache[T]) Put(key string, value T) {
	c.m.Store(key, &entry[T]{value: value, ts: c.now()})
}

func (c *Cache[T]) TTL() time.Duration {
	return c.ttl
}

// Clean drops expired entries.
func (c *Cache[T]) Clean() {
	now := c.now()

	c.m.Range(func(key, value any) bool {
		if now.Sub(value.(*entry[T]).ts) > c.ttl {
			c.m.CompareAndDelete(key, value)
		}

		return true
	})
}

func (c *Cache[T]) Len() int {
	n := 0

	c.m.Range(func(_, _ any) bool {
		n++
		return true
	})

	return n
}
