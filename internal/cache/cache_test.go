package cache

import (
	"math/rand"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func BenchmarkCache(b *testing.B) {
	c := NewWithTTL[bool](time.Millisecond * 100)

	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	for i := 0; i < b.N; i++ {
		k := strconv.Itoa(r.Intn(50))

		if _, ok := c.Get(k); !ok {
			c.Put(k, true)
		}
	}
}

func TestExpire(t *testing.T) {
	now := time.Now()

	c := NewWithTTL[string](time.Minute)
	c.now = func() time.Time { return now }

	c.Put("a", "alice")
	c.Put("b", "bob")

	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, "alice", v)

	now = now.Add(time.Second * 30)
	c.Put("b", "bob")

	now = now.Add(time.Second * 31)

	_, ok = c.Get("a")
	assert.False(t, ok)

	_, ok = c.Get("b")
	assert.True(t, ok)

	now = now.Add(time.Minute)
	c.Clean()

	assert.Equal(t, 0, c.Len())
}

func TestCleanKeepsFresh(t *testing.T) {
	now := time.Now()

	c := NewWithTTL[bool](time.Minute)
	c.now = func() time.Time { return now }

	c.Put("a", true)
	now = now.Add(time.Second * 40)
	c.Put("b", true)
	now = now.Add(time.Second * 40)

	c.Clean()

	assert.Equal(t, 1, c.Len())
	assert.Equal(t, time.Minute, c.TTL())

	_, ok := c.Get("b")
	assert.True(t, ok)
}

func TestCache(t *testing.T) {
	c := NewWithTTL[int](time.Millisecond * 10)

	wg := new(sync.WaitGroup)

	for n := 0; n < 50; n++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			r := rand.New(rand.NewSource(time.Now().UnixNano()))

			for i := 0; i < 10000; i++ {
				k := r.Intn(1000)
				key := strconv.Itoa(k)

				if v, ok := c.Get(key); ok {
					assert.Equal(t, k, v)
				} else {
					c.Put(key, k)
				}

				if i%1000 == 0 {
					c.Clean()
				}
			}
		}()
	}

	wg.Wait()
}
