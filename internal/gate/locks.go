package gate

import "sync"

// keyLocks serializes work per key. Entries live only while someone holds or waits for them.
type keyLocks struct {
	mx    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	sync.Mutex
	refs int
}

func newKeyLocks() *keyLocks {
	return &keyLocks{locks: make(map[string]*keyLock)}
}

// lock blocks until key is free and returns the unlock func.
func (k *keyLocks) lock(key string) func() {
	k.mx.Lock()

	l, ok := k.locks[key]
	if !ok {
		l = new(keyLock)
		k.locks[key] = l
	}

	l.refs++
	k.mx.Unlock()

	l.Lock()

	return func() {
		l.Unlock()

		k.mx.Lock()
		l.refs--

		if l.refs == 0 {
			delete(k.locks, key)
		}

		k.mx.Unlock()
	}
}

func (k *keyLocks) size() int {
	k.mx.Lock()
	defer k.mx.Unlock()

	return len(k.locks)
}
