package search

import "sync"

// KeyLock serializes work per string key. The bot uses it to make the
// get-decide-set sequence of a pagination step atomic per message: two quick
// reactions on the same message run one after the other, while different
// messages paginate concurrently.
type KeyLock struct {
	mu    sync.Mutex
	locks map[string]*keyLockRef
}

type keyLockRef struct {
	mu   sync.Mutex
	refs int
}

// NewKeyLock returns an empty key lock.
func NewKeyLock() *KeyLock {
	return &KeyLock{locks: make(map[string]*keyLockRef)}
}

// Lock acquires the lock for key and returns the matching unlock function.
// Lock entries are reference counted and removed once unused, so the map does
// not grow with the number of distinct messages seen.
func (kl *KeyLock) Lock(key string) (unlock func()) {
	kl.mu.Lock()
	ref, ok := kl.locks[key]
	if !ok {
		ref = &keyLockRef{}
		kl.locks[key] = ref
	}
	ref.refs++
	kl.mu.Unlock()

	ref.mu.Lock()
	return func() {
		ref.mu.Unlock()
		kl.mu.Lock()
		ref.refs--
		if ref.refs == 0 {
			delete(kl.locks, key)
		}
		kl.mu.Unlock()
	}
}
