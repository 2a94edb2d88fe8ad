package table

import (
	"runtime"
	"sync"
	"weak"
)

// Weak is a weak-keyed [Table].
//
// Keys are pointers. An entry does not keep its key alive; once a key becomes
// unreachable elsewhere in the program its entry is reclaimed by the runtime.
// Accordingly, Weak offers no iteration or size introspection.
//
// An entry whose value refers (directly or indirectly) to its own key is never
// reclaimed.
//
// The zero-value is ready for use. Weak is safe for concurrent use, and its
// GetOrInsert method is atomic.
type Weak[K, V any] struct {
	m       sync.Mutex
	entries map[weak.Pointer[K]]V
}

// Get returns the value associated with k.
func (t *Weak[K, V]) Get(k *K) (V, bool) {
	t.m.Lock()
	defer t.m.Unlock()

	v, ok := t.entries[weak.Make(k)]
	return v, ok
}

// Set associates v with k, overwriting any existing association.
func (t *Weak[K, V]) Set(k *K, v V) {
	t.m.Lock()
	defer t.m.Unlock()

	t.set(k, v)
}

// GetOrInsert returns the value associated with k, first associating v with k
// if it is not already present.
func (t *Weak[K, V]) GetOrInsert(k *K, v V) V {
	return t.GetOrInsertFunc(k, func() V { return v })
}

// GetOrInsertFunc returns the value associated with k, first associating the
// result of calling fn with k if it is not already present.
//
// fn is invoked while the table is locked, guaranteeing it is called at most
// once per insertion even under contention.
func (t *Weak[K, V]) GetOrInsertFunc(k *K, fn func() V) V {
	t.m.Lock()
	defer t.m.Unlock()

	if v, ok := t.entries[weak.Make(k)]; ok {
		return v
	}

	t.set(k, fn())

	return t.entries[weak.Make(k)]
}

// set inserts or replaces the entry for k. It expects t.m to be locked.
func (t *Weak[K, V]) set(k *K, v V) {
	p := weak.Make(k)

	if t.entries == nil {
		t.entries = map[weak.Pointer[K]]V{}
	}

	if _, ok := t.entries[p]; !ok {
		// The cleanup must not reach k through its arguments, otherwise k
		// would never become unreachable; it captures only t and the weak
		// pointer.
		runtime.AddCleanup(k, t.reclaim, p)
	}

	t.entries[p] = v
}

// reclaim removes the entry for a key that the runtime has reclaimed.
func (t *Weak[K, V]) reclaim(p weak.Pointer[K]) {
	t.m.Lock()
	defer t.m.Unlock()

	delete(t.entries, p)
}
