package table

import "sync"

// Sync is a concurrency-safe [Table] backed by a [sync.Map].
//
// The zero-value is empty and ready for use. Its GetOrInsert method is atomic;
// two goroutines that race to insert the same key observe the same winning
// value, preserving the at-most-one-entry-per-key invariant without external
// locking.
type Sync[K comparable, V any] struct {
	entries sync.Map
}

// Get returns the value associated with k.
func (t *Sync[K, V]) Get(k K) (V, bool) {
	if v, ok := t.entries.Load(k); ok {
		return v.(V), true
	}

	var zero V
	return zero, false
}

// Set associates v with k, overwriting any existing association.
func (t *Sync[K, V]) Set(k K, v V) {
	t.entries.Store(k, v)
}

// Delete removes the association for k, if any.
func (t *Sync[K, V]) Delete(k K) {
	t.entries.Delete(k)
}

// GetOrInsert returns the value associated with k, first associating v with k
// if it is not already present.
//
// The check and the insert are a single atomic operation.
func (t *Sync[K, V]) GetOrInsert(k K, v V) V {
	actual, _ := t.entries.LoadOrStore(k, v)
	return actual.(V)
}

// GetOrInsertFunc returns the value associated with k, first associating the
// result of calling fn with k if it is not already present.
//
// fn is only invoked on the miss path. If several goroutines race to insert
// the same key, fn may be invoked more than once, but all of them observe the
// single value that won the race.
func (t *Sync[K, V]) GetOrInsertFunc(k K, fn func() V) V {
	if v, ok := t.entries.Load(k); ok {
		return v.(V)
	}

	actual, _ := t.entries.LoadOrStore(k, fn())
	return actual.(V)
}

// Range invokes fn for each entry in the table in an undefined order, stopping
// early if fn returns false.
func (t *Sync[K, V]) Range(fn func(K, V) bool) {
	t.entries.Range(func(k, v any) bool {
		return fn(k.(K), v.(V))
	})
}
