// Package table provides get-or-insert primitives for in-process keyed tables.
//
// A table is a mapping of unique keys to values. The package supports strongly
// referenced tables ([Map]), weak-keyed tables whose entries are reclaimed when
// their keys become unreachable ([Weak]), and concurrency-safe tables ([Sync]).
package table

// A Table is a minimal in-process mapping of unique keys to values.
//
// It is the capability set required by [GetOrInsert]; any container that can
// report the presence of a key and associate a value with a key can back the
// primitive.
type Table[K, V any] interface {
	// Get returns the value associated with k.
	//
	// If k is not present, v is the zero-value of V and ok is false.
	Get(k K) (v V, ok bool)

	// Set associates v with k, overwriting any existing association.
	Set(k K, v V)
}

// GetOrInsert returns the value associated with k in t.
//
// If k is not present it first associates v with k. It never overwrites an
// existing association; a present key is the expected path, not an error.
//
// The returned value is re-read from t after insertion, so it always equals
// the value actually stored, even if t normalizes values as they are stored.
//
// Unless t provides its own atomic get-or-insert operation (as [Sync] does),
// the presence check and the insert are two distinct steps, and callers that
// share t between goroutines must provide their own synchronization.
func GetOrInsert[K, V any](t Table[K, V], k K, v V) V {
	if t, ok := t.(atomicTable[K, V]); ok {
		return t.GetOrInsert(k, v)
	}

	if v, ok := t.Get(k); ok {
		return v
	}

	t.Set(k, v)

	v, _ = t.Get(k)
	return v
}

// GetOrInsertFunc returns the value associated with k in t.
//
// If k is not present it first associates the result of calling fn with k. It
// behaves as [GetOrInsert], except that fn is only invoked on the miss path,
// making it suitable for fallback values that are expensive to construct.
func GetOrInsertFunc[K, V any](t Table[K, V], k K, fn func() V) V {
	if t, ok := t.(atomicTableFunc[K, V]); ok {
		return t.GetOrInsertFunc(k, fn)
	}

	if v, ok := t.Get(k); ok {
		return v
	}

	t.Set(k, fn())

	v, _ := t.Get(k)
	return v
}

// atomicTable is a [Table] that provides its own atomic get-or-insert
// operation, making it safe for concurrent use without external locking.
type atomicTable[K, V any] interface {
	GetOrInsert(K, V) V
}

type atomicTableFunc[K, V any] interface {
	GetOrInsertFunc(K, func() V) V
}
