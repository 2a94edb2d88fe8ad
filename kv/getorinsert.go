package kv

import "context"

// GetOrInsert returns the value associated with k in ks.
//
// If k is not present it first associates v with k. It never overwrites an
// existing association; a present key is the expected path, not an error.
//
// The returned value is re-read from ks after insertion, so it always equals
// the value actually stored, even if the keyspace normalizes values as they
// are stored. Because insertion uses [Keyspace.SetIfAbsent], concurrent calls
// for the same key all observe the single value that won the race.
//
// If v is the zero-value of V (or equivalent) no entry is inserted, per the
// [Keyspace.Set] deletion contract.
func GetOrInsert[K, V any](
	ctx context.Context,
	ks Keyspace[K, V],
	k K,
	v V,
) (V, error) {
	if err := ks.SetIfAbsent(ctx, k, v); err != nil {
		var zero V
		return zero, err
	}

	return ks.Get(ctx, k)
}

// GetOrInsertFunc returns the value associated with k in ks.
//
// If k is not present it first associates the result of calling fn with k. It
// behaves as [GetOrInsert], except that fn is only invoked on the miss path,
// making it suitable for fallback values that are expensive to construct.
//
// The presence check and the insert are distinct operations; if a concurrent
// caller inserts a value for k after the check, fn's result is discarded and
// the winning value is returned.
func GetOrInsertFunc[K, V any](
	ctx context.Context,
	ks Keyspace[K, V],
	k K,
	fn func(ctx context.Context) (V, error),
) (V, error) {
	var zero V

	ok, err := ks.Has(ctx, k)
	if err != nil {
		return zero, err
	}

	if !ok {
		v, err := fn(ctx)
		if err != nil {
			return zero, err
		}

		if err := ks.SetIfAbsent(ctx, k, v); err != nil {
			return zero, err
		}
	}

	return ks.Get(ctx, k)
}
