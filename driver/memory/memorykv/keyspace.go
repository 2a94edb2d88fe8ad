package memorykv

import (
	"context"
	"errors"
	"maps"
	"sync"

	"github.com/dogmatiq/mapkit/driver/memory/internal/clone"
	"github.com/dogmatiq/mapkit/kv"
)

// state is the in-memory state of a keyspace.
//
// It is shared by every [keyspace] opened with the same name from the same
// [Store].
type state struct {
	sync.RWMutex
	Values map[string][]byte
}

// keyspace is an implementation of [kv.BinaryKeyspace] that manipulates a
// keyspace's in-memory [state].
type keyspace struct {
	name      string
	state     *state
	beforeSet func(ks string, k, v []byte) error
	afterSet  func(ks string, k, v []byte) error
}

func (ks *keyspace) Name() string {
	return ks.name
}

func (ks *keyspace) Get(ctx context.Context, k []byte) ([]byte, error) {
	if ks.state == nil {
		panic("keyspace is closed")
	}

	ks.state.RLock()
	defer ks.state.RUnlock()

	return clone.Clone(ks.state.Values[string(k)]), ctx.Err()
}

func (ks *keyspace) Has(ctx context.Context, k []byte) (bool, error) {
	if ks.state == nil {
		panic("keyspace is closed")
	}

	ks.state.RLock()
	defer ks.state.RUnlock()

	_, ok := ks.state.Values[string(k)]
	return ok, ctx.Err()
}

func (ks *keyspace) Set(ctx context.Context, k, v []byte) error {
	return ks.set(ctx, k, v, false)
}

func (ks *keyspace) SetIfAbsent(ctx context.Context, k, v []byte) error {
	return ks.set(ctx, k, v, true)
}

// set associates v with k while the state's write-lock is held, making the
// presence check and the insert a single atomic step with respect to other
// keyspace handles.
func (ks *keyspace) set(ctx context.Context, k, v []byte, onlyIfAbsent bool) error {
	if ks.state == nil {
		panic("keyspace is closed")
	}

	v = clone.Clone(v)

	ks.state.Lock()
	defer ks.state.Unlock()

	if onlyIfAbsent {
		if _, ok := ks.state.Values[string(k)]; ok {
			return ctx.Err()
		}

		if len(v) == 0 {
			return ctx.Err()
		}
	}

	if ks.beforeSet != nil {
		if err := ks.beforeSet(ks.name, k, v); err != nil {
			return err
		}
	}

	if len(v) == 0 {
		delete(ks.state.Values, string(k))
	} else {
		if ks.state.Values == nil {
			ks.state.Values = map[string][]byte{}
		}

		ks.state.Values[string(k)] = v
	}

	if ks.afterSet != nil {
		if err := ks.afterSet(ks.name, k, v); err != nil {
			return err
		}
	}

	return ctx.Err()
}

func (ks *keyspace) Range(ctx context.Context, fn kv.BinaryRangeFunc) error {
	if ks.state == nil {
		panic("keyspace is closed")
	}

	ks.state.RLock()
	values := maps.Clone(ks.state.Values)
	ks.state.RUnlock()

	for k, v := range values {
		ok, err := fn(ctx, []byte(k), clone.Clone(v))
		if !ok || err != nil {
			return err
		}
	}

	return nil
}

func (ks *keyspace) Close() error {
	if ks.state == nil {
		return errors.New("keyspace is already closed")
	}

	ks.state = nil

	return nil
}
