package kv_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/dogmatiq/mapkit/driver/memory/memorykv"
	. "github.com/dogmatiq/mapkit/kv"
	"github.com/dogmatiq/mapkit/marshaler"
)

func TestGetOrInsert(t *testing.T) {
	t.Parallel()

	t.Run("it associates the fallback value with an absent key", func(t *testing.T) {
		t.Parallel()

		ks := setupKeyspace(t)

		v, err := GetOrInsert(t.Context(), ks, "hits", 1)
		if err != nil {
			t.Fatal(err)
		}
		if v != 1 {
			t.Fatalf("unexpected value: got %d, want 1", v)
		}

		stored, err := ks.Get(t.Context(), "hits")
		if err != nil {
			t.Fatal(err)
		}
		if stored != 1 {
			t.Fatalf("unexpected stored value: got %d, want 1", stored)
		}
	})

	t.Run("it does not overwrite an existing association", func(t *testing.T) {
		t.Parallel()

		ks := setupKeyspace(t)

		if err := ks.Set(t.Context(), "hits", 5); err != nil {
			t.Fatal(err)
		}

		v, err := GetOrInsert(t.Context(), ks, "hits", 1)
		if err != nil {
			t.Fatal(err)
		}
		if v != 5 {
			t.Fatalf("unexpected value: got %d, want 5", v)
		}

		stored, err := ks.Get(t.Context(), "hits")
		if err != nil {
			t.Fatal(err)
		}
		if stored != 5 {
			t.Fatalf("stored value was overwritten: got %d, want 5", stored)
		}
	})

	t.Run("it returns the value as stored, not the value as given", func(t *testing.T) {
		t.Parallel()

		// The value marshaler lowercases values as they are stored, so the
		// returned value only matches the stored form if it is re-read after
		// insertion.
		lowercase := marshaler.New(
			func(v string) ([]byte, error) {
				return []byte(strings.ToLower(v)), nil
			},
			func(data []byte) (string, error) {
				return string(data), nil
			},
		)

		store := NewMarshalingStore(
			&memorykv.Store{},
			marshaler.String,
			lowercase,
		)

		ks, err := store.Open(t.Context(), "<keyspace>")
		if err != nil {
			t.Fatal(err)
		}
		t.Cleanup(func() {
			if err := ks.Close(); err != nil {
				t.Fatal(err)
			}
		})

		v, err := GetOrInsert(t.Context(), ks, "<key>", "VALUE")
		if err != nil {
			t.Fatal(err)
		}
		if v != "value" {
			t.Fatalf("unexpected value: got %q, want %q", v, "value")
		}
	})

	t.Run("it treats each key independently", func(t *testing.T) {
		t.Parallel()

		ks := setupKeyspace(t)

		if _, err := GetOrInsert(t.Context(), ks, "pos", 1); err != nil {
			t.Fatal(err)
		}
		if err := ks.Set(t.Context(), "neg", 3); err != nil {
			t.Fatal(err)
		}

		pos, err := GetOrInsert(t.Context(), ks, "pos", 10)
		if err != nil {
			t.Fatal(err)
		}
		neg, err := GetOrInsert(t.Context(), ks, "neg", 10)
		if err != nil {
			t.Fatal(err)
		}

		if pos != 1 || neg != 3 {
			t.Fatalf("unexpected values: got (%d, %d), want (1, 3)", pos, neg)
		}
	})

	t.Run("concurrent callers observe a single winning value", func(t *testing.T) {
		t.Parallel()

		ks := setupKeyspace(t)

		const goroutines = 16

		var (
			wg      sync.WaitGroup
			results [goroutines]int
		)

		for i := range goroutines {
			wg.Add(1)
			go func() {
				defer wg.Done()

				v, err := GetOrInsert(t.Context(), ks, "<key>", i+1)
				if err != nil {
					t.Error(err)
					return
				}

				results[i] = v
			}()
		}

		wg.Wait()

		stored, err := ks.Get(t.Context(), "<key>")
		if err != nil {
			t.Fatal(err)
		}

		for i, v := range results {
			if v != stored {
				t.Fatalf(
					"goroutine #%d observed a value other than the stored one: got %d, want %d",
					i,
					v,
					stored,
				)
			}
		}
	})
}

func TestGetOrInsertFunc(t *testing.T) {
	t.Parallel()

	t.Run("it does not invoke the factory when the key is present", func(t *testing.T) {
		t.Parallel()

		ks := setupKeyspace(t)

		if err := ks.Set(t.Context(), "<key>", 5); err != nil {
			t.Fatal(err)
		}

		v, err := GetOrInsertFunc(
			t.Context(),
			ks,
			"<key>",
			func(context.Context) (int, error) {
				t.Fatal("unexpected call to factory function")
				return 0, nil
			},
		)
		if err != nil {
			t.Fatal(err)
		}
		if v != 5 {
			t.Fatalf("unexpected value: got %d, want 5", v)
		}
	})

	t.Run("it invokes the factory exactly once when the key is absent", func(t *testing.T) {
		t.Parallel()

		ks := setupKeyspace(t)

		calls := 0
		v, err := GetOrInsertFunc(
			t.Context(),
			ks,
			"<key>",
			func(context.Context) (int, error) {
				calls++
				return 7, nil
			},
		)
		if err != nil {
			t.Fatal(err)
		}
		if v != 7 {
			t.Fatalf("unexpected value: got %d, want 7", v)
		}
		if calls != 1 {
			t.Fatalf("unexpected number of calls to factory function: got %d, want 1", calls)
		}
	})

	t.Run("it does not insert anything when the factory fails", func(t *testing.T) {
		t.Parallel()

		ks := setupKeyspace(t)

		expect := errors.New("<error>")
		_, err := GetOrInsertFunc(
			t.Context(),
			ks,
			"<key>",
			func(context.Context) (int, error) {
				return 0, expect
			},
		)
		if !errors.Is(err, expect) {
			t.Fatalf("unexpected error: got %q, want %q", err, expect)
		}

		ok, err := ks.Has(t.Context(), "<key>")
		if err != nil {
			t.Fatal(err)
		}
		if ok {
			t.Fatal("unexpected association with key after factory failure")
		}
	})
}

// setupKeyspace returns a typed keyspace backed by a memory store for use in
// a test.
func setupKeyspace(t *testing.T) Keyspace[string, int] {
	t.Helper()

	store := NewMarshalingStore(
		&memorykv.Store{},
		marshaler.String,
		marshaler.NewJSON[int](),
	)

	ks, err := store.Open(t.Context(), "<keyspace>")
	if err != nil {
		t.Fatal(err)
	}

	t.Cleanup(func() {
		if err := ks.Close(); err != nil {
			t.Fatal(err)
		}
	})

	return ks
}
