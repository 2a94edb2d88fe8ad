package kv_test

import (
	"context"
	"testing"

	"github.com/dogmatiq/mapkit/driver/memory/memorykv"
	. "github.com/dogmatiq/mapkit/kv"
	"github.com/dogmatiq/mapkit/marshaler"
	"github.com/google/go-cmp/cmp"
)

type stats struct {
	Hits   int `json:"hits"`
	Misses int `json:"misses"`
}

func TestMarshalingStore(t *testing.T) {
	t.Parallel()

	setup := func(t *testing.T) Keyspace[string, stats] {
		t.Helper()

		store := NewMarshalingStore(
			&memorykv.Store{},
			marshaler.String,
			marshaler.NewJSON[stats](),
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

	t.Run("it round-trips key/value pairs", func(t *testing.T) {
		t.Parallel()

		ks := setup(t)

		want := stats{Hits: 3, Misses: 1}
		if err := ks.Set(t.Context(), "<key>", want); err != nil {
			t.Fatal(err)
		}

		got, err := ks.Get(t.Context(), "<key>")
		if err != nil {
			t.Fatal(err)
		}

		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatal(diff)
		}
	})

	t.Run("it returns the zero-value for an absent key", func(t *testing.T) {
		t.Parallel()

		ks := setup(t)

		got, err := ks.Get(t.Context(), "<key>")
		if err != nil {
			t.Fatal(err)
		}

		if diff := cmp.Diff(stats{}, got); diff != "" {
			t.Fatal(diff)
		}
	})

	t.Run("it deletes the pair when set to the zero-value", func(t *testing.T) {
		t.Parallel()

		ks := setup(t)

		if err := ks.Set(t.Context(), "<key>", stats{Hits: 1}); err != nil {
			t.Fatal(err)
		}

		if err := ks.Set(t.Context(), "<key>", stats{}); err != nil {
			t.Fatal(err)
		}

		ok, err := ks.Has(t.Context(), "<key>")
		if err != nil {
			t.Fatal(err)
		}
		if ok {
			t.Fatal("unexpected association with key after deletion")
		}
	})

	t.Run("it does not insert the zero-value conditionally", func(t *testing.T) {
		t.Parallel()

		ks := setup(t)

		if err := ks.SetIfAbsent(t.Context(), "<key>", stats{}); err != nil {
			t.Fatal(err)
		}

		ok, err := ks.Has(t.Context(), "<key>")
		if err != nil {
			t.Fatal(err)
		}
		if ok {
			t.Fatal("unexpected association with key after zero-value insert")
		}
	})

	t.Run("it ranges over typed pairs", func(t *testing.T) {
		t.Parallel()

		ks := setup(t)

		want := map[string]stats{
			"a": {Hits: 1},
			"b": {Hits: 2, Misses: 5},
		}

		for k, v := range want {
			if err := ks.Set(t.Context(), k, v); err != nil {
				t.Fatal(err)
			}
		}

		got := map[string]stats{}
		if err := ks.Range(
			t.Context(),
			func(_ context.Context, k string, v stats) (bool, error) {
				got[k] = v
				return true, nil
			},
		); err != nil {
			t.Fatal(err)
		}

		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatal(diff)
		}
	})
}
