package kv_test

import (
	"strings"
	"testing"

	"github.com/dogmatiq/mapkit/driver/memory/memorykv"
	. "github.com/dogmatiq/mapkit/kv"
)

func TestWithNameTransform(t *testing.T) {
	t.Parallel()

	next := &memorykv.Store{}
	store := WithNameTransform[[]byte, []byte](next, strings.ToUpper)

	ks, err := store.Open(t.Context(), "keyspace")
	if err != nil {
		t.Fatal(err)
	}

	t.Run("it reports the untransformed name", func(t *testing.T) {
		if got, want := ks.Name(), "keyspace"; got != want {
			t.Fatalf("unexpected keyspace name: got %q, want %q", got, want)
		}
	})

	t.Run("it stores pairs under the transformed name", func(t *testing.T) {
		if err := ks.Set(t.Context(), []byte("<key>"), []byte("<value>")); err != nil {
			t.Fatal(err)
		}

		raw, err := next.Open(t.Context(), "KEYSPACE")
		if err != nil {
			t.Fatal(err)
		}
		defer raw.Close()

		ok, err := raw.Has(t.Context(), []byte("<key>"))
		if err != nil {
			t.Fatal(err)
		}
		if !ok {
			t.Fatal("expected pair to be stored under the transformed keyspace name")
		}
	})
}
