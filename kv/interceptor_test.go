package kv_test

import (
	"errors"
	"testing"

	"github.com/dogmatiq/mapkit/driver/memory/memorykv"
	. "github.com/dogmatiq/mapkit/kv"
)

func TestWithInterceptor(t *testing.T) {
	t.Parallel()

	t.Run("it returns the store unmodified when the interceptor is nil", func(t *testing.T) {
		t.Parallel()

		next := &memorykv.Store{}
		if store := WithInterceptor[[]byte, []byte](next, nil); store != BinaryStore(next) {
			t.Fatal("expected the original store to be returned")
		}
	})

	t.Run("it invokes the before-open hook", func(t *testing.T) {
		t.Parallel()

		var in Interceptor[[]byte, []byte]
		store := WithInterceptor[[]byte, []byte](&memorykv.Store{}, &in)

		var opened []string
		in.BeforeOpen(func(name string) error {
			opened = append(opened, name)
			return nil
		})

		if _, err := store.Open(t.Context(), "<keyspace>"); err != nil {
			t.Fatal(err)
		}

		if len(opened) != 1 || opened[0] != "<keyspace>" {
			t.Fatalf("unexpected open hook invocations: %v", opened)
		}
	})

	t.Run("it invokes the mutation hooks around both kinds of set", func(t *testing.T) {
		t.Parallel()

		var in Interceptor[[]byte, []byte]
		store := WithInterceptor[[]byte, []byte](&memorykv.Store{}, &in)

		ks, err := store.Open(t.Context(), "<keyspace>")
		if err != nil {
			t.Fatal(err)
		}

		var before, after int
		in.BeforeSet(func(string, []byte, []byte) error {
			before++
			return nil
		})
		in.AfterSet(func(string, []byte, []byte) error {
			after++
			return nil
		})

		if err := ks.Set(t.Context(), []byte("<key>"), []byte("<value>")); err != nil {
			t.Fatal(err)
		}
		if err := ks.SetIfAbsent(t.Context(), []byte("<key>"), []byte("<other>")); err != nil {
			t.Fatal(err)
		}

		if before != 2 || after != 2 {
			t.Fatalf(
				"unexpected mutation hook invocations: got %d before, %d after, want 2 of each",
				before,
				after,
			)
		}
	})

	t.Run("it prevents the mutation when the before-set hook fails", func(t *testing.T) {
		t.Parallel()

		var in Interceptor[[]byte, []byte]
		store := WithInterceptor[[]byte, []byte](&memorykv.Store{}, &in)

		ks, err := store.Open(t.Context(), "<keyspace>")
		if err != nil {
			t.Fatal(err)
		}

		expect := errors.New("<error>")
		in.BeforeSet(func(string, []byte, []byte) error {
			return expect
		})

		if err := ks.Set(t.Context(), []byte("<key>"), []byte("<value>")); !errors.Is(err, expect) {
			t.Fatalf("unexpected error: got %q, want %q", err, expect)
		}

		ok, err := ks.Has(t.Context(), []byte("<key>"))
		if err != nil {
			t.Fatal(err)
		}
		if ok {
			t.Fatal("unexpected association with key after hook failure")
		}
	})
}
