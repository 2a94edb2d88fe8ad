package table_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	. "github.com/dogmatiq/mapkit/table"
	"pgregory.net/rapid"
)

func TestGetOrInsert(t *testing.T) {
	t.Parallel()

	t.Run("it inserts the fallback value when the key is absent", func(t *testing.T) {
		t.Parallel()

		m := Map[string, int]{}

		if v := GetOrInsert[string, int](m, "x", 1); v != 1 {
			t.Fatalf("unexpected value: got %d, want 1", v)
		}

		if v, ok := m.Get("x"); !ok || v != 1 {
			t.Fatalf("unexpected stored value: got %d (present == %t), want 1", v, ok)
		}
	})

	t.Run("it returns the existing value without overwriting", func(t *testing.T) {
		t.Parallel()

		m := Map[string, int]{}

		if v := GetOrInsert[string, int](m, "x", 1); v != 1 {
			t.Fatalf("unexpected value: got %d, want 1", v)
		}

		// A second call with a different fallback must observe the original
		// association.
		if v := GetOrInsert[string, int](m, "x", 2); v != 1 {
			t.Fatalf("unexpected value: got %d, want 1", v)
		}

		if v, _ := m.Get("x"); v != 1 {
			t.Fatalf("association was overwritten: got %d, want 1", v)
		}
	})

	t.Run("it leaves existing associations intact", func(t *testing.T) {
		t.Parallel()

		m := Map[string, int]{"x": 100}

		if v := GetOrInsert[string, int](m, "x", 200); v != 100 {
			t.Fatalf("unexpected value: got %d, want 100", v)
		}

		expect := Map[string, int]{"x": 100}
		if diff := cmp.Diff(expect, m); diff != "" {
			t.Fatal(diff)
		}
	})

	t.Run("it keeps independent keys independent", func(t *testing.T) {
		t.Parallel()

		m := Map[string, int]{}

		GetOrInsert[string, int](m, "x", 1)
		GetOrInsert[string, int](m, "x", 2)
		GetOrInsert[string, int](m, "y", 3)

		expect := Map[string, int]{"x": 1, "y": 3}
		if diff := cmp.Diff(expect, m); diff != "" {
			t.Fatal(diff)
		}
	})

	t.Run("property-based", func(t *testing.T) {
		t.Parallel()

		rapid.Check(t, func(t *rapid.T) {
			m := Map[string, int]{}
			model := map[string]int{}

			key := rapid.StringN(1, 8, -1)
			value := rapid.IntRange(1, 1000)

			t.Repeat(
				map[string]func(*rapid.T){
					"GetOrInsert": func(t *rapid.T) {
						k := key.Draw(t, "key")
						v := value.Draw(t, "value")

						got := GetOrInsert[string, int](m, k, v)

						if _, ok := model[k]; !ok {
							model[k] = v
						}

						if got != model[k] {
							t.Fatalf(
								"unexpected value for key %q: got %d, want %d",
								k,
								got,
								model[k],
							)
						}

						// The return value must match what the table actually
						// stores.
						if stored, ok := m.Get(k); !ok || stored != got {
							t.Fatalf(
								"return does not match stored value for key %q: returned %d, stored %d (present == %t)",
								k,
								got,
								stored,
								ok,
							)
						}
					},
					"Set": func(t *rapid.T) {
						k := key.Draw(t, "key")
						v := value.Draw(t, "value")

						m.Set(k, v)
						model[k] = v
					},
				},
			)

			if diff := cmp.Diff(model, map[string]int(m)); diff != "" {
				t.Fatal(diff)
			}
		})
	})
}

func TestGetOrInsertFunc(t *testing.T) {
	t.Parallel()

	t.Run("it only invokes the factory on the miss path", func(t *testing.T) {
		t.Parallel()

		m := Map[string, int]{}
		calls := 0

		fn := func() int {
			calls++
			return 1
		}

		if v := GetOrInsertFunc[string, int](m, "x", fn); v != 1 {
			t.Fatalf("unexpected value: got %d, want 1", v)
		}

		if v := GetOrInsertFunc[string, int](m, "x", fn); v != 1 {
			t.Fatalf("unexpected value: got %d, want 1", v)
		}

		if calls != 1 {
			t.Fatalf("unexpected number of factory invocations: got %d, want 1", calls)
		}
	})
}
