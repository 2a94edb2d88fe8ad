package table_test

import (
	"sync"
	"testing"

	. "github.com/dogmatiq/mapkit/table"
)

func TestSync(t *testing.T) {
	t.Parallel()

	t.Run("GetOrInsert", func(t *testing.T) {
		t.Parallel()

		t.Run("it inserts the fallback value when the key is absent", func(t *testing.T) {
			t.Parallel()

			var tab Sync[string, int]

			if v := tab.GetOrInsert("x", 1); v != 1 {
				t.Fatalf("unexpected value: got %d, want 1", v)
			}

			if v := tab.GetOrInsert("x", 2); v != 1 {
				t.Fatalf("unexpected value: got %d, want 1", v)
			}

			if v, ok := tab.Get("x"); !ok || v != 1 {
				t.Fatalf("unexpected stored value: got %d (present == %t), want 1", v, ok)
			}
		})

		t.Run("it preserves the at-most-one-entry invariant under contention", func(t *testing.T) {
			t.Parallel()

			var tab Sync[string, int]

			const goroutines = 32
			results := make([]int, goroutines)

			var g sync.WaitGroup
			for i := range goroutines {
				g.Add(1)
				go func() {
					defer g.Done()
					// Each goroutine attempts to install a distinct value.
					results[i] = tab.GetOrInsert("x", i+1)
				}()
			}
			g.Wait()

			stored, ok := tab.Get("x")
			if !ok {
				t.Fatal("expected key to be present")
			}

			// Every caller must have observed the single winning value.
			for i, v := range results {
				if v != stored {
					t.Fatalf(
						"goroutine %d observed %d, want %d",
						i,
						v,
						stored,
					)
				}
			}
		})
	})

	t.Run("GetOrInsertFunc", func(t *testing.T) {
		t.Parallel()

		t.Run("it does not invoke the factory on the hit path", func(t *testing.T) {
			t.Parallel()

			var tab Sync[string, int]
			tab.Set("x", 1)

			v := tab.GetOrInsertFunc("x", func() int {
				t.Fatal("factory was invoked unexpectedly")
				return 0
			})

			if v != 1 {
				t.Fatalf("unexpected value: got %d, want 1", v)
			}
		})
	})

	t.Run("it dispatches via the generic free functions", func(t *testing.T) {
		t.Parallel()

		// Passed through the Table interface, the free function must use the
		// table's atomic operation rather than its own check-then-act steps.
		var tab Sync[string, int]

		if v := GetOrInsert[string, int](&tab, "x", 1); v != 1 {
			t.Fatalf("unexpected value: got %d, want 1", v)
		}

		if v := GetOrInsertFunc[string, int](&tab, "x", func() int { return 2 }); v != 1 {
			t.Fatalf("unexpected value: got %d, want 1", v)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		t.Parallel()

		var tab Sync[string, int]
		tab.Set("x", 1)
		tab.Delete("x")

		if _, ok := tab.Get("x"); ok {
			t.Fatal("expected key to be absent")
		}
	})

	t.Run("Range", func(t *testing.T) {
		t.Parallel()

		var tab Sync[string, int]
		tab.Set("x", 1)
		tab.Set("y", 2)

		actual := map[string]int{}
		tab.Range(func(k string, v int) bool {
			actual[k] = v
			return true
		})

		if len(actual) != 2 || actual["x"] != 1 || actual["y"] != 2 {
			t.Fatalf("unexpected entries: %v", actual)
		}
	})
}
