package table

import (
	"runtime"
	"testing"
	"time"
)

func TestWeak(t *testing.T) {
	t.Run("it behaves as a table while its keys remain reachable", func(t *testing.T) {
		var tab Weak[string, int]

		k := new(string)
		*k = "x"

		if _, ok := tab.Get(k); ok {
			t.Fatal("expected key to be absent")
		}

		if v := tab.GetOrInsert(k, 1); v != 1 {
			t.Fatalf("unexpected value: got %d, want 1", v)
		}

		if v := tab.GetOrInsert(k, 2); v != 1 {
			t.Fatalf("unexpected value: got %d, want 1", v)
		}

		if v, ok := tab.Get(k); !ok || v != 1 {
			t.Fatalf("unexpected stored value: got %d (present == %t), want 1", v, ok)
		}

		tab.Set(k, 3)

		if v, ok := tab.Get(k); !ok || v != 3 {
			t.Fatalf("unexpected stored value: got %d (present == %t), want 3", v, ok)
		}

		runtime.KeepAlive(k)
	})

	t.Run("it distinguishes distinct keys with equal contents", func(t *testing.T) {
		var tab Weak[string, int]

		k1 := new(string)
		k2 := new(string)

		tab.Set(k1, 1)

		if _, ok := tab.Get(k2); ok {
			t.Fatal("expected second key to be absent")
		}

		runtime.KeepAlive(k1)
		runtime.KeepAlive(k2)
	})

	t.Run("it only invokes the factory on the miss path", func(t *testing.T) {
		var tab Weak[string, int]

		k := new(string)
		tab.Set(k, 1)

		v := tab.GetOrInsertFunc(k, func() int {
			t.Fatal("factory was invoked unexpectedly")
			return 0
		})

		if v != 1 {
			t.Fatalf("unexpected value: got %d, want 1", v)
		}

		runtime.KeepAlive(k)
	})

	t.Run("it reclaims entries once their keys are unreachable", func(t *testing.T) {
		var tab Weak[int, string]

		populate := func() {
			for i := range 10 {
				k := new(int)
				*k = i
				tab.Set(k, "<value>")
			}
		}
		populate()

		// Reclamation happens asynchronously after the keys are collected, so
		// poll until the cleanups have run.
		deadline := time.Now().Add(10 * time.Second)
		for {
			runtime.GC()

			tab.m.Lock()
			n := len(tab.entries)
			tab.m.Unlock()

			if n == 0 {
				break
			}

			if time.Now().After(deadline) {
				t.Fatalf("%d entries were not reclaimed", n)
			}

			time.Sleep(10 * time.Millisecond)
		}
	})
}
