package memorykv_test

import (
	"testing"

	. "github.com/dogmatiq/mapkit/driver/memory/memorykv"
	"github.com/dogmatiq/mapkit/kv"
)

func TestStore(t *testing.T) {
	kv.RunTests(t, &Store{})
}

func BenchmarkStore(b *testing.B) {
	kv.RunBenchmarks(b, &Store{})
}
