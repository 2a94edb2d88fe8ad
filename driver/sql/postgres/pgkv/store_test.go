package pgkv_test

import (
	"testing"

	. "github.com/dogmatiq/mapkit/driver/sql/postgres/pgkv"
	"github.com/dogmatiq/mapkit/driver/sql/postgres/internal/pgtest"
	"github.com/dogmatiq/mapkit/kv"
)

func TestStore(t *testing.T) {
	db := pgtest.Setup(t)
	kv.RunTests(
		t,
		&Store{DB: db},
	)
}

func BenchmarkStore(b *testing.B) {
	db := pgtest.Setup(b)
	kv.RunBenchmarks(
		b,
		&Store{DB: db},
	)
}
