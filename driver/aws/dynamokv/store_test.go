package dynamokv_test

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	. "github.com/dogmatiq/mapkit/driver/aws/dynamokv"
	"github.com/dogmatiq/mapkit/driver/aws/internal/dynamox"
	"github.com/dogmatiq/mapkit/internal/x/xtesting"
	"github.com/dogmatiq/mapkit/kv"
)

func TestStore(t *testing.T) {
	client, table := setup(t)
	kv.RunTests(
		t,
		NewBinaryStore(client, table),
	)
}

func BenchmarkStore(b *testing.B) {
	client, table := setup(b)
	kv.RunBenchmarks(
		b,
		NewBinaryStore(client, table),
	)
}

func setup(t testing.TB) (*dynamodb.Client, string) {
	client := dynamox.NewTestClient(t)
	table := "mapkit"

	t.Cleanup(func() {
		ctx := xtesting.ContextForCleanup(t)
		if err := dynamox.DeleteTableIfExists(ctx, client, table); err != nil {
			t.Error(err)
		}
	})

	return client, table
}
