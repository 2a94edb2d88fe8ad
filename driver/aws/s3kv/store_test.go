package s3kv_test

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	. "github.com/dogmatiq/mapkit/driver/aws/s3kv"
	"github.com/dogmatiq/mapkit/driver/aws/internal/s3x"
	"github.com/dogmatiq/mapkit/internal/x/xtesting"
	"github.com/dogmatiq/mapkit/kv"
)

func TestStore(t *testing.T) {
	client, bucket := setup(t)
	kv.RunTests(
		t,
		NewBinaryStore(client, bucket),
	)
}

func BenchmarkStore(b *testing.B) {
	client, bucket := setup(b)
	kv.RunBenchmarks(
		b,
		NewBinaryStore(client, bucket),
	)
}

func setup(t testing.TB) (*s3.Client, string) {
	client := s3x.NewTestClient(t)
	bucket := "mapkit"

	t.Cleanup(func() {
		ctx := xtesting.ContextForCleanup(t)
		if err := s3x.DeleteBucketIfExists(ctx, client, bucket, nil); err != nil {
			t.Error(err)
		}
	})

	return client, bucket
}
