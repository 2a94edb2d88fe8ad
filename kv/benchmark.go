package kv

import (
	"context"
	"crypto/rand"
	"io"
	"testing"

	"github.com/dogmatiq/mapkit/internal/x/xtesting"
)

// RunBenchmarks runs benchmarks against a [BinaryStore] implementation.
func RunBenchmarks(
	b *testing.B,
	store BinaryStore,
) {
	b.Run("Store", func(b *testing.B) {
		b.Run("Open", func(b *testing.B) {
			b.Run("existing keyspace", func(b *testing.B) {
				var (
					name string
					ks   BinaryKeyspace
				)

				xtesting.Benchmark(
					b,
					// SETUP
					func(ctx context.Context) error {
						name = xtesting.SequentialName("keyspace")

						// pre-create the keyspace
						ks, err := store.Open(ctx, name)
						if err != nil {
							return err
						}
						return ks.Close()
					},
					// BEFORE EACH
					nil,
					// BENCHMARKED CODE
					func(ctx context.Context) (err error) {
						ks, err = store.Open(ctx, name)
						return err
					},
					// AFTER EACH
					func(context.Context) error {
						return ks.Close()
					},
				)
			})

			b.Run("new keyspace", func(b *testing.B) {
				var (
					name string
					ks   BinaryKeyspace
				)

				xtesting.Benchmark(
					b,
					// SETUP
					nil,
					// BEFORE EACH
					func(context.Context) error {
						name = xtesting.SequentialName("keyspace")
						return nil
					},
					// BENCHMARKED CODE
					func(ctx context.Context) (err error) {
						ks, err = store.Open(ctx, name)
						return err
					},
					// AFTER EACH
					func(context.Context) error {
						return ks.Close()
					},
				)
			})
		})
	})

	b.Run("Keyspace", func(b *testing.B) {
		b.Run("Get", func(b *testing.B) {
			b.Run("non-existent key", func(b *testing.B) {
				var key [32]byte

				benchmarkKeyspace(
					b,
					store,
					// SETUP
					nil,
					// BEFORE EACH
					func(context.Context, BinaryKeyspace) error {
						_, err := io.ReadFull(rand.Reader, key[:])
						return err
					},
					// BENCHMARKED CODE
					func(ctx context.Context, ks BinaryKeyspace) error {
						_, err := ks.Get(ctx, key[:])
						return err
					},
					// AFTER EACH
					nil,
				)
			})

			b.Run("existing key", func(b *testing.B) {
				var key [32]byte

				benchmarkKeyspace(
					b,
					store,
					// SETUP
					nil,
					// BEFORE EACH
					func(ctx context.Context, ks BinaryKeyspace) error {
						if _, err := io.ReadFull(rand.Reader, key[:]); err != nil {
							return err
						}
						return ks.Set(ctx, key[:], []byte("<value>"))
					},
					// BENCHMARKED CODE
					func(ctx context.Context, ks BinaryKeyspace) error {
						_, err := ks.Get(ctx, key[:])
						return err
					},
					// AFTER EACH
					nil,
				)
			})
		})

		b.Run("Set", func(b *testing.B) {
			var key [32]byte

			benchmarkKeyspace(
				b,
				store,
				// SETUP
				nil,
				// BEFORE EACH
				func(context.Context, BinaryKeyspace) error {
					_, err := io.ReadFull(rand.Reader, key[:])
					return err
				},
				// BENCHMARKED CODE
				func(ctx context.Context, ks BinaryKeyspace) error {
					return ks.Set(ctx, key[:], []byte("<value>"))
				},
				// AFTER EACH
				nil,
			)
		})

		b.Run("SetIfAbsent", func(b *testing.B) {
			b.Run("absent key", func(b *testing.B) {
				var key [32]byte

				benchmarkKeyspace(
					b,
					store,
					// SETUP
					nil,
					// BEFORE EACH
					func(context.Context, BinaryKeyspace) error {
						_, err := io.ReadFull(rand.Reader, key[:])
						return err
					},
					// BENCHMARKED CODE
					func(ctx context.Context, ks BinaryKeyspace) error {
						return ks.SetIfAbsent(ctx, key[:], []byte("<value>"))
					},
					// AFTER EACH
					nil,
				)
			})

			b.Run("present key", func(b *testing.B) {
				var key [32]byte

				benchmarkKeyspace(
					b,
					store,
					// SETUP
					nil,
					// BEFORE EACH
					func(ctx context.Context, ks BinaryKeyspace) error {
						if _, err := io.ReadFull(rand.Reader, key[:]); err != nil {
							return err
						}
						return ks.Set(ctx, key[:], []byte("<value>"))
					},
					// BENCHMARKED CODE
					func(ctx context.Context, ks BinaryKeyspace) error {
						return ks.SetIfAbsent(ctx, key[:], []byte("<other>"))
					},
					// AFTER EACH
					nil,
				)
			})
		})

		b.Run("GetOrInsert", func(b *testing.B) {
			b.Run("miss path", func(b *testing.B) {
				var key [32]byte

				benchmarkKeyspace(
					b,
					store,
					// SETUP
					nil,
					// BEFORE EACH
					func(context.Context, BinaryKeyspace) error {
						_, err := io.ReadFull(rand.Reader, key[:])
						return err
					},
					// BENCHMARKED CODE
					func(ctx context.Context, ks BinaryKeyspace) error {
						_, err := GetOrInsert(ctx, ks, key[:], []byte("<value>"))
						return err
					},
					// AFTER EACH
					nil,
				)
			})

			b.Run("hit path", func(b *testing.B) {
				var key [32]byte

				benchmarkKeyspace(
					b,
					store,
					// SETUP
					func(ctx context.Context, ks BinaryKeyspace) error {
						if _, err := io.ReadFull(rand.Reader, key[:]); err != nil {
							return err
						}
						return ks.Set(ctx, key[:], []byte("<value>"))
					},
					// BEFORE EACH
					nil,
					// BENCHMARKED CODE
					func(ctx context.Context, ks BinaryKeyspace) error {
						_, err := GetOrInsert(ctx, ks, key[:], []byte("<other>"))
						return err
					},
					// AFTER EACH
					nil,
				)
			})
		})
	})
}

// benchmarkKeyspace benchmarks an operation on a keyspace that is opened once
// before the first iteration.
func benchmarkKeyspace(
	b *testing.B,
	store BinaryStore,
	setup func(context.Context, BinaryKeyspace) error,
	pre func(context.Context, BinaryKeyspace) error,
	fn func(context.Context, BinaryKeyspace) error,
	post func(context.Context, BinaryKeyspace) error,
) {
	var ks BinaryKeyspace

	adapt := func(x func(context.Context, BinaryKeyspace) error) func(context.Context) error {
		if x == nil {
			return nil
		}
		return func(ctx context.Context) error {
			return x(ctx, ks)
		}
	}

	xtesting.Benchmark(
		b,
		func(ctx context.Context) error {
			var err error
			ks, err = store.Open(ctx, xtesting.SequentialName("keyspace"))
			if err != nil {
				return err
			}

			b.Cleanup(func() {
				if err := ks.Close(); err != nil {
					b.Error(err)
				}
			})

			if setup != nil {
				return setup(ctx, ks)
			}

			return nil
		},
		adapt(pre),
		adapt(fn),
		adapt(post),
	)
}
