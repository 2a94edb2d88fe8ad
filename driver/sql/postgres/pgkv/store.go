// Package pgkv provides an implementation of [kv.BinaryStore] that persists
// to a PostgreSQL database.
package pgkv

import (
	"context"
	"database/sql"

	"github.com/dogmatiq/mapkit/internal/x/xsync"
	"github.com/dogmatiq/mapkit/kv"
)

// Store is an implementation of [kv.BinaryStore] that stores keyspaces in a
// PostgreSQL database.
type Store struct {
	// DB is the database connection. It must use a pgx-based driver.
	DB *sql.DB

	createSchemaOnce xsync.SucceedOnce
}

// Open returns the keyspace with the given name.
func (s *Store) Open(ctx context.Context, name string) (kv.BinaryKeyspace, error) {
	if err := s.createSchemaOnce.Do(ctx, s.createSchema); err != nil {
		return nil, err
	}

	return &keyspace{
		db:   s.DB,
		name: name,
	}, nil
}

func (s *Store) createSchema(ctx context.Context) error {
	return CreateSchema(ctx, s.DB)
}
