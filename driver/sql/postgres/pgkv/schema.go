package pgkv

import (
	"context"
	"database/sql"

	"github.com/dogmatiq/mapkit/driver/sql/postgres/internal/pgerror"
)

// CreateSchema creates the PostgreSQL schema elements required by [Store].
func CreateSchema(
	ctx context.Context,
	db *sql.DB,
) error {
	return pgerror.Retry(
		ctx,
		db,
		func(tx *sql.Tx) error {
			if _, err := tx.ExecContext(
				ctx,
				`CREATE SCHEMA IF NOT EXISTS mapkit`,
			); err != nil {
				return err
			}

			if _, err := tx.ExecContext(
				ctx,
				`CREATE TABLE IF NOT EXISTS mapkit.kv (
					keyspace TEXT NOT NULL,
					key      BYTEA NOT NULL,
					value    BYTEA NOT NULL,

					PRIMARY KEY (keyspace, key)
				)`,
			); err != nil {
				return err
			}

			return nil
		},
		// Even though we use IF NOT EXISTS in the DDL, we still need to handle
		// conflicts due to a data race bug in PostgreSQL.
		pgerror.CodeUniqueViolation,
	)
}
