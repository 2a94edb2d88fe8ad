package pgkv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dogmatiq/mapkit/kv"
)

type keyspace struct {
	db   *sql.DB
	name string
}

func (ks *keyspace) Name() string {
	return ks.name
}

func (ks *keyspace) Get(ctx context.Context, k []byte) ([]byte, error) {
	row := ks.db.QueryRowContext(
		ctx,
		`SELECT value
		FROM mapkit.kv
		WHERE keyspace = $1
		AND key = $2`,
		ks.name,
		k,
	)

	var v []byte
	if err := row.Scan(&v); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("cannot scan key/value pair: %w", err)
	}

	return v, nil
}

func (ks *keyspace) Has(ctx context.Context, k []byte) (bool, error) {
	row := ks.db.QueryRowContext(
		ctx,
		`SELECT COUNT(key) != 0
		FROM mapkit.kv
		WHERE keyspace = $1
		AND key = $2`,
		ks.name,
		k,
	)

	var exists bool
	if err := row.Scan(&exists); err != nil {
		return false, fmt.Errorf("cannot scan key/value pair: %w", err)
	}

	return exists, nil
}

func (ks *keyspace) Set(ctx context.Context, k, v []byte) error {
	if len(v) == 0 {
		_, err := ks.db.ExecContext(
			ctx,
			`DELETE FROM mapkit.kv
			WHERE keyspace = $1
			AND key = $2`,
			ks.name,
			k,
		)
		return err
	}

	_, err := ks.db.ExecContext(
		ctx,
		`INSERT INTO mapkit.kv (
			keyspace,
			key,
			value
		) VALUES (
			$1, $2, $3
		) ON CONFLICT (keyspace, key) DO UPDATE SET
			value = excluded.value`,
		ks.name,
		k,
		v,
	)

	return err
}

func (ks *keyspace) SetIfAbsent(ctx context.Context, k, v []byte) error {
	if len(v) == 0 {
		return nil
	}

	// ON CONFLICT DO NOTHING makes the presence check and the insert a single
	// atomic statement. An existing pair is the expected path, not an error.
	_, err := ks.db.ExecContext(
		ctx,
		`INSERT INTO mapkit.kv (
			keyspace,
			key,
			value
		) VALUES (
			$1, $2, $3
		) ON CONFLICT (keyspace, key) DO NOTHING`,
		ks.name,
		k,
		v,
	)

	return err
}

func (ks *keyspace) Range(
	ctx context.Context,
	fn kv.BinaryRangeFunc,
) error {
	rows, err := ks.db.QueryContext(
		ctx,
		`SELECT key, value
		FROM mapkit.kv
		WHERE keyspace = $1`,
		ks.name,
	)
	if err != nil {
		return fmt.Errorf("cannot query key/value pairs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var k, v []byte
		if err := rows.Scan(&k, &v); err != nil {
			return fmt.Errorf("cannot scan key/value pair: %w", err)
		}

		ok, err := fn(ctx, k, v)
		if !ok || err != nil {
			return err
		}
	}

	return rows.Err()
}

func (ks *keyspace) Close() error {
	return nil
}
