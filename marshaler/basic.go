package marshaler

import (
	"encoding/binary"
	"fmt"
)

var (
	// String marshals and unmarshals the built-in string type by performing a
	// Go type-conversion.
	String = New(
		func(v string) ([]byte, error) {
			return []byte(v), nil
		},
		func(data []byte) (string, error) {
			return string(data), nil
		},
	)

	// Bool marshals and unmarshals the built-in bool type.
	Bool = New(
		func(v bool) ([]byte, error) {
			if v {
				return []byte{1}, nil
			}
			return nil, nil
		},
		func(data []byte) (bool, error) {
			return len(data) > 0, nil
		},
	)

	// Uint64 marshals and unmarshals the built-in uint64 type as a big-endian
	// 8-byte value, preserving numeric order under a lexicographic sort of the
	// marshaled keys.
	Uint64 = New(
		func(v uint64) ([]byte, error) {
			data := make([]byte, 8)
			binary.BigEndian.PutUint64(data, v)
			return data, nil
		},
		func(data []byte) (uint64, error) {
			if len(data) != 8 {
				return 0, fmt.Errorf("expected 8 bytes, got %d", len(data))
			}
			return binary.BigEndian.Uint64(data), nil
		},
	)
)
