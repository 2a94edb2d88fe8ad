package table

// Map is a [Table] backed by a built-in map.
//
// The zero-value is a valid read-only table; it must be initialized with
// make() or a map literal before any call to Set.
type Map[K comparable, V any] map[K]V

// Get returns the value associated with k.
func (m Map[K, V]) Get(k K) (V, bool) {
	v, ok := m[k]
	return v, ok
}

// Set associates v with k, overwriting any existing association.
func (m Map[K, V]) Set(k K, v V) {
	m[k] = v
}
