package utils

// convert slice to slice in other type.
//
// # Args
//
// - sli: source slice
//
// - mapper: function converting each element
//
// # Returns
//
// new slice which contains converted elements. Ordering is kept.
func Map[T any, R any](sli []T, mapper func(v T) R) []R {
	mapped := make([]R, len(sli))
	for i, v := range sli {
		mapped[i] = mapper(v)
	}
	return mapped
}

// get keys of map.
//
// Ordering of keys is not stable.
func KeysOf[T any, K comparable](m map[K]T) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}
