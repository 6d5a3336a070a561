// Package mapst holds small generic map helpers shared by tooling.
package mapst

// Keys returns the keys of m in map iteration order.
func Keys[K comparable, V any, M ~map[K]V](m M) []K {
	if len(m) == 0 {
		return nil
	}
	result := make([]K, 0, len(m))
	for k := range m {
		result = append(result, k)
	}
	return result
}

// Filter returns a new map holding the entries of m for which fn reports true.
func Filter[K comparable, V any, M ~map[K]V](m M, fn func(K, V) bool) M {
	result := make(M, len(m))
	for k, v := range m {
		if fn(k, v) {
			result[k] = v
		}
	}
	return result
}
