package cmp

func SliceEq[T comparable](a []T, b []T) bool {
	if len(a) != len(b) {
		return false
	}
	for nth, va := range a {
		if va != b[nth] {
			return false
		}
	}
	return true
}

// Check A ⊇ B in some equivarency.
//
// In other words, when we can select an equivarent element in A for each elements in B,
// it returns true.
func SliceSubsetWith[T any, U any](a []T, b []U, pred func(a T, b U) bool) bool {
	if len(a) < len(b) {
		return false
	}

	used := make([]bool, len(a))

B:
	for _, vb := range b {
		for nth, va := range a {
			if used[nth] {
				continue
			}
			if pred(va, vb) {
				used[nth] = true
				continue B
			}
		}
		return false
	}
	return true
}

// Check A and B have the same content, ignoring ordering.
func SliceContentEqWith[T any, U any](a []T, b []U, pred func(a T, b U) bool) bool {
	return len(a) == len(b) && SliceSubsetWith(a, b, pred)
}

// Check A and B have the same content, ignoring ordering.
func SliceContentEq[T comparable](a []T, b []T) bool {
	return SliceContentEqWith(a, b, func(x, y T) bool { return x == y })
}
