package utils

// SliceToSet converts a slice of any comparable type to a set represented by a map[T]struct{}.
func SliceToSet[T comparable](slice []T) map[T]struct{} {
	set := make(map[T]struct{}, len(slice))
	for _, item := range slice {
		set[item] = struct{}{}
	}
	return set
}

// LastN returns a copy of the final n elements of slice, keeping their order.
// A non-positive n yields an empty slice.
func LastN[T any](slice []T, n int) []T {
	if n <= 0 {
		return []T{}
	}
	if len(slice) > n {
		slice = slice[len(slice)-n:]
	}
	out := make([]T, len(slice))
	copy(out, slice)
	return out
}
