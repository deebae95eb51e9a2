package service

import "slices"

// addToSet appends v unless already present and reports whether it did
func addToSet[T comparable](set *[]T, v T) bool {
	if slices.Contains(*set, v) {
		return false
	}
	*set = append(*set, v)
	return true
}

// pullFromSet removes every occurrence of v and reports whether any existed
func pullFromSet[T comparable](set *[]T, v T) bool {
	n := len(*set)
	*set = slices.DeleteFunc(*set, func(e T) bool { return e == v })
	return len(*set) != n
}
