// Copyright (c) 2026 Academia. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package slice compliments the standard [slices] package by providing functional
programming utilities leveraging generics.
*/
package slice

// Map maps a slice of type T to a slice of type U using the provided transformation function.
// The result is never nil, so it encodes as a JSON array even for nil input.
func Map[T any, U any](input []T, transform func(T) U) []U {
	result := make([]U, len(input))
	for i, v := range input {
		result[i] = transform(v)
	}

	return result
}

// FirstDuplicate returns the first key produced more than once by keyOf,
// ignoring zero keys. ok is false when every non-zero key is unique.
func FirstDuplicate[T any, K comparable](input []T, keyOf func(T) K) (dup K, index int, ok bool) {
	var zero K
	seen := make(map[K]struct{}, len(input))
	for i, v := range input {
		key := keyOf(v)
		if key == zero {
			continue
		}
		if _, exists := seen[key]; exists {
			return key, i, true
		}
		seen[key] = struct{}{}
	}
	return zero, -1, false
}
