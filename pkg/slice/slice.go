// Copyright (c) 2026 Rentwise. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package slice holds generic helpers missing from the standard [slices] package.
package slice

// Map returns transform applied to every element of input. A nil input
// yields an empty, non-nil slice so JSON encodes it as [].
func Map[T, U any](input []T, transform func(T) U) []U {
	result := make([]U, 0, len(input))
	for _, v := range input {
		result = append(result, transform(v))
	}
	return result
}
