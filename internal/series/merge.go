// Package series merges date-keyed observations fetched in chunks.
package series

import "sort"

// Order selects the direction of a merged series.
type Order int

const (
	Ascending Order = iota
	Descending
)

// Merge concatenates chunks in the order given, drops any element whose key
// was already seen, then stable-sorts the result by less (reversed when order
// is Descending). The first chunk to supply a key wins, so callers control
// precedence by chunk order.
func Merge[T any, K comparable](chunks [][]T, key func(T) K, less func(a, b T) bool, order Order) []T {
	size := 0
	for _, c := range chunks {
		size += len(c)
	}

	seen := make(map[K]struct{}, size)
	out := make([]T, 0, size)
	for _, chunk := range chunks {
		for _, item := range chunk {
			k := key(item)
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			out = append(out, item)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if order == Descending {
			return less(out[j], out[i])
		}
		return less(out[i], out[j])
	})
	return out
}

// Tail returns the last n elements of items, or all of them when n is
// non-positive or exceeds the length.
func Tail[T any](items []T, n int) []T {
	if n <= 0 || n >= len(items) {
		return items
	}
	return items[len(items)-n:]
}
