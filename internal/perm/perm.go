// Package perm enumerates fixed-weight binary sequences.
package perm

import "fmt"

// Binary returns every sequence of length entries holding exactly ones
// ones, C(length, ones) in total. Sequences with a leading 0 come first.
// It panics when ones > length or either argument is negative.
func Binary(ones, length int) [][]int {
	if ones < 0 || length < 0 {
		panic(fmt.Sprintf("perm: negative argument (ones=%d, length=%d)", ones, length))
	}
	if ones > length {
		panic(fmt.Sprintf("perm: %d ones do not fit in length %d", ones, length))
	}
	if ones == 0 {
		return [][]int{fill(length, 0)}
	}
	if ones == length {
		return [][]int{fill(length, 1)}
	}

	var out [][]int
	for _, rest := range Binary(ones, length-1) {
		out = append(out, append([]int{0}, rest...))
	}
	for _, rest := range Binary(ones-1, length-1) {
		out = append(out, append([]int{1}, rest...))
	}
	return out
}

func fill(n, v int) []int {
	s := make([]int, n)
	for i := range s {
		s[i] = v
	}
	return s
}

// Masks converts Binary's output to boolean masks.
func Masks(ones, length int) [][]bool {
	seqs := Binary(ones, length)
	out := make([][]bool, len(seqs))
	for i, seq := range seqs {
		out[i] = make([]bool, length)
		for j, v := range seq {
			out[i][j] = v == 1
		}
	}
	return out
}
