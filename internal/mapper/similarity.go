package mapper

import "strings"

// Similarity computes the Ratcliff/Obershelp ratio between two strings,
// case-insensitively: twice the number of matching characters divided by
// the total number of characters. This reproduces the matching behavior the
// name-similarity threshold was tuned against.
func Similarity(a, b string) float64 {
	ar := []rune(strings.ToLower(a))
	br := []rune(strings.ToLower(b))
	total := len(ar) + len(br)
	if total == 0 {
		return 1
	}
	return 2 * float64(matchingChars(ar, br)) / float64(total)
}

// matchingChars finds the longest common substring, then recurses on the
// pieces to its left and right.
func matchingChars(a, b []rune) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	ai, bi, size := longestCommonBlock(a, b)
	if size == 0 {
		return 0
	}
	return size +
		matchingChars(a[:ai], b[:bi]) +
		matchingChars(a[ai+size:], b[bi+size:])
}

func longestCommonBlock(a, b []rune) (ai, bi, size int) {
	// lengths[j] holds the common-suffix length ending at a[i-1], b[j-1].
	lengths := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		prev := 0
		for j := 1; j <= len(b); j++ {
			cur := lengths[j]
			if a[i-1] == b[j-1] {
				lengths[j] = prev + 1
				if lengths[j] > size {
					size = lengths[j]
					ai = i - size
					bi = j - size
				}
			} else {
				lengths[j] = 0
			}
			prev = cur
		}
	}
	return ai, bi, size
}
