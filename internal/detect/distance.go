package detect

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Levenshtein returns the unit-cost edit distance between a and b, by rune.
// Two rolling rows keep memory at O(len(b)).
func Levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}

	return prev[len(rb)]
}

// ShannonEntropy returns -Σ p(c)·log2(p(c)) over the rune frequencies of s
func ShannonEntropy(s string) float64 {
	if s == "" {
		return 0
	}

	counts := make(map[rune]int)
	total := 0
	for _, r := range s {
		counts[r]++
		total++
	}

	p := make([]float64, 0, len(counts))
	for _, n := range counts {
		p = append(p, float64(n)/float64(total))
	}

	// stat.Entropy uses the natural logarithm
	return stat.Entropy(p) / math.Ln2
}
