package grading

import (
	"strings"
	"unicode/utf8"
)

// Score tiers for free-text matching. Fuzzy matches are scaled by
// fuzzyWeight so they always rank below containment matches.
const (
	scoreExact          = 1.0
	scoreAnswerHasRef   = 0.9
	scoreRefHasAnswer   = 0.8
	fuzzyThreshold      = 0.7
	fuzzyWeight         = 0.8
	freeTextCorrectness = 0.8
)

// normalize trims surrounding whitespace and casefolds unless caseSensitive.
func normalize(s string, caseSensitive bool) string {
	s = strings.TrimSpace(s)
	if !caseSensitive {
		s = strings.ToLower(s)
	}
	return s
}

// MatchText scores answer against the acceptable references and returns the
// best score in [0,1]. Empty answers and empty reference lists score 0.
func MatchText(answer string, references []string, caseSensitive bool) float64 {
	ans := normalize(answer, caseSensitive)
	if ans == "" || len(references) == 0 {
		return 0
	}
	best := 0.0
	for _, ref := range references {
		nr := normalize(ref, caseSensitive)
		if nr == "" {
			continue
		}
		if ans == nr {
			return scoreExact
		}
		candidate := 0.0
		switch {
		case strings.Contains(ans, nr):
			candidate = scoreAnswerHasRef
		case strings.Contains(nr, ans):
			candidate = scoreRefHasAnswer
		default:
			if sim := Similarity(ans, nr); sim > fuzzyThreshold {
				candidate = sim * fuzzyWeight
			}
		}
		if candidate > best {
			best = candidate
		}
	}
	return best
}

// Similarity is 1 - levenshtein(a, b) / max(len(a), len(b)), measured in
// runes. Two empty strings are identical.
func Similarity(a, b string) float64 {
	longest := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > longest {
		longest = n
	}
	if longest == 0 {
		return 1
	}
	return 1 - float64(levenshtein(a, b))/float64(longest)
}

// levenshtein computes edit distance (insertion, deletion, substitution cost 1).
func levenshtein(a, b string) int {
	ar := []rune(a)
	br := []rune(b)
	n, m := len(ar), len(br)
	if n == 0 {
		return m
	}
	if m == 0 {
		return n
	}
	dp := make([]int, m+1)
	for j := 0; j <= m; j++ {
		dp[j] = j
	}
	for i := 1; i <= n; i++ {
		prev := dp[0]
		dp[0] = i
		for j := 1; j <= m; j++ {
			tmp := dp[j]
			cost := 0
			if ar[i-1] != br[j-1] {
				cost = 1
			}
			dp[j] = min3(dp[j]+1, dp[j-1]+1, prev+cost)
			prev = tmp
		}
	}
	return dp[m]
}

func min3(a, b, c int) int {
	if a < b {
		if a < c {
			return a
		}
		return c
	}
	if b < c {
		return b
	}
	return c
}
