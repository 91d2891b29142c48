package search

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/gcbaptista/go-dictionary-lookup/model"
)

// candidate is a matched entry waiting to be ordered
type candidate struct {
	entry     model.Entry
	rank      int
	wordLen   int    // in runes
	lowerWord string
}

func newCandidate(e model.Entry, lowerWord string, rank int) candidate {
	return candidate{
		entry:     e,
		rank:      rank,
		wordLen:   utf8.RuneCountInString(e.Word),
		lowerWord: lowerWord,
	}
}

// linearRank classifies a match found by the full scan, lower is better:
// 0 exact word, 1 word prefix, 2 word contains, 3 exact translation,
// 4 translation prefix, 5 anything else the predicate accepted.
func linearRank(lowerWord, lowerTranslation, lowerQuery string) int {
	switch {
	case lowerWord == lowerQuery:
		return 0
	case strings.HasPrefix(lowerWord, lowerQuery):
		return 1
	case strings.Contains(lowerWord, lowerQuery):
		return 2
	case lowerTranslation == lowerQuery:
		return 3
	case strings.HasPrefix(lowerTranslation, lowerQuery):
		return 4
	default:
		return 5
	}
}

// indexedRank classifies a match found through the word index: 0 exact, 1 prefix, 2 other.
func indexedRank(lowerWord, lowerQuery string) int {
	switch {
	case lowerWord == lowerQuery:
		return 0
	case strings.HasPrefix(lowerWord, lowerQuery):
		return 1
	default:
		return 2
	}
}

// rankAndCap orders candidates by (rank, word length, lowercase word) and keeps the first limit.
// The sort is stable so equal candidates keep source order.
func rankAndCap(candidates []candidate, limit int) []model.Entry {
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.rank != b.rank {
			return a.rank < b.rank
		}
		if a.wordLen != b.wordLen {
			return a.wordLen < b.wordLen
		}
		return a.lowerWord < b.lowerWord
	})

	if limit >= 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}
	out := make([]model.Entry, len(candidates))
	for i, c := range candidates {
		out[i] = c.entry
	}
	return out
}
