// Package search implements the two lookup strategies and their ranking.
// Every function here is pure: no I/O, no shared state.
package search

import (
	"strings"

	"github.com/gcbaptista/go-dictionary-lookup/index"
	"github.com/gcbaptista/go-dictionary-lookup/model"
)

const (
	// MaxResults caps every ranked result list
	MaxResults = 150
	// DefaultViewSize is how many entries the empty query shows
	DefaultViewSize = 50

	// prefixUpperBound is appended to a prefix to get a key that sorts after
	// every key sharing the prefix. 0xFF never occurs in valid UTF-8.
	prefixUpperBound = "\xff"
)

// Linear scans all entries and keeps those whose word or translation
// contains query (case-insensitive), ranked and capped at limit.
func Linear(entries []model.Entry, query string, limit int) []model.Entry {
	lq := strings.ToLower(query)

	var candidates []candidate
	for _, e := range entries {
		if !e.Matches(query) {
			continue
		}
		lw := strings.ToLower(e.Word)
		lt := strings.ToLower(e.Translation)
		candidates = append(candidates, newCandidate(e, lw, linearRank(lw, lt, lq)))
	}
	return rankAndCap(candidates, limit)
}

// Indexed collects entries whose lowercased word starts with query by walking
// the word index over [query, query+0xFF]. Translations are never consulted,
// so a query that only occurs in a translation finds nothing here.
func Indexed(idx *index.WordIndex, query string, limit int) []model.Entry {
	if idx == nil {
		return []model.Entry{}
	}
	lq := strings.ToLower(query)

	var candidates []candidate
	idx.ForEachInRange(lq, lq+prefixUpperBound, func(key string, bucket []model.Entry) {
		if !strings.HasPrefix(key, lq) {
			return
		}
		rank := indexedRank(key, lq)
		for _, e := range bucket {
			candidates = append(candidates, newCandidate(e, key, rank))
		}
	})
	return rankAndCap(candidates, limit)
}

// Run dispatches query to the strategy. An unrecognized strategy falls back to Linear.
func Run(strategy model.Strategy, entries []model.Entry, idx *index.WordIndex, query string, limit int) []model.Entry {
	if strategy == model.StrategyIndexed {
		return Indexed(idx, query, limit)
	}
	return Linear(entries, query, limit)
}

// DefaultView returns the first n entries in load order.
func DefaultView(entries []model.Entry, n int) []model.Entry {
	n = max(0, min(n, len(entries)))
	out := make([]model.Entry, n)
	copy(out, entries[:n])
	return out
}
