package index

import (
	"strings"

	"github.com/gcbaptista/go-dictionary-lookup/model"
)

// WordIndex maps lowercased words to the entries that carry them, in source order.
type WordIndex struct {
	tree    *OrderedMultiMap[string, model.Entry]
	entries int
}

// BuildWordIndex indexes entries by lowercased word. Case variants and
// homographs share one bucket and keep the order they had in entries.
func BuildWordIndex(entries []model.Entry) *WordIndex {
	tree := NewOrderedMultiMap[string, model.Entry](strings.Compare)
	for _, e := range entries {
		tree.Insert(e.Key(), e)
	}
	return &WordIndex{tree: tree, entries: len(entries)}
}

// Lookup returns the entries whose lowercased word equals word (case-insensitive).
func (wi *WordIndex) Lookup(word string) ([]model.Entry, bool) {
	return wi.tree.Get(strings.ToLower(word))
}

// ForEachInRange visits buckets whose key lies in [low, high] in ascending key order.
func (wi *WordIndex) ForEachInRange(low, high string, visit func(key string, entries []model.Entry)) {
	wi.tree.ForEachInRange(low, high, visit)
}

// Keys returns the number of distinct lowercased words.
func (wi *WordIndex) Keys() int {
	return wi.tree.Len()
}

// Entries returns the number of entries the index was built from.
func (wi *WordIndex) Entries() int {
	return wi.entries
}

// Height exposes the tree height for diagnostics.
func (wi *WordIndex) Height() int {
	return wi.tree.Height()
}
