package model

import (
	"strings"

	"github.com/gcbaptista/go-dictionary-lookup/internal/errors"
)

// Entry is one dictionary record: a word and its translation.
// Both fields are trimmed and non-empty when built with NewEntry.
type Entry struct {
	Word        string `json:"word" msgpack:"w"`
	Translation string `json:"translation" msgpack:"t"`
}

// NewEntry trims both fields and rejects records missing either of them.
func NewEntry(word, translation string) (Entry, error) {
	word = strings.TrimSpace(word)
	translation = strings.TrimSpace(translation)
	if word == "" {
		return Entry{}, errors.NewMalformedRecordError(0, "empty word")
	}
	if translation == "" {
		return Entry{}, errors.NewMalformedRecordError(0, "empty translation")
	}
	return Entry{Word: word, Translation: translation}, nil
}

// Key returns the lowercased word, which is how entries are indexed.
func (e Entry) Key() string {
	return strings.ToLower(e.Word)
}

// Matches reports whether query occurs case-insensitively in the word or the translation.
// The empty query matches every entry.
func (e Entry) Matches(query string) bool {
	if query == "" {
		return true
	}
	q := strings.ToLower(query)
	return strings.Contains(strings.ToLower(e.Word), q) ||
		strings.Contains(strings.ToLower(e.Translation), q)
}
