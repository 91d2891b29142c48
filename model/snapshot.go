package model

import "time"

// Snapshot is an immutable view of the query engine's observable state.
// Visible must be treated as read-only; the engine never mutates a slice it has published.
type Snapshot struct {
	IsLoading          bool           `json:"is_loading"`
	ErrorMessage       string         `json:"error_message,omitempty"`
	Query              string         `json:"query"`
	Strategy           Strategy       `json:"strategy"`
	Visible            []Entry        `json:"visible"`
	TotalEntries       int            `json:"total_entries"`
	LastSearchDuration *time.Duration `json:"last_search_duration_ns,omitempty"`
	SearchSeq          uint64         `json:"search_seq"` // incremented on every timed search
}

// HasError reports whether the last load or refresh failed
func (s Snapshot) HasError() bool {
	return s.ErrorMessage != ""
}

// SearchResult is the outcome of a single stateless lookup
type SearchResult struct {
	QueryID  string        `json:"query_id"`
	Query    string        `json:"query"`
	Strategy Strategy      `json:"strategy"`
	Entries  []Entry       `json:"entries"`
	Count    int           `json:"count"`
	Total    int           `json:"total"` // size of the loaded dataset
	Took     time.Duration `json:"took_ns"`
	Timed    bool          `json:"timed"` // false for the empty-query default view
	Cached   bool          `json:"cached"`
}
