package source

import (
	"context"
	"sync"

	"github.com/gcbaptista/go-dictionary-lookup/internal/errors"
	"github.com/gcbaptista/go-dictionary-lookup/model"
)

// Memory is an in-process repository. Set and Fail change what the next fetch returns.
type Memory struct {
	mu      sync.Mutex
	entries []model.Entry
	err     error
	calls   int
}

// NewMemory creates a repository serving a copy of entries
func NewMemory(entries ...model.Entry) *Memory {
	m := &Memory{}
	m.Set(entries)
	return m
}

// Set replaces the served entries and clears any injected failure
func (m *Memory) Set(entries []model.Entry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append([]model.Entry(nil), entries...)
	m.err = nil
}

// Fail makes subsequent fetches return a DataSourceError wrapping err
func (m *Memory) Fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls reports how many fetches were made
func (m *Memory) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// LoadEntries returns a copy of the current entries
func (m *Memory) LoadEntries(ctx context.Context, _ bool) ([]model.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, errors.NewDataSourceError("memory", m.err)
	}
	out := make([]model.Entry, len(m.entries))
	copy(out, m.entries)
	return out, nil
}
