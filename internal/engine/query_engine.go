// Package engine holds the stateful query engine and the wiring that drives it
// from transports: debounced typing and background load/refresh jobs.
package engine

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/gcbaptista/go-dictionary-lookup/index"
	"github.com/gcbaptista/go-dictionary-lookup/internal/logger"
	"github.com/gcbaptista/go-dictionary-lookup/internal/search"
	"github.com/gcbaptista/go-dictionary-lookup/model"
	"github.com/gcbaptista/go-dictionary-lookup/services"
)

// User facing failure messages stored in the snapshot.
const (
	LoadFailedMessage    = "Failed to load dictionary."
	RefreshFailedMessage = "Failed to refresh dictionary."
)

// lookupKey identifies a cached Lookup. version changes whenever the dataset is replaced.
type lookupKey struct {
	version  uint64
	strategy model.Strategy
	query    string
}

type cachedLookup struct {
	entries []model.Entry
	took    time.Duration
	timed   bool
}

type observer struct {
	id uint64
	fn func(model.Snapshot)
}

// QueryEngine owns the loaded entries, their word index and the visible
// result list for the current query and strategy.
//
// All transitions serialize on mu. The repository fetch during Load and
// Refresh runs without the lock; each fetch takes a generation number and a
// completion older than the newest started fetch is dropped.
// Observers are called synchronously after each transition, outside the lock.
type QueryEngine struct {
	mu       sync.Mutex
	repo     services.Repository
	settings Settings
	logger   *log.Logger

	entries      []model.Entry
	idx          *index.WordIndex
	strategy     model.Strategy
	query        string
	visible      []model.Entry
	lastDuration *time.Duration
	errorMessage string
	searchSeq    uint64
	version      uint64 // incremented each time entries are replaced

	cache *lru.Cache[lookupKey, cachedLookup]

	inFlight   int    // fetches currently running
	generation uint64 // number of the newest started fetch

	observers      []observer
	nextObserverID uint64
}

// New creates an engine that fetches entries from repo. Nothing is loaded until Load is called.
func New(repo services.Repository, settings Settings) (*QueryEngine, error) {
	if repo == nil {
		return nil, fmt.Errorf("repository cannot be nil")
	}
	settings.applyDefaults()
	if err := settings.validate(); err != nil {
		return nil, fmt.Errorf("invalid engine settings: %w", err)
	}

	qe := &QueryEngine{
		repo:     repo,
		settings: settings,
		logger:   logger.New("engine"),
		strategy: settings.DefaultStrategy,
		visible:  []model.Entry{},
	}
	if settings.LookupCacheSize > 0 {
		cache, err := lru.New[lookupKey, cachedLookup](settings.LookupCacheSize)
		if err != nil {
			return nil, fmt.Errorf("failed to create lookup cache: %w", err)
		}
		qe.cache = cache
	}
	return qe, nil
}

// Settings returns the effective settings after defaults were applied
func (e *QueryEngine) Settings() Settings {
	return e.settings
}

// Load fetches the dataset once. It does nothing when a fetch is already
// running or entries are present. On failure the entries stay empty, the
// snapshot carries LoadFailedMessage and the error is returned.
func (e *QueryEngine) Load(ctx context.Context) error {
	e.mu.Lock()
	if e.inFlight > 0 || len(e.entries) > 0 {
		loading := e.inFlight > 0
		e.mu.Unlock()
		e.logger.Debug("load skipped", "loading", loading)
		return nil
	}
	gen := e.beginFetchLocked()
	e.mu.Unlock()
	e.notify()

	entries, idx, fetchErr := e.fetch(ctx, false)

	e.mu.Lock()
	e.inFlight--
	if gen != e.generation {
		e.mu.Unlock()
		e.logger.Debug("discarding stale load result", "generation", gen)
		e.notify()
		return nil
	}
	if fetchErr != nil {
		e.errorMessage = LoadFailedMessage
		e.mu.Unlock()
		e.settings.Metrics.ObserveFetch("load", fetchErr, 0)
		e.logger.Error("load failed", "dataset", e.settings.Dataset, "err", fetchErr)
		e.notify()
		return fmt.Errorf("load dictionary: %w", fetchErr)
	}
	e.replaceDatasetLocked(entries, idx)
	e.query = ""
	e.errorMessage = ""
	e.recomputeLocked()
	e.mu.Unlock()
	e.settings.Metrics.ObserveFetch("load", nil, len(entries))

	e.logger.Info("dictionary loaded", "dataset", e.settings.Dataset, "entries", len(entries), "keys", idx.Keys())
	e.notify()
	return nil
}

// Refresh re-fetches the dataset, bypassing any repository cache, and
// rebuilds the index and the visible list for the current query. A failed
// refresh keeps the previous dataset and sets RefreshFailedMessage.
func (e *QueryEngine) Refresh(ctx context.Context) error {
	e.mu.Lock()
	gen := e.beginFetchLocked()
	e.mu.Unlock()
	e.notify()

	entries, idx, fetchErr := e.fetch(ctx, true)

	e.mu.Lock()
	e.inFlight--
	if gen != e.generation {
		e.mu.Unlock()
		e.logger.Debug("discarding stale refresh result", "generation", gen)
		e.notify()
		return nil
	}
	if fetchErr != nil {
		e.errorMessage = RefreshFailedMessage
		e.mu.Unlock()
		e.settings.Metrics.ObserveFetch("refresh", fetchErr, 0)
		e.logger.Error("refresh failed", "dataset", e.settings.Dataset, "err", fetchErr)
		e.notify()
		return fmt.Errorf("refresh dictionary: %w", fetchErr)
	}
	e.replaceDatasetLocked(entries, idx)
	e.errorMessage = ""
	e.recomputeLocked()
	e.mu.Unlock()
	e.settings.Metrics.ObserveFetch("refresh", nil, len(entries))

	e.logger.Info("dictionary refreshed", "dataset", e.settings.Dataset, "entries", len(entries))
	e.notify()
	return nil
}

func (e *QueryEngine) replaceDatasetLocked(entries []model.Entry, idx *index.WordIndex) {
	e.entries = entries
	e.idx = idx
	e.version++
}

func (e *QueryEngine) beginFetchLocked() uint64 {
	e.inFlight++
	e.generation++
	return e.generation
}

// fetch reads entries and builds their index without holding the lock.
func (e *QueryEngine) fetch(ctx context.Context, forceRefresh bool) ([]model.Entry, *index.WordIndex, error) {
	entries, err := e.repo.LoadEntries(ctx, forceRefresh)
	if err != nil {
		return nil, nil, err
	}
	if entries == nil {
		entries = []model.Entry{}
	}
	return entries, index.BuildWordIndex(entries), nil
}

// SetQuery stores the query without recomputing; call Recompute (usually
// through a Debouncer) to update the visible list.
func (e *QueryEngine) SetQuery(text string) {
	e.mu.Lock()
	e.query = text
	e.mu.Unlock()
	e.notify()
}

// SetStrategy switches strategy and recomputes the visible list. The index is not rebuilt.
func (e *QueryEngine) SetStrategy(strategy model.Strategy) error {
	parsed, err := model.ParseStrategy(string(strategy))
	if err != nil {
		return err
	}
	e.mu.Lock()
	e.strategy = parsed
	e.recomputeLocked()
	e.mu.Unlock()
	e.notify()
	return nil
}

// Recompute rebuilds the visible list from entries, query and strategy.
func (e *QueryEngine) Recompute() {
	e.mu.Lock()
	e.recomputeLocked()
	e.mu.Unlock()
	e.notify()
}

// recomputeLocked replaces the visible list. Only non-empty queries over a
// non-empty dataset are timed; other branches keep the previous duration.
func (e *QueryEngine) recomputeLocked() {
	visible, took, timed := e.compute(e.entries, e.idx, e.query, e.strategy)
	e.visible = visible
	if timed {
		e.lastDuration = &took
		e.searchSeq++
	}
}

func (e *QueryEngine) compute(entries []model.Entry, idx *index.WordIndex, query string, strategy model.Strategy) ([]model.Entry, time.Duration, bool) {
	switch {
	case len(entries) == 0:
		return []model.Entry{}, 0, false
	case query == "":
		return search.DefaultView(entries, e.settings.DefaultViewSize), 0, false
	}

	start := time.Now()
	results := search.Run(strategy, entries, idx, query, e.settings.MaxResults)
	took := time.Since(start)
	e.settings.Metrics.ObserveSearch(strategy, took, len(results))
	return results, took, true
}

// Lookup answers query with strategy against the loaded dataset without
// touching engine state. An empty strategy means the current one.
// Results are served from the lookup cache while the dataset is unchanged.
func (e *QueryEngine) Lookup(query string, strategy model.Strategy) model.SearchResult {
	e.mu.Lock()
	entries, idx, version := e.entries, e.idx, e.version
	if strategy == "" {
		strategy = e.strategy
	}
	e.mu.Unlock()

	// Both strategies only see the lowercased query, so case variants share an entry
	key := lookupKey{version: version, strategy: strategy, query: strings.ToLower(query)}
	cached, hit := e.lookupCached(key)
	if !hit {
		// entries and idx are replaced wholesale, never mutated, so reading them unlocked is safe
		results, took, timed := e.compute(entries, idx, query, strategy)
		cached = cachedLookup{entries: results, took: took, timed: timed}
		if e.cache != nil {
			e.cache.Add(key, cached)
		}
	}

	return model.SearchResult{
		QueryID:  uuid.New().String(),
		Query:    query,
		Strategy: strategy,
		Entries:  cached.entries,
		Count:    len(cached.entries),
		Total:    len(entries),
		Took:     cached.took,
		Timed:    cached.timed,
		Cached:   hit,
	}
}

func (e *QueryEngine) lookupCached(key lookupKey) (cachedLookup, bool) {
	if e.cache == nil {
		return cachedLookup{}, false
	}
	return e.cache.Get(key)
}

// Snapshot returns a copy of the observable state.
func (e *QueryEngine) Snapshot() model.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

func (e *QueryEngine) snapshotLocked() model.Snapshot {
	var last *time.Duration
	if e.lastDuration != nil {
		d := *e.lastDuration
		last = &d
	}
	return model.Snapshot{
		IsLoading:          e.inFlight > 0,
		ErrorMessage:       e.errorMessage,
		Query:              e.query,
		Strategy:           e.strategy,
		Visible:            e.visible,
		TotalEntries:       len(e.entries),
		LastSearchDuration: last,
		SearchSeq:          e.searchSeq,
	}
}

// Subscribe registers fn to receive a snapshot after every state change.
// The returned function removes the registration.
func (e *QueryEngine) Subscribe(fn func(model.Snapshot)) func() {
	e.mu.Lock()
	e.nextObserverID++
	id := e.nextObserverID
	e.observers = append(e.observers, observer{id: id, fn: fn})
	e.mu.Unlock()

	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		for i, o := range e.observers {
			if o.id == id {
				e.observers = append(e.observers[:i:i], e.observers[i+1:]...)
				return
			}
		}
	}
}

func (e *QueryEngine) notify() {
	e.mu.Lock()
	if len(e.observers) == 0 {
		e.mu.Unlock()
		return
	}
	snap := e.snapshotLocked()
	observers := make([]observer, len(e.observers))
	copy(observers, e.observers)
	e.mu.Unlock()

	for _, o := range observers {
		o.fn(snap)
	}
}
