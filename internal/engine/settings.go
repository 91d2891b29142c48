package engine

import (
	"fmt"
	"time"

	"github.com/gcbaptista/go-dictionary-lookup/internal/errors"
	"github.com/gcbaptista/go-dictionary-lookup/internal/metrics"
	"github.com/gcbaptista/go-dictionary-lookup/internal/search"
	"github.com/gcbaptista/go-dictionary-lookup/model"
)

// Settings tunes a QueryEngine. Zero values are replaced by defaults.
type Settings struct {
	// Dataset names the data source in logs and job records
	Dataset         string
	DefaultViewSize int
	MaxResults      int
	DefaultStrategy model.Strategy
	// DebounceDelay is how long TypeAhead waits for typing to settle
	DebounceDelay time.Duration
	// LookupCacheSize bounds the Lookup result cache; 0 disables it
	LookupCacheSize int
	// Metrics receives search and fetch measurements; nil means the Prometheus collectors
	Metrics metrics.Recorder
}

// DefaultSettings returns the settings used when nothing is configured
func DefaultSettings() Settings {
	return Settings{
		Dataset:         "dictionary",
		DefaultViewSize: search.DefaultViewSize,
		MaxResults:      search.MaxResults,
		DefaultStrategy: model.StrategyIndexed,
		DebounceDelay:   300 * time.Millisecond,
		LookupCacheSize: 1024,
		Metrics:         metrics.Prometheus{},
	}
}

func (s *Settings) applyDefaults() {
	d := DefaultSettings()
	if s.Dataset == "" {
		s.Dataset = d.Dataset
	}
	if s.DefaultViewSize == 0 {
		s.DefaultViewSize = d.DefaultViewSize
	}
	if s.MaxResults == 0 {
		s.MaxResults = d.MaxResults
	}
	if s.DefaultStrategy == "" {
		s.DefaultStrategy = d.DefaultStrategy
	} else if parsed, err := model.ParseStrategy(string(s.DefaultStrategy)); err == nil {
		s.DefaultStrategy = parsed
	}
	if s.DebounceDelay == 0 {
		s.DebounceDelay = d.DebounceDelay
	}
	if s.Metrics == nil {
		s.Metrics = d.Metrics
	}
}

func (s Settings) validate() error {
	if s.DefaultViewSize < 0 {
		return fmt.Errorf("default view size cannot be negative, got %d", s.DefaultViewSize)
	}
	if s.MaxResults < 0 {
		return fmt.Errorf("max results cannot be negative, got %d", s.MaxResults)
	}
	if s.LookupCacheSize < 0 {
		return fmt.Errorf("lookup cache size cannot be negative, got %d", s.LookupCacheSize)
	}
	if s.DebounceDelay < 0 {
		return fmt.Errorf("debounce delay cannot be negative, got %s", s.DebounceDelay)
	}
	if !s.DefaultStrategy.Valid() {
		return errors.NewUnknownStrategyError(string(s.DefaultStrategy))
	}
	return nil
}
