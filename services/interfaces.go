package services

import (
	"context"

	"github.com/gcbaptista/go-dictionary-lookup/internal/jobs"
	"github.com/gcbaptista/go-dictionary-lookup/model"
)

// Repository supplies the dictionary entries.
// Entries must come back in a stable order; that order is the default view and the final tie-break.
type Repository interface {
	// LoadEntries returns every entry. forceRefresh bypasses any cache the repository keeps.
	// Failures are reported as *errors.DataSourceError.
	LoadEntries(ctx context.Context, forceRefresh bool) ([]model.Entry, error)
}

// Searcher answers queries against the loaded dataset
type Searcher interface {
	Lookup(query string, strategy model.Strategy) model.SearchResult
}

// QueryState holds the interactive query state
type QueryState interface {
	SetQuery(text string)
	SetStrategy(strategy model.Strategy) error
	Recompute()
	Snapshot() model.Snapshot
	Subscribe(fn func(model.Snapshot)) (unsubscribe func())
}

// Loader fetches or re-fetches the dataset synchronously
type Loader interface {
	Load(ctx context.Context) error
	Refresh(ctx context.Context) error
}

// JobManager exposes background dataset jobs
type JobManager interface {
	LoadAsync() (string, error)
	RefreshAsync() (string, error)
	GetJob(jobID string) (*model.Job, error)
	ListJobs(status *model.JobStatus) []*model.Job
	JobMetrics() jobs.JobMetricsData
}

// Dictionary is everything a transport needs from the engine
type Dictionary interface {
	Searcher
	QueryState
	Loader
	JobManager
	// Type sets the query and recomputes after the debounce delay
	Type(query string)
}
