package engine

import (
	"fmt"

	"github.com/gcbaptista/go-dictionary-lookup/internal/jobs"
	"github.com/gcbaptista/go-dictionary-lookup/services"
)

// Instance bundles a QueryEngine with the pieces transports need around it:
// debounced typing and background load/refresh jobs.
// It implements the services.Dictionary interface.
type Instance struct {
	*QueryEngine
	typeAhead  *TypeAhead
	jobManager *jobs.Manager
}

// NewInstance creates an engine over repo and attaches it to jobManager.
// The caller owns jobManager and must start and stop it.
func NewInstance(repo services.Repository, settings Settings, jobManager *jobs.Manager) (*Instance, error) {
	if jobManager == nil {
		return nil, fmt.Errorf("job manager cannot be nil")
	}
	qe, err := New(repo, settings)
	if err != nil {
		return nil, err
	}
	return &Instance{
		QueryEngine: qe,
		typeAhead:   NewTypeAhead(qe),
		jobManager:  jobManager,
	}, nil
}

// Type sets the query and schedules a debounced recompute
func (i *Instance) Type(query string) {
	i.typeAhead.Type(query)
}

// FlushTyping runs a pending debounced recompute immediately
func (i *Instance) FlushTyping() bool {
	return i.typeAhead.Flush()
}

// Close drops any pending recompute. The job manager is left to its owner.
func (i *Instance) Close() {
	i.typeAhead.Stop()
}
