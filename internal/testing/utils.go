// Package testing provides utilities and helpers for testing the dictionary lookup service.
package testing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gcbaptista/go-dictionary-lookup/internal/engine"
	"github.com/gcbaptista/go-dictionary-lookup/internal/jobs"
	"github.com/gcbaptista/go-dictionary-lookup/internal/metrics"
	"github.com/gcbaptista/go-dictionary-lookup/internal/source"
	"github.com/gcbaptista/go-dictionary-lookup/model"
	"github.com/gcbaptista/go-dictionary-lookup/services"
)

// TestDataset is the dataset name test instances use
const TestDataset = "test_dictionary"

// SampleEntries returns a small dataset with prefix, substring and translation-only matches for "net"
func SampleEntries() []model.Entry {
	return []model.Entry{
		{Word: "network", Translation: "n. 网络"},
		{Word: "subnet", Translation: "n. 子网"},
		{Word: "net", Translation: "n. 网"},
		{Word: "apple", Translation: "苹果 fruit"},
		{Word: "internet", Translation: "n. 互联网"},
		{Word: "Net", Translation: "adj. 净的"},
		{Word: "banana", Translation: "香蕉 fruit"},
	}
}

// TestSettings returns engine settings suited to tests: no Prometheus, short debounce
func TestSettings() engine.Settings {
	return engine.Settings{
		Dataset:         TestDataset,
		DefaultStrategy: model.StrategyIndexed,
		DebounceDelay:   20 * time.Millisecond,
		LookupCacheSize: 64,
		Metrics:         metrics.Nop{},
	}
}

// CreateTestInstance creates an unloaded instance over an in-memory repository.
// The job manager is stopped when the test ends.
func CreateTestInstance(t *testing.T, entries ...model.Entry) (*engine.Instance, *source.Memory) {
	t.Helper()

	repo := source.NewMemory(entries...)
	jobManager := jobs.NewManager(2)
	jobManager.Start()

	instance, err := engine.NewInstance(repo, TestSettings(), jobManager)
	require.NoError(t, err, "Failed to create test instance")

	t.Cleanup(func() {
		instance.Close()
		jobManager.Stop()
	})
	return instance, repo
}

// CreateLoadedInstance creates an instance over SampleEntries and loads it synchronously
func CreateLoadedInstance(t *testing.T) *engine.Instance {
	t.Helper()

	instance, _ := CreateTestInstance(t, SampleEntries()...)
	require.NoError(t, instance.Load(context.Background()), "Failed to load test dataset")
	return instance
}

// JobPollingOptions configures job polling behavior
type JobPollingOptions struct {
	Timeout      time.Duration
	PollInterval time.Duration
	LogProgress  bool
}

// DefaultJobPollingOptions returns sensible defaults for job polling
func DefaultJobPollingOptions() JobPollingOptions {
	return JobPollingOptions{
		Timeout:      5 * time.Second,
		PollInterval: 10 * time.Millisecond,
		LogProgress:  false,
	}
}

// WaitForJob polls a job until it reaches a final status or times out
func WaitForJob(t *testing.T, jobManager services.JobManager, jobID string, opts JobPollingOptions) *model.Job {
	t.Helper()

	timeout := time.After(opts.Timeout)
	ticker := time.NewTicker(opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-timeout:
			t.Fatalf("Job %s did not finish within %v timeout", jobID, opts.Timeout)
			return nil
		case <-ticker.C:
			job, err := jobManager.GetJob(jobID)
			require.NoError(t, err, "Failed to get job status")

			switch job.Status {
			case model.JobStatusCompleted, model.JobStatusFailed, model.JobStatusCancelled:
				return job
			case model.JobStatusRunning:
				if opts.LogProgress && job.Progress != nil {
					t.Logf("Job %s progress: %d/%d - %s",
						jobID,
						job.Progress.Current,
						job.Progress.Total,
						job.Progress.Message)
				}
			}
		}
	}
}

// AssertJobCompleted verifies that a job completed successfully
func AssertJobCompleted(t *testing.T, job *model.Job, expectedType model.JobType, expectedDataset string) {
	t.Helper()

	assert.Equal(t, model.JobStatusCompleted, job.Status, "Job should be completed")
	assert.Equal(t, expectedType, job.Type, "Job type should match")
	assert.Equal(t, expectedDataset, job.Dataset, "Job dataset should match")
	assert.NotNil(t, job.CompletedAt, "Job should have completion timestamp")
	assert.Empty(t, job.Error, "Job should not have error")
}

// LookupTestCase represents a test case for stateless lookups
type LookupTestCase struct {
	Name          string
	Query         string
	Strategy      model.Strategy
	ExpectedWords []string
}

// RunLookupTests runs a suite of lookups and compares the ordered words
func RunLookupTests(t *testing.T, searcher services.Searcher, tests []LookupTestCase) {
	for _, tt := range tests {
		t.Run(tt.Name, func(t *testing.T) {
			result := searcher.Lookup(tt.Query, tt.Strategy)

			words := make([]string, len(result.Entries))
			for i, e := range result.Entries {
				words[i] = e.Word
			}
			assert.Equal(t, tt.ExpectedWords, words)
			assert.Equal(t, len(result.Entries), result.Count)
		})
	}
}
