package engine

import (
	"context"
	"fmt"

	"github.com/gcbaptista/go-dictionary-lookup/internal/jobs"
	"github.com/gcbaptista/go-dictionary-lookup/model"
)

// LoadAsync starts Load as a background job and returns the job ID.
func (i *Instance) LoadAsync() (string, error) {
	return i.runAsync(model.JobTypeLoad, i.Load)
}

// RefreshAsync starts Refresh as a background job and returns the job ID.
func (i *Instance) RefreshAsync() (string, error) {
	return i.runAsync(model.JobTypeRefresh, i.Refresh)
}

func (i *Instance) runAsync(jobType model.JobType, op func(ctx context.Context) error) (string, error) {
	dataset := i.settings.Dataset
	jobID := i.jobManager.CreateJob(jobType, dataset, map[string]string{
		"operation": string(jobType),
	})

	err := i.jobManager.ExecuteJob(jobID, func(ctx context.Context, job *model.Job) error {
		i.jobManager.UpdateJobProgress(job.ID, 0, 1, "fetching entries")
		if err := op(ctx); err != nil {
			return err
		}
		snap := i.Snapshot()
		i.jobManager.UpdateJobProgress(job.ID, 1, 1, fmt.Sprintf("%d entries available", snap.TotalEntries))
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to start %s job: %w", jobType, err)
	}
	return jobID, nil
}

// GetJob returns the status of a load or refresh job
func (i *Instance) GetJob(jobID string) (*model.Job, error) {
	return i.jobManager.GetJob(jobID)
}

// ListJobs returns the jobs of this instance's dataset, optionally filtered by status
func (i *Instance) ListJobs(status *model.JobStatus) []*model.Job {
	return i.jobManager.ListJobs(i.settings.Dataset, status)
}

// JobMetrics returns the job manager's metrics
func (i *Instance) JobMetrics() jobs.JobMetricsData {
	return i.jobManager.GetMetrics()
}
