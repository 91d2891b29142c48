// Package jobs runs dataset load and refresh operations in the background and
// keeps their status for polling clients.
package jobs

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/gcbaptista/go-dictionary-lookup/internal/errors"
	"github.com/gcbaptista/go-dictionary-lookup/internal/logger"
	"github.com/gcbaptista/go-dictionary-lookup/model"
)

const (
	defaultCleanupInterval = time.Hour
	defaultRetention       = 24 * time.Hour
)

// Manager handles background job execution and tracking
type Manager struct {
	mu       sync.RWMutex
	jobs     map[string]*model.Job
	done     map[string]chan struct{} // closed when the job reaches a final status
	workers  chan struct{}            // limits concurrent jobs
	stopChan chan struct{}
	stopOnce sync.Once
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	metrics  *JobMetrics
	logger   *log.Logger

	retention time.Duration
}

// NewManager creates a job manager that runs at most maxWorkers jobs at once
func NewManager(maxWorkers int) *Manager {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		jobs:      make(map[string]*model.Job),
		done:      make(map[string]chan struct{}),
		workers:   make(chan struct{}, maxWorkers),
		stopChan:  make(chan struct{}),
		ctx:       ctx,
		cancel:    cancel,
		metrics:   NewJobMetrics(),
		logger:    logger.New("jobs"),
		retention: defaultRetention,
	}
}

// SetRetention changes how long finished jobs are kept before cleanup
func (m *Manager) SetRetention(d time.Duration) {
	if d > 0 {
		m.retention = d
	}
}

// Start begins background cleanup of finished jobs
func (m *Manager) Start() {
	m.logger.Info("job manager started", "workers", cap(m.workers))
	go m.cleanupRoutine(defaultCleanupInterval)
}

// Stop cancels running jobs and waits for them to return. Safe to call more than once.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() {
		close(m.stopChan)
		m.cancel()
		m.wg.Wait()
		m.logger.Info("job manager stopped")
	})
}

// CreateJob registers a pending job and returns its ID
func (m *Manager) CreateJob(jobType model.JobType, dataset string, metadata map[string]string) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	job := &model.Job{
		ID:        uuid.New().String(),
		Type:      jobType,
		Status:    model.JobStatusPending,
		Dataset:   dataset,
		CreatedAt: time.Now(),
		Metadata:  metadata,
	}

	m.jobs[job.ID] = job
	m.done[job.ID] = make(chan struct{})
	m.metrics.RecordJobCreated(jobType)
	m.logger.Debug("created job", "id", job.ID, "type", job.Type, "dataset", dataset)
	return job.ID
}

func copyJob(job *model.Job) *model.Job {
	jobCopy := *job
	if job.Progress != nil {
		progressCopy := *job.Progress
		jobCopy.Progress = &progressCopy
	}
	return &jobCopy
}

// GetJob returns a copy of the job with jobID
func (m *Manager) GetJob(jobID string) (*model.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	job, exists := m.jobs[jobID]
	if !exists {
		return nil, errors.NewJobNotFoundError(jobID)
	}
	return copyJob(job), nil
}

// ListJobs returns the jobs of a dataset, newest first, optionally filtered by status
func (m *Manager) ListJobs(dataset string, status *model.JobStatus) []*model.Job {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := []*model.Job{}
	for _, job := range m.jobs {
		if job.Dataset != dataset {
			continue
		}
		if status != nil && job.Status != *status {
			continue
		}
		result = append(result, copyJob(job))
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result
}

// ExecuteJob runs jobFunc for a pending job on a worker goroutine. The context
// passed to jobFunc is cancelled when the manager stops.
func (m *Manager) ExecuteJob(jobID string, jobFunc func(ctx context.Context, job *model.Job) error) error {
	m.mu.Lock()
	job, exists := m.jobs[jobID]
	if !exists {
		m.mu.Unlock()
		return errors.NewJobNotFoundError(jobID)
	}
	if job.Status != model.JobStatusPending {
		m.mu.Unlock()
		return fmt.Errorf("job with ID '%s' is not in pending status (current: %s)", jobID, job.Status)
	}
	jobType := job.Type
	jobSnapshot := copyJob(job)
	m.mu.Unlock()

	if m.ctx.Err() != nil {
		m.updateJobStatus(jobID, model.JobStatusCancelled, "job manager shutting down")
		return fmt.Errorf("job manager is shutting down")
	}
	select {
	case m.workers <- struct{}{}:
	case <-m.stopChan:
		m.updateJobStatus(jobID, model.JobStatusCancelled, "job manager shutting down")
		return fmt.Errorf("job manager is shutting down")
	}

	m.mu.Lock()
	now := time.Now()
	job.Status = model.JobStatusRunning
	job.StartedAt = &now
	m.mu.Unlock()
	m.metrics.RecordJobStatusChange(model.JobStatusPending, model.JobStatusRunning)

	m.wg.Add(1)
	go func() {
		defer func() {
			<-m.workers
			m.wg.Done()
		}()

		startTime := time.Now()
		err := jobFunc(m.ctx, jobSnapshot)
		executionTime := time.Since(startTime)

		switch {
		case err != nil && m.ctx.Err() != nil:
			m.updateJobStatus(jobID, model.JobStatusCancelled, err.Error())
			m.logger.Warn("job cancelled", "id", jobID, "after", executionTime)
		case err != nil:
			m.metrics.RecordJobFailed(jobType)
			m.updateJobStatus(jobID, model.JobStatusFailed, err.Error())
			m.logger.Error("job failed", "id", jobID, "type", jobType, "after", executionTime, "err", err)
		default:
			m.metrics.RecordJobCompleted(jobType, executionTime)
			m.updateJobStatus(jobID, model.JobStatusCompleted, "")
			m.logger.Info("job completed", "id", jobID, "type", jobType, "took", executionTime)
		}
	}()

	return nil
}

// Wait blocks until the job reaches a final status or ctx is done, and returns the final job.
func (m *Manager) Wait(ctx context.Context, jobID string) (*model.Job, error) {
	m.mu.RLock()
	job, exists := m.jobs[jobID]
	if !exists {
		m.mu.RUnlock()
		return nil, errors.NewJobNotFoundError(jobID)
	}
	if isFinal(job.Status) {
		defer m.mu.RUnlock()
		return copyJob(job), nil
	}
	done := m.done[jobID]
	m.mu.RUnlock()

	select {
	case <-done:
		return m.GetJob(jobID)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// UpdateJobProgress updates the progress of a running job
func (m *Manager) UpdateJobProgress(jobID string, current, total int, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, exists := m.jobs[jobID]
	if !exists {
		return
	}
	if job.Progress == nil {
		job.Progress = &model.JobProgress{}
	}
	job.Progress.Current = current
	job.Progress.Total = total
	job.Progress.Message = message
}

func isFinal(status model.JobStatus) bool {
	return status == model.JobStatusCompleted || status == model.JobStatusFailed || status == model.JobStatusCancelled
}

func (m *Manager) updateJobStatus(jobID string, status model.JobStatus, errorMsg string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, exists := m.jobs[jobID]
	if !exists {
		return
	}

	oldStatus := job.Status
	job.Status = status
	if errorMsg != "" {
		job.Error = errorMsg
	}
	if isFinal(status) {
		now := time.Now()
		job.CompletedAt = &now
		if ch, ok := m.done[jobID]; ok {
			close(ch)
			delete(m.done, jobID)
		}
	}

	m.metrics.RecordJobStatusChange(oldStatus, status)
}

func (m *Manager) cleanupRoutine(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.CleanupOldJobs(m.retention)
		case <-m.stopChan:
			return
		}
	}
}

// CleanupOldJobs removes finished jobs that completed more than maxAge ago
func (m *Manager) CleanupOldJobs(maxAge time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	cleaned := 0
	for jobID, job := range m.jobs {
		if job.CompletedAt != nil && job.CompletedAt.Before(cutoff) {
			delete(m.jobs, jobID)
			cleaned++
		}
	}
	if cleaned > 0 {
		m.logger.Debug("cleaned up old jobs", "count", cleaned)
	}
	return cleaned
}

// GetMetrics returns current job metrics
func (m *Manager) GetMetrics() JobMetricsData {
	return m.metrics.GetMetrics()
}

// GetJobSuccessRate returns the overall job success rate
func (m *Manager) GetJobSuccessRate() float64 {
	return m.metrics.GetSuccessRate()
}

// GetCurrentWorkload returns the number of pending and running jobs
func (m *Manager) GetCurrentWorkload() int64 {
	return m.metrics.GetCurrentWorkload()
}
