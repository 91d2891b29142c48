package jobs

import (
	"sync"
	"time"

	"github.com/gcbaptista/go-dictionary-lookup/model"
)

// executionWindow bounds the per-type execution history
const executionWindow = 100

// JobMetricsData is a point-in-time copy of JobMetrics, safe to serialize
type JobMetricsData struct {
	JobsCreated          int64                     `json:"jobs_created"`
	JobsCompleted        int64                     `json:"jobs_completed"`
	JobsFailed           int64                     `json:"jobs_failed"`
	TotalExecutionTime   time.Duration             `json:"total_execution_time_ns"`
	AverageExecutionTime time.Duration             `json:"average_execution_time_ns"`
	JobsByType           map[model.JobType]int64   `json:"jobs_by_type"`
	FailedByType         map[model.JobType]int64   `json:"failed_by_type"`
	JobsByStatus         map[model.JobStatus]int64 `json:"jobs_by_status"`
	SuccessRate          float64                   `json:"success_rate"`
	LastUpdated          time.Time                 `json:"last_updated"`
}

// JobMetrics tracks counters and execution times of load and refresh jobs
type JobMetrics struct {
	mu                   sync.RWMutex
	jobsCreated          int64
	jobsCompleted        int64
	jobsFailed           int64
	totalExecutionTime   time.Duration
	jobsByType           map[model.JobType]int64
	failedByType         map[model.JobType]int64
	jobsByStatus         map[model.JobStatus]int64
	executionTimesByType map[model.JobType][]time.Duration
	lastUpdated          time.Time
}

// NewJobMetrics creates a new metrics collector
func NewJobMetrics() *JobMetrics {
	return &JobMetrics{
		jobsByType:           make(map[model.JobType]int64),
		failedByType:         make(map[model.JobType]int64),
		jobsByStatus:         make(map[model.JobStatus]int64),
		executionTimesByType: make(map[model.JobType][]time.Duration),
		lastUpdated:          time.Now(),
	}
}

// RecordJobCreated counts a new pending job
func (m *JobMetrics) RecordJobCreated(jobType model.JobType) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.jobsCreated++
	m.jobsByType[jobType]++
	m.jobsByStatus[model.JobStatusPending]++
	m.lastUpdated = time.Now()
}

// RecordJobStatusChange moves one job between status counters
func (m *JobMetrics) RecordJobStatusChange(oldStatus, newStatus model.JobStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if oldStatus != "" && m.jobsByStatus[oldStatus] > 0 {
		m.jobsByStatus[oldStatus]--
	}
	m.jobsByStatus[newStatus]++
	m.lastUpdated = time.Now()
}

// RecordJobCompleted records a successful job and its duration
func (m *JobMetrics) RecordJobCompleted(jobType model.JobType, executionTime time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.jobsCompleted++
	m.totalExecutionTime += executionTime

	times := append(m.executionTimesByType[jobType], executionTime)
	if len(times) > executionWindow {
		times = times[len(times)-executionWindow:]
	}
	m.executionTimesByType[jobType] = times
	m.lastUpdated = time.Now()
}

// RecordJobFailed records a failed job
func (m *JobMetrics) RecordJobFailed(jobType model.JobType) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.jobsFailed++
	m.failedByType[jobType]++
	m.lastUpdated = time.Now()
}

func copyCounts[K comparable](src map[K]int64) map[K]int64 {
	dst := make(map[K]int64, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

// GetMetrics returns a copy of the current metrics
func (m *JobMetrics) GetMetrics() JobMetricsData {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var avg time.Duration
	if m.jobsCompleted > 0 {
		avg = m.totalExecutionTime / time.Duration(m.jobsCompleted)
	}

	return JobMetricsData{
		JobsCreated:          m.jobsCreated,
		JobsCompleted:        m.jobsCompleted,
		JobsFailed:           m.jobsFailed,
		TotalExecutionTime:   m.totalExecutionTime,
		AverageExecutionTime: avg,
		JobsByType:           copyCounts(m.jobsByType),
		FailedByType:         copyCounts(m.failedByType),
		JobsByStatus:         copyCounts(m.jobsByStatus),
		SuccessRate:          m.successRateLocked(),
		LastUpdated:          m.lastUpdated,
	}
}

// GetAverageExecutionTimeByType averages the recent execution times of one job type
func (m *JobMetrics) GetAverageExecutionTimeByType(jobType model.JobType) time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()

	times := m.executionTimesByType[jobType]
	if len(times) == 0 {
		return 0
	}
	var total time.Duration
	for _, t := range times {
		total += t
	}
	return total / time.Duration(len(times))
}

// GetSuccessRate returns the success rate (0.0 to 1.0)
func (m *JobMetrics) GetSuccessRate() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.successRateLocked()
}

func (m *JobMetrics) successRateLocked() float64 {
	finished := m.jobsCompleted + m.jobsFailed
	if finished == 0 {
		return 1.0
	}
	return float64(m.jobsCompleted) / float64(finished)
}

// GetCurrentWorkload returns the number of pending and running jobs
func (m *JobMetrics) GetCurrentWorkload() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.jobsByStatus[model.JobStatusPending] + m.jobsByStatus[model.JobStatusRunning]
}
