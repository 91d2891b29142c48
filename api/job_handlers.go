package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gcbaptista/go-dictionary-lookup/internal/errors"
	"github.com/gcbaptista/go-dictionary-lookup/model"
)

// LoadHandler starts a background load. Loading an already loaded dataset is a no-op job.
func (api *API) LoadHandler(c *gin.Context) {
	jobID, err := api.dict.LoadAsync()
	if err != nil {
		SendJobExecutionError(c, "load", err)
		return
	}
	sendJobAccepted(c, jobID, "Dictionary load started")
}

// RefreshHandler starts a background refresh that bypasses source caches
func (api *API) RefreshHandler(c *gin.Context) {
	jobID, err := api.dict.RefreshAsync()
	if err != nil {
		SendJobExecutionError(c, "refresh", err)
		return
	}
	sendJobAccepted(c, jobID, "Dictionary refresh started")
}

func sendJobAccepted(c *gin.Context, jobID, message string) {
	c.JSON(http.StatusAccepted, gin.H{
		"status":  "accepted",
		"message": message,
		"job_id":  jobID,
	})
}

// GetJobHandler handles requests to get job status by ID
func (api *API) GetJobHandler(c *gin.Context) {
	jobID := c.Param("jobId")
	if result := ValidateJobID(jobID); result.HasErrors() {
		SendValidationError(c, result)
		return
	}

	job, err := api.dict.GetJob(jobID)
	if err != nil {
		if errors.IsJobNotFound(err) {
			SendJobNotFoundError(c, jobID)
			return
		}
		SendInternalError(c, "get job", err)
		return
	}

	c.JSON(http.StatusOK, job)
}

// ListJobsHandler lists the dataset's jobs, newest first
func (api *API) ListJobsHandler(c *gin.Context) {
	statusParam := c.Query("status")

	var statusFilter *model.JobStatus
	if statusParam != "" {
		status, result := ValidateJobStatus(statusParam)
		if result.HasErrors() {
			SendValidationError(c, result)
			return
		}
		statusFilter = &status
	}

	jobs := api.dict.ListJobs(statusFilter)
	c.JSON(http.StatusOK, gin.H{
		"jobs":  jobs,
		"total": len(jobs),
	})
}

// GetJobMetricsHandler handles requests to get job performance metrics
func (api *API) GetJobMetricsHandler(c *gin.Context) {
	metrics := api.dict.JobMetrics()
	c.JSON(http.StatusOK, gin.H{
		"metrics":      metrics,
		"success_rate": metrics.SuccessRate,
	})
}
