// Package api provides the HTTP surface of the dictionary lookup service.
package api

import (
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	"github.com/gcbaptista/go-dictionary-lookup/model"
)

// MaxQueryLength bounds query text in runes
const MaxQueryLength = 256

// ValidationError represents a validation error with field context
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationResult holds the result of validation operations
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// AddError adds a validation error to the result
func (vr *ValidationResult) AddError(field, message string) {
	vr.Valid = false
	vr.Errors = append(vr.Errors, ValidationError{
		Field:   field,
		Message: message,
	})
}

// HasErrors returns true if there are validation errors
func (vr *ValidationResult) HasErrors() bool {
	return len(vr.Errors) > 0
}

// ValidateQuery checks query text. The empty query is valid: it selects the default view.
func ValidateQuery(query string) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if !utf8.ValidString(query) {
		result.AddError("query", "Query must be valid UTF-8")
		return result
	}
	if utf8.RuneCountInString(query) > MaxQueryLength {
		result.AddError("query", "Query cannot be longer than 256 characters")
	}

	return result
}

// ValidateStrategy parses a strategy name. When allowEmpty is set an empty
// name is accepted and returned as the zero Strategy.
func ValidateStrategy(name string, allowEmpty bool) (model.Strategy, *ValidationResult) {
	result := &ValidationResult{Valid: true}

	if strings.TrimSpace(name) == "" {
		if !allowEmpty {
			result.AddError("strategy", "Strategy is required")
		}
		return "", result
	}

	strategy, err := model.ParseStrategy(name)
	if err != nil {
		result.AddError("strategy", err.Error())
		return "", result
	}
	return strategy, result
}

// ValidateJobID validates a job ID path parameter
func ValidateJobID(jobID string) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if jobID == "" {
		result.AddError("jobId", "Job ID is required")
		return result
	}

	if strings.TrimSpace(jobID) != jobID {
		result.AddError("jobId", "Job ID cannot have leading or trailing whitespace")
	}

	return result
}

// ValidateJobStatus parses a job status filter
func ValidateJobStatus(status string) (model.JobStatus, *ValidationResult) {
	result := &ValidationResult{Valid: true}

	switch s := model.JobStatus(strings.ToLower(strings.TrimSpace(status))); s {
	case model.JobStatusPending, model.JobStatusRunning, model.JobStatusCompleted,
		model.JobStatusFailed, model.JobStatusCancelled:
		return s, result
	default:
		result.AddError("status", "Unknown job status '"+status+"'")
		return "", result
	}
}

// SendValidationError sends a standardized validation error response
func SendValidationError(c *gin.Context, result *ValidationResult) {
	SendStructuredValidationError(c, result)
}
