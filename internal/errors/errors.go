package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common error conditions
var (
	// ErrDataSource is returned when the dictionary source cannot be read or parsed
	ErrDataSource = errors.New("data source error")

	// ErrMalformedRecord is returned when a single source record misses a required field
	ErrMalformedRecord = errors.New("malformed record")

	// ErrUnknownStrategy is returned when a strategy name is not recognized
	ErrUnknownStrategy = errors.New("unknown search strategy")

	// ErrJobNotFound is returned when a job is not found
	ErrJobNotFound = errors.New("job not found")

	// ErrUnknownFormat is returned when a dataset file format cannot be detected
	ErrUnknownFormat = errors.New("unknown dataset format")
)

// DataSourceError represents a fetch or parse failure of a dictionary source
type DataSourceError struct {
	Source string
	Err    error
}

func (e *DataSourceError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("data source '%s' failed", e.Source)
	}
	return fmt.Sprintf("data source '%s' failed: %v", e.Source, e.Err)
}

func (e *DataSourceError) Unwrap() error {
	return e.Err
}

func (e *DataSourceError) Is(target error) bool {
	return target == ErrDataSource
}

// NewDataSourceError creates a new DataSourceError
func NewDataSourceError(source string, err error) *DataSourceError {
	return &DataSourceError{Source: source, Err: err}
}

// MalformedRecordError represents a source record that is missing required fields.
// Line is 1-based; zero means the position is unknown.
type MalformedRecordError struct {
	Line   int
	Reason string
}

func (e *MalformedRecordError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("malformed record at line %d: %s", e.Line, e.Reason)
	}
	return fmt.Sprintf("malformed record: %s", e.Reason)
}

func (e *MalformedRecordError) Is(target error) bool {
	return target == ErrMalformedRecord
}

// NewMalformedRecordError creates a new MalformedRecordError
func NewMalformedRecordError(line int, reason string) *MalformedRecordError {
	return &MalformedRecordError{Line: line, Reason: reason}
}

// UnknownStrategyError carries the rejected strategy name
type UnknownStrategyError struct {
	Name string
}

func (e *UnknownStrategyError) Error() string {
	return fmt.Sprintf("unknown search strategy '%s' (expected 'linear' or 'indexed')", e.Name)
}

func (e *UnknownStrategyError) Is(target error) bool {
	return target == ErrUnknownStrategy
}

// NewUnknownStrategyError creates a new UnknownStrategyError
func NewUnknownStrategyError(name string) *UnknownStrategyError {
	return &UnknownStrategyError{Name: name}
}

// JobNotFoundError represents a job not found error with context
type JobNotFoundError struct {
	JobID string
}

func (e *JobNotFoundError) Error() string {
	return fmt.Sprintf("job with ID '%s' not found", e.JobID)
}

func (e *JobNotFoundError) Is(target error) bool {
	return target == ErrJobNotFound
}

// NewJobNotFoundError creates a new JobNotFoundError
func NewJobNotFoundError(jobID string) *JobNotFoundError {
	return &JobNotFoundError{JobID: jobID}
}

// UnknownFormatError represents a dataset path whose format cannot be detected
type UnknownFormatError struct {
	Path string
}

func (e *UnknownFormatError) Error() string {
	return fmt.Sprintf("unable to detect dataset format for '%s'", e.Path)
}

func (e *UnknownFormatError) Is(target error) bool {
	return target == ErrUnknownFormat
}

// NewUnknownFormatError creates a new UnknownFormatError
func NewUnknownFormatError(path string) *UnknownFormatError {
	return &UnknownFormatError{Path: path}
}

// IsDataSource checks if an error is a data source error
func IsDataSource(err error) bool {
	return errors.Is(err, ErrDataSource)
}

// IsMalformedRecord checks if an error is a malformed record error
func IsMalformedRecord(err error) bool {
	return errors.Is(err, ErrMalformedRecord)
}

// IsUnknownStrategy checks if an error is an unknown strategy error
func IsUnknownStrategy(err error) bool {
	return errors.Is(err, ErrUnknownStrategy)
}

// IsJobNotFound checks if an error is a job not found error
func IsJobNotFound(err error) bool {
	return errors.Is(err, ErrJobNotFound)
}
