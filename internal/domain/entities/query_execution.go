package entities

import "time"

// ExecutionStatus is the lifecycle state of a submitted query.
type ExecutionStatus string

const (
	ExecutionQueued    ExecutionStatus = "QUEUED"
	ExecutionRunning   ExecutionStatus = "RUNNING"
	ExecutionSucceeded ExecutionStatus = "SUCCEEDED"
	ExecutionFailed    ExecutionStatus = "FAILED"
	ExecutionCancelled ExecutionStatus = "CANCELLED"
)

// IsTerminal reports whether no further transition can happen.
func (s ExecutionStatus) IsTerminal() bool {
	switch s {
	case ExecutionSucceeded, ExecutionFailed, ExecutionCancelled:
		return true
	}
	return false
}

// QueryExecution tracks one asynchronous query submission.
type QueryExecution struct {
	ID          string          `json:"id"`
	SQL         string          `json:"sql"`
	Status      ExecutionStatus `json:"status"`
	Error       string          `json:"error,omitempty"`
	SubmittedAt time.Time       `json:"submitted_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
}
