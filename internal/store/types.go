package store

import (
	"encoding/json"
	"time"
)

// FitRecord is the persisted outcome of one fold fitting job. The problem
// definition is kept as raw JSON so the store stays decoupled from the fit
// package's types.
type FitRecord struct {
	// JobID identifies the fitting job this record belongs to.
	JobID string `json:"jobId"`

	// Theta is the best Fourier parameter vector found so far.
	Theta []float64 `json:"theta"`

	// Objective is the combined penalty at Theta.
	Objective float64 `json:"objective"`

	// InitialObjective is the starting penalty, kept for improvement
	// tracking.
	InitialObjective float64 `json:"initialObjective"`

	// Generations is the solver iteration count at save time.
	Generations int `json:"generations"`

	// Converged reports whether the solver had met its convergence
	// criterion when the record was written. Periodic checkpoints of a
	// running job carry false here.
	Converged bool `json:"converged"`

	// Timestamp records when this record was written.
	Timestamp time.Time `json:"timestamp"`

	// Problem is the JSON problem definition the job was created with,
	// kept for inspection and re-running.
	Problem json.RawMessage `json:"problem,omitempty"`
}

// RecordInfo is FitRecord metadata without the parameter and problem
// payloads, for cheap listings.
type RecordInfo struct {
	JobID       string    `json:"jobId"`
	Objective   float64   `json:"objective"`
	Generations int       `json:"generations"`
	Converged   bool      `json:"converged"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewFitRecord builds a record from job state.
func NewFitRecord(jobID string, theta []float64, objective, initialObjective float64, generations int, converged bool, problem json.RawMessage) *FitRecord {
	return &FitRecord{
		JobID:            jobID,
		Theta:            theta,
		Objective:        objective,
		InitialObjective: initialObjective,
		Generations:      generations,
		Converged:        converged,
		Timestamp:        time.Now(),
		Problem:          problem,
	}
}

// ToInfo strips the record down to its listing metadata.
func (r *FitRecord) ToInfo() RecordInfo {
	return RecordInfo{
		JobID:       r.JobID,
		Objective:   r.Objective,
		Generations: r.Generations,
		Converged:   r.Converged,
		Timestamp:   r.Timestamp,
	}
}

// Validate checks that the record is complete enough to persist.
func (r *FitRecord) Validate() error {
	if r.JobID == "" {
		return &ValidationError{Field: "JobID", Reason: "cannot be empty"}
	}
	if len(r.Theta) < 4 {
		return &ValidationError{Field: "Theta", Reason: "must hold at least 4 fourier parameters"}
	}
	if r.Generations < 0 {
		return &ValidationError{Field: "Generations", Reason: "cannot be negative"}
	}
	if r.Timestamp.IsZero() {
		return &ValidationError{Field: "Timestamp", Reason: "cannot be zero"}
	}
	return nil
}

// ValidationError reports an incomplete or inconsistent fit record.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation error: " + e.Field + " " + e.Reason
}
