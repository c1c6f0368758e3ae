package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/foldfit/foldfit/internal/fit"
	"github.com/foldfit/foldfit/internal/store"
)

// runJob executes a fitting job in the background. Per-generation progress is
// broadcast to SSE subscribers and appended to the job's objective trace; the
// final result is persisted through st when it is not nil.
func runJob(ctx context.Context, jm *JobManager, st store.Store, dataDir string, jobID string) error {
	job, exists := jm.GetJob(jobID)
	if !exists {
		return fmt.Errorf("job not found: %s", jobID)
	}

	err := jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateRunning
	})
	if err != nil {
		return err
	}

	slog.Info("Starting job",
		"job_id", jobID,
		"strategy", job.Problem.Solver.Strategy,
		"samples", len(job.Problem.Samples),
	)

	session, err := fit.NewSession(job.Problem)
	if err != nil {
		markJobFailed(jm, jobID, err)
		return err
	}

	// Objective trace, one JSONL line per generation. Trace failures never
	// fail the job.
	var trace *store.TraceWriter
	if dataDir != "" {
		trace, err = store.NewTraceWriter(dataDir, jobID, false)
		if err != nil {
			slog.Warn("Failed to open objective trace", "job_id", jobID, "error", err)
		} else {
			defer trace.Close()
		}
	}

	cancelled := false
	session.OnProgress(func(generation int, best float64) bool {
		select {
		case <-ctx.Done():
			cancelled = true
			return true
		default:
		}

		jm.UpdateJob(jobID, func(j *Job) {
			j.Generations = generation
			j.BestObjective = best
		})

		if trace != nil {
			entry := store.TraceEntry{
				Generation: generation,
				Objective:  best,
				Timestamp:  time.Now(),
			}
			if err := trace.Write(entry); err != nil {
				slog.Warn("Failed to write trace entry", "job_id", jobID, "error", err)
			}
		}

		jm.broadcaster.Broadcast(ProgressEvent{
			JobID:         jobID,
			State:         StateRunning,
			Generation:    generation,
			BestObjective: best,
			Timestamp:     time.Now(),
		})
		return false
	})

	start := time.Now()
	result, err := session.Run()
	elapsed := time.Since(start)

	if cancelled {
		markJobCancelled(jm, jobID)
		return ctx.Err()
	}
	if err != nil {
		markJobFailed(jm, jobID, err)
		return err
	}

	// Flush the trace before the job is visible as completed.
	if trace != nil {
		if err := trace.Flush(); err != nil {
			slog.Warn("Failed to flush objective trace", "job_id", jobID, "error", err)
		}
	}

	endTime := time.Now()
	err = jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateCompleted
		j.BestObjective = result.Objective
		j.InitialObjective = result.InitialObjective
		j.Generations = result.Iterations
		j.Result = result
		j.EndTime = &endTime
	})
	if err != nil {
		return err
	}

	slog.Info("Job completed",
		"job_id", jobID,
		"elapsed", elapsed,
		"initial_objective", result.InitialObjective,
		"best_objective", result.Objective,
		"converged", result.Converged,
	)

	if st != nil {
		if err := persistResult(st, jobID, job.Problem, result); err != nil {
			slog.Error("Failed to persist fit record", "job_id", jobID, "error", err)
		}
	}

	// Broadcast final completion event
	jm.broadcaster.Broadcast(ProgressEvent{
		JobID:         jobID,
		State:         StateCompleted,
		Generation:    result.Iterations,
		BestObjective: result.Objective,
		Timestamp:     time.Now(),
	})

	return nil
}

// persistResult saves the completed fit as a record, problem included, so it
// survives server restarts and shows up in the jobs CLI.
func persistResult(st store.Store, jobID string, problem fit.Problem, result *fit.Result) error {
	problemJSON, err := json.Marshal(problem)
	if err != nil {
		return fmt.Errorf("failed to serialize problem: %w", err)
	}

	record := store.NewFitRecord(
		jobID,
		result.Theta,
		result.Objective,
		result.InitialObjective,
		result.Iterations,
		result.Converged,
		problemJSON,
	)
	return st.SaveRecord(jobID, record)
}

// markJobFailed marks a job as failed with an error message
func markJobFailed(jm *JobManager, jobID string, err error) {
	endTime := time.Now()
	jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateFailed
		j.Error = err.Error()
		j.EndTime = &endTime
	})
	jm.broadcaster.Broadcast(ProgressEvent{
		JobID:     jobID,
		State:     StateFailed,
		Timestamp: endTime,
	})
	slog.Error("Job failed", "job_id", jobID, "error", err)
}

// markJobCancelled marks a job as cancelled
func markJobCancelled(jm *JobManager, jobID string) {
	endTime := time.Now()
	jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateCancelled
		j.EndTime = &endTime
	})
	jm.broadcaster.Broadcast(ProgressEvent{
		JobID:     jobID,
		State:     StateCancelled,
		Timestamp: endTime,
	})
	slog.Info("Job cancelled", "job_id", jobID)
}
