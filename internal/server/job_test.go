package server

import (
	"math"
	"testing"
	"time"

	"github.com/foldfit/foldfit/internal/fit"
)

func TestJobManager_CreateJob(t *testing.T) {
	jm := NewJobManager()

	problem := testProblem()
	job := jm.CreateJob(problem)

	if job.ID == "" {
		t.Error("Job ID should not be empty")
	}

	if job.State != StatePending {
		t.Errorf("Initial state should be pending, got %s", job.State)
	}

	if len(job.Problem.Samples) != len(problem.Samples) {
		t.Errorf("Problem not set correctly")
	}
}

func TestJobManager_GetJob(t *testing.T) {
	jm := NewJobManager()

	job := jm.CreateJob(testProblem())

	retrieved, exists := jm.GetJob(job.ID)
	if !exists {
		t.Error("Job should exist")
	}

	if retrieved.ID != job.ID {
		t.Error("Retrieved wrong job")
	}

	_, exists = jm.GetJob("nonexistent")
	if exists {
		t.Error("Should not find nonexistent job")
	}
}

func TestJobManager_ListJobs(t *testing.T) {
	jm := NewJobManager()

	if len(jm.ListJobs()) != 0 {
		t.Error("Should start with no jobs")
	}

	jm.CreateJob(testProblem())
	jm.CreateJob(testProblem())

	jobs := jm.ListJobs()
	if len(jobs) != 2 {
		t.Errorf("Expected 2 jobs, got %d", len(jobs))
	}
}

func TestJobManager_UpdateJob(t *testing.T) {
	jm := NewJobManager()

	job := jm.CreateJob(testProblem())

	err := jm.UpdateJob(job.ID, func(j *Job) {
		j.State = StateRunning
		j.Generations = 10
		j.BestObjective = 123.45
	})

	if err != nil {
		t.Errorf("Update should succeed: %v", err)
	}

	updated, _ := jm.GetJob(job.ID)
	if updated.State != StateRunning {
		t.Error("State should be updated")
	}
	if updated.Generations != 10 {
		t.Error("Generations should be updated")
	}
	if updated.BestObjective != 123.45 {
		t.Error("BestObjective should be updated")
	}

	err = jm.UpdateJob("nonexistent", func(j *Job) {})
	if err == nil {
		t.Error("Update of nonexistent job should fail")
	}
}

func TestJobManager_GetRunningJobs(t *testing.T) {
	jm := NewJobManager()

	running := jm.CreateJob(testProblem())
	jm.CreateJob(testProblem())

	jm.UpdateJob(running.ID, func(j *Job) {
		j.State = StateRunning
	})

	runningJobs := jm.GetRunningJobs()
	if len(runningJobs) != 1 {
		t.Fatalf("Expected 1 running job, got %d", len(runningJobs))
	}
	if runningJobs[0].ID != running.ID {
		t.Error("Wrong job reported as running")
	}
}

func TestJobManager_ThreadSafety(t *testing.T) {
	jm := NewJobManager()

	job := jm.CreateJob(testProblem())

	// Concurrent updates racing against snapshot reads, as a worker goroutine
	// does against the HTTP handlers.
	done := make(chan bool)
	for i := 0; i < 10; i++ {
		go func(generation int) {
			jm.UpdateJob(job.ID, func(j *Job) {
				j.Generations = generation
				j.BestObjective = float64(generation)
				time.Sleep(1 * time.Millisecond)
			})
			done <- true
		}(i)
		go func() {
			if snapshot, exists := jm.GetJob(job.ID); exists {
				_ = snapshot.Generations
				_ = snapshot.BestObjective
			}
			for _, j := range jm.ListJobs() {
				_ = j.State
			}
			done <- true
		}()
	}

	// Wait for all updates and reads
	for i := 0; i < 20; i++ {
		<-done
	}

	_, exists := jm.GetJob(job.ID)
	if !exists {
		t.Error("Job should still exist after concurrent updates")
	}
}

func TestJobManager_GetJobReturnsSnapshot(t *testing.T) {
	jm := NewJobManager()

	job := jm.CreateJob(testProblem())

	before, exists := jm.GetJob(job.ID)
	if !exists {
		t.Fatal("Job should exist")
	}

	if err := jm.UpdateJob(job.ID, func(j *Job) {
		j.State = StateRunning
		j.Generations = 42
	}); err != nil {
		t.Fatalf("UpdateJob failed: %v", err)
	}

	// The earlier snapshot must stay untouched by the update.
	if before.State != StatePending {
		t.Errorf("Snapshot state mutated to %s", before.State)
	}
	if before.Generations != 0 {
		t.Errorf("Snapshot generations mutated to %d", before.Generations)
	}

	after, _ := jm.GetJob(job.ID)
	if after.State != StateRunning || after.Generations != 42 {
		t.Errorf("Fresh snapshot missed the update: %s, %d", after.State, after.Generations)
	}
}

// testProblem builds a small, fast global fitting problem over samples from a
// symmetric fold profile with wavelength 8.
func testProblem() fit.Problem {
	samples := make([]fit.Sample, 0, 9)
	for i := 0; i <= 8; i++ {
		x := float64(i)
		samples = append(samples, fit.Sample{X: x, Angle: 40 * math.Cos(2*math.Pi*x/8)})
	}
	return fit.Problem{
		Samples: samples,
		Solver: fit.SolverOptions{
			Strategy: fit.StrategyGlobal,
			Bounds: [][2]float64{
				{-10, 10},
				{-60, 60},
				{-60, 60},
				{1, 20},
			},
			MaxGenerations: 30,
			Seed:           80,
		},
	}
}
