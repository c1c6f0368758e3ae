package fit

import (
	"log/slog"
	"math"
)

// EarlyStopConfig controls stagnation-based early stopping of the global
// search, layered on top of the solver's own population-spread criterion.
type EarlyStopConfig struct {
	// Enabled controls whether stagnation detection is active.
	Enabled bool
	// Patience is the number of generations without significant improvement
	// tolerated before stopping.
	Patience int
	// Threshold is the minimum relative improvement of the best objective
	// that counts as progress.
	Threshold float64
}

// DefaultEarlyStopConfig returns the stagnation settings used when a problem
// does not override them.
func DefaultEarlyStopConfig() EarlyStopConfig {
	return EarlyStopConfig{
		Enabled:   true,
		Patience:  200,
		Threshold: 1e-6,
	}
}

// EarlyStopper tracks the best objective across generations and reports when
// the search has stagnated. Its Step method matches the solver's progress
// callback signature, so it can be registered directly via OnProgress.
type EarlyStopper struct {
	config          EarlyStopConfig
	history         []float64
	best            float64
	lastSignificant float64
	staleCount      int
}

// NewEarlyStopper creates a tracker with the given settings.
func NewEarlyStopper(config EarlyStopConfig) *EarlyStopper {
	return &EarlyStopper{
		config:          config,
		best:            math.Inf(1),
		lastSignificant: math.Inf(1),
	}
}

// Step records a generation's best objective and returns true when the
// configured patience has run out.
func (e *EarlyStopper) Step(generation int, best float64) bool {
	if !e.config.Enabled {
		return false
	}

	e.history = append(e.history, best)
	if best < e.best {
		e.best = best
	}

	if len(e.history) == 1 {
		e.lastSignificant = best
		return false
	}

	improvement := (e.lastSignificant - best) / math.Abs(e.lastSignificant)
	if improvement >= e.config.Threshold {
		e.lastSignificant = best
		e.staleCount = 0
		return false
	}

	e.staleCount++
	if e.staleCount >= e.config.Patience {
		slog.Info("early stop: objective stagnated",
			"generation", generation,
			"stale_generations", e.staleCount,
			"best", e.best,
		)
		return true
	}
	return false
}

// Best returns the best objective seen so far.
func (e *EarlyStopper) Best() float64 {
	return e.best
}

// History returns a copy of the per-generation best objectives.
func (e *EarlyStopper) History() []float64 {
	return append([]float64(nil), e.history...)
}

// StaleCount returns the current number of generations without significant
// improvement.
func (e *EarlyStopper) StaleCount() int {
	return e.staleCount
}
