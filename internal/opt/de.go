package opt

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat"
)

// Population init schemes.
const (
	InitHalton = "halton"
	InitRandom = "random"
)

// VariantBest2Exp mutates around the current best with two difference pairs
// and exponential crossover.
const VariantBest2Exp = "best2exp"

// minPopulation is the smallest population able to draw the four distinct
// difference vectors best2exp needs.
const minPopulation = 6

// GlobalConfig configures the differential evolution backend. The zero value
// of every field selects the default documented on it.
type GlobalConfig struct {
	// Bounds holds one (min, max) pair per parameter. Required.
	Bounds [][2]float64
	// Init selects the population seeding scheme. Default InitHalton.
	Init string
	// PopSize is the total population size. Default 15 * dim, at least 20.
	PopSize int
	// MaxGenerations bounds the evolution. Default 5000.
	MaxGenerations int
	// Seed drives the pseudo-random generator. Default 80.
	Seed int64
	// Polish runs a local refinement pass on the best candidate after the
	// global search finishes.
	Polish bool
	// Variant names the mutation/crossover scheme. Default VariantBest2Exp.
	Variant string
	// Mutation bounds the per-generation mutation scale dithering.
	// Default [0.3, 0.99).
	Mutation [2]float64
	// Recombination is the crossover probability. Default 0.7.
	Recombination float64
	// Tol is the relative convergence tolerance on the population energies.
	// Default 0.01.
	Tol float64
	// Workers > 1 evaluates each generation's trial population concurrently.
	// The objective must then be safe for concurrent calls with disjoint
	// parameter vectors.
	Workers int
	// Callback, if set, is invoked after every generation with the best
	// energy so far; returning true stops the search.
	Callback func(generation int, best float64) bool
}

func (cfg GlobalConfig) withDefaults() GlobalConfig {
	dim := len(cfg.Bounds)
	if cfg.Init == "" {
		cfg.Init = InitHalton
	}
	if cfg.PopSize == 0 {
		cfg.PopSize = 15 * dim
		if cfg.PopSize < 20 {
			cfg.PopSize = 20
		}
	}
	if cfg.PopSize < minPopulation {
		cfg.PopSize = minPopulation
	}
	if cfg.MaxGenerations == 0 {
		cfg.MaxGenerations = 5000
	}
	if cfg.Seed == 0 {
		cfg.Seed = 80
	}
	if cfg.Variant == "" {
		cfg.Variant = VariantBest2Exp
	}
	if cfg.Mutation == [2]float64{} {
		cfg.Mutation = [2]float64{0.3, 0.99}
	}
	if cfg.Recombination == 0 {
		cfg.Recombination = 0.7
	}
	if cfg.Tol == 0 {
		cfg.Tol = 0.01
	}
	return cfg
}

// GlobalSearch minimizes the objective over axis-aligned bounds with
// differential evolution. The run is deterministic for a fixed seed and a
// deterministic objective, including under parallel evaluation: the random
// stream touches only trial generation, which stays serial.
func GlobalSearch(objective Objective, cfg GlobalConfig) (*Result, error) {
	cfg = cfg.withDefaults()

	dim := len(cfg.Bounds)
	if dim == 0 {
		return nil, errors.New("global search: bounds are required")
	}
	for i, b := range cfg.Bounds {
		if b[0] > b[1] {
			return nil, fmt.Errorf("global search: bounds[%d]: min %v exceeds max %v", i, b[0], b[1])
		}
	}
	if cfg.Variant != VariantBest2Exp {
		return nil, fmt.Errorf("global search: unsupported variant %q", cfg.Variant)
	}

	rng := rand.New(rand.NewSource(cfg.Seed))

	pop := initPopulation(cfg, rng)
	energies := make([]float64, cfg.PopSize)
	evals, err := evalAll(objective, pop, energies, cfg.Workers)
	if err != nil {
		return nil, err
	}

	bestIdx := argmin(energies)

	res := &Result{ConstraintsSatisfied: true, Message: "maximum generations reached"}
	trials := make([][]float64, cfg.PopSize)
	trialEnergies := make([]float64, cfg.PopSize)

	for gen := 1; gen <= cfg.MaxGenerations; gen++ {
		res.Iterations = gen

		// Mutation scale dithers once per generation.
		f := cfg.Mutation[0] + rng.Float64()*(cfg.Mutation[1]-cfg.Mutation[0])

		for i := range trials {
			trials[i] = mutateBest2Exp(pop, i, bestIdx, f, cfg, rng)
		}

		n, err := evalAll(objective, trials, trialEnergies, cfg.Workers)
		if err != nil {
			return nil, err
		}
		evals += n

		for i := range pop {
			if trialEnergies[i] <= energies[i] {
				pop[i], trials[i] = trials[i], pop[i]
				energies[i] = trialEnergies[i]
				if energies[i] < energies[bestIdx] {
					bestIdx = i
				}
			}
		}

		if populationConverged(energies, cfg.Tol) {
			res.Converged = true
			res.Message = "population energies converged"
			break
		}
		if cfg.Callback != nil && cfg.Callback(gen, energies[bestIdx]) {
			res.Converged = true
			res.Message = "stopped by convergence callback"
			break
		}
	}

	res.X = append([]float64(nil), pop[bestIdx]...)
	res.F = energies[bestIdx]
	res.Evaluations = evals

	if cfg.Polish {
		if err := polish(objective, cfg.Bounds, res); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// initPopulation seeds the initial population over the bounded box.
func initPopulation(cfg GlobalConfig, rng *rand.Rand) [][]float64 {
	dim := len(cfg.Bounds)
	pop := make([][]float64, cfg.PopSize)
	useHalton := cfg.Init == InitHalton && dim <= len(haltonPrimes)

	for i := range pop {
		var unit []float64
		if useHalton {
			unit = haltonPoint(i+1, dim)
		} else {
			unit = make([]float64, dim)
			for d := range unit {
				unit[d] = rng.Float64()
			}
		}
		p := make([]float64, dim)
		for d, b := range cfg.Bounds {
			p[d] = b[0] + unit[d]*(b[1]-b[0])
		}
		pop[i] = p
	}
	return pop
}

// mutateBest2Exp builds one trial vector: best + F*(r1 + r2 - r3 - r4) mixed
// into the target by exponential crossover, clipped to bounds.
func mutateBest2Exp(pop [][]float64, target, bestIdx int, f float64, cfg GlobalConfig, rng *rand.Rand) []float64 {
	dim := len(cfg.Bounds)
	r := distinctIndices(len(pop), target, 4, rng)

	mutant := make([]float64, dim)
	for d := 0; d < dim; d++ {
		mutant[d] = pop[bestIdx][d] + f*(pop[r[0]][d]+pop[r[1]][d]-pop[r[2]][d]-pop[r[3]][d])
	}

	trial := append([]float64(nil), pop[target]...)
	start := rng.Intn(dim)
	for l := 0; l < dim; l++ {
		d := (start + l) % dim
		trial[d] = mutant[d]
		if rng.Float64() >= cfg.Recombination {
			break
		}
	}

	for d, b := range cfg.Bounds {
		trial[d] = math.Max(b[0], math.Min(b[1], trial[d]))
	}
	return trial
}

// distinctIndices draws n distinct population indices, none equal to exclude.
func distinctIndices(popSize, exclude, n int, rng *rand.Rand) []int {
	out := make([]int, 0, n)
	for len(out) < n {
		c := rng.Intn(popSize)
		if c == exclude {
			continue
		}
		dup := false
		for _, o := range out {
			if o == c {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, c)
		}
	}
	return out
}

// evalAll fills out[i] with objective(xs[i]), concurrently when workers > 1.
// Returns the number of evaluations performed.
func evalAll(objective Objective, xs [][]float64, out []float64, workers int) (int, error) {
	if workers <= 1 {
		for i, x := range xs {
			v, err := objective(x)
			if err != nil {
				return i, err
			}
			out[i] = v
		}
		return len(xs), nil
	}

	g := new(errgroup.Group)
	g.SetLimit(workers)
	for i := range xs {
		g.Go(func() error {
			v, err := objective(xs[i])
			if err != nil {
				return err
			}
			out[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return len(xs), err
	}
	return len(xs), nil
}

// populationConverged applies the relative spread criterion:
// std(energies) <= tol * |mean(energies)|.
func populationConverged(energies []float64, tol float64) bool {
	mean, std := stat.MeanStdDev(energies, nil)
	if math.IsNaN(std) || math.IsInf(std, 0) {
		return false
	}
	return std <= tol*math.Abs(mean)
}

// polish refines the best candidate with a derivative-free local pass,
// keeping the refined point only when it improves the objective.
func polish(objective Objective, bounds [][2]float64, res *Result) error {
	var objErr error
	wrapped := func(x []float64) float64 {
		for d, b := range bounds {
			if x[d] < b[0] || x[d] > b[1] {
				return math.Inf(1)
			}
		}
		v, err := objective(x)
		if err != nil {
			objErr = err
			return math.Inf(1)
		}
		return v
	}

	problem := optimize.Problem{Func: wrapped}
	local, err := optimize.Minimize(problem, res.X, nil, &optimize.NelderMead{})
	if objErr != nil {
		return objErr
	}
	if err != nil {
		// Polishing is best-effort; keep the global result.
		return nil
	}

	res.Evaluations += local.Stats.FuncEvaluations
	if local.F < res.F {
		res.X = append([]float64(nil), local.X...)
		res.F = local.F
	}
	return nil
}

func argmin(vs []float64) int {
	idx := 0
	for i, v := range vs {
		if v < vs[idx] {
			idx = i
		}
	}
	return idx
}
