package optimizer

import (
	"math"

	"golang.org/x/exp/constraints"
	"gonum.org/v1/gonum/optimize"
)

//////
// Exported functionalities.
//////

// DefaultMinimizeConfig returns a default configuration: 10 random initial
// points, Expected Improvement, seed 0.
func DefaultMinimizeConfig() MinimizeConfig {
	return MinimizeConfig{
		Calls:            50,
		InitialPoints:    10,
		NumCandidates:    500,
		RefineIterations: 40,
		LengthScale:      defaultLengthScale,
		AcquisitionFunc:  ExpectedImprovement,
		AcqParams: AcquisitionParams{
			Beta: 1.96,
			Xi:   0.01,
		},
		FailureValue: 0,
		Seed:         0,
	}
}

// Minimize uses Bayesian optimization to find the point minimizing objective
// inside the box defined by hypers. It combines Gaussian Process regression
// with acquisition functions to decide where to evaluate next.
//
// Type Parameter:
//   - T: The floating-point type of the parameters
//
// Parameters:
// - config: MinimizeConfig controlling the optimization process
// - objective: The function to minimize
// - hypers: One ParameterRange per dimension
//
// Returns:
// - MinimizeResult[T]: best point, its value and every evaluation
//
// Usage example:
//
//	res := Minimize(
//	    DefaultMinimizeConfig(),
//	    func(params ...float64) (float64, error) {
//	        return (params[0] - 0.3) * (params[0] - 0.3), nil
//	    },
//	    ParameterRange[float64]{Min: 0, Max: 1},
//	)
//
// How it works:
// 1. Evaluates InitialPoints random points to build the initial model
// 2. Until Calls evaluations are done:
//   - Scores NumCandidates random points with the acquisition function
//   - Refines the most promising one with Nelder-Mead inside the box
//   - Evaluates the selected point
//   - Updates the model with the new result
//
// 3. Returns the best point observed
//
// Important notes:
// - Exactly Calls evaluations are made, strictly one after the other
// - A failed evaluation is recorded as FailureValue
// - The same Seed and objective give the same sequence of points
func Minimize[T constraints.Float](
	config MinimizeConfig,
	objective ObjectiveFunc[T],
	hypers ...ParameterRange[T],
) MinimizeResult[T] {
	calls := normalizeBudget(config.Calls, DefaultBudget)

	initial := config.InitialPoints
	if initial <= 0 {
		initial = 1
	}

	if initial > calls {
		initial = calls
	}

	numCandidates := config.NumCandidates
	if numCandidates <= 0 {
		numCandidates = 1
	}

	acquisitionFunc := config.AcquisitionFunc
	if acquisitionFunc == nil {
		acquisitionFunc = ExpectedImprovement
	}

	rng := newRand(config.Seed)

	if config.AcqParams.RandomState == nil {
		config.AcqParams.RandomState = newRand(config.Seed + 1)
	}

	// randomUnit draws a point in the unit cube of len(hypers) dimensions.
	randomUnit := func() []float64 {
		u := make([]float64, len(hypers))
		for i := range u {
			u[i] = rng.Float64()
		}

		return u
	}

	// fromUnit maps a unit-cube point into the parameter box.
	fromUnit := func(u []float64) []T {
		params := make([]T, len(hypers))
		for i, hyper := range hypers {
			v := float64(hyper.Min) + clamp(u[i], 0, 1)*float64(hyper.Max-hyper.Min)
			params[i] = clamp(T(v), hyper.Min, hyper.Max)
		}

		return params
	}

	// The surrogate works on unit-cube coordinates.
	gp := newGaussianProcess()
	if config.LengthScale > 0 {
		gp.SetSigma(config.LengthScale)
	}

	result := MinimizeResult[T]{
		Fun: math.Inf(1),
		Xs:  make([][]T, 0, calls),
		Ys:  make([]float64, 0, calls),
	}

	evaluate := func(u []float64) {
		params := fromUnit(u)

		y, err := objective(params...)
		if err != nil || math.IsNaN(y) || math.IsInf(y, 0) {
			y = config.FailureValue
		}

		gp.Update(u, y)

		result.Xs = append(result.Xs, params)
		result.Ys = append(result.Ys, y)

		if y < result.Fun {
			result.Fun = y
			result.X = params
		}
	}

	// Phase 1: Initial random sampling.
	for i := 0; i < initial; i++ {
		evaluate(randomUnit())
	}

	// Phase 2: Bayesian optimization loop.
	for i := initial; i < calls; i++ {
		config.AcqParams.BestSoFar = gp.Standardize(result.Fun)

		score := func(u []float64) float64 {
			mean, variance := gp.Predict(u)

			return acquisitionFunc(mean, variance, config.AcqParams)
		}

		var next []float64
		bestAcquisition := math.Inf(1)

		for j := 0; j < numCandidates; j++ {
			candidate := randomUnit()

			if acquisition := score(candidate); acquisition < bestAcquisition || next == nil {
				bestAcquisition = acquisition
				next = candidate
			}
		}

		if refined, ok := refine(score, next, config.RefineIterations); ok {
			if acquisition := score(refined); acquisition < bestAcquisition {
				next = refined
			}
		}

		evaluate(next)
	}

	return result
}

// refine runs a bounded Nelder-Mead search on score starting at x0. Points
// outside the unit cube are clamped before scoring.
func refine(score func([]float64) float64, x0 []float64, iterations int) ([]float64, bool) {
	if iterations <= 0 {
		return nil, false
	}

	clampUnit := func(x []float64) []float64 {
		u := make([]float64, len(x))
		for i, v := range x {
			u[i] = clamp(v, 0, 1)
		}

		return u
	}

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			return score(clampUnit(x))
		},
	}

	settings := &optimize.Settings{
		MajorIterations: iterations,
	}

	// Hitting the iteration limit is reported as an error; the location
	// reached so far is still usable.
	res, _ := optimize.Minimize(problem, x0, settings, &optimize.NelderMead{})
	if res == nil || len(res.X) != len(x0) {
		return nil, false
	}

	return clampUnit(res.X), true
}
