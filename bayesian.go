package optimizer

import (
	"context"

	"github.com/google/uuid"
)

// MinBayesianIterations is the smallest call budget giving a stable
// surrogate fit. Smaller budgets are raised to it.
const MinBayesianIterations = 10

// NeutralFailureValue is the objective recorded for a failed measurement. It
// treats failures as mediocre rather than catastrophic.
const NeutralFailureValue = 0.0

// DefaultBayesianConfig returns a configuration with seed 0, Expected
// Improvement and MinBayesianIterations calls.
func DefaultBayesianConfig(wavelength string) BayesianConfig {
	minimize := DefaultMinimizeConfig()
	minimize.FailureValue = NeutralFailureValue

	return BayesianConfig{
		Wavelength: wavelength,
		Iterations: MinBayesianIterations,
		Minimize:   minimize,
	}
}

// RunBayesian maximizes the output at config.Wavelength by minimizing its
// negation with Minimize over the RGB cube. Failed measurements score
// Minimize.FailureValue. The returned output is the negated minimum, with the
// point where it was observed.
func RunBayesian(ctx context.Context, oracle Oracle, config BayesianConfig) Result {
	iterations := config.Iterations
	if iterations < MinBayesianIterations {
		iterations = MinBayesianIterations
	}

	result := Result{
		RunID:    uuid.New(),
		Strategy: StrategyBayesian,
		Output:   Unmeasured,
	}

	minimizeConfig := config.Minimize
	minimizeConfig.Calls = iterations

	initial := minimizeConfig.InitialPoints
	if initial > iterations {
		initial = iterations
	}

	best, bestOutput := Candidate{}, Unmeasured

	objective := func(params ...float64) (float64, error) {
		c := candidateFromSlice(params).Clamp()

		result.Calls++

		phase := PhaseOptimization
		if result.Calls <= initial {
			phase = PhaseInitialSampling
		}

		update := ProgressUpdate{
			RunID:            result.RunID,
			Strategy:         StrategyBayesian,
			Phase:            phase,
			CurrentIteration: result.Calls,
			TotalIterations:  iterations,
			Candidate:        c,
			Output:           Unmeasured,
		}

		output, err := measureAt(ctx, oracle, c, config.Wavelength)
		if err != nil {
			update.Err = err
			update.CurrentBest = best
			update.CurrentBestOutput = bestOutput
			sendProgress(config.ProgressChan, update)

			return 0, err
		}

		if output > bestOutput {
			best, bestOutput = c, output
		}

		update.Output = output
		update.CurrentBest = best
		update.CurrentBestOutput = bestOutput
		sendProgress(config.ProgressChan, update)

		return -output, nil
	}

	res := Minimize(minimizeConfig, objective, UnitCube()...)
	if res.X == nil {
		return result
	}

	result.Best = candidateFromSlice(res.X).Clamp()
	result.Output = -res.Fun

	// Avoid reporting -0 when the minimum is a failure scored as 0.
	if result.Output == 0 {
		result.Output = 0
	}

	return result
}
