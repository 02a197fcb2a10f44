package optimizer

import (
	"context"
	"math/rand/v2"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distmv"
	"gonum.org/v1/gonum/stat/samplemv"
)

// DefaultLHSConfig returns a time-seeded configuration with DefaultBudget
// samples.
func DefaultLHSConfig(wavelength string) LHSConfig {
	return LHSConfig{
		Wavelength: wavelength,
		Samples:    DefaultBudget,
		Seed:       timeRand().Uint64(),
	}
}

// LatinHypercube returns n points in the dim-dimensional unit cube such that
// every one of the n equal strata of every dimension holds exactly one point.
func LatinHypercube(n, dim int, seed uint64) [][]float64 {
	if n <= 0 || dim <= 0 {
		return nil
	}

	src := rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)

	batch := mat.NewDense(n, dim, nil)
	samplemv.LatinHypercube{
		Q:   distmv.NewUnitUniform(dim, nil),
		Src: src,
	}.Sample(batch)

	points := make([][]float64, n)
	for i := range points {
		points[i] = mat.Row(nil, i, batch)
	}

	return points
}

// RunLHS measures config.Samples Latin Hypercube points in the RGB cube and
// returns the best one. Exactly Samples oracle calls are made; failed calls
// are skipped. If every call fails the result is (0,0,0) with Unmeasured.
func RunLHS(ctx context.Context, oracle Oracle, config LHSConfig) Result {
	samples := normalizeBudget(config.Samples, DefaultBudget)

	result := Result{
		RunID:    uuid.New(),
		Strategy: StrategyLHS,
		Output:   Unmeasured,
	}

	for i, point := range LatinHypercube(samples, 3, config.Seed) {
		c := candidateFromSlice(point).Clamp()

		update := ProgressUpdate{
			RunID:            result.RunID,
			Strategy:         StrategyLHS,
			Phase:            PhaseSampling,
			CurrentIteration: i + 1,
			TotalIterations:  samples,
			Candidate:        c,
			Output:           Unmeasured,
		}

		output, err := measureAt(ctx, oracle, c, config.Wavelength)
		result.Calls++

		if err != nil {
			update.Err = err
		} else {
			update.Output = output

			if output > result.Output {
				result.Output = output
				result.Best = c
			}
		}

		update.CurrentBest = result.Best
		update.CurrentBestOutput = result.Output
		sendProgress(config.ProgressChan, update)
	}

	return result
}
