package optimizer

import (
	"math/rand/v2"
	"time"

	"golang.org/x/exp/constraints"
	"gonum.org/v1/gonum/stat/distuv"
)

//////
// Helper functions.
//////

// Helper function used by PI and EI to compute the cumulative distribution
// function of the standard normal distribution.
func normalCDF(x float64) float64 {
	return distuv.UnitNormal.CDF(x)
}

// Helper function used by EI to compute the probability density function
// of the standard normal distribution.
func normalPDF(x float64) float64 {
	return distuv.UnitNormal.Prob(x)
}

// clamp forces v into [lo, hi].
func clamp[T constraints.Float](v, lo, hi T) T {
	if v < lo {
		return lo
	}

	if v > hi {
		return hi
	}

	return v
}

// normalizeBudget substitutes def for a non-positive budget.
func normalizeBudget(n, def int) int {
	if n <= 0 {
		return def
	}

	return n
}

// newRand returns a generator seeded from seed.
func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// timeRand returns a generator seeded from the current time.
func timeRand() *rand.Rand {
	return newRand(uint64(time.Now().UnixNano()))
}

// perturb moves every channel of c by independent uniform noise in
// [-spread, spread] and clamps the result.
func perturb(c Candidate, spread float64, rng *rand.Rand) Candidate {
	noise := func() float64 { return (rng.Float64()*2 - 1) * spread }

	return Candidate{
		R: c.R + noise(),
		G: c.G + noise(),
		B: c.B + noise(),
	}.Clamp()
}

// sendProgress delivers update without blocking. Updates are skipped if the
// channel is full or nil.
func sendProgress(ch chan<- ProgressUpdate, update ProgressUpdate) {
	if ch == nil {
		return
	}

	select {
	case ch <- update:
	default:
		// Skip update if channel is full.
	}
}
