package optimizer

import "math"

//////
// Available acquisition functions for Bayesian optimization.
// Each function helps decide which points to evaluate next by balancing
// exploration (trying new areas) and exploitation (focusing on known good
// areas). All of them return lower values for more promising points, since
// Minimize minimizes.
//////

// minVariance keeps the acquisition functions finite at observed points.
const minVariance = 1e-12

// UCB implements the confidence-bound acquisition function for minimization
// (the lower confidence bound mean - Beta*sigma).
//
// Parameters:
// - mean: Predicted objective at this point
// - variance: Uncertainty in the prediction
// - params.Beta: Exploration weight (higher = more exploration)
//
// Example:
//
//	params := AcquisitionParams{
//	    Beta: 1.96,
//	}
//	value := UCB(0.5, 0.2, params)
func UCB(mean, variance float64, params AcquisitionParams) float64 {
	return mean - params.Beta*math.Sqrt(math.Max(variance, 0))
}

// ProbabilityOfImprovement returns the negated probability that a point
// improves on params.BestSoFar by at least params.Xi.
//
// When to use:
// - When you want to be conservative in exploring new points
// - When you're fine with small improvements
//
// Example:
//
//	params := AcquisitionParams{
//	    BestSoFar: -1.2,
//	    Xi:        0.01,
//	}
//	prob := ProbabilityOfImprovement(-1.0, 0.2, params)
func ProbabilityOfImprovement(mean, variance float64, params AcquisitionParams) float64 {
	sigma := math.Sqrt(math.Max(variance, minVariance))

	z := (params.BestSoFar - params.Xi - mean) / sigma

	return -normalCDF(z)
}

// ExpectedImprovement returns the negated expected improvement over
// params.BestSoFar. It is the default acquisition function.
//
// When to use:
// - Most commonly used acquisition function
// - When the magnitude of improvement matters
//
// Example:
//
//	params := AcquisitionParams{
//	    BestSoFar: -1.2,
//	    Xi:        0.01,
//	}
//	expected := ExpectedImprovement(-1.0, 0.2, params)
func ExpectedImprovement(mean, variance float64, params AcquisitionParams) float64 {
	sigma := math.Sqrt(math.Max(variance, minVariance))

	improvement := params.BestSoFar - params.Xi - mean
	z := improvement / sigma

	return -(improvement*normalCDF(z) + sigma*normalPDF(z))
}

// ThompsonSampling draws a random sample from the posterior at the point.
//
// Warning:
// - params.RandomState must be set; Minimize sets it from its seed when nil.
func ThompsonSampling(mean, variance float64, params AcquisitionParams) float64 {
	return mean + math.Sqrt(math.Max(variance, 0))*params.RandomState.NormFloat64()
}
