package optimizer

import (
	"math"
	"sync"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

//////
// Const, vars, types.
//////

// defaultNoise is added to the kernel diagonal. It models measurement noise
// and keeps the Cholesky factorization well conditioned.
const defaultNoise = 1e-6

// defaultLengthScale suits inputs scaled to the unit cube.
const defaultLengthScale = 0.25

// gaussianProcess implements a thread-safe Gaussian Process regression model
// with multidimensional inputs. It predicts the objective at untested
// candidates from previously observed results.
//
// Fields:
// - mu: RWMutex for thread-safe access to all fields
// - X: Slice of observed input points
// - Y: Slice of observed values at each input point
// - sigma: RBF length scale
// - noise: variance added to the kernel diagonal
//
// Targets are standardized before fitting; Predict returns mean and variance
// in standardized units, which is also what the acquisition functions see.
type gaussianProcess struct {
	// mu protects access to all fields
	mu sync.RWMutex

	// X stores the input points. Length of inner slices must be consistent.
	X [][]float64

	// Y stores the observed values at each point in X.
	Y []float64

	// sigma is the kernel length scale
	// Larger values = smoother interpolation
	// Smaller values = more local influence
	sigma float64

	noise float64

	// yMean and yStd standardize Y.
	yMean, yStd float64

	// chol and alpha are refreshed on every Update.
	chol  *mat.Cholesky
	alpha *mat.VecDense
}

//////
// Methods.
//////

// rbf implements the Radial Basis Function kernel.
//
// Mathematical formula:
//
//	k(x1, x2) = exp(-sum((x1 - x2)^2) / (2 * sigma^2))
//
// Important notes:
// - Panics if input vectors have different lengths
// - Returns 1.0 for identical points
func rbf(x1, x2 []float64, sigma float64) float64 {
	if len(x1) != len(x2) {
		panic("input vectors must have the same length")
	}

	var sum float64

	for i := range x1 {
		diff := x1[i] - x2[i]

		sum += diff * diff
	}

	return math.Exp(-sum / (2 * sigma * sigma))
}

// Predict estimates the standardized objective and its uncertainty at x.
//
// Returns:
// - mean: Expected standardized objective at x
// - variance: Posterior variance (higher = less certain)
//
// Returns (0, 1), the prior, if no observations exist.
func (gp *gaussianProcess) Predict(x []float64) (mean, variance float64) {
	gp.mu.RLock()
	defer gp.mu.RUnlock()

	if len(gp.X) == 0 || gp.chol == nil {
		return 0, 1
	}

	n := len(gp.X)

	k := mat.NewVecDense(n, nil)
	for i := range gp.X {
		k.SetVec(i, rbf(x, gp.X[i], gp.sigma))
	}

	mean = mat.Dot(k, gp.alpha)

	v := mat.NewVecDense(n, nil)
	if err := gp.chol.SolveVecTo(v, k); err != nil {
		return mean, 1
	}

	variance = 1 - mat.Dot(k, v)
	if variance < 0 {
		variance = 0
	}

	return mean, variance
}

// Standardize maps a raw objective value into the units Predict returns.
func (gp *gaussianProcess) Standardize(y float64) float64 {
	gp.mu.RLock()
	defer gp.mu.RUnlock()

	return (y - gp.yMean) / gp.yStd
}

// Update adds a new observation and refits the model.
//
// Important notes:
// - Creates a deep copy of input slice x to prevent external modifications
// - Refit is O(n^3) in the number of observations
func (gp *gaussianProcess) Update(x []float64, y float64) {
	gp.mu.Lock()
	defer gp.mu.Unlock()

	newX := make([]float64, len(x))
	copy(newX, x)

	gp.X = append(gp.X, newX)
	gp.Y = append(gp.Y, y)

	gp.fit()
}

// fit standardizes Y and factorizes the kernel matrix. Callers hold mu.
func (gp *gaussianProcess) fit() {
	n := len(gp.X)

	gp.yMean, gp.yStd = stat.MeanStdDev(gp.Y, nil)
	if n < 2 || gp.yStd == 0 || math.IsNaN(gp.yStd) {
		gp.yStd = 1
	}

	data := make([]float64, n*n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			data[i*n+j] = rbf(gp.X[i], gp.X[j], gp.sigma)
		}

		data[i*n+i] += gp.noise
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(mat.NewSymDense(n, data)); !ok {
		gp.chol, gp.alpha = nil, nil

		return
	}

	y := mat.NewVecDense(n, nil)
	for i, v := range gp.Y {
		y.SetVec(i, (v-gp.yMean)/gp.yStd)
	}

	alpha := mat.NewVecDense(n, nil)
	if err := chol.SolveVecTo(alpha, y); err != nil {
		gp.chol, gp.alpha = nil, nil

		return
	}

	gp.chol, gp.alpha = &chol, alpha
}

// SetSigma updates the kernel length scale and refits the model.
func (gp *gaussianProcess) SetSigma(sigma float64) {
	gp.mu.Lock()
	defer gp.mu.Unlock()

	gp.sigma = sigma

	if len(gp.X) > 0 {
		gp.fit()
	}
}

//////
// Factory.
//////

// newGaussianProcess creates a Gaussian Process model with defaultLengthScale.
func newGaussianProcess() *gaussianProcess {
	return &gaussianProcess{
		sigma: defaultLengthScale,
		noise: defaultNoise,
		yStd:  1,
	}
}
