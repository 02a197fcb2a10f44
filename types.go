package optimizer

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/google/uuid"
	colorful "github.com/lucasb-eyer/go-colorful"
	"golang.org/x/exp/constraints"
)

//////
// Const, vars, types.
//////

// Unmeasured is the sentinel output meaning "no valid measurement obtained
// yet". It is always worse than any real output, including 0.
const Unmeasured = -1.0

// DefaultBudget is substituted for any non-positive iteration or sample count.
const DefaultBudget = 10

// Strategy labels, as reported in Result.Strategy and Outcome.Winner.
const (
	StrategyLLM      = "gemini"
	StrategyLHS      = "lhs"
	StrategyBayesian = "bayesian"

	// StrategyTie is only produced by the legacy two-way comparison.
	StrategyTie = "tie"
)

// Progress phases.
const (
	PhaseSuggestion       = "Suggestion"
	PhaseSuggestionFailed = "SuggestionFailed"
	PhaseFallback         = "Fallback"
	PhaseSampling         = "Sampling"
	PhaseInitialSampling  = "InitialSampling"
	PhaseOptimization     = "Optimization"
)

var (
	// ErrMeasurementFailed is the failure marker of an oracle call. Callers
	// treat it as "no information gained this call".
	ErrMeasurementFailed = errors.New("measurement failed")

	// ErrWavelengthMissing is returned when a measurement does not carry the
	// target wavelength.
	ErrWavelengthMissing = errors.New("target wavelength not found in measurement")

	// ErrInvalidSuggestion is returned when the language model text is not
	// exactly three numeric values.
	ErrInvalidSuggestion = errors.New("invalid RGB suggestion")

	// ErrAdvisorUnavailable is returned when an LLM-backed run is requested
	// without a configured advisor.
	ErrAdvisorUnavailable = errors.New("language model advisor is not available")
)

// Candidate is an RGB drive setting for the apparatus. Every channel must lie
// in [0.0, 1.0] before it reaches an Oracle; use Clamp.
type Candidate struct {
	R float64
	G float64
	B float64
}

// Center is the cube center, the usual seed of the LLM strategy.
var Center = Candidate{R: 0.5, G: 0.5, B: 0.5}

// Clamp returns a copy of c with every channel forced into [0, 1].
func (c Candidate) Clamp() Candidate {
	return Candidate{
		R: clamp(c.R, 0, 1),
		G: clamp(c.G, 0, 1),
		B: clamp(c.B, 0, 1),
	}
}

// Slice returns the channels in R, G, B order.
func (c Candidate) Slice() []float64 {
	return []float64{c.R, c.G, c.B}
}

// Color returns the candidate as a colorful.Color.
func (c Candidate) Color() colorful.Color {
	c = c.Clamp()

	return colorful.Color{R: c.R, G: c.G, B: c.B}
}

// Hex renders the candidate as "#rrggbb".
func (c Candidate) Hex() string {
	return c.Color().Hex()
}

// String implements fmt.Stringer.
func (c Candidate) String() string {
	return fmt.Sprintf("R=%.2f, G=%.2f, B=%.2f", c.R, c.G, c.B)
}

// candidateFromSlice builds a Candidate from the first three values of v.
func candidateFromSlice[T constraints.Float](v []T) Candidate {
	return Candidate{R: float64(v[0]), G: float64(v[1]), B: float64(v[2])}
}

// Measurement maps a wavelength label (e.g. "515nm") to the measured output.
type Measurement map[string]float64

// Output returns the value measured at wavelength, if present.
func (m Measurement) Output(wavelength string) (float64, bool) {
	if m == nil {
		return 0, false
	}

	v, ok := m[wavelength]

	return v, ok
}

// Result is what a strategy run leaves behind.
type Result struct {
	// RunID identifies the strategy run in progress updates.
	RunID uuid.UUID

	// Strategy is one of StrategyLLM, StrategyLHS, StrategyBayesian.
	Strategy string

	// Best is the best candidate found.
	Best Candidate

	// Output is the output measured at Best, or Unmeasured.
	Output float64

	// Calls is the number of oracle calls the run issued.
	Calls int
}

// Measured reports whether Output is a value rather than the Unmeasured
// sentinel. A Bayesian run whose calls all failed reports the neutral failure
// value, so it counts as measured.
func (r Result) Measured() bool {
	return r.Output != Unmeasured
}

// Outcome is the aggregate of a comparison run.
type Outcome struct {
	// Best is the winning candidate.
	Best Candidate

	// Output is the winning output.
	Output float64

	// Winner is the label of the winning strategy, or StrategyTie.
	Winner string

	// Results holds every strategy result, in evaluation order.
	Results []Result
}

// ProgressUpdate represents the current state of a strategy run. Updates are
// sent with a non-blocking send and are dropped if the channel is full.
type ProgressUpdate struct {
	// RunID identifies the strategy run.
	RunID uuid.UUID

	// Strategy is the label of the running strategy.
	Strategy string

	// Phase indicates what the strategy is doing; one of the Phase*
	// constants.
	Phase string

	// CurrentIteration is the 1-based iteration number.
	CurrentIteration int

	// TotalIterations is the budget of the run.
	TotalIterations int

	// Candidate holds the candidate tested in this iteration.
	Candidate Candidate

	// Output is the output measured for Candidate, or Unmeasured.
	Output float64

	// CurrentBest holds the best candidate found so far.
	CurrentBest Candidate

	// CurrentBestOutput holds the best output found so far.
	CurrentBestOutput float64

	// Explanation is the advisor's rationale, if one was requested.
	Explanation string

	// Err is the failure absorbed during this iteration, if any.
	Err error
}

// ParameterRange defines the valid range for one dimension of the search
// space.
//
// Validation:
// - Min must be less than or equal to Max
// - The range is inclusive of both Min and Max values
type ParameterRange[T constraints.Float] struct {
	// Min defines the minimum allowed value (inclusive).
	Min T

	// Max defines the maximum allowed value (inclusive).
	Max T
}

// UnitCube is the RGB search space.
func UnitCube() []ParameterRange[float64] {
	return []ParameterRange[float64]{
		{Min: 0, Max: 1},
		{Min: 0, Max: 1},
		{Min: 0, Max: 1},
	}
}

// ObjectiveFunc defines the signature for functions minimized by Minimize.
//
// Parameters:
//   - params: one value per ParameterRange given to Minimize
//
// Returns:
//   - float64: the objective value (lower is better)
//   - error: non-nil if the evaluation failed; Minimize then records
//     MinimizeConfig.FailureValue instead
type ObjectiveFunc[T constraints.Float] func(params ...T) (float64, error)

// AcquisitionFunc defines the signature for acquisition functions used in the
// Bayesian optimization process. These functions help decide which points in
// the search space should be evaluated next.
//
// Parameters:
// - mean: The predicted mean objective at a point (lower is better)
// - variance: The predicted variance/uncertainty at that point
// - params: Additional parameters needed by specific acquisition functions
//
// Returns:
// - float64: Acquisition value (lower values indicate more promising points)
//
// Built-in acquisition functions:
// - UCB: Upper Confidence Bound (lower bound, since we minimize)
// - ProbabilityOfImprovement: Probability of finding better value
// - ExpectedImprovement: Expected magnitude of improvement
// - ThompsonSampling: Random sampling from posterior
type AcquisitionFunc func(mean, variance float64, params AcquisitionParams) float64

// AcquisitionParams holds parameters used by the acquisition functions.
type AcquisitionParams struct {
	// Beta controls the exploration-exploitation trade-off in UCB.
	// Higher values encourage more exploration of uncertain areas.
	Beta float64

	// Xi is the minimum improvement required by PI and EI.
	Xi float64

	// BestSoFar is the best (lowest) objective value observed so far, in the
	// same normalized units as the surrogate's predictions. It is updated by
	// Minimize before every selection round.
	BestSoFar float64

	// RandomState is the random number generator used by Thompson Sampling.
	// Minimize sets it from MinimizeConfig.Seed when nil.
	RandomState *rand.Rand
}

// MinimizeConfig holds all configuration parameters for Minimize.
//
// Usage example:
//
//	config := DefaultMinimizeConfig()
//	config.Calls = 20
//	config.AcquisitionFunc = UCB
//	config.AcqParams.Beta = 1.96
type MinimizeConfig struct {
	// Calls is the total number of objective evaluations.
	Calls int

	// InitialPoints is the number of random evaluations made before the
	// surrogate model starts guiding the search. Capped at Calls.
	InitialPoints int

	// NumCandidates is the number of random candidates scored by the
	// acquisition function in each guided iteration.
	NumCandidates int

	// LengthScale is the RBF kernel length scale of the surrogate, in
	// unit-cube coordinates. Non-positive values keep the default.
	LengthScale float64

	// RefineIterations bounds the Nelder-Mead refinement of the most
	// promising candidate. Zero disables refinement.
	RefineIterations int

	// AcquisitionFunc determines the strategy for selecting the next point.
	AcquisitionFunc AcquisitionFunc

	// AcqParams holds the parameters for the acquisition function.
	AcqParams AcquisitionParams

	// FailureValue is recorded when the objective returns an error.
	FailureValue float64

	// Seed makes the run reproducible.
	Seed uint64
}

// MinimizeResult is the outcome of Minimize.
type MinimizeResult[T constraints.Float] struct {
	// X is the best point observed.
	X []T

	// Fun is the objective value at X.
	Fun float64

	// Xs and Ys hold every evaluation in call order.
	Xs [][]T
	Ys []float64
}

// LLMConfig configures RunLLM.
type LLMConfig struct {
	// Wavelength is the target wavelength label, e.g. "515nm".
	Wavelength string

	// Iterations is the number of iterations. Non-positive values fall back
	// to DefaultBudget.
	Iterations int

	// Seed is the initial best candidate.
	Seed Candidate

	// SeedOutput is the output known for Seed, usually Unmeasured.
	SeedOutput float64

	// Explain asks the advisor for a rationale of each proposal.
	Explain bool

	// RandomState drives the perturbation fallback. If nil, a time-seeded
	// generator is used.
	RandomState *rand.Rand

	// ProgressChan receives one update per iteration. If nil, no updates
	// are sent.
	ProgressChan chan<- ProgressUpdate
}

// LHSConfig configures RunLHS.
type LHSConfig struct {
	// Wavelength is the target wavelength label.
	Wavelength string

	// Samples is the number of points to measure. Non-positive values fall
	// back to DefaultBudget.
	Samples int

	// Seed makes the design reproducible.
	Seed uint64

	// ProgressChan receives one update per sample. If nil, no updates are
	// sent.
	ProgressChan chan<- ProgressUpdate
}

// BayesianConfig configures RunBayesian.
type BayesianConfig struct {
	// Wavelength is the target wavelength label.
	Wavelength string

	// Iterations is the oracle call budget. Values below
	// MinBayesianIterations are raised to it.
	Iterations int

	// Minimize holds the optimizer settings. Calls is overwritten by
	// RunBayesian. Minimize.FailureValue is the objective
	// recorded when a measurement fails (NeutralFailureValue by default).
	Minimize MinimizeConfig

	// ProgressChan receives one update per oracle call. If nil, no updates
	// are sent.
	ProgressChan chan<- ProgressUpdate
}

// CompareConfig configures Compare and CompareTwo.
type CompareConfig struct {
	// Wavelength is the target wavelength label.
	Wavelength string

	// Budget is used as iterations for the LLM and Bayesian strategies and
	// as sample count for LHS. Non-positive values fall back to
	// DefaultBudget.
	Budget int

	// Explain asks the advisor for a rationale of each proposal.
	Explain bool

	// Seed drives the LHS design, the Bayesian optimizer and the LLM
	// fallback perturbation.
	Seed uint64

	// ProgressChan receives the updates of every strategy. If nil, no
	// updates are sent.
	ProgressChan chan<- ProgressUpdate
}
