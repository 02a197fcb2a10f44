// Package optimizer searches the RGB drive setting of a Claude-light
// apparatus that maximizes the measured output at one wavelength. The
// apparatus is a black box reachable only through an Oracle: set R, G, B in
// [0, 1] and read back a per-wavelength spectrum.
//
// # Features
//
// The package includes the following key features:
//
//   - LLM-guided search: a language model proposes the next candidate from
//     the current best, with a perturbation fallback when its answer is
//     unusable
//   - Latin Hypercube sampling: a space-filling batch of candidates
//   - Bayesian optimization: Gaussian Process regression with acquisition
//     functions, over a fixed call budget and a fixed seed
//   - Comparison harness: all three strategies under the same budget, winner
//     chosen in a fixed order
//   - Progress Monitoring: real-time updates via channels
//
// # Strategies
//
// 1. LLM-guided (RunLLM):
//
//   - Asks an Advisor for a candidate each iteration
//
//   - Keeps a candidate only on strict improvement
//
//   - Falls back to a random perturbation of the last candidate on advisor
//     failure
//
//     config := DefaultLLMConfig("515nm")
//     config.Iterations = 20
//     res, err := RunLLM(ctx, NewTextAdvisor(model), NewHTTPOracle(""), config)
//
// 2. Latin Hypercube sampling (RunLHS):
//
//   - Exactly Samples oracle calls
//
//   - Better coverage than independent uniform sampling
//
//     res := RunLHS(ctx, oracle, DefaultLHSConfig("515nm"))
//
// 3. Bayesian optimization (RunBayesian):
//
//   - Minimizes the negated output with Minimize
//
//   - Failed measurements score NeutralFailureValue
//
//   - At least MinBayesianIterations calls
//
//     res := RunBayesian(ctx, oracle, DefaultBayesianConfig("515nm"))
//
// 4. Comparison (Compare):
//
//   - Runs the three strategies above in order, sharing one budget
//
//   - Ties go to the strategy evaluated first
//
//     outcome, err := Compare(ctx, advisor, oracle, DefaultCompareConfig("515nm"))
//
// CompareTwo keeps the older two-way comparison of the LLM and LHS
// strategies. It is library API only; the command always runs Compare.
// Unlike Compare it reports StrategyTie when both outputs are equal.
//
// # Acquisition Functions
//
// Minimize accepts UCB, ProbabilityOfImprovement, ExpectedImprovement
// (default) and ThompsonSampling. All return lower values for more promising
// points.
//
// # Oracle Calls
//
// Every strategy issues its oracle calls strictly one after the other, and
// HTTPOracle serializes concurrent callers. A failed call never aborts a
// run: it only contributes no information.
//
// # Unmeasured
//
// A Result whose Output is Unmeasured (-1) obtained no valid measurement. It
// loses against any real output, including 0.
package optimizer
