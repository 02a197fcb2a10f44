package optimizer

import (
	"context"

	"github.com/google/uuid"
)

// fallbackSpread is the half-width of the uniform noise used to perturb the
// last candidate when the advisor fails.
const fallbackSpread = 0.1

// DefaultLLMConfig returns a configuration seeded at the cube center with an
// unmeasured output.
func DefaultLLMConfig(wavelength string) LLMConfig {
	return LLMConfig{
		Wavelength: wavelength,
		Iterations: DefaultBudget,
		Seed:       Center,
		SeedOutput: Unmeasured,
	}
}

// RunLLM runs the LLM-guided search: every iteration asks advisor for a
// candidate given the current best, measures it and keeps it if its output
// at config.Wavelength is strictly higher.
//
// Failure handling:
//   - An oracle failure or a missing wavelength leaves the state unchanged.
//   - An advisor failure (transport, unparsable text) is absorbed: the next
//     iteration measures the last candidate perturbed by uniform noise in
//     [-0.1, 0.1] per channel instead of asking the advisor.
//   - Explanations are informational; their errors are ignored.
//
// The only error returned is ErrAdvisorUnavailable when advisor is nil.
func RunLLM(ctx context.Context, advisor Advisor, oracle Oracle, config LLMConfig) (Result, error) {
	iterations := normalizeBudget(config.Iterations, DefaultBudget)

	result := Result{
		RunID:    uuid.New(),
		Strategy: StrategyLLM,
		Best:     config.Seed.Clamp(),
		Output:   config.SeedOutput,
	}

	if advisor == nil {
		return result, ErrAdvisorUnavailable
	}

	rng := config.RandomState
	if rng == nil {
		rng = timeRand()
	}

	current := result.Best

	var fallback *Candidate

	for i := 0; i < iterations; i++ {
		update := ProgressUpdate{
			RunID:            result.RunID,
			Strategy:         StrategyLLM,
			Phase:            PhaseSuggestion,
			CurrentIteration: i + 1,
			TotalIterations:  iterations,
			Output:           Unmeasured,
		}

		var proposal Candidate

		if fallback != nil {
			proposal = *fallback
			fallback = nil
			update.Phase = PhaseFallback
		} else {
			history := History{
				Best:       result.Best,
				BestOutput: result.Output,
				Wavelength: config.Wavelength,
			}

			suggested, err := advisor.Propose(ctx, history)
			if err != nil {
				next := perturb(current, fallbackSpread, rng)
				fallback = &next

				update.Phase = PhaseSuggestionFailed
				update.Candidate = current
				update.Err = err
				update.CurrentBest = result.Best
				update.CurrentBestOutput = Unmeasured
				sendProgress(config.ProgressChan, update)

				continue
			}

			proposal = suggested.Clamp()

			if config.Explain {
				if text, err := advisor.Explain(ctx, proposal, history); err == nil {
					update.Explanation = text
				}
			}
		}

		current = proposal
		update.Candidate = proposal

		output, err := measureAt(ctx, oracle, proposal, config.Wavelength)
		result.Calls++

		if err != nil {
			update.Err = err
		} else {
			update.Output = output

			if output > result.Output {
				result.Output = output
				result.Best = proposal
			}
		}

		update.CurrentBest = result.Best
		update.CurrentBestOutput = result.Output
		sendProgress(config.ProgressChan, update)
	}

	return result, nil
}
