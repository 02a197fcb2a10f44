package optimizer

import "context"

// DefaultCompareConfig returns a configuration with DefaultBudget.
func DefaultCompareConfig(wavelength string) CompareConfig {
	return CompareConfig{
		Wavelength: wavelength,
		Budget:     DefaultBudget,
	}
}

// Compare runs the LLM, LHS and Bayesian strategies in that order with the
// same budget and returns the one with the highest output. Later strategies
// only win on strict improvement, so ties go to the earlier one and the
// winner is never StrategyTie.
//
// Returns ErrAdvisorUnavailable, without touching the oracle, if advisor is
// nil.
func Compare(ctx context.Context, advisor Advisor, oracle Oracle, config CompareConfig) (Outcome, error) {
	if advisor == nil {
		return Outcome{}, ErrAdvisorUnavailable
	}

	budget := normalizeBudget(config.Budget, DefaultBudget)

	llm, err := RunLLM(ctx, advisor, oracle, compareLLMConfig(config, budget))
	if err != nil {
		return Outcome{}, err
	}

	lhs := RunLHS(ctx, oracle, LHSConfig{
		Wavelength:   config.Wavelength,
		Samples:      budget,
		Seed:         config.Seed,
		ProgressChan: config.ProgressChan,
	})

	bayesianConfig := DefaultBayesianConfig(config.Wavelength)
	bayesianConfig.Iterations = budget
	bayesianConfig.Minimize.Seed = config.Seed
	bayesianConfig.ProgressChan = config.ProgressChan

	bayesian := RunBayesian(ctx, oracle, bayesianConfig)

	return selectWinner(llm, lhs, bayesian), nil
}

// CompareTwo is the legacy two-way comparison of the LLM and LHS strategies.
// Equal outputs produce StrategyTie with the LLM candidate.
func CompareTwo(ctx context.Context, advisor Advisor, oracle Oracle, config CompareConfig) (Outcome, error) {
	if advisor == nil {
		return Outcome{}, ErrAdvisorUnavailable
	}

	budget := normalizeBudget(config.Budget, DefaultBudget)

	llm, err := RunLLM(ctx, advisor, oracle, compareLLMConfig(config, budget))
	if err != nil {
		return Outcome{}, err
	}

	lhs := RunLHS(ctx, oracle, LHSConfig{
		Wavelength:   config.Wavelength,
		Samples:      budget,
		Seed:         config.Seed,
		ProgressChan: config.ProgressChan,
	})

	outcome := Outcome{Results: []Result{llm, lhs}}

	switch {
	case llm.Output > lhs.Output:
		outcome.Best, outcome.Output, outcome.Winner = llm.Best, llm.Output, StrategyLLM
	case lhs.Output > llm.Output:
		outcome.Best, outcome.Output, outcome.Winner = lhs.Best, lhs.Output, StrategyLHS
	default:
		outcome.Best, outcome.Output, outcome.Winner = llm.Best, llm.Output, StrategyTie
	}

	return outcome, nil
}

// selectWinner keeps the first result and lets each later one replace it on
// strict improvement only.
func selectWinner(results ...Result) Outcome {
	outcome := Outcome{Results: results}

	for i, r := range results {
		if i == 0 || r.Output > outcome.Output {
			outcome.Best = r.Best
			outcome.Output = r.Output
			outcome.Winner = r.Strategy
		}
	}

	return outcome
}

func compareLLMConfig(config CompareConfig, budget int) LLMConfig {
	llmConfig := DefaultLLMConfig(config.Wavelength)
	llmConfig.Iterations = budget
	llmConfig.Explain = config.Explain
	llmConfig.RandomState = newRand(config.Seed + 1)
	llmConfig.ProgressChan = config.ProgressChan

	return llmConfig
}
