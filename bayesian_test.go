package optimizer

import (
	"context"
	"math"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunBayesianRaisesBudget(t *testing.T) {
	var calls atomic.Int64

	config := DefaultBayesianConfig("515nm")
	config.Iterations = 3

	result := RunBayesian(context.Background(), redOracle(&calls), config)

	assert.Equal(t, StrategyBayesian, result.Strategy)
	assert.Equal(t, MinBayesianIterations, result.Calls)
	assert.EqualValues(t, MinBayesianIterations, calls.Load())
}

func TestRunBayesianFindsRed(t *testing.T) {
	progress := make(chan ProgressUpdate, 64)

	config := DefaultBayesianConfig("515nm")
	config.Iterations = 20
	config.ProgressChan = progress

	result := RunBayesian(context.Background(), redOracle(nil), config)

	assert.Equal(t, 20, result.Calls)
	assert.Greater(t, result.Output, 50.0)
	assert.InDelta(t, result.Best.R*100, result.Output, 1e-9)

	updates := drain(progress)
	require.Len(t, updates, 20)

	for i, u := range updates {
		phase := PhaseOptimization
		if i < config.Minimize.InitialPoints {
			phase = PhaseInitialSampling
		}

		assert.Equal(t, phase, u.Phase)
		assert.Equal(t, i+1, u.CurrentIteration)
		assert.Equal(t, 20, u.TotalIterations)
	}

	// The best reported at the end matches the returned result.
	assert.Equal(t, result.Output, updates[len(updates)-1].CurrentBestOutput)
}

func TestRunBayesianAllFailures(t *testing.T) {
	var calls atomic.Int64

	result := RunBayesian(context.Background(), failingOracle(&calls), DefaultBayesianConfig("515nm"))

	assert.EqualValues(t, MinBayesianIterations, calls.Load())
	assert.Equal(t, 0.0, result.Output)
	assert.False(t, math.Signbit(result.Output))
	assert.True(t, result.Measured())

	for _, v := range result.Best.Slice() {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0)
	}
}

func TestRunBayesianReproducible(t *testing.T) {
	config := DefaultBayesianConfig("515nm")
	config.Minimize.Seed = 9

	first := RunBayesian(context.Background(), redOracle(nil), config)
	second := RunBayesian(context.Background(), redOracle(nil), config)

	assert.Equal(t, first.Best, second.Best)
	assert.Equal(t, first.Output, second.Output)
	assert.NotEqual(t, first.RunID, second.RunID)
}
