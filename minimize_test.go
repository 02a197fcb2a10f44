package optimizer

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Sample function to be minimized: a bowl centered at (0.3, 0.7).
func testBowl(params ...float64) (float64, error) {
	dx := params[0] - 0.3
	dy := params[1] - 0.7

	return dx*dx + dy*dy, nil
}

func TestMinimizeBowl(t *testing.T) {
	// Using default configuration (Expected Improvement)
	config := DefaultMinimizeConfig()
	config.Calls = 25

	ranges := []ParameterRange[float64]{
		{Min: 0, Max: 1},
		{Min: 0, Max: 1},
	}

	res := Minimize(config, testBowl, ranges...)

	require.Len(t, res.X, 2)
	assert.Len(t, res.Xs, 25)
	assert.Len(t, res.Ys, 25)

	// The reported minimum is the best observation.
	for _, y := range res.Ys {
		assert.GreaterOrEqual(t, y, res.Fun)
	}

	assert.Less(t, res.Fun, 0.1)
}

func TestMinimizeStaysInBounds(t *testing.T) {
	config := DefaultMinimizeConfig()
	config.Calls = 15
	config.AcquisitionFunc = UCB

	ranges := []ParameterRange[float64]{
		{Min: -2, Max: -1},
		{Min: 10, Max: 20},
	}

	res := Minimize(config, func(params ...float64) (float64, error) {
		// Pulls toward a point outside the box.
		return math.Abs(params[0]) + math.Abs(params[1]), nil
	}, ranges...)

	for _, x := range res.Xs {
		assert.GreaterOrEqual(t, x[0], -2.0)
		assert.LessOrEqual(t, x[0], -1.0)
		assert.GreaterOrEqual(t, x[1], 10.0)
		assert.LessOrEqual(t, x[1], 20.0)
	}
}

func TestMinimizeReproducible(t *testing.T) {
	config := DefaultMinimizeConfig()
	config.Calls = 12
	config.Seed = 42

	first := Minimize(config, testBowl, UnitCube()[:2]...)
	second := Minimize(config, testBowl, UnitCube()[:2]...)

	assert.Equal(t, first.Xs, second.Xs)
	assert.Equal(t, first.Fun, second.Fun)
}

func TestMinimizeFailureValue(t *testing.T) {
	config := DefaultMinimizeConfig()
	config.Calls = 11
	config.FailureValue = 0

	calls := 0
	res := Minimize(config, func(params ...float64) (float64, error) {
		calls++

		return 0, errors.New("broken")
	}, UnitCube()...)

	assert.Equal(t, 11, calls)
	assert.Equal(t, 0.0, res.Fun)
	require.NotNil(t, res.X)

	for _, y := range res.Ys {
		assert.Equal(t, 0.0, y)
	}
}

func TestMinimizeFloat32(t *testing.T) {
	config := DefaultMinimizeConfig()
	config.Calls = 12
	config.AcquisitionFunc = ThompsonSampling

	ranges := []ParameterRange[float32]{
		{Min: 1, Max: 100},
		{Min: 1, Max: 3},
	}

	res := Minimize[float32](config, func(params ...float32) (float64, error) {
		return float64(params[0] * params[1]), nil
	}, ranges...)

	assert.Len(t, res.X, 2)
}

func TestMinimizeSmallBudget(t *testing.T) {
	config := DefaultMinimizeConfig()
	config.Calls = 3

	res := Minimize(config, testBowl, UnitCube()[:2]...)

	// Fewer calls than initial points: all of them are random.
	assert.Len(t, res.Ys, 3)
}

func TestMinimizeLengthScaleChangesSelection(t *testing.T) {
	config := DefaultMinimizeConfig()
	config.Calls = 14
	config.InitialPoints = 4
	config.Seed = 5
	config.RefineIterations = 0

	assert.Equal(t, defaultLengthScale, config.LengthScale)

	config.LengthScale = 0.02
	narrow := Minimize(config, testBowl, UnitCube()[:2]...)

	config.LengthScale = 2
	wide := Minimize(config, testBowl, UnitCube()[:2]...)

	// Same seed, same random initial design.
	assert.Equal(t, narrow.Xs[:4], wide.Xs[:4])

	// The surrogate picks different points afterwards.
	assert.NotEqual(t, narrow.Xs[4:], wide.Xs[4:])
}
