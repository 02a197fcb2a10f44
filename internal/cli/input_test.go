package cli

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	optimizer "github.com/kareem-Abdelmaqsoud/claude-light-optimizer"
	"github.com/kareem-Abdelmaqsoud/claude-light-optimizer/gemini"
)

func TestParseInvocationDefaults(t *testing.T) {
	inv, err := ParseInvocation([]string{"-wavelength", " 515nm "})
	require.NoError(t, err)

	assert.Equal(t, Invocation{
		Wavelength: "515nm",
		Iterations: optimizer.DefaultBudget,
		Strategy:   StrategyInteractive,
		Model:      gemini.DefaultModel,
		Explain:    true,
	}, inv)
}

func TestParseInvocationFlags(t *testing.T) {
	inv, err := ParseInvocation([]string{
		"-wavelength=630nm",
		"-iterations=25",
		"-strategy=3",
		"-model=gemini-2.0-flash",
		"-oracle=http://localhost:5000",
		"-explain=false",
		"-seed=7",
	})
	require.NoError(t, err)

	assert.Equal(t, "630nm", inv.Wavelength)
	assert.Equal(t, 25, inv.Iterations)
	assert.Equal(t, StrategyBayesian, inv.Strategy)
	assert.Equal(t, "gemini-2.0-flash", inv.Model)
	assert.Equal(t, "http://localhost:5000", inv.OracleURL)
	assert.False(t, inv.Explain)
	assert.Equal(t, uint64(7), inv.Seed)
}

func TestParseInvocationNonPositiveIterations(t *testing.T) {
	inv, err := ParseInvocation([]string{"-wavelength=515nm", "-iterations=-4"})
	require.NoError(t, err)

	assert.Equal(t, optimizer.DefaultBudget, inv.Iterations)
}

func TestParseInvocationListModelsNeedsNoWavelength(t *testing.T) {
	inv, err := ParseInvocation([]string{"-list-models"})
	require.NoError(t, err)

	assert.True(t, inv.ListModels)
}

func TestParseInvocationErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "missing wavelength", args: nil},
		{name: "blank wavelength", args: []string{"-wavelength", "  "}},
		{name: "strategy too large", args: []string{"-wavelength=515nm", "-strategy=6"}},
		{name: "strategy negative", args: []string{"-wavelength=515nm", "-strategy=-1"}},
		{name: "positional", args: []string{"-wavelength=515nm", "extra"}},
		{name: "unknown flag", args: []string{"-wavelength=515nm", "-verbose"}},
		{name: "bad int", args: []string{"-wavelength=515nm", "-iterations=ten"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseInvocation(tt.args)
			require.Error(t, err)

			assert.Equal(t, ExitInvalidInvocation, ExitCode(err))
		})
	}
}

func TestExitCodeUnknownError(t *testing.T) {
	assert.Equal(t, ExitInternalError, ExitCode(errors.New("boom")))
	assert.Equal(t, ExitInvalidInvocation, ExitCode(&InvocationError{Message: "x"}))
}

func TestStrategyNeedsModel(t *testing.T) {
	assert.True(t, StrategyLLM.needsModel())
	assert.True(t, StrategyCompare.needsModel())
	assert.False(t, StrategyLHS.needsModel())
	assert.False(t, StrategyBayesian.needsModel())
	assert.False(t, StrategyExit.needsModel())
}
