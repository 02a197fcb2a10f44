package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	optimizer "github.com/kareem-Abdelmaqsoud/claude-light-optimizer"
	"github.com/kareem-Abdelmaqsoud/claude-light-optimizer/gemini"
)

const (
	ExitSuccess           = 0
	ExitRunFailure        = 1
	ExitInvalidInvocation = 2
	ExitConfigError       = 3
	ExitInternalError     = 4
)

// Strategy is a menu choice.
type Strategy int

const (
	StrategyInteractive Strategy = 0
	StrategyLLM         Strategy = 1
	StrategyLHS         Strategy = 2
	StrategyBayesian    Strategy = 3
	StrategyCompare     Strategy = 4
	StrategyExit        Strategy = 5
)

// needsModel reports whether s requires the language model.
func (s Strategy) needsModel() bool {
	return s == StrategyLLM || s == StrategyCompare
}

// Invocation is the parsed command line.
type Invocation struct {
	Wavelength string
	Iterations int
	Strategy   Strategy
	Model      string
	OracleURL  string
	Explain    bool
	ListModels bool
	Seed       uint64
}

type InvocationError struct {
	ExitCode int
	Message  string
}

func (e *InvocationError) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

func invalidInvocationf(format string, args ...any) error {
	return &InvocationError{ExitCode: ExitInvalidInvocation, Message: fmt.Sprintf(format, args...)}
}

// ParseInvocation parses CLI flags into an Invocation. It does not read the
// environment.
func ParseInvocation(args []string) (Invocation, error) {
	fs := flag.NewFlagSet("claude-optimize", flag.ContinueOnError)
	fs.SetOutput(io.Discard) // parsing errors are returned, not printed

	var inv Invocation
	var strategy int

	fs.StringVar(&inv.Wavelength, "wavelength", "", "The target wavelength to optimize (e.g., 515nm). Required.")
	fs.IntVar(&inv.Iterations, "iterations", optimizer.DefaultBudget, "Iterations for Gemini/Bayesian or samples for LHS.")
	fs.IntVar(&strategy, "strategy", 0, "1=Gemini, 2=LHS, 3=Bayesian, 4=Compare, 5=Exit. Interactive menu if omitted.")
	fs.StringVar(&inv.Model, "model", gemini.DefaultModel, "Gemini model name.")
	fs.StringVar(&inv.OracleURL, "oracle", "", "Claude-light base URL (default $CLAUDE_LIGHT_URL or the public endpoint).")
	fs.BoolVar(&inv.Explain, "explain", true, "Ask Gemini to explain every suggestion.")
	fs.BoolVar(&inv.ListModels, "list-models", false, "List the Gemini models supporting generateContent and exit.")
	fs.Uint64Var(&inv.Seed, "seed", 0, "Seed for LHS, Bayesian optimization and the Gemini fallback.")

	if err := fs.Parse(args); err != nil {
		return Invocation{}, invalidInvocationf("%v", err)
	}
	if fs.NArg() != 0 {
		return Invocation{}, invalidInvocationf("unexpected positional arguments: %q", strings.Join(fs.Args(), " "))
	}

	inv.Wavelength = strings.TrimSpace(inv.Wavelength)
	if inv.Wavelength == "" && !inv.ListModels {
		return Invocation{}, invalidInvocationf("--wavelength is required")
	}

	if strategy < 0 || strategy > int(StrategyExit) {
		return Invocation{}, invalidInvocationf("invalid --strategy %d (expected 1-5)", strategy)
	}
	inv.Strategy = Strategy(strategy)

	if inv.Iterations <= 0 {
		inv.Iterations = optimizer.DefaultBudget
	}

	return inv, nil
}

// ExitCode extracts a semantic exit code from a ParseInvocation error.
// If the error is not a known invocation error, it returns ExitInternalError.
func ExitCode(err error) int {
	var invErr *InvocationError
	if errors.As(err, &invErr) && invErr != nil {
		if invErr.ExitCode != 0 {
			return invErr.ExitCode
		}
		return ExitInvalidInvocation
	}
	return ExitInternalError
}
