package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	optimizer "github.com/kareem-Abdelmaqsoud/claude-light-optimizer"
	"github.com/kareem-Abdelmaqsoud/claude-light-optimizer/gemini"
)

// OracleURLEnv overrides the Claude-light base URL.
const OracleURLEnv = "CLAUDE_LIGHT_URL"

// progressBuffer is large enough that a printer keeping up never drops
// updates.
const progressBuffer = 256

// ModelClient is the language model surface the command needs.
type ModelClient interface {
	optimizer.LLMProvider
	CheckModel(ctx context.Context) error
	ListModels(ctx context.Context) ([]gemini.Model, error)
}

// Env holds the process collaborators, so Execute can run against fakes.
type Env struct {
	Stdin  io.Reader
	Stdout io.Writer
	Getenv func(string) string

	// NewOracle builds the oracle for a base URL.
	NewOracle func(baseURL string) optimizer.Oracle

	// NewModel builds the language model client.
	NewModel func(apiKey, model string) (ModelClient, error)
}

// DefaultEnv wires the real process streams, the HTTP oracle and Gemini.
func DefaultEnv() Env {
	return Env{
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Getenv: os.Getenv,
		NewOracle: func(baseURL string) optimizer.Oracle {
			return optimizer.NewHTTPOracle(baseURL)
		},
		NewModel: func(apiKey, model string) (ModelClient, error) {
			client, err := gemini.New(apiKey, gemini.WithModel(model))
			if err != nil {
				return nil, err
			}
			return client, nil
		},
	}
}

// Run parses args and executes them. It returns the semantic exit code.
func Run(ctx context.Context, args []string, env Env) int {
	inv, err := ParseInvocation(args)
	if err != nil {
		fmt.Fprintln(env.Stdout, err)
		return ExitCode(err)
	}

	return Execute(ctx, inv, env)
}

type session struct {
	inv   Invocation
	env   Env
	in    *bufio.Reader
	out   io.Writer
	creds *credentials
}

// Execute runs one invocation.
func Execute(ctx context.Context, inv Invocation, env Env) int {
	in := bufio.NewReader(env.Stdin)

	s := &session{
		inv: inv,
		env: env,
		in:  in,
		out: env.Stdout,
		creds: &credentials{
			getenv: env.Getenv,
			in:     in,
			out:    env.Stdout,
		},
	}

	if inv.ListModels {
		return s.listModels(ctx)
	}

	strategy := inv.Strategy
	if strategy == StrategyInteractive {
		strategy = s.chooseStrategy()
	}

	if strategy == StrategyExit {
		fmt.Fprintln(s.out, "Exiting optimizer. Goodbye!")
		return ExitSuccess
	}

	var advisor optimizer.Advisor
	if strategy.needsModel() {
		var code int
		advisor, code = s.advisor(ctx)
		if code != ExitSuccess {
			return code
		}
	}

	oracle := env.NewOracle(s.oracleURL())

	switch strategy {
	case StrategyLLM:
		if advisor == nil {
			fmt.Fprintln(s.out, "Gemini model not initialized. Cannot perform Gemini optimization.")
			return ExitConfigError
		}
		n := s.askBudget("How many Gemini iterations would you like to run", 0)
		return s.runLLM(ctx, advisor, oracle, n)
	case StrategyLHS:
		n := s.askBudget("How many LHS samples would you like to run", 0)
		return s.runLHS(ctx, oracle, n)
	case StrategyBayesian:
		n := s.askBudget("How many Bayesian optimization iterations would you like to run", optimizer.MinBayesianIterations)
		return s.runBayesian(ctx, oracle, n)
	case StrategyCompare:
		if advisor == nil {
			fmt.Fprintln(s.out, "Gemini model not initialized. Cannot perform comparison with Gemini.")
			return ExitConfigError
		}
		n := s.askBudget("How many iterations/samples for the comparison", 0)
		return s.runCompare(ctx, advisor, oracle, n)
	default:
		fmt.Fprintln(s.out, "Invalid strategy choice. Please enter a number between 1 and 5.")
		return ExitInvalidInvocation
	}
}

func (s *session) oracleURL() string {
	if s.inv.OracleURL != "" {
		return s.inv.OracleURL
	}

	return s.env.Getenv(OracleURLEnv)
}

func (s *session) chooseStrategy() Strategy {
	fmt.Fprintln(s.out, "\nChoose an optimization strategy:")
	fmt.Fprintln(s.out, "1. Gemini Model Reasoning (Interactive)")
	fmt.Fprintln(s.out, "2. Latin Hypercube Sampling (LHS)")
	fmt.Fprintln(s.out, "3. Bayesian Optimization")
	fmt.Fprintln(s.out, "4. Compare Gemini, LHS, and Bayesian")
	fmt.Fprintln(s.out, "5. Exit")
	fmt.Fprint(s.out, "Enter your choice (1-5): ")

	choice, err := strconv.Atoi(s.readLine())
	if err != nil || choice < 1 || choice > int(StrategyExit) {
		return -1
	}

	return Strategy(choice)
}

// advisor builds the Gemini-backed advisor. A missing credential is fatal;
// an unusable model only makes the LLM strategies unavailable, in which case
// the available models are listed and a nil advisor is returned.
func (s *session) advisor(ctx context.Context) (optimizer.Advisor, int) {
	key, err := s.creds.APIKey()
	if err != nil {
		fmt.Fprintf(s.out, "\nError: %v\n", err)
		return nil, ExitConfigError
	}

	model, err := s.env.NewModel(key, s.inv.Model)
	if err == nil {
		err = model.CheckModel(ctx)
	}

	if err != nil {
		fmt.Fprintf(s.out, "Error initializing Gemini model '%s': %v\n", s.inv.Model, err)
		if model != nil {
			s.printModels(ctx, model)
		}
		fmt.Fprintln(s.out, "Please check the available models and pass a valid -model if you wish to use Gemini.")
		return nil, ExitSuccess
	}

	return optimizer.NewTextAdvisor(model), ExitSuccess
}

func (s *session) listModels(ctx context.Context) int {
	key, err := s.creds.APIKey()
	if err != nil {
		fmt.Fprintf(s.out, "\nError: %v\n", err)
		return ExitConfigError
	}

	model, err := s.env.NewModel(key, s.inv.Model)
	if err != nil {
		fmt.Fprintf(s.out, "\nError: %v\n", err)
		return ExitConfigError
	}

	if !s.printModels(ctx, model) {
		return ExitRunFailure
	}

	return ExitSuccess
}

func (s *session) printModels(ctx context.Context, model ModelClient) bool {
	fmt.Fprintln(s.out, "\n--- Listing Available Gemini Models ---")
	defer fmt.Fprintln(s.out, "---------------------------------------")

	models, err := model.ListModels(ctx)
	if err != nil {
		fmt.Fprintf(s.out, "Error listing models: %v\n", err)
		return false
	}

	for _, m := range models {
		if m.SupportsGenerateContent() {
			fmt.Fprintf(s.out, "Model: %s, Supported methods: %v\n", m.Name, m.SupportedGenerationMethods)
		}
	}

	return true
}

// askBudget prompts for a count, defaulting to the -iterations value. Invalid
// or non-positive answers fall back to the default; answers below minimum are
// raised to it.
func (s *session) askBudget(question string, minimum int) int {
	def := s.inv.Iterations
	if s.inv.Strategy != StrategyInteractive {
		return applyMinimum(s.out, def, minimum)
	}

	if minimum > 0 {
		fmt.Fprintf(s.out, "%s (minimum: %d, default: %d)? ", question, minimum, def)
	} else {
		fmt.Fprintf(s.out, "%s (default: %d)? ", question, def)
	}

	line := s.readLine()
	if line == "" {
		return applyMinimum(s.out, def, minimum)
	}

	n, err := strconv.Atoi(line)
	switch {
	case err != nil:
		fmt.Fprintf(s.out, "Invalid input. Using default: %d.\n", def)
		n = def
	case n <= 0:
		fmt.Fprintln(s.out, "Number must be positive. Using default.")
		n = def
	}

	return applyMinimum(s.out, n, minimum)
}

func applyMinimum(out io.Writer, n, minimum int) int {
	if minimum > 0 && n < minimum {
		fmt.Fprintf(out, "Number of iterations must be at least %d. Setting to %d.\n", minimum, minimum)
		return minimum
	}

	return n
}

func (s *session) readLine() string {
	line, _ := s.in.ReadString('\n')
	return strings.TrimSpace(line)
}

// startPrinter drains a progress channel onto out until the returned stop
// function is called.
func (s *session) startPrinter() (chan optimizer.ProgressUpdate, func()) {
	ch := make(chan optimizer.ProgressUpdate, progressBuffer)

	var wg sync.WaitGroup
	wg.Add(1)

	go func() {
		defer wg.Done()
		for update := range ch {
			printProgress(s.out, s.inv.Wavelength, update)
		}
	}()

	return ch, func() {
		close(ch)
		wg.Wait()
	}
}

func (s *session) runLLM(ctx context.Context, advisor optimizer.Advisor, oracle optimizer.Oracle, n int) int {
	fmt.Fprintf(s.out, "\n--- Starting Gemini Optimization (%d iterations) ---\n", n)

	progress, stop := s.startPrinter()

	config := optimizer.DefaultLLMConfig(s.inv.Wavelength)
	config.Iterations = n
	config.Explain = s.inv.Explain
	config.ProgressChan = progress

	res, err := optimizer.RunLLM(ctx, advisor, oracle, config)
	stop()

	if err != nil {
		fmt.Fprintf(s.out, "\nError: %v\n", err)
		return ExitConfigError
	}

	s.printResult("Final Best", res.Best, res.Output)
	return ExitSuccess
}

func (s *session) runLHS(ctx context.Context, oracle optimizer.Oracle, n int) int {
	fmt.Fprintf(s.out, "\n--- Starting Latin Hypercube Sampling (%d samples) ---\n", n)

	progress, stop := s.startPrinter()

	config := optimizer.DefaultLHSConfig(s.inv.Wavelength)
	config.Samples = n
	if s.inv.Seed != 0 {
		config.Seed = s.inv.Seed
	}
	config.ProgressChan = progress

	res := optimizer.RunLHS(ctx, oracle, config)
	stop()

	s.printResult("Final Best", res.Best, res.Output)
	return ExitSuccess
}

func (s *session) runBayesian(ctx context.Context, oracle optimizer.Oracle, n int) int {
	fmt.Fprintf(s.out, "\n--- Starting Bayesian Optimization (%d iterations) ---\n", n)

	progress, stop := s.startPrinter()

	config := optimizer.DefaultBayesianConfig(s.inv.Wavelength)
	config.Iterations = n
	config.Minimize.Seed = s.inv.Seed
	config.ProgressChan = progress

	res := optimizer.RunBayesian(ctx, oracle, config)
	stop()

	s.printResult("Final Best", res.Best, res.Output)
	return ExitSuccess
}

func (s *session) runCompare(ctx context.Context, advisor optimizer.Advisor, oracle optimizer.Oracle, n int) int {
	fmt.Fprintf(s.out, "\n--- Comparing Gemini vs. LHS vs. Bayesian Optimization (%d iterations/samples each) ---\n", n)

	progress, stop := s.startPrinter()

	config := optimizer.DefaultCompareConfig(s.inv.Wavelength)
	config.Budget = n
	config.Explain = s.inv.Explain
	config.Seed = s.inv.Seed
	config.ProgressChan = progress

	outcome, err := optimizer.Compare(ctx, advisor, oracle, config)
	stop()

	if err != nil {
		fmt.Fprintf(s.out, "\nError: %v\n", err)
		return ExitConfigError
	}

	fmt.Fprintln(s.out, "\n--- Comparison Results ---")
	for _, r := range outcome.Results {
		fmt.Fprintf(s.out, "%s Final Best RGB: %s, Output: %s\n", strategyTitle(r.Strategy), r.Best, formatOutput(r.Output))
	}

	fmt.Fprintf(s.out, "The winning strategy is %s with highest %s output: %s\n",
		strategyTitle(outcome.Winner), s.inv.Wavelength, formatOutput(outcome.Output))

	s.printResult("Overall Best", outcome.Best, outcome.Output)
	fmt.Fprintf(s.out, "Winning Strategy: %s\n", strategyTitle(outcome.Winner))
	return ExitSuccess
}

func (s *session) printResult(title string, best optimizer.Candidate, output float64) {
	fmt.Fprintf(s.out, "\n%s RGB found: %s (%s)\n", title, best, best.Hex())
	fmt.Fprintf(s.out, "Highest %s output: %s\n", s.inv.Wavelength, formatOutput(output))
}

func printProgress(out io.Writer, wavelength string, u optimizer.ProgressUpdate) {
	fmt.Fprintf(out, "\n--- %s %s %d/%d ---\n", strategyTitle(u.Strategy), u.Phase, u.CurrentIteration, u.TotalIterations)

	if u.Phase == optimizer.PhaseSuggestionFailed {
		fmt.Fprintf(out, "Error during Gemini interaction or parsing: %v\n", u.Err)
		fmt.Fprintf(out, "Perturbing %s for the next iteration\n", u.Candidate)
		return
	}

	fmt.Fprintf(out, "Tested %s (%s)\n", u.Candidate, u.Candidate.Hex())

	if u.Explanation != "" {
		fmt.Fprintf(out, "Gemini's reasoning: %s\n", u.Explanation)
	}

	if u.Err != nil {
		fmt.Fprintf(out, "Measurement failed or target wavelength not found in output: %v\n", u.Err)
	} else {
		fmt.Fprintf(out, "Measured %s output: %s\n", wavelength, formatOutput(u.Output))
	}

	fmt.Fprintf(out, "Best so far: %s, Output=%s\n", u.CurrentBest, formatOutput(u.CurrentBestOutput))
}

func strategyTitle(label string) string {
	switch label {
	case optimizer.StrategyLLM:
		return "Gemini"
	case optimizer.StrategyLHS:
		return "LHS"
	case optimizer.StrategyBayesian:
		return "Bayesian"
	case optimizer.StrategyTie:
		return "Tie"
	default:
		return label
	}
}

func formatOutput(v float64) string {
	if v == optimizer.Unmeasured {
		return "unmeasured"
	}

	return strconv.FormatFloat(v, 'g', -1, 64)
}
