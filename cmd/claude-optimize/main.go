// Command claude-optimize searches the Claude-light RGB input maximizing the
// output at one wavelength, with Gemini suggestions, Latin Hypercube sampling,
// Bayesian optimization, or a comparison of the three.
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/kareem-Abdelmaqsoud/claude-light-optimizer/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := cli.Run(ctx, os.Args[1:], cli.DefaultEnv())
	stop()
	os.Exit(code)
}
