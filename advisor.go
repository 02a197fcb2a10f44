package optimizer

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// LLMProvider is implemented by language model clients.
type LLMProvider interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// History is what an Advisor knows when it proposes the next candidate.
type History struct {
	Best       Candidate
	BestOutput float64
	Wavelength string
}

// Advisor proposes candidates and explains its proposals.
type Advisor interface {
	Propose(ctx context.Context, h History) (Candidate, error)
	Explain(ctx context.Context, proposal Candidate, h History) (string, error)
}

// TextAdvisor is an Advisor backed by a free-text language model.
type TextAdvisor struct {
	Model LLMProvider
}

// NewTextAdvisor wraps model.
func NewTextAdvisor(model LLMProvider) *TextAdvisor {
	return &TextAdvisor{Model: model}
}

// Propose asks the model for new R, G, B values and parses its answer with
// ParseCandidate.
func (a *TextAdvisor) Propose(ctx context.Context, h History) (Candidate, error) {
	if a == nil || a.Model == nil {
		return Candidate{}, ErrAdvisorUnavailable
	}

	text, err := a.Model.Generate(ctx, buildSuggestPrompt(h))
	if err != nil {
		return Candidate{}, err
	}

	return ParseCandidate(text)
}

// Explain asks the model for a one-paragraph rationale of proposal.
func (a *TextAdvisor) Explain(ctx context.Context, proposal Candidate, h History) (string, error) {
	if a == nil || a.Model == nil {
		return "", ErrAdvisorUnavailable
	}

	text, err := a.Model.Generate(ctx, buildExplainPrompt(proposal, h))
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(text), nil
}

// ParseCandidate parses exactly three comma-separated numbers and clamps each
// to [0, 1]. Surrounding whitespace and quotes are ignored.
//
// Example:
//
//	c, _ := ParseCandidate("1.5,-0.2,0.3") // {R: 1, G: 0, B: 0.3}
func ParseCandidate(text string) (Candidate, error) {
	trimmed := strings.Trim(strings.TrimSpace(text), "\"'`")

	fields := strings.Split(trimmed, ",")
	if len(fields) != 3 {
		return Candidate{}, fmt.Errorf("%w: expected 3 values, got %d in %q", ErrInvalidSuggestion, len(fields), text)
	}

	values := make([]float64, 3)

	for i, field := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
		if err != nil || math.IsNaN(v) {
			return Candidate{}, fmt.Errorf("%w: %q is not a number", ErrInvalidSuggestion, strings.TrimSpace(field))
		}

		values[i] = v
	}

	return candidateFromSlice(values).Clamp(), nil
}

func buildSuggestPrompt(h History) string {
	return fmt.Sprintf(`Current best RGB for %s is %s with output %s.
Suggest new R, G, B values (between 0.0 and 1.0, inclusive, as floats) to maximize the %s output.
Provide the values as a comma-separated string, e.g., "0.1,0.2,0.3".
Do not include any other text in your response.`,
		h.Wavelength, formatRGB(h.Best), formatOutput(h.BestOutput), h.Wavelength)
}

func buildExplainPrompt(proposal Candidate, h History) string {
	return fmt.Sprintf(`You just suggested RGB values %s to maximize %s output, given the current best RGB was %s with output %s.
Explain your reasoning for these suggested values in one concise paragraph.`,
		formatRGB(proposal), h.Wavelength, formatRGB(h.Best), formatOutput(h.BestOutput))
}

func formatRGB(c Candidate) string {
	return fmt.Sprintf("[%g, %g, %g]", c.R, c.G, c.B)
}

func formatOutput(v float64) string {
	if v == Unmeasured {
		return "unmeasured"
	}

	return strconv.FormatFloat(v, 'g', -1, 64)
}
