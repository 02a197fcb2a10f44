package optimizer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedModel replays responses in order and repeats the last one.
type scriptedModel struct {
	responses []string
	errs      []error
	prompts   []string
}

func (m *scriptedModel) Generate(_ context.Context, prompt string) (string, error) {
	i := len(m.prompts)
	m.prompts = append(m.prompts, prompt)

	if i < len(m.errs) && m.errs[i] != nil {
		return "", m.errs[i]
	}

	if len(m.responses) == 0 {
		return "", nil
	}

	if i >= len(m.responses) {
		i = len(m.responses) - 1
	}

	return m.responses[i], nil
}

func TestParseCandidate(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		want    Candidate
		wantErr bool
	}{
		{name: "clamps", text: "1.5,-0.2,0.3", want: Candidate{R: 1, G: 0, B: 0.3}},
		{name: "whitespace and quotes", text: "  \"0.1, 0.2 ,0.3\"\n", want: Candidate{R: 0.1, G: 0.2, B: 0.3}},
		{name: "too few", text: "0.1,0.2", wantErr: true},
		{name: "too many", text: "0.1,0.2,0.3,0.4", wantErr: true},
		{name: "not a number", text: "red,0.2,0.3", wantErr: true},
		{name: "nan", text: "NaN,0.2,0.3", wantErr: true},
		{name: "empty", text: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCandidate(tt.text)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidSuggestion)

				return
			}

			require.NoError(t, err)
			assert.InDelta(t, tt.want.R, got.R, 1e-12)
			assert.InDelta(t, tt.want.G, got.G, 1e-12)
			assert.InDelta(t, tt.want.B, got.B, 1e-12)
		})
	}
}

func TestTextAdvisorPropose(t *testing.T) {
	model := &scriptedModel{responses: []string{"2.0,0.5,0.5"}}
	advisor := NewTextAdvisor(model)

	h := History{Best: Center, BestOutput: Unmeasured, Wavelength: "515nm"}

	c, err := advisor.Propose(context.Background(), h)
	require.NoError(t, err)
	assert.Equal(t, Candidate{R: 1, G: 0.5, B: 0.5}, c)

	require.Len(t, model.prompts, 1)
	assert.Contains(t, model.prompts[0], "515nm")
	assert.Contains(t, model.prompts[0], "[0.5, 0.5, 0.5]")
	assert.Contains(t, model.prompts[0], "unmeasured")
}

func TestTextAdvisorProposeErrors(t *testing.T) {
	boom := errors.New("quota exceeded")

	_, err := NewTextAdvisor(&scriptedModel{errs: []error{boom}}).Propose(context.Background(), History{})
	assert.ErrorIs(t, err, boom)

	_, err = NewTextAdvisor(&scriptedModel{responses: []string{"I would try more green"}}).Propose(context.Background(), History{})
	assert.ErrorIs(t, err, ErrInvalidSuggestion)

	_, err = NewTextAdvisor(nil).Propose(context.Background(), History{})
	assert.ErrorIs(t, err, ErrAdvisorUnavailable)
}

func TestTextAdvisorExplain(t *testing.T) {
	model := &scriptedModel{responses: []string{"  More green excites the sensor.\n"}}

	text, err := NewTextAdvisor(model).Explain(context.Background(), Candidate{G: 1}, History{
		Best:       Center,
		BestOutput: 12,
		Wavelength: "515nm",
	})
	require.NoError(t, err)

	assert.Equal(t, "More green excites the sensor.", text)
	assert.True(t, strings.Contains(model.prompts[0], "[0, 1, 0]"))
	assert.Contains(t, model.prompts[0], "output 12")
}
