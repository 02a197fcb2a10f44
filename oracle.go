package optimizer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
)

// DefaultOracleURL is the public Claude-light endpoint.
const DefaultOracleURL = "https://claude-light.cheme.cmu.edu"

const defaultOracleTimeout = 30 * time.Second

// Oracle measures the apparatus output for one RGB setting. Any returned
// error is a failure marker: callers treat it as "no information gained this
// call" and carry on.
type Oracle interface {
	Measure(ctx context.Context, c Candidate) (Measurement, error)
}

// OracleFunc adapts a plain function to the Oracle interface.
type OracleFunc func(ctx context.Context, c Candidate) (Measurement, error)

// Measure calls f.
func (f OracleFunc) Measure(ctx context.Context, c Candidate) (Measurement, error) {
	return f(ctx, c)
}

// HTTPOracle queries the Claude-light HTTP API. Calls are serialized: one
// physical device is never driven by two requests at once. The zero value
// with BaseURL set is usable.
type HTTPOracle struct {
	BaseURL string

	mu     sync.Mutex
	client *http.Client
}

// NewHTTPOracle creates an oracle for baseURL with a default timeout. An
// empty baseURL selects DefaultOracleURL.
func NewHTTPOracle(baseURL string) *HTTPOracle {
	return NewHTTPOracleWithClient(baseURL, newOracleClient())
}

func newOracleClient() *http.Client {
	return &http.Client{Timeout: defaultOracleTimeout}
}

// NewHTTPOracleWithClient creates an oracle using the supplied HTTP client. A
// nil client is replaced by one with the default timeout.
func NewHTTPOracleWithClient(baseURL string, client *http.Client) *HTTPOracle {
	if client == nil {
		client = newOracleClient()
	}

	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultOracleURL
	}

	return &HTTPOracle{BaseURL: strings.TrimRight(baseURL, "/"), client: client}
}

// Measure issues GET <base>/api?R=..&G=..&B=.. and decodes the "out" field.
// Transport errors, non-2xx statuses and malformed payloads are all reported
// as errors wrapping ErrMeasurementFailed.
func (o *HTTPOracle) Measure(ctx context.Context, c Candidate) (Measurement, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.client == nil {
		o.client = newOracleClient()
	}

	c = c.Clamp()

	query := url.Values{}
	query.Set("R", strconv.FormatFloat(c.R, 'f', -1, 64))
	query.Set("G", strconv.FormatFloat(c.G, 'f', -1, 64))
	query.Set("B", strconv.FormatFloat(c.B, 'f', -1, 64))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.BaseURL+"/api?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMeasurementFailed, err)
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMeasurementFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))

		return nil, fmt.Errorf("%w: http %d: %s", ErrMeasurementFailed, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload struct {
		Out map[string]float64 `json:"out"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrMeasurementFailed, err)
	}

	if payload.Out == nil {
		return nil, fmt.Errorf("%w: response has no \"out\" field", ErrMeasurementFailed)
	}

	return Measurement(payload.Out), nil
}

// measureAt calls oracle with the clamped candidate and extracts the output
// at wavelength.
func measureAt(ctx context.Context, oracle Oracle, c Candidate, wavelength string) (float64, error) {
	m, err := oracle.Measure(ctx, c.Clamp())
	if err != nil {
		return Unmeasured, err
	}

	out, ok := m.Output(wavelength)
	if !ok {
		return Unmeasured, fmt.Errorf("%w: %q", ErrWavelengthMissing, wavelength)
	}

	return out, nil
}
