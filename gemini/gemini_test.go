package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := New("test-key", append([]Option{WithBaseURL(server.URL)}, opts...)...)
	require.NoError(t, err)

	return client
}

func TestNewRequiresKey(t *testing.T) {
	_, err := New("  ")
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestWithModel(t *testing.T) {
	c, err := New("k", WithModel("gemini-2.0-flash"))
	require.NoError(t, err)
	assert.Equal(t, "models/gemini-2.0-flash", c.Model())

	c, err = New("k", WithModel("tunedModels/mine"))
	require.NoError(t, err)
	assert.Equal(t, "tunedModels/mine", c.Model())

	c, err = New("k", WithModel(""))
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, c.Model())
}

func TestGenerate(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1beta/models/gemini-2.5-flash:generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Contents, 1)
		assert.Equal(t, "user", req.Contents[0].Role)
		assert.Equal(t, "suggest", req.Contents[0].Parts[0].Text)

		fmt.Fprint(w, `{"candidates": [{"content": {"parts": [{"text": " 0.1,"}, {"text": "0.2,0.3\n"}]}}]}`)
	})

	text, err := client.Generate(context.Background(), "suggest")
	require.NoError(t, err)
	assert.Equal(t, "0.1,0.2,0.3", text)
}

func TestGenerateFailures(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		code  int
		check func(t *testing.T, err error)
	}{
		{
			name: "no candidates",
			body: `{"candidates": []}`,
			code: http.StatusOK,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrEmptyResponse)
			},
		},
		{
			name: "blank text",
			body: `{"candidates": [{"content": {"parts": [{"text": "  "}]}}]}`,
			code: http.StatusOK,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrEmptyResponse)
			},
		},
		{
			name: "blocked",
			body: `{"promptFeedback": {"blockReason": "SAFETY"}}`,
			code: http.StatusOK,
			check: func(t *testing.T, err error) {
				assert.ErrorContains(t, err, "SAFETY")
			},
		},
		{
			name: "api error",
			body: `{"error": {"code": 429, "message": "Resource has been exhausted"}}`,
			code: http.StatusTooManyRequests,
			check: func(t *testing.T, err error) {
				var apiErr *APIError
				require.True(t, errors.As(err, &apiErr))
				assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
				assert.Equal(t, "Resource has been exhausted", apiErr.Message)
			},
		},
		{
			name: "malformed",
			body: `{"candidates": `,
			code: http.StatusOK,
			check: func(t *testing.T, err error) {
				assert.ErrorContains(t, err, "failed to parse response")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.code)
				fmt.Fprint(w, tt.body)
			})

			_, err := client.Generate(context.Background(), "x")
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestListModelsPaginates(t *testing.T) {
	var tokens []string

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1beta/models", r.URL.Path)

		token := r.URL.Query().Get("pageToken")
		tokens = append(tokens, token)

		switch token {
		case "":
			fmt.Fprint(w, `{"models": [{"name": "models/a", "supportedGenerationMethods": ["generateContent"]}], "nextPageToken": "p/2"}`)
		case "p/2":
			fmt.Fprint(w, `{"models": [{"name": "models/b", "supportedGenerationMethods": ["embedContent"]}]}`)
		default:
			t.Errorf("unexpected page token %q", token)
		}
	})

	models, err := client.ListModels(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"", "p/2"}, tokens)
	require.Len(t, models, 2)
	assert.True(t, models[0].SupportsGenerateContent())
	assert.False(t, models[1].SupportsGenerateContent())
}

func TestCheckModel(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1beta/models/good":
			fmt.Fprint(w, `{"name": "models/good", "supportedGenerationMethods": ["generateContent", "countTokens"]}`)
		case "/v1beta/models/embedder":
			fmt.Fprint(w, `{"name": "models/embedder", "supportedGenerationMethods": ["embedContent"]}`)
		default:
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"error": {"message": "not found"}}`)
		}
	})

	client.model = "models/good"
	assert.NoError(t, client.CheckModel(context.Background()))

	client.model = "models/embedder"
	assert.ErrorContains(t, client.CheckModel(context.Background()), "does not support generateContent")

	client.model = "models/missing"
	err := client.CheckModel(context.Background())

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
}
