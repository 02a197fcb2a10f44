package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
)

// APIKeyEnv holds the Gemini API key.
const APIKeyEnv = "GEMINI_API_KEY"

// ErrNoCredential is returned when no API key could be obtained.
var ErrNoCredential = errors.New("no Gemini API key available")

// credentials resolves the API key once: from the environment, or by asking
// on the prompt reader if the variable is unset.
type credentials struct {
	once sync.Once
	key  string
	err  error

	getenv func(string) string
	in     *bufio.Reader
	out    io.Writer
}

func (c *credentials) APIKey() (string, error) {
	c.once.Do(func() {
		if key := strings.TrimSpace(c.getenv(APIKeyEnv)); key != "" {
			c.key = key
			return
		}

		fmt.Fprint(c.out, "Please enter your Gemini API Key: ")

		line, err := c.in.ReadString('\n')
		key := strings.TrimSpace(line)
		if key == "" {
			if err != nil && !errors.Is(err, io.EOF) {
				c.err = fmt.Errorf("%w: %v", ErrNoCredential, err)
				return
			}
			c.err = ErrNoCredential
			return
		}

		c.key = key
	})

	return c.key, c.err
}
