package gemini

import (
	"time"

	"github.com/papercomputeco/chatbox/pkg/llm"
)

// Config is the answer service client configuration.
type Config struct {
	// BaseURL of the API version root (e.g., "https://generativelanguage.googleapis.com/v1beta")
	BaseURL string

	// Model name used in the request path (e.g., "gemini-1.5-flash-latest")
	Model string

	// APIKey is sent as the "key" query parameter. It is never logged.
	APIKey string

	// Timeout bounds a whole HTTP exchange.
	Timeout time.Duration

	// Generation parameters, omitted from requests when nil.
	Generation *llm.GenerationConfig
}

func (c Config) withDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	return c
}
