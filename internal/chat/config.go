package chat

import (
	"errors"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultModel    = "gpt-4o-mini"
	DefaultEndpoint = "https://api.openai.com/v1/chat/completions"
	DefaultTimeout  = 20 * time.Second
)

var (
	ErrInvalidEndpoint = errors.New("LLM_ENDPOINT must be an absolute http(s) URL")
	ErrInvalidTimeout  = errors.New("LLM_TIMEOUT_SECONDS must be positive")
)

// Config holds the chat assistant settings.
type Config struct {
	// LLM stage; disabled when APIKey is empty.
	APIKey   string
	Model    string
	Endpoint string
	Timeout  time.Duration

	// Optional YAML file replacing the embedded offline answers.
	OfflineFAQPath string
}

// LoadFromEnv loads chat configuration from environment variables.
//
// Environment variables:
//   - LLM_API_KEY: bearer key for the chat-completions API (optional)
//   - LLM_MODEL: model name (default: gpt-4o-mini)
//   - LLM_ENDPOINT: OpenAI-compatible chat-completions URL
//   - LLM_TIMEOUT_SECONDS: per-call timeout (default: 20)
//   - CHAT_OFFLINE_FAQ_PATH: YAML file overriding the built-in offline answers
func LoadFromEnv() Config {
	c := Config{
		APIKey:         strings.TrimSpace(os.Getenv("LLM_API_KEY")),
		Model:          strings.TrimSpace(os.Getenv("LLM_MODEL")),
		Endpoint:       strings.TrimSpace(os.Getenv("LLM_ENDPOINT")),
		Timeout:        DefaultTimeout,
		OfflineFAQPath: strings.TrimSpace(os.Getenv("CHAT_OFFLINE_FAQ_PATH")),
	}
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.Endpoint == "" {
		c.Endpoint = DefaultEndpoint
	}
	if v := os.Getenv("LLM_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Timeout = time.Duration(n) * time.Second
		}
	}
	return c
}

func (c Config) Validate() error {
	u, err := url.Parse(c.Endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidEndpoint
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	return nil
}

// LLMEnabled reports whether the LLM stage should run.
func (c Config) LLMEnabled() bool { return c.APIKey != "" }
