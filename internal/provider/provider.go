// Package provider implements remote.Service backends.
//
//   - OpenAI talks to the hosted Assistants API, where assistants, threads and
//     runs are server-side resources.
//   - AnthropicThreads keeps threads and runs in process and executes each run
//     as Messages API calls in the background, reporting the same run states.
package provider

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/sashabaranov/go-openai"

	"github.com/petasbytes/giftscout/internal/config"
	"github.com/petasbytes/giftscout/internal/persona"
	"github.com/petasbytes/giftscout/internal/remote"
)

var (
	// ErrNotFound is returned for unknown assistant, thread or run ids.
	ErrNotFound = errors.New("not found")
	// ErrRunActive is returned when a thread is modified while one of its runs is active.
	ErrRunActive = errors.New("thread has an active run")
)

// DefaultModelFor returns the model used when none is configured.
func DefaultModelFor(name string) string {
	if name == config.ProviderAnthropic {
		return string(DefaultAnthropicModel)
	}
	return persona.DefaultModel
}

// New builds the backend selected by cfg. A nil httpClient uses the SDK default.
func New(cfg config.Config, httpClient *http.Client) (remote.Service, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		oc := openai.DefaultConfig(cfg.OpenAIAPIKey)
		if cfg.OpenAIBaseURL != "" {
			oc.BaseURL = cfg.OpenAIBaseURL
		}
		if httpClient != nil {
			oc.HTTPClient = httpClient
		}
		return NewOpenAI(openai.NewClientWithConfig(oc)), nil
	case config.ProviderAnthropic:
		opts := []option.RequestOption{option.WithAPIKey(cfg.AnthropicAPIKey)}
		if httpClient != nil {
			opts = append(opts, option.WithHTTPClient(httpClient))
		}
		c := anthropic.NewClient(opts...)
		t := NewAnthropicThreads(&c, cfg.RunTTL)
		if cfg.WindowBudget > 0 {
			t.WindowBudget = cfg.WindowBudget
		}
		return t, nil
	}
	return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
}

func runTTLOrDefault(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return 10 * time.Minute
	}
	return ttl
}
