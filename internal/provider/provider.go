// Package provider implements the interchangeable inference backends. Both
// speak a fixed wire contract and plug into the eino chat chain as
// [model.BaseChatModel] implementations, so the orchestrator never branches
// on which backend is configured; selection happens once at startup.
package provider

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// ErrProvider is the uniform failure signal for any backend problem:
// unreachable host, non-success status, or timeout. Callers surface a
// user-safe fallback and log the wrapped cause; no automatic retries.
var ErrProvider = errors.New("provider failure")

// Backend kinds selectable via configuration.
const (
	KindSelfHosted = "selfhosted"
	KindHosted     = "hosted"
)

// DefaultTimeout bounds every outbound completion call.
const DefaultTimeout = 60 * time.Second

// Config selects and parameterizes a backend. Resolved once at startup.
type Config struct {
	Kind    string
	BaseURL string
	Model   string

	// APIKey is required by the hosted backend only.
	APIKey string

	// Temperature and MaxTokens are defaults for the hosted backend; both
	// backends honor per-request overrides passed through model options.
	Temperature float32
	MaxTokens   int

	Timeout time.Duration
}

// New resolves cfg into a concrete backend. An unknown kind is a
// configuration error, reported at startup rather than per request.
func New(cfg Config) (model.BaseChatModel, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	client := &http.Client{Timeout: cfg.Timeout}

	switch cfg.Kind {
	case KindSelfHosted:
		if cfg.BaseURL == "" || cfg.Model == "" {
			return nil, fmt.Errorf("provider: self-hosted backend needs base URL and model")
		}
		return &SelfHosted{baseURL: cfg.BaseURL, model: cfg.Model, client: client}, nil
	case KindHosted:
		if cfg.BaseURL == "" || cfg.Model == "" || cfg.APIKey == "" {
			return nil, fmt.Errorf("provider: hosted backend needs base URL, model and API key")
		}
		return &Hosted{
			baseURL:     cfg.BaseURL,
			model:       cfg.Model,
			apiKey:      cfg.APIKey,
			temperature: cfg.Temperature,
			maxTokens:   cfg.MaxTokens,
			client:      client,
		}, nil
	default:
		return nil, fmt.Errorf("provider: unknown backend kind %q", cfg.Kind)
	}
}

// wireMessage is the {role, content} shape both backends put on the wire.
type wireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func toWire(in []*schema.Message) []wireMessage {
	out := make([]wireMessage, 0, len(in))
	for _, m := range in {
		out = append(out, wireMessage{Role: string(m.Role), Content: m.Content})
	}
	return out
}

// singleMessageStream adapts a non-streaming completion to the Stream side
// of the chat-model contract.
func singleMessageStream(msg *schema.Message) *schema.StreamReader[*schema.Message] {
	return schema.StreamReaderFromArray([]*schema.Message{msg})
}
