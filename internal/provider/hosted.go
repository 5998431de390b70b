package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// Hosted talks to an OpenAI-compatible multi-model API.
//
// Wire contract: POST {baseURL}/chat/completions with bearer-token auth and
// {"model", "messages", "temperature", "max_tokens", "stream": false},
// answered by choices[0].message.content.
type Hosted struct {
	baseURL     string
	model       string
	apiKey      string
	temperature float32
	maxTokens   int
	client      *http.Client
}

type hostedRequest struct {
	Model       string        `json:"model"`
	Messages    []wireMessage `json:"messages"`
	Temperature float32       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
	Stream      bool          `json:"stream"`
}

type hostedResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Generate implements [model.BaseChatModel].
func (h *Hosted) Generate(ctx context.Context, in []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	temperature := h.temperature
	maxTokens := h.maxTokens
	o := model.GetCommonOptions(&model.Options{
		Model:       &h.model,
		Temperature: &temperature,
		MaxTokens:   &maxTokens,
	}, opts...)

	body, err := json.Marshal(hostedRequest{
		Model:       *o.Model,
		Messages:    toWire(in),
		Temperature: *o.Temperature,
		MaxTokens:   *o.MaxTokens,
		Stream:      false,
	})
	if err != nil {
		return nil, fmt.Errorf("hosted: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("hosted: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+h.apiKey)

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: hosted backend unreachable: %v", ErrProvider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: hosted backend returned status %d", ErrProvider, resp.StatusCode)
	}

	var decoded hostedResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("%w: hosted backend sent malformed body: %v", ErrProvider, err)
	}
	if len(decoded.Choices) == 0 {
		return nil, fmt.Errorf("%w: hosted backend returned no choices", ErrProvider)
	}
	return schema.AssistantMessage(decoded.Choices[0].Message.Content, nil), nil
}

// Stream implements [model.BaseChatModel] by wrapping the synchronous
// completion.
func (h *Hosted) Stream(ctx context.Context, in []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := h.Generate(ctx, in, opts...)
	if err != nil {
		return nil, err
	}
	return singleMessageStream(msg), nil
}
