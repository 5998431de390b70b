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

// SelfHosted talks to a locally hosted model server.
//
// Wire contract: POST {baseURL}/api/chat with
// {"model": ..., "messages": [{role, content}...], "stream": false},
// answered by a JSON body carrying the completion in a "response" field.
type SelfHosted struct {
	baseURL string
	model   string
	client  *http.Client
}

type selfHostedRequest struct {
	Model    string        `json:"model"`
	Messages []wireMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

type selfHostedResponse struct {
	Response string `json:"response"`
}

// Generate implements [model.BaseChatModel].
func (s *SelfHosted) Generate(ctx context.Context, in []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	o := model.GetCommonOptions(&model.Options{Model: &s.model}, opts...)

	body, err := json.Marshal(selfHostedRequest{
		Model:    *o.Model,
		Messages: toWire(in),
		Stream:   false,
	})
	if err != nil {
		return nil, fmt.Errorf("self-hosted: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("self-hosted: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: self-hosted backend unreachable: %v", ErrProvider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: self-hosted backend returned status %d", ErrProvider, resp.StatusCode)
	}

	var decoded selfHostedResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("%w: self-hosted backend sent malformed body: %v", ErrProvider, err)
	}
	return schema.AssistantMessage(decoded.Response, nil), nil
}

// Stream implements [model.BaseChatModel] by wrapping the synchronous
// completion; the self-hosted contract has no incremental mode.
func (s *SelfHosted) Stream(ctx context.Context, in []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := s.Generate(ctx, in, opts...)
	if err != nil {
		return nil, err
	}
	return singleMessageStream(msg), nil
}
