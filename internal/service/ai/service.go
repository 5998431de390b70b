package ai

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/lumichat/lumichat/internal/model/chat"
)

// Service wraps the compiled eino chain that turns a system prompt, prior
// history and the user's message into a completion. The chat model behind it
// is whichever backend configuration selected at startup.
type Service struct {
	chain compose.Runnable[map[string]any, *schema.Message]
}

// NewService compiles the prompt-template + chat-model chain.
func NewService(ctx context.Context, chatModel model.BaseChatModel) (*Service, error) {
	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("ai: compile chat chain: %w", err)
	}
	return &Service{chain: runnable}, nil
}

// Generate runs one completion. maxTokens, when positive, overrides the
// backend's default completion budget for this request.
func (s *Service) Generate(ctx context.Context, systemPrompt string, history []chat.HistoryEntry, userMessage string, maxTokens int) (string, error) {
	input := map[string]any{
		"system":  systemPrompt,
		"history": historyMessages(history),
		"query":   userMessage,
	}

	var opts []compose.Option
	if maxTokens > 0 {
		opts = append(opts, compose.WithChatModelOption(model.WithMaxTokens(maxTokens)))
	}

	response, err := s.chain.Invoke(ctx, input, opts...)
	if err != nil {
		return "", fmt.Errorf("ai: run chat chain: %w", err)
	}
	return response.Content, nil
}

// historyMessages converts reconciled transcript entries into alternating
// user/assistant messages for the prompt template's history placeholder.
func historyMessages(entries []chat.HistoryEntry) []*schema.Message {
	if len(entries) == 0 {
		return nil
	}
	history := make([]*schema.Message, 0, len(entries)*2)
	for _, entry := range entries {
		history = append(history, schema.UserMessage(entry.InputText))
		history = append(history, schema.AssistantMessage(entry.OutputText, nil))
	}
	return history
}
