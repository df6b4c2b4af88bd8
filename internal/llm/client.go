// Package llm wraps the OpenAI chat-completions API used to generate
// assistant replies. The engine core never calls it; only the processor
// does, after assembling the system prompt from the engine's context
// blocks.
package llm

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/atendezap/insight/internal/chat"
)

const defaultMaxTokens = 1024

type Client struct {
	client *openai.Client
	model  string
}

func NewClient(apiKey, model string) *Client {
	return &Client{
		client: openai.NewClient(apiKey),
		model:  model,
	}
}

// Reply generates the assistant's next message. history is the recent
// conversation window in chronological order; inbound turns become user
// messages and outbound turns assistant messages.
func (c *Client) Reply(ctx context.Context, systemPrompt string, history []chat.Message) (string, error) {
	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
	}
	for _, msg := range history {
		role := openai.ChatMessageRoleUser
		if msg.Direction == chat.DirectionOutbound {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    role,
			Content: msg.Content,
		})
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     c.model,
		Messages:  messages,
		MaxTokens: defaultMaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
