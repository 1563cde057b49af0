package completion

import (
	"context"
	"fmt"

	"github.com/deepgram/parlor/internal/domain/chat/models"
	"github.com/deepgram/parlor/internal/logger"
	"github.com/sashabaranov/go-openai"
)

// Client sends a conversation to a hosted chat-completion endpoint.
type Client interface {
	Complete(ctx context.Context, systemInstruction string, messages []models.Message) (models.Completion, error)
}

// Options selects the model and sampling temperature for every request.
type Options struct {
	Model       string
	Temperature float32
}

// Service is the go-openai backed Client. It keeps no conversation state.
type Service struct {
	client *openai.Client
	opts   Options
}

func NewService(client *openai.Client, opts Options) *Service {
	return &Service{
		client: client,
		opts:   opts,
	}
}

// Complete issues one chat completion request with the system instruction first and
// the messages in order. Transport and API failures are returned as errors; any
// response without an assistant message is reported as models.Unrecognized.
func (s *Service) Complete(ctx context.Context, systemInstruction string, messages []models.Message) (models.Completion, error) {
	log := logger.For(logger.COMPLETION)

	req := openai.ChatCompletionRequest{
		Model:       s.opts.Model,
		Messages:    buildMessages(systemInstruction, messages),
		Temperature: s.opts.Temperature,
	}

	log.Debug().
		Str("model", req.Model).
		Int("message_count", len(req.Messages)).
		Msg("Requesting chat completion")

	resp, err := s.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to get chat completion: %w", err)
	}

	log.Debug().
		Int("prompt_tokens", resp.Usage.PromptTokens).
		Int("completion_tokens", resp.Usage.CompletionTokens).
		Msg("Chat completion received")

	return interpret(resp), nil
}

func buildMessages(systemInstruction string, messages []models.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages)+1)
	out = append(out, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: systemInstruction,
	})
	for _, msg := range messages {
		out = append(out, openai.ChatCompletionMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		})
	}
	return out
}

func interpret(resp openai.ChatCompletionResponse) models.Completion {
	if len(resp.Choices) == 0 {
		return models.Unrecognized{Reason: "no choices returned"}
	}

	for _, choice := range resp.Choices {
		if choice.Message.Role == openai.ChatMessageRoleAssistant {
			return models.Success{Message: models.NewAssistantMessage(choice.Message.Content)}
		}
	}

	return models.Unrecognized{Reason: fmt.Sprintf("no assistant message in %d choices", len(resp.Choices))}
}
