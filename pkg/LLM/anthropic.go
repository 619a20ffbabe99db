package LLM

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/liushuangls/go-anthropic/v2"
)

const defaultAnthropicMaxTokens = 4096

type Anthropic struct {
	APIKey string
	Client *anthropic.Client
}

func NewAnthropic(apiKey string, opts ...anthropic.ClientOption) *Anthropic {
	client := anthropic.NewClient(apiKey, opts...)

	return &Anthropic{APIKey: apiKey, Client: client}
}

// convertToAnthropicMessages drops system messages; the API only takes user
// and assistant turns and the system prompt goes in its own field.
func convertToAnthropicMessages(chatHist []Message) ([]anthropic.Message, string) {
	anthropicMsgs := make([]anthropic.Message, 0, len(chatHist))
	var system []string

	for _, msg := range chatHist {
		switch msg.Role {
		case RoleSystem:
			system = append(system, msg.Content)
		case RoleAssistant:
			anthropicMsgs = append(anthropicMsgs, anthropic.NewAssistantTextMessage(msg.Content))
		default:
			anthropicMsgs = append(anthropicMsgs, anthropic.NewUserTextMessage(msg.Content))
		}
	}

	return anthropicMsgs, strings.Join(system, "\n\n")
}

func (cs *Anthropic) request(args ClientArgs) anthropic.MessagesRequest {
	msgs, system := convertToAnthropicMessages(args.Messages)
	if args.SystemPrompt != "" {
		system = args.SystemPrompt
	}
	temperature := float32(args.Temperature)
	maxTokens := args.MaxTokens
	if maxTokens <= 0 {
		// required by the API
		maxTokens = defaultAnthropicMaxTokens
	}

	return anthropic.MessagesRequest{
		Model:       anthropic.Model(args.Model),
		Messages:    msgs,
		MaxTokens:   maxTokens,
		Temperature: &temperature,
		System:      system,
	}
}

func (cs *Anthropic) Chat(ctx context.Context, args ClientArgs) (ClientResponse, error) {
	myInputEstimate := estimateInput(args)

	resp, err := cs.Client.CreateMessages(ctx, cs.request(args))
	if err != nil {
		return ClientResponse{}, anthropicError(err)
	}

	var text strings.Builder
	for _, c := range resp.Content {
		text.WriteString(c.GetText())
	}

	return ClientResponse{
		Text:         text.String(),
		InputTokens:  int32(resp.Usage.InputTokens),
		OutputTokens: int32(resp.Usage.OutputTokens),
		MyEstInput:   myInputEstimate,
	}, nil
}

func (cs *Anthropic) ChatStream(ctx context.Context, args ClientArgs, stream chan<- StreamResponse) (ClientResponse, error) {
	myInputEstimate := estimateInput(args)

	var fullResponse strings.Builder
	var emitErr error
	resp, err := cs.Client.CreateMessagesStream(ctx, anthropic.MessagesStreamRequest{
		MessagesRequest: cs.request(args),
		OnContentBlockDelta: func(data anthropic.MessagesEventContentBlockDeltaData) {
			if data.Delta.Text == nil || emitErr != nil {
				return
			}
			chunk := *data.Delta.Text
			fullResponse.WriteString(chunk)
			emitErr = emit(ctx, stream, chunk)
		},
	})
	if emitErr != nil {
		return ClientResponse{Text: fullResponse.String()}, emitErr
	}
	if err != nil {
		return ClientResponse{Text: fullResponse.String()}, anthropicError(err)
	}

	// I believe the stats object will be usable even if the response is empty
	return ClientResponse{
		Text:         fullResponse.String(),
		InputTokens:  int32(resp.Usage.InputTokens),
		OutputTokens: int32(resp.Usage.OutputTokens),
		MyEstInput:   myInputEstimate,
	}, nil
}

func (cs *Anthropic) Close() error { return nil }

func anthropicError(err error) error {
	var e *anthropic.APIError
	if errors.As(err, &e) {
		return fmt.Errorf("anthropic: messages error, type: %s, message: %s", e.Type, e.Message)
	}
	return fmt.Errorf("anthropic: %w", err)
}
