package LLM

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

type OpenAI struct {
	APIKey string
	Client openai.Client
}

// NewOpenAI also serves OpenAI-compatible endpoints via option.WithBaseURL.
func NewOpenAI(apiKey string, opts ...option.RequestOption) *OpenAI {
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	client := openai.NewClient(opts...)

	return &OpenAI{APIKey: apiKey, Client: client}
}

func convertToOpenAIMessages(systemPrompt string, msgs []Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs)+1)
	if systemPrompt != "" {
		out = append(out, openai.SystemMessage(systemPrompt))
	}
	for _, msg := range msgs {
		switch msg.Role {
		case RoleSystem:
			out = append(out, openai.SystemMessage(msg.Content))
		case RoleAssistant:
			out = append(out, openai.AssistantMessage(msg.Content))
		default:
			out = append(out, openai.UserMessage(msg.Content))
		}
	}
	return out
}

func (cs *OpenAI) params(args ClientArgs) openai.ChatCompletionNewParams {
	params := openai.ChatCompletionNewParams{
		Messages:    convertToOpenAIMessages(args.SystemPrompt, args.Messages),
		Model:       args.Model,
		Temperature: openai.Float(args.Temperature), // Controls randomness (0.0 to 2.0)
	}
	if args.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(args.MaxTokens))
	}
	return params
}

func (cs *OpenAI) Chat(ctx context.Context, args ClientArgs) (ClientResponse, error) {
	myInputEstimate := estimateInput(args)

	resp, err := cs.Client.Chat.Completions.New(ctx, cs.params(args))
	if err != nil {
		return ClientResponse{}, openAIError(err)
	}
	if len(resp.Choices) == 0 {
		return ClientResponse{}, fmt.Errorf("openai: empty response")
	}

	return ClientResponse{
		Text:         resp.Choices[0].Message.Content,
		InputTokens:  int32(resp.Usage.PromptTokens),
		OutputTokens: int32(resp.Usage.CompletionTokens),
		MyEstInput:   myInputEstimate,
	}, nil
}

func (cs *OpenAI) ChatStream(ctx context.Context, args ClientArgs, stream chan<- StreamResponse) (ClientResponse, error) {
	myInputEstimate := estimateInput(args)

	params := cs.params(args)
	params.StreamOptions = openai.ChatCompletionStreamOptionsParam{
		IncludeUsage: openai.Bool(true),
	}

	// The server chunks the response according to its own whims; with
	// include_usage the last chunk has no choices and carries the totals.
	s := cs.Client.Chat.Completions.NewStreaming(ctx, params)
	defer s.Close()

	var resp string
	var usage openai.CompletionUsage
	for s.Next() {
		evt := s.Current()
		if len(evt.Choices) > 0 {
			data := evt.Choices[0].Delta.Content
			if data != "" {
				if err := emit(ctx, stream, data); err != nil {
					return ClientResponse{Text: resp}, err
				}
				resp += data
			}
		}
		if evt.Usage.TotalTokens > 0 {
			usage = evt.Usage
		}
	}
	if err := s.Err(); err != nil {
		return ClientResponse{Text: resp}, openAIError(err)
	}

	return ClientResponse{
		Text:         resp,
		InputTokens:  int32(usage.PromptTokens),
		OutputTokens: int32(usage.CompletionTokens),
		MyEstInput:   myInputEstimate,
	}, nil
}

func (cs *OpenAI) Close() error { return nil }

func openAIError(err error) error {
	var e *openai.Error
	if errors.As(err, &e) {
		return fmt.Errorf("openai: %d %s: %s", e.StatusCode, e.Type, e.Message)
	}
	return fmt.Errorf("openai: %w", err)
}
