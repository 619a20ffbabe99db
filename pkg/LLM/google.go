package LLM

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

type Google struct {
	APIKey string
	Client *genai.Client
}

func NewGoogle(ctx context.Context, apiKey string) (*Google, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("google: error creating client: %w", err)
	}

	return &Google{APIKey: apiKey, Client: client}, nil
}

// splitGeminiHistory turns the conversation into chat history plus the
// message to send. Gemini calls the assistant "model"; system messages fold
// into the system instruction.
func splitGeminiHistory(msgs []Message) (history []*genai.Content, last string, system []string) {
	for i, msg := range msgs {
		if i == len(msgs)-1 && msg.Role == RoleUser {
			last = msg.Content
			break
		}
		switch msg.Role {
		case RoleSystem:
			system = append(system, msg.Content)
		case RoleAssistant:
			history = append(history, &genai.Content{Role: "model", Parts: []genai.Part{genai.Text(msg.Content)}})
		default:
			history = append(history, &genai.Content{Role: "user", Parts: []genai.Part{genai.Text(msg.Content)}})
		}
	}
	return history, last, system
}

func (cs *Google) session(args ClientArgs) (*genai.ChatSession, string) {
	model := cs.Client.GenerativeModel(args.Model)
	model.SetTemperature(float32(args.Temperature))
	if args.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(args.MaxTokens))
	}

	history, last, system := splitGeminiHistory(args.Messages)
	if args.SystemPrompt != "" {
		system = append([]string{args.SystemPrompt}, system...)
	}
	if len(system) > 0 {
		model.SystemInstruction = genai.NewUserContent(genai.Text(strings.Join(system, "\n\n")))
	}

	chat := model.StartChat()
	chat.History = history
	return chat, last
}

func responseText(resp *genai.GenerateContentResponse) string {
	var sb strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				sb.WriteString(string(t))
			}
		}
		break
	}
	return sb.String()
}

func (cs *Google) Chat(ctx context.Context, args ClientArgs) (ClientResponse, error) {
	myInputEstimate := estimateInput(args)

	chat, last := cs.session(args)
	resp, err := chat.SendMessage(ctx, genai.Text(last))
	if err != nil {
		return ClientResponse{}, fmt.Errorf("google: %w", err)
	}

	r := ClientResponse{Text: responseText(resp), MyEstInput: myInputEstimate}
	if resp.UsageMetadata != nil {
		r.InputTokens = resp.UsageMetadata.PromptTokenCount
		r.OutputTokens = resp.UsageMetadata.CandidatesTokenCount
	}
	return r, nil
}

func (cs *Google) ChatStream(ctx context.Context, args ClientArgs, stream chan<- StreamResponse) (ClientResponse, error) {
	myInputEstimate := estimateInput(args)

	chat, last := cs.session(args)
	iter := chat.SendMessageStream(ctx, genai.Text(last))

	var full strings.Builder
	var usage *genai.UsageMetadata
	for {
		resp, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return ClientResponse{Text: full.String()}, fmt.Errorf("google: %w", err)
		}

		r := responseText(resp)
		if r != "" {
			if err := emit(ctx, stream, r); err != nil {
				return ClientResponse{Text: full.String()}, err
			}
			full.WriteString(r)
		}
		if resp.UsageMetadata != nil {
			usage = resp.UsageMetadata
		}
	}

	r := ClientResponse{Text: full.String(), MyEstInput: myInputEstimate}
	if usage != nil {
		r.InputTokens = usage.PromptTokenCount
		r.OutputTokens = usage.CandidatesTokenCount
	}
	return r, nil
}

func (cs *Google) Close() error {
	return cs.Client.Close()
}
