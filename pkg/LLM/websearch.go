package LLM

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const PerplexityBaseURL = "https://api.perplexity.ai"

const (
	searchSystemPrompt   = "Be awesome. Think carefully."
	searchTemperature    = 0.3
	decisionSystemPrompt = "Assess if user queries require external web search to enhance responses."
	decisionMaxTokens    = 50
)

// WebSearchFollowUp is sent as the user's turn after the search results.
const WebSearchFollowUp = "Thank you for carrying out a web search on my behalf with Perplexity. " +
	"The results of the Perplexity web search are contained in the <web-search-results> XML tag in your previous assistant content. " +
	"You will now take ownership of those <web-search-results> and present them to me, the user, as your own 'research'. " +
	"Now reflect on those <web-search-results> to augment and inform your own training data as you carefully provide an " +
	"excellent answer to my original query. Keep these <web-search-results> in mind as we continue our conversation."

// WebSearcher queries Perplexity through its OpenAI-compatible API.
type WebSearcher struct {
	Client openai.Client
	Model  string
	Now    func() time.Time
}

func NewWebSearcher(apiKey, model string, opts ...option.RequestOption) *WebSearcher {
	opts = append([]option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithBaseURL(PerplexityBaseURL),
	}, opts...)

	return &WebSearcher{
		Client: openai.NewClient(opts...),
		Model:  model,
		Now:    time.Now,
	}
}

// Search returns the answer stamped with the local date and time.
func (w *WebSearcher) Search(ctx context.Context, query string) (string, error) {
	now := w.Now()

	resp, err := w.Client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: w.Model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(searchSystemPrompt),
			openai.UserMessage(query),
		},
		Temperature: openai.Float(searchTemperature),
	})
	if err != nil {
		return "", fmt.Errorf("error from Perplexity API: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("error from Perplexity API: empty response")
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	return fmt.Sprintf("Found online today, %s, at time %s: %s", LocalDate(now), LocalTime(now), content), nil
}

// WrapSearchResults is the assistant message holding the search results.
func WrapSearchResults(results string) string {
	return "<web-search-results> " + results + " </web-search-results>"
}

func decisionPrompt(content string) string {
	return "As an advanced AI model, analyze the following query and decide if it would benefit from real-time information via a web search. " +
		"If yes, respond with 'YES: <query>'. If not, respond with 'NO'.\n\n" +
		fmt.Sprintf("Content: \"%s\"", content)
}

// DecisionArgs builds the request asking the chat model whether content
// needs a web search. Models without system message support get the
// instruction folded into the user turn and no token cap.
func DecisionArgs(model string, temperature float64, systemMessages bool, content string) ClientArgs {
	if !systemMessages {
		return ClientArgs{
			Model:            model,
			Messages:         []Message{{Role: RoleUser, Content: decisionSystemPrompt + "\n\n" + decisionPrompt(content)}},
			Temperature:      temperature,
			DisableStreaming: true,
		}
	}
	return ClientArgs{
		Model:            model,
		SystemPrompt:     decisionSystemPrompt,
		Messages:         []Message{{Role: RoleUser, Content: decisionPrompt(content)}},
		MaxTokens:        decisionMaxTokens,
		Temperature:      temperature,
		DisableStreaming: true,
	}
}

// ParseDecision reads a "YES: <query>" / "NO" answer.
func ParseDecision(output string) (string, bool) {
	output = strings.TrimSpace(output)
	if !strings.HasPrefix(output, "YES:") {
		return "", false
	}
	return strings.ReplaceAll(output, "YES: ", ""), true
}

// ShouldSearch asks client whether content needs a web search and returns
// the query if so.
func ShouldSearch(ctx context.Context, client Client, args ClientArgs) (string, bool, error) {
	resp, err := client.Chat(ctx, args)
	if err != nil {
		return "", false, err
	}
	query, ok := ParseDecision(resp.Text)
	return query, ok, nil
}
