package LLM

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/openai/openai-go/option"

	"github.com/duluk/chatbot/pkg/tokens"
)

var ErrNoAPIKey = errors.New("no API key found")

// ClientKey looks up the API key for provider: the <PROVIDER>_API_KEY
// environment variable first, then the first line of
// <configDir>/<provider>-api-key.
func ClientKey(provider, configDir string) (string, error) {
	keyUpper := strings.ToUpper(provider) + "_API_KEY"
	keyLower := strings.ToLower(provider) + "-api-key"

	if key := os.Getenv(keyUpper); key != "" {
		return key, nil
	}

	path := filepath.Join(configDir, keyLower)
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: set %s or create %s", ErrNoAPIKey, keyUpper, path)
		}
		return "", err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	if scanner.Scan() {
		if key := strings.TrimSpace(scanner.Text()); key != "" {
			return key, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("error reading %s: %w", path, err)
	}
	return "", fmt.Errorf("%w: %s is empty", ErrNoAPIKey, path)
}

// DeepSeek and Ollama speak the OpenAI chat completions API.
const (
	DeepSeekBaseURL = "https://api.deepseek.com/"
	OllamaBaseURL   = "http://localhost:11434/v1/"
)

// NeedsKey reports whether provider refuses requests without an API key.
func NeedsKey(provider string) bool {
	return provider != "ollama"
}

// NewClient builds the client for a provider named in the model registry.
func NewClient(ctx context.Context, provider, apiKey string) (Client, error) {
	switch provider {
	case "openai":
		return NewOpenAI(apiKey), nil
	case "deepseek":
		return NewOpenAI(apiKey, option.WithBaseURL(DeepSeekBaseURL)), nil
	case "ollama":
		if apiKey == "" {
			// ignored by ollama, but the client insists on one
			apiKey = "ollama"
		}
		return NewOpenAI(apiKey, option.WithBaseURL(OllamaBaseURL)), nil
	case "anthropic":
		return NewAnthropic(apiKey), nil
	case "google":
		return NewGoogle(ctx, apiKey)
	}
	return nil, fmt.Errorf("unknown provider %q", provider)
}

// ProviderName is the display name of a provider.
func ProviderName(provider string) string {
	switch provider {
	case "openai":
		return "OpenAI"
	case "anthropic":
		return "Anthropic"
	case "google":
		return "Google"
	case "deepseek":
		return "DeepSeek"
	case "ollama":
		return "Ollama"
	}
	return "..."
}

// LocalDate and LocalTime format t the way the prompts quote the current
// moment, eg "Fri 16 Feb 2024" and "22:41:47 GMT".
func LocalDate(t time.Time) string {
	return t.Format("Mon 02 Jan 2006")
}

func LocalTime(t time.Time) string {
	return t.Format("15:04:05 MST")
}

// estimateInput is the local token estimate for everything sent in args.
func estimateInput(args ClientArgs) int32 {
	var sb strings.Builder
	sb.WriteString(args.SystemPrompt)
	for _, m := range args.Messages {
		sb.WriteString(m.Content)
	}
	return int32(tokens.Estimate(sb.String()))
}

// emit hands a chunk to the consumer unless ctx is done first.
func emit(ctx context.Context, stream chan<- StreamResponse, content string) error {
	select {
	case stream <- StreamResponse{Content: content}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
