package LLM

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/openai/openai-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chunk(content string) string {
	return fmt.Sprintf(`{"id":"c1","object":"chat.completion.chunk","created":1,"model":"m","choices":[{"index":0,"delta":{"content":%q},"finish_reason":null}]}`, content)
}

const usageChunk = `{"id":"c1","object":"chat.completion.chunk","created":1,"model":"m","choices":[],"usage":{"prompt_tokens":12,"completion_tokens":3,"total_tokens":15}}`

// openAIServer records the decoded request body and answers with handler.
func openAIServer(t *testing.T, body *map[string]any, handler func(w http.ResponseWriter)) *OpenAI {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		if body != nil {
			assert.NoError(t, json.NewDecoder(r.Body).Decode(body))
		}
		handler(w)
	}))
	t.Cleanup(srv.Close)

	return NewOpenAI("test-key", option.WithBaseURL(srv.URL+"/"), option.WithMaxRetries(0))
}

func sse(w http.ResponseWriter, events ...string) {
	w.Header().Set("Content-Type", "text/event-stream")
	for _, e := range events {
		fmt.Fprintf(w, "data: %s\n\n", e)
	}
	fmt.Fprint(w, "data: [DONE]\n\n")
}

func TestOpenAI_ChatStream(t *testing.T) {
	var body map[string]any
	cs := openAIServer(t, &body, func(w http.ResponseWriter) {
		sse(w, chunk("Hel"), chunk("lo"), chunk(""), usageChunk)
	})

	stream := make(chan StreamResponse, 10)
	resp, err := cs.ChatStream(context.Background(), ClientArgs{
		Model:       "gpt-4o-mini",
		Messages:    []Message{{Role: RoleSystem, Content: "sys"}, {Role: RoleUser, Content: "hi"}},
		MaxTokens:   16384,
		Temperature: 1.05,
	}, stream)
	require.NoError(t, err)
	close(stream)

	var chunks []string
	for c := range stream {
		chunks = append(chunks, c.Content)
	}
	assert.Equal(t, []string{"Hel", "lo"}, chunks)
	assert.Equal(t, "Hello", resp.Text)
	assert.Equal(t, int32(12), resp.InputTokens)
	assert.Equal(t, int32(3), resp.OutputTokens)
	assert.Positive(t, resp.MyEstInput)

	assert.Equal(t, "gpt-4o-mini", body["model"])
	assert.Equal(t, true, body["stream"])
	assert.Equal(t, float64(16384), body["max_tokens"])
	assert.Equal(t, 1.05, body["temperature"])
	assert.Equal(t, map[string]any{"include_usage": true}, body["stream_options"])
	msgs := body["messages"].([]any)
	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].(map[string]any)["role"])
}

func TestOpenAI_Chat(t *testing.T) {
	var body map[string]any
	cs := openAIServer(t, &body, func(w http.ResponseWriter) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"x","object":"chat.completion","created":1,"model":"m",`+
			`"choices":[{"index":0,"message":{"role":"assistant","content":"Hi there"},"finish_reason":"stop"}],`+
			`"usage":{"prompt_tokens":7,"completion_tokens":2,"total_tokens":9}}`)
	})

	resp, err := cs.Chat(context.Background(), ClientArgs{
		Model:    "o1-preview",
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Hi there", resp.Text)
	assert.Equal(t, int32(7), resp.InputTokens)
	assert.Equal(t, int32(2), resp.OutputTokens)

	_, hasMax := body["max_tokens"]
	assert.False(t, hasMax)
	_, hasStream := body["stream"]
	assert.False(t, hasStream)
}

func TestOpenAI_APIError(t *testing.T) {
	cs := openAIServer(t, nil, func(w http.ResponseWriter) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"message":"bad key","type":"invalid_request_error","param":null,"code":"invalid_api_key"}}`)
	})

	_, err := cs.Chat(context.Background(), ClientArgs{Model: "m", Messages: []Message{{Role: RoleUser, Content: "hi"}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
	assert.Contains(t, err.Error(), "bad key")
}

func TestOpenAI_StreamError(t *testing.T) {
	cs := openAIServer(t, nil, func(w http.ResponseWriter) {
		sse(w, chunk("partial"), `{"error":{"message":"overloaded"}}`)
	})

	stream := make(chan StreamResponse, 10)
	resp, err := cs.ChatStream(context.Background(), ClientArgs{Model: "m"}, stream)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "overloaded")
	assert.Equal(t, "partial", resp.Text)
}

func TestStream_OpenAI(t *testing.T) {
	cs := openAIServer(t, nil, func(w http.ResponseWriter) {
		sse(w, chunk("a"), chunk("b"), usageChunk)
	})

	var sb strings.Builder
	var last StreamResponse
	for r := range Stream(context.Background(), cs, ClientArgs{Model: "m"}) {
		sb.WriteString(r.Content)
		last = r
	}
	assert.True(t, last.Done)
	assert.NoError(t, last.Error)
	assert.Equal(t, "ab", sb.String())
	assert.Equal(t, "ab", last.Response.Text)
	assert.Equal(t, int32(3), last.Response.OutputTokens)
}
