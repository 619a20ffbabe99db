package LLM

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/openai/openai-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDecision(t *testing.T) {
	tests := []struct {
		name   string
		output string
		query  string
		ok     bool
	}{
		{"yes", "YES: weather in London today", "weather in London today", true},
		{"padded", "  YES: latest Go release\n", "latest Go release", true},
		{"no", "NO", "", false},
		{"lowercase yes", "yes: something", "", false},
		{"yes mid sentence", "I think YES: x", "", false},
		{"no space", "YES:query", "YES:query", true},
		{"empty", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, ok := ParseDecision(tt.output)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.query, query)
		})
	}
}

func TestDecisionArgs(t *testing.T) {
	args := DecisionArgs("gpt-4o", 0.7, true, "what happened today?")
	assert.Equal(t, "gpt-4o", args.Model)
	assert.Equal(t, decisionSystemPrompt, args.SystemPrompt)
	assert.Equal(t, decisionMaxTokens, args.MaxTokens)
	assert.True(t, args.DisableStreaming)
	require.Len(t, args.Messages, 1)
	assert.Contains(t, args.Messages[0].Content, `Content: "what happened today?"`)

	args = DecisionArgs("o1-preview", 1, false, "q")
	assert.Empty(t, args.SystemPrompt)
	assert.Zero(t, args.MaxTokens)
	require.Len(t, args.Messages, 1)
	assert.Equal(t, RoleUser, args.Messages[0].Role)
	assert.Contains(t, args.Messages[0].Content, decisionSystemPrompt+"\n\n")
}

func TestShouldSearch(t *testing.T) {
	fc := &fakeClient{text: "YES: euro exchange rate"}
	query, ok, err := ShouldSearch(context.Background(), fc, DecisionArgs("m", 1, true, "rate?"))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "euro exchange rate", query)

	fc = &fakeClient{text: "NO"}
	_, ok, err = ShouldSearch(context.Background(), fc, ClientArgs{})
	require.NoError(t, err)
	assert.False(t, ok)

	fc = &fakeClient{err: errors.New("down")}
	_, ok, err = ShouldSearch(context.Background(), fc, ClientArgs{})
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestWrapSearchResults(t *testing.T) {
	assert.Equal(t, "<web-search-results> abc </web-search-results>", WrapSearchResults("abc"))
}

func TestWebSearcher_Search(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer pplx-key", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"x","object":"chat.completion","created":1,"model":"m",`+
			`"choices":[{"index":0,"message":{"role":"assistant","content":"  It is sunny.\n"},"finish_reason":"stop"}]}`)
	}))
	defer srv.Close()

	ws := NewWebSearcher("pplx-key", "sonar", option.WithBaseURL(srv.URL+"/"), option.WithMaxRetries(0))
	ws.Now = func() time.Time { return time.Date(2024, time.March, 4, 9, 5, 0, 0, time.UTC) }

	got, err := ws.Search(context.Background(), "weather")
	require.NoError(t, err)
	assert.Equal(t, "Found online today, Mon 04 Mar 2024, at time 09:05:00 UTC: It is sunny.", got)

	assert.Equal(t, "sonar", body["model"])
	assert.Equal(t, searchTemperature, body["temperature"])
	msgs := body["messages"].([]any)
	require.Len(t, msgs, 2)
	assert.Equal(t, searchSystemPrompt, msgs[0].(map[string]any)["content"])
	assert.Equal(t, "weather", msgs[1].(map[string]any)["content"])
}

func TestWebSearcher_SearchError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"nope"}}`, http.StatusInternalServerError)
	}))
	defer srv.Close()

	ws := NewWebSearcher("k", "sonar", option.WithBaseURL(srv.URL+"/"), option.WithMaxRetries(0))
	_, err := ws.Search(context.Background(), "q")
	assert.ErrorContains(t, err, "error from Perplexity API")
}
