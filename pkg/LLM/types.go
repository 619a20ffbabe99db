package LLM

import (
	"context"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one entry of a conversation; it's also the transcript format.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ClientResponse struct {
	Text         string
	InputTokens  int32
	OutputTokens int32
	MyEstInput   int32 // local estimate of the request's input tokens
}

// StreamResponse represents a chunk of streaming response. The last item on
// a stream has Done set and carries the full Response or the Error.
type StreamResponse struct {
	Content  string
	Done     bool
	Error    error
	Response ClientResponse
}

// Client is a chat provider. ChatStream sends content chunks on stream as
// they arrive and returns the assembled response; it never closes stream.
type Client interface {
	Chat(ctx context.Context, args ClientArgs) (ClientResponse, error)
	ChatStream(ctx context.Context, args ClientArgs, stream chan<- StreamResponse) (ClientResponse, error)
	Close() error
}

type ClientArgs struct {
	Model string
	// SystemPrompt goes in the provider's system slot. Providers whose
	// system prompt is just another message can carry it in Messages instead.
	SystemPrompt string
	Messages     []Message
	MaxTokens    int // 0 leaves it to the provider
	Temperature  float64

	// DisableStreaming makes Stream issue a single Chat request.
	DisableStreaming bool
}
