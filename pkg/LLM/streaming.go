package LLM

import (
	"context"

	"github.com/duluk/chatbot/pkg/logger"
)

// Stream runs a request in its own goroutine. Chunks arrive on the returned
// channel followed by one Done item; the channel is then closed. For models
// without streaming support the whole reply comes as a single chunk.
//
// If ctx is cancelled the consumer may see the channel close without a Done
// item.
func Stream(ctx context.Context, client Client, args ClientArgs) <-chan StreamResponse {
	out := make(chan StreamResponse)

	go func() {
		defer close(out)

		var resp ClientResponse
		var err error
		if args.DisableStreaming {
			resp, err = client.Chat(ctx, args)
			if err == nil && resp.Text != "" {
				err = emit(ctx, out, resp.Text)
			}
		} else {
			resp, err = client.ChatStream(ctx, args, out)
		}

		if err != nil {
			logger.Error("Chat request failed", "model", args.Model, "error", err)
		} else {
			logger.Debug("Chat request finished",
				"model", args.Model,
				"input_tokens", resp.InputTokens,
				"output_tokens", resp.OutputTokens,
				"estimated_input", resp.MyEstInput,
			)
		}

		select {
		case out <- StreamResponse{Done: true, Error: err, Response: resp}:
		case <-ctx.Done():
		}
	}()

	return out
}
