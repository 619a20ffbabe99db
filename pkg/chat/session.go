package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/duluk/chatbot/pkg/LLM"
	"github.com/duluk/chatbot/pkg/config"
	"github.com/duluk/chatbot/pkg/database"
	"github.com/duluk/chatbot/pkg/history"
	"github.com/duluk/chatbot/pkg/linewrap"
	"github.com/duluk/chatbot/pkg/logger"
	"github.com/duluk/chatbot/pkg/prompt"
	"github.com/duluk/chatbot/pkg/spinner"
	"github.com/duluk/chatbot/pkg/upload"
)

// Prompter is where user input comes from; prompt.Terminal and prompt.Plain
// both satisfy it.
type Prompter interface {
	ReadLine(prompt string) (string, error)
	ReadMessage(ctx context.Context) (string, error)
}

// Recorder stores completed turns; *database.ChatDB satisfies it.
type Recorder interface {
	InsertTurn(t database.Turn) error
}

// Searcher runs web searches; *LLM.WebSearcher satisfies it.
type Searcher interface {
	Search(ctx context.Context, query string) (string, error)
}

// Session is one conversation with one model.
type Session struct {
	Model    config.ModelConfig
	Client   LLM.Client
	Prompter Prompter
	Out      io.Writer
	Renderer *upload.Renderer

	Store    *history.Store // nil: transcripts are not saved
	Recorder Recorder       // nil: turns are not recorded
	Searcher Searcher       // nil: web search is off

	Assistant string // banner name, defaults to the model label
	Addressee string
	Markdown  bool
	Quiet     bool

	TextWidth int
	TabWidth  int
	Now       func() time.Time

	Messages []LLM.Message

	systemPrompt string
}

// Begin prepares the conversation. A nil resume starts a new chat, which for
// OpenAI models that take system messages opens with the system message.
func (s *Session) Begin(resume []LLM.Message) {
	if s.Now == nil {
		s.Now = time.Now
	}
	if s.Renderer == nil {
		s.Renderer = upload.NewRenderer()
	}
	now := s.Now()
	s.systemPrompt = SystemPrompt(s.Model, now, s.Markdown)

	if resume != nil {
		s.Messages = resume
		return
	}
	s.Messages = nil
	if s.Model.Provider == "openai" && s.Model.SystemMessages() {
		s.Messages = append(s.Messages, LLM.Message{Role: LLM.RoleSystem, Content: OpenAISystemMessage(now)})
	}
}

// Run shows the banner and loops until "exit", end of input or Ctrl+C.
func (s *Session) Run(ctx context.Context) error {
	name := s.Assistant
	if name == "" {
		name = s.Model.Label()
	}
	fmt.Fprintln(s.Out, bannerStyle.Render(Welcome(name, s.Addressee)))

	for {
		content, err := s.Prompter.ReadMessage(ctx)
		switch {
		case errors.Is(err, io.EOF):
			return nil
		case errors.Is(err, prompt.ErrAborted), errors.Is(err, context.Canceled):
			fmt.Fprintln(s.Out, "\nInterrupted by user")
			return nil
		case err != nil:
			return err
		}

		if shouldExit(content) {
			return nil
		}

		if err := s.Turn(ctx, content); err != nil {
			return err
		}
	}
}

// Turn handles one user input. Provider failures are printed and the
// pending user messages are dropped; only a cancelled context is returned.
func (s *Session) Turn(ctx context.Context, content string) error {
	fmt.Fprintf(s.Out, "\n%s\n", replyStyle.Render(s.Model.Label()+":"))

	pending := len(s.Messages)
	if req, ok := upload.ParseRequest(content); ok {
		if !s.attach(req) {
			return nil
		}
	} else {
		s.append(LLM.RoleUser, content)
		if s.Searcher != nil {
			s.webSearch(ctx, content)
		}
	}

	resp, err := s.respond(ctx)
	if err != nil {
		if ctx.Err() != nil {
			s.Messages = s.Messages[:pending]
			return ctx.Err()
		}
		logger.Error("Chat request failed", "model", s.Model.Name, "error", err)
		fmt.Fprintf(s.Out, "\nError: %v\n\n", err)
		s.Messages = s.Messages[:pending]
		return nil
	}

	s.append(LLM.RoleAssistant, resp.Text)
	fmt.Fprintf(s.Out, "\n\n%s\n", rule(s.TextWidth))

	s.save()
	s.record(content, resp)
	return nil
}

func (s *Session) append(role, content string) {
	s.Messages = append(s.Messages, LLM.Message{Role: role, Content: content})
}

// attach turns an upload request into a user message. It returns false when
// there is nothing to send.
func (s *Session) attach(req upload.Request) bool {
	if req.IsDir {
		doc, count := s.Renderer.RenderDirectory(req.Path)
		switch doc {
		case upload.DirectoryTooBig:
			fmt.Fprintf(s.Out, "\n%s\n\n", upload.DirectoryTooBigNotice(count))
			return false
		case "":
			fmt.Fprintln(s.Out, errorStyle.Render("Directory is empty or contains no readable files."))
			return false
		}
		s.append(LLM.RoleUser, upload.DirectoryPrompt(doc))
		fmt.Fprintf(s.Out, "\nEstimated token count for this recursive directory analysis: %d\n\n", count)
		return true
	}

	f := s.Renderer.RenderFile(req.Path)
	switch f.Status {
	case upload.StatusTooBig:
		fmt.Fprintf(s.Out, "\n%s\n\n", upload.FileTooBigNotice(f.Name, f.Tokens))
		return false
	case upload.StatusEmpty:
		fmt.Fprintf(s.Out, "\nThe file: %s is empty.\n\n", f.Name)
		fmt.Fprintf(s.Out, "Estimated token count for this file: %d\n\n", f.Tokens)
		return false
	case upload.StatusFailed:
		// the model is told the upload failed and answers accordingly
		fmt.Fprintf(s.Out, "\nError reading file: %v\n", f.Err)
		s.append(LLM.RoleUser, f.Content)
		return true
	}

	s.append(LLM.RoleUser, upload.FilePrompt(f.Name, f.Content))
	fmt.Fprintf(s.Out, "\nEstimated token count for this file: %d\n\n", f.Tokens)
	return true
}

// webSearch asks the model whether content needs fresh information and, if
// so, adds the search results and the follow-up instruction.
func (s *Session) webSearch(ctx context.Context, content string) {
	args := LLM.DecisionArgs(s.Model.Name, s.Model.Temperature, s.Model.SystemMessages(), content)
	query, ok, err := LLM.ShouldSearch(ctx, s.Client, args)
	if err != nil {
		logger.Warn("Web search decision failed", "model", s.Model.Name, "error", err)
		fmt.Fprintf(s.Out, "Error during web search: %v\n", err)
		return
	}
	if !ok {
		return
	}

	fmt.Fprintln(s.Out, "Web search in progress...")
	fmt.Fprintln(s.Out)
	logger.Info("Web search", "query", query)
	results, err := s.Searcher.Search(ctx, query)
	if err != nil {
		fmt.Fprintf(s.Out, "Error during web search: %v\n", err)
		return
	}

	s.append(LLM.RoleAssistant, LLM.WrapSearchResults(results))
	s.append(LLM.RoleUser, LLM.WebSearchFollowUp)
}

func (s *Session) args() LLM.ClientArgs {
	args := LLM.ClientArgs{
		Model:            s.Model.Name,
		Messages:         s.Messages,
		Temperature:      s.Model.Temperature,
		DisableStreaming: !s.Model.Streaming(),
	}
	if s.Model.Provider == "openai" {
		// o1-style models reject max_tokens on the non-streaming path
		if s.Model.Streaming() {
			args.MaxTokens = s.Model.MaxTokens
		}
		return args
	}
	args.SystemPrompt = s.systemPrompt
	args.MaxTokens = s.Model.MaxTokens
	return args
}

// respond streams the reply through the line wrapper, with a spinner until
// the first chunk arrives.
func (s *Session) respond(ctx context.Context) (LLM.ClientResponse, error) {
	stop := func() {}
	if !s.Quiet {
		stop = spinner.Start(ctx, s.Out, "Waiting for response...")
	}
	defer stop()

	lw := linewrap.NewLineWrapper(s.TextWidth, s.TabWidth, s.Out)

	var final LLM.StreamResponse
	for r := range LLM.Stream(ctx, s.Client, s.args()) {
		stop()
		if r.Done {
			final = r
			continue
		}
		if _, err := lw.Write([]byte(r.Content)); err != nil {
			logger.Warn("Error writing response", "error", err)
		}
	}
	lw.Flush()

	if !final.Done {
		if err := ctx.Err(); err != nil {
			return LLM.ClientResponse{}, err
		}
		return LLM.ClientResponse{}, errors.New("response stream closed unexpectedly")
	}
	return final.Response, final.Error
}

func (s *Session) save() {
	if s.Store == nil {
		return
	}
	if err := s.Store.Save(s.Messages); err != nil {
		logger.Error("Error saving chat", "error", err)
		fmt.Fprintln(s.Out, errorStyle.Render(fmt.Sprintf("Error saving chat: %v", err)))
	}
}

func (s *Session) record(content string, resp LLM.ClientResponse) {
	if s.Recorder == nil {
		return
	}
	turn := database.Turn{
		Prompt:         content,
		Response:       resp.Text,
		ModelName:      s.Model.Name,
		Temperature:    s.Model.Temperature,
		InputTokens:    resp.InputTokens,
		OutputTokens:   resp.OutputTokens,
		EstInputTokens: resp.MyEstInput,
	}
	if s.Store != nil {
		turn.SessionFile = s.Store.File()
	}
	if err := s.Recorder.InsertTurn(turn); err != nil {
		logger.Error("Error recording turn", "error", err)
		return
	}
	logger.Debug("Recorded turn", "file", turn.SessionFile, "input_tokens", resp.InputTokens, "output_tokens", resp.OutputTokens)
}
