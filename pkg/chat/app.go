package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/duluk/chatbot/pkg/LLM"
	"github.com/duluk/chatbot/pkg/config"
	"github.com/duluk/chatbot/pkg/database"
	"github.com/duluk/chatbot/pkg/history"
	"github.com/duluk/chatbot/pkg/logger"
	"github.com/duluk/chatbot/pkg/prompt"
	"github.com/duluk/chatbot/pkg/tui"
)

// App wires the options of one front-end into a chat Session.
type App struct {
	Opts     *config.Options
	Prompter Prompter
	Out      io.Writer
	Now      func() time.Time

	NewClient   func(ctx context.Context, provider string) (LLM.Client, error)
	NewSearcher func() (Searcher, error)
	OpenDB      func() (*database.ChatDB, error)
	PickSession func(keyword string, matches []database.SessionMatch) (string, error)
}

func NewApp(opts *config.Options, p Prompter, out io.Writer) *App {
	return &App{
		Opts:     opts,
		Prompter: p,
		Out:      out,
		Now:      time.Now,
		NewClient: func(ctx context.Context, provider string) (LLM.Client, error) {
			key, err := LLM.ClientKey(provider, opts.ConfigDir)
			if err != nil && LLM.NeedsKey(provider) {
				return nil, err
			}
			return LLM.NewClient(ctx, provider, key)
		},
		NewSearcher: func() (Searcher, error) {
			key, err := LLM.ClientKey("perplexity", opts.ConfigDir)
			if err != nil {
				return nil, err
			}
			return LLM.NewWebSearcher(key, opts.SearchModel), nil
		},
		OpenDB: func() (*database.ChatDB, error) {
			if err := os.MkdirAll(filepath.Dir(opts.DBFileName), 0o755); err != nil {
				return nil, fmt.Errorf("error creating database directory: %w", err)
			}
			return database.NewDB(opts.DBFileName, opts.DBTable)
		},
		PickSession: func(keyword string, matches []database.SessionMatch) (string, error) {
			return tui.RunSearch(keyword, matches, opts.ScreenWidth, opts.ScreenHeight)
		},
	}
}

// Run picks the model and the conversation, then chats until the user is
// done.
func (a *App) Run(ctx context.Context) error {
	var db *database.ChatDB
	if !a.Opts.NoRecord {
		var err error
		if db, err = a.OpenDB(); err != nil {
			// chatting still works, only the usage index is lost
			logger.Error("Error opening database", "file", a.Opts.DBFileName, "error", err)
			fmt.Fprintln(a.Out, errorStyle.Render(fmt.Sprintf("Error opening database: %v", err)))
		} else {
			defer db.Close()
		}
	}

	var resumeFile string
	if a.Opts.SearchKeyword != "" {
		if db == nil {
			return errors.New("search needs the chat database")
		}
		file, err := a.search(db)
		if err != nil {
			return err
		}
		if file == "" {
			fmt.Fprintln(a.Out, "No chat selected or file not found.")
			return nil
		}
		resumeFile = file
	}

	model, err := a.chooseModel(providerOf(a.Opts.HistoryDir, resumeFile))
	if err != nil {
		return err
	}
	logger.Info("Chat model", "model", model.Name, "provider", model.Provider)

	client, err := a.NewClient(ctx, model.Provider)
	if err != nil {
		return fmt.Errorf("error creating %s client: %w", model.Provider, err)
	}
	defer client.Close()

	s := &Session{
		Model:     model,
		Client:    client,
		Prompter:  a.Prompter,
		Out:       a.Out,
		Assistant: a.Opts.Profile.Assistant,
		Addressee: a.Opts.Profile.Addressee,
		Markdown:  a.Opts.Profile.MarkdownReplies,
		Quiet:     a.Opts.Quiet,
		TextWidth: a.Opts.ScreenTextWidth,
		TabWidth:  a.Opts.TabWidth,
		Now:       a.Now,
	}
	store := history.NewStore(a.Opts.HistoryDir, model.Provider)
	store.Now = a.Now
	if !a.Opts.NoRecord {
		s.Store = store
	}
	if db != nil {
		s.Recorder = db
	}

	if a.Opts.WebSearch {
		searcher, err := a.NewSearcher()
		if err != nil {
			logger.Warn("Web search disabled", "error", err)
			fmt.Fprintln(a.Out, errorStyle.Render(fmt.Sprintf("Web search disabled: %v", err)))
		} else {
			s.Searcher = searcher
		}
	}

	if resumeFile == "" && a.Opts.Profile.Menus {
		choice, err := MainMenu(a.Prompter, a.Out)
		if err != nil {
			return ignoreEOF(err)
		}
		if choice == ChoiceResume {
			file, err := SelectRecent(store, a.Prompter, a.Out)
			if errors.Is(err, ErrNoSelection) {
				fmt.Fprintln(a.Out, "No chat selected or file not found.")
				return nil
			}
			if err != nil {
				return ignoreEOF(err)
			}
			resumeFile = file
		}
	}

	var resume []LLM.Message
	if resumeFile != "" {
		if resume, err = history.Load(resumeFile); err != nil {
			return err
		}
		logger.Info("Resuming chat", "file", resumeFile, "messages", len(resume))
		fmt.Fprintf(a.Out, "Resuming chat: %s\n", history.DisplayName(resumeFile))
	}

	s.Begin(resume)
	return s.Run(ctx)
}

func (a *App) search(db *database.ChatDB) (string, error) {
	matches, err := db.SearchSessions(a.Opts.SearchKeyword)
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		fmt.Fprintf(a.Out, "No saved chats mention %q.\n", a.Opts.SearchKeyword)
		return "", nil
	}
	return a.PickSession(a.Opts.SearchKeyword, matches)
}

// chooseModel resolves the requested model. A resumed transcript pins the
// provider; the requested model is kept when it matches, otherwise the
// first model of that provider is used.
func (a *App) chooseModel(provider string) (config.ModelConfig, error) {
	models := a.Opts.Models
	if provider != "" {
		models = slices.DeleteFunc(slices.Clone(models), func(m config.ModelConfig) bool {
			return m.Provider != provider
		})
		if len(models) == 0 {
			return config.ModelConfig{}, fmt.Errorf("no models configured for provider %s", provider)
		}
	}

	m, ok := a.Opts.Model(a.Opts.ModelName)
	if ok && (provider == "" || m.Provider == provider) && !a.Opts.SelectModel {
		return m, nil
	}
	if !ok && !a.Opts.SelectModel {
		fmt.Fprintf(a.Out, "Invalid model: %s\n", a.Opts.ModelName)
	}

	if !a.Opts.Profile.Menus {
		if !ok {
			return config.ModelConfig{}, fmt.Errorf("unknown model %q", a.Opts.ModelName)
		}
		return models[0], nil
	}
	if provider != "" && !a.Opts.SelectModel {
		return models[0], nil
	}
	return SelectModel(models, a.Prompter, a.Out)
}

// providerOf reads the provider from a transcript path laid out as
// <historyDir>/<provider>/<day>/<file>.
func providerOf(historyDir, file string) string {
	if file == "" {
		return ""
	}
	rel, err := filepath.Rel(historyDir, file)
	if err != nil || strings.HasPrefix(rel, "..") {
		return ""
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	if len(parts) < 2 {
		return ""
	}
	return parts[0]
}

// ignoreEOF treats leaving a menu with Ctrl+D or Ctrl+C as quitting.
func ignoreEOF(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, prompt.ErrAborted) {
		return nil
	}
	return err
}
