package config

import (
	"fmt"
	"io"
	"os"
	"os/user"
	"path/filepath"
	"slices"
	"strings"

	"github.com/charmbracelet/x/term"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"
)

// ModelConfig describes one entry of the model registry. The supports_*
// settings default to true when left out of the YAML.
type ModelConfig struct {
	Name                  string  `mapstructure:"name" yaml:"name"`
	FriendlyName          string  `mapstructure:"friendly_name" yaml:"friendly_name"`
	Provider              string  `mapstructure:"provider" yaml:"provider"`
	MaxTokens             int     `mapstructure:"max_tokens" yaml:"max_tokens"`
	Temperature           float64 `mapstructure:"temperature" yaml:"temperature"`
	SupportsStreaming     *bool   `mapstructure:"supports_streaming" yaml:"supports_streaming,omitempty"`
	SupportsSystemMessage *bool   `mapstructure:"supports_system_message" yaml:"supports_system_message,omitempty"`
	KnowledgeCutoff       string  `mapstructure:"knowledge_cutoff" yaml:"knowledge_cutoff,omitempty"`
}

func (m ModelConfig) Streaming() bool {
	return m.SupportsStreaming == nil || *m.SupportsStreaming
}

func (m ModelConfig) SystemMessages() bool {
	return m.SupportsSystemMessage == nil || *m.SupportsSystemMessage
}

// Label is the friendly name, falling back to the API name.
func (m ModelConfig) Label() string {
	if m.FriendlyName != "" {
		return m.FriendlyName
	}
	return m.Name
}

const knowledgeCutoff = "April 2024"

// DefaultModels is the built-in registry, in menu order.
var DefaultModels = []ModelConfig{
	{Name: "gpt-4o-2024-08-06", FriendlyName: "GPT-4o (2024/8/6 snapshot)", Provider: "openai", MaxTokens: 16384, Temperature: 1.05, KnowledgeCutoff: knowledgeCutoff},
	{Name: "chatgpt-4o-latest", FriendlyName: "GPT-4o (tracking latest)", Provider: "openai", MaxTokens: 16384, Temperature: 1.05, KnowledgeCutoff: knowledgeCutoff},
	{Name: "gpt-4o-mini", FriendlyName: "GPT-4o-mini", Provider: "openai", MaxTokens: 16384, Temperature: 1.05, KnowledgeCutoff: knowledgeCutoff},
	{Name: "gpt-4-turbo", FriendlyName: "GPT-4-Turbo", Provider: "openai", MaxTokens: 4096, Temperature: 1.05, KnowledgeCutoff: knowledgeCutoff},
	{Name: "claude-3-5-sonnet-20240620", FriendlyName: "Claude 3.5 Sonnet", Provider: "anthropic", MaxTokens: 8192, Temperature: 0.5, KnowledgeCutoff: knowledgeCutoff},
	{Name: "claude-3-opus-20240229", FriendlyName: "Claude 3 Opus", Provider: "anthropic", MaxTokens: 4096, Temperature: 0.5, KnowledgeCutoff: knowledgeCutoff},
}

// Profile is what differs between the front-ends built on this package.
type Profile struct {
	Name         string // ~/.config/<Name>, log and database file names
	Description  string
	DefaultModel string
	Models       []ModelConfig
	Providers    []string // models of other providers are dropped

	Menus           bool // main menu, recent chats and model picker
	Persist         bool // transcripts and the usage index
	WebSearch       bool
	MarkdownReplies bool   // ask the model to answer in Markdown
	Assistant       string // overrides the model label in the banner
	Addressee       string // named in the banner's instructions, e.g. "to Claude"
}

var ChatbotProfile = Profile{
	Name: "chatbot",
	Description: "Universal Chatbot - Chat with various AI models\n" +
		"Use your own OpenAI and/or Anthropic API key to chat with their latest LLMs.",
	DefaultModel:    "chatgpt-4o-latest",
	Models:          DefaultModels,
	Providers:       []string{"openai", "anthropic", "google", "deepseek", "ollama"},
	Menus:           true,
	Persist:         true,
	WebSearch:       true,
	MarkdownReplies: true,
}

var ClaudeProfile = Profile{
	Name:         "claude",
	Description:  "Chat with Anthropic's Claude 3 Opus.",
	DefaultModel: "claude-3-opus-20240229",
	Models: []ModelConfig{
		{Name: "claude-3-opus-20240229", FriendlyName: "Claude 3 Opus", Provider: "anthropic", MaxTokens: 4096, Temperature: 0.5, KnowledgeCutoff: "August 2023"},
	},
	Providers: []string{"anthropic"},
	Assistant: "Anthropic's Claude 3 Opus",
	Addressee: "Claude",
}

var ReadmeProfile = Profile{
	Name:         "readmemaker",
	Description:  "Generate a README.md for a directory.",
	DefaultModel: "gpt-4-0125-preview",
	Models: []ModelConfig{
		{Name: "gpt-4-0125-preview", FriendlyName: "GPT-4 Turbo Preview", Provider: "openai", MaxTokens: 4096, Temperature: 0.4},
	},
	Providers: []string{"openai"},
}

// Options holds runtime configuration options
type Options struct {
	Profile    Profile
	ConfigDir  string
	ConfigFile string // the file actually read, if any

	ModelName   string // requested model; "" means the profile default
	SelectModel bool
	Models      []ModelConfig

	WebSearch   bool
	SearchModel string // Perplexity model used for web search

	HistoryDir    string
	NoRecord      bool
	SearchKeyword string // list transcripts whose turns mention this
	Quiet         bool
	DumpConfig    bool
	ShowVersion   bool

	LogFileName string
	LogLevel    string
	LogFormat   string
	DBFileName  string
	DBTable     string

	// Terminal dimensions and tab width for line wrapping
	ScreenWidth     int // total terminal width
	ScreenTextWidth int // usable text width (terminal width minus pad, capped)
	ScreenHeight    int // total terminal height
	TabWidth        int
}

const Version = "0.4.0"

const (
	MaxTermTextWidth = 100
	widthPad         = 5
	TabWidth         = 4

	DefaultSearchModel = "llama-3.1-sonar-huge-128k-online"
)

var (
	commit = "Unknown"
	date   = "Unknown"
)

// FullVersion is the version string with build metadata.
func FullVersion() string {
	return fmt.Sprintf("Version: %s\nCommit:  %s\nDate:    %s", Version, commit, date)
}

// Initialize registers the profile's flags on pflag.CommandLine, parses
// os.Args, reads the config file and returns the merged options. Precedence
// is flag > config file > profile default.
func Initialize(profile Profile) (*Options, error) {
	configDir := filepath.Join(os.Getenv("HOME"), ".config", profile.Name)

	pflag.StringP("config", "C", "", "Configuration file")
	if profile.Menus {
		pflag.StringP("model", "m", "", "Model to use (see the list below)")
		pflag.BoolP("select-model", "s", false, "Show the model selection menu")
	}
	if profile.WebSearch {
		pflag.BoolP("web-search", "w", false, "Enable web search functionality for answering queries")
	}
	if profile.Persist {
		pflag.String("history-dir", "", "Directory for chat transcripts")
		pflag.Bool("no-record", false, "Disable saving transcripts and usage")
		pflag.String("search", "", "List saved chats mentioning keyword")
	}
	pflag.BoolP("quiet", "q", false, "Suppress non-essential output")
	pflag.BoolP("dump-config", "d", false, "Dump configuration and exit")
	pflag.String("log-level", "", "Log level: debug, info, warn or error")
	pflag.BoolP("version", "v", false, "Show version and exit")
	pflag.Usage = usage(profile)

	if err := pflag.CommandLine.Parse(os.Args[1:]); err != nil {
		return nil, err
	}
	viper.BindPFlags(pflag.CommandLine)

	viper.SetDefault("defaults.model", profile.DefaultModel)
	viper.SetDefault("history.dir", filepath.Join("~", ".chatbot", "chat-history"))
	viper.SetDefault("web_search.model", DefaultSearchModel)
	viper.SetDefault("log.file", filepath.Join(configDir, profile.Name+".log"))
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "text")
	viper.SetDefault("database.file", filepath.Join(configDir, profile.Name+".db"))
	viper.SetDefault("database.table", "turns")

	if configFile := viper.GetString("config"); configFile != "" {
		viper.SetConfigFile(ExpandHomePath(configFile))
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(configDir)
		viper.AddConfigPath(".")
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var custom []ModelConfig
	if err := viper.UnmarshalKey("models", &custom); err != nil {
		return nil, fmt.Errorf("error parsing models: %w", err)
	}
	models, err := mergeModels(profile.Models, custom, profile.Providers)
	if err != nil {
		return nil, err
	}

	width, height := determineScreenSize()
	textWidth := min(width-widthPad, MaxTermTextWidth)

	opts := &Options{
		Profile:         profile,
		ConfigDir:       configDir,
		ConfigFile:      viper.ConfigFileUsed(),
		Models:          models,
		SelectModel:     viper.GetBool("select-model"),
		WebSearch:       viper.GetBool("web-search"),
		SearchModel:     viper.GetString("web_search.model"),
		NoRecord:        viper.GetBool("no-record") || !profile.Persist,
		SearchKeyword:   viper.GetString("search"),
		Quiet:           viper.GetBool("quiet"),
		DumpConfig:      viper.GetBool("dump-config"),
		ShowVersion:     viper.GetBool("version"),
		LogFileName:     ExpandHomePath(os.ExpandEnv(viper.GetString("log.file"))),
		LogFormat:       viper.GetString("log.format"),
		DBFileName:      ExpandHomePath(os.ExpandEnv(viper.GetString("database.file"))),
		DBTable:         viper.GetString("database.table"),
		ScreenWidth:     width,
		ScreenTextWidth: textWidth,
		ScreenHeight:    height,
		TabWidth:        TabWidth,
	}

	// Model: CLI flag > config default > profile default
	if m := viper.GetString("model"); m != "" {
		opts.ModelName = m
	} else {
		opts.ModelName = viper.GetString("defaults.model")
	}

	if d := viper.GetString("history-dir"); d != "" {
		opts.HistoryDir = ExpandHomePath(d)
	} else {
		opts.HistoryDir = ExpandHomePath(os.ExpandEnv(viper.GetString("history.dir")))
	}

	if l := viper.GetString("log-level"); l != "" {
		opts.LogLevel = l
	} else {
		opts.LogLevel = viper.GetString("log.level")
	}

	return opts, nil
}

// mergeModels overlays custom entries onto the defaults by name, appends new
// ones, and drops models of providers the profile doesn't talk to.
func mergeModels(defaults, custom []ModelConfig, providers []string) ([]ModelConfig, error) {
	models := slices.Clone(defaults)
	for _, c := range custom {
		if c.Name == "" {
			return nil, fmt.Errorf("model entry without a name")
		}
		i := slices.IndexFunc(models, func(m ModelConfig) bool { return m.Name == c.Name })
		if i < 0 {
			if c.Provider == "" {
				return nil, fmt.Errorf("model %s: provider not set", c.Name)
			}
			models = append(models, c)
			continue
		}
		models[i] = overlay(models[i], c)
	}

	models = slices.DeleteFunc(models, func(m ModelConfig) bool {
		return !slices.Contains(providers, m.Provider)
	})
	if len(models) == 0 {
		return nil, fmt.Errorf("no models configured for providers %s", strings.Join(providers, ", "))
	}
	return models, nil
}

func overlay(base, c ModelConfig) ModelConfig {
	if c.FriendlyName != "" {
		base.FriendlyName = c.FriendlyName
	}
	if c.Provider != "" {
		base.Provider = c.Provider
	}
	if c.MaxTokens != 0 {
		base.MaxTokens = c.MaxTokens
	}
	if c.Temperature != 0 {
		base.Temperature = c.Temperature
	}
	if c.SupportsStreaming != nil {
		base.SupportsStreaming = c.SupportsStreaming
	}
	if c.SupportsSystemMessage != nil {
		base.SupportsSystemMessage = c.SupportsSystemMessage
	}
	if c.KnowledgeCutoff != "" {
		base.KnowledgeCutoff = c.KnowledgeCutoff
	}
	return base
}

// Model returns the registry entry for name.
func (o *Options) Model(name string) (ModelConfig, bool) {
	i := slices.IndexFunc(o.Models, func(m ModelConfig) bool { return m.Name == name })
	if i < 0 {
		return ModelConfig{}, false
	}
	return o.Models[i], true
}

// ModelNames lists the registry in menu order.
func (o *Options) ModelNames() []string {
	names := make([]string, len(o.Models))
	for i, m := range o.Models {
		names[i] = m.Name
	}
	return names
}

func usage(profile Profile) func() {
	return func() {
		out := pflag.CommandLine.Output()
		fmt.Fprintf(out, "%s\n\nUsage of %s:\n", profile.Description, filepath.Base(os.Args[0]))
		pflag.PrintDefaults()
		if profile.Menus {
			fmt.Fprintf(out, "\nAvailable models (default %s):\n", profile.DefaultModel)
			for _, m := range profile.Models {
				fmt.Fprintf(out, "  - %s\n", m.Name)
			}
		}
	}
}

func determineScreenSize() (int, int) {
	width, height, err := term.GetSize(os.Stdout.Fd())
	if err != nil {
		return 80, 24
	}

	return width, height
}

// ExpandHomePath expands a leading ~. If there's an error getting the user
// the path is returned unmodified.
func ExpandHomePath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home := os.Getenv("HOME")
		if home == "" {
			currentUser, err := user.Current()
			if err != nil {
				// I'm always trying to sneak a goto in just to trigger :)
				goto oopsies
			}
			home = currentUser.HomeDir
		}
		return filepath.Join(home, path[1:])
	}
oopsies:
	return path
}

type dump struct {
	Profile     string        `yaml:"profile"`
	ConfigFile  string        `yaml:"config_file"`
	Model       string        `yaml:"model"`
	SelectModel bool          `yaml:"select_model"`
	WebSearch   bool          `yaml:"web_search"`
	SearchModel string        `yaml:"search_model"`
	HistoryDir  string        `yaml:"history_dir"`
	NoRecord    bool          `yaml:"no_record"`
	Log         dumpLog       `yaml:"log"`
	Database    dumpDatabase  `yaml:"database"`
	Screen      dumpScreen    `yaml:"screen"`
	Models      []ModelConfig `yaml:"models"`
}

type dumpLog struct {
	File   string `yaml:"file"`
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type dumpDatabase struct {
	File  string `yaml:"file"`
	Table string `yaml:"table"`
}

type dumpScreen struct {
	Width     int `yaml:"width"`
	TextWidth int `yaml:"text_width"`
	Height    int `yaml:"height"`
	TabWidth  int `yaml:"tab_width"`
}

// DumpConfig writes the effective options as YAML.
func DumpConfig(w io.Writer, opts *Options) error {
	out, err := yaml.Marshal(dump{
		Profile:     opts.Profile.Name,
		ConfigFile:  opts.ConfigFile,
		Model:       opts.ModelName,
		SelectModel: opts.SelectModel,
		WebSearch:   opts.WebSearch,
		SearchModel: opts.SearchModel,
		HistoryDir:  opts.HistoryDir,
		NoRecord:    opts.NoRecord,
		Log:         dumpLog{File: opts.LogFileName, Level: opts.LogLevel, Format: opts.LogFormat},
		Database:    dumpDatabase{File: opts.DBFileName, Table: opts.DBTable},
		Screen: dumpScreen{
			Width:     opts.ScreenWidth,
			TextWidth: opts.ScreenTextWidth,
			Height:    opts.ScreenHeight,
			TabWidth:  opts.TabWidth,
		},
		Models: opts.Models,
	})
	if err != nil {
		return fmt.Errorf("error encoding config: %w", err)
	}

	_, err = w.Write(out)
	return err
}
