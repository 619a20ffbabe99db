package readme

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/duluk/chatbot/pkg/LLM"
	"github.com/duluk/chatbot/pkg/config"
	"github.com/duluk/chatbot/pkg/logger"
	"github.com/duluk/chatbot/pkg/upload"
)

const DirectoryQuestion = "Please enter the absolute path of the directory to start the file scan from: "

var (
	ErrTooBig = errors.New("directory is too large to summarise")
	ErrEmpty  = errors.New("directory is empty or contains no readable files")
)

// Prompt is the single user message asking for the README.
func Prompt(doc string) string {
	return "What follows is a set of file contents from a git repository. " +
		"You must create a standard README.md file for the git repository " +
		"based these file contents. Use the file contents to infer the nature " +
		"and purpose of the git repository, along with any other details " +
		"which are pertinent to the formation of an excellent standard README. " +
		"Note that your response will be written directly to the README.md file, " +
		"so do not preface the content of the README document in any way." +
		"These are the file contents:\n\n" + doc
}

type Generator struct {
	Client   LLM.Client
	Model    config.ModelConfig
	Renderer *upload.Renderer
}

func NewGenerator(client LLM.Client, model config.ModelConfig) *Generator {
	return &Generator{Client: client, Model: model, Renderer: upload.NewRenderer()}
}

// Generate writes <dir>/README.md and returns its path.
func (g *Generator) Generate(ctx context.Context, dir string) (string, error) {
	doc, count := g.Renderer.RenderDirectory(dir)
	switch doc {
	case upload.DirectoryTooBig:
		return "", fmt.Errorf("%w: estimated %d tokens", ErrTooBig, count)
	case "":
		return "", ErrEmpty
	}
	logger.Info("Generating README", "dir", dir, "tokens", count, "model", g.Model.Name)

	resp, err := g.Client.Chat(ctx, LLM.ClientArgs{
		Model:       g.Model.Name,
		Messages:    []LLM.Message{{Role: LLM.RoleUser, Content: Prompt(doc)}},
		Temperature: g.Model.Temperature,
	})
	if err != nil {
		return "", err
	}

	path := filepath.Join(dir, "README.md")
	if err := os.WriteFile(path, []byte(resp.Text), 0o644); err != nil {
		return "", fmt.Errorf("error writing README: %w", err)
	}
	logger.Info("README written", "file", path, "input_tokens", resp.InputTokens, "output_tokens", resp.OutputTokens)
	return path, nil
}

// Run asks for the directory and generates its README.
func Run(ctx context.Context, g *Generator, readLine func(prompt string) (string, error), out io.Writer) error {
	answer, err := readLine(DirectoryQuestion)
	if err != nil {
		return err
	}
	dir := config.ExpandHomePath(strings.TrimSpace(answer))
	if dir == "" {
		return errors.New("no directory given")
	}

	if _, err := g.Generate(ctx, dir); err != nil {
		return err
	}
	fmt.Fprintf(out, "README.md has been generated successfully in %s.\n", dir)
	return nil
}
