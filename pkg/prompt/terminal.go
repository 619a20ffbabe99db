package prompt

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/x/term"
)

// Terminal is the interactive prompter: liner for menus and the textarea
// editor for chat messages.
type Terminal struct {
	Line   *Line
	Editor *Editor
}

func NewTerminal(label string, width int) *Terminal {
	return &Terminal{Line: NewLine(), Editor: NewEditor(label, width)}
}

func (t *Terminal) ReadLine(prompt string) (string, error) {
	return t.Line.ReadLine(prompt)
}

func (t *Terminal) ReadMessage(ctx context.Context) (string, error) {
	return t.Editor.ReadMessage(ctx)
}

// Plain reads from a non-interactive stream. Menus take one line; a message
// runs until a line holding only "." or the end of input.
type Plain struct {
	r   *bufio.Reader
	out io.Writer
}

func NewPlain(r io.Reader, out io.Writer) *Plain {
	return &Plain{r: bufio.NewReader(r), out: out}
}

func (p *Plain) ReadLine(prompt string) (string, error) {
	fmt.Fprint(p.out, prompt)
	line, err := p.r.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (p *Plain) ReadMessage(ctx context.Context) (string, error) {
	var lines []string
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		line, err := p.r.ReadString('\n')
		trimmed := strings.TrimRight(line, "\r\n")
		if trimmed == "." {
			break
		}
		if line != "" {
			lines = append(lines, trimmed)
		}
		if err == io.EOF {
			if len(lines) == 0 {
				return "", io.EOF
			}
			break
		}
		if err != nil {
			return "", err
		}
	}
	return strings.Join(lines, "\n"), nil
}

// IsInteractive reports whether stdin and stdout are both terminals.
func IsInteractive() bool {
	return term.IsTerminal(os.Stdin.Fd()) && term.IsTerminal(os.Stdout.Fd())
}
