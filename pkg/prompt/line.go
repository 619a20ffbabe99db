package prompt

import (
	"errors"
	"io"

	"github.com/peterh/liner"
)

// Line reads single-line answers for menus. The terminal is only put into
// raw mode for the duration of each prompt so the editor can take over
// between calls.
type Line struct {
	history []string
}

func NewLine() *Line {
	return &Line{}
}

func (l *Line) ReadLine(prompt string) (string, error) {
	state := liner.NewLiner()
	defer state.Close()
	state.SetCtrlCAborts(true)
	for _, h := range l.history {
		state.AppendHistory(h)
	}

	input, err := state.Prompt(prompt)
	if err != nil {
		if errors.Is(err, liner.ErrPromptAborted) {
			return "", ErrAborted
		}
		if errors.Is(err, io.EOF) {
			return "", io.EOF
		}
		return "", err
	}

	if input != "" {
		l.history = append(l.history, input)
	}
	return input, nil
}
