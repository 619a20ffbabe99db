package chat

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/duluk/chatbot/pkg/LLM"
	"github.com/duluk/chatbot/pkg/config"
	"github.com/duluk/chatbot/pkg/history"
)

const (
	ChoiceNew    = "1"
	ChoiceResume = "2"
)

var ErrNoSelection = errors.New("no chat selected")

// MainMenu asks whether to start a new chat or resume one.
func MainMenu(p Prompter, out io.Writer) (string, error) {
	fmt.Fprintln(out, bannerStyle.Render("\n1) Start New Chat\n2) Resume Recent Chat"))
	choice, err := p.ReadLine("\nChoose (1-2): ")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(choice), nil
}

// SelectRecent offers the provider's most recent transcripts. An empty
// answer picks the newest. ErrNoSelection covers both no transcripts and an
// invalid answer.
func SelectRecent(store *history.Store, p Prompter, out io.Writer) (string, error) {
	files, err := store.Recent(history.RecentLimit)
	if err != nil {
		return "", err
	}
	if len(files) == 0 {
		fmt.Fprintln(out, "No previous chats available.")
		return "", ErrNoSelection
	}

	fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("\nYour %d most recent chats with %s models, sorted by most recent first:",
		history.RecentLimit, LLM.ProviderName(store.Provider))))
	for i, f := range files {
		fmt.Fprintf(out, "%d) %s\n", i+1, history.DisplayName(f))
	}

	fmt.Fprintln(out, "\nSelect a file to resume (number), or press Enter for the most recent chat: ")
	answer, err := p.ReadLine("")
	if err != nil {
		return "", err
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return files[0], nil
	}

	choice, err := strconv.Atoi(answer)
	if err != nil {
		fmt.Fprintln(out, "Invalid input. Please enter a number.")
		return "", ErrNoSelection
	}
	if choice < 1 || choice > len(files) {
		fmt.Fprintln(out, "Invalid choice. Please select a valid file number.")
		return "", ErrNoSelection
	}
	return files[choice-1], nil
}

// SelectModel lists the registry and asks until a valid number is given.
func SelectModel(models []config.ModelConfig, p Prompter, out io.Writer) (config.ModelConfig, error) {
	fmt.Fprintln(out, bannerStyle.Render("\nAvailable models:"))
	for i, m := range models {
		fmt.Fprintln(out, bannerStyle.Render(fmt.Sprintf("%d) %s", i+1, m.Label())))
	}

	for {
		answer, err := p.ReadLine("\nSelect a model (enter the number): ")
		if err != nil {
			return config.ModelConfig{}, err
		}
		choice, err := strconv.Atoi(strings.TrimSpace(answer))
		if err != nil {
			fmt.Fprintln(out, "Invalid input. Please enter a number.")
			continue
		}
		if choice < 1 || choice > len(models) {
			fmt.Fprintln(out, "Invalid choice. Please try again.")
			continue
		}
		return models[choice-1], nil
	}
}
