package chat

import (
	"fmt"
	"strings"
	"time"

	"github.com/duluk/chatbot/pkg/LLM"
	"github.com/duluk/chatbot/pkg/config"
)

const defaultKnowledgeCutoff = "April 2024"

// SystemPrompt is sent through the provider's system parameter (Anthropic,
// Gemini). markdown asks for Markdown-formatted answers.
func SystemPrompt(model config.ModelConfig, now time.Time, markdown bool) string {
	cutoff := model.KnowledgeCutoff
	if cutoff == "" {
		cutoff = defaultKnowledgeCutoff
	}

	prompt := fmt.Sprintf("Specifically, your model is \"%s\". Your knowledge base was last updated "+
		"in %s. Today is %s. Local time is %s. You write in British English and you are not too quick to apologise",
		model.Label(), cutoff, LLM.LocalDate(now), LLM.LocalTime(now))
	if !markdown {
		return prompt + "."
	}
	return prompt + " or thank the user. You MUST format your responses in Markdown syntax. " +
		"Use `- ` for any unnumbered bullet point lists, as per standard Markdown syntax."
}

// OpenAISystemMessage opens a new conversation with an OpenAI model that
// accepts system messages.
func OpenAISystemMessage(now time.Time) string {
	return fmt.Sprintf("You are a helpful AI assistant. Today is %s. Local time is %s. ", LLM.LocalDate(now), LLM.LocalTime(now)) +
		"You answer queries succinctly, avoiding preamble and summaries whenever possible. " +
		"You answer queries at a high language level and with expert level knowledge. " +
		"Avoid responses that comment on the limitations of your model. You provide full, " +
		"detailed answers. You behave like a passionate expert who always takes a clear " +
		"stance on any topic discussed. You are excellent at reasoning. When reasoning, take " +
		"a deep breath and think step by step before you answer the question. You do not finish " +
		"your answers with a question unless specifically prompted to do so. And you are not " +
		"too quick to apologise or thank the user."
}

// Welcome is the banner shown before the first prompt. addressee, if set,
// is who prompts and uploads are sent "to".
func Welcome(name, addressee string) string {
	to := ""
	if addressee != "" {
		to = " to " + addressee
	}

	var b strings.Builder
	fmt.Fprintf(&b, "\nYou're now chatting with %s.\n", name)
	b.WriteString("The user prompt handles multiline input, so Enter gives a newline.\n")
	fmt.Fprintf(&b, "To submit your prompt%s hit Esc -> Enter (or Ctrl+D).\n", to)
	b.WriteString("To exit gracefully simply submit the word: \"exit\", or hit Ctrl+C.\n\n")
	fmt.Fprintf(&b, "You can pass individual utf-8 encoded files%s by entering \"Upload: ~/path/to/file_name\"\n", to)
	fmt.Fprintf(&b, "You can pass entire directories (recursively)%s by entering \"Upload: ~/path/to/directory\"\n", to)
	return b.String()
}

func shouldExit(content string) bool {
	return strings.ToLower(content) == "exit"
}
