package upload

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// RequestPrefix marks a chat input as an upload request.
const RequestPrefix = "Upload:"

// Request is a parsed "Upload: <path>" input.
type Request struct {
	Path  string
	IsDir bool
}

// ParseRequest recognises "Upload: <path>". The path is whatever follows
// "Upload: ", trimmed, with a leading ~ expanded. A path that can't be
// stat'ed is treated as a file so RenderFile reports the failure.
func ParseRequest(input string) (Request, bool) {
	if !strings.HasPrefix(input, RequestPrefix) {
		return Request{}, false
	}

	rest := input[len(RequestPrefix):]
	if strings.HasPrefix(rest, " ") {
		rest = rest[1:]
	}
	path := expandHome(strings.TrimSpace(rest))

	req := Request{Path: path}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		req.IsDir = true
	}
	return req, true
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if path == "~" {
		return home
	}
	return filepath.Join(home, path[2:])
}

// DirectoryPrompt wraps a rendered directory document in the message sent to
// the model.
func DirectoryPrompt(doc string) string {
	return "The following describes a directory structure along with all its contents in Markdown format. " +
		"Please carefully analyse the directory structure and the files contained within. Pay " +
		"attention to whether the directory structure looks like a code repository. Then take a " +
		"deep breath and provide a brief summary of your analysis. End your response with an " +
		"assurance that you have memorised the contents of the repository and you are ready to " +
		"answer the user's questions.\n\n" + doc
}

// FilePrompt wraps a single file's content in the message sent to the model.
func FilePrompt(name, content string) string {
	return fmt.Sprintf("Please analyse the contents of the following file:\n"+
		"\n%s\n"+
		"\n%s\n"+
		"\nEnd your response by asking the user what questions they have about the file.", name, content)
}

// DirectoryTooBigNotice is printed when a directory document went over budget.
func DirectoryTooBigNotice(tokens int) string {
	return fmt.Sprintf("The directory is too large to upload because it is likely larger than 100,000 tokens.\n"+
		"Estimated token count for this recursive directory analysis: %d", tokens)
}

// FileTooBigNotice is printed when a single file went over budget.
func FileTooBigNotice(name string, tokens int) string {
	return fmt.Sprintf("The file: %s is too large to upload because it is likely larger than 64,000 tokens.\n"+
		"Estimated token count for this file: %d", name, tokens)
}
