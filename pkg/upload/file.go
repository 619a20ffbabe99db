package upload

import (
	"fmt"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/duluk/chatbot/pkg/logger"
)

// UploadFailedMessage goes to the model in place of a file that couldn't be
// read, so the conversation carries on instead of the session failing.
const UploadFailedMessage = `I attempted to upload a file but it failed. For your next response reply ONLY: "No file was uploaded."`

// FileStatus is the outcome of a single-file upload.
type FileStatus int

const (
	StatusOK FileStatus = iota
	StatusEmpty
	StatusTooBig
	StatusFailed
)

func (s FileStatus) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusEmpty:
		return "empty"
	case StatusTooBig:
		return "too big"
	case StatusFailed:
		return "failed"
	}
	return fmt.Sprintf("FileStatus(%d)", int(s))
}

// FileUpload is the result of RenderFile.
//
//	StatusOK:     Content is the file text
//	StatusEmpty:  Content is "", Tokens is 0
//	StatusTooBig: Content is FileTooBig, Tokens is the real estimate
//	StatusFailed: Name is "", Content is UploadFailedMessage, Err is set
type FileUpload struct {
	Name    string
	Content string
	Tokens  int
	Status  FileStatus
	Err     error
}

// RenderFile reads path as strict UTF-8 and applies the single-file budget.
// Read and decode failures are folded into the result, never returned.
func (r *Renderer) RenderFile(path string) FileUpload {
	data, err := os.ReadFile(path)
	if err == nil && !utf8.Valid(data) {
		err = fmt.Errorf("%s: invalid UTF-8 content", path)
	}
	if err != nil {
		logger.Warn("Error reading file", "file", path, "error", err)
		return FileUpload{Content: UploadFailedMessage, Status: StatusFailed, Err: err}
	}

	name := filepath.Base(path)
	if len(data) == 0 {
		return FileUpload{Name: name, Status: StatusEmpty}
	}

	content := string(data)
	count := r.Count(content)
	if count > r.FileBudget {
		return FileUpload{Name: name, Content: FileTooBig, Tokens: count, Status: StatusTooBig}
	}

	return FileUpload{Name: name, Content: content, Tokens: count, Status: StatusOK}
}
