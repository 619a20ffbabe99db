package upload

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRequest(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	writeFile(t, filepath.Join(home, "notes.txt"), []byte("n"))
	require.NoError(t, os.MkdirAll(filepath.Join(home, "proj"), 0o755))

	tests := []struct {
		name  string
		input string
		ok    bool
		want  Request
	}{
		{"plain message", "hello there", false, Request{}},
		{"prefix not at start", "please Upload: x", false, Request{}},
		{"lowercase", "upload: x", false, Request{}},
		{"file", "Upload: /tmp/x.txt", true, Request{Path: "/tmp/x.txt"}},
		{"trailing space", "Upload: /tmp/x.txt  \n", true, Request{Path: "/tmp/x.txt"}},
		{"no space after colon", "Upload:/tmp/x.txt", true, Request{Path: "/tmp/x.txt"}},
		{"home file", "Upload: ~/notes.txt", true, Request{Path: filepath.Join(home, "notes.txt")}},
		{"home dir", "Upload: ~/proj", true, Request{Path: filepath.Join(home, "proj"), IsDir: true}},
		{"home itself", "Upload: ~", true, Request{Path: home, IsDir: true}},
		{"empty path", "Upload:", true, Request{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseRequest(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDirectoryPrompt(t *testing.T) {
	p := DirectoryPrompt("DOC")
	assert.True(t, strings.HasPrefix(p, "The following describes a directory structure"))
	assert.True(t, strings.HasSuffix(p, "ready to answer the user's questions.\n\nDOC"))
}

func TestFilePrompt(t *testing.T) {
	assert.Equal(t,
		"Please analyse the contents of the following file:\n\nmain.go\n\npackage main\n\n"+
			"End your response by asking the user what questions they have about the file.",
		FilePrompt("main.go", "package main"))
}

func TestNotices(t *testing.T) {
	assert.Equal(t,
		"The directory is too large to upload because it is likely larger than 100,000 tokens.\n"+
			"Estimated token count for this recursive directory analysis: 123456",
		DirectoryTooBigNotice(123456))
	assert.Contains(t, FileTooBigNotice("big.log", 70000), "The file: big.log is too large")
	assert.Contains(t, FileTooBigNotice("big.log", 70000), "Estimated token count for this file: 70000")
}
