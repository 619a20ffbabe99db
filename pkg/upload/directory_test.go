package upload

import (
	"errors"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/duluk/chatbot/pkg/tokens"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRenderer() *Renderer {
	r := NewRenderer()
	r.Tree = TreeListerFunc(func(string) (string, error) { return "TREE", nil })
	return r
}

func TestRenderDirectory_SingleFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.txt"), []byte("0123456789"))

	doc, count := testRenderer().RenderDirectory(root)

	want := Header(root, "TREE") + "## a.txt\n\n```\n0123456789\n```\n\n"
	assert.Equal(t, want, doc)
	assert.Equal(t, tokens.Estimate(doc), count)
	assert.Equal(t, 1, strings.Count(doc, "## a.txt"))
}

func TestRenderDirectory_Header(t *testing.T) {
	assert.Equal(t,
		"# Directory Analysis for /src\n\n"+
			"## Directory Structure as shown by the output of the `tree -d` command\n\n"+
			"```\n/src\n└── pkg\n```\n\n",
		Header("/src", "/src\n└── pkg"))
}

func TestRenderDirectory_MarkdownFence(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "notes.md"), []byte("# Notes\n```go\nx\n```"))
	writeFile(t, filepath.Join(root, "notes.txt"), []byte("plain"))

	doc, _ := testRenderer().RenderDirectory(root)

	assert.Contains(t, doc, "## notes.md\n\n\"\"\"\n# Notes\n```go\nx\n```\n\"\"\"\n\n")
	assert.Contains(t, doc, "## notes.txt\n\n```\nplain\n```\n\n")
}

func TestRenderDirectory_Order(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "b.txt"), []byte("b"))
	writeFile(t, filepath.Join(root, "a.txt"), []byte("a"))
	writeFile(t, filepath.Join(root, "zz.txt"), []byte("zz"))
	writeFile(t, filepath.Join(root, "sub", "c.txt"), []byte("c"))
	writeFile(t, filepath.Join(root, "sub", "deep", "d.txt"), []byte("d"))
	writeFile(t, filepath.Join(root, "z", "e.txt"), []byte("e"))

	doc, _ := testRenderer().RenderDirectory(root)

	order := []string{"## a.txt", "## b.txt", "## zz.txt", "## sub/c.txt", "## sub/deep/d.txt", "## z/e.txt"}
	last := -1
	for _, heading := range order {
		i := strings.Index(doc, heading)
		require.GreaterOrEqual(t, i, 0, heading)
		assert.Greater(t, i, last, heading)
		last = i
	}
}

func TestRenderDirectory_Filters(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "main.go"), []byte("package main"))
	writeFile(t, filepath.Join(root, ".git", "objects", "ab", "cdef"), []byte("blob"))
	writeFile(t, filepath.Join(root, ".git", "HEAD"), []byte("ref: refs/heads/main"))
	writeFile(t, filepath.Join(root, "build", "out.js"), []byte("compiled"))
	writeFile(t, filepath.Join(root, "web", "dist", "app.js"), []byte("bundled"))
	writeFile(t, filepath.Join(root, "logo.png"), []byte("not really a png"))
	writeFile(t, filepath.Join(root, "src", "__pycache__", "m.cpython.pyc"), []byte("x"))
	writeFile(t, filepath.Join(root, "data.bin"), []byte{'a', 0, 'b'})

	doc, count := testRenderer().RenderDirectory(root)

	assert.Contains(t, doc, "## main.go\n")
	assert.Contains(t, doc, "## .git/HEAD\n")
	assert.NotContains(t, doc, "objects")
	assert.NotContains(t, doc, "build/out.js")
	assert.NotContains(t, doc, "dist/app.js")
	assert.NotContains(t, doc, "logo.png")
	assert.NotContains(t, doc, "__pycache__")
	assert.NotContains(t, doc, "data.bin")
	assert.Equal(t, 2, strings.Count(doc, "\n## ")-1, "two file sections after the tree heading")
	assert.Positive(t, count)
}

func TestRenderDirectory_PrunesIgnoredDirectories(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "keep.txt"), []byte("keep"))
	writeFile(t, filepath.Join(root, "saml", "x", "y.txt"), []byte("secret"))

	r := testRenderer()
	r.Rules = MustRuleSet([]string{"/saml"})

	var seen []string
	count := r.Count
	r.Count = func(s string) int {
		seen = append(seen, s)
		return count(s)
	}

	doc, _ := r.RenderDirectory(root)
	assert.NotContains(t, doc, "y.txt")
	assert.Len(t, seen, 1)
}

func TestRenderDirectory_Empty(t *testing.T) {
	doc, count := testRenderer().RenderDirectory(t.TempDir())
	assert.Equal(t, "", doc)
	assert.Equal(t, 0, count)

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "logo.png"), []byte("x"))
	writeFile(t, filepath.Join(root, "blob"), []byte{0})
	doc, count = testRenderer().RenderDirectory(root)
	assert.Equal(t, "", doc)
	assert.Equal(t, 0, count)
}

func TestRenderDirectory_EmptyFileStillGetsSection(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "empty.txt"), nil)

	doc, _ := testRenderer().RenderDirectory(root)
	assert.Contains(t, doc, "## empty.txt\n\n```\n\n```\n\n")
}

func TestRenderDirectory_TreeFailure(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.txt"), []byte("a"))

	r := testRenderer()
	r.Tree = TreeListerFunc(func(string) (string, error) { return "", errors.New("tree: not found") })

	doc, _ := r.RenderDirectory(root)
	assert.True(t, strings.HasPrefix(doc, Header(root, "")))
	assert.Contains(t, doc, "## a.txt\n")
}

func TestRenderDirectory_InvalidUTF8(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "latin1.txt"), []byte("caf\xe9 ok"))

	doc, _ := testRenderer().RenderDirectory(root)
	assert.Contains(t, doc, "caf\uFFFD ok")
}

func TestRenderDirectory_TooBig(t *testing.T) {
	require.True(t, tokens.Available(), "tokenizer encoding must load offline")

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.txt"), []byte("small"))
	writeFile(t, filepath.Join(root, "b.txt"), []byte(strings.Repeat("hello world\n", 50000)))
	writeFile(t, filepath.Join(root, "c.txt"), []byte("after"))

	doc, count := testRenderer().RenderDirectory(root)

	assert.Equal(t, DirectoryTooBig, doc)
	assert.Greater(t, count, DirectoryTokenBudget)
}

func TestRenderDirectory_EarlyExitEquivalence(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"a.txt", "b.txt", "c.txt", "d.txt", "sub/e.txt", "sub/f.txt"} {
		writeFile(t, filepath.Join(root, name), []byte(strings.Repeat("x", 40)))
	}

	run := func(walkAfter bool) (string, int, int) {
		calls := 0
		r := testRenderer()
		r.Count = func(s string) int {
			calls++
			return len(s)
		}
		r.DirectoryBudget = len(Header(root, "TREE")) + 150
		r.WalkAfterOverflow = walkAfter
		doc, count := r.RenderDirectory(root)
		return doc, count, calls
	}

	earlyDoc, earlyCount, earlyCalls := run(false)
	fullDoc, fullCount, fullCalls := run(true)

	assert.Equal(t, DirectoryTooBig, earlyDoc)
	assert.Equal(t, fullDoc, earlyDoc)
	assert.Equal(t, fullCount, earlyCount)
	assert.Greater(t, earlyCount, len(Header(root, "TREE"))+150)
	// the counter only runs while the document is still open
	assert.Equal(t, fullCalls, earlyCalls)
	assert.Equal(t, 3, earlyCalls)
}

func TestDocument_OversizedIsPermanent(t *testing.T) {
	d := NewDocument("H", 100, func(s string) int { return len(s) })

	assert.True(t, d.Append("a", ""))
	assert.False(t, d.Append("b", strings.Repeat("x", 200)))
	assert.True(t, d.Oversized())
	tokensAtOverflow := d.Tokens()

	assert.False(t, d.Append("c", ""))
	assert.Equal(t, DirectoryTooBig, d.String())
	assert.Equal(t, tokensAtOverflow, d.Tokens())
	assert.Equal(t, 2, d.Sections())
}

func TestFence(t *testing.T) {
	assert.Equal(t, `"""`, Fence("README.md"))
	assert.Equal(t, `"""`, Fence("docs/guide.md"))
	assert.Equal(t, "```", Fence("README.markdown"))
	assert.Equal(t, "```", Fence("main.go"))
	assert.Equal(t, "```", Fence("README.MD"))
}

func TestExecTreeLister(t *testing.T) {
	_, err := ExecTreeLister{Command: "no-such-tree-binary"}.ListDirs(t.TempDir())
	assert.Error(t, err)

	if _, err := exec.LookPath("tree"); err != nil {
		t.Skip("tree not installed")
	}
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "pkg", "x.go"), []byte("package pkg"))

	out, err := ExecTreeLister{}.ListDirs(root)
	require.NoError(t, err)
	assert.Contains(t, out, "pkg")
	assert.NotContains(t, out, "x.go")
}
