package upload

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/duluk/chatbot/pkg/logger"
	"github.com/duluk/chatbot/pkg/tokens"
)

// FileEntry is a candidate file found during the walk.
type FileEntry struct {
	Path    string // absolute
	RelPath string // relative to the walk root, slash separated
	Kind    Kind
}

// Read returns the file's content with invalid UTF-8 replaced by U+FFFD.
func (e FileEntry) Read() (string, error) {
	data, err := os.ReadFile(e.Path)
	if err != nil {
		return "", err
	}
	return strings.ToValidUTF8(string(data), "\uFFFD"), nil
}

// Renderer serializes files and directories into context documents.
type Renderer struct {
	Rules *RuleSet
	Tree  TreeLister
	Count Counter

	DirectoryBudget int
	FileBudget      int

	// WalkAfterOverflow keeps reading the remaining files after the directory
	// budget is exceeded. The result is the same either way.
	WalkAfterOverflow bool
}

// NewRenderer returns a Renderer with the default ignore list, `tree -d`,
// the reference tokenizer and the standard budgets.
func NewRenderer() *Renderer {
	return &Renderer{
		Rules:           DefaultRules(),
		Tree:            ExecTreeLister{},
		Count:           tokens.Estimate,
		DirectoryBudget: DirectoryTokenBudget,
		FileBudget:      FileTokenBudget,
	}
}

// RenderDirectory renders root into a Markdown document and returns it with
// the last token estimate. If nothing survives the filters the result is
// ("", 0); if the budget is exceeded the document is DirectoryTooBig and the
// estimate is the one that crossed the budget.
//
// Ignore patterns are matched against the root-anchored path: "/" followed by
// the slash-separated path relative to root.
func (r *Renderer) RenderDirectory(root string) (string, int) {
	tree, err := r.Tree.ListDirs(root)
	if err != nil {
		logger.Warn("Directory tree listing failed", "root", root, "error", err)
		tree = ""
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		absRoot = root
	}

	doc := NewDocument(Header(root, tree), r.DirectoryBudget, r.Count)
	w := walker{r: r, root: absRoot, doc: doc}
	w.walk(absRoot)

	logger.Debug("Rendered directory",
		"root", root,
		"sections", doc.Sections(),
		"tokens", doc.Tokens(),
		"oversized", doc.Oversized(),
		"skipped", w.skipped,
	)
	if doc.Sections() == 0 {
		return "", 0
	}
	return doc.String(), doc.Tokens()
}

type walker struct {
	r       *Renderer
	root    string
	doc     *Document
	skipped int
	stopped bool
}

// anchored turns an absolute path under root into the matcher input.
func (w *walker) anchored(path string) (string, string) {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		rel = path
	}
	rel = filepath.ToSlash(rel)
	return rel, "/" + rel
}

// walk visits dir top-down: its files first, then its subdirectories, each in
// name order (os.ReadDir sorts).
func (w *walker) walk(dir string) {
	if w.stopped {
		return
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		logger.Warn("Could not read directory", "dir", dir, "error", err)
		return
	}

	var subdirs []string
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		if entry.IsDir() {
			if _, anchored := w.anchored(path); w.r.Rules.IsIgnored(anchored) {
				logger.Debug("Pruning ignored directory", "dir", path)
				continue
			}
			subdirs = append(subdirs, path)
			continue
		}
		w.visitFile(path)
		if w.stopped {
			return
		}
	}

	for _, sub := range subdirs {
		w.walk(sub)
		if w.stopped {
			return
		}
	}
}

func (w *walker) visitFile(path string) {
	rel, anchored := w.anchored(path)
	if pattern, ok := w.r.Rules.Match(anchored); ok {
		logger.Debug("Skipping ignored file", "file", path, "pattern", pattern)
		w.skipped++
		return
	}

	entry := FileEntry{Path: path, RelPath: rel, Kind: Classify(path)}
	if entry.Kind == Binary {
		logger.Debug("Skipping binary file", "file", path)
		w.skipped++
		return
	}

	content, err := entry.Read()
	if err != nil {
		logger.Warn("Could not read file", "file", path, "error", err)
		w.skipped++
		return
	}

	if !w.doc.Append(entry.RelPath, content) && !w.r.WalkAfterOverflow {
		w.stopped = true
	}
}
