package upload

import (
	"fmt"
	"strings"
)

const (
	// DirectoryTokenBudget caps a whole-directory document.
	DirectoryTokenBudget = 100000
	// FileTokenBudget caps a single uploaded file.
	FileTokenBudget = 64000
)

// Sentinels replace content that went over budget. Callers compare against
// them verbatim.
const (
	DirectoryTooBig = "DIRECTORY TOO BIG."
	FileTooBig      = "FILE TOO BIG."
)

// Counter estimates the token count of a string.
type Counter func(string) int

// Document accumulates a directory's header and file sections. Once the
// estimate exceeds the budget the content collapses to DirectoryTooBig and
// stays that way.
type Document struct {
	b         strings.Builder
	count     Counter
	budget    int
	sections  int
	tokens    int
	oversized bool
}

// NewDocument starts a document with the given header text.
func NewDocument(header string, budget int, count Counter) *Document {
	d := &Document{count: count, budget: budget}
	d.b.WriteString(header)
	return d
}

// Header renders the structural header naming root and embedding the tree
// listing (which may be empty).
func Header(root, tree string) string {
	return fmt.Sprintf("# Directory Analysis for %s\n\n"+
		"## Directory Structure as shown by the output of the `tree -d` command\n\n"+
		"```\n%s\n```\n\n", root, tree)
}

// Fence returns the fence used for a file's body. Markdown files get triple
// double-quotes so their own code fences don't close the section early.
func Fence(name string) string {
	if strings.HasSuffix(name, ".md") {
		return `"""`
	}
	return "```"
}

// Section renders one file section.
func Section(relPath, content string) string {
	fence := Fence(relPath)
	return fmt.Sprintf("## %s\n\n%s\n%s\n%s\n\n", relPath, fence, content, fence)
}

// Append adds a file section and re-estimates the whole document. It returns
// false once the document is oversized; the section is then dropped.
func (d *Document) Append(relPath, content string) bool {
	if d.oversized {
		return false
	}

	d.b.WriteString(Section(relPath, content))
	d.sections++
	d.tokens = d.count(d.b.String())
	if d.tokens > d.budget {
		d.oversized = true
		d.b.Reset()
		d.b.WriteString(DirectoryTooBig)
		return false
	}
	return true
}

// Oversized reports whether the budget was exceeded.
func (d *Document) Oversized() bool { return d.oversized }

// Sections is the number of file sections appended, including the one that
// overflowed.
func (d *Document) Sections() int { return d.sections }

// Tokens is the last computed estimate.
func (d *Document) Tokens() int { return d.tokens }

// String returns the document text: empty when no file made it in,
// DirectoryTooBig when over budget.
func (d *Document) String() string {
	if d.sections == 0 {
		return ""
	}
	return d.b.String()
}
