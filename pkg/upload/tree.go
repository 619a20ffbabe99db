package upload

import (
	"bytes"
	"fmt"
	"os/exec"
)

// TreeLister produces the directory-only listing embedded in a directory
// document's header.
type TreeLister interface {
	ListDirs(root string) (string, error)
}

// ExecTreeLister runs `tree -d <root>`.
type ExecTreeLister struct {
	// Command defaults to "tree"
	Command string
}

func (l ExecTreeLister) ListDirs(root string) (string, error) {
	name := l.Command
	if name == "" {
		name = "tree"
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.Command(name, "-d", root)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("failed to execute `%s -d` on %s: %w: %s", name, root, err, bytes.TrimSpace(stderr.Bytes()))
	}

	return stdout.String(), nil
}

// TreeListerFunc adapts a function to TreeLister.
type TreeListerFunc func(root string) (string, error)

func (f TreeListerFunc) ListDirs(root string) (string, error) {
	return f(root)
}
