package upload

import (
	"bytes"
	"errors"
	"io"
	"os"
)

// Kind is the text/binary classification of a file.
type Kind int

const (
	Text Kind = iota
	Binary
)

func (k Kind) String() string {
	if k == Binary {
		return "binary"
	}
	return "text"
}

// sniffLen is how much of a file Classify looks at.
const sniffLen = 1024

// Classify reads at most the first 1024 bytes of path and calls it Binary if
// they contain a NUL byte. Anything that can't be opened or read is Binary
// too. A NUL after the first 1024 bytes goes unnoticed.
func Classify(path string) Kind {
	f, err := os.Open(path)
	if err != nil {
		return Binary
	}
	defer f.Close()

	buf := make([]byte, sniffLen)
	n, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return Binary
	}

	return ClassifyBytes(buf[:n])
}

// ClassifyBytes applies the Classify rule to an in-memory prefix.
func ClassifyBytes(data []byte) Kind {
	if len(data) > sniffLen {
		data = data[:sniffLen]
	}
	if bytes.IndexByte(data, 0) >= 0 {
		return Binary
	}
	return Text
}
