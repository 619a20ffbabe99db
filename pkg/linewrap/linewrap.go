package linewrap

import (
	"bytes"
	"io"
	"strings"
	"unicode/utf8"
)

// LineWrapper breaks streamed text at the first space on or past maxWidth
// columns. Words are never split. Width is counted in runes, and a UTF-8
// sequence split across two writes is held back until it is complete.
type LineWrapper struct {
	maxWidth  int
	currWidth int
	tabWidth  int
	writer    io.Writer
	pending   []byte
}

func NewLineWrapper(maxWidth, tabWidth int, lwWriter io.Writer) *LineWrapper {
	return &LineWrapper{
		maxWidth: maxWidth,
		tabWidth: tabWidth,
		writer:   lwWriter,
	}
}

// Allow wrapping for input that comes in chunks, versus building the line and
// then splitting it and printing the whole line at once.
func (lw *LineWrapper) Write(data []byte) (int, error) {
	var buffer bytes.Buffer

	buf := data
	if len(lw.pending) > 0 {
		buf = append(lw.pending, data...)
		lw.pending = nil
	}

	for len(buf) > 0 {
		r, size := utf8.DecodeRune(buf)
		if r == utf8.RuneError && !utf8.FullRune(buf) {
			lw.pending = append([]byte(nil), buf...)
			break
		}

		switch r {
		case '\n':
			buffer.WriteByte('\n')
			lw.currWidth = 0
		case '\t':
			lw.currWidth += lw.tabWidth
			buffer.WriteString(strings.Repeat(" ", lw.tabWidth))
		case ' ':
			// Always write spaces in streaming mode; the break goes after.
			buffer.WriteByte(' ')
			lw.currWidth++
			if lw.maxWidth > 0 && lw.currWidth >= lw.maxWidth {
				buffer.WriteByte('\n')
				lw.currWidth = 0
			}
		default:
			buffer.Write(buf[:size])
			lw.currWidth++
		}
		buf = buf[size:]
	}

	if buffer.Len() > 0 {
		if _, err := lw.writer.Write(buffer.Bytes()); err != nil {
			return 0, err
		}
	}

	return len(data), nil
}

// Flush writes out a trailing incomplete UTF-8 sequence, if any.
func (lw *LineWrapper) Flush() error {
	if len(lw.pending) == 0 {
		return nil
	}
	_, err := lw.writer.Write(lw.pending)
	lw.pending = nil
	return err
}

// Reset starts a new line without writing anything.
func (lw *LineWrapper) Reset() {
	lw.currWidth = 0
	lw.pending = nil
}

func (lw *LineWrapper) Width() int {
	return lw.currWidth
}
