package linewrap

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLineWrapper_Write(t *testing.T) {
	tests := []struct {
		name     string
		maxWidth int
		input    string
		expected string
	}{
		{
			name:     "simple text",
			maxWidth: 20,
			input:    "This is a very long test string.",
			expected: "This is a very long \ntest string.",
		},
		{
			name:     "short text is untouched",
			maxWidth: 20,
			input:    "This is a\nvery long\ntest string.",
			expected: "This is a\nvery long\ntest string.",
		},
		{
			name:     "tabs and spaces",
			maxWidth: 20,
			input:    "This\tis a very long test string.",
			expected: "This    is a very long \ntest string.",
		},
		{
			name:     "long line breaks correctly",
			maxWidth: 10,
			input:    "This is a very long test string that should be broken into\nmultiple lines.",
			expected: "This is a \nvery long \ntest string \nthat should \nbe broken \ninto\nmultiple lines.",
		},
		{
			name:     "words are never split",
			maxWidth: 5,
			input:    "supercalifragilistic word",
			expected: "supercalifragilistic \nword",
		},
		{
			name:     "width counts runes",
			maxWidth: 6,
			input:    "café crème brûlée",
			expected: "café crème \nbrûlée",
		},
		{
			name:     "zero width disables wrapping",
			maxWidth: 0,
			input:    "a b c d e f g",
			expected: "a b c d e f g",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buffer bytes.Buffer
			lw := NewLineWrapper(tt.maxWidth, 4, &buffer)

			n, err := lw.Write([]byte(tt.input))
			require.NoError(t, err)
			assert.Equal(t, len(tt.input), n)
			assert.Equal(t, tt.expected, buffer.String())
		})
	}
}

func TestLineWrapper_Chunks(t *testing.T) {
	var buffer bytes.Buffer
	lw := NewLineWrapper(10, 4, &buffer)

	for _, chunk := range []string{"This is", " a", " ", "very", " long test"} {
		_, err := lw.Write([]byte(chunk))
		require.NoError(t, err)
	}
	assert.Equal(t, "This is a \nvery long \ntest", buffer.String())
	assert.Equal(t, 4, lw.Width())
}

func TestLineWrapper_SplitRune(t *testing.T) {
	var buffer bytes.Buffer
	lw := NewLineWrapper(80, 4, &buffer)

	first := []byte("caf\xc3")
	n, err := lw.Write(first)
	require.NoError(t, err)
	assert.Equal(t, len(first), n)
	assert.Equal(t, "caf", buffer.String())

	n, err = lw.Write([]byte("\xa9 x"))
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, "café x", buffer.String())
	assert.Equal(t, 6, lw.Width())
}

func TestLineWrapper_Flush(t *testing.T) {
	var buffer bytes.Buffer
	lw := NewLineWrapper(80, 4, &buffer)

	_, err := lw.Write([]byte("end\xe2\x82"))
	require.NoError(t, err)
	assert.Equal(t, "end", buffer.String())

	require.NoError(t, lw.Flush())
	assert.Equal(t, "end\xe2\x82", buffer.String())
	require.NoError(t, lw.Flush())
}

func TestLineWrapper_InvalidByte(t *testing.T) {
	var buffer bytes.Buffer
	lw := NewLineWrapper(80, 4, &buffer)

	// a lone continuation byte is passed through rather than held back
	_, err := lw.Write([]byte("a\x80b"))
	require.NoError(t, err)
	assert.Equal(t, "a\x80b", buffer.String())
}

func TestLineWrapper_Reset(t *testing.T) {
	var buffer bytes.Buffer
	lw := NewLineWrapper(10, 4, &buffer)

	_, err := lw.Write([]byte("123456789"))
	require.NoError(t, err)
	lw.Reset()
	_, err = lw.Write([]byte(" x"))
	require.NoError(t, err)
	assert.Equal(t, "123456789 x", buffer.String())
}

func TestLineWrapper_WriteEmpty(t *testing.T) {
	var buffer bytes.Buffer
	lw := NewLineWrapper(20, 4, &buffer)

	n, err := lw.Write(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	n, err = lw.Write([]byte{})
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Empty(t, buffer.String())
}

type errWriter struct{}

func (errWriter) Write([]byte) (int, error) { return 0, errors.New("closed") }

func TestLineWrapper_WriterError(t *testing.T) {
	lw := NewLineWrapper(20, 4, errWriter{})
	n, err := lw.Write([]byte("hello"))
	assert.EqualError(t, err, "closed")
	assert.Equal(t, 0, n)
}
