package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duluk/chatbot/pkg/LLM"
	"github.com/duluk/chatbot/pkg/database"
)

func TestExcerptFromMessages(t *testing.T) {
	msgs := []LLM.Message{
		{Role: LLM.RoleSystem, Content: "the keyword hides here too"},
		{Role: LLM.RoleUser, Content: "Tell me\nabout   goroutines"},
		{Role: LLM.RoleAssistant, Content: "A goroutine is a lightweight thread managed by the Go runtime."},
	}

	// falls back to the first user message, whitespace flattened
	assert.Equal(t, "Tell me about goroutines", excerptFromMessages(msgs, "", 80))

	// system messages are not searched
	assert.Equal(t, "Tell me about goroutines", excerptFromMessages(msgs, "hides", 80))

	got := excerptFromMessages(msgs, "RUNTIME", 20)
	assert.Contains(t, got, "runtime")
	assert.LessOrEqual(t, len([]rune(got)), 20)
	assert.True(t, len(got) > 3 && got[:3] == "...")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
	assert.Equal(t, "héllo w...", truncate("héllo wörld and more", 10))
}

func TestListModel_Select(t *testing.T) {
	matches := []database.SessionMatch{
		{SessionFile: "/tmp/none/openai/2024-03-04/20240304-101010.json", Matches: 3},
		{SessionFile: "/tmp/none/openai/2024-03-03/20240303-090000.json", Matches: 1},
	}
	m := newListModel("go", matches, 100, 40)
	require.Len(t, m.list.Items(), 2)
	assert.Equal(t, "(unreadable)", m.list.Items()[0].(searchItem).desc)

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyDown})
	updated, cmd := updated.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.NotNil(t, cmd)
	assert.Equal(t, matches[1].SessionFile, updated.(listModel).selected)
}

func TestListModel_Cancel(t *testing.T) {
	m := newListModel("go", []database.SessionMatch{{SessionFile: "x.json", Matches: 1}}, 100, 40)

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.NotNil(t, cmd)
	assert.Equal(t, "", updated.(listModel).selected)
}

func TestRunSearch_NoMatches(t *testing.T) {
	file, err := RunSearch("go", nil, 100, 40)
	require.NoError(t, err)
	assert.Equal(t, "", file)
}
