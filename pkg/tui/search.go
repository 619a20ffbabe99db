package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/duluk/chatbot/pkg/LLM"
	"github.com/duluk/chatbot/pkg/database"
	"github.com/duluk/chatbot/pkg/history"
	"github.com/duluk/chatbot/pkg/logger"
)

type searchItem struct {
	title string
	desc  string
	file  string
}

func (i searchItem) Title() string       { return i.title }
func (i searchItem) Description() string { return i.desc }
func (i searchItem) FilterValue() string { return i.title + " " + i.desc }

type listModel struct {
	list     list.Model
	selected string
}

type inlineDelegate struct {
	list.DefaultDelegate
}

func (d inlineDelegate) Height() int {
	// only one line per item
	return 1
}

func (d inlineDelegate) Spacing() int {
	// no blank lines
	return 0
}

// Render renders a single item inline: title, separator, and description on one line
func (d inlineDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	item, ok := listItem.(searchItem)
	if !ok {
		return
	}

	var titleStyle, descStyle lipgloss.Style
	if index == m.Index() {
		titleStyle = d.Styles.SelectedTitle
		descStyle = d.Styles.SelectedDesc
	} else {
		titleStyle = d.Styles.NormalTitle
		descStyle = d.Styles.NormalDesc
	}

	joined := lipgloss.JoinHorizontal(
		lipgloss.Top,
		titleStyle.Render(item.title),
		lipgloss.NewStyle().Foreground(lipgloss.Color("238")).Render(" - "),
		descStyle.Render(item.desc),
	)
	// Render inline, truncating to available width
	style := lipgloss.NewStyle().Inline(true).MaxWidth(m.Width())
	fmt.Fprint(w, style.Render(joined))
}

func (m listModel) Init() tea.Cmd { return nil }

func (m listModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			// If user is not currently editing the filter, select item
			if !m.list.SettingFilter() {
				if item, ok := m.list.SelectedItem().(searchItem); ok {
					m.selected = item.file
				}
				return m, tea.Quit
			}
		}
	}

	// Delegate all other messages (including filter input) to the list
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m listModel) View() string {
	return m.list.View() + lipgloss.NewStyle().Padding(1, 0).Render("Press ENTER to resume a chat, ESC to cancel.")
}

func newListModel(keyword string, matches []database.SessionMatch, screenWidth, screenHeight int) listModel {
	width := max(screenWidth-10, 20)

	var items []list.Item
	for _, match := range matches {
		items = append(items, searchItem{
			title: fmt.Sprintf("%s (%d)", history.DisplayName(match.SessionFile), match.Matches),
			desc:  sessionExcerpt(match.SessionFile, keyword, width),
			file:  match.SessionFile,
		})
	}

	// limit height to a reasonable size
	height := len(items) + 4
	if limit := screenHeight - 5; height > limit {
		height = limit
	}

	lst := list.New(items, inlineDelegate{DefaultDelegate: list.NewDefaultDelegate()}, width, height)
	lst.Title = fmt.Sprintf("Search results for '%s'", keyword)

	return listModel{list: lst}
}

// RunSearch lets the user pick one of the matching transcripts. It returns
// the transcript path, or "" when nothing was picked.
func RunSearch(keyword string, matches []database.SessionMatch, screenWidth, screenHeight int) (string, error) {
	if len(matches) == 0 {
		return "", nil
	}

	p := tea.NewProgram(newListModel(keyword, matches, screenWidth, screenHeight))
	finalModel, err := p.Run()
	if err != nil {
		return "", err
	}
	return finalModel.(listModel).selected, nil
}

func sessionExcerpt(file, keyword string, maxLen int) string {
	messages, err := history.Load(file)
	if err != nil {
		logger.Warn("Error loading transcript for search", "file", file, "error", err)
		return "(unreadable)"
	}
	return excerptFromMessages(messages, keyword, maxLen)
}

// excerptFromMessages returns a one-line snippet of the conversation. With a
// keyword it shows the context around its first occurrence in a user or
// assistant message; otherwise the start of the first user message.
func excerptFromMessages(messages []LLM.Message, keyword string, maxLen int) string {
	var content string
	for _, m := range messages {
		if m.Role == LLM.RoleUser {
			content = m.Content
			break
		}
	}

	if keyword != "" {
		lowerKW := []rune(strings.ToLower(keyword))
		for _, m := range messages {
			if m.Role == LLM.RoleSystem {
				continue
			}
			runes, lower := []rune(m.Content), []rune(strings.ToLower(m.Content))
			if len(lower) != len(runes) {
				// case folding changed the length; show the folded text
				runes = lower
			}
			if idx := runeIndex(lower, lowerKW); idx >= 0 {
				return snippet(runes, idx, len(lowerKW), maxLen)
			}
		}
	}

	return truncate(flatten(content), maxLen)
}

func snippet(runes []rune, idx, kwLen, maxLen int) string {
	// context on each side, leaving room for the keyword and both ellipses
	half := max((maxLen-kwLen-6)/2, 0)
	start := max(idx-half, 0)
	end := min(idx+kwLen+half, len(runes))

	s := flatten(string(runes[start:end]))
	if start > 0 {
		s = "..." + s
	}
	if end < len(runes) {
		s = s + "..."
	}
	return truncate(s, maxLen)
}

func runeIndex(haystack, needle []rune) int {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		match := true
		for j := range needle {
			if haystack[i+j] != needle[j] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}

func flatten(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if maxLen < 4 || len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-3]) + "..."
}
