package main

import (
	"fmt"
	"os"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/wippyai/flashstring"
	"github.com/wippyai/flashstring/errors"
	"github.com/wippyai/flashstring/image"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	nameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	aliasStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	previewStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

const previewBytes = 256

func newBrowseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "browse image",
		Short: "Browse image entries interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !term.IsTerminal(int(os.Stdout.Fd())) {
				return errors.Unsupported(errors.PhaseParse, "browse needs a terminal")
			}
			img, closeImg, err := openImage(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer closeImg()

			p := tea.NewProgram(newBrowseModel(args[0], img), tea.WithAltScreen(), tea.WithContext(cmd.Context()))
			_, err = p.Run()
			return err
		},
	}
}

type browseModel struct {
	img      *image.Image
	verified map[string]error
	filename string
	entries  []image.Entry
	filter   textinput.Model
	selected int
}

type verifiedMsg struct {
	err  error
	name string
}

func newBrowseModel(filename string, img *image.Image) *browseModel {
	ti := textinput.New()
	ti.Prompt = "filter: "
	ti.Placeholder = "entry name"
	ti.Width = 40
	ti.Focus()

	m := &browseModel{
		img:      img,
		filename: filename,
		filter:   ti,
		verified: make(map[string]error),
	}
	m.applyFilter()
	return m
}

func (m *browseModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *browseModel) applyFilter() {
	q := strings.ToLower(m.filter.Value())
	m.entries = m.entries[:0]
	for _, e := range m.img.Entries() {
		if q == "" || strings.Contains(strings.ToLower(e.Name), q) {
			m.entries = append(m.entries, e)
		}
	}
	if m.selected >= len(m.entries) {
		m.selected = max(0, len(m.entries)-1)
	}
}

func (m *browseModel) current() (image.Entry, bool) {
	if m.selected < 0 || m.selected >= len(m.entries) {
		return image.Entry{}, false
	}
	return m.entries[m.selected], true
}

func (m *browseModel) verify(e image.Entry) tea.Cmd {
	return func() tea.Msg {
		return verifiedMsg{name: e.Name, err: e.Verify()}
	}
}

func (m *browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "ctrl+p":
			if m.selected > 0 {
				m.selected--
			}
			return m, nil
		case "down", "ctrl+n":
			if m.selected < len(m.entries)-1 {
				m.selected++
			}
			return m, nil
		case "enter":
			if e, ok := m.current(); ok {
				return m, m.verify(e)
			}
			return m, nil
		}

	case verifiedMsg:
		m.verified[msg.name] = msg.err
		return m, nil
	}

	var cmd tea.Cmd
	before := m.filter.Value()
	m.filter, cmd = m.filter.Update(msg)
	if m.filter.Value() != before {
		m.applyFilter()
	}
	return m, cmd
}

func (m *browseModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Image Browser"))
	b.WriteString(" ")
	b.WriteString(m.filename)
	fmt.Fprintf(&b, "  base 0x%08x, %d bytes\n\n", m.img.Base(), m.img.Size())
	b.WriteString(m.filter.View())
	b.WriteString("\n\n")

	if len(m.entries) == 0 {
		b.WriteString(helpStyle.Render("no matching entries"))
		b.WriteString("\n")
	}
	for i, e := range m.entries {
		line := m.formatEntry(e)
		if i == m.selected {
			b.WriteString(selectedStyle.Render("> " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}

	if e, ok := m.current(); ok {
		b.WriteString("\n")
		b.WriteString(previewStyle.Render(preview(e.Handle)))
		b.WriteString("\n")
		if err, done := m.verified[e.Name]; done {
			if err != nil {
				b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", err)))
			} else {
				b.WriteString(nameStyle.Render("digest ok"))
			}
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("type to filter • ↑/↓ select • enter verify • esc quit"))
	return b.String()
}

func (m *browseModel) formatEntry(e image.Entry) string {
	s := fmt.Sprintf("%s  %d bytes at 0x%08x", nameStyle.Render(e.Name), e.Handle.Len(), e.Handle.Data())
	if e.Alias() {
		s += " " + aliasStyle.Render("(alias)")
	}
	return s
}

// preview renders the start of h as text when it is valid printable UTF-8
// and as hex otherwise. It reads through the uncached backend.
func preview(h *flashstring.Handle) string {
	buf := make([]byte, min(h.Len(), previewBytes))
	n := h.ReadFlash(0, buf)
	buf = buf[:n]
	if n == 0 {
		return "(empty)"
	}

	text := buf
	if h.Len() > n {
		text = trimPartialRune(text)
	}
	if utf8.Valid(text) && strings.IndexFunc(string(text), func(r rune) bool {
		return r != '\n' && r != '\t' && !unicode.IsPrint(r)
	}) < 0 {
		return string(text) + moreBytes(h.Len()-len(text))
	}

	var hex strings.Builder
	for i, c := range buf {
		if i > 0 && i%16 == 0 {
			hex.WriteByte('\n')
		} else if i > 0 {
			hex.WriteByte(' ')
		}
		fmt.Fprintf(&hex, "%02x", c)
	}
	return hex.String() + moreBytes(h.Len()-n)
}

// trimPartialRune drops a rune cut off at the end of b.
func trimPartialRune(b []byte) []byte {
	for i := len(b) - 1; i >= 0 && i >= len(b)-utf8.UTFMax; i-- {
		if utf8.RuneStart(b[i]) {
			if !utf8.FullRune(b[i:]) {
				return b[:i]
			}
			break
		}
	}
	return b
}

func moreBytes(n int) string {
	if n <= 0 {
		return ""
	}
	return fmt.Sprintf("\n… %d more bytes", n)
}
