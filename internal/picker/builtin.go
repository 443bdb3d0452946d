package picker

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/sahilm/fuzzy"
)

// PreviewFunc renders the preview for a picker line.
type PreviewFunc func(ctx context.Context, line string) string

// Builtin is a fuzzy-filtering list drawn with bubbletea, used when fzf is
// not installed.
type Builtin struct {
	Theme   Theme
	Preview PreviewFunc
	Help    func() string
}

// Select runs the list full-screen until the user chooses or leaves.
func (b *Builtin) Select(ctx context.Context, lines []string, opts Options) (Result, error) {
	if len(lines) == 0 {
		return Result{}, nil
	}
	m := newBuiltinModel(ctx, lines, opts, b)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := p.Run()
	if err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		return Result{}, fmt.Errorf("running picker: %w", err)
	}
	return final.(*builtinModel).result, nil
}

type previewMsg struct {
	line string
	text string
}

type builtinModel struct {
	ctx    context.Context
	lines  []string
	plain  []string
	prompt string

	input   textinput.Model
	matches []int // indices into lines, best first
	cursor  int

	preview     PreviewFunc
	help        func() string
	showPreview bool
	showHelp    bool
	previewFor  string
	previewText string

	width  int
	height int
	styles styles

	result Result
}

func newBuiltinModel(ctx context.Context, lines []string, opts Options, b *Builtin) *builtinModel {
	ti := textinput.New()
	ti.Prompt = ""
	ti.Placeholder = "type to filter"
	ti.CharLimit = 256
	ti.Focus()

	theme := b.Theme
	if theme == (Theme{}) {
		theme = DarkTheme()
	}

	m := &builtinModel{
		ctx:         ctx,
		lines:       lines,
		plain:       make([]string, len(lines)),
		prompt:      opts.prompt(),
		input:       ti,
		preview:     b.Preview,
		help:        b.Help,
		showPreview: opts.Preview && b.Preview != nil,
		styles:      newStyles(theme),
	}
	for i, l := range lines {
		m.plain[i] = ansi.Strip(l)
	}
	m.filter()
	return m
}

func (m *builtinModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.loadPreview())
}

// filter recomputes matches for the current query.
func (m *builtinModel) filter() {
	m.matches = m.matches[:0]
	q := m.input.Value()
	if q == "" {
		for i := range m.lines {
			m.matches = append(m.matches, i)
		}
	} else {
		for _, match := range fuzzy.Find(q, m.plain) {
			m.matches = append(m.matches, match.Index)
		}
	}
	if m.cursor >= len(m.matches) {
		m.cursor = max(len(m.matches)-1, 0)
	}
}

// current returns the highlighted line, or "" when nothing matches.
func (m *builtinModel) current() string {
	if m.cursor < 0 || m.cursor >= len(m.matches) {
		return ""
	}
	return m.lines[m.matches[m.cursor]]
}

func (m *builtinModel) loadPreview() tea.Cmd {
	line := m.current()
	if !m.showPreview || m.preview == nil || line == "" || line == m.previewFor {
		return nil
	}
	m.previewFor = line
	m.previewText = ""
	ctx, fn := m.ctx, m.preview
	return func() tea.Msg {
		return previewMsg{line: line, text: fn(ctx, line)}
	}
}

func (m *builtinModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case previewMsg:
		if msg.line == m.previewFor {
			m.previewText = msg.text
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *builtinModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key := msg.String(); key {
	case "ctrl+c", "esc":
		m.result = Result{}
		return m, tea.Quit

	case "enter":
		m.result = Result{Line: m.current()}
		return m, tea.Quit

	case "ctrl+x", "ctrl+r", "ctrl+s", "ctrl+n", "ctrl+p":
		line := m.current()
		if line == "" {
			return m, nil
		}
		m.result = Result{Line: line, Key: strings.ReplaceAll(key, "+", "-")}
		return m, tea.Quit

	case "up", "ctrl+k":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, m.loadPreview()

	case "down", "ctrl+j":
		if m.cursor < len(m.matches)-1 {
			m.cursor++
		}
		return m, m.loadPreview()

	case "?":
		m.showHelp = !m.showHelp && m.help != nil
		return m, nil
	}

	var cmd tea.Cmd
	before := m.input.Value()
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() != before {
		m.cursor = 0
		m.filter()
		return m, tea.Batch(cmd, m.loadPreview())
	}
	return m, cmd
}

func (m *builtinModel) View() string {
	if m.width == 0 {
		return "Loading..."
	}
	s := m.styles
	var b strings.Builder

	b.WriteString(s.prompt.Render(m.prompt + ": "))
	b.WriteString(m.input.View())
	b.WriteString("\n")

	listHeight := max(m.height-3, 1)
	side := m.sidePanel()
	listWidth := m.width
	if side != nil {
		listWidth = m.width / 2
	}

	// Scroll window [start, end) that keeps the cursor visible.
	start := 0
	if m.cursor >= listHeight {
		start = m.cursor - listHeight + 1
	}
	end := min(start+listHeight, len(m.matches))

	rows := make([]string, 0, listHeight)
	for i := start; i < end; i++ {
		idx := m.matches[i]
		if i == m.cursor {
			rows = append(rows, s.cursor.Render("▌ ")+s.selected.Render(fit(m.plain[idx], listWidth-2)))
			continue
		}
		rows = append(rows, "  "+fit(m.lines[idx], listWidth-2))
	}
	if len(m.matches) == 0 {
		rows = append(rows, s.dim.Render("  no matching sessions"))
	}
	for len(rows) < listHeight {
		rows = append(rows, strings.Repeat(" ", listWidth))
	}

	if side == nil {
		b.WriteString(strings.Join(rows, "\n"))
	} else {
		sideWidth := m.width - listWidth - 3
		right := make([]string, listHeight)
		for i := range right {
			if i < len(side) {
				right[i] = fit(side[i], sideWidth)
			}
		}
		sep := s.border.Render(strings.TrimRight(strings.Repeat(" │\n", listHeight), "\n"))
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
			strings.Join(rows, "\n"), sep+" ", strings.Join(right, "\n")))
	}
	b.WriteString("\n")

	b.WriteString(s.count.Render(fmt.Sprintf("  %d/%d", len(m.matches), len(m.lines))))
	b.WriteString("  ")
	b.WriteString(m.hints())
	return b.String()
}

// sidePanel returns the help or preview lines, or nil when hidden.
func (m *builtinModel) sidePanel() []string {
	switch {
	case m.showHelp && m.help != nil:
		return strings.Split(m.help(), "\n")
	case m.showPreview:
		if m.previewText == "" {
			return []string{m.styles.dim.Render("loading preview...")}
		}
		return strings.Split(strings.TrimRight(m.previewText, "\n"), "\n")
	}
	return nil
}

func (m *builtinModel) hints() string {
	pairs := [][2]string{
		{"enter", "switch"},
		{"ctrl-x", "kill"},
		{"ctrl-s", "start"},
		{"ctrl-p", "preview"},
		{"?", "help"},
		{"esc", "quit"},
	}
	parts := make([]string, len(pairs))
	for i, p := range pairs {
		parts[i] = m.styles.hintKey.Render(p[0]) + m.styles.hintDesc.Render("="+p[1])
	}
	return strings.Join(parts, "  ")
}

// fit truncates s to width cells and pads it to exactly width.
func fit(s string, width int) string {
	if width <= 0 {
		return ""
	}
	s = ansi.Truncate(s, width, "…")
	if w := ansi.StringWidth(s); w < width {
		s += strings.Repeat(" ", width-w)
	}
	return s
}
