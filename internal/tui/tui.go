// Package tui is the interactive browser: a list of column families and a
// table of the first rows of the selected one.
//
// Everything touching the store runs inside Update, on the program's own
// goroutine. A Store and its scans are never shared with a tea.Cmd.
package tui

import (
	"errors"
	"fmt"
	"strings"

	"dbviewer/internal/config"
	"dbviewer/internal/logging"
	"dbviewer/internal/repr"
	"dbviewer/internal/viewer"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var logger = logging.For("tui")

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	statusStyle = lipgloss.NewStyle().Faint(true)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

type screen int

const (
	screenFamilies screen = iota
	screenRows
)

// Options configure the browser.
type Options struct {
	Limit int            // rows shown per family; viewer.DefaultRowLimit when <= 0
	Open  viewer.Options // used for stores opened from inside the browser
}

type familyItem struct {
	name   string
	layout repr.Layout
}

func (i familyItem) Title() string       { return i.name }
func (i familyItem) Description() string { return i.layout.Key.String() + " -> " + i.layout.Value.String() }
func (i familyItem) FilterValue() string { return i.name }

func familyItems(s *viewer.Store) []list.Item {
	names := s.ColumnFamilies()
	items := make([]list.Item, len(names))
	for i, name := range names {
		items[i] = familyItem{name: name, layout: repr.Lookup(name)}
	}
	return items
}

// familyRows is the outcome of reading the first rows of a family.
type familyRows struct {
	family string
	rows   []viewer.Row
	capped bool
	err    error
}

// Model is the bubbletea model of the browser.
type Model struct {
	store *viewer.Store
	opts  Options

	screen    screen
	families  list.Model
	table     table.Model
	input     textinput.Model
	prompting bool
	family    string
	status    string
	failed    bool

	width  int
	height int
}

// New builds a browser over s.
func New(s *viewer.Store, opts Options) Model {
	if opts.Limit <= 0 {
		opts.Limit = viewer.DefaultRowLimit
	}
	l := list.New(familyItems(s), list.NewDefaultDelegate(), 0, 0)
	l.Title = "Column families"
	l.Styles.Title = titleStyle
	l.SetShowHelp(false)
	l.DisableQuitKeybindings()

	t := table.New(
		table.WithColumns(columns(80)),
		table.WithFocused(true),
		table.WithHeight(10),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.Bold(true)
	t.SetStyles(styles)

	in := textinput.New()
	in.Prompt = "open: "
	in.Placeholder = "path to a bolt file or leveldb directory"

	return Model{store: s, opts: opts, families: l, table: t, input: in}
}

// Run starts the browser on the terminal and blocks until the user quits.
// Run takes ownership of s: the store shown when the browser exits, s or
// one opened from inside it, is closed before Run returns.
func Run(s *viewer.Store, opts Options) error {
	final, err := tea.NewProgram(New(s, opts), tea.WithAltScreen()).Run()
	current := s
	if m, ok := final.(Model); ok {
		current = m.store
	}
	return errors.Join(err, current.Close())
}

func columns(width int) []table.Column {
	keyWidth := max(width/3, 8)
	valueWidth := max(width-keyWidth-4, 8)
	return []table.Column{
		{Title: "Key", Width: keyWidth},
		{Title: "Value", Width: valueWidth},
	}
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.families.SetSize(msg.Width, max(msg.Height-2, 1))
		m.table.SetColumns(columns(msg.Width))
		m.table.SetWidth(msg.Width)
		m.table.SetHeight(max(msg.Height-3, 1))
		m.input.Width = max(msg.Width-len(m.input.Prompt)-1, 1)
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch {
		case m.prompting:
			return m.updatePrompt(msg)
		case m.screen == screenRows:
			return m.updateRows(msg)
		default:
			return m.updateFamilies(msg)
		}
	}

	if m.prompting {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	if m.screen == screenFamilies {
		var cmd tea.Cmd
		m.families, cmd = m.families.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) updateFamilies(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.families.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.families, cmd = m.families.Update(msg)
		return m, cmd
	}
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "o":
		return m.startPrompt()
	case "enter":
		item, ok := m.families.SelectedItem().(familyItem)
		if !ok {
			return m, nil
		}
		return m.showRows(readFamily(m.store, item.name, m.opts.Limit)), nil
	}
	var cmd tea.Cmd
	m.families, cmd = m.families.Update(msg)
	return m, cmd
}

func (m Model) updateRows(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "o":
		return m.startPrompt()
	case "esc":
		m.screen = screenFamilies
		m.status = ""
		m.failed = false
		return m, nil
	}
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m Model) startPrompt() (tea.Model, tea.Cmd) {
	m.prompting = true
	m.input.SetValue("")
	return m, m.input.Focus()
}

func (m Model) updatePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.prompting = false
		m.input.Blur()
		return m, nil
	case "enter":
		m.prompting = false
		m.input.Blur()
		path := config.ExpandHome(strings.TrimSpace(m.input.Value()))
		if path == "" {
			return m, nil
		}
		return m.openStore(path)
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// openStore replaces the current store with the one at path. On failure the
// current store stays open and the error is shown.
func (m Model) openStore(path string) (tea.Model, tea.Cmd) {
	next, err := viewer.Open(path, m.opts.Open)
	if err != nil {
		logger.Warn("opening store failed", "path", path, "err", err)
		m.status, m.failed = err.Error(), true
		return m, nil
	}
	if err := m.store.Close(); err != nil {
		logger.Warn("closing store", "path", m.store.Path(), "err", err)
	}
	m.store = next

	m.families.ResetFilter()
	cmd := m.families.SetItems(familyItems(next))
	m.families.Select(0)
	m.table.SetRows(nil)
	m.screen = screenFamilies
	m.family = ""
	m.status, m.failed = "opened "+path, false
	return m, cmd
}

// readFamily reads one row past limit to tell a full family from a capped
// one. The scan is closed before it returns.
func readFamily(s *viewer.Store, family string, limit int) familyRows {
	cf, err := s.Resolve(family)
	if err != nil {
		return familyRows{family: family, err: err}
	}
	rows, err := s.Iterate(cf)
	if err != nil {
		return familyRows{family: family, err: err}
	}
	got, err := viewer.Take(rows, limit+1)
	capped := len(got) > limit
	if capped {
		got = got[:limit]
	}
	return familyRows{family: family, rows: got, capped: capped, err: err}
}

func (m Model) showRows(fr familyRows) Model {
	m.family = fr.family
	m.failed = fr.err != nil

	rows := make([]table.Row, len(fr.rows))
	for i, r := range fr.rows {
		rows[i] = table.Row{r.Key, r.Value}
	}
	m.table.SetRows(rows)
	m.table.SetCursor(0)
	m.screen = screenRows

	switch {
	case fr.err != nil:
		logger.Warn("showing truncated family", "family", fr.family, "rows", len(rows), "err", fr.err)
		m.status = fmt.Sprintf("%d rows, scan stopped: %v", len(rows), fr.err)
	case fr.capped:
		m.status = fmt.Sprintf("first %d rows (limit reached)", len(rows))
	default:
		m.status = fmt.Sprintf("%d rows", len(rows))
	}
	return m
}

func (m Model) View() string {
	title := titleStyle.Render("dbviewer") + "  " + m.store.Path()
	if m.screen == screenRows {
		title += " / " + m.family
	}

	var body, help string
	if m.screen == screenRows {
		body = m.table.View()
		help = "esc back  o open store  q quit"
	} else {
		body = m.families.View()
		help = "enter rows  o open store  / filter  q quit"
	}

	if m.prompting {
		return lipgloss.JoinVertical(lipgloss.Left, title, body, m.input.View())
	}
	status := statusStyle.Render(help)
	if m.status != "" {
		style := statusStyle
		if m.failed {
			style = errorStyle
		}
		status = style.Render(m.status) + "  " + status
	}
	return lipgloss.JoinVertical(lipgloss.Left, title, body, status)
}
