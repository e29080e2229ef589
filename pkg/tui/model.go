// Package tui is an interactive terminal front end for a search session.
// It runs the same reducer as the web sessions; fetches run as bubbletea
// commands and come back as fetch events.
package tui

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rubiojr/hnsearch/pkg/log"
	"github.com/rubiojr/hnsearch/pkg/metrics"
	"github.com/rubiojr/hnsearch/pkg/search"
	"github.com/rubiojr/hnsearch/pkg/views"
)

// chrome is the number of lines used around the results viewport: title,
// search box (3 with border), status line, separator and help.
const chrome = 7

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)

	noticeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	moreStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("33"))

	separatorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
)

type Model struct {
	ctx     context.Context
	fetcher search.Fetcher
	logger  *log.Logger

	state    search.State
	input    textinput.Model
	results  viewport.Model
	help     help.Model
	keys     keyMap
	selected int
	notice   string
	width    int
	height   int
}

// New returns a model that searches for query through fetcher once the
// program starts.
func New(ctx context.Context, fetcher search.Fetcher, query string) *Model {
	ti := textinput.New()
	ti.Placeholder = "Search Hacker News..."
	ti.Prompt = "› "
	ti.SetValue(query)
	ti.Focus()

	return &Model{
		ctx:     ctx,
		fetcher: fetcher,
		logger:  log.ForService("tui"),
		state:   search.NewState(query),
		input:   ti,
		results: viewport.New(80, 20),
		help:    help.New(),
		keys:    defaultKeyMap(),
		width:   80,
	}
}

// Snapshot returns the current session projection.
func (m *Model) Snapshot() search.Snapshot {
	return m.state.Snapshot()
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.apply(search.Mounted{}), textinput.Blink)
}

// apply feeds ev through the reducer and returns the fetch command it asks
// for, if any.
func (m *Model) apply(ev search.Event) tea.Cmd {
	next, req, err := search.Reduce(m.state, ev)
	if err != nil {
		if errors.Is(err, search.ErrInvalidState) {
			m.notice = "Nothing to dismiss."
		} else {
			m.notice = err.Error()
		}
		m.logger.Debugf("event %T rejected: %v", ev, err)
		return nil
	}
	m.state = next
	m.clampSelection()
	m.refresh()

	if req == nil {
		return nil
	}
	m.logger.Debugf("fetching %s", req)
	return m.fetch(*req)
}

func (m *Model) fetch(req search.FetchRequest) tea.Cmd {
	ctx, fetcher := m.ctx, m.fetcher
	return func() tea.Msg {
		page, err := fetcher.Search(ctx, req.Key, req.Page)
		if err != nil {
			return search.FetchFailed{Request: req, Err: err}
		}
		return search.FetchSucceeded{Request: req, Page: page}
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = max(msg.Width-8, 10)
		m.help.Width = msg.Width
		m.results.Width = msg.Width
		m.results.Height = max(msg.Height-chrome, 1)
		m.refresh()
		return m, nil

	case search.FetchSucceeded:
		return m, m.apply(msg)

	case search.FetchFailed:
		m.logger.Warnf("fetch failed: %v", msg.Err)
		return m, m.apply(msg)

	case tea.KeyMsg:
		if m.input.Focused() {
			return m, m.updateInput(msg)
		}
		return m, m.updateList(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) updateInput(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Exit):
		return tea.Quit
	case key.Matches(msg, m.keys.Submit):
		m.notice = ""
		m.input.Blur()
		m.selected = 0
		return m.apply(search.Submitted{})
	case key.Matches(msg, m.keys.Focus):
		m.input.Blur()
		m.refresh()
		return nil
	}

	var cmd tea.Cmd
	before := m.input.Value()
	m.input, cmd = m.input.Update(msg)
	if after := m.input.Value(); after != before {
		return tea.Batch(cmd, m.apply(search.InputChanged{Text: after}))
	}
	return cmd
}

func (m *Model) updateList(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit
	case key.Matches(msg, m.keys.Focus), key.Matches(msg, m.keys.Find):
		cmd := m.input.Focus()
		m.refresh()
		return cmd
	case key.Matches(msg, m.keys.Up):
		if m.selected > 0 {
			m.selected--
			m.refresh()
		}
	case key.Matches(msg, m.keys.Down):
		if m.selected < len(m.Snapshot().ActiveHits)-1 {
			m.selected++
			m.refresh()
		}
	case key.Matches(msg, m.keys.More):
		// The next page is only known once the pending fetch lands.
		if m.state.Loading() {
			return nil
		}
		m.notice = ""
		return m.apply(search.LoadMoreRequested{})
	case key.Matches(msg, m.keys.Dismiss):
		m.notice = ""
		hits := m.Snapshot().ActiveHits
		if m.selected >= len(hits) {
			m.notice = "Nothing to dismiss."
			return nil
		}
		cmd := m.apply(search.Dismissed{ObjectID: hits[m.selected].ObjectID})
		if m.notice == "" {
			metrics.DismissedTotal.Inc()
		}
		return cmd
	}
	return nil
}

func (m *Model) clampSelection() {
	n := len(m.state.Snapshot().ActiveHits)
	if m.selected >= n {
		m.selected = n - 1
	}
	if m.selected < 0 {
		m.selected = 0
	}
}

// refresh re-renders the results into the viewport and scrolls so the
// selected row stays visible.
func (m *Model) refresh() {
	snap := m.state.Snapshot()
	selected := m.selected
	if m.input.Focused() {
		selected = -1
	}
	m.keys.More.SetEnabled(!snap.IsLoading)
	m.results.SetContent(views.TermResults(snap, m.width, selected))

	// Header line plus one line per row above the selection.
	line := m.selected + 1
	switch {
	case line < m.results.YOffset:
		m.results.SetYOffset(line)
	case m.results.Height > 0 && line >= m.results.YOffset+m.results.Height-1:
		m.results.SetYOffset(line - m.results.Height + 2)
	}
}

func (m *Model) View() string {
	snap := m.state.Snapshot()

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)
	if m.input.Focused() {
		box = box.BorderForeground(lipgloss.Color("214"))
	}

	status := views.TermStatus(snap) + "  " +
		views.TermWithLoading(snap.IsLoading, moreStyle.Render("m: more"))
	if m.notice != "" {
		status += "  " + noticeStyle.Render(m.notice)
	}

	bindings := m.keys.listKeys()
	if m.input.Focused() {
		bindings = m.keys.inputKeys()
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("› hnsearch"),
		box.Render(m.input.View()),
		status,
		m.results.View(),
		separatorStyle.Render(strings.Repeat("─", max(m.width, 1))),
		m.help.ShortHelpView(bindings),
	)
}
