package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/rubiojr/hnsearch/pkg/search"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("214"))

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	metaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	urlStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("33"))

	selectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("32")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true).
			Margin(1, 0)

	loadingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)
)

const (
	indexWidth    = 5
	authorWidth   = 16
	commentsWidth = 10
	pointsWidth   = 8
	minTitleWidth = 20
)

var numbers = message.NewPrinter(language.English)

// FormatCount renders n with thousands separators.
func FormatCount(n int) string {
	return numbers.Sprintf("%d", n)
}

// Truncate shortens s to width cells, ending with "…" when cut.
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return ansi.Truncate(s, width, "…")
}

func cell(s string, width int, style lipgloss.Style) string {
	return style.Width(width).Render(Truncate(s, width-1))
}

// TermTable renders hits as fixed-width rows fitting width columns. The
// row at selected is highlighted; pass -1 for none. No hits renders just
// the header.
func TermTable(hits []search.Item, width, selected int) string {
	titleWidth := width - indexWidth - authorWidth - commentsWidth - pointsWidth
	if titleWidth < minTitleWidth {
		titleWidth = minTitleWidth
	}

	var b strings.Builder
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		cell("#", indexWidth, headerStyle),
		cell("Title", titleWidth, headerStyle),
		cell("Author", authorWidth, headerStyle),
		cell("Comments", commentsWidth, headerStyle),
		cell("Points", pointsWidth, headerStyle),
	))
	b.WriteString("\n")

	for i, item := range hits {
		ts := titleStyle
		if i == selected {
			ts = selectedStyle
		}
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
			cell(fmt.Sprintf("%d", i+1), indexWidth, metaStyle),
			cell(item.Title, titleWidth, ts),
			cell(item.Author, authorWidth, metaStyle),
			cell(FormatCount(item.NumComments), commentsWidth, metaStyle),
			cell(FormatCount(item.Points), pointsWidth, metaStyle),
		))
		b.WriteString("\n")
		if i == selected && item.URL != "" {
			b.WriteString(strings.Repeat(" ", indexWidth))
			b.WriteString(urlStyle.Render(Truncate(item.URL, titleWidth+authorWidth)))
			b.WriteString("\n")
		}
	}
	return b.String()
}

// TermStatus summarizes the active search in one line.
func TermStatus(snap search.Snapshot) string {
	status := fmt.Sprintf("%q · page %d · %s hits",
		snap.ActiveKey, snap.ActivePage, FormatCount(len(snap.ActiveHits)))
	if snap.TotalHits > 0 {
		status += fmt.Sprintf(" of %s", FormatCount(snap.TotalHits))
	}
	return statusStyle.Render(status)
}

func TermLoading() string {
	return loadingStyle.Render("Loading ...")
}

// TermWithLoading substitutes the loading indicator for s while isLoading
// is set.
func TermWithLoading(isLoading bool, s string) string {
	if isLoading {
		return TermLoading()
	}
	return s
}

func TermErrorNotice() string {
	return errorStyle.Render("Something went wrong.")
}

// TermResults is the error notice when the session failed, the table
// otherwise.
func TermResults(snap search.Snapshot, width, selected int) string {
	if snap.HasError {
		return TermErrorNotice()
	}
	return TermTable(snap.ActiveHits, width, selected)
}
