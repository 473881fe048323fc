package render

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var termPage = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(lipgloss.Color("#dce0e5")).
	Padding(1, 3)

var (
	termName    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#101F38"))
	termContact = lipgloss.NewStyle().Foreground(lipgloss.Color("#6c757d"))
	termTitle   = lipgloss.NewStyle().Bold(true).Underline(true).MarginTop(1)
	termHeading = lipgloss.NewStyle().Bold(true)
	termAside   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6c757d"))
	termSub     = lipgloss.NewStyle().Italic(true)
	termEmpty   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6c757d")).Padding(2, 4)
)

// Terminal renders d as a boxed page for a terminal of the given width.
// A width of zero or less leaves lines unwrapped.
func Terminal(d Document, width int) string {
	if d.Empty {
		return termEmpty.Render(termHeading.Render(EmptyTitle) + "\n" + EmptyHint)
	}

	inner := width - termPage.GetHorizontalFrameSize()
	var lines []string
	lines = append(lines, termName.Render(d.Header.Name))
	if len(d.Header.Contact) > 0 {
		items := make([]string, len(d.Header.Contact))
		for i, c := range d.Header.Contact {
			items[i] = c.Text
		}
		lines = append(lines, termContact.Render(strings.Join(items, " · ")))
	}

	for _, s := range d.Sections {
		lines = append(lines, termTitle.Render(strings.ToUpper(s.Title)))
		if s.Text != "" {
			lines = append(lines, s.Text)
		}
		for _, e := range s.Entries {
			head := termHeading.Render(e.Heading) + e.Suffix
			if e.Aside != "" {
				head = lipgloss.JoinHorizontal(lipgloss.Top, head, "  ", termAside.Render(e.Aside))
			}
			lines = append(lines, head)
			if e.Sub != "" {
				lines = append(lines, termSub.Render(e.Sub))
			}
			if e.Link != "" {
				lines = append(lines, termAside.Render(e.Link))
			}
			if e.Text != "" {
				lines = append(lines, e.Text)
			}
			for _, b := range e.Bullets {
				lines = append(lines, "  • "+b)
			}
		}
		for _, r := range s.Rows {
			if r.Label != "" {
				lines = append(lines, termHeading.Render(r.Label+":")+" "+r.Text)
			} else {
				lines = append(lines, r.Text)
			}
		}
		for _, b := range s.Bullets {
			lines = append(lines, "  • "+b)
		}
	}

	body := strings.Join(lines, "\n")
	if inner > 0 {
		body = lipgloss.NewStyle().Width(inner).Render(body)
	}
	return termPage.Render(body)
}
